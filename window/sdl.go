// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the native SDL window the renderer draws into.
// Everything here must run on the main OS thread.
package window

import (
	"unsafe"

	"github.com/devblok/gravity/core"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

// SDLError is an SDL failure with the message SDL reported
type SDLError struct {
	Msg    string
	SDLErr error
}

func (e *SDLError) Error() string {
	if e.SDLErr == nil {
		return "SDL: " + e.Msg
	}
	return "SDL: " + e.Msg + " :: " + e.SDLErr.Error()
}

// Unwrap returns the SDL error
func (e *SDLError) Unwrap() error {
	return e.SDLErr
}

func newSDLError(msg string, err error) error {
	if err == nil {
		err = sdl.GetError()
	}
	return &SDLError{Msg: msg, SDLErr: err}
}

// Init initialises SDL video and events and loads the Vulkan library.
// The returned function undoes it.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, newSDLError("init", err)
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, newSDLError("loading vulkan library", err)
	}
	return func() {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
	}, nil
}

// ProcAddr returns the Vulkan loader entry point SDL loaded
func ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// SDLWindow is a resizable Vulkan capable window
type SDLWindow struct {
	window *sdl.Window
}

var _ core.SurfaceProvider = (*SDLWindow)(nil)

// NewSDLWindow creates and shows a window, Init must have been called
func NewSDLWindow(title string, width, height int32) (*SDLWindow, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width,
		height,
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, newSDLError("creating window", err)
	}

	log.WithFields(log.Fields{
		"title":  title,
		"width":  width,
		"height": height,
	}).Debug("window created")
	return &SDLWindow{window: window}, nil
}

// RequiredExtensions implements core.SurfaceProvider
func (w *SDLWindow) RequiredExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements core.SurfaceProvider
func (w *SDLWindow) CreateSurface(instance interface{}) (vk.Surface, error) {
	surface, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, newSDLError("creating vulkan surface", err)
	}
	return vk.SurfaceFromPointer(uintptr(surface)), nil
}

// DrawableSize implements core.SurfaceProvider
func (w *SDLWindow) DrawableSize() (int32, int32) {
	return w.window.VulkanGetDrawableSize()
}

// PollEvents drains the event queue and returns the most important
// event seen, quit taking precedence over resize
func (w *SDLWindow) PollEvents() Event {
	result := EventNone
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e := Classify(event); e > result {
			result = e
		}
	}
	return result
}

// Destroy closes the window
func (w *SDLWindow) Destroy() {
	if err := w.window.Destroy(); err != nil {
		log.WithError(err).Warn("window destruction failed")
	}
}
