// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/devblok/gravity/core"
	"github.com/devblok/gravity/core/renderer"
	"github.com/devblok/gravity/gfx/vkr"
	"github.com/devblok/gravity/window"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
)

// BuiltinShaders is used when the configured shader location does not exist
var BuiltinShaders packr.Box

func init() {
	runtime.LockOSThread()
	BuiltinShaders = packr.NewBox("../../shaders")
}

func main() {
	if err := realMain(os.Args[1:], run); err != nil {
		log.WithError(err).Error("gravity exited with error")
		os.Exit(1)
	}
}

// realMain parses args, starts the requested profiles and runs the engine.
// It returns only after every profile has been flushed.
func realMain(args []string, run func(core.Configuration) error) error {
	flags := flag.NewFlagSet("gravity", flag.ContinueOnError)
	var (
		cpuProfile   = flags.String("cpuprof", "", "Profile CPU usage to file")
		memProfile   = flags.String("memprof", "", "Profile memory usage into a file")
		traceProfile = flags.String("trace", "", "Trace output for profiling")
		debug        = flags.Bool("vkdbg", false, "Load Vulkan validation layers")
		envFile      = flags.String("env", "", "Read configuration from a dotenv file")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	log.SetLevel(configuration.LogLevel)
	if *debug {
		configuration.Instance.DebugMode = true
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return fmt.Errorf("cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		defer trace.Stop()
	}

	runErr := run(configuration)

	if *memProfile != "" {
		if err := writeHeapProfile(*memProfile); err != nil {
			log.WithError(err).Error("memory profile")
		}
	}
	return runErr
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run(configuration core.Configuration) error {
	quit, err := window.Init()
	if err != nil {
		return err
	}
	defer quit()

	sdlWindow, err := window.NewSDLWindow("Gravity",
		int32(configuration.Renderer.ScreenWidth),
		int32(configuration.Renderer.ScreenHeight))
	if err != nil {
		return err
	}
	defer sdlWindow.Destroy()

	vulkan, err := vkr.NewVulkan(vkr.DefaultApplicationInfo, window.ProcAddr(), vkr.InstanceConfiguration{
		DebugMode:  configuration.Instance.DebugMode,
		Extensions: sdlWindow.RequiredExtensions(),
	})
	if err != nil {
		return core.NewResourceError(core.StageInstance, err)
	}
	defer vulkan.Destroy()

	surface, err := core.CreateSurface(sdlWindow, vulkan.Instance())
	if err != nil {
		return err
	}
	defer vulkan.DestroySurface(surface)

	shaders, err := core.LoadShadersWithFallback(configuration.Renderer.Shaders, configuration.Renderer.ShaderName, BuiltinShaders)
	if err != nil {
		return err
	}

	vkRenderer := renderer.NewVulkanRenderer(vulkan, surface, configuration.Renderer)
	if err := vkRenderer.Initialise(shaders); err != nil {
		return err
	}
	defer vkRenderer.Destroy()

	log.WithFields(log.Fields{
		"device":  vkRenderer.PhysicalDevice().Name,
		"queues":  vkRenderer.QueueFamilies(),
		"extent":  vkRenderer.Swapchain().Extent(),
		"images":  len(vkRenderer.Swapchain().Images),
		"present": vkRenderer.Swapchain().Config.PresentMode,
	}).Info("rendering context ready")

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			log.Debug("event loop exited")
			break EventLoop
		case <-timeService.EventTicker().C:
			switch sdlWindow.PollEvents() {
			case window.EventQuit:
				cancel()
			case window.EventResize:
				width, height := sdlWindow.DrawableSize()
				if width == 0 || height == 0 {
					// minimised
					continue
				}
				if err := vkRenderer.Recreate(uint32(width), uint32(height)); err != nil {
					return err
				}
				log.WithField("extent", vkRenderer.Swapchain().Extent()).Debug("swapchain recreated")
			}
		}
	}
	return nil
}
