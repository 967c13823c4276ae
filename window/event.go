// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Event is what the window wants the application to react to,
// higher values take precedence
type Event int

// Window events
const (
	EventNone Event = iota
	EventResize
	EventQuit
)

func (e Event) String() string {
	switch e {
	case EventResize:
		return "resize"
	case EventQuit:
		return "quit"
	default:
		return "none"
	}
}

// Classify maps an SDL event to a window event
func Classify(event sdl.Event) Event {
	switch et := event.(type) {
	case *sdl.QuitEvent:
		return EventQuit
	case *sdl.KeyboardEvent:
		if et.Type == sdl.KEYDOWN && et.Keysym.Sym == sdl.K_ESCAPE {
			return EventQuit
		}
	case *sdl.WindowEvent:
		switch et.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return EventQuit
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return EventResize
		}
	}
	return EventNone
}
