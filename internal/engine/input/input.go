// Package input turns SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventMouseDrag
	EventMouseClick
	EventMouseWheel
	EventMouseRelease
)

// clickSlop is how far, in pixels, the pointer may move between press and
// release and still count as a click rather than a drag.
const clickSlop = 4

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX float32 // Drag distance, or wheel steps
	DeltaY float32
}

// Input handles all input processing.
type Input struct {
	events   []Event
	dragging bool
	moved    int32
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				i.events = append(i.events, Event{
					Type: EventKeyDown,
					Key:  e.Keysym.Scancode,
				})
			}

		case *sdl.MouseMotionEvent:
			if i.dragging && e.State&sdl.ButtonLMask() != 0 {
				i.moved += abs(e.XRel) + abs(e.YRel)
				i.events = append(i.events, Event{
					Type:   EventMouseDrag,
					MouseX: int(e.X),
					MouseY: int(e.Y),
					DeltaX: float32(e.XRel),
					DeltaY: float32(e.YRel),
				})
			}

		case *sdl.MouseButtonEvent:
			if e.Button != sdl.BUTTON_LEFT {
				continue
			}
			if e.Type == sdl.MOUSEBUTTONDOWN {
				i.dragging = true
				i.moved = 0
			} else if e.Type == sdl.MOUSEBUTTONUP {
				i.dragging = false
				typ := EventMouseRelease
				if i.moved <= clickSlop {
					typ = EventMouseClick
				}
				i.events = append(i.events, Event{
					Type:   typ,
					MouseX: int(e.X),
					MouseY: int(e.Y),
				})
			}

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, Event{
				Type:   EventMouseWheel,
				DeltaY: float32(e.Y),
			})
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
