// Package device abstracts the LED matrix and joystick behind a small
// capability interface with three variants: the real Sense HAT, the
// terminal dashboard simulator, and a noop for --noLED runs. The variant
// is selected once at startup by configuration, never probed at runtime.
package device

import "github.com/f451labs/sysmon/internal/display"

// Device is the LED/joystick capability owned by the render loop for the
// process lifetime: acquired once at startup, released on every exit
// path.
type Device interface {
	// Render pushes a frame to the LED matrix.
	Render(f display.Frame) error
	// Events drains and returns the joystick events queued since the last
	// call, in arrival order. Never blocks.
	Events() []display.Event
	// Close blanks the matrix and releases the underlying handles.
	Close() error
}

// Noop satisfies Device while doing nothing, used with --noLED.
type Noop struct{}

func (Noop) Render(display.Frame) error { return nil }
func (Noop) Events() []display.Event    { return nil }
func (Noop) Close() error               { return nil }

// Queue is a bounded event queue bridging an event producer (the
// dashboard's key handler) to the loop's per-tick drain. Events beyond
// the capacity are dropped rather than blocking the producer.
type Queue struct {
	ch chan display.Event
}

// NewQueue creates a queue holding up to cap pending events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 16
	}
	return &Queue{ch: make(chan display.Event, capacity)}
}

// Push enqueues an event, dropping it if the queue is full.
func (q *Queue) Push(e display.Event) {
	select {
	case q.ch <- e:
	default:
	}
}

// Drain returns all pending events in order.
func (q *Queue) Drain() []display.Event {
	var events []display.Event
	for {
		select {
		case e := <-q.ch:
			events = append(events, e)
		default:
			return events
		}
	}
}
