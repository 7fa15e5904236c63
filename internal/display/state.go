// Package display owns the LED display state machine and turns readings
// into 8x8 pixel frames. It never touches hardware; internal/device does.
package display

import (
	"time"

	"github.com/f451labs/sysmon/internal/config"
)

// Event is a discrete joystick action, drained from the device's polled
// event queue once per loop tick.
type Event int

const (
	EventNone Event = iota
	EventLeft
	EventRight
	EventUp
	EventDown
	EventMiddle
)

func (e Event) String() string {
	switch e {
	case EventLeft:
		return "left"
	case EventRight:
		return "right"
	case EventUp:
		return "up"
	case EventDown:
		return "down"
	case EventMiddle:
		return "middle"
	default:
		return "none"
	}
}

// rotations is the cycling order for joystick up/down.
var rotations = []int{0, 90, 180, 270}

// State tracks the mutable display state: active mode, rotation, blanking
// and the progress-bar flag. Owned by the render loop; mutated only by
// joystick events and sleep-timer expiry.
type State struct {
	Mode            string
	Rotation        int
	Blanked         bool
	ProgressVisible bool

	lastActivity time.Time
}

// NewState builds the initial display state from the runtime config.
func NewState(cfg *config.Config, now time.Time) State {
	return State{
		Mode:            cfg.Display,
		Rotation:        cfg.Rotation,
		ProgressVisible: cfg.Progress,
		lastActivity:    now,
	}
}

// Apply handles one joystick event. Any event counts as user activity and
// clears blanking, except middle which toggles it.
func (s *State) Apply(e Event, now time.Time) {
	s.lastActivity = now

	switch e {
	case EventLeft:
		s.Mode = cycleMode(s.Mode, -1)
		s.Blanked = false
	case EventRight:
		s.Mode = cycleMode(s.Mode, +1)
		s.Blanked = false
	case EventUp:
		s.Rotation = cycleRotation(s.Rotation, -1)
		s.Blanked = false
	case EventDown:
		s.Rotation = cycleRotation(s.Rotation, +1)
		s.Blanked = false
	case EventMiddle:
		s.Blanked = !s.Blanked
	}
}

// TickSleep blanks the display once the idle timeout has elapsed since
// the last joystick event.
func (s *State) TickSleep(now time.Time, timeout time.Duration) {
	if now.Sub(s.lastActivity) > timeout {
		s.Blanked = true
	}
}

func cycleMode(mode string, dir int) string {
	idx := 0
	for i, m := range config.Modes {
		if m == mode {
			idx = i
			break
		}
	}
	n := len(config.Modes)
	return config.Modes[((idx+dir)%n+n)%n]
}

func cycleRotation(rot, dir int) int {
	idx := 0
	for i, r := range rotations {
		if r == rot {
			idx = i
			break
		}
	}
	n := len(rotations)
	return rotations[((idx+dir)%n+n)%n]
}
