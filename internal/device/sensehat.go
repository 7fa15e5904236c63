package device

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/f451labs/sysmon/internal/display"
	"github.com/f451labs/sysmon/internal/errors"
	"github.com/f451labs/sysmon/internal/logger"
	"golang.org/x/sys/unix"
)

const (
	senseFBName       = "RPi-Sense FB"
	senseJoystickName = "Raspberry Pi Sense HAT Joystick"

	evKey = 0x01

	keyUp    = 103
	keyDown  = 108
	keyLeft  = 105
	keyRight = 106
	keyEnter = 28
)

// SenseHat drives the physical 8x8 LED matrix through the kernel
// framebuffer and reads the joystick from its evdev node. Both handles
// are located by name under sysfs, so the fb/event indices assigned at
// boot do not matter.
type SenseHat struct {
	fb  *os.File
	js  *os.File
	log logger.Logger
}

// OpenSenseHat locates and opens the Sense HAT framebuffer and joystick.
// The joystick is opened non-blocking; Events drains whatever the kernel
// has buffered since the previous tick.
func OpenSenseHat(log logger.Logger) (*SenseHat, error) {
	fbPath, err := findFramebuffer()
	if err != nil {
		return nil, err
	}
	fb, err := os.OpenFile(fbPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDisplay,
			fmt.Sprintf("cannot open LED framebuffer %s", fbPath),
			"run as a user with access to /dev/fb* (video group)")
	}

	jsPath, err := findJoystick()
	if err != nil {
		fb.Close()
		return nil, err
	}
	js, err := os.OpenFile(jsPath, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		fb.Close()
		return nil, errors.WrapWithCode(err, errors.ErrDisplay,
			fmt.Sprintf("cannot open joystick %s", jsPath),
			"run as a user with access to /dev/input/event* (input group)")
	}

	log.Debug("sense hat ready: fb=%s joystick=%s", fbPath, jsPath)
	return &SenseHat{fb: fb, js: js, log: log}, nil
}

// Render writes the frame to the framebuffer as RGB565, the Sense HAT's
// native pixel format.
func (s *SenseHat) Render(f display.Frame) error {
	buf := make([]byte, display.Size*display.Size*2)
	for y := 0; y < display.Size; y++ {
		for x := 0; x < display.Size; x++ {
			p := f[y][x]
			v := uint16(p.R>>3)<<11 | uint16(p.G>>2)<<5 | uint16(p.B>>3)
			binary.LittleEndian.PutUint16(buf[(y*display.Size+x)*2:], v)
		}
	}
	if _, err := s.fb.WriteAt(buf, 0); err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay, "framebuffer write failed", "")
	}
	return nil
}

// inputEvent mirrors the kernel's struct input_event on 64-bit targets,
// which covers the Pi OS builds this agent runs on.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24

// Events drains pending joystick input. Key presses and holds map to
// events; releases are ignored so one push produces one event.
func (s *SenseHat) Events() []display.Event {
	var events []display.Event
	buf := make([]byte, inputEventSize*32)
	for {
		n, err := s.js.Read(buf)
		if err != nil || n < inputEventSize {
			return events
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			ev := decodeInputEvent(buf[off : off+inputEventSize])
			if ev.Type != evKey || ev.Value == 0 {
				continue
			}
			if e := keyToEvent(ev.Code); e != display.EventNone {
				events = append(events, e)
			}
		}
	}
}

// Close blanks the matrix before releasing the handles so a stopped
// agent does not leave a stale graph glowing.
func (s *SenseHat) Close() error {
	renderErr := s.Render(display.Frame{})
	jsErr := s.js.Close()
	fbErr := s.fb.Close()
	if renderErr != nil {
		return renderErr
	}
	if jsErr != nil {
		return jsErr
	}
	return fbErr
}

func decodeInputEvent(b []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(b[0:])),
		Usec:  int64(binary.LittleEndian.Uint64(b[8:])),
		Type:  binary.LittleEndian.Uint16(b[16:]),
		Code:  binary.LittleEndian.Uint16(b[18:]),
		Value: int32(binary.LittleEndian.Uint32(b[20:])),
	}
}

func keyToEvent(code uint16) display.Event {
	switch code {
	case keyUp:
		return display.EventUp
	case keyDown:
		return display.EventDown
	case keyLeft:
		return display.EventLeft
	case keyRight:
		return display.EventRight
	case keyEnter:
		return display.EventMiddle
	default:
		return display.EventNone
	}
}

func findFramebuffer() (string, error) {
	matches, _ := filepath.Glob("/sys/class/graphics/fb*")
	for _, dir := range matches {
		name, err := os.ReadFile(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(name)) == senseFBName {
			return "/dev/" + filepath.Base(dir), nil
		}
	}
	return "", errors.New(errors.ErrDisplay,
		"Sense HAT framebuffer not found",
		"check the HAT is seated and the rpi-sense-fb overlay is loaded, or run with --noLED")
}

func findJoystick() (string, error) {
	matches, _ := filepath.Glob("/sys/class/input/event*")
	for _, dir := range matches {
		name, err := os.ReadFile(filepath.Join(dir, "device", "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(name)) == senseJoystickName {
			return "/dev/input/" + filepath.Base(dir), nil
		}
	}
	return "", errors.New(errors.ErrDisplay,
		"Sense HAT joystick not found",
		"check the HAT is seated, or run with --noLED")
}
