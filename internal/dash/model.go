// Package dash is the interactive terminal dashboard: a live view of the
// current readings, the simulated LED matrix, and the upload cadence. Its
// arrow and enter keys double as the joystick when no Sense HAT is
// attached, feeding the same polled event queue the hardware driver
// fills.
package dash

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/f451labs/sysmon/internal/device"
	"github.com/f451labs/sysmon/internal/display"
	"github.com/f451labs/sysmon/internal/sample"
)

// Snapshot is the agent's per-tick state push. The dashboard renders
// whatever the latest snapshot says; it never computes agent state
// itself.
type Snapshot struct {
	At       time.Time
	Readings sample.Readings
	HaveData bool
	History  map[sample.Metric][]float64

	Mode     string
	Rotation int
	Blanked  bool

	Progress       float64
	NextUpload     time.Time
	Uploads        int
	Throttles      int
	Failures       int
	UploadsEnabled bool
	LastOutcome    string

	Sampling bool
}

// frameMsg carries a rendered LED frame for the matrix preview.
type frameMsg display.Frame

// snapshotMsg carries the agent's state push.
type snapshotMsg Snapshot

// Key bindings as constants for consistency. Arrows and enter are the
// simulated joystick; they go to the event queue, not to the model.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyLeft       = "left"
	KeyRight      = "right"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyMiddle     = "enter"
	KeyToggleHelp = "?"
)

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	version string
	queue   *device.Queue

	snapshot Snapshot
	frame    display.Frame

	bar      progress.Model
	width    int
	height   int
	showHelp bool
	quitting bool
}

// NewModel creates the dashboard model. Joystick key presses are pushed
// to the given queue for the agent loop to drain.
func NewModel(version string, queue *device.Queue) Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 32
	return Model{
		version: version,
		queue:   queue,
		bar:     bar,
	}
}

// Init has nothing to start; all updates arrive from the agent loop.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m.snapshot = Snapshot(msg)

	case frameMsg:
		m.frame = display.Frame(msg)
	}

	return m, nil
}

// handleKey maps keyboard input: joystick keys go to the queue, the rest
// control the dashboard itself.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyLeft:
		m.queue.Push(display.EventLeft)
		return true, nil
	case KeyRight:
		m.queue.Push(display.EventRight)
		return true, nil
	case KeyUp:
		m.queue.Push(display.EventUp)
		return true, nil
	case KeyDown:
		m.queue.Push(display.EventDown)
		return true, nil
	case KeyMiddle:
		m.queue.Push(display.EventMiddle)
		return true, nil
	}

	return false, nil
}
