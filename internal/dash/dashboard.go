package dash

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/f451labs/sysmon/internal/device"
	"github.com/f451labs/sysmon/internal/display"
)

// Dashboard wraps the Bubble Tea program so the agent loop can push state
// without knowing anything about terminals. The program runs on its own
// goroutine; Done closes when the user quits or the terminal goes away.
type Dashboard struct {
	program *tea.Program
	queue   *device.Queue
	done    chan struct{}
	err     error
}

// New creates a dashboard and its joystick event queue.
func New(version string) *Dashboard {
	queue := device.NewQueue(16)
	model := NewModel(version, queue)
	return &Dashboard{
		program: tea.NewProgram(model, tea.WithAltScreen()),
		queue:   queue,
		done:    make(chan struct{}),
	}
}

// Start runs the program on its own goroutine.
func (d *Dashboard) Start() {
	go func() {
		_, d.err = d.program.Run()
		close(d.done)
	}()
}

// Done closes when the dashboard has exited, either from a quit key or a
// terminal error. The agent treats it like SIGINT.
func (d *Dashboard) Done() <-chan struct{} {
	return d.done
}

// Err returns the terminal error after Done closes, if any.
func (d *Dashboard) Err() error {
	return d.err
}

// Push sends the latest agent state. Safe to call from the agent loop.
func (d *Dashboard) Push(s Snapshot) {
	d.program.Send(snapshotMsg(s))
}

// Stop quits the program and waits for it to release the terminal.
func (d *Dashboard) Stop() {
	d.program.Quit()
	<-d.done
}

// Device returns the simulated LED/joystick backed by this dashboard.
func (d *Dashboard) Device() device.Device {
	return &sim{dash: d}
}

// sim adapts the dashboard to the device interface: rendered frames go to
// the matrix preview and Events drains the key-fed queue.
type sim struct {
	dash *Dashboard
}

func (s *sim) Render(f display.Frame) error {
	s.dash.program.Send(frameMsg(f))
	return nil
}

func (s *sim) Events() []display.Event {
	return s.dash.queue.Drain()
}

func (s *sim) Close() error {
	return nil
}
