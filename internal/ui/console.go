package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/f451labs/sysmon/internal/sample"
	"github.com/muesli/termenv"
)

// Console is the plain-text mirror used when the interactive dashboard is
// disabled with --noCLI or when stdout is not a terminal. It prints one
// line per completed speed test and a closing summary, with colors degraded
// automatically by the detected terminal profile.
type Console struct {
	out *termenv.Output
}

// NewConsole wraps a writer in a profile-aware console mirror.
func NewConsole(w io.Writer) *Console {
	return &Console{out: termenv.NewOutput(w)}
}

// Banner prints the startup line once, before the first speed test.
func (c *Console) Banner(version, mode string, uploads string) {
	title := c.out.String("SysMon " + version).Bold()
	fmt.Fprintf(c.out, "%s  display=%s uploads=%s\n", title, mode, uploads)
}

// Tick prints one reading line: timestamp, the three metrics, and the
// upload outcome symbol for this cycle.
func (c *Console) Tick(at time.Time, r sample.Readings, status string) {
	stamp := c.out.String(at.Format("15:04:05")).Foreground(termenv.ANSIBrightBlack)
	fmt.Fprintf(c.out, "%s  ↓ %s  ↑ %s  ping %s  %s\n",
		stamp,
		c.metric(r.Download.Value, "Mbps"),
		c.metric(r.Upload.Value, "Mbps"),
		c.metric(r.Ping.Value, "ms"),
		status)
}

// SampleFailed prints the skipped-tick notice when a speed test errors.
func (c *Console) SampleFailed(at time.Time, err error) {
	stamp := c.out.String(at.Format("15:04:05")).Foreground(termenv.ANSIBrightBlack)
	mark := c.out.String(SymbolFail).Foreground(termenv.ANSIRed)
	fmt.Fprintf(c.out, "%s  %s speed test failed, keeping previous readings: %v\n", stamp, mark, err)
}

// Summary prints the end-of-run accounting.
func (c *Console) Summary(samples, uploads, throttles, failures int, elapsed time.Duration) {
	head := c.out.String("session summary").Bold()
	fmt.Fprintf(c.out, "\n%s\n", head)
	fmt.Fprintf(c.out, "  %s samples    %d\n", SymbolSuccess, samples)
	fmt.Fprintf(c.out, "  %s uploads    %d\n", SymbolSuccess, uploads)
	fmt.Fprintf(c.out, "  %s throttles  %d\n", SymbolPending, throttles)
	fmt.Fprintf(c.out, "  %s failures   %d\n", SymbolFail, failures)
	fmt.Fprintf(c.out, "  elapsed      %s\n", elapsed.Round(time.Second))
}

func (c *Console) metric(v float64, unit string) string {
	return fmt.Sprintf("%s %s",
		c.out.String(fmt.Sprintf("%.2f", v)).Foreground(termenv.ANSICyan),
		unit)
}

// UploadStatus renders the per-cycle upload outcome for Tick.
func (c *Console) UploadStatus(outcome string) string {
	switch outcome {
	case "uploaded":
		return c.out.String(SymbolSuccess + " uploaded").Foreground(termenv.ANSIGreen).String()
	case "throttled":
		return c.out.String(SymbolPending + " throttled").Foreground(termenv.ANSIYellow).String()
	case "failed":
		return c.out.String(SymbolFail + " upload failed").Foreground(termenv.ANSIRed).String()
	case "disabled":
		return c.out.String(SymbolSkipped + " uploads off").Foreground(termenv.ANSIBrightBlack).String()
	default:
		return c.out.String(SymbolPending + " waiting").Foreground(termenv.ANSIBrightBlack).String()
	}
}
