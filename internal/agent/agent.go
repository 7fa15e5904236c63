// Package agent is the render loop: the single goroutine that owns the
// display state, the sample cadence, and the upload schedule for the
// process lifetime. Everything it touches is injected so tests can run
// bounded scenarios against fakes with a scripted clock.
package agent

import (
	"context"
	"math/rand"
	"time"

	"github.com/f451labs/sysmon/internal/config"
	"github.com/f451labs/sysmon/internal/dash"
	"github.com/f451labs/sysmon/internal/device"
	"github.com/f451labs/sysmon/internal/display"
	apperrors "github.com/f451labs/sysmon/internal/errors"
	"github.com/f451labs/sysmon/internal/logger"
	"github.com/f451labs/sysmon/internal/sample"
	"github.com/f451labs/sysmon/internal/telemetry"
	"github.com/f451labs/sysmon/internal/ui"
	"github.com/f451labs/sysmon/internal/upload"
)

// Validator checks that a cloud feed exists before the loop starts.
// *feed.Client satisfies it.
type Validator interface {
	Validate(ctx context.Context, feedKey string) error
}

// Dashboard receives the per-tick state pushes. *dash.Dashboard
// satisfies it.
type Dashboard interface {
	Push(dash.Snapshot)
}

// greetingFrameDelay paces the startup animation.
const greetingFrameDelay = 80 * time.Millisecond

// Params collects the agent's injected collaborators. Device, Collector,
// and Logger are required; the rest are optional and nil-safe.
type Params struct {
	Config    *config.Config
	Collector sample.Collector
	Device    device.Device
	Scheduler *upload.Scheduler // nil when uploads are off
	Validator Validator         // nil when uploads are off
	Console   *ui.Console       // nil with --noCLI while the dashboard runs
	Dashboard Dashboard         // nil with --noCLI or a non-sim LED
	Logger    logger.Logger
	Version   string

	// Now and Sleep are injectable for tests; nil means the real clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)

	// Rand seeds the sparkles mode; nil means time-seeded.
	Rand *rand.Rand
}

// Agent runs the loop. Construct with New, run once with Run.
type Agent struct {
	cfg       *config.Config
	collector sample.Collector
	dev       device.Device
	scheduler *upload.Scheduler
	validator Validator
	console   *ui.Console
	dashboard Dashboard
	log       logger.Logger
	version   string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
	rng   *rand.Rand

	uploadsEnabled bool

	// run accounting for the end-of-run summary
	samples   int
	failures  int
	throttles int
	uploadErr int
}

// New wires an agent from its parameters.
func New(p Params) *Agent {
	a := &Agent{
		cfg:       p.Config,
		collector: p.Collector,
		dev:       p.Device,
		scheduler: p.Scheduler,
		validator: p.Validator,
		console:   p.Console,
		dashboard: p.Dashboard,
		log:       p.Logger,
		version:   p.Version,
		now:       p.Now,
		sleep:     p.Sleep,
		rng:       p.Rand,
	}
	if a.log == nil {
		a.log = logger.Noop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.sleep == nil {
		a.sleep = sleepCtx
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a.uploadsEnabled = p.Config.UploadMode != config.UploadNo && p.Scheduler != nil
	return a
}

// sleepCtx blocks for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run executes the loop until the context is canceled, the bounded upload
// count is reached, or feed validation fails under force mode. The device
// is released on every exit path.
func (a *Agent) Run(ctx context.Context) error {
	defer a.dev.Close()

	if err := a.validateFeeds(ctx); err != nil {
		return err
	}

	if a.console != nil {
		a.console.Banner(a.version, a.cfg.Display, a.cfg.UploadMode)
	}
	a.playGreeting(ctx)

	start := a.now()
	st := display.NewState(a.cfg, start)
	hist := display.NewHistory(display.DefaultHistorySize)
	var readings sample.Readings
	haveData := false
	var sparkleFrame display.Frame

	for ctx.Err() == nil {
		tickStart := a.now()

		// Joystick first so a mode change shows on this tick's render.
		for _, e := range a.dev.Events() {
			st.Apply(e, tickStart)
		}
		st.TickSleep(tickStart, a.cfg.Sleep)

		// Show the sampling indicator while the speed test runs.
		a.mirror(st, hist, readings, haveData, false, true, "")

		r, err := a.collector.Collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			a.failures++
			telemetry.SampleFailures.Inc()
			a.log.Warn("speed test failed, keeping previous readings: %v", err)
			if a.console != nil {
				a.console.SampleFailed(a.now(), err)
			}
		} else {
			readings = r
			haveData = true
			a.samples++
			hist.Push(r)
			telemetry.SamplesTotal.Inc()
			for _, m := range sample.Metrics {
				telemetry.LastReading.WithLabelValues(string(m)).Set(r.Get(m).Value)
			}
		}

		// Upload before rendering so this tick's frame and mirror already
		// show the outcome and the advanced progress row.
		outcome := a.maybeUpload(ctx, readings, haveData)

		a.render(st, hist, &sparkleFrame)
		a.mirror(st, hist, readings, haveData, err == nil, false, outcome)

		if a.scheduler != nil && a.scheduler.Done() {
			a.log.Info("bounded run complete: %d uploads", a.scheduler.State().Completed)
			break
		}

		a.sleep(ctx, a.cfg.Wait-a.now().Sub(tickStart))
	}

	a.summarize(start)
	return nil
}

// validateFeeds checks each configured feed before the first tick. Under
// force mode a bad feed is fatal; otherwise the agent degrades to
// display-only with a warning.
func (a *Agent) validateFeeds(ctx context.Context) error {
	if !a.uploadsEnabled || a.validator == nil {
		return nil
	}

	feeds := []string{a.cfg.FeedDwnld, a.cfg.FeedUpld, a.cfg.FeedPing}
	for _, key := range feeds {
		err := a.validator.Validate(ctx, key)
		if err == nil {
			continue
		}
		if a.cfg.UploadMode == config.UploadForce {
			return apperrors.WrapWithCode(err, apperrors.ErrFeed,
				"feed validation failed under AIO_UPLOAD=force",
				"check the feed keys in settings.toml against your Adafruit IO account")
		}
		a.log.Warn("feed %q failed validation, continuing without uploads: %v", key, err)
		a.uploadsEnabled = false
		return nil
	}
	return nil
}

// maybeUpload attempts an upload when one is due and returns the outcome
// label for the terminal mirror; empty means nothing was attempted.
func (a *Agent) maybeUpload(ctx context.Context, readings sample.Readings, haveData bool) string {
	if !a.uploadsEnabled {
		return "disabled"
	}
	if !haveData || !a.scheduler.ShouldUpload(a.now()) {
		return ""
	}

	outcome, err := a.scheduler.Attempt(ctx, readings)
	switch outcome {
	case upload.Throttled:
		a.throttles++
	case upload.Failed:
		a.uploadErr++
		a.log.Error("upload cycle failed: %v", err)
	}
	return outcome.String()
}

// render draws the current frame to the device. Sparkles keeps its own
// accumulated frame; the data modes re-render from history each tick.
func (a *Agent) render(st display.State, hist *display.History, sparkle *display.Frame) {
	var f display.Frame
	if st.Mode == config.ModeSparkles {
		*sparkle = display.RenderSparkle(st, *sparkle, a.rng)
		f = *sparkle
	} else {
		f = display.Render(st, hist.Last(sample.Metric(st.Mode), display.Size), a.progress())
	}
	if err := a.dev.Render(f); err != nil {
		a.log.Warn("LED render skipped: %v", err)
	}
}

// mirror pushes the tick's data to the terminal surfaces. The console
// only prints ticks with fresh readings; a failed sample already printed
// its own notice. Sampling marks the push made while a speed test runs.
func (a *Agent) mirror(st display.State, hist *display.History, readings sample.Readings, haveData, fresh, sampling bool, outcome string) {
	now := a.now()

	if a.console != nil && fresh {
		a.console.Tick(now, readings, a.console.UploadStatus(outcome))
	}

	if a.dashboard != nil {
		history := make(map[sample.Metric][]float64, len(sample.Metrics))
		for _, m := range sample.Metrics {
			history[m] = hist.Last(m, display.DefaultHistorySize)
		}
		snap := dash.Snapshot{
			At:             now,
			Readings:       readings,
			HaveData:       haveData,
			History:        history,
			Mode:           st.Mode,
			Rotation:       st.Rotation,
			Blanked:        st.Blanked,
			Progress:       a.progress(),
			UploadsEnabled: a.uploadsEnabled,
			LastOutcome:    outcome,
			Sampling:       sampling,
		}
		if a.scheduler != nil {
			s := a.scheduler.State()
			snap.NextUpload = s.NextEligible
			snap.Uploads = s.Completed
			snap.Throttles = a.throttles
			snap.Failures = a.uploadErr
		}
		a.dashboard.Push(snap)
	}
}

func (a *Agent) progress() float64 {
	if a.scheduler == nil || !a.uploadsEnabled {
		return 0
	}
	return a.scheduler.Progress(a.now())
}

// playGreeting runs the startup animation on the LED.
func (a *Agent) playGreeting(ctx context.Context) {
	for _, f := range display.Greeting() {
		if ctx.Err() != nil {
			return
		}
		if err := a.dev.Render(f); err != nil {
			return
		}
		a.sleep(ctx, greetingFrameDelay)
	}
}

// summarize logs and prints the end-of-run accounting.
func (a *Agent) summarize(start time.Time) {
	elapsed := a.now().Sub(start)
	uploads := 0
	if a.scheduler != nil {
		uploads = a.scheduler.State().Completed
	}

	a.log.Info("run finished: %d samples, %d uploads, %d throttles, %d failures in %s",
		a.samples, uploads, a.throttles, a.failures+a.uploadErr, elapsed.Round(time.Second))
	if a.console != nil {
		a.console.Summary(a.samples, uploads, a.throttles, a.failures+a.uploadErr, elapsed)
	}
}
