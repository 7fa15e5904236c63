package agent

import (
	"context"
	"testing"
	"time"

	"github.com/f451labs/sysmon/internal/config"
	"github.com/f451labs/sysmon/internal/dash"
	"github.com/f451labs/sysmon/internal/display"
	apperrors "github.com/f451labs/sysmon/internal/errors"
	"github.com/f451labs/sysmon/internal/sample"
	"github.com/f451labs/sysmon/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCollector returns canned readings and can cancel the run after a
// fixed number of ticks, standing in for an interrupt.
type fakeCollector struct {
	calls      int
	failOn     map[int]bool
	cancelAt   int
	cancelFunc context.CancelFunc
}

func (f *fakeCollector) Collect(ctx context.Context) (sample.Readings, error) {
	f.calls++
	if f.cancelFunc != nil && f.calls >= f.cancelAt {
		f.cancelFunc()
	}
	if f.failOn[f.calls] {
		return sample.Readings{}, apperrors.New(apperrors.ErrSample, "speed test failed", "")
	}
	now := time.Now()
	return sample.Readings{
		Download: sample.Reading{Metric: sample.Download, Value: 500, Timestamp: now},
		Upload:   sample.Reading{Metric: sample.Upload, Value: 30, Timestamp: now},
		Ping:     sample.Reading{Metric: sample.Ping, Value: 12, Timestamp: now},
	}, nil
}

// fakeDevice records rendered frames and queued events.
type fakeDevice struct {
	frames  []display.Frame
	pending []display.Event
	closed  bool
}

func (d *fakeDevice) Render(f display.Frame) error {
	d.frames = append(d.frames, f)
	return nil
}

func (d *fakeDevice) Events() []display.Event {
	evs := d.pending
	d.pending = nil
	return evs
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// fakeSink counts SendValue calls and serves scripted errors.
type fakeSink struct {
	calls int
	errs  []error
}

func (s *fakeSink) SendValue(ctx context.Context, feedKey string, value float64, ts time.Time) error {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

type fakeValidator struct {
	err   error
	calls int
}

func (v *fakeValidator) Validate(ctx context.Context, feedKey string) error {
	v.calls++
	return v.err
}

// fakeMirror records every snapshot the loop pushes.
type fakeMirror struct {
	snaps []dash.Snapshot
}

func (m *fakeMirror) Push(s dash.Snapshot) {
	m.snaps = append(m.snaps, s)
}

func testConfig() *config.Config {
	return &config.Config{
		UploadMode: config.UploadYes,
		FeedDwnld:  "sysmon.download",
		FeedUpld:   "sysmon.upload",
		FeedPing:   "sysmon.ping",
		Display:    config.ModeDownload,
		Sleep:      600 * time.Second,
		Rounding:   2,
		Demo:       true,
	}
}

func testFeeds() map[sample.Metric]string {
	return map[sample.Metric]string{
		sample.Download: "sysmon.download",
		sample.Upload:   "sysmon.upload",
		sample.Ping:     "sysmon.ping",
	}
}

// noSleep keeps bounded tests fast.
func noSleep(context.Context, time.Duration) {}

func TestBoundedRunStopsAfterExactUploads(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploads = 3

	sink := &fakeSink{}
	sched := upload.New(sink, testFeeds(), 0, 0, 0, 3)
	dev := &fakeDevice{}

	a := New(Params{
		Config:    cfg,
		Collector: &fakeCollector{},
		Device:    dev,
		Scheduler: sched,
		Validator: &fakeValidator{},
		Sleep:     noSleep,
	})

	err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sched.State().Completed, "exactly N successful uploads")
	assert.Equal(t, 9, sink.calls, "three feeds per upload cycle")
	assert.True(t, dev.closed, "device released on exit")
}

func TestUploadsOffNeverCallsSink(t *testing.T) {
	cfg := testConfig()
	cfg.UploadMode = config.UploadNo

	ctx, cancel := context.WithCancel(context.Background())
	collector := &fakeCollector{cancelAt: 5, cancelFunc: cancel}
	sink := &fakeSink{}
	sched := upload.New(sink, testFeeds(), 0, 0, 0, 0)
	validator := &fakeValidator{}

	a := New(Params{
		Config:    cfg,
		Collector: collector,
		Device:    &fakeDevice{},
		Scheduler: sched,
		Validator: validator,
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(ctx))

	assert.Zero(t, sink.calls, "AIO_UPLOAD=no means no upload calls ever")
	assert.Zero(t, validator.calls, "no feed validation when uploads are off")
	assert.GreaterOrEqual(t, collector.calls, 5, "sampling continues regardless")
}

func TestForceModeFailsFastOnBadFeed(t *testing.T) {
	cfg := testConfig()
	cfg.UploadMode = config.UploadForce

	feedErr := apperrors.New(apperrors.ErrFeed, "feed not found", "")
	collector := &fakeCollector{}
	dev := &fakeDevice{}

	a := New(Params{
		Config:    cfg,
		Collector: collector,
		Device:    dev,
		Scheduler: upload.New(&fakeSink{}, testFeeds(), 0, 0, 0, 0),
		Validator: &fakeValidator{err: feedErr},
		Sleep:     noSleep,
	})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrFeed))
	assert.Zero(t, collector.calls, "fatal before the first tick")
	assert.True(t, dev.closed, "device released on the fatal path too")
}

func TestBadFeedDegradesToDisplayOnly(t *testing.T) {
	cfg := testConfig() // UploadYes

	ctx, cancel := context.WithCancel(context.Background())
	collector := &fakeCollector{cancelAt: 3, cancelFunc: cancel}
	sink := &fakeSink{}

	a := New(Params{
		Config:    cfg,
		Collector: collector,
		Device:    &fakeDevice{},
		Scheduler: upload.New(sink, testFeeds(), 0, 0, 0, 0),
		Validator: &fakeValidator{err: apperrors.New(apperrors.ErrFeed, "feed not found", "")},
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(ctx), "non-force mode survives a bad feed")
	assert.Zero(t, sink.calls, "degraded run never uploads")
	assert.GreaterOrEqual(t, collector.calls, 3, "sampling and display continue")
}

func TestSampleFailureKeepsRunningAndRetries(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploads = 1

	sink := &fakeSink{}
	sched := upload.New(sink, testFeeds(), 0, 0, 0, 1)
	// First sample fails; nothing to upload, so the loop must take a
	// second tick to finish the bounded run.
	collector := &fakeCollector{failOn: map[int]bool{1: true}}

	a := New(Params{
		Config:    cfg,
		Collector: collector,
		Device:    &fakeDevice{},
		Scheduler: sched,
		Validator: &fakeValidator{},
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 2, collector.calls, "failed tick skipped, next tick uploads")
	assert.Equal(t, 1, sched.State().Completed)
	assert.Equal(t, 1, a.failures)
}

func TestJoystickEventsApplyBeforeRender(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploads = 1
	cfg.Display = config.ModeDownload

	dev := &fakeDevice{pending: []display.Event{display.EventMiddle}}

	a := New(Params{
		Config:    cfg,
		Collector: &fakeCollector{},
		Device:    dev,
		Scheduler: upload.New(&fakeSink{}, testFeeds(), 0, 0, 0, 1),
		Validator: &fakeValidator{},
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(context.Background()))

	// Middle tap blanks the display, so the tick frame after the greeting
	// must be empty.
	last := dev.frames[len(dev.frames)-1]
	assert.Equal(t, display.Frame{}, last, "blanked state renders no pixels")
}

func TestThrottledCycleDoesNotCountAsCompleted(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploads = 1

	throttle := apperrors.New(apperrors.ErrThrottle, "rate limited", "")
	sink := &fakeSink{errs: []error{throttle}}
	// Zero freq and penalty keep the retry eligible on the next tick.
	sched := upload.New(sink, testFeeds(), 0, 0, 0, 1)

	a := New(Params{
		Config:    cfg,
		Collector: &fakeCollector{},
		Device:    &fakeDevice{},
		Scheduler: sched,
		Validator: &fakeValidator{},
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 1, a.throttles)
	assert.Equal(t, 1, sched.State().Completed, "run ends after the retried success")
}

func TestSamplingIndicatorWrapsCollect(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploads = 1

	mirror := &fakeMirror{}

	a := New(Params{
		Config:    cfg,
		Collector: &fakeCollector{},
		Device:    &fakeDevice{},
		Scheduler: upload.New(&fakeSink{}, testFeeds(), 0, 0, 0, 1),
		Validator: &fakeValidator{},
		Dashboard: mirror,
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(context.Background()))
	require.Len(t, mirror.snaps, 2, "one push before the speed test, one after")

	assert.True(t, mirror.snaps[0].Sampling, "indicator on while the test runs")
	assert.False(t, mirror.snaps[0].HaveData)
	assert.False(t, mirror.snaps[1].Sampling, "indicator off once readings land")
	assert.True(t, mirror.snaps[1].HaveData)
}

func TestUploadOutcomeVisibleOnSameTick(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploads = 1

	mirror := &fakeMirror{}
	sched := upload.New(&fakeSink{}, testFeeds(), 0, 0, 0, 1)

	a := New(Params{
		Config:    cfg,
		Collector: &fakeCollector{},
		Device:    &fakeDevice{},
		Scheduler: sched,
		Validator: &fakeValidator{},
		Dashboard: mirror,
		Sleep:     noSleep,
	})

	require.NoError(t, a.Run(context.Background()))

	// The upload happens before the tick's push, so its outcome and the
	// updated counter arrive without a one-tick lag.
	last := mirror.snaps[len(mirror.snaps)-1]
	assert.Equal(t, "uploaded", last.LastOutcome)
	assert.Equal(t, 1, last.Uploads)
}
