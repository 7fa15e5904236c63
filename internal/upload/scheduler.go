// Package upload decides when accumulated readings are pushed to the
// cloud feeds and applies the throttle backoff when Adafruit IO rejects a
// cycle for rate limiting.
package upload

import (
	"context"
	"time"

	apperrors "github.com/f451labs/sysmon/internal/errors"
	"github.com/f451labs/sysmon/internal/logger"
	"github.com/f451labs/sysmon/internal/sample"
	"github.com/f451labs/sysmon/internal/telemetry"
)

// Sink publishes one value to one named feed. *feed.Client satisfies it;
// tests use a recording fake.
type Sink interface {
	SendValue(ctx context.Context, feedKey string, value float64, ts time.Time) error
}

// State tracks upload bookkeeping. It is owned by the scheduler and only
// mutated after an upload attempt; the single-threaded loop means no
// locking is needed.
type State struct {
	NextEligible         time.Time
	ConsecutiveThrottles int
	Completed            int
}

// Outcome classifies one upload attempt.
type Outcome int

const (
	// Uploaded means every feed accepted its value.
	Uploaded Outcome = iota
	// Throttled means the cycle hit the rate limit and the penalty was
	// applied; nothing counts as completed.
	Throttled
	// Failed means a non-throttle error; state is unchanged and the cycle
	// is retried at the next eligible time.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case Throttled:
		return "throttled"
	default:
		return "failed"
	}
}

/// Scheduler owns the upload cadence: eligibility, the flat throttle
// penalty, and the bounded-run counter.
type Scheduler struct {
	sink     Sink
	feeds    map[sample.Metric]string
	freq     time.Duration
	throttle time.Duration
	max      int // successful uploads before the run ends; <= 0 is unbounded

	state       State
	lastAdvance time.Time
	now         func() time.Time
	logger      logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler. delay is the grace period before the first
// upload becomes eligible; freq the interval between successful uploads;
// throttle the flat penalty added after a throttled cycle; max the
// bounded-run count (<= 0 for unbounded).
func New(sink Sink, feeds map[sample.Metric]string, delay, freq, throttle time.Duration, max int, opts ...Option) *Scheduler {
	s := &Scheduler{
		sink:     sink,
		feeds:    feeds,
		freq:     freq,
		throttle: throttle,
		max:      max,
		now:      time.Now,
		logger:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	start := s.now()
	s.state.NextEligible = start.Add(delay)
	s.lastAdvance = start
	return s
}

// State returns a copy of the current upload state.
func (s *Scheduler) State() State {
	return s.state
}

// ShouldUpload reports whether an upload attempt is due at the given
// time: true iff now >= NextEligible.
func (s *Scheduler) ShouldUpload(now time.Time) bool {
	return !now.Before(s.state.NextEligible)
}

// Done reports whether the bounded-run count has been reached.
func (s *Scheduler) Done() bool {
	return s.max > 0 && s.state.Completed >= s.max
}

// Progress returns the fraction of the current wait that has elapsed, in
// [0, 1]. Used for the LED progress overlay and the dashboard bar.
func (s *Scheduler) Progress(now time.Time) float64 {
	total := s.state.NextEligible.Sub(s.lastAdvance)
	if total <= 0 {
		return 1
	}
	frac := float64(now.Sub(s.lastAdvance)) / float64(total)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// Attempt pushes one value per metric to its feed and advances the upload
// state according to the outcome:
//
//   - success: NextEligible = now + freq, Completed incremented,
//     throttle count reset;
//   - throttled: NextEligible = now + freq + throttle (flat penalty, no
//     compounding), throttle count incremented, Completed unchanged;
//   - other failure: state unchanged, error surfaced, retried at the next
//     eligible time.
func (s *Scheduler) Attempt(ctx context.Context, readings sample.Readings) (Outcome, error) {
	now := s.now()

	for _, metric := range sample.Metrics {
		r := readings.Get(metric)
		err := s.sink.SendValue(ctx, s.feeds[metric], r.Value, r.Timestamp)
		if err == nil {
			continue
		}

		if apperrors.IsCode(err, apperrors.ErrThrottle) {
			s.state.NextEligible = now.Add(s.freq + s.throttle)
			s.state.ConsecutiveThrottles++
			s.lastAdvance = now
			telemetry.ThrottlesTotal.Inc()
			s.logger.Warn("upload throttled (%d consecutive), next attempt at %s",
				s.state.ConsecutiveThrottles, s.state.NextEligible.Format(time.RFC3339))
			return Throttled, err
		}

		telemetry.UploadErrors.Inc()
		s.logger.Error("upload to feed %q failed: %v", s.feeds[metric], err)
		return Failed, err
	}

	s.state.NextEligible = now.Add(s.freq)
	s.state.ConsecutiveThrottles = 0
	s.state.Completed++
	s.lastAdvance = now
	telemetry.UploadsTotal.Inc()
	s.logger.Info("uploaded: DWN: %v - UP: %v - PING: %v (%d total)",
		readings.Download.Value, readings.Upload.Value, readings.Ping.Value,
		s.state.Completed)
	return Uploaded, nil
}
