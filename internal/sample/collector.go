package sample

import (
	"context"
	"time"

	"github.com/f451labs/sysmon/internal/errors"
	"github.com/showwin/speedtest-go/speedtest"
)

// Collector produces one set of readings per invocation. Implementations
// block for the duration of the measurement; the agent calls them once
// per tick from its single loop.
type Collector interface {
	Collect(ctx context.Context) (Readings, error)
}

// SpeedTest wraps the speedtest client so it looks like any other sensor
// to the agent.
type SpeedTest struct {
	client   *speedtest.Speedtest
	rounding int
	now      func() time.Time
}

// NewSpeedTest creates a live collector rounding values to the given
// number of decimal places.
func NewSpeedTest(rounding int) *SpeedTest {
	return &SpeedTest{
		client:   speedtest.New(),
		rounding: rounding,
		now:      time.Now,
	}
}

// Collect runs a full speed test against the closest server: ping first,
// then download, then upload. Any failure is a SAMPLE error; the caller
// skips the tick and keeps the previous readings.
func (s *SpeedTest) Collect(ctx context.Context) (Readings, error) {
	servers, err := s.client.FetchServerListContext(ctx)
	if err != nil {
		return Readings{}, errors.WrapWithCode(err, errors.ErrSample,
			"Could not fetch speed-test server list",
			"Check the network connection")
	}

	targets, err := servers.FindServer(nil)
	if err != nil || len(targets) == 0 {
		return Readings{}, errors.WrapWithCode(err, errors.ErrSample,
			"No speed-test server available", "")
	}

	srv := targets[0]
	defer srv.Context.Reset()

	if err := srv.PingTestContext(ctx, nil); err != nil {
		return Readings{}, errors.WrapWithCode(err, errors.ErrSample,
			"Ping test failed", "")
	}
	if err := srv.DownloadTestContext(ctx); err != nil {
		return Readings{}, errors.WrapWithCode(err, errors.ErrSample,
			"Download test failed", "")
	}
	if err := srv.UploadTestContext(ctx); err != nil {
		return Readings{}, errors.WrapWithCode(err, errors.ErrSample,
			"Upload test failed", "")
	}

	return newReadings(
		srv.DLSpeed.Mbps(),
		srv.ULSpeed.Mbps(),
		float64(srv.Latency)/float64(time.Millisecond),
		s.rounding,
		s.now(),
	), nil
}
