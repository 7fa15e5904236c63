// Package telemetry exposes internal counters for long unattended runs.
// The /metrics listener only starts when METRICS_ADDR is configured; the
// counters themselves are always live and cheap.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SamplesTotal counts completed speed-test runs.
	SamplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sysmon_samples_total",
			Help: "Total number of completed speed-test samples",
		},
	)

	// SampleFailures counts speed-test runs that errored and were skipped.
	SampleFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sysmon_sample_failures_total",
			Help: "Total number of failed speed-test samples",
		},
	)

	// UploadsTotal counts successful upload cycles (all feeds accepted).
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sysmon_uploads_total",
			Help: "Total number of successful upload cycles",
		},
	)

	// ThrottlesTotal counts upload cycles rejected by the rate limit.
	ThrottlesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sysmon_throttles_total",
			Help: "Total number of throttled upload cycles",
		},
	)

	// UploadErrors counts non-throttle upload failures.
	UploadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sysmon_upload_errors_total",
			Help: "Total number of failed (non-throttled) upload cycles",
		},
	)

	// LastReading holds the most recent value per metric.
	LastReading = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sysmon_last_reading",
			Help: "Most recent reading per metric",
		},
		[]string{"metric"},
	)
)

// Serve starts the /metrics listener on addr. It runs until the process
// exits; listener errors are returned on the channel so the agent can log
// them without owning the goroutine's lifetime.
func Serve(addr string) <-chan error {
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		errCh <- srv.ListenAndServe()
	}()
	return errCh
}
