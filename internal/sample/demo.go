package sample

import (
	"context"
	"math/rand"
	"time"
)

// Plausible home-connection ranges for generated readings.
const (
	demoDownloadBase = 450.0 // Mbps
	demoDownloadSpan = 150.0
	demoUploadBase   = 25.0 // Mbps
	demoUploadSpan   = 15.0
	demoPingBase     = 12.0 // ms
	demoPingSpan     = 30.0
)

// Demo generates pseudo-random readings in a plausible range instead of
// running a real speed test. It is only ever selected by explicit
// configuration (DEMO = true or --demo), never as a fallback when the
// real collector fails.
type Demo struct {
	rng      *rand.Rand
	rounding int
	now      func() time.Time
}

// NewDemo creates a demo collector. A zero seed derives one from the
// clock.
func NewDemo(rounding int, seed int64) *Demo {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Demo{
		rng:      rand.New(rand.NewSource(seed)),
		rounding: rounding,
		now:      time.Now,
	}
}

// Collect returns immediately with generated values.
func (d *Demo) Collect(_ context.Context) (Readings, error) {
	return newReadings(
		demoDownloadBase+d.rng.Float64()*demoDownloadSpan,
		demoUploadBase+d.rng.Float64()*demoUploadSpan,
		demoPingBase+d.rng.Float64()*demoPingSpan,
		d.rounding,
		d.now(),
	), nil
}
