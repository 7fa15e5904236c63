// Package sample defines the speed-test reading model and the collectors
// that produce readings, either from a real speed-test run or from the
// demo generator.
package sample

import (
	"math"
	"time"
)

// Metric identifies one of the three measured values.
type Metric string

const (
	Download Metric = "download"
	Upload   Metric = "upload"
	Ping     Metric = "ping"
)

// Metrics lists all metrics in upload/display order.
var Metrics = []Metric{Download, Upload, Ping}

// Unit returns the display unit for a metric.
func (m Metric) Unit() string {
	if m == Ping {
		return "ms"
	}
	return "Mbps"
}

// Reading is one rounded measurement for one metric. Immutable once
// produced; it is folded into the next upload batch or display frame and
// then discarded.
type Reading struct {
	Metric    Metric
	Value     float64
	Timestamp time.Time
}

// Readings is the result of one sampling tick: download and upload in
// Mbps, ping in milliseconds.
type Readings struct {
	Download Reading
	Upload   Reading
	Ping     Reading
}

// Get returns the reading for a metric.
func (r Readings) Get(m Metric) Reading {
	switch m {
	case Download:
		return r.Download
	case Upload:
		return r.Upload
	default:
		return r.Ping
	}
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// newReadings builds a rounded, timestamped reading set.
func newReadings(download, upload, ping float64, rounding int, now time.Time) Readings {
	return Readings{
		Download: Reading{Metric: Download, Value: Round(download, rounding), Timestamp: now},
		Upload:   Reading{Metric: Upload, Value: Round(upload, rounding), Timestamp: now},
		Ping:     Reading{Metric: Ping, Value: Round(ping, rounding), Timestamp: now},
	}
}
