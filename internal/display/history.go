package display

import "github.com/f451labs/sysmon/internal/sample"

// DefaultHistorySize is the number of data points retained per metric,
// enough for the dashboard sparklines; the LED graph uses the last 8.
const DefaultHistorySize = 60

// History keeps a bounded window of recent values per metric. It lives in
// the single render loop, so no locking.
type History struct {
	size int
	data map[sample.Metric][]float64
}

// NewHistory creates a history window of the given size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size: size,
		data: make(map[sample.Metric][]float64, len(sample.Metrics)),
	}
}

// Push appends one reading set, evicting the oldest values past the
// window size.
func (h *History) Push(r sample.Readings) {
	for _, m := range sample.Metrics {
		vals := append(h.data[m], r.Get(m).Value)
		if len(vals) > h.size {
			vals = vals[len(vals)-h.size:]
		}
		h.data[m] = vals
	}
}

// Last returns up to n most recent values for a metric, oldest first.
func (h *History) Last(m sample.Metric, n int) []float64 {
	vals := h.data[m]
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	out := make([]float64, len(vals))
	copy(out, vals)
	return out
}

// Len returns how many values are stored for a metric.
func (h *History) Len(m sample.Metric) int {
	return len(h.data[m])
}
