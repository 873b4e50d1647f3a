// Package metrics defines the instrument types the runtime records into.
// Backends such as adapters/prometheus implement them; the nop versions
// are used when no backend is configured.
package metrics

import "time"

type (
	// Counter only goes up.
	Counter interface {
		Inc()
		// Add increments by delta, which must be >= 0.
		Add(delta float64)
	}

	// Gauge holds a value that can go up and down.
	Gauge interface {
		Set(value float64)
		Inc()
		Dec()
		Add(delta float64)
	}

	// Histogram buckets observations such as latencies in seconds.
	Histogram interface {
		Observe(value float64)
	}

	// Timer measures one operation. Call ObserveDuration when it completes:
	//
	//	defer m.MessageDuration("get_status").ObserveDuration()
	Timer interface {
		ObserveDuration()
	}
)

// TimerFunc creates a Timer that starts running immediately.
type TimerFunc func() Timer

type histogramTimer struct {
	h     Histogram
	start time.Time
}

// NewTimer starts a Timer that observes the elapsed seconds into h.
func NewTimer(h Histogram) Timer {
	return &histogramTimer{h: h, start: time.Now()}
}

func (t *histogramTimer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}
