package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors exported on /metrics. All methods are safe on a
// nil receiver so callers can leave instrumentation unwired.
type Metrics struct {
	writes        *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
	loads         *prometheus.CounterVec
	marks         *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendtrack",
			Name:      "store_writes_total",
			Help:      "Collection writes to the key-value store by collection and result.",
		}, []string{"collection", "result"}),
		writeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attendtrack",
			Name:      "store_write_duration_seconds",
			Help:      "Latency of collection writes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"collection"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendtrack",
			Name:      "store_loads_total",
			Help:      "Repository loads by result.",
		}, []string{"result"}),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendtrack",
			Name:      "attendance_marks_total",
			Help:      "Attendance marks split into inserted and updated records.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendtrack",
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.writes, m.writeDuration, m.loads, m.marks, m.rateLimited)
	}
	return m
}

// ObserveWrite records one collection write.
func (m *Metrics) ObserveWrite(collection string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(collection, result(err)).Inc()
	m.writeDuration.WithLabelValues(collection).Observe(took.Seconds())
}

// ObserveLoad records one full repository load.
func (m *Metrics) ObserveLoad(err error) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result(err)).Inc()
}

// ObserveMark records whether a mark inserted a new record or updated one.
func (m *Metrics) ObserveMark(inserted bool) {
	if m == nil {
		return
	}
	outcome := "updated"
	if inserted {
		outcome = "inserted"
	}
	m.marks.WithLabelValues(outcome).Inc()
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
