package performance

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracker turns completed markers into Prometheus observations.
type Tracker struct {
	durations  *prometheus.HistogramVec
	operations *prometheus.CounterVec
	slow       *prometheus.CounterVec
	inFlight   prometheus.Gauge

	slowThreshold time.Duration
	started       time.Time
	completed     atomic.Int64
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	Namespace     string        `json:"namespace"`
	SlowThreshold time.Duration `json:"slowThreshold"` // Operations slower than this are counted as slow
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		Namespace:     "vibecheck",
		SlowThreshold: 2 * time.Second,
	}
}

// NewTracker creates a tracker and registers its collectors with reg.
// A nil registerer falls back to the global Prometheus registry.
func NewTracker(config *TrackerConfig, reg prometheus.Registerer) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	t := &Tracker{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "operation",
			Name:      "duration_seconds",
			Help:      "Duration of tracked operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "operation",
			Name:      "total",
			Help:      "Tracked operations by outcome.",
		}, []string{"operation", "status"}),
		slow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "operation",
			Name:      "slow_total",
			Help:      "Operations that exceeded the slow threshold.",
		}, []string{"operation"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "operation",
			Name:      "in_flight",
			Help:      "Operations started but not yet completed.",
		}),
		slowThreshold: config.SlowThreshold,
		started:       time.Now(),
	}

	reg.MustRegister(t.durations, t.operations, t.slow, t.inFlight)
	return t
}

// StartOperation creates a new performance marker for an operation
func (t *Tracker) StartOperation(operation string) *Marker {
	t.inFlight.Inc()
	return &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Success:   true, // Assume success until proven otherwise
		tracker:   t,
	}
}

func (t *Tracker) observe(m *Marker) {
	status := m.status()
	t.inFlight.Dec()
	t.durations.WithLabelValues(m.Operation, status).Observe(m.Duration.Seconds())
	t.operations.WithLabelValues(m.Operation, status).Inc()
	if t.slowThreshold > 0 && m.Duration > t.slowThreshold {
		t.slow.WithLabelValues(m.Operation).Inc()
	}
	t.completed.Add(1)
}

// GetOverallStats returns a small summary for health endpoints
func (t *Tracker) GetOverallStats() map[string]any {
	return map[string]any{
		"uptime":              time.Since(t.started).String(),
		"completedOperations": t.completed.Load(),
	}
}
