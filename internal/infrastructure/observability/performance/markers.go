// Package performance provides performance monitoring data structures and utilities
// for tracking operation performance across the VibeCheck application.
package performance

import (
	"sync"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation string        `json:"operation"`       // e.g., "post_analyze_request", "token_exchange"
	StartTime time.Time     `json:"startTime"`       // When the operation started
	EndTime   time.Time     `json:"endTime"`         // When the operation completed
	Duration  time.Duration `json:"duration"`        // Total operation duration
	Success   bool          `json:"success"`         // Whether the operation completed successfully
	Error     string        `json:"error,omitempty"` // Error message if operation failed
	Completed bool          `json:"completed"`       // Whether Complete() has been called

	tracker *Tracker
	mu      sync.Mutex
}

// Complete marks the operation as finished and reports it to the tracker
func (m *Marker) Complete() {
	m.mu.Lock()
	if m.Completed {
		m.mu.Unlock()
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
	m.mu.Unlock()

	if m.tracker != nil {
		m.tracker.observe(m)
	}
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err.Error()
	m.Success = false
}

func (m *Marker) status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Success {
		return "success"
	}
	return "failure"
}
