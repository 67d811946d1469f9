package performance

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTracker_OverallStatsCountsCompletedMarkers(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig(), prometheus.NewRegistry())

	ok := tracker.StartOperation("token_exchange")
	ok.SetSuccess(true)
	ok.Complete()
	ok.Complete()

	failed := tracker.StartOperation("token_exchange")
	failed.SetError(errors.New("boom"))
	failed.Complete()

	tracker.StartOperation("still_running")

	stats := tracker.GetOverallStats()
	assert.EqualValues(t, 2, stats["completedOperations"])
	assert.NotEmpty(t, stats["uptime"])
	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.inFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.operations.WithLabelValues("token_exchange", "failure")))
}
