// Package database provides database helper functions
package database

import (
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
)

// CheckAndLogSlowQuery logs query on the slow-query channel when duration
// exceeds the configured threshold. Schema creation gets a 3x allowance.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	threshold := config.SlowQueryThreshold
	if query == "CREATE_SCHEMA" {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration)
	}
}

// UnixMillis converts a timestamp to the integer form stored in every table.
func UnixMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromUnixMillis is the inverse of UnixMillis.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
