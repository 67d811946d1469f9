package cleanup

import (
	"time"

	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	Interval time.Duration
	Verbose  bool
}

// NewConfig creates a cleanup configuration from the already-initialized
// variables in /pkg/config.
func NewConfig() *Config {
	return &Config{
		Interval: config.SessionCleanupInterval,
		Verbose:  config.SessionCleanupVerbose,
	}
}
