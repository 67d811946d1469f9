package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
	"github.com/gin-gonic/gin"
)

// HealthHandlers reports liveness and database reachability
type HealthHandlers struct {
	db          *database.DB
	perfTracker *performance.Tracker
}

// NewHealthHandlers creates health handlers
func NewHealthHandlers(db *database.DB, perfTracker *performance.Tracker) *HealthHandlers {
	return &HealthHandlers{db: db, perfTracker: perfTracker}
}

// GetHealth handles GET /healthz
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": h.db.Driver, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": h.db.Driver, "performance": h.perfTracker.GetOverallStats()})
}
