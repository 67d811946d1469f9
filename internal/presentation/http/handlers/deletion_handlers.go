package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/services"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// DeletionHandlers serves the Meta data-deletion callback and its status page API
type DeletionHandlers struct {
	deletions   *services.DeletionService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDeletionHandlers creates deletion handlers with injected dependencies
func NewDeletionHandlers(deletions *services.DeletionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DeletionHandlers {
	return &DeletionHandlers{
		deletions:   deletions,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

type deletionRequest struct {
	SignedRequest string `json:"signed_request" form:"signed_request"`
}

// PostDeletion handles POST /api/facebook/deletion
func (h *DeletionHandlers) PostDeletion(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_data_deletion_request")
	defer marker.Complete()
	h.logger.Auth().Debug("Received data deletion request", "method", c.Request.Method, "path", c.Request.URL.Path, "contentType", c.ContentType())

	var req deletionRequest
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Auth().Warn("Data deletion body unreadable", "error", err.Error())
		}
	} else {
		req.SignedRequest = c.PostForm("signed_request")
	}

	result, err := h.deletions.HandleCallback(c.Request.Context(), strings.TrimSpace(req.SignedRequest))
	if err != nil {
		marker.SetError(err)
		h.logger.Auth().Error("Data deletion request failed", "error", err.Error(), "duration", time.Since(start))
		if errorStatus(err) == http.StatusBadRequest {
			respondError(c, err, "failed")
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed", "details": err.Error()})
		return
	}

	proto := c.GetHeader("X-Forwarded-Proto")
	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostDeletion request", "duration", time.Since(start), "success", true)
	c.JSON(http.StatusOK, gin.H{
		"url":               services.StatusURL(proto, c.Request.Host, result.ConfirmationCode),
		"confirmation_code": result.ConfirmationCode,
	})
}

// GetDeletionStatus handles GET /api/facebook/deletion/status?code=
func (h *DeletionHandlers) GetDeletionStatus(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_data_deletion_status_request")
	defer marker.Complete()

	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	req, err := h.deletions.Status(c.Request.Context(), code)
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Deletion request not found")
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, req)
}
