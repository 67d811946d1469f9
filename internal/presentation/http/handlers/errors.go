// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/gin-gonic/gin"
)

// errorStatus maps service errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrNotConnected),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrCancelled):
		return http.StatusConflict
	case apperrors.IsUpstream(err), apperrors.IsRemoteFetch(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Validation errors carry
// their message; everything else gets message plus the error as details.
func respondError(c *gin.Context, err error, message string) {
	status := errorStatus(err)
	var v *apperrors.ValidationError
	if errors.As(err, &v) {
		c.JSON(status, gin.H{"error": v.Message})
		return
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
