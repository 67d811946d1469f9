package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/repositories"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
)

// DeletionService answers Meta data-deletion callbacks.
type DeletionService struct {
	sessions  repositories.SessionRepository
	deletions repositories.DeletionRepository
	appSecret string
	now       func() time.Time
	logger    *logging.ChanneledLogger
}

// NewDeletionService creates a deletion service. appSecret enables signature
// checks on signed_request; empty skips them.
func NewDeletionService(sessions repositories.SessionRepository, deletions repositories.DeletionRepository, appSecret string, logger *logging.ChanneledLogger) *DeletionService {
	return &DeletionService{
		sessions:  sessions,
		deletions: deletions,
		appSecret: appSecret,
		now:       time.Now,
		logger:    logger,
	}
}

// HandleCallback records a deletion request. When signedRequest names a user,
// that user's stored sessions are removed first.
func (s *DeletionService) HandleCallback(ctx context.Context, signedRequest string) (*session.DeletionRequest, error) {
	req := &session.DeletionRequest{
		ConfirmationCode: security.GenerateConfirmationCode(),
		Status:           session.DeletionStatusCompleted,
		CreatedAt:        s.now().UTC(),
	}

	if signedRequest != "" {
		parsed, err := security.ParseSignedRequest(signedRequest, s.appSecret)
		if err != nil {
			s.logger.Auth().Warn("Rejected data deletion signed request", "error", err.Error())
			return nil, apperrors.NewValidationError("signed_request", err.Error())
		}
		req.UserID = parsed.UserID
	}

	if req.UserID != "" {
		removed, err := s.sessions.DeleteByProfileID(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete sessions: %w", err)
		}
		req.SessionsRemoved = removed
	}

	if err := s.deletions.Store(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to record deletion request: %w", err)
	}

	s.logger.Auth().Info("Data deletion request recorded", "code", req.ConfirmationCode, "sessionsRemoved", req.SessionsRemoved)
	return req, nil
}

// Status returns the recorded request for code.
func (s *DeletionService) Status(ctx context.Context, code string) (*session.DeletionRequest, error) {
	req, err := s.deletions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.ErrNotFound
	}
	return req, nil
}

// StatusURL is the page a user visits to check on their request.
func StatusURL(proto, host, code string) string {
	if proto == "" {
		proto = "https"
	}
	return fmt.Sprintf("%s://%s/data-deletion.html?code=%s", proto, host, url.QueryEscape(code))
}
