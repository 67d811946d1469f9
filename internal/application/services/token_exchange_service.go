package services

import (
	"context"
	"strings"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
)

// TokenExchangeService trades authorization codes for access tokens.
type TokenExchangeService struct {
	api         InstagramAPI
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewTokenExchangeService creates a new token exchange service.
func NewTokenExchangeService(api InstagramAPI, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *TokenExchangeService {
	return &TokenExchangeService{
		api:         api,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Exchange swaps code for a short-lived token, then tries to upgrade it to a
// long-lived one. A failed upgrade silently returns the short-lived token.
func (s *TokenExchangeService) Exchange(ctx context.Context, code, redirectURI string) (*session.TokenGrant, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("token_exchange")
	defer marker.Complete()

	if strings.TrimSpace(code) == "" {
		err := apperrors.NewValidationError("code", "Authorization code is required")
		marker.SetError(err)
		return nil, err
	}

	short, err := s.api.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		marker.SetError(err)
		s.logger.LogAuthOperation("exchange_code", "", false, map[string]any{"error": err.Error(), "duration": time.Since(start)})
		return nil, err
	}

	long, err := s.api.UpgradeToken(ctx, short.AccessToken)
	if err != nil {
		s.logger.Auth().Warn("Long-lived token upgrade failed, using short-lived token", "error", err.Error())
		marker.SetSuccess(true)
		return short, nil
	}
	long.UserID = short.UserID

	marker.SetSuccess(true)
	s.logger.LogAuthOperation("exchange_code", "", true, map[string]any{"longLived": true, "duration": time.Since(start)})
	return long, nil
}
