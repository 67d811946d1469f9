package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletion_CodesAreUnique(t *testing.T) {
	svc := NewDeletionService(newMemSessionRepo(), newMemDeletionRepo(), "", logging.NewDiscardLogger())
	ctx := context.Background()

	first, err := svc.HandleCallback(ctx, "")
	require.NoError(t, err)
	second, err := svc.HandleCallback(ctx, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ConfirmationCode, second.ConfirmationCode)

	u := StatusURL("", "vibe.example", first.ConfirmationCode)
	assert.Equal(t, "https://vibe.example/data-deletion.html?code="+first.ConfirmationCode, u)
	assert.True(t, strings.HasPrefix(StatusURL("http", "localhost:8080", "x"), "http://localhost:8080/"))

	status, err := svc.Status(ctx, first.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, session.DeletionStatusCompleted, status.Status)

	_, err = svc.Status(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeletion_SignedRequestRemovesSessions(t *testing.T) {
	sessions := newMemSessionRepo()
	svc := NewDeletionService(sessions, newMemDeletionRepo(), "app-secret", logging.NewDiscardLogger())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Save(ctx, session.NewOAuthSession("visitor-1", "t", session.InstagramProfile{ID: "42"}, now, time.Hour)))
	require.NoError(t, sessions.Save(ctx, session.NewOAuthSession("visitor-2", "t", session.InstagramProfile{ID: "7"}, now, time.Hour)))

	signed, err := security.SignRequest(security.SignedRequest{Algorithm: "HMAC-SHA256", UserID: "42"}, "app-secret")
	require.NoError(t, err)

	req, err := svc.HandleCallback(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, "42", req.UserID)
	assert.Equal(t, int64(1), req.SessionsRemoved)

	gone, err := sessions.Find(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeletion_BadSignatureRejected(t *testing.T) {
	svc := NewDeletionService(newMemSessionRepo(), newMemDeletionRepo(), "app-secret", logging.NewDiscardLogger())

	signed, err := security.SignRequest(security.SignedRequest{Algorithm: "HMAC-SHA256", UserID: "42"}, "other-secret")
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), signed)
	assert.True(t, apperrors.IsValidation(err))
}
