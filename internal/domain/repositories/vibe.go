// Package repositories defines the repository interfaces for visitor history,
// Instagram sessions and deletion requests. These abstract the persistence
// details so services stay decoupled from the database.
package repositories

import (
	"context"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
)

// AnalysisRepository persists the append-only analysis history per visitor.
type AnalysisRepository interface {
	Append(ctx context.Context, visitorID string, record vibe.AnalysisRecord) error
	FindByVisitor(ctx context.Context, visitorID string) ([]vibe.AnalysisRecord, error)
}

// SessionRepository persists at most one Instagram session per visitor.
type SessionRepository interface {
	Find(ctx context.Context, visitorID string) (*session.OAuthSession, error)
	Save(ctx context.Context, s *session.OAuthSession) error
	Delete(ctx context.Context, visitorID string) error
	DeleteByProfileID(ctx context.Context, profileID string) (int64, error)
}

// DeletionRepository records data-deletion callbacks for the status page.
type DeletionRepository interface {
	Store(ctx context.Context, req *session.DeletionRequest) error
	FindByCode(ctx context.Context, code string) (*session.DeletionRequest, error)
}
