package instagram

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
)

// SQLDeletionRepository records data-deletion callbacks.
type SQLDeletionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLDeletionRepository creates a new instance of the repository.
func NewSQLDeletionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLDeletionRepository {
	return &SQLDeletionRepository{
		db:     db,
		logger: logger,
	}
}

// Store saves a deletion request keyed by its confirmation code.
func (r *SQLDeletionRepository) Store(ctx context.Context, req *session.DeletionRequest) error {
	const query = `
		INSERT INTO deletion_requests (confirmation_code, user_id, status, sessions_removed, created_at)
		VALUES (?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing deletion request insert", "code", req.ConfirmationCode)

	var userID sql.NullString
	if req.UserID != "" {
		userID = sql.NullString{String: req.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, req.ConfirmationCode, userID, req.Status, req.SessionsRemoved, database.UnixMillis(req.CreatedAt))
	if err != nil {
		r.logger.Database().Error("Deletion request insert failed", "error", err.Error(), "code", req.ConfirmationCode)
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Deletion request insert completed", "code", req.ConfirmationCode, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// FindByCode returns the request for code, or nil when unknown.
func (r *SQLDeletionRepository) FindByCode(ctx context.Context, code string) (*session.DeletionRequest, error) {
	const query = `
		SELECT confirmation_code, user_id, status, sessions_removed, created_at
		FROM deletion_requests
		WHERE confirmation_code = ?`

	start := time.Now()

	var (
		req       session.DeletionRequest
		userID    sql.NullString
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(&req.ConfirmationCode, &userID, &req.Status, &req.SessionsRemoved, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("Deletion request not found", "code", code)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load deletion request", "error", err.Error(), "code", code)
		return nil, err
	}
	req.UserID = userID.String
	req.CreatedAt = database.FromUnixMillis(createdAt)

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return &req, nil
}
