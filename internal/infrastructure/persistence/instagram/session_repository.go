// Package instagram provides the SQL-based implementations of the Instagram
// session and data-deletion repositories.
package instagram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
)

// SQLSessionRepository keeps one Instagram session per visitor. Access tokens
// are sealed with a TokenCipher bound to the visitor id.
type SQLSessionRepository struct {
	db     *database.DB
	cipher *security.TokenCipher
	logger *logging.ChanneledLogger
}

// NewSQLSessionRepository creates a new instance of the repository.
func NewSQLSessionRepository(db *database.DB, tokenCipher *security.TokenCipher, logger *logging.ChanneledLogger) *SQLSessionRepository {
	return &SQLSessionRepository{
		db:     db,
		cipher: tokenCipher,
		logger: logger,
	}
}

// Find returns the visitor's session, or nil when there is none. A row whose
// token can no longer be opened (rotated key) is removed and reported as absent.
func (r *SQLSessionRepository) Find(ctx context.Context, visitorID string) (*session.OAuthSession, error) {
	const query = `
		SELECT profile_id, username, account_type, media_count, encrypted_token, issued_at, expires_at
		FROM instagram_sessions
		WHERE visitor_id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading instagram session", "visitorId", logging.SanitizeID(visitorID))

	var (
		s           = session.OAuthSession{VisitorID: visitorID}
		accountType sql.NullString
		encrypted   string
		issuedAt    int64
		expiresAt   int64
	)
	err := r.db.QueryRowContext(ctx, query, visitorID).Scan(
		&s.Profile.ID,
		&s.Profile.Username,
		&accountType,
		&s.Profile.MediaCount,
		&encrypted,
		&issuedAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("Instagram session not found", "visitorId", logging.SanitizeID(visitorID))
			return nil, nil
		}
		r.logger.Database().Error("Failed to load instagram session", "error", err.Error(), "visitorId", logging.SanitizeID(visitorID))
		return nil, err
	}

	token, err := r.cipher.Open(encrypted, visitorID)
	if err != nil {
		r.logger.Database().Warn("Discarding undecryptable instagram session", "error", err.Error(), "visitorId", logging.SanitizeID(visitorID))
		if delErr := r.Delete(ctx, visitorID); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	s.AccessToken = token
	s.Profile.AccountType = accountType.String
	s.IssuedAt = database.FromUnixMillis(issuedAt)
	s.ExpiresAt = database.FromUnixMillis(expiresAt)

	duration := time.Since(start)
	r.logger.Database().Info("Instagram session loaded", "visitorId", logging.SanitizeID(visitorID), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return &s, nil
}

// Save inserts or replaces the visitor's session.
func (r *SQLSessionRepository) Save(ctx context.Context, s *session.OAuthSession) error {
	const query = `
		INSERT INTO instagram_sessions (visitor_id, profile_id, username, account_type, media_count, encrypted_token, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(visitor_id) DO UPDATE SET
			profile_id = excluded.profile_id,
			username = excluded.username,
			account_type = excluded.account_type,
			media_count = excluded.media_count,
			encrypted_token = excluded.encrypted_token,
			issued_at = excluded.issued_at,
			expires_at = excluded.expires_at`

	start := time.Now()
	r.logger.Database().Debug("Executing instagram session upsert", "visitorId", logging.SanitizeID(s.VisitorID))

	encrypted, err := r.cipher.Seal(s.AccessToken, s.VisitorID)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		s.VisitorID,
		s.Profile.ID,
		s.Profile.Username,
		s.Profile.AccountType,
		s.Profile.MediaCount,
		encrypted,
		database.UnixMillis(s.IssuedAt),
		database.UnixMillis(s.ExpiresAt),
	)
	if err != nil {
		r.logger.Database().Error("Instagram session upsert failed", "error", err.Error(), "visitorId", logging.SanitizeID(s.VisitorID))
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Instagram session upsert completed", "visitorId", logging.SanitizeID(s.VisitorID), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// Delete removes the visitor's session. Deleting a missing session is not an error.
func (r *SQLSessionRepository) Delete(ctx context.Context, visitorID string) error {
	const query = `DELETE FROM instagram_sessions WHERE visitor_id = ?`

	start := time.Now()
	if _, err := r.db.ExecContext(ctx, query, visitorID); err != nil {
		r.logger.Database().Error("Instagram session delete failed", "error", err.Error(), "visitorId", logging.SanitizeID(visitorID))
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Instagram session deleted", "visitorId", logging.SanitizeID(visitorID), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// DeleteByProfileID removes every session tied to an Instagram user id and
// returns how many were removed.
func (r *SQLSessionRepository) DeleteByProfileID(ctx context.Context, profileID string) (int64, error) {
	const query = `DELETE FROM instagram_sessions WHERE profile_id = ?`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, profileID)
	if err != nil {
		r.logger.Database().Error("Instagram session purge failed", "error", err.Error(), "profileId", logging.SanitizeID(profileID))
		return 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Instagram sessions purged", "profileId", logging.SanitizeID(profileID), "removed", removed, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return removed, nil
}

// DeleteExpired removes sessions that expired at or before now.
func (r *SQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM instagram_sessions WHERE expires_at <= ?`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, database.UnixMillis(now))
	if err != nil {
		r.logger.Database().Error("Expired session sweep failed", "error", err.Error())
		return 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Expired sessions swept", "removed", removed, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return removed, nil
}
