package database

import (
	"context"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct {
	logger *logging.ChanneledLogger
}

// NewTableCreator creates a new TableCreator.
func NewTableCreator(logger *logging.ChanneledLogger) *TableCreator {
	return &TableCreator{logger: logger}
}

// CreateSchema executes all necessary queries to build the tables and indexes. It is idempotent.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *DB) error {
	start := time.Now()

	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}

	duration := time.Since(start)
	tc.logger.Database().Info("Schema ready", "tables", len(tables), "indexes", len(indexes), "duration", duration)
	CheckAndLogSlowQuery(tc.logger, "CREATE_SCHEMA", duration)
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS analysis_records (id INTEGER PRIMARY KEY AUTOINCREMENT, visitor_id TEXT NOT NULL, score INTEGER NOT NULL, top_persona TEXT NOT NULL, created_at INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS instagram_sessions (visitor_id TEXT PRIMARY KEY, profile_id TEXT NOT NULL, username TEXT NOT NULL, account_type TEXT, media_count INTEGER NOT NULL DEFAULT 0, encrypted_token TEXT NOT NULL, issued_at INTEGER NOT NULL, expires_at INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS deletion_requests (confirmation_code TEXT PRIMARY KEY, user_id TEXT, status TEXT NOT NULL, sessions_removed INTEGER NOT NULL DEFAULT 0, created_at INTEGER NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_analysis_records_visitor ON analysis_records(visitor_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_instagram_sessions_profile ON instagram_sessions(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_instagram_sessions_expiry ON instagram_sessions(expires_at)`,
}
