// Package vibe provides the SQL-based implementation of the analysis history repository.
package vibe

import (
	"context"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
)

// SQLAnalysisRepository stores analysis records, one row per analysis.
type SQLAnalysisRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLAnalysisRepository creates a new instance of the repository.
func NewSQLAnalysisRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLAnalysisRepository {
	return &SQLAnalysisRepository{
		db:     db,
		logger: logger,
	}
}

// Append saves one record to the visitor's history.
func (r *SQLAnalysisRepository) Append(ctx context.Context, visitorID string, record vibe.AnalysisRecord) error {
	const query = `INSERT INTO analysis_records (visitor_id, score, top_persona, created_at) VALUES (?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing analysis record insert", "visitorId", logging.SanitizeID(visitorID), "score", record.Score)

	_, err := r.db.ExecContext(ctx, query, visitorID, record.Score, record.TopPersonaName, database.UnixMillis(record.Timestamp))
	if err != nil {
		r.logger.Database().Error("Analysis record insert failed", "error", err.Error(), "visitorId", logging.SanitizeID(visitorID))
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Analysis record insert completed", "visitorId", logging.SanitizeID(visitorID), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return nil
}

// FindByVisitor returns the visitor's history, oldest first.
func (r *SQLAnalysisRepository) FindByVisitor(ctx context.Context, visitorID string) ([]vibe.AnalysisRecord, error) {
	const query = `SELECT score, top_persona, created_at FROM analysis_records WHERE visitor_id = ? ORDER BY id ASC`

	start := time.Now()
	r.logger.Database().Debug("Loading analysis history", "visitorId", logging.SanitizeID(visitorID))

	rows, err := r.db.QueryContext(ctx, query, visitorID)
	if err != nil {
		r.logger.Database().Error("Failed to query analysis history", "error", err.Error(), "visitorId", logging.SanitizeID(visitorID))
		return nil, err
	}
	defer rows.Close()

	var records []vibe.AnalysisRecord
	for rows.Next() {
		var (
			rec       vibe.AnalysisRecord
			createdAt int64
		)
		if err := rows.Scan(&rec.Score, &rec.TopPersonaName, &createdAt); err != nil {
			r.logger.Database().Error("Failed to scan analysis record", "error", err.Error())
			return nil, err
		}
		rec.Timestamp = database.FromUnixMillis(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Analysis history loaded", "visitorId", logging.SanitizeID(visitorID), "count", len(records), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration)
	return records, nil
}
