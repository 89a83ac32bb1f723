package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/models"

	"github.com/lib/pq"
)

// QueryLog appends search entries to search_queries.
type QueryLog struct {
	db *sql.DB
}

func NewQueryLog(db *sql.DB) *QueryLog {
	return &QueryLog{db: db}
}

func (l *QueryLog) Write(ctx context.Context, entry models.QueryLogEntry) error {
	intent, err := json.Marshal(entry.ParsedIntent)
	if err != nil {
		return apperrors.NewQueryLogWriteFailedError(err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO search_queries
			(id, raw_query, parsed_intent, matched_ids, results_count, used_fallback, session_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)`,
		entry.ID, entry.RawQuery, intent, pq.Array(entry.MatchedIDs),
		entry.ResultsCount, entry.UsedFallback, entry.SessionID, entry.UserID, entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewQueryLogWriteFailedError(err)
	}
	return nil
}
