package postgres

import (
	"context"
	"database/sql"

	apperrors "repairer-search/internal/common/errors"

	"github.com/lib/pq"
)

// ProfileStore reads claim levels from repairer_profiles.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Levels(ctx context.Context, ids []string) (map[string]int, error) {
	levels := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return levels, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT repairer_id, repairer_level
		FROM repairer_profiles
		WHERE repairer_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewProfileLookupFailedError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var level int
		if err := rows.Scan(&id, &level); err != nil {
			return nil, apperrors.NewProfileLookupFailedError(err)
		}
		levels[id] = level
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewProfileLookupFailedError(err)
	}
	return levels, nil
}
