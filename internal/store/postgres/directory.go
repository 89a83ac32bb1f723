// Package postgres implements the search stores on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/models"

	"github.com/lib/pq"
)

const selectRepairers = `SELECT id, name, address, city, postal_code, COALESCE(phone, ''), COALESCE(email, ''),
       rating, latitude, longitude, is_verified, specialties, services
FROM repairers
WHERE latitude IS NOT NULL AND longitude IS NOT NULL`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DirectoryStore reads listings from the repairers table.
type DirectoryStore struct {
	db *sql.DB
}

func NewDirectoryStore(db *sql.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

// BuildDirectoryQuery renders filter as SQL with positional arguments.
func BuildDirectoryQuery(filter models.DirectoryFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(selectRepairers)

	args := []interface{}{filter.MinRating}
	sb.WriteString("\n  AND rating >= $1")

	if filter.OnlyVerified {
		sb.WriteString("\n  AND is_verified = TRUE")
	}
	if filter.City != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.City)+"%")
		fmt.Fprintf(&sb, "\n  AND city ILIKE $%d", len(args))
	}
	if filter.PostalCode != "" {
		args = append(args, likeEscaper.Replace(filter.PostalCode)+"%")
		fmt.Fprintf(&sb, "\n  AND postal_code ILIKE $%d", len(args))
	}
	if b := filter.Bounds; b != nil {
		args = append(args, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
		n := len(args)
		fmt.Fprintf(&sb, "\n  AND latitude BETWEEN $%d AND $%d AND longitude BETWEEN $%d AND $%d", n-3, n-2, n-1, n)
	}

	args = append(args, filter.Limit)
	fmt.Fprintf(&sb, "\nORDER BY rating DESC, id\nLIMIT $%d", len(args))
	return sb.String(), args
}

func (s *DirectoryStore) Query(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, error) {
	query, args := BuildDirectoryQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("repairers", err)
	}
	defer rows.Close()

	records := make([]models.DirectoryRecord, 0, filter.Limit)
	for rows.Next() {
		var (
			rec      models.DirectoryRecord
			lat, lng sql.NullFloat64
		)
		err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Address, &rec.City, &rec.PostalCode, &rec.Phone, &rec.Email,
			&rec.Rating, &lat, &lng, &rec.IsVerified,
			pq.Array(&rec.Specialties), pq.Array(&rec.Services),
		)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("repairers", err)
		}
		if lat.Valid && lng.Valid {
			rec.Location = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("repairers", err)
	}
	return records, nil
}
