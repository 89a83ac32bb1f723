// Package matcher ranks directory records against a parsed search intent.
package matcher

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/metrics"
	"repairer-search/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxCandidates bounds every directory fetch regardless of store size.
	MaxCandidates = 500

	levelBatchSize = 100
)

// DirectoryStore returns repairer listings matching a filter.
type DirectoryStore interface {
	Query(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, error)
}

// ProfileStore returns the claim level (0..3) of the given listings.
// Missing ids are absent from the map.
type ProfileStore interface {
	Levels(ctx context.Context, ids []string) (map[string]int, error)
}

type Matcher struct {
	directory DirectoryStore
	profiles  ProfileStore
	logger    logger.Logger
}

func New(directory DirectoryStore, profiles ProfileStore, log logger.Logger) *Matcher {
	return &Matcher{
		directory: directory,
		profiles:  profiles,
		logger:    log.WithFields(map[string]interface{}{"component": "matcher"}),
	}
}

// Match returns candidates sorted by MatchScore, best first.
// A directory failure yields an empty list and a DIRECTORY_UNAVAILABLE error;
// callers treat it as a degraded, not failed, search.
func (m *Matcher) Match(ctx context.Context, in models.ParsedSearchIntent, opts models.MatchOptions) ([]models.MatchedRepairer, error) {
	start := time.Now()
	opts = opts.WithDefaults()

	records, err := m.directory.Query(ctx, BuildFilter(in, opts))
	if err != nil {
		metrics.DirectoryStoreErrors.Inc()
		m.logger.Error("directory store unavailable", map[string]interface{}{
			"error": err.Error(),
			"query": in.OriginalQuery,
		})
		return []models.MatchedRepairer{}, apperrors.NewDirectoryUnavailableError(err)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	levels := m.fetchLevels(ctx, ids)

	results := make([]models.MatchedRepairer, 0, len(records))
	for _, rec := range records {
		candidate := Score(in, rec, levels[rec.ID], opts.UserLocation)

		if opts.UserLocation != nil && candidate.Distance != nil && *candidate.Distance > opts.MaxDistanceKm {
			continue
		}
		if opts.OnlyClaimed && candidate.RepairerLevel < 1 {
			continue
		}
		results = append(results, candidate)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	m.logger.Info("match completed", map[string]interface{}{
		"candidates": len(records),
		"returned":   len(results),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return results, nil
}

// Score turns one directory record into a scored candidate.
func Score(in models.ParsedSearchIntent, rec models.DirectoryRecord, level int, user *models.GeoPoint) models.MatchedRepairer {
	if level < 0 {
		level = 0
	}
	if level > maxLevel {
		level = maxLevel
	}

	candidate := models.MatchedRepairer{
		ID:            rec.ID,
		Name:          rec.Name,
		Address:       rec.Address,
		City:          rec.City,
		PostalCode:    rec.PostalCode,
		Phone:         rec.Phone,
		Email:         rec.Email,
		Rating:        rec.Rating,
		Location:      rec.Location,
		IsVerified:    rec.IsVerified,
		Specialties:   nonNil(rec.Specialties),
		Services:      nonNil(rec.Services),
		RepairerLevel: level,
	}

	if user != nil && rec.Location != nil {
		d := Haversine(*user, *rec.Location)
		candidate.Distance = &d
	}

	candidate.RelevanceScore = RelevanceScore(in, candidate.Specialties, candidate.Services)
	candidate.DistanceScore = DistanceScore(candidate.Distance)
	candidate.RatingScore = RatingScore(rec.Rating)
	candidate.LevelScore = LevelScore(level)
	candidate.MatchScore = MatchScore(candidate.RelevanceScore, candidate.DistanceScore, candidate.RatingScore, candidate.LevelScore)
	candidate.MatchReasons = BuildReasons(in, candidate)
	return candidate
}

// BuildFilter derives the store predicates from an intent and options.
func BuildFilter(in models.ParsedSearchIntent, opts models.MatchOptions) models.DirectoryFilter {
	filter := models.DirectoryFilter{
		MinRating:    opts.MinRating,
		OnlyVerified: opts.OnlyVerified,
		Limit:        MaxCandidates,
	}
	if in.Location != nil {
		filter.City = in.Location.City
		filter.PostalCode = in.Location.PostalCode
	}
	if opts.UserLocation != nil {
		filter.Bounds = BoundsAround(*opts.UserLocation, opts.MaxDistanceKm)
	}
	return filter
}

// fetchLevels looks levels up in concurrent batches. Ids a failed batch did not resolve stay at level 0.
func (m *Matcher) fetchLevels(ctx context.Context, ids []string) map[string]int {
	levels := make(map[string]int, len(ids))
	if m.profiles == nil || len(ids) == 0 {
		return levels
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += levelBatchSize {
		end := start + levelBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		g.Go(func() error {
			found, err := m.profiles.Levels(gctx, batch)
			mu.Lock()
			for id, lvl := range found {
				levels[id] = lvl
			}
			mu.Unlock()
			return err
		})
	}

	if err := g.Wait(); err != nil {
		m.logger.Warn("profile level lookup failed, defaulting to level 0", map[string]interface{}{
			"error": err.Error(),
			"ids":   len(ids),
		})
	}
	return levels
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
