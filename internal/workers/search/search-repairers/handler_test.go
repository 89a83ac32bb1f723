// internal/workers/search/search-repairers/handler_test.go
package searchrepairers

import (
	"context"
	"strings"
	"testing"

	"repairer-search/internal/common/config"
	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/validation"
	"repairer-search/internal/models"
	"repairer-search/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSearcher struct {
	result    *models.AISearchResult
	calls     int
	lastQuery string
	lastOpts  models.SearchOptions
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts models.SearchOptions) *models.AISearchResult {
	f.calls++
	f.lastQuery = query
	f.lastOpts = opts
	return f.result
}

func createTestConfig() *Config {
	return LoadConfig(config.WorkerConfig{Timeout: 3000})
}

func createTestHandler(t *testing.T, s Searcher) *Handler {
	v, err := validation.NewValidator(registry.Default())
	require.NoError(t, err)
	return NewHandler(createTestConfig(), s, v, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, "3s", createTestConfig().Timeout.String())
	assert.Equal(t, "10s", LoadConfig(config.WorkerConfig{}).Timeout.String())
}

func TestHandler_Execute_Success(t *testing.T) {
	s := &fakeSearcher{result: &models.AISearchResult{
		Repairers:    []models.MatchedRepairer{{ID: "r1"}},
		TotalResults: 1,
		Intent:       models.ParsedSearchIntent{Brand: "apple"},
	}}
	h := createTestHandler(t, s)

	output, err := h.Execute(context.Background(), &Input{
		Query:   "écran iphone paris",
		Options: models.SearchOptions{SessionID: "sess-1", MatchOptions: models.MatchOptions{MaxResults: 10}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.SearchResult.TotalResults)
	assert.Equal(t, "écran iphone paris", s.lastQuery)
	assert.Equal(t, "sess-1", s.lastOpts.SessionID)
	assert.Equal(t, 10, s.lastOpts.MaxResults)
}

func TestHandler_Execute_DegradedResultCompletes(t *testing.T) {
	s := &fakeSearcher{result: &models.AISearchResult{Repairers: []models.MatchedRepairer{}, Degraded: true}}
	h := createTestHandler(t, s)

	output, err := h.Execute(context.Background(), &Input{Query: "batterie samsung"})

	require.NoError(t, err)
	assert.True(t, output.SearchResult.Degraded)
}

// ==========================
// Input Validation Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		code  apperrors.ErrorCode
	}{
		{"nil input", nil, apperrors.ErrCodeInvalidSearchInput},
		{"blank query", &Input{Query: "   "}, apperrors.ErrCodeInvalidSearchInput},
		{"query too long", &Input{Query: strings.Repeat("é", 501)}, apperrors.ErrCodeInvalidSearchInput},
		{
			"distance out of range",
			&Input{Query: "écran", Options: models.SearchOptions{MatchOptions: models.MatchOptions{MaxDistanceKm: 5000}}},
			apperrors.ErrCodeInvalidSearchOptions,
		},
		{
			"user location out of range",
			&Input{Query: "écran", Options: models.SearchOptions{MatchOptions: models.MatchOptions{UserLocation: &models.GeoPoint{Lat: 120, Lng: 2}}}},
			apperrors.ErrCodeInvalidSearchOptions,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{}
			h := createTestHandler(t, s)

			_, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(toStandardError(err), tt.code))
			assert.Equal(t, 0, s.calls)
		})
	}
}

func TestHandler_Decode(t *testing.T) {
	h := createTestHandler(t, &fakeSearcher{})

	input, err := h.decode(`{"query":"écran cassé","options":{"sessionId":"s","minRating":4},"processVar":true}`)
	require.NoError(t, err)
	assert.Equal(t, "s", input.Options.SessionID)
	assert.Equal(t, 4.0, input.Options.MinRating)

	_, err = h.decode(`{"options":{}}`)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSchemaValidationFailed))
}
