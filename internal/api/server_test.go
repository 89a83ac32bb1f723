package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"repairer-search/internal/common/config"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	query       string
	searchOpts  models.SearchOptions
	term, city  string
	matchOpts   models.MatchOptions
	lat, lng    float64
	radius      float64
	filters     models.NearbyFilters
	partial     string
	repairers   []models.MatchedRepairer
	suggestions []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts models.SearchOptions) *models.AISearchResult {
	f.query, f.searchOpts = query, opts
	return &models.AISearchResult{Repairers: f.repairers, TotalResults: len(f.repairers), Intent: models.ParsedSearchIntent{OriginalQuery: query}}
}

func (f *fakeSearcher) QuickSearch(_ context.Context, term, city string, opts models.MatchOptions) []models.MatchedRepairer {
	f.term, f.city, f.matchOpts = term, city, opts
	return f.repairers
}

func (f *fakeSearcher) SearchNearby(_ context.Context, lat, lng, radiusKm float64, filters models.NearbyFilters) []models.MatchedRepairer {
	f.lat, f.lng, f.radius, f.filters = lat, lng, radiusKm, filters
	return f.repairers
}

func (f *fakeSearcher) GetSuggestions(partial string) []string {
	f.partial = partial
	return f.suggestions
}

func createTestServer(t *testing.T, searcher *fakeSearcher, checks map[string]HealthCheck) http.Handler {
	return NewServer(config.HTTPConfig{Address: ":0"}, searcher, checks, logger.NewTestLogger(t)).Handler()
}

func do(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Health and Readiness Tests
// ==========================

func TestHealth(t *testing.T) {
	rec := do(t, createTestServer(t, &fakeSearcher{}, nil), "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := do(t, createTestServer(t, &fakeSearcher{}, map[string]HealthCheck{"postgres": ok, "redis": ok}), "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, createTestServer(t, &fakeSearcher{}, map[string]HealthCheck{"postgres": ok, "elasticsearch": down}), "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	failures := decode(t, rec)["failures"].(map[string]interface{})
	assert.Equal(t, "connection refused", failures["elasticsearch"])
	assert.NotContains(t, failures, "postgres")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, createTestServer(t, &fakeSearcher{}, nil), "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// ==========================
// Search Endpoint Tests
// ==========================

func TestSearchEndpoint(t *testing.T) {
	searcher := &fakeSearcher{repairers: []models.MatchedRepairer{{ID: "rep-1", Name: "iFix"}}}
	h := createTestServer(t, searcher, nil)

	header := http.Header{sessionHeader: []string{"sess-77"}}
	rec := do(t, h, "/api/v1/search?q=%C3%A9cran+iphone+Paris&maxResults=5&lat=48.85&lng=2.35&maxDistanceKm=8&onlyClaimed=true", header)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "écran iphone Paris", searcher.query)
	assert.Equal(t, 5, searcher.searchOpts.MaxResults)
	assert.Equal(t, 8.0, searcher.searchOpts.MaxDistanceKm)
	assert.True(t, searcher.searchOpts.OnlyClaimed)
	require.NotNil(t, searcher.searchOpts.UserLocation)
	assert.Equal(t, 48.85, searcher.searchOpts.UserLocation.Lat)
	assert.Equal(t, "sess-77", searcher.searchOpts.SessionID)
	assert.Equal(t, "sess-77", rec.Header().Get(sessionHeader))

	body := decode(t, rec)
	assert.Equal(t, float64(1), body["totalResults"])
}

func TestSearchEndpoint_GeneratesSession(t *testing.T) {
	searcher := &fakeSearcher{}
	rec := do(t, createTestServer(t, searcher, nil), "/api/v1/search?q=batterie", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, searcher.searchOpts.SessionID, 36)
	assert.Equal(t, searcher.searchOpts.SessionID, rec.Header().Get(sessionHeader))
}

func TestSearchEndpoint_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode string
	}{
		{"missing query", "/api/v1/search", "INVALID_SEARCH_INPUT"},
		{"blank query", "/api/v1/search?q=%20%20", "INVALID_SEARCH_INPUT"},
		{"non numeric rating", "/api/v1/search?q=ecran&minRating=high", "INVALID_SEARCH_INPUT"},
		{"rating out of range", "/api/v1/search?q=ecran&minRating=7", "INVALID_SEARCH_OPTIONS"},
		{"too many results", "/api/v1/search?q=ecran&maxResults=1000", "INVALID_SEARCH_OPTIONS"},
		{"latitude without longitude", "/api/v1/search?q=ecran&lat=48.8", "INVALID_SEARCH_INPUT"},
		{"latitude out of range", "/api/v1/search?q=ecran&lat=123&lng=2", "INVALID_SEARCH_OPTIONS"},
		{"bad boolean", "/api/v1/search?q=ecran&onlyVerified=maybe", "INVALID_SEARCH_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			rec := do(t, createTestServer(t, searcher, nil), tt.target, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec)["code"])
			assert.Empty(t, searcher.query)
		})
	}
}

func TestQuickSearchEndpoint(t *testing.T) {
	searcher := &fakeSearcher{repairers: []models.MatchedRepairer{{ID: "rep-1"}, {ID: "rep-2"}}}
	rec := do(t, createTestServer(t, searcher, nil), "/api/v1/search/quick?term=batterie&city=Lyon&onlyVerified=true", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "batterie", searcher.term)
	assert.Equal(t, "Lyon", searcher.city)
	assert.True(t, searcher.matchOpts.OnlyVerified)
	assert.Equal(t, float64(2), decode(t, rec)["totalResults"])
}

func TestNearbyEndpoint(t *testing.T) {
	searcher := &fakeSearcher{}
	rec := do(t, createTestServer(t, searcher, nil), "/api/v1/search/nearby?lat=45.76&lng=4.83&brand=apple&minRating=4", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 45.76, searcher.lat)
	assert.Equal(t, 4.83, searcher.lng)
	assert.Equal(t, 0.0, searcher.radius)
	assert.Equal(t, "apple", searcher.filters.Brand)
	assert.Equal(t, 4.0, searcher.filters.MinRating)
	assert.Equal(t, []interface{}{}, decode(t, rec)["repairers"])
}

func TestNearbyEndpoint_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing lat", "/api/v1/search/nearby?lng=4.83"},
		{"longitude out of range", "/api/v1/search/nearby?lat=45&lng=200"},
		{"rating out of range", "/api/v1/search/nearby?lat=45&lng=4&minRating=9"},
		{"negative radius", "/api/v1/search/nearby?lat=45&lng=4&radiusKm=-3"},
		{"NaN radius", "/api/v1/search/nearby?lat=48.85&lng=2.35&radiusKm=NaN"},
		{"infinite radius", "/api/v1/search/nearby?lat=48.85&lng=2.35&radiusKm=%2BInf"},
		{"NaN latitude", "/api/v1/search/nearby?lat=NaN&lng=2.35"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, createTestServer(t, &fakeSearcher{}, nil), tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	searcher := &fakeSearcher{suggestions: []string{"écran iPhone", "écran iPad"}}
	rec := do(t, createTestServer(t, searcher, nil), "/api/v1/suggestions?q=ecr", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ecr", searcher.partial)
	assert.Equal(t, []interface{}{"écran iPhone", "écran iPad"}, decode(t, rec)["suggestions"])
}
