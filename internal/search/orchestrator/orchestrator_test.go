package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/metrics"
	"repairer-search/internal/models"
	"repairer-search/internal/search/intent"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatcher struct {
	mu        sync.Mutex
	results   []models.MatchedRepairer
	err       error
	calls     int
	lastQuery models.ParsedSearchIntent
	lastOpts  models.MatchOptions
}

func (f *fakeMatcher) Match(_ context.Context, in models.ParsedSearchIntent, opts models.MatchOptions) ([]models.MatchedRepairer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = in
	f.lastOpts = opts
	if f.err != nil {
		return []models.MatchedRepairer{}, f.err
	}
	return f.results, nil
}

type fakeQueryLog struct {
	entries chan models.QueryLogEntry
	err     error
	release chan struct{}
}

func newFakeQueryLog() *fakeQueryLog {
	return &fakeQueryLog{entries: make(chan models.QueryLogEntry, 16)}
}

func (f *fakeQueryLog) Write(_ context.Context, entry models.QueryLogEntry) error {
	if f.release != nil {
		<-f.release
	}
	f.entries <- entry
	return f.err
}

type fakeAlerter struct {
	operations chan string
}

func (f *fakeAlerter) NotifyDegraded(_ context.Context, operation string, _ error) error {
	f.operations <- operation
	return nil
}

func createTestRepairers(n int) []models.MatchedRepairer {
	out := make([]models.MatchedRepairer, n)
	for i := range out {
		out[i] = models.MatchedRepairer{
			ID:         fmt.Sprintf("rep-%02d", i),
			Name:       fmt.Sprintf("Atelier %d", i),
			City:       "Paris",
			MatchScore: 0.9 - float64(i)*0.01,
		}
	}
	return out
}

func createTestConfig() Config {
	return Config{LogPoolSize: 4, LogWriteTimeout: time.Second, SlowThreshold: time.Minute}
}

func createTestOrchestrator(t *testing.T, m Matcher, ql QueryLog, opts ...Option) *Orchestrator {
	o, err := New(intent.NewParser(), m, ql, createTestConfig(), logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async call")
	}
	var zero T
	return zero
}

// ==========================
// Core Functionality Tests
// ==========================

func TestSearch_ReturnsRankedResults(t *testing.T) {
	m := &fakeMatcher{results: createTestRepairers(6)}
	ql := newFakeQueryLog()
	o := createTestOrchestrator(t, m, ql)

	opts := models.SearchOptions{SessionID: "sess-1", UserID: "user-9"}
	opts.MaxResults = 10
	result := o.Search(context.Background(), "écran iphone 13 cassé à Paris", opts)

	require.NotNil(t, result)
	assert.Equal(t, 6, result.TotalResults)
	assert.Len(t, result.Repairers, 6)
	assert.False(t, result.UsedFallback)
	assert.False(t, result.Degraded)
	assert.Empty(t, result.Suggestions)
	assert.Empty(t, result.DidYouMean)
	assert.Equal(t, "apple", result.Intent.Brand)
	assert.GreaterOrEqual(t, result.SearchTime, int64(0))
	assert.Equal(t, 10, m.lastOpts.MaxResults)

	entry := receive(t, ql.entries)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "écran iphone 13 cassé à Paris", entry.RawQuery)
	assert.Equal(t, 6, entry.ResultsCount)
	assert.Len(t, entry.MatchedIDs, 6)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Equal(t, "user-9", entry.UserID)
	assert.Equal(t, "apple", entry.ParsedIntent.Brand)
}

func TestSearch_LogsTopTenIDs(t *testing.T) {
	ql := newFakeQueryLog()
	o := createTestOrchestrator(t, &fakeMatcher{results: createTestRepairers(15)}, ql)

	o.Search(context.Background(), "batterie samsung Lyon", models.SearchOptions{})

	entry := receive(t, ql.entries)
	require.Len(t, entry.MatchedIDs, LoggedMatchIDs)
	assert.Equal(t, "rep-00", entry.MatchedIDs[0])
	assert.Equal(t, "rep-09", entry.MatchedIDs[9])
	assert.Equal(t, 15, entry.ResultsCount)
}

func TestSearch_LowConfidenceStillMatches(t *testing.T) {
	m := &fakeMatcher{results: createTestRepairers(2)}
	o := createTestOrchestrator(t, m, nil)

	before := testutil.ToFloat64(metrics.SearchFallbacks)
	result := o.Search(context.Background(), "bonjour", models.SearchOptions{})

	assert.True(t, result.UsedFallback)
	assert.Less(t, result.Intent.Confidence, FallbackConfidence)
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, 2, result.TotalResults)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SearchFallbacks))
}

func TestSearch_ZeroResultsSuggestAlternatives(t *testing.T) {
	o := createTestOrchestrator(t, &fakeMatcher{results: []models.MatchedRepairer{}}, nil)

	result := o.Search(context.Background(), "écran iphone 13 cassé à Paris", models.SearchOptions{})

	assert.Equal(t, 0, result.TotalResults)
	assert.False(t, result.Degraded)
	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, msgWidenSearch, result.Suggestions[0])
	assert.Contains(t, result.Suggestions, "Essayez tous les réparateurs Apple")
	assert.Contains(t, result.Suggestions, "Essayez à Boulogne-Billancourt")
}

func TestSearch_DidYouMeanOnTypo(t *testing.T) {
	o := createTestOrchestrator(t, &fakeMatcher{results: []models.MatchedRepairer{}}, nil)

	result := o.Search(context.Background(), "samsng", models.SearchOptions{})

	assert.Equal(t, "samsung", result.DidYouMean)
}

func TestSearch_DidYouMeanLeavesIntentUntouched(t *testing.T) {
	m := &fakeMatcher{results: []models.MatchedRepairer{}}
	o := createTestOrchestrator(t, m, nil)

	result := o.Search(context.Background(), "écran samsng", models.SearchOptions{})

	assert.Equal(t, "écran samsung", result.DidYouMean)
	assert.Equal(t, "écran samsng", result.Intent.OriginalQuery)
	assert.Empty(t, result.Intent.Brand)
	assert.Equal(t, 1, m.calls)
	assert.Empty(t, m.lastQuery.Brand)
}

// ==========================
// Degradation Tests
// ==========================

func TestSearch_DirectoryFailureDegrades(t *testing.T) {
	m := &fakeMatcher{err: apperrors.NewDirectoryUnavailableError(errors.New("connection refused"))}
	alerts := &fakeAlerter{operations: make(chan string, 1)}
	o := createTestOrchestrator(t, m, nil, WithAlerter(alerts))

	before := testutil.ToFloat64(metrics.SearchDegraded.WithLabelValues(OperationSearch))
	result := o.Search(context.Background(), "écran iphone à Paris", models.SearchOptions{})

	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Repairers)
	assert.NotNil(t, result.Repairers)
	assert.NotEmpty(t, result.Suggestions)
	assert.Equal(t, OperationSearch, receive(t, alerts.operations))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SearchDegraded.WithLabelValues(OperationSearch)))
}

func TestSearch_QueryLogFailureIsSwallowed(t *testing.T) {
	ql := newFakeQueryLog()
	ql.err = errors.New("insert failed")
	o, err := New(intent.NewParser(), &fakeMatcher{results: createTestRepairers(3)}, ql, createTestConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.QueryLogWrites.WithLabelValues("error"))
	result := o.Search(context.Background(), "batterie", models.SearchOptions{})
	require.NoError(t, o.Close())

	assert.Equal(t, 3, result.TotalResults)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.QueryLogWrites.WithLabelValues("error")))
}

func TestSearch_SaturatedLogPoolDropsEntries(t *testing.T) {
	ql := newFakeQueryLog()
	ql.release = make(chan struct{})
	cfg := createTestConfig()
	cfg.LogPoolSize = 1
	o, err := New(intent.NewParser(), &fakeMatcher{results: createTestRepairers(1)}, ql, cfg, logger.NewNoOpLogger())
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.QueryLogWrites.WithLabelValues("dropped"))
	o.Search(context.Background(), "écran", models.SearchOptions{})
	result := o.Search(context.Background(), "batterie", models.SearchOptions{})
	close(ql.release)
	require.NoError(t, o.Close())

	assert.Equal(t, 1, result.TotalResults)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.QueryLogWrites.WithLabelValues("dropped")))
	assert.Len(t, ql.entries, 1)
}

func TestSearch_SlowSearchLogsWarning(t *testing.T) {
	log, observed := logger.NewObservedLogger("debug")
	o, err := New(intent.NewParser(), &fakeMatcher{results: createTestRepairers(1)}, nil, createTestConfig(), log)
	require.NoError(t, err)
	defer o.Close()

	var mu sync.Mutex
	clock := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(90 * time.Second)
		return clock
	}

	result := o.Search(context.Background(), "écran", models.SearchOptions{})

	assert.Equal(t, int64(90_000), result.SearchTime)
	slow := observed.FilterMessage("slow search").All()
	require.Len(t, slow, 1)
	assert.Equal(t, "search", slow[0].ContextMap()["operation"])
}

// ==========================
// Auxiliary Entry Point Tests
// ==========================

func TestQuickSearch_UsesFixedConfidence(t *testing.T) {
	m := &fakeMatcher{results: createTestRepairers(4)}
	o := createTestOrchestrator(t, m, newFakeQueryLog())

	got := o.QuickSearch(context.Background(), "écran fissuré", "lyon", models.MatchOptions{MinRating: 4})

	assert.Len(t, got, 4)
	assert.Equal(t, intent.QuickSearchConfidence, m.lastQuery.Confidence)
	require.NotNil(t, m.lastQuery.Location)
	assert.Equal(t, "Lyon", m.lastQuery.Location.City)
	assert.Equal(t, 4.0, m.lastOpts.MinRating)
}

func TestQuickSearch_DegradesToEmpty(t *testing.T) {
	m := &fakeMatcher{err: apperrors.NewDirectoryUnavailableError(errors.New("timeout"))}
	o := createTestOrchestrator(t, m, nil)

	got := o.QuickSearch(context.Background(), "batterie", "", models.MatchOptions{})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchNearby(t *testing.T) {
	tests := []struct {
		name       string
		radius     float64
		wantRadius float64
	}{
		{"default radius", 0, models.DefaultNearbyRadius},
		{"explicit radius", 3, 3},
		{"NaN radius falls back to default", math.NaN(), models.DefaultNearbyRadius},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMatcher{results: createTestRepairers(2)}
			o := createTestOrchestrator(t, m, nil)

			got := o.SearchNearby(context.Background(), 48.8566, 2.3522, tt.radius, models.NearbyFilters{Brand: "Apple", RepairType: "batterie", MinRating: 4.5})

			assert.Len(t, got, 2)
			require.NotNil(t, m.lastOpts.UserLocation)
			assert.Equal(t, 48.8566, m.lastOpts.UserLocation.Lat)
			assert.Equal(t, tt.wantRadius, m.lastOpts.MaxDistanceKm)
			assert.Equal(t, 4.5, m.lastOpts.MinRating)
			assert.Equal(t, "apple", m.lastQuery.Brand)
			assert.Equal(t, "batterie", m.lastQuery.RepairType)
			assert.True(t, m.lastQuery.Criteria.Nearest)
		})
	}
}

func TestGetSuggestions(t *testing.T) {
	o := createTestOrchestrator(t, &fakeMatcher{}, nil)

	got := o.GetSuggestions("ecr")
	assert.Len(t, got, MaxSuggestions)
	assert.Equal(t, "écran iPhone", got[0])
}
