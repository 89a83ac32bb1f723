package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/models"
	"repairer-search/internal/search/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var (
	paris    = models.GeoPoint{Lat: 48.8566, Lng: 2.3522}
	lyon     = models.GeoPoint{Lat: 45.7640, Lng: 4.8357}
	boulogne = models.GeoPoint{Lat: 48.8397, Lng: 2.2399}
	versail  = models.GeoPoint{Lat: 48.8049, Lng: 2.1204}
)

type fakeDirectory struct {
	records    []models.DirectoryRecord
	err        error
	lastFilter models.DirectoryFilter
}

func (f *fakeDirectory) Query(_ context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	var out []models.DirectoryRecord
	for _, r := range f.records {
		if r.Rating < filter.MinRating {
			continue
		}
		if filter.OnlyVerified && !r.IsVerified {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeProfiles struct {
	levels map[string]int
	err    error
	calls  atomic.Int32
}

func (f *fakeProfiles) Levels(_ context.Context, ids []string) (map[string]int, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]int{}
	for _, id := range ids {
		if lvl, ok := f.levels[id]; ok {
			out[id] = lvl
		}
	}
	return out, nil
}

func point(p models.GeoPoint) *models.GeoPoint { return &p }

func createTestRecords() []models.DirectoryRecord {
	return []models.DirectoryRecord{
		{
			ID: "rep-1", Name: "iPhone Doctor", City: "Paris", Rating: 4.8, IsVerified: true,
			Location:    point(paris),
			Specialties: []string{"Apple", "iPhone 13"},
			Services:    []string{"Réparation écran", "Batterie"},
		},
		{
			ID: "rep-2", Name: "Galaxy Fix", City: "Boulogne-Billancourt", Rating: 3.2,
			Location:    point(boulogne),
			Specialties: []string{"Samsung"},
			Services:    []string{"Écran"},
		},
		{
			ID: "rep-3", Name: "Répar'Versailles", City: "Versailles", Rating: 4.0,
			Location:    point(versail),
			Specialties: []string{"Toutes marques"},
		},
		{
			ID: "rep-4", Name: "Lyon Mobile", City: "Lyon", Rating: 5.0, IsVerified: true,
			Location:    point(lyon),
			Specialties: []string{"Apple"},
			Services:    []string{"écran"},
		},
	}
}

func newTestMatcher(t *testing.T, dir *fakeDirectory, profiles ProfileStore) *Matcher {
	return New(dir, profiles, logger.NewTestLogger(t))
}

// ==========================
// Distance Tests
// ==========================

func TestHaversine(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(paris, paris))
	assert.InDelta(t, Haversine(paris, lyon), Haversine(lyon, paris), 1e-9)
	assert.InDelta(t, 392, Haversine(paris, lyon), 5)
}

func TestBoundsAround(t *testing.T) {
	box := BoundsAround(paris, 10)

	assert.Less(t, box.MinLat, paris.Lat)
	assert.Greater(t, box.MaxLat, paris.Lat)
	assert.Less(t, box.MinLng, paris.Lng)
	assert.Greater(t, box.MaxLng, paris.Lng)

	north := models.GeoPoint{Lat: box.MaxLat, Lng: paris.Lng}
	assert.InDelta(t, 10, Haversine(paris, north), 0.1)
	east := models.GeoPoint{Lat: paris.Lat, Lng: box.MaxLng}
	assert.GreaterOrEqual(t, Haversine(paris, east), 9.9)
}

// ==========================
// Scoring Tests
// ==========================

func TestRelevanceScore(t *testing.T) {
	specialties := []string{"Apple", "iPhone 13"}
	services := []string{"Réparation écran"}

	tests := []struct {
		name   string
		intent models.ParsedSearchIntent
		want   float64
	}{
		{"nothing detected gets floor", models.ParsedSearchIntent{}, 0.2},
		{"brand only", models.ParsedSearchIntent{Brand: "apple"}, 0.4},
		{"brand model repair", models.ParsedSearchIntent{Brand: "apple", Model: "iphone 13", RepairType: "ecran"}, 1.0},
		{"half keywords", models.ParsedSearchIntent{Keywords: []string{"écran", "vitre"}}, 0.2},
		{"brand plus all keywords", models.ParsedSearchIntent{Brand: "apple", Keywords: []string{"écran", "iphone"}}, 0.6},
		{"unknown brand", models.ParsedSearchIntent{Brand: "nokia"}, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RelevanceScore(tt.intent, specialties, services), 1e-9)
		})
	}
}

func TestDistanceScore(t *testing.T) {
	d := func(v float64) *float64 { return &v }

	assert.Equal(t, 1.0, DistanceScore(nil))
	assert.Equal(t, 1.0, DistanceScore(d(0)))
	assert.InDelta(t, 0.5, DistanceScore(d(25)), 1e-9)
	assert.Equal(t, 0.0, DistanceScore(d(80)))
}

func TestComponentScores(t *testing.T) {
	assert.InDelta(t, 0.9, RatingScore(4.5), 1e-9)
	assert.Equal(t, 1.0, RatingScore(7))
	assert.Equal(t, 0.0, RatingScore(-1))
	assert.InDelta(t, 2.0/3.0, LevelScore(2), 1e-9)
	assert.Equal(t, 1.0, LevelScore(9))
	assert.InDelta(t, 0.95, MatchScore(1, 1, 1, 1), 1e-9)
	assert.Equal(t, 0.0, MatchScore(0, 0, 0, 0))
}

func TestScore_BoundsForAllCandidates(t *testing.T) {
	in := intent.NewParser().Parse("écran iphone 13 cassé à Paris")
	records := append(createTestRecords(), models.DirectoryRecord{ID: "broken", Rating: 12})

	for _, user := range []*models.GeoPoint{nil, point(paris)} {
		for level := -1; level <= 4; level++ {
			for _, rec := range records {
				c := Score(in, rec, level, user)
				for name, v := range map[string]float64{
					"relevance": c.RelevanceScore,
					"distance":  c.DistanceScore,
					"rating":    c.RatingScore,
					"level":     c.LevelScore,
					"match":     c.MatchScore,
				} {
					assert.GreaterOrEqual(t, v, 0.0, "%s score of %s", name, rec.ID)
					assert.LessOrEqual(t, v, 1.0, "%s score of %s", name, rec.ID)
				}
				if c.Distance != nil {
					assert.GreaterOrEqual(t, *c.Distance, 0.0)
				}
			}
		}
	}
}

func TestBuildReasons_Order(t *testing.T) {
	in := models.ParsedSearchIntent{Brand: "apple", RepairType: "ecran"}
	dist := 1.2
	m := models.MatchedRepairer{
		Rating:         4.8,
		RelevanceScore: 0.9,
		RatingScore:    0.96,
		DistanceScore:  0.97,
		Distance:       &dist,
		IsVerified:     true,
	}

	reasons := BuildReasons(in, m)

	assert.Equal(t, []string{
		"Spécialiste Apple",
		"Réparation écran",
		"Excellente note (4.8/5)",
		"Très proche (1.2 km)",
		"Réparateur vérifié",
	}, reasons)
}

func TestBuildReasons_Thresholds(t *testing.T) {
	dist := 20.0
	m := models.MatchedRepairer{Rating: 3.2, RelevanceScore: 0.4, RatingScore: 0.64, DistanceScore: 0.6, Distance: &dist}

	reasons := BuildReasons(models.ParsedSearchIntent{Brand: "apple"}, m)
	assert.Equal(t, []string{"Bonne note (3.2/5)", "À proximité (20.0 km)"}, reasons)

	m.RatingScore, m.DistanceScore, m.Distance = 0.2, 1, nil
	assert.Empty(t, BuildReasons(models.ParsedSearchIntent{}, m))
}

// ==========================
// Match Tests
// ==========================

func TestMatch_SortedAndBounded(t *testing.T) {
	dir := &fakeDirectory{records: createTestRecords()}
	profiles := &fakeProfiles{levels: map[string]int{"rep-1": 3, "rep-3": 1}}
	m := newTestMatcher(t, dir, profiles)

	in := intent.NewParser().Parse("écran iphone 13 cassé")
	results, err := m.Match(context.Background(), in, models.MatchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 4)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].MatchScore, results[i].MatchScore)
	}
	assert.Equal(t, "rep-1", results[0].ID)
	assert.Equal(t, 3, results[0].RepairerLevel)
	assert.Nil(t, results[0].Distance)
	assert.Equal(t, MaxCandidates, dir.lastFilter.Limit)
}

func TestMatch_RadiusExclusion(t *testing.T) {
	dir := &fakeDirectory{records: createTestRecords()}
	m := newTestMatcher(t, dir, &fakeProfiles{})

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{
		UserLocation:  point(paris),
		MaxDistanceKm: 10,
	})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NotNil(t, r.Distance)
		assert.LessOrEqual(t, *r.Distance, 10.0)
		assert.NotEqual(t, "rep-4", r.ID)
	}
	require.NotNil(t, dir.lastFilter.Bounds)
}

func TestMatch_NaNRadiusUsesDefault(t *testing.T) {
	dir := &fakeDirectory{records: createTestRecords()}
	m := newTestMatcher(t, dir, &fakeProfiles{})

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{
		UserLocation:  point(paris),
		MaxDistanceKm: math.NaN(),
	})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NotNil(t, r.Distance)
		assert.LessOrEqual(t, *r.Distance, models.DefaultMaxDistanceKm)
		assert.NotEqual(t, "rep-4", r.ID)
	}
	require.NotNil(t, dir.lastFilter.Bounds)
	assert.False(t, math.IsNaN(dir.lastFilter.Bounds.MinLat))
	assert.False(t, math.IsNaN(dir.lastFilter.Bounds.MaxLng))
}

func TestMatch_KeepsCandidatesWithoutCoordinates(t *testing.T) {
	dir := &fakeDirectory{records: []models.DirectoryRecord{{ID: "no-geo", Rating: 4}}}
	m := newTestMatcher(t, dir, nil)

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{
		UserLocation:  point(paris),
		MaxDistanceKm: 5,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Distance)
	assert.Equal(t, 1.0, results[0].DistanceScore)
}

func TestMatch_OnlyClaimed(t *testing.T) {
	records := []models.DirectoryRecord{
		{ID: "claimed", Rating: 4, Location: point(paris)},
		{ID: "unclaimed", Rating: 4, Location: point(paris)},
	}
	profiles := &fakeProfiles{levels: map[string]int{"claimed": 2, "unclaimed": 0}}

	tests := []struct {
		name        string
		onlyClaimed bool
		wantIDs     []string
	}{
		{"claimed only", true, []string{"claimed"}},
		{"everyone", false, []string{"claimed", "unclaimed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMatcher(t, &fakeDirectory{records: records}, profiles)
			results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{OnlyClaimed: tt.onlyClaimed})
			require.NoError(t, err)

			var ids []string
			for _, r := range results {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMatch_MinRatingAboveEveryRecord(t *testing.T) {
	m := newTestMatcher(t, &fakeDirectory{records: createTestRecords()}, &fakeProfiles{})

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{MinRating: 5.1})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestMatch_DirectoryFailureDegrades(t *testing.T) {
	m := newTestMatcher(t, &fakeDirectory{err: errors.New("connection refused")}, &fakeProfiles{})

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{})

	assert.NotNil(t, results)
	assert.Empty(t, results)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeDirectoryUnavailable, stdErr.Code)
}

func TestMatch_ProfileFailureDefaultsLevels(t *testing.T) {
	m := newTestMatcher(t, &fakeDirectory{records: createTestRecords()}, &fakeProfiles{err: errors.New("timeout")})

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, 0, r.RepairerLevel)
		assert.Equal(t, 0.0, r.LevelScore)
	}
}

func TestMatch_TruncatesAndBatchesLevels(t *testing.T) {
	var records []models.DirectoryRecord
	for i := 0; i < 250; i++ {
		records = append(records, models.DirectoryRecord{ID: fmt.Sprintf("r-%03d", i), Rating: float64(i%5) + 0.5, Location: point(paris)})
	}
	profiles := &fakeProfiles{levels: map[string]int{}}
	m := newTestMatcher(t, &fakeDirectory{records: records}, profiles)

	results, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{MaxResults: 7})

	require.NoError(t, err)
	assert.Len(t, results, 7)
	assert.Equal(t, int32(3), profiles.calls.Load())
}

func TestMatch_StableAcrossCalls(t *testing.T) {
	records := []models.DirectoryRecord{
		{ID: "a", Rating: 4, Location: point(paris)},
		{ID: "b", Rating: 4, Location: point(paris)},
		{ID: "c", Rating: 4, Location: point(paris)},
	}
	m := newTestMatcher(t, &fakeDirectory{records: records}, &fakeProfiles{})

	first, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{})
	require.NoError(t, err)
	second, err := m.Match(context.Background(), models.ParsedSearchIntent{}, models.MatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "a", first[0].ID)
}

func TestBuildFilter(t *testing.T) {
	in := models.ParsedSearchIntent{Location: &models.SearchLocation{City: "Paris", PostalCode: "75011", Department: "75"}}

	filter := BuildFilter(in, models.MatchOptions{MinRating: 3.5, OnlyVerified: true})

	assert.Equal(t, "Paris", filter.City)
	assert.Equal(t, "75011", filter.PostalCode)
	assert.Equal(t, 3.5, filter.MinRating)
	assert.True(t, filter.OnlyVerified)
	assert.Nil(t, filter.Bounds)
	assert.Equal(t, MaxCandidates, filter.Limit)
}

func BenchmarkMatcher_Match(b *testing.B) {
	var records []models.DirectoryRecord
	for i := 0; i < MaxCandidates; i++ {
		records = append(records, models.DirectoryRecord{
			ID: fmt.Sprintf("r-%d", i), Rating: 4, Location: point(paris),
			Specialties: []string{"Apple", "Samsung"}, Services: []string{"écran", "batterie"},
		})
	}
	m := New(&fakeDirectory{records: records}, &fakeProfiles{}, logger.NewNoOpLogger())
	in := intent.NewParser().Parse("écran iphone 13 cassé à Paris")
	opts := models.MatchOptions{UserLocation: point(paris)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Match(context.Background(), in, opts)
	}
}
