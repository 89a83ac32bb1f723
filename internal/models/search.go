// internal/models/search.go
package models

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxResults    = 20
	DefaultMaxDistanceKm = 50.0
	DefaultNearbyRadius  = 10.0
)

var validate = validator.New()

// SearchLocation is the place extracted from a query.
// Department is always the first two digits of PostalCode.
type SearchLocation struct {
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Department string `json:"department,omitempty"`
}

// SearchCriteria holds the six preference flags detected in a query.
type SearchCriteria struct {
	Urgent    bool `json:"urgent"`
	Cheapest  bool `json:"cheapest"`
	BestRated bool `json:"bestRated"`
	Nearest   bool `json:"nearest"`
	Certified bool `json:"certified"`
	OpenNow   bool `json:"openNow"`
}

// Any reports whether at least one criterion is set.
func (c SearchCriteria) Any() bool {
	return c.Urgent || c.Cheapest || c.BestRated || c.Nearest || c.Certified || c.OpenNow
}

// ParsedSearchIntent is the structured reading of a free-text query.
type ParsedSearchIntent struct {
	DeviceType    string          `json:"deviceType,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	Model         string          `json:"model,omitempty"`
	RepairType    string          `json:"repairType,omitempty"`
	Symptom       string          `json:"symptom,omitempty"`
	Location      *SearchLocation `json:"location,omitempty"`
	Criteria      SearchCriteria  `json:"criteria"`
	Confidence    float64         `json:"confidence"`
	Keywords      []string        `json:"keywords"`
	OriginalQuery string          `json:"originalQuery"`
}

// MatchOptions tunes a Matcher call. Zero values fall back to defaults.
type MatchOptions struct {
	MaxResults    int       `json:"maxResults,omitempty" validate:"gte=0,lte=100"`
	UserLocation  *GeoPoint `json:"userLocation,omitempty"`
	MaxDistanceKm float64   `json:"maxDistanceKm,omitempty" validate:"gte=0,lte=1000"`
	MinRating     float64   `json:"minRating,omitempty" validate:"gte=0,lte=5"`
	OnlyVerified  bool      `json:"onlyVerified,omitempty"`
	OnlyClaimed   bool      `json:"onlyClaimed,omitempty"`
}

// Validate checks option ranges, including the nested user location.
func (o MatchOptions) Validate() error {
	return validate.Struct(o)
}

// Validate checks the rating bound.
func (f NearbyFilters) Validate() error {
	return validate.Struct(f)
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o MatchOptions) WithDefaults() MatchOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MaxDistanceKm <= 0 || math.IsNaN(o.MaxDistanceKm) {
		o.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if o.MinRating < 0 || math.IsNaN(o.MinRating) {
		o.MinRating = 0
	}
	return o
}

// SearchOptions extends MatchOptions with the caller identity used for query logging.
type SearchOptions struct {
	MatchOptions
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// NearbyFilters narrows a proximity search.
type NearbyFilters struct {
	Brand      string  `json:"brand,omitempty"`
	RepairType string  `json:"repairType,omitempty"`
	MinRating  float64 `json:"minRating,omitempty" validate:"gte=0,lte=5"`
}

// AISearchResult is the envelope returned by a full search.
type AISearchResult struct {
	Repairers    []MatchedRepairer  `json:"repairers"`
	Intent       ParsedSearchIntent `json:"intent"`
	TotalResults int                `json:"totalResults"`
	SearchTime   int64              `json:"searchTime"`
	UsedFallback bool               `json:"usedFallback"`
	Degraded     bool               `json:"degraded"`
	Suggestions  []string           `json:"suggestions,omitempty"`
	DidYouMean   string             `json:"didYouMean,omitempty"`
}

// QueryLogEntry is written once per full search, best effort.
type QueryLogEntry struct {
	ID           string             `json:"id"`
	RawQuery     string             `json:"rawQuery"`
	ParsedIntent ParsedSearchIntent `json:"parsedIntent"`
	MatchedIDs   []string           `json:"matchedIds"`
	ResultsCount int                `json:"resultsCount"`
	UsedFallback bool               `json:"usedFallback"`
	SessionID    string             `json:"sessionId,omitempty"`
	UserID       string             `json:"userId,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}
