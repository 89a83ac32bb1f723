// internal/workers/search/search-nearby-repairers/models.go
package searchnearbyrepairers

import "repairer-search/internal/models"

type Input struct {
	Lat      *float64             `json:"lat"`
	Lng      *float64             `json:"lng"`
	RadiusKm float64              `json:"radiusKm,omitempty"`
	Filters  models.NearbyFilters `json:"filters"`
}

type Output struct {
	Repairers    []models.MatchedRepairer `json:"repairers"`
	TotalResults int                      `json:"totalResults"`
	RadiusKm     float64                  `json:"radiusKm"`
}
