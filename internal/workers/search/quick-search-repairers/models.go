// internal/workers/search/quick-search-repairers/models.go
package quicksearchrepairers

import "repairer-search/internal/models"

type Input struct {
	Term    string              `json:"term"`
	City    string              `json:"city,omitempty"`
	Options models.MatchOptions `json:"options"`
}

type Output struct {
	Repairers    []models.MatchedRepairer `json:"repairers"`
	TotalResults int                      `json:"totalResults"`
}
