// internal/workers/search/match-repairers/models.go
package matchrepairers

import "repairer-search/internal/models"

type Input struct {
	Intent  *models.ParsedSearchIntent `json:"intent"`
	Options models.MatchOptions        `json:"options"`
}

type Output struct {
	Repairers    []models.MatchedRepairer `json:"repairers"`
	TotalResults int                      `json:"totalResults"`
}
