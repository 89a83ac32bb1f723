// internal/workers/search/search-repairers/models.go
package searchrepairers

import "repairer-search/internal/models"

type Input struct {
	Query   string               `json:"query"`
	Options models.SearchOptions `json:"options"`
}

type Output struct {
	SearchResult *models.AISearchResult `json:"searchResult"`
}
