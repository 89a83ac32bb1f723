// internal/workers/search/parse-search-intent/models.go
package parsesearchintent

import "repairer-search/internal/models"

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Intent       models.ParsedSearchIntent `json:"intent"`
	UsedFallback bool                      `json:"usedFallback"`
}
