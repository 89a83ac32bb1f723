// internal/workers/search/get-search-suggestions/models.go
package getsearchsuggestions

type Input struct {
	PartialQuery string `json:"partialQuery"`
}

type Output struct {
	Suggestions []string `json:"suggestions"`
}
