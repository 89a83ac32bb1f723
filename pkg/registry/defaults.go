package registry

import "time"

// Task types of the search workers.
const (
	TaskParseSearchIntent    = "parse-search-intent"
	TaskMatchRepairers       = "match-repairers"
	TaskSearchRepairers      = "search-repairers"
	TaskQuickSearchRepairers = "quick-search-repairers"
	TaskSearchNearby         = "search-nearby-repairers"
	TaskGetSearchSuggestions = "get-search-suggestions"
)

type schema = map[string]interface{}

func object(required []string, props schema) schema {
	s := schema{"type": "object", "properties": props}
	if len(required) > 0 {
		req := make([]interface{}, len(required))
		for i, r := range required {
			req[i] = r
		}
		s["required"] = req
	}
	return s
}

func str(maxLength int) schema {
	s := schema{"type": "string"}
	if maxLength > 0 {
		s["maxLength"] = maxLength
	}
	return s
}

func number(min, max float64) schema {
	return schema{"type": "number", "minimum": min, "maximum": max}
}

func geoPointSchema() schema {
	return object([]string{"lat", "lng"}, schema{
		"lat": number(-90, 90),
		"lng": number(-180, 180),
	})
}

func matchOptionsSchema() schema {
	s := object(nil, schema{
		"maxResults":    schema{"type": "integer", "minimum": 0, "maximum": 100},
		"userLocation":  geoPointSchema(),
		"maxDistanceKm": number(0, 1000),
		"minRating":     number(0, 5),
		"onlyVerified":  schema{"type": "boolean"},
		"onlyClaimed":   schema{"type": "boolean"},
		"sessionId":     str(128),
		"userId":        str(128),
	})
	s["additionalProperties"] = false
	return s
}

func repairersOutputSchema() schema {
	return object([]string{"repairers", "totalResults"}, schema{
		"repairers":    schema{"type": "array"},
		"totalResults": schema{"type": "integer"},
		"degraded":     schema{"type": "boolean"},
	})
}

// Default returns the built-in catalogue of search activities.
func Default() *ActivityRegistry {
	timeout := (10 * time.Second).String()
	inputErrors := []string{"INVALID_SEARCH_INPUT", "INVALID_SEARCH_OPTIONS", "SCHEMA_VALIDATION_FAILED"}

	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Activities: []Activity{
			{
				ID:                   TaskParseSearchIntent,
				DisplayName:          "Parse Search Intent",
				Description:          "Turns a free-text repair query into a structured search intent",
				Category:             "search",
				Version:              "1.0.0",
				TaskType:             TaskParseSearchIntent,
				ImplementationStatus: "completed",
				InputSchema:          object([]string{"query"}, schema{"query": str(500)}),
				OutputSchema:         object([]string{"intent"}, schema{"intent": schema{"type": "object"}}),
				ErrorCodes:           []string{"INVALID_SEARCH_INPUT", "SCHEMA_VALIDATION_FAILED"},
				Timeout:              timeout,
				Workflows:            []string{"repairer-search"},
				Tags:                 []string{"search", "intent"},
			},
			{
				ID:                   TaskMatchRepairers,
				DisplayName:          "Match Repairers",
				Description:          "Ranks directory repairers against a parsed intent",
				Category:             "search",
				Version:              "1.0.0",
				TaskType:             TaskMatchRepairers,
				ImplementationStatus: "completed",
				InputSchema: object([]string{"intent"}, schema{
					"intent":  schema{"type": "object"},
					"options": matchOptionsSchema(),
				}),
				OutputSchema: repairersOutputSchema(),
				ErrorCodes:   append(inputErrors, "DIRECTORY_UNAVAILABLE"),
				Timeout:      timeout,
				Retries:      3,
				Workflows:    []string{"repairer-search"},
				Tags:         []string{"search", "ranking"},
			},
			{
				ID:                   TaskSearchRepairers,
				DisplayName:          "Search Repairers",
				Description:          "Parses a query, ranks repairers and builds suggestions",
				Category:             "search",
				Version:              "1.0.0",
				TaskType:             TaskSearchRepairers,
				ImplementationStatus: "completed",
				InputSchema: object([]string{"query"}, schema{
					"query":   str(500),
					"options": matchOptionsSchema(),
				}),
				OutputSchema: object([]string{"searchResult"}, schema{"searchResult": schema{"type": "object"}}),
				ErrorCodes:   inputErrors,
				Timeout:      timeout,
				Workflows:    []string{"repairer-search"},
				Tags:         []string{"search"},
			},
			{
				ID:                   TaskQuickSearchRepairers,
				DisplayName:          "Quick Search Repairers",
				Description:          "Ranks repairers from raw keywords and an optional city",
				Category:             "search",
				Version:              "1.0.0",
				TaskType:             TaskQuickSearchRepairers,
				ImplementationStatus: "completed",
				InputSchema: object([]string{"term"}, schema{
					"term":    str(200),
					"city":    str(100),
					"options": matchOptionsSchema(),
				}),
				OutputSchema: repairersOutputSchema(),
				ErrorCodes:   inputErrors,
				Timeout:      timeout,
				Workflows:    []string{"repairer-search"},
				Tags:         []string{"search"},
			},
			{
				ID:                   TaskSearchNearby,
				DisplayName:          "Search Nearby Repairers",
				Description:          "Ranks repairers around a coordinate",
				Category:             "search",
				Version:              "1.0.0",
				TaskType:             TaskSearchNearby,
				ImplementationStatus: "completed",
				InputSchema: object([]string{"lat", "lng"}, schema{
					"lat":      number(-90, 90),
					"lng":      number(-180, 180),
					"radiusKm": number(0, 1000),
					"filters": object(nil, schema{
						"brand":      str(50),
						"repairType": str(50),
						"minRating":  number(0, 5),
					}),
				}),
				OutputSchema: repairersOutputSchema(),
				ErrorCodes:   inputErrors,
				Timeout:      timeout,
				Workflows:    []string{"repairer-search"},
				Tags:         []string{"search", "geo"},
			},
			{
				ID:                   TaskGetSearchSuggestions,
				DisplayName:          "Get Search Suggestions",
				Description:          "Autocompletes a partial query from the search dictionaries",
				Category:             "search",
				Version:              "1.0.0",
				TaskType:             TaskGetSearchSuggestions,
				ImplementationStatus: "completed",
				InputSchema:          object([]string{"partialQuery"}, schema{"partialQuery": str(200)}),
				OutputSchema: object([]string{"suggestions"}, schema{
					"suggestions": schema{"type": "array", "items": schema{"type": "string"}, "maxItems": 5},
				}),
				ErrorCodes: []string{"INVALID_SEARCH_INPUT", "SCHEMA_VALIDATION_FAILED"},
				Timeout:    timeout,
				Workflows:  []string{"repairer-search"},
				Tags:       []string{"search", "autocomplete"},
			},
		},
	}
}
