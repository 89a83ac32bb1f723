package registry

import (
	"fmt"
	"sort"
	"time"
)

// DefaultTimeout applies to activities that declare no timeout.
const DefaultTimeout = 10 * time.Second

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one search task type: its Zeebe task type, the JSON
// schemas of its job variables and the error codes it may raise.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description,omitempty"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema,omitempty"`
	OutputSchema         map[string]interface{} `json:"outputSchema,omitempty"`
	ErrorCodes           []string               `json:"errorCodes,omitempty"`
	Timeout              string                 `json:"timeout,omitempty"`
	Retries              int                    `json:"retries,omitempty"`
	Workflows            []string               `json:"workflows,omitempty"`
	Tags                 []string               `json:"tags,omitempty"`
}

// Implementation statuses accepted by Validate.
var Statuses = []string{"planned", "in-progress", "completed", "verified"}

// TimeoutDuration parses Timeout, falling back to DefaultTimeout when unset.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s: invalid timeout %q: %w", a.ID, a.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("activity %s: timeout must be positive", a.ID)
	}
	return d, nil
}

// RequiredInputs lists the required top-level input properties, sorted.
func (a Activity) RequiredInputs() []string {
	raw, ok := a.InputSchema["required"]
	if !ok {
		return nil
	}

	var names []string
	switch req := raw.(type) {
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
	case []string:
		names = append(names, req...)
	}
	sort.Strings(names)
	return names
}
