package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks job variables against the input schema registered for a task type.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the input schema of every activity in reg.
func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema of %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = compiled
	}
	return v, nil
}

// Has reports whether a schema is registered for taskType.
func (v *Validator) Has(taskType string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.schemas[taskType]
	return ok
}

// ValidateJSON validates a raw JSON document. Task types without a schema pass.
func (v *Validator) ValidateJSON(taskType string, document []byte) error {
	v.mu.RLock()
	s, ok := v.schemas[taskType]
	v.mu.RUnlock()
	if !ok {
		return nil
	}

	if !json.Valid(document) {
		return apperrors.NewInvalidSearchInputError("job variables are not valid JSON")
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return apperrors.NewInvalidSearchInputError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	sort.Strings(msgs)
	return apperrors.NewSchemaValidationFailedError(strings.Join(msgs, "; "))
}

// Validate validates a decoded document.
func (v *Validator) Validate(taskType string, document interface{}) error {
	raw, err := json.Marshal(document)
	if err != nil {
		return apperrors.NewInvalidSearchInputError(err.Error())
	}
	return v.ValidateJSON(taskType, raw)
}
