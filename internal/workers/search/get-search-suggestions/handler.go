// internal/workers/search/get-search-suggestions/handler.go
package getsearchsuggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"repairer-search/internal/common/camunda"
	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/observability"
	"repairer-search/internal/common/validation"
	"repairer-search/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskGetSearchSuggestions

type Suggester interface {
	GetSuggestions(partialQuery string) []string
}

type Handler struct {
	config    *Config
	suggester Suggester
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, suggester Suggester, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		suggester: suggester,
		validator: validator,
		jobs:      camunda.NewJobResponder(TaskType, obs, scoped),
		logger:    scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Debug("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if h.validator != nil {
		if err := h.validator.ValidateJSON(TaskType, []byte(job.Variables)); err != nil {
			h.jobs.Fail(context.Background(), client, job, err, start)
			return
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.jobs.Fail(context.Background(), client, job, apperrors.NewInvalidSearchInputError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	h.jobs.Complete(context.Background(), client, job, h.Execute(&input), start)
}

// Execute never fails; short or unknown prefixes yield an empty list.
func (h *Handler) Execute(input *Input) *Output {
	suggestions := h.suggester.GetSuggestions(input.PartialQuery)
	if suggestions == nil {
		suggestions = []string{}
	}
	return &Output{Suggestions: suggestions}
}
