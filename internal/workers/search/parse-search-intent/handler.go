// internal/workers/search/parse-search-intent/handler.go
package parsesearchintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"repairer-search/internal/common/camunda"
	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/observability"
	"repairer-search/internal/common/validation"
	"repairer-search/internal/models"
	"repairer-search/internal/search/orchestrator"
	"repairer-search/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType      = registry.TaskParseSearchIntent
	maxQueryRunes = 500
)

var ErrInvalidInput = errors.New("INVALID_SEARCH_INPUT")

type Parser interface {
	Parse(query string) models.ParsedSearchIntent
}

type Handler struct {
	config    *Config
	parser    Parser
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, parser Parser, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		parser:    parser,
		validator: validator,
		jobs:      camunda.NewJobResponder(TaskType, obs, scoped),
		logger:    scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.decode(job.Variables)
	if err != nil {
		h.jobs.Fail(context.Background(), client, job, err, start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.jobs.Fail(context.Background(), client, job, apperrors.NewInvalidSearchInputError(err.Error()), start)
		return
	}
	h.jobs.Complete(context.Background(), client, job, output, start)
}

func (h *Handler) decode(variables string) (*Input, error) {
	if h.validator != nil {
		if err := h.validator.ValidateJSON(TaskType, []byte(variables)); err != nil {
			return nil, err
		}
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidSearchInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if utf8.RuneCountInString(input.Query) > maxQueryRunes {
		return nil, fmt.Errorf("%w: query exceeds %d characters", ErrInvalidInput, maxQueryRunes)
	}

	intent := h.parser.Parse(input.Query)
	return &Output{
		Intent:       intent,
		UsedFallback: intent.Confidence < orchestrator.FallbackConfidence,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
