// internal/workers/search/match-repairers/handler.go
package matchrepairers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repairer-search/internal/common/camunda"
	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/observability"
	"repairer-search/internal/common/validation"
	"repairer-search/internal/models"
	"repairer-search/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskMatchRepairers

var (
	ErrInvalidInput   = errors.New("INVALID_SEARCH_INPUT")
	ErrInvalidOptions = errors.New("INVALID_SEARCH_OPTIONS")
)

type Matcher interface {
	Match(ctx context.Context, in models.ParsedSearchIntent, opts models.MatchOptions) ([]models.MatchedRepairer, error)
}

// Handler exposes the matcher directly so a process can run parse and
// match as separate steps. Unlike the orchestrator it does not swallow
// directory failures: the job fails with a retryable DIRECTORY_UNAVAILABLE.
type Handler struct {
	config    *Config
	matcher   Matcher
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, matcher Matcher, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		matcher:   matcher,
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
		h.jobs.Fail(context.Background(), client, job, toStandardError(err), start)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Intent == nil {
		return nil, fmt.Errorf("%w: intent is required", ErrInvalidInput)
	}
	if err := input.Options.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	repairers, err := h.matcher.Match(ctx, *input.Intent, input.Options)
	if err != nil {
		return nil, err
	}
	if repairers == nil {
		repairers = []models.MatchedRepairer{}
	}

	h.logger.Debug("repairers matched", map[string]interface{}{
		"results":    len(repairers),
		"confidence": input.Intent.Confidence,
	})
	return &Output{Repairers: repairers, TotalResults: len(repairers)}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func toStandardError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidOptions):
		return apperrors.NewInvalidSearchOptionsError(err)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidSearchInputError(err.Error())
	}
	return err
}
