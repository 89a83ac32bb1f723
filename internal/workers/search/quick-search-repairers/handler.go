// internal/workers/search/quick-search-repairers/handler.go
package quicksearchrepairers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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

const TaskType = registry.TaskQuickSearchRepairers

var (
	ErrInvalidInput   = errors.New("INVALID_SEARCH_INPUT")
	ErrInvalidOptions = errors.New("INVALID_SEARCH_OPTIONS")
)

type QuickSearcher interface {
	QuickSearch(ctx context.Context, term, city string, opts models.MatchOptions) []models.MatchedRepairer
}

type Handler struct {
	config    *Config
	searcher  QuickSearcher
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, searcher QuickSearcher, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		searcher:  searcher,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		if errors.Is(err, ErrInvalidOptions) {
			err = apperrors.NewInvalidSearchOptionsError(err)
		} else {
			err = apperrors.NewInvalidSearchInputError(err.Error())
		}
		h.jobs.Fail(context.Background(), client, job, err, start)
		return
	}
	h.jobs.Complete(context.Background(), client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.Term) == "" {
		return nil, fmt.Errorf("%w: term is required", ErrInvalidInput)
	}
	if err := input.Options.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	repairers := h.searcher.QuickSearch(ctx, input.Term, strings.TrimSpace(input.City), input.Options)
	return &Output{Repairers: repairers, TotalResults: len(repairers)}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
