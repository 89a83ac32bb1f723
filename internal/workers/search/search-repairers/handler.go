// internal/workers/search/search-repairers/handler.go
package searchrepairers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

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

const (
	TaskType      = registry.TaskSearchRepairers
	maxQueryRunes = 500
)

var (
	ErrInvalidInput   = errors.New("INVALID_SEARCH_INPUT")
	ErrInvalidOptions = errors.New("INVALID_SEARCH_OPTIONS")
)

type Searcher interface {
	Search(ctx context.Context, query string, opts models.SearchOptions) *models.AISearchResult
}

type Handler struct {
	config    *Config
	searcher  Searcher
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, searcher Searcher, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
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

	input, err := h.decode(job.Variables)
	if err != nil {
		h.jobs.Fail(context.Background(), client, job, err, start)
		return
	}
	// Searches started by a process are grouped by instance in the query log.
	if input.Options.SessionID == "" {
		input.Options.SessionID = strconv.FormatInt(job.ProcessInstanceKey, 10)
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
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	result := h.searcher.Search(ctx, input.Query, input.Options)

	h.logger.Debug("search finished", map[string]interface{}{
		"results":      result.TotalResults,
		"usedFallback": result.UsedFallback,
		"degraded":     result.Degraded,
	})
	return &Output{SearchResult: result}, nil
}

func (h *Handler) validateInput(input *Input) error {
	if input == nil {
		return fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(input.Query) > maxQueryRunes {
		return fmt.Errorf("%w: query exceeds %d characters", ErrInvalidInput, maxQueryRunes)
	}
	if err := input.Options.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
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
