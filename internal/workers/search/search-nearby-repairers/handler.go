// internal/workers/search/search-nearby-repairers/handler.go
package searchnearbyrepairers

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

const TaskType = registry.TaskSearchNearby

var (
	ErrInvalidInput   = errors.New("INVALID_SEARCH_INPUT")
	ErrInvalidOptions = errors.New("INVALID_SEARCH_OPTIONS")
)

type NearbySearcher interface {
	SearchNearby(ctx context.Context, lat, lng, radiusKm float64, filters models.NearbyFilters) []models.MatchedRepairer
}

type Handler struct {
	config    *Config
	searcher  NearbySearcher
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, searcher NearbySearcher, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
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
	if input == nil || input.Lat == nil || input.Lng == nil {
		return nil, fmt.Errorf("%w: lat and lng are required", ErrInvalidInput)
	}
	point := models.GeoPoint{Lat: *input.Lat, Lng: *input.Lng}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.RadiusKm < 0 {
		return nil, fmt.Errorf("%w: radiusKm cannot be negative", ErrInvalidOptions)
	}
	if err := input.Filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	radius := input.RadiusKm
	if radius == 0 {
		radius = models.DefaultNearbyRadius
	}
	repairers := h.searcher.SearchNearby(ctx, point.Lat, point.Lng, radius, input.Filters)
	return &Output{Repairers: repairers, TotalResults: len(repairers), RadiusKm: radius}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func toStandardError(err error) error {
	if errors.Is(err, ErrInvalidOptions) {
		return apperrors.NewInvalidSearchOptionsError(err)
	}
	return apperrors.NewInvalidSearchInputError(err.Error())
}
