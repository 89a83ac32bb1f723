package camunda

import (
	"context"
	"time"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/metrics"
	"repairer-search/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobResponder completes or fails the jobs of one task type and records the outcome.
type JobResponder struct {
	taskType string
	errors   *apperrors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

func NewJobResponder(taskType string, obs *observability.Observability, log logger.Logger) *JobResponder {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &JobResponder{
		taskType: taskType,
		errors:   apperrors.NewErrorHandler(log),
		obs:      obs,
		logger:   log,
	}
}

func (r *JobResponder) Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		r.Fail(ctx, client, job, apperrors.NewInvalidSearchInputError(err.Error()), start)
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.obs.RecordJobProcessed(ctx, "completed")
	r.obs.RecordJobDuration(ctx, time.Since(start), "completed")
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

// Fail retries the job for retryable codes and throws a BPMN error otherwise.
func (r *JobResponder) Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(apperrors.ErrCodeInternalError)
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, code).Inc()
	r.obs.RecordJobProcessed(ctx, "failed")
	r.obs.RecordJobDuration(ctx, time.Since(start), "failed")

	r.errors.HandleJobError(ctx, client, job, err)
}
