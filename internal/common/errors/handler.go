package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Resolution is how a failed search job is reported back to the broker.
type Resolution struct {
	Err     *StandardError
	BPMN    *BPMNError
	Retries int  // remaining retries handed to FailJob
	Throw   bool // throw a BPMN error instead of failing the job
}

// Resolve decides between a retryable FailJob and a BPMN error for err.
// The job's own retry budget is never raised.
func Resolve(job entities.Job, err error) Resolution {
	stdErr, ok := AsStandardError(err)
	if !ok {
		stdErr = &StandardError{
			Code:      ErrCodeInternalError,
			Message:   "Unexpected error",
			Details:   err.Error(),
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	}

	res := Resolution{Err: stdErr, BPMN: ConvertToBPMNError(stdErr)}
	budget := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable || budget == 0 || job.Retries <= 0 {
		res.Throw = true
		return res
	}

	res.Retries = budget
	if int(job.Retries) < budget {
		res.Retries = int(job.Retries)
	}
	// FailJob takes the remaining count, so one attempt is consumed here.
	res.Retries--
	return res
}

// ErrorHandler reports search job failures to Zeebe.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := Resolve(job, err)
	h.logger.Error("search job failed", map[string]interface{}{
		"jobKey":            job.Key,
		"jobType":           job.Type,
		"processInstanceId": job.ProcessInstanceKey,
		"errorCode":         string(res.Err.Code),
		"bpmnErrorCode":     res.BPMN.Code,
		"category":          GetErrorCategory(res.Err.Code),
		"details":           res.Err.Details,
		"throw":             res.Throw,
		"retriesLeft":       res.Retries,
	})

	vars := h.variables(job, res.BPMN)
	if res.Throw {
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(res.BPMN.Code).
			ErrorMessage(res.BPMN.Message)
		if vars != "" {
			if withVars, varErr := cmd.VariablesFromString(vars); varErr == nil {
				_, sendErr := withVars.Send(ctx)
				h.reportSendError(job, sendErr)
				return
			}
		}
		_, sendErr := cmd.Send(ctx)
		h.reportSendError(job, sendErr)
		return
	}

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(res.Retries)).
		ErrorMessage(res.BPMN.Message)
	if vars != "" {
		if withVars, varErr := cmd.VariablesFromString(vars); varErr == nil {
			_, sendErr := withVars.Send(ctx)
			h.reportSendError(job, sendErr)
			return
		}
	}
	_, sendErr := cmd.Send(ctx)
	h.reportSendError(job, sendErr)
}

func (h *ErrorHandler) variables(job entities.Job, bpmnErr *BPMNError) string {
	vars := bpmnErr.ToErrorVariables()
	if len(vars) == 0 {
		return ""
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		h.logger.Error("error variables not encodable", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return ""
	}
	return string(raw)
}

func (h *ErrorHandler) reportSendError(job entities.Job, err error) {
	if err != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
