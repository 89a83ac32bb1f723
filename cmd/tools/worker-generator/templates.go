// cmd/tools/worker-generator/templates.go
package main

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": handlerTestTemplate,
}

const configTemplate = `// internal/workers/search/{{ .Dir }}/config.go
package {{ .PackageName }}

import (
	"time"

	"repairer-search/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = {{ .Timeout.Milliseconds }} * time.Millisecond
	}
	return &Config{Timeout: timeout}
}
`

const modelsTemplate = `// internal/workers/search/{{ .Dir }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .Type }} {{ jsonTag . }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .Type }} {{ jsonTag . }}
{{- end }}
}
`

const handlerTemplate = `// internal/workers/search/{{ .Dir }}/handler.go
package {{ .PackageName }}

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
{{- if .TaskConst }}
	"repairer-search/pkg/registry"
{{- end }}

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

{{ if .TaskConst -}}
const TaskType = registry.{{ .TaskConst }}
{{- else -}}
const TaskType = "{{ .TaskType }}"
{{- end }}

var ErrInvalidInput = errors.New("INVALID_SEARCH_INPUT")

// Handler runs the {{ .Name }} task.{{ if .Description }} {{ .Description }}.{{ end }}
type Handler struct {
	config    *Config
	validator *validation.Validator
	jobs      *camunda.JobResponder
	logger    logger.Logger
}

func NewHandler(config *Config, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
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
		h.jobs.Fail(context.Background(), client, job, apperrors.NewInvalidSearchInputError(err.Error()), start)
		return
	}
	h.jobs.Complete(context.Background(), client, job, output, start)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return &Output{}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`

const handlerTestTemplate = `// internal/workers/search/{{ .Dir }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"repairer-search/internal/common/config"
	"repairer-search/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(config.WorkerConfig{}), nil, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.NotNil(t, output)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	h := createTestHandler(t)

	_, err := h.Execute(context.Background(), nil)

	assert.ErrorIs(t, err, ErrInvalidInput)
}
`
