// internal/workers/search/parse-search-intent/handler_test.go
package parsesearchintent

import (
	"context"
	"strings"
	"testing"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/config"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/validation"
	"repairer-search/internal/search/intent"
	"repairer-search/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func createTestHandler(t *testing.T) *Handler {
	v, err := validation.NewValidator(registry.Default())
	require.NoError(t, err)
	return NewHandler(LoadConfig(config.WorkerConfig{}), intent.NewParser(), v, nil, &testLogger{t: t})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantBrand    string
		wantCity     string
		wantFallback bool
	}{
		{"full query", "écran iphone 13 cassé à Paris", "apple", "Paris", false},
		{"postal code only", "réparation batterie 75001", "", "", false},
		{"empty query", "", "", "", true},
		{"noise", "bonjour", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t)

			output, err := h.Execute(context.Background(), &Input{Query: tt.query})

			require.NoError(t, err)
			assert.Equal(t, tt.wantBrand, output.Intent.Brand)
			assert.Equal(t, tt.wantFallback, output.UsedFallback)
			assert.Equal(t, tt.query, output.Intent.OriginalQuery)
			if tt.wantCity != "" {
				require.NotNil(t, output.Intent.Location)
				assert.Equal(t, tt.wantCity, output.Intent.Location.City)
			}
		})
	}
}

// ==========================
// Input Validation Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t)

	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Execute(context.Background(), &Input{Query: strings.Repeat("a", 501)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHandler_Decode(t *testing.T) {
	h := createTestHandler(t)

	input, err := h.decode(`{"query":"batterie samsung","processId":"p-1"}`)
	require.NoError(t, err)
	assert.Equal(t, "batterie samsung", input.Query)

	_, err = h.decode(`{"query":42}`)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSchemaValidationFailed))

	_, err = h.decode(`{}`)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSchemaValidationFailed))
}
