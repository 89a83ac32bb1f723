package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", 0, nil, 1, false},
		{"recovers after transient failures", 2, errors.New("dial tcp: connection refused"), 3, false},
		{"gives up after max attempts", 10, errors.New("i/o timeout"), 4, true},
		{"fails fast on permanent error", 10, errors.New("password authentication failed"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), fastRetry(4), "postgres connection", logger.NewTestLogger(t), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.err)
				assert.Contains(t, err.Error(), "postgres connection")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}
	err := Retry(ctx, rc, "redis connection", logger.NewNoOpLogger(), func(context.Context) error {
		return errors.New("connection reset by peer")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("rpc error: code = Unavailable")))
	assert.True(t, IsRetryable(errors.New("context deadline exceeded")))
	assert.False(t, IsRetryable(errors.New("permission denied")))
}

func TestInstrument_TracksActiveJobs(t *testing.T) {
	const taskType = "instrument-test"
	called := false

	var seenActive float64
	h := Instrument(taskType, func(_ worker.JobClient, job entities.Job) {
		called = true
		seenActive = testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType))
	})

	h(nil, entities.Job{})

	assert.True(t, called)
	assert.Equal(t, 1.0, seenActive)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
