package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"repairer-search/internal/common/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsNestedSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := New("repairer-search-test", WithRegisterer(promclient.NewRegistry()), WithSpanProcessor(recorder))
	defer obs.Shutdown()

	ctx, parent := obs.StartSpan(context.Background(), "search", attribute.String("query", "écran iphone"))
	_, child := obs.StartSpan(ctx, "search.parse")
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "search.parse", spans[0].Name())
	assert.Equal(t, "search", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Contains(t, spans[1].Attributes(), attribute.String("query", "écran iphone"))
}

func TestStartSpan_NoopWithoutTracing(t *testing.T) {
	obs := NewNoop()

	ctx, span := obs.StartSpan(context.Background(), "search")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
}

func TestRecordSearch_ExportsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("repairer-search-test", WithRegisterer(reg))
	defer obs.Shutdown()

	obs.RecordSearch(context.Background(), "search", 12*time.Millisecond, false)
	obs.RecordJobProcessed(context.Background(), "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "searches_processed")
	assert.Contains(t, joined, "jobs_processed")
}

func TestTracingOptions_ExportsSpansToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "traces.jsonl")
	opts, err := TracingOptions(config.TracingConfig{Enabled: true, SampleRatio: 1, Output: out})
	require.NoError(t, err)
	require.NotEmpty(t, opts)

	obs := New("repairer-search-test", append(opts, WithRegisterer(promclient.NewRegistry()))...)
	ctx, parent := obs.StartSpan(context.Background(), "search", attribute.String("operation", "search"))
	_, child := obs.StartSpan(ctx, "search.match")
	child.End()
	parent.End()
	obs.Shutdown()

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Name":"search.match"`)
	assert.Contains(t, string(raw), `"Name":"search"`)
}

func TestTracingOptions(t *testing.T) {
	opts, err := TracingOptions(config.TracingConfig{Enabled: false, Output: "stdout"})
	require.NoError(t, err)
	assert.Empty(t, opts)

	_, err = TracingOptions(config.TracingConfig{Enabled: true, Output: filepath.Join(t.TempDir(), "missing", "traces.jsonl")})
	assert.Error(t, err)
}
