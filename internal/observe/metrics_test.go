package observe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	require.NotNil(t, m)
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"astral.segment.generation.duration", m.SegmentGenerationDuration},
		{"astral.pipeline.flush.duration", m.PipelineFlushDuration},
		{"astral.llm.duration", m.LLMDuration},
		{"astral.tool_execution.duration", m.ToolExecutionDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			require.NotNil(t, met, "metric %q not found", tc.name)
			hist, ok := met.Data.(metricdata.Histogram[float64])
			require.True(t, ok, "metric %q is not a histogram", tc.name)
			require.NotEmpty(t, hist.DataPoints)
			assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
		})
	}
}

func TestCounterIncrement(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	attrs := metric.WithAttributes(
		attribute.String("provider", "anthropic"),
		attribute.String("kind", "llm"),
		attribute.String("status", "ok"),
	)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", "anthropic"),
		attribute.String("kind", "llm"),
		attribute.String("status", "error"),
	))

	rm := collect(t, reader)
	met := findMetric(rm, "astral.provider.requests")
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	found := false
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "status" && kv.Value.AsString() == "ok" {
				assert.Equal(t, int64(2), dp.Value)
				found = true
			}
		}
	}
	assert.True(t, found, "data point with status=ok not found")
}

func TestToolCallsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolCall(ctx, "search_world", "ok")
	m.RecordToolCall(ctx, "search_world", "error")

	rm := collect(t, reader)
	met := findMetric(rm, "astral.tool.calls")
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	found := false
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "status" && kv.Value.AsString() == "ok" {
				assert.Equal(t, int64(1), dp.Value)
				found = true
			}
		}
	}
	assert.True(t, found, "data point with status=ok not found")
}

func TestGeneratorFailuresCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordGeneratorFailure(ctx, "ambient", "provider timeout")
	m.RecordGeneratorFailure(ctx, "ambient", "provider timeout")
	m.RecordGeneratorFailure(ctx, "voice", "synthesize error")

	rm := collect(t, reader)
	met := findMetric(rm, "astral.generator.failures")
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	found := false
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "kind" && kv.Value.AsString() == "ambient" {
				assert.Equal(t, int64(2), dp.Value)
				found = true
			}
		}
	}
	assert.True(t, found, "data point with kind=ambient not found")
}

func TestAudioCacheLookupCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAudioCacheLookup(ctx, "ambient", true)
	m.RecordAudioCacheLookup(ctx, "ambient", true)
	m.RecordAudioCacheLookup(ctx, "sfx", false)

	rm := collect(t, reader)

	hits := findMetric(rm, "astral.audio_cache.hits")
	require.NotNil(t, hits)
	hitSum, ok := hits.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, hitSum.DataPoints, 1)
	assert.Equal(t, int64(2), hitSum.DataPoints[0].Value)

	misses := findMetric(rm, "astral.audio_cache.misses")
	require.NotNil(t, misses)
	missSum, ok := misses.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, missSum.DataPoints, 1)
	assert.Equal(t, int64(1), missSum.DataPoints[0].Value)
}

func TestOpeningCacheLookupCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOpeningCacheLookup(ctx, true)
	m.RecordOpeningCacheLookup(ctx, false)
	m.RecordOpeningCacheLookup(ctx, false)

	rm := collect(t, reader)

	hits := findMetric(rm, "astral.opening_cache.hits")
	require.NotNil(t, hits)
	hitSum, ok := hits.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, hitSum.DataPoints, 1)
	assert.Equal(t, int64(1), hitSum.DataPoints[0].Value)

	misses := findMetric(rm, "astral.opening_cache.misses")
	require.NotNil(t, misses)
	missSum, ok := misses.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, missSum.DataPoints, 1)
	assert.Equal(t, int64(2), missSum.DataPoints[0].Value)
}

func TestPipelineCancellationsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.PipelineCancellations.Add(ctx, 1)

	rm := collect(t, reader)
	met := findMetric(rm, "astral.pipeline.cancellations")
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.NotEmpty(t, sum.DataPoints)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestProviderErrorsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderError(ctx, "elevenlabs", "tts")

	rm := collect(t, reader)
	met := findMetric(rm, "astral.provider.errors")
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.NotEmpty(t, sum.DataPoints)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestGauges(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	// UpDownCounters are additive, so we simulate Set(2) as Add(2).
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveParticipants.Add(ctx, 3)

	rm := collect(t, reader)

	gauges := []struct {
		name string
		want int64
	}{
		{"astral.active_sessions", 2},
		{"astral.active_participants", 3},
	}

	for _, tc := range gauges {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			require.NotNil(t, met, "metric %q not found", tc.name)
			sum, ok := met.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %q is not a sum", tc.name)
			require.NotEmpty(t, sum.DataPoints)
			assert.Equal(t, tc.want, sum.DataPoints[0].Value)
		})
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("path", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "astral.http.request.duration")
	require.NotNil(t, met)
	hist, ok := met.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.NotEmpty(t, hist.DataPoints)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	assert.Same(t, a, b)
}
