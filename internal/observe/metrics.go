// Package observe provides application-wide observability primitives for
// astral: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all astral metrics.
const meterName = "github.com/astral-gm/astral"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// SegmentGenerationDuration tracks how long a single segment (narration,
	// NPC line, ambient bed, SFX) takes to render into an audio artifact.
	// Use with attribute.String("kind", ...).
	SegmentGenerationDuration metric.Float64Histogram

	// PipelineFlushDuration tracks how long a full turn's pipeline takes to
	// drain after Flush is called — from end-of-stream to the last delivered
	// artifact.
	PipelineFlushDuration metric.Float64Histogram

	// LLMDuration tracks LLM inference latency (one orchestrator turn).
	LLMDuration metric.Float64Histogram

	// ToolExecutionDuration tracks campaign-toolset call latency
	// (search_world, update_player_hp, update_npc_attitude, update_plot_status).
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ToolCalls counts campaign-toolset invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// GeneratorFailures counts segment-generation failures by kind and reason.
	// Use with attributes:
	//   attribute.String("kind", ...), attribute.String("reason", ...)
	GeneratorFailures metric.Int64Counter

	// AudioCacheHits counts ambient/SFX cache lookups that were satisfied
	// from disk without calling the TTS provider. Use with
	//   attribute.String("kind", "ambient"|"sfx")
	AudioCacheHits metric.Int64Counter

	// AudioCacheMisses counts ambient/SFX cache lookups that required a
	// fresh provider call. Same attributes as AudioCacheHits.
	AudioCacheMisses metric.Int64Counter

	// OpeningCacheHits counts opening-turn replays served from the opening
	// cache instead of a fresh LLM generation.
	OpeningCacheHits metric.Int64Counter

	// OpeningCacheMisses counts opening turns that required fresh generation.
	OpeningCacheMisses metric.Int64Counter

	// PipelineCancellations counts pipelines torn down via Cancel rather than
	// drained via Flush (client disconnect, barge-in, turn superseded).
	PipelineCancellations metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live game sessions.
	ActiveSessions metric.Int64UpDownCounter

	// ActiveParticipants tracks the number of connected participants across
	// all sessions.
	ActiveParticipants metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for generation and tool-call latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SegmentGenerationDuration, err = m.Float64Histogram("astral.segment.generation.duration",
		metric.WithDescription("Latency of rendering one segment into an audio artifact."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineFlushDuration, err = m.Float64Histogram("astral.pipeline.flush.duration",
		metric.WithDescription("Latency of draining a turn's pipeline after Flush."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("astral.llm.duration",
		metric.WithDescription("Latency of LLM inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("astral.tool_execution.duration",
		metric.WithDescription("Latency of campaign toolset calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("astral.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("astral.tool.calls",
		metric.WithDescription("Total campaign toolset invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.GeneratorFailures, err = m.Int64Counter("astral.generator.failures",
		metric.WithDescription("Total segment-generation failures by kind and reason."),
	); err != nil {
		return nil, err
	}
	if met.AudioCacheHits, err = m.Int64Counter("astral.audio_cache.hits",
		metric.WithDescription("Total ambient/SFX cache lookups satisfied without a provider call."),
	); err != nil {
		return nil, err
	}
	if met.AudioCacheMisses, err = m.Int64Counter("astral.audio_cache.misses",
		metric.WithDescription("Total ambient/SFX cache lookups that required a fresh provider call."),
	); err != nil {
		return nil, err
	}
	if met.OpeningCacheHits, err = m.Int64Counter("astral.opening_cache.hits",
		metric.WithDescription("Total opening turns replayed from the opening cache."),
	); err != nil {
		return nil, err
	}
	if met.OpeningCacheMisses, err = m.Int64Counter("astral.opening_cache.misses",
		metric.WithDescription("Total opening turns that required fresh generation."),
	); err != nil {
		return nil, err
	}
	if met.PipelineCancellations, err = m.Int64Counter("astral.pipeline.cancellations",
		metric.WithDescription("Total pipelines torn down via Cancel rather than Flush."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("astral.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("astral.active_sessions",
		metric.WithDescription("Number of live game sessions."),
	); err != nil {
		return nil, err
	}
	if met.ActiveParticipants, err = m.Int64UpDownCounter("astral.active_participants",
		metric.WithDescription("Number of connected participants across all sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("astral.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordGeneratorFailure is a convenience method that records a segment
// generation failure counter increment.
func (m *Metrics) RecordGeneratorFailure(ctx context.Context, kind, reason string) {
	m.GeneratorFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("reason", reason),
		),
	)
}

// RecordAudioCacheLookup records an ambient/SFX cache lookup as a hit or
// miss for the given kind ("ambient" or "sfx").
func (m *Metrics) RecordAudioCacheLookup(ctx context.Context, kind string, hit bool) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if hit {
		m.AudioCacheHits.Add(ctx, 1, attrs)
		return
	}
	m.AudioCacheMisses.Add(ctx, 1, attrs)
}

// RecordOpeningCacheLookup records an opening-turn cache lookup as a hit or
// miss.
func (m *Metrics) RecordOpeningCacheLookup(ctx context.Context, hit bool) {
	if hit {
		m.OpeningCacheHits.Add(ctx, 1)
		return
	}
	m.OpeningCacheMisses.Add(ctx, 1)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
