package resilience

import (
	"context"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// LLMFallback implements [llmprovider.Provider] with automatic failover
// across multiple LLM backends. Each backend has its own circuit breaker;
// when the primary fails or its breaker is open, the next healthy fallback
// is tried.
type LLMFallback struct {
	group *FallbackGroup[llmprovider.Provider]
}

// Compile-time interface assertion.
var _ llmprovider.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llmprovider.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional LLM provider as a fallback.
func (f *LLMFallback) AddFallback(name string, provider llmprovider.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends the request to the first healthy provider and returns its
// response. If the primary fails, subsequent fallbacks are tried.
func (f *LLMFallback) Complete(ctx context.Context, req llmprovider.CompletionRequest) (*llmprovider.CompletionResponse, error) {
	return ExecuteWithResult(f.group, func(p llmprovider.Provider) (*llmprovider.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// StreamCompletion sends the request to the first healthy provider and
// returns a streaming chunk channel. Note: only the initial connection
// attempt is covered by failover; once a stream is established, mid-stream
// errors are the caller's responsibility.
func (f *LLMFallback) StreamCompletion(ctx context.Context, req llmprovider.CompletionRequest) (<-chan llmprovider.Chunk, error) {
	return ExecuteWithResult(f.group, func(p llmprovider.Provider) (<-chan llmprovider.Chunk, error) {
		return p.StreamCompletion(ctx, req)
	})
}

// CountTokens delegates to the first healthy provider's token counter.
func (f *LLMFallback) CountTokens(messages []llmprovider.Message) (int, error) {
	return ExecuteWithResult(f.group, func(p llmprovider.Provider) (int, error) {
		return p.CountTokens(messages)
	})
}

// Capabilities returns the capabilities of the first entry (the primary).
// This does not participate in failover because capabilities are static
// metadata.
func (f *LLMFallback) Capabilities() llmprovider.ModelCapabilities {
	if len(f.group.entries) > 0 {
		return f.group.entries[0].value.Capabilities()
	}
	return llmprovider.ModelCapabilities{}
}
