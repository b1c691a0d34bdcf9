package llmprovider

import "context"

// Provider is the abstraction over any LLM backend the orchestrator drives.
//
// Implementations must be safe for concurrent use and must propagate
// context cancellation promptly: when ctx is cancelled, StreamCompletion
// must close its channel (or return) as quickly as possible — this is what
// lets the session controller tear down a turn mid-generation.
type Provider interface {
	// StreamCompletion sends req to the model and returns a channel that
	// emits Chunk values as they arrive. The channel is closed when
	// generation finishes or ctx is cancelled. The initial error return is
	// non-nil only for failures that prevent the stream from starting.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Complete sends req and waits for the full response. A convenience
	// wrapper around StreamCompletion for callers that don't need
	// incremental output (used by tool handlers that themselves call back
	// into the model, e.g. a summarization pass).
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates the token cost of messages, for the
	// orchestrator's conversation-history budget tracking. Need not be
	// exact but should not undercount.
	CountTokens(messages []Message) (int, error)

	// Capabilities returns static metadata about the underlying model.
	Capabilities() ModelCapabilities
}
