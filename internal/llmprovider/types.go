// Package llmprovider defines the Provider interface for the model backend
// the orchestrator drives: a streaming, tool-use-capable chat completion
// API, uniform across the Anthropic and any-llm-go-routed backends and the
// in-memory mock.
package llmprovider

// Message is a single turn in the conversation history sent to the model.
type Message struct {
	// Role is one of "system", "user", "assistant", or "tool".
	Role string

	// Content is the text content of the message. Empty for an assistant
	// message that consists solely of tool calls.
	Content string

	// ToolCalls contains any tool invocations requested by the assistant.
	// Only meaningful when Role is "assistant".
	ToolCalls []ToolCall

	// ToolCallID is set when Role is "tool", identifying which tool call
	// this message is the result of.
	ToolCallID string
}

// ToolCall represents a tool/function invocation requested by the model.
type ToolCall struct {
	ID        string // provider-assigned unique identifier
	Name      string
	Arguments string // JSON-encoded arguments
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// ModelCapabilities describes what a model supports.
type ModelCapabilities struct {
	ContextWindow       int
	MaxOutputTokens     int
	SupportsToolCalling bool
}

// Usage holds token accounting for a single request/response pair.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a
// response. Messages must be non-empty.
type CompletionRequest struct {
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Chunk is a single fragment emitted by a streaming completion. A chunk may
// carry text, a finish signal, tool calls, or any combination.
type Chunk struct {
	// Text is the incremental raw text of this chunk, exactly as the model
	// emitted it — including any inline markers. The orchestrator is
	// responsible for holding back an incomplete trailing marker before
	// forwarding text to a display-only consumer; it forwards the raw text
	// unconditionally to the audio pipeline.
	Text string

	// FinishReason is set on the final chunk: "stop", "max_tokens",
	// "tool_use", or empty for a non-final chunk.
	FinishReason string

	// ToolCalls contains any tool invocations requested in this turn's
	// assistant message. Populated on the final chunk (the one with
	// FinishReason set).
	ToolCalls []ToolCall
}

// CompletionResponse is the full result of a non-streaming Complete call.
type CompletionResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}
