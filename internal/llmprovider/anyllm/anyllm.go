// Package anyllm implements llmprovider.Provider on top of any-llm-go, a
// unified client over many hosted and local chat-completion backends
// (OpenAI-, Anthropic-, and Ollama-compatible APIs, among others). It exists
// so a campaign can be run against a self-hosted or alternate-vendor model
// without touching the orchestrator.
package anyllm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mozilla-ai/any-llm-go"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// Provider implements llmprovider.Provider via an any-llm-go client bound to
// a single provider/model pair (e.g. "ollama/llama3.1" or "mistral/mistral-large").
type Provider struct {
	client      *anyllm.Client
	providerID  string
	model       string
	contextSize int
}

var _ llmprovider.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithContextWindow overrides the reported context window, since any-llm-go
// does not expose per-model limits uniformly across backends.
func WithContextWindow(tokens int) Option {
	return func(p *Provider) { p.contextSize = tokens }
}

// New creates a Provider routed through any-llm-go to providerID (its
// backend identifier, e.g. "anthropic", "ollama", "mistral") using model.
func New(providerID, model, apiKey string, opts ...Option) (*Provider, error) {
	if providerID == "" || model == "" {
		return nil, fmt.Errorf("anyllm: providerID and model must both be set")
	}
	client, err := anyllm.NewClient(anyllm.ClientConfig{
		Provider: providerID,
		APIKey:   apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("anyllm: new client: %w", err)
	}
	p := &Provider{
		client:      client,
		providerID:  providerID,
		model:       model,
		contextSize: 32_000,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StreamCompletion streams a completion through any-llm-go, translating its
// delta events into llmprovider.Chunk values.
func (p *Provider) StreamCompletion(ctx context.Context, req llmprovider.CompletionRequest) (<-chan llmprovider.Chunk, error) {
	stream, err := p.client.StreamCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("anyllm: stream completion: %w", err)
	}

	out := make(chan llmprovider.Chunk, 16)
	go func() {
		defer close(out)
		var toolCalls []llmprovider.ToolCall
		for stream.Next() {
			delta := stream.Current()
			chunk := llmprovider.Chunk{Text: delta.Delta.Content}
			for _, tc := range delta.Delta.ToolCalls {
				toolCalls = append(toolCalls, llmprovider.ToolCall{
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}
			if delta.FinishReason != "" {
				chunk.FinishReason = mapFinishReason(delta.FinishReason)
				chunk.ToolCalls = toolCalls
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Complete drains StreamCompletion into a single response.
func (p *Provider) Complete(ctx context.Context, req llmprovider.CompletionRequest) (*llmprovider.CompletionResponse, error) {
	chunks, err := p.StreamCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := &llmprovider.CompletionResponse{}
	for c := range chunks {
		resp.Content += c.Text
		resp.ToolCalls = append(resp.ToolCalls, c.ToolCalls...)
	}
	return resp, nil
}

// CountTokens approximates token cost; any-llm-go does not expose a
// provider-agnostic tokenizer.
func (p *Provider) CountTokens(messages []llmprovider.Message) (int, error) {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars / 4, nil
}

// Capabilities reports the configured context window for the bound model.
func (p *Provider) Capabilities() llmprovider.ModelCapabilities {
	return llmprovider.ModelCapabilities{
		ContextWindow:       p.contextSize,
		MaxOutputTokens:     4096,
		SupportsToolCalling: true,
	}
}

func (p *Provider) buildRequest(req llmprovider.CompletionRequest) anyllm.CompletionRequest {
	messages := make([]anyllm.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, anyllm.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		am := anyllm.Message{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			am.ToolCalls = append(am.ToolCalls, anyllm.ToolCall{
				ID: tc.ID,
				Function: anyllm.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		messages = append(messages, am)
	}

	tools := make([]anyllm.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		params, _ := json.Marshal(t.Parameters)
		tools = append(tools, anyllm.Tool{
			Type: "function",
			Function: anyllm.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	return anyllm.CompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

func mapFinishReason(reason string) string {
	switch reason {
	case "tool_calls":
		return "tool_use"
	case "length":
		return "max_tokens"
	default:
		return "stop"
	}
}
