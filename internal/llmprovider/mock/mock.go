// Package mock provides a deterministic llmprovider.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// Provider is a scriptable llmprovider.Provider. Responses are consumed in
// order, one per StreamCompletion/Complete call; the last scripted response
// repeats once the script is exhausted.
type Provider struct {
	mu        sync.Mutex
	responses []llmprovider.CompletionResponse
	calls     int
	caps      llmprovider.ModelCapabilities
}

var _ llmprovider.Provider = (*Provider)(nil)

// New creates a Provider that returns responses in sequence.
func New(responses ...llmprovider.CompletionResponse) *Provider {
	return &Provider{
		responses: responses,
		caps: llmprovider.ModelCapabilities{
			ContextWindow:       200_000,
			MaxOutputTokens:     8192,
			SupportsToolCalling: true,
		},
	}
}

func (p *Provider) next() llmprovider.CompletionResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.responses) == 0 {
		return llmprovider.CompletionResponse{}
	}
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return p.responses[idx]
}

// StreamCompletion emits the scripted response as a single text chunk
// followed by a final chunk carrying tool calls and finish reason.
func (p *Provider) StreamCompletion(ctx context.Context, req llmprovider.CompletionRequest) (<-chan llmprovider.Chunk, error) {
	resp := p.next()
	out := make(chan llmprovider.Chunk, 2)
	go func() {
		defer close(out)
		if resp.Content != "" {
			select {
			case out <- llmprovider.Chunk{Text: resp.Content}:
			case <-ctx.Done():
				return
			}
		}
		finish := "stop"
		if len(resp.ToolCalls) > 0 {
			finish = "tool_use"
		}
		select {
		case out <- llmprovider.Chunk{FinishReason: finish, ToolCalls: resp.ToolCalls}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// Complete returns the next scripted response directly.
func (p *Provider) Complete(ctx context.Context, req llmprovider.CompletionRequest) (*llmprovider.CompletionResponse, error) {
	resp := p.next()
	return &resp, nil
}

// CountTokens returns a four-characters-per-token estimate.
func (p *Provider) CountTokens(messages []llmprovider.Message) (int, error) {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars / 4, nil
}

// Capabilities returns the configured capabilities (overridable via SetCapabilities).
func (p *Provider) Capabilities() llmprovider.ModelCapabilities {
	return p.caps
}

// SetCapabilities overrides the capabilities this mock reports.
func (p *Provider) SetCapabilities(c llmprovider.ModelCapabilities) {
	p.caps = c
}

// Calls returns how many completion requests this mock has served.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
