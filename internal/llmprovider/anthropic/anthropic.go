// Package anthropic implements llmprovider.Provider backed by the Anthropic
// Messages API. This is the orchestrator's primary backend.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/astral-gm/astral/internal/llmprovider"
)

const defaultModel = anthropic.ModelClaudeSonnet4_5

// Provider implements llmprovider.Provider backed by Anthropic's Messages
// API, used with tool-use-capable streaming.
type Provider struct {
	client anthropic.Client
	model  anthropic.Model
}

var _ llmprovider.Provider = (*Provider)(nil)

// Option is a functional option for configuring the Anthropic Provider.
type Option func(*Provider)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = anthropic.Model(model) }
}

// New creates a Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: apiKey must not be empty")
	}
	p := &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StreamCompletion opens a streaming Messages request and translates
// Anthropic's event stream into llmprovider.Chunk values: text deltas are
// forwarded as they arrive, and a single trailing chunk carries the
// accumulated tool calls (if any) and the finish reason.
func (p *Provider) StreamCompletion(ctx context.Context, req llmprovider.CompletionRequest) (<-chan llmprovider.Chunk, error) {
	params := p.buildParams(req)
	stream := p.client.Messages.NewStreaming(ctx, params)

	out := make(chan llmprovider.Chunk, 16)
	go func() {
		defer close(out)
		var message anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				return
			}

			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if textDelta, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && textDelta.Text != "" {
					select {
					case out <- llmprovider.Chunk{Text: textDelta.Text}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			return
		}

		final := llmprovider.Chunk{FinishReason: finishReason(string(message.StopReason))}
		for _, block := range message.Content {
			if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
				final.ToolCalls = append(final.ToolCalls, llmprovider.ToolCall{
					ID:        toolUse.ID,
					Name:      toolUse.Name,
					Arguments: string(toolUse.Input),
				})
			}
		}
		select {
		case out <- final:
		case <-ctx.Done():
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

// CountTokens approximates token cost at four characters per token. The
// Anthropic SDK's dedicated count-tokens endpoint charges for the call
// itself, which the orchestrator's frequent budget checks don't warrant.
func (p *Provider) CountTokens(messages []llmprovider.Message) (int, error) {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars / 4, nil
}

// Capabilities reports Claude Sonnet's known limits.
func (p *Provider) Capabilities() llmprovider.ModelCapabilities {
	return llmprovider.ModelCapabilities{
		ContextWindow:       200_000,
		MaxOutputTokens:     8192,
		SupportsToolCalling: true,
	}
}

func (p *Provider) buildParams(req llmprovider.CompletionRequest) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case "tool":
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		default: // assistant
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any
				_ = json.Unmarshal([]byte(tc.Arguments), &input)
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		}
	}

	tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Parameters["properties"],
				},
			},
		})
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages:  messages,
		Tools:     tools,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	return params
}

// finishReason maps an Anthropic stop_reason to the provider-neutral names
// the orchestrator switches on.
func finishReason(stopReason string) string {
	switch stopReason {
	case "tool_use":
		return "tool_use"
	case "max_tokens":
		return "max_tokens"
	default:
		return "stop"
	}
}
