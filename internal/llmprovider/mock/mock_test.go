package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astral-gm/astral/internal/llmprovider"
)

func TestProvider_CompleteReturnsScriptedResponses(t *testing.T) {
	p := New(
		llmprovider.CompletionResponse{Content: "first"},
		llmprovider.CompletionResponse{Content: "second"},
	)

	resp, err := p.Complete(context.Background(), llmprovider.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = p.Complete(context.Background(), llmprovider.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	resp, err = p.Complete(context.Background(), llmprovider.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content, "should repeat the last scripted response once exhausted")
}

func TestProvider_StreamCompletionSetsToolUseFinishReason(t *testing.T) {
	p := New(llmprovider.CompletionResponse{
		ToolCalls: []llmprovider.ToolCall{{ID: "1", Name: "roll_dice", Arguments: `{"notation":"1d20"}`}},
	})

	chunks, err := p.StreamCompletion(context.Background(), llmprovider.CompletionRequest{})
	require.NoError(t, err)

	var final llmprovider.Chunk
	for c := range chunks {
		final = c
	}
	assert.Equal(t, "tool_use", final.FinishReason)
	require.Len(t, final.ToolCalls, 1)
	assert.Equal(t, "roll_dice", final.ToolCalls[0].Name)
}

func TestProvider_CallsIncrementsPerRequest(t *testing.T) {
	p := New(llmprovider.CompletionResponse{Content: "ok"})
	assert.Equal(t, 0, p.Calls())

	p.Complete(context.Background(), llmprovider.CompletionRequest{})
	p.Complete(context.Background(), llmprovider.CompletionRequest{})

	assert.Equal(t, 2, p.Calls())
}
