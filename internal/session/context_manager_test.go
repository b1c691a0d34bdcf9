package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// mockSummariser is a test double for Summariser.
type mockSummariser struct {
	result string
	err    error
	calls  int
	msgs   [][]llmprovider.Message
}

func (m *mockSummariser) Summarise(_ context.Context, messages []llmprovider.Message) (string, error) {
	m.calls++
	m.msgs = append(m.msgs, messages)
	return m.result, m.err
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name    string
		msg     llmprovider.Message
		wantMin int
		wantMax int
	}{
		{
			name:    "empty message",
			msg:     llmprovider.Message{},
			wantMin: 0,
			wantMax: 0,
		},
		{
			name:    "short message",
			msg:     llmprovider.Message{Role: "user", Content: "Hi"},
			wantMin: 1, // 6 chars / 4 = 1
			wantMax: 2,
		},
		{
			name:    "long message",
			msg:     llmprovider.Message{Role: "assistant", Content: strings.Repeat("a", 400)},
			wantMin: 100, // (400+9) / 4 ≈ 102
			wantMax: 110,
		},
		{
			name: "message with tool calls",
			msg: llmprovider.Message{
				Role: "assistant",
				ToolCalls: []llmprovider.ToolCall{
					{ID: "tc_1", Name: "roll_dice", Arguments: `{"sides":20}`},
				},
			},
			wantMin: 5,
			wantMax: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateTokens(tt.msg)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}

func TestContextManager_Compact_BelowThresholdReturnsUnchanged(t *testing.T) {
	s := &mockSummariser{result: "summary"}
	cm := NewContextManager(ContextManagerConfig{
		MaxTokens:      10000,
		ThresholdRatio: 0.75,
		Summariser:     s,
	})

	messages := []llmprovider.Message{
		{Role: "user", Content: "Hello there!"},
		{Role: "assistant", Content: "Greetings, adventurer!"},
	}

	got, changed, err := cm.Compact(context.Background(), messages)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, messages, got)
	assert.Zero(t, s.calls)
}

func TestContextManager_Compact_TriggersAboveThreshold(t *testing.T) {
	s := &mockSummariser{result: "condensed"}
	cm := NewContextManager(ContextManagerConfig{
		MaxTokens:      100, // very small window
		ThresholdRatio: 0.5, // trigger at 50 tokens
		Summariser:     s,
	})

	longContent := strings.Repeat("x", 200) // 200 chars ≈ 50 tokens
	messages := []llmprovider.Message{
		{Role: "user", Content: longContent},
		{Role: "assistant", Content: longContent},
	}

	got, changed, err := cm.Compact(context.Background(), messages)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, s.calls)

	foundSummary := false
	for _, m := range got {
		if strings.Contains(m.Content, "[Previous conversation summary]") {
			foundSummary = true
			break
		}
	}
	assert.True(t, foundSummary, "expected summary message in compacted output")
}

func TestContextManager_Compact_DefaultThresholdRatioIsPointSevenFive(t *testing.T) {
	s := &mockSummariser{result: "summary"}
	cm := NewContextManager(ContextManagerConfig{
		MaxTokens:  1000,
		Summariser: s,
	})
	// threshold = 750 tokens; two short messages stay well under it.
	messages := []llmprovider.Message{
		{Role: "user", Content: "short"},
		{Role: "assistant", Content: "reply"},
	}

	_, changed, err := cm.Compact(context.Background(), messages)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, s.calls)
}

func TestContextManager_Compact_SummaryIsFirstMessage(t *testing.T) {
	s := &mockSummariser{result: "events happened"}
	cm := NewContextManager(ContextManagerConfig{
		MaxTokens:      40,
		ThresholdRatio: 0.5,
		Summariser:     s,
	})

	messages := []llmprovider.Message{
		{Role: "user", Content: strings.Repeat("a", 80)},
		{Role: "assistant", Content: strings.Repeat("b", 80)},
	}

	got, changed, err := cm.Compact(context.Background(), messages)
	require.NoError(t, err)
	require.True(t, changed)
	require.NotEmpty(t, got)
	assert.Equal(t, "system", got[0].Role)
	assert.Contains(t, got[0].Content, "events happened")
}

func TestContextManager_Compact_PropagatesSummariserErrors(t *testing.T) {
	s := &mockSummariser{err: assert.AnError}
	cm := NewContextManager(ContextManagerConfig{
		MaxTokens:      40,
		ThresholdRatio: 0.5,
		Summariser:     s,
	})

	messages := []llmprovider.Message{
		{Role: "user", Content: strings.Repeat("a", 80)},
		{Role: "assistant", Content: strings.Repeat("b", 80)},
	}

	_, _, err := cm.Compact(context.Background(), messages)
	require.Error(t, err)
}

func TestContextManager_Reset_StartsFreshSummaryHistory(t *testing.T) {
	s := &mockSummariser{result: "summary"}
	cm := NewContextManager(ContextManagerConfig{
		MaxTokens:      40,
		ThresholdRatio: 0.5,
		Summariser:     s,
	})

	messages := []llmprovider.Message{
		{Role: "user", Content: strings.Repeat("a", 80)},
		{Role: "assistant", Content: strings.Repeat("b", 80)},
	}
	_, changed, err := cm.Compact(context.Background(), messages)
	require.NoError(t, err)
	require.True(t, changed)

	cm.Reset()

	got, changed, err := cm.Compact(context.Background(), messages)
	require.NoError(t, err)
	require.True(t, changed)
	// Only one accumulated summary after Reset, not two.
	summaryCount := 0
	for _, m := range got {
		if m.Role == "system" {
			summaryCount++
		}
	}
	assert.Equal(t, 1, summaryCount)
}
