// Package session implements the per-connection game session controller:
// the WebSocket protocol loop, audio-mode filtering, the opening-turn
// cache, the dice handshake, and conversation-history compaction so a
// long-running campaign doesn't overrun the model's context window.
//
// A Controller serves one connection from the goroutine that calls Run and
// is not safe for concurrent use; a ContextManager is.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// compactionPrompt is the system prompt sent to the LLM when compacting the
// oldest portion of a turn's conversation history.
const compactionPrompt = `Summarise the following portion of a tabletop RPG session transcript between a player and the game master.
Preserve: key decisions, revealed information, NPC attitudes, promises made, and any
game-mechanical outcomes (dice rolls, damage, item exchanges, plot advancement).
Be concise but preserve all narratively important details.`

// Summariser produces a concise summary of a conversation segment.
type Summariser interface {
	Summarise(ctx context.Context, messages []llmprovider.Message) (string, error)
}

// LLMSummariser uses an LLM provider to summarise conversation history.
type LLMSummariser struct {
	llm llmprovider.Provider
}

// NewLLMSummariser creates an [LLMSummariser] backed by provider.
func NewLLMSummariser(provider llmprovider.Provider) *LLMSummariser {
	return &LLMSummariser{llm: provider}
}

// Summarise sends messages to the LLM with a summarisation prompt and
// returns the resulting summary text.
func (s *LLMSummariser) Summarise(ctx context.Context, messages []llmprovider.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, m := range messages {
		speaker := m.Role
		fmt.Fprintf(&sb, "[%s]: %s\n", speaker, m.Content)
	}

	resp, err := s.llm.Complete(ctx, llmprovider.CompletionRequest{
		SystemPrompt: compactionPrompt,
		Messages: []llmprovider.Message{
			{Role: "user", Content: sb.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("session: summarise history: %w", err)
	}
	return resp.Content, nil
}
