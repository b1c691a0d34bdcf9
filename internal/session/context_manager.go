package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/astral-gm/astral/internal/llmprovider"
)

// charsPerToken is the heuristic ratio used for token estimation.
// English text averages roughly 4 characters per token across common
// LLM tokenizers. This avoids pulling in a tokenizer dependency.
const charsPerToken = 4

// ContextManager bounds a turn's conversation history against a model's
// context window. The orchestrator is the single owner of message history;
// ContextManager never stores its own copy between calls — it is handed
// the current history at the start of a turn and, if the estimated token
// count exceeds the threshold, returns a compacted replacement for the
// caller to install back into the orchestrator.
//
// All methods are safe for concurrent use.
type ContextManager struct {
	maxTokens      int
	thresholdRatio float64
	summariser     Summariser

	mu        sync.Mutex
	summaries []string
}

// ContextManagerConfig configures a [ContextManager].
type ContextManagerConfig struct {
	// MaxTokens is the provider's context window size (e.g., 128000).
	MaxTokens int

	// ThresholdRatio is the fraction of MaxTokens at which summarisation is
	// triggered. Defaults to 0.75 if zero or negative.
	ThresholdRatio float64

	// Summariser is used to compress older messages when the threshold is
	// exceeded. Must not be nil.
	Summariser Summariser
}

// NewContextManager creates a new [ContextManager] with the given configuration.
// If ThresholdRatio is zero or negative, 0.75 is used.
func NewContextManager(cfg ContextManagerConfig) *ContextManager {
	ratio := cfg.ThresholdRatio
	if ratio <= 0 {
		ratio = 0.75
	}
	return &ContextManager{
		maxTokens:      cfg.MaxTokens,
		thresholdRatio: ratio,
		summariser:     cfg.Summariser,
	}
}

// Compact inspects messages and, if their estimated token count exceeds
// thresholdRatio × maxTokens, summarises the oldest half and returns a
// replacement history consisting of one system message per accumulated
// summary followed by the newer, unsummarised messages. The bool return reports
// whether compaction occurred; when false, messages is returned unchanged
// and the caller need not touch the orchestrator's history.
func (cm *ContextManager) Compact(ctx context.Context, messages []llmprovider.Message) ([]llmprovider.Message, bool, error) {
	if len(messages) < 2 {
		return messages, false, nil
	}

	total := 0
	for _, m := range messages {
		total += estimateTokens(m)
	}
	threshold := int(float64(cm.maxTokens) * cm.thresholdRatio)
	if cm.maxTokens <= 0 || total <= threshold {
		return messages, false, nil
	}

	half := len(messages) / 2
	if half == 0 {
		half = 1
	}
	toSummarise := make([]llmprovider.Message, half)
	copy(toSummarise, messages[:half])

	summary, err := cm.summariser.Summarise(ctx, toSummarise)
	if err != nil {
		return nil, false, fmt.Errorf("session: compact history: %w", err)
	}

	cm.mu.Lock()
	cm.summaries = append(cm.summaries, summary)
	summaries := make([]string, len(cm.summaries))
	copy(summaries, cm.summaries)
	cm.mu.Unlock()

	compacted := make([]llmprovider.Message, 0, len(summaries)+len(messages)-half)
	for _, s := range summaries {
		compacted = append(compacted, llmprovider.Message{
			Role:    "system",
			Content: fmt.Sprintf("[Previous conversation summary]: %s", s),
		})
	}
	compacted = append(compacted, messages[half:]...)
	return compacted, true, nil
}

// Reset discards accumulated summaries, starting a fresh compaction history.
func (cm *ContextManager) Reset() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.summaries = cm.summaries[:0]
}

// estimateTokens returns a rough token count for a single message using
// the 1-token-per-4-characters heuristic.
func estimateTokens(m llmprovider.Message) int {
	chars := len(m.Content) + len(m.Role) + len(m.ToolCallID)
	for _, tc := range m.ToolCalls {
		chars += len(tc.Name) + len(tc.Arguments) + len(tc.ID)
	}
	tokens := chars / charsPerToken
	if tokens == 0 && chars > 0 {
		tokens = 1
	}
	return tokens
}
