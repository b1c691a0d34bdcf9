package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/astral-gm/astral/internal/llmprovider"
	"github.com/astral-gm/astral/internal/marker"
)

// MaxToolRounds bounds how many model-call/tool-execution iterations a
// single turn may take before the orchestrator gives up and returns
// whatever text has been produced so far.
const MaxToolRounds = 10

// Orchestrator drives one campaign's conversation with the model, holding
// the message history across turns and mediating tool calls.
type Orchestrator struct {
	provider     llmprovider.Provider
	tools        Toolset
	systemPrompt string
	messages     []llmprovider.Message

	rollResume chan RollResult
}

// New creates an Orchestrator. systemPrompt is the full system prompt,
// including any campaign-state context block; it is resent on every
// streaming call since the Provider interface is stateless.
func New(provider llmprovider.Provider, tools Toolset, systemPrompt string) *Orchestrator {
	return &Orchestrator{
		provider:     provider,
		tools:        tools,
		systemPrompt: systemPrompt,
		rollResume:   make(chan RollResult, 1),
	}
}

// History returns a copy of the current conversation history. Intended
// for use between turns (after a RunTurn channel has closed) to check
// whether the history should be compacted; callers must not mutate the
// returned slice's messages.
func (o *Orchestrator) History() []llmprovider.Message {
	out := make([]llmprovider.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// SetHistory replaces the conversation history wholesale, e.g. with a
// compacted version produced by a context manager. Must only be called
// between turns, never while a RunTurn channel is still open.
func (o *Orchestrator) SetHistory(messages []llmprovider.Message) {
	o.messages = messages
}

// ResolveRoll supplies the result of a player-completed dice roll,
// unblocking the tool round that issued the corresponding roll_request.
// Must be called after receiving an EventRollRequest and before RunTurn's
// channel is read further.
func (o *Orchestrator) ResolveRoll(result RollResult) {
	o.rollResume <- result
}

// RunTurn appends playerMessage to the conversation and drives the
// tool-use loop, streaming Events on the returned channel. The channel is
// closed when the turn completes (no further tool calls, MaxToolRounds
// exhausted, or ctx is cancelled).
//
// A turn that issues a roll_dice call blocks the internal loop — not the
// channel send — until ResolveRoll is called; the caller must read the
// EventRollRequest, obtain the roll from the player, call ResolveRoll, and
// continue draining the channel.
func (o *Orchestrator) RunTurn(ctx context.Context, playerMessage string) (<-chan Event, error) {
	o.messages = append(o.messages, llmprovider.Message{Role: "user", Content: playerMessage})

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for round := 0; round < MaxToolRounds; round++ {
			more, err := o.runRound(ctx, out)
			if err != nil || !more {
				return
			}
		}
	}()
	return out, nil
}

// runRound executes one streaming model call and its subsequent tool
// executions. It returns more=true if the loop should continue (a tool
// was called), false if the turn is complete.
func (o *Orchestrator) runRound(ctx context.Context, out chan<- Event) (more bool, err error) {
	req := llmprovider.CompletionRequest{
		Messages:     o.messages,
		Tools:        Tools(),
		SystemPrompt: o.systemPrompt,
		MaxTokens:    4096,
	}

	chunks, err := o.provider.StreamCompletion(ctx, req)
	if err != nil {
		return false, fmt.Errorf("orchestrator: stream completion: %w", err)
	}

	var (
		raw      strings.Builder
		sentLen  int
		toolCall []llmprovider.ToolCall
	)

	for chunk := range chunks {
		if chunk.Text != "" {
			raw.WriteString(chunk.Text)

			select {
			case out <- Event{Type: EventRawDelta, Content: chunk.Text}:
			case <-ctx.Done():
				return false, ctx.Err()
			}

			clean := marker.StripMarkers(raw.String())
			safeEnd := len(clean)
			if lastBracket := strings.LastIndexByte(clean, '['); lastBracket >= sentLen {
				safeEnd = lastBracket
			}
			if safeEnd > sentLen {
				select {
				case out <- Event{Type: EventTextDelta, Content: clean[sentLen:safeEnd]}:
				case <-ctx.Done():
					return false, ctx.Err()
				}
				sentLen = safeEnd
			}
		}
		if chunk.FinishReason != "" {
			toolCall = chunk.ToolCalls
		}
	}

	fullRaw := raw.String()
	fullClean := marker.StripMarkers(fullRaw)
	if fullRaw != "" {
		select {
		case out <- Event{Type: EventTextEnd, Content: fullClean, Raw: fullRaw}:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	assistantMsg := llmprovider.Message{Role: "assistant", Content: fullRaw, ToolCalls: toolCall}
	o.messages = append(o.messages, assistantMsg)

	if len(toolCall) == 0 {
		return false, nil
	}

	toolResults := make([]llmprovider.Message, 0, len(toolCall))
	for _, tc := range toolCall {
		result, err := o.executeToolCall(ctx, out, tc)
		if err != nil {
			result = map[string]any{"error": err.Error()}
		}
		payload, _ := json.Marshal(result)
		toolResults = append(toolResults, llmprovider.Message{
			Role:       "tool",
			ToolCallID: tc.ID,
			Content:    string(payload),
		})

		if stateMutatingTools[tc.Name] {
			select {
			case out <- Event{Type: EventState, Updates: toAnyMap(result)}:
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
	}
	o.messages = append(o.messages, toolResults...)

	return true, nil
}

// executeToolCall runs a single tool call. roll_dice suspends the round by
// publishing EventRollRequest and blocking until ResolveRoll is called;
// every other tool dispatches to the configured Toolset.
func (o *Orchestrator) executeToolCall(ctx context.Context, out chan<- Event, tc llmprovider.ToolCall) (any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return nil, fmt.Errorf("orchestrator: decode arguments for %s: %w", tc.Name, err)
	}

	if tc.Name == "roll_dice" {
		select {
		case out <- Event{
			Type:      EventRollRequest,
			ToolUseID: tc.ID,
			Notation:  str(args["notation"]),
			Reason:    str(args["reason"]),
		}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		select {
		case result := <-o.rollResume:
			return result, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return execute(ctx, o.tools, tc.Name, args)
}
