package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/astral-gm/astral/internal/audiogen"
	"github.com/astral-gm/astral/internal/campaign"
	"github.com/astral-gm/astral/internal/dice"
	"github.com/astral-gm/astral/internal/llmprovider"
	"github.com/astral-gm/astral/internal/marker"
	"github.com/astral-gm/astral/internal/observe"
	"github.com/astral-gm/astral/internal/openingcache"
	"github.com/astral-gm/astral/internal/orchestrator"
	"github.com/astral-gm/astral/internal/pipeline"
)

// AudioMode selects which segment kinds the pipeline generates for a turn.
type AudioMode string

const (
	AudioFull     AudioMode = "full"
	AudioDialogue AudioMode = "dialogue"
	AudioAmbient  AudioMode = "ambient"
	AudioOff      AudioMode = "off"
)

// openingPromptNew and openingPromptRecap are the system-supplied player
// turns that kick off a session with no real player input: a synthetic
// first message the model answers the same way it would a player's, just
// steering it toward an opening scene versus a recap of the prior one.
const (
	openingPromptNew    = "[SESSION_START] Begin the session: describe the opening scene for a brand-new campaign and end by prompting the player for their first action."
	openingPromptRecap  = "[SESSION_START] Resume the session: open with a short recap of where things left off, then prompt the player for their next action."
	disconnectLogFormat = "[%s] session disconnected"
)

// Controller binds one WebSocket connection to one orchestrator and mediates
// the wire protocol: player turns, audio-mode switches, the dice handshake,
// and the opening-turn cache. One Controller per connection; not safe for
// concurrent use from more than the one goroutine that calls Run.
type Controller struct {
	conn         *websocket.Conn
	store        *campaign.Store
	orch         *orchestrator.Orchestrator
	gen          *audiogen.Generator
	openingCache *openingcache.Cache
	ctxMgr       *ContextManager
	metrics      *observe.Metrics

	writeMu   sync.Mutex
	audioMode AudioMode

	// recording, when non-nil, collects every raw outbound message so the
	// opening turn can be cached for later fingerprint-matched replay.
	recording *[]json.RawMessage
}

// New creates a Controller for an already-accepted connection. systemPrompt
// is the full system prompt (persona instructions plus campaign context
// block, see [BuildSystemPrompt]); it is handed to a fresh
// [orchestrator.Orchestrator] built around store as its Toolset. ctxMgr may
// be nil to disable history compaction.
func New(
	conn *websocket.Conn,
	provider llmprovider.Provider,
	store *campaign.Store,
	systemPrompt string,
	gen *audiogen.Generator,
	openingCache *openingcache.Cache,
	ctxMgr *ContextManager,
	metrics *observe.Metrics,
) *Controller {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Controller{
		conn:         conn,
		store:        store,
		orch:         orchestrator.New(provider, store, systemPrompt),
		gen:          gen,
		openingCache: openingCache,
		ctxMgr:       ctxMgr,
		metrics:      metrics,
		audioMode:    AudioFull,
	}
}

// Run drives the connection until the client disconnects or ctx is
// cancelled, at which point it records the session's end and returns. A
// clean client-initiated close is reported as a nil error.
func (c *Controller) Run(ctx context.Context) error {
	c.metrics.ActiveSessions.Add(ctx, 1)
	defer c.metrics.ActiveSessions.Add(ctx, -1)
	defer c.endSession()

	if err := c.sendInitialState(ctx); err != nil {
		return err
	}
	if err := c.runOpeningTurn(ctx); err != nil {
		return err
	}

	for {
		msg, err := c.readMessage(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				return nil
			}
			return err
		}

		switch {
		case msg.Type == "" && msg.Message != "":
			if err := c.runTurn(ctx, msg.Message); err != nil {
				return err
			}
		case msg.Type == "set_audio_mode":
			c.setAudioMode(msg.Mode)
		case msg.Type == "roll_execute", msg.Type == "roll_ack":
			// Only meaningful mid-turn, while runTurn itself is reading;
			// arriving here means the client is out of sync with the
			// protocol state machine.
			_ = c.sendError(ctx, fmt.Errorf("session: unexpected %s outside a dice handshake", msg.Type))
		default:
			_ = c.sendError(ctx, fmt.Errorf("session: unrecognised message type %q", msg.Type))
		}
	}
}

func (c *Controller) setAudioMode(mode string) {
	switch AudioMode(mode) {
	case AudioFull, AudioDialogue, AudioAmbient, AudioOff:
		c.audioMode = AudioMode(mode)
	}
}

// sendInitialState sends the player character's current sheet as the
// connection's first message, mirroring the original handler's behavior of
// priming the client before any narration arrives.
func (c *Controller) sendInitialState(ctx context.Context) error {
	char, err := c.store.Character()
	if err != nil {
		return fmt.Errorf("session: load character for initial state: %w", err)
	}
	return c.writeJSON(ctx, stateMessage{Type: "state", Updates: char})
}

// runOpeningTurn serves the session's opening narration, either replayed
// verbatim from the opening-turn cache (if the campaign's session log
// hasn't changed since it was cached) or generated fresh and then cached.
func (c *Controller) runOpeningTurn(ctx context.Context) error {
	sessionLog, err := c.store.SessionLog()
	if err != nil {
		return fmt.Errorf("session: read session log: %w", err)
	}
	fingerprint := openingcache.Fingerprint(sessionLog)

	if cached, ok := c.openingCache.Lookup(fingerprint); ok {
		c.metrics.RecordOpeningCacheLookup(ctx, true)
		return c.replay(ctx, cached)
	}
	c.metrics.RecordOpeningCacheLookup(ctx, false)

	hasPrior, err := c.store.HasPriorSession()
	if err != nil {
		return fmt.Errorf("session: check prior session: %w", err)
	}
	prompt := openingPromptNew
	if hasPrior {
		prompt = openingPromptRecap
	}

	recorded := make([]json.RawMessage, 0, 8)
	c.recording = &recorded
	err = c.runTurn(ctx, prompt)
	c.recording = nil
	if err != nil {
		return err
	}

	if err := c.openingCache.Store(fingerprint, recorded); err != nil {
		return fmt.Errorf("session: store opening cache: %w", err)
	}
	return nil
}

// replay sends previously-recorded wire messages verbatim, in order,
// without touching the orchestrator or the audio pipeline at all.
func (c *Controller) replay(ctx context.Context, messages []json.RawMessage) error {
	for _, raw := range messages {
		c.writeMu.Lock()
		err := c.conn.Write(ctx, websocket.MessageText, raw)
		c.writeMu.Unlock()
		if err != nil {
			return fmt.Errorf("session: replay opening turn: %w", err)
		}
	}
	return nil
}

// runTurn drives one orchestrator turn end to end: feeding clean text to
// the client, raw text to a fresh audio pipeline, forwarding state updates,
// and running the dice handshake whenever the model calls roll_dice.
func (c *Controller) runTurn(ctx context.Context, playerMessage string) error {
	if err := c.compactHistory(ctx); err != nil {
		return err
	}

	events, err := c.orch.RunTurn(ctx, playerMessage)
	if err != nil {
		return c.sendError(ctx, err)
	}

	p := c.newPipeline(ctx)
	for ev := range events {
		switch ev.Type {
		case orchestrator.EventRawDelta:
			p.Feed(ev.Content)
		case orchestrator.EventTextDelta:
			if err := c.writeJSON(ctx, textDeltaMessage{Type: "text_delta", Content: ev.Content}); err != nil {
				return err
			}
		case orchestrator.EventTextEnd:
			if err := c.writeJSON(ctx, textEndMessage{Type: "text_end", Content: ev.Content}); err != nil {
				return err
			}
		case orchestrator.EventState:
			if err := c.writeJSON(ctx, stateMessage{Type: "state", Updates: ev.Updates}); err != nil {
				return err
			}
		case orchestrator.EventRollRequest:
			next, err := c.handleRollRequest(ctx, p, ev)
			if err != nil {
				return err
			}
			p = next
		}
	}
	return p.Flush()
}

// handleRollRequest runs the full dice handshake: flush the turn's current
// pipeline (so no stale audio arrives after the roll), forward the request,
// wait for the player to execute it, roll server-side, report the result,
// wait for acknowledgement, resume the orchestrator, and hand back a fresh
// pipeline for whatever narration follows. Flushing and replacing rather
// than just flushing or just continuing keeps segments before and after the
// roll in two cleanly separated delivery orders.
func (c *Controller) handleRollRequest(ctx context.Context, p *pipeline.Pipeline, ev orchestrator.Event) (*pipeline.Pipeline, error) {
	if err := p.Flush(); err != nil {
		return nil, err
	}

	if err := c.writeJSON(ctx, rollRequestMessage{
		Type:      "roll_request",
		ToolUseID: ev.ToolUseID,
		Notation:  ev.Notation,
		Reason:    ev.Reason,
	}); err != nil {
		return nil, err
	}

	if _, err := c.expectClientType(ctx, "roll_execute"); err != nil {
		return nil, err
	}

	result, err := dice.Roll(ev.Notation)
	if err != nil {
		return nil, c.sendError(ctx, fmt.Errorf("session: roll %q: %w", ev.Notation, err))
	}

	if err := c.writeJSON(ctx, rollResultMessage{
		Type:      "roll_result",
		RollType:  string(result.Mode),
		Notation:  result.Notation,
		Rolls:     result.Rolls,
		Total:     result.Total,
		Modifier:  result.Modifier,
		Kept:      result.Kept,
		Discarded: result.Discarded,
		Natural20: result.Natural20,
		Natural1:  result.Natural1,
	}); err != nil {
		return nil, err
	}

	if _, err := c.expectClientType(ctx, "roll_ack"); err != nil {
		return nil, err
	}

	c.orch.ResolveRoll(orchestrator.RollResult{
		Notation:  result.Notation,
		Total:     result.Total,
		Rolls:     result.Rolls,
		Natural1:  result.Natural1,
		Natural20: result.Natural20,
	})

	return c.newPipeline(ctx), nil
}

// compactHistory checks the orchestrator's current history against the
// configured context manager and installs a compacted replacement if the
// threshold was exceeded. A nil ctxMgr disables compaction entirely.
func (c *Controller) compactHistory(ctx context.Context) error {
	if c.ctxMgr == nil {
		return nil
	}
	compacted, changed, err := c.ctxMgr.Compact(ctx, c.orch.History())
	if err != nil {
		return fmt.Errorf("session: compact history: %w", err)
	}
	if changed {
		c.orch.SetHistory(compacted)
	}
	return nil
}

// newPipeline creates a pipeline bound to ctx with the current audio-mode
// filter installed.
func (c *Controller) newPipeline(ctx context.Context) *pipeline.Pipeline {
	p := pipeline.New(ctx, c.gen, c.sendArtifact, c.metrics)
	p.SetFilter(audioModeFilter(c.audioMode))
	return p
}

// sendArtifact is the pipeline's Send callback. The player-facing dice
// handshake is driven entirely by EventRollRequest/ResolveRoll, not by
// inline [ROLL:...] narration cues, but that's enforced upstream: the
// parser never emits a Roll segment, so every seg reaching here carries
// real generated audio.
func (c *Controller) sendArtifact(ctx context.Context, artifact audiogen.Artifact, seg marker.Segment) error {
	msg := audioMessage{
		Type:    "audio",
		Channel: string(artifact.Channel),
		Data:    base64.StdEncoding.EncodeToString(artifact.Data),
		Speaker: artifact.Speaker,
	}
	return c.writeJSON(ctx, msg)
}

// audioModeFilter returns the segment-kind predicate for mode, per the
// audio-mode filter table: full allows every generated kind, dialogue drops
// narration, ambient additionally drops NPC dialogue, and off generates
// nothing.
func audioModeFilter(mode AudioMode) func(marker.Kind) bool {
	var allowed map[marker.Kind]bool
	switch mode {
	case AudioDialogue:
		allowed = map[marker.Kind]bool{marker.NPC: true, marker.Ambient: true, marker.SFX: true}
	case AudioAmbient:
		allowed = map[marker.Kind]bool{marker.Ambient: true, marker.SFX: true}
	case AudioOff:
		allowed = map[marker.Kind]bool{}
	default:
		allowed = map[marker.Kind]bool{marker.Narrate: true, marker.NPC: true, marker.Ambient: true, marker.SFX: true}
	}
	return func(k marker.Kind) bool {
		return allowed[k]
	}
}

// endSession records the session's end in the campaign's session log, so a
// later HasPriorSession check on this campaign reports a recap opening.
func (c *Controller) endSession() {
	_ = c.store.CloseSession(fmt.Sprintf(disconnectLogFormat, time.Now().UTC().Format(time.RFC3339)))
}

// clientMessage is the inbound wire envelope. A bare {"message": "..."}
// with no type is a player turn; everything else is dispatched by Type.
type clientMessage struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

// readMessage reads and decodes the next client message.
func (c *Controller) readMessage(ctx context.Context) (clientMessage, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return clientMessage{}, err
	}
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return clientMessage{}, fmt.Errorf("session: decode client message: %w", err)
	}
	return msg, nil
}

// expectClientType reads the next client message and requires it to carry
// the given type, used by the dice handshake which pauses the turn loop to
// wait for a specific reply.
func (c *Controller) expectClientType(ctx context.Context, want string) (clientMessage, error) {
	msg, err := c.readMessage(ctx)
	if err != nil {
		return clientMessage{}, err
	}
	if msg.Type != want {
		return clientMessage{}, fmt.Errorf("session: expected %q, got %q", want, msg.Type)
	}
	return msg, nil
}

// writeJSON marshals v and writes it as a single text frame, recording it
// first if an opening-turn cache recording is in progress. conn.Write is
// shared between this method and the pipeline's Send callback running on
// its own goroutine, so every write is serialized through writeMu.
func (c *Controller) writeJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode message: %w", err)
	}
	if c.recording != nil {
		*c.recording = append(*c.recording, json.RawMessage(data))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// sendError best-effort notifies the client of a server-side failure and
// returns the original error for the caller to propagate/log.
func (c *Controller) sendError(ctx context.Context, cause error) error {
	_ = c.writeJSON(ctx, errorMessage{Type: "error", Content: cause.Error()})
	return cause
}

// --- outbound message shapes ---

type stateMessage struct {
	Type    string `json:"type"`
	Updates any    `json:"updates"`
}

type textDeltaMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type textEndMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type audioMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Data    string `json:"data"`
	Speaker string `json:"speaker,omitempty"`
}

type rollRequestMessage struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Notation  string `json:"notation"`
	Reason    string `json:"reason"`
}

type rollResultMessage struct {
	Type      string `json:"type"`
	RollType  string `json:"roll_type"`
	Notation  string `json:"notation"`
	Rolls     []int  `json:"rolls"`
	Total     int    `json:"total"`
	Modifier  int    `json:"modifier"`
	Kept      []int  `json:"kept"`
	Discarded []int  `json:"discarded"`
	Natural20 bool   `json:"natural_20"`
	Natural1  bool   `json:"natural_1"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
