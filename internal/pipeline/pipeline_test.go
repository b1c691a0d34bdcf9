package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astral-gm/astral/internal/audiogen"
	"github.com/astral-gm/astral/internal/marker"
	"github.com/astral-gm/astral/internal/ttsprovider"
)

// delayedProvider sleeps a per-call duration before returning, so tests can
// force out-of-order completion and assert the pipeline still delivers in
// submission order.
type delayedProvider struct {
	delays map[string]time.Duration
}

func (p *delayedProvider) Synthesize(ctx context.Context, text string, voice ttsprovider.VoiceProfile) ([]byte, error) {
	if d, ok := p.delays[text]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []byte(text), nil
}

func (p *delayedProvider) SynthesizeSound(ctx context.Context, description string, durationSeconds float64) ([]byte, error) {
	return []byte(description), nil
}

func (p *delayedProvider) ListVoices(ctx context.Context) ([]ttsprovider.VoiceProfile, error) {
	return nil, nil
}

func TestPipeline_DeliversInOrderDespiteOutOfOrderCompletion(t *testing.T) {
	provider := &delayedProvider{delays: map[string]time.Duration{
		"First sentence.":  50 * time.Millisecond,
		"Second sentence.": 0,
	}}
	gen := audiogen.New(nil, provider, nil, nil)

	var (
		mu        sync.Mutex
		delivered []string
	)
	send := func(ctx context.Context, artifact audiogen.Artifact, seg marker.Segment) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, seg.Content)
		return nil
	}

	p := New(context.Background(), gen, send, nil)
	p.Feed("[NARRATE]First sentence. Second sentence.")
	require.NoError(t, p.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"First sentence.", "Second sentence."}, delivered)
}

func TestPipeline_RollMarkerProducesNoSegment(t *testing.T) {
	provider := &delayedProvider{}
	gen := audiogen.New(nil, provider, nil, nil)

	var kinds []marker.Kind
	send := func(ctx context.Context, artifact audiogen.Artifact, seg marker.Segment) error {
		kinds = append(kinds, seg.Kind)
		return nil
	}

	p := New(context.Background(), gen, send, nil)
	p.Feed("Roll for it. [ROLL:1d20+3:stealth]")
	require.NoError(t, p.Flush())

	assert.Equal(t, []marker.Kind{marker.Narrate}, kinds)
}

func TestPipeline_CancelStopsDelivery(t *testing.T) {
	provider := &delayedProvider{delays: map[string]time.Duration{
		"Stalled sentence.": time.Hour,
	}}
	gen := audiogen.New(nil, provider, nil, nil)

	delivered := make(chan marker.Segment, 4)
	send := func(ctx context.Context, artifact audiogen.Artifact, seg marker.Segment) error {
		delivered <- seg
		return nil
	}

	p := New(context.Background(), gen, send, nil)
	p.Feed("[NARRATE]Stalled sentence.")
	p.Cancel()

	select {
	case seg := <-delivered:
		t.Fatalf("unexpected delivery after cancel: %+v", seg)
	case <-time.After(100 * time.Millisecond):
	}
}
