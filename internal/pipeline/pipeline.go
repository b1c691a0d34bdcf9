// Package pipeline implements the ordered concurrent audio pipeline: text
// deltas come in from the model stream, segments are parsed out as soon as
// they're complete, audio generation for each segment starts immediately
// and concurrently, but delivery to the client happens strictly in segment
// order — a slow early segment holds up a fast later one rather than
// letting them arrive out of order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/astral-gm/astral/internal/audiogen"
	"github.com/astral-gm/astral/internal/marker"
	"github.com/astral-gm/astral/internal/observe"
)

// Send delivers one generated artifact to the client, in the order its
// segment was parsed. seg is the segment that produced artifact. A non-nil
// error aborts the pipeline's drain loop.
type Send func(ctx context.Context, artifact audiogen.Artifact, seg marker.Segment) error

// job is one segment's slot in the delivery queue: the generation goroutine
// writes its single result to out as soon as it's ready; the drain loop
// reads jobs (and their results) strictly in enqueue order.
type job struct {
	seg marker.Segment
	out chan jobResult
}

type jobResult struct {
	artifact audiogen.Artifact
	err      error
}

// Pipeline feeds raw model text through a [marker.StreamParser] and fans
// out audio generation for each resulting segment, while delivering
// artifacts to Send in strict order.
//
// A Pipeline is used for exactly one model turn: create one, Feed it every
// delta, then Flush or Cancel it.
type Pipeline struct {
	gen     *audiogen.Generator
	send    Send
	parser  *marker.StreamParser
	metrics *observe.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	started time.Time

	jobs      chan *job
	drainDone chan struct{}
	drainErr  error

	wg sync.WaitGroup

	filter func(marker.Kind) bool
}

// New creates a Pipeline bound to ctx: canceling ctx (or calling Cancel)
// stops generation and drops pending deliveries. metrics may be nil, in
// which case [observe.DefaultMetrics] is used.
func New(ctx context.Context, gen *audiogen.Generator, send Send, metrics *observe.Metrics) *Pipeline {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	pctx, cancel := context.WithCancel(ctx)
	p := &Pipeline{
		gen:       gen,
		send:      send,
		metrics:   metrics,
		ctx:       pctx,
		cancel:    cancel,
		started:   time.Now(),
		jobs:      make(chan *job, 4096),
		drainDone: make(chan struct{}),
	}
	p.parser = marker.NewStreamParser(p.enqueue)
	go p.drain()
	return p
}

// SetFilter installs a segment-kind predicate: segments for which allow
// returns false are dropped before generation ever starts — neither
// generated nor enqueued for delivery. Must be called before the first
// Feed. A nil filter (the default) processes every segment.
func (p *Pipeline) SetFilter(allow func(marker.Kind) bool) {
	p.filter = allow
}

// Feed appends a raw text delta from the model stream. Non-blocking with
// respect to audio generation: any segment the delta completes is enqueued
// for generation immediately and Feed returns without waiting on it.
func (p *Pipeline) Feed(delta string) {
	p.parser.Feed(delta)
}

// Flush signals end of turn, flushing any residual buffered text as a
// final segment, then blocks until every enqueued delivery has completed
// (or the pipeline was cancelled).
func (p *Pipeline) Flush() error {
	p.started = time.Now()
	p.parser.Flush()
	close(p.jobs)
	p.wg.Wait()
	<-p.drainDone
	p.metrics.PipelineFlushDuration.Record(p.ctx, time.Since(p.started).Seconds())
	return p.drainErr
}

// Cancel aborts the pipeline immediately: in-flight generation is signaled
// to stop via context cancellation, and no further deliveries are sent.
// Cancel does not block; call it and discard the pipeline.
func (p *Pipeline) Cancel() {
	p.metrics.PipelineCancellations.Add(context.Background(), 1)
	p.cancel()
}

// enqueue is the StreamParser's emit callback. The parser never emits a
// Roll segment (ROLL only flushes the preceding voice buffer; the roll
// itself is handled at the orchestrator layer), so every segment reaching
// here gets generated.
func (p *Pipeline) enqueue(seg marker.Segment) {
	if p.filter != nil && !p.filter(seg.Kind) {
		return
	}

	j := &job{seg: seg, out: make(chan jobResult, 1)}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		artifact, err := p.gen.Generate(p.ctx, seg)
		j.out <- jobResult{artifact: artifact, err: err}
	}()
	p.submit(j)
}

// submit pushes j onto the delivery queue, dropping it silently if the
// pipeline has already been cancelled (the drain loop is gone, and the
// generation goroutine's buffered channel means it won't leak either way).
func (p *Pipeline) submit(j *job) {
	select {
	case p.jobs <- j:
	case <-p.ctx.Done():
	}
}

// drain delivers each job's result to Send in FIFO order.
func (p *Pipeline) drain() {
	defer close(p.drainDone)
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case res := <-j.out:
				if res.err != nil {
					if !errors.Is(res.err, audiogen.ErrNoVoice) {
						slog.Warn("pipeline: segment generation failed", "kind", j.seg.Kind, "error", res.err)
					}
					continue
				}
				if err := p.send(p.ctx, res.artifact, j.seg); err != nil {
					p.drainErr = fmt.Errorf("pipeline: send: %w", err)
					return
				}
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
