// Package pipeline runs speech intents: it segments each intent's token stream,
// synthesizes the segments, and hands the audio to the playback controller.
// One intent drives playback at a time; the rest wait in a pending list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/metric"

	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/audio"
	"github.com/dgnsrekt/speakflow/tts/sentence"
	"github.com/dgnsrekt/speakflow/tts/stream"
)

// Config holds the tunables of a pipeline.
type Config struct {
	Voices   audio.ControllerConfig
	Chunker  sentence.Options
	Resolver tts.PriorityResolver
}

// DefaultConfig returns a single-voice pipeline with the default chunker.
func DefaultConfig() Config {
	return Config{
		Voices:   audio.DefaultControllerConfig(),
		Chunker:  sentence.DefaultOptions(),
		Resolver: tts.NewPriorityResolver(nil),
	}
}

// ConfigFrom builds a pipeline Config from the application configuration.
func ConfigFrom(cfg tts.Config) Config {
	return Config{
		Voices:   audio.ControllerConfigFrom(cfg.Voices),
		Chunker:  sentence.OptionsFromConfig(cfg.Chunker),
		Resolver: cfg.Resolver(),
	}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used by the pipeline and its controller.
func WithLogger(logger tts.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithSegmenter replaces the default chunker-backed segmenter.
func WithSegmenter(s sentence.Segmenter) Option {
	return func(p *Pipeline) { p.segment = s }
}

// WithMeter records event metrics on meter.
func WithMeter(meter metric.Meter) Option {
	return func(p *Pipeline) { p.meter = meter }
}

// IntentOptions describes a new intent. Empty ids are generated.
type IntentOptions struct {
	IntentID string
	StreamID string
	Priority tts.Priority
	OwnerID  string
	Behavior tts.Behavior
}

// intent is owned by the pipeline and only mutated under Pipeline.mu.
type intent struct {
	info     tts.IntentInfo
	tokens   *stream.Channel[tts.Token]
	ctx      context.Context
	cancel   context.CancelCauseFunc
	machine  *tts.StateMachine
	canceled bool
	order    uint64
}

// Pipeline schedules intents and feeds their audio to an admission controller.
type Pipeline struct {
	synth      tts.Synthesizer
	segment    sentence.Segmenter
	resolver   tts.PriorityResolver
	logger     tts.Logger
	bus        *tts.Bus
	controller *audio.Controller

	meter        metric.Meter
	uninstrument func()

	mu      sync.Mutex
	intents map[string]*intent
	active  *intent
	pending []*intent
	order   uint64
	closed  bool

	// settled fires when the pipeline or its controller may have gone idle.
	settled signal
	wg      sync.WaitGroup
}

// New creates a pipeline that synthesizes with synth and plays through player.
func New(cfg Config, synth tts.Synthesizer, player tts.Player, opts ...Option) *Pipeline {
	p := &Pipeline{
		synth:    synth,
		resolver: cfg.Resolver,
		intents:  make(map[string]*intent),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Default().WithPrefix("pipeline")
	}
	if p.segment == nil {
		chunker := cfg.Chunker
		if chunker.Logger == nil {
			chunker.Logger = p.logger
		}
		p.segment = sentence.NewSegmenter(chunker)
	}

	p.bus = tts.NewBus(p.logger)
	p.controller = audio.NewController(cfg.Voices, player, p.bus, p.logger)
	p.controller.OnChange(p.settled.broadcast)

	if p.meter != nil {
		stop, err := tts.Instrument(p.bus, p.meter)
		if err != nil {
			p.logger.Warn("Metrics disabled", "error", err)
		} else {
			p.uninstrument = stop
		}
	}
	return p
}

// Open registers a new intent and places it according to its behavior.
func (p *Pipeline) Open(opts IntentOptions) *IntentHandle {
	if opts.IntentID == "" {
		opts.IntentID = tts.NewID()
	}
	if opts.StreamID == "" {
		opts.StreamID = tts.NewID()
	}
	if !opts.Behavior.Valid() {
		opts.Behavior = tts.BehaviorQueue
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	in := &intent{
		info: tts.IntentInfo{
			IntentID:  opts.IntentID,
			StreamID:  opts.StreamID,
			OwnerID:   opts.OwnerID,
			Priority:  p.resolver.Resolve(opts.Priority),
			Behavior:  opts.Behavior,
			CreatedAt: time.Now(),
		},
		tokens:  stream.New[tts.Token](),
		ctx:     ctx,
		cancel:  cancel,
		machine: tts.NewStateMachine(),
	}
	h := &IntentHandle{p: p, in: in}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		in.canceled = true
		in.machine.Transition(tts.StateCanceled)
		in.cancel(tts.ErrPipelineClosed)
		in.tokens.Close()
		return h
	}

	if old, ok := p.intents[in.info.IntentID]; ok {
		p.cancelLocked(old, tts.ReasonReplace)
	}
	p.order++
	in.order = p.order
	p.intents[in.info.IntentID] = in

	cur := p.active
	switch {
	case cur == nil:
		p.run(in)
	case in.info.Behavior == tts.BehaviorReplace:
		p.cancelLocked(cur, tts.ReasonReplace)
		p.run(in)
	case in.info.Behavior == tts.BehaviorInterrupt && in.info.Priority >= cur.info.Priority:
		p.cancelLocked(cur, tts.ReasonInterrupt)
		p.run(in)
	default:
		in.machine.Transition(tts.StatePending)
		p.pending = append(p.pending, in)
		p.logger.Debug("Intent pending", "intent", in.info.IntentID, "priority", in.info.Priority)
	}
	return h
}

// CancelIntent cancels the intent with the given id. Unknown or already
// canceled intents are ignored.
func (p *Pipeline) CancelIntent(id, reason string) {
	if reason == "" {
		reason = tts.ReasonCanceled
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if in, ok := p.intents[id]; ok {
		p.cancelLocked(in, reason)
	}
}

// Interrupt cancels the active intent, if any.
func (p *Pipeline) Interrupt(reason string) {
	if reason == "" {
		reason = tts.ReasonInterrupt
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		p.cancelLocked(p.active, reason)
	}
}

// StopAll cancels every known intent and stops all playback.
func (p *Pipeline) StopAll(reason string) {
	if reason == "" {
		reason = tts.ReasonStopAll
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopAllLocked(reason)
}

func (p *Pipeline) stopAllLocked(reason string) {
	all := make([]*intent, 0, len(p.intents))
	for _, in := range p.intents {
		all = append(all, in)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].order < all[j].order })
	for _, in := range all {
		p.cancelLocked(in, reason)
	}
	p.controller.StopAll(reason)
}

// On subscribes fn to events of type t and returns an unsubscribe func.
func (p *Pipeline) On(t tts.EventType, fn tts.Listener) func() {
	return p.bus.On(t, fn)
}

// OnAny subscribes fn to every event.
func (p *Pipeline) OnAny(fn tts.Listener) func() {
	return p.bus.OnAny(fn)
}

// Bus returns the event bus the pipeline publishes on.
func (p *Pipeline) Bus() *tts.Bus {
	return p.bus
}

// Active returns the id of the active intent.
func (p *Pipeline) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return "", false
	}
	return p.active.info.IntentID, true
}

// Pending returns pending intent ids in the order they will run.
func (p *Pipeline) Pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	sorted := append([]*intent(nil), p.pending...)
	sort.SliceStable(sorted, func(i, j int) bool { return runsBefore(sorted[i], sorted[j]) })
	ids := make([]string, len(sorted))
	for i, in := range sorted {
		ids[i] = in.info.IntentID
	}
	return ids
}

// Idle reports whether no intent is active or pending and no audio is playing or waiting.
func (p *Pipeline) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active == nil && len(p.pending) == 0 &&
		p.controller.ActiveCount() == 0 && p.controller.WaitingCount() == 0
}

// Wait blocks until the pipeline is idle or ctx is done.
func (p *Pipeline) Wait(ctx context.Context) error {
	for {
		// Take the channel before checking so a change in between is not missed.
		changed := p.settled.wait()
		if p.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-changed:
		}
	}
}

// Controller exposes the playback controller for introspection.
func (p *Pipeline) Controller() *audio.Controller {
	return p.controller
}

// Close stops everything, waits for intents and playback to finish, and
// drains the event bus. Intents opened after Close are canceled at once.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.stopAllLocked(tts.ReasonClosed)
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	p.controller.Wait()
	if p.uninstrument != nil {
		p.uninstrument()
	}
	p.bus.Close()
}

// cancelLocked marks in canceled and tears it down. It publishes intent-cancel
// at most once per intent.
func (p *Pipeline) cancelLocked(in *intent, reason string) {
	if in.canceled || in.machine.Current().Terminal() {
		return
	}
	in.canceled = true
	in.machine.Transition(tts.StateCanceled)
	in.cancel(fmt.Errorf("%w: %s", tts.ErrCanceled, reason))
	in.tokens.Close()
	p.publishIntent(tts.EventIntentCancel, in, reason)
	p.logger.Debug("Intent canceled", "intent", in.info.IntentID, "reason", reason)

	if p.active == in {
		p.controller.StopByIntent(in.info.IntentID, reason)
		return
	}
	for i, pin := range p.pending {
		if pin == in {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			break
		}
	}
	// Pending intents never started a run loop, so nothing else unregisters them.
	if p.intents[in.info.IntentID] == in {
		delete(p.intents, in.info.IntentID)
	}
	p.settled.broadcast()
}

// run makes in the active intent and starts its loop.
func (p *Pipeline) run(in *intent) {
	p.active = in
	in.machine.Transition(tts.StateActive)
	p.publishIntent(tts.EventIntentStart, in, "")

	p.wg.Add(1)
	go p.loop(in)
}

// next starts the best pending intent if the active slot is free.
func (p *Pipeline) next() {
	if p.active != nil || len(p.pending) == 0 {
		return
	}
	best := 0
	for i := 1; i < len(p.pending); i++ {
		if runsBefore(p.pending[i], p.pending[best]) {
			best = i
		}
	}
	in := p.pending[best]
	p.pending = append(p.pending[:best], p.pending[best+1:]...)
	p.run(in)
}

// runsBefore orders pending intents by priority, then creation.
func runsBefore(a, b *intent) bool {
	if a.info.Priority != b.info.Priority {
		return a.info.Priority > b.info.Priority
	}
	if !a.info.CreatedAt.Equal(b.info.CreatedAt) {
		return a.info.CreatedAt.Before(b.info.CreatedAt)
	}
	return a.order < b.order
}

func (p *Pipeline) loop(in *intent) {
	defer p.wg.Done()
	defer p.exit(in)

	segments := p.segment(in.ctx, in.tokens, sentence.Meta{
		StreamID: in.info.StreamID,
		IntentID: in.info.IntentID,
	})
	for {
		seg, err := segments.Next(in.ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !p.isCanceled(in) {
				p.logger.Warn("Segmentation stopped", "intent", in.info.IntentID, "error", err)
			}
			return
		}
		if p.isCanceled(in) {
			return
		}
		if !p.handle(in, seg) {
			return
		}
	}
}

// handle publishes, synthesizes and schedules one segment. It returns false
// once the intent is canceled.
func (p *Pipeline) handle(in *intent, seg tts.Segment) bool {
	p.bus.Publish(tts.Event{Type: tts.EventSegment, Segment: &seg})
	if seg.Reason == tts.ReasonSpecial {
		p.bus.Publish(tts.Event{Type: tts.EventSpecial, Segment: &seg})
	}
	if strings.TrimSpace(seg.Text) == "" {
		return true
	}

	req := tts.SynthesisRequest{
		StreamID:   seg.StreamID,
		IntentID:   seg.IntentID,
		SegmentID:  seg.SegmentID,
		Sequence:   seg.Sequence,
		OwnerID:    in.info.OwnerID,
		Text:       seg.Text,
		Special:    seg.Special,
		HasSpecial: seg.HasSpecial,
		Priority:   in.info.Priority,
		CreatedAt:  time.Now(),
	}
	p.bus.Publish(tts.Event{Type: tts.EventTTSRequest, Request: &req})

	a, err := p.synth.Synthesize(in.ctx, req)
	if p.isCanceled(in) {
		return false
	}
	if err != nil {
		terr := tts.NewTTSError(tts.CodeSynthesisFailure, err, "pipeline", "synthesize").
			WithContext("segment", seg.SegmentID)
		p.logger.Warn("Synthesis failed", "intent", in.info.IntentID, "segment", seg.SegmentID, "error", terr)
		return true
	}
	if a == nil {
		return true
	}

	res := tts.SynthesisResult{SynthesisRequest: req, Audio: a}
	p.bus.Publish(tts.Event{Type: tts.EventTTSResult, Result: &res})

	p.mu.Lock()
	defer p.mu.Unlock()
	if in.canceled {
		return false
	}
	p.controller.Schedule(tts.NewPlaybackItem(res))
	return true
}

// exit unregisters in and hands the active slot to the next pending intent.
func (p *Pipeline) exit(in *intent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.intents[in.info.IntentID] == in {
		delete(p.intents, in.info.IntentID)
	}
	if !in.canceled {
		in.machine.Transition(tts.StateEnded)
		p.publishIntent(tts.EventIntentEnd, in, "")
	}
	in.cancel(nil)
	in.tokens.Close()

	if p.active == in {
		p.active = nil
		p.next()
	}
	p.settled.broadcast()
}

// signal wakes every goroutine waiting on the current channel.
type signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func (s *signal) wait() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

func (s *signal) broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
}

func (p *Pipeline) isCanceled(in *intent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return in.canceled
}

func (p *Pipeline) publishIntent(t tts.EventType, in *intent, reason string) {
	info := in.info
	p.bus.Publish(tts.Event{Type: t, Reason: reason, Intent: &info})
}
