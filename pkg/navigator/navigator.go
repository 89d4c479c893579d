package navigator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/mlens/pkg/navigator"

// Navigator is the step controller of one algorithm instance.
//
// It moves between configuring, loading, running and error. Builds run on
// their own goroutine and auto-play on a ticker goroutine; both carry the
// generation they were started in, and any result that arrives after the
// generation moved on (stop, configure, close) is discarded.
type Navigator[C any, S any] struct {
	def  ports.Definition[C, S]
	meta domain.Meta
	opts options

	mu         sync.Mutex
	box        *Container[C, S]
	status     domain.Status
	index      int
	playing    bool
	err        error
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	stopPlay   chan struct{}
	subs       map[chan domain.View]struct{}
	closed     bool
}

// New returns a navigator in the configuring state holding def's initial step for cfg.
func New[C any, S any](def ports.Definition[C, S], cfg C, opts ...Option) *Navigator[C, S] {
	o := options{
		tick:   DefaultTickInterval,
		logger: logging.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meta := def.Meta()
	o.logger = o.logger.With("algorithm", meta.Slug)

	return &Navigator[C, S]{
		def:    def,
		meta:   meta,
		opts:   o,
		box:    NewContainer(cfg, def.InitialStep(cfg)),
		status: domain.StatusConfiguring,
		subs:   make(map[chan domain.View]struct{}),
	}
}

// effects collects hook invocations so they run after the lock is released.
type effects struct {
	events  []func(context.Context)
	changed bool
}

func (f *effects) add(fn func(context.Context)) {
	f.events = append(f.events, fn)
}

func (n *Navigator[C, S]) flush(fx effects) {
	ctx := context.Background()
	for _, fn := range fx.events {
		fn(ctx)
	}
	if fx.changed {
		n.broadcast()
	}
}

func (n *Navigator[C, S]) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Algorithm: n.meta.Slug}
}

func (n *Navigator[C, S]) setStatus(fx *effects, to domain.Status) {
	from := n.status
	if from == to {
		return
	}
	n.status = to
	fx.changed = true
	n.opts.logger.Debug("Status changed", "from", from, "to", to)
	if h := n.opts.hooks.OnStatusChange; h != nil {
		ev := &domain.StatusEvent{EventBase: n.base(domain.EventStatusChange), From: from, To: to}
		fx.add(func(ctx context.Context) { h(ctx, ev) })
	}
}

func (n *Navigator[C, S]) setIndex(fx *effects, to int, auto bool) {
	from := n.index
	if from == to {
		return
	}
	n.index = to
	fx.changed = true
	if h := n.opts.hooks.OnStepChange; h != nil {
		ev := &domain.StepEvent{
			EventBase: n.base(domain.EventStepChange),
			From:      from,
			To:        to,
			StepType:  n.box.At(to).Type,
			Auto:      auto,
		}
		fx.add(func(ctx context.Context) { h(ctx, ev) })
	}
}

// Meta returns the algorithm metadata.
func (n *Navigator[C, S]) Meta() domain.Meta {
	return n.meta
}

// Start moves from configuring (or error) to loading and builds the trace in
// the background. It is a no-op while loading or running, and after Close.
// ctx only scopes values and tracing; its cancellation does not abort the build.
func (n *Navigator[C, S]) Start(ctx context.Context) {
	n.mu.Lock()
	if n.closed || n.status == domain.StatusLoading || n.status == domain.StatusRunning {
		n.mu.Unlock()
		return
	}

	var fx effects
	n.err = nil
	n.generation++
	gen := n.generation
	buildCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	n.cancel = cancel
	done := make(chan struct{})
	n.done = done
	cfg, initial := n.box.Config(), n.box.Initial()
	n.setStatus(&fx, domain.StatusLoading)
	n.mu.Unlock()

	n.flush(fx)
	go n.build(buildCtx, gen, cfg, initial, done)
}

func (n *Navigator[C, S]) build(ctx context.Context, gen uint64, cfg C, initial domain.Step[S], done chan struct{}) {
	defer close(done)

	started := time.Now()
	steps, cached, err := n.produce(ctx, cfg, initial)
	elapsed := time.Since(started)

	n.mu.Lock()
	if gen != n.generation || n.closed {
		n.mu.Unlock()
		n.opts.logger.Debug("Discarding stale trace", "generation", gen)
		return
	}
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}

	var fx effects
	if err == nil {
		err = n.box.SetSteps(steps)
	}
	if err != nil {
		n.err = err
		if h := n.opts.hooks.OnTraceFailed; h != nil {
			ev := &domain.TraceEvent{EventBase: n.base(domain.EventTraceFailed), Duration: elapsed, Err: err}
			fx.add(func(ctx context.Context) { h(ctx, ev) })
		}
		n.setStatus(&fx, domain.StatusError)
	} else {
		n.index = 0
		n.playing = false
		if h := n.opts.hooks.OnTraceReady; h != nil {
			ev := &domain.TraceEvent{EventBase: n.base(domain.EventTraceReady), Steps: len(steps), Duration: elapsed, Cached: cached}
			fx.add(func(ctx context.Context) { h(ctx, ev) })
		}
		n.setStatus(&fx, domain.StatusRunning)
	}
	n.mu.Unlock()

	if err != nil {
		n.opts.logger.Warn("Trace build failed", "err", err, "duration", elapsed)
	} else {
		n.opts.logger.Info("Trace ready", "steps", len(steps), "cached", cached, "duration", elapsed)
	}
	n.flush(fx)
}

func (n *Navigator[C, S]) produce(ctx context.Context, cfg C, initial domain.Step[S]) ([]domain.Step[S], bool, error) {
	ctx, span := n.opts.tracer.Start(ctx, "navigator.Build",
		trace.WithAttributes(attribute.String("algorithm", n.meta.Slug)),
	)
	defer span.End()

	key := n.cacheKey(cfg)
	if key != "" {
		if steps, ok := n.loadCached(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cached", true), attribute.Int("steps", len(steps)))
			return steps, true, nil
		}
	}

	steps, err := n.run(ctx, cfg, initial)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("cached", false), attribute.Int("steps", len(steps)))

	if key != "" {
		n.storeCached(ctx, key, steps)
	}
	return steps, false, nil
}

// run invokes the builder and converts a panic into ErrBuild.
func (n *Navigator[C, S]) run(ctx context.Context, cfg C, initial domain.Step[S]) (steps []domain.Step[S], err error) {
	defer func() {
		if r := recover(); r != nil {
			steps = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrBuild, r)
		}
	}()
	return n.def.Steps(ctx, cfg, initial)
}

// cacheKey addresses a trace by the content of its configuration.
// Configurations that cannot be encoded are never cached.
func (n *Navigator[C, S]) cacheKey(cfg C) string {
	if n.opts.cache == nil {
		return ""
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		n.opts.logger.Debug("Config is not cacheable", "err", err)
		return ""
	}
	sum := sha256.Sum256(data)
	key := n.meta.Slug + ":"
	if ns, ok := n.def.(ports.CacheNamespacer); ok {
		key += ns.CacheNamespace() + ":"
	}
	return key + hex.EncodeToString(sum[:])
}

func (n *Navigator[C, S]) loadCached(ctx context.Context, key string) ([]domain.Step[S], bool) {
	data, err := n.opts.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			n.opts.logger.Warn("Trace cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	var steps []domain.Step[S]
	if err := json.Unmarshal(data, &steps); err != nil {
		n.opts.logger.Warn("Ignoring undecodable cached trace", "key", key, "err", err)
		return nil, false
	}
	if domain.ValidateTrace(steps) != nil {
		return nil, false
	}
	return steps, true
}

func (n *Navigator[C, S]) storeCached(ctx context.Context, key string, steps []domain.Step[S]) {
	data, err := json.Marshal(steps)
	if err != nil {
		n.opts.logger.Warn("Trace is not encodable", "err", err)
		return
	}
	if err := n.opts.cache.Put(ctx, key, data); err != nil {
		n.opts.logger.Warn("Trace cache write failed", "key", key, "err", err)
	}
}

// Wait blocks until the in-flight build (if any) finishes and returns the
// build error when the navigator ended in the error state.
func (n *Navigator[C, S]) Wait(ctx context.Context) error {
	n.mu.Lock()
	done := n.done
	n.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status == domain.StatusError {
		return n.err
	}
	return nil
}

// Forward moves one step ahead, clamped to the last step.
func (n *Navigator[C, S]) Forward() {
	n.move(func(i int) int { return i + 1 })
}

// Backward moves one step back, clamped to the first step.
func (n *Navigator[C, S]) Backward() {
	n.move(func(i int) int { return i - 1 })
}

// Goto jumps to index, clamped into the trace.
func (n *Navigator[C, S]) Goto(index int) {
	n.move(func(int) int { return index })
}

// Reset returns to the first step without leaving running.
func (n *Navigator[C, S]) Reset() {
	n.move(func(int) int { return 0 })
}

// move applies a manual navigation. Manual moves pause auto-play.
func (n *Navigator[C, S]) move(target func(current int) int) {
	n.mu.Lock()
	if n.status != domain.StatusRunning {
		n.mu.Unlock()
		return
	}
	var fx effects
	n.pauseLocked(&fx)
	n.setIndex(&fx, clamp(target(n.index), 0, n.box.Len()-1), false)
	n.mu.Unlock()
	n.flush(fx)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Play starts auto-advancing one step per tick. Calling it while playing is a no-op.
func (n *Navigator[C, S]) Play() {
	n.mu.Lock()
	if n.status != domain.StatusRunning || n.playing {
		n.mu.Unlock()
		return
	}
	var fx effects
	n.playing = true
	fx.changed = true
	stop := make(chan struct{})
	n.stopPlay = stop
	gen := n.generation
	n.mu.Unlock()

	n.flush(fx)
	go n.tick(gen, stop)
}

func (n *Navigator[C, S]) tick(gen uint64, stop chan struct{}) {
	t := time.NewTicker(n.opts.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		if !n.advance(gen, stop) {
			return
		}
	}
}

// advance performs one auto-play tick. It returns false once the tick owner
// (identified by its stop channel and generation) is no longer current.
func (n *Navigator[C, S]) advance(gen uint64, stop chan struct{}) bool {
	n.mu.Lock()
	if gen != n.generation || !n.playing || n.stopPlay != stop {
		n.mu.Unlock()
		return false
	}
	var fx effects
	more := true
	if n.index < n.box.Len()-1 {
		n.setIndex(&fx, n.index+1, true)
	} else {
		n.pauseLocked(&fx)
		more = false
	}
	n.mu.Unlock()
	n.flush(fx)
	return more
}

// Pause stops auto-play. No tick fires after it returns.
func (n *Navigator[C, S]) Pause() {
	n.mu.Lock()
	var fx effects
	n.pauseLocked(&fx)
	n.mu.Unlock()
	n.flush(fx)
}

func (n *Navigator[C, S]) pauseLocked(fx *effects) {
	if !n.playing {
		return
	}
	n.playing = false
	close(n.stopPlay)
	n.stopPlay = nil
	fx.changed = true
}

// invalidateLocked makes every in-flight build and tick inert.
func (n *Navigator[C, S]) invalidateLocked(fx *effects) {
	n.generation++
	n.pauseLocked(fx)
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.done = nil
}

// Stop discards the trace and returns to configuring.
func (n *Navigator[C, S]) Stop() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	cfg := n.box.Config()
	n.resetLocked(cfg)
}

// Configure replaces the configuration from any state. The trace becomes
// [initial step of cfg] and the navigator returns to configuring.
func (n *Navigator[C, S]) Configure(cfg C) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.resetLocked(cfg)
}

// resetLocked must be called with the lock held; it releases it.
func (n *Navigator[C, S]) resetLocked(cfg C) {
	var fx effects
	n.invalidateLocked(&fx)
	n.box.Reset(cfg, n.def.InitialStep(cfg))
	n.index = 0
	n.err = nil
	fx.changed = true
	n.setStatus(&fx, domain.StatusConfiguring)
	n.mu.Unlock()
	n.flush(fx)
}

// Close tears the navigator down and closes every subscription.
func (n *Navigator[C, S]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	var fx effects
	n.invalidateLocked(&fx)
	n.closed = true
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}

// View returns a snapshot for renderers.
func (n *Navigator[C, S]) View() domain.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewLocked()
}

func (n *Navigator[C, S]) viewLocked() domain.View {
	total := n.box.Len()
	running := n.status == domain.StatusRunning
	v := domain.View{
		Algorithm:     n.meta.Slug,
		Status:        n.status,
		Index:         n.index,
		Total:         total,
		Playing:       n.playing,
		CanGoForward:  running && n.index < total-1,
		CanGoBackward: running && n.index > 0,
		Step:          n.box.At(n.index).Erase(),
		Config:        n.box.Config(),
	}
	if n.err != nil {
		v.Error = n.err.Error()
	}
	return v
}

// Status returns the current phase.
func (n *Navigator[C, S]) Status() domain.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// Err returns the reason of the last failed build, if the navigator is in the error state.
func (n *Navigator[C, S]) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// Current returns the typed current step.
func (n *Navigator[C, S]) Current() domain.Step[S] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.box.At(n.index)
}

// Steps returns the typed trace. Callers must not modify it.
func (n *Navigator[C, S]) Steps() []domain.Step[S] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.box.Steps()
}

// Config returns the current configuration.
func (n *Navigator[C, S]) Config() C {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.box.Config()
}

// Subscribe returns a channel receiving the current view immediately and
// after every change. Slow subscribers miss intermediate views.
func (n *Navigator[C, S]) Subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 16)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	n.subs[ch] = struct{}{}
	ch <- n.viewLocked()
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[ch]; ok {
				delete(n.subs, ch)
				close(ch)
			}
		})
	}
}

func (n *Navigator[C, S]) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || len(n.subs) == 0 {
		return
	}
	v := n.viewLocked()
	for ch := range n.subs {
		select {
		case ch <- v:
		default:
			n.opts.logger.Debug("Subscriber buffer full, dropping view")
		}
	}
}
