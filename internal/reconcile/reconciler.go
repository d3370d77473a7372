// Package reconcile consumes the world change stream and folds it into the
// local snapshot in batches.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/config"
	"github.com/hydra/aware/internal/world"
	"github.com/hydra/aware/pkg/core"
)

// ErrReconnectExhausted is recorded once an outage outlasts the reconnect ceiling.
var ErrReconnectExhausted = errors.New("max reconnect duration reached")

var errStreamClosed = errors.New("stream closed by server")

const (
	DefaultBatchInterval        = 100 * time.Millisecond
	DefaultReconnectDelay       = time.Second
	DefaultMaxReconnectDuration = 60 * time.Second
)

// Watcher opens the server-streamed watch subscription.
type Watcher interface {
	Watch(ctx context.Context) (world.EventStream, error)
}

// Status is a point-in-time view of the reconciler.
type Status struct {
	Running   bool
	Connected bool
	Terminal  bool
	Err       error
	Pending   int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock replaces the real clock that schedules flushes and reconnects.
func WithClock(c clockwork.Clock) Option {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// WithMeterProvider sets where the stream counters are recorded. The global
// provider is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Reconciler) {
		r.meterProvider = mp
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// Reconciler owns the stream subscription, the pending batch and the flush
// and reconnect timers. Every timer captures the generation it was scheduled
// in; Start and Stop bump the generation so stale firings do nothing.
type Reconciler struct {
	watcher Watcher
	store   *cache.Store
	cfg     config.StreamConfig
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics metrics

	meterProvider metric.MeterProvider

	mu             sync.Mutex
	gen            uint64
	running        bool
	terminal       bool
	cancel         context.CancelFunc
	batch          *cache.Batch
	flushTimer     clockwork.Timer
	reconnectTimer clockwork.Timer
	outageStart    time.Time
}

// New creates a Reconciler writing into store. Zero durations in cfg fall
// back to the defaults.
func New(watcher Watcher, store *cache.Store, cfg config.StreamConfig, opts ...Option) (*Reconciler, error) {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = DefaultBatchInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.MaxReconnectDuration <= 0 {
		cfg.MaxReconnectDuration = DefaultMaxReconnectDuration
	}

	r := &Reconciler{
		watcher: watcher,
		store:   store,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		batch:   cache.NewBatch(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.meterProvider == nil {
		r.meterProvider = otel.GetMeterProvider()
	}

	m, err := newMetrics(r.meterProvider)
	if err != nil {
		return nil, err
	}
	r.metrics = m

	return r, nil
}

// Start opens the subscription. It is a no-op while already running.
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true
	r.terminal = false
	r.outageStart = time.Time{}
	r.gen++
	if r.flushTimer != nil {
		r.flushTimer.Stop()
		r.flushTimer = nil
	}
	r.batch.Clear()
	r.store.ClearError()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.connectLocked(ctx, r.gen)
}

// Stop releases the subscription, cancels the scheduled flush and reconnect,
// then clears the connected state. Safe to call repeatedly.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	r.gen++
	r.running = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.flushTimer != nil {
		r.flushTimer.Stop()
		r.flushTimer = nil
	}
	if r.reconnectTimer != nil {
		r.reconnectTimer.Stop()
		r.reconnectTimer = nil
	}
	r.batch.Clear()
	r.store.SetConnected(false)
	r.mu.Unlock()
}

// Status reports connectivity, the last stream error and the pending batch size.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	running, terminal, pending := r.running, r.terminal, r.batch.Len()
	r.mu.Unlock()

	connected, err := r.store.Status()
	return Status{
		Running:   running,
		Connected: connected,
		Terminal:  terminal,
		Err:       err,
		Pending:   pending,
	}
}

func (r *Reconciler) connectLocked(ctx context.Context, gen uint64) {
	go r.consume(ctx, gen)
}

func (r *Reconciler) consume(ctx context.Context, gen uint64) {
	stream, err := r.watcher.Watch(ctx)
	if err != nil {
		r.fail(ctx, gen, err)
		return
	}
	defer stream.Close()

	receivedFirst := false
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errStreamClosed
			}
			r.fail(ctx, gen, err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		if !receivedFirst {
			receivedFirst = true
			if !r.markConnected(gen) {
				return
			}
		}
		r.handle(gen, ev)
	}
}

func (r *Reconciler) markConnected(gen uint64) bool {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return false
	}
	r.outageStart = time.Time{}
	r.store.SetConnected(true)
	r.mu.Unlock()

	r.logger.Info("World stream connected")
	return true
}

func (r *Reconciler) handle(gen uint64, ev core.ChangeEvent) {
	r.metrics.received.Add(context.Background(), 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}

	id := ev.Entity.ID
	switch ev.Kind {
	case core.ChangeUpdated:
		if id == "" {
			return
		}
		r.batch.Upsert(ev.Entity)
	case core.ChangeExpired, core.ChangeUnobserved:
		if id == "" {
			return
		}
		r.batch.Delete(id)
	default:
		r.logger.Debug("Ignoring change event", "kind", ev.Kind, "id", id)
		return
	}

	if r.flushTimer == nil {
		r.flushTimer = r.clock.AfterFunc(r.cfg.BatchInterval, func() { r.flush(gen) })
	}
}

func (r *Reconciler) flush(gen uint64) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.flushTimer = nil
	batch := r.batch
	r.batch = cache.NewBatch()
	r.mu.Unlock()

	if r.store.Apply(batch) {
		r.metrics.flushes.Add(context.Background(), 1)
	}
}

// fail drives the reconnect state machine. Cancellation is not a failure.
func (r *Reconciler) fail(ctx context.Context, gen uint64, err error) {
	if ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}

	now := r.clock.Now()
	if r.outageStart.IsZero() {
		r.outageStart = now
	}
	elapsed := now.Sub(r.outageStart)

	if elapsed < r.cfg.MaxReconnectDuration {
		r.reconnectTimer = r.clock.AfterFunc(r.cfg.ReconnectDelay, func() { r.reconnect(ctx, gen) })
		r.store.SetError(err)
		r.mu.Unlock()

		r.logger.Error("World stream error", "error", err, "outage", elapsed)
		return
	}

	// Pending flushes still land; only the subscription is released.
	r.terminal = true
	r.running = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.store.SetError(fmt.Errorf("%w: %w", ErrReconnectExhausted, err))
	r.mu.Unlock()

	r.logger.Error("World stream giving up", "error", err, "outage", elapsed)
}

func (r *Reconciler) reconnect(ctx context.Context, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || ctx.Err() != nil {
		return
	}
	r.reconnectTimer = nil

	r.metrics.reconnects.Add(context.Background(), 1)
	r.logger.Info("Reconnecting world stream")
	r.connectLocked(ctx, gen)
}
