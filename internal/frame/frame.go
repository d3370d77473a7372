// Package frame pushes every snapshot through the projection into the map
// engine. Snapshots are read, projected and dropped; nothing is retained
// between frames.
package frame

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/projection"
)

// DefaultRefreshInterval re-projects without a flush so lifetimes expire on time.
const DefaultRefreshInterval = time.Second

// Syncer receives the projected entity list.
type Syncer interface {
	SyncEntities(entities []engine.RenderableEntity)
}

// Loop drives Syncer from a Store.
type Loop struct {
	store  *cache.Store
	syncer Syncer
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	cancel func()
	frames uint64
	last   int
}

// Option configures a Loop.
type Option func(*Loop)

// WithNow replaces time.Now for expiry checks.
func WithNow(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a Loop.
func New(store *cache.Store, syncer Syncer, opts ...Option) *Loop {
	l := &Loop{
		store:  store,
		syncer: syncer,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start syncs the current snapshot and then every published one.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return
	}
	l.cancel = l.store.Subscribe(l.render)
	l.mu.Unlock()

	l.Sync()
}

// Stop unsubscribes from the store.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Run re-syncs every interval until ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sync()
		}
	}
}

// Sync renders the store's current snapshot.
func (l *Loop) Sync() {
	l.render(l.store.Snapshot())
}

// Stats returns the number of frames rendered and the size of the last one.
func (l *Loop) Stats() (frames uint64, entities int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames, l.last
}

// render serialises frames so the engine sees them in order.
func (l *Loop) render(snap cache.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entities := projection.Project(snap, l.now())
	l.syncer.SyncEntities(entities)
	l.frames++
	if len(entities) != l.last {
		l.logger.Debug("Frame entity count changed", "from", l.last, "to", len(entities))
	}
	l.last = len(entities)
}
