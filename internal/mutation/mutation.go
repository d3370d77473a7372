// Package mutation applies optimistic entity writes: the local store changes
// first and is rolled back if the world service does not accept the push.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/pkg/core"
)

var (
	// ErrRejected wraps the server's reason for refusing a push.
	ErrRejected = errors.New("update rejected")
	// ErrUnknownEntity is returned for ids missing from the local store.
	ErrUnknownEntity = errors.New("unknown entity")
)

const defaultRejection = "Server rejected update"

// Pusher sends entity mutations to the world service.
type Pusher interface {
	Push(ctx context.Context, changes []core.Entity) (core.PushResult, error)
}

// Mutator issues optimistic writes against store.
type Mutator struct {
	store  *cache.Store
	pusher Pusher
	logger *slog.Logger
}

// New creates a Mutator. A nil logger uses slog.Default.
func New(store *cache.Store, pusher Pusher, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{store: store, pusher: pusher, logger: logger}
}

// UpdateLocation moves entity id to geo locally, then pushes the whole
// entity. On a transport error or rejection the previous position is
// restored and the error returned.
func (m *Mutator) UpdateLocation(ctx context.Context, id string, geo core.Geo) error {
	next := geo
	prev, ok := m.store.Update(id, func(e *core.Entity) {
		e.Geo = &next
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}

	updated := prev
	updated.Geo = &next

	res, err := m.pusher.Push(ctx, []core.Entity{updated})
	switch {
	case err != nil:
		err = fmt.Errorf("push location: %w", err)
	case !res.Accepted:
		reason := res.Debug
		if reason == "" {
			reason = defaultRejection
		}
		err = fmt.Errorf("%w: %s", ErrRejected, reason)
	default:
		m.logger.Debug("Location update accepted", "id", id)
		return nil
	}

	m.store.Update(id, func(e *core.Entity) {
		e.Geo = prev.Geo
	})
	m.logger.Warn("Location update rolled back", "id", id, "error", err)
	return err
}
