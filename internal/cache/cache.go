package cache

import (
	"sort"
	"sync"

	"github.com/hydra/aware/pkg/core"
)

// Snapshot is an immutable view of all known entities. The backing map is
// never written after the Snapshot is published, so it may be shared freely.
type Snapshot struct {
	entities map[string]core.Entity
}

// NewSnapshot builds a Snapshot from a list of entities, keyed by id.
func NewSnapshot(entities ...core.Entity) Snapshot {
	m := make(map[string]core.Entity, len(entities))
	for _, e := range entities {
		m[e.ID] = e
	}
	return Snapshot{entities: m}
}

// Get returns the entity with the given id.
func (s Snapshot) Get(id string) (core.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Len returns the number of entities.
func (s Snapshot) Len() int {
	return len(s.entities)
}

// IDs returns all entity ids in ascending order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entities returns all entities ordered by id.
func (s Snapshot) Entities() []core.Entity {
	out := make([]core.Entity, 0, len(s.entities))
	for _, id := range s.IDs() {
		out = append(out, s.entities[id])
	}
	return out
}

// Listener is notified with the new snapshot after every mutation.
type Listener func(Snapshot)

// Store exclusively owns the local snapshot. Mutations copy the current map
// and publish a new Snapshot; readers never observe partial batches.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	connected bool
	err       error

	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		snap:      Snapshot{entities: map[string]core.Entity{}},
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Get returns a single entity from the current snapshot.
func (s *Store) Get(id string) (core.Entity, bool) {
	return s.Snapshot().Get(id)
}

// Apply applies all pending deletes, then all pending upserts, as one
// mutation and clears the batch. Returns false if the batch was empty.
func (s *Store) Apply(b *Batch) bool {
	if b.Empty() {
		return false
	}

	s.mu.Lock()
	next := make(map[string]core.Entity, len(s.snap.entities)+len(b.upserts))
	for id, e := range s.snap.entities {
		next[id] = e
	}
	for id := range b.deletes {
		delete(next, id)
	}
	for id, e := range b.upserts {
		next[id] = e
	}
	s.snap = Snapshot{entities: next}
	snap := s.snap
	s.mu.Unlock()

	b.Clear()
	s.notify(snap)
	return true
}

// Update replaces the entity with id by fn's modification of a copy of it.
// Returns the previous value and false if the id is unknown.
func (s *Store) Update(id string, fn func(*core.Entity)) (core.Entity, bool) {
	s.mu.Lock()
	prev, ok := s.snap.entities[id]
	if !ok {
		s.mu.Unlock()
		return core.Entity{}, false
	}
	updated := prev
	fn(&updated)

	next := make(map[string]core.Entity, len(s.snap.entities))
	for k, e := range s.snap.entities {
		next[k] = e
	}
	next[id] = updated
	s.snap = Snapshot{entities: next}
	snap := s.snap
	s.mu.Unlock()

	s.notify(snap)
	return prev, true
}

// SetConnected records stream connectivity.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// SetError records the last stream error and marks the store disconnected.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if err != nil {
		s.connected = false
	}
}

// ClearError forgets the last stream error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Status returns connectivity and the last stream error.
func (s *Store) Status() (connected bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected, s.err
}

// Reset drops all entities, connectivity and error state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = Snapshot{entities: map[string]core.Entity{}}
	s.connected = false
	s.err = nil
	snap := s.snap
	s.mu.Unlock()

	s.notify(snap)
}

// Subscribe registers l for snapshot changes and returns a cancel function.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.RUnlock()

	for _, l := range ls {
		l(snap)
	}
}
