package cache

import "github.com/hydra/aware/pkg/core"

// Batch accumulates pending changes between flushes. Within a batch the last
// change for an id wins: an upsert cancels a pending delete and vice versa.
type Batch struct {
	upserts map[string]core.Entity
	deletes map[string]struct{}
}

func NewBatch() *Batch {
	return &Batch{
		upserts: make(map[string]core.Entity),
		deletes: make(map[string]struct{}),
	}
}

// Upsert records a wholesale replacement of the entity.
func (b *Batch) Upsert(e core.Entity) {
	delete(b.deletes, e.ID)
	b.upserts[e.ID] = e
}

// Delete records the removal of id.
func (b *Batch) Delete(id string) {
	delete(b.upserts, id)
	b.deletes[id] = struct{}{}
}

// Empty reports whether there is nothing to apply.
func (b *Batch) Empty() bool {
	return len(b.upserts) == 0 && len(b.deletes) == 0
}

// Len returns the number of ids with a pending change.
func (b *Batch) Len() int {
	return len(b.upserts) + len(b.deletes)
}

// Clear drops all pending changes.
func (b *Batch) Clear() {
	clear(b.upserts)
	clear(b.deletes)
}
