package engine

import "sync"

// Emitter fans engine events out to subscribers. Handlers run on the
// emitting goroutine, outside any backend lock.
type Emitter struct {
	mu           sync.Mutex
	next         int
	ready        map[int]func()
	entityClick  map[int]func(id string)
	trackingLost map[int]func()
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{
		ready:        make(map[int]func()),
		entityClick:  make(map[int]func(string)),
		trackingLost: make(map[int]func()),
	}
}

// OnReady subscribes to the ready event and returns an unsubscribe func.
func (e *Emitter) OnReady(h func()) (off func()) {
	return subscribe(e, e.ready, h)
}

// OnEntityClick subscribes to clicks; id is "" for a background click.
func (e *Emitter) OnEntityClick(h func(id string)) (off func()) {
	return subscribe(e, e.entityClick, h)
}

// OnTrackingLost subscribes to the end of entity tracking.
func (e *Emitter) OnTrackingLost(h func()) (off func()) {
	return subscribe(e, e.trackingLost, h)
}

func subscribe[H any](e *Emitter, set map[int]H, h H) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	set[id] = h
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(set, id)
	}
}

func snapshot[H any](e *Emitter, set map[int]H) []H {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]H, 0, len(set))
	for _, h := range set {
		out = append(out, h)
	}
	return out
}

func (e *Emitter) EmitReady() {
	for _, h := range snapshot(e, e.ready) {
		h()
	}
}

func (e *Emitter) EmitEntityClick(id string) {
	for _, h := range snapshot(e, e.entityClick) {
		h(id)
	}
}

func (e *Emitter) EmitTrackingLost() {
	for _, h := range snapshot(e, e.trackingLost) {
		h()
	}
}

// Clear drops every subscriber.
func (e *Emitter) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.ready)
	clear(e.entityClick)
	clear(e.trackingLost)
}
