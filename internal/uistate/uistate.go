// Package uistate holds the operator's view state: selection, follow mode,
// map layers, visibility filter and measurement tool.
package uistate

import (
	"sync"

	"github.com/hydra/aware/internal/engine"
)

// State is a copy of the view state.
type State struct {
	SelectedID  string
	Following   bool
	BaseLayer   engine.BaseLayer
	SceneMode   engine.SceneMode
	Filter      engine.EntityFilter
	Coverage    bool
	Measurement engine.MeasurementType
}

// Listener receives the state before and after a change.
type Listener func(prev, next State)

// Store guards the view state. Listeners run after the lock is released and
// only when something changed.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// DefaultState is the initial view: dark 2D map, every affiliation visible.
func DefaultState() State {
	return State{
		BaseLayer: engine.BaseLayerDark,
		SceneMode: engine.SceneMode2D,
		Filter:    engine.DefaultFilter(),
	}
}

// New creates a store with the given initial state.
func New(initial State) *Store {
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
	}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns a cancel function.
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

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	prev := s.state
	next := prev
	fn(&next)
	if equal(prev, next) {
		s.mu.Unlock()
		return
	}
	s.state = next
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(prev, next)
	}
}

func equal(a, b State) bool {
	return a.SelectedID == b.SelectedID &&
		a.Following == b.Following &&
		a.BaseLayer == b.BaseLayer &&
		a.SceneMode == b.SceneMode &&
		a.Filter.Equal(b.Filter) &&
		a.Coverage == b.Coverage &&
		a.Measurement == b.Measurement
}

// Select sets the selected entity; "" clears the selection.
func (s *Store) Select(id string) {
	s.update(func(st *State) { st.SelectedID = id })
}

// ClearSelection drops the selection and leaves follow mode.
func (s *Store) ClearSelection() {
	s.update(func(st *State) {
		st.SelectedID = ""
		st.Following = false
	})
}

func (s *Store) SetFollowing(following bool) {
	s.update(func(st *State) { st.Following = following })
}

func (s *Store) SetBaseLayer(layer engine.BaseLayer) {
	s.update(func(st *State) { st.BaseLayer = layer })
}

func (s *Store) SetSceneMode(mode engine.SceneMode) {
	s.update(func(st *State) { st.SceneMode = mode })
}

// SetFilter replaces the visibility filter. The sensor map is copied.
func (s *Store) SetFilter(filter engine.EntityFilter) {
	sensors := make(map[string]bool, len(filter.Sensors))
	for k, v := range filter.Sensors {
		sensors[k] = v
	}
	filter.Sensors = sensors
	s.update(func(st *State) { st.Filter = filter })
}

// SetTrackVisible toggles one affiliation in the filter.
func (s *Store) SetTrackVisible(a engine.Affiliation, visible bool) {
	s.update(func(st *State) {
		tracks := st.Filter.Tracks
		switch a {
		case engine.Friend:
			tracks.Friend = visible
		case engine.Hostile:
			tracks.Hostile = visible
		case engine.Neutral:
			tracks.Neutral = visible
		default:
			tracks.Unknown = visible
		}
		st.Filter = engine.EntityFilter{Tracks: tracks, Sensors: st.Filter.Sensors}
	})
}

func (s *Store) SetCoverage(visible bool) {
	s.update(func(st *State) { st.Coverage = visible })
}

// SetMeasurement selects the active measurement tool; "" stops measuring.
func (s *Store) SetMeasurement(t engine.MeasurementType) {
	s.update(func(st *State) { st.Measurement = t })
}
