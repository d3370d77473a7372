// Package orchestrator forwards view state changes to the map engine once
// it is ready, and feeds engine events back into the view state.
package orchestrator

import (
	"log/slog"
	"sync"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/uistate"
)

// Orchestrator owns no data; it only holds subscriptions.
type Orchestrator struct {
	engine engine.Engine
	ui     *uistate.Store
	logger *slog.Logger

	mu     sync.Mutex
	ready  bool
	cancel []func()
}

// New creates an Orchestrator. A nil logger uses slog.Default.
func New(eng engine.Engine, ui *uistate.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{engine: eng, ui: ui, logger: logger}
}

// Start subscribes to the engine events and the view state. Call it before
// mounting the engine so the ready event is not missed.
func (o *Orchestrator) Start() {
	ev := o.engine.Events()

	o.mu.Lock()
	o.cancel = append(o.cancel,
		ev.OnReady(o.handleReady),
		ev.OnEntityClick(o.handleClick),
		ev.OnTrackingLost(o.handleTrackingLost),
		o.ui.Subscribe(o.handleChange),
	)
	o.mu.Unlock()
}

// Stop drops all subscriptions. The engine is left as it is.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.ready = false
	o.mu.Unlock()

	for _, fn := range cancel {
		fn()
	}
}

// Ready reports whether the engine signalled ready.
func (o *Orchestrator) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

func (o *Orchestrator) handleReady() {
	o.mu.Lock()
	o.ready = true
	o.mu.Unlock()

	st := o.ui.State()
	o.logger.Debug("Map engine ready, applying view state",
		"selected", st.SelectedID, "layer", st.BaseLayer, "mode", st.SceneMode)

	o.engine.SelectEntity(st.SelectedID)
	o.syncTracking(st)
	o.engine.SetBaseLayer(st.BaseLayer)
	o.engine.SetSceneMode(st.SceneMode)
	o.engine.SetEntityVisibility(st.Filter)
	o.engine.SetCoverageVisible(st.Coverage)
	if st.Measurement != "" {
		o.syncMeasurement(st)
	}
}

func (o *Orchestrator) handleChange(prev, next uistate.State) {
	if !o.Ready() {
		return
	}

	if prev.SelectedID != next.SelectedID {
		o.engine.SelectEntity(next.SelectedID)
	}
	if prev.SelectedID != next.SelectedID || prev.Following != next.Following {
		o.syncTracking(next)
	}
	if prev.BaseLayer != next.BaseLayer {
		o.engine.SetBaseLayer(next.BaseLayer)
	}
	if prev.SceneMode != next.SceneMode {
		o.engine.SetSceneMode(next.SceneMode)
	}
	if !prev.Filter.Equal(next.Filter) {
		o.engine.SetEntityVisibility(next.Filter)
	}
	if prev.Coverage != next.Coverage {
		o.engine.SetCoverageVisible(next.Coverage)
	}
	if prev.Measurement != next.Measurement {
		o.syncMeasurement(next)
	}
}

// syncTracking follows the selection only while follow mode is on.
func (o *Orchestrator) syncTracking(st uistate.State) {
	if st.Following && st.SelectedID != "" {
		o.engine.TrackEntity(st.SelectedID)
		return
	}
	o.engine.TrackEntity("")
}

func (o *Orchestrator) syncMeasurement(st uistate.State) {
	m, ok := engine.AsMeasurer(o.engine)
	if !ok {
		o.logger.Warn("Map engine has no measurement tools", "type", st.Measurement)
		return
	}
	if st.Measurement == "" {
		m.StopMeasurement()
		return
	}
	m.StartMeasurement(st.Measurement)
}

func (o *Orchestrator) handleClick(id string) {
	o.ui.Select(id)
}

func (o *Orchestrator) handleTrackingLost() {
	o.ui.SetFollowing(false)
}
