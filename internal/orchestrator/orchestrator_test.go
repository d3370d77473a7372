package orchestrator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/uistate"
)

// recordingEngine logs every imperative call as a short string.
type recordingEngine struct {
	mu       sync.Mutex
	calls    []string
	events   *engine.Emitter
	tracking string
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{events: engine.NewEmitter()}
}

func (e *recordingEngine) log(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *recordingEngine) drain() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.calls
	e.calls = nil
	return out
}

func (e *recordingEngine) Mount(engine.Container) error              { return nil }
func (e *recordingEngine) Destroy()                                  {}
func (e *recordingEngine) ZoomIn()                                   {}
func (e *recordingEngine) ZoomOut()                                  {}
func (e *recordingEngine) FlyTo(engine.Position, time.Duration)      {}
func (e *recordingEngine) SyncEntities([]engine.RenderableEntity)    {}
func (e *recordingEngine) Events() *engine.Emitter                   { return e.events }
func (e *recordingEngine) SetBaseLayer(l engine.BaseLayer)           { e.log("layer %s", l) }
func (e *recordingEngine) SetSceneMode(m engine.SceneMode)           { e.log("mode %s", m) }
func (e *recordingEngine) SetEntityVisibility(f engine.EntityFilter) { e.log("filter %v", f.Tracks) }
func (e *recordingEngine) SetCoverageVisible(v bool)                 { e.log("coverage %v", v) }
func (e *recordingEngine) SelectEntity(id string)                    { e.log("select %q", id) }
func (e *recordingEngine) StartMeasurement(t engine.MeasurementType) { e.log("measure %s", t) }
func (e *recordingEngine) StopMeasurement()                          { e.log("measure stop") }
func (e *recordingEngine) ClearMeasurements()                        { e.log("measure clear") }

func (e *recordingEngine) TrackEntity(id string) {
	e.log("track %q", id)
	e.mu.Lock()
	lost := e.tracking != "" && id == ""
	e.tracking = id
	e.mu.Unlock()
	if lost {
		e.events.EmitTrackingLost()
	}
}

func setup(t *testing.T) (*Orchestrator, *recordingEngine, *uistate.Store) {
	t.Helper()
	eng := newRecordingEngine()
	ui := uistate.New(uistate.DefaultState())
	o := New(eng, ui, nil)
	o.Start()
	t.Cleanup(o.Stop)
	return o, eng, ui
}

func TestOrchestrator_NoCallsBeforeReady(t *testing.T) {
	o, eng, ui := setup(t)

	ui.Select("A")
	ui.SetFollowing(true)
	ui.SetBaseLayer(engine.BaseLayerSatellite)
	ui.SetCoverage(true)

	assert.False(t, o.Ready())
	assert.Empty(t, eng.drain())
}

func TestOrchestrator_ReadyAppliesEverything(t *testing.T) {
	o, eng, ui := setup(t)
	ui.Select("A")
	ui.SetFollowing(true)
	ui.SetBaseLayer(engine.BaseLayerSatellite)
	ui.SetCoverage(true)

	eng.events.EmitReady()
	assert.True(t, o.Ready())
	assert.Equal(t, []string{
		`select "A"`,
		`track "A"`,
		"layer satellite",
		"mode 2d",
		"filter {true true true true}",
		"coverage true",
	}, eng.drain())
}

func TestOrchestrator_SelectionAndTracking(t *testing.T) {
	_, eng, ui := setup(t)
	eng.events.EmitReady()
	eng.drain()

	ui.Select("A")
	assert.Equal(t, []string{`select "A"`, `track ""`}, eng.drain())

	ui.SetFollowing(true)
	assert.Equal(t, []string{`track "A"`}, eng.drain(), "following only touches tracking")

	ui.Select("B")
	assert.Equal(t, []string{`select "B"`, `track "B"`}, eng.drain())

	ui.SetFollowing(false)
	assert.Equal(t, []string{`track ""`}, eng.drain())
}

func TestOrchestrator_TrackingLostLeavesFollowMode(t *testing.T) {
	_, eng, ui := setup(t)
	eng.events.EmitReady()
	ui.Select("A")
	ui.SetFollowing(true)
	eng.drain()

	ui.Select("")
	assert.False(t, ui.State().Following)
	assert.Equal(t, []string{`select ""`, `track ""`, `track ""`}, eng.drain())
}

func TestOrchestrator_ClickSelects(t *testing.T) {
	_, eng, ui := setup(t)
	eng.events.EmitReady()

	eng.events.EmitEntityClick("A")
	assert.Equal(t, "A", ui.State().SelectedID)

	eng.events.EmitEntityClick("")
	assert.Empty(t, ui.State().SelectedID)
}

func TestOrchestrator_LayerFilterAndMeasurement(t *testing.T) {
	_, eng, ui := setup(t)
	eng.events.EmitReady()
	eng.drain()

	ui.SetSceneMode(engine.SceneMode3D)
	ui.SetTrackVisible(engine.Hostile, false)
	ui.SetCoverage(true)
	ui.SetMeasurement(engine.MeasureDistance)
	ui.SetMeasurement("")

	assert.Equal(t, []string{
		"mode 3d",
		"filter {true false true true}",
		"coverage true",
		"measure distance",
		"measure stop",
	}, eng.drain())
}

func TestOrchestrator_Stop(t *testing.T) {
	o, eng, ui := setup(t)
	eng.events.EmitReady()
	eng.drain()

	o.Stop()
	ui.Select("A")
	eng.events.EmitEntityClick("B")

	assert.Empty(t, eng.drain())
	assert.Equal(t, "A", ui.State().SelectedID)
	assert.False(t, o.Ready())
}
