// Package engine defines the capability set every map renderer backend
// implements, and the value types passed across it.
package engine

import (
	"errors"
	"time"
)

// DefaultFlyDuration is used by FlyTo when no duration is given.
const DefaultFlyDuration = 1500 * time.Millisecond

// ErrUnsupportedContainer is returned by Mount for a container the backend cannot draw on.
var ErrUnsupportedContainer = errors.New("unsupported container")

// Container is the drawing target handed to Mount. Each backend accepts
// its own concrete container type.
type Container any

// Engine is the required core of a renderer backend. An empty id passed to
// SelectEntity or TrackEntity clears the selection or tracking.
type Engine interface {
	Mount(c Container) error
	Destroy()

	ZoomIn()
	ZoomOut()
	FlyTo(p Position, duration time.Duration)

	SetBaseLayer(layer BaseLayer)
	SetSceneMode(mode SceneMode)

	SyncEntities(entities []RenderableEntity)
	SetEntityVisibility(filter EntityFilter)
	SetCoverageVisible(visible bool)

	SelectEntity(id string)
	TrackEntity(id string)

	Events() *Emitter
}

// Measurer is the optional measurement capability.
type Measurer interface {
	StartMeasurement(t MeasurementType)
	StopMeasurement()
	ClearMeasurements()
}

// AsMeasurer returns e's measurement capability if it has one.
func AsMeasurer(e Engine) (Measurer, bool) {
	m, ok := e.(Measurer)
	return m, ok
}
