package tile

import (
	"time"

	"github.com/google/uuid"

	"github.com/hydra/aware/internal/engine"
)

// Measurement is one measurement session.
type Measurement struct {
	ID      string
	Type    engine.MeasurementType
	Started time.Time
	Stopped time.Time
}

type measurements struct {
	active   *Measurement
	finished []Measurement
}

// StartMeasurement begins a session of type t, finishing any active one.
func (a *Adapter) StartMeasurement(t engine.MeasurementType) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.surface == nil {
		return
	}
	a.finishMeasurementLocked()
	a.measure.active = &Measurement{
		ID:      uuid.NewString(),
		Type:    t,
		Started: time.Now(),
	}
	a.logger.Debug("Measurement started", "id", a.measure.active.ID, "type", t)
}

func (a *Adapter) StopMeasurement() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finishMeasurementLocked()
}

// ClearMeasurements drops the active and all finished sessions.
func (a *Adapter) ClearMeasurements() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.measure = measurements{}
}

// Measurements returns the finished sessions followed by the active one.
func (a *Adapter) Measurements() []Measurement {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]Measurement(nil), a.measure.finished...)
	if a.measure.active != nil {
		out = append(out, *a.measure.active)
	}
	return out
}

func (a *Adapter) finishMeasurementLocked() {
	if a.measure.active == nil {
		return
	}
	m := *a.measure.active
	m.Stopped = time.Now()
	a.measure.finished = append(a.measure.finished, m)
	a.measure.active = nil
}
