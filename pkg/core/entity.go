// pkg/core/entity.go
package core

import (
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Entity is a tracked real-world object as delivered by the world service.
// Every component is optional; an update replaces the entity wholesale.
type Entity struct {
	ID         string      `json:"id"`
	Label      string      `json:"label,omitempty"`
	Geo        *Geo        `json:"geo,omitempty"`
	Symbol     *Symbol     `json:"symbol,omitempty"`
	Controller *Controller `json:"controller,omitempty"`
	Lifetime   *Lifetime   `json:"lifetime,omitempty"`
	Bearing    *Bearing    `json:"bearing,omitempty"`
	Detection  *Detection  `json:"detection,omitempty"`
	Track      *Track      `json:"track,omitempty"`
	Cameras    []Camera    `json:"cameras,omitempty"`
}

// Geo is a WGS84 position. Altitude is metres above sea level.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Symbol carries the MIL-STD-2525C symbol identification code.
type Symbol struct {
	MilStd2525C string `json:"milStd2525C"`
}

// Controller references the entity controlling this one.
type Controller struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lifetime bounds the validity of an entity.
type Lifetime struct {
	From  *Instant `json:"from,omitempty"`
	Until *Instant `json:"until,omitempty"`
}

// Bearing is the direction a detection was observed in, in degrees.
// Elevation doubles as the half-width of the detection wedge.
type Bearing struct {
	Azimuth   *float64 `json:"azimuth,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// Detection links a detected entity to the sensor that observed it.
type Detection struct {
	Classification   string   `json:"classification,omitempty"`
	DetectorEntityID string   `json:"detectorEntityID,omitempty"`
	LastMeasured     *Instant `json:"lastMeasured,omitempty"`
}

// Instant is a protobuf timestamp that travels in JSON in its canonical
// RFC 3339 form.
type Instant struct {
	*timestamppb.Timestamp
}

// At wraps t.
func At(t time.Time) *Instant {
	return &Instant{Timestamp: timestamppb.New(t)}
}

func (i Instant) MarshalJSON() ([]byte, error) {
	if i.Timestamp == nil {
		return []byte("null"), nil
	}
	return protojson.Marshal(i.Timestamp)
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	ts := &timestamppb.Timestamp{}
	if err := protojson.Unmarshal(data, ts); err != nil {
		return err
	}
	i.Timestamp = ts
	return nil
}

// Track marks an entity as a track (air, ground or surface contact).
type Track struct{}

// Camera is a video feed attached to an entity.
type Camera struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SymbolCode returns the symbol code or "" when the entity has none.
func (e *Entity) SymbolCode() string {
	if e.Symbol == nil {
		return ""
	}
	return e.Symbol.MilStd2525C
}

// DisplayName falls back from the label to the controller name to the id.
func (e *Entity) DisplayName() string {
	if e.Label != "" {
		return e.Label
	}
	if e.Controller != nil && e.Controller.Name != "" {
		return e.Controller.Name
	}
	return e.ID
}

// IsExpired reports whether the lifetime has an until bound strictly before now.
// Entities without an until bound never expire.
func (e *Entity) IsExpired(now time.Time) bool {
	if e.Lifetime == nil || e.Lifetime.Until == nil {
		return false
	}
	return e.Lifetime.Until.AsTime().Before(now)
}

// IsTrack reports whether the entity is a positioned, symbolised track.
func (e *Entity) IsTrack() bool {
	return e.Geo != nil && e.Symbol != nil && e.Track != nil
}

// Float returns a pointer to v, for building optional bearing components.
func Float(v float64) *float64 {
	return &v
}
