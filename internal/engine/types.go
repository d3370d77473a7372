package engine

import (
	"sort"
	"strings"
)

// Position is a WGS84 position in degrees; Alt is metres.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Alt float64 `json:"alt,omitempty"`
}

// Affiliation is the friend/hostile/neutral/unknown classification.
type Affiliation string

const (
	Friend  Affiliation = "friend"
	Hostile Affiliation = "hostile"
	Neutral Affiliation = "neutral"
	Unknown Affiliation = "unknown"
)

// AffiliationOf reads the affiliation from the second character of a
// MIL-STD-2525C symbol code.
func AffiliationOf(code string) Affiliation {
	if len(code) < 2 {
		return Unknown
	}
	switch code[1] {
	case 'F', 'f':
		return Friend
	case 'H', 'h':
		return Hostile
	case 'N', 'n':
		return Neutral
	default:
		return Unknown
	}
}

// Sector is one of the eight 45° compass wedges.
type Sector uint8

const (
	North Sector = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Sectors lists all sectors clockwise from north.
var Sectors = [...]Sector{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var sectorNames = [...]string{"north", "north-east", "east", "south-east", "south", "south-west", "west", "north-west"}

func (s Sector) String() string {
	if int(s) < len(sectorNames) {
		return sectorNames[s]
	}
	return "unknown"
}

// MarshalText encodes the sector by name.
func (s Sector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Range returns the sector's start and end bearing in degrees. North spans
// -22.5 to 22.5.
func (s Sector) Range() (start, end float64) {
	mid := float64(s) * 45
	return mid - 22.5, mid + 22.5
}

// SectorSet is a set of sectors, one bit per sector.
type SectorSet uint8

// NewSectorSet builds a set from sectors.
func NewSectorSet(sectors ...Sector) SectorSet {
	var s SectorSet
	for _, sec := range sectors {
		s = s.Add(sec)
	}
	return s
}

func (s SectorSet) Add(sec Sector) SectorSet    { return s | 1<<sec }
func (s SectorSet) Has(sec Sector) bool         { return s&(1<<sec) != 0 }
func (s SectorSet) Union(o SectorSet) SectorSet { return s | o }
func (s SectorSet) Empty() bool                 { return s == 0 }

// Len returns the number of sectors in the set.
func (s SectorSet) Len() int {
	n := 0
	for _, sec := range Sectors {
		if s.Has(sec) {
			n++
		}
	}
	return n
}

// Slice returns the members clockwise from north.
func (s SectorSet) Slice() []Sector {
	var out []Sector
	for _, sec := range Sectors {
		if s.Has(sec) {
			out = append(out, sec)
		}
	}
	return out
}

// Key is the order-independent fingerprint of the set: sorted names joined
// by commas, "" for the empty set.
func (s SectorSet) Key() string {
	names := make([]string, 0, 8)
	for _, sec := range s.Slice() {
		names = append(names, sec.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// MarshalText encodes the set as its key.
func (s SectorSet) MarshalText() ([]byte, error) {
	return []byte(s.Key()), nil
}

// RenderableEntity is the render-ready projection of an entity.
// EllipseRadius is the coverage circle radius in metres, 0 for none.
type RenderableEntity struct {
	ID            string      `json:"id"`
	Position      Position    `json:"position"`
	Symbol        string      `json:"symbol"`
	Label         string      `json:"label"`
	Affiliation   Affiliation `json:"affiliation"`
	EllipseRadius float64     `json:"ellipseRadius,omitempty"`
	ActiveSectors SectorSet   `json:"activeSectors,omitempty"`
}

// HasCoverage reports whether the entity carries a coverage circle and sector overlay.
func (r RenderableEntity) HasCoverage() bool {
	return r.EllipseRadius > 0
}

// BaseLayer selects the background imagery.
type BaseLayer string

const (
	BaseLayerDark      BaseLayer = "dark"
	BaseLayerSatellite BaseLayer = "satellite"
)

// SceneMode selects the projection of the scene.
type SceneMode string

const (
	SceneMode2D  SceneMode = "2d"
	SceneMode25D SceneMode = "2.5d"
	SceneMode3D  SceneMode = "3d"
)

// TrackFilter toggles track visibility per affiliation.
type TrackFilter struct {
	Friend  bool `json:"friend"`
	Hostile bool `json:"hostile"`
	Neutral bool `json:"neutral"`
	Unknown bool `json:"unknown"`
}

// EntityFilter controls which entities are drawn opaque.
type EntityFilter struct {
	Tracks  TrackFilter     `json:"tracks"`
	Sensors map[string]bool `json:"sensors"`
}

// DefaultFilter shows every affiliation.
func DefaultFilter() EntityFilter {
	return EntityFilter{
		Tracks:  TrackFilter{Friend: true, Hostile: true, Neutral: true, Unknown: true},
		Sensors: map[string]bool{},
	}
}

// Visible reports whether entities of affiliation a are shown.
func (f EntityFilter) Visible(a Affiliation) bool {
	switch a {
	case Friend:
		return f.Tracks.Friend
	case Hostile:
		return f.Tracks.Hostile
	case Neutral:
		return f.Tracks.Neutral
	default:
		return f.Tracks.Unknown
	}
}

// Equal compares two filters including sensor toggles.
func (f EntityFilter) Equal(o EntityFilter) bool {
	if f.Tracks != o.Tracks || len(f.Sensors) != len(o.Sensors) {
		return false
	}
	for k, v := range f.Sensors {
		if ov, ok := o.Sensors[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// MeasurementType is a measurement tool.
type MeasurementType string

const (
	MeasureDistance   MeasurementType = "distance"
	MeasurePolyline   MeasurementType = "polyline"
	MeasureHorizontal MeasurementType = "horizontal"
	MeasureVertical   MeasurementType = "vertical"
	MeasureHeight     MeasurementType = "height"
	MeasureArea       MeasurementType = "area"
	MeasurePoint      MeasurementType = "point"
)
