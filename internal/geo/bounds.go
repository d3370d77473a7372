package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

const (
	// EarthRadius is the WGS84 semi-major axis in metres.
	EarthRadius = 6378137.0

	// SouthBias shifts sector overlays south by this fraction of their half
	// height so they sit under the icon's visual centre rather than its anchor.
	SouthBias = 0.15
)

// Bounds is a geographic box in degrees.
type Bounds struct {
	South, West, North, East float64
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lat, lon float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}

// Polygon returns the box as a closed lon/lat ring.
func (b Bounds) Polygon() geom.Polygon {
	seq := geom.NewSequence([]float64{
		b.West, b.South,
		b.East, b.South,
		b.East, b.North,
		b.West, b.North,
		b.West, b.South,
	}, geom.DimXY)
	return geom.NewPolygon([]geom.LineString{geom.NewLineString(seq)})
}

// SectorBounds returns a square box of sizeMeters centred on lat/lon,
// shifted south by SouthBias.
func SectorBounds(lat, lon, sizeMeters float64) Bounds {
	halfLat := (sizeMeters / 2 / EarthRadius) * (180 / math.Pi)
	halfLon := (sizeMeters / 2 / (EarthRadius * math.Cos(lat*math.Pi/180))) * (180 / math.Pi)
	offset := halfLat * SouthBias

	return Bounds{
		South: lat - halfLat - offset,
		West:  lon - halfLon,
		North: lat + halfLat - offset,
		East:  lon + halfLon,
	}
}

// Circle approximates a circle of radiusMeters around lat/lon with the given
// number of vertices, as a lon/lat polygon.
func Circle(lat, lon, radiusMeters float64, vertices int) geom.Polygon {
	if vertices < 3 {
		vertices = 3
	}
	dLat := (radiusMeters / EarthRadius) * (180 / math.Pi)
	dLon := dLat / math.Cos(lat*math.Pi/180)

	flat := make([]float64, 0, (vertices+1)*2)
	for i := 0; i < vertices; i++ {
		theta := 2 * math.Pi * float64(i) / float64(vertices)
		flat = append(flat, lon+dLon*math.Sin(theta), lat+dLat*math.Cos(theta))
	}
	flat = append(flat, flat[0], flat[1])

	return geom.NewPolygon([]geom.LineString{geom.NewLineString(geom.NewSequence(flat, geom.DimXY))})
}
