package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// originShift is half the Web Mercator world width in metres.
const originShift = math.Pi * EarthRadius

// WebMercator projects a WGS84 position to EPSG:3857 metres.
func WebMercator(lat, lon float64) geom.Point {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(lon, lat, 0)
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}})
}

// Tile returns the slippy-map tile containing lat/lon at zoom z.
func Tile(lat, lon float64, z int) (x, y int) {
	xy, ok := WebMercator(lat, lon).XY()
	if !ok {
		return 0, 0
	}
	n := math.Exp2(float64(z))
	x = int(math.Floor((xy.X + originShift) / (2 * originShift) * n))
	y = int(math.Floor((originShift - xy.Y) / (2 * originShift) * n))

	last := int(n) - 1
	return clamp(x, 0, last), clamp(y, 0, last)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
