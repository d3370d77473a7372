package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorBounds(t *testing.T) {
	b := SectorBounds(52.5597, 13.2877, 44)

	halfLat := 0.00019762936
	halfLon := 0.00032508334
	offset := halfLat * SouthBias

	assert.InDelta(t, 52.5597-halfLat-offset, b.South, 1e-9)
	assert.InDelta(t, 52.5597+halfLat-offset, b.North, 1e-9)
	assert.InDelta(t, 13.2877-halfLon, b.West, 1e-9)
	assert.InDelta(t, 13.2877+halfLon, b.East, 1e-9)

	lat, lon := b.Center()
	assert.Less(t, lat, 52.5597, "overlay centre is biased south")
	assert.InDelta(t, 13.2877, lon, 1e-12)
}

func TestSectorBounds_Polygon(t *testing.T) {
	b := Bounds{South: 1, West: 2, North: 3, East: 4}
	p := b.Polygon()
	assert.Equal(t, "POLYGON((2 1,4 1,4 3,2 3,2 1))", p.AsText())
}

func TestCircle(t *testing.T) {
	p := Circle(0, 0, 250, 32)
	ring := p.ExteriorRing()
	seq := ring.Coordinates()
	require.Equal(t, 33, seq.Length())
	assert.Equal(t, seq.GetXY(0), seq.GetXY(32), "ring is closed")

	north := seq.GetXY(0)
	assert.InDelta(t, 0, north.X, 1e-12)
	assert.InDelta(t, 250/EarthRadius*180/3.141592653589793, north.Y, 1e-9)
}

func TestTile(t *testing.T) {
	x, y := Tile(52.52, 13.405, 10)
	assert.Equal(t, 550, x)
	assert.Equal(t, 335, y)

	x, y = Tile(52.5597, 13.2877, 13)
	assert.Equal(t, 4398, x)
	assert.Equal(t, 2685, y)

	x, y = Tile(-33.8688, 151.2093, 12)
	assert.Equal(t, 3768, x)
	assert.Equal(t, 2457, y)

	x, y = Tile(10, 10, 0)
	assert.Zero(t, x)
	assert.Zero(t, y)
}
