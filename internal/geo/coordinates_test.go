package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates_Decimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		lat     float64
		lon     float64
		alt     *float64
		wantErr bool
	}{
		{name: "comma separated", input: "34.123456, -118.456789", lat: 34.123456, lon: -118.456789},
		{name: "comma with altitude", input: "34.1,-118.4,100", lat: 34.1, lon: -118.4, alt: ptr(100)},
		{name: "space separated", input: "  34.1 -118.4 250.5 ", lat: 34.1, lon: -118.4, alt: ptr(250.5)},
		{name: "mixed separators", input: "1, 2 3", lat: 1, lon: 2, alt: ptr(3)},
		{name: "boundary values", input: "-90, 180", lat: -90, lon: 180},
		{name: "junk fields dropped", input: "abc 10 20", lat: 10, lon: 20},
		{name: "latitude out of range", input: "90.5, 10", wantErr: true},
		{name: "longitude out of range", input: "10, -180.01", wantErr: true},
		{name: "single number", input: "42", wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
		{name: "text", input: "north of here", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCoordinates(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, c.Latitude)
			assert.Equal(t, tt.lon, c.Longitude)
			assert.Equal(t, tt.alt, c.Altitude)
		})
	}
}

func TestParseCoordinates_DMS(t *testing.T) {
	c, err := ParseCoordinates(`34°07'24.4"N 118°27'24.4"W`)
	require.NoError(t, err)
	assert.InDelta(t, 34.123444, c.Latitude, 1e-6)
	assert.InDelta(t, -118.456778, c.Longitude, 1e-6)
	assert.Nil(t, c.Altitude)

	c, err = ParseCoordinates("52°33′35″N 13°17′16″E")
	require.NoError(t, err)
	assert.InDelta(t, 52.559722, c.Latitude, 1e-6)
	assert.InDelta(t, 13.287778, c.Longitude, 1e-6)

	c, err = ParseCoordinates("45°S 170°e")
	require.NoError(t, err)
	assert.Equal(t, -45.0, c.Latitude)
	assert.Equal(t, 170.0, c.Longitude)
}

func TestParseCoordinates_DMSInvalid(t *testing.T) {
	for _, input := range []string{
		`34°07'24.4"N`,
		`95°00'00"N 10°00'00"E`,
		`10°00'00"N 181°00'00"E`,
	} {
		_, err := ParseCoordinates(input)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, input)
	}
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "52.559700° N", FormatCoordinate(52.5597, Latitude))
	assert.Equal(t, "33.868800° S", FormatCoordinate(-33.8688, Latitude))
	assert.Equal(t, "13.287700° E", FormatCoordinate(13.2877, Longitude))
	assert.Equal(t, "118.456789° W", FormatCoordinate(-118.456789, Longitude))
	assert.Equal(t, "0.000000° N", FormatCoordinate(0, Latitude))
}

func ptr(v float64) *float64 { return &v }
