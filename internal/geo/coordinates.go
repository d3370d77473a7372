package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Axis selects the hemisphere letters used by FormatCoordinate.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// Coordinates is a parsed position. Altitude is only set when the input had one.
type Coordinates struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
}

var (
	dmsPattern   = regexp.MustCompile(`(?i)(\d+)°\s*(\d+)?[′']?\s*(\d+\.?\d*)?[″"]?\s*([NSEW])?`)
	fieldPattern = regexp.MustCompile(`[\s,]+`)
)

// ParseCoordinates accepts "lat, lon[, alt]", whitespace separated decimals,
// or degree-minute-second text such as `34°07'24.4"N 118°27'24.4"W`.
func ParseCoordinates(input string) (Coordinates, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Coordinates{}, ErrInvalidCoordinates
	}

	if strings.Contains(trimmed, "°") {
		return parseDMSPair(trimmed)
	}

	var numbers []float64
	for _, field := range fieldPattern.Split(trimmed, -1) {
		if field == "" {
			continue
		}
		n, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(n) {
			continue
		}
		numbers = append(numbers, n)
	}
	if len(numbers) < 2 {
		return Coordinates{}, ErrInvalidCoordinates
	}

	c := Coordinates{Latitude: numbers[0], Longitude: numbers[1]}
	if len(numbers) > 2 {
		alt := numbers[2]
		c.Altitude = &alt
	}
	if !inRange(c.Latitude, c.Longitude) {
		return Coordinates{}, fmt.Errorf("%w: %v, %v out of range", ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	return c, nil
}

func parseDMSPair(s string) (Coordinates, error) {
	var parts []string
	for _, f := range strings.Fields(s) {
		if strings.Contains(f, "°") {
			parts = append(parts, f)
		}
	}
	if len(parts) < 2 {
		return Coordinates{}, ErrInvalidCoordinates
	}

	lat, ok := parseDMS(parts[0])
	if !ok {
		return Coordinates{}, ErrInvalidCoordinates
	}
	lon, ok := parseDMS(parts[1])
	if !ok {
		return Coordinates{}, ErrInvalidCoordinates
	}
	if !inRange(lat, lon) {
		return Coordinates{}, fmt.Errorf("%w: %v, %v out of range", ErrInvalidCoordinates, lat, lon)
	}
	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

// parseDMS converts one degree-minute-second token to decimal degrees.
// S and W hemispheres are negative.
func parseDMS(s string) (float64, bool) {
	m := dmsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	component := func(v string) float64 {
		if v == "" {
			return 0
		}
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}

	decimal := component(m[1]) + component(m[2])/60 + component(m[3])/3600
	switch strings.ToUpper(m[4]) {
	case "S", "W":
		decimal = -decimal
	}
	return decimal, true
}

func inRange(lat, lon float64) bool {
	return math.Abs(lat) <= 90 && math.Abs(lon) <= 180
}

// FormatCoordinate renders a value as "12.345678° N".
func FormatCoordinate(value float64, axis Axis) string {
	var dir string
	switch {
	case axis == Latitude && value >= 0:
		dir = "N"
	case axis == Latitude:
		dir = "S"
	case value >= 0:
		dir = "E"
	default:
		dir = "W"
	}
	return fmt.Sprintf("%.6f° %s", math.Abs(value), dir)
}
