package symbol

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/hydra/aware/internal/engine"
)

var frameFill = map[engine.Affiliation]string{
	engine.Friend:  "#80E0FF",
	engine.Hostile: "#FF8080",
	engine.Neutral: "#AAFFAA",
	engine.Unknown: "#FFFF80",
}

// SVG is the built-in Renderer. It draws the affiliation frame (rectangle,
// diamond, square or circle) and a direction stem when azimuth is set.
func SVG(code string, size int, azimuth *float64) string {
	aff := engine.AffiliationOf(code)
	s := float64(size)
	c := s / 2
	r := s * 0.4

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, size, size)
	fill := frameFill[aff]
	switch aff {
	case engine.Friend:
		fmt.Fprintf(&b, `<rect x="%g" y="%g" width="%g" height="%g" fill="%s" stroke="#000"/>`,
			c-r, c-r*0.7, 2*r, 1.4*r, fill)
	case engine.Hostile:
		fmt.Fprintf(&b, `<path d="M%g,%g L%g,%g L%g,%g L%g,%g Z" fill="%s" stroke="#000"/>`,
			c, c-r, c+r, c, c, c+r, c-r, c, fill)
	case engine.Neutral:
		fmt.Fprintf(&b, `<rect x="%g" y="%g" width="%g" height="%g" fill="%s" stroke="#000"/>`,
			c-r*0.8, c-r*0.8, 1.6*r, 1.6*r, fill)
	default:
		fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="%s" stroke="#000"/>`, c, c, r, fill)
	}
	if azimuth != nil {
		rad := *azimuth * math.Pi / 180
		fmt.Fprintf(&b, `<line x1="%g" y1="%g" x2="%.2f" y2="%.2f" stroke="#000"/>`,
			c, c, c+c*math.Sin(rad), c-c*math.Cos(rad))
	}
	b.WriteString(`</svg>`)

	return DataURI(b.String())
}

// DataURI wraps an SVG document as a base64 data URI.
func DataURI(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
