// Package overlay draws the sector coverage and selection frame images.
package overlay

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/engine/symbol"
)

const (
	sectorViewBox    = 100
	sectorRadius     = 48
	sectorActiveFill = "rgba(59, 130, 246, 0.45)"
	sectorIdleStroke = "rgba(59, 130, 246, 0.35)"
)

var sectorCache sync.Map // engine.SectorSet -> string

// SectorImage returns the data URI showing the eight wedges with the active
// ones filled. Images are cached per set.
func SectorImage(active engine.SectorSet) string {
	if v, ok := sectorCache.Load(active); ok {
		return v.(string)
	}
	uri := symbol.DataURI(sectorSVG(active))
	sectorCache.Store(active, uri)
	return uri
}

func sectorSVG(active engine.SectorSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`, sectorViewBox, sectorViewBox)
	for _, sec := range engine.Sectors {
		start, end := sec.Range()
		x1, y1 := polar(start)
		x2, y2 := polar(end)
		c := sectorViewBox / 2

		style := fmt.Sprintf(`fill="none" stroke="%s" stroke-width="1"`, sectorIdleStroke)
		if active.Has(sec) {
			style = fmt.Sprintf(`fill="%s" stroke="none"`, sectorActiveFill)
		}
		fmt.Fprintf(&b, `<path data-sector="%s" d="M%d,%d L%.2f,%.2f A%d,%d 0 0,1 %.2f,%.2f Z" %s/>`,
			sec, c, c, x1, y1, sectorRadius, sectorRadius, x2, y2, style)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// polar maps a compass bearing to SVG coordinates on the sector circle.
func polar(bearing float64) (x, y float64) {
	rad := bearing * math.Pi / 180
	c := float64(sectorViewBox) / 2
	return c + sectorRadius*math.Sin(rad), c - sectorRadius*math.Cos(rad)
}
