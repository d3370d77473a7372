package overlay

import (
	"fmt"
	"math"
	"sync"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/engine/symbol"
)

// FrameColors are the selection frame stroke colours per affiliation.
var FrameColors = map[engine.Affiliation]string{
	engine.Friend:  "#22D3EE",
	engine.Hostile: "#F87171",
	engine.Neutral: "#4ADE80",
	engine.Unknown: "#FBBF24",
}

type frameKey struct {
	affiliation engine.Affiliation
	iconSize    int
}

var frameCache sync.Map // frameKey -> string

// FrameSize is the selection frame edge length for an icon of iconSize.
func FrameSize(iconSize int) int {
	padding := int(math.Round(float64(iconSize) * 0.25))
	return iconSize + padding*2
}

// SelectionFrame returns the corner-bracket frame drawn around a selected icon.
func SelectionFrame(a engine.Affiliation, iconSize int) string {
	key := frameKey{a, iconSize}
	if v, ok := frameCache.Load(key); ok {
		return v.(string)
	}

	color, ok := FrameColors[a]
	if !ok {
		color = FrameColors[engine.Unknown]
	}
	s := FrameSize(iconSize)
	corner := int(math.Round(float64(s) * 0.2))
	const inset = 2

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" fill="none">`+
		`<g stroke="%[2]s" stroke-width="2" stroke-linecap="square">`+
		`<path d="M%[3]d,%[4]d V%[3]d H%[4]d"/>`+
		`<path d="M%[5]d,%[3]d H%[6]d V%[4]d"/>`+
		`<path d="M%[3]d,%[5]d V%[6]d H%[4]d"/>`+
		`<path d="M%[5]d,%[6]d H%[6]d V%[5]d"/>`+
		`</g></svg>`,
		s, color, inset, inset+corner, s-inset-corner, s-inset)

	uri := symbol.DataURI(svg)
	frameCache.Store(key, uri)
	return uri
}
