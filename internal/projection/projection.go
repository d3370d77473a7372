// Package projection derives the render-ready entity list from a snapshot.
package projection

import (
	"regexp"
	"time"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/pkg/core"
)

// CoverageRadius is the coverage circle radius of sensor entities, in metres.
const CoverageRadius = 250.0

var sensorSymbol = regexp.MustCompile(`^SFGPES-*$`)

// HasEllipse reports whether the symbol code is a sensor with a coverage ellipse.
func HasEllipse(code string) bool {
	return sensorSymbol.MatchString(code)
}

// IsExpired reports whether e's lifetime ended strictly before now.
func IsExpired(e core.Entity, now time.Time) bool {
	return e.IsExpired(now)
}

// Project builds the renderable list from snap, ordered by id. It reads snap
// only and returns the same output for the same snapshot and instant.
func Project(snap cache.Snapshot, now time.Time) []engine.RenderableEntity {
	entities := snap.Entities()
	sectors := detectorSectors(entities, now)

	out := make([]engine.RenderableEntity, 0, len(entities))
	for _, e := range entities {
		code := e.SymbolCode()
		if e.Geo == nil || code == "" || e.IsExpired(now) {
			continue
		}

		r := engine.RenderableEntity{
			ID: e.ID,
			Position: engine.Position{
				Lat: e.Geo.Latitude,
				Lng: e.Geo.Longitude,
				Alt: e.Geo.Altitude,
			},
			Symbol:        code,
			Label:         e.DisplayName(),
			Affiliation:   engine.AffiliationOf(code),
			ActiveSectors: sectors[e.ID],
		}
		if HasEllipse(code) {
			r.EllipseRadius = CoverageRadius
		}
		out = append(out, r)
	}
	return out
}

// detectorSectors maps each detector id to the union of the sectors its
// live detections point into.
func detectorSectors(entities []core.Entity, now time.Time) map[string]engine.SectorSet {
	out := make(map[string]engine.SectorSet)
	for _, e := range entities {
		if e.Detection == nil || e.Detection.DetectorEntityID == "" {
			continue
		}
		if e.Bearing == nil || e.Bearing.Azimuth == nil || e.Bearing.Elevation == nil {
			continue
		}
		if e.IsExpired(now) {
			continue
		}

		set := DegreesToSectors(Wedge{Mid: *e.Bearing.Azimuth, Width: *e.Bearing.Elevation})
		if set.Empty() {
			continue
		}
		id := e.Detection.DetectorEntityID
		out[id] = out[id].Union(set)
	}
	return out
}
