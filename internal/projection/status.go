package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/geo"
	"github.com/hydra/aware/pkg/core"
)

// TrackStatus is the display form of an entity's affiliation.
type TrackStatus string

const (
	StatusFriend  TrackStatus = "Friend"
	StatusHostile TrackStatus = "Hostile"
	StatusNeutral TrackStatus = "Neutral"
	StatusUnknown TrackStatus = "Unknown"
)

// StatusOf returns the track status encoded in a symbol code.
func StatusOf(code string) TrackStatus {
	switch engine.AffiliationOf(code) {
	case engine.Friend:
		return StatusFriend
	case engine.Hostile:
		return StatusHostile
	case engine.Neutral:
		return StatusNeutral
	default:
		return StatusUnknown
	}
}

// Tracks returns the entities that are tracks, in id order.
func Tracks(entities []core.Entity) []core.Entity {
	var out []core.Entity
	for _, e := range entities {
		if e.IsTrack() {
			out = append(out, e)
		}
	}
	return out
}

// FormatAltitude rounds to whole metres; nil is "N/A".
func FormatAltitude(meters *float64) string {
	if meters == nil {
		return "N/A"
	}
	return fmt.Sprintf("%dm", int(math.Round(*meters)))
}

// TrackRow is one line of the track list.
type TrackRow struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    TrackStatus `json:"status"`
	Latitude  string      `json:"latitude"`
	Longitude string      `json:"longitude"`
	Altitude  string      `json:"altitude"`
}

// TrackList lists the unexpired tracks of snap in id order.
func TrackList(snap cache.Snapshot, now time.Time) []TrackRow {
	rows := []TrackRow{}
	for _, e := range Tracks(snap.Entities()) {
		if e.IsExpired(now) {
			continue
		}
		alt := e.Geo.Altitude
		rows = append(rows, TrackRow{
			ID:        e.ID,
			Name:      e.DisplayName(),
			Status:    StatusOf(e.SymbolCode()),
			Latitude:  geo.FormatCoordinate(e.Geo.Latitude, geo.Latitude),
			Longitude: geo.FormatCoordinate(e.Geo.Longitude, geo.Longitude),
			Altitude:  FormatAltitude(&alt),
		})
	}
	return rows
}
