package projection

import (
	"math"

	"github.com/hydra/aware/internal/engine"
)

// Wedge is a bearing range: Mid ± Width degrees.
type Wedge struct {
	Mid   float64
	Width float64
}

// DegreesToSectors returns the compass sectors overlapped by any of the
// wedges. Sectors are centred on their bearing, so north spans -22.5 to
// 22.5. A wedge that only touches a sector boundary does not overlap it; a
// zero-width wedge on a boundary belongs to the clockwise sector.
func DegreesToSectors(wedges ...Wedge) engine.SectorSet {
	var set engine.SectorSet
	for _, w := range wedges {
		if math.IsNaN(w.Mid) || math.IsNaN(w.Width) || math.IsInf(w.Mid, 0) {
			continue
		}
		width := math.Abs(w.Width)
		if width >= 180 {
			return engine.NewSectorSet(engine.Sectors[:]...)
		}
		mid := math.Mod(w.Mid, 360)
		if mid < 0 {
			mid += 360
		}
		lo, hi := mid-width, mid+width

		for _, sec := range engine.Sectors {
			if overlaps(sec, lo, hi) {
				set = set.Add(sec)
			}
		}
	}
	return set
}

func overlaps(sec engine.Sector, lo, hi float64) bool {
	start, end := sec.Range()
	for _, shift := range [...]float64{-360, 0, 360} {
		s, e := start+shift, end+shift
		if lo == hi {
			if lo >= s && lo < e {
				return true
			}
			continue
		}
		if lo < e && hi > s {
			return true
		}
	}
	return false
}
