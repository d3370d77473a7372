package scene

import (
	"encoding/json"
	"net/http"

	geojson "github.com/paulmach/go.geojson"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/hydra/aware/internal/geo"
)

const circleVertices = 32

// FeatureCollection exports the attached layers: markers as points, coverage
// circles and sector overlays as polygons.
func (s *Scene) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, l := range s.Layers(KindMarker) {
		if !l.Attached {
			continue
		}
		f := geojson.NewPointFeature([]float64{l.Position.Lng, l.Position.Lat})
		f.SetProperty("kind", string(KindMarker))
		if l.Marker.Title != "" {
			f.SetProperty("id", l.Marker.Title)
		}
		if l.Marker.Icon.Label != "" {
			f.SetProperty("label", l.Marker.Icon.Label)
		}
		f.SetProperty("opacity", l.Marker.Opacity)
		f.SetProperty("interactive", l.Marker.Interactive)
		fc.AddFeature(f)
	}

	for _, l := range s.Layers(KindCircle) {
		if !l.Attached {
			continue
		}
		poly := geo.Circle(l.Position.Lat, l.Position.Lng, l.Radius, circleVertices)
		f := geojson.NewPolygonFeature(rings(poly))
		f.SetProperty("kind", string(KindCircle))
		f.SetProperty("radius", l.Radius)
		fc.AddFeature(f)
	}

	for _, l := range s.Layers(KindOverlay) {
		if !l.Attached {
			continue
		}
		f := geojson.NewPolygonFeature(rings(l.Bounds.Polygon()))
		f.SetProperty("kind", string(KindOverlay))
		fc.AddFeature(f)
	}

	return fc
}

func rings(p geom.Polygon) [][][]float64 {
	out := make([][][]float64, 0, 1+p.NumInteriorRings())
	out = append(out, ringCoords(p.ExteriorRing()))
	for i := 0; i < p.NumInteriorRings(); i++ {
		out = append(out, ringCoords(p.InteriorRingN(i)))
	}
	return out
}

func ringCoords(ls geom.LineString) [][]float64 {
	seq := ls.Coordinates()
	coords := make([][]float64, seq.Length())
	for i := range coords {
		xy := seq.GetXY(i)
		coords[i] = []float64{xy.X, xy.Y}
	}
	return coords
}

// ServeHTTP writes the scene as a GeoJSON FeatureCollection.
func (s *Scene) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := s.FeatureCollection().MarshalJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cam := s.Camera()
	meta, _ := json.Marshal(map[string]any{
		"lat":  cam.Center.Lat,
		"lng":  cam.Center.Lng,
		"zoom": cam.Zoom,
		"tile": s.CenterTileURL(),
	})
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Scene-Camera", string(meta))
	_, _ = w.Write(data)
}
