package tile

import (
	"time"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/geo"
)

// Handle identifies a layer on a Surface. The zero Handle is no layer.
type Handle uint64

// Icon is a marker image with an optional label drawn underneath.
type Icon struct {
	Image   string
	Label   string
	Size    int
	AnchorX int
	AnchorY int
}

// MarkerOptions configures a new marker. Title names the marker for
// export and hover text.
type MarkerOptions struct {
	Title        string
	Icon         Icon
	Opacity      float64
	Interactive  bool
	ZIndexOffset int
}

// CircleStyle is the stroke and fill of a circle layer.
type CircleStyle struct {
	Color       string
	FillColor   string
	FillOpacity float64
	Weight      float64
}

// TileLayer describes a raster base layer.
type TileLayer struct {
	Name        engine.BaseLayer
	URL         string
	Attribution string
	Subdomains  []string
	MaxZoom     int
}

// TileLayers are the supported base layers.
var TileLayers = map[engine.BaseLayer]TileLayer{
	engine.BaseLayerDark: {
		Name:        engine.BaseLayerDark,
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors © CARTO",
		Subdomains:  []string{"a", "b", "c", "d"},
		MaxZoom:     20,
	},
	engine.BaseLayerSatellite: {
		Name:        engine.BaseLayerSatellite,
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "© Esri",
		MaxZoom:     19,
	},
}

// Default camera.
var (
	DefaultCenter = engine.Position{Lat: 52.5597, Lng: 13.2877}
	DefaultZoom   = 13.0
)

// Surface is a 2D tile map the Adapter draws on. Layers are created
// detached and become visible once attached. Implementations must not call
// back into the Adapter synchronously from layer methods; zoom events may
// fire from SetView, ZoomIn and ZoomOut.
type Surface interface {
	SetView(center engine.Position, zoom float64)
	Center() engine.Position
	Zoom() float64
	ZoomIn()
	ZoomOut()
	FlyTo(center engine.Position, zoom float64, duration time.Duration)
	PanTo(center engine.Position)
	SetTileLayer(layer TileLayer)

	AddMarker(pos engine.Position, opts MarkerOptions) Handle
	SetMarkerPosition(h Handle, pos engine.Position)
	MarkerPosition(h Handle) (engine.Position, bool)
	SetMarkerIcon(h Handle, icon Icon)
	SetMarkerOpacity(h Handle, opacity float64)

	AddCircle(pos engine.Position, radius float64, style CircleStyle) Handle
	SetCirclePosition(h Handle, pos engine.Position)

	AddImageOverlay(url string, bounds geo.Bounds) Handle
	SetOverlayBounds(h Handle, bounds geo.Bounds)
	SetOverlayURL(h Handle, url string)

	Attach(h Handle)
	Detach(h Handle)
	Attached(h Handle) bool
	Remove(h Handle)

	// OnClick reports clicks on interactive markers, or the zero Handle
	// for the background.
	OnClick(fn func(target Handle))
	OnZoomEnd(fn func())
	WhenReady(fn func())
	Close()
}
