// Package scene is an in-memory tile map surface: it keeps the layer graph
// and camera the tile adapter draws, without rasterising anything.
package scene

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/engine/tile"
	"github.com/hydra/aware/internal/geo"
)

// LayerKind is the type of a layer.
type LayerKind string

const (
	KindMarker  LayerKind = "marker"
	KindCircle  LayerKind = "circle"
	KindOverlay LayerKind = "overlay"
)

// Layer is a copy of one layer's state.
type Layer struct {
	Handle   tile.Handle
	Kind     LayerKind
	Attached bool
	Position engine.Position

	Marker tile.MarkerOptions
	Radius float64
	Style  tile.CircleStyle
	URL    string
	Bounds geo.Bounds
}

// Camera is the current view.
type Camera struct {
	Center engine.Position
	Zoom   float64
}

// Scene implements tile.Surface.
type Scene struct {
	mu      sync.Mutex
	next    tile.Handle
	layers  map[tile.Handle]*Layer
	camera  Camera
	tiles   tile.TileLayer
	ready   bool
	closed  bool
	lastFly time.Duration
	ops     *OpLog
	onClick []func(tile.Handle)
	onZoom  []func()
	onReady []func()
}

var _ tile.Surface = (*Scene)(nil)

// New creates an empty scene. It becomes ready on the first SetView.
func New() *Scene {
	return &Scene{
		layers: make(map[tile.Handle]*Layer),
		ops:    NewOpLog(),
	}
}

// Ops returns the scene's mutation log.
func (s *Scene) Ops() *OpLog {
	return s.ops
}

func (s *Scene) maxZoom() float64 {
	if s.tiles.MaxZoom > 0 {
		return float64(s.tiles.MaxZoom)
	}
	return 20
}

// setZoomLocked clamps and applies z, reporting whether it changed.
func (s *Scene) setZoomLocked(z float64) bool {
	z = math.Max(0, math.Min(z, s.maxZoom()))
	changed := z != s.camera.Zoom
	s.camera.Zoom = z
	return changed
}

func (s *Scene) fireZoomEnd() {
	s.mu.Lock()
	fns := append([]func(){}, s.onZoom...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Scene) SetView(center engine.Position, zoom float64) {
	s.mu.Lock()
	s.camera.Center = center
	changed := s.setZoomLocked(zoom)
	s.ops.Record(Op{Kind: OpCameraView})

	var ready []func()
	if !s.ready {
		s.ready = true
		ready = s.onReady
		s.onReady = nil
	}
	s.mu.Unlock()

	if changed {
		s.fireZoomEnd()
	}
	for _, fn := range ready {
		fn()
	}
}

func (s *Scene) Center() engine.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera.Center
}

func (s *Scene) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera.Zoom
}

// Camera returns the current view.
func (s *Scene) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

func (s *Scene) zoomBy(delta float64) {
	s.mu.Lock()
	changed := s.setZoomLocked(s.camera.Zoom + delta)
	if changed {
		s.ops.Record(Op{Kind: OpCameraZoom})
	}
	s.mu.Unlock()

	if changed {
		s.fireZoomEnd()
	}
}

func (s *Scene) ZoomIn()  { s.zoomBy(1) }
func (s *Scene) ZoomOut() { s.zoomBy(-1) }

// FlyTo jumps straight to the target; the duration is only recorded.
func (s *Scene) FlyTo(center engine.Position, zoom float64, duration time.Duration) {
	s.mu.Lock()
	s.camera.Center = center
	s.lastFly = duration
	changed := s.setZoomLocked(zoom)
	s.ops.Record(Op{Kind: OpCameraFly})
	s.mu.Unlock()

	if changed {
		s.fireZoomEnd()
	}
}

// LastFlyDuration returns the duration of the most recent FlyTo.
func (s *Scene) LastFlyDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFly
}

func (s *Scene) PanTo(center engine.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Center = center
	s.ops.Record(Op{Kind: OpCameraPan})
}

func (s *Scene) SetTileLayer(layer tile.TileLayer) {
	s.mu.Lock()
	s.tiles = layer
	changed := s.setZoomLocked(s.camera.Zoom)
	s.ops.Record(Op{Kind: OpTileLayer})
	s.mu.Unlock()

	if changed {
		s.fireZoomEnd()
	}
}

// TileLayer returns the active base layer.
func (s *Scene) TileLayer() tile.TileLayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tiles
}

// TileURL resolves the base layer template for a tile.
func (s *Scene) TileURL(x, y, z int) string {
	s.mu.Lock()
	layer := s.tiles
	s.mu.Unlock()

	r := strings.NewReplacer(
		"{x}", fmt.Sprint(x),
		"{y}", fmt.Sprint(y),
		"{z}", fmt.Sprint(z),
	)
	url := r.Replace(layer.URL)
	if len(layer.Subdomains) > 0 {
		sub := layer.Subdomains[(x+y)%len(layer.Subdomains)]
		url = strings.ReplaceAll(url, "{s}", sub)
	}
	return url
}

// CenterTileURL resolves the tile under the camera centre.
func (s *Scene) CenterTileURL() string {
	cam := s.Camera()
	z := int(math.Floor(cam.Zoom))
	x, y := geo.Tile(cam.Center.Lat, cam.Center.Lng, z)
	return s.TileURL(x, y, z)
}

func (s *Scene) addLocked(l *Layer, op OpKind) tile.Handle {
	s.next++
	l.Handle = s.next
	s.layers[l.Handle] = l
	s.ops.Record(Op{Kind: op, Handle: l.Handle})
	return l.Handle
}

// update runs fn on a live layer of the given kind and records op.
func (s *Scene) update(h tile.Handle, kind LayerKind, op OpKind, fn func(*Layer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	if !ok || l.Kind != kind {
		return
	}
	fn(l)
	s.ops.Record(Op{Kind: op, Handle: h})
}

func (s *Scene) AddMarker(pos engine.Position, opts tile.MarkerOptions) tile.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&Layer{Kind: KindMarker, Position: pos, Marker: opts}, OpMarkerAdd)
}

func (s *Scene) SetMarkerPosition(h tile.Handle, pos engine.Position) {
	s.update(h, KindMarker, OpMarkerMove, func(l *Layer) { l.Position = pos })
}

func (s *Scene) MarkerPosition(h tile.Handle) (engine.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	if !ok || l.Kind != KindMarker {
		return engine.Position{}, false
	}
	return l.Position, true
}

func (s *Scene) SetMarkerIcon(h tile.Handle, icon tile.Icon) {
	s.update(h, KindMarker, OpMarkerIcon, func(l *Layer) { l.Marker.Icon = icon })
}

func (s *Scene) SetMarkerOpacity(h tile.Handle, opacity float64) {
	s.update(h, KindMarker, OpMarkerOpacity, func(l *Layer) { l.Marker.Opacity = opacity })
}

func (s *Scene) AddCircle(pos engine.Position, radius float64, style tile.CircleStyle) tile.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&Layer{Kind: KindCircle, Position: pos, Radius: radius, Style: style}, OpCircleAdd)
}

func (s *Scene) SetCirclePosition(h tile.Handle, pos engine.Position) {
	s.update(h, KindCircle, OpCircleMove, func(l *Layer) { l.Position = pos })
}

func (s *Scene) AddImageOverlay(url string, bounds geo.Bounds) tile.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&Layer{Kind: KindOverlay, URL: url, Bounds: bounds}, OpOverlayAdd)
}

func (s *Scene) SetOverlayBounds(h tile.Handle, bounds geo.Bounds) {
	s.update(h, KindOverlay, OpOverlayBounds, func(l *Layer) { l.Bounds = bounds })
}

func (s *Scene) SetOverlayURL(h tile.Handle, url string) {
	s.update(h, KindOverlay, OpOverlayURL, func(l *Layer) { l.URL = url })
}

func (s *Scene) setAttached(h tile.Handle, attached bool, op OpKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	if !ok || l.Attached == attached {
		return
	}
	l.Attached = attached
	s.ops.Record(Op{Kind: op, Handle: h})
}

func (s *Scene) Attach(h tile.Handle) { s.setAttached(h, true, OpAttach) }
func (s *Scene) Detach(h tile.Handle) { s.setAttached(h, false, OpDetach) }

func (s *Scene) Attached(h tile.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	return ok && l.Attached
}

func (s *Scene) Remove(h tile.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[h]; !ok {
		return
	}
	delete(s.layers, h)
	s.ops.Record(Op{Kind: OpRemove, Handle: h})
}

// Layer returns a copy of layer h.
func (s *Scene) Layer(h tile.Handle) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	if !ok {
		return Layer{}, false
	}
	return *l, true
}

// Layers returns copies of all layers of kind, ordered by handle.
func (s *Scene) Layers(kind LayerKind) []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Layer
	for _, l := range s.layers {
		if l.Kind == kind {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

func (s *Scene) OnClick(fn func(target tile.Handle)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClick = append(s.onClick, fn)
}

func (s *Scene) OnZoomEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onZoom = append(s.onZoom, fn)
}

// WhenReady runs fn once the scene has a view, immediately if it already has one.
func (s *Scene) WhenReady(fn func()) {
	s.mu.Lock()
	if !s.ready {
		s.onReady = append(s.onReady, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Click simulates a pointer click. Clicks on anything but an attached
// interactive marker fall through to the background.
func (s *Scene) Click(h tile.Handle) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	l, ok := s.layers[h]
	if !ok || l.Kind != KindMarker || !l.Attached || !l.Marker.Interactive {
		h = 0
	}
	fns := append([]func(tile.Handle){}, s.onClick...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(h)
	}
}

// Close drops every layer and listener.
func (s *Scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.layers)
	s.onClick = nil
	s.onZoom = nil
	s.onReady = nil
}

// Closed reports whether Close was called.
func (s *Scene) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
