// Package tile is the 2D tile-map renderer backend.
package tile

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/engine/overlay"
	"github.com/hydra/aware/internal/engine/symbol"
	"github.com/hydra/aware/internal/geo"
)

const (
	DefaultIconSize       = 28
	DefaultSectorMinZoom  = 14.0
	SectorSizeMeters      = 44.0
	CoverageRadius        = 250.0
	selectionAnchorOffset = 4
)

var coverageStyle = CircleStyle{
	Color:       "rgba(59, 130, 246, 0.2)",
	FillColor:   "rgba(59, 130, 246, 0.04)",
	FillOpacity: 1,
	Weight:      1,
}

// Options configures an Adapter. Zero values take the defaults.
type Options struct {
	IconSize        int
	SectorMinZoom   float64
	SymbolCacheSize int
	Renderer        symbol.Renderer
	Logger          *slog.Logger
}

// sceneEntry is the per-entity bookkeeping. The last* fields are the
// fingerprints of what was last drawn.
type sceneEntry struct {
	marker        Handle
	coverage      Handle
	sectorOverlay Handle
	lastSymbol    string
	lastLabel     string
	lastSectors   string
}

// Adapter implements engine.Engine and engine.Measurer on a Surface.
type Adapter struct {
	iconSize      int
	sectorMinZoom float64
	symbols       *symbol.Cache
	logger        *slog.Logger
	events        *engine.Emitter

	mu              sync.Mutex
	surface         Surface
	destroyed       bool
	entries         map[string]*sceneEntry
	affiliations    map[string]engine.Affiliation
	markers         map[Handle]string
	filter          engine.EntityFilter
	coverageVisible bool
	selectedID      string
	selectionMarker Handle
	trackedID       string
	measure         measurements
}

var (
	_ engine.Engine   = (*Adapter)(nil)
	_ engine.Measurer = (*Adapter)(nil)
)

// New creates an unmounted Adapter.
func New(opts Options) *Adapter {
	if opts.IconSize <= 0 {
		opts.IconSize = DefaultIconSize
	}
	if opts.SectorMinZoom <= 0 {
		opts.SectorMinZoom = DefaultSectorMinZoom
	}
	if opts.Renderer == nil {
		opts.Renderer = symbol.SVG
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Adapter{
		iconSize:      opts.IconSize,
		sectorMinZoom: opts.SectorMinZoom,
		symbols:       symbol.NewCache(opts.SymbolCacheSize, opts.Renderer),
		logger:        opts.Logger,
		events:        engine.NewEmitter(),
		entries:       make(map[string]*sceneEntry),
		affiliations:  make(map[string]engine.Affiliation),
		markers:       make(map[Handle]string),
		filter:        engine.DefaultFilter(),
	}
}

// Events returns the ready/entityClick/trackingLost emitter.
func (a *Adapter) Events() *engine.Emitter {
	return a.events
}

// Mount binds the adapter to a Surface. Mounting twice or after Destroy is a no-op.
func (a *Adapter) Mount(c engine.Container) error {
	s, ok := c.(Surface)
	if !ok {
		return engine.ErrUnsupportedContainer
	}

	a.mu.Lock()
	if a.destroyed || a.surface != nil {
		a.mu.Unlock()
		return nil
	}
	a.surface = s
	a.mu.Unlock()

	s.SetView(DefaultCenter, DefaultZoom)
	s.SetTileLayer(TileLayers[engine.BaseLayerDark])
	s.OnClick(a.handleClick)
	s.OnZoomEnd(a.updateSectorVisibility)
	s.WhenReady(func() {
		a.logger.Debug("Tile surface ready")
		a.events.EmitReady()
	})
	return nil
}

// Destroy releases the surface, all scene entries and all listeners.
func (a *Adapter) Destroy() {
	a.mu.Lock()
	a.destroyed = true
	s := a.surface
	a.surface = nil
	clear(a.entries)
	clear(a.affiliations)
	clear(a.markers)
	a.selectionMarker = 0
	a.mu.Unlock()

	if s != nil {
		s.Close()
	}
	a.events.Clear()
}

func (a *Adapter) mounted() Surface {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.surface
}

func (a *Adapter) ZoomIn() {
	if s := a.mounted(); s != nil {
		s.ZoomIn()
	}
}

func (a *Adapter) ZoomOut() {
	if s := a.mounted(); s != nil {
		s.ZoomOut()
	}
}

// FlyTo animates the camera to p at the current zoom.
func (a *Adapter) FlyTo(p engine.Position, duration time.Duration) {
	if duration <= 0 {
		duration = engine.DefaultFlyDuration
	}
	if s := a.mounted(); s != nil {
		s.FlyTo(p, s.Zoom(), duration)
	}
}

func (a *Adapter) SetBaseLayer(layer engine.BaseLayer) {
	s := a.mounted()
	if s == nil {
		return
	}
	cfg, ok := TileLayers[layer]
	if !ok {
		a.logger.Warn("Unknown base layer", "layer", layer)
		return
	}
	s.SetTileLayer(cfg)
}

// SetSceneMode only honours 2D; other modes are ignored with a warning.
func (a *Adapter) SetSceneMode(mode engine.SceneMode) {
	if mode != engine.SceneMode2D {
		a.logger.Warn("Tile adapter only supports 2D mode", "mode", mode)
	}
}

// SyncEntities diffs the list against the scene: entries missing from the
// list are removed, new ones created, existing ones moved and redrawn only
// where their fingerprints changed.
func (a *Adapter) SyncEntities(entities []engine.RenderableEntity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.surface
	if s == nil {
		return
	}

	keep := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		keep[e.ID] = struct{}{}
	}
	for id := range a.entries {
		if _, ok := keep[id]; !ok {
			a.removeEntry(s, id)
		}
	}

	showSectors := s.Zoom() >= a.sectorMinZoom

	for _, e := range entities {
		aff := e.Affiliation
		if aff == "" {
			aff = engine.Unknown
		}
		opacity := 0.0
		if a.filter.Visible(aff) {
			opacity = 1
		}

		entry, ok := a.entries[e.ID]
		if !ok {
			entry = a.createEntry(s, e, opacity, showSectors)
			a.entries[e.ID] = entry
		} else {
			s.SetMarkerPosition(entry.marker, e.Position)
			s.SetMarkerOpacity(entry.marker, opacity)

			if e.Symbol != "" && (e.Symbol != entry.lastSymbol || e.Label != entry.lastLabel) {
				s.SetMarkerIcon(entry.marker, a.icon(e.Symbol, e.Label))
				entry.lastSymbol = e.Symbol
				entry.lastLabel = e.Label
			}

			if entry.coverage != 0 {
				s.SetCirclePosition(entry.coverage, e.Position)
			}
			if entry.sectorOverlay != 0 {
				s.SetOverlayBounds(entry.sectorOverlay, geo.SectorBounds(e.Position.Lat, e.Position.Lng, SectorSizeMeters))
				if key := e.ActiveSectors.Key(); key != entry.lastSectors {
					s.SetOverlayURL(entry.sectorOverlay, overlay.SectorImage(e.ActiveSectors))
					entry.lastSectors = key
				}
			}
		}

		a.affiliations[e.ID] = aff

		if e.ID == a.selectedID && a.selectionMarker != 0 {
			s.SetMarkerPosition(a.selectionMarker, e.Position)
		}
		if e.ID == a.trackedID {
			s.PanTo(e.Position)
		}
	}
}

func (a *Adapter) createEntry(s Surface, e engine.RenderableEntity, opacity float64, showSectors bool) *sceneEntry {
	opts := MarkerOptions{Title: e.ID, Opacity: opacity, Interactive: true}
	if e.Symbol != "" {
		opts.Icon = a.icon(e.Symbol, e.Label)
	}
	entry := &sceneEntry{
		marker:     s.AddMarker(e.Position, opts),
		lastSymbol: e.Symbol,
		lastLabel:  e.Label,
	}
	s.Attach(entry.marker)
	a.markers[entry.marker] = e.ID

	if e.HasCoverage() {
		entry.coverage = s.AddCircle(e.Position, CoverageRadius, coverageStyle)
		if a.coverageVisible {
			s.Attach(entry.coverage)
		}

		bounds := geo.SectorBounds(e.Position.Lat, e.Position.Lng, SectorSizeMeters)
		entry.sectorOverlay = s.AddImageOverlay(overlay.SectorImage(e.ActiveSectors), bounds)
		entry.lastSectors = e.ActiveSectors.Key()
		if showSectors {
			s.Attach(entry.sectorOverlay)
		}
	}
	return entry
}

func (a *Adapter) removeEntry(s Surface, id string) {
	entry, ok := a.entries[id]
	if !ok {
		return
	}

	s.Remove(entry.marker)
	if entry.coverage != 0 {
		s.Remove(entry.coverage)
	}
	if entry.sectorOverlay != 0 {
		s.Remove(entry.sectorOverlay)
	}
	delete(a.markers, entry.marker)
	delete(a.entries, id)
	delete(a.affiliations, id)

	if id == a.selectedID {
		a.selectedID = ""
		if a.selectionMarker != 0 {
			s.Remove(a.selectionMarker)
			a.selectionMarker = 0
		}
	}
}

func (a *Adapter) icon(code, label string) Icon {
	return Icon{
		Image:   a.symbols.Get(code, a.iconSize, nil),
		Label:   label,
		Size:    a.iconSize,
		AnchorX: a.iconSize / 2,
		AnchorY: a.iconSize / 2,
	}
}

// SetEntityVisibility stores the filter and applies it to every marker.
func (a *Adapter) SetEntityVisibility(filter engine.EntityFilter) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.filter = filter
	if a.surface == nil {
		return
	}
	for id, entry := range a.entries {
		aff, ok := a.affiliations[id]
		if !ok {
			aff = engine.Unknown
		}
		opacity := 0.0
		if filter.Visible(aff) {
			opacity = 1
		}
		a.surface.SetMarkerOpacity(entry.marker, opacity)
	}
}

func (a *Adapter) SetCoverageVisible(visible bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.coverageVisible = visible
	if a.surface == nil {
		return
	}
	for _, entry := range a.entries {
		if entry.coverage != 0 {
			toggle(a.surface, entry.coverage, visible)
		}
	}
}

func (a *Adapter) updateSectorVisibility() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.surface == nil {
		return
	}
	visible := a.surface.Zoom() >= a.sectorMinZoom
	for _, entry := range a.entries {
		if entry.sectorOverlay != 0 {
			toggle(a.surface, entry.sectorOverlay, visible)
		}
	}
}

func toggle(s Surface, h Handle, visible bool) {
	attached := s.Attached(h)
	switch {
	case visible && !attached:
		s.Attach(h)
	case !visible && attached:
		s.Detach(h)
	}
}

// SelectEntity replaces the selection highlight; "" clears it.
func (a *Adapter) SelectEntity(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.surface != nil && a.selectionMarker != 0 {
		a.surface.Remove(a.selectionMarker)
	}
	a.selectionMarker = 0
	a.selectedID = id

	if a.surface == nil || id == "" {
		return
	}
	entry, ok := a.entries[id]
	if !ok {
		return
	}
	pos, ok := a.surface.MarkerPosition(entry.marker)
	if !ok {
		return
	}

	aff, ok := a.affiliations[id]
	if !ok {
		aff = engine.Unknown
	}
	size := overlay.FrameSize(a.iconSize)
	a.selectionMarker = a.surface.AddMarker(pos, MarkerOptions{
		Icon: Icon{
			Image:   overlay.SelectionFrame(aff, a.iconSize),
			Size:    size,
			AnchorX: size / 2,
			AnchorY: size/2 - selectionAnchorOffset,
		},
		Opacity:      1,
		ZIndexOffset: -1,
	})
	a.surface.Attach(a.selectionMarker)
}

// TrackEntity follows id, recentring once now and on every sync that
// includes it. Clearing an active track emits trackingLost.
func (a *Adapter) TrackEntity(id string) {
	a.mu.Lock()
	wasTracking := a.trackedID != ""
	a.trackedID = id
	lost := wasTracking && id == ""

	var (
		target engine.Position
		fly    bool
	)
	s := a.surface
	if s != nil && id != "" {
		if entry, ok := a.entries[id]; ok {
			target, fly = s.MarkerPosition(entry.marker)
		}
	}
	a.mu.Unlock()

	if lost {
		a.events.EmitTrackingLost()
	}
	if fly {
		s.FlyTo(target, s.Zoom(), engine.DefaultFlyDuration)
	}
}

func (a *Adapter) handleClick(target Handle) {
	if target == 0 {
		a.events.EmitEntityClick("")
		return
	}
	a.mu.Lock()
	id, ok := a.markers[target]
	a.mu.Unlock()
	if ok {
		a.events.EmitEntityClick(id)
	}
}

// SceneIDs returns the ids with a scene entry, sorted.
func (a *Adapter) SceneIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.entries))
	for id := range a.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MarkerFor returns the marker handle of id.
func (a *Adapter) MarkerFor(id string) (Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[id]
	if !ok {
		return 0, false
	}
	return entry.marker, true
}

// Selected returns the selected id and its highlight marker.
func (a *Adapter) Selected() (string, Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectedID, a.selectionMarker
}

// Tracked returns the tracked id, "" when not tracking.
func (a *Adapter) Tracked() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trackedID
}
