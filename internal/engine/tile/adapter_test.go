package tile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/engine/overlay"
	"github.com/hydra/aware/internal/engine/tile"
	"github.com/hydra/aware/internal/scene"
)

func radar(id string, lat, lng float64, sectors ...engine.Sector) engine.RenderableEntity {
	return engine.RenderableEntity{
		ID:            id,
		Position:      engine.Position{Lat: lat, Lng: lng},
		Symbol:        "SFGPES----",
		Label:         id,
		Affiliation:   engine.Friend,
		EllipseRadius: tile.CoverageRadius,
		ActiveSectors: engine.NewSectorSet(sectors...),
	}
}

func track(id string, lat, lng float64, code string) engine.RenderableEntity {
	return engine.RenderableEntity{
		ID:          id,
		Position:    engine.Position{Lat: lat, Lng: lng},
		Symbol:      code,
		Label:       id,
		Affiliation: engine.AffiliationOf(code),
	}
}

func mounted(t *testing.T) (*tile.Adapter, *scene.Scene) {
	t.Helper()
	a := tile.New(tile.Options{})
	s := scene.New()
	require.NoError(t, a.Mount(s))
	s.Ops().Clear()
	return a, s
}

func redraws(s *scene.Scene) []scene.Op {
	var out []scene.Op
	for _, op := range s.Ops().Drain() {
		if op.Kind.Redraw() {
			out = append(out, op)
		}
	}
	return out
}

func TestAdapter_MountEmitsReady(t *testing.T) {
	a := tile.New(tile.Options{})
	ready := 0
	a.Events().OnReady(func() { ready++ })

	s := scene.New()
	require.NoError(t, a.Mount(s))
	assert.Equal(t, 1, ready)
	assert.Equal(t, tile.DefaultCenter, s.Center())
	assert.Equal(t, tile.DefaultZoom, s.Zoom())
	assert.Equal(t, engine.BaseLayerDark, s.TileLayer().Name)

	require.NoError(t, a.Mount(scene.New()))
	assert.Equal(t, 1, ready, "second mount is a no-op")
}

func TestAdapter_MountRejectsUnknownContainer(t *testing.T) {
	a := tile.New(tile.Options{})
	assert.ErrorIs(t, a.Mount("not a surface"), engine.ErrUnsupportedContainer)
}

func TestAdapter_CallsBeforeMountAreNoOps(t *testing.T) {
	a := tile.New(tile.Options{})
	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})
	a.SelectEntity("A")
	a.TrackEntity("A")
	a.ZoomIn()
	a.StartMeasurement(engine.MeasureDistance)

	assert.Empty(t, a.SceneIDs())
	assert.Empty(t, a.Measurements())
}

func TestAdapter_DestroyReleasesEverything(t *testing.T) {
	a, s := mounted(t)
	clicks := 0
	a.Events().OnEntityClick(func(string) { clicks++ })
	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})
	m, _ := a.MarkerFor("A")

	a.Destroy()
	assert.True(t, s.Closed())
	assert.Empty(t, a.SceneIDs())

	s.Click(m)
	assert.Equal(t, 0, clicks)

	require.NoError(t, a.Mount(scene.New()))
	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})
	assert.Empty(t, a.SceneIDs(), "mount after destroy is a no-op")
}

func TestAdapter_SyncCreatesAndRemoves(t *testing.T) {
	a, s := mounted(t)

	a.SyncEntities([]engine.RenderableEntity{
		track("A", 1, 1, "SFGPU-----"),
		radar("R", 2, 2, engine.North),
	})
	assert.Equal(t, []string{"A", "R"}, a.SceneIDs())
	assert.Len(t, s.Layers(scene.KindMarker), 2)
	assert.Len(t, s.Layers(scene.KindCircle), 1)
	assert.Len(t, s.Layers(scene.KindOverlay), 1)

	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})
	assert.Equal(t, []string{"A"}, a.SceneIDs())
	assert.Len(t, s.Layers(scene.KindMarker), 1)
	assert.Empty(t, s.Layers(scene.KindCircle))
	assert.Empty(t, s.Layers(scene.KindOverlay))

	a.SyncEntities(nil)
	assert.Empty(t, a.SceneIDs())
	assert.Empty(t, s.Layers(scene.KindMarker))
}

func TestAdapter_IdenticalSyncDoesNotRedraw(t *testing.T) {
	a, s := mounted(t)
	entities := []engine.RenderableEntity{
		track("A", 1, 1, "SFGPU-----"),
		radar("R", 2, 2, engine.North, engine.East),
	}

	a.SyncEntities(entities)
	assert.NotEmpty(t, redraws(s))

	a.SyncEntities(entities)
	assert.Empty(t, redraws(s))
}

func TestAdapter_SyncRedrawsOnlyChangedParts(t *testing.T) {
	a, s := mounted(t)
	a.SyncEntities([]engine.RenderableEntity{
		track("A", 1, 1, "SFGPU-----"),
		radar("R", 2, 2, engine.North),
	})
	s.Ops().Clear()

	moved := track("A", 1.5, 1.5, "SFGPU-----")
	a.SyncEntities([]engine.RenderableEntity{moved, radar("R", 2, 2, engine.North)})
	assert.Empty(t, redraws(s), "moving is not a redraw")
	m, _ := a.MarkerFor("A")
	pos, _ := s.MarkerPosition(m)
	assert.Equal(t, moved.Position, pos)

	relabelled := moved
	relabelled.Label = "Alpha"
	a.SyncEntities([]engine.RenderableEntity{relabelled, radar("R", 2, 2, engine.North)})
	ops := redraws(s)
	require.Len(t, ops, 1)
	assert.Equal(t, scene.OpMarkerIcon, ops[0].Kind)
	assert.Equal(t, m, ops[0].Handle)

	a.SyncEntities([]engine.RenderableEntity{relabelled, radar("R", 2, 2, engine.South)})
	ops = redraws(s)
	require.Len(t, ops, 1)
	assert.Equal(t, scene.OpOverlayURL, ops[0].Kind)

	l := s.Layers(scene.KindOverlay)[0]
	assert.Equal(t, overlay.SectorImage(engine.NewSectorSet(engine.South)), l.URL)
}

func TestAdapter_SectorOverlayFollowsZoom(t *testing.T) {
	a, s := mounted(t)
	a.SyncEntities([]engine.RenderableEntity{radar("R", 2, 2, engine.North)})

	overlays := s.Layers(scene.KindOverlay)
	require.Len(t, overlays, 1)
	assert.False(t, overlays[0].Attached, "hidden below the sector zoom")

	a.ZoomIn()
	assert.Equal(t, tile.DefaultSectorMinZoom, s.Zoom())
	assert.True(t, s.Attached(overlays[0].Handle))

	a.SyncEntities([]engine.RenderableEntity{radar("R", 2, 2, engine.North), radar("S", 3, 3)})
	for _, l := range s.Layers(scene.KindOverlay) {
		assert.True(t, l.Attached, "created at sector zoom")
	}

	a.ZoomOut()
	for _, l := range s.Layers(scene.KindOverlay) {
		assert.False(t, l.Attached)
	}
}

func TestAdapter_CoverageToggle(t *testing.T) {
	a, s := mounted(t)
	a.SyncEntities([]engine.RenderableEntity{radar("R", 2, 2)})

	circle := s.Layers(scene.KindCircle)[0]
	assert.False(t, circle.Attached)
	assert.Equal(t, tile.CoverageRadius, circle.Radius)

	a.SetCoverageVisible(true)
	assert.True(t, s.Attached(circle.Handle))

	a.SyncEntities([]engine.RenderableEntity{radar("R", 2, 2), radar("S", 3, 3)})
	for _, l := range s.Layers(scene.KindCircle) {
		assert.True(t, l.Attached)
	}

	a.SetCoverageVisible(false)
	for _, l := range s.Layers(scene.KindCircle) {
		assert.False(t, l.Attached)
	}
}

func TestAdapter_VisibilityFilter(t *testing.T) {
	a, s := mounted(t)
	a.SyncEntities([]engine.RenderableEntity{
		track("F", 1, 1, "SFGPU-----"),
		track("H", 1, 1, "SHGPU-----"),
	})

	opacity := func(id string) float64 {
		m, ok := a.MarkerFor(id)
		require.True(t, ok)
		l, ok := s.Layer(m)
		require.True(t, ok)
		return l.Marker.Opacity
	}
	assert.Equal(t, 1.0, opacity("F"))
	assert.Equal(t, 1.0, opacity("H"))

	filter := engine.DefaultFilter()
	filter.Tracks.Hostile = false
	a.SetEntityVisibility(filter)
	assert.Equal(t, 1.0, opacity("F"))
	assert.Equal(t, 0.0, opacity("H"))

	a.SyncEntities([]engine.RenderableEntity{
		track("F", 1, 1, "SFGPU-----"),
		track("H", 1, 1, "SHGPU-----"),
		track("H2", 1, 1, "SHGPU-----"),
	})
	assert.Equal(t, 0.0, opacity("H2"), "new entities honour the filter")
}

func TestAdapter_Selection(t *testing.T) {
	a, s := mounted(t)
	a.SyncEntities([]engine.RenderableEntity{
		track("A", 1, 1, "SFGPU-----"),
		track("B", 2, 2, "SHGPU-----"),
	})

	a.SelectEntity("A")
	id, frame := a.Selected()
	assert.Equal(t, "A", id)
	require.NotZero(t, frame)
	l, ok := s.Layer(frame)
	require.True(t, ok)
	assert.Equal(t, engine.Position{Lat: 1, Lng: 1}, l.Position)
	assert.False(t, l.Marker.Interactive)
	assert.Equal(t, -1, l.Marker.ZIndexOffset)
	assert.Equal(t, overlay.SelectionFrame(engine.Friend, tile.DefaultIconSize), l.Marker.Icon.Image)

	a.SelectEntity("B")
	_, ok = s.Layer(frame)
	assert.False(t, ok, "previous highlight removed")
	_, frame = a.Selected()
	l, _ = s.Layer(frame)
	assert.Equal(t, overlay.SelectionFrame(engine.Hostile, tile.DefaultIconSize), l.Marker.Icon.Image)

	a.SyncEntities([]engine.RenderableEntity{
		track("A", 1, 1, "SFGPU-----"),
		track("B", 5, 5, "SHGPU-----"),
	})
	l, _ = s.Layer(frame)
	assert.Equal(t, engine.Position{Lat: 5, Lng: 5}, l.Position, "highlight follows the entity")

	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})
	id, frame = a.Selected()
	assert.Empty(t, id, "removing the selected entity clears the selection")
	assert.Zero(t, frame)
	assert.Len(t, s.Layers(scene.KindMarker), 1)

	a.SelectEntity("A")
	a.SelectEntity("")
	id, frame = a.Selected()
	assert.Empty(t, id)
	assert.Zero(t, frame)

	a.SelectEntity("missing")
	id, frame = a.Selected()
	assert.Equal(t, "missing", id)
	assert.Zero(t, frame)
}

func TestAdapter_Tracking(t *testing.T) {
	a, s := mounted(t)
	lost := 0
	a.Events().OnTrackingLost(func() { lost++ })
	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})

	a.TrackEntity("A")
	assert.Equal(t, engine.Position{Lat: 1, Lng: 1}, s.Center())
	assert.Equal(t, engine.DefaultFlyDuration, s.LastFlyDuration())
	assert.Equal(t, tile.DefaultZoom, s.Zoom(), "tracking keeps the zoom")

	a.SyncEntities([]engine.RenderableEntity{track("A", 3, 3, "SFGPU-----")})
	assert.Equal(t, engine.Position{Lat: 3, Lng: 3}, s.Center())

	a.TrackEntity("")
	assert.Equal(t, 1, lost)
	a.TrackEntity("")
	assert.Equal(t, 1, lost, "only an active track can be lost")

	a.SyncEntities([]engine.RenderableEntity{track("A", 4, 4, "SFGPU-----")})
	assert.Equal(t, engine.Position{Lat: 3, Lng: 3}, s.Center())
}

func TestAdapter_Clicks(t *testing.T) {
	a, s := mounted(t)
	var got []string
	a.Events().OnEntityClick(func(id string) { got = append(got, id) })
	a.SyncEntities([]engine.RenderableEntity{track("A", 1, 1, "SFGPU-----")})

	m, _ := a.MarkerFor("A")
	s.Click(m)
	s.Click(0)

	a.SelectEntity("A")
	_, frame := a.Selected()
	s.Click(frame)

	assert.Equal(t, []string{"A", "", ""}, got)
}

func TestAdapter_SetBaseLayer(t *testing.T) {
	a, s := mounted(t)
	a.SetBaseLayer(engine.BaseLayerSatellite)
	assert.Equal(t, engine.BaseLayerSatellite, s.TileLayer().Name)

	a.SetBaseLayer("terrain")
	assert.Equal(t, engine.BaseLayerSatellite, s.TileLayer().Name)

	a.SetSceneMode(engine.SceneMode3D)
	assert.Equal(t, engine.BaseLayerSatellite, s.TileLayer().Name)
}

func TestAdapter_Measurements(t *testing.T) {
	a, _ := mounted(t)
	m, ok := engine.AsMeasurer(a)
	require.True(t, ok)

	m.StartMeasurement(engine.MeasureDistance)
	m.StartMeasurement(engine.MeasureArea)
	all := a.Measurements()
	require.Len(t, all, 2)
	assert.Equal(t, engine.MeasureDistance, all[0].Type)
	assert.False(t, all[0].Stopped.IsZero())
	assert.Equal(t, engine.MeasureArea, all[1].Type)
	assert.True(t, all[1].Stopped.IsZero())
	assert.NotEqual(t, all[0].ID, all[1].ID)

	m.StopMeasurement()
	assert.False(t, a.Measurements()[1].Stopped.IsZero())

	m.ClearMeasurements()
	assert.Empty(t, a.Measurements())
}
