package uistate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydra/aware/internal/engine"
)

type change struct {
	prev, next State
}

func record(s *Store) *[]change {
	var got []change
	s.Subscribe(func(prev, next State) {
		got = append(got, change{prev, next})
	})
	return &got
}

func TestStore_NotifiesOnChangeOnly(t *testing.T) {
	s := New(DefaultState())
	got := record(s)

	s.Select("A")
	s.Select("A")
	s.SetBaseLayer(engine.BaseLayerDark)
	s.SetFilter(engine.DefaultFilter())

	require.Len(t, *got, 1)
	assert.Equal(t, "", (*got)[0].prev.SelectedID)
	assert.Equal(t, "A", (*got)[0].next.SelectedID)
}

func TestStore_ClearSelection(t *testing.T) {
	s := New(DefaultState())
	s.Select("A")
	s.SetFollowing(true)

	got := record(s)
	s.ClearSelection()

	require.Len(t, *got, 1, "one notification for both fields")
	st := s.State()
	assert.Empty(t, st.SelectedID)
	assert.False(t, st.Following)
}

func TestStore_TrackVisibility(t *testing.T) {
	s := New(DefaultState())
	s.SetTrackVisible(engine.Hostile, false)
	s.SetTrackVisible(engine.Unknown, false)

	f := s.State().Filter
	assert.True(t, f.Visible(engine.Friend))
	assert.False(t, f.Visible(engine.Hostile))
	assert.True(t, f.Visible(engine.Neutral))
	assert.False(t, f.Visible(engine.Unknown))
}

func TestStore_SetFilterCopiesSensors(t *testing.T) {
	s := New(DefaultState())
	f := engine.DefaultFilter()
	f.Sensors["radar"] = false
	s.SetFilter(f)

	f.Sensors["radar"] = true
	assert.False(t, s.State().Filter.Sensors["radar"])
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New(DefaultState())
	calls := 0
	cancel := s.Subscribe(func(State, State) { calls++ })

	s.SetCoverage(true)
	cancel()
	s.SetCoverage(false)
	assert.Equal(t, 1, calls)
}

func TestStore_ListenerMayWrite(t *testing.T) {
	s := New(DefaultState())
	s.Subscribe(func(prev, next State) {
		if next.SelectedID == "" && next.Following {
			s.SetFollowing(false)
		}
	})

	s.SetFollowing(true)
	assert.False(t, s.State().Following)

	s.SetMeasurement(engine.MeasureArea)
	assert.Equal(t, engine.MeasureArea, s.State().Measurement)
	s.SetSceneMode(engine.SceneMode3D)
	assert.Equal(t, engine.SceneMode3D, s.State().SceneMode)
}
