package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	base := func() *Session {
		return &Session{
			ID:       "sess-1",
			Scenario: ScenarioSpec{Kind: KindIfElse, Params: map[string]any{"value": 75}},
			Playback: Playback{Index: 0, Total: 5, Speed: SpeedNormal, Status: StatusIdle},
		}
	}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		diff := Diff(nil, base())
		require.NotNil(t, diff)
		assert.Equal(t, "sess-1", diff.SessionID)
		require.NotNil(t, diff.Total)
		assert.Equal(t, 5, *diff.Total)
		require.NotNil(t, diff.Scenario)
		assert.Equal(t, KindIfElse, diff.Scenario.Kind)
	})

	t.Run("No Changes", func(t *testing.T) {
		assert.Nil(t, Diff(base(), base()))
	})

	t.Run("Playback Advance", func(t *testing.T) {
		next := base()
		next.Playback.Index = 1
		next.Playback.Playing = true
		next.Playback.Status = StatusPlaying

		diff := Diff(base(), next)
		require.NotNil(t, diff)
		require.NotNil(t, diff.Index)
		assert.Equal(t, 1, *diff.Index)
		require.NotNil(t, diff.Status)
		assert.Equal(t, StatusPlaying, *diff.Status)
		assert.Nil(t, diff.Speed)
		assert.Nil(t, diff.Scenario)
	})

	t.Run("Scenario Params Change", func(t *testing.T) {
		next := base()
		next.Scenario.Params = map[string]any{"value": 40}

		diff := Diff(base(), next)
		require.NotNil(t, diff)
		require.NotNil(t, diff.Scenario)
		assert.Equal(t, 40, diff.Scenario.Params["value"])
	})

	t.Run("Nil New", func(t *testing.T) {
		assert.Nil(t, Diff(base(), nil))
	})
}

func TestDiff_JSONOmitsUnchanged(t *testing.T) {
	old := &Session{ID: "s", Playback: Playback{Index: 2, Total: 4, Speed: SpeedNormal, Status: StatusPaused}}
	next := old.Clone()
	next.Playback.Speed = SpeedDouble

	data, err := json.Marshal(Diff(old, next))
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"s","speed":2}`, string(data))
}

func TestStepClone_IsDeep(t *testing.T) {
	orig := Step{
		Index: 1,
		Snapshot: Snapshot{
			Variables: map[string]string{"x": "1"},
			Output:    []string{"a"},
			Lanes:     []Lane{{Name: "Call Stack", Items: []string{"main()"}}},
		},
	}

	cp := orig.Clone()
	cp.Snapshot.Variables["x"] = "2"
	cp.Snapshot.Output[0] = "b"
	cp.Snapshot.Lanes[0].Items[0] = "other()"

	assert.Equal(t, "1", orig.Snapshot.Variables["x"])
	assert.Equal(t, "a", orig.Snapshot.Output[0])
	assert.Equal(t, "main()", orig.Snapshot.Lanes[0].Items[0])
}

func TestNearestSpeed(t *testing.T) {
	tests := []struct {
		in   float64
		want Speed
	}{
		{0.5, SpeedHalf},
		{0.1, SpeedHalf},
		{1, SpeedNormal},
		{1.2, SpeedNormal},
		{1.8, SpeedDouble},
		{10, SpeedDouble},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearestSpeed(tt.in), "input %v", tt.in)
	}
}
