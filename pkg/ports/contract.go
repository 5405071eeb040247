package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSession(id string) *domain.Session {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Session{
		ID:       id,
		Scenario: domain.ScenarioSpec{Kind: domain.KindSwitch, Params: map[string]any{"value": "9"}},
		Playback: domain.Playback{
			Index:  2,
			Total:  7,
			Speed:  domain.SpeedDouble,
			Status: domain.StatusPaused,
		},
		Hidden:    []string{"lanes"},
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sess := contractSession(sessionID)

		err := store.Save(ctx, sessionID, sess)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sess.ID, loaded.ID)
		assert.Equal(t, sess.Playback, loaded.Playback)
		assert.Equal(t, sess.Scenario.Kind, loaded.Scenario.Kind)
		// Params go through a serializer; only string values are guaranteed to keep their type.
		assert.Equal(t, "9", loaded.Scenario.Params["value"])
		assert.Equal(t, sess.Hidden, loaded.Hidden)
		assert.True(t, sess.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		sess := contractSession(sessionID)
		sess.Playback.Index = 6
		sess.Playback.Status = domain.StatusComplete
		require.NoError(t, store.Save(ctx, sessionID, sess))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 6, loaded.Playback.Index)
		assert.Equal(t, domain.StatusComplete, loaded.Playback.Status)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSession(sessionID)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Playback.Index = 0
		loaded.Hidden[0] = "changed"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Playback.Index)
		assert.Equal(t, "lanes", again.Hidden[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSession(id1))
		_ = store.Save(ctx, id2, contractSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
