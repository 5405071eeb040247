package session

import (
	"context"
	"testing"

	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A session deleted after a command or tick resolved it must stay deleted.
func TestHub_DeleteAfterResolve(t *testing.T) {
	store := memory.NewStore()
	hub := NewHub(NewManager(store), WithScheduler(playback.NewManualScheduler()))
	t.Cleanup(hub.Close)
	ctx := context.Background()

	sess, err := hub.Create(ctx, domain.ScenarioSpec{Kind: domain.KindSequential}, CreateOptions{ID: "s"})
	require.NoError(t, err)

	l, err := hub.resolve(ctx, sess.ID)
	require.NoError(t, err)
	require.NoError(t, hub.Delete(ctx, sess.ID))

	_, err = hub.apply(ctx, sess.ID, l, CmdStep, Command{Name: CmdStep})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	hub.persistTick(sess.ID, l, false)

	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = hub.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, 0, hub.Active())
}
