package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_Lifecycle(t *testing.T) {
	sm := NewSignalManager(context.Background())

	ctx := sm.Context()
	assert.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())

	sm.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSignalManager_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	<-sm.Context().Done()
	assert.ErrorIs(t, sm.Context().Err(), context.Canceled)
}
