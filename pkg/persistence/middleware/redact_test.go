package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/persistence/middleware"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactMiddleware([]string{"(?i)token", "^code$"})(underlying)
	ctx := context.Background()

	sess := &domain.Session{
		ID: "r",
		Scenario: domain.ScenarioSpec{Kind: "custom", Params: map[string]any{
			"code":   "alert(1)",
			"value":  75,
			"nested": map[string]any{"API_TOKEN": "abc", "ok": true},
		}},
	}
	require.NoError(t, store.Save(ctx, "r", sess))

	loaded, err := underlying.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Scenario.Params["code"])
	assert.Equal(t, 75, loaded.Scenario.Params["value"])
	assert.Equal(t, map[string]any{"API_TOKEN": middleware.Mask, "ok": true}, loaded.Scenario.Params["nested"])

	// The live session is untouched.
	assert.Equal(t, "alert(1)", sess.Scenario.Params["code"])
	assert.Equal(t, "abc", sess.Scenario.Params["nested"].(map[string]any)["API_TOKEN"])
}

func TestRedactMiddleware_NestedLists(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactMiddleware([]string{"(?i)token"})(underlying)
	ctx := context.Background()

	props := []any{map[string]any{"name": "key", "token": "abc"}}
	sess := &domain.Session{ID: "l", Scenario: domain.ScenarioSpec{Kind: domain.KindClass, Params: map[string]any{"properties": props}}}
	require.NoError(t, store.Save(ctx, "l", sess))

	loaded, err := underlying.Load(ctx, "l")
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"name": "key", "token": middleware.Mask}}, loaded.Scenario.Params["properties"])
	assert.Equal(t, "abc", props[0].(map[string]any)["token"])
}

func TestRedactMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, middleware.NewRedactMiddleware([]string{"secret"})(memory.NewStore()))
}

func TestChain(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.Chain(underlying,
		middleware.NewRedactMiddleware([]string{"left"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: make([]byte, 32)}),
	)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "c", secretSession("c")))

	raw, err := underlying.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, middleware.EnvelopeKind, raw.Scenario.Kind)

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Scenario.Params["left"])
}
