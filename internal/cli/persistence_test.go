package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func sampleSession(id string) *domain.Session {
	return &domain.Session{
		ID: id,
		Scenario: domain.ScenarioSpec{
			Kind:   domain.KindClass,
			Params: map[string]any{"name": "Dog", "api_token": "s3cret"},
		},
		Playback: domain.Playback{Index: 2, Total: 8, Speed: domain.SpeedNormal, Status: domain.StatusPaused},
	}
}

func TestOpenPersistence_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name       string
		cfg        config.StoreConfig
		wantLocker bool
	}{
		{name: "Memory", cfg: config.StoreConfig{Backend: config.BackendMemory}},
		{name: "File", cfg: config.StoreConfig{Backend: config.BackendFile, Path: t.TempDir()}},
		{
			name:       "Redis",
			cfg:        config.StoreConfig{Backend: config.BackendRedis, Redis: config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"}},
			wantLocker: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			p, err := OpenPersistence(ctx, tt.cfg, logging.NewNop())
			require.NoError(t, err)
			defer p.Close()

			assert.Equal(t, tt.wantLocker, p.Locker != nil)

			mgr := p.Manager(logging.NewNop())
			require.NoError(t, mgr.Save(ctx, "s1", sampleSession("s1")))
			loaded, err := mgr.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 2, loaded.Playback.Index)
		})
	}
}

func TestOpenPersistence_RedisKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := OpenPersistence(ctx, config.StoreConfig{
		Backend: config.BackendRedis,
		Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"},
	}, logging.NewNop())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Store.Save(ctx, "s1", sampleSession("s1")))
	assert.True(t, mr.Exists("test:s1"))
}

func TestOpenPersistence_EncryptionAndRedaction(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cfg := config.StoreConfig{
		Backend:       config.BackendFile,
		Path:          dir,
		EncryptionKey: testKey,
		Redact:        []string{"(?i)token"},
	}

	p, err := OpenPersistence(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Store.Save(ctx, "s1", sampleSession("s1")))

	raw, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Dog", "scenario is sealed")
	assert.NotContains(t, string(raw), "s3cret")

	loaded, err := p.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.KindClass, loaded.Scenario.Kind)
	assert.Equal(t, "Dog", loaded.Scenario.Params["name"])
	assert.Equal(t, "***", loaded.Scenario.Params["api_token"])
}

func TestOpenPersistence_KeyRotation(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	oldKey := strings.Repeat("ab", 32)

	p, err := OpenPersistence(ctx, config.StoreConfig{Backend: config.BackendFile, Path: dir, EncryptionKey: oldKey}, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Store.Save(ctx, "s1", sampleSession("s1")))

	rotated, err := OpenPersistence(ctx, config.StoreConfig{
		Backend:       config.BackendFile,
		Path:          dir,
		EncryptionKey: testKey,
		FallbackKeys:  []string{oldKey},
	}, logging.NewNop())
	require.NoError(t, err)

	loaded, err := rotated.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Dog", loaded.Scenario.Params["name"])
}

func TestOpenPersistence_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.StoreConfig
		want string
	}{
		{"Unknown Backend", config.StoreConfig{Backend: "sqlite"}, "unknown store backend"},
		{"Bad Key", config.StoreConfig{Backend: config.BackendMemory, EncryptionKey: "short"}, "store.encryption_key"},
		{"Bad Fallback Key", config.StoreConfig{Backend: config.BackendMemory, EncryptionKey: testKey, FallbackKeys: []string{"x"}}, "store.fallback_keys[0]"},
		{"Redis Down", config.StoreConfig{Backend: config.BackendRedis, Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}, "redis unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenPersistence(ctx, tt.cfg, logging.NewNop())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
