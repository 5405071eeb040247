package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepper/pkg/adapters/file"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements SessionStore
var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", &domain.Session{ID: "session-1"}))

	data, err := os.ReadFile(filepath.Join(dir, "session-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "session-1"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b", &domain.Session{ID: "b"}))
	require.NoError(t, store.Save(ctx, "a", &domain.Session{ID: "a"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-c-123.json"), []byte("{}"), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "does-not-exist"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", `a\b`, "x/y"} {
		assert.Error(t, store.Save(ctx, id, &domain.Session{}), "id %q", id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	assert.Error(t, err)
}
