package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirTempStoreSaveAndRelease(t *testing.T) {
	store, err := NewDirTempStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	h, err := store.Save([]byte("payload"))
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path(h))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Release(h))
	_, err = os.Stat(store.Path(h))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Release(h), "release must be idempotent")
	assert.NoError(t, store.Release(""))
}

func TestDirTempStoreRequiresDir(t *testing.T) {
	_, err := NewDirTempStore(" ")
	assert.Error(t, err)
}

func TestDirTempStoreSweep(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirTempStore(dir)
	require.NoError(t, err)

	old, err := store.Save([]byte("old"))
	require.NoError(t, err)
	fresh, err := store.Save([]byte("fresh"))
	require.NoError(t, err)
	unrelated := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("x"), 0o644))

	now := time.Now()
	past := now.Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(old), past, past))
	require.NoError(t, os.Chtimes(unrelated, past, past))

	removed, err := store.Sweep(time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(store.Path(old))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(store.Path(fresh))
	assert.NoError(t, err)
	_, err = os.Stat(unrelated)
	assert.NoError(t, err)
}
