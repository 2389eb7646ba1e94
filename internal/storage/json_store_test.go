package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/storage"
)

type snapshotPayload struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestJSONStore(t *testing.T) {
	t.Run("round trips a value", func(t *testing.T) {
		store, err := storage.NewJSONStore(t.TempDir(), "payload.json")
		require.NoError(t, err)

		in := snapshotPayload{Name: "alice", Count: 3, Tags: []string{"a", "b"}}
		require.NoError(t, store.Save(in))
		assert.True(t, store.Exists())

		var out snapshotPayload
		require.NoError(t, store.Load(&out))
		assert.Equal(t, in, out)
	})

	t.Run("missing file loads as a no-op", func(t *testing.T) {
		store, err := storage.NewJSONStore(t.TempDir(), "missing.json")
		require.NoError(t, err)
		assert.False(t, store.Exists())

		out := snapshotPayload{Name: "untouched"}
		require.NoError(t, store.Load(&out))
		assert.Equal(t, "untouched", out.Name)
	})

	t.Run("empty file loads as a no-op", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), nil, 0o644))

		store, err := storage.NewJSONStore(dir, "empty.json")
		require.NoError(t, err)

		out := snapshotPayload{Name: "untouched"}
		require.NoError(t, store.Load(&out))
		assert.Equal(t, "untouched", out.Name)
	})

	t.Run("corrupt file surfaces a decode error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

		store, err := storage.NewJSONStore(dir, "bad.json")
		require.NoError(t, err)

		var out snapshotPayload
		assert.Error(t, store.Load(&out))
	})

	t.Run("save replaces the previous snapshot", func(t *testing.T) {
		store, err := storage.NewJSONStore(t.TempDir(), "payload.json")
		require.NoError(t, err)

		require.NoError(t, store.Save(snapshotPayload{Name: "first"}))
		require.NoError(t, store.Save(snapshotPayload{Name: "second", Count: 2}))

		var out snapshotPayload
		require.NoError(t, store.Load(&out))
		assert.Equal(t, "second", out.Name)
		assert.Equal(t, 2, out.Count)
	})

	t.Run("no temp file is left behind", func(t *testing.T) {
		dir := t.TempDir()
		store, err := storage.NewJSONStore(dir, "payload.json")
		require.NoError(t, err)
		require.NoError(t, store.Save(snapshotPayload{Name: "alice"}))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "payload.json", entries[0].Name())
	})
}
