package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Cells []bool `json:"cells"`
}

func TestFileCacheRoundTrip(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())

	fc := NewFileCache[payload]("masks")
	key := fc.GenerateKey("boundary.geojson", 10, 10)

	_, ok := fc.Get(key)
	assert.False(t, ok)

	want := payload{Name: "study-area", Cells: []bool{true, false, true}}
	require.NoError(t, fc.Set(key, want))

	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileCacheRejectsCorruptedEntry(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ROOT_PATH", root)

	fc := NewFileCache[payload]("masks")
	key := fc.GenerateKey("boundary.geojson")
	require.NoError(t, fc.Set(key, payload{Name: "ok"}))

	cacheFile := filepath.Join(root, "cache", "masks", key+".json")
	require.NoError(t, os.WriteFile(cacheFile, []byte(`{"data":{"name":"tampered"},"checksum":"bad"}`), 0644))

	_, ok := fc.Get(key)
	assert.False(t, ok)
}

func TestGenerateKeyIsStable(t *testing.T) {
	fc := NewFileCache[payload]("masks")
	assert.Equal(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 1))
	assert.NotEqual(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 2))
}
