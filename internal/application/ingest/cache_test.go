package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStoreKeyFor(t *testing.T) {
	store := NewCacheStore(t.TempDir(), true, nil)
	ref := entity.ObjectRef{Bucket: "b", Key: "cur/20240101-20240201/report.csv.gz"}

	key := store.KeyFor(ref)

	// Stable across calls, compound extension preserved.
	assert.Equal(t, key, store.KeyFor(ref))
	assert.True(t, strings.HasSuffix(key, ".csv.gz"), "key %q", key)

	// Distinct objects get distinct keys.
	other := entity.ObjectRef{Bucket: "b2", Key: ref.Key}
	assert.NotEqual(t, key, store.KeyFor(other))
}

func TestCacheStorePutClosedThenGet(t *testing.T) {
	store := NewCacheStore(t.TempDir(), true, nil)
	ref := entity.ObjectRef{Bucket: "b", Key: "cur/20240101-20240201/report.csv"}

	_, ok := store.Get(ref)
	assert.False(t, ok)

	entry, err := store.Put(ref, strings.NewReader("header\nrow\n"), true)
	require.NoError(t, err)
	assert.True(t, entry.Persisted)

	path, ok := store.Get(ref)
	require.True(t, ok)
	assert.Equal(t, entry.LocalPath, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "header\nrow\n", string(content))
}

func TestCacheStorePutOpenPeriodGoesToTemp(t *testing.T) {
	root := t.TempDir()
	store := NewCacheStore(root, true, nil)
	ref := entity.ObjectRef{Bucket: "b", Key: "cur/20990101-20990201/report.csv"}

	entry, err := store.Put(ref, strings.NewReader("data"), false)
	require.NoError(t, err)
	defer os.Remove(entry.LocalPath)

	assert.False(t, entry.Persisted)
	assert.NotContains(t, entry.LocalPath, root)

	// Open-period downloads never become cache hits.
	_, ok := store.Get(ref)
	assert.False(t, ok)
}

func TestCacheStoreDisabled(t *testing.T) {
	store := NewCacheStore(t.TempDir(), false, nil)
	ref := entity.ObjectRef{Bucket: "b", Key: "cur/20240101-20240201/report.csv"}

	entry, err := store.Put(ref, strings.NewReader("data"), true)
	require.NoError(t, err)
	defer os.Remove(entry.LocalPath)

	assert.False(t, entry.Persisted)
	_, ok := store.Get(ref)
	assert.False(t, ok)
}

func TestCacheStoreClearAndStats(t *testing.T) {
	store := NewCacheStore(t.TempDir(), true, nil)

	for _, key := range []string{"cur/20240101-20240201/a.csv", "cur/20240101-20240201/b.csv"} {
		_, err := store.Put(entity.ObjectRef{Bucket: "b", Key: key}, strings.NewReader("12345"), true)
		require.NoError(t, err)
	}

	count, bytes, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(10), bytes)

	removed, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, bytes, err = store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Zero(t, bytes)
}

func TestCacheStoreClearMissingRoot(t *testing.T) {
	store := NewCacheStore("/nonexistent/cache/root", true, nil)
	removed, err := store.Clear()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCacheStoreStrandedPartialFiles(t *testing.T) {
	root := t.TempDir()
	store := NewCacheStore(root, true, nil)
	ref := entity.ObjectRef{Bucket: "b", Key: "cur/20240101-20240201/report.csv"}

	_, err := store.Put(ref, strings.NewReader("header\nrow\n"), true)
	require.NoError(t, err)

	// A crash between write and rename leaves a partial file behind.
	stranded := filepath.Join(root, store.KeyFor(ref)+partialInfix+"deadbeef")
	require.NoError(t, os.WriteFile(stranded, []byte("half-written"), 0644))

	_, ok := store.Get(ref)
	assert.True(t, ok)

	count, bytes, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "partial files are not cache entries")
	assert.Equal(t, int64(len("header\nrow\n")), bytes)

	removed, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "only real entries count as removed")
	assert.NoFileExists(t, stranded, "partial files are swept")
}
