package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

func openBbolt(t *testing.T) *store.BboltBackend {
	t.Helper()
	b, err := store.OpenBbolt(filepath.Join(t.TempDir(), "bbolt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBboltBackendGetPutDelete(t *testing.T) {
	b := openBbolt(t)

	_, ok, err := b.Get([]byte("d/1"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Put([]byte("d/1"), []byte("hello")))
	v, ok, err := b.Get([]byte("d/1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(v))

	require.NoError(t, b.Delete([]byte("d/1")))
	_, ok, err = b.Get([]byte("d/1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBboltBackendScanPrefixIsSortedAndFiltered(t *testing.T) {
	b := openBbolt(t)
	require.NoError(t, b.Put([]byte("p/zebra"), []byte("1")))
	require.NoError(t, b.Put([]byte("p/apple"), []byte("2")))
	require.NoError(t, b.Put([]byte("d/1"), []byte("doc")))

	it, err := b.ScanPrefix([]byte("p/"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"p/apple", "p/zebra"}, keys)
}

func TestBboltBackendApplyBatchIsAtomicAllOrNothingInEffect(t *testing.T) {
	b := openBbolt(t)
	require.NoError(t, b.Put([]byte("d/1"), []byte("old")))

	require.NoError(t, b.ApplyBatch([]store.Write{
		{Key: []byte("d/1"), Delete: true},
		{Key: []byte("d/2"), Value: []byte("new")},
	}))

	_, ok, _ := b.Get([]byte("d/1"))
	assert.False(t, ok)
	v, ok, _ := b.Get([]byte("d/2"))
	require.True(t, ok)
	assert.Equal(t, "new", string(v))
}

func TestBboltBackendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bbolt.db")

	b, err := store.OpenBbolt(path)
	require.NoError(t, err)
	require.NoError(t, b.Put([]byte("d/1"), []byte("persisted")))
	require.NoError(t, b.Close())

	reopened, err := store.OpenBbolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get([]byte("d/1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(v))
}
