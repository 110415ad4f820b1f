package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

func TestMemoryBackendGetPutDelete(t *testing.T) {
	b := store.NewMemoryBackend()

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

func TestMemoryBackendScanPrefixIsSortedAndFiltered(t *testing.T) {
	b := store.NewMemoryBackend()
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

func TestMemoryBackendApplyBatchIsAtomicAllOrNothingInEffect(t *testing.T) {
	b := store.NewMemoryBackend()
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
