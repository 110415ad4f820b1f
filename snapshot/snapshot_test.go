package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cosmic-Tiger-AU/tigercache/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
	"github.com/Cosmic-Tiger-AU/tigercache/errs"
	"github.com/Cosmic-Tiger-AU/tigercache/index"
	"github.com/Cosmic-Tiger-AU/tigercache/snapshot"
	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

func buildSourceBackend(t *testing.T) store.Backend {
	backend := store.NewMemoryBackend()
	idx, err := index.Open(backend, cache.NewManager(1<<20, 0, 0), index.Config{})
	require.NoError(t, err)

	require.NoError(t, idx.Add(document.New("1").WithText("title", "apple iphone")))
	require.NoError(t, idx.Add(document.New("2").WithText("title", "orange banana")))
	require.NoError(t, idx.Commit())
	require.NoError(t, idx.Close())
	return backend
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	source := buildSourceBackend(t)
	path := filepath.Join(t.TempDir(), "snap.tgch")

	require.NoError(t, snapshot.Save(path, source, nil))

	dest := store.NewMemoryBackend()
	require.NoError(t, snapshot.Load(path, dest, nil))

	idx, err := index.Open(dest, cache.NewManager(1<<20, 0, 0), index.Config{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, idx.Len())

	got, err := idx.Get("1")
	require.NoError(t, err)
	require.NotNil(t, got)
	v, ok := got.Get("title")
	require.True(t, ok)
	text, _ := v.AsText()
	assert.Equal(t, "apple iphone", text)

	postings, err := idx.Posting("apple")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, postings)
}

func TestLoadCorruptedBodyReturnsCorruption(t *testing.T) {
	source := buildSourceBackend(t)
	path := filepath.Join(t.TempDir(), "snap.tgch")
	require.NoError(t, snapshot.Save(path, source, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 10)
	data[8] ^= 0xFF // flip a byte inside the body, well past magic+version
	require.NoError(t, os.WriteFile(path, data, 0o644))

	dest := store.NewMemoryBackend()
	err = snapshot.Load(path, dest, nil)
	assert.ErrorIs(t, err, errs.ErrCorruption)
}

func TestLoadBadMagicReturnsSerializationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tgch")
	require.NoError(t, os.WriteFile(path, []byte("NOTATGCHFILEATALLXX"), 0o644))

	dest := store.NewMemoryBackend()
	err := snapshot.Load(path, dest, nil)
	assert.ErrorIs(t, err, errs.ErrSerialization)
}

func TestLoadTruncatedFileReturnsSerializationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.tgch")
	require.NoError(t, os.WriteFile(path, []byte("TGCH"), 0o644))

	dest := store.NewMemoryBackend()
	err := snapshot.Load(path, dest, nil)
	assert.ErrorIs(t, err, errs.ErrSerialization)
}

func TestSaveMissingDirectoryReturnsIOError(t *testing.T) {
	source := buildSourceBackend(t)
	err := snapshot.Save(filepath.Join(t.TempDir(), "missing-dir", "snap.tgch"), source, nil)
	assert.ErrorIs(t, err, errs.ErrIO)
}
