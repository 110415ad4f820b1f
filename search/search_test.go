package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cosmic-Tiger-AU/tigercache/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
	"github.com/Cosmic-Tiger-AU/tigercache/errs"
	"github.com/Cosmic-Tiger-AU/tigercache/index"
	"github.com/Cosmic-Tiger-AU/tigercache/search"
	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

func newTestEngine(t *testing.T, docs ...*document.Document) *search.Engine {
	backend := store.NewMemoryBackend()
	mgr := cache.NewManager(1<<20, 0, 0)
	idx, err := index.Open(backend, mgr, index.Config{})
	require.NoError(t, err)

	for _, d := range docs {
		require.NoError(t, idx.Add(d))
	}
	require.NoError(t, idx.Commit())

	return search.New(idx, mgr)
}

func TestSearchExactMatch(t *testing.T) {
	e := newTestEngine(t,
		document.New("1").WithText("title", "apple iphone"),
		document.New("2").WithText("title", "orange banana"),
	)

	results, err := e.Search("apple", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Document.ID())
}

func TestSearchTypoToleratesOneEdit(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("title", "apple iphone"))

	results, err := e.Search("aple", &search.Options{MaxDistance: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Document.ID())
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchMaxDistanceZeroForcesExactMatch(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("title", "apple iphone"))

	results, err := e.Search("aple", &search.Options{MaxDistance: 0, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = e.Search("apple", &search.Options{MaxDistance: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchEmptyQueryReturnsNoResults(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("title", "apple"))

	results, err := e.Search("   ", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimitTruncates(t *testing.T) {
	e := newTestEngine(t,
		document.New("1").WithText("t", "apple"),
		document.New("2").WithText("t", "apple"),
		document.New("3").WithText("t", "apple"),
	)

	results, err := e.Search("apple", &search.Options{MaxDistance: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchScoreThresholdFiltersLowSimilarity(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("t", "apple"))

	results, err := e.Search("aple", &search.Options{MaxDistance: 2, ScoreThreshold: 0.99, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results, "a near-exact-but-not-exact match should fall below a near-1.0 threshold")
}

func TestSearchExplicitLimitZeroIsInvalidArgument(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("t", "apple"))

	_, err := e.Search("apple", &search.Options{Limit: 0})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestSearchRanksRareTermMatchHigherThanCommonTermMatch(t *testing.T) {
	// A token that occurs in many documents contributes less per document
	// than a rarer token, via the 1/(1+log(1+df)) damping factor, so a
	// document matching only the rare query token outranks one matching
	// only the common one.
	e := newTestEngine(t,
		document.New("rare").WithText("t", "zebra"),
		document.New("common-1").WithText("t", "widget"),
		document.New("common-2").WithText("t", "widget"),
		document.New("common-3").WithText("t", "widget"),
		document.New("common-4").WithText("t", "widget"),
	)

	results, err := e.Search("zebra widget", &search.Options{MaxDistance: 2, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "rare", results[0].Document.ID())
}

func TestSearchResultsAreCached(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("t", "apple"))

	first, err := e.Search("apple", nil)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := e.Search("apple", nil)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Document.ID(), second[0].Document.ID())
}

func TestSearchNoMatchReturnsEmptyNotNilError(t *testing.T) {
	e := newTestEngine(t, document.New("1").WithText("t", "apple"))

	results, err := e.Search("zzzzzzzz", &search.Options{MaxDistance: 2, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results)
}
