package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cosmic-Tiger-AU/tigercache/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
)

// spyLogger records eviction and pressure-tier calls without depending on
// the tigercache package, keeping cache_test free of a facade import.
type spyLogger struct {
	evictions []string
	tiers     []string
}

func (s *spyLogger) LogEviction(_ context.Context, kind, key string) {
	s.evictions = append(s.evictions, kind+":"+key)
}

func (s *spyLogger) LogPressureTier(_ context.Context, tier string, usedBytes, budgetBytes int64) {
	s.tiers = append(s.tiers, tier)
}

func TestManagerDocumentRoundTrip(t *testing.T) {
	m := cache.NewManager(1<<20, 0, 0)
	doc := document.New("1").WithText("title", "apple iphone")

	m.PutDocument(doc.ID(), doc, false)
	got, ok := m.GetDocument("1")
	require.True(t, ok)
	assert.Equal(t, doc, got)
}

func TestManagerInvalidateDocumentRemovesEntry(t *testing.T) {
	m := cache.NewManager(1<<20, 0, 0)
	doc := document.New("1").WithText("title", "x")
	m.PutDocument(doc.ID(), doc, false)

	m.InvalidateDocument("1")

	_, ok := m.GetDocument("1")
	assert.False(t, ok)
}

func TestManagerInvalidatePostingsRemovesOnlyTouchedTokens(t *testing.T) {
	m := cache.NewManager(1<<20, 0, 0)
	m.PutPosting("apple", cache.PostingList{"1", "2"}, false)
	m.PutPosting("banana", cache.PostingList{"3"}, false)

	m.InvalidatePostings([]string{"apple"})

	_, ok := m.GetPosting("apple")
	assert.False(t, ok)
	_, ok = m.GetPosting("banana")
	assert.True(t, ok)
}

func TestManagerInvalidateQueriesClearsWhole(t *testing.T) {
	m := cache.NewManager(1<<20, 0, 0)
	m.PutQuery("q1", cache.QueryPage{{DocID: "1", Score: 1.0}})
	m.PutQuery("q2", cache.QueryPage{{DocID: "2", Score: 0.5}})

	m.InvalidateQueries()

	_, ok := m.GetQuery("q1")
	assert.False(t, ok)
	_, ok = m.GetQuery("q2")
	assert.False(t, ok)
}

func TestManagerPinnedDocumentSurvivesAggressiveEviction(t *testing.T) {
	// Budget 48 with a hard limit of 60: the pinned document (12 bytes),
	// the query page (33) and the posting list (43) cannot all fit, so each
	// put has to evict from its siblings, and once usage passes 48 the
	// aggressive tier is in effect.
	m := cache.NewManager(48, 60, 0)
	doc := document.New("1").WithText("title", "pinned")
	m.PutDocument(doc.ID(), doc, false)
	m.PinDocument(doc.ID())

	for i := 0; i < 50; i++ {
		m.PutQuery("q", cache.QueryPage{{DocID: "x", Score: 1}})
		m.PutPosting("tok", cache.PostingList{"a", "b", "c"}, false)
	}

	_, ok := m.GetDocument("1")
	assert.True(t, ok, "pinned document must survive aggressive-tier eviction")
}

func TestManagerTierEscalatesWithUsage(t *testing.T) {
	m := cache.NewManager(1000, 1000, 0)
	assert.Equal(t, cache.TierNormal, m.CurrentTier())

	m.PutPosting("tok", cache.PostingList(make([]string, 100)), false) // 16 + 100*8 = 816 bytes, over 750
	assert.NotEqual(t, cache.TierNormal, m.CurrentTier())
}

func TestManagerAdmitRoundRobinsEvictionAcrossSiblingCaches(t *testing.T) {
	// Generous per-cache capacity (budget) but a tight hard memory limit,
	// so a document's own cache never evicts on its own, yet admission
	// must still free room by evicting from the posting cache.
	m := cache.NewManager(1<<20, 50, 0)

	m.PutPosting("a", cache.PostingList{"x"}, false) // size 25
	m.PutPosting("b", cache.PostingList{"y"}, false) // size 25, memory now full at 50

	doc := document.New("1").WithText("title", "z") // size 7
	m.PutDocument(doc.ID(), doc, false)

	_, ok := m.GetDocument("1")
	assert.True(t, ok, "document must be admitted by evicting a sibling cache")

	_, ok = m.GetPosting("a")
	assert.False(t, ok, "oldest posting entry must be evicted to make room")
	_, ok = m.GetPosting("b")
	assert.True(t, ok, "only as many sibling entries as needed should be evicted")
}

func TestManagerSetLoggerReportsEvictionsAndPressureTier(t *testing.T) {
	// budget 50, generous hard limit: query (33 bytes) then posting (34
	// bytes) fit without pressure, pushing aggregate use to 67 bytes by
	// the time the document put below checks the tier — well past the
	// 50-byte budget, forcing its aggressive-tier pre-shed of the query
	// and posting caches.
	m := cache.NewManager(50, 1000, 0)
	spy := &spyLogger{}
	m.SetLogger(spy)

	m.PutQuery("q1", cache.QueryPage{{DocID: "1", Score: 1}})
	m.PutPosting("tok", cache.PostingList{"x", "y"}, false)
	m.PutDocument("1", document.New("1").WithText("t", "zzzzz"), false)

	assert.Contains(t, spy.tiers, cache.TierAggressive.String())
	assert.Contains(t, spy.evictions, "query:*")
	assert.Contains(t, spy.evictions, "posting:tok")
}

func TestManagerInvalidateAllClearsEveryCache(t *testing.T) {
	m := cache.NewManager(1<<20, 0, 0)
	doc := document.New("1").WithText("title", "x")
	m.PutDocument(doc.ID(), doc, false)
	m.PutPosting("tok", cache.PostingList{"1"}, false)
	m.PutQuery("q", cache.QueryPage{{DocID: "1", Score: 1}})

	m.InvalidateAll()

	_, ok := m.GetDocument("1")
	assert.False(t, ok)
	_, ok = m.GetPosting("tok")
	assert.False(t, ok)
	_, ok = m.GetQuery("q")
	assert.False(t, ok)
}
