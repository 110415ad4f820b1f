package cache

import (
	"context"
	"sync/atomic"

	"github.com/Cosmic-Tiger-AU/tigercache/document"
	internalcache "github.com/Cosmic-Tiger-AU/tigercache/internal/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/resource"
)

// Tier is the band of current memory use relative to the budget that
// governs admission and eviction aggressiveness (spec §4.4).
type Tier uint8

const (
	// TierNormal is below 0.75 of the budget: normal admission.
	TierNormal Tier = iota
	// TierElevated is between 0.75 and 1.0 of the budget: writes still
	// admitted, reads bypass caching for large values.
	TierElevated
	// TierAggressive is above the budget: eviction proceeds query cache
	// first, then posting cache by LRU, then document cache.
	TierAggressive
)

func (t Tier) String() string {
	switch t {
	case TierElevated:
		return "elevated"
	case TierAggressive:
		return "aggressive"
	default:
		return "normal"
	}
}

// evictLogger is the subset of tigercache.Logger's methods the cache
// layer reports against. Defined here rather than imported to avoid a
// cycle (tigercache imports cache); *tigercache.Logger satisfies it
// structurally.
type evictLogger interface {
	LogEviction(ctx context.Context, kind, key string)
	LogPressureTier(ctx context.Context, tier string, usedBytes, budgetBytes int64)
}

// evictable is the eviction capability cache.Manager round-robins across
// when a cache's own admission fails under pressure, implemented by every
// instantiation of internalcache.LRU regardless of its value type.
type evictable interface {
	EvictOne() (string, bool)
}

type namedEvictable struct {
	kind string
	c    evictable
}

// Manager owns the three bounded caches described in spec §4.4 plus the
// resource.Controller that accounts for their aggregate memory footprint,
// and implements the admission/eviction policy of spec §4.4: admission
// into any cache evicts least-recently-used entries from the cache being
// inserted into first (internalcache.LRU.Set does this against its own
// capacity), and if the resource controller still denies the memory,
// round-robins eviction across the other two caches until the new entry
// fits or every cache is empty (Manager.admit). Pressure tiers layer an
// additional policy on top: below 0.75*budget admission is unrestricted;
// between 0.75*budget and budget, writes are still admitted but large
// reads bypass caching; above budget, the caches that come before the one
// being inserted into, in the order that reflects reconstruction cost
// (query cheapest, then posting, then document), are shed before the
// general admission rule runs: a document insert clears the query cache
// and evicts one posting entry, a posting insert clears the query cache,
// and a query insert sheds nothing.
type Manager struct {
	budget   int64 // M, the soft aggregate budget pressure tiers are relative to
	rc       *resource.Controller
	logger   evictLogger
	lastTier atomic.Int32

	Documents *internalcache.LRU[*document.Document]
	Postings  *internalcache.LRU[PostingList]
	Queries   *internalcache.LRU[QueryPage]
}

// NewManager creates a cache.Manager. budget is the soft aggregate memory
// budget M that pressure tiers are relative to; maxMemory is the hard
// upper bound the resource.Controller enforces regardless of tier (0
// means budget is used as the controller's ceiling too, so there is
// always a real one). ioLimit
// is the shared disk IO throughput cap in bytes/sec applied to snapshot
// save/load (0 means unlimited).
func NewManager(budget, maxMemory, ioLimit int64) *Manager {
	if maxMemory <= 0 {
		maxMemory = budget
	}
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   maxMemory,
		IOLimitBytesPerSec: ioLimit,
	})
	return &Manager{
		budget:    budget,
		rc:        rc,
		Documents: internalcache.New[*document.Document](budget, rc),
		Postings:  internalcache.New[PostingList](budget, rc),
		Queries:   internalcache.New[QueryPage](budget, rc),
	}
}

// SetLogger attaches a logger that receives eviction and pressure-tier
// transition events. Pass nil to disable; the zero-value Manager logs
// nothing.
func (m *Manager) SetLogger(l evictLogger) { m.logger = l }

// Used returns the current aggregate cached bytes across all three caches.
func (m *Manager) Used() int64 { return m.rc.MemoryUsage() }

// Controller returns the resource.Controller backing this manager's memory
// accounting, so callers doing their own disk IO (snapshot save/load) can
// share its IO rate limit rather than running unthrottled.
func (m *Manager) Controller() *resource.Controller { return m.rc }

// CurrentTier reports the current pressure tier, logging a transition the
// first time a call observes a different tier than the last call did.
func (m *Manager) CurrentTier() Tier {
	used := m.Used()
	var tier Tier
	switch {
	case m.budget <= 0:
		tier = TierNormal
	case used > m.budget:
		tier = TierAggressive
	case used > (m.budget*3)/4:
		tier = TierElevated
	default:
		tier = TierNormal
	}
	if m.logger != nil && m.lastTier.Swap(int32(tier)) != int32(tier) {
		m.logger.LogPressureTier(context.Background(), tier.String(), used, m.budget)
	}
	return tier
}

// bypassThreshold is the per-cache value size above which the elevated
// tier stops admitting reads into the cache: 1/16 of the budget.
func (m *Manager) bypassThreshold() int64 {
	if m.budget <= 0 {
		return 0
	}
	return m.budget / 16
}

func (m *Manager) shouldBypassRead(size int) bool {
	threshold := m.bypassThreshold()
	if threshold <= 0 {
		return false
	}
	return m.CurrentTier() != TierNormal && int64(size) > threshold
}

// GetDocument returns a cached document by id.
func (m *Manager) GetDocument(id string) (*document.Document, bool) {
	return m.Documents.Get(id)
}

// PutDocument admits a document into the document cache. readPath marks a
// cache-fill triggered by a read, which is subject to the elevated-tier
// large-value bypass; a write-triggered fill is always admitted.
func (m *Manager) PutDocument(id string, doc *document.Document, readPath bool) {
	if readPath && m.shouldBypassRead(doc.Size()) {
		return
	}
	if m.CurrentTier() == TierAggressive {
		m.sheddForDocuments()
	}
	m.admit(func() bool { return m.Documents.Set(id, doc) },
		namedEvictable{"posting", m.Postings},
		namedEvictable{"query", m.Queries},
	)
}

// DeleteDocument unconditionally removes id from the document cache.
func (m *Manager) DeleteDocument(id string) { m.Documents.Delete(id) }

// PinDocument pins a document entry so it survives eviction while dirty.
func (m *Manager) PinDocument(id string) { m.Documents.Pin(id) }

// UnpinDocument releases a pin taken by PinDocument.
func (m *Manager) UnpinDocument(id string) { m.Documents.Unpin(id) }

// GetPosting returns a cached posting list by token.
func (m *Manager) GetPosting(token string) (PostingList, bool) { return m.Postings.Get(token) }

// PutPosting admits a posting list into the posting cache.
func (m *Manager) PutPosting(token string, list PostingList, readPath bool) {
	if readPath && m.shouldBypassRead(list.Size()) {
		return
	}
	if m.CurrentTier() == TierAggressive {
		m.sheddForPostings()
	}
	m.admit(func() bool { return m.Postings.Set(token, list) },
		namedEvictable{"query", m.Queries},
		namedEvictable{"document", m.Documents},
	)
}

// DeletePosting unconditionally removes token from the posting cache.
func (m *Manager) DeletePosting(token string) { m.Postings.Delete(token) }

// PinPosting pins a posting entry so it survives eviction while dirty.
func (m *Manager) PinPosting(token string) { m.Postings.Pin(token) }

// UnpinPosting releases a pin taken by PinPosting.
func (m *Manager) UnpinPosting(token string) { m.Postings.Unpin(token) }

// GetQuery returns a cached, frozen result page by fingerprint.
func (m *Manager) GetQuery(fingerprint string) (QueryPage, bool) { return m.Queries.Get(fingerprint) }

// PutQuery admits a result page into the query cache.
func (m *Manager) PutQuery(fingerprint string, page QueryPage) {
	if m.CurrentTier() == TierAggressive {
		m.sheddForQueries()
	}
	m.admit(func() bool { return m.Queries.Set(fingerprint, page) },
		namedEvictable{"document", m.Documents},
		namedEvictable{"posting", m.Postings},
	)
}

// InvalidateDocument removes a single document cache entry, per spec §4.4:
// "On document add/update/remove, the document cache entry for that id is
// updated or removed."
func (m *Manager) InvalidateDocument(id string) { m.Documents.Delete(id) }

// InvalidatePostings removes every posting cache entry for the given
// tokens, per spec §4.4: "every posting cache entry for tokens touched by
// the change is invalidated."
func (m *Manager) InvalidatePostings(tokens []string) {
	for _, t := range tokens {
		m.Postings.Delete(t)
	}
}

// InvalidateQueries clears the query cache wholesale, per spec §4.4: "the
// query cache is invalidated in whole (coarse but simple and correct)."
func (m *Manager) InvalidateQueries() { m.Queries.Clear() }

// InvalidateAll clears every unpinned entry from all three caches
// (pinned entries stay, as with LRU.Clear). Used when the backend a
// cache's entries describe is replaced wholesale out from under it, such
// as a snapshot restore, where LRU recency carries no meaning for data
// that no longer corresponds to what's on disk.
func (m *Manager) InvalidateAll() {
	m.Documents.Clear()
	m.Postings.Clear()
	m.Queries.Clear()
}

// admit attempts set, which inserts into the cache whose own LRU eviction
// has already run against its own capacity. If set still fails (the
// resource controller's hard memory limit denies the entry), admit
// round-robins eviction across others, one entry at a time, retrying set
// after each eviction, until set succeeds or no evictable entries remain
// anywhere — the general admission rule of spec §4.4 ("if still over
// budget, round-robin from the others... until the new entry fits or the
// cache is empty"). Pinned (dirty) entries are never evicted, by
// internalcache.LRU.EvictOne's own contract.
func (m *Manager) admit(set func() bool, others ...namedEvictable) {
	if set() {
		return
	}
	for {
		evictedAny := false
		for _, o := range others {
			key, ok := o.c.EvictOne()
			if !ok {
				continue
			}
			evictedAny = true
			if m.logger != nil {
				m.logger.LogEviction(context.Background(), o.kind, key)
			}
			if set() {
				return
			}
		}
		if !evictedAny {
			return
		}
	}
}

// sheddForDocuments is the aggressive-tier shedding order when admitting
// into the document cache: query, then posting by LRU (the document
// cache's own Set performs its ordinary LRU eviction up to capacity).
func (m *Manager) sheddForDocuments() {
	m.logEvictions("query", m.Queries.Clear)
	m.logEviction("posting", m.Postings)
}

// sheddForPostings clears the query cache before admitting into postings.
func (m *Manager) sheddForPostings() {
	m.logEvictions("query", m.Queries.Clear)
}

// sheddForQueries is a no-op: the query cache is first in the shedding
// order, so nothing else needs to make room ahead of it.
func (m *Manager) sheddForQueries() {}

// logEviction evicts one entry from c and, if it logs, reports it.
func (m *Manager) logEviction(kind string, c evictable) {
	key, ok := c.EvictOne()
	if ok && m.logger != nil {
		m.logger.LogEviction(context.Background(), kind, key)
	}
}

// logEvictions runs a clear-style eviction (one that evicts every
// unpinned entry) and has no per-key visibility, so it logs a single
// coarse "cleared whole cache" eviction event when the logger is set.
func (m *Manager) logEvictions(kind string, clear func()) {
	before := m.cacheLenFor(kind)
	clear()
	if m.logger != nil && before > 0 {
		m.logger.LogEviction(context.Background(), kind, "*")
	}
}

func (m *Manager) cacheLenFor(kind string) int {
	switch kind {
	case "query":
		return m.Queries.Len()
	case "posting":
		return m.Postings.Len()
	case "document":
		return m.Documents.Len()
	default:
		return 0
	}
}
