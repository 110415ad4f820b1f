package cache

// Kind identifies which of the three bounded caches an entry belongs to;
// its String values are the kind names Manager reports to its eviction
// logger, which passes them as plain strings. The caches themselves are
// distinct typed values on Manager.
type Kind uint8

const (
	// KindDocument identifies the document id -> document cache.
	KindDocument Kind = iota
	// KindPosting identifies the token -> posting cache.
	KindPosting
	// KindQuery identifies the query fingerprint -> result page cache.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindPosting:
		return "posting"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// PostingList is a sorted list of document ids, the cached value for a
// single token's posting set.
type PostingList []string

// Size estimates the in-memory footprint of the posting list for cache
// accounting.
func (p PostingList) Size() int {
	n := 16
	for _, id := range p {
		n += len(id) + 8
	}
	return n
}

// TrigramTokens is a sorted list of tokens containing a given trigram.
type TrigramTokens []string

// Size estimates the in-memory footprint for cache accounting.
func (t TrigramTokens) Size() int {
	n := 16
	for _, tok := range t {
		n += len(tok) + 8
	}
	return n
}

// ScoredID is a single (document id, score) pair, the unit stored in a
// cached query result page.
type ScoredID struct {
	DocID string
	Score float64
}

// QueryPage is a frozen, ranked result page cached under a query
// fingerprint (normalized query tokens + options).
type QueryPage []ScoredID

// Size estimates the in-memory footprint of the page for cache accounting.
func (q QueryPage) Size() int {
	n := 16
	for _, s := range q {
		n += len(s.DocID) + 16
	}
	return n
}

// document values are cached directly; *document.Document already
// implements Size() int (see document.Document.Size), satisfying the
// internal/cache.Sized constraint without a wrapper.
