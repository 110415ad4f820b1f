// Package search implements the query planner/executor of spec §4.6: a
// trigram-overlap prefilter that narrows the token vocabulary down to a
// small candidate set before paying for exact Levenshtein distance, and
// the scoring and ranking that turn admitted candidates into a document
// result page.
package search

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Cosmic-Tiger-AU/tigercache/analyzer"
	"github.com/Cosmic-Tiger-AU/tigercache/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/distance"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
	"github.com/Cosmic-Tiger-AU/tigercache/index"
)

// Result is a single ranked search hit.
type Result struct {
	Document *document.Document
	Score    float64
}

// Engine executes queries against an index, using its cache manager's
// query cache to avoid recomputing candidate generation and scoring for
// a repeated (tokens, options) pair.
type Engine struct {
	idx   *index.Index
	cache *cache.Manager
}

// New creates an Engine over idx, sharing mgr as the query result cache.
func New(idx *index.Index, mgr *cache.Manager) *Engine {
	return &Engine{idx: idx, cache: mgr}
}

// Search ranks documents whose indexed tokens fuzzy-match query, per the
// candidate generation and scoring of spec §4.6. A nil opts uses
// DefaultOptions(); an empty query (no tokens after normalization)
// returns an empty result set.
func (e *Engine) Search(query string, opts *Options) ([]Result, error) {
	o, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	queryTokens := analyzer.TokensOf(query)
	if len(queryTokens) == 0 {
		return []Result{}, nil
	}

	fingerprint := fingerprintOf(queryTokens, o)
	var page cache.QueryPage
	if cached, ok := e.cache.GetQuery(fingerprint); ok {
		page = cached
	} else {
		page, err = e.rank(queryTokens, o)
		if err != nil {
			return nil, err
		}
		e.cache.PutQuery(fingerprint, page)
	}

	results := make([]Result, 0, len(page))
	for _, s := range page {
		doc, err := e.idx.Get(s.DocID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// Staged-but-uncommitted removal, or a race with a concurrent
			// writer between ranking and fetch; skip rather than fail.
			continue
		}
		results = append(results, Result{Document: doc, Score: s.Score})
	}
	return results, nil
}

// rank performs candidate generation and scoring and returns the ranked,
// threshold-filtered, limit-truncated page, per spec §4.6.
func (e *Engine) rank(queryTokens []string, o Options) (cache.QueryPage, error) {
	scores := make(map[string]float64)

	for _, qt := range queryTokens {
		candidates, err := e.candidatesFor(qt, o.MaxDistance)
		if err != nil {
			return nil, err
		}

		best := make(map[string]float64)
		for t, sim := range candidates {
			posting, err := e.idx.Posting(t)
			if err != nil {
				return nil, err
			}
			if len(posting) == 0 {
				continue
			}
			contribution := sim / (1 + math.Log(1+float64(len(posting))))
			for _, docID := range posting {
				if contribution > best[docID] {
					best[docID] = contribution
				}
			}
		}
		for docID, c := range best {
			scores[docID] += c
		}
	}

	n := float64(len(queryTokens))
	page := make(cache.QueryPage, 0, len(scores))
	for docID, total := range scores {
		score := total / n
		if score < o.ScoreThreshold {
			continue
		}
		page = append(page, cache.ScoredID{DocID: docID, Score: score})
	}

	sort.Slice(page, func(i, j int) bool {
		if page[i].Score != page[j].Score {
			return page[i].Score > page[j].Score
		}
		return page[i].DocID < page[j].DocID
	})
	if len(page) > o.Limit {
		page = page[:o.Limit]
	}
	return page, nil
}

// candidatesFor returns, for a single query token, the set of indexed
// tokens admitted as fuzzy matches within maxDistance, mapped to their
// similarity sim(q,t) = 1 - d/max(Lq,Lt). Candidate generation narrows
// the full token vocabulary to the trigram-overlap prefilter before
// paying for exact Levenshtein distance, per spec §4.6.
func (e *Engine) candidatesFor(q string, maxDistance int) (map[string]float64, error) {
	grams := analyzer.TrigramsOf(q)
	threshold := len(grams) - 2*maxDistance
	if threshold < 1 {
		threshold = 1
	}

	overlap := make(map[string]int)
	for _, g := range grams {
		tokens, err := e.idx.TrigramTokens(g)
		if err != nil {
			return nil, err
		}
		for _, t := range tokens {
			overlap[t]++
		}
	}

	lq := runeLen(q)
	sims := make(map[string]float64)
	for t, count := range overlap {
		if count < threshold {
			continue
		}
		lt := runeLen(t)
		if abs(lq-lt) > maxDistance {
			continue
		}
		d := distance.Bounded(q, t, maxDistance)
		if d > maxDistance {
			continue
		}
		denom := lq
		if lt > denom {
			denom = lt
		}
		sim := 1.0
		if denom > 0 {
			sim = 1 - float64(d)/float64(denom)
		}
		sims[t] = sim
	}
	return sims, nil
}

// fingerprintOf computes the query cache key: normalized query tokens
// plus the resolved options, per spec §4.6's resolution of Open Question
// (c) — the fingerprint is over normalized tokens, not the raw query
// string, so "Apple " and "apple" share a cache entry.
func fingerprintOf(tokens []string, o Options) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(t)
	}
	fmt.Fprintf(&b, "|%d|%s|%d", o.MaxDistance, strconv.FormatFloat(o.ScoreThreshold, 'g', -1, 64), o.Limit)
	return b.String()
}

func runeLen(s string) int { return len([]rune(s)) }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
