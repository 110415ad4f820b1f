// Package index maintains the inverted token index and the trigram index
// over an incrementally-updated document store, per spec §3–§4.5. It owns
// the write latch (spec §5), the staging layer for uncommitted mutations,
// and the translation between domain keys (document ids, tokens,
// trigrams) and the store package's opaque byte keys — the index is the
// sole translator (spec §9); no backend-specific type crosses this
// boundary.
package index

import (
	"errors"
	"sort"
	"sync"

	"github.com/Cosmic-Tiger-AU/tigercache/analyzer"
	"github.com/Cosmic-Tiger-AU/tigercache/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
	"github.com/Cosmic-Tiger-AU/tigercache/errs"
	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("tigercache/index: closed")

// Config configures an Index.
type Config struct {
	// Strict makes Add return errs.ErrDuplicateID when re-adding an id
	// that already exists, instead of the default silent replace.
	Strict bool
	// AutoCommitOnClose commits a non-empty staging layer on Close.
	AutoCommitOnClose bool
}

type docStage struct {
	doc     *document.Document
	deleted bool
}

type postingStage struct {
	list    cache.PostingList
	deleted bool
}

type trigramStage struct {
	tokens  cache.TrigramTokens
	deleted bool
}

// Index is the inverted + trigram index over a store.Backend, with an
// in-memory staging layer for uncommitted mutations and a cache.Manager
// for hot reads. A single sync.RWMutex is the write latch of spec §5:
// reads take RLock and run concurrently with each other; every mutating
// operation takes Lock and is fully serialized.
type Index struct {
	mu                sync.RWMutex
	backend           store.Backend
	cache             *cache.Manager
	strict            bool
	autoCommitOnClose bool
	closed            bool
	count             int64

	dirtyDocs     map[string]*docStage
	dirtyPostings map[string]*postingStage
	dirtyTrigrams map[string]*trigramStage
}

// Open creates an Index over backend, restoring the document count from
// the backend's header record if one exists (an empty/new backend yields
// count 0).
func Open(backend store.Backend, mgr *cache.Manager, cfg Config) (*Index, error) {
	idx := &Index{
		backend:           backend,
		cache:             mgr,
		strict:            cfg.Strict,
		autoCommitOnClose: cfg.AutoCommitOnClose,
		dirtyDocs:         make(map[string]*docStage),
		dirtyPostings:     make(map[string]*postingStage),
		dirtyTrigrams:     make(map[string]*trigramStage),
	}
	count, err := idx.readHeaderCount()
	if err != nil {
		return nil, err
	}
	idx.count = count
	return idx, nil
}

// Add stages the document for indexing. If a document with the same id
// already exists, Add behaves as Remove(id) followed by insertion, unless
// Config.Strict is set, in which case it returns errs.ErrDuplicateID.
func (idx *Index) Add(doc *document.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrClosed
	}
	id := doc.ID()
	if id == "" {
		return errs.ErrInvalidArgument
	}

	existing, found := idx.loadDocumentLocked(id)
	if found {
		if idx.strict {
			return errs.ErrDuplicateID
		}
		idx.removeLocked(id, existing)
	}

	idx.addLocked(doc.Clone())
	return nil
}

// Remove stages the removal of id, reversing its index contributions. It
// reports whether a document was removed.
func (idx *Index) Remove(id string) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return false, ErrClosed
	}
	if id == "" {
		return false, errs.ErrInvalidArgument
	}

	doc, found := idx.loadDocumentLocked(id)
	if !found {
		return false, nil
	}
	idx.removeLocked(id, doc)
	return true, nil
}

// Get returns a copy of the document with the given id, consulting the
// staging layer, then the cache, then the backend, in that order.
func (idx *Index) Get(id string) (*document.Document, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrClosed
	}
	doc, found := idx.loadDocumentLocked(id)
	if !found {
		return nil, nil
	}
	return doc.Clone(), nil
}

// Contains reports whether id currently resolves to a document.
func (idx *Index) Contains(id string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return false, ErrClosed
	}
	_, found := idx.loadDocumentLocked(id)
	return found, nil
}

// Len returns the number of documents currently indexed, including
// uncommitted staged adds and removes.
func (idx *Index) Len() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.count
}

// Posting returns the sorted list of document ids currently posted under
// token, consulting staging, then cache, then backend, in that order. It
// is exported for the search package's candidate-generation step.
func (idx *Index) Posting(token string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrClosed
	}
	return idx.loadPostingLocked(token), nil
}

// TrigramTokens returns the sorted list of tokens containing trigram,
// consulting staging then backend directly (the trigram index has no
// cache, per spec §4.4). Exported for the search package.
func (idx *Index) TrigramTokens(trigram string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrClosed
	}
	return idx.loadTrigramLocked(trigram), nil
}

// Commit applies the staging layer to the backend as a single batch,
// atomic when the backend implements store.BatchApplier. On success the
// staging layer is cleared and dirty document cache entries are unpinned.
// On a backend/IO error the staging layer is left intact so the caller
// may retry or Rollback (spec §7).
func (idx *Index) Commit() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrClosed
	}
	return idx.commitLocked()
}

func (idx *Index) commitLocked() error {
	writes := idx.buildWrites()

	header := Header{Version: schemaVersion, DocCount: uint64(idx.count)}
	hb, err := header.MarshalBinary()
	if err != nil {
		return err
	}
	writes = append(writes, store.Write{Key: store.HeaderKey, Value: hb})

	if applier, ok := idx.backend.(store.BatchApplier); ok {
		if err := applier.ApplyBatch(writes); err != nil {
			return errs.NewBackendError("commit", err)
		}
	} else {
		for _, w := range writes {
			if w.Delete {
				if err := idx.backend.Delete(w.Key); err != nil {
					return errs.NewBackendError("commit delete", err)
				}
				continue
			}
			if err := idx.backend.Put(w.Key, w.Value); err != nil {
				return errs.NewBackendError("commit put", err)
			}
		}
		if err := idx.backend.Flush(); err != nil {
			return errs.NewBackendError("commit flush", err)
		}
	}

	for id := range idx.dirtyDocs {
		idx.cache.UnpinDocument(id)
	}
	idx.clearStaging()
	return nil
}

// Rollback discards the staging layer. Cache entries modified by the
// discarded mutations are invalidated, so the next access re-reads them
// from the backend (spec §4.5).
func (idx *Index) Rollback() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrClosed
	}

	for id := range idx.dirtyDocs {
		idx.cache.UnpinDocument(id)
		idx.cache.InvalidateDocument(id)
	}
	touched := make([]string, 0, len(idx.dirtyPostings))
	for token := range idx.dirtyPostings {
		touched = append(touched, token)
	}
	idx.cache.InvalidatePostings(touched)
	idx.cache.InvalidateQueries()
	idx.clearStaging()

	count, err := idx.readHeaderCount()
	if err != nil {
		return err
	}
	idx.count = count
	return nil
}

// Close commits a non-empty staging layer if Config.AutoCommitOnClose is
// set, flushes the backend, and releases its resources. Close waits for
// the write latch, so it does not return until any in-flight operation
// completes.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}

	var firstErr error
	if idx.autoCommitOnClose && len(idx.dirtyDocs) > 0 {
		if err := idx.commitLocked(); err != nil {
			firstErr = err
		}
	}
	if err := idx.backend.Close(); err != nil && firstErr == nil {
		firstErr = errs.NewIOError("close", err)
	}
	idx.closed = true
	return firstErr
}

// Stats returns counts useful for tests and for monitoring. Document
// count reflects the staging layer; token and trigram counts reflect only
// the last committed state (a backend scan, not tracked incrementally).
func (idx *Index) Stats() (Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return Stats{}, ErrClosed
	}

	tokens, err := idx.countPrefix(store.PostingPrefix())
	if err != nil {
		return Stats{}, err
	}
	trigrams, err := idx.countPrefix(store.TrigramPrefix())
	if err != nil {
		return Stats{}, err
	}
	return Stats{Documents: idx.count, Tokens: tokens, Trigrams: trigrams}, nil
}

// Stats is the result of Index.Stats.
type Stats struct {
	Documents int64
	Tokens    int64
	Trigrams  int64
}

func (idx *Index) countPrefix(prefix []byte) (int64, error) {
	it, err := idx.backend.ScanPrefix(prefix)
	if err != nil {
		return 0, errs.NewBackendError("scan", err)
	}
	defer it.Close()
	var n int64
	for it.Next() {
		n++
	}
	if err := it.Err(); err != nil {
		return 0, errs.NewBackendError("scan", err)
	}
	return n, nil
}

func (idx *Index) clearStaging() {
	idx.dirtyDocs = make(map[string]*docStage)
	idx.dirtyPostings = make(map[string]*postingStage)
	idx.dirtyTrigrams = make(map[string]*trigramStage)
}

func (idx *Index) readHeaderCount() (int64, error) {
	b, ok, err := idx.backend.Get(store.HeaderKey)
	if err != nil {
		return 0, errs.NewBackendError("read header", err)
	}
	if !ok {
		return 0, nil
	}
	var h Header
	if err := h.UnmarshalBinary(b); err != nil {
		return 0, errors.Join(errs.ErrSerialization, err)
	}
	return int64(h.DocCount), nil
}

// buildWrites converts the staging layer into the batch the backend
// applies on Commit.
func (idx *Index) buildWrites() []store.Write {
	writes := make([]store.Write, 0, len(idx.dirtyDocs)+len(idx.dirtyPostings)+len(idx.dirtyTrigrams))

	for id, st := range idx.dirtyDocs {
		key := store.DocKey(id)
		if st.deleted {
			writes = append(writes, store.Write{Key: key, Delete: true})
			continue
		}
		b, _ := st.doc.MarshalBinary()
		writes = append(writes, store.Write{Key: key, Value: b})
	}
	for token, st := range idx.dirtyPostings {
		key := store.PostingKey(token)
		if st.deleted {
			writes = append(writes, store.Write{Key: key, Delete: true})
			continue
		}
		writes = append(writes, store.Write{Key: key, Value: encodeStringList(st.list)})
	}
	for trigram, st := range idx.dirtyTrigrams {
		key := store.TrigramKey(trigram)
		if st.deleted {
			writes = append(writes, store.Write{Key: key, Delete: true})
			continue
		}
		writes = append(writes, store.Write{Key: key, Value: encodeStringList(st.tokens)})
	}
	return writes
}

// loadDocumentLocked resolves a document through staging, then cache,
// then backend. Callers must hold idx.mu (read or write).
func (idx *Index) loadDocumentLocked(id string) (*document.Document, bool) {
	if st, ok := idx.dirtyDocs[id]; ok {
		if st.deleted {
			return nil, false
		}
		return st.doc, true
	}
	if doc, ok := idx.cache.GetDocument(id); ok {
		return doc, true
	}

	b, ok, err := idx.backend.Get(store.DocKey(id))
	if err != nil || !ok {
		return nil, false
	}
	doc := document.New(id)
	if err := doc.UnmarshalBinary(b); err != nil {
		return nil, false
	}
	idx.cache.PutDocument(id, doc, true)
	return doc, true
}

// loadPostingLocked resolves a token's posting list through staging, then
// cache, then backend. Callers must hold idx.mu.
func (idx *Index) loadPostingLocked(token string) cache.PostingList {
	if st, ok := idx.dirtyPostings[token]; ok {
		if st.deleted {
			return nil
		}
		return st.list
	}
	if list, ok := idx.cache.GetPosting(token); ok {
		return list
	}

	b, ok, err := idx.backend.Get(store.PostingKey(token))
	if err != nil || !ok {
		return nil
	}
	list, err := decodeStringList(b)
	if err != nil {
		return nil
	}
	idx.cache.PutPosting(token, cache.PostingList(list), true)
	return cache.PostingList(list)
}

// loadTrigramLocked resolves a trigram's token set through staging, then
// backend directly — no cache backs the trigram index (spec §4.4 defines
// exactly three caches: document, posting, query). Callers must hold
// idx.mu.
func (idx *Index) loadTrigramLocked(trigram string) cache.TrigramTokens {
	if st, ok := idx.dirtyTrigrams[trigram]; ok {
		if st.deleted {
			return nil
		}
		return st.tokens
	}

	b, ok, err := idx.backend.Get(store.TrigramKey(trigram))
	if err != nil || !ok {
		return nil
	}
	tokens, err := decodeStringList(b)
	if err != nil {
		return nil
	}
	return cache.TrigramTokens(tokens)
}

// addLocked indexes clone's tokens and trigrams and stages the document
// itself. Callers must hold idx.mu for writing.
func (idx *Index) addLocked(clone *document.Document) {
	tokens := analyzer.TokensOfDocument(clone)
	distinct := distinctSorted(tokens)
	touched := make([]string, 0, len(distinct))

	for _, t := range distinct {
		list := idx.loadPostingLocked(t)
		wasNew := len(list) == 0
		newList := insertSorted(list, clone.ID())
		idx.dirtyPostings[t] = &postingStage{list: newList}

		if wasNew {
			for _, g := range analyzer.TrigramsOf(t) {
				set := idx.loadTrigramLocked(g)
				newSet := insertSorted(set, t)
				idx.dirtyTrigrams[g] = &trigramStage{tokens: newSet}
			}
		}
		touched = append(touched, t)
	}

	idx.dirtyDocs[clone.ID()] = &docStage{doc: clone}
	idx.cache.PutDocument(clone.ID(), clone, false)
	idx.cache.InvalidatePostings(touched)
	idx.cache.InvalidateQueries()
	idx.cache.PinDocument(clone.ID())
	idx.count++
}

// removeLocked reverses doc's index contributions and stages its
// tombstone. Callers must hold idx.mu for writing.
func (idx *Index) removeLocked(id string, doc *document.Document) {
	tokens := analyzer.TokensOfDocument(doc)
	distinct := distinctSorted(tokens)
	touched := make([]string, 0, len(distinct))

	for _, t := range distinct {
		list := idx.loadPostingLocked(t)
		newList := removeSorted(list, id)

		if len(newList) == 0 {
			idx.dirtyPostings[t] = &postingStage{deleted: true}
			for _, g := range analyzer.TrigramsOf(t) {
				set := idx.loadTrigramLocked(g)
				newSet := removeSorted(set, t)
				if len(newSet) == 0 {
					idx.dirtyTrigrams[g] = &trigramStage{deleted: true}
				} else {
					idx.dirtyTrigrams[g] = &trigramStage{tokens: newSet}
				}
			}
		} else {
			idx.dirtyPostings[t] = &postingStage{list: newList}
		}
		touched = append(touched, t)
	}

	idx.dirtyDocs[id] = &docStage{deleted: true}
	idx.cache.UnpinDocument(id)
	idx.cache.InvalidateDocument(id)
	idx.cache.InvalidatePostings(touched)
	idx.cache.InvalidateQueries()
	idx.count--
}

// distinctSorted returns the sorted set of distinct tokens in tokens,
// so trigram/posting maintenance and write ordering are deterministic.
func distinctSorted(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// insertSorted returns list with v inserted in sorted position, or list
// unchanged if v is already present.
func insertSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	if i < len(list) && list[i] == v {
		return list
	}
	out := make([]string, len(list)+1)
	copy(out, list[:i])
	out[i] = v
	copy(out[i+1:], list[i:])
	return out
}

// removeSorted returns list with v removed, or list unchanged if absent.
func removeSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	if i >= len(list) || list[i] != v {
		return list
	}
	out := make([]string, len(list)-1)
	copy(out, list[:i])
	copy(out[i:], list[i+1:])
	return out
}
