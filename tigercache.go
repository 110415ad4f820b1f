// Package tigercache is an embeddable, typo-tolerant full-text search
// library: a trigram-filtered, edit-distance-ranked index over a
// pluggable embedded KV backend, with bounded in-memory caches and
// memory-pressure-aware eviction. This file is the top-level facade,
// mirroring the teacher's vecgo.go: it wires store, cache, index, and
// search together behind a small public surface and never leaks a
// backend-specific type across it.
package tigercache

import (
	"context"
	"fmt"

	"github.com/Cosmic-Tiger-AU/tigercache/cache"
	"github.com/Cosmic-Tiger-AU/tigercache/document"
	"github.com/Cosmic-Tiger-AU/tigercache/errs"
	"github.com/Cosmic-Tiger-AU/tigercache/index"
	"github.com/Cosmic-Tiger-AU/tigercache/search"
	"github.com/Cosmic-Tiger-AU/tigercache/snapshot"
	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

// Index is the public handle to an open Tiger Cache index: a document
// store with incremental inverted and trigram indexing, bounded caches,
// and fuzzy search, per spec §2–§6.
type Index struct {
	backend store.Backend
	cache   *cache.Manager
	idx     *index.Index
	engine  *search.Engine
	cfg     Config
	logger  *Logger
}

// Open opens or creates a disk-backed index at path, using
// Config.StorageType to select the backend (bbolt, Badger, or Pebble).
// Options are applied over Default().
func Open(path string, opts ...Option) (*Index, error) {
	cfg := applyOptions(Default(), opts)
	cfg.StoragePath = path

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	return newIndex(backend, cfg)
}

// OpenMemory opens a volatile in-memory index. Options are applied over
// Default(); Config.StorageType and Config.StoragePath are ignored.
func OpenMemory(opts ...Option) (*Index, error) {
	cfg := applyOptions(Default(), opts)
	return newIndex(store.NewMemoryBackend(), cfg)
}

func openBackend(cfg Config) (store.Backend, error) {
	switch cfg.StorageType {
	case StorageMemory:
		return store.NewMemoryBackend(), nil
	case StorageDiskA:
		b, err := store.OpenBbolt(cfg.StoragePath)
		if err != nil {
			return nil, errs.NewIOError(cfg.StoragePath, err)
		}
		return b, nil
	case StorageDiskB:
		b, err := store.OpenBadger(cfg.StoragePath)
		if err != nil {
			return nil, errs.NewIOError(cfg.StoragePath, err)
		}
		return b, nil
	case StorageDiskC:
		b, err := store.OpenPebble(cfg.StoragePath)
		if err != nil {
			return nil, errs.NewIOError(cfg.StoragePath, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("tigercache: %w: unknown storage type %d", ErrInvalidArgument, cfg.StorageType)
	}
}

func newIndex(backend store.Backend, cfg Config) (*Index, error) {
	mgr := cache.NewManager(cfg.CacheSize, cfg.MaxMemory, cfg.IOLimitBytesPerSec)
	mgr.SetLogger(cfg.Logger)
	idx, err := index.Open(backend, mgr, index.Config{
		Strict:            cfg.StrictDuplicateID,
		AutoCommitOnClose: cfg.AutoCommitOnClose,
	})
	if err != nil {
		return nil, err
	}
	return &Index{
		backend: backend,
		cache:   mgr,
		idx:     idx,
		engine:  search.New(idx, mgr),
		cfg:     cfg,
		logger:  cfg.Logger,
	}, nil
}

// AddDocument stages doc for indexing, per spec §4.5.
func (ix *Index) AddDocument(doc *document.Document) error {
	err := ix.idx.Add(doc)
	ix.logger.LogAdd(context.Background(), doc.ID(), err)
	return err
}

// RemoveDocument stages the removal of id, reporting whether a document
// was removed.
func (ix *Index) RemoveDocument(id string) (bool, error) {
	removed, err := ix.idx.Remove(id)
	ix.logger.LogRemove(context.Background(), id, removed, err)
	return removed, err
}

// GetDocument returns the document with the given id, or nil if absent.
func (ix *Index) GetDocument(id string) (*document.Document, error) {
	return ix.idx.Get(id)
}

// Contains reports whether id currently resolves to a document.
func (ix *Index) Contains(id string) (bool, error) {
	return ix.idx.Contains(id)
}

// Len returns the number of documents currently indexed.
func (ix *Index) Len() int64 {
	return ix.idx.Len()
}

// Search ranks documents fuzzy-matching query. A nil opts uses
// Config.DefaultSearch.
func (ix *Index) Search(query string, opts *search.Options) ([]search.Result, error) {
	if opts == nil {
		opts = &ix.cfg.DefaultSearch
	}
	results, err := ix.engine.Search(query, opts)
	ix.logger.LogSearch(context.Background(), query, len(results), err)
	return results, err
}

// Commit applies the staging layer to the backend, per spec §4.5.
func (ix *Index) Commit() error {
	err := ix.idx.Commit()
	ix.logger.LogCommit(context.Background(), err)
	return err
}

// Rollback discards the staging layer, per spec §4.5.
func (ix *Index) Rollback() error {
	err := ix.idx.Rollback()
	ix.logger.LogRollback(context.Background(), err)
	return err
}

// Close commits a non-empty staging layer if Config.AutoCommitOnClose is
// set, then releases the backend's resources.
func (ix *Index) Close() error {
	return ix.idx.Close()
}

// SaveToFile writes a whole-index snapshot to path, per spec §6.
func (ix *Index) SaveToFile(path string) error {
	err := snapshot.Save(path, ix.backend, ix.cache.Controller())
	ix.logger.LogSnapshot(context.Background(), "save", path, err)
	return err
}

// OpenFile restores a whole-index snapshot from path into this index's
// backend, replacing its committed state. Any uncommitted staging layer
// is discarded first, since the backend it stages against is about to
// be overwritten.
func (ix *Index) OpenFile(path string) error {
	if err := ix.idx.Rollback(); err != nil {
		return err
	}
	err := snapshot.Load(path, ix.backend, ix.cache.Controller())
	ix.logger.LogSnapshot(context.Background(), "open", path, err)
	if err != nil {
		return err
	}

	reopened, err := index.Open(ix.backend, ix.cache, index.Config{
		Strict:            ix.cfg.StrictDuplicateID,
		AutoCommitOnClose: ix.cfg.AutoCommitOnClose,
	})
	if err != nil {
		return err
	}
	ix.cache.InvalidateAll()
	ix.idx = reopened
	ix.engine = search.New(reopened, ix.cache)
	return nil
}
