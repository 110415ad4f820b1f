// Package cache implements a generic, size-accounted, pinnable LRU used to
// build the three bounded caches of cache.Manager (document, posting,
// query). It is adapted from the teacher repository's byte-oriented
// internal/cache/lru.go, generified over a Sized value type so the same
// eviction machinery serves documents, posting lists, and query result
// pages without duplicating the list/map bookkeeping three times.
package cache
