// Package store defines the pluggable key-value backend trait that Tiger
// Cache's index layer uses for authoritative, on-disk (or in-memory) state,
// plus the concrete backends: an in-process map for tests and ephemeral
// use, and three embedded on-disk stores selected at index construction
// time (bbolt, a single-file B+tree; Badger, an LSM-tree store; Pebble, a
// second LSM-tree store).
//
// Keys and values are opaque byte strings; the index is the sole
// translator between domain keys (document ids, tokens, trigrams) and the
// "d/", "p/", "t/", "m/" byte key layout (see DocKey, PostingKey,
// TrigramKey and HeaderKey).
package store
