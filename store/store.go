package store

// Write describes a single staged mutation for a commit. A nil Value with
// Delete set to false is never produced by the index; Delete distinguishes
// a tombstone from a zero-length value.
type Write struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Iterator lazily walks key/value pairs in ascending key order. Callers
// must call Close when done, even after an error.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is available.
	Next() bool
	// Key returns the current key. Valid only after a true Next.
	Key() []byte
	// Value returns the current value. Valid only after a true Next.
	Value() []byte
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases resources held by the iterator.
	Close() error
}

// Backend is the capability set required of a KV store: get/put/delete plus
// a prefix scan. A backend need not be transactional; the index layer
// provides atomicity for a commit by staging writes and applying them in a
// single batch via BatchApplier when the backend supports it, or
// sequentially followed by Flush otherwise.
type Backend interface {
	// Get returns the value for key, or (nil, false) if absent.
	Get(key []byte) ([]byte, bool, error)
	// Put stores value under key, overwriting any existing value.
	Put(key, value []byte) error
	// Delete removes key. It is not an error if key was absent.
	Delete(key []byte) error
	// ScanPrefix returns an iterator over all keys sharing prefix, in
	// ascending key order.
	ScanPrefix(prefix []byte) (Iterator, error)
	// Flush persists any buffered writes.
	Flush() error
	// Close releases the backend's resources. Close implies Flush.
	Close() error
}

// BatchApplier is implemented by backends that can apply a batch of writes
// atomically. The index's Commit uses this when available so that a
// commit is atomic on the backend, not merely emulated by sequential
// writes.
type BatchApplier interface {
	ApplyBatch(writes []Write) error
}
