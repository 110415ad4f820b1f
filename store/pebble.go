package store

import (
	"github.com/cockroachdb/pebble"
)

// PebbleBackend adapts github.com/cockroachdb/pebble, a second LSM-tree
// embedded KV store, to Backend. Together with BboltBackend and
// BadgerBackend it gives three genuinely different disk backends, the
// Go-idiomatic analogue of the original implementation's four-backend
// storage module (sled, redb, rocksdb, sqlite behind one StorageEngine
// trait).
type PebbleBackend struct {
	db *pebble.DB
}

// OpenPebble opens (creating if necessary) a Pebble-backed store at path.
func OpenPebble(path string) (*PebbleBackend, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleBackend{db: db}, nil
}

var _ Backend = (*PebbleBackend)(nil)
var _ BatchApplier = (*PebbleBackend)(nil)

// Get implements Backend.
func (p *PebbleBackend) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, true, nil
}

// Put implements Backend.
func (p *PebbleBackend) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

// Delete implements Backend.
func (p *PebbleBackend) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

// ApplyBatch implements BatchApplier using a Pebble batch, committed
// atomically and synchronously.
func (p *PebbleBackend) ApplyBatch(writes []Write) error {
	batch := p.db.NewBatch()
	defer batch.Close()

	for _, w := range writes {
		if w.Delete {
			if err := batch.Delete(w.Key, nil); err != nil {
				return err
			}
			continue
		}
		if err := batch.Set(w.Key, w.Value, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// ScanPrefix implements Backend.
func (p *PebbleBackend) ScanPrefix(prefix []byte) (Iterator, error) {
	upper := prefixUpperBound(prefix)
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upper,
	})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{it: it, started: false}, nil
}

// Flush implements Backend.
func (p *PebbleBackend) Flush() error {
	return p.db.Flush()
}

// Close implements Backend.
func (p *PebbleBackend) Close() error { return p.db.Close() }

type pebbleIterator struct {
	it      *pebble.Iterator
	started bool
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		return it.it.First()
	}
	return it.it.Next()
}

func (it *pebbleIterator) Key() []byte   { return append([]byte(nil), it.it.Key()...) }
func (it *pebbleIterator) Value() []byte { return append([]byte(nil), it.it.Value()...) }
func (it *pebbleIterator) Err() error    { return it.it.Error() }
func (it *pebbleIterator) Close() error  { return it.it.Close() }

// prefixUpperBound returns the smallest key that is strictly greater than
// every key with the given prefix, for use as a Pebble iterator upper
// bound. A nil result means "no upper bound" (prefix is all 0xFF bytes).
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] == 0xFF {
			upper = upper[:i]
			continue
		}
		upper[i]++
		return upper[:i+1]
	}
	return nil
}
