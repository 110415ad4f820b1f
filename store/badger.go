package store

import (
	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend adapts github.com/dgraph-io/badger/v4, an LSM-tree embedded
// KV store, to Backend. It is the analogue of the original implementation's
// rocksdb_engine.rs storage engine.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (creating if necessary) a Badger-backed store at path.
func OpenBadger(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerBackend{db: db}, nil
}

var _ Backend = (*BadgerBackend)(nil)
var _ BatchApplier = (*BadgerBackend)(nil)

// Get implements Backend.
func (b *BadgerBackend) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			out = append([]byte(nil), v...)
			return nil
		})
	})
	return out, out != nil, err
}

// Put implements Backend.
func (b *BadgerBackend) Put(key, value []byte) error {
	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
}

// Delete implements Backend.
func (b *BadgerBackend) Delete(key []byte) error {
	return b.db.Update(func(tx *badger.Txn) error {
		err := tx.Delete(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// ApplyBatch implements BatchApplier using Badger's WriteBatch, which
// commits atomically.
func (b *BadgerBackend) ApplyBatch(writes []Write) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, w := range writes {
		if w.Delete {
			if err := wb.Delete(w.Key); err != nil {
				return err
			}
			continue
		}
		if err := wb.Set(w.Key, w.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// ScanPrefix implements Backend.
func (b *BadgerBackend) ScanPrefix(prefix []byte) (Iterator, error) {
	txn := b.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Seek(prefix)
	return &badgerIterator{txn: txn, it: it, prefix: prefix, started: false}, nil
}

// Flush implements Backend. Badger persists on transaction commit; this
// forces a value-log sync so Close/crash-recovery sees committed data.
func (b *BadgerBackend) Flush() error { return b.db.Sync() }

// Close implements Backend.
func (b *BadgerBackend) Close() error { return b.db.Close() }

type badgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	started bool
	key     []byte
	value   []byte
	err     error
}

func (it *badgerIterator) Next() bool {
	if it.started {
		it.it.Next()
	}
	it.started = true
	if !it.it.ValidForPrefix(it.prefix) {
		return false
	}
	item := it.it.Item()
	it.key = append([]byte(nil), item.Key()...)
	val, err := item.ValueCopy(nil)
	if err != nil {
		it.err = err
		return false
	}
	it.value = val
	return true
}

func (it *badgerIterator) Key() []byte   { return it.key }
func (it *badgerIterator) Value() []byte { return it.value }
func (it *badgerIterator) Err() error    { return it.err }

func (it *badgerIterator) Close() error {
	it.it.Close()
	it.txn.Discard()
	return nil
}
