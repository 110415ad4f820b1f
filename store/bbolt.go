package store

import (
	"errors"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("tigercache")

// BboltBackend adapts go.etcd.io/bbolt, a single-file B+tree embedded KV
// store, to Backend. It is the idiomatic Go analogue of the original
// implementation's sled/redb single-file storage engines.
type BboltBackend struct {
	db *bbolt.DB
}

// OpenBbolt opens (creating if necessary) a bbolt-backed store at path.
func OpenBbolt(path string) (*BboltBackend, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltBackend{db: db}, nil
}

var _ Backend = (*BboltBackend)(nil)
var _ BatchApplier = (*BboltBackend)(nil)

// Get implements Backend.
func (b *BboltBackend) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil, err
}

// Put implements Backend.
func (b *BboltBackend) Put(key, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

// Delete implements Backend.
func (b *BboltBackend) Delete(key []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

// ApplyBatch implements BatchApplier using a single bbolt transaction, so a
// commit is atomic: either every write lands or none do.
func (b *BboltBackend) ApplyBatch(writes []Write) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, w := range writes {
			if w.Delete {
				if err := bucket.Delete(w.Key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(w.Key, w.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanPrefix implements Backend.
func (b *BboltBackend) ScanPrefix(prefix []byte) (Iterator, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, err
	}
	cursor := tx.Bucket(bucketName).Cursor()
	return &bboltIterator{tx: tx, cursor: cursor, prefix: prefix, started: false}, nil
}

// Flush implements Backend; bbolt commits are durable on transaction
// completion, so this is a no-op beyond what Update already guarantees.
func (b *BboltBackend) Flush() error { return nil }

// Close implements Backend.
func (b *BboltBackend) Close() error { return b.db.Close() }

type bboltIterator struct {
	tx      *bbolt.Tx
	cursor  *bbolt.Cursor
	prefix  []byte
	started bool
	key     []byte
	value   []byte
	err     error
}

func (it *bboltIterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		k, v = it.cursor.Seek(it.prefix)
	} else {
		k, v = it.cursor.Next()
	}
	if k == nil || !hasPrefix(k, it.prefix) {
		return false
	}
	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	return true
}

func (it *bboltIterator) Key() []byte   { return it.key }
func (it *bboltIterator) Value() []byte { return it.value }
func (it *bboltIterator) Err() error    { return it.err }

func (it *bboltIterator) Close() error {
	err := it.tx.Rollback()
	if errors.Is(err, bbolt.ErrTxClosed) {
		return nil
	}
	return err
}

func hasPrefix(k, prefix []byte) bool {
	if len(prefix) == 0 {
		return true
	}
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}
