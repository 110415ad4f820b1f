// Package snapshot implements the whole-index save_to_file/open_file
// operation of spec §6: every key/value pair in a store.Backend, framed
// with a magic header and trailing checksum, serialized to or restored
// from a single file.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/Cosmic-Tiger-AU/tigercache/errs"
	"github.com/Cosmic-Tiger-AU/tigercache/resource"
	"github.com/Cosmic-Tiger-AU/tigercache/store"
)

var magic = []byte("TGCH")

// schemaVersion is the current snapshot file format.
const schemaVersion uint16 = 1

// record is a single key/value pair as read from or written to a
// backend, in the sorted key order the on-disk format requires.
type record struct {
	Key   []byte
	Value []byte
}

// Save writes a whole-index snapshot of backend's current committed
// state to path: magic "TGCH", a 2-byte schema version, a varint record
// count, the records themselves in sorted key order, and a trailing
// xxhash64 checksum over everything written before it. rc throttles the
// write to its configured IO limit; a nil rc writes unthrottled.
func Save(path string, backend store.Backend, rc *resource.Controller) error {
	records, err := collect(backend)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	body.Write(magic)
	writeUint16(&body, schemaVersion)
	appendUvarintTo(&body, uint64(len(records)))
	for _, r := range records {
		writeBytesTo(&body, r.Key)
		writeBytesTo(&body, r.Value)
	}

	sum := xxhash.Sum64(body.Bytes())
	var sumBuf [8]byte
	binary.LittleEndian.PutUint64(sumBuf[:], sum)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errs.NewIOError(path, err)
	}
	defer f.Close()

	w := resource.NewRateLimitedWriter(f, rc, context.Background())
	if _, err := w.Write(body.Bytes()); err != nil {
		return errs.NewIOError(path, err)
	}
	if _, err := w.Write(sumBuf[:]); err != nil {
		return errs.NewIOError(path, err)
	}
	return nil
}

// Load reads a snapshot previously written by Save and applies every
// record to backend as a single batch when backend supports it, deleting
// any key backend held that the snapshot does not, so afterwards backend
// holds exactly the snapshot's keys. A
// magic/version mismatch is errs.ErrSerialization; a checksum mismatch
// is errs.ErrCorruption, per spec §7. rc throttles the read to its
// configured IO limit; a nil rc reads unthrottled.
func Load(path string, backend store.Backend, rc *resource.Controller) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.NewIOError(path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(resource.NewRateLimitedReader(f, rc, context.Background()))
	if err != nil {
		return errs.NewIOError(path, err)
	}
	if len(data) < len(magic)+2+8 {
		return fmt.Errorf("snapshot: %w: file too short (%d bytes)", errs.ErrSerialization, len(data))
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return fmt.Errorf("snapshot: %w: bad magic", errs.ErrSerialization)
	}
	offset := len(magic)
	version := binary.LittleEndian.Uint16(data[offset : offset+2])
	if version != schemaVersion {
		return fmt.Errorf("snapshot: %w: schema version %d unsupported (want %d)", errs.ErrSerialization, version, schemaVersion)
	}

	body := data[:len(data)-8]
	wantSum := binary.LittleEndian.Uint64(data[len(data)-8:])
	if gotSum := xxhash.Sum64(body); gotSum != wantSum {
		return errs.ErrCorruption
	}

	r := &byteReader{data: data, pos: offset + 2}
	count, err := r.uvarint()
	if err != nil {
		return fmt.Errorf("snapshot: %w: decode record count: %v", errs.ErrSerialization, err)
	}

	records := make([]record, 0, count)
	for i := uint64(0); i < count; i++ {
		key, err := r.bytes()
		if err != nil {
			return fmt.Errorf("snapshot: %w: decode record %d key: %v", errs.ErrSerialization, i, err)
		}
		value, err := r.bytes()
		if err != nil {
			return fmt.Errorf("snapshot: %w: decode record %d value: %v", errs.ErrSerialization, i, err)
		}
		records = append(records, record{Key: key, Value: value})
	}

	return apply(backend, records)
}

// collect reads every key/value pair from backend in sorted key order.
// The key layout of store §4.3 uses only the prefixes "d/", "m/"
// (the single header key), "p/", and "t/", which already sort in that
// order ('d' < 'm' < 'p' < 't'), so scanning the three prefixes plus the
// header key in that sequence yields the whole keyspace in sorted order
// without a dedicated "scan everything" backend method.
func collect(backend store.Backend) ([]record, error) {
	var records []record

	if err := scanInto(&records, backend, store.DocPrefix()); err != nil {
		return nil, err
	}
	if v, ok, err := backend.Get(store.HeaderKey); err != nil {
		return nil, errs.NewBackendError("snapshot read header", err)
	} else if ok {
		records = append(records, record{Key: append([]byte(nil), store.HeaderKey...), Value: v})
	}
	if err := scanInto(&records, backend, store.PostingPrefix()); err != nil {
		return nil, err
	}
	if err := scanInto(&records, backend, store.TrigramPrefix()); err != nil {
		return nil, err
	}
	return records, nil
}

func scanInto(records *[]record, backend store.Backend, prefix []byte) error {
	it, err := backend.ScanPrefix(prefix)
	if err != nil {
		return errs.NewBackendError("snapshot scan", err)
	}
	defer it.Close()

	for it.Next() {
		*records = append(*records, record{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	return it.Err()
}

// apply replaces backend's contents with records: every key backend
// already holds is deleted ahead of the records' own writes, in a single
// batch when backend implements store.BatchApplier, or sequentially
// followed by Flush otherwise.
func apply(backend store.Backend, records []record) error {
	sort.Slice(records, func(i, j int) bool { return bytes.Compare(records[i].Key, records[j].Key) < 0 })

	existing, err := collect(backend)
	if err != nil {
		return err
	}

	if applier, ok := backend.(store.BatchApplier); ok {
		writes := make([]store.Write, 0, len(existing)+len(records))
		for _, e := range existing {
			writes = append(writes, store.Write{Key: e.Key, Delete: true})
		}
		for _, r := range records {
			writes = append(writes, store.Write{Key: r.Key, Value: r.Value})
		}
		if err := applier.ApplyBatch(writes); err != nil {
			return errs.NewBackendError("snapshot load", err)
		}
		return nil
	}

	for _, e := range existing {
		if err := backend.Delete(e.Key); err != nil {
			return errs.NewBackendError("snapshot load", err)
		}
	}
	for _, r := range records {
		if err := backend.Put(r.Key, r.Value); err != nil {
			return errs.NewBackendError("snapshot load", err)
		}
	}
	if err := backend.Flush(); err != nil {
		return errs.NewBackendError("snapshot load", err)
	}
	return nil
}

func writeUint16(w *bytes.Buffer, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func writeBytesTo(w *bytes.Buffer, b []byte) {
	appendUvarintTo(w, uint64(len(b)))
	w.Write(b)
}

func appendUvarintTo(w *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.Write(tmp[:n])
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.pos += n
	return v, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}
