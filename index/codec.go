package index

import (
	"encoding/binary"
	"fmt"
	"io"
)

// encodeStringList serializes a sorted string list (a posting or a
// trigram's token set) into the compact binary form stored under its
// "p/" or "t/" key: count(varint) then per entry len(varint) bytes.
func encodeStringList(items []string) []byte {
	buf := make([]byte, 0, 8*len(items)+8)
	buf = appendUvarint(buf, uint64(len(items)))
	for _, s := range items {
		buf = appendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

// decodeStringList decodes a list previously produced by encodeStringList.
func decodeStringList(data []byte) ([]string, error) {
	r := &byteReader{data: data}
	count, err := r.uvarint()
	if err != nil {
		return nil, fmt.Errorf("index: decode list count: %w", err)
	}
	items := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		n, err := r.uvarint()
		if err != nil {
			return nil, fmt.Errorf("index: decode list entry %d length: %w", i, err)
		}
		if r.pos+int(n) > len(r.data) {
			return nil, io.ErrUnexpectedEOF
		}
		items = append(items, string(r.data[r.pos:r.pos+int(n)]))
		r.pos += int(n)
	}
	if !r.exhausted() {
		return nil, fmt.Errorf("index: %d trailing bytes after decoding list", len(r.data)-r.pos)
	}
	return items, nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) exhausted() bool { return r.pos >= len(r.data) }

func (r *byteReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.pos += n
	return v, nil
}
