package document

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MarshalBinary encodes the document into the compact binary form stored
// under the "d/<id>" key (spec: "a compact binary form; exact bytes are
// implementation-defined but must round-trip").
//
// Layout: id-len(varint) id-bytes field-count(varint) then per field:
// name-len(varint) name-bytes kind(1 byte) value.
func (d *Document) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, d.Size()+16)
	buf = appendUvarintString(buf, d.id)
	buf = appendUvarint(buf, uint64(len(d.fields)))
	for _, f := range d.fields {
		buf = appendUvarintString(buf, f.Name)
		buf = append(buf, byte(f.Value.Kind))
		switch f.Value.Kind {
		case KindText:
			buf = appendUvarintString(buf, f.Value.text)
		case KindInt:
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(f.Value.i))
			buf = append(buf, tmp[:]...)
		case KindFloat:
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f.Value.f))
			buf = append(buf, tmp[:]...)
		case KindBool:
			if f.Value.b {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		default:
			return nil, fmt.Errorf("document: unknown field kind %d", f.Value.Kind)
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a document previously produced by MarshalBinary.
func (d *Document) UnmarshalBinary(data []byte) error {
	r := &byteReader{data: data}

	id, err := r.uvarintString()
	if err != nil {
		return fmt.Errorf("document: decode id: %w", err)
	}
	count, err := r.uvarint()
	if err != nil {
		return fmt.Errorf("document: decode field count: %w", err)
	}

	d.id = id
	d.fields = d.fields[:0]
	d.byName = make(map[string]int, count)

	for i := uint64(0); i < count; i++ {
		name, err := r.uvarintString()
		if err != nil {
			return fmt.Errorf("document: decode field %d name: %w", i, err)
		}
		kindByte, err := r.byte()
		if err != nil {
			return fmt.Errorf("document: decode field %d kind: %w", i, err)
		}

		var value FieldValue
		switch FieldKind(kindByte) {
		case KindText:
			s, err := r.uvarintString()
			if err != nil {
				return fmt.Errorf("document: decode field %d text: %w", i, err)
			}
			value = Text(s)
		case KindInt:
			u, err := r.fixed64()
			if err != nil {
				return fmt.Errorf("document: decode field %d int: %w", i, err)
			}
			value = Int(int64(u))
		case KindFloat:
			u, err := r.fixed64()
			if err != nil {
				return fmt.Errorf("document: decode field %d float: %w", i, err)
			}
			value = Float(math.Float64frombits(u))
		case KindBool:
			b, err := r.byte()
			if err != nil {
				return fmt.Errorf("document: decode field %d bool: %w", i, err)
			}
			value = Bool(b != 0)
		default:
			return fmt.Errorf("document: unknown field kind %d", kindByte)
		}

		d.byName[name] = len(d.fields)
		d.fields = append(d.fields, Field{Name: name, Value: value})
	}

	if !r.exhausted() {
		return fmt.Errorf("document: %d trailing bytes after decode", len(r.data)-r.pos)
	}
	return nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendUvarintString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) exhausted() bool { return r.pos >= len(r.data) }

func (r *byteReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.pos += n
	return v, nil
}

func (r *byteReader) uvarintString() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *byteReader) fixed64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}
