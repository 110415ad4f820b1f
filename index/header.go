package index

import (
	"encoding/binary"
	"fmt"
)

// schemaVersion is the current on-disk format of the "m/header" record.
const schemaVersion uint16 = 1

// Header is the schema-version and item-count record stored under
// store.HeaderKey ("m/header"), per spec §4.3. It is written on every
// Commit and consulted on Open/Rollback to restore the document count
// without a full backend scan.
type Header struct {
	Version  uint16
	DocCount uint64
}

// MarshalBinary encodes the header: version(2 bytes LE) doc-count(varint).
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 2, 10)
	binary.LittleEndian.PutUint16(buf, h.Version)
	buf = appendUvarint(buf, h.DocCount)
	return buf, nil
}

// UnmarshalBinary decodes a header previously produced by MarshalBinary.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("index: header too short (%d bytes)", len(data))
	}
	h.Version = binary.LittleEndian.Uint16(data)
	r := &byteReader{data: data, pos: 2}
	count, err := r.uvarint()
	if err != nil {
		return fmt.Errorf("index: decode header doc count: %w", err)
	}
	h.DocCount = count
	if h.Version != schemaVersion {
		return fmt.Errorf("index: header schema version %d unsupported (want %d)", h.Version, schemaVersion)
	}
	return nil
}
