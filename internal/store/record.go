package store

import (
	"encoding/binary"
	"hash/crc32"
)

// Message record encoding:
// ts(8B BE) | uvarint ntags | (uvarint len | tag)* | payload | crc32c(all preceding)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeMessageRecord serializes a message's timestamp, tag set, and payload.
func EncodeMessageRecord(tsMs int64, tags []string, payload []byte) []byte {
	size := 8 + 10
	for _, t := range tags {
		size += 10 + len(t)
	}
	size += len(payload) + 4

	out := make([]byte, 0, size)
	var be8 [8]byte
	binary.BigEndian.PutUint64(be8[:], uint64(tsMs))
	out = append(out, be8[:]...)

	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(tags)))
	out = append(out, tmp[:n]...)
	for _, t := range tags {
		n = binary.PutUvarint(tmp[:], uint64(len(t)))
		out = append(out, tmp[:n]...)
		out = append(out, t...)
	}
	out = append(out, payload...)

	crc := crc32.Checksum(out, castagnoli)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeMessageRecord parses a record, verifying its checksum. The returned
// slices are copies, safe to hold after the source buffer is reused.
func DecodeMessageRecord(b []byte) (tsMs int64, tags []string, payload []byte, ok bool) {
	if len(b) < 8+1+4 {
		return 0, nil, nil, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != expect {
		return 0, nil, nil, false
	}

	tsMs = int64(binary.BigEndian.Uint64(body[:8]))
	rest := body[8:]
	ntags, n := binary.Uvarint(rest)
	if n <= 0 {
		return 0, nil, nil, false
	}
	rest = rest[n:]
	if ntags > 0 {
		tags = make([]string, 0, ntags)
	}
	for i := uint64(0); i < ntags; i++ {
		l, n := binary.Uvarint(rest)
		if n <= 0 || uint64(len(rest)) < uint64(n)+l {
			return 0, nil, nil, false
		}
		tags = append(tags, string(rest[n:uint64(n)+l]))
		rest = rest[uint64(n)+l:]
	}
	payload = append([]byte(nil), rest...)
	return tsMs, tags, payload, true
}
