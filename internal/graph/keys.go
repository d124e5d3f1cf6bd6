package graph

import (
	"encoding/binary"
)

// Keyspace helpers. All builders return freshly allocated keys so callers
// can hold them across batch boundaries.

var (
	sep           = byte('/')
	classPrefix   = []byte("schema/class/")
	seqPrefix     = []byte("schema/seq/")
	indexPrefix   = []byte("schema/index/")
	vertexPrefix  = []byte("g/v/")
	edgePrefix    = []byte("g/e/")
	tsIndexPrefix = []byte("g/x/ts/")
	chanPrefix    = []byte("g/chan/")
	latestSuffix  = []byte("/latest")
	reverseMark   = byte('~')
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyClassMarker builds the schema existence marker for a class.
func KeyClassMarker(class string) []byte {
	k := make([]byte, 0, len(classPrefix)+len(class))
	k = append(k, classPrefix...)
	k = append(k, class...)
	return k
}

// KeySequence builds the durable storage key of a named sequence.
func KeySequence(name string) []byte {
	k := make([]byte, 0, len(seqPrefix)+len(name))
	k = append(k, seqPrefix...)
	k = append(k, name...)
	return k
}

// KeyIndexMarker builds the schema existence marker for an index.
func KeyIndexMarker(name string) []byte {
	k := make([]byte, 0, len(indexPrefix)+len(name))
	k = append(k, indexPrefix...)
	k = append(k, name...)
	return k
}

// KeyTag builds the tag vertex key. Tag-name uniqueness is enforced by this
// key itself: two persists naming the same tag address the same vertex.
func KeyTag(name string) []byte {
	k := make([]byte, 0, len(vertexPrefix)+len(TagClass)+len(name)+1)
	k = append(k, vertexPrefix...)
	k = append(k, TagClass...)
	k = append(k, sep)
	k = append(k, name...)
	return k
}

// KeyMessage builds the message vertex key with a big-endian id for ordering.
func KeyMessage(mid uint64) []byte {
	k := make([]byte, 0, len(vertexPrefix)+len(MessageClass)+9)
	k = append(k, vertexPrefix...)
	k = append(k, MessageClass...)
	k = append(k, sep)
	k = appendBE8(k, mid)
	return k
}

// KeyTimestampIndex builds the secondary index entry ordering messages by
// timestamp (ms) then id.
func KeyTimestampIndex(tsMs int64, mid uint64) []byte {
	k := make([]byte, 0, len(tsIndexPrefix)+16)
	k = append(k, tsIndexPrefix...)
	k = appendBE8(k, uint64(tsMs))
	k = appendBE8(k, mid)
	return k
}

// TimestampIndexBounds returns [lower, upper) iterator bounds covering all
// index entries with loMs <= ts <= hiMs.
func TimestampIndexBounds(loMs, hiMs int64) (low, high []byte) {
	low = make([]byte, 0, len(tsIndexPrefix)+8)
	low = append(low, tsIndexPrefix...)
	low = appendBE8(low, uint64(loMs))

	high = make([]byte, 0, len(tsIndexPrefix)+17)
	high = append(high, tsIndexPrefix...)
	high = appendBE8(high, uint64(hiMs))
	// hiMs is inclusive: the bound must sort above every {hiMs, mid} entry,
	// including mid = MaxUint64, without spilling into hiMs+1.
	for i := 0; i < 9; i++ {
		high = append(high, 0xFF)
	}
	return low, high
}

// MidFromTimestampIndexKey extracts the message id from an index entry key.
func MidFromTimestampIndexKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[len(k)-8:])
}

// KeyTaggedBy builds the Message -> Tag edge key.
func KeyTaggedBy(mid uint64, tag string) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(MessageTagRelationship)+len(tag)+10)
	k = append(k, edgePrefix...)
	k = append(k, MessageTagRelationship...)
	k = append(k, sep)
	k = appendBE8(k, mid)
	k = append(k, sep)
	k = append(k, tag...)
	return k
}

// KeyTagMessages builds the reverse adjacency entry of a tagged-by edge,
// ordered by tag then message id.
func KeyTagMessages(tag string, mid uint64) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(MessageTagRelationship)+len(tag)+11)
	k = append(k, edgePrefix...)
	k = append(k, MessageTagRelationship...)
	k = append(k, reverseMark)
	k = append(k, sep)
	k = append(k, tag...)
	k = append(k, sep)
	k = appendBE8(k, mid)
	return k
}

// KeySession builds the session vertex key.
func KeySession(sid []byte) []byte {
	k := make([]byte, 0, len(vertexPrefix)+len(SessionClass)+len(sid)+1)
	k = append(k, vertexPrefix...)
	k = append(k, SessionClass...)
	k = append(k, sep)
	k = append(k, sid...)
	return k
}

// KeySessionLink builds the successor -> predecessor sessionLinks edge key.
func KeySessionLink(sid, predecessor []byte) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(SessionSessionRelationship)+len(sid)+len(predecessor)+2)
	k = append(k, edgePrefix...)
	k = append(k, SessionSessionRelationship...)
	k = append(k, sep)
	k = append(k, sid...)
	k = append(k, sep)
	k = append(k, predecessor...)
	return k
}

// SessionLinkPrefix returns the scan prefix for a session's outgoing links.
func SessionLinkPrefix(sid []byte) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(SessionSessionRelationship)+len(sid)+2)
	k = append(k, edgePrefix...)
	k = append(k, SessionSessionRelationship...)
	k = append(k, sep)
	k = append(k, sid...)
	k = append(k, sep)
	return k
}

// KeyCollects builds the session -> Message edge key carrying the assigned
// position; the edge value stores the message id.
func KeyCollects(sid []byte, index uint64) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(SessionMessageRelationship)+len(sid)+10)
	k = append(k, edgePrefix...)
	k = append(k, SessionMessageRelationship...)
	k = append(k, sep)
	k = append(k, sid...)
	k = append(k, sep)
	k = appendBE8(k, index)
	return k
}

// CollectsPrefix returns the scan prefix for a session's collected messages
// in position order.
func CollectsPrefix(sid []byte) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(SessionMessageRelationship)+len(sid)+2)
	k = append(k, edgePrefix...)
	k = append(k, SessionMessageRelationship...)
	k = append(k, sep)
	k = append(k, sid...)
	k = append(k, sep)
	return k
}

// KeyChannelLatest points at the most recently opened session of a channel.
func KeyChannelLatest(channel string) []byte {
	k := make([]byte, 0, len(chanPrefix)+len(channel)+len(latestSuffix))
	k = append(k, chanPrefix...)
	k = append(k, channel...)
	k = append(k, latestSuffix...)
	return k
}

// PrefixUpperBound returns the smallest key greater than every key with the
// given prefix, for use as an iterator upper bound.
func PrefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
