// Package id provides 128-bit, lexicographically sortable session
// identifiers.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison preserves chronological order, so session vertices
// keyed by ID sort in creation order, and IDs generated within the same
// millisecond remain strictly increasing by sequence.
//
// # Monotonicity
//
// The Generator ensures per-process monotonicity:
//   - If the system clock regresses, it pins to the last seen millisecond and
//     increments the sequence to avoid going backwards.
//   - If the sequence would overflow within a millisecond, it waits for the
//     next millisecond before emitting the next ID.
//
// Usage
//
//	g := id.NewGenerator()
//	sid := g.Next()
//	b := sid.Bytes()   // 16-byte representation
//	s := sid.String()  // hex string
//	back, _ := id.Parse(s)
package id
