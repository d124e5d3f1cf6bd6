// Package store implements the message store: durable persistence of
// messages with their tag associations, and predicate-driven retrieval in
// timestamp order.
//
// # Persistence
//
// Persist obtains a fresh identifier from the global IDs sequence and
// commits the message vertex, its tag vertices and tagged-by edges, the
// timestamp index entry, and the sequence bump in one atomic batch. The
// message record embeds its tag set, so a reader always observes a message
// together with its tags.
//
// # Retrieval
//
// Query evaluates a predicate at call time into an absolute window over the
// timestamp index, then lazily walks matching entries:
//
//	pred, _ := query.NewBefore(60)
//	it, err := st.Query(pred)
//	if err != nil { /* handle */ }
//	defer it.Close()
//	for it.Next() {
//	    m := it.Message()
//	    _ = m
//	}
//	if err := it.Err(); err != nil { /* handle */ }
package store
