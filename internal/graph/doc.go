// Package graph defines the persisted graph schema of the storage module
// and the primitives that maintain it: the schema registrar and the durable
// message identifier sequence.
//
// # Keyspace
//
// The graph is laid out as a lexicographically ordered Pebble keyspace:
//   - schema/class/{name}          (existence marker per vertex/edge class)
//   - schema/seq/{name}            (sequence current value, u64 BE)
//   - schema/index/{name}          (existence marker per index)
//   - g/v/Tag/{name}               (tag vertex; the key is the unique index)
//   - g/v/Message/{mid_be8}        (message vertex record)
//   - g/v/session/{sid16}          (session vertex record, JSON)
//   - g/x/ts/{ts_be8}/{mid_be8}    (timestamp secondary index)
//   - g/e/tagged-by/{mid_be8}/{tag}     (Message -> Tag edge)
//   - g/e/tagged-by~/{tag}/{mid_be8}    (reverse adjacency of the same edge)
//   - g/e/sessionLinks/{sid16}/{prev16} (session -> predecessor edge)
//   - g/e/collects/{sid16}/{idx_be8}    (session -> Message edge, value mid)
//   - g/chan/{channel}/latest           (latest session per channel)
//
// Class, property, and relationship names are fixed by the namespace
// constants; they must not change, since they are shared with existing data.
package graph
