// Package sink defines the output contract consumed by trace buffer
// flushes and a persistent binary stream implementation of it.
//
// A RecordWriter receives two kinds of records: context tree node
// definitions and measurement snapshots, both shaped as three parallel
// arrays (node ids, attribute ids, values). The flush coordinator
// guarantees node-before-reference ordering, so a streaming consumer can
// resolve every snapshot against previously seen node records.
//
// StreamWriter and StreamReader implement a framed container for these
// records with per-frame xxhash64 checksums and optional frame
// compression (see the compress package).
package sink
