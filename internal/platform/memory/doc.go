// Package memory provides in-memory implementations of the store
// interfaces. They mirror the PostgreSQL semantics closely enough for
// service-level tests: compare-and-swap completion, ordered query
// results, and sentinel errors. WithTx is a passthrough; there are no
// real transactions here.
package memory
