// Package store defines the persistence interfaces required by the
// scheduling engine, together with the sentinel errors and transaction
// helper shared by all implementations. The postgres and memory platform
// packages provide the implementations.
package store
