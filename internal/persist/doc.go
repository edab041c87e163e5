// Package persist defines the storage contract between a table and its
// durable backend, plus the shipped adapters: SQLite, a file-backed
// key-value store, and an in-memory store.
//
// The table owns the in-memory state; an adapter owns the durable copy.
// Adapter failures are reported to the caller, which logs and carries on.
// The current session's in-memory state stays authoritative.
package persist
