// Package table implements the dynamic table engine: a schema-driven,
// user-editable grid with calculated columns, live column totals, a
// non-blocking validation model and debounced persistence through a
// pluggable storage adapter.
//
// The in-memory row store is the single source of truth. The mounted view
// is a projection driven by the table; nothing reads data back out of it.
// All mutations are applied synchronously in call order; the only deferred
// work is the debounced snapshot write.
package table
