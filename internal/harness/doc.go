// Package harness runs declarative conformance scenarios against the
// dynamic table engine.
//
// A scenario is a YAML file holding a table definition, a flow of user
// actions (add, edit, clone, remove, validate, clear, flush) and an
// expectation clause. The harness builds a real table over an in-memory
// adapter and mount, drives it with a manual clock and sequential row
// identifiers so runs are fully deterministic, records every emitted
// event as a trace, and evaluates the expectations. Traces and final
// state can additionally be compared against golden files.
package harness
