// Package render projects the table's column model and row store into a
// UI-node tree.
//
// The tree is the view: a pure projection of in-memory state. It never
// stores data the table does not already hold, and mutations flow one way,
// from the table into the mount. Row add/remove patches are row-local; the
// body is never rebuilt wholesale.
package render
