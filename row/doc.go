// Package row defines the record and column model of a grid.
//
// A Row is an opaque mapping from field name to value. Rows are treated as
// immutable: edits produce a new map via With or Merge, so slices of rows
// handed out in earlier snapshots never observe later edits.
//
// # Identity
//
// A row is identified by its "id" field when present and non-nil. Rows
// without an id are identified by a digest of their canonical encoding:
//
//	row.Key(row.Row{"id": 7})           // "id:n:7"
//	row.Key(row.Row{"name": "Alice"})   // "h:<16 hex digits>"
//
// # Values
//
// String and Compare give every field value the loose, total-enough
// semantics a grid needs: numbers compare numerically regardless of their Go
// type, strings lexicographically, bools false before true and time.Time
// chronologically. Values of different classes compare as equal, so a
// stable sort leaves them in arrival order.
package row
