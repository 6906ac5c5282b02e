// Package history provides undo/redo for the editing engine.
//
// The history records applied transactions. Every transaction already
// carries the inverse steps snapshotted when it was built, so undoing an
// entry is applying its inverse transaction; nothing is re-derived from the
// document.
//
// # History Stack
//
// The History type manages linear undo/redo stacks:
//
//	h := NewHistory(1000) // Max 1000 undo entries
//
//	h.Record(tr)          // after applying tr
//	undo, err := h.Undo() // apply undo to go back
//	redo, err := h.Redo()
//
// A new edit clears the redo stack. Transactions with the history origin
// (undo and redo themselves) and transactions that do not touch the
// document are never recorded.
//
// # Grouping
//
// Consecutive typing transactions (origin input) recorded within the group
// delay of each other merge into one undo entry. A selection change breaks
// the run. Explicit groups combine everything recorded between BeginGroup
// and EndGroup:
//
//	h.BeginGroup("Find and Replace")
//	// ... multiple edits ...
//	h.EndGroup()
//
// Now all edits undo together with one Ctrl+Z.
package history
