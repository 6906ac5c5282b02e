// Package tracking records how a document evolves.
//
// Every transaction that changes the document advances the revision
// counter and leaves a [Change] record naming the leaf blocks it touched.
// Past states are kept in a bounded revision store; because editor states
// are immutable, keeping one is a reference, not a copy.
//
// # Snapshots
//
// A [Snapshot] pins a named state:
//
//	id := tracker.CreateSnapshot("before_import", st)
//	// ... more edits ...
//	diff, err := tracker.DiffSinceSnapshot(id, current, tracking.DefaultDiffOptions())
//
// # Diffing
//
// [ComputeDiff] matches leaf blocks by id and reports each as added,
// removed or changed; changed blocks carry a character diff of their text.
//
// All Tracker operations are thread-safe.
package tracking
