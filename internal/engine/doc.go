// Package engine provides the editing core of Blockstorm.
//
// The engine package is the dispatch boundary: it holds the current
// immutable [state.EditorState] and is the only place where state is
// replaced. Everything below it is pure and freely shareable.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - model: immutable document tree (blocks, text runs, inline atoms, marks)
//   - schema: node, mark and inline specs with attribute validation
//   - selection: text selections, node selections and gap cursors
//   - step: primitive invertible edits
//   - transaction: batches of steps built with a chaining Builder
//   - state: EditorState, step application and selection repair
//   - commands: editing commands that inspect state and build transactions
//   - navigation: grapheme, word and vertical caret movement
//   - history: linear undo/redo over transactions
//   - tracking: revisions, snapshots and block diffs
//
// # Thread Safety
//
// All Engine operations are thread-safe. Reads share a read lock; Dispatch,
// Run, Undo and Redo are serialized. Listeners run after the lock is
// released, so they may call back into the engine.
//
// # Basic Usage
//
//	e := engine.New()
//	ctx := context.Background()
//
//	e.Run(ctx, func(st *state.EditorState) *transaction.Transaction {
//	    return commands.InsertText(st, "Hello")
//	})
//	e.Execute(ctx, "toggleBold")
//	e.Undo(ctx)
//
// # Read-only Mode
//
// A read-only engine accepts selection changes and transactions built with
// ReadonlyAllowed; anything else returns [ErrReadOnly].
//
// # Snapshots
//
//	id := e.CreateSnapshot("before_import")
//	// ... edits ...
//	diff, _ := e.DiffSinceSnapshot(id)
//	fmt.Print(diff)
//
// # Tracing
//
// Dispatch, Run, Execute, Undo and Redo open OpenTelemetry spans on the
// tracer given with [WithTracer], or the global provider's tracer.
package engine
