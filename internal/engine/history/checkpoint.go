package history

import "github.com/dshills/blockstorm/internal/engine/transaction"

// Checkpoint marks a depth of the undo stack that UndoSince can return to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint marks the current undo depth.
func (h *History) CreateCheckpoint() Checkpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Checkpoint{undoDepth: len(h.undoStack)}
}

// UndoSince pops every entry recorded after cp and returns one transaction
// reverting them all. The popped entries move to the redo stack as with
// Undo. It returns ErrNothingToUndo when no entry is newer than cp.
func (h *History) UndoSince(cp Checkpoint) (*transaction.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out *transaction.Transaction
	for len(h.undoStack) > cp.undoDepth {
		e := h.undoStack[len(h.undoStack)-1]
		h.undoStack = h.undoStack[:len(h.undoStack)-1]
		e.sealed = true
		h.redoStack = append(h.redoStack, e)
		if out == nil {
			out = e.tr.Inverse()
		} else {
			out = out.Concat(e.tr.Inverse())
		}
	}
	if out == nil {
		return nil, ErrNothingToUndo
	}
	return out, nil
}
