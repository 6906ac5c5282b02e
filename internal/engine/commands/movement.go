package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/navigation"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// moveTo builds the selection-only transaction of a caret move. Moving
// drops stored marks.
func moveTo(st *state.EditorState, sel selection.Selection, ok bool) *transaction.Transaction {
	if !ok || sel == nil || selection.Equal(sel, st.Selection()) {
		return nil
	}
	b := st.Transaction(transaction.OriginCommand)
	b.SetSelection(sel)
	b.SetStoredMarks(nil)
	return b.Describe("move").Build()
}

// MoveCharacter moves, or with extend stretches, the selection by one
// grapheme.
func MoveCharacter(st *state.EditorState, dir navigation.Direction, extend bool) *transaction.Transaction {
	sel, ok := navigation.Character(st, dir, extend)
	return moveTo(st, sel, ok)
}

// MoveWord moves the selection to the next word boundary.
func MoveWord(st *state.EditorState, dir navigation.Direction, extend bool) *transaction.Transaction {
	sel, ok := navigation.Word(st, dir, extend)
	return moveTo(st, sel, ok)
}

// MoveVertical moves the caret a line up (Backward) or down (Forward). The
// returned goal is fed to the next vertical move; layout may be nil.
func MoveVertical(st *state.EditorState, dir navigation.Direction, goal navigation.Goal, layout navigation.Layout) (*transaction.Transaction, navigation.Goal) {
	sel, next, ok := navigation.Vertical(st, dir, goal, layout)
	return moveTo(st, sel, ok), next
}

// NavigateArrowIntoVoid handles an arrow key next to a void block. A cursor
// at the edge of its block facing a void block node-selects it; a node
// selection moves on to the next void block or back into text. Any other
// situation returns nil and is left to plain character movement.
func NavigateArrowIntoVoid(st *state.EditorState, dir navigation.Direction) *transaction.Transaction {
	switch sel := st.Selection().(type) {
	case selection.NodeSelection:
		target, ok := navigation.Character(st, dir, false)
		return moveTo(st, target, ok)
	case selection.TextSelection:
		if !sel.IsCollapsed() {
			return nil
		}
		next, ok := navigation.AdjacentBlock(st, sel.Head, dir)
		if !ok || !st.IsVoid(next) {
			return nil
		}
		target, ok := navigation.Character(st, dir, false)
		if _, isNode := target.(selection.NodeSelection); !isNode {
			return nil
		}
		return moveTo(st, target, ok)
	}
	return nil
}

// within reports whether id is root or lies inside it. The empty root is
// the whole document.
func within(st *state.EditorState, root, id model.BlockID) bool {
	if root == "" || root == id {
		return true
	}
	for _, a := range st.Ancestors(id) {
		if a.ID == root {
			return true
		}
	}
	return false
}

// SelectAll selects all text of the isolating block around the selection,
// such as the current table cell, or the whole document outside one.
func SelectAll(st *state.EditorState) *transaction.Transaction {
	var root model.BlockID
	switch sel := st.Selection().(type) {
	case selection.TextSelection:
		root = isolationRoot(st, sel.Head.BlockID)
	case selection.NodeSelection:
		if parent, ok := st.GetParent(sel.NodeID); ok && parent != nil {
			root = isolationRoot(st, parent.ID)
		}
	case selection.GapCursor:
		if parent, ok := st.GetParent(sel.BlockID); ok && parent != nil {
			root = isolationRoot(st, parent.ID)
		}
	}
	var first, last model.BlockID
	for _, id := range st.GetBlockOrder() {
		if !within(st, root, id) {
			continue
		}
		if first == "" {
			first = id
		}
		last = id
	}
	if first == "" {
		return nil
	}
	return moveTo(st, selection.New(selection.Pos(first, 0), selection.Pos(last, st.BlockLength(last))), true)
}

// arrow is the plain arrow key: void-aware first, character movement
// otherwise.
func arrow(st *state.EditorState, dir navigation.Direction) *transaction.Transaction {
	if tr := NavigateArrowIntoVoid(st, dir); tr != nil {
		return tr
	}
	return MoveCharacter(st, dir, false)
}
