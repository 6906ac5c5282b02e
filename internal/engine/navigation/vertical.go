package navigation

import (
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
)

// Layout supplies visual line information from whatever renders the
// document. Implementations report ok=false when they cannot answer, and
// navigation then falls back to block-level movement.
type Layout interface {
	// X returns the horizontal coordinate of pos.
	X(pos selection.Position) (float64, bool)
	// LineAbove returns the position closest to x on the visual line above
	// pos inside the same block. ok is false on the block's first line.
	LineAbove(pos selection.Position, x float64) (selection.Position, bool)
	// LineBelow is LineAbove for the line below. ok is false on the last line.
	LineBelow(pos selection.Position, x float64) (selection.Position, bool)
	// Entry returns the position closest to x on the first line of a block
	// (last line when fromBelow).
	Entry(pos selection.Position, x float64, fromBelow bool) (selection.Position, bool)
}

// Goal is the remembered horizontal coordinate of consecutive vertical
// moves.
type Goal struct {
	X   float64
	Set bool
}

// Vertical moves the caret one visual line up (Backward) or down (Forward).
// Without layout information it moves to the start of the next block or
// the end of the previous one. The returned goal should be passed to the
// next vertical move and dropped on any other movement.
func Vertical(st *state.EditorState, dir Direction, goal Goal, layout Layout) (selection.Selection, Goal, bool) {
	ts, isText := st.Selection().(selection.TextSelection)
	if !isText {
		sel, ok := Character(st, dir, false)
		return sel, Goal{}, ok
	}
	head := ts.Head
	if layout != nil && !goal.Set {
		if x, ok := layout.X(head); ok {
			goal = Goal{X: x, Set: true}
		}
	}
	if layout != nil && goal.Set {
		var (
			pos selection.Position
			ok  bool
		)
		if dir == Forward {
			pos, ok = layout.LineBelow(head, goal.X)
		} else {
			pos, ok = layout.LineAbove(head, goal.X)
		}
		if ok {
			return selection.Collapsed(pos), goal, true
		}
	}

	next, ok := adjacentLeaf(st, head.BlockID, dir)
	if !ok {
		return nil, goal, false
	}
	target, ok := enter(st, head.BlockID, false, next, dir)
	if !ok {
		return nil, goal, false
	}
	if landed, isText := target.(selection.TextSelection); isText && layout != nil && goal.Set {
		if pos, ok := layout.Entry(landed.Head, goal.X, dir == Backward); ok {
			return selection.Collapsed(pos), goal, true
		}
	}
	return target, goal, true
}
