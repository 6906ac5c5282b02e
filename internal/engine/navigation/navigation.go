package navigation

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
)

// Direction of a caret move.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// isolationRoot returns the nearest isolating block around id. With
// includeSelf false only strict ancestors count, which is what a node
// selection of an isolating block sits in.
func isolationRoot(st *state.EditorState, id model.BlockID, includeSelf bool) model.BlockID {
	if includeSelf && st.IsIsolating(id) {
		return id
	}
	for _, a := range st.Ancestors(id) {
		if st.Schema().IsIsolating(a.Type) {
			return a.ID
		}
	}
	return ""
}

// CanCrossBlockBoundary reports whether the caret may move between two
// leaf blocks: both must sit inside the same isolating block, or neither
// inside any.
func CanCrossBlockBoundary(st *state.EditorState, from, to model.BlockID) bool {
	if _, ok := st.GetBlock(from); !ok {
		return false
	}
	if _, ok := st.GetBlock(to); !ok {
		return false
	}
	return isolationRoot(st, from, true) == isolationRoot(st, to, true)
}

// contains reports whether ancestor is id or one of its ancestors.
func contains(st *state.EditorState, ancestor, id model.BlockID) bool {
	if ancestor == id {
		return true
	}
	for _, a := range st.Ancestors(id) {
		if a.ID == ancestor {
			return true
		}
	}
	return false
}

// enter computes where the caret lands when it leaves the context of from
// (a leaf, or a node-selected block when fromNode) for the adjacent leaf to.
// Crossing into a void leaf selects it; crossing into an isolating block
// that does not contain from selects that block when it is selectable.
func enter(st *state.EditorState, from model.BlockID, fromNode bool, to model.BlockID, dir Direction) (selection.Selection, bool) {
	fromRoot := isolationRoot(st, from, !fromNode)
	if fromRoot == isolationRoot(st, to, true) {
		if st.IsVoid(to) {
			path, _ := st.GetNodePath(to)
			return selection.Node(to, path), true
		}
		if dir == Forward {
			return selection.Cursor(to, 0), true
		}
		return selection.Cursor(to, st.BlockLength(to)), true
	}
	// Find the outermost isolating block around to that is not shared with
	// from; it is the barrier between them.
	chain := []model.BlockID{to}
	for _, a := range st.Ancestors(to) {
		chain = append(chain, a.ID)
	}
	var barrier model.BlockID
	for _, id := range chain {
		if !st.IsIsolating(id) {
			continue
		}
		if contains(st, id, from) {
			break
		}
		barrier = id
	}
	if barrier == "" || !st.IsSelectable(barrier) {
		return nil, false
	}
	path, _ := st.GetNodePath(barrier)
	return selection.Node(barrier, path), true
}

// adjacentLeaf returns the leaf before or after the leaves covered by id.
func adjacentLeaf(st *state.EditorState, id model.BlockID, dir Direction) (model.BlockID, bool) {
	b, ok := st.GetBlock(id)
	if !ok {
		return "", false
	}
	var i int
	if dir == Forward {
		i = st.BlockIndex(model.FindLastLeafBlockID(b)) + 1
	} else {
		i = st.BlockIndex(model.FindFirstLeafBlockID(b)) - 1
	}
	leaf, ok := st.LeafAt(i)
	if !ok {
		return "", false
	}
	return leaf.ID, true
}

// stepFunc moves an offset inside a block; it returns the input unchanged at
// the block edge.
type stepFunc func(b *model.Block, offset int) int

func move(st *state.EditorState, dir Direction, extend bool, fwd, back stepFunc) (selection.Selection, bool) {
	switch sel := st.Selection().(type) {
	case selection.TextSelection:
		if !sel.IsCollapsed() && !extend {
			r, ok := selection.ToRange(sel, st)
			if !ok {
				return nil, false
			}
			if dir == Forward {
				return selection.Collapsed(r.To), true
			}
			return selection.Collapsed(r.From), true
		}
		target, ok := movePosition(st, sel.Head, dir, fwd, back)
		if !ok {
			return nil, false
		}
		if extend {
			if ts, isText := target.(selection.TextSelection); isText {
				return sel.Extend(ts.Head), true
			}
		}
		return target, true
	case selection.NodeSelection:
		next, ok := adjacentLeaf(st, sel.NodeID, dir)
		if !ok {
			if dir == Forward {
				return selection.Gap(sel.NodeID, selection.After, sel.Path), true
			}
			return selection.Gap(sel.NodeID, selection.Before, sel.Path), true
		}
		return enter(st, sel.NodeID, true, next, dir)
	case selection.GapCursor:
		if (sel.Side == selection.Before) == (dir == Forward) {
			return selection.Node(sel.BlockID, sel.Path), true
		}
		next, ok := adjacentLeaf(st, sel.BlockID, dir)
		if !ok {
			return nil, false
		}
		return enter(st, sel.BlockID, true, next, dir)
	}
	return nil, false
}

func movePosition(st *state.EditorState, pos selection.Position, dir Direction, fwd, back stepFunc) (selection.Selection, bool) {
	b, ok := st.GetBlock(pos.BlockID)
	if !ok {
		return nil, false
	}
	length := model.GetBlockLength(b)
	if dir == Forward && pos.Offset < length {
		return selection.Cursor(pos.BlockID, fwd(b, pos.Offset)), true
	}
	if dir == Backward && pos.Offset > 0 {
		return selection.Cursor(pos.BlockID, back(b, pos.Offset)), true
	}
	next, ok := adjacentLeaf(st, pos.BlockID, dir)
	if !ok {
		return nil, false
	}
	return enter(st, pos.BlockID, false, next, dir)
}

// Character moves the caret one grapheme, or one atom, in dir. With extend
// the head of a text selection moves and the anchor stays. ok is false
// when the caret cannot move.
func Character(st *state.EditorState, dir Direction, extend bool) (selection.Selection, bool) {
	return move(st, dir, extend, NextGraphemeOffset, PrevGraphemeOffset)
}

// Word moves the caret to the next word boundary in dir.
func Word(st *state.EditorState, dir Direction, extend bool) (selection.Selection, bool) {
	return move(st, dir, extend, WordBoundaryForward, WordBoundaryBackward)
}

// CharacterForward is Character(st, Forward, false).
func CharacterForward(st *state.EditorState) (selection.Selection, bool) {
	return Character(st, Forward, false)
}

// CharacterBackward is Character(st, Backward, false).
func CharacterBackward(st *state.EditorState) (selection.Selection, bool) {
	return Character(st, Backward, false)
}

// WordForward is Word(st, Forward, false).
func WordForward(st *state.EditorState) (selection.Selection, bool) {
	return Word(st, Forward, false)
}

// WordBackward is Word(st, Backward, false).
func WordBackward(st *state.EditorState) (selection.Selection, bool) {
	return Word(st, Backward, false)
}

// AdjacentBlock reports the leaf block next to pos in dir when pos sits at
// the matching edge of its block. It is how deletion decides whether a
// boundary key merges, selects a void or does nothing.
func AdjacentBlock(st *state.EditorState, pos selection.Position, dir Direction) (model.BlockID, bool) {
	b, ok := st.GetBlock(pos.BlockID)
	if !ok {
		return "", false
	}
	if dir == Forward && pos.Offset < model.GetBlockLength(b) {
		return "", false
	}
	if dir == Backward && pos.Offset > 0 {
		return "", false
	}
	return adjacentLeaf(st, pos.BlockID, dir)
}
