package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/navigation"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// DeleteSelection removes the selected content: the text of a range, or the
// node of a node selection.
func DeleteSelection(st *state.EditorState) *transaction.Transaction {
	if _, ok := st.Selection().(selection.NodeSelection); ok {
		return DeleteNodeSelection(st)
	}
	r, ok := textRange(st)
	if !ok {
		return nil
	}
	b := st.Transaction(transaction.OriginInput)
	sel := deleteRange(b, st, r)
	if sel == nil {
		return nil
	}
	b.SetSelection(sel)
	b.SetStoredMarks(nil)
	return b.Describe("delete selection").Build()
}

// DeleteBackward is the backspace key.
func DeleteBackward(st *state.EditorState) *transaction.Transaction {
	return deleteAt(st, navigation.Backward, navigation.PrevGraphemeOffset)
}

// DeleteForward is the delete key.
func DeleteForward(st *state.EditorState) *transaction.Transaction {
	return deleteAt(st, navigation.Forward, navigation.NextGraphemeOffset)
}

// DeleteWordBackward deletes back to the previous word boundary. An atom
// right before the cursor counts as a word.
func DeleteWordBackward(st *state.EditorState) *transaction.Transaction {
	return deleteAt(st, navigation.Backward, navigation.WordBoundaryBackward)
}

// DeleteWordForward deletes up to the next word boundary.
func DeleteWordForward(st *state.EditorState) *transaction.Transaction {
	return deleteAt(st, navigation.Forward, navigation.WordBoundaryForward)
}

// deleteAt removes the content between the cursor and the offset next
// returns. At a block edge it merges with the adjacent block instead.
func deleteAt(st *state.EditorState, dir navigation.Direction, next func(*model.Block, int) int) *transaction.Transaction {
	switch sel := st.Selection().(type) {
	case selection.NodeSelection:
		return DeleteNodeSelection(st)
	case selection.GapCursor:
		// Deleting towards the block next to the gap selects it first.
		if (sel.Side == selection.After) == (dir == navigation.Backward) {
			return selectOnly(st, selection.Node(sel.BlockID, sel.Path))
		}
		return nil
	case selection.TextSelection:
		if !sel.IsCollapsed() {
			return DeleteSelection(st)
		}
	default:
		return nil
	}

	pos, _ := cursor(st)
	blk, ok := st.GetBlock(pos.BlockID)
	if !ok {
		return nil
	}
	if st.IsVoid(pos.BlockID) {
		return deleteNode(st, pos.BlockID)
	}
	length := model.GetBlockLength(blk)
	if dir == navigation.Backward && pos.Offset > 0 {
		from := next(blk, pos.Offset)
		return deleteText(st, pos.BlockID, from, pos.Offset, from)
	}
	if dir == navigation.Forward && pos.Offset < length {
		return deleteText(st, pos.BlockID, pos.Offset, next(blk, pos.Offset), pos.Offset)
	}
	if dir == navigation.Backward {
		return MergeBlockBackward(st)
	}
	return MergeBlockForward(st)
}

func deleteText(st *state.EditorState, id model.BlockID, from, to, caret int) *transaction.Transaction {
	if from >= to {
		return nil
	}
	b := st.Transaction(transaction.OriginInput)
	b.DeleteTextAt(id, from, to)
	b.SetSelection(selection.Cursor(id, caret))
	b.SetStoredMarks(nil)
	return b.Describe("delete").Build()
}

// selectOnly builds a transaction that only moves the selection.
func selectOnly(st *state.EditorState, sel selection.Selection) *transaction.Transaction {
	b := st.Transaction(transaction.OriginCommand)
	b.SetSelection(sel)
	return b.Describe("select").Build()
}

// MergeBlockBackward joins the cursor's block onto the end of the previous
// leaf block. The cursor must be at offset 0. It returns nil when the
// previous block sits across an isolation boundary; a void previous block
// is node selected instead of merged.
func MergeBlockBackward(st *state.EditorState) *transaction.Transaction {
	pos, ok := cursor(st)
	if !ok {
		return nil
	}
	prev, ok := navigation.AdjacentBlock(st, pos, navigation.Backward)
	if !ok || !navigation.CanCrossBlockBoundary(st, pos.BlockID, prev) {
		return nil
	}
	if st.IsVoid(prev) {
		path, _ := st.GetNodePath(prev)
		return selectOnly(st, selection.Node(prev, path))
	}
	if st.IsVoid(pos.BlockID) {
		return nil
	}
	return merge(st, prev, pos.BlockID)
}

// MergeBlockForward pulls the next leaf block onto the end of the cursor's
// block. The cursor must be at the end of its block.
func MergeBlockForward(st *state.EditorState) *transaction.Transaction {
	pos, ok := cursor(st)
	if !ok {
		return nil
	}
	next, ok := navigation.AdjacentBlock(st, pos, navigation.Forward)
	if !ok || !navigation.CanCrossBlockBoundary(st, pos.BlockID, next) {
		return nil
	}
	if st.IsVoid(next) {
		path, _ := st.GetNodePath(next)
		return selectOnly(st, selection.Node(next, path))
	}
	if st.IsVoid(pos.BlockID) {
		return nil
	}
	return merge(st, pos.BlockID, next)
}

// merge appends the content of from to into and puts the cursor at the
// seam. Marks into's type does not allow are dropped from the moved text.
func merge(st *state.EditorState, into, from model.BlockID) *transaction.Transaction {
	intoBlk, ok := st.GetBlock(into)
	if !ok {
		return nil
	}
	seam := model.GetBlockLength(intoBlk)
	b := st.Transaction(transaction.OriginInput)
	b.MergeBlocksAt(into, from)
	if b.StepCount() == 0 {
		return nil
	}
	stripMarks(b, st.Schema(), into, intoBlk.Type, seam, seam+st.BlockLength(from))
	b.SetSelection(selection.Cursor(into, seam))
	b.SetStoredMarks(nil)
	return b.Describe("merge blocks").Build()
}
