package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// cursor returns the position of a collapsed text selection.
func cursor(st *state.EditorState) (selection.Position, bool) {
	ts, ok := st.Selection().(selection.TextSelection)
	if !ok || !ts.IsCollapsed() {
		return selection.Position{}, false
	}
	return ts.Head, true
}

// textRange returns the ordered range of a non-collapsed text selection.
func textRange(st *state.EditorState) (selection.Range, bool) {
	ts, ok := st.Selection().(selection.TextSelection)
	if !ok || ts.IsCollapsed() {
		return selection.Range{}, false
	}
	return selection.ToRange(ts, st)
}

func isolationRoot(st *state.EditorState, id model.BlockID) model.BlockID {
	root, _ := st.NearestIsolating(id)
	return root
}

// isTextBlock reports whether id is a leaf that can hold a text cursor.
func isTextBlock(st *state.EditorState, id model.BlockID) bool {
	b, ok := st.GetBlock(id)
	return ok && b.IsLeaf() && !st.Schema().IsVoid(b.Type)
}

// allowedMarks drops marks the block type does not accept.
func allowedMarks(s *schema.Schema, typ model.NodeType, marks []model.Mark) []model.Mark {
	var out []model.Mark
	for _, m := range marks {
		if s.AllowsMark(typ, m.Type) {
			out = append(out, m)
		}
	}
	return out
}

// stripMarks removes, from [from, to) of a block in the working document,
// every mark the type typ does not accept.
func stripMarks(b *transaction.Builder, s *schema.Schema, id model.BlockID, typ model.NodeType, from, to int) {
	blk, _, ok := model.FindBlock(b.Doc(), id)
	if !ok {
		return
	}
	seen := map[model.MarkType]bool{}
	for _, run := range model.TextRunsInRange(blk.Children, from, to) {
		for _, m := range run.Marks {
			if !seen[m.Type] && !s.AllowsMark(typ, m.Type) {
				seen[m.Type] = true
				b.RemoveMark(id, from, to, model.Mark{Type: m.Type})
			}
		}
	}
}

func emptyParagraph(st *state.EditorState) *model.Block {
	return model.NewBlock(st.NewBlockID(), schema.Paragraph, nil)
}

// removeBlock removes a block from the working document together with any
// containers left empty by the removal. An isolating container that would be
// left empty keeps an empty paragraph instead, and so does the document.
func removeBlock(b *transaction.Builder, st *state.EditorState, id model.BlockID) {
	path, ok := model.FindNodePath(b.Doc(), id)
	if !ok {
		return
	}
	b.RemoveNode(path.Parent(), path.Index())
	parent := path.Parent()
	for len(parent) > 0 {
		pb, ok := model.BlockAt(b.Doc(), parent)
		if !ok || len(pb.Children) > 0 {
			return
		}
		if st.Schema().IsIsolating(pb.Type) {
			b.InsertNode(parent, 0, emptyParagraph(st))
			return
		}
		b.RemoveNode(parent.Parent(), parent.Index())
		parent = parent.Parent()
	}
	if len(b.Doc().Children) == 0 {
		b.InsertNode(nil, 0, emptyParagraph(st))
	}
}

// landing picks the selection after the leaves between leaf indexes lo and hi
// were removed: the end of the nearest surviving leaf before them, else the
// start of the nearest one after, else the first leaf left.
func landing(b *transaction.Builder, st *state.EditorState, lo, hi int) selection.Selection {
	doc := b.Doc()
	leaves := st.GetBlockOrder()
	for i := lo - 1; i >= 0; i-- {
		if sel, ok := edgeOf(doc, st, leaves[i], true); ok {
			return sel
		}
	}
	for i := hi + 1; i < len(leaves); i++ {
		if sel, ok := edgeOf(doc, st, leaves[i], false); ok {
			return sel
		}
	}
	if order := model.LeafOrder(doc); len(order) > 0 {
		sel, _ := edgeOf(doc, st, order[0], false)
		return sel
	}
	return nil
}

// edgeOf selects the start or end of a leaf in doc; a void leaf is node
// selected.
func edgeOf(doc *model.Document, st *state.EditorState, id model.BlockID, end bool) (selection.Selection, bool) {
	blk, path, ok := model.FindBlock(doc, id)
	if !ok || !blk.IsLeaf() {
		return nil, false
	}
	if st.Schema().IsVoid(blk.Type) {
		return selection.Node(id, path), true
	}
	if end {
		return selection.Cursor(id, model.GetBlockLength(blk)), true
	}
	return selection.Cursor(id, 0), true
}

// deleteRange deletes a text range, which may span blocks, and returns the
// selection that should follow. The blocks at either end are merged when they
// share an isolating context; blocks in between are removed, except those in
// another isolating block, which are only emptied. Void blocks touched by the
// range are removed.
func deleteRange(b *transaction.Builder, st *state.EditorState, r selection.Range) selection.Selection {
	if r.SingleBlock() {
		if !isTextBlock(st, r.From.BlockID) {
			removeBlock(b, st, r.From.BlockID)
			return landing(b, st, st.BlockIndex(r.From.BlockID), st.BlockIndex(r.From.BlockID))
		}
		b.DeleteTextAt(r.From.BlockID, r.From.Offset, r.To.Offset)
		return selection.Collapsed(selection.Pos(r.From.BlockID, r.From.Offset))
	}
	segs := selection.Segments(r, st.GetBlockOrder(), st.BlockLength)
	if len(segs) < 2 {
		return nil
	}
	first, last := segs[0], segs[len(segs)-1]
	root := isolationRoot(st, first.BlockID)

	// Blocks kept in between keep the ends apart.
	apart := false
	for _, seg := range segs[1 : len(segs)-1] {
		if isolationRoot(st, seg.BlockID) != root {
			apart = true
			if isTextBlock(st, seg.BlockID) {
				b.DeleteTextAt(seg.BlockID, seg.From, seg.To)
			}
			continue
		}
		removeBlock(b, st, seg.BlockID)
	}

	keepFirst := isTextBlock(st, first.BlockID)
	if keepFirst {
		b.DeleteTextAt(first.BlockID, first.From, first.To)
	} else {
		removeBlock(b, st, first.BlockID)
	}
	keepLast := isTextBlock(st, last.BlockID)
	if keepLast {
		b.DeleteTextAt(last.BlockID, last.From, last.To)
	} else {
		removeBlock(b, st, last.BlockID)
	}

	switch {
	case keepFirst && keepLast && !apart && isolationRoot(st, last.BlockID) == root:
		into, _ := st.GetBlock(first.BlockID)
		tailLen := model.GetBlockLength(mustBlock(b.Doc(), last.BlockID))
		b.MergeBlocksAt(first.BlockID, last.BlockID)
		stripMarks(b, st.Schema(), first.BlockID, into.Type, first.From, first.From+tailLen)
		return selection.Cursor(first.BlockID, first.From)
	case keepFirst:
		return selection.Cursor(first.BlockID, first.From)
	case keepLast:
		return selection.Cursor(last.BlockID, 0)
	}
	return landing(b, st, st.BlockIndex(first.BlockID), st.BlockIndex(last.BlockID))
}

func mustBlock(doc *model.Document, id model.BlockID) *model.Block {
	blk, _, _ := model.FindBlock(doc, id)
	return blk
}

// replaceSelection deletes a non-collapsed text selection and returns the
// cursor position left behind. A collapsed selection is returned as is.
func replaceSelection(b *transaction.Builder, st *state.EditorState) (selection.Position, bool) {
	if pos, ok := cursor(st); ok {
		return pos, true
	}
	r, ok := textRange(st)
	if !ok {
		return selection.Position{}, false
	}
	ts, ok := deleteRange(b, st, r).(selection.TextSelection)
	if !ok {
		return selection.Position{}, false
	}
	return ts.Head, true
}
