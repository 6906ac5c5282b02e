package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// SplitBlock is the enter key. A range is deleted first and the block is
// split at the resulting cursor. Splitting a heading at its end starts a
// paragraph; a paragraph inside a list item splits the list item too.
func SplitBlock(st *state.EditorState) *transaction.Transaction {
	switch sel := st.Selection().(type) {
	case selection.NodeSelection:
		return InsertParagraphAfterNodeSelection(st)
	case selection.GapCursor:
		return insertAtGap(st, sel, "")
	}

	b := st.Transaction(transaction.OriginInput)
	pos, ok := replaceSelection(b, st)
	if !ok {
		return nil
	}
	blk, path, ok := model.FindBlock(b.Doc(), pos.BlockID)
	if !ok || !blk.IsLeaf() || st.Schema().IsVoid(blk.Type) {
		return nil
	}

	newID := st.NewBlockID()
	if blk.Type == schema.Heading && pos.Offset == model.GetBlockLength(blk) {
		b.SplitBlockAs(pos.BlockID, pos.Offset, newID, schema.Paragraph, nil)
	} else {
		b.SplitBlock(pos.BlockID, pos.Offset, newID)
	}
	if len(path) > 1 {
		if parent, ok := model.BlockAt(b.Doc(), path.Parent()); ok && parent.Type == schema.ListItem {
			b.SplitBlock(parent.ID, path.Index()+1, st.NewBlockID())
		}
	}
	b.SetSelection(selection.Cursor(newID, 0))
	b.SetStoredMarks(nil)
	return b.Describe("split block").Build()
}

// selectedLeaves lists the text blocks the selection touches.
func selectedLeaves(st *state.EditorState) []model.BlockID {
	switch sel := st.Selection().(type) {
	case selection.TextSelection:
		r, ok := selection.ToRange(sel, st)
		if !ok {
			return nil
		}
		var ids []model.BlockID
		for _, seg := range selection.Segments(r, st.GetBlockOrder(), st.BlockLength) {
			if isTextBlock(st, seg.BlockID) {
				ids = append(ids, seg.BlockID)
			}
		}
		return ids
	case selection.NodeSelection:
		if isTextBlock(st, sel.NodeID) {
			return []model.BlockID{sel.NodeID}
		}
	}
	return nil
}

// SetBlockType converts the selected text blocks to typ. Marks the new type
// does not allow are removed. It returns nil for void, structural or
// undeclared types and when every block already has the type and attrs.
func SetBlockType(st *state.EditorState, typ model.NodeType, attrs model.Attrs) *transaction.Transaction {
	if st.Schema() != nil {
		spec, ok := st.Schema().NodeSpec(typ)
		if !ok || spec.Void || (spec.Content != "" && spec.Content != schema.ContentInline) {
			return nil
		}
	}
	resolved, err := st.Schema().ResolveNodeAttrs(typ, attrs)
	if err != nil {
		return nil
	}

	b := st.Transaction(transaction.OriginCommand)
	for _, id := range selectedLeaves(st) {
		blk, _ := st.GetBlock(id)
		if blk.Type == typ && model.AttrsEqual(blk.Attrs, resolved) {
			continue
		}
		b.SetBlockType(id, typ, resolved)
		stripMarks(b, st.Schema(), id, typ, 0, model.GetBlockLength(blk))
	}
	if b.StepCount() == 0 {
		return nil
	}
	return b.Describe("set block type " + string(typ)).Build()
}

// SetParagraph converts the selected blocks to paragraphs.
func SetParagraph(st *state.EditorState) *transaction.Transaction {
	return SetBlockType(st, schema.Paragraph, nil)
}

// SetHeading converts the selected blocks to headings of level.
func SetHeading(st *state.EditorState, level int) *transaction.Transaction {
	return SetBlockType(st, schema.Heading, model.Attrs{"level": level})
}

// SetCodeBlock converts the selected blocks to code blocks, dropping their
// marks.
func SetCodeBlock(st *state.EditorState) *transaction.Transaction {
	return SetBlockType(st, schema.CodeBlock, nil)
}
