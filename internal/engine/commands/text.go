package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// InsertText types text at the selection. A range is replaced; a node
// selection or gap cursor gets a new paragraph holding the text. The text
// takes the stored marks when set, otherwise the marks at the cursor, minus
// those the block does not allow.
func InsertText(st *state.EditorState, text string) *transaction.Transaction {
	if text == "" {
		return nil
	}
	switch sel := st.Selection().(type) {
	case selection.NodeSelection:
		return InsertTextAfterNodeSelection(st, text)
	case selection.GapCursor:
		return insertAtGap(st, sel, text)
	}

	start, ok := selectionStart(st)
	if !ok {
		return nil
	}
	marks := st.MarksAtCursor(start)

	b := st.Transaction(transaction.OriginInput)
	pos, ok := replaceSelection(b, st)
	if !ok {
		return nil
	}
	blk, _, ok := model.FindBlock(b.Doc(), pos.BlockID)
	if !ok || !blk.IsLeaf() || st.Schema().IsVoid(blk.Type) {
		return nil
	}
	b.InsertText(pos.BlockID, pos.Offset, text, allowedMarks(st.Schema(), blk.Type, marks))
	b.SetSelection(selection.Cursor(pos.BlockID, pos.Offset+model.UTF16Len(text)))
	b.SetStoredMarks(nil)
	return b.Describe("insert text").Build()
}

// selectionStart returns the first position of a text selection in document
// order.
func selectionStart(st *state.EditorState) (selection.Position, bool) {
	if pos, ok := cursor(st); ok {
		return pos, true
	}
	r, ok := textRange(st)
	return r.From, ok
}

// insertAtGap places a new paragraph holding text on the gap's side of its
// block.
func insertAtGap(st *state.EditorState, gap selection.GapCursor, text string) *transaction.Transaction {
	path, ok := st.GetNodePath(gap.BlockID)
	if !ok {
		return nil
	}
	index := path.Index()
	if gap.Side == selection.After {
		index++
	}
	id := st.NewBlockID()
	p := model.NewBlock(id, schema.Paragraph, nil, model.NewText(text))
	b := st.Transaction(transaction.OriginInput)
	b.InsertNode(path.Parent(), index, p)
	b.SetSelection(selection.Cursor(id, model.UTF16Len(text)))
	b.SetStoredMarks(nil)
	return b.Describe("insert text").Build()
}

// InsertInlineNode inserts an atom of type typ at the selection, replacing a
// range. It returns nil for an undeclared type or invalid attrs.
func InsertInlineNode(st *state.EditorState, typ model.InlineType, attrs model.Attrs) *transaction.Transaction {
	if st.Schema() != nil {
		if _, ok := st.Schema().InlineSpec(typ); !ok {
			return nil
		}
	}
	resolved, err := st.Schema().ResolveInlineAttrs(typ, attrs)
	if err != nil {
		return nil
	}
	if _, ok := selectionStart(st); !ok {
		return nil
	}

	b := st.Transaction(transaction.OriginInput)
	pos, ok := replaceSelection(b, st)
	if !ok {
		return nil
	}
	blk, _, ok := model.FindBlock(b.Doc(), pos.BlockID)
	if !ok || !blk.IsLeaf() || st.Schema().IsVoid(blk.Type) {
		return nil
	}
	b.InsertContent(pos.BlockID, pos.Offset, []model.Node{model.NewInlineNode(typ, resolved)})
	b.SetSelection(selection.Cursor(pos.BlockID, pos.Offset+1))
	return b.Describe("insert " + string(typ)).Build()
}

// InsertHardBreak inserts a line break atom.
func InsertHardBreak(st *state.EditorState) *transaction.Transaction {
	return InsertInlineNode(st, schema.HardBreak, nil)
}
