package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

func selectedNode(st *state.EditorState) (model.BlockID, model.Path, bool) {
	sel, ok := st.Selection().(selection.NodeSelection)
	if !ok {
		return "", nil, false
	}
	path, ok := st.GetNodePath(sel.NodeID)
	return sel.NodeID, path, ok
}

// DeleteNodeSelection removes the node-selected block. The cursor goes to
// the end of the previous sibling's last leaf, else the start of the next
// sibling's first leaf. A block without siblings is replaced by an empty
// paragraph, so the document never runs out of blocks.
func DeleteNodeSelection(st *state.EditorState) *transaction.Transaction {
	id, _, ok := selectedNode(st)
	if !ok {
		return nil
	}
	return deleteNode(st, id)
}

func deleteNode(st *state.EditorState, id model.BlockID) *transaction.Transaction {
	path, ok := st.GetNodePath(id)
	if !ok {
		return nil
	}
	if st.IsIsolating(id) && !st.IsSelectable(id) {
		return nil
	}
	parent, index := path.Parent(), path.Index()
	b := st.Transaction(transaction.OriginInput)

	if model.ChildCount(st.Doc(), parent) == 1 {
		p := emptyParagraph(st)
		b.RemoveNode(parent, index)
		b.InsertNode(parent, index, p)
		b.SetSelection(selection.Cursor(p.ID, 0))
		return b.Describe("delete node").Build()
	}

	var target model.BlockID
	end := index > 0
	if end {
		prev, _ := model.BlockAt(st.Doc(), parent.Child(index-1))
		target = model.FindLastLeafBlockID(prev)
	} else {
		next, _ := model.BlockAt(st.Doc(), parent.Child(index+1))
		target = model.FindFirstLeafBlockID(next)
	}
	b.RemoveNode(parent, index)
	sel, ok := edgeOf(b.Doc(), st, target, end)
	if !ok {
		return nil
	}
	b.SetSelection(sel)
	b.SetStoredMarks(nil)
	return b.Describe("delete node").Build()
}

// InsertParagraphAfterNodeSelection adds an empty paragraph after the
// node-selected block and puts the cursor in it.
func InsertParagraphAfterNodeSelection(st *state.EditorState) *transaction.Transaction {
	return insertParagraphAfterNode(st, "", "insert paragraph")
}

// InsertTextAfterNodeSelection adds a paragraph holding text after the
// node-selected block, as typing over a selected image does.
func InsertTextAfterNodeSelection(st *state.EditorState, text string) *transaction.Transaction {
	if text == "" {
		return nil
	}
	return insertParagraphAfterNode(st, text, "insert text")
}

func insertParagraphAfterNode(st *state.EditorState, text, desc string) *transaction.Transaction {
	_, path, ok := selectedNode(st)
	if !ok {
		return nil
	}
	var content []model.Node
	if text != "" {
		content = append(content, model.NewText(text))
	}
	p := model.NewBlock(st.NewBlockID(), schema.Paragraph, nil, content...)
	b := st.Transaction(transaction.OriginInput)
	b.InsertNode(path.Parent(), path.Index()+1, p)
	b.SetSelection(selection.Cursor(p.ID, model.UTF16Len(text)))
	b.SetStoredMarks(nil)
	return b.Describe(desc).Build()
}

// SelectNode node-selects block id. Only selectable blocks, void ones
// included, can be node selected.
func SelectNode(st *state.EditorState, id model.BlockID) *transaction.Transaction {
	if !st.IsSelectable(id) {
		return nil
	}
	path, ok := st.GetNodePath(id)
	if !ok {
		return nil
	}
	sel := selection.Node(id, path)
	if selection.Equal(sel, st.Selection()) {
		return nil
	}
	return selectOnly(st, sel)
}

// InsertVoidBlock inserts a void block of type typ next to the selection and
// node-selects it. A cursor at the start of a non-empty block inserts before
// it, a cursor anywhere else inside the text splits the block first, and a
// cursor at the end inserts after. A node selection inserts after the
// selected block.
func InsertVoidBlock(st *state.EditorState, typ model.NodeType, attrs model.Attrs) *transaction.Transaction {
	if !st.Schema().IsVoid(typ) {
		return nil
	}
	resolved, err := st.Schema().ResolveNodeAttrs(typ, attrs)
	if err != nil {
		return nil
	}
	nb := model.NewBlock(st.NewBlockID(), typ, resolved)
	b := st.Transaction(transaction.OriginCommand)

	var parent model.Path
	var index int
	switch sel := st.Selection().(type) {
	case selection.NodeSelection:
		path, ok := st.GetNodePath(sel.NodeID)
		if !ok {
			return nil
		}
		parent, index = path.Parent(), path.Index()+1
	case selection.GapCursor:
		path, ok := st.GetNodePath(sel.BlockID)
		if !ok {
			return nil
		}
		parent, index = path.Parent(), path.Index()
		if sel.Side == selection.After {
			index++
		}
	case selection.TextSelection:
		pos, ok := replaceSelection(b, st)
		if !ok {
			return nil
		}
		blk, path, ok := model.FindBlock(b.Doc(), pos.BlockID)
		if !ok {
			return nil
		}
		length := model.GetBlockLength(blk)
		parent, index = path.Parent(), path.Index()+1
		switch {
		case pos.Offset == 0 && length > 0:
			index = path.Index()
		case pos.Offset > 0 && pos.Offset < length:
			b.SplitBlock(pos.BlockID, pos.Offset, st.NewBlockID())
		}
	default:
		return nil
	}

	b.InsertNode(parent, index, nb)
	b.SetSelection(selection.Node(nb.ID, parent.Child(index)))
	b.SetStoredMarks(nil)
	return b.Describe("insert " + string(typ)).Build()
}

// InsertHorizontalRule inserts a horizontal rule at the selection.
func InsertHorizontalRule(st *state.EditorState) *transaction.Transaction {
	return InsertVoidBlock(st, schema.HorizontalRule, nil)
}
