package commands

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/navigation"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

var bold = model.NewMark(schema.Bold, nil)

func txt(s string, marks ...model.Mark) *model.Text { return model.NewText(s, marks...) }

func para(id model.BlockID, content ...model.Node) *model.Block {
	return model.NewBlock(id, schema.Paragraph, nil, content...)
}

func hr(id model.BlockID) *model.Block {
	return model.NewBlock(id, schema.HorizontalRule, nil)
}

// tableDoc: p0 "intro", table(row(cell(c1p "A"), cell(c2p "B"))), hr, p1 "outro".
func tableDoc() *model.Document {
	row := model.NewBlock("row", schema.TableRow, nil,
		model.NewBlock("c1", schema.TableCell, nil, para("c1p", txt("A"))),
		model.NewBlock("c2", schema.TableCell, nil, para("c2p", txt("B"))),
	)
	return model.NewDocument(
		para("p0", txt("intro")),
		model.NewBlock("tbl", schema.Table, nil, row),
		hr("hr"),
		para("p1", txt("outro")),
	)
}

func at(doc *model.Document, sel selection.Selection, opts ...state.Option) *state.EditorState {
	opts = append([]state.Option{
		state.WithDoc(doc),
		state.WithSelection(sel),
		state.WithIDGenerator(model.NewSequentialGenerator("n")),
	}, opts...)
	return state.Create(opts...)
}

func run(t *testing.T, st *state.EditorState, cmd Command) *state.EditorState {
	t.Helper()
	tr := cmd(st)
	require.NotNil(t, tr, "command did not apply")
	return st.Apply(tr)
}

func textOf(t *testing.T, st *state.EditorState, id model.BlockID) string {
	t.Helper()
	b, ok := st.GetBlock(id)
	require.True(t, ok, "block %s missing", id)
	return model.GetBlockText(b)
}

func requireSelection(t *testing.T, want selection.Selection, st *state.EditorState) {
	t.Helper()
	require.True(t, selection.Equal(want, st.Selection()), "selection %v, want %v", st.Selection(), want)
}

func insert(text string) Command {
	return func(st *state.EditorState) *transaction.Transaction { return InsertText(st, text) }
}

func TestInsertDeleteSymmetry(t *testing.T) {
	start := at(model.NewDocument(para("p", txt("hello"))), selection.Cursor("p", 5))

	st := run(t, start, insert("!"))
	require.Equal(t, "hello!", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 6), st)

	st = run(t, st, DeleteBackward)
	require.Equal(t, "hello", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 5), st)
	require.True(t, model.Equal(start.Doc(), st.Doc()))
}

func TestSplitMergeSymmetry(t *testing.T) {
	start := at(model.NewDocument(para("p", txt("hello world"))), selection.Cursor("p", 5))

	st := run(t, start, SplitBlock)
	require.Equal(t, []model.BlockID{"p", "n1"}, st.GetBlockOrder())
	require.Equal(t, "hello", textOf(t, st, "p"))
	require.Equal(t, " world", textOf(t, st, "n1"))
	requireSelection(t, selection.Cursor("n1", 0), st)

	st = run(t, st, MergeBlockBackward)
	require.Equal(t, []model.BlockID{"p"}, st.GetBlockOrder())
	require.Equal(t, "hello world", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 5), st)
	require.True(t, model.Equal(start.Doc(), st.Doc()))
}

func TestIsolationBlocksMerges(t *testing.T) {
	doc := tableDoc()

	tests := []struct {
		name string
		sel  selection.Selection
		cmd  Command
	}{
		{"backspace at start of second cell", selection.Cursor("c2p", 0), DeleteBackward},
		{"merge backward into previous cell", selection.Cursor("c2p", 0), MergeBlockBackward},
		{"delete at end of first cell", selection.Cursor("c1p", 1), DeleteForward},
		{"merge forward into next cell", selection.Cursor("c1p", 1), MergeBlockForward},
		{"merge into the table", selection.Cursor("p0", 5), MergeBlockForward},
		{"backspace at start of first cell", selection.Cursor("c1p", 0), DeleteBackward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Nil(t, tt.cmd(at(doc, tt.sel)))
		})
	}
}

func TestBackspaceNextToVoidSelectsIt(t *testing.T) {
	st := at(tableDoc(), selection.Cursor("p1", 0))

	tr := DeleteBackward(st)
	require.NotNil(t, tr)
	require.True(t, tr.IsSelectionOnly())
	st = st.Apply(tr)
	requireSelection(t, selection.Node("hr", nil), st)

	st = run(t, st, DeleteBackward)
	_, ok := st.GetBlock("hr")
	require.False(t, ok)
	requireSelection(t, selection.Cursor("c2p", 1), st)
}

func TestDeleteSoleVoidBlock(t *testing.T) {
	for _, cmd := range []Command{DeleteNodeSelection, DeleteBackward, DeleteForward, DeleteSelection} {
		st := run(t, at(model.NewDocument(hr("hr")), selection.Node("hr", nil)), cmd)
		require.Len(t, st.Doc().Children, 1)
		p := st.Doc().Children[0]
		require.Equal(t, schema.Paragraph, p.Type)
		require.Zero(t, model.GetBlockLength(p))
		requireSelection(t, selection.Cursor(p.ID, 0), st)
	}
}

func TestDeleteNodeSelectionPlacesCursor(t *testing.T) {
	st := run(t, at(model.NewDocument(hr("hr"), para("p", txt("x"))), selection.Node("hr", nil)), DeleteNodeSelection)
	requireSelection(t, selection.Cursor("p", 0), st)

	doc := model.NewDocument(para("a", txt("ab")), hr("h1"), hr("h2"))
	st = run(t, at(doc, selection.Node("h2", nil)), DeleteNodeSelection)
	requireSelection(t, selection.Node("h1", nil), st)

	require.Nil(t, DeleteNodeSelection(at(doc, selection.Cursor("a", 0))))
}

func TestNodeSelectionInserts(t *testing.T) {
	doc := model.NewDocument(para("a", txt("ab")), hr("hr"))

	st := run(t, at(doc, selection.Node("hr", nil)), InsertParagraphAfterNodeSelection)
	require.Equal(t, []model.BlockID{"a", "hr", "n1"}, st.GetBlockOrder())
	requireSelection(t, selection.Cursor("n1", 0), st)

	st = run(t, at(doc, selection.Node("hr", nil)), insert("hi"))
	require.Equal(t, "hi", textOf(t, st, "n1"))
	requireSelection(t, selection.Cursor("n1", 2), st)

	st = run(t, at(doc, selection.Gap("hr", selection.After, nil)), insert("x"))
	require.Equal(t, []model.BlockID{"a", "hr", "n1"}, st.GetBlockOrder())
}

func TestToggleMarkOnCursorIsIdempotent(t *testing.T) {
	st := at(model.NewDocument(para("p", txt("hello"))), selection.Cursor("p", 5))

	tr := ToggleBold(st)
	require.NotNil(t, tr)
	require.True(t, tr.IsSelectionOnly())
	next := st.Apply(tr)
	require.True(t, model.MarksEqual([]model.Mark{bold}, next.StoredMarks()))
	require.True(t, IsMarkActive(next, schema.Bold))

	next = run(t, next, ToggleBold)
	require.Nil(t, next.StoredMarks())

	// Inside bold text the first toggle stores an explicit empty set.
	st = at(model.NewDocument(para("p", txt("hi", bold))), selection.Cursor("p", 2))
	next = run(t, st, ToggleBold)
	require.NotNil(t, next.StoredMarks())
	require.Empty(t, next.StoredMarks())
	require.False(t, IsMarkActive(next, schema.Bold))

	next = run(t, next, insert("!"))
	b, _ := next.GetBlock("p")
	require.False(t, model.HasMark(model.GetBlockMarksAtOffset(b, 3), schema.Bold))

	next = run(t, run(t, st, ToggleBold), ToggleBold)
	require.Nil(t, next.StoredMarks())
}

func TestToggleMarkOnRangeIsUniform(t *testing.T) {
	doc := model.NewDocument(para("p", txt("ab"), txt("cd", bold)))
	st := at(doc, selection.New(selection.Pos("p", 0), selection.Pos("p", 4)))

	r, ok := selection.ToRange(st.Selection(), st)
	require.True(t, ok)
	require.False(t, IsMarkActiveInRange(st, r, schema.Bold))

	st = run(t, st, ToggleBold)
	require.True(t, IsMarkActiveInRange(st, r, schema.Bold))
	b, _ := st.GetBlock("p")
	for _, seg := range model.TextRunsInRange(b.Children, 0, 4) {
		require.True(t, model.HasMark(seg.Marks, schema.Bold))
	}

	st = run(t, st, ToggleBold)
	require.False(t, IsMarkActive(st, schema.Bold))
	b, _ = st.GetBlock("p")
	for _, seg := range model.TextRunsInRange(b.Children, 0, 4) {
		require.False(t, model.HasMark(seg.Marks, schema.Bold))
	}
}

func TestMarkActiveIgnoresAtoms(t *testing.T) {
	doc := model.NewDocument(para("p", txt("a", bold), model.NewInlineNode(schema.HardBreak, nil), txt("b", bold)))
	st := at(doc, selection.New(selection.Pos("p", 0), selection.Pos("p", 3)))
	require.True(t, IsMarkActive(st, schema.Bold))

	empty := at(model.NewDocument(para("p", model.NewInlineNode(schema.HardBreak, nil))),
		selection.New(selection.Pos("p", 0), selection.Pos("p", 1)))
	require.False(t, IsMarkActive(empty, schema.Bold), "no text means inactive")
}

func TestMarkPreconditions(t *testing.T) {
	serif := model.NewMark(schema.Font, model.Attrs{"family": "serif"})
	doc := model.NewDocument(
		para("p", txt("text")),
		model.NewBlock("code", schema.CodeBlock, nil, txt("x := 1")),
	)
	rangeSel := selection.New(selection.Pos("p", 0), selection.Pos("p", 4))

	off := at(doc, rangeSel, state.WithFeatures(schema.Features{schema.FeatureFont: false}))
	require.Nil(t, ToggleMark(off, serif), "feature disabled")
	require.NotNil(t, ToggleMark(at(doc, rangeSel), serif))
	require.Nil(t, ToggleMark(at(doc, rangeSel), model.NewMark(schema.Font, model.Attrs{"family": "comic"})))
	require.Nil(t, ToggleMark(at(doc, rangeSel), model.NewMark("sparkle", nil)), "undeclared")

	require.Nil(t, ToggleBold(at(doc, selection.Cursor("code", 2))), "code blocks take no marks")
	require.Nil(t, ToggleBold(at(doc, selection.New(selection.Pos("code", 0), selection.Pos("code", 6)))))
	require.Nil(t, ToggleBold(at(doc, selection.Node("code", nil))))
}

func TestSetAndUnsetMark(t *testing.T) {
	link := model.NewMark(schema.Link, model.Attrs{"href": "https://example.com"})
	st := at(model.NewDocument(para("p", txt("abc"))), selection.New(selection.Pos("p", 1), selection.Pos("p", 3)))

	st = run(t, st, func(st *state.EditorState) *transaction.Transaction { return SetMark(st, link) })
	require.True(t, IsMarkActive(st, schema.Link))
	st = run(t, st, func(st *state.EditorState) *transaction.Transaction { return UnsetMark(st, schema.Link) })
	require.False(t, IsMarkActive(st, schema.Link))

	require.Nil(t, SetMark(st, model.NewMark(schema.Link, nil)), "href is required")
}

func TestInsertTextUsesStoredMarks(t *testing.T) {
	st := at(model.NewDocument(para("p", txt("ab"))), selection.Cursor("p", 2), state.WithStoredMarks([]model.Mark{bold}))
	st = run(t, st, insert("c"))
	require.Nil(t, st.StoredMarks())
	b, _ := st.GetBlock("p")
	require.True(t, model.HasMark(model.GetBlockMarksAtOffset(b, 3), schema.Bold))

	code := model.NewDocument(model.NewBlock("c", schema.CodeBlock, nil, txt("x")))
	st = at(code, selection.Cursor("c", 1), state.WithStoredMarks([]model.Mark{bold}))
	st = run(t, st, insert("y"))
	b, _ = st.GetBlock("c")
	require.Len(t, b.Children, 1, "disallowed marks are dropped")
}

func TestInsertTextReplacesRange(t *testing.T) {
	st := at(model.NewDocument(para("p", txt("hello"))), selection.New(selection.Pos("p", 4), selection.Pos("p", 1)))
	st = run(t, st, insert("X"))
	require.Equal(t, "hXo", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 2), st)

	require.Nil(t, InsertText(st, ""))
}

func TestDeleteSelectionAcrossBlocks(t *testing.T) {
	doc := model.NewDocument(para("a", txt("hello")), para("b", txt("world")))
	st := run(t, at(doc, selection.New(selection.Pos("a", 2), selection.Pos("b", 3))), DeleteSelection)
	require.Equal(t, []model.BlockID{"a"}, st.GetBlockOrder())
	require.Equal(t, "held", textOf(t, st, "a"))
	requireSelection(t, selection.Cursor("a", 2), st)

	doc = model.NewDocument(para("a", txt("ab")), hr("hr"), para("b", txt("cd")))
	st = run(t, at(doc, selection.New(selection.Pos("a", 1), selection.Pos("b", 1))), DeleteSelection)
	require.Equal(t, []model.BlockID{"a"}, st.GetBlockOrder(), "the void block in between is removed")
	require.Equal(t, "ad", textOf(t, st, "a"))

	require.Nil(t, DeleteSelection(at(doc, selection.Cursor("a", 1))))
}

func TestDeleteSelectionAcrossCells(t *testing.T) {
	st := run(t, at(tableDoc(), selection.New(selection.Pos("p0", 2), selection.Pos("p1", 2))), DeleteSelection)
	require.Equal(t, "in", textOf(t, st, "p0"))
	require.Equal(t, "tro", textOf(t, st, "p1"))
	require.Equal(t, "", textOf(t, st, "c1p"), "cells are emptied, not removed")
	require.Equal(t, "", textOf(t, st, "c2p"))
	_, ok := st.GetBlock("hr")
	require.False(t, ok)
	requireSelection(t, selection.Cursor("p0", 2), st)
}

func TestDeleteGraphemesAndAtoms(t *testing.T) {
	st := run(t, at(model.NewDocument(para("p", txt("ae\u0301"))), selection.Cursor("p", 3)), DeleteBackward)
	require.Equal(t, "a", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 1), st)

	doc := model.NewDocument(para("p", txt("ab"), model.NewInlineNode(schema.HardBreak, nil), txt("cd")))
	st = run(t, at(doc, selection.Cursor("p", 2)), DeleteForward)
	require.Equal(t, "abcd", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 2), st)
}

func TestDeleteWord(t *testing.T) {
	st := run(t, at(model.NewDocument(para("p", txt("hello world"))), selection.Cursor("p", 11)), DeleteWordBackward)
	require.Equal(t, "hello ", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 6), st)

	st = run(t, at(model.NewDocument(para("p", txt("hello world"))), selection.Cursor("p", 0)), DeleteWordForward)
	require.Equal(t, " world", textOf(t, st, "p"))

	doc := model.NewDocument(para("p", txt("ab"), model.NewInlineNode(schema.HardBreak, nil), txt("cd")))
	st = run(t, at(doc, selection.Cursor("p", 3)), DeleteWordBackward)
	require.Equal(t, "abcd", textOf(t, st, "p"), "an adjacent atom is one word")

	two := model.NewDocument(para("a", txt("x")), para("b", txt("y")))
	st = run(t, at(two, selection.Cursor("b", 0)), DeleteWordBackward)
	require.Equal(t, "xy", textOf(t, st, "a"))
}

func TestSplitBlockVariants(t *testing.T) {
	heading := model.NewBlock("h", schema.Heading, model.Attrs{"level": 2}, txt("Title"))

	st := run(t, at(model.NewDocument(heading), selection.Cursor("h", 5)), SplitBlock)
	nb, _ := st.GetBlock("n1")
	require.Equal(t, schema.Paragraph, nb.Type, "enter at the end of a heading starts a paragraph")

	st = run(t, at(model.NewDocument(heading), selection.Cursor("h", 2)), SplitBlock)
	nb, _ = st.GetBlock("n1")
	require.Equal(t, schema.Heading, nb.Type)
	require.Equal(t, "tle", textOf(t, st, "n1"))

	list := model.NewBlock("l", schema.List, nil,
		model.NewBlock("li", schema.ListItem, nil, para("p", txt("ab"))))
	st = run(t, at(model.NewDocument(list), selection.Cursor("p", 1)), SplitBlock)
	l, _ := st.GetBlock("l")
	items := l.BlockChildren()
	require.Len(t, items, 2)
	require.Equal(t, model.BlockID("n1"), model.FindFirstLeafBlockID(items[1]))
	require.Equal(t, "b", textOf(t, st, "n1"))
	requireSelection(t, selection.Cursor("n1", 0), st)

	st = run(t, at(model.NewDocument(para("a", txt("hello"))), selection.New(selection.Pos("a", 1), selection.Pos("a", 4))), SplitBlock)
	require.Equal(t, "h", textOf(t, st, "a"))
	require.Equal(t, "o", textOf(t, st, "n1"))

	require.Nil(t, SplitBlock(at(model.NewDocument(hr("hr")), selection.Cursor("hr", 0))))
}

func TestSetBlockType(t *testing.T) {
	doc := model.NewDocument(para("a", txt("x", bold)), para("b", txt("y")))
	st := at(doc, selection.New(selection.Pos("a", 0), selection.Pos("b", 1)))

	st = run(t, st, SetCodeBlock)
	for _, id := range []model.BlockID{"a", "b"} {
		b, _ := st.GetBlock(id)
		require.Equal(t, schema.CodeBlock, b.Type)
		require.Empty(t, model.GetBlockMarksAtOffset(b, 0))
	}
	require.Nil(t, SetCodeBlock(st), "already code blocks")

	st = run(t, st, func(st *state.EditorState) *transaction.Transaction { return SetHeading(st, 3) })
	b, _ := st.GetBlock("a")
	require.Equal(t, schema.Heading, b.Type)
	require.EqualValues(t, 3, b.Attrs["level"])

	require.Nil(t, SetBlockType(st, schema.HorizontalRule, nil))
	require.Nil(t, SetBlockType(st, schema.List, nil))
	require.Nil(t, SetHeading(st, 9), "level out of range")
}

func TestInsertVoidBlock(t *testing.T) {
	doc := model.NewDocument(para("p", txt("abcd")))

	st := run(t, at(doc, selection.Cursor("p", 2)), InsertHorizontalRule)
	require.Equal(t, []model.BlockID{"p", "n1", "n2"}, st.GetBlockOrder())
	require.Equal(t, "cd", textOf(t, st, "n2"))
	requireSelection(t, selection.Node("n1", nil), st)

	st = run(t, at(doc, selection.Cursor("p", 0)), InsertHorizontalRule)
	require.Equal(t, []model.BlockID{"n1", "p"}, st.GetBlockOrder())

	st = run(t, at(doc, selection.Cursor("p", 4)), InsertHorizontalRule)
	require.Equal(t, []model.BlockID{"p", "n1"}, st.GetBlockOrder())

	require.Nil(t, InsertVoidBlock(at(doc, selection.Cursor("p", 0)), schema.Image, nil), "src is required")
	require.Nil(t, InsertVoidBlock(at(doc, selection.Cursor("p", 0)), schema.Paragraph, nil))
}

func TestInsertInlineNode(t *testing.T) {
	doc := model.NewDocument(para("p", txt("ab")))

	st := run(t, at(doc, selection.Cursor("p", 1)), InsertHardBreak)
	require.Equal(t, "a\uFFFCb", textOf(t, st, "p"))
	requireSelection(t, selection.Cursor("p", 2), st)

	require.Nil(t, InsertInlineNode(at(doc, selection.Cursor("p", 1)), schema.Mention, nil))
	require.NotNil(t, InsertInlineNode(at(doc, selection.Cursor("p", 1)), schema.Mention, model.Attrs{"user": "ann"}))
	require.Nil(t, InsertInlineNode(at(doc, selection.Cursor("p", 1)), "sticker", nil))
}

func TestArrowIntoVoid(t *testing.T) {
	doc := model.NewDocument(para("a", txt("x")), hr("hr"), para("b", txt("y")))

	st := run(t, at(doc, selection.Cursor("a", 1)), func(st *state.EditorState) *transaction.Transaction {
		return NavigateArrowIntoVoid(st, navigation.Forward)
	})
	requireSelection(t, selection.Node("hr", nil), st)

	st = run(t, st, func(st *state.EditorState) *transaction.Transaction {
		return NavigateArrowIntoVoid(st, navigation.Forward)
	})
	requireSelection(t, selection.Cursor("b", 0), st)

	require.Nil(t, NavigateArrowIntoVoid(at(doc, selection.Cursor("a", 0)), navigation.Forward))
	require.Nil(t, NavigateArrowIntoVoid(at(doc, selection.Cursor("a", 1)), navigation.Backward))
}

func TestMovementCommands(t *testing.T) {
	doc := model.NewDocument(para("a", txt("one two")), para("b", txt("three")))
	st := at(doc, selection.Cursor("a", 0), state.WithStoredMarks([]model.Mark{bold}))

	tr := MoveWord(st, navigation.Forward, false)
	require.NotNil(t, tr)
	require.True(t, tr.IsSelectionOnly())
	require.True(t, tr.IsAllowedInReadonly())
	st = st.Apply(tr)
	requireSelection(t, selection.Cursor("a", 3), st)
	require.Nil(t, st.StoredMarks(), "moving drops stored marks")

	st = run(t, st, func(st *state.EditorState) *transaction.Transaction {
		return MoveCharacter(st, navigation.Forward, true)
	})
	requireSelection(t, selection.New(selection.Pos("a", 3), selection.Pos("a", 4)), st)

	tr, goal := MoveVertical(st, navigation.Forward, navigation.Goal{}, nil)
	require.NotNil(t, tr)
	require.False(t, goal.Set)
	requireSelection(t, selection.Cursor("b", 0), st.Apply(tr))

	require.Nil(t, MoveCharacter(at(doc, selection.Cursor("b", 5)), navigation.Forward, false), "end of document")
}

func TestSelectAllStaysInCell(t *testing.T) {
	st := run(t, at(tableDoc(), selection.Cursor("c1p", 0)), SelectAll)
	requireSelection(t, selection.New(selection.Pos("c1p", 0), selection.Pos("c1p", 1)), st)
	require.Nil(t, SelectAll(st), "already selected")

	st = run(t, at(tableDoc(), selection.Cursor("p0", 1)), SelectAll)
	requireSelection(t, selection.New(selection.Pos("p0", 0), selection.Pos("p1", 5)), st)
}

func TestSelectNode(t *testing.T) {
	st := at(tableDoc(), selection.Cursor("p0", 0))
	require.NotNil(t, SelectNode(st, "tbl"))
	require.NotNil(t, SelectNode(st, "hr"))
	require.Nil(t, SelectNode(st, "c1"), "cells are not selectable")
	require.Nil(t, SelectNode(st, "p0"))
}

func TestEditsAroundSurrogatePairs(t *testing.T) {
	doc := model.NewDocument(para("p", txt("a😀b")))
	inverts := func(t *testing.T, st *state.EditorState, cmd Command) *state.EditorState {
		t.Helper()
		tr := cmd(st)
		require.NotNil(t, tr)
		next := st.Apply(tr)
		require.True(t, model.Equal(st.Doc(), next.Apply(tr.Inverse()).Doc()), "undo lost content")
		return next
	}

	t.Run("insert", func(t *testing.T) {
		st := at(doc, selection.Cursor("p", 2))
		next := inverts(t, st, insert("x"))
		require.Equal(t, "ax😀b", textOf(t, next, "p"))
		requireSelection(t, selection.Cursor("p", 2), next)
	})

	t.Run("delete range", func(t *testing.T) {
		st := at(doc, selection.New(selection.Pos("p", 2), selection.Pos("p", 4)))
		next := inverts(t, st, DeleteSelection)
		require.Equal(t, "a", textOf(t, next, "p"))
	})

	t.Run("toggle mark", func(t *testing.T) {
		st := at(doc, selection.New(selection.Pos("p", 2), selection.Pos("p", 4)))
		next := inverts(t, st, func(st *state.EditorState) *transaction.Transaction { return ToggleMark(st, bold) })
		b, _ := next.GetBlock("p")
		runs := model.GetTextChildren(b)
		require.Len(t, runs, 2)
		require.Equal(t, "a", runs[0].Text)
		require.False(t, model.HasMark(runs[0].Marks, schema.Bold))
		require.Equal(t, "😀b", runs[1].Text)
		require.True(t, model.HasMark(runs[1].Marks, schema.Bold))
	})

	t.Run("backspace", func(t *testing.T) {
		st := at(doc, selection.Cursor("p", 3))
		next := inverts(t, st, DeleteBackward)
		require.Equal(t, "ab", textOf(t, next, "p"))
		requireSelection(t, selection.Cursor("p", 1), next)
	})
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.True(t, r.Has("deleteBackward"))
	require.Contains(t, r.List(), "toggleBold")

	st := at(model.NewDocument(para("p", txt("hi"))), selection.Cursor("p", 2))
	tr, ok := r.Run("deleteBackward", st)
	require.True(t, ok)
	require.NotNil(t, tr)

	_, ok = r.Run("nope", st)
	require.False(t, ok)

	r.Register("shout", func(st *state.EditorState) *transaction.Transaction { return InsertText(st, "!") })
	tr, _ = r.Run("shout", st)
	require.Equal(t, "hi!", textOf(t, st.Apply(tr), "p"))
	r.Unregister("shout")
	require.False(t, r.Has("shout"))
}

func editorStateGen() *rapid.Generator[*state.EditorState] {
	return rapid.Custom(func(t *rapid.T) *state.EditorState {
		n := rapid.IntRange(1, 4).Draw(t, "blocks")
		var blocks []*model.Block
		var textIDs []model.BlockID
		for i := 0; i < n; i++ {
			id := model.BlockID(fmt.Sprintf("b%d", i))
			if rapid.IntRange(0, 5).Draw(t, "kind") == 0 {
				blocks = append(blocks, hr(id))
				continue
			}
			var content []model.Node
			for runs, r := rapid.IntRange(0, 3).Draw(t, "runs"), 0; r < runs; r++ {
				s := rapid.StringMatching(`[ab é😀🎉]{1,4}`).Draw(t, "text")
				if rapid.Bool().Draw(t, "bold") {
					content = append(content, txt(s, bold))
				} else {
					content = append(content, txt(s))
				}
				if rapid.IntRange(0, 4).Draw(t, "atom") == 0 {
					content = append(content, model.NewInlineNode(schema.HardBreak, nil))
				}
			}
			blocks = append(blocks, para(id, content...))
			textIDs = append(textIDs, id)
		}
		st := at(model.NewDocument(blocks...), nil)
		if len(textIDs) == 0 {
			return st
		}
		pos := func(label string) selection.Position {
			id := rapid.SampledFrom(textIDs).Draw(t, label+"Block")
			return selection.Pos(id, rapid.IntRange(0, st.BlockLength(id)).Draw(t, label+"Offset"))
		}
		anchor := pos("anchor")
		head := anchor
		if rapid.Bool().Draw(t, "range") {
			head = pos("head")
		}
		return st.WithSelection(selection.New(anchor, head))
	})
}

func TestCommandInverseProperty(t *testing.T) {
	r := DefaultRegistry()
	r.Register("insertText", insert("xy"))
	names := r.List()

	rapid.Check(t, func(t *rapid.T) {
		st := editorStateGen().Draw(t, "state")
		name := rapid.SampledFrom(names).Draw(t, "command")
		tr, _ := r.Run(name, st)
		if tr == nil {
			return
		}
		back := st.Apply(tr).Apply(tr.Inverse())
		require.True(t, model.Equal(st.Doc(), back.Doc()), "%s did not invert", name)
	})
}
