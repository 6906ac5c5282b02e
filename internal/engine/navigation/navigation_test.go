package navigation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
)

func para(id model.BlockID, content ...model.Node) *model.Block {
	return model.NewBlock(id, schema.Paragraph, nil, content...)
}

func txt(s string) *model.Text { return model.NewText(s) }

var br = model.NewInlineNode(schema.HardBreak, nil)

// doc: p0 "intro", table(row(cell(c1p "A"), cell(c2p "B"))), hr, p1 "outro".
func tableDoc() *model.Document {
	row := model.NewBlock("row", schema.TableRow, nil,
		model.NewBlock("c1", schema.TableCell, nil, para("c1p", txt("A"))),
		model.NewBlock("c2", schema.TableCell, nil, para("c2p", txt("B"))),
	)
	return model.NewDocument(
		para("p0", txt("intro")),
		model.NewBlock("tbl", schema.Table, nil, row),
		model.NewBlock("hr", schema.HorizontalRule, nil),
		para("p1", txt("outro")),
	)
}

func at(doc *model.Document, sel selection.Selection) *state.EditorState {
	return state.Create(state.WithDoc(doc), state.WithSelection(sel))
}

func TestGraphemeOffsets(t *testing.T) {
	// "e" + combining acute is one grapheme of two units; the flag is one
	// grapheme of four units.
	b := para("p", txt("ae\u0301"), br, txt("\U0001F1EB\U0001F1F7x"))
	require.Equal(t, 9, model.GetBlockLength(b))

	require.Equal(t, 1, NextGraphemeOffset(b, 0))
	require.Equal(t, 3, NextGraphemeOffset(b, 1))
	require.Equal(t, 4, NextGraphemeOffset(b, 3), "the atom is one unit")
	require.Equal(t, 8, NextGraphemeOffset(b, 4))
	require.Equal(t, 9, NextGraphemeOffset(b, 9))

	require.Equal(t, 4, PrevGraphemeOffset(b, 8))
	require.Equal(t, 3, PrevGraphemeOffset(b, 4))
	require.Equal(t, 1, PrevGraphemeOffset(b, 3))
	require.Equal(t, 0, PrevGraphemeOffset(b, 0))
}

func TestWordBoundaries(t *testing.T) {
	b := para("p", txt("hello, world  "), br, txt("next"))
	// offsets: hello=0..5 ","=5 " "=6 world=7..12 spaces=12..14 atom=14 next=15..19

	tests := []struct {
		name     string
		offset   int
		forward  int
		backward int
	}{
		{"start", 0, 5, 0},
		{"inside word", 2, 5, 0},
		{"before comma", 5, 6, 0},
		{"after space", 7, 12, 5},
		{"trailing spaces", 12, 14, 7},
		{"before atom", 14, 15, 7},
		{"after atom", 15, 19, 14},
		{"end", 19, 19, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.forward, WordBoundaryForward(b, tt.offset), "forward")
			require.Equal(t, tt.backward, WordBoundaryBackward(b, tt.offset), "backward")
		})
	}
}

func TestCanCrossBlockBoundary(t *testing.T) {
	st := state.Create(state.WithDoc(tableDoc()))
	require.True(t, CanCrossBlockBoundary(st, "hr", "p1"))
	require.False(t, CanCrossBlockBoundary(st, "c1p", "c2p"), "different cells")
	require.False(t, CanCrossBlockBoundary(st, "p0", "c1p"))
	require.False(t, CanCrossBlockBoundary(st, "p0", "missing"))
}

func TestCharacterMovesWithinAndAcrossBlocks(t *testing.T) {
	doc := model.NewDocument(para("a", txt("ab")), para("b", txt("cd")))

	sel, ok := CharacterForward(at(doc, selection.Cursor("a", 1)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("a", 2), sel))

	sel, ok = CharacterForward(at(doc, selection.Cursor("a", 2)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("b", 0), sel))

	sel, ok = CharacterBackward(at(doc, selection.Cursor("b", 0)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("a", 2), sel))

	_, ok = CharacterForward(at(doc, selection.Cursor("b", 2)))
	require.False(t, ok, "end of document")

	sel, ok = Character(at(doc, selection.Cursor("a", 1)), Forward, true)
	require.True(t, ok)
	require.True(t, selection.Equal(selection.New(selection.Pos("a", 1), selection.Pos("a", 2)), sel))

	ranged := at(doc, selection.New(selection.Pos("b", 1), selection.Pos("a", 1)))
	sel, _ = CharacterForward(ranged)
	require.True(t, selection.Equal(selection.Cursor("b", 1), sel), "a range collapses to its end")
	sel, _ = CharacterBackward(ranged)
	require.True(t, selection.Equal(selection.Cursor("a", 1), sel))
}

func TestCharacterAroundVoidAndTables(t *testing.T) {
	doc := tableDoc()

	sel, ok := CharacterForward(at(doc, selection.Cursor("p0", 5)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Node("tbl", nil), sel), "entering a table selects it")

	st := at(doc, selection.Node("tbl", nil))
	sel, ok = CharacterForward(st)
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Node("hr", nil), sel), "chained node selections")

	sel, ok = CharacterBackward(st)
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("p0", 5), sel))

	sel, ok = CharacterForward(at(doc, selection.Node("hr", nil)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("p1", 0), sel))

	sel, ok = CharacterBackward(at(doc, selection.Cursor("p1", 0)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Node("hr", nil), sel))

	_, ok = CharacterForward(at(doc, selection.Cursor("c1p", 1)))
	require.False(t, ok, "cells are isolated from each other")
	_, ok = CharacterForward(at(doc, selection.Cursor("c2p", 1)))
	require.False(t, ok, "the table is isolated from what follows")
}

func TestGapCursorAtDocumentEdges(t *testing.T) {
	doc := model.NewDocument(model.NewBlock("hr", schema.HorizontalRule, nil))

	sel, ok := CharacterForward(at(doc, selection.Node("hr", nil)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Gap("hr", selection.After, nil), sel))

	sel, ok = CharacterBackward(at(doc, selection.Gap("hr", selection.After, nil)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Node("hr", nil), sel))

	_, ok = CharacterForward(at(doc, selection.Gap("hr", selection.After, nil)))
	require.False(t, ok)
}

func TestWordMoves(t *testing.T) {
	doc := model.NewDocument(para("a", txt("one two")), para("b", txt("three")))

	sel, ok := WordForward(at(doc, selection.Cursor("a", 0)))
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("a", 3), sel))

	sel, _ = WordForward(at(doc, selection.Cursor("a", 3)))
	require.True(t, selection.Equal(selection.Cursor("a", 7), sel))

	sel, _ = WordForward(at(doc, selection.Cursor("a", 7)))
	require.True(t, selection.Equal(selection.Cursor("b", 0), sel))

	sel, _ = WordBackward(at(doc, selection.Cursor("b", 3)))
	require.True(t, selection.Equal(selection.Cursor("b", 0), sel))
}

func TestAdjacentBlock(t *testing.T) {
	st := state.Create(state.WithDoc(tableDoc()))
	id, ok := AdjacentBlock(st, selection.Pos("p1", 0), Backward)
	require.True(t, ok)
	require.Equal(t, model.BlockID("hr"), id)

	_, ok = AdjacentBlock(st, selection.Pos("p1", 2), Backward)
	require.False(t, ok, "not at the edge")

	id, ok = AdjacentBlock(st, selection.Pos("p0", 5), Forward)
	require.True(t, ok)
	require.Equal(t, model.BlockID("c1p"), id)
}

func TestVerticalFallback(t *testing.T) {
	doc := model.NewDocument(para("a", txt("abc")), para("b", txt("defg")))

	sel, _, ok := Vertical(at(doc, selection.Cursor("a", 2)), Forward, Goal{}, nil)
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("b", 0), sel))

	sel, _, ok = Vertical(at(doc, selection.Cursor("b", 2)), Backward, Goal{}, nil)
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("a", 3), sel))

	_, _, ok = Vertical(at(doc, selection.Cursor("b", 2)), Forward, Goal{}, nil)
	require.False(t, ok)
}

// monoLayout pretends every block is one line of fixed-width characters.
type monoLayout struct{ st *state.EditorState }

func (l monoLayout) X(pos selection.Position) (float64, bool) { return float64(pos.Offset), true }

func (monoLayout) LineAbove(selection.Position, float64) (selection.Position, bool) {
	return selection.Position{}, false
}

func (monoLayout) LineBelow(selection.Position, float64) (selection.Position, bool) {
	return selection.Position{}, false
}

func (l monoLayout) Entry(pos selection.Position, x float64, _ bool) (selection.Position, bool) {
	off := min(int(x), l.st.BlockLength(pos.BlockID))
	return selection.Pos(pos.BlockID, off), true
}

func TestVerticalKeepsGoalColumn(t *testing.T) {
	doc := model.NewDocument(para("a", txt("abcdef")), para("b", txt("xy")), para("c", txt("uvwxyz")))
	st := at(doc, selection.Cursor("a", 5))

	sel, goal, ok := Vertical(st, Forward, Goal{}, monoLayout{st})
	require.True(t, ok)
	require.Equal(t, Goal{X: 5, Set: true}, goal)
	require.True(t, selection.Equal(selection.Cursor("b", 2), sel), "clamped to the short line")

	st = st.WithSelection(sel)
	sel, goal, ok = Vertical(st, Forward, goal, monoLayout{st})
	require.True(t, ok)
	require.True(t, selection.Equal(selection.Cursor("c", 5), sel), "the goal column is remembered")
	require.True(t, goal.Set)
}
