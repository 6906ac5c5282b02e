package step

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/blockstorm/internal/engine/model"
)

var (
	bold   = model.NewMark("bold", nil)
	italic = model.NewMark("italic", nil)
	red    = model.NewMark("color", model.Attrs{"value": "#f00"})
	blue   = model.NewMark("color", model.Attrs{"value": "#00f"})
	br     = model.NewInlineNode("hard_break", nil)
)

func para(id model.BlockID, content ...model.Node) *model.Block {
	return model.NewBlock(id, "paragraph", nil, content...)
}

func text(doc *model.Document, id model.BlockID) string {
	b, _, ok := model.FindBlock(doc, id)
	if !ok {
		return "<missing>"
	}
	return model.GetBlockText(b)
}

// roundTrip applies s, then its inverse, and checks the document is back.
func roundTrip(t *testing.T, doc *model.Document, s Step) *model.Document {
	t.Helper()
	inv := s.Invert(doc)
	out := s.Apply(doc)
	back := ApplyAll(out, inv)
	require.True(t, model.Equal(doc, back), "%s then %v did not restore the document", s, inv)
	return out
}

func TestInsertText(t *testing.T) {
	doc := model.NewDocument(para("p", model.NewText("ab", bold), br, model.NewText("cd")))

	out := roundTrip(t, doc, InsertText{BlockID: "p", Offset: 2, Text: "X"})
	require.Equal(t, "abX\uFFFCcd", text(out, "p"))

	out = roundTrip(t, doc, InsertText{BlockID: "p", Offset: 3, Text: "😀"})
	require.Equal(t, "ab\uFFFC😀cd", text(out, "p"))
	b, _, _ := model.FindBlock(out, "p")
	c, _ := model.GetContentAtOffset(b, 2)
	require.Equal(t, model.ContentInline, c.Kind, "the atom stays whole")

	require.Same(t, doc, InsertText{BlockID: "missing", Offset: 0, Text: "x"}.Apply(doc))
	require.Same(t, doc, InsertText{BlockID: "p", Offset: 99, Text: "x"}.Apply(doc))
	require.Nil(t, InsertText{BlockID: "p", Offset: 99, Text: "x"}.Invert(doc))
}

func TestDeleteText(t *testing.T) {
	doc := model.NewDocument(para("p", model.NewText("ab", bold), br, model.NewText("cd", italic)))

	out := roundTrip(t, doc, DeleteText{BlockID: "p", From: 1, To: 4})
	require.Equal(t, "ad", text(out, "p"))

	inv := DeleteText{BlockID: "p", From: 1, To: 4}.Invert(doc)
	require.Len(t, inv, 1)
	ic := inv[0].(InsertContent)
	require.True(t, model.ContentEqual([]model.Node{model.NewText("b", bold), br, model.NewText("c", italic)}, ic.Content),
		"the inverse carries the removed text, marks and atom")

	out = roundTrip(t, doc, DeleteText{BlockID: "p", From: 3, To: 99})
	require.Equal(t, "ab\uFFFC", text(out, "p"))

	require.Same(t, doc, DeleteText{BlockID: "p", From: 2, To: 2}.Apply(doc))
}

func TestOffsetsInsideSurrogatePair(t *testing.T) {
	// "a😀b": the emoji spans offsets 1..3, so 2 sits between its halves.
	doc := model.NewDocument(para("p", model.NewText("a😀b", bold)))

	out := roundTrip(t, doc, InsertText{BlockID: "p", Offset: 2, Text: "x"})
	require.Equal(t, "ax😀b", text(out, "p"))

	out = roundTrip(t, doc, DeleteText{BlockID: "p", From: 2, To: 4})
	require.Equal(t, "a", text(out, "p"))
	out = roundTrip(t, doc, DeleteText{BlockID: "p", From: 0, To: 2})
	require.Equal(t, "😀b", text(out, "p"))

	roundTrip(t, doc, InsertContent{BlockID: "p", Offset: 2, Content: []model.Node{br}})
	roundTrip(t, doc, AddMark{BlockID: "p", From: 2, To: 4, Mark: italic})
	roundTrip(t, doc, RemoveMark{BlockID: "p", From: 2, To: 4, Mark: bold})
	roundTrip(t, doc, SplitBlock{BlockID: "p", Offset: 2, NewBlockID: "q"})

	require.Same(t, doc, AddMark{BlockID: "p", From: 1, To: 2, Mark: italic}.Apply(doc), "an empty snapped range is a no-op")
	require.Nil(t, AddMark{BlockID: "p", From: 1, To: 2, Mark: italic}.Invert(doc))
}

func TestInsertContent(t *testing.T) {
	doc := model.NewDocument(para("p", model.NewText("ab")))
	s := InsertContent{BlockID: "p", Offset: 1, Content: []model.Node{br, model.NewText("x", bold)}}
	out := roundTrip(t, doc, s)
	require.Equal(t, "a\uFFFCxb", text(out, "p"))

	bad := InsertContent{BlockID: "p", Offset: 0, Content: []model.Node{para("q")}}
	require.Same(t, doc, bad.Apply(doc))
}

func TestMarks(t *testing.T) {
	doc := model.NewDocument(para("p",
		model.NewText("ab", red),
		model.NewText("cd"),
		br,
		model.NewText("ef", bold, blue),
	))

	out := roundTrip(t, doc, AddMark{BlockID: "p", From: 1, To: 7, Mark: red})
	b, _, _ := model.FindBlock(out, "p")
	for _, run := range model.TextRunsInRange(b.Children, 0, 7) {
		m, ok := model.FindMark(run.Marks, "color")
		require.True(t, ok)
		require.True(t, m.Equal(red))
	}
	require.Len(t, model.GetInlineChildren(b), 1)

	out = roundTrip(t, doc, RemoveMark{BlockID: "p", From: 0, To: 7, Mark: model.NewMark("color", nil)})
	b, _, _ = model.FindBlock(out, "p")
	for _, run := range model.TextRunsInRange(b.Children, 0, 7) {
		require.False(t, model.HasMark(run.Marks, "color"))
	}

	inv := AddMark{BlockID: "p", From: 0, To: 2, Mark: red}.Invert(doc)
	require.Empty(t, inv, "marking already-marked text needs no undo")

	roundTrip(t, doc, AddMark{BlockID: "p", From: 2, To: 3, Mark: italic})
	require.Same(t, doc, AddMark{BlockID: "p", From: 3, To: 3, Mark: bold}.Apply(doc))
}

func TestSplitAndMergeLeaf(t *testing.T) {
	doc := model.NewDocument(para("p", model.NewText("hello world")))

	split := SplitBlock{BlockID: "p", Offset: 5, NewBlockID: "q"}
	out := roundTrip(t, doc, split)
	require.Len(t, out.Children, 2)
	require.Equal(t, "hello", text(out, "p"))
	require.Equal(t, " world", text(out, "q"))
	require.Equal(t, model.NodeType("paragraph"), out.Children[1].Type)

	merged := roundTrip(t, out, MergeBlocks{IntoID: "p", FromID: "q"})
	require.True(t, model.Equal(doc, merged))

	asHeading := SplitBlock{BlockID: "p", Offset: 11, NewBlockID: "h", NewType: "heading", NewAttrs: model.Attrs{"level": 2}}
	out = roundTrip(t, doc, asHeading)
	require.Equal(t, model.NodeType("heading"), out.Children[1].Type)
	require.Equal(t, "", text(out, "h"))

	require.Same(t, doc, SplitBlock{BlockID: "p", Offset: 1, NewBlockID: "p"}.Apply(doc))
	require.Same(t, doc, SplitBlock{BlockID: "p", Offset: 12, NewBlockID: "z"}.Apply(doc))
}

func listDoc() *model.Document {
	item := func(id, pid model.BlockID, s string) *model.Block {
		return model.NewBlock(id, "list_item", nil, para(pid, model.NewText(s)))
	}
	return model.NewDocument(
		para("intro", model.NewText("Intro")),
		model.NewBlock("l", "list", nil, item("i1", "p1", "one"), item("i2", "p2", "two")),
		model.NewBlock("l2", "list", nil, item("i3", "p3", "three")),
	)
}

func TestMergePrunesEmptyAncestors(t *testing.T) {
	doc := listDoc()

	out := roundTrip(t, doc, MergeBlocks{IntoID: "p2", FromID: "p3"})
	require.Equal(t, "twothree", text(out, "p2"))
	_, _, ok := model.FindBlock(out, "l2")
	require.False(t, ok, "the list left empty is removed")
	_, _, ok = model.FindBlock(out, "i3")
	require.False(t, ok)

	out = roundTrip(t, doc, MergeBlocks{IntoID: "intro", FromID: "p1"})
	require.Equal(t, "Introone", text(out, "intro"))
	_, _, ok = model.FindBlock(out, "i1")
	require.False(t, ok)
	l, _, _ := model.FindBlock(out, "l")
	require.Len(t, l.Children, 1, "the list keeps its other item")
}

func TestMergeStructural(t *testing.T) {
	doc := listDoc()
	out := roundTrip(t, doc, MergeBlocks{IntoID: "l", FromID: "l2"})
	l, _, _ := model.FindBlock(out, "l")
	require.Len(t, l.Children, 3)
	require.Len(t, out.Children, 2)

	require.Same(t, doc, MergeBlocks{IntoID: "intro", FromID: "l2"}.Apply(doc), "inline into structural is refused")
	require.Same(t, doc, MergeBlocks{IntoID: "l", FromID: "p1"}.Apply(doc), "ancestor and descendant cannot merge")
	require.Nil(t, MergeBlocks{IntoID: "l", FromID: "missing"}.Invert(doc))
}

func TestSplitStructural(t *testing.T) {
	doc := listDoc()
	out := roundTrip(t, doc, SplitBlock{BlockID: "l", Offset: 1, NewBlockID: "l3"})
	l3, _, ok := model.FindBlock(out, "l3")
	require.True(t, ok)
	require.Len(t, l3.Children, 1)

	roundTrip(t, doc, SplitBlock{BlockID: "l", Offset: 0, NewBlockID: "l4"})
	roundTrip(t, doc, SplitBlock{BlockID: "l", Offset: 2, NewBlockID: "l5"})
}

func TestNodeSteps(t *testing.T) {
	doc := listDoc()
	hr := model.NewBlock("hr", "horizontal_rule", nil)

	out := roundTrip(t, doc, InsertNode{Path: nil, Index: 1, Node: hr})
	require.Equal(t, model.BlockID("hr"), out.Children[1].ID)

	out = roundTrip(t, doc, InsertNode{Path: model.Path{1}, Index: 2, Node: model.NewBlock("i9", "list_item", nil, para("p9"))})
	l, _, _ := model.FindBlock(out, "l")
	require.Len(t, l.Children, 3)

	out = roundTrip(t, doc, RemoveNode{Path: model.Path{1}, Index: 0})
	_, _, ok := model.FindBlock(out, "p1")
	require.False(t, ok)

	out = roundTrip(t, doc, RemoveNode{Path: nil, Index: 0})
	require.Len(t, out.Children, 2)

	require.Same(t, doc, InsertNode{Path: nil, Index: 0, Node: para("intro")}.Apply(doc), "duplicate ids are refused")
	require.Same(t, doc, InsertNode{Path: model.Path{0}, Index: 0, Node: hr}.Apply(doc))
	require.Same(t, doc, RemoveNode{Path: model.Path{7}, Index: 0}.Apply(doc))
}

func TestAttrSteps(t *testing.T) {
	doc := model.NewDocument(model.NewBlock("h", "heading", model.Attrs{"level": 1, "id": "top"}, model.NewText("T")))

	out := roundTrip(t, doc, SetAttrs{BlockID: "h", Attrs: model.Attrs{"level": 2, "align": "center", "id": nil}})
	h := out.Children[0]
	require.Equal(t, 2, h.Attrs["level"])
	require.Equal(t, "center", h.Attrs["align"])
	_, has := h.Attrs["id"]
	require.False(t, has)

	out = roundTrip(t, doc, SetBlockType{BlockID: "h", NodeType: "paragraph"})
	require.Equal(t, model.NodeType("paragraph"), out.Children[0].Type)
	require.Empty(t, out.Children[0].Attrs)
	require.Equal(t, "T", text(out, "h"))
}

func TestSetStoredMarks(t *testing.T) {
	doc := model.NewDocument(para("p"))
	s := SetStoredMarks{Marks: []model.Mark{bold}, Previous: nil}
	require.Same(t, doc, s.Apply(doc))
	require.False(t, ChangesDocument(s))
	inv := s.Invert(doc)
	require.Equal(t, []Step{SetStoredMarks{Marks: nil, Previous: []model.Mark{bold}}}, inv)
}

func TestJSON(t *testing.T) {
	steps := []Step{
		InsertText{BlockID: "p", Offset: 1, Text: "x", Marks: []model.Mark{bold}},
		DeleteText{BlockID: "p", From: 0, To: 2},
		InsertContent{BlockID: "p", Offset: 0, Content: []model.Node{model.NewText("a", italic), br}},
		AddMark{BlockID: "p", From: 0, To: 1, Mark: red},
		RemoveMark{BlockID: "p", From: 0, To: 1, Mark: bold},
		SplitBlock{BlockID: "p", Offset: 1, NewBlockID: "q", NewType: "heading", NewAttrs: model.Attrs{"level": 2}},
		MergeBlocks{IntoID: "p", FromID: "q"},
		InsertNode{Path: model.Path{0}, Index: 1, Node: para("n", model.NewText("new"))},
		RemoveNode{Path: nil, Index: 2},
		SetAttrs{BlockID: "p", Attrs: model.Attrs{"align": "left"}},
		SetBlockType{BlockID: "p", NodeType: "heading", Attrs: model.Attrs{"level": 1}},
		SetStoredMarks{Marks: []model.Mark{bold}},
	}
	data, err := MarshalList(steps)
	require.NoError(t, err)

	back, err := UnmarshalList(data)
	require.NoError(t, err)
	require.Len(t, back, len(steps))

	doc := model.NewDocument(para("p", model.NewText("abc")), para("z", model.NewText("zz")), para("y"))
	for i := range steps {
		require.Equal(t, steps[i].Type(), back[i].Type())
		require.True(t, model.Equal(steps[i].Apply(doc), back[i].Apply(doc)), "step %d: %s", i, steps[i])
	}

	_, err = Unmarshal([]byte(`{"stepType":"teleport","data":{}}`))
	require.ErrorIs(t, err, ErrUnknownStep)
}

func docGen() *rapid.Generator[*model.Document] {
	return rapid.Custom(func(t *rapid.T) *model.Document {
		marks := []model.Mark{bold, italic, red}
		content := func(label string) []model.Node {
			var out []model.Node
			for i := rapid.IntRange(0, 4).Draw(t, label); i > 0; i-- {
				if rapid.IntRange(0, 3).Draw(t, "atom") == 0 {
					out = append(out, br)
					continue
				}
				var ms []model.Mark
				for _, m := range marks {
					if rapid.Bool().Draw(t, "mark") {
						ms = append(ms, m)
					}
				}
				out = append(out, model.NewText(rapid.StringMatching(`[a-c 😀𝄞é]{1,4}`).Draw(t, "text"), ms...))
			}
			return out
		}
		return model.NewDocument(
			para("a", content("a")...),
			model.NewBlock("l", "list", nil,
				model.NewBlock("i1", "list_item", nil, para("b", content("b")...)),
				model.NewBlock("i2", "list_item", nil, para("c", content("c")...))),
			para("d", content("d")...),
		)
	})
}

func stepGen(doc *model.Document) *rapid.Generator[Step] {
	leaves := model.LeafOrder(doc)
	return rapid.Custom(func(t *rapid.T) Step {
		id := rapid.SampledFrom(leaves).Draw(t, "block")
		b, _, _ := model.FindBlock(doc, id)
		n := model.GetBlockLength(b)
		from := rapid.IntRange(0, n).Draw(t, "from")
		to := rapid.IntRange(from, n).Draw(t, "to")
		other := rapid.SampledFrom(leaves).Draw(t, "other")
		switch rapid.IntRange(0, 8).Draw(t, "kind") {
		case 0:
			return InsertText{BlockID: id, Offset: from, Text: "xy", Marks: []model.Mark{italic}}
		case 1:
			return DeleteText{BlockID: id, From: from, To: to}
		case 2:
			return AddMark{BlockID: id, From: from, To: to, Mark: rapid.SampledFrom([]model.Mark{bold, red, blue}).Draw(t, "mark")}
		case 3:
			return RemoveMark{BlockID: id, From: from, To: to, Mark: rapid.SampledFrom([]model.Mark{bold, red}).Draw(t, "mark")}
		case 4:
			return SplitBlock{BlockID: id, Offset: from, NewBlockID: "new"}
		case 5:
			return MergeBlocks{IntoID: id, FromID: other}
		case 6:
			return InsertContent{BlockID: id, Offset: from, Content: []model.Node{br, model.NewText("q", bold)}}
		case 7:
			return SetAttrs{BlockID: id, Attrs: model.Attrs{"align": "right"}}
		default:
			return RemoveNode{Path: nil, Index: rapid.IntRange(0, 2).Draw(t, "index")}
		}
	})
}

func TestInverseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := docGen().Draw(t, "doc")
		s := stepGen(doc).Draw(t, "step")
		inv := s.Invert(doc)
		back := ApplyAll(s.Apply(doc), inv)
		if !model.Equal(doc, back) {
			t.Fatalf("%s with inverse %v did not restore the document", s, inv)
		}
	})
}

func TestAtomicityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := docGen().Draw(t, "doc")
		s := stepGen(doc).Draw(t, "step")
		switch s.(type) {
		case InsertText, AddMark, RemoveMark:
		default:
			return
		}
		before := countAtoms(doc)
		after := countAtoms(s.Apply(doc))
		if before != after {
			t.Fatalf("%s changed the atom count from %d to %d", s, before, after)
		}
	})
}

func countAtoms(doc *model.Document) int {
	n := 0
	model.Walk(doc, func(b *model.Block, _ model.Path, _ *model.Block) bool {
		n += len(model.GetInlineChildren(b))
		return true
	})
	return n
}
