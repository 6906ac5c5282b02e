package preview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
)

func para(id model.BlockID, text string) *model.Block {
	if text == "" {
		return model.NewBlock(id, schema.Paragraph, nil)
	}
	return model.NewBlock(id, schema.Paragraph, nil, model.NewText(text))
}

// render uses a renderer writing to a buffer, which has no color profile,
// so the output is plain text.
func render(sel selection.Selection, blocks []*model.Block, opts ...Option) string {
	st := state.Create(state.WithDoc(model.NewDocument(blocks...)), state.WithSelection(sel))
	return New(&bytes.Buffer{}, opts...).Render(st)
}

func TestRenderBlocks(t *testing.T) {
	blocks := []*model.Block{
		model.NewBlock("h", schema.Heading, model.Attrs{"level": 2}, model.NewText("Title")),
		para("p", "hello"),
		model.NewBlock("hr", schema.HorizontalRule, nil),
		model.NewBlock("img", schema.Image, model.Attrs{"src": "cat.png"}),
		model.NewBlock("q", schema.Blockquote, nil, para("qp", "quoted")),
		model.NewBlock("l", schema.List, model.Attrs{"ordered": true},
			model.NewBlock("li1", schema.ListItem, nil, para("l1", "one")),
			model.NewBlock("li2", schema.ListItem, nil, para("l2", "two")),
		),
		model.NewBlock("c", schema.CodeBlock, nil, model.NewText("a := 1\nb := 2")),
		model.NewBlock("t", schema.Table, nil,
			model.NewBlock("r1", schema.TableRow, nil,
				model.NewBlock("c1", schema.TableCell, nil, para("c1p", "x")),
				model.NewBlock("c2", schema.TableCell, nil, para("c2p", "y")),
			),
		),
	}
	want := strings.Join([]string{
		"## Title",
		"hello",
		strings.Repeat("─", defaultRuleWidth),
		"[image cat.png]",
		"│ quoted",
		"1. one",
		"2. two",
		"a := 1",
		"b := 2",
		"| x | y |",
	}, "\n")
	require.Equal(t, want, render(selection.Cursor("p", 0), blocks, WithSelection(false)))
}

func TestRenderBulletList(t *testing.T) {
	blocks := []*model.Block{
		model.NewBlock("l", schema.List, nil,
			model.NewBlock("li", schema.ListItem, nil, para("a", "first"), para("b", "second")),
		),
	}
	require.Equal(t, "• first\n  second", render(selection.Cursor("a", 0), blocks, WithSelection(false)))
}

func TestRenderSelection(t *testing.T) {
	twoParas := []*model.Block{para("a", "hello"), para("b", "world")}

	tests := []struct {
		name   string
		sel    selection.Selection
		blocks []*model.Block
		want   string
	}{
		{
			name:   "cursor",
			sel:    selection.Cursor("a", 2),
			blocks: twoParas,
			want:   "he│llo\nworld",
		},
		{
			name:   "cursor at end",
			sel:    selection.Cursor("b", 5),
			blocks: twoParas,
			want:   "hello\nworld│",
		},
		{
			name:   "empty block",
			sel:    selection.Cursor("e", 0),
			blocks: []*model.Block{para("e", "")},
			want:   "│",
		},
		{
			name:   "range across blocks",
			sel:    selection.TextSelection{Anchor: selection.Pos("b", 2), Head: selection.Pos("a", 3)},
			blocks: twoParas,
			want:   "hel«lo\nwo»rld",
		},
		{
			name:   "node selection",
			sel:    selection.Node("img", nil),
			blocks: []*model.Block{para("a", "x"), model.NewBlock("img", schema.Image, nil)},
			want:   "  x\n> [image]",
		},
		{
			name:   "gap cursor",
			sel:    selection.Gap("img", selection.After, nil),
			blocks: []*model.Block{para("a", "x"), model.NewBlock("img", schema.Image, nil)},
			want:   "x\n[image]\n_",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, render(tt.sel, tt.blocks))
		})
	}
}

func TestRenderInlineNodes(t *testing.T) {
	blocks := []*model.Block{
		model.NewBlock("a", schema.Paragraph, nil,
			model.NewText("hi"),
			model.NewInlineNode(schema.Mention, model.Attrs{"label": "ann"}),
			model.NewInlineNode(schema.HardBreak, nil),
			model.NewInlineNode(schema.Emoji, model.Attrs{"name": "smile"}),
		),
	}
	require.Equal(t, "hi@ann│↵:smile:", render(selection.Cursor("a", 3), blocks))
}

func TestRenderBlockIDs(t *testing.T) {
	blocks := []*model.Block{para("a", "hello"), para("bb", "world")}
	require.Equal(t, "a  hello\nbb world", render(selection.Cursor("a", 0), blocks, WithBlockIDs(true), WithSelection(false)))
}

func TestRenderWidth(t *testing.T) {
	blocks := []*model.Block{
		para("a", "aaa bbb ccc"),
		model.NewBlock("q", schema.Blockquote, nil, para("b", "ddd eee fff")),
	}
	got := render(selection.Cursor("a", 0), blocks, WithWidth(9), WithSelection(false))
	require.Equal(t, "aaa bbb\nccc\n│ ddd eee\n│ fff", got)
}
