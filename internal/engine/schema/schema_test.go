package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/engine/model"
)

func TestDefaultSchema(t *testing.T) {
	s := Default()

	require.True(t, s.IsVoid(HorizontalRule))
	require.True(t, s.IsVoid(Image))
	require.False(t, s.IsVoid(Paragraph))
	require.True(t, s.IsIsolating(TableCell))
	require.True(t, s.IsIsolating(Table))
	require.False(t, s.IsIsolating(TableRow))
	require.True(t, s.IsSelectable(Table))
	require.True(t, s.IsSelectable(Image))
	require.False(t, s.IsSelectable(Paragraph))

	require.True(t, s.AllowsMark(Paragraph, Bold))
	require.False(t, s.AllowsMark(CodeBlock, Bold))
	require.False(t, s.AllowsMark(Paragraph, "sparkle"))
	require.True(t, s.AllowsMark("unknown_block", Italic), "a type without spec is ordinary")

	require.Equal(t, FeatureFont, s.MarkFeature(Font))
	require.Contains(t, s.NodeTypes(), Heading)
	require.Len(t, s.MarkTypes(), 8)
	require.Len(t, s.InlineTypes(), 4)
}

func TestNilSchemaIsPermissive(t *testing.T) {
	var s *Schema
	require.False(t, s.IsVoid(Image))
	require.False(t, s.IsIsolating(TableCell))
	require.True(t, s.AllowsMark(Paragraph, "anything"))
	require.NoError(t, s.Check(model.NewDocument(model.NewBlock("b", "x", nil))))
	attrs, err := s.ResolveMarkAttrs(Link, model.Attrs{"anything": 1})
	require.NoError(t, err)
	require.Equal(t, 1, attrs["anything"])
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want error
	}{
		{
			name: "duplicate node",
			def:  Definition{Nodes: []NodeSpec{{Name: Paragraph}, {Name: Paragraph}}},
			want: ErrDuplicateType,
		},
		{
			name: "reserved node name",
			def:  Definition{Nodes: []NodeSpec{{Name: "text"}}},
			want: ErrReservedName,
		},
		{
			name: "reserved mark name",
			def:  Definition{Marks: []MarkSpec{{Name: "inline"}}},
			want: ErrReservedName,
		},
		{
			name: "font without families",
			def:  Definition{Marks: []MarkSpec{FontMark()}},
			want: ErrEmptyEnum,
		},
		{
			name: "default out of range",
			def: Definition{Nodes: []NodeSpec{{Name: Heading, Attrs: []AttrSpec{
				{Name: "level", Type: AttrInt, Default: 9, Maximum: Float(6)},
			}}}},
			want: ErrInvalidAttr,
		},
		{
			name: "undeclared allowed mark",
			def:  Definition{Nodes: []NodeSpec{{Name: Paragraph, Marks: []model.MarkType{Bold}}}},
			want: ErrUnknownType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			require.ErrorIs(t, err, tt.want)
		})
	}

	require.Panics(t, func() { MustNew(Definition{Marks: []MarkSpec{FontMark()}}) })
}

func TestResolveAttrs(t *testing.T) {
	s := Default()

	attrs, err := s.ResolveNodeAttrs(Heading, nil)
	require.NoError(t, err)
	require.Equal(t, 1, attrs["level"])

	attrs, err = s.ResolveNodeAttrs(Heading, model.Attrs{"level": float64(3)})
	require.NoError(t, err)
	require.Equal(t, float64(3), attrs["level"])

	tests := []struct {
		name  string
		mark  model.MarkType
		attrs model.Attrs
		want  error
	}{
		{"missing href", Link, nil, ErrInvalidAttr},
		{"bad scheme", Link, model.Attrs{"href": "javascript:alert(1)"}, ErrInvalidAttr},
		{"unknown attr", Link, model.Attrs{"href": "/x", "rel": "me"}, ErrUnknownAttr},
		{"font not in list", Font, model.Attrs{"family": "comic"}, ErrInvalidAttr},
		{"color wrong type", Color, model.Attrs{"value": 12}, ErrInvalidAttr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ResolveMarkAttrs(tt.mark, tt.attrs)
			require.ErrorIs(t, err, tt.want)
		})
	}

	attrs, err = s.ResolveMarkAttrs(Font, model.Attrs{"family": "serif"})
	require.NoError(t, err)
	require.Equal(t, "serif", attrs["family"])

	_, err = s.ResolveNodeAttrs(Heading, model.Attrs{"level": 2.5})
	require.ErrorIs(t, err, ErrInvalidAttr)
}

func TestFeatures(t *testing.T) {
	s := Default()
	var f Features
	require.True(t, f.Enabled(FeatureFont))
	require.True(t, s.MarkEnabled(Font, f))

	off := f.With(FeatureFont, false)
	require.False(t, s.MarkEnabled(Font, off))
	require.True(t, s.MarkEnabled(Bold, off))
	require.Equal(t, []string{FeatureFont}, off.Disabled())
	require.Nil(t, f, "With does not modify the receiver")
}

func TestCheck(t *testing.T) {
	s := Default()
	p := func(id model.BlockID, content ...model.Node) *model.Block {
		return model.NewBlock(id, Paragraph, nil, content...)
	}

	good := model.NewDocument(
		p("a", model.NewText("x", model.NewMark(Bold, nil)), model.NewInlineNode(HardBreak, nil)),
		model.NewBlock("t", Table, nil,
			model.NewBlock("r", TableRow, nil,
				model.NewBlock("c", TableCell, nil, p("cp", model.NewText("cell"))))),
		model.NewBlock("hr", HorizontalRule, nil),
	)
	require.NoError(t, s.Check(good))

	tests := []struct {
		name string
		doc  *model.Document
		want error
	}{
		{"unknown type", model.NewDocument(model.NewBlock("x", "widget", nil)), ErrUnknownType},
		{"mark in code block", model.NewDocument(
			model.NewBlock("c", CodeBlock, nil, model.NewText("x", model.NewMark(Bold, nil)))), ErrMarkNotAllowed},
		{"row outside table", model.NewDocument(
			model.NewBlock("l", List, nil, model.NewBlock("r", TableRow, nil))), ErrUnknownType},
		{"inline content in list", model.NewDocument(
			model.NewBlock("l", List, nil, model.NewText("x"))), ErrUnknownType},
		{"unknown inline", model.NewDocument(
			p("a", model.NewInlineNode("gif", nil))), ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, s.Check(tt.doc), tt.want)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	src := `
nodes:
  - name: callout
    content: block
    isolating: true
marks:
  - name: highlight
    attrs:
      - {name: color, type: enum, enum: [yellow, green], default: yellow}
inlines:
  - name: footnote
`
	s, err := LoadYAML(strings.NewReader(src), true)
	require.NoError(t, err)
	require.True(t, s.IsIsolating("callout"))
	require.True(t, s.HasMark("highlight"))
	require.True(t, s.HasMark(Bold), "default declarations are kept")

	attrs, err := s.ResolveMarkAttrs("highlight", nil)
	require.NoError(t, err)
	require.Equal(t, "yellow", attrs["color"])

	only, err := LoadYAML(strings.NewReader(src), false)
	require.NoError(t, err)
	require.False(t, only.HasMark(Bold))

	_, err = LoadYAML(strings.NewReader("marks:\n  - name: font\n    attrs:\n      - {name: family, type: enum}\n"), false)
	require.ErrorIs(t, err, ErrEmptyEnum)

	_, err = LoadYAML(strings.NewReader("nodes:\n  - name: p\n    bogus: true\n"), false)
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodes:\n  - name: note\n"), 0o644))

	s, err := LoadFile(path, false)
	require.NoError(t, err)
	require.Equal(t, []model.NodeType{"note"}, s.NodeTypes())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.ErrorIs(t, err, os.ErrNotExist)
}
