package schema

import (
	"sync"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// Block type names used by the default schema and the commands.
const (
	Paragraph      model.NodeType = "paragraph"
	Heading        model.NodeType = "heading"
	Blockquote     model.NodeType = "blockquote"
	CodeBlock      model.NodeType = "code_block"
	List           model.NodeType = "list"
	ListItem       model.NodeType = "list_item"
	Table          model.NodeType = "table"
	TableRow       model.NodeType = "table_row"
	TableCell      model.NodeType = "table_cell"
	HorizontalRule model.NodeType = "horizontal_rule"
	Image          model.NodeType = "image"
)

// Mark type names of the default schema.
const (
	Bold      model.MarkType = "bold"
	Italic    model.MarkType = "italic"
	Underline model.MarkType = "underline"
	Strike    model.MarkType = "strike"
	Code      model.MarkType = "code"
	Link      model.MarkType = "link"
	Font      model.MarkType = "font"
	Color     model.MarkType = "color"
)

// Inline type names of the default schema.
const (
	HardBreak   model.InlineType = "hard_break"
	Mention     model.InlineType = "mention"
	Emoji       model.InlineType = "emoji"
	InlineImage model.InlineType = "inline_image"
)

// FeatureFont gates the font mark.
const FeatureFont = "marks.font"

// DefaultFontFamilies are the font choices of the default schema.
var DefaultFontFamilies = []string{"serif", "sans-serif", "monospace"}

// FontMark declares a font mark restricted to families. An empty family list
// makes New fail with ErrEmptyEnum.
func FontMark(families ...string) MarkSpec {
	enum := make([]any, len(families))
	for i, f := range families {
		enum[i] = f
	}
	return MarkSpec{
		Name:    Font,
		Feature: FeatureFont,
		Attrs:   []AttrSpec{{Name: "family", Type: AttrEnum, Enum: enum, Required: true}},
	}
}

// DefaultDefinition returns the declarations of the default schema.
func DefaultDefinition() Definition {
	return Definition{
		Nodes: []NodeSpec{
			{Name: Paragraph},
			{Name: Heading, Attrs: []AttrSpec{
				{Name: "level", Type: AttrInt, Default: 1, Minimum: Float(1), Maximum: Float(6)},
			}},
			{Name: Blockquote, Content: ContentBlock},
			{Name: CodeBlock, NoMarks: true, Attrs: []AttrSpec{
				{Name: "language", Type: AttrString},
			}},
			{Name: List, Content: ContentBlock, Children: []model.NodeType{ListItem}, Attrs: []AttrSpec{
				{Name: "ordered", Type: AttrBool, Default: false},
			}},
			{Name: ListItem, Content: ContentBlock},
			{Name: Table, Content: ContentBlock, Isolating: true, Selectable: true, Children: []model.NodeType{TableRow}},
			{Name: TableRow, Content: ContentBlock, Children: []model.NodeType{TableCell}},
			{Name: TableCell, Content: ContentBlock, Isolating: true},
			{Name: HorizontalRule, Void: true, Selectable: true},
			{Name: Image, Void: true, Selectable: true, Attrs: []AttrSpec{
				{Name: "src", Type: AttrString, Required: true},
				{Name: "alt", Type: AttrString},
				{Name: "width", Type: AttrNumber, Minimum: Float(0)},
			}},
		},
		Marks: []MarkSpec{
			{Name: Bold},
			{Name: Italic},
			{Name: Underline},
			{Name: Strike},
			{Name: Code},
			{Name: Link, Attrs: []AttrSpec{
				{Name: "href", Type: AttrString, Required: true, Pattern: `^(https?://|mailto:|/|#)`},
				{Name: "title", Type: AttrString},
			}},
			FontMark(DefaultFontFamilies...),
			{Name: Color, Attrs: []AttrSpec{
				{Name: "value", Type: AttrString, Required: true, Pattern: `^#[0-9a-fA-F]{3,8}$`},
			}},
		},
		Inlines: []InlineSpec{
			{Name: HardBreak},
			{Name: Mention, Attrs: []AttrSpec{{Name: "user", Type: AttrString, Required: true}}},
			{Name: Emoji, Attrs: []AttrSpec{{Name: "name", Type: AttrString, Required: true}}},
			{Name: InlineImage, Attrs: []AttrSpec{{Name: "src", Type: AttrString, Required: true}}},
		},
	}
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
)

// Default returns the shared default schema.
func Default() *Schema {
	defaultOnce.Do(func() {
		defaultSchema = MustNew(DefaultDefinition())
	})
	return defaultSchema
}
