package model

import (
	"strings"
	"unicode/utf8"
)

// ContentKind discriminates what sits at a block offset.
type ContentKind int

const (
	// ContentChar is a character of a Text run.
	ContentChar ContentKind = iota
	// ContentInline is an InlineNode.
	ContentInline
)

// Content describes the unit found at a block offset.
type Content struct {
	Kind ContentKind
	// Char is the full code point containing the offset (ContentChar only).
	Char string
	// Marks are the marks of the enclosing Text (ContentChar only).
	Marks []Mark
	// Node is the atom at the offset (ContentInline only).
	Node *InlineNode
}

// NodeLength returns the width of n in offset units. Blocks have width 0.
func NodeLength(n Node) int {
	switch v := n.(type) {
	case *Text:
		return UTF16Len(v.Text)
	case *InlineNode:
		return 1
	default:
		return 0
	}
}

// ContentLength returns the linear length of a slice of inline content.
func ContentLength(content []Node) int {
	n := 0
	for _, c := range content {
		n += NodeLength(c)
	}
	return n
}

// GetBlockLength returns the linear content length of a leaf block.
// Structural blocks report 0.
func GetBlockLength(b *Block) int {
	if b == nil || !b.IsLeaf() {
		return 0
	}
	return ContentLength(b.Children)
}

// GetBlockText returns the plain text of a leaf block with every InlineNode
// rendered as ObjectReplacement.
func GetBlockText(b *Block) string {
	if b == nil || !b.IsLeaf() {
		return ""
	}
	var sb strings.Builder
	for _, c := range b.Children {
		switch v := c.(type) {
		case *Text:
			sb.WriteString(v.Text)
		case *InlineNode:
			sb.WriteRune(ObjectReplacement)
		}
	}
	return sb.String()
}

// GetTextChildren returns the Text runs of a leaf block.
func GetTextChildren(b *Block) []*Text {
	var out []*Text
	for _, c := range b.Children {
		if t, ok := c.(*Text); ok {
			out = append(out, t)
		}
	}
	return out
}

// GetInlineChildren returns the InlineNode atoms of a leaf block.
func GetInlineChildren(b *Block) []*InlineNode {
	var out []*InlineNode
	for _, c := range b.Children {
		if n, ok := c.(*InlineNode); ok {
			out = append(out, n)
		}
	}
	return out
}

// GetContentAtOffset returns the unit occupying [offset, offset+1). It
// reports false when offset is outside the block's content.
func GetContentAtOffset(b *Block, offset int) (Content, bool) {
	if b == nil || offset < 0 || !b.IsLeaf() {
		return Content{}, false
	}
	pos := 0
	for _, c := range b.Children {
		l := NodeLength(c)
		if offset < pos+l {
			switch v := c.(type) {
			case *InlineNode:
				return Content{Kind: ContentInline, Node: v}, true
			case *Text:
				i := UTF16ToByteOffset(v.Text, offset-pos)
				r, size := utf8.DecodeRuneInString(v.Text[i:])
				if r == utf8.RuneError && size == 0 {
					return Content{}, false
				}
				return Content{Kind: ContentChar, Char: v.Text[i : i+size], Marks: v.Marks}, true
			}
		}
		pos += l
	}
	return Content{}, false
}

// SnapOffset floors offset to a unit boundary of a leaf block so that it
// never points between the halves of a surrogate pair. Offsets outside the
// content are returned unchanged.
func SnapOffset(b *Block, offset int) int {
	if b == nil || offset <= 0 || !b.IsLeaf() {
		return offset
	}
	pos := 0
	for _, c := range b.Children {
		l := NodeLength(c)
		if offset < pos+l {
			if t, ok := c.(*Text); ok {
				return pos + SnapUTF16(t.Text, offset-pos)
			}
			return offset
		}
		pos += l
	}
	return offset
}

// GetBlockMarksAtOffset returns the marks a character typed at offset would
// inherit: the marks of the preceding character. At offset 0 the first
// character's marks are used. An InlineNode before the offset yields no
// marks.
func GetBlockMarksAtOffset(b *Block, offset int) []Mark {
	if b == nil {
		return nil
	}
	probe := offset - 1
	if offset <= 0 {
		probe = 0
	}
	c, ok := GetContentAtOffset(b, probe)
	if !ok || c.Kind != ContentChar {
		return nil
	}
	return c.Marks
}

// BlockOffsetToTextOffset maps a block offset to the child holding the unit
// at that offset and the offset inside that child. The end offset maps to
// the end of the last child.
func BlockOffsetToTextOffset(b *Block, offset int) (index, inner int, ok bool) {
	if b == nil || offset < 0 || !b.IsLeaf() {
		return 0, 0, false
	}
	pos := 0
	for i, c := range b.Children {
		l := NodeLength(c)
		if offset < pos+l {
			return i, offset - pos, true
		}
		pos += l
	}
	if offset == pos && len(b.Children) > 0 {
		last := len(b.Children) - 1
		return last, NodeLength(b.Children[last]), true
	}
	return 0, 0, offset == 0
}
