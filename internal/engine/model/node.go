package model

// Kind discriminates the three node variants.
type Kind int

const (
	// KindBlock is a *Block.
	KindBlock Kind = iota
	// KindText is a *Text run.
	KindText
	// KindInline is an *InlineNode atom.
	KindInline
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindText:
		return "text"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Node is a child of a block. It is implemented only by *Block, *Text and
// *InlineNode.
type Node interface {
	Kind() Kind
	node()
}

// Attrs holds JSON-compatible attribute values.
type Attrs map[string]any

// Clone returns a shallow copy. A nil map stays nil.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// String returns the attribute as a string, or "" if absent or not a string.
func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns a numeric attribute as an int.
func (a Attrs) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Block is a structural or leaf block.
type Block struct {
	ID       BlockID
	Type     NodeType
	Attrs    Attrs
	Children []Node
}

// Text is a run of characters sharing one mark set.
type Text struct {
	Text  string
	Marks []Mark
}

// InlineNode is an atomic, width-1 unit inside leaf content (hard break,
// mention, inline image). It never carries marks.
type InlineNode struct {
	InlineType InlineType
	Attrs      Attrs
}

// Kind returns KindBlock.
func (*Block) Kind() Kind { return KindBlock }
func (*Block) node()      {}

// Kind returns KindText.
func (*Text) Kind() Kind { return KindText }
func (*Text) node()      {}

// Kind returns KindInline.
func (*InlineNode) Kind() Kind { return KindInline }
func (*InlineNode) node()      {}

// Document is the ordered sequence of top-level blocks.
type Document struct {
	Children []*Block
}

// NewDocument creates a document from top-level blocks.
func NewDocument(blocks ...*Block) *Document {
	children := make([]*Block, len(blocks))
	copy(children, blocks)
	return &Document{Children: children}
}

// NewBlock creates a block. Inline children are normalized (adjacent runs
// with equal marks are coalesced, empty runs dropped); block children are
// kept as given.
func NewBlock(id BlockID, typ NodeType, attrs Attrs, children ...Node) *Block {
	b := &Block{ID: id, Type: typ, Attrs: attrs.Clone()}
	if len(children) > 0 {
		if _, structural := children[0].(*Block); structural {
			b.Children = append([]Node(nil), children...)
		} else {
			b.Children = NormalizeContent(children)
		}
	}
	return b
}

// NewText creates a text run with a normalized mark set.
func NewText(text string, marks ...Mark) *Text {
	return &Text{Text: text, Marks: NormalizeMarks(marks)}
}

// NewInlineNode creates an inline atom.
func NewInlineNode(typ InlineType, attrs Attrs) *InlineNode {
	return &InlineNode{InlineType: typ, Attrs: attrs.Clone()}
}

// IsLeafBlock reports whether b holds inline content (or nothing at all).
// Only leaf blocks take part in text selection and block order.
func IsLeafBlock(b *Block) bool {
	if b == nil {
		return false
	}
	if len(b.Children) == 0 {
		return true
	}
	_, structural := b.Children[0].(*Block)
	return !structural
}

// IsLeaf is shorthand for IsLeafBlock(b).
func (b *Block) IsLeaf() bool { return IsLeafBlock(b) }

// BlockChildren returns the block children of a structural block.
func (b *Block) BlockChildren() []*Block {
	if b.IsLeaf() {
		return nil
	}
	out := make([]*Block, 0, len(b.Children))
	for _, c := range b.Children {
		if cb, ok := c.(*Block); ok {
			out = append(out, cb)
		}
	}
	return out
}

// WithChildren returns a copy of b with its children replaced.
func (b *Block) WithChildren(children []Node) *Block {
	return &Block{ID: b.ID, Type: b.Type, Attrs: b.Attrs, Children: children}
}

// WithAttrs returns a copy of b with its attrs replaced.
func (b *Block) WithAttrs(attrs Attrs) *Block {
	return &Block{ID: b.ID, Type: b.Type, Attrs: attrs, Children: b.Children}
}

// WithType returns a copy of b with a new type and attrs.
func (b *Block) WithType(typ NodeType, attrs Attrs) *Block {
	return &Block{ID: b.ID, Type: typ, Attrs: attrs, Children: b.Children}
}

// WithID returns a copy of b carrying a different id.
func (b *Block) WithID(id BlockID) *Block {
	return &Block{ID: id, Type: b.Type, Attrs: b.Attrs, Children: b.Children}
}

func blocksToNodes(blocks []*Block) []Node {
	out := make([]Node, len(blocks))
	for i, b := range blocks {
		out[i] = b
	}
	return out
}
