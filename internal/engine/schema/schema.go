// Package schema declares which node, mark and inline types a document may
// contain and how the editing core treats them.
//
// The core consults the schema for three decisions: whether a block is void
// (an atom with no text, selected as a whole), whether it is isolating (a hard
// boundary for merge and navigation, like a table cell) and whether a mark is
// allowed inside it. A type with no spec is an ordinary block. All lookups
// are safe on a nil *Schema and then answer as if every type were ordinary.
package schema

import (
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// ContentKind is the kind of children a node type holds.
type ContentKind string

// Content kinds.
const (
	// ContentInline is text and inline atoms (paragraph, heading).
	ContentInline ContentKind = "inline"
	// ContentBlock is nested blocks (list, table, table_cell).
	ContentBlock ContentKind = "block"
	// ContentEmpty is no children at all (void blocks).
	ContentEmpty ContentKind = "empty"
)

// NodeSpec describes a block type.
type NodeSpec struct {
	Name       model.NodeType `yaml:"name"`
	Content    ContentKind    `yaml:"content"`
	Void       bool           `yaml:"void"`
	Isolating  bool           `yaml:"isolating"`
	Selectable bool           `yaml:"selectable"`

	// Children restricts the types allowed as block children. Empty means any.
	Children []model.NodeType `yaml:"children"`

	// Marks lists the marks allowed in this node's text. Empty means all
	// marks unless NoMarks is set.
	Marks   []model.MarkType `yaml:"marks"`
	NoMarks bool             `yaml:"noMarks"`

	Attrs []AttrSpec `yaml:"attrs"`
}

// MarkSpec describes a mark type.
type MarkSpec struct {
	Name model.MarkType `yaml:"name"`

	// Feature names a flag that must be enabled for the mark to be applied.
	Feature string `yaml:"feature"`

	Attrs []AttrSpec `yaml:"attrs"`
}

// InlineSpec describes an inline atom type.
type InlineSpec struct {
	Name  model.InlineType `yaml:"name"`
	Attrs []AttrSpec       `yaml:"attrs"`
}

// Definition is the declarative input to New.
type Definition struct {
	Nodes   []NodeSpec   `yaml:"nodes"`
	Marks   []MarkSpec   `yaml:"marks"`
	Inlines []InlineSpec `yaml:"inlines"`
}

// Schema is an immutable registry of node, mark and inline types.
type Schema struct {
	nodes   map[model.NodeType]NodeSpec
	marks   map[model.MarkType]MarkSpec
	inlines map[model.InlineType]InlineSpec

	nodeOrder   []model.NodeType
	markOrder   []model.MarkType
	inlineOrder []model.InlineType

	attrs *AttrRegistry
}

// reserved names collide with the wire discriminators of inline children.
var reserved = map[string]bool{"text": true, "inline": true}

// New builds a schema. Invalid declarations (duplicate or reserved names,
// enum attributes with no values, bad defaults) are reported as errors.
func New(def Definition) (*Schema, error) {
	s := &Schema{
		nodes:   make(map[model.NodeType]NodeSpec, len(def.Nodes)),
		marks:   make(map[model.MarkType]MarkSpec, len(def.Marks)),
		inlines: make(map[model.InlineType]InlineSpec, len(def.Inlines)),
		attrs:   NewAttrRegistry(),
	}

	for _, n := range def.Nodes {
		if n.Name == "" || reserved[string(n.Name)] {
			return nil, fmt.Errorf("%w: node %q", ErrReservedName, n.Name)
		}
		if _, dup := s.nodes[n.Name]; dup {
			return nil, fmt.Errorf("%w: node %s", ErrDuplicateType, n.Name)
		}
		if n.Content == "" {
			n.Content = ContentInline
			if n.Void {
				n.Content = ContentEmpty
			}
		}
		if err := s.attrs.Register(nodeKey(n.Name), n.Attrs...); err != nil {
			return nil, err
		}
		s.nodes[n.Name] = n
		s.nodeOrder = append(s.nodeOrder, n.Name)
	}

	for _, m := range def.Marks {
		if m.Name == "" || reserved[string(m.Name)] {
			return nil, fmt.Errorf("%w: mark %q", ErrReservedName, m.Name)
		}
		if _, dup := s.marks[m.Name]; dup {
			return nil, fmt.Errorf("%w: mark %s", ErrDuplicateType, m.Name)
		}
		if err := s.attrs.Register(markKey(m.Name), m.Attrs...); err != nil {
			return nil, err
		}
		s.marks[m.Name] = m
		s.markOrder = append(s.markOrder, m.Name)
	}

	for _, in := range def.Inlines {
		if in.Name == "" || reserved[string(in.Name)] {
			return nil, fmt.Errorf("%w: inline %q", ErrReservedName, in.Name)
		}
		if _, dup := s.inlines[in.Name]; dup {
			return nil, fmt.Errorf("%w: inline %s", ErrDuplicateType, in.Name)
		}
		if err := s.attrs.Register(inlineKey(in.Name), in.Attrs...); err != nil {
			return nil, err
		}
		s.inlines[in.Name] = in
		s.inlineOrder = append(s.inlineOrder, in.Name)
	}

	for _, n := range s.nodes {
		for _, m := range n.Marks {
			if _, ok := s.marks[m]; !ok {
				return nil, fmt.Errorf("%w: node %s allows undeclared mark %s", ErrUnknownType, n.Name, m)
			}
		}
	}
	return s, nil
}

// MustNew is like New but panics on error. It is meant for static tables.
func MustNew(def Definition) *Schema {
	s, err := New(def)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return s
}

// Definition returns the declarations the schema was built from, in
// declaration order.
func (s *Schema) Definition() Definition {
	var def Definition
	if s == nil {
		return def
	}
	for _, n := range s.nodeOrder {
		def.Nodes = append(def.Nodes, s.nodes[n])
	}
	for _, m := range s.markOrder {
		def.Marks = append(def.Marks, s.marks[m])
	}
	for _, in := range s.inlineOrder {
		def.Inlines = append(def.Inlines, s.inlines[in])
	}
	return def
}

// NodeTypes returns the declared node types in declaration order.
func (s *Schema) NodeTypes() []model.NodeType {
	if s == nil {
		return nil
	}
	return append([]model.NodeType(nil), s.nodeOrder...)
}

// MarkTypes returns the declared mark types in declaration order.
func (s *Schema) MarkTypes() []model.MarkType {
	if s == nil {
		return nil
	}
	return append([]model.MarkType(nil), s.markOrder...)
}

// InlineTypes returns the declared inline types in declaration order.
func (s *Schema) InlineTypes() []model.InlineType {
	if s == nil {
		return nil
	}
	return append([]model.InlineType(nil), s.inlineOrder...)
}

// NodeSpec returns the spec for a node type.
func (s *Schema) NodeSpec(t model.NodeType) (NodeSpec, bool) {
	if s == nil {
		return NodeSpec{}, false
	}
	n, ok := s.nodes[t]
	return n, ok
}

// MarkSpec returns the spec for a mark type.
func (s *Schema) MarkSpec(t model.MarkType) (MarkSpec, bool) {
	if s == nil {
		return MarkSpec{}, false
	}
	m, ok := s.marks[t]
	return m, ok
}

// InlineSpec returns the spec for an inline type.
func (s *Schema) InlineSpec(t model.InlineType) (InlineSpec, bool) {
	if s == nil {
		return InlineSpec{}, false
	}
	in, ok := s.inlines[t]
	return in, ok
}

// IsVoid reports whether blocks of type t are void.
func (s *Schema) IsVoid(t model.NodeType) bool {
	n, _ := s.NodeSpec(t)
	return n.Void
}

// IsIsolating reports whether blocks of type t are isolating.
func (s *Schema) IsIsolating(t model.NodeType) bool {
	n, _ := s.NodeSpec(t)
	return n.Isolating
}

// IsSelectable reports whether blocks of type t can be node-selected. Void
// blocks are always selectable.
func (s *Schema) IsSelectable(t model.NodeType) bool {
	n, _ := s.NodeSpec(t)
	return n.Selectable || n.Void
}

// HasMark reports whether mark type m is declared. A nil schema knows every
// mark.
func (s *Schema) HasMark(m model.MarkType) bool {
	if s == nil {
		return true
	}
	_, ok := s.marks[m]
	return ok
}

// AllowsMark reports whether mark m may appear in the text of node type t.
func (s *Schema) AllowsMark(t model.NodeType, m model.MarkType) bool {
	if !s.HasMark(m) {
		return false
	}
	n, ok := s.NodeSpec(t)
	if !ok {
		return true
	}
	if n.NoMarks || n.Void {
		return false
	}
	if len(n.Marks) == 0 {
		return true
	}
	for _, allowed := range n.Marks {
		if allowed == m {
			return true
		}
	}
	return false
}

// MarkFeature returns the feature flag gating mark m, or "".
func (s *Schema) MarkFeature(m model.MarkType) string {
	spec, _ := s.MarkSpec(m)
	return spec.Feature
}

// Attrs returns the attribute registry backing the schema.
func (s *Schema) Attrs() *AttrRegistry {
	if s == nil {
		return NewAttrRegistry()
	}
	return s.attrs
}

// ResolveNodeAttrs validates attrs for node type t and fills in defaults.
func (s *Schema) ResolveNodeAttrs(t model.NodeType, attrs model.Attrs) (model.Attrs, error) {
	if s == nil {
		return attrs, nil
	}
	return s.attrs.Resolve(nodeKey(t), attrs)
}

// ResolveMarkAttrs validates attrs for mark type m and fills in defaults.
func (s *Schema) ResolveMarkAttrs(m model.MarkType, attrs model.Attrs) (model.Attrs, error) {
	if s == nil {
		return attrs, nil
	}
	return s.attrs.Resolve(markKey(m), attrs)
}

// ResolveInlineAttrs validates attrs for inline type t and fills in defaults.
func (s *Schema) ResolveInlineAttrs(t model.InlineType, attrs model.Attrs) (model.Attrs, error) {
	if s == nil {
		return attrs, nil
	}
	return s.attrs.Resolve(inlineKey(t), attrs)
}

// Check validates a document against the schema: every type must be
// declared, content kinds must match and marks must be allowed.
func (s *Schema) Check(doc *model.Document) error {
	if s == nil || doc == nil {
		return nil
	}
	var err error
	model.Walk(doc, func(b *model.Block, path model.Path, parent *model.Block) bool {
		if err != nil {
			return false
		}
		err = s.checkBlock(b, parent)
		if err != nil {
			err = fmt.Errorf("block %s at %s: %w", b.ID, path, err)
		}
		return err == nil
	})
	return err
}

func (s *Schema) checkBlock(b, parent *model.Block) error {
	spec, ok := s.nodes[b.Type]
	if !ok {
		return fmt.Errorf("%w: node %s", ErrUnknownType, b.Type)
	}
	if parent != nil {
		pspec := s.nodes[parent.Type]
		if len(pspec.Children) > 0 && !containsType(pspec.Children, b.Type) {
			return fmt.Errorf("%w: %s inside %s", ErrUnknownType, b.Type, parent.Type)
		}
	}
	if len(b.Children) == 0 {
		return nil
	}
	switch {
	case spec.Content == ContentEmpty:
		return fmt.Errorf("%w: void block has children", ErrUnknownType)
	case spec.Content == ContentBlock && b.IsLeaf():
		return fmt.Errorf("%w: %s expects block children", ErrUnknownType, b.Type)
	case spec.Content == ContentInline && !b.IsLeaf():
		return fmt.Errorf("%w: %s expects inline content", ErrUnknownType, b.Type)
	}
	for _, c := range b.Children {
		switch v := c.(type) {
		case *model.Text:
			for _, m := range v.Marks {
				if !s.AllowsMark(b.Type, m.Type) {
					return fmt.Errorf("%w: %s in %s", ErrMarkNotAllowed, m.Type, b.Type)
				}
			}
		case *model.InlineNode:
			if _, ok := s.inlines[v.InlineType]; !ok {
				return fmt.Errorf("%w: inline %s", ErrUnknownType, v.InlineType)
			}
		}
	}
	return nil
}

func containsType(types []model.NodeType, t model.NodeType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func nodeKey(t model.NodeType) string     { return "node:" + string(t) }
func markKey(t model.MarkType) string     { return "mark:" + string(t) }
func inlineKey(t model.InlineType) string { return "inline:" + string(t) }
