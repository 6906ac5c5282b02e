package model

import (
	"strconv"
	"strings"
)

// Path addresses a block by child indices from the document root.
// The empty path is the document itself.
type Path []int

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Parent returns the path of the parent container.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].Clone()
}

// Index returns the last index of the path, or -1 for the root.
func (p Path) Index() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Child returns the path of the i-th child of p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Equal reports whether two paths are identical.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path as "0/2/1".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}

// FindBlock locates a block anywhere in the tree.
func FindBlock(doc *Document, id BlockID) (*Block, Path, bool) {
	var (
		found *Block
		path  Path
	)
	Walk(doc, func(b *Block, p Path, _ *Block) bool {
		if found != nil {
			return false
		}
		if b.ID == id {
			found, path = b, p.Clone()
			return false
		}
		return true
	})
	return found, path, found != nil
}

// FindNodePath returns the path of the block with the given id.
func FindNodePath(doc *Document, id BlockID) (Path, bool) {
	_, p, ok := FindBlock(doc, id)
	return p, ok
}

// BlockAt returns the block at path.
func BlockAt(doc *Document, path Path) (*Block, bool) {
	if doc == nil || len(path) == 0 {
		return nil, false
	}
	if path[0] < 0 || path[0] >= len(doc.Children) {
		return nil, false
	}
	b := doc.Children[path[0]]
	for _, i := range path[1:] {
		if i < 0 || i >= len(b.Children) {
			return nil, false
		}
		child, ok := b.Children[i].(*Block)
		if !ok {
			return nil, false
		}
		b = child
	}
	return b, true
}

// ParentOf returns the parent block of id. Top-level blocks report a nil
// parent with ok set.
func ParentOf(doc *Document, id BlockID) (*Block, bool) {
	p, ok := FindNodePath(doc, id)
	if !ok {
		return nil, false
	}
	if len(p) == 1 {
		return nil, true
	}
	return BlockAt(doc, p.Parent())
}

// ChildCount returns the number of block children under parentPath.
func ChildCount(doc *Document, parentPath Path) int {
	if len(parentPath) == 0 {
		return len(doc.Children)
	}
	b, ok := BlockAt(doc, parentPath)
	if !ok || b.IsLeaf() {
		return 0
	}
	return len(b.Children)
}

// Walk visits blocks depth-first in document order. fn returns false to skip
// the children of the visited block.
func Walk(doc *Document, fn func(b *Block, path Path, parent *Block) bool) {
	if doc == nil {
		return
	}
	for i, b := range doc.Children {
		walkBlock(b, Path{i}, nil, fn)
	}
}

func walkBlock(b *Block, path Path, parent *Block, fn func(*Block, Path, *Block) bool) {
	if !fn(b, path, parent) {
		return
	}
	for i, c := range b.Children {
		if cb, ok := c.(*Block); ok {
			walkBlock(cb, path.Child(i), b, fn)
		}
	}
}

// LeafOrder lists leaf block ids depth-first in document order.
func LeafOrder(doc *Document) []BlockID {
	var out []BlockID
	Walk(doc, func(b *Block, _ Path, _ *Block) bool {
		if b.IsLeaf() {
			out = append(out, b.ID)
			return false
		}
		return true
	})
	return out
}

// FindFirstLeafBlockID follows the first-child chain down to a leaf.
func FindFirstLeafBlockID(b *Block) BlockID {
	for !b.IsLeaf() {
		b = b.Children[0].(*Block)
	}
	return b.ID
}

// FindLastLeafBlockID follows the last-child chain down to a leaf.
func FindLastLeafBlockID(b *Block) BlockID {
	for !b.IsLeaf() {
		b = b.Children[len(b.Children)-1].(*Block)
	}
	return b.ID
}

// CloneBlock returns a deep copy of b. Attrs maps are copied shallowly.
func CloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{ID: b.ID, Type: b.Type, Attrs: b.Attrs.Clone()}
	if len(b.Children) > 0 {
		out.Children = make([]Node, len(b.Children))
		for i, c := range b.Children {
			switch v := c.(type) {
			case *Block:
				out.Children[i] = CloneBlock(v)
			case *Text:
				out.Children[i] = &Text{Text: v.Text, Marks: append([]Mark(nil), v.Marks...)}
			case *InlineNode:
				out.Children[i] = &InlineNode{InlineType: v.InlineType, Attrs: v.Attrs.Clone()}
			}
		}
	}
	return out
}

// UpdateBlock replaces the block with the given id by fn's result. If fn
// returns nil the block is removed. The document is returned unchanged with
// ok=false when the id does not exist.
func UpdateBlock(doc *Document, id BlockID, fn func(*Block) *Block) (*Document, bool) {
	p, ok := FindNodePath(doc, id)
	if !ok {
		return doc, false
	}
	return UpdateAt(doc, p, fn)
}

// UpdateAt replaces the block at path by fn's result, copying only the
// blocks on the path. A nil result removes the block.
func UpdateAt(doc *Document, path Path, fn func(*Block) *Block) (*Document, bool) {
	if doc == nil || len(path) == 0 {
		return doc, false
	}
	i := path[0]
	if i < 0 || i >= len(doc.Children) {
		return doc, false
	}
	nb, ok := updateIn(doc.Children[i], path[1:], fn)
	if !ok {
		return doc, false
	}
	children := make([]*Block, 0, len(doc.Children))
	children = append(children, doc.Children[:i]...)
	if nb != nil {
		children = append(children, nb)
	}
	children = append(children, doc.Children[i+1:]...)
	return &Document{Children: children}, true
}

func updateIn(b *Block, rest Path, fn func(*Block) *Block) (*Block, bool) {
	if len(rest) == 0 {
		return fn(b), true
	}
	i := rest[0]
	if i < 0 || i >= len(b.Children) {
		return nil, false
	}
	child, ok := b.Children[i].(*Block)
	if !ok {
		return nil, false
	}
	nc, ok := updateIn(child, rest[1:], fn)
	if !ok {
		return nil, false
	}
	children := make([]Node, 0, len(b.Children))
	children = append(children, b.Children[:i]...)
	if nc != nil {
		children = append(children, nc)
	}
	children = append(children, b.Children[i+1:]...)
	return b.WithChildren(children), true
}

// InsertChild inserts blk as the index-th child of the container at
// parentPath (the empty path is the document). Leaf blocks holding inline
// content cannot take block children.
func InsertChild(doc *Document, parentPath Path, index int, blk *Block) (*Document, bool) {
	if doc == nil || blk == nil {
		return doc, false
	}
	if len(parentPath) == 0 {
		if index < 0 || index > len(doc.Children) {
			return doc, false
		}
		children := make([]*Block, 0, len(doc.Children)+1)
		children = append(children, doc.Children[:index]...)
		children = append(children, blk)
		children = append(children, doc.Children[index:]...)
		return &Document{Children: children}, true
	}
	valid := false
	out, ok := UpdateAt(doc, parentPath, func(parent *Block) *Block {
		if index < 0 || index > len(parent.Children) {
			return parent
		}
		if len(parent.Children) > 0 && parent.IsLeaf() {
			return parent
		}
		valid = true
		children := make([]Node, 0, len(parent.Children)+1)
		children = append(children, parent.Children[:index]...)
		children = append(children, blk)
		children = append(children, parent.Children[index:]...)
		return parent.WithChildren(children)
	})
	if !ok || !valid {
		return doc, false
	}
	return out, true
}

// RemoveChild removes the index-th block child of the container at
// parentPath and returns it.
func RemoveChild(doc *Document, parentPath Path, index int) (*Document, *Block, bool) {
	target, ok := BlockAt(doc, parentPath.Child(index))
	if !ok {
		return doc, nil, false
	}
	out, ok := UpdateAt(doc, parentPath.Child(index), func(*Block) *Block { return nil })
	if !ok {
		return doc, nil, false
	}
	return out, target, true
}
