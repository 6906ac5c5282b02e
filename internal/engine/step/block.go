package step

import (
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// SplitBlock splits a block at Offset. For a leaf block the content from
// Offset to the end moves into a new block inserted right after it; for a
// structural block the children from index Offset on move. The new block
// takes NewBlockID and keeps the original type and attrs unless NewType is
// set, in which case it gets NewType and NewAttrs.
type SplitBlock struct {
	BlockID    model.BlockID  `json:"blockId"`
	Offset     int            `json:"offset"`
	NewBlockID model.BlockID  `json:"newBlockId"`
	NewType    model.NodeType `json:"newType,omitempty"`
	NewAttrs   model.Attrs    `json:"newAttrs,omitempty"`
}

// Type implements Step.
func (SplitBlock) Type() Type { return TypeSplitBlock }

func (s SplitBlock) target(doc *model.Document) (*model.Block, model.Path, bool) {
	if s.NewBlockID == "" || s.NewBlockID == s.BlockID {
		return nil, nil, false
	}
	if _, _, exists := model.FindBlock(doc, s.NewBlockID); exists {
		return nil, nil, false
	}
	b, path, ok := model.FindBlock(doc, s.BlockID)
	if !ok {
		return nil, nil, false
	}
	limit := len(b.Children)
	if b.IsLeaf() {
		limit = model.GetBlockLength(b)
	}
	if s.Offset < 0 || s.Offset > limit {
		return nil, nil, false
	}
	return b, path, true
}

// Apply implements Step.
func (s SplitBlock) Apply(doc *model.Document) *model.Document {
	b, path, ok := s.target(doc)
	if !ok {
		return doc
	}
	var head, tail []model.Node
	if b.IsLeaf() {
		head, tail = model.SplitContent(b.Children, s.Offset)
	} else {
		head = append([]model.Node(nil), b.Children[:s.Offset]...)
		tail = append([]model.Node(nil), b.Children[s.Offset:]...)
	}

	typ, attrs := b.Type, b.Attrs.Clone()
	if s.NewType != "" {
		typ, attrs = s.NewType, s.NewAttrs.Clone()
	}
	nb := &model.Block{ID: s.NewBlockID, Type: typ, Attrs: attrs, Children: tail}

	out, ok := model.UpdateAt(doc, path, func(old *model.Block) *model.Block {
		return old.WithChildren(head)
	})
	if !ok {
		return doc
	}
	out, ok = model.InsertChild(out, path.Parent(), path.Index()+1, nb)
	if !ok {
		return doc
	}
	return out
}

// Invert implements Step. The new block is merged back into the original,
// which kept its own type and attrs.
func (s SplitBlock) Invert(pre *model.Document) []Step {
	if _, _, ok := s.target(pre); !ok {
		return nil
	}
	return []Step{MergeBlocks{IntoID: s.BlockID, FromID: s.NewBlockID}}
}

func (s SplitBlock) String() string {
	return fmt.Sprintf("splitBlock(%s@%d -> %s)", s.BlockID, s.Offset, s.NewBlockID)
}

// MergeBlocks appends the content of FromID to IntoID and removes FromID.
// Leaf blocks concatenate inline content; structural blocks concatenate
// their children. Ancestors of FromID left without children are removed
// too. Both blocks must be of the same kind and neither may contain the
// other; isolation and voidness are the caller's concern.
type MergeBlocks struct {
	IntoID model.BlockID `json:"intoId"`
	FromID model.BlockID `json:"fromId"`
}

// Type implements Step.
func (MergeBlocks) Type() Type { return TypeMergeBlocks }

func (s MergeBlocks) targets(doc *model.Document) (into, from *model.Block, fromPath model.Path, structural, ok bool) {
	if s.IntoID == s.FromID {
		return nil, nil, nil, false, false
	}
	into, intoPath, ok := model.FindBlock(doc, s.IntoID)
	if !ok {
		return nil, nil, nil, false, false
	}
	from, fromPath, ok = model.FindBlock(doc, s.FromID)
	if !ok {
		return nil, nil, nil, false, false
	}
	if isPrefix(intoPath, fromPath) || isPrefix(fromPath, intoPath) {
		return nil, nil, nil, false, false
	}
	// Empty blocks merge with either kind.
	intoInline := len(into.Children) > 0 && into.IsLeaf()
	fromInline := len(from.Children) > 0 && from.IsLeaf()
	intoBlocks := !into.IsLeaf()
	fromBlocks := !from.IsLeaf()
	if (intoInline && fromBlocks) || (intoBlocks && fromInline) {
		return nil, nil, nil, false, false
	}
	return into, from, fromPath, intoBlocks || fromBlocks, true
}

// Apply implements Step.
func (s MergeBlocks) Apply(doc *model.Document) *model.Document {
	_, from, _, structural, ok := s.targets(doc)
	if !ok {
		return doc
	}
	out, ok := model.UpdateBlock(doc, s.IntoID, func(b *model.Block) *model.Block {
		if !structural {
			return b.WithChildren(model.InsertContent(b.Children, model.GetBlockLength(b), from.Children))
		}
		children := make([]model.Node, 0, len(b.Children)+len(from.Children))
		children = append(children, b.Children...)
		children = append(children, from.Children...)
		return b.WithChildren(children)
	})
	if !ok {
		return doc
	}
	path, ok := model.FindNodePath(out, s.FromID)
	if !ok {
		return doc
	}
	top := removalRoot(out, path)
	out, _, ok = model.RemoveChild(out, top.Parent(), top.Index())
	if !ok {
		return doc
	}
	return out
}

// Invert implements Step. The appended tail is cut off IntoID again and the
// removed subtree, snapshotted from pre, is re-inserted where it was.
func (s MergeBlocks) Invert(pre *model.Document) []Step {
	into, from, fromPath, structural, ok := s.targets(pre)
	if !ok {
		return nil
	}
	top := removalRoot(pre, fromPath)
	removed, ok := model.BlockAt(pre, top)
	if !ok {
		return nil
	}

	var out []Step
	if !structural {
		start := model.GetBlockLength(into)
		if n := model.GetBlockLength(from); n > 0 {
			out = append(out, DeleteText{BlockID: s.IntoID, From: start, To: start + n})
		}
	} else if k := len(from.Children); k > 0 {
		post := s.Apply(pre)
		intoPath, ok := model.FindNodePath(post, s.IntoID)
		if !ok {
			return nil
		}
		n := len(into.Children)
		for i := n + k - 1; i >= n; i-- {
			out = append(out, RemoveNode{Path: intoPath, Index: i})
		}
	}
	out = append(out, InsertNode{Path: top.Parent(), Index: top.Index(), Node: model.CloneBlock(removed)})
	return out
}

func (s MergeBlocks) String() string {
	return fmt.Sprintf("mergeBlocks(%s <- %s)", s.IntoID, s.FromID)
}

// removalRoot returns the path of the highest ancestor of path (or path
// itself) whose removal takes path with it without emptying anything else:
// every block between it and path has exactly one child.
func removalRoot(doc *model.Document, path model.Path) model.Path {
	top := path
	for len(top) > 1 {
		parent, ok := model.BlockAt(doc, top.Parent())
		if !ok || len(parent.Children) != 1 {
			break
		}
		top = top.Parent()
	}
	return top
}

func isPrefix(prefix, path model.Path) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if prefix[i] != path[i] {
			return false
		}
	}
	return true
}

// SetAttrs shallow-merges Attrs into a block's attrs. A nil value removes the
// key.
type SetAttrs struct {
	BlockID model.BlockID `json:"blockId"`
	Attrs   model.Attrs   `json:"attrs"`
}

// Type implements Step.
func (SetAttrs) Type() Type { return TypeSetAttrs }

// Apply implements Step.
func (s SetAttrs) Apply(doc *model.Document) *model.Document {
	if len(s.Attrs) == 0 {
		return doc
	}
	out, ok := model.UpdateBlock(doc, s.BlockID, func(b *model.Block) *model.Block {
		attrs := b.Attrs.Clone()
		if attrs == nil {
			attrs = model.Attrs{}
		}
		for k, v := range s.Attrs {
			if v == nil {
				delete(attrs, k)
				continue
			}
			attrs[k] = v
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		return b.WithAttrs(attrs)
	})
	if !ok {
		return doc
	}
	return out
}

// Invert implements Step.
func (s SetAttrs) Invert(pre *model.Document) []Step {
	b, _, ok := model.FindBlock(pre, s.BlockID)
	if !ok || len(s.Attrs) == 0 {
		return nil
	}
	prev := make(model.Attrs, len(s.Attrs))
	for k := range s.Attrs {
		prev[k] = b.Attrs[k]
	}
	return []Step{SetAttrs{BlockID: s.BlockID, Attrs: prev}}
}

func (s SetAttrs) String() string {
	return fmt.Sprintf("setAttrs(%s %d keys)", s.BlockID, len(s.Attrs))
}

// SetBlockType changes a block's type and replaces its attrs. Content is
// kept.
type SetBlockType struct {
	BlockID  model.BlockID  `json:"blockId"`
	NodeType model.NodeType `json:"nodeType"`
	Attrs    model.Attrs    `json:"attrs,omitempty"`
}

// Type implements Step.
func (SetBlockType) Type() Type { return TypeSetBlockType }

// Apply implements Step.
func (s SetBlockType) Apply(doc *model.Document) *model.Document {
	if s.NodeType == "" {
		return doc
	}
	out, ok := model.UpdateBlock(doc, s.BlockID, func(b *model.Block) *model.Block {
		return b.WithType(s.NodeType, s.Attrs.Clone())
	})
	if !ok {
		return doc
	}
	return out
}

// Invert implements Step.
func (s SetBlockType) Invert(pre *model.Document) []Step {
	b, _, ok := model.FindBlock(pre, s.BlockID)
	if !ok || s.NodeType == "" {
		return nil
	}
	return []Step{SetBlockType{BlockID: s.BlockID, NodeType: b.Type, Attrs: b.Attrs.Clone()}}
}

func (s SetBlockType) String() string {
	return fmt.Sprintf("setBlockType(%s %s)", s.BlockID, s.NodeType)
}

// InsertNode inserts a block as child Index of the container at Path. The
// empty path is the document.
type InsertNode struct {
	Path  model.Path   `json:"path"`
	Index int          `json:"index"`
	Node  *model.Block `json:"node"`
}

// Type implements Step.
func (InsertNode) Type() Type { return TypeInsertNode }

func (s InsertNode) valid(doc *model.Document) bool {
	if s.Node == nil {
		return false
	}
	_, _, exists := model.FindBlock(doc, s.Node.ID)
	if exists {
		return false
	}
	if len(s.Path) > 0 {
		parent, ok := model.BlockAt(doc, s.Path)
		if !ok || (parent.IsLeaf() && len(parent.Children) > 0) {
			return false
		}
	}
	return s.Index >= 0 && s.Index <= model.ChildCount(doc, s.Path)
}

// Apply implements Step. Inserting a block whose id already exists is a
// no-op.
func (s InsertNode) Apply(doc *model.Document) *model.Document {
	if !s.valid(doc) {
		return doc
	}
	out, ok := model.InsertChild(doc, s.Path, s.Index, s.Node)
	if !ok {
		return doc
	}
	return out
}

// Invert implements Step.
func (s InsertNode) Invert(pre *model.Document) []Step {
	if !s.valid(pre) {
		return nil
	}
	return []Step{RemoveNode{Path: s.Path.Clone(), Index: s.Index}}
}

func (s InsertNode) String() string {
	id := model.BlockID("")
	if s.Node != nil {
		id = s.Node.ID
	}
	return fmt.Sprintf("insertNode(%s[%d] %s)", s.Path, s.Index, id)
}

// RemoveNode removes child Index of the container at Path.
type RemoveNode struct {
	Path  model.Path `json:"path"`
	Index int        `json:"index"`
}

// Type implements Step.
func (RemoveNode) Type() Type { return TypeRemoveNode }

// Apply implements Step.
func (s RemoveNode) Apply(doc *model.Document) *model.Document {
	out, _, ok := model.RemoveChild(doc, s.Path, s.Index)
	if !ok {
		return doc
	}
	return out
}

// Invert implements Step. The removed subtree is snapshotted from pre.
func (s RemoveNode) Invert(pre *model.Document) []Step {
	b, ok := model.BlockAt(pre, s.Path.Child(s.Index))
	if !ok {
		return nil
	}
	return []Step{InsertNode{Path: s.Path.Clone(), Index: s.Index, Node: model.CloneBlock(b)}}
}

func (s RemoveNode) String() string {
	return fmt.Sprintf("removeNode(%s[%d])", s.Path, s.Index)
}
