// Package selection defines the editor selection: a closed set of three
// variants.
//
//   - TextSelection is an anchor/head pair of text positions. When anchor and
//     head are equal it is a collapsed caret.
//   - NodeSelection selects a whole block (void blocks, tables).
//   - GapCursor sits before or after a void block when no text position is
//     adjacent.
//
// Selections are immutable values. Consumers switch on the concrete type;
// every switch over Selection should handle all three variants.
package selection

import (
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// Kind discriminates selection variants.
type Kind int

const (
	// KindText is a TextSelection (range or caret).
	KindText Kind = iota
	// KindNode is a NodeSelection.
	KindNode
	// KindGap is a GapCursor.
	KindGap
)

// String returns the kind name used on the wire.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNode:
		return "node"
	case KindGap:
		return "gap"
	default:
		return "unknown"
	}
}

// Selection is implemented by TextSelection, NodeSelection and GapCursor.
type Selection interface {
	Kind() Kind
	String() string
	isSelection()
}

// Position is a point inside a leaf block. Offset is in UTF-16 units. Path
// is informational and refreshed by the editor state; equality ignores it.
type Position struct {
	BlockID model.BlockID `json:"blockId"`
	Offset  int           `json:"offset"`
	Path    model.Path    `json:"path,omitempty"`
}

// Pos is shorthand for a position without a path.
func Pos(id model.BlockID, offset int) Position {
	return Position{BlockID: id, Offset: offset}
}

// Equal reports whether two positions name the same block and offset.
func (p Position) Equal(other Position) bool {
	return p.BlockID == other.BlockID && p.Offset == other.Offset
}

// WithOffset returns p moved to offset in the same block.
func (p Position) WithOffset(offset int) Position {
	p.Offset = offset
	return p
}

// String renders the position as "block:offset".
func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.BlockID, p.Offset)
}

// TextSelection is a text range from Anchor (where it started) to Head (where
// the caret is). It may span blocks in either direction.
type TextSelection struct {
	Anchor Position
	Head   Position
}

// NodeSelection selects a whole block.
type NodeSelection struct {
	NodeID model.BlockID
	Path   model.Path
}

// Side says which side of a block a gap cursor sits on.
type Side string

// Gap cursor sides.
const (
	Before Side = "before"
	After  Side = "after"
)

// GapCursor sits in the gap before or after a block.
type GapCursor struct {
	BlockID model.BlockID
	Side    Side
	Path    model.Path
}

func (TextSelection) isSelection() {}
func (NodeSelection) isSelection() {}
func (GapCursor) isSelection()     {}

// Kind returns KindText.
func (TextSelection) Kind() Kind { return KindText }

// Kind returns KindNode.
func (NodeSelection) Kind() Kind { return KindNode }

// Kind returns KindGap.
func (GapCursor) Kind() Kind { return KindGap }

// String returns a debug representation.
func (s TextSelection) String() string {
	if s.IsCollapsed() {
		return fmt.Sprintf("Cursor(%s)", s.Head)
	}
	return fmt.Sprintf("Text(%s -> %s)", s.Anchor, s.Head)
}

// String returns a debug representation.
func (s NodeSelection) String() string {
	return fmt.Sprintf("Node(%s)", s.NodeID)
}

// String returns a debug representation.
func (s GapCursor) String() string {
	return fmt.Sprintf("Gap(%s %s)", s.Side, s.BlockID)
}

// IsCollapsed reports whether anchor and head coincide.
func (s TextSelection) IsCollapsed() bool {
	return s.Anchor.Equal(s.Head)
}

// Collapse returns a caret at the head.
func (s TextSelection) Collapse() TextSelection {
	return TextSelection{Anchor: s.Head, Head: s.Head}
}

// Extend keeps the anchor and moves the head.
func (s TextSelection) Extend(head Position) TextSelection {
	return TextSelection{Anchor: s.Anchor, Head: head}
}

// Flip swaps anchor and head.
func (s TextSelection) Flip() TextSelection {
	return TextSelection{Anchor: s.Head, Head: s.Anchor}
}

// New creates a text selection from anchor to head.
func New(anchor, head Position) TextSelection {
	return TextSelection{Anchor: anchor, Head: head}
}

// Collapsed creates a caret at pos.
func Collapsed(pos Position) TextSelection {
	return TextSelection{Anchor: pos, Head: pos}
}

// Cursor creates a caret at offset in block id.
func Cursor(id model.BlockID, offset int) TextSelection {
	return Collapsed(Pos(id, offset))
}

// Node creates a node selection.
func Node(id model.BlockID, path model.Path) NodeSelection {
	return NodeSelection{NodeID: id, Path: path.Clone()}
}

// Gap creates a gap cursor.
func Gap(id model.BlockID, side Side, path model.Path) GapCursor {
	return GapCursor{BlockID: id, Side: side, Path: path.Clone()}
}

// IsCollapsed reports whether sel is a caret.
func IsCollapsed(sel Selection) bool {
	ts, ok := sel.(TextSelection)
	return ok && ts.IsCollapsed()
}

// IsTextSelection reports whether sel is a text selection (range or caret).
func IsTextSelection(sel Selection) bool {
	_, ok := sel.(TextSelection)
	return ok
}

// IsNodeSelection reports whether sel selects a whole node.
func IsNodeSelection(sel Selection) bool {
	_, ok := sel.(NodeSelection)
	return ok
}

// IsGapCursor reports whether sel is a gap cursor.
func IsGapCursor(sel Selection) bool {
	_, ok := sel.(GapCursor)
	return ok
}

// Equal compares two selections by value. Paths are ignored.
func Equal(a, b Selection) bool {
	switch av := a.(type) {
	case TextSelection:
		bv, ok := b.(TextSelection)
		return ok && av.Anchor.Equal(bv.Anchor) && av.Head.Equal(bv.Head)
	case NodeSelection:
		bv, ok := b.(NodeSelection)
		return ok && av.NodeID == bv.NodeID
	case GapCursor:
		bv, ok := b.(GapCursor)
		return ok && av.BlockID == bv.BlockID && av.Side == bv.Side
	case nil:
		return b == nil
	}
	return false
}

// BlockIDs lists the block ids a selection references.
func BlockIDs(sel Selection) []model.BlockID {
	switch s := sel.(type) {
	case TextSelection:
		if s.Anchor.BlockID == s.Head.BlockID {
			return []model.BlockID{s.Head.BlockID}
		}
		return []model.BlockID{s.Anchor.BlockID, s.Head.BlockID}
	case NodeSelection:
		return []model.BlockID{s.NodeID}
	case GapCursor:
		return []model.BlockID{s.BlockID}
	}
	return nil
}
