package step

import (
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// InsertText inserts text carrying Marks at Offset of a leaf block.
type InsertText struct {
	BlockID model.BlockID `json:"blockId"`
	Offset  int           `json:"offset"`
	Text    string        `json:"text"`
	Marks   []model.Mark  `json:"marks,omitempty"`
}

// Type implements Step.
func (InsertText) Type() Type { return TypeInsertText }

// offset returns the insertion point snapped to a character boundary.
func (s InsertText) offset(doc *model.Document) (int, bool) {
	b, ok := leaf(doc, s.BlockID)
	if !ok || s.Text == "" {
		return 0, false
	}
	off := model.SnapOffset(b, s.Offset)
	return off, inRange(b, off, off)
}

// Apply implements Step. Text lands between content units; an InlineNode is
// never split. An offset inside a surrogate pair is floored to the start of
// that character.
func (s InsertText) Apply(doc *model.Document) *model.Document {
	off, ok := s.offset(doc)
	if !ok {
		return doc
	}
	return updateLeaf(doc, s.BlockID, func(c []model.Node) []model.Node {
		return model.InsertTextIntoContent(c, off, s.Text, s.Marks)
	})
}

// Invert implements Step.
func (s InsertText) Invert(pre *model.Document) []Step {
	off, ok := s.offset(pre)
	if !ok {
		return nil
	}
	return []Step{DeleteText{BlockID: s.BlockID, From: off, To: off + model.UTF16Len(s.Text)}}
}

func (s InsertText) String() string {
	return fmt.Sprintf("insertText(%s@%d %q)", s.BlockID, s.Offset, s.Text)
}

// DeleteText removes the range [From, To) of a leaf block. InlineNodes inside
// the range are removed whole.
type DeleteText struct {
	BlockID model.BlockID `json:"blockId"`
	From    int           `json:"from"`
	To      int           `json:"to"`
}

// Type implements Step.
func (DeleteText) Type() Type { return TypeDeleteText }

func (s DeleteText) bounds(b *model.Block) (int, int, bool) {
	from := max(model.SnapOffset(b, s.From), 0)
	to := min(model.SnapOffset(b, s.To), model.GetBlockLength(b))
	return from, to, from < to
}

// Apply implements Step. The range is clipped to the block and both ends are
// floored to character boundaries.
func (s DeleteText) Apply(doc *model.Document) *model.Document {
	b, ok := leaf(doc, s.BlockID)
	if !ok {
		return doc
	}
	from, to, ok := s.bounds(b)
	if !ok {
		return doc
	}
	return updateLeaf(doc, s.BlockID, func(c []model.Node) []model.Node {
		return model.DeleteFromContent(c, from, to)
	})
}

// Invert implements Step. The removed content, marks and atoms included, is
// captured from pre.
func (s DeleteText) Invert(pre *model.Document) []Step {
	b, ok := leaf(pre, s.BlockID)
	if !ok {
		return nil
	}
	from, to, ok := s.bounds(b)
	if !ok {
		return nil
	}
	return []Step{InsertContent{
		BlockID: s.BlockID,
		Offset:  from,
		Content: model.SliceContent(b.Children, from, to),
	}}
}

func (s DeleteText) String() string {
	return fmt.Sprintf("deleteText(%s %d..%d)", s.BlockID, s.From, s.To)
}

// InsertContent splices inline content (text runs and atoms) into a leaf
// block at Offset.
type InsertContent struct {
	BlockID model.BlockID
	Offset  int
	Content []model.Node
}

// Type implements Step.
func (InsertContent) Type() Type { return TypeInsertContent }

func (s InsertContent) offset(doc *model.Document) (int, bool) {
	b, ok := leaf(doc, s.BlockID)
	if !ok || model.ContentLength(s.Content) == 0 {
		return 0, false
	}
	for _, n := range s.Content {
		if _, structural := n.(*model.Block); structural {
			return 0, false
		}
	}
	off := model.SnapOffset(b, s.Offset)
	return off, inRange(b, off, off)
}

// Apply implements Step.
func (s InsertContent) Apply(doc *model.Document) *model.Document {
	off, ok := s.offset(doc)
	if !ok {
		return doc
	}
	return updateLeaf(doc, s.BlockID, func(c []model.Node) []model.Node {
		return model.InsertContent(c, off, s.Content)
	})
}

// Invert implements Step.
func (s InsertContent) Invert(pre *model.Document) []Step {
	off, ok := s.offset(pre)
	if !ok {
		return nil
	}
	return []Step{DeleteText{BlockID: s.BlockID, From: off, To: off + model.ContentLength(s.Content)}}
}

func (s InsertContent) String() string {
	return fmt.Sprintf("insertContent(%s@%d len=%d)", s.BlockID, s.Offset, model.ContentLength(s.Content))
}
