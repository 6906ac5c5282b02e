package state

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/step"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// Apply applies tr and returns the resulting state. The requested selection
// is validated against the new document: dangling ids fall back to the first
// text block, offsets are clamped and paths refreshed. A transaction that
// leaves no blocks gets a fresh empty paragraph.
func (s *EditorState) Apply(tr *transaction.Transaction) *EditorState {
	if tr == nil {
		return s
	}
	doc := s.doc
	for _, st := range tr.Steps() {
		next := step.Apply(doc, st)
		if next == doc && step.ChangesDocument(st) {
			s.logger.Debug("step %s did not apply", st)
		}
		doc = next
	}
	next := s.derive(nil, tr.StoredMarksAfter())
	next.doc = next.ensureBlocks(doc)
	next.sel = next.repair(tr.SelectionAfter())
	return next
}

// ApplyAll applies transactions in order.
func (s *EditorState) ApplyAll(trs ...*transaction.Transaction) *EditorState {
	out := s
	for _, tr := range trs {
		out = out.Apply(tr)
	}
	return out
}

// WithSelection returns a state with a different, repaired selection.
func (s *EditorState) WithSelection(sel selection.Selection) *EditorState {
	next := s.derive(s.doc, s.storedMarks)
	next.sel = next.repair(sel)
	return next
}

// DefaultSelection is where the cursor goes when nothing better is known: the
// start of the first text block, or a node selection of the first void
// block when every leaf is void.
func (s *EditorState) DefaultSelection() selection.Selection {
	idx := s.index()
	for _, id := range idx.leaves {
		if !s.IsVoid(id) {
			return selection.Cursor(id, 0)
		}
	}
	id := idx.leaves[0]
	return selection.Node(id, idx.records[id].path.Clone())
}

func (s *EditorState) repair(sel selection.Selection) selection.Selection {
	switch v := sel.(type) {
	case nil:
		return s.DefaultSelection()
	case selection.TextSelection:
		anchor, okA := s.repairPosition(v.Anchor)
		head, okH := s.repairPosition(v.Head)
		if !okA || !okH {
			s.logger.Debug("selection %s references a missing block; falling back", v)
			return s.DefaultSelection()
		}
		return selection.TextSelection{Anchor: anchor, Head: head}
	case selection.NodeSelection:
		rec, ok := s.index().get(v.NodeID)
		if !ok {
			s.logger.Debug("node selection %s is dangling; falling back", v.NodeID)
			return s.DefaultSelection()
		}
		return selection.Node(v.NodeID, rec.path.Clone())
	case selection.GapCursor:
		rec, ok := s.index().get(v.BlockID)
		if !ok {
			s.logger.Debug("gap cursor %s is dangling; falling back", v.BlockID)
			return s.DefaultSelection()
		}
		return selection.Gap(v.BlockID, v.Side, rec.path.Clone())
	}
	return s.DefaultSelection()
}

// repairPosition moves a text position into a leaf block, clamps its offset
// and floors it to a character boundary. ok is false when the block no longer exists.
func (s *EditorState) repairPosition(p selection.Position) (selection.Position, bool) {
	rec, ok := s.index().get(p.BlockID)
	if !ok {
		return p, false
	}
	if !rec.block.IsLeaf() {
		leaf := model.FindFirstLeafBlockID(rec.block)
		rec = s.index().records[leaf]
		p = selection.Pos(leaf, 0)
	}
	length := model.GetBlockLength(rec.block)
	switch {
	case p.Offset < 0:
		p.Offset = 0
	case p.Offset > length:
		p.Offset = length
	default:
		p.Offset = model.SnapOffset(rec.block, p.Offset)
	}
	if p.Path != nil {
		p.Path = rec.path.Clone()
	}
	return p, true
}
