package transaction

import (
	"time"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/step"
)

// Builder accumulates steps into a Transaction. Every step method applies
// the step to a working copy of the document and records its inverse against
// the document as it was just before, then returns the builder for chaining.
// Steps that would not change the working document are dropped.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	doc     *model.Document
	steps   []step.Step
	inverse [][]step.Step

	selBefore   selection.Selection
	selAfter    selection.Selection
	marksBefore []model.Mark
	marksAfter  []model.Mark

	meta Metadata
	now  func() time.Time
}

// NewBuilder starts a transaction against doc with the given selection and
// stored marks as the "before" values.
func NewBuilder(doc *model.Document, sel selection.Selection, storedMarks []model.Mark, origin Origin) *Builder {
	if !origin.Valid() {
		origin = OriginAPI
	}
	return &Builder{
		doc:         doc,
		selBefore:   sel,
		selAfter:    sel,
		marksBefore: storedMarks,
		marksAfter:  storedMarks,
		meta:        Metadata{Origin: origin},
		now:         time.Now,
	}
}

// Doc returns the working document with every step so far applied.
func (b *Builder) Doc() *model.Document { return b.doc }

// Selection returns the selection the transaction will end with.
func (b *Builder) Selection() selection.Selection { return b.selAfter }

// StoredMarks returns the stored marks the transaction will end with.
func (b *Builder) StoredMarks() []model.Mark { return b.marksAfter }

// StepCount returns the number of steps recorded so far.
func (b *Builder) StepCount() int { return len(b.steps) }

// Step appends an arbitrary step. A SetStoredMarks step also updates the
// stored marks the transaction ends with.
func (b *Builder) Step(s step.Step) *Builder {
	if s == nil {
		return b
	}
	if sm, ok := s.(step.SetStoredMarks); ok {
		b.steps = append(b.steps, sm)
		b.inverse = append(b.inverse, sm.Invert(b.doc))
		b.marksAfter = sm.Marks
		return b
	}
	inv := s.Invert(b.doc)
	next := s.Apply(b.doc)
	if next == b.doc {
		return b
	}
	b.steps = append(b.steps, s)
	b.inverse = append(b.inverse, inv)
	b.doc = next
	return b
}

// InsertText inserts text with marks at offset of a leaf block.
func (b *Builder) InsertText(id model.BlockID, offset int, text string, marks []model.Mark) *Builder {
	return b.Step(step.InsertText{BlockID: id, Offset: offset, Text: text, Marks: marks})
}

// InsertContent splices inline content into a leaf block.
func (b *Builder) InsertContent(id model.BlockID, offset int, content []model.Node) *Builder {
	return b.Step(step.InsertContent{BlockID: id, Offset: offset, Content: content})
}

// DeleteTextAt removes [from, to) of a leaf block.
func (b *Builder) DeleteTextAt(id model.BlockID, from, to int) *Builder {
	return b.Step(step.DeleteText{BlockID: id, From: from, To: to})
}

// AddMark adds mark to [from, to) of a leaf block.
func (b *Builder) AddMark(id model.BlockID, from, to int, mark model.Mark) *Builder {
	return b.Step(step.AddMark{BlockID: id, From: from, To: to, Mark: mark})
}

// RemoveMark removes marks of mark's type from [from, to) of a leaf block.
func (b *Builder) RemoveMark(id model.BlockID, from, to int, mark model.Mark) *Builder {
	return b.Step(step.RemoveMark{BlockID: id, From: from, To: to, Mark: mark})
}

// SplitBlock splits a block at offset; the tail goes into newID.
func (b *Builder) SplitBlock(id model.BlockID, offset int, newID model.BlockID) *Builder {
	return b.Step(step.SplitBlock{BlockID: id, Offset: offset, NewBlockID: newID})
}

// SplitBlockAs splits a block and gives the new block its own type.
func (b *Builder) SplitBlockAs(id model.BlockID, offset int, newID model.BlockID, typ model.NodeType, attrs model.Attrs) *Builder {
	return b.Step(step.SplitBlock{BlockID: id, Offset: offset, NewBlockID: newID, NewType: typ, NewAttrs: attrs})
}

// MergeBlocksAt appends from onto into and removes from.
func (b *Builder) MergeBlocksAt(into, from model.BlockID) *Builder {
	return b.Step(step.MergeBlocks{IntoID: into, FromID: from})
}

// InsertNode inserts a block at index under the container at path.
func (b *Builder) InsertNode(path model.Path, index int, node *model.Block) *Builder {
	return b.Step(step.InsertNode{Path: path.Clone(), Index: index, Node: node})
}

// RemoveNode removes the block at index under the container at path.
func (b *Builder) RemoveNode(path model.Path, index int) *Builder {
	return b.Step(step.RemoveNode{Path: path.Clone(), Index: index})
}

// SetAttrs merges attrs into a block's attrs.
func (b *Builder) SetAttrs(id model.BlockID, attrs model.Attrs) *Builder {
	return b.Step(step.SetAttrs{BlockID: id, Attrs: attrs.Clone()})
}

// SetBlockType changes a block's type and attrs.
func (b *Builder) SetBlockType(id model.BlockID, typ model.NodeType, attrs model.Attrs) *Builder {
	return b.Step(step.SetBlockType{BlockID: id, NodeType: typ, Attrs: attrs.Clone()})
}

// SetSelection sets the selection after the transaction. It adds no step.
func (b *Builder) SetSelection(sel selection.Selection) *Builder {
	b.selAfter = sel
	return b
}

// SetStoredMarks sets the stored marks after the transaction. It adds no
// step; use Step with step.SetStoredMarks to record one explicitly.
func (b *Builder) SetStoredMarks(marks []model.Mark) *Builder {
	b.marksAfter = marks
	return b
}

// ReadonlyAllowed flags the transaction as permitted in readonly mode.
func (b *Builder) ReadonlyAllowed() *Builder {
	b.meta.ReadonlyAllowed = true
	return b
}

// Describe sets a human readable description.
func (b *Builder) Describe(desc string) *Builder {
	b.meta.Description = desc
	return b
}

// At fixes the transaction time instead of using the clock at Build.
func (b *Builder) At(t time.Time) *Builder {
	b.now = func() time.Time { return t }
	return b
}

// Build freezes the builder into a Transaction. The builder may be used
// again afterwards; later calls do not affect the built transaction.
func (b *Builder) Build() *Transaction {
	inverse := make([]step.Step, 0, len(b.inverse))
	for i := len(b.inverse) - 1; i >= 0; i-- {
		inverse = append(inverse, b.inverse[i]...)
	}
	meta := b.meta
	meta.Time = b.now()
	return &Transaction{
		steps:       append([]step.Step(nil), b.steps...),
		inverse:     inverse,
		selBefore:   b.selBefore,
		selAfter:    b.selAfter,
		marksBefore: b.marksBefore,
		marksAfter:  b.marksAfter,
		meta:        meta,
	}
}
