// Package step implements the primitive document edits.
//
// A Step is one self-contained instruction (insert text, split a block,
// remove a node). Apply interprets it against a document and returns a new
// document; the input is never modified. A step whose target block or path
// does not exist, or whose offsets fall outside the target, leaves the
// document unchanged.
//
// Invert computes the steps that undo a step. It must be given the document
// as it was before the step was applied (the pre-image), because some edits
// destroy the information needed to reverse them: a deletion is undone by
// re-inserting the exact content it removed, which only the pre-image holds.
// Applying s and then every step of s.Invert(pre) in order restores pre.
package step

import (
	"github.com/dshills/blockstorm/internal/engine/model"
)

// Type identifies a step kind on the wire.
type Type string

// Step types.
const (
	TypeInsertText     Type = "insertText"
	TypeDeleteText     Type = "deleteText"
	TypeInsertContent  Type = "insertContent"
	TypeAddMark        Type = "addMark"
	TypeRemoveMark     Type = "removeMark"
	TypeSplitBlock     Type = "splitBlock"
	TypeMergeBlocks    Type = "mergeBlocks"
	TypeInsertNode     Type = "insertNode"
	TypeRemoveNode     Type = "removeNode"
	TypeSetAttrs       Type = "setAttrs"
	TypeSetBlockType   Type = "setBlockType"
	TypeSetStoredMarks Type = "setStoredMarks"
)

// Step is a primitive, invertible edit.
type Step interface {
	// Type returns the step kind.
	Type() Type

	// Apply returns the document with the step applied.
	Apply(doc *model.Document) *model.Document

	// Invert returns the steps that undo this step, given the document the
	// step is applied to. A step that would be a no-op on pre inverts to nil.
	Invert(pre *model.Document) []Step

	// String returns a short description for logs.
	String() string
}

// Apply applies s to doc. A nil step or document passes through.
func Apply(doc *model.Document, s Step) *model.Document {
	if s == nil || doc == nil {
		return doc
	}
	return s.Apply(doc)
}

// ApplyAll folds Apply over steps.
func ApplyAll(doc *model.Document, steps []Step) *model.Document {
	for _, s := range steps {
		doc = Apply(doc, s)
	}
	return doc
}

// ChangesDocument reports whether a step kind can change the document.
// Stored-mark steps never do.
func ChangesDocument(s Step) bool {
	return s != nil && s.Type() != TypeSetStoredMarks
}

// leaf finds a leaf block by id.
func leaf(doc *model.Document, id model.BlockID) (*model.Block, bool) {
	b, _, ok := model.FindBlock(doc, id)
	if !ok || !b.IsLeaf() {
		return nil, false
	}
	return b, true
}

// updateLeaf rewrites the inline content of a leaf block.
func updateLeaf(doc *model.Document, id model.BlockID, fn func(content []model.Node) []model.Node) *model.Document {
	out, ok := model.UpdateBlock(doc, id, func(b *model.Block) *model.Block {
		return b.WithChildren(fn(b.Children))
	})
	if !ok {
		return doc
	}
	return out
}

func inRange(b *model.Block, from, to int) bool {
	return from >= 0 && from <= to && to <= model.GetBlockLength(b)
}
