package step

import (
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// AddMark adds Mark to the text in [From, To) of a leaf block, replacing any
// mark of the same type. InlineNodes are untouched.
type AddMark struct {
	BlockID model.BlockID `json:"blockId"`
	From    int           `json:"from"`
	To      int           `json:"to"`
	Mark    model.Mark    `json:"mark"`
}

// Type implements Step.
func (AddMark) Type() Type { return TypeAddMark }

// Apply implements Step.
func (s AddMark) Apply(doc *model.Document) *model.Document {
	_, from, to, ok := markRange(doc, s.BlockID, s.From, s.To)
	if !ok {
		return doc
	}
	return updateLeaf(doc, s.BlockID, func(c []model.Node) []model.Node {
		return model.ApplyMarkToContent(c, from, to, s.Mark)
	})
}

// Invert implements Step. Each run keeps exactly the marks it had: runs that
// lacked the type lose it again, runs that had a different mark of the type
// get that mark back.
func (s AddMark) Invert(pre *model.Document) []Step {
	b, from, to, ok := markRange(pre, s.BlockID, s.From, s.To)
	if !ok {
		return nil
	}
	var out []Step
	for _, run := range model.TextRunsInRange(b.Children, from, to) {
		prev, had := model.FindMark(run.Marks, s.Mark.Type)
		switch {
		case !had:
			out = append(out, RemoveMark{BlockID: s.BlockID, From: run.From, To: run.To, Mark: s.Mark})
		case !prev.Equal(s.Mark):
			out = append(out, AddMark{BlockID: s.BlockID, From: run.From, To: run.To, Mark: prev})
		}
	}
	return out
}

func (s AddMark) String() string {
	return fmt.Sprintf("addMark(%s %d..%d %s)", s.BlockID, s.From, s.To, s.Mark.Type)
}

// RemoveMark removes marks of Mark.Type from the text in [From, To).
type RemoveMark struct {
	BlockID model.BlockID `json:"blockId"`
	From    int           `json:"from"`
	To      int           `json:"to"`
	Mark    model.Mark    `json:"mark"`
}

// Type implements Step.
func (RemoveMark) Type() Type { return TypeRemoveMark }

// Apply implements Step.
func (s RemoveMark) Apply(doc *model.Document) *model.Document {
	_, from, to, ok := markRange(doc, s.BlockID, s.From, s.To)
	if !ok {
		return doc
	}
	return updateLeaf(doc, s.BlockID, func(c []model.Node) []model.Node {
		return model.RemoveMarkFromContent(c, from, to, s.Mark.Type)
	})
}

// Invert implements Step. Runs that carried the type get their own mark
// back, attributes included.
func (s RemoveMark) Invert(pre *model.Document) []Step {
	b, from, to, ok := markRange(pre, s.BlockID, s.From, s.To)
	if !ok {
		return nil
	}
	var out []Step
	for _, run := range model.TextRunsInRange(b.Children, from, to) {
		if prev, had := model.FindMark(run.Marks, s.Mark.Type); had {
			out = append(out, AddMark{BlockID: s.BlockID, From: run.From, To: run.To, Mark: prev})
		}
	}
	return out
}

func (s RemoveMark) String() string {
	return fmt.Sprintf("removeMark(%s %d..%d %s)", s.BlockID, s.From, s.To, s.Mark.Type)
}

// markRange resolves [from, to) in a leaf block with both ends floored to
// character boundaries.
func markRange(doc *model.Document, id model.BlockID, from, to int) (*model.Block, int, int, bool) {
	b, ok := leaf(doc, id)
	if !ok {
		return nil, 0, 0, false
	}
	from, to = model.SnapOffset(b, from), model.SnapOffset(b, to)
	if from >= to || !inRange(b, from, to) {
		return nil, 0, 0, false
	}
	return b, from, to, true
}

// SetStoredMarks replaces the stored marks of the editor state. It does not
// touch the document.
type SetStoredMarks struct {
	Marks    []model.Mark `json:"marks"`
	Previous []model.Mark `json:"previous"`
}

// Type implements Step.
func (SetStoredMarks) Type() Type { return TypeSetStoredMarks }

// Apply implements Step.
func (SetStoredMarks) Apply(doc *model.Document) *model.Document { return doc }

// Invert implements Step.
func (s SetStoredMarks) Invert(*model.Document) []Step {
	return []Step{SetStoredMarks{Marks: s.Previous, Previous: s.Marks}}
}

func (s SetStoredMarks) String() string {
	return fmt.Sprintf("setStoredMarks(%d)", len(s.Marks))
}
