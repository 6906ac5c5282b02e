package commands

import (
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// IsMarkActiveInRange reports whether every text run overlapping r carries
// a mark of type typ. Atoms are ignored; a range without text is inactive.
func IsMarkActiveInRange(st *state.EditorState, r selection.Range, typ model.MarkType) bool {
	return markActive(st, selection.Segments(r, st.GetBlockOrder(), st.BlockLength), typ, false)
}

// markActive scans the text runs of segs. With allowedOnly, blocks whose
// type rejects the mark are left out of the scan.
func markActive(st *state.EditorState, segs []selection.Segment, typ model.MarkType, allowedOnly bool) bool {
	seen := false
	for _, seg := range segs {
		blk, ok := st.GetBlock(seg.BlockID)
		if !ok || !blk.IsLeaf() {
			continue
		}
		if allowedOnly && !st.Schema().AllowsMark(blk.Type, typ) {
			continue
		}
		for _, run := range model.TextRunsInRange(blk.Children, seg.From, seg.To) {
			seen = true
			if !model.HasMark(run.Marks, typ) {
				return false
			}
		}
	}
	return seen
}

// IsMarkActive reports whether typ is active at the selection: in the marks
// the next typed character would get for a cursor, across the whole range
// otherwise.
func IsMarkActive(st *state.EditorState, typ model.MarkType) bool {
	ts, ok := st.Selection().(selection.TextSelection)
	if !ok {
		return false
	}
	if ts.IsCollapsed() {
		return model.HasMark(st.MarksAtCursor(ts.Head), typ)
	}
	r, ok := selection.ToRange(ts, st)
	return ok && IsMarkActiveInRange(st, r, typ)
}

// resolveMark checks that mark is declared and enabled and fills in its
// default attrs.
func resolveMark(st *state.EditorState, mark model.Mark) (model.Mark, bool) {
	if !st.MarkEnabled(mark.Type) {
		return model.Mark{}, false
	}
	attrs, err := st.Schema().ResolveMarkAttrs(mark.Type, mark.Attrs)
	if err != nil {
		return model.Mark{}, false
	}
	return model.NewMark(mark.Type, attrs), true
}

type markAction int

const (
	markToggle markAction = iota
	markSet
	markUnset
)

// ToggleMark flips mark on the selection. On a cursor it flips the stored
// marks; on a range it adds the mark everywhere unless the whole range
// already has it, in which case it is removed everywhere. Disabled,
// undeclared or disallowed marks give nil.
func ToggleMark(st *state.EditorState, mark model.Mark) *transaction.Transaction {
	return changeMark(st, mark, markToggle)
}

// SetMark applies mark to the selection without toggling.
func SetMark(st *state.EditorState, mark model.Mark) *transaction.Transaction {
	return changeMark(st, mark, markSet)
}

// UnsetMark removes marks of type typ from the selection.
func UnsetMark(st *state.EditorState, typ model.MarkType) *transaction.Transaction {
	if !st.Schema().HasMark(typ) {
		return nil
	}
	return changeMark(st, model.Mark{Type: typ}, markUnset)
}

func changeMark(st *state.EditorState, mark model.Mark, action markAction) *transaction.Transaction {
	if action != markUnset {
		var ok bool
		if mark, ok = resolveMark(st, mark); !ok {
			return nil
		}
	}
	ts, ok := st.Selection().(selection.TextSelection)
	if !ok {
		return nil
	}
	if ts.IsCollapsed() {
		return storedMark(st, ts.Head, mark, action)
	}
	r, ok := selection.ToRange(ts, st)
	if !ok {
		return nil
	}
	segs := selection.Segments(r, st.GetBlockOrder(), st.BlockLength)
	remove := action == markUnset
	if action == markToggle {
		remove = markActive(st, segs, mark.Type, true)
	}

	b := st.Transaction(transaction.OriginCommand)
	for _, seg := range segs {
		blk, ok := st.GetBlock(seg.BlockID)
		if !ok || seg.From >= seg.To || !isTextBlock(st, seg.BlockID) {
			continue
		}
		if !st.Schema().AllowsMark(blk.Type, mark.Type) {
			continue
		}
		if remove {
			b.RemoveMark(seg.BlockID, seg.From, seg.To, mark)
		} else {
			b.AddMark(seg.BlockID, seg.From, seg.To, mark)
		}
	}
	if b.StepCount() == 0 {
		return nil
	}
	return b.Describe("mark " + string(mark.Type)).Build()
}

// storedMark changes the marks queued for the next typed character. When
// the result matches what the cursor would pick up anyway the stored marks
// are cleared.
func storedMark(st *state.EditorState, pos selection.Position, mark model.Mark, action markAction) *transaction.Transaction {
	blk, ok := st.GetBlock(pos.BlockID)
	if !ok || !isTextBlock(st, pos.BlockID) || !st.Schema().AllowsMark(blk.Type, mark.Type) {
		return nil
	}
	current := st.MarksAtCursor(pos)
	var next []model.Mark
	switch {
	case action == markUnset, action == markToggle && model.HasMark(current, mark.Type):
		// An empty, non-nil set overrides marks inherited from the text.
		next = append([]model.Mark{}, model.RemoveFromMarkSet(current, mark.Type)...)
	default:
		next = model.AddToMarkSet(current, mark)
	}
	if model.MarksEqual(next, model.GetBlockMarksAtOffset(blk, pos.Offset)) {
		next = nil
	}
	if next == nil && st.StoredMarks() == nil && action != markToggle {
		return nil
	}
	b := st.Transaction(transaction.OriginCommand)
	b.SetStoredMarks(next)
	return b.Describe("stored mark " + string(mark.Type)).Build()
}

// ToggleBold toggles bold.
func ToggleBold(st *state.EditorState) *transaction.Transaction {
	return ToggleMark(st, model.Mark{Type: schema.Bold})
}

// ToggleItalic toggles italic.
func ToggleItalic(st *state.EditorState) *transaction.Transaction {
	return ToggleMark(st, model.Mark{Type: schema.Italic})
}

// ToggleUnderline toggles underline.
func ToggleUnderline(st *state.EditorState) *transaction.Transaction {
	return ToggleMark(st, model.Mark{Type: schema.Underline})
}

// ToggleStrike toggles strike-through.
func ToggleStrike(st *state.EditorState) *transaction.Transaction {
	return ToggleMark(st, model.Mark{Type: schema.Strike})
}

// ToggleCode toggles inline code.
func ToggleCode(st *state.EditorState) *transaction.Transaction {
	return ToggleMark(st, model.Mark{Type: schema.Code})
}
