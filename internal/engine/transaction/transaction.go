// Package transaction groups steps into immutable transactions.
//
// A Transaction is an ordered list of steps together with the selection and
// stored marks before and after it, the inverse steps that undo it and a
// little metadata. Transactions are built with a Builder, which computes
// each step's inverse against the document as it stands when the step is
// added, so a transaction can always be undone without consulting any later
// state.
package transaction

import (
	"time"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/step"
)

// Origin says where a transaction came from. It drives readonly gating and
// history grouping, never how the transaction applies.
type Origin string

// Transaction origins.
const (
	OriginInput   Origin = "input"
	OriginPaste   Origin = "paste"
	OriginCommand Origin = "command"
	OriginHistory Origin = "history"
	OriginAPI     Origin = "api"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginInput, OriginPaste, OriginCommand, OriginHistory, OriginAPI:
		return true
	}
	return false
}

// Metadata describes a transaction.
type Metadata struct {
	Origin          Origin
	ReadonlyAllowed bool
	Description     string
	Time            time.Time
}

// Transaction is an immutable batch of steps.
type Transaction struct {
	steps       []step.Step
	inverse     []step.Step
	selBefore   selection.Selection
	selAfter    selection.Selection
	marksBefore []model.Mark
	marksAfter  []model.Mark
	meta        Metadata
}

// Steps returns the steps in application order.
func (tr *Transaction) Steps() []step.Step {
	return append([]step.Step(nil), tr.steps...)
}

// InverseSteps returns the steps that undo the transaction, in application
// order.
func (tr *Transaction) InverseSteps() []step.Step {
	return append([]step.Step(nil), tr.inverse...)
}

// SelectionBefore returns the selection the transaction was built from.
func (tr *Transaction) SelectionBefore() selection.Selection { return tr.selBefore }

// SelectionAfter returns the selection requested after the transaction.
func (tr *Transaction) SelectionAfter() selection.Selection { return tr.selAfter }

// StoredMarksBefore returns the stored marks the transaction was built from.
func (tr *Transaction) StoredMarksBefore() []model.Mark { return tr.marksBefore }

// StoredMarksAfter returns the stored marks after the transaction.
func (tr *Transaction) StoredMarksAfter() []model.Mark { return tr.marksAfter }

// Metadata returns the transaction metadata.
func (tr *Transaction) Metadata() Metadata { return tr.meta }

// Origin is shorthand for Metadata().Origin.
func (tr *Transaction) Origin() Origin { return tr.meta.Origin }

// DocChanged reports whether any step edits the document.
func (tr *Transaction) DocChanged() bool {
	for _, s := range tr.steps {
		if step.ChangesDocument(s) {
			return true
		}
	}
	return false
}

// IsSelectionOnly reports whether the transaction only moves the selection
// or changes stored marks.
func (tr *Transaction) IsSelectionOnly() bool {
	return !tr.DocChanged()
}

// IsAllowedInReadonly reports whether a readonly editor may apply the
// transaction: selection-only transactions and those explicitly flagged.
func (tr *Transaction) IsAllowedInReadonly() bool {
	return tr.IsSelectionOnly() || tr.meta.ReadonlyAllowed
}

// SelectionChanged reports whether the selection after differs from before.
func (tr *Transaction) SelectionChanged() bool {
	return !selection.Equal(tr.selBefore, tr.selAfter)
}

// StoredMarksChanged reports whether the stored marks differ.
func (tr *Transaction) StoredMarksChanged() bool {
	if (tr.marksBefore == nil) != (tr.marksAfter == nil) {
		return true
	}
	return !model.MarksEqual(tr.marksBefore, tr.marksAfter)
}

// IsEmpty reports whether applying the transaction would change nothing.
func (tr *Transaction) IsEmpty() bool {
	return len(tr.steps) == 0 && !tr.SelectionChanged() && !tr.StoredMarksChanged()
}

// Inverse returns the transaction that undoes tr: the inverse steps, with
// selections and stored marks swapped. Its origin is OriginHistory.
func (tr *Transaction) Inverse() *Transaction {
	return &Transaction{
		steps:       tr.InverseSteps(),
		inverse:     tr.Steps(),
		selBefore:   tr.selAfter,
		selAfter:    tr.selBefore,
		marksBefore: tr.marksAfter,
		marksAfter:  tr.marksBefore,
		meta: Metadata{
			Origin:          OriginHistory,
			ReadonlyAllowed: tr.meta.ReadonlyAllowed,
			Description:     tr.meta.Description,
			Time:            tr.meta.Time,
		},
	}
}

// WithOrigin returns a copy of tr with a different origin.
func (tr *Transaction) WithOrigin(o Origin) *Transaction {
	cp := *tr
	cp.meta.Origin = o
	return &cp
}

// Concat returns a transaction that applies tr and then next. Its inverse
// undoes next first. Metadata comes from tr except the time, which is the
// later one.
func (tr *Transaction) Concat(next *Transaction) *Transaction {
	if next == nil {
		return tr
	}
	steps := make([]step.Step, 0, len(tr.steps)+len(next.steps))
	steps = append(steps, tr.steps...)
	steps = append(steps, next.steps...)
	inverse := make([]step.Step, 0, len(tr.inverse)+len(next.inverse))
	inverse = append(inverse, next.inverse...)
	inverse = append(inverse, tr.inverse...)
	meta := tr.meta
	if next.meta.Time.After(meta.Time) {
		meta.Time = next.meta.Time
	}
	meta.ReadonlyAllowed = tr.meta.ReadonlyAllowed && next.meta.ReadonlyAllowed
	return &Transaction{
		steps:       steps,
		inverse:     inverse,
		selBefore:   tr.selBefore,
		selAfter:    next.selAfter,
		marksBefore: tr.marksBefore,
		marksAfter:  next.marksAfter,
		meta:        meta,
	}
}
