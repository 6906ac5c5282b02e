package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// editor applies transactions and records them, the way the engine does.
type editor struct {
	st *state.EditorState
	h  *History
}

func newEditor(maxEntries int, opts ...Option) *editor {
	doc := model.NewDocument(model.NewBlock("p", schema.Paragraph, nil))
	return &editor{
		st: state.Create(state.WithDoc(doc), state.WithSelection(selection.Cursor("p", 0))),
		h:  NewHistory(maxEntries, opts...),
	}
}

func (e *editor) text() string {
	b, _ := e.st.GetBlock("p")
	return model.GetBlockText(b)
}

// typeText inserts s at the cursor as if typed at time at.
func (e *editor) typeText(s string, origin transaction.Origin, at time.Time) *transaction.Transaction {
	head := e.st.Selection().(selection.TextSelection).Head
	tr := e.st.Transaction(origin).
		InsertText(head.BlockID, head.Offset, s, nil).
		SetSelection(selection.Cursor(head.BlockID, head.Offset+len(s))).
		Describe("type " + s).
		At(at).
		Build()
	e.apply(tr)
	return tr
}

func (e *editor) apply(tr *transaction.Transaction) bool {
	e.st = e.st.Apply(tr)
	return e.h.Record(tr)
}

func (e *editor) undo(t *testing.T) {
	t.Helper()
	tr, err := e.h.Undo()
	require.NoError(t, err)
	require.False(t, e.apply(tr), "undo must not be recorded")
}

func (e *editor) redo(t *testing.T) {
	t.Helper()
	tr, err := e.h.Redo()
	require.NoError(t, err)
	require.False(t, e.apply(tr), "redo must not be recorded")
}

func TestHistoryPushAndUndo(t *testing.T) {
	e := newEditor(0)
	e.typeText("hello", transaction.OriginCommand, t0)
	e.typeText(" world", transaction.OriginCommand, t0)
	require.Equal(t, 2, e.h.UndoCount())

	e.undo(t)
	require.Equal(t, "hello", e.text())
	require.True(t, selection.Equal(selection.Cursor("p", 5), e.st.Selection()), "undo restores the selection")

	e.undo(t)
	require.Equal(t, "", e.text())

	_, err := e.h.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo)
}

func TestHistoryRedo(t *testing.T) {
	e := newEditor(0)
	e.typeText("hello", transaction.OriginCommand, t0)
	e.undo(t)
	require.True(t, e.h.CanRedo())

	e.redo(t)
	require.Equal(t, "hello", e.text())
	require.True(t, selection.Equal(selection.Cursor("p", 5), e.st.Selection()))
	require.False(t, e.h.CanRedo())

	_, err := e.h.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)
}

func TestHistoryRedoClearedOnPush(t *testing.T) {
	e := newEditor(0)
	e.typeText("a", transaction.OriginCommand, t0)
	e.undo(t)
	require.Equal(t, 1, e.h.RedoCount())

	e.typeText("b", transaction.OriginCommand, t0)
	require.Equal(t, 0, e.h.RedoCount())
}

func TestHistoryTypingGroups(t *testing.T) {
	e := newEditor(0, WithGroupDelay(time.Second))
	e.typeText("a", transaction.OriginInput, t0)
	e.typeText("b", transaction.OriginInput, t0.Add(300*time.Millisecond))
	e.typeText("c", transaction.OriginInput, t0.Add(600*time.Millisecond))
	require.Equal(t, 1, e.h.UndoCount())

	e.typeText("d", transaction.OriginInput, t0.Add(5*time.Second))
	require.Equal(t, 2, e.h.UndoCount(), "a pause starts a new entry")

	info, ok := e.h.PeekUndo()
	require.True(t, ok)
	require.Equal(t, 1, info.Transactions)

	e.undo(t)
	require.Equal(t, "abc", e.text())
	e.undo(t)
	require.Equal(t, "", e.text())

	e.redo(t)
	require.Equal(t, "abc", e.text())
}

func TestHistoryGroupingBreaks(t *testing.T) {
	e := newEditor(0)
	e.typeText("a", transaction.OriginInput, t0)
	e.typeText("b", transaction.OriginCommand, t0)
	e.typeText("c", transaction.OriginInput, t0)
	require.Equal(t, 3, e.h.UndoCount(), "only typing joins typing")

	move := e.st.Transaction(transaction.OriginCommand).SetSelection(selection.Cursor("p", 0)).Build()
	require.False(t, e.apply(move))
	e.typeText("d", transaction.OriginInput, t0)
	require.Equal(t, 4, e.h.UndoCount(), "moving the caret ends the run")

	e.h.Seal()
	e.typeText("e", transaction.OriginInput, t0)
	require.Equal(t, 5, e.h.UndoCount())
}

func TestHistorySkipsNonEdits(t *testing.T) {
	e := newEditor(0)
	require.False(t, e.h.Record(nil))

	marks := e.st.Transaction(transaction.OriginCommand).SetStoredMarks([]model.Mark{model.NewMark(schema.Bold, nil)}).Build()
	require.False(t, e.apply(marks))

	tr := e.typeText("x", transaction.OriginCommand, t0)
	require.False(t, e.h.Record(tr.WithOrigin(transaction.OriginHistory)))
	require.Equal(t, 1, e.h.UndoCount())
}

func TestHistoryMaxEntries(t *testing.T) {
	e := newEditor(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		e.typeText(s, transaction.OriginCommand, t0)
	}
	require.Equal(t, 3, e.h.UndoCount())

	e.h.SetMaxEntries(2)
	require.Equal(t, 2, e.h.UndoCount())
	require.Equal(t, 2, e.h.MaxEntries())

	e.h.SetMaxEntries(0)
	require.Equal(t, DefaultMaxEntries, e.h.MaxEntries())
}

func TestHistoryClear(t *testing.T) {
	e := newEditor(0)
	e.typeText("a", transaction.OriginCommand, t0)
	e.typeText("b", transaction.OriginCommand, t0)
	e.undo(t)
	e.h.Clear()
	require.False(t, e.h.CanUndo())
	require.False(t, e.h.CanRedo())
}

func TestHistoryGrouping(t *testing.T) {
	e := newEditor(0)
	e.h.BeginGroup("replace all")
	e.h.BeginGroup("nested is ignored")
	require.True(t, e.h.IsGrouping())
	e.typeText("a", transaction.OriginCommand, t0)
	e.typeText("b", transaction.OriginInput, t0)
	e.typeText("c", transaction.OriginCommand, t0)
	require.Equal(t, 0, e.h.UndoCount())
	e.h.EndGroup()

	require.False(t, e.h.IsGrouping())
	require.Equal(t, 1, e.h.UndoCount())
	info, _ := e.h.PeekUndo()
	require.Equal(t, "replace all", info.Description)
	require.Equal(t, 3, info.Transactions)
	require.Equal(t, 3, info.Steps)

	e.undo(t)
	require.Equal(t, "", e.text())
	e.redo(t)
	require.Equal(t, "abc", e.text())

	e.h.BeginGroup("empty")
	e.h.EndGroup()
	require.Equal(t, 1, e.h.UndoCount(), "an empty group adds nothing")
}

func TestHistoryCancelGroup(t *testing.T) {
	e := newEditor(0)
	e.typeText("keep", transaction.OriginCommand, t0)
	e.h.BeginGroup("scratch")
	e.typeText("1", transaction.OriginCommand, t0)
	e.typeText("2", transaction.OriginCommand, t0)

	revert := e.h.CancelGroup()
	require.NotNil(t, revert)
	require.False(t, e.apply(revert))
	require.Equal(t, "keep", e.text())
	require.Equal(t, 1, e.h.UndoCount())

	require.Nil(t, e.h.CancelGroup(), "nothing open")
}

func TestHistoryCancelGroupIf(t *testing.T) {
	e := newEditor(0)
	e.h.BeginGroup("guarded")
	e.typeText("x", transaction.OriginCommand, t0)

	revert, ok := e.h.CancelGroupIf(func(*transaction.Transaction) bool { return false })
	require.False(t, ok)
	require.Nil(t, revert)
	require.True(t, e.h.IsGrouping(), "a rejected cancel keeps the group open")

	revert, ok = e.h.CancelGroupIf(func(tr *transaction.Transaction) bool { return tr.DocChanged() })
	require.True(t, ok)
	require.False(t, e.apply(revert))
	require.Equal(t, "", e.text())
	require.False(t, e.h.IsGrouping())
}

func TestHistoryGroupClearsRedo(t *testing.T) {
	e := newEditor(0)
	e.typeText("a", transaction.OriginCommand, t0)
	e.undo(t)
	require.True(t, e.h.CanRedo())

	e.h.BeginGroup("group")
	require.True(t, e.h.CanRedo(), "opening a group is not an edit")
	e.typeText("b", transaction.OriginCommand, t0)
	require.False(t, e.h.CanRedo(), "the first grouped edit invalidates redo")
	_, err := e.h.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)
	e.h.EndGroup()
	require.Equal(t, 1, e.h.UndoCount())
}

func TestHistoryUndoInfo(t *testing.T) {
	e := newEditor(0)
	e.typeText("a", transaction.OriginCommand, t0)
	e.typeText("b", transaction.OriginCommand, t0.Add(time.Minute))

	infos := e.h.UndoInfo()
	require.Len(t, infos, 2)
	require.Equal(t, "type a", infos[0].Description)
	require.Equal(t, t0.Add(time.Minute), infos[1].Timestamp)

	e.undo(t)
	redo := e.h.RedoInfo()
	require.Len(t, redo, 1)
	require.Equal(t, "type b", redo[0].Description)
	peek, ok := e.h.PeekRedo()
	require.True(t, ok)
	require.Equal(t, "type b", peek.Description)
}

func TestHistoryCheckpoint(t *testing.T) {
	e := newEditor(0)
	e.typeText("a", transaction.OriginCommand, t0)
	cp := e.h.CreateCheckpoint()
	e.typeText("b", transaction.OriginCommand, t0)
	e.typeText("c", transaction.OriginCommand, t0)

	tr, err := e.h.UndoSince(cp)
	require.NoError(t, err)
	require.False(t, e.apply(tr))
	require.Equal(t, "a", e.text())
	require.Equal(t, 2, e.h.RedoCount())

	_, err = e.h.UndoSince(cp)
	require.ErrorIs(t, err, ErrNothingToUndo)

	e.redo(t)
	e.redo(t)
	require.Equal(t, "abc", e.text(), "redo replays the entries in order")
}
