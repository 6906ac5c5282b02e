package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/blockstorm/internal/engine/transaction"
	"github.com/dshills/blockstorm/internal/logging"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Defaults used when NewHistory gets zero values.
const (
	DefaultMaxEntries = 1000
	DefaultGroupDelay = 500 * time.Millisecond
)

// entry is one undo unit: the concatenation of every transaction it
// absorbed.
type entry struct {
	name   string
	tr     *transaction.Transaction
	count  int
	sealed bool
}

// OperationInfo provides read-only info about an undo entry.
// Used for displaying undo/redo history to users.
type OperationInfo struct {
	Description  string    // Human-readable description
	Timestamp    time.Time // Time of the last transaction in the entry
	Transactions int       // Number of transactions merged into the entry
	Steps        int       // Number of steps undone or redone
}

// History manages undo/redo state for an editor.
type History struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	// Grouping state
	grouping  bool
	groupName string
	group     *transaction.Transaction
	groupLen  int

	// Configuration
	maxEntries int
	groupDelay time.Duration
	logger     *logging.Logger
}

// Option configures a History.
type Option func(*History)

// WithGroupDelay sets the window within which consecutive typing merges
// into one entry. Zero disables time grouping.
func WithGroupDelay(d time.Duration) Option {
	return func(h *History) { h.groupDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *History) { h.logger = l.WithCategory(logging.CatHistory) }
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int, opts ...Option) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	h := &History{
		maxEntries: maxEntries,
		groupDelay: DefaultGroupDelay,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record adds an applied transaction to the history and reports whether it
// was kept. Transactions that leave the document alone only break the
// current typing run.
func (h *History) Record(tr *transaction.Transaction) bool {
	if tr == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !tr.DocChanged() {
		if tr.SelectionChanged() {
			h.sealLocked()
		}
		return false
	}
	if tr.Origin() == transaction.OriginHistory {
		return false
	}

	if h.grouping {
		if h.group == nil {
			h.group = tr
			h.redoStack = nil
		} else {
			h.group = h.group.Concat(tr)
		}
		h.groupLen++
		return true
	}

	if top := h.topLocked(); top != nil && h.joinable(top, tr) {
		top.tr = top.tr.Concat(tr)
		top.count++
		h.redoStack = nil
		h.logger.Debug("merged %q into undo entry (%d transactions)", tr.Metadata().Description, top.count)
		return true
	}

	h.pushLocked(&entry{name: tr.Metadata().Description, tr: tr, count: 1})
	return true
}

// joinable reports whether tr continues the typing run of top.
func (h *History) joinable(top *entry, tr *transaction.Transaction) bool {
	if top.sealed || h.groupDelay <= 0 {
		return false
	}
	if tr.Origin() != transaction.OriginInput || top.tr.Origin() != transaction.OriginInput {
		return false
	}
	gap := tr.Metadata().Time.Sub(top.tr.Metadata().Time)
	return gap >= 0 && gap <= h.groupDelay
}

func (h *History) topLocked() *entry {
	if len(h.undoStack) == 0 {
		return nil
	}
	return h.undoStack[len(h.undoStack)-1]
}

// pushLocked adds an entry without acquiring the lock.
func (h *History) pushLocked(e *entry) {
	h.undoStack = append(h.undoStack, e)

	// Clear redo stack
	h.redoStack = nil

	// Enforce max entries
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
		h.logger.Debug("dropped %d oldest undo entries", excess)
	}
}

func (h *History) sealLocked() {
	if top := h.topLocked(); top != nil {
		top.sealed = true
	}
}

// Seal ends the current typing run; the next edit starts a new entry.
func (h *History) Seal() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sealLocked()
}

// Undo pops the last entry and returns the transaction that reverts it. The
// caller applies it; it carries the history origin so recording it again is
// a no-op.
func (h *History) Undo() (*transaction.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.topLocked()
	if e == nil {
		return nil, ErrNothingToUndo
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	e.sealed = true
	h.redoStack = append(h.redoStack, e)
	return e.tr.Inverse(), nil
}

// Redo pops the last undone entry and returns the transaction that
// reapplies it.
func (h *History) Redo() (*transaction.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, e)
	return e.tr.WithOrigin(transaction.OriginHistory), nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo operations available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// BeginGroup starts a transaction group.
// Transactions recorded while grouping become a single undo unit.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		// Already grouping, ignore nested calls
		return
	}

	h.grouping = true
	h.groupName = name
	h.group = nil
	h.groupLen = 0
}

// EndGroup finishes a transaction group and pushes it as one entry.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return
	}
	h.grouping = false
	if h.group == nil {
		return
	}

	name := h.groupName
	if name == "" {
		name = h.group.Metadata().Description
	}
	h.pushLocked(&entry{name: name, tr: h.group, count: h.groupLen, sealed: true})
	h.group = nil
	h.groupLen = 0
}

// CancelGroup drops the open group without adding it to history. The
// edits already applied stay in the document; the returned transaction
// reverts them and is nil when the group was empty.
func (h *History) CancelGroup() *transaction.Transaction {
	revert, _ := h.CancelGroupIf(nil)
	return revert
}

// CancelGroupIf is CancelGroup guarded by allow, which sees the revert
// transaction before the group is dropped. When allow rejects it the group
// stays open and ok is false. A nil allow accepts everything.
func (h *History) CancelGroupIf(allow func(revert *transaction.Transaction) bool) (revert *transaction.Transaction, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping && h.group != nil {
		revert = h.group.Inverse()
	}
	if revert != nil && allow != nil && !allow(revert) {
		return nil, false
	}
	h.grouping = false
	h.group = nil
	h.groupLen = 0
	return revert, true
}

// IsGrouping returns true if currently in a group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.group = nil
	h.groupLen = 0
}

func info(e *entry) OperationInfo {
	return OperationInfo{
		Description:  e.name,
		Timestamp:    e.tr.Metadata().Time,
		Transactions: e.count,
		Steps:        len(e.tr.Steps()),
	}
}

// UndoInfo returns info about available undo operations, oldest first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]OperationInfo, len(h.undoStack))
	for i, e := range h.undoStack {
		result[i] = info(e)
	}
	return result
}

// RedoInfo returns info about available redo operations.
func (h *History) RedoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]OperationInfo, len(h.redoStack))
	for i, e := range h.redoStack {
		result[i] = info(e)
	}
	return result
}

// PeekUndo returns info about the next undo operation without removing it.
func (h *History) PeekUndo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return OperationInfo{}, false
	}
	return info(h.undoStack[len(h.undoStack)-1]), true
}

// PeekRedo returns info about the next redo operation without removing it.
func (h *History) PeekRedo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return OperationInfo{}, false
	}
	return info(h.redoStack[len(h.redoStack)-1]), true
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max

	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = h.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
