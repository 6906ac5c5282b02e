package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/blockstorm/internal/engine/commands"
	"github.com/dshills/blockstorm/internal/engine/history"
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/tracking"
	"github.com/dshills/blockstorm/internal/engine/transaction"
	"github.com/dshills/blockstorm/internal/logging"
)

const tracerName = "github.com/dshills/blockstorm/internal/engine"

// Re-export commonly used types for convenience.
type (
	// RevisionID identifies a document revision.
	RevisionID = tracking.RevisionID

	// SnapshotID uniquely identifies a named snapshot.
	SnapshotID = tracking.SnapshotID

	// Change represents a tracked change.
	Change = tracking.Change

	// ChangeSet groups the changes over a span of revisions.
	ChangeSet = tracking.ChangeSet

	// DiffResult contains the result of a diff operation.
	DiffResult = tracking.DiffResult

	// DiffOptions configures diff computation.
	DiffOptions = tracking.DiffOptions

	// OperationInfo describes an undo or redo entry.
	OperationInfo = history.OperationInfo
)

// Update describes a state change delivered to listeners.
type Update struct {
	// Transaction is nil when the state was replaced by Load or SetState.
	Transaction *transaction.Transaction
	Before      *state.EditorState
	After       *state.EditorState
	Revision    RevisionID
}

// DocChanged reports whether the document differs between Before and After.
func (u Update) DocChanged() bool {
	return u.Before == nil || u.Before.Doc() != u.After.Doc()
}

// Listener receives updates after they are applied. Listeners run on the
// dispatching goroutine after the engine lock is released.
type Listener func(Update)

// Engine is the dispatch boundary around an immutable EditorState. It owns
// the current state together with undo history, change tracking and the
// command registry.
//
// All operations are thread-safe. Dispatch calls are serialized.
type Engine struct {
	mu sync.RWMutex

	state    *state.EditorState
	history  *history.History
	tracker  *tracking.Tracker
	registry *commands.Registry

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int

	// Configuration
	doc            *model.Document
	schema         *schema.Schema
	features       schema.Features
	ids            model.IDGenerator
	maxUndoEntries int
	groupDelay     time.Duration
	maxChanges     int
	maxRevisions   int
	readOnly       bool
	tracer         trace.Tracer
	logger         *logging.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxUndoEntries: DefaultMaxUndoEntries,
		groupDelay:     DefaultGroupDelay,
		maxChanges:     DefaultMaxChanges,
		maxRevisions:   DefaultMaxRevisions,
		listeners:      make(map[int]Listener),
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithCategory(logging.CatEngine)
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.registry == nil {
		e.registry = commands.DefaultRegistry()
	}
	if e.state == nil {
		e.state = state.Create(append(e.stateOptions(), state.WithDoc(e.doc))...)
	}

	e.history = history.NewHistory(e.maxUndoEntries,
		history.WithGroupDelay(e.groupDelay),
		history.WithLogger(e.logger),
	)
	e.tracker = tracking.NewTracker(
		tracking.WithMaxChanges(e.maxChanges),
		tracking.WithMaxRevisions(e.maxRevisions),
	)
	e.tracker.Reset(e.state)
	return e
}

// stateOptions are the options used for every state the engine creates.
func (e *Engine) stateOptions() []state.Option {
	opts := []state.Option{state.WithLogger(e.logger)}
	if e.schema != nil {
		opts = append(opts, state.WithSchema(e.schema))
	}
	if e.features != nil {
		opts = append(opts, state.WithFeatures(e.features))
	}
	if e.ids != nil {
		opts = append(opts, state.WithIDGenerator(e.ids))
	}
	return opts
}

// State returns the current state.
func (e *Engine) State() *state.EditorState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Registry returns the command registry.
func (e *Engine) Registry() *commands.Registry {
	return e.registry
}

// Dispatch applies tr to the current state, records it in history and
// change tracking, and notifies listeners. A nil transaction is a no-op.
// Read-only engines reject transactions not marked readonly-allowed.
func (e *Engine) Dispatch(ctx context.Context, tr *transaction.Transaction) error {
	if tr == nil {
		return nil
	}
	_, span := e.tracer.Start(ctx, "engine.dispatch", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("tx.origin", string(tr.Origin())),
		attribute.Int("tx.steps", len(tr.Steps())),
	)

	e.mu.Lock()
	if e.readOnly && !tr.IsAllowedInReadonly() {
		e.mu.Unlock()
		return spanError(span, ErrReadOnly)
	}
	u := e.applyLocked(tr, true)
	e.mu.Unlock()

	span.SetAttributes(attribute.Int64("doc.revision", int64(u.Revision)))
	span.SetStatus(codes.Ok, "")
	e.notify(u)
	return nil
}

// applyLocked applies tr and feeds history and tracking (must hold lock).
func (e *Engine) applyLocked(tr *transaction.Transaction, record bool) Update {
	before := e.state
	after := before.Apply(tr)
	e.state = after
	if record {
		e.history.Record(tr)
	}
	rev := e.tracker.Record(tr, before, after)
	if tr.DocChanged() {
		e.logger.Debug("applied %s transaction (%d steps) at revision %d", tr.Origin(), len(tr.Steps()), rev)
	}
	return Update{Transaction: tr, Before: before, After: after, Revision: rev}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Run computes cmd against the current state and dispatches the result. It
// reports whether the command applied.
func (e *Engine) Run(ctx context.Context, cmd commands.Command) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "engine.run")
	defer span.End()

	e.mu.Lock()
	tr := cmd(e.state)
	if tr == nil {
		e.mu.Unlock()
		span.SetAttributes(attribute.Bool("command.applied", false))
		return false, nil
	}
	if e.readOnly && !tr.IsAllowedInReadonly() {
		e.mu.Unlock()
		return false, spanError(span, ErrReadOnly)
	}
	u := e.applyLocked(tr, true)
	e.mu.Unlock()

	span.SetAttributes(attribute.Bool("command.applied", true))
	e.notify(u)
	return true, nil
}

// Execute runs a registered command by name.
func (e *Engine) Execute(ctx context.Context, name string) (bool, error) {
	cmd, ok := e.registry.Get(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	ctx, span := e.tracer.Start(ctx, "engine.execute",
		trace.WithAttributes(attribute.String("command.name", name)))
	defer span.End()
	return e.Run(ctx, cmd)
}

// Undo/Redo Operations

// Undo reverts the last history entry.
func (e *Engine) Undo(ctx context.Context) error {
	return e.travel(ctx, "engine.undo", e.history.Undo)
}

// Redo reapplies the last undone entry.
func (e *Engine) Redo(ctx context.Context) error {
	return e.travel(ctx, "engine.redo", e.history.Redo)
}

func (e *Engine) travel(ctx context.Context, name string, pop func() (*transaction.Transaction, error)) error {
	_, span := e.tracer.Start(ctx, name)
	defer span.End()

	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return spanError(span, ErrReadOnly)
	}
	tr, err := pop()
	if err != nil {
		e.mu.Unlock()
		return spanError(span, err)
	}
	u := e.applyLocked(tr, false)
	e.mu.Unlock()

	span.SetAttributes(attribute.Int("tx.steps", len(tr.Steps())))
	e.notify(u)
	return nil
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of undo entries.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of redo entries.
func (e *Engine) RedoCount() int {
	return e.history.RedoCount()
}

// UndoInfo describes the undo entries, oldest first.
func (e *Engine) UndoInfo() []OperationInfo {
	return e.history.UndoInfo()
}

// BeginUndoGroup starts grouping dispatched transactions into one undo entry.
func (e *Engine) BeginUndoGroup(name string) {
	e.history.BeginGroup(name)
}

// EndUndoGroup ends the current undo group.
func (e *Engine) EndUndoGroup() {
	e.history.EndGroup()
}

// CancelUndoGroup drops the current group and reverts its edits. A
// read-only engine refuses a revert that would change the document and
// leaves the group open.
func (e *Engine) CancelUndoGroup(ctx context.Context) error {
	_, span := e.tracer.Start(ctx, "engine.cancel_group")
	defer span.End()

	e.mu.Lock()
	revert, ok := e.history.CancelGroupIf(func(tr *transaction.Transaction) bool {
		return !e.readOnly || tr.IsAllowedInReadonly()
	})
	if !ok {
		e.mu.Unlock()
		return spanError(span, ErrReadOnly)
	}
	if revert == nil {
		e.mu.Unlock()
		return nil
	}
	u := e.applyLocked(revert, false)
	e.mu.Unlock()
	e.notify(u)
	return nil
}

// Grouped runs fn inside an undo group named name. When fn fails the
// group's edits are reverted and fn's error is returned; otherwise the
// group becomes one undo entry.
func (e *Engine) Grouped(ctx context.Context, name string, fn func() error) error {
	e.BeginUndoGroup(name)
	if err := fn(); err != nil {
		if cerr := e.CancelUndoGroup(ctx); cerr != nil {
			e.EndUndoGroup()
			e.logger.Warn("could not revert group %q: %v", name, cerr)
		}
		return err
	}
	e.EndUndoGroup()
	return nil
}

// Checkpoint marks a point in undo history.
type Checkpoint = history.Checkpoint

// CreateCheckpoint marks the current undo depth.
func (e *Engine) CreateCheckpoint() Checkpoint {
	return e.history.CreateCheckpoint()
}

// UndoSince reverts every undo entry recorded after cp in one step.
func (e *Engine) UndoSince(ctx context.Context, cp Checkpoint) error {
	return e.travel(ctx, "engine.undo_since", func() (*transaction.Transaction, error) {
		return e.history.UndoSince(cp)
	})
}

// SealHistory ends the current typing run.
func (e *Engine) SealHistory() {
	e.history.Seal()
}

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

// Listeners

// Subscribe registers l and returns a function that removes it.
func (e *Engine) Subscribe(l Listener) func() {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = l
	return func() {
		e.listenerMu.Lock()
		defer e.listenerMu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Engine) notify(u Update) {
	e.listenerMu.Lock()
	ls := make([]Listener, 0, len(e.listeners))
	for i := 0; i < e.nextListener; i++ {
		if l, ok := e.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	e.listenerMu.Unlock()
	for _, l := range ls {
		l(u)
	}
}

// Persistence

// Load replaces the state with a JSON snapshot read from r. History and
// change tracking start over; snapshots are kept.
func (e *Engine) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	st, err := state.FromJSON(data, e.stateOptions()...)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	e.SetState(st)
	return nil
}

// Save writes the current state as a JSON snapshot to w.
func (e *Engine) Save(w io.Writer) error {
	data, err := e.State().ToJSON()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// SetState replaces the current state, clearing history and tracking.
func (e *Engine) SetState(st *state.EditorState) {
	e.mu.Lock()
	before := e.state
	e.state = st
	e.history.Clear()
	e.tracker.Reset(st)
	e.mu.Unlock()
	e.notify(Update{Before: before, After: st})
}

// Snapshot and Tracking Operations

// CreateSnapshot pins the current state under name.
func (e *Engine) CreateSnapshot(name string) SnapshotID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.CreateSnapshot(name, e.state)
}

// GetSnapshot retrieves a snapshot by ID.
func (e *Engine) GetSnapshot(id SnapshotID) (*tracking.Snapshot, error) {
	return e.tracker.GetSnapshot(id)
}

// GetSnapshotByName retrieves a snapshot by name.
func (e *Engine) GetSnapshotByName(name string) (*tracking.Snapshot, error) {
	return e.tracker.GetSnapshotByName(name)
}

// DeleteSnapshot removes a snapshot.
func (e *Engine) DeleteSnapshot(id SnapshotID) {
	e.tracker.DeleteSnapshot(id)
}

// DeleteSnapshotByName removes the snapshot called name.
func (e *Engine) DeleteSnapshotByName(name string) {
	e.tracker.DeleteSnapshotByName(name)
}

// ListSnapshots returns all snapshots, oldest first.
func (e *Engine) ListSnapshots() []*tracking.Snapshot {
	return e.tracker.ListSnapshots()
}

// PruneSnapshots removes snapshots older than maxAge and returns how many
// went.
func (e *Engine) PruneSnapshots(maxAge time.Duration) int {
	return e.tracker.PruneSnapshots(maxAge)
}

// KeepSnapshots keeps the n newest snapshots and returns how many went.
func (e *Engine) KeepSnapshots(n int) int {
	return e.tracker.KeepSnapshots(n)
}

// RestoreSnapshot dispatches a transaction that brings the document back
// to a snapshot. It is undoable like any other edit.
func (e *Engine) RestoreSnapshot(ctx context.Context, id SnapshotID) error {
	snap, err := e.tracker.GetSnapshot(id)
	if err != nil {
		return err
	}
	cur := e.State()
	b := cur.Transaction(transaction.OriginAPI).Describe("restore " + snap.Name)
	for i := len(cur.Doc().Children) - 1; i >= 0; i-- {
		b.RemoveNode(nil, i)
	}
	for i, blk := range snap.State().Doc().Children {
		b.InsertNode(nil, i, blk)
	}
	b.SetSelection(snap.State().Selection())
	return e.Dispatch(ctx, b.Build())
}

// RevisionID returns the current revision.
func (e *Engine) RevisionID() RevisionID {
	return e.tracker.Revision()
}

// ChangesSince returns the changes after rev, oldest first.
func (e *Engine) ChangesSince(rev RevisionID) []Change {
	return e.tracker.ChangesSince(rev)
}

// ChangeSetSince collects the changes after rev.
func (e *Engine) ChangeSetSince(rev RevisionID) *ChangeSet {
	return e.tracker.BuildChangeSet(rev)
}

// ChangesSinceSnapshot collects the changes made after a snapshot was taken.
func (e *Engine) ChangesSinceSnapshot(id SnapshotID) (*ChangeSet, error) {
	return e.tracker.ChangesSinceSnapshot(id)
}

// LatestChanges returns the most recent n changes.
func (e *Engine) LatestChanges(n int) []Change {
	return e.tracker.LatestChanges(n)
}

// DiffSinceSnapshot diffs a snapshot against the current state.
func (e *Engine) DiffSinceSnapshot(id SnapshotID) (DiffResult, error) {
	return e.ComputeDiffSinceSnapshot(id, tracking.DefaultDiffOptions())
}

// ComputeDiffSinceSnapshot diffs a snapshot against the current state.
func (e *Engine) ComputeDiffSinceSnapshot(id SnapshotID, opts DiffOptions) (DiffResult, error) {
	return e.tracker.DiffSinceSnapshot(id, e.State(), opts)
}

// DiffBetweenSnapshots diffs two snapshots.
func (e *Engine) DiffBetweenSnapshots(from, to SnapshotID) (DiffResult, error) {
	return e.tracker.DiffBetweenSnapshots(from, to, tracking.DefaultDiffOptions())
}

// DiffSinceRevision diffs a stored revision against the current state.
func (e *Engine) DiffSinceRevision(rev RevisionID) (DiffResult, error) {
	r, ok := e.tracker.GetRevision(rev)
	if !ok {
		return DiffResult{}, fmt.Errorf("%w: %d", ErrRevisionNotFound, rev)
	}
	return tracking.ComputeDiff(r.State(), e.State(), tracking.DefaultDiffOptions()), nil
}

// Read Operations

// Text returns the text of every leaf block, one per line.
func (e *Engine) Text() string {
	st := e.State()
	lines := make([]string, 0, len(st.GetBlockOrder()))
	for _, id := range st.GetBlockOrder() {
		b, _ := st.GetBlock(id)
		lines = append(lines, model.GetBlockText(b))
	}
	return strings.Join(lines, "\n")
}

// BlockCount returns the number of leaf blocks.
func (e *Engine) BlockCount() int {
	return len(e.State().GetBlockOrder())
}

// IsReadOnly returns true if the engine is read-only.
func (e *Engine) IsReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}

// SetReadOnly switches read-only mode.
func (e *Engine) SetReadOnly(readOnly bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = readOnly
}
