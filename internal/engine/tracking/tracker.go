package tracking

import (
	"sync"
	"time"

	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// DefaultMaxChanges is the default maximum number of changes to track.
const DefaultMaxChanges = 10000

// DefaultMaxRevisions is the default maximum number of revisions to store.
const DefaultMaxRevisions = 100

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithMaxChanges sets the maximum number of changes to track.
// It must only be used with NewTracker; it discards recorded changes.
func WithMaxChanges(maxChanges int) TrackerOption {
	return func(t *Tracker) {
		if maxChanges <= 0 {
			maxChanges = DefaultMaxChanges
		}
		t.maxChanges = maxChanges
		t.changes = make([]trackedChange, maxChanges)
		t.head, t.count = 0, 0
	}
}

// WithMaxRevisions sets the maximum number of revisions to store.
func WithMaxRevisions(maxRevisions int) TrackerOption {
	return func(t *Tracker) {
		t.revisions = newRevisionStore(maxRevisions)
	}
}

// Tracker records document changes as revisions. It keeps a bounded ring of
// change records, a bounded store of past states and named snapshots.
// All operations are thread-safe.
type Tracker struct {
	mu sync.RWMutex

	current RevisionID

	// Recent changes in a ring buffer
	changes    []trackedChange
	head       int // Index of oldest entry
	count      int // Number of entries
	maxChanges int

	revisions *revisionStore
	snapshots *SnapshotManager
}

// NewTracker creates a new change tracker starting at revision 0.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		maxChanges: DefaultMaxChanges,
		changes:    make([]trackedChange, DefaultMaxChanges),
		revisions:  newRevisionStore(DefaultMaxRevisions),
		snapshots:  NewSnapshotManager(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Revision returns the current revision.
func (t *Tracker) Revision() RevisionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Reset forgets all changes and revisions and stores st as revision 0.
// Snapshots are kept.
func (t *Tracker) Reset(st *state.EditorState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = 0
	t.head, t.count = 0, 0
	t.revisions.Clear()
	if st != nil {
		t.revisions.Add(NewRevision(0, st))
	}
}

// Record registers tr, which turned before into after. Transactions that
// did not change the document leave the revision alone. It returns the
// current revision.
func (t *Tracker) Record(tr *transaction.Transaction, before, after *state.EditorState) RevisionID {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tr == nil || !tr.DocChanged() || before.Doc() == after.Doc() {
		return t.current
	}
	t.current++
	t.recordChangeLocked(t.current, NewChange(t.current, tr, before, after))
	t.revisions.Add(NewRevision(t.current, after))
	return t.current
}

// recordChangeLocked adds a change to the ring buffer (must hold lock).
func (t *Tracker) recordChangeLocked(rev RevisionID, change Change) {
	idx := (t.head + t.count) % t.maxChanges
	if t.count < t.maxChanges {
		t.count++
	} else {
		// Ring buffer is full, advance head
		t.head = (t.head + 1) % t.maxChanges
	}
	t.changes[idx] = trackedChange{revision: rev, change: change}
}

// ChangesSince returns all changes after a revision, oldest first.
func (t *Tracker) ChangesSince(rev RevisionID) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []Change
	for i := 0; i < t.count; i++ {
		tc := t.changes[(t.head+i)%t.maxChanges]
		if tc.revision > rev {
			result = append(result, tc.change)
		}
	}
	return result
}

// LatestChanges returns the most recent n changes, oldest first.
func (t *Tracker) LatestChanges(n int) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.count {
		n = t.count
	}
	result := make([]Change, n)
	for i := 0; i < n; i++ {
		idx := (t.head + t.count - n + i) % t.maxChanges
		result[i] = t.changes[idx].change
	}
	return result
}

// BuildChangeSet collects the changes after sinceRev. Changes that fell out
// of the bounded buffer are missing from the set.
func (t *Tracker) BuildChangeSet(sinceRev RevisionID) *ChangeSet {
	cs := NewChangeSet(sinceRev)
	for _, c := range t.ChangesSince(sinceRev) {
		cs.Add(c)
	}
	return cs
}

// GetRevision returns a stored revision.
func (t *Tracker) GetRevision(id RevisionID) (*Revision, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revisions.Get(id)
}

// Snapshot Operations

// CreateSnapshot creates a named snapshot of st at the current revision.
func (t *Tracker) CreateSnapshot(name string, st *state.EditorState) SnapshotID {
	t.mu.RLock()
	rev := t.current
	t.mu.RUnlock()
	return t.snapshots.Create(name, st, rev)
}

// GetSnapshot retrieves a snapshot by ID.
func (t *Tracker) GetSnapshot(id SnapshotID) (*Snapshot, error) {
	snap, ok := t.snapshots.Get(id)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// GetSnapshotByName retrieves a snapshot by name.
func (t *Tracker) GetSnapshotByName(name string) (*Snapshot, error) {
	snap, ok := t.snapshots.GetByName(name)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// DeleteSnapshot removes a snapshot.
func (t *Tracker) DeleteSnapshot(id SnapshotID) {
	t.snapshots.Delete(id)
}

// DeleteSnapshotByName removes a snapshot by name.
func (t *Tracker) DeleteSnapshotByName(name string) {
	t.snapshots.DeleteByName(name)
}

// ListSnapshots returns all snapshots, oldest first.
func (t *Tracker) ListSnapshots() []*Snapshot {
	return t.snapshots.List()
}

// PruneSnapshots removes snapshots older than maxAge.
func (t *Tracker) PruneSnapshots(maxAge time.Duration) int {
	return t.snapshots.Prune(maxAge)
}

// KeepSnapshots keeps the n newest snapshots.
func (t *Tracker) KeepSnapshots(n int) int {
	return t.snapshots.PruneKeepN(n)
}

// ChangesSinceSnapshot collects the changes after a snapshot's revision.
func (t *Tracker) ChangesSinceSnapshot(id SnapshotID) (*ChangeSet, error) {
	snap, err := t.GetSnapshot(id)
	if err != nil {
		return nil, err
	}
	return t.BuildChangeSet(snap.Revision), nil
}

// DiffSinceSnapshot computes the block diff from a snapshot to cur.
func (t *Tracker) DiffSinceSnapshot(id SnapshotID, cur *state.EditorState, opts DiffOptions) (DiffResult, error) {
	snap, err := t.GetSnapshot(id)
	if err != nil {
		return DiffResult{}, err
	}
	return ComputeDiff(snap.State(), cur, opts), nil
}

// DiffBetweenSnapshots computes the block diff between two snapshots.
func (t *Tracker) DiffBetweenSnapshots(fromID, toID SnapshotID, opts DiffOptions) (DiffResult, error) {
	from, err := t.GetSnapshot(fromID)
	if err != nil {
		return DiffResult{}, err
	}
	to, err := t.GetSnapshot(toID)
	if err != nil {
		return DiffResult{}, err
	}
	return ComputeDiff(from.State(), to.State(), opts), nil
}
