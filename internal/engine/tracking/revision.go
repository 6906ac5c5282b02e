package tracking

import (
	"time"

	"github.com/dshills/blockstorm/internal/engine/state"
)

// RevisionID identifies an editor state in the order it was produced. The
// initial state is revision 0; every recorded document change adds one.
type RevisionID uint64

// Revision captures an editor state at a point in time. States are
// immutable, so holding one is a reference, not a copy.
type Revision struct {
	// ID uniquely identifies this revision.
	ID RevisionID

	// Timestamp when this revision was created.
	Timestamp time.Time

	state *state.EditorState
}

// NewRevision creates a new revision with the given ID and state.
func NewRevision(id RevisionID, st *state.EditorState) *Revision {
	return &Revision{
		ID:        id,
		Timestamp: time.Now(),
		state:     st,
	}
}

// State returns the editor state for this revision.
func (r *Revision) State() *state.EditorState {
	return r.state
}

// revisionStore manages a bounded collection of revisions.
// It uses a map for fast lookup while maintaining a bounded size.
type revisionStore struct {
	revisions  map[RevisionID]*Revision
	maxEntries int
	oldestID   RevisionID
}

func newRevisionStore(maxEntries int) *revisionStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxRevisions
	}
	return &revisionStore{
		revisions:  make(map[RevisionID]*Revision),
		maxEntries: maxEntries,
	}
}

// Add stores a revision, evicting the oldest entries over capacity.
func (rs *revisionStore) Add(rev *Revision) {
	if len(rs.revisions) == 0 || rev.ID < rs.oldestID {
		rs.oldestID = rev.ID
	}
	rs.revisions[rev.ID] = rev

	for len(rs.revisions) > rs.maxEntries {
		delete(rs.revisions, rs.oldestID)
		rs.oldestID = rs.findOldest()
	}
}

func (rs *revisionStore) findOldest() RevisionID {
	first := true
	var oldest RevisionID
	for id := range rs.revisions {
		if first || id < oldest {
			oldest = id
			first = false
		}
	}
	return oldest
}

// Get retrieves a revision by ID.
func (rs *revisionStore) Get(id RevisionID) (*Revision, bool) {
	rev, ok := rs.revisions[id]
	return rev, ok
}

// Clear removes all revisions.
func (rs *revisionStore) Clear() {
	rs.revisions = make(map[RevisionID]*Revision)
	rs.oldestID = 0
}
