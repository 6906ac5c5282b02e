package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/step"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// Change records one applied transaction that changed the document.
type Change struct {
	// Revision is the revision the transaction produced.
	Revision RevisionID

	// Origin and Description come from the transaction metadata.
	Origin      transaction.Origin
	Description string

	// Timestamp is the transaction time.
	Timestamp time.Time

	// Steps are the step kinds in application order.
	Steps []step.Type

	// Blocks lists the leaf blocks whose content differs, in document
	// order of the new state followed by removed blocks.
	Blocks []model.BlockID
}

// NewChange describes tr, which turned before into after.
func NewChange(rev RevisionID, tr *transaction.Transaction, before, after *state.EditorState) Change {
	meta := tr.Metadata()
	c := Change{
		Revision:    rev,
		Origin:      meta.Origin,
		Description: meta.Description,
		Timestamp:   meta.Time,
	}
	for _, s := range tr.Steps() {
		c.Steps = append(c.Steps, s.Type())
	}
	c.Blocks = touchedBlocks(before, after)
	return c
}

// touchedBlocks compares the leaves of two states. Unchanged subtrees are
// shared between states, so pointer identity settles most blocks.
func touchedBlocks(before, after *state.EditorState) []model.BlockID {
	var out []model.BlockID
	seen := make(map[model.BlockID]bool)
	for _, id := range after.GetBlockOrder() {
		seen[id] = true
		nb, _ := after.GetBlock(id)
		ob, ok := before.GetBlock(id)
		if !ok || (ob != nb && !model.BlockEqual(ob, nb)) {
			out = append(out, id)
		}
	}
	for _, id := range before.GetBlockOrder() {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// String returns a short description for logs.
func (c Change) String() string {
	desc := c.Description
	if desc == "" {
		desc = string(c.Origin)
	}
	return fmt.Sprintf("r%d %s (%d steps, %d blocks)", c.Revision, desc, len(c.Steps), len(c.Blocks))
}

// ChangeSet represents a collection of related changes.
// Changes are stored in the order they were applied.
type ChangeSet struct {
	// Changes in application order.
	Changes []Change

	// StartRevision is the revision before any changes.
	StartRevision RevisionID

	// EndRevision is the revision after all changes.
	EndRevision RevisionID
}

// NewChangeSet creates an empty change set starting at the given revision.
func NewChangeSet(startRevision RevisionID) *ChangeSet {
	return &ChangeSet{
		StartRevision: startRevision,
		EndRevision:   startRevision,
	}
}

// Add adds a change to the set.
func (cs *ChangeSet) Add(c Change) {
	cs.Changes = append(cs.Changes, c)
	cs.EndRevision = c.Revision
}

// Len returns the number of changes.
func (cs *ChangeSet) Len() int {
	return len(cs.Changes)
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// Blocks returns every block touched by the set, first touch first.
func (cs *ChangeSet) Blocks() []model.BlockID {
	var out []model.BlockID
	seen := make(map[model.BlockID]bool)
	for _, c := range cs.Changes {
		for _, id := range c.Blocks {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Summary returns a human-readable summary of the changes.
func (cs *ChangeSet) Summary() string {
	if cs.IsEmpty() {
		return "no changes"
	}

	byOrigin := make(map[transaction.Origin]int)
	var order []transaction.Origin
	for _, c := range cs.Changes {
		if byOrigin[c.Origin] == 0 {
			order = append(order, c.Origin)
		}
		byOrigin[c.Origin]++
	}

	parts := make([]string, 0, len(order)+1)
	for _, o := range order {
		parts = append(parts, fmt.Sprintf("%d %s", byOrigin[o], o))
	}
	parts = append(parts, fmt.Sprintf("%d blocks touched", len(cs.Blocks())))
	return strings.Join(parts, ", ")
}

// trackedChange pairs a change with its revision for internal storage.
type trackedChange struct {
	revision RevisionID
	change   Change
}
