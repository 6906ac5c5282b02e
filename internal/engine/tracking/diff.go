package tracking

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/state"
)

// DiffType indicates how a block differs between two states.
type DiffType uint8

const (
	// DiffEqual indicates an unchanged block.
	DiffEqual DiffType = iota

	// DiffAdded indicates a block only the new state has.
	DiffAdded

	// DiffRemoved indicates a block only the old state has.
	DiffRemoved

	// DiffChanged indicates a block whose text, marks, type or attributes
	// differ.
	DiffChanged
)

// String returns a human-readable representation of the diff type.
func (dt DiffType) String() string {
	switch dt {
	case DiffEqual:
		return "equal"
	case DiffAdded:
		return "added"
	case DiffRemoved:
		return "removed"
	case DiffChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// DiffOptions configures diff computation.
type DiffOptions struct {
	// IncludeEqual keeps unchanged blocks in the result.
	IncludeEqual bool

	// Semantic runs the semantic cleanup pass over text diffs, which
	// favours whole-word edits over minimal character edits.
	Semantic bool
}

// DefaultDiffOptions returns default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Semantic: true}
}

// BlockDiff describes one leaf block in a diff.
type BlockDiff struct {
	Type    DiffType
	BlockID model.BlockID

	// OldType and NewType are the block types; one is empty for added or
	// removed blocks.
	OldType model.NodeType
	NewType model.NodeType

	OldText string
	NewText string

	// Text is the character diff of OldText to NewText.
	Text []diffmatchpatch.Diff
}

// Inserted returns the UTF-8 length of inserted text.
func (bd BlockDiff) Inserted() int {
	return countOps(bd.Text, diffmatchpatch.DiffInsert)
}

// Deleted returns the UTF-8 length of deleted text.
func (bd BlockDiff) Deleted() int {
	return countOps(bd.Text, diffmatchpatch.DiffDelete)
}

func countOps(diffs []diffmatchpatch.Diff, op diffmatchpatch.Operation) int {
	n := 0
	for _, d := range diffs {
		if d.Type == op {
			n += len(d.Text)
		}
	}
	return n
}

// Inline renders the text diff with [-deleted-] and {+inserted+} markers.
func (bd BlockDiff) Inline() string {
	var sb strings.Builder
	for _, d := range bd.Text {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		}
	}
	return sb.String()
}

// DiffResult contains the complete result of a diff operation.
type DiffResult struct {
	Blocks []BlockDiff

	OldBlockCount int
	NewBlockCount int
}

// HasChanges returns true if there are any differences.
func (dr DiffResult) HasChanges() bool {
	for _, b := range dr.Blocks {
		if b.Type != DiffEqual {
			return true
		}
	}
	return false
}

// Count returns the number of blocks with the given diff type.
func (dr DiffResult) Count(t DiffType) int {
	n := 0
	for _, b := range dr.Blocks {
		if b.Type == t {
			n++
		}
	}
	return n
}

// Get returns the diff entry for a block.
func (dr DiffResult) Get(id model.BlockID) (BlockDiff, bool) {
	for _, b := range dr.Blocks {
		if b.BlockID == id {
			return b, true
		}
	}
	return BlockDiff{}, false
}

// String renders the result one block per line.
func (dr DiffResult) String() string {
	var sb strings.Builder
	for _, b := range dr.Blocks {
		switch b.Type {
		case DiffEqual:
			fmt.Fprintf(&sb, "  %s %s\n", b.BlockID, b.NewText)
		case DiffAdded:
			fmt.Fprintf(&sb, "+ %s %s\n", b.BlockID, b.NewText)
		case DiffRemoved:
			fmt.Fprintf(&sb, "- %s %s\n", b.BlockID, b.OldText)
		case DiffChanged:
			kind := ""
			if b.OldType != b.NewType {
				kind = fmt.Sprintf(" (%s -> %s)", b.OldType, b.NewType)
			}
			fmt.Fprintf(&sb, "~ %s%s %s\n", b.BlockID, kind, b.Inline())
		}
	}
	return sb.String()
}

// ComputeDiff compares the leaf blocks of two states by id. Blocks are
// reported in the new state's order, with removed blocks placed after the
// block that preceded them in the old state.
func ComputeDiff(old, cur *state.EditorState, opts DiffOptions) DiffResult {
	oldOrder := old.GetBlockOrder()
	newOrder := cur.GetBlockOrder()
	result := DiffResult{OldBlockCount: len(oldOrder), NewBlockCount: len(newOrder)}
	dmp := diffmatchpatch.New()

	inNew := make(map[model.BlockID]bool, len(newOrder))
	for _, id := range newOrder {
		inNew[id] = true
	}
	// removed blocks keyed by the surviving block before them
	removedAfter := make(map[model.BlockID][]model.BlockID)
	var leading []model.BlockID
	var prev model.BlockID
	for _, id := range oldOrder {
		if inNew[id] {
			prev = id
			continue
		}
		if prev == "" {
			leading = append(leading, id)
		} else {
			removedAfter[prev] = append(removedAfter[prev], id)
		}
	}

	emitRemoved := func(ids []model.BlockID) {
		for _, id := range ids {
			ob, _ := old.GetBlock(id)
			text := model.GetBlockText(ob)
			result.Blocks = append(result.Blocks, BlockDiff{
				Type:    DiffRemoved,
				BlockID: id,
				OldType: ob.Type,
				OldText: text,
				Text:    []diffmatchpatch.Diff{{Type: diffmatchpatch.DiffDelete, Text: text}},
			})
		}
	}

	emitRemoved(leading)
	for _, id := range newOrder {
		nb, _ := cur.GetBlock(id)
		newText := model.GetBlockText(nb)
		ob, existed := old.GetBlock(id)
		switch {
		case !existed:
			result.Blocks = append(result.Blocks, BlockDiff{
				Type:    DiffAdded,
				BlockID: id,
				NewType: nb.Type,
				NewText: newText,
				Text:    []diffmatchpatch.Diff{{Type: diffmatchpatch.DiffInsert, Text: newText}},
			})
		case ob == nb || model.BlockEqual(ob, nb):
			if opts.IncludeEqual {
				result.Blocks = append(result.Blocks, BlockDiff{
					Type:    DiffEqual,
					BlockID: id,
					OldType: ob.Type,
					NewType: nb.Type,
					OldText: newText,
					NewText: newText,
					Text:    []diffmatchpatch.Diff{{Type: diffmatchpatch.DiffEqual, Text: newText}},
				})
			}
		default:
			oldText := model.GetBlockText(ob)
			diffs := dmp.DiffMain(oldText, newText, false)
			if opts.Semantic {
				diffs = dmp.DiffCleanupSemantic(diffs)
			}
			result.Blocks = append(result.Blocks, BlockDiff{
				Type:    DiffChanged,
				BlockID: id,
				OldType: ob.Type,
				NewType: nb.Type,
				OldText: oldText,
				NewText: newText,
				Text:    diffs,
			})
		}
		emitRemoved(removedAfter[id])
	}
	return result
}

// Patch returns a textual patch turning oldText into newText for a changed
// block, in the diff-match-patch patch format.
func (bd BlockDiff) Patch() string {
	dmp := diffmatchpatch.New()
	return dmp.PatchToText(dmp.PatchMake(bd.OldText, bd.Text))
}
