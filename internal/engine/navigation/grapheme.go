// Package navigation computes caret movement over an EditorState: grapheme
// and word stepping inside a block, block crossing that respects isolating
// and void blocks, and vertical movement with a remembered goal column.
//
// All offsets are UTF-16 code units, as in the model package. Movement inside
// text follows extended grapheme clusters; an inline atom is always exactly
// one unit.
package navigation

import (
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// Class classifies a unit for word boundary detection.
type Class int

const (
	ClassSpace Class = iota
	ClassWord
	ClassPunct
	ClassAtom
)

// Unit is one caret step inside a block: a grapheme cluster or an inline
// atom, spanning [Start, End).
type Unit struct {
	Start, End int
	Class      Class
}

// Units splits a leaf block's content into caret units.
func Units(b *model.Block) []Unit {
	if b == nil {
		return nil
	}
	var out []Unit
	pos := 0
	for _, c := range b.Children {
		switch v := c.(type) {
		case *model.InlineNode:
			out = append(out, Unit{Start: pos, End: pos + 1, Class: ClassAtom})
			pos++
		case *model.Text:
			s, state := v.Text, -1
			for len(s) > 0 {
				var cluster string
				cluster, s, _, state = uniseg.StepString(s, state)
				w := model.UTF16Len(cluster)
				out = append(out, Unit{Start: pos, End: pos + w, Class: classify(cluster)})
				pos += w
			}
		}
	}
	return out
}

// classify looks at the first rune of a cluster; combining marks and emoji
// modifiers follow their base.
func classify(cluster string) Class {
	for _, r := range cluster {
		switch {
		case unicode.IsSpace(r):
			return ClassSpace
		case r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r):
			return ClassWord
		default:
			return ClassPunct
		}
	}
	return ClassSpace
}

// NextGraphemeOffset returns the offset after the unit at offset, or the
// block length when offset is at or past the end.
func NextGraphemeOffset(b *model.Block, offset int) int {
	for _, u := range Units(b) {
		if u.End > offset {
			return u.End
		}
	}
	return model.GetBlockLength(b)
}

// PrevGraphemeOffset returns the start of the unit before offset, or 0.
func PrevGraphemeOffset(b *model.Block, offset int) int {
	units := Units(b)
	for i := len(units) - 1; i >= 0; i-- {
		if units[i].Start < offset {
			return units[i].Start
		}
	}
	return 0
}

// WordBoundaryForward returns where a forward word step from offset ends.
// An atom right after the cursor is one word on its own. Otherwise leading
// whitespace is skipped and a run of one class is consumed; atoms always
// stop the scan.
func WordBoundaryForward(b *model.Block, offset int) int {
	units := Units(b)
	i := 0
	for i < len(units) && units[i].End <= offset {
		i++
	}
	if i == len(units) {
		return model.GetBlockLength(b)
	}
	if units[i].Class == ClassAtom {
		return units[i].End
	}
	for i < len(units) && units[i].Class == ClassSpace {
		i++
	}
	if i == len(units) || units[i].Class == ClassAtom {
		return unitEnd(units, i-1, offset)
	}
	class := units[i].Class
	for i < len(units) && units[i].Class == class {
		i++
	}
	return unitEnd(units, i-1, offset)
}

// WordBoundaryBackward mirrors WordBoundaryForward.
func WordBoundaryBackward(b *model.Block, offset int) int {
	units := Units(b)
	i := len(units) - 1
	for i >= 0 && units[i].Start >= offset {
		i--
	}
	if i < 0 {
		return 0
	}
	if units[i].Class == ClassAtom {
		return units[i].Start
	}
	for i >= 0 && units[i].Class == ClassSpace {
		i--
	}
	if i < 0 || units[i].Class == ClassAtom {
		return unitStart(units, i+1, offset)
	}
	class := units[i].Class
	for i >= 0 && units[i].Class == class {
		i--
	}
	return unitStart(units, i+1, offset)
}

func unitEnd(units []Unit, i, fallback int) int {
	if i < 0 {
		return fallback
	}
	return units[i].End
}

func unitStart(units []Unit, i, fallback int) int {
	if i >= len(units) {
		return fallback
	}
	return units[i].Start
}
