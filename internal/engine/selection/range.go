package selection

import "github.com/dshills/blockstorm/internal/engine/model"

// Ordering gives the document-order index of a leaf block, or -1 when the
// block is not a leaf of the current document.
type Ordering interface {
	BlockIndex(id model.BlockID) int
}

// BlockOrder is an Ordering over an explicit leaf order.
type BlockOrder []model.BlockID

// BlockIndex implements Ordering by linear search.
func (o BlockOrder) BlockIndex(id model.BlockID) int {
	for i, b := range o {
		if b == id {
			return i
		}
	}
	return -1
}

// Range is a text range with From at or before To in document order.
type Range struct {
	From Position
	To   Position
}

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool {
	return r.From.Equal(r.To)
}

// SingleBlock reports whether the range lies within one block.
func (r Range) SingleBlock() bool {
	return r.From.BlockID == r.To.BlockID
}

// Compare orders two positions by block order, then offset. It returns
// -1, 0 or 1. Positions in unknown blocks sort first.
func Compare(a, b Position, ord Ordering) int {
	if a.BlockID != b.BlockID {
		ai, bi := ord.BlockIndex(a.BlockID), ord.BlockIndex(b.BlockID)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
	}
	switch {
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	}
	return 0
}

// ToRange normalizes a text selection into document order. Other variants
// report false.
func ToRange(sel Selection, ord Ordering) (Range, bool) {
	ts, ok := sel.(TextSelection)
	if !ok {
		return Range{}, false
	}
	if Compare(ts.Anchor, ts.Head, ord) <= 0 {
		return Range{From: ts.Anchor, To: ts.Head}, true
	}
	return Range{From: ts.Head, To: ts.Anchor}, true
}

// IsForward reports whether the head is at or after the anchor.
func IsForward(ts TextSelection, ord Ordering) bool {
	return Compare(ts.Anchor, ts.Head, ord) <= 0
}

// Segment is the part of a range inside one block.
type Segment struct {
	BlockID  model.BlockID
	From, To int
}

// Segments splits r into per-block pieces using order, the leaf order of the
// document. length returns a block's content length. Blocks between the ends
// are covered completely.
func Segments(r Range, order []model.BlockID, length func(model.BlockID) int) []Segment {
	if r.SingleBlock() {
		return []Segment{{BlockID: r.From.BlockID, From: r.From.Offset, To: r.To.Offset}}
	}
	start, end := -1, -1
	for i, id := range order {
		if id == r.From.BlockID {
			start = i
		}
		if id == r.To.BlockID {
			end = i
		}
	}
	if start < 0 || end < 0 || end < start {
		return nil
	}
	segs := make([]Segment, 0, end-start+1)
	for i := start; i <= end; i++ {
		id := order[i]
		seg := Segment{BlockID: id, From: 0, To: length(id)}
		if i == start {
			seg.From = r.From.Offset
		}
		if i == end {
			seg.To = r.To.Offset
		}
		segs = append(segs, seg)
	}
	return segs
}
