package model

import "sort"

// Mark is a character-level style or annotation (bold, link, font).
type Mark struct {
	Type  MarkType `json:"type"`
	Attrs Attrs    `json:"attrs,omitempty"`
}

// NewMark creates a mark. Attrs are copied.
func NewMark(typ MarkType, attrs Attrs) Mark {
	return Mark{Type: typ, Attrs: attrs.Clone()}
}

// Equal reports whether two marks have the same type and attrs.
func (m Mark) Equal(other Mark) bool {
	return m.Type == other.Type && AttrsEqual(m.Attrs, other.Attrs)
}

// NormalizeMarks returns a type-unique mark set sorted by type. When a type
// appears more than once the last occurrence wins. Empty input returns nil.
func NormalizeMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	byType := make(map[MarkType]Mark, len(marks))
	for _, m := range marks {
		byType[m.Type] = m
	}
	out := make([]Mark, 0, len(byType))
	for _, m := range byType {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// MarksEqual reports whether two mark sets contain the same marks,
// regardless of order.
func MarksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for _, m := range a {
		other, ok := FindMark(b, m.Type)
		if !ok || !m.Equal(other) {
			return false
		}
	}
	return true
}

// FindMark returns the mark of the given type from a set.
func FindMark(marks []Mark, typ MarkType) (Mark, bool) {
	for _, m := range marks {
		if m.Type == typ {
			return m, true
		}
	}
	return Mark{}, false
}

// HasMark reports whether a set contains a mark of the given type.
func HasMark(marks []Mark, typ MarkType) bool {
	_, ok := FindMark(marks, typ)
	return ok
}

// AddToMarkSet returns marks with m added, replacing any mark of the same type.
func AddToMarkSet(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	out = append(out, marks...)
	out = append(out, m)
	return NormalizeMarks(out)
}

// RemoveFromMarkSet returns marks without any mark of the given type.
func RemoveFromMarkSet(marks []Mark, typ MarkType) []Mark {
	out := make([]Mark, 0, len(marks))
	for _, m := range marks {
		if m.Type != typ {
			out = append(out, m)
		}
	}
	return NormalizeMarks(out)
}
