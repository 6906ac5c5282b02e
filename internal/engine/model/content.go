package model

// NormalizeContent returns canonical inline content: empty Text runs are
// dropped and adjacent runs with equal mark sets are coalesced. The input is
// not modified.
func NormalizeContent(content []Node) []Node {
	out := make([]Node, 0, len(content))
	for _, n := range content {
		t, isText := n.(*Text)
		if isText && t.Text == "" {
			continue
		}
		if isText && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*Text); ok && MarksEqual(prev.Marks, t.Marks) {
				out[len(out)-1] = &Text{Text: prev.Text + t.Text, Marks: prev.Marks}
				continue
			}
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SplitContent splits inline content at offset. A Text straddling the
// offset is cut in two; InlineNodes always land whole on one side.
func SplitContent(content []Node, offset int) (before, after []Node) {
	if offset < 0 {
		offset = 0
	}
	pos := 0
	for _, n := range content {
		l := NodeLength(n)
		switch {
		case pos+l <= offset:
			before = append(before, n)
		case pos >= offset:
			after = append(after, n)
		default:
			t := n.(*Text)
			cut := UTF16ToByteOffset(t.Text, offset-pos)
			before = append(before, &Text{Text: t.Text[:cut], Marks: t.Marks})
			after = append(after, &Text{Text: t.Text[cut:], Marks: t.Marks})
		}
		pos += l
	}
	return NormalizeContent(before), NormalizeContent(after)
}

// SliceContent returns the content in [from, to).
func SliceContent(content []Node, from, to int) []Node {
	if to <= from {
		return nil
	}
	_, rest := SplitContent(content, from)
	mid, _ := SplitContent(rest, to-from)
	return mid
}

// InsertContent splices insert into content at offset.
func InsertContent(content []Node, offset int, insert []Node) []Node {
	if len(insert) == 0 {
		return content
	}
	before, after := SplitContent(content, offset)
	out := make([]Node, 0, len(before)+len(insert)+len(after))
	out = append(out, before...)
	out = append(out, insert...)
	out = append(out, after...)
	return NormalizeContent(out)
}

// InsertTextIntoContent inserts text carrying marks at offset.
func InsertTextIntoContent(content []Node, offset int, text string, marks []Mark) []Node {
	if text == "" {
		return content
	}
	return InsertContent(content, offset, []Node{NewText(text, marks...)})
}

// DeleteFromContent removes the range [from, to). InlineNodes inside the
// range are removed whole; Text runs overlapping it are truncated.
func DeleteFromContent(content []Node, from, to int) []Node {
	if to <= from {
		return content
	}
	before, _ := SplitContent(content, from)
	_, after := SplitContent(content, to)
	out := make([]Node, 0, len(before)+len(after))
	out = append(out, before...)
	out = append(out, after...)
	return NormalizeContent(out)
}

// ApplyMarkToContent adds mark to every Text overlapping [from, to),
// replacing a mark of the same type. InlineNodes pass through untouched.
func ApplyMarkToContent(content []Node, from, to int, mark Mark) []Node {
	return mapTextRange(content, from, to, func(t *Text) *Text {
		return &Text{Text: t.Text, Marks: AddToMarkSet(t.Marks, mark)}
	})
}

// RemoveMarkFromContent removes marks of typ from every Text overlapping
// [from, to).
func RemoveMarkFromContent(content []Node, from, to int, typ MarkType) []Node {
	return mapTextRange(content, from, to, func(t *Text) *Text {
		return &Text{Text: t.Text, Marks: RemoveFromMarkSet(t.Marks, typ)}
	})
}

// TextRun is one Text run clipped to a range, with its block offsets.
type TextRun struct {
	From, To int
	Marks    []Mark
}

// TextRunsInRange lists the Text runs overlapping [from, to), clipped to the
// range. InlineNodes are skipped.
func TextRunsInRange(content []Node, from, to int) []TextRun {
	var runs []TextRun
	pos := 0
	for _, n := range content {
		l := NodeLength(n)
		if t, ok := n.(*Text); ok {
			start, end := max(pos, from), min(pos+l, to)
			if start < end {
				runs = append(runs, TextRun{From: start, To: end, Marks: t.Marks})
			}
		}
		pos += l
	}
	return runs
}

func mapTextRange(content []Node, from, to int, fn func(*Text) *Text) []Node {
	if to <= from {
		return content
	}
	before, rest := SplitContent(content, from)
	mid, after := SplitContent(rest, to-from)
	out := make([]Node, 0, len(before)+len(mid)+len(after))
	out = append(out, before...)
	for _, n := range mid {
		if t, ok := n.(*Text); ok {
			out = append(out, fn(t))
			continue
		}
		out = append(out, n)
	}
	out = append(out, after...)
	return NormalizeContent(out)
}
