package model

// Equal reports whether two documents are structurally identical.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !BlockEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// BlockEqual compares two blocks and their subtrees.
func BlockEqual(a, b *Block) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Type != b.Type || !AttrsEqual(a.Attrs, b.Attrs) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !NodeEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// NodeEqual compares two child nodes of any kind.
func NodeEqual(a, b Node) bool {
	switch av := a.(type) {
	case *Block:
		bv, ok := b.(*Block)
		return ok && BlockEqual(av, bv)
	case *Text:
		bv, ok := b.(*Text)
		return ok && av.Text == bv.Text && MarksEqual(av.Marks, bv.Marks)
	case *InlineNode:
		bv, ok := b.(*InlineNode)
		return ok && av.InlineType == bv.InlineType && AttrsEqual(av.Attrs, bv.Attrs)
	}
	return a == nil && b == nil
}

// ContentEqual compares two slices of inline content.
func ContentEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NodeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// AttrsEqual compares attribute maps. A nil map equals an empty one.
func AttrsEqual(a, b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !ValueEqual(av, bv) {
			return false
		}
	}
	return true
}

// ValueEqual compares JSON-compatible values. Numbers compare by value
// regardless of Go type so that attrs survive a JSON round-trip.
func ValueEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok {
			if ba, isAny := b.([]any); isAny {
				return ValueEqual(stringsToAny(av), ba)
			}
			return false
		}
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && AttrsEqual(av, bv)
	case Attrs:
		switch bv := b.(type) {
		case Attrs:
			return AttrsEqual(av, bv)
		case map[string]any:
			return AttrsEqual(av, bv)
		}
		return false
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
