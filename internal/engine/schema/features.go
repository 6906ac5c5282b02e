package schema

import (
	"sort"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// Features holds feature flags. A flag that is absent counts as enabled, so
// only explicit false values switch a feature off.
type Features map[string]bool

// Enabled reports whether flag is on. The empty flag is always on.
func (f Features) Enabled(flag string) bool {
	if flag == "" {
		return true
	}
	on, set := f[flag]
	return !set || on
}

// With returns a copy of f with flag set to on.
func (f Features) With(flag string, on bool) Features {
	out := make(Features, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[flag] = on
	return out
}

// Disabled lists the flags explicitly switched off, sorted.
func (f Features) Disabled() []string {
	var out []string
	for k, v := range f {
		if !v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// MarkEnabled reports whether mark m is declared and its feature flag is on.
func (s *Schema) MarkEnabled(m model.MarkType, f Features) bool {
	return s.HasMark(m) && f.Enabled(s.MarkFeature(m))
}
