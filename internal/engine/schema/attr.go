package schema

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// AttrType is the value type of an attribute.
type AttrType string

// Attribute types.
const (
	AttrString AttrType = "string"
	AttrInt    AttrType = "int"
	AttrNumber AttrType = "number"
	AttrBool   AttrType = "bool"
	AttrEnum   AttrType = "enum"
)

// AttrSpec describes one attribute of a node, mark or inline type.
type AttrSpec struct {
	Name     string   `yaml:"name"`
	Type     AttrType `yaml:"type"`
	Default  any      `yaml:"default"`
	Required bool     `yaml:"required"`

	// Enum lists allowed values for AttrEnum.
	Enum []any `yaml:"enum"`

	// Minimum and Maximum bound numeric values (nil means unbounded).
	Minimum *float64 `yaml:"min"`
	Maximum *float64 `yaml:"max"`

	// Pattern constrains string values (regex).
	Pattern string `yaml:"pattern"`

	compiled *regexp.Regexp
}

// Float is a helper for setting Minimum and Maximum.
func Float(v float64) *float64 { return &v }

func (a *AttrSpec) check() error {
	if a.Name == "" {
		return fmt.Errorf("%w: attribute without name", ErrInvalidAttr)
	}
	switch a.Type {
	case "", AttrString, AttrInt, AttrNumber, AttrBool:
	case AttrEnum:
		if len(a.Enum) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyEnum, a.Name)
		}
	default:
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidAttr, a.Name, a.Type)
	}
	if a.Pattern != "" {
		re, err := regexp.Compile(a.Pattern)
		if err != nil {
			return fmt.Errorf("%w: %s pattern: %v", ErrInvalidAttr, a.Name, err)
		}
		a.compiled = re
	}
	if a.Default != nil {
		if err := a.Validate(a.Default); err != nil {
			return fmt.Errorf("%s default: %w", a.Name, err)
		}
	}
	return nil
}

// Validate checks a value against the attribute's type, enum, range and
// pattern. A nil value is accepted unless the attribute is required.
func (a *AttrSpec) Validate(value any) error {
	if value == nil {
		if a.Required {
			return fmt.Errorf("%w: %s is required", ErrInvalidAttr, a.Name)
		}
		return nil
	}
	if err := a.validateType(value); err != nil {
		return err
	}
	if a.Type == AttrEnum && !containsValue(a.Enum, value) {
		return fmt.Errorf("%w: %s must be one of %v", ErrInvalidAttr, a.Name, a.Enum)
	}
	if a.Type == AttrInt || a.Type == AttrNumber {
		if err := a.validateRange(value); err != nil {
			return err
		}
	}
	if a.Pattern != "" {
		s, _ := value.(string)
		re := a.compiled
		if re == nil {
			var err error
			if re, err = regexp.Compile(a.Pattern); err != nil {
				return fmt.Errorf("%w: %s pattern: %v", ErrInvalidAttr, a.Name, err)
			}
		}
		if !re.MatchString(s) {
			return fmt.Errorf("%w: %s does not match %s", ErrInvalidAttr, a.Name, a.Pattern)
		}
	}
	return nil
}

func (a *AttrSpec) validateType(value any) error {
	switch a.Type {
	case AttrString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expected string, got %T", ErrInvalidAttr, a.Name, value)
		}
	case AttrInt:
		f, ok := toFloat(value)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("%w: %s expected integer, got %T", ErrInvalidAttr, a.Name, value)
		}
	case AttrNumber:
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("%w: %s expected number, got %T", ErrInvalidAttr, a.Name, value)
		}
	case AttrBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expected boolean, got %T", ErrInvalidAttr, a.Name, value)
		}
	}
	return nil
}

func (a *AttrSpec) validateRange(value any) error {
	f, ok := toFloat(value)
	if !ok {
		return nil
	}
	if a.Minimum != nil && f < *a.Minimum {
		return fmt.Errorf("%w: %s %v is less than minimum %v", ErrInvalidAttr, a.Name, value, *a.Minimum)
	}
	if a.Maximum != nil && f > *a.Maximum {
		return fmt.Errorf("%w: %s %v is greater than maximum %v", ErrInvalidAttr, a.Name, value, *a.Maximum)
	}
	return nil
}

// AttrRegistry maps a type name to its attribute specs. Marks, nodes and
// inline atoms each get their own namespace.
type AttrRegistry struct {
	mu    sync.RWMutex
	specs map[string]map[string]*AttrSpec
}

// NewAttrRegistry creates an empty registry.
func NewAttrRegistry() *AttrRegistry {
	return &AttrRegistry{specs: make(map[string]map[string]*AttrSpec)}
}

// Register declares the attributes of typ, replacing any earlier declaration.
func (r *AttrRegistry) Register(typ string, attrs ...AttrSpec) error {
	m := make(map[string]*AttrSpec, len(attrs))
	for i := range attrs {
		a := attrs[i]
		if err := a.check(); err != nil {
			return fmt.Errorf("%s: %w", typ, err)
		}
		if _, dup := m[a.Name]; dup {
			return fmt.Errorf("%w: attribute %s.%s", ErrDuplicateType, typ, a.Name)
		}
		m[a.Name] = &a
	}
	r.mu.Lock()
	r.specs[typ] = m
	r.mu.Unlock()
	return nil
}

// Specs returns the declared attributes of typ sorted by name.
func (r *AttrRegistry) Specs(typ string) []AttrSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.specs[typ]
	out := make([]AttrSpec, 0, len(m))
	for _, a := range m {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve validates attrs for typ and fills in defaults. Types without
// declared attributes accept any attrs unchanged.
func (r *AttrRegistry) Resolve(typ string, attrs model.Attrs) (model.Attrs, error) {
	r.mu.RLock()
	m, ok := r.specs[typ]
	r.mu.RUnlock()
	if !ok || len(m) == 0 {
		return attrs, nil
	}
	for k, v := range attrs {
		a, known := m[k]
		if !known {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttr, typ, k)
		}
		if err := a.Validate(v); err != nil {
			return nil, fmt.Errorf("%s: %w", typ, err)
		}
	}
	out := attrs.Clone()
	for name, a := range m {
		if _, set := out[name]; set {
			continue
		}
		if a.Default != nil {
			if out == nil {
				out = model.Attrs{}
			}
			out[name] = a.Default
			continue
		}
		if a.Required {
			return nil, fmt.Errorf("%w: %s.%s is required", ErrInvalidAttr, typ, name)
		}
	}
	return out, nil
}

func containsValue(values []any, v any) bool {
	for _, e := range values {
		if model.ValueEqual(e, v) {
			return true
		}
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
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
