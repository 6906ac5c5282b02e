package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a schema definition from YAML:
//
//	nodes:
//	  - name: callout
//	    content: block
//	    isolating: true
//	marks:
//	  - name: highlight
//	    attrs:
//	      - {name: color, type: enum, enum: [yellow, green]}
//
// With extend set, the declarations are appended to the default schema.
func LoadYAML(r io.Reader, extend bool) (*Schema, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if extend {
		base := DefaultDefinition()
		base.Nodes = append(base.Nodes, def.Nodes...)
		base.Marks = append(base.Marks, def.Marks...)
		base.Inlines = append(base.Inlines, def.Inlines...)
		def = base
	}
	return New(def)
}

// LoadFile reads a YAML schema file. See LoadYAML.
func LoadFile(path string, extend bool) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s, err := LoadYAML(bytes.NewReader(data), extend)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// MarshalYAML encodes the schema's declarations.
func (s *Schema) MarshalYAML() (any, error) {
	return s.Definition(), nil
}
