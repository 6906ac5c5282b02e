package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Discriminators for inline children on the wire. Block nodes carry their
// schema type in the same field, so these names are reserved.
const (
	wireText   = "text"
	wireInline = "inline"
)

// ErrInvalidNode is returned when a JSON node cannot be decoded.
var ErrInvalidNode = errors.New("invalid node")

type blockJSON struct {
	ID       BlockID           `json:"id"`
	Type     NodeType          `json:"type"`
	Attrs    Attrs             `json:"attrs"`
	Children []json.RawMessage `json:"children"`
}

type textJSON struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Marks []Mark `json:"marks"`
}

type inlineJSON struct {
	Type       string     `json:"type"`
	InlineType InlineType `json:"inlineType"`
	Attrs      Attrs      `json:"attrs"`
}

// MarshalJSON encodes a block as {id, type, attrs, children}.
func (b *Block) MarshalJSON() ([]byte, error) {
	attrs := b.Attrs
	if attrs == nil {
		attrs = Attrs{}
	}
	children := make([]json.RawMessage, 0, len(b.Children))
	for _, c := range b.Children {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		children = append(children, data)
	}
	return json.Marshal(blockJSON{ID: b.ID, Type: b.Type, Attrs: attrs, Children: children})
}

// UnmarshalJSON decodes a block and its subtree exactly as written.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == wireText || raw.Type == wireInline {
		return fmt.Errorf("%w: %q is not a block type", ErrInvalidNode, raw.Type)
	}
	if raw.ID == "" {
		return fmt.Errorf("%w: block without id", ErrInvalidNode)
	}
	b.ID = raw.ID
	b.Type = raw.Type
	b.Attrs = nil
	if len(raw.Attrs) > 0 {
		b.Attrs = raw.Attrs
	}
	b.Children = nil
	for _, rc := range raw.Children {
		n, err := UnmarshalNode(rc)
		if err != nil {
			return fmt.Errorf("block %s: %w", raw.ID, err)
		}
		b.Children = append(b.Children, n)
	}
	return nil
}

// MarshalJSON encodes a text run as {type: "text", text, marks}.
func (t *Text) MarshalJSON() ([]byte, error) {
	marks := t.Marks
	if marks == nil {
		marks = []Mark{}
	}
	return json.Marshal(textJSON{Type: wireText, Text: t.Text, Marks: marks})
}

// MarshalJSON encodes an atom as {type: "inline", inlineType, attrs}.
func (n *InlineNode) MarshalJSON() ([]byte, error) {
	attrs := n.Attrs
	if attrs == nil {
		attrs = Attrs{}
	}
	return json.Marshal(inlineJSON{Type: wireInline, InlineType: n.InlineType, Attrs: attrs})
}

// MarshalJSON encodes the document as {children: [...]}.
func (d *Document) MarshalJSON() ([]byte, error) {
	children := d.Children
	if children == nil {
		children = []*Block{}
	}
	return json.Marshal(struct {
		Children []*Block `json:"children"`
	}{children})
}

// UnmarshalJSON decodes a document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Children []*Block `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i, b := range raw.Children {
		if b == nil {
			return fmt.Errorf("%w: null block at %d", ErrInvalidNode, i)
		}
	}
	d.Children = raw.Children
	return nil
}

// UnmarshalNode decodes any child node, dispatching on its type field.
func UnmarshalNode(data []byte) (Node, error) {
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, err
	}
	switch peek.Type {
	case wireText:
		var t textJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		var marks []Mark
		if len(t.Marks) > 0 {
			marks = t.Marks
		}
		return &Text{Text: t.Text, Marks: marks}, nil
	case wireInline:
		var in inlineJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, err
		}
		if in.InlineType == "" {
			return nil, fmt.Errorf("%w: inline node without inlineType", ErrInvalidNode)
		}
		var attrs Attrs
		if len(in.Attrs) > 0 {
			attrs = in.Attrs
		}
		return &InlineNode{InlineType: in.InlineType, Attrs: attrs}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidNode)
	default:
		b := &Block{}
		if err := b.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// MarshalNodes encodes a slice of child nodes.
func MarshalNodes(nodes []Node) ([]byte, error) {
	if nodes == nil {
		nodes = []Node{}
	}
	return json.Marshal(nodes)
}

// UnmarshalNodes decodes a slice of child nodes.
func UnmarshalNodes(data []byte) ([]Node, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(raw))
	for _, r := range raw {
		n, err := UnmarshalNode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
