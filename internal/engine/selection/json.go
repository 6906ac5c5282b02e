package selection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// ErrInvalidSelection is returned when a JSON selection cannot be decoded.
var ErrInvalidSelection = errors.New("invalid selection")

type wire struct {
	Type    string        `json:"type"`
	Anchor  *Position     `json:"anchor,omitempty"`
	Head    *Position     `json:"head,omitempty"`
	NodeID  model.BlockID `json:"nodeId,omitempty"`
	BlockID model.BlockID `json:"blockId,omitempty"`
	Side    Side          `json:"side,omitempty"`
	Path    model.Path    `json:"path,omitempty"`
}

// Marshal encodes a selection with a "type" discriminator. A nil selection
// encodes as null.
func Marshal(sel Selection) ([]byte, error) {
	switch s := sel.(type) {
	case nil:
		return []byte("null"), nil
	case TextSelection:
		return json.Marshal(wire{Type: KindText.String(), Anchor: &s.Anchor, Head: &s.Head})
	case NodeSelection:
		return json.Marshal(wire{Type: KindNode.String(), NodeID: s.NodeID, Path: s.Path})
	case GapCursor:
		return json.Marshal(wire{Type: KindGap.String(), BlockID: s.BlockID, Side: s.Side, Path: s.Path})
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidSelection, sel)
}

// Unmarshal decodes a selection written by Marshal. null decodes to nil.
func Unmarshal(data []byte) (Selection, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	switch w.Type {
	case KindText.String():
		if w.Anchor == nil || w.Head == nil {
			return nil, fmt.Errorf("%w: text selection needs anchor and head", ErrInvalidSelection)
		}
		return TextSelection{Anchor: *w.Anchor, Head: *w.Head}, nil
	case KindNode.String():
		if w.NodeID == "" {
			return nil, fmt.Errorf("%w: node selection without nodeId", ErrInvalidSelection)
		}
		return NodeSelection{NodeID: w.NodeID, Path: w.Path}, nil
	case KindGap.String():
		if w.BlockID == "" || (w.Side != Before && w.Side != After) {
			return nil, fmt.Errorf("%w: gap cursor needs blockId and side", ErrInvalidSelection)
		}
		return GapCursor{BlockID: w.BlockID, Side: w.Side, Path: w.Path}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSelection, w.Type)
}

// MarshalJSON implements json.Marshaler.
func (s TextSelection) MarshalJSON() ([]byte, error) { return Marshal(s) }

// MarshalJSON implements json.Marshaler.
func (s NodeSelection) MarshalJSON() ([]byte, error) { return Marshal(s) }

// MarshalJSON implements json.Marshaler.
func (s GapCursor) MarshalJSON() ([]byte, error) { return Marshal(s) }
