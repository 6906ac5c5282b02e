package step

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
)

// ErrUnknownStep is returned when decoding a step with an unknown type.
var ErrUnknownStep = errors.New("unknown step type")

type envelope struct {
	StepType Type            `json:"stepType"`
	Data     json.RawMessage `json:"data"`
}

type insertContentJSON struct {
	BlockID model.BlockID   `json:"blockId"`
	Offset  int             `json:"offset"`
	Content json.RawMessage `json:"content"`
}

// Marshal encodes a step as {"stepType": ..., "data": {...}}.
func Marshal(s Step) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if ic, ok := s.(InsertContent); ok {
		var content []byte
		if content, err = model.MarshalNodes(ic.Content); err != nil {
			return nil, err
		}
		data, err = json.Marshal(insertContentJSON{BlockID: ic.BlockID, Offset: ic.Offset, Content: content})
	} else {
		data, err = json.Marshal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.Type(), err)
	}
	return json.Marshal(envelope{StepType: s.Type(), Data: data})
}

// Unmarshal decodes a step written by Marshal.
func Unmarshal(data []byte) (Step, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.StepType {
	case TypeInsertText:
		return decode[InsertText](env.Data)
	case TypeDeleteText:
		return decode[DeleteText](env.Data)
	case TypeAddMark:
		return decode[AddMark](env.Data)
	case TypeRemoveMark:
		return decode[RemoveMark](env.Data)
	case TypeSplitBlock:
		return decode[SplitBlock](env.Data)
	case TypeMergeBlocks:
		return decode[MergeBlocks](env.Data)
	case TypeInsertNode:
		return decode[InsertNode](env.Data)
	case TypeRemoveNode:
		return decode[RemoveNode](env.Data)
	case TypeSetAttrs:
		return decode[SetAttrs](env.Data)
	case TypeSetBlockType:
		return decode[SetBlockType](env.Data)
	case TypeSetStoredMarks:
		return decode[SetStoredMarks](env.Data)
	case TypeInsertContent:
		var raw insertContentJSON
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return nil, err
		}
		content, err := model.UnmarshalNodes(raw.Content)
		if err != nil {
			return nil, err
		}
		return InsertContent{BlockID: raw.BlockID, Offset: raw.Offset, Content: content}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStep, env.StepType)
}

func decode[S Step](data []byte) (Step, error) {
	var s S
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// MarshalList encodes a list of steps as a JSON array.
func MarshalList(steps []Step) ([]byte, error) {
	out := make([]json.RawMessage, 0, len(steps))
	for _, s := range steps {
		data, err := Marshal(s)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return json.Marshal(out)
}

// UnmarshalList decodes a JSON array written by MarshalList.
func UnmarshalList(data []byte) ([]Step, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Step, 0, len(raw))
	for i, r := range raw {
		s, err := Unmarshal(r)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
