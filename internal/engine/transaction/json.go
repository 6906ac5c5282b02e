package transaction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/step"
)

type metadataJSON struct {
	Origin          Origin    `json:"origin"`
	ReadonlyAllowed bool      `json:"readonlyAllowed,omitempty"`
	Description     string    `json:"description,omitempty"`
	Time            time.Time `json:"time"`
}

type transactionJSON struct {
	Steps             json.RawMessage `json:"steps"`
	Inverse           json.RawMessage `json:"inverse"`
	SelectionBefore   json.RawMessage `json:"selectionBefore"`
	SelectionAfter    json.RawMessage `json:"selectionAfter"`
	StoredMarksBefore []model.Mark    `json:"storedMarksBefore"`
	StoredMarksAfter  []model.Mark    `json:"storedMarksAfter"`
	Metadata          metadataJSON    `json:"metadata"`
}

// MarshalJSON implements json.Marshaler.
func (tr *Transaction) MarshalJSON() ([]byte, error) {
	steps, err := step.MarshalList(tr.steps)
	if err != nil {
		return nil, err
	}
	inverse, err := step.MarshalList(tr.inverse)
	if err != nil {
		return nil, err
	}
	before, err := selection.Marshal(tr.selBefore)
	if err != nil {
		return nil, err
	}
	after, err := selection.Marshal(tr.selAfter)
	if err != nil {
		return nil, err
	}
	return json.Marshal(transactionJSON{
		Steps:             steps,
		Inverse:           inverse,
		SelectionBefore:   before,
		SelectionAfter:    after,
		StoredMarksBefore: tr.marksBefore,
		StoredMarksAfter:  tr.marksAfter,
		Metadata:          metadataJSON(tr.meta),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (tr *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	steps, err := step.UnmarshalList(raw.Steps)
	if err != nil {
		return fmt.Errorf("steps: %w", err)
	}
	inverse, err := step.UnmarshalList(raw.Inverse)
	if err != nil {
		return fmt.Errorf("inverse: %w", err)
	}
	before, err := selection.Unmarshal(raw.SelectionBefore)
	if err != nil {
		return err
	}
	after, err := selection.Unmarshal(raw.SelectionAfter)
	if err != nil {
		return err
	}
	*tr = Transaction{
		steps:       steps,
		inverse:     inverse,
		selBefore:   before,
		selAfter:    after,
		marksBefore: raw.StoredMarksBefore,
		marksAfter:  raw.StoredMarksAfter,
		meta:        Metadata(raw.Metadata),
	}
	return nil
}
