package state

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
)

// SnapshotVersion is the snapshot format written by ToJSON.
const SnapshotVersion = 1

type snapshot struct {
	Version     int             `json:"version"`
	Doc         *model.Document `json:"doc"`
	Selection   json.RawMessage `json:"selection"`
	StoredMarks []model.Mark    `json:"storedMarks"`
}

// ToJSON encodes the document, selection and stored marks. Unset stored
// marks encode as null and an explicitly empty set as [].
func (s *EditorState) ToJSON() ([]byte, error) {
	sel, err := selection.Marshal(s.sel)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshot{
		Version:     SnapshotVersion,
		Doc:         s.doc,
		Selection:   sel,
		StoredMarks: s.storedMarks,
	})
}

// MarshalJSON implements json.Marshaler.
func (s *EditorState) MarshalJSON() ([]byte, error) { return s.ToJSON() }

// FromJSON decodes a snapshot written by ToJSON. Options configure the
// schema, features and id generator the same way as Create; document,
// selection and stored marks come from the snapshot. A snapshot without a
// version is read as version 1.
func FromJSON(data []byte, opts ...Option) (*EditorState, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, supported %d", ErrVersionMismatch, snap.Version, SnapshotVersion)
	}
	sel, err := selection.Unmarshal(snap.Selection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	opts = append(opts, WithDoc(snap.Doc), WithSelection(sel), WithStoredMarks(snap.StoredMarks))
	st := Create(opts...)
	if snap.Doc != nil {
		if err := st.schema.Check(snap.Doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}
	return st, nil
}
