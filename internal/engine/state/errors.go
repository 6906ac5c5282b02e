package state

import "errors"

var (
	// ErrVersionMismatch is returned when a snapshot was written by a newer
	// format version than this package understands.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrInvalidSnapshot is returned when a snapshot cannot be decoded or its
	// document does not satisfy the schema.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
