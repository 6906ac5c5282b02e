package engine

import (
	"errors"

	"github.com/dshills/blockstorm/internal/engine/history"
	"github.com/dshills/blockstorm/internal/engine/tracking"
)

// Errors returned by engine operations.
var (
	// ErrReadOnly indicates an edit was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrUnknownCommand indicates Execute was given an unregistered name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrSnapshotNotFound indicates a snapshot was not found.
	ErrSnapshotNotFound = tracking.ErrSnapshotNotFound

	// ErrRevisionNotFound indicates a revision is no longer stored.
	ErrRevisionNotFound = errors.New("revision not found")
)
