package engine

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/blockstorm/internal/engine/commands"
	"github.com/dshills/blockstorm/internal/engine/history"
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/logging"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
	DefaultGroupDelay     = history.DefaultGroupDelay
	DefaultMaxChanges     = 10000
	DefaultMaxRevisions   = 100
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithState sets the initial state. Schema, feature and id options are
// ignored when a state is given; they only shape states the engine creates.
func WithState(st *state.EditorState) Option {
	return func(e *Engine) {
		e.state = st
	}
}

// WithDocument starts the engine on doc.
func WithDocument(doc *model.Document) Option {
	return func(e *Engine) {
		e.doc = doc
	}
}

// WithSchema sets the schema for states the engine creates.
func WithSchema(s *schema.Schema) Option {
	return func(e *Engine) {
		e.schema = s
	}
}

// WithFeatures sets the feature flags for states the engine creates.
func WithFeatures(f schema.Features) Option {
	return func(e *Engine) {
		e.features = f
	}
}

// WithIDGenerator sets the block id generator for states the engine creates.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithRegistry sets the command registry used by Execute.
func WithRegistry(r *commands.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithHistoryGroupDelay sets how close in time typing must be to merge into
// one undo entry. Zero disables merging.
func WithHistoryGroupDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.groupDelay = d
		}
	}
}

// WithMaxChanges sets the maximum number of tracked changes.
func WithMaxChanges(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxChanges = max
		}
	}
}

// WithMaxRevisions sets the maximum number of stored revisions.
func WithMaxRevisions(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxRevisions = max
		}
	}
}

// WithReadOnly creates a read-only engine.
// Edits other than selection changes return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithTracer sets the tracer for engine spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
