// Package state holds EditorState, the immutable snapshot of a document,
// its selection and stored marks.
//
// Every Apply returns a new state; nothing in a state is ever mutated. Block
// lookups go through an arena index that is built lazily, once per state, so
// renderers and commands can ask for blocks, paths, parents and document
// order without walking the tree.
package state

import (
	"sync"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/transaction"
	"github.com/dshills/blockstorm/internal/logging"
)

// EditorState is an immutable editor snapshot.
type EditorState struct {
	doc         *model.Document
	sel         selection.Selection
	storedMarks []model.Mark
	schema      *schema.Schema
	features    schema.Features
	ids         model.IDGenerator
	logger      *logging.Logger

	once sync.Once
	idx  *index
}

// Option configures Create and FromJSON.
type Option func(*options)

type options struct {
	doc         *model.Document
	sel         selection.Selection
	storedMarks []model.Mark
	schema      *schema.Schema
	features    schema.Features
	ids         model.IDGenerator
	logger      *logging.Logger
}

// WithDoc sets the initial document.
func WithDoc(doc *model.Document) Option {
	return func(o *options) { o.doc = doc }
}

// WithSelection sets the initial selection. It is repaired against the
// document like any applied selection.
func WithSelection(sel selection.Selection) Option {
	return func(o *options) { o.sel = sel }
}

// WithStoredMarks sets the initial stored marks.
func WithStoredMarks(marks []model.Mark) Option {
	return func(o *options) { o.storedMarks = marks }
}

// WithSchema sets the schema. A nil schema treats every type as an ordinary
// block and allows every mark.
func WithSchema(s *schema.Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithFeatures sets the feature flags.
func WithFeatures(f schema.Features) Option {
	return func(o *options) { o.features = f }
}

// WithIDGenerator sets the generator for new block ids.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger sets the logger used to report selection repairs.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func defaultOptions() options {
	return options{
		schema: schema.Default(),
		ids:    model.UUIDGenerator{},
		logger: logging.Nop(),
	}
}

// Create builds a state. Without a document it starts with one empty
// paragraph; without a selection the cursor sits at the start of the first
// text block.
func Create(opts ...Option) *EditorState {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = model.UUIDGenerator{}
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	s := &EditorState{
		storedMarks: o.storedMarks,
		schema:      o.schema,
		features:    o.features,
		ids:         o.ids,
		logger:      o.logger.WithCategory(logging.CatState),
	}
	s.doc = s.ensureBlocks(o.doc)
	s.sel = s.repair(o.sel)
	return s
}

// derive returns a state sharing configuration with s.
func (s *EditorState) derive(doc *model.Document, marks []model.Mark) *EditorState {
	return &EditorState{
		doc:         doc,
		storedMarks: marks,
		schema:      s.schema,
		features:    s.features,
		ids:         s.ids,
		logger:      s.logger,
	}
}

func (s *EditorState) ensureBlocks(doc *model.Document) *model.Document {
	if doc != nil && len(doc.Children) > 0 {
		return doc
	}
	return model.NewDocument(model.NewBlock(s.ids.NewID(), schema.Paragraph, nil))
}

func (s *EditorState) index() *index {
	s.once.Do(func() { s.idx = buildIndex(s.doc) })
	return s.idx
}

// Doc returns the document.
func (s *EditorState) Doc() *model.Document { return s.doc }

// Selection returns the selection. It is never nil.
func (s *EditorState) Selection() selection.Selection { return s.sel }

// StoredMarks returns the marks queued for the next typed text, or nil.
func (s *EditorState) StoredMarks() []model.Mark { return s.storedMarks }

// Schema returns the schema, which may be nil.
func (s *EditorState) Schema() *schema.Schema { return s.schema }

// Features returns the feature flags.
func (s *EditorState) Features() schema.Features { return s.features }

// Logger returns the state logger.
func (s *EditorState) Logger() *logging.Logger { return s.logger }

// Transaction starts a builder seeded with the current document, selection
// and stored marks.
func (s *EditorState) Transaction(origin transaction.Origin) *transaction.Builder {
	return transaction.NewBuilder(s.doc, s.sel, s.storedMarks, origin)
}

// GetBlock returns the block with the given id anywhere in the tree.
func (s *EditorState) GetBlock(id model.BlockID) (*model.Block, bool) {
	rec, ok := s.index().get(id)
	if !ok {
		return nil, false
	}
	return rec.block, true
}

// GetBlockOrder lists leaf block ids depth-first in document order. It is
// the order selections and renderers walk.
func (s *EditorState) GetBlockOrder() []model.BlockID {
	return append([]model.BlockID(nil), s.index().leaves...)
}

// BlockIndex returns the position of id in GetBlockOrder, or -1 for a
// structural or unknown block. It makes EditorState a selection.Ordering.
func (s *EditorState) BlockIndex(id model.BlockID) int {
	rec, ok := s.index().get(id)
	if !ok {
		return -1
	}
	return rec.leaf
}

// BlockCount returns the number of blocks in the tree, containers included.
func (s *EditorState) BlockCount() int { return len(s.index().records) }

// LeafAt returns the leaf at position i of GetBlockOrder.
func (s *EditorState) LeafAt(i int) (*model.Block, bool) {
	leaves := s.index().leaves
	if i < 0 || i >= len(leaves) {
		return nil, false
	}
	return s.GetBlock(leaves[i])
}

// GetNodePath returns the path of id from the document root.
func (s *EditorState) GetNodePath(id model.BlockID) (model.Path, bool) {
	rec, ok := s.index().get(id)
	if !ok {
		return nil, false
	}
	return rec.path.Clone(), true
}

// GetParent returns the parent block of id. Top-level blocks return
// (nil, true).
func (s *EditorState) GetParent(id model.BlockID) (*model.Block, bool) {
	rec, ok := s.index().get(id)
	if !ok {
		return nil, false
	}
	if rec.parentID == "" {
		return nil, true
	}
	return s.GetBlock(rec.parentID)
}

// Ancestors lists the ancestors of id from the nearest outward.
func (s *EditorState) Ancestors(id model.BlockID) []*model.Block {
	var out []*model.Block
	rec, ok := s.index().get(id)
	for ok && rec.parentID != "" {
		rec, ok = s.index().get(rec.parentID)
		if ok {
			out = append(out, rec.block)
		}
	}
	return out
}

// BlockLength returns the content length of a block, or 0 if missing.
func (s *EditorState) BlockLength(id model.BlockID) int {
	b, ok := s.GetBlock(id)
	if !ok {
		return 0
	}
	return model.GetBlockLength(b)
}

// IsVoid reports whether the block exists and is a void type.
func (s *EditorState) IsVoid(id model.BlockID) bool {
	b, ok := s.GetBlock(id)
	return ok && s.schema.IsVoid(b.Type)
}

// IsIsolating reports whether the block exists and is an isolating type.
func (s *EditorState) IsIsolating(id model.BlockID) bool {
	b, ok := s.GetBlock(id)
	return ok && s.schema.IsIsolating(b.Type)
}

// IsSelectable reports whether the block can be node-selected.
func (s *EditorState) IsSelectable(id model.BlockID) bool {
	b, ok := s.GetBlock(id)
	return ok && s.schema.IsSelectable(b.Type)
}

// NearestIsolating returns the closest isolating block containing id, id
// itself included. ok is false when there is none.
func (s *EditorState) NearestIsolating(id model.BlockID) (model.BlockID, bool) {
	if s.IsIsolating(id) {
		return id, true
	}
	for _, a := range s.Ancestors(id) {
		if s.schema.IsIsolating(a.Type) {
			return a.ID, true
		}
	}
	return "", false
}

// NewBlockID returns an id not used in the document.
func (s *EditorState) NewBlockID() model.BlockID {
	for {
		id := s.ids.NewID()
		if _, taken := s.index().get(id); !taken {
			return id
		}
	}
}

// NewBlockIDs returns n distinct unused ids.
func (s *EditorState) NewBlockIDs(n int) []model.BlockID {
	out := make([]model.BlockID, 0, n)
	seen := make(map[model.BlockID]bool, n)
	for len(out) < n {
		id := s.NewBlockID()
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// MarkEnabled reports whether the schema declares m and its feature flag is
// on.
func (s *EditorState) MarkEnabled(m model.MarkType) bool {
	return s.schema.MarkEnabled(m, s.features)
}

// MarksAtCursor returns the marks typed text would receive at a collapsed
// position: stored marks when set, else the marks before the position.
func (s *EditorState) MarksAtCursor(pos selection.Position) []model.Mark {
	if s.storedMarks != nil {
		return s.storedMarks
	}
	b, ok := s.GetBlock(pos.BlockID)
	if !ok {
		return nil
	}
	return model.GetBlockMarksAtOffset(b, pos.Offset)
}
