package state

import "github.com/dshills/blockstorm/internal/engine/model"

// record is the arena entry of one block.
type record struct {
	block    *model.Block
	parentID model.BlockID
	path     model.Path
	leaf     int
}

// index is a flat view of the document tree, built once per state.
type index struct {
	records map[model.BlockID]*record
	leaves  []model.BlockID
}

func buildIndex(doc *model.Document) *index {
	idx := &index{records: make(map[model.BlockID]*record)}
	model.Walk(doc, func(b *model.Block, path model.Path, parent *model.Block) bool {
		rec := &record{block: b, path: path.Clone(), leaf: -1}
		if parent != nil {
			rec.parentID = parent.ID
		}
		if b.IsLeaf() {
			rec.leaf = len(idx.leaves)
			idx.leaves = append(idx.leaves, b.ID)
		}
		idx.records[b.ID] = rec
		return true
	})
	return idx
}

func (idx *index) get(id model.BlockID) (*record, bool) {
	rec, ok := idx.records[id]
	return rec, ok
}
