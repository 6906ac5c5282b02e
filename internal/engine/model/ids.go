package model

// BlockID identifies a block for its whole lifetime. Ids are assigned by an
// IDGenerator when a block is created and survive every transaction until
// the block is deleted or merged away.
type BlockID string

// NodeType names a block type declared by the schema ("paragraph", "table_cell").
type NodeType string

// MarkType names a mark type declared by the schema ("bold", "link").
type MarkType string

// InlineType names an inline atom type declared by the schema ("hard_break").
type InlineType string

// String returns the id as a plain string.
func (id BlockID) String() string { return string(id) }

// String returns the type name.
func (t NodeType) String() string { return string(t) }

// String returns the type name.
func (t MarkType) String() string { return string(t) }

// String returns the type name.
func (t InlineType) String() string { return string(t) }
