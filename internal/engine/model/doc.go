// Package model provides the immutable document tree for the rich-text engine.
//
// A Document is an ordered list of top-level blocks. Every Block is either
// structural (all children are blocks: lists, tables, table cells) or a leaf
// (all children are inline content: Text and InlineNode). Nothing in this
// package mutates a node after construction; edits return new values that
// share every untouched subtree with their input.
//
// # Offsets
//
// Positions inside a leaf block are linear offsets measured in UTF-16 code
// units. A Text contributes the UTF-16 length of its string and an InlineNode
// contributes exactly one unit. Grapheme-aware stepping belongs to the
// navigation package, not here.
//
// # Inline content operations
//
// The content helpers (SplitContent, InsertContent, DeleteFromContent,
// ApplyMarkToContent, ...) rewrite a slice of inline children. They split
// Text values only at the requested boundaries, never split an InlineNode and
// always return canonical content: no empty Text values and no two adjacent
// Text values with equal mark sets.
//
// # Tree operations
//
// FindBlock, InsertChild, RemoveChild and UpdateBlock address blocks either
// by id or by Path, a list of child indices from the document root. Updates
// copy only the nodes on the path from the root to the edited block.
package model
