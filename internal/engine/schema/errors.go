package schema

import "errors"

// Errors returned while building or consulting a schema.
var (
	// ErrDuplicateType indicates a node, mark or inline type was declared twice.
	ErrDuplicateType = errors.New("duplicate type")

	// ErrReservedName indicates a type used a name reserved by the wire format.
	ErrReservedName = errors.New("reserved type name")

	// ErrEmptyEnum indicates an enum attribute was declared without values.
	ErrEmptyEnum = errors.New("enum attribute has no values")

	// ErrUnknownType indicates a node, mark or inline type is not in the schema.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownAttr indicates an attribute is not declared for its type.
	ErrUnknownAttr = errors.New("unknown attribute")

	// ErrInvalidAttr indicates an attribute value failed validation.
	ErrInvalidAttr = errors.New("invalid attribute")

	// ErrMarkNotAllowed indicates a mark was found on a node that forbids it.
	ErrMarkNotAllowed = errors.New("mark not allowed")
)
