// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlbschema holds the immutable in-memory model of a parsed
// TL-B schema and the Builder that produces
// it from a sequence of type/constructor declarations.
// Once Build returns, a Model is never mutated again — Runtime relies
// on that to share a compiled schema across concurrent callers
// without synchronization.
package tlbschema

import "github.com/skulidropek/tlb-rest-server/lib/tlbexpr"

// Model is the full set of types declared by one TL-B schema.
type Model struct {
	types        map[string]*Type
	order        []string // declaration order, for the "all non-zero-tag types first" scan
	lastTypeName string
}

// Type looks up a declared type by name.
func (m *Model) Type(name string) (*Type, bool) {
	t, ok := m.types[name]
	return t, ok
}

// TypeNames returns all declared type names in declaration order.
func (m *Model) TypeNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// LastTypeName is the name on the left-hand side of the last type
// definition in the schema text — the decoding hint used for the
// "guess the root type" path.
func (m *Model) LastTypeName() string { return m.lastTypeName }

// Type is one named TL-B sum type: an ordered list of alternative
// Constructors.
type Type struct {
	Name         string
	Constructors []*Constructor
}

// Constructor is one alternative of a Type's sum: a tag, the
// constructor's polymorphic parameters, its fields in declaration
// order, and the constraint expressions that must hold once all
// fields are bound.
type Constructor struct {
	Name        string
	Tag         Tag
	Params      []*Parameter
	paramIndex  map[string]int
	Fields      []*Field
	Constraints []tlbexpr.Expr
}

// ParamIndex returns the position of a parameter by name, for
// resolving Named field-type arguments against incoming polymorphic
// arguments.
func (c *Constructor) ParamIndex(name string) (int, bool) {
	i, ok := c.paramIndex[name]
	return i, ok
}

// Tag is the bit-prefix that disambiguates constructors of one Type.
// BitLen == 0 means "no tag bits".
type Tag struct {
	BitLen int
	Value  uint64
}

// Parameter is a named integer variable bound to a constructor's
// polymorphism, with an optional constant value.
type Parameter struct {
	Name  string
	Const *int64
}

// Field is a named (or anonymous, when Name == "") positionally
// ordered component of a Constructor. A non-empty SubFields means the
// field's value lives inside a freshly-loaded reference cell rather
// than inline.
type Field struct {
	Name      string
	Type      FieldType
	SubFields []*Field
}

// Anonymous reports whether the field contributes its value directly
// to the parent record instead of under its own key.
func (f *Field) Anonymous() bool { return f.Name == "" }

// FieldType is the tagged union of field-type shapes TL-B supports.
type FieldType interface {
	isFieldType()
}

// Number is a fixed- or dependent-width integer, e.g. uint32 or `## n`.
type Number struct {
	Bits   tlbexpr.Expr
	Signed bool
}

// BoolField is TL-B's `Bool` built-in, or a fixed true/false literal
// (`Bool`/`#b0`/`#b1`-style constant fields never consume bits).
type BoolField struct {
	Fixed    bool
	HasFixed bool
}

// BitsField is a fixed- or dependent-width raw bit string, e.g.
// `(bits 24)`.
type BitsField struct {
	Bits tlbexpr.Expr
}

// Named is a reference to another declared Type (or the built-in
// Bool), with polymorphic arguments.
type Named struct {
	Name      string
	Arguments []FieldType
}

// CoinsField is a TON Coins amount (VarUInteger 16).
type CoinsField struct{}

// AddressField is a TON account address.
type AddressField struct{}

// CellField is an optional reference to another cell (one Maybe bit).
type CellField struct{}

// CellInside wraps a field type that lives inside a freshly-loaded
// reference cell rather than inline.
type CellInside struct {
	Inner FieldType
}

// Hashmap is a dictionary keyed by a signed integer of a
// schema-declared bit width, with a per-schema value type.
type Hashmap struct {
	KeyBits tlbexpr.Expr
	Value   FieldType
}

// VarInteger is a length-prefixed integer with a max-byte-count
// parameter, decoded/encoded as a decimal string to avoid precision
// ambiguity.
type VarInteger struct {
	N      tlbexpr.Expr
	Signed bool
}

// Multiple is a fixed- or dependent-count repetition of a field type.
type Multiple struct {
	Times tlbexpr.Expr
	Elem  FieldType
}

// Cond is a field present only when its condition evaluates truthy.
type Cond struct {
	Condition tlbexpr.Expr
	Inner     FieldType
}

// TupleField is a VM tuple, serialized to a single reference.
type TupleField struct{}

func (Number) isFieldType()       {}
func (BoolField) isFieldType()    {}
func (BitsField) isFieldType()    {}
func (Named) isFieldType()        {}
func (CoinsField) isFieldType()   {}
func (AddressField) isFieldType() {}
func (CellField) isFieldType()    {}
func (CellInside) isFieldType()   {}
func (Hashmap) isFieldType()      {}
func (VarInteger) isFieldType()   {}
func (Multiple) isFieldType()     {}
func (Cond) isFieldType()         {}
func (TupleField) isFieldType()   {}
