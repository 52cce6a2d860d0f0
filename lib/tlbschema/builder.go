// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbschema

import (
	"fmt"

	"github.com/skulidropek/tlb-rest-server/lib/tlbexpr"
)

// SchemaError reports that a schema could not be built: a parse
// failure, or a build-time check such as every Named reference
// resolving to a declared Type, except the built-in Bool. SchemaError
// is terminal — produced only by building or parsing a schema, never
// by decoding/encoding data against an already-compiled Model.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "tlbschema: " + e.Msg }

// TypeDecl and ConstructorDecl are the plain, order-preserving
// declarations a parser accumulates before Build finalizes them into
// an immutable Model. This is the "external parser's AST" stage the
// builder consumes — represented here as simple Go values rather
// than a second parallel tree, since nothing downstream needs
// anything richer than what Model itself holds.
type TypeDecl struct {
	Name         string
	Constructors []ConstructorDecl
}

// ConstructorDecl is one constructor alternative as handed to the
// builder, prior to paramIndex materialization.
type ConstructorDecl struct {
	Name        string
	Tag         Tag
	Params      []Parameter
	Fields      []*Field
	Constraints []tlbexpr.Expr
}

// Builder accumulates TypeDecls in declaration order and produces an
// immutable Model via Build.
type Builder struct {
	decls            []TypeDecl
	lastTypeName     string
	lastTypeNameSet  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AddType appends one type declaration in schema-text order.
func (b *Builder) AddType(decl TypeDecl) { b.decls = append(b.decls, decl) }

// SetLastTypeName overrides LastTypeName on the built Model. A parser
// should call this with the type name on the left-hand side of the
// last combinator in the schema text, which is not necessarily the
// last newly-introduced type when a schema interleaves constructors
// of the same type with others.
func (b *Builder) SetLastTypeName(name string) {
	b.lastTypeName = name
	b.lastTypeNameSet = true
}

// Build finalizes accumulated declarations into an immutable Model,
// checking that every Named field-type reference resolves to a
// declared Type (with the built-in Bool exempted) and recording
// LastTypeName.
func (b *Builder) Build() (*Model, error) {
	if len(b.decls) == 0 {
		return nil, &SchemaError{Msg: "schema declares no types"}
	}

	m := &Model{types: make(map[string]*Type, len(b.decls))}
	for _, decl := range b.decls {
		if _, dup := m.types[decl.Name]; dup {
			return nil, &SchemaError{Msg: fmt.Sprintf("type %q declared more than once", decl.Name)}
		}
		t := &Type{Name: decl.Name}
		for _, cdecl := range decl.Constructors {
			c := &Constructor{
				Name:        cdecl.Name,
				Tag:         cdecl.Tag,
				Fields:      cdecl.Fields,
				Constraints: cdecl.Constraints,
				paramIndex:  make(map[string]int, len(cdecl.Params)),
			}
			for i, p := range cdecl.Params {
				param := p
				c.Params = append(c.Params, &param)
				c.paramIndex[p.Name] = i
			}
			t.Constructors = append(t.Constructors, c)
		}
		m.types[decl.Name] = t
		m.order = append(m.order, decl.Name)
	}
	if b.lastTypeNameSet {
		m.lastTypeName = b.lastTypeName
	} else {
		m.lastTypeName = b.decls[len(b.decls)-1].Name
	}

	if err := checkNamedReferences(m); err != nil {
		return nil, err
	}
	return m, nil
}

// checkNamedReferences walks every field type and confirms every
// Named reference resolves, exempting the built-in Bool and any name
// that matches one of the enclosing constructor's own declared
// polymorphic parameters (e.g. `{X:Type}`) — those are resolved
// against the caller's supplied argument at decode/encode time, not
// against the Model's declared types.
func checkNamedReferences(m *Model) error {
	for _, name := range m.order {
		t := m.types[name]
		for _, c := range t.Constructors {
			for _, f := range c.Fields {
				if err := checkFieldNamed(m, c, f); err != nil {
					return fmt.Errorf("tlbschema: type %s, constructor %s: %w", t.Name, c.Name, err)
				}
			}
		}
	}
	return nil
}

func checkFieldNamed(m *Model, c *Constructor, f *Field) error {
	if err := checkFieldTypeNamed(m, c, f.Type); err != nil {
		return err
	}
	for _, sub := range f.SubFields {
		if err := checkFieldNamed(m, c, sub); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldTypeNamed(m *Model, c *Constructor, ft FieldType) error {
	switch t := ft.(type) {
	case Named:
		if t.Name == "Bool" {
			return nil
		}
		if _, ok := c.ParamIndex(t.Name); ok {
			return nil
		}
		if _, ok := m.types[t.Name]; !ok {
			return &SchemaError{Msg: fmt.Sprintf("reference to undeclared type %q", t.Name)}
		}
		for _, arg := range t.Arguments {
			if err := checkFieldTypeNamed(m, c, arg); err != nil {
				return err
			}
		}
	case CellInside:
		return checkFieldTypeNamed(m, c, t.Inner)
	case Hashmap:
		return checkFieldTypeNamed(m, c, t.Value)
	case Multiple:
		return checkFieldTypeNamed(m, c, t.Elem)
	case Cond:
		return checkFieldTypeNamed(m, c, t.Inner)
	}
	return nil
}
