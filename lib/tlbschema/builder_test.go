// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbschema

import (
	"testing"

	"github.com/skulidropek/tlb-rest-server/lib/tlbexpr"
)

func TestBuilderTracksLastTypeName(t *testing.T) {
	b := NewBuilder()
	b.AddType(TypeDecl{Name: "A", Constructors: []ConstructorDecl{{Name: "a"}}})
	b.AddType(TypeDecl{Name: "B", Constructors: []ConstructorDecl{{Name: "b"}}})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.LastTypeName() != "B" {
		t.Fatalf("LastTypeName() = %q, want %q", m.LastTypeName(), "B")
	}
}

func TestBuilderRejectsUndeclaredNamedReference(t *testing.T) {
	b := NewBuilder()
	b.AddType(TypeDecl{
		Name: "A",
		Constructors: []ConstructorDecl{{
			Name:   "a",
			Fields: []*Field{{Name: "x", Type: Named{Name: "Missing"}}},
		}},
	})
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error for undeclared type reference")
	}
}

func TestBuilderAllowsBuiltinBool(t *testing.T) {
	b := NewBuilder()
	b.AddType(TypeDecl{
		Name: "A",
		Constructors: []ConstructorDecl{{
			Name:   "a",
			Fields: []*Field{{Name: "flag", Type: Named{Name: "Bool"}}},
		}},
	})
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestBuilderParamIndex(t *testing.T) {
	b := NewBuilder()
	b.AddType(TypeDecl{
		Name: "A",
		Constructors: []ConstructorDecl{{
			Name:   "a",
			Params: []Parameter{{Name: "n"}},
			Fields: []*Field{{Name: "v", Type: Number{Bits: tlbexpr.Var{Name: "n"}}}},
		}},
	})
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	typ, _ := m.Type("A")
	idx, ok := typ.Constructors[0].ParamIndex("n")
	if !ok || idx != 0 {
		t.Fatalf("ParamIndex(n) = %d, %v; want 0, true", idx, ok)
	}
}
