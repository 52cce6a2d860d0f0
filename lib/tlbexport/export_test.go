// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbexport

import (
	"math/big"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
)

func TestToTreeRecord(t *testing.T) {
	rt, err := tlbcodec.Compile("u$_ x:#8 y:Bool = U;\n")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rec := tlbcodec.NewRecord("U")
	rec.Set("x", tlbcodec.Int{Value: 42})
	rec.Set("y", tlbcodec.Bool{Value: true})

	cell, err := rt.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	v, err := rt.DecodeCell(cell, tlbcodec.DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}

	tree, err := ToTree(v)
	if err != nil {
		t.Fatalf("ToTree: %v", err)
	}
	m, ok := tree.(map[string]any)
	if !ok {
		t.Fatalf("ToTree returned %T, want map[string]any", tree)
	}
	if m[kindKey] != "U" {
		t.Errorf("_kind = %v, want U", m[kindKey])
	}
	if m["x"] != int64(42) {
		t.Errorf("x = %v, want 42", m["x"])
	}
	if m["y"] != true {
		t.Errorf("y = %v, want true", m["y"])
	}
}

func TestToTreeBigInt(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 100)
	tree, err := ToTree(tlbcodec.BigInt{Value: want})
	if err != nil {
		t.Fatalf("ToTree: %v", err)
	}
	got, ok := tree.(*big.Int)
	if !ok {
		t.Fatalf("ToTree returned %T, want *big.Int", tree)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got.String(), want.String())
	}
}

func TestToTreeSequenceAndAbsent(t *testing.T) {
	seq := tlbcodec.Sequence{Items: []tlbcodec.Value{
		tlbcodec.Int{Value: 1},
		tlbcodec.Absent{},
		tlbcodec.Int{Value: 3},
	}}
	tree, err := ToTree(seq)
	if err != nil {
		t.Fatalf("ToTree: %v", err)
	}
	items, ok := tree.([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("ToTree returned %#v, want 3-item slice", tree)
	}
	if items[0] != int64(1) || items[1] != nil || items[2] != int64(3) {
		t.Errorf("items = %#v", items)
	}
}

func TestToTreeDict(t *testing.T) {
	d := &tlbcodec.Dict{
		KeyBits: 8,
		Entries: []tlbcodec.DictEntry{
			{Key: big.NewInt(1), Value: tlbcodec.Int{Value: 10}},
			{Key: big.NewInt(2), Value: tlbcodec.Int{Value: 20}},
		},
	}
	tree, err := ToTree(d)
	if err != nil {
		t.Fatalf("ToTree: %v", err)
	}
	m, ok := tree.(map[string]any)
	if !ok {
		t.Fatalf("ToTree returned %T, want map[string]any", tree)
	}
	if m["1"] != int64(10) || m["2"] != int64(20) {
		t.Errorf("m = %#v", m)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	rec := tlbcodec.NewRecord("U")
	rec.Set("x", tlbcodec.Int{Value: 7})

	b1, err := Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b2, err := Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b1) != string(b2) {
		t.Error("Marshal output not deterministic across identical inputs")
	}

	var out map[string]any
	if err := cbor.Unmarshal(b1, &out); err != nil {
		t.Fatalf("cbor.Unmarshal: %v", err)
	}
	if out[kindKey] != "U" {
		t.Errorf("_kind = %v, want U", out[kindKey])
	}
}

func TestToTreeUnsupportedType(t *testing.T) {
	_, err := ToTree(nil)
	if err == nil {
		t.Fatal("expected an error for a nil Value")
	}
}
