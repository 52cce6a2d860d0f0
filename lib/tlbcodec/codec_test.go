// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcodec

import (
	"math/big"
	"testing"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
)

func mustCompile(t *testing.T, schema string) *Runtime {
	t.Helper()
	rt, err := Compile(schema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return rt
}

// TestTagSelection covers two constructors
// disambiguated by a leading tag bit.
func TestTagSelection(t *testing.T) {
	rt := mustCompile(t, `a$0 x:#8 = U; b$1 y:#16 = U;`)

	b := tlbcell.NewBuilder()
	if err := b.StoreBit(true); err != nil {
		t.Fatal(err)
	}
	if err := b.StoreUint(4660, 16); err != nil {
		t.Fatal(err)
	}
	cell := b.Finalize()

	v, err := rt.DecodeCell(cell, DecodeOptions{ByTag: true})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec, ok := v.(*Record)
	if !ok {
		t.Fatalf("decoded value = %T, want *Record", v)
	}
	if rec.Kind != "U_b" {
		t.Fatalf("Kind = %q, want U_b", rec.Kind)
	}
	y, ok := rec.Get("y")
	if !ok {
		t.Fatalf("missing field y")
	}
	if y.(Int).Value != 4660 {
		t.Fatalf("y = %v, want 4660", y)
	}
}

// TestTagMismatchRollsBack verifies that a failed constructor attempt
// leaves the slice exactly where it started, so a sibling constructor
// can retry the same bits.
func TestTagMismatchRollsBack(t *testing.T) {
	rt := mustCompile(t, `b$1 y:#16 = U; a$0 x:#8 = U;`)

	b := tlbcell.NewBuilder()
	if err := b.StoreBit(false); err != nil {
		t.Fatal(err)
	}
	if err := b.StoreUint(200, 8); err != nil {
		t.Fatal(err)
	}
	cell := b.Finalize()

	v, err := rt.DecodeCell(cell, DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec := v.(*Record)
	if rec.Kind != "U_a" {
		t.Fatalf("Kind = %q, want U_a", rec.Kind)
	}
	x, _ := rec.Get("x")
	if x.(Int).Value != 200 {
		t.Fatalf("x = %v, want 200", x)
	}
}

// TestDependentWidth covers a field's bit width
// is computed from an earlier field's decoded value.
func TestDependentWidth(t *testing.T) {
	rt := mustCompile(t, `x$_ n:#5 v:(## n) = X;`)

	b := tlbcell.NewBuilder()
	if err := b.StoreUint(10, 5); err != nil {
		t.Fatal(err)
	}
	if err := b.StoreUint(512, 10); err != nil {
		t.Fatal(err)
	}
	cell := b.Finalize()

	v, err := rt.DecodeCell(cell, DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec := v.(*Record)
	n, _ := rec.Get("n")
	if n.(Int).Value != 10 {
		t.Fatalf("n = %v, want 10", n)
	}
	val, _ := rec.Get("v")
	if val.(Int).Value != 512 {
		t.Fatalf("v = %v, want 512", val)
	}

	cell2, err := rt.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if cell2.BitLen() != cell.BitLen() {
		t.Fatalf("round-trip BitLen = %d, want %d", cell2.BitLen(), cell.BitLen())
	}
}

// TestConstraintEnforcement covers a satisfied
// constraint accepts the datum, a violated one is rejected.
func TestConstraintEnforcement(t *testing.T) {
	rt := mustCompile(t, `pair n:#8 m:#8 { n + m = 10 } = Pair;`)

	ok := tlbcell.NewBuilder()
	_ = ok.StoreUint(3, 8)
	_ = ok.StoreUint(7, 8)
	if _, err := rt.DecodeCell(ok.Finalize(), DecodeOptions{ByTag: false}); err != nil {
		t.Fatalf("expected satisfied constraint to decode, got %v", err)
	}

	bad := tlbcell.NewBuilder()
	_ = bad.StoreUint(3, 8)
	_ = bad.StoreUint(8, 8)
	_, err := rt.DecodeCell(bad.Finalize(), DecodeOptions{ByTag: false})
	if err == nil {
		t.Fatal("expected violated constraint to fail")
	}
	de, isDataError := err.(*DataError)
	if !isDataError || de.Kind != ConstraintFailed {
		t.Fatalf("err = %v, want DataError(ConstraintFailed)", err)
	}
}

// TestConditionalField covers a field present
// only when an earlier Bool field is true.
func TestConditionalField(t *testing.T) {
	rt := mustCompile(t, `msg has:Bool body:has?(^Cell) = Msg;`)

	payload := tlbcell.NewBuilder().Finalize()

	withBody := tlbcell.NewBuilder()
	_ = withBody.StoreBit(true)
	_ = withBody.StoreMaybeRef(payload)
	v, err := rt.DecodeCell(withBody.Finalize(), DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec := v.(*Record)
	body, ok := rec.Get("body")
	if !ok {
		t.Fatalf("missing field body")
	}
	if _, ok := body.(CellRef); !ok {
		t.Fatalf("body = %T, want CellRef", body)
	}

	withoutBody := tlbcell.NewBuilder()
	_ = withoutBody.StoreBit(false)
	v2, err := rt.DecodeCell(withoutBody.Finalize(), DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec2 := v2.(*Record)
	body2, ok := rec2.Get("body")
	if !ok {
		t.Fatalf("missing field body")
	}
	if _, ok := body2.(Absent); !ok {
		t.Fatalf("body = %T, want Absent", body2)
	}

	cell, err := rt.Encode(rec2)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if cell.BitLen() != 1 || cell.RefCount() != 0 {
		t.Fatalf("re-encoded cell = %d bits/%d refs, want 1/0", cell.BitLen(), cell.RefCount())
	}
}

// TestTextAutoDetection covers a byte-aligned bit
// string that happens to be valid UTF-8 surfaces as Text, otherwise as
// Bits.
func TestTextAutoDetection(t *testing.T) {
	rt := mustCompile(t, `lbl text:(bits 24) = L;`)

	asText := tlbcell.NewBuilder()
	_ = asText.StoreBytes([]byte("abc"))
	v, err := rt.DecodeCell(asText.Finalize(), DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec := v.(*Record)
	text, ok := rec.Get("text")
	if !ok {
		t.Fatalf("missing field text")
	}
	tv, ok := text.(Text)
	if !ok || tv.Value != "abc" {
		t.Fatalf("text = %#v, want Text{\"abc\"}", text)
	}

	asBits := tlbcell.NewBuilder()
	_ = asBits.StoreBytes([]byte{0xff, 0xfe, 0xfd})
	v2, err := rt.DecodeCell(asBits.Finalize(), DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	rec2 := v2.(*Record)
	bits, ok := rec2.Get("text")
	if !ok {
		t.Fatalf("missing field text")
	}
	if _, ok := bits.(Bits); !ok {
		t.Fatalf("text = %T, want Bits", bits)
	}
}

// TestHashmapRoundTrip covers a dictionary field
// encodes and decodes back to the same key/value set.
func TestHashmapRoundTrip(t *testing.T) {
	rt := mustCompile(t, `cfg m:(HashmapE 8 ^Cell) = Cfg;`)

	leaf := tlbcell.NewBuilder()
	_ = leaf.StoreUint(0xAB, 8)

	rec := NewRecord("Cfg")
	rec.Set("m", &Dict{
		KeyBits: 8,
		Entries: []DictEntry{
			{Key: big.NewInt(1), Value: CellRef{Value: leaf.Finalize()}},
		},
	})

	cell, err := rt.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	v, err := rt.DecodeCell(cell, DecodeOptions{ByTag: false})
	if err != nil {
		t.Fatalf("DecodeCell: %v", err)
	}
	got := v.(*Record)
	m, ok := got.Get("m")
	if !ok {
		t.Fatalf("missing field m")
	}
	d, ok := m.(*Dict)
	if !ok {
		t.Fatalf("m = %T, want *Dict", m)
	}
	if len(d.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(d.Entries))
	}
	if d.Entries[0].Key.Int64() != 1 {
		t.Fatalf("key = %v, want 1", d.Entries[0].Key)
	}
	ref, ok := d.Entries[0].Value.(CellRef)
	if !ok {
		t.Fatalf("value = %T, want CellRef", d.Entries[0].Value)
	}
	got32, err := ref.Value.AsSlice().LoadUint(8)
	if err != nil {
		t.Fatalf("LoadUint: %v", err)
	}
	if got32 != 0xAB {
		t.Fatalf("leaf value = %x, want ab", got32)
	}
}

// TestDeterministicEncode verifies encoding the same Value twice
// produces identical bits.
func TestDeterministicEncode(t *testing.T) {
	rt := mustCompile(t, `pair n:#8 m:#8 { n + m = 10 } = Pair;`)
	rec := NewRecord("Pair")
	rec.Set("n", Int{Value: 3})
	rec.Set("m", Int{Value: 7})

	c1, err := rt.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	c2, err := rt.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if c1.ToBase64() != c2.ToBase64() {
		t.Fatalf("encode is not deterministic: %s != %s", c1.ToBase64(), c2.ToBase64())
	}
}

// TestNoMatchingRootType verifies decoding a cell too short to carry
// any declared constructor reports a DataError rather than panicking.
func TestNoMatchingRootType(t *testing.T) {
	rt := mustCompile(t, `a$0 x:#8 = U;`)
	cell := tlbcell.NewBuilder().Finalize()
	_, err := rt.DecodeCell(cell, DecodeOptions{ByTag: false})
	if err == nil {
		t.Fatal("expected an error decoding an empty cell with no matching root type")
	}
	if !isDataError(err) {
		t.Fatalf("err = %v (%T), want a *DataError", err, err)
	}
}
