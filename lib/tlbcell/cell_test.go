// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import (
	"math/big"
	"testing"
)

func TestBuilderSliceRoundtrip(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreUint(0b101, 3); err != nil {
		t.Fatalf("StoreUint: %v", err)
	}
	if err := b.StoreIntBig(big.NewInt(-5), 8); err != nil {
		t.Fatalf("StoreIntBig: %v", err)
	}
	inner := NewBuilder()
	if err := inner.StoreUint(42, 16); err != nil {
		t.Fatalf("inner StoreUint: %v", err)
	}
	if err := b.StoreRef(inner.Finalize()); err != nil {
		t.Fatalf("StoreRef: %v", err)
	}

	cell := b.Finalize()
	s := cell.AsSlice()

	got, err := s.LoadUint(3)
	if err != nil || got != 0b101 {
		t.Fatalf("LoadUint(3) = %d, %v; want 5, nil", got, err)
	}

	signed, err := s.LoadIntBig(8)
	if err != nil || signed.Cmp(big.NewInt(-5)) != 0 {
		t.Fatalf("LoadIntBig(8) = %v, %v; want -5, nil", signed, err)
	}

	ref, err := s.LoadRef()
	if err != nil {
		t.Fatalf("LoadRef: %v", err)
	}
	val, err := ref.AsSlice().LoadUint(16)
	if err != nil || val != 42 {
		t.Fatalf("ref LoadUint(16) = %d, %v; want 42, nil", val, err)
	}

	if s.RemainingBits() != 0 || s.RemainingRefs() != 0 {
		t.Fatalf("expected slice fully consumed, got %d bits, %d refs", s.RemainingBits(), s.RemainingRefs())
	}
}

func TestSliceSkipRewind(t *testing.T) {
	b := NewBuilder()
	_ = b.StoreUint(0xAB, 8)
	cell := b.Finalize()
	s := cell.AsSlice()

	before := s.RemainingBits()
	if _, err := s.LoadUint(8); err != nil {
		t.Fatalf("LoadUint: %v", err)
	}
	if err := s.Skip(-8); err != nil {
		t.Fatalf("Skip(-8): %v", err)
	}
	if s.RemainingBits() != before {
		t.Fatalf("after rewind RemainingBits() = %d, want %d", s.RemainingBits(), before)
	}
	v, err := s.LoadUint(8)
	if err != nil || v != 0xAB {
		t.Fatalf("re-read after rewind = %d, %v; want 0xAB, nil", v, err)
	}
}

func TestVarUintRoundtrip(t *testing.T) {
	b := NewBuilder()
	amount := big.NewInt(1_000_000_000)
	if err := b.StoreCoins(amount); err != nil {
		t.Fatalf("StoreCoins: %v", err)
	}
	cell := b.Finalize()
	got, err := cell.AsSlice().LoadCoins()
	if err != nil {
		t.Fatalf("LoadCoins: %v", err)
	}
	if got.Cmp(amount) != 0 {
		t.Fatalf("LoadCoins() = %s, want %s", got, amount)
	}
}

func TestAddressRoundtrip(t *testing.T) {
	addr, err := ParseAddress("0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	b := NewBuilder()
	if err := b.StoreAddress(addr); err != nil {
		t.Fatalf("StoreAddress: %v", err)
	}
	got, err := b.Finalize().AsSlice().LoadAddress()
	if err != nil {
		t.Fatalf("LoadAddress: %v", err)
	}
	if got.String() != addr.String() {
		t.Fatalf("LoadAddress() = %s, want %s", got, addr)
	}
}

func TestTupleRoundtrip(t *testing.T) {
	values := []*big.Int{big.NewInt(1), big.NewInt(-2), big.NewInt(3), big.NewInt(4), big.NewInt(5)}
	cell, err := SerializeTuple(values)
	if err != nil {
		t.Fatalf("SerializeTuple: %v", err)
	}
	got, err := ParseTuple(cell)
	if err != nil {
		t.Fatalf("ParseTuple: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("ParseTuple() len = %d, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i].Cmp(values[i]) != 0 {
			t.Fatalf("element %d = %s, want %s", i, got[i], values[i])
		}
	}
}

func TestDictRoundtrip(t *testing.T) {
	d := NewDict(8)
	d.Set(big.NewInt(1), "one")
	d.Set(big.NewInt(2), "two")

	b := NewBuilder()
	err := b.StoreDict(d, func(v any) (*Cell, error) {
		vb := NewBuilder()
		if err := vb.StoreBits(FromText(v.(string))); err != nil {
			return nil, err
		}
		return vb.Finalize(), nil
	})
	if err != nil {
		t.Fatalf("StoreDict: %v", err)
	}

	got, err := b.Finalize().AsSlice().LoadDict(8, func(s *Slice) (any, error) {
		bs, err := s.LoadBits(s.RemainingBits())
		if err != nil {
			return nil, err
		}
		return bs.Text(), nil
	})
	if err != nil {
		t.Fatalf("LoadDict: %v", err)
	}
	one, ok := got.Get(big.NewInt(1))
	if !ok || one != "one" {
		t.Fatalf("Get(1) = %v, %v; want one, true", one, ok)
	}
}
