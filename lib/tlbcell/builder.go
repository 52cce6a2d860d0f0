// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import (
	"fmt"
	"math/big"
)

// Builder is a write cursor that accumulates data bits and references
// and produces a Cell via Finalize.
type Builder struct {
	bits []bool
	refs []*Cell
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// BitsWritten reports how many data bits have been stored so far.
func (b *Builder) BitsWritten() int { return len(b.bits) }

// RefsWritten reports how many references have been stored so far.
func (b *Builder) RefsWritten() int { return len(b.refs) }

// StoreBit appends a single bit.
func (b *Builder) StoreBit(v bool) error {
	if len(b.bits) >= MaxBits {
		return fmt.Errorf("tlbcell: cell overflow: cannot store another bit")
	}
	b.bits = append(b.bits, v)
	return nil
}

// StoreUint appends the low n bits of v, MSB-first.
func (b *Builder) StoreUint(v uint64, n int) error {
	return b.StoreUintBig(new(big.Int).SetUint64(v), n)
}

// StoreUintBig appends v as an n-bit unsigned big integer.
func (b *Builder) StoreUintBig(v *big.Int, n int) error {
	if n < 0 {
		return fmt.Errorf("tlbcell: negative bit width %d", n)
	}
	if len(b.bits)+n > MaxBits {
		return fmt.Errorf("tlbcell: cell overflow: cannot store %d bits", n)
	}
	for i := n - 1; i >= 0; i-- {
		b.bits = append(b.bits, v.Bit(i) == 1)
	}
	return nil
}

// StoreIntBig appends v as an n-bit two's-complement signed integer.
func (b *Builder) StoreIntBig(v *big.Int, n int) error {
	if n == 0 {
		return nil
	}
	uv := new(big.Int).Set(v)
	if uv.Sign() < 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(n))
		uv.Add(uv, full)
	}
	return b.StoreUintBig(uv, n)
}

// StoreBits appends a raw BitString.
func (b *Builder) StoreBits(bs BitString) error {
	if len(b.bits)+bs.Len > MaxBits {
		return fmt.Errorf("tlbcell: cell overflow: cannot store %d bits", bs.Len)
	}
	for i := 0; i < bs.Len; i++ {
		bitSet := bs.Data[i/8]&(1<<uint(7-i%8)) != 0
		b.bits = append(b.bits, bitSet)
	}
	return nil
}

// StoreBytes appends raw bytes as byte-aligned bits.
func (b *Builder) StoreBytes(data []byte) error {
	return b.StoreBits(BitString{Data: data, Len: len(data) * 8})
}

// StoreRef appends a reference to another cell.
func (b *Builder) StoreRef(c *Cell) error {
	if len(b.refs) >= MaxRefs {
		return fmt.Errorf("tlbcell: cell overflow: cannot store another ref")
	}
	b.refs = append(b.refs, c)
	return nil
}

// StoreMaybeRef writes the Maybe-ref encoding: one zero bit when c is
// nil, otherwise one set bit followed by a reference to c.
func (b *Builder) StoreMaybeRef(c *Cell) error {
	if c == nil {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return b.StoreRef(c)
}

// Finalize packs the accumulated bits MSB-first into bytes and
// returns the resulting Cell. The Builder remains usable afterward;
// Finalize does not consume its state.
func (b *Builder) Finalize() *Cell {
	data := make([]byte, (len(b.bits)+7)/8)
	for i, bit := range b.bits {
		if bit {
			data[i/8] |= 1 << uint(7-i%8)
		}
	}
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	return &Cell{bits: data, bitLen: len(b.bits), refs: refs}
}

// ToBase64 finalizes the builder and returns its flat single-cell
// base64 encoding, the inverse of FromBase64.
func (b *Builder) ToBase64() string {
	return b.Finalize().ToBase64()
}
