// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import (
	"fmt"
	"math/big"
)

// lenBitsFor returns the number of bits needed to encode the byte
// length prefix of a VarInteger n (the "max byte count" parameter):
// ceil(log2(n)). TL-B's VarUInteger 16, used for Coins, is the n=16
// case (4-bit length prefix, up to 15 bytes of magnitude).
func lenBitsFor(n int) int {
	bits := 0
	for (1 << uint(bits)) < n {
		bits++
	}
	return bits
}

// LoadVarUintBig reads a length-prefixed unsigned integer: a
// lenBitsFor(n)-bit byte count L, followed by L bytes of big-endian
// magnitude.
func (s *Slice) LoadVarUintBig(n int) (*big.Int, error) {
	lb := lenBitsFor(n)
	l, err := s.LoadUint(lb)
	if err != nil {
		return nil, err
	}
	if l == 0 {
		return big.NewInt(0), nil
	}
	v, err := s.LoadUintBig(int(l) * 8)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadVarIntBig reads a length-prefixed signed integer using the same
// length-prefix scheme as LoadVarUintBig, re-interpreting the
// magnitude bytes as two's complement.
func (s *Slice) LoadVarIntBig(n int) (*big.Int, error) {
	lb := lenBitsFor(n)
	l, err := s.LoadUint(lb)
	if err != nil {
		return nil, err
	}
	if l == 0 {
		return big.NewInt(0), nil
	}
	return s.LoadIntBig(int(l) * 8)
}

// LoadCoins reads a TON-style Coins amount: VarUInteger 16.
func (s *Slice) LoadCoins() (*big.Int, error) {
	return s.LoadVarUintBig(16)
}

// StoreVarUintBig writes v with a lenBitsFor(n)-bit byte-count prefix
// followed by the minimal big-endian byte encoding of v. v must be
// non-negative and fit in n-1 bytes.
func (b *Builder) StoreVarUintBig(v *big.Int, n int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("tlbcell: StoreVarUintBig: negative value")
	}
	lb := lenBitsFor(n)
	if v.Sign() == 0 {
		return b.StoreUint(0, lb)
	}
	raw := v.Bytes()
	if len(raw) >= n {
		return fmt.Errorf("tlbcell: StoreVarUintBig: value too large for %d-byte field", n)
	}
	if err := b.StoreUint(uint64(len(raw)), lb); err != nil {
		return err
	}
	return b.StoreBytes(raw)
}

// StoreVarIntBig writes a signed value using the same length-prefix
// scheme, two's-complement encoded over the minimal number of bytes
// that represents it (rounded up so the sign bit is correct).
func (b *Builder) StoreVarIntBig(v *big.Int, n int) error {
	lb := lenBitsFor(n)
	if v.Sign() == 0 {
		return b.StoreUint(0, lb)
	}
	nbytes := signedByteLen(v)
	if nbytes >= n {
		return fmt.Errorf("tlbcell: StoreVarIntBig: value too large for %d-byte field", n)
	}
	if err := b.StoreUint(uint64(nbytes), lb); err != nil {
		return err
	}
	return b.StoreIntBig(v, nbytes*8)
}

// signedByteLen returns the minimal number of bytes n such that v
// fits in an 8n-bit two's-complement field.
func signedByteLen(v *big.Int) int {
	one := big.NewInt(1)
	for n := 1; ; n++ {
		bits := uint(8 * n)
		upper := new(big.Int).Sub(new(big.Int).Lsh(one, bits-1), one)
		lower := new(big.Int).Neg(new(big.Int).Lsh(one, bits-1))
		if v.Cmp(lower) >= 0 && v.Cmp(upper) <= 0 {
			return n
		}
	}
}

// StoreCoins writes a Coins amount using VarUInteger 16.
func (b *Builder) StoreCoins(v *big.Int) error {
	return b.StoreVarUintBig(v, 16)
}
