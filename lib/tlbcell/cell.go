// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlbcell implements the bit-addressed cell primitive layer
// that the TL-B codec is built on: Cell, Slice, and Builder. TL-B
// itself treats this layer as an external dependency; no
// TON cell library exists among this module's reference repos, so
// the layer is implemented here from scratch on top of math/big and
// encoding/base64 rather than fabricated as a fake third-party
// import.
//
// A Cell holds up to MaxBits bits of packed data plus up to MaxRefs
// outgoing references to other cells. Slice is a read cursor over a
// Cell; Builder is a write cursor that produces one.
package tlbcell

import (
	"encoding/base64"
	"fmt"
)

// MaxBits is the maximum number of data bits a single cell may hold.
const MaxBits = 1023

// MaxRefs is the maximum number of outgoing references a single cell
// may hold.
const MaxRefs = 4

// Cell is an immutable container of up to MaxBits bits and up to
// MaxRefs references to other cells. Once built, a Cell's contents
// never change; Slice and Builder are the only mutable views over
// cell data.
type Cell struct {
	bits   []byte // packed MSB-first, len(bits) == ceil(bitLen/8)
	bitLen int
	refs   []*Cell
	exotic bool
}

// BitLen reports the number of data bits stored in the cell.
func (c *Cell) BitLen() int { return c.bitLen }

// RefCount reports the number of references stored in the cell.
func (c *Cell) RefCount() int { return len(c.refs) }

// Ref returns the i'th reference.
func (c *Cell) Ref(i int) *Cell { return c.refs[i] }

// FromBase64 decodes a BOC-less, single-cell base64 payload into a
// Cell: bitLen bits packed MSB-first with zero padding in the final
// byte, immediately followed (conceptually) by nothing — this module
// does not implement the full BOC container format, only the flat
// single-cell encoding the codec's test scenarios exercise. Byte
// length must be provided implicitly by the caller via bitLen; when
// absent, the whole payload is treated as data bits (bitLen =
// len(data)*8).
func FromBase64(text string) (*Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(text); err != nil {
			return nil, fmt.Errorf("tlbcell: invalid base64 cell: %w", err)
		}
	}
	return &Cell{bits: raw, bitLen: len(raw) * 8}, nil
}

// New builds a leaf Cell directly from packed bits and refs. Used by
// Builder.Finalize and by tests that want to construct cells without
// going through the Builder API.
func New(bits []byte, bitLen int, refs []*Cell) *Cell {
	return &Cell{bits: bits, bitLen: bitLen, refs: refs}
}

// AsSlice returns a Slice positioned at the start of the cell.
func (c *Cell) AsSlice() *Slice {
	return &Slice{cell: c}
}

// ToBase64 encodes the cell's packed data bits (zero-padded to a byte
// boundary) as base64. This is the flat single-cell inverse of
// FromBase64; like FromBase64 it does not implement the BOC
// container format.
func (c *Cell) ToBase64() string {
	return base64.StdEncoding.EncodeToString(c.bits)
}

// BeginParse returns a Slice positioned at the start of the cell. The
// exotic flag is accepted for interface parity with TON's
// Cell.beginParse([exotic]) contract (used when opening sub-field
// reference groups so special cells can be inspected); this
// implementation does not model exotic cell types, so the flag is
// ignored and does not change read behaviour.
func (c *Cell) BeginParse(exotic bool) *Slice {
	return &Slice{cell: c}
}
