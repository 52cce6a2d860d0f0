// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import (
	"fmt"
	"math/big"
)

// tupleIntBits is the width TVM uses for stack integers packed into
// tuple cells.
const tupleIntBits = 257

// ParseTuple decodes a cell produced by SerializeTuple: a 16-bit
// count prefix followed by a reference to the binary-tree payload. A
// single-value leaf cell holds one 257-bit signed integer directly;
// a multi-value node recursively splits into two references holding
// the first and second half.
func ParseTuple(c *Cell) ([]*big.Int, error) {
	s := c.AsSlice()
	count, err := s.LoadUint(16)
	if err != nil {
		return nil, fmt.Errorf("tlbcell: ParseTuple: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	ref, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("tlbcell: ParseTuple: %w", err)
	}
	return parseTupleNode(ref, int(count))
}

func parseTupleNode(c *Cell, count int) ([]*big.Int, error) {
	if count == 1 {
		v, err := c.AsSlice().LoadIntBig(tupleIntBits)
		if err != nil {
			return nil, fmt.Errorf("tlbcell: ParseTuple: leaf: %w", err)
		}
		return []*big.Int{v}, nil
	}
	if c.RefCount() != 2 {
		return nil, fmt.Errorf("tlbcell: ParseTuple: expected 2 refs for %d-element node, found %d", count, c.RefCount())
	}
	left := count / 2
	right := count - left
	leftVals, err := parseTupleNode(c.Ref(0), left)
	if err != nil {
		return nil, err
	}
	rightVals, err := parseTupleNode(c.Ref(1), right)
	if err != nil {
		return nil, err
	}
	return append(leftVals, rightVals...), nil
}

// SerializeTuple encodes an ordered list of big integers as a
// 16-bit-count-prefixed reference to a recursive binary-tree payload
// cell: a leaf of one value stores it inline as a 257-bit signed
// integer, and an internal node of n>1 values splits into two
// references for the first and second half. This mirrors the way
// TVM itself packs VM stack tuples into cells.
func SerializeTuple(values []*big.Int) (*Cell, error) {
	b := NewBuilder()
	if err := b.StoreUint(uint64(len(values)), 16); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return b.Finalize(), nil
	}
	node, err := serializeTupleNode(values)
	if err != nil {
		return nil, err
	}
	if err := b.StoreRef(node); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

func serializeTupleNode(values []*big.Int) (*Cell, error) {
	if len(values) == 1 {
		b := NewBuilder()
		if err := b.StoreIntBig(values[0], tupleIntBits); err != nil {
			return nil, fmt.Errorf("tlbcell: SerializeTuple: %w", err)
		}
		return b.Finalize(), nil
	}
	mid := len(values) / 2
	left, err := serializeTupleNode(values[:mid])
	if err != nil {
		return nil, err
	}
	right, err := serializeTupleNode(values[mid:])
	if err != nil {
		return nil, err
	}
	b := NewBuilder()
	if err := b.StoreRef(left); err != nil {
		return nil, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}
