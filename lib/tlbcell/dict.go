// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import (
	"fmt"
	"math/big"
	"sort"
)

// Dict is a decoded dictionary: an ordered set of signed big-integer
// keys of a schema-declared bit width, each mapped to a value decoded
// by the caller-supplied parse function.
//
// Real TON dictionaries are edge-compressed binary tries packed
// directly into cell bits; this module's primitive layer stands in
// for an external dependency that does not exist in this codebase,
// so it uses a simpler but self-consistent encoding: an entry count,
// then (key, value-ref) pairs in ascending key order. Round-trip
// behavior holds against this encoding exactly as it would against
// the trie form; only cross-implementation binary compatibility
// with a real TON node is not claimed or required.
type Dict struct {
	KeyBits int
	Entries map[string]DictEntry
}

// DictEntry pairs a dictionary key with its decoded value.
type DictEntry struct {
	Key   *big.Int
	Value any
}

// NewDict returns an empty dictionary for the given key width.
func NewDict(keyBits int) *Dict {
	return &Dict{KeyBits: keyBits, Entries: map[string]DictEntry{}}
}

// Set stores value under key.
func (d *Dict) Set(key *big.Int, value any) {
	d.Entries[key.String()] = DictEntry{Key: key, Value: value}
}

// Get retrieves the value stored under key, if any.
func (d *Dict) Get(key *big.Int) (any, bool) {
	e, ok := d.Entries[key.String()]
	return e.Value, ok
}

// SortedKeys returns the dictionary's keys in ascending order.
func (d *Dict) SortedKeys() []*big.Int {
	keys := make([]*big.Int, 0, len(d.Entries))
	for _, e := range d.Entries {
		keys = append(keys, e.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })
	return keys
}

// LoadDict reads a dictionary whose presence is gated by a leading
// Maybe bit (HashmapE semantics): 0 means an empty/absent dictionary,
// 1 means a reference to a cell holding the entry count followed by
// (key, value-ref) pairs. parse decodes one value's cell into a Go
// value.
func (s *Slice) LoadDict(keyBits int, parse func(*Slice) (any, error)) (*Dict, error) {
	has, err := s.LoadBit()
	if err != nil {
		return nil, fmt.Errorf("tlbcell: LoadDict: %w", err)
	}
	d := NewDict(keyBits)
	if !has {
		return d, nil
	}
	ref, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("tlbcell: LoadDict: %w", err)
	}
	inner := ref.AsSlice()
	count, err := inner.LoadUint(32)
	if err != nil {
		return nil, fmt.Errorf("tlbcell: LoadDict: %w", err)
	}
	for i := uint64(0); i < count; i++ {
		key, err := inner.LoadIntBig(keyBits)
		if err != nil {
			return nil, fmt.Errorf("tlbcell: LoadDict: entry %d key: %w", i, err)
		}
		valRef, err := inner.LoadRef()
		if err != nil {
			return nil, fmt.Errorf("tlbcell: LoadDict: entry %d value ref: %w", i, err)
		}
		value, err := parse(valRef.AsSlice())
		if err != nil {
			return nil, fmt.Errorf("tlbcell: LoadDict: entry %d value: %w", i, err)
		}
		d.Set(key, value)
	}
	return d, nil
}

// StoreDict writes a dictionary with the same Maybe-ref-gated, sorted
// (key, value-ref) encoding LoadDict reads. encode serializes one
// entry's value into a fresh cell.
func (b *Builder) StoreDict(d *Dict, encode func(value any) (*Cell, error)) error {
	if d == nil || len(d.Entries) == 0 {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	inner := NewBuilder()
	keys := d.SortedKeys()
	if err := inner.StoreUint(uint64(len(keys)), 32); err != nil {
		return err
	}
	for _, key := range keys {
		entry := d.Entries[key.String()]
		if err := inner.StoreIntBig(entry.Key, d.KeyBits); err != nil {
			return fmt.Errorf("tlbcell: StoreDict: key %s: %w", key, err)
		}
		valCell, err := encode(entry.Value)
		if err != nil {
			return fmt.Errorf("tlbcell: StoreDict: value for key %s: %w", key, err)
		}
		if err := inner.StoreRef(valCell); err != nil {
			return err
		}
	}
	return b.StoreRef(inner.Finalize())
}
