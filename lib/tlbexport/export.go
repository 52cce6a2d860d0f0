// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlbexport converts decoded tlbcodec.Value trees into plain
// Go data (maps, slices, strings, integers) and serializes them to
// CBOR, for handing a decoded message to a downstream system that
// speaks CBOR rather than this module's own Go-native Value union.
package tlbexport

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical tree always
// produces identical bytes.
var encMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	var err error
	encMode, err = opts.EncMode()
	if err != nil {
		panic("tlbexport: CBOR encoder initialization failed: " + err.Error())
	}
}

// kindKey is the map key a decoded Record's type/constructor
// discriminator is exported under, alongside its fields.
const kindKey = "_kind"

// ToTree converts a decoded Value into a plain any tree of
// map[string]any, []any, string, int64, *big.Int, bool, and nil,
// suitable for cbor.Marshal or encoding/json.
func ToTree(v tlbcodec.Value) (any, error) {
	switch t := v.(type) {
	case *tlbcodec.Record:
		out := make(map[string]any, len(t.Fields)+1)
		out[kindKey] = t.Kind
		for _, name := range t.Order {
			fv, err := ToTree(t.Fields[name])
			if err != nil {
				return nil, fmt.Errorf("tlbexport: field %s: %w", name, err)
			}
			out[name] = fv
		}
		return out, nil

	case tlbcodec.Int:
		return t.Value, nil

	case tlbcodec.BigInt:
		return t.Value, nil

	case tlbcodec.Bool:
		return t.Value, nil

	case tlbcodec.Bits:
		return hex.EncodeToString(t.Value.Data), nil

	case tlbcodec.Text:
		return t.Value, nil

	case tlbcodec.CellRef:
		if t.Value == nil {
			return nil, nil
		}
		return base64.StdEncoding.EncodeToString(cellBytes(t.Value)), nil

	case tlbcodec.Sequence:
		out := make([]any, 0, len(t.Items))
		for i, item := range t.Items {
			iv, err := ToTree(item)
			if err != nil {
				return nil, fmt.Errorf("tlbexport: item %d: %w", i, err)
			}
			out = append(out, iv)
		}
		return out, nil

	case tlbcodec.Absent:
		return nil, nil

	case *tlbcodec.Dict:
		out := make(map[string]any, len(t.Entries))
		for _, entry := range t.Entries {
			ev, err := ToTree(entry.Value)
			if err != nil {
				return nil, fmt.Errorf("tlbexport: dict key %s: %w", entry.Key, err)
			}
			out[entry.Key.String()] = ev
		}
		return out, nil

	case tlbcodec.Address:
		return t.Value.String(), nil

	default:
		return nil, fmt.Errorf("tlbexport: unsupported value type %T", v)
	}
}

// cellBytes packs a cell's own data bits (not its references, which
// the TL-B schema has already walked and surfaced as ordinary Value
// fields) into a zero-padded byte slice.
func cellBytes(c *tlbcell.Cell) []byte {
	s := c.AsSlice()
	n := s.RemainingBits()
	bs, err := s.LoadBits(n)
	if err != nil {
		return nil
	}
	return bs.Data
}

// Marshal converts v to a plain tree and CBOR-encodes it using Core
// Deterministic Encoding.
func Marshal(v tlbcodec.Value) ([]byte, error) {
	tree, err := ToTree(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(tree)
}
