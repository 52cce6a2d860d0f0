// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcodec

import (
	"fmt"
	"math/big"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
)

// Value is the tagged union a decoded datum takes: record,
// integer, big-integer, bool, bit-string, text, cell-reference,
// sequence, absent, dictionary, or address. Encoding walks the same
// union in reverse.
type Value interface {
	isValue()
}

// Record is a decoded Type/Constructor instance. Kind is
// "TypeName_ConstructorName" when the type has more than one
// constructor, or plain "TypeName" otherwise.
type Record struct {
	Kind   string
	Order  []string
	Fields map[string]Value
}

// Get looks up a field by name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Set assigns a field, recording first-seen order.
func (r *Record) Set(name string, v Value) {
	if _, exists := r.Fields[name]; !exists {
		r.Order = append(r.Order, name)
	}
	r.Fields[name] = v
}

// NewRecord returns an empty Record with the given kind discriminator.
func NewRecord(kind string) *Record {
	return &Record{Kind: kind, Fields: map[string]Value{}}
}

// Int is a native-width decoded integer (declared bit width ≤ 32).
type Int struct{ Value int64 }

// BigInt is a decoded integer wider than 32 bits.
type BigInt struct{ Value *big.Int }

// Bool is a decoded Bool field.
type Bool struct{ Value bool }

// Bits is a raw (non-text) decoded bit string.
type Bits struct{ Value tlbcell.BitString }

// Text is a decoded Bits field that auto-detected as valid UTF-8, or a
// VarInteger surfaced as its decimal-string form.
type Text struct{ Value string }

// CellRef is a decoded Cell field: the referenced cell, or nil when
// the Maybe bit was zero (represented instead as Absent).
type CellRef struct{ Value *tlbcell.Cell }

// Sequence is a decoded Multiple field: an ordered list of element
// values.
type Sequence struct{ Items []Value }

// Absent marks a Cond field whose condition was falsy, or a Cell/
// Address field with nothing present.
type Absent struct{}

// DictEntry is one decoded Hashmap key/value pair.
type DictEntry struct {
	Key   *big.Int
	Value Value
}

// Dict is a decoded Hashmap field.
type Dict struct {
	KeyBits int
	Entries []DictEntry
}

// Address is a decoded TL-B address field.
type Address struct{ Value tlbcell.Address }

func (*Record) isValue()   {}
func (Int) isValue()       {}
func (BigInt) isValue()    {}
func (Bool) isValue()      {}
func (Bits) isValue()      {}
func (Text) isValue()      {}
func (CellRef) isValue()   {}
func (Sequence) isValue()  {}
func (Absent) isValue()    {}
func (*Dict) isValue()     {}
func (Address) isValue()   {}

// AsInt64 extracts an integer reading from any Value that represents
// one, for binding into the expression environment. Variable
// integers held as decimal strings are parsed back to integers; this
// fails only for malformed internal state.
func AsInt64(v Value) (int64, error) {
	switch t := v.(type) {
	case Int:
		return t.Value, nil
	case BigInt:
		if !t.Value.IsInt64() {
			return 0, fmt.Errorf("tlbcodec: big integer %s does not fit in an int64 environment binding", t.Value.String())
		}
		return t.Value.Int64(), nil
	case Bool:
		if t.Value {
			return 1, nil
		}
		return 0, nil
	case Text:
		n, ok := new(big.Int).SetString(t.Value, 10)
		if !ok {
			return 0, fmt.Errorf("tlbcodec: %q is not a decimal integer", t.Value)
		}
		if !n.IsInt64() {
			return 0, fmt.Errorf("tlbcodec: %s does not fit in an int64 environment binding", t.Value)
		}
		return n.Int64(), nil
	default:
		return 0, fmt.Errorf("tlbcodec: value of type %T cannot be bound as an integer", v)
	}
}

// intValue packs a decoded integer at the given declared bit width
// into the narrowest Value shape.
func intValue(v *big.Int, bits int) Value {
	if bits <= 32 && v.IsInt64() {
		return Int{Value: v.Int64()}
	}
	return BigInt{Value: v}
}
