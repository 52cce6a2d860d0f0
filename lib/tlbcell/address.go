// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Address is a TON-style account address: either empty, a standard
// address (workchain + 256-bit hash), or an external address (a
// short, workchain-less bit string used for messages from outside
// the chain).
type Address struct {
	Kind       AddressKind
	WorkChain  int8
	Hash       [32]byte
	ExternalID BitString
}

// AddressKind discriminates the three address shapes addr_none,
// addr_extern, and addr_std (addr_var is not modelled: no schema in
// the corpus this codec was built against emits it).
type AddressKind int

const (
	AddressNone AddressKind = iota
	AddressExtern
	AddressStd
)

// ErrAddressLoad is wrapped by LoadAddress failures and surfaced by
// the decoder as DataError(AddressLoadFailed).
var ErrAddressLoad = errors.New("tlbcell: address load failed")

// LoadAddress reads the 2-bit address tag and the shape it selects.
func (s *Slice) LoadAddress() (Address, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrAddressLoad, err)
	}
	switch tag {
	case 0b00:
		return Address{Kind: AddressNone}, nil
	case 0b01:
		lenBits, err := s.LoadUint(9)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrAddressLoad, err)
		}
		bs, err := s.LoadBits(int(lenBits))
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrAddressLoad, err)
		}
		return Address{Kind: AddressExtern, ExternalID: bs}, nil
	case 0b10:
		if _, err := s.LoadBit(); err != nil { // anycast: Maybe Anycast, never present in practice
			return Address{}, fmt.Errorf("%w: %v", ErrAddressLoad, err)
		}
		wc, err := s.LoadUint(8)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrAddressLoad, err)
		}
		hashBits, err := s.LoadBits(256)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrAddressLoad, err)
		}
		var hash [32]byte
		copy(hash[:], hashBits.Data)
		return Address{Kind: AddressStd, WorkChain: int8(wc), Hash: hash}, nil
	default:
		return Address{}, fmt.Errorf("%w: addr_var is not supported", ErrAddressLoad)
	}
}

// StoreAddress writes an address in the shape selected by a.Kind.
func (b *Builder) StoreAddress(a Address) error {
	switch a.Kind {
	case AddressNone:
		return b.StoreUint(0b00, 2)
	case AddressExtern:
		if err := b.StoreUint(0b01, 2); err != nil {
			return err
		}
		if err := b.StoreUint(uint64(a.ExternalID.Len), 9); err != nil {
			return err
		}
		return b.StoreBits(a.ExternalID)
	case AddressStd:
		if err := b.StoreUint(0b10, 2); err != nil {
			return err
		}
		if err := b.StoreBit(false); err != nil { // anycast absent
			return err
		}
		if err := b.StoreUint(uint64(uint8(a.WorkChain)), 8); err != nil {
			return err
		}
		return b.StoreBits(BitString{Data: a.Hash[:], Len: 256})
	default:
		return fmt.Errorf("tlbcell: unsupported address kind %d", a.Kind)
	}
}

// String renders a standard address as "workchain:hash-hex", matching
// the conventional raw-address text form.
func (a Address) String() string {
	switch a.Kind {
	case AddressNone:
		return ""
	case AddressExtern:
		return "extern:" + hex.EncodeToString(a.ExternalID.Data)
	default:
		return strconv.Itoa(int(a.WorkChain)) + ":" + hex.EncodeToString(a.Hash[:])
	}
}

// ParseAddress parses the "workchain:hash-hex" raw form produced by
// String.
func ParseAddress(text string) (Address, error) {
	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("tlbcell: malformed address %q", text)
	}
	wc, err := strconv.Atoi(parts[0])
	if err != nil {
		return Address{}, fmt.Errorf("tlbcell: malformed address workchain %q: %w", text, err)
	}
	raw, err := hex.DecodeString(parts[1])
	if err != nil || len(raw) != 32 {
		return Address{}, fmt.Errorf("tlbcell: malformed address hash %q", text)
	}
	var hash [32]byte
	copy(hash[:], raw)
	return Address{Kind: AddressStd, WorkChain: int8(wc), Hash: hash}, nil
}
