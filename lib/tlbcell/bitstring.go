// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcell

import "unicode/utf8"

// BitString is a raw, possibly non-byte-aligned bit sequence. Data is
// packed MSB-first with zero padding in the final byte; Len is the
// number of significant bits.
type BitString struct {
	Data []byte
	Len  int
}

// IsByteAligned reports whether the bit string's length is a whole
// number of bytes.
func (b BitString) IsByteAligned() bool { return b.Len%8 == 0 }

// IsValidText reports whether a byte-aligned bit string's bytes form
// valid UTF-8 that round-trips through decode-then-encode unchanged.
// This is the deterministic text-validity test left to
// the implementer: a byte sequence "is text" iff utf8.Valid accepts
// it and re-encoding the decoded runes reproduces the same bytes
// (rejecting any sequence containing the UTF-8 replacement rune
// produced by lossy decoding of a byte sequence that merely happens
// to validate rune-by-rune but isn't a faithful round trip).
func (b BitString) IsValidText() bool {
	if !b.IsByteAligned() {
		return false
	}
	if !utf8.Valid(b.Data) {
		return false
	}
	return string([]rune(string(b.Data))) == string(b.Data)
}

// Text returns the bit string's bytes as a string, valid only when
// IsValidText is true.
func (b BitString) Text() string { return string(b.Data) }

// FromText builds a byte-aligned BitString from a UTF-8 string.
func FromText(s string) BitString {
	return BitString{Data: []byte(s), Len: len(s) * 8}
}
