// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcodec

import (
	"sort"

	"github.com/skulidropek/tlb-rest-server/lib/tlbschema"
)

// tagKey is the normalised (bitLen, value) pair a TagIndex is keyed
// by.
type tagKey struct {
	bitLen int
	value  uint64
}

// tagTarget names the (type, constructor) pair a matched tag resolves
// to.
type tagTarget struct {
	typeName        string
	constructorName string
}

// TagIndex maps tag bit-prefixes to their owning constructor, built
// once over a compiled Schema Model. Entries whose
// Tag.BitLen == 0 are not indexed; by-tag root selection never picks
// such constructors (they are reached through the "guess the type"
// fallback, DecodeByType, or as nested field types).
type TagIndex struct {
	entries    map[tagKey]tagTarget
	maxTagBits int
}

// buildTagIndex walks every type's constructors and indexes the
// non-zero-length tags.
func buildTagIndex(m *tlbschema.Model) *TagIndex {
	idx := &TagIndex{entries: map[tagKey]tagTarget{}}
	for _, typeName := range m.TypeNames() {
		t, _ := m.Type(typeName)
		for _, c := range t.Constructors {
			if c.Tag.BitLen == 0 {
				continue
			}
			idx.entries[tagKey{bitLen: c.Tag.BitLen, value: c.Tag.Value}] = tagTarget{
				typeName:        t.Name,
				constructorName: c.Name,
			}
			if c.Tag.BitLen > idx.maxTagBits {
				idx.maxTagBits = c.Tag.BitLen
			}
		}
	}
	return idx
}

// lookup returns the (type, constructor) indexed under the exact
// (bitLen, value) pair, if any.
func (idx *TagIndex) lookup(bitLen int, value uint64) (tagTarget, bool) {
	t, ok := idx.entries[tagKey{bitLen: bitLen, value: value}]
	return t, ok
}

// hasNonZeroTagConstructor reports whether any constructor of t has a
// non-empty tag, used to schedule the "guess the root type" fallback
// order.
func hasNonZeroTagConstructor(t *tlbschema.Type) bool {
	for _, c := range t.Constructors {
		if c.Tag.BitLen > 0 {
			return true
		}
	}
	return false
}

// rootScanOrder returns type names in the order the "guess the root
// type" fallback should try them: lastTypeName first, then every
// tagged type in lexicographic order, then every untagged type in
// lexicographic order.
func rootScanOrder(m *tlbschema.Model) []string {
	names := m.TypeNames()
	var tagged, untagged []string
	for _, n := range names {
		t, _ := m.Type(n)
		if hasNonZeroTagConstructor(t) {
			tagged = append(tagged, n)
		} else {
			untagged = append(untagged, n)
		}
	}
	sort.Strings(tagged)
	sort.Strings(untagged)

	order := make([]string, 0, len(names))
	seen := map[string]bool{}
	if last := m.LastTypeName(); last != "" {
		order = append(order, last)
		seen[last] = true
	}
	for _, n := range tagged {
		if !seen[n] {
			order = append(order, n)
			seen[n] = true
		}
	}
	for _, n := range untagged {
		if !seen[n] {
			order = append(order, n)
			seen[n] = true
		}
	}
	return order
}
