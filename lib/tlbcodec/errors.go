// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcodec

import "fmt"

// DataErrorKind enumerates the exhaustive failure reasons a datum can
// fail to conform to a compiled schema.
type DataErrorKind int

const (
	BadInput DataErrorKind = iota
	TagShort
	TagMismatch
	ConstraintFailed
	DataShort
	UnknownType
	UnknownConstructor
	NotTyped
	UnsupportedFieldType
	AddressLoadFailed
	NoMatch
)

func (k DataErrorKind) String() string {
	names := [...]string{
		"BadInput", "TagShort", "TagMismatch", "ConstraintFailed", "DataShort",
		"UnknownType", "UnknownConstructor", "NotTyped", "UnsupportedFieldType",
		"AddressLoadFailed", "NoMatch",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// DataError reports that a specific datum does not conform to the
// schema it is being decoded against or encoded from. It is distinct
// from tlbschema.SchemaError, which reports a schema that cannot be
// built at all.
type DataError struct {
	Kind DataErrorKind
	Msg  string
}

func (e *DataError) Error() string {
	if e.Msg == "" {
		return "tlbcodec: " + e.Kind.String()
	}
	return fmt.Sprintf("tlbcodec: %s: %s", e.Kind, e.Msg)
}

func newDataError(kind DataErrorKind, format string, args ...any) *DataError {
	return &DataError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
