// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlbcodec compiles a TL-B schema to an in-memory Model and
// decodes/encodes cells against it. Runtime is the
// package's public façade; decoder and encoder hold the mechanics.
package tlbcodec

import (
	"errors"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
	"github.com/skulidropek/tlb-rest-server/lib/tlbparse"
	"github.com/skulidropek/tlb-rest-server/lib/tlbschema"
)

// Options configures a compiled Runtime.
type Options struct {
	// AutoText enables Bits-field UTF-8 auto-detection (byte-aligned
	// bit strings that decode as valid text surface as Value.Text
	// instead of Value.Bits). Defaults to true when left unset by
	// using DefaultOptions.
	AutoText bool
}

// DefaultOptions is the configuration Compile uses unless the caller
// supplies its own.
func DefaultOptions() Options {
	return Options{AutoText: true}
}

// Runtime is a compiled TL-B schema ready to decode and encode cells.
// A Runtime is immutable after Compile returns and is safe for
// concurrent use.
type Runtime struct {
	model    *tlbschema.Model
	tagIndex *TagIndex
	dec      *decoder
	enc      *encoder
}

// Compile parses schemaText and builds a Runtime against it using
// DefaultOptions.
func Compile(schemaText string) (*Runtime, error) {
	return CompileWithOptions(schemaText, DefaultOptions())
}

// CompileWithOptions parses schemaText and builds a Runtime against
// it using opts.
func CompileWithOptions(schemaText string, opts Options) (*Runtime, error) {
	model, err := tlbparse.Parse(schemaText)
	if err != nil {
		var se *tlbschema.SchemaError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &tlbschema.SchemaError{Msg: err.Error()}
	}
	idx := buildTagIndex(model)
	return &Runtime{
		model:    model,
		tagIndex: idx,
		dec:      &decoder{model: model, tagIndex: idx, autoText: opts.AutoText},
		enc:      &encoder{model: model},
	}, nil
}

// Model exposes the compiled schema, for callers that need to inspect
// declared types directly (e.g. a registry listing or an export tool
// choosing a root type).
func (r *Runtime) Model() *tlbschema.Model { return r.model }

// DecodeOptions controls one Decode call's root-selection strategy.
type DecodeOptions struct {
	// ByTag selects the root constructor by matching the leading tag
	// bits against the schema's tag index. When false, Decode instead
	// guesses the root type by attempting each declared type in turn.
	ByTag bool
}

// Decode parses a flat single-cell base64 payload (see
// tlbcell.FromBase64; the BoC container format is not read) and
// decodes it against the
// compiled schema, selecting the root type per opts.
func (r *Runtime) Decode(input string, opts DecodeOptions) (Value, error) {
	cell, err := tlbcell.FromBase64(input)
	if err != nil {
		return nil, &DataError{Kind: BadInput, Msg: err.Error()}
	}
	return r.DecodeCell(cell, opts)
}

// DecodeCell decodes an already-parsed Cell, selecting the root type
// per opts.
func (r *Runtime) DecodeCell(cell *tlbcell.Cell, opts DecodeOptions) (Value, error) {
	slice := cell.BeginParse(false)
	rec, err := r.dec.decodeRoot(slice, opts.ByTag)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeByType decodes a flat single-cell base64 payload directly against a
// named declared type, bypassing root selection.
func (r *Runtime) DecodeByType(typeName, input string) (Value, error) {
	cell, err := tlbcell.FromBase64(input)
	if err != nil {
		return nil, &DataError{Kind: BadInput, Msg: err.Error()}
	}
	slice := cell.BeginParse(false)
	rec, err := r.dec.decodeByType(typeName, slice)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Encode serializes a decoded Value tree back to a cell, dispatching
// on the value's own recorded Kind.
func (r *Runtime) Encode(v Value) (*tlbcell.Cell, error) {
	return r.enc.encode(v)
}

// EncodeByType serializes rec as an instance of typeName (and,
// optionally, one of its named constructors), bypassing the Kind
// string the value would otherwise carry.
func (r *Runtime) EncodeByType(typeName, constructorName string, rec *Record) (*tlbcell.Cell, error) {
	return r.enc.encodeByType(typeName, constructorName, rec)
}
