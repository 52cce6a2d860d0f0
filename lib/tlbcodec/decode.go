// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcodec

import (
	"errors"
	"math/big"
	"strconv"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
	"github.com/skulidropek/tlb-rest-server/lib/tlbexpr"
	"github.com/skulidropek/tlb-rest-server/lib/tlbschema"
)

// maxRecursionDepth guards against pathological cyclic schemas.
const maxRecursionDepth = 256

// decoder carries the compiled schema a decode pass runs against.
type decoder struct {
	model    *tlbschema.Model
	tagIndex *TagIndex
	autoText bool
}

func rollbackSlice(s *tlbcell.Slice, savedBits, savedRefs int) error {
	curBits, curRefs := s.RemainingBits(), s.RemainingRefs()
	if err := s.Skip(curBits - savedBits); err != nil {
		return err
	}
	return s.SkipRefs(curRefs - savedRefs)
}

func isDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

func evalInt(expr tlbexpr.Expr, env tlbexpr.Env) (int, error) {
	v, err := tlbexpr.Eval(expr, env)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// decodeRoot is the entry point's root-selection half, run
// after base64 decoding and BeginParse have already produced slice.
func (d *decoder) decodeRoot(slice *tlbcell.Slice, byTag bool) (*Record, error) {
	if byTag {
		return d.decodeRootByTag(slice)
	}
	return d.decodeRootByGuess(slice)
}

func (d *decoder) decodeRootByTag(slice *tlbcell.Slice) (*Record, error) {
	maxLen := d.tagIndex.maxTagBits
	if rem := slice.RemainingBits(); rem < maxLen {
		maxLen = rem
	}
	for l := maxLen; l >= 1; l-- {
		val, err := slice.PreloadUint(l)
		if err != nil {
			continue
		}
		target, ok := d.tagIndex.lookup(l, val)
		if !ok {
			continue
		}
		typ, _ := d.model.Type(target.typeName)
		var ctor *tlbschema.Constructor
		for _, c := range typ.Constructors {
			if c.Name == target.constructorName {
				ctor = c
				break
			}
		}
		return d.decodeConstructor(typ, ctor, slice, nil, 1)
	}
	return nil, newDataError(NoMatch, "by-tag lookup matched no constructor (max tag length %d)", maxLen)
}

// decodeRootByGuess tries each candidate root type in rootScanOrder.
// When the schema offers a single candidate, its own failure kind
// (e.g. ConstraintFailed) is reported; otherwise the failure is
// NoMatch.
func (d *decoder) decodeRootByGuess(slice *tlbcell.Slice) (*Record, error) {
	order := rootScanOrder(d.model)
	tried := 0
	var lastErr error
	for _, name := range order {
		typ, _ := d.model.Type(name)
		tried++
		rec, err := d.decodeType(typ, slice, nil, 1)
		if err == nil {
			return rec, nil
		}
		if !isDataError(err) {
			return nil, err
		}
		lastErr = err
	}
	var de *DataError
	if tried == 1 && errors.As(lastErr, &de) {
		return nil, newDataError(de.Kind, "tried 1 candidate root type, none matched: %s", de.Msg)
	}
	return nil, newDataError(NoMatch, "tried %d candidate root types, none matched", tried)
}

// decodeByType is the Runtime.decodeByType entry point: decode
// directly against a named type, bypassing root selection.
func (d *decoder) decodeByType(typeName string, slice *tlbcell.Slice) (*Record, error) {
	typ, ok := d.model.Type(typeName)
	if !ok {
		return nil, newDataError(UnknownType, "type %q is not declared", typeName)
	}
	return d.decodeType(typ, slice, nil, 1)
}

// decodeType tries each constructor of t in declared order, restoring
// slice position between failed attempts.
func (d *decoder) decodeType(t *tlbschema.Type, slice *tlbcell.Slice, args []Value, depth int) (*Record, error) {
	if depth > maxRecursionDepth {
		return nil, newDataError(UnsupportedFieldType, "recursion depth exceeded decoding type %s", t.Name)
	}
	var lastErr error = newDataError(NoMatch, "type %s declares no constructors", t.Name)
	for _, c := range t.Constructors {
		rec, err := d.decodeConstructor(t, c, slice, args, depth)
		if err == nil {
			return rec, nil
		}
		if !isDataError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// decodeConstructor performs a per-constructor attempt:
// tag check, field-by-field decode with environment binding, and
// constraint evaluation, rolling the slice back to its pre-attempt
// position on any DataError.
func (d *decoder) decodeConstructor(t *tlbschema.Type, c *tlbschema.Constructor, slice *tlbcell.Slice, args []Value, depth int) (*Record, error) {
	savedBits, savedRefs := slice.RemainingBits(), slice.RemainingRefs()

	fail := func(kind DataErrorKind, format string, a ...any) (*Record, error) {
		if rbErr := rollbackSlice(slice, savedBits, savedRefs); rbErr != nil {
			return nil, rbErr
		}
		return nil, newDataError(kind, format, a...)
	}

	if c.Tag.BitLen > 0 {
		if slice.RemainingBits() < c.Tag.BitLen {
			return fail(TagShort, "%s.%s: needs %d tag bits, %d remain", t.Name, c.Name, c.Tag.BitLen, slice.RemainingBits())
		}
		peeked, err := slice.PreloadUint(c.Tag.BitLen)
		if err != nil {
			return nil, err
		}
		if peeked != c.Tag.Value {
			return fail(TagMismatch, "%s.%s: tag mismatch", t.Name, c.Name)
		}
		if _, err := slice.LoadUintBig(c.Tag.BitLen); err != nil {
			return nil, err
		}
	}

	env := tlbexpr.Env{}
	for i, p := range c.Params {
		if i < len(args) {
			n, err := AsInt64(args[i])
			if err != nil {
				return fail(DataShort, "%s.%s: parameter %s: %v", t.Name, c.Name, p.Name, err)
			}
			env[p.Name] = n
		} else if p.Const != nil {
			env[p.Name] = *p.Const
		}
	}

	multi := len(t.Constructors) > 1
	kind := t.Name
	if multi {
		kind = t.Name + "_" + c.Name
	}
	rec := NewRecord(kind)

	for _, f := range c.Fields {
		if len(f.SubFields) > 0 {
			ref, err := slice.LoadRef()
			if err != nil {
				return fail(DataShort, "%s.%s: field %s: %v", t.Name, c.Name, f.Name, err)
			}
			sub := ref.BeginParse(true)
			subEnv := env.Clone()
			subRec := NewRecord("")
			for _, sf := range f.SubFields {
				v, err := d.decodeOneField(t, c, sf, sub, args, subEnv, depth)
				if err != nil {
					return fail(dataErrorKind(err), "%s.%s: subfield %s: %v", t.Name, c.Name, sf.Name, err)
				}
				assignFieldValue(subRec, sf, v)
				bindEnvVar(subEnv, sf, v)
			}
			if f.Anonymous() {
				for _, k := range subRec.Order {
					rec.Set(k, subRec.Fields[k])
				}
			} else {
				rec.Set(f.Name, subRec)
			}
			continue
		}

		v, err := d.decodeOneField(t, c, f, slice, args, env, depth)
		if err != nil {
			return fail(dataErrorKind(err), "%s.%s: field %s: %v", t.Name, c.Name, f.Name, err)
		}
		assignFieldValue(rec, f, v)
		bindEnvVar(env, f, v)
	}

	for _, constraint := range c.Constraints {
		res, err := tlbexpr.Eval(constraint, env)
		if err != nil {
			return nil, err
		}
		if !tlbexpr.Truthy(res) {
			return fail(ConstraintFailed, "%s.%s: constraint violated", t.Name, c.Name)
		}
	}

	return rec, nil
}

// dataErrorKind extracts the Kind of err if it is a *DataError, or
// DataShort as the generic fallback for a raw primitive-layer error.
func dataErrorKind(err error) DataErrorKind {
	var de *DataError
	if errors.As(err, &de) {
		return de.Kind
	}
	return DataShort
}

// assignFieldValue contributes a decoded field value to rec: under
// its own key when named, and under the first free key of "_", "_1",
// "_2", ... when anonymous.
func assignFieldValue(rec *Record, f *tlbschema.Field, v Value) {
	if f.Anonymous() {
		key := "_"
		for n := 0; ; n++ {
			if n > 0 {
				key = "_" + strconv.Itoa(n)
			}
			if _, exists := rec.Fields[key]; !exists {
				break
			}
		}
		rec.Set(key, v)
		return
	}
	rec.Set(f.Name, v)
}

// bindEnvVar binds field.name → integer(value) when the field's
// static type is one of the dependent-value-producing kinds and the
// field is named.
func bindEnvVar(env tlbexpr.Env, f *tlbschema.Field, v Value) {
	if f.Anonymous() {
		return
	}
	switch f.Type.(type) {
	case tlbschema.Named, tlbschema.Number, tlbschema.VarInteger, tlbschema.BoolField:
	default:
		return
	}
	if n, err := AsInt64(v); err == nil {
		env[f.Name] = n
	}
}

// decodeOneField decodes a single non-subfield Field, applying the
// parameter-substitution rule for Named fields whose name matches a
// declared polymorphic parameter.
func (d *decoder) decodeOneField(t *tlbschema.Type, c *tlbschema.Constructor, f *tlbschema.Field, slice *tlbcell.Slice, args []Value, env tlbexpr.Env, depth int) (Value, error) {
	if named, ok := f.Type.(tlbschema.Named); ok && len(named.Arguments) == 0 {
		if i, ok := c.ParamIndex(named.Name); ok && i < len(args) {
			return args[i], nil
		}
	}
	return d.decodeFieldType(f.Type, slice, env, depth+1)
}

// decodeFieldType implements the per-variant decode table.
func (d *decoder) decodeFieldType(ft tlbschema.FieldType, slice *tlbcell.Slice, env tlbexpr.Env, depth int) (Value, error) {
	if depth > maxRecursionDepth {
		return nil, newDataError(UnsupportedFieldType, "recursion depth exceeded")
	}

	switch t := ft.(type) {
	case tlbschema.Number:
		bits, err := evalInt(t.Bits, env)
		if err != nil {
			return nil, err
		}
		if bits < 0 || slice.RemainingBits() < bits {
			return nil, newDataError(DataShort, "number field needs %d bits, %d remain", bits, slice.RemainingBits())
		}
		var v *big.Int
		if t.Signed {
			v, err = slice.LoadIntBig(bits)
		} else {
			v, err = slice.LoadUintBig(bits)
		}
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		return intValue(v, bits), nil

	case tlbschema.BoolField:
		if t.HasFixed {
			return Bool{Value: t.Fixed}, nil
		}
		b, err := slice.LoadBit()
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		return Bool{Value: b}, nil

	case tlbschema.BitsField:
		n, err := evalInt(t.Bits, env)
		if err != nil {
			return nil, err
		}
		bs, err := slice.LoadBits(n)
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		if n%8 == 0 && d.autoText && bs.IsValidText() {
			return Text{Value: bs.Text()}, nil
		}
		return Bits{Value: bs}, nil

	case tlbschema.Named:
		if t.Name == "Bool" {
			b, err := slice.LoadBit()
			if err != nil {
				return nil, newDataError(DataShort, "%v", err)
			}
			return Bool{Value: b}, nil
		}
		typ, ok := d.model.Type(t.Name)
		if !ok {
			return nil, newDataError(UnknownType, "reference to undeclared type %q", t.Name)
		}
		args := make([]Value, 0, len(t.Arguments))
		for _, a := range t.Arguments {
			v, err := d.decodeFieldType(a, slice, env, depth+1)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return d.decodeType(typ, slice, args, depth+1)

	case tlbschema.CoinsField:
		v, err := slice.LoadCoins()
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		return BigInt{Value: v}, nil

	case tlbschema.AddressField:
		addr, err := slice.LoadAddress()
		if err != nil {
			return nil, newDataError(AddressLoadFailed, "%v", err)
		}
		if addr.Kind == tlbcell.AddressNone {
			return Absent{}, nil
		}
		return Address{Value: addr}, nil

	case tlbschema.CellField:
		ref, has, err := slice.LoadMaybeRef()
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		if !has {
			return Absent{}, nil
		}
		return CellRef{Value: ref}, nil

	case tlbschema.CellInside:
		ref, err := slice.LoadRef()
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		sub := ref.BeginParse(false)
		return d.decodeFieldType(t.Inner, sub, env, depth+1)

	case tlbschema.Hashmap:
		keyBits, err := evalInt(t.KeyBits, env)
		if err != nil {
			return nil, err
		}
		cellDict, err := slice.LoadDict(keyBits, func(s *tlbcell.Slice) (any, error) {
			return d.decodeFieldType(t.Value, s, env.Clone(), depth+1)
		})
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		out := &Dict{KeyBits: keyBits}
		for _, k := range cellDict.SortedKeys() {
			raw, _ := cellDict.Get(k)
			out.Entries = append(out.Entries, DictEntry{Key: k, Value: raw.(Value)})
		}
		return out, nil

	case tlbschema.VarInteger:
		n, err := evalInt(t.N, env)
		if err != nil {
			return nil, err
		}
		var v *big.Int
		if t.Signed {
			v, err = slice.LoadVarIntBig(n)
		} else {
			v, err = slice.LoadVarUintBig(n)
		}
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		return Text{Value: v.String()}, nil

	case tlbschema.Multiple:
		times, err := evalInt(t.Times, env)
		if err != nil {
			return nil, err
		}
		if times < 0 {
			return nil, newDataError(DataShort, "negative repetition count %d", times)
		}
		items := make([]Value, 0, times)
		for i := 0; i < times; i++ {
			v, err := d.decodeFieldType(t.Elem, slice, env, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return Sequence{Items: items}, nil

	case tlbschema.Cond:
		res, err := tlbexpr.Eval(t.Condition, env)
		if err != nil {
			return nil, err
		}
		if !tlbexpr.Truthy(res) {
			return Absent{}, nil
		}
		return d.decodeFieldType(t.Inner, slice, env, depth+1)

	case tlbschema.TupleField:
		ref, err := slice.LoadRef()
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		vals, err := tlbcell.ParseTuple(ref)
		if err != nil {
			return nil, newDataError(DataShort, "%v", err)
		}
		items := make([]Value, 0, len(vals))
		for _, v := range vals {
			items = append(items, intValue(v, 257))
		}
		return Sequence{Items: items}, nil

	default:
		return nil, newDataError(UnsupportedFieldType, "field type %T is not supported", ft)
	}
}
