// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbcodec

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
	"github.com/skulidropek/tlb-rest-server/lib/tlbexpr"
	"github.com/skulidropek/tlb-rest-server/lib/tlbschema"
)

// encoder carries the compiled schema an encode pass runs against.
type encoder struct {
	model *tlbschema.Model
}

// splitKind splits a Record.Kind at its first underscore into
// (typeName, constructorName); an empty constructorName means "the
// sole constructor".
func splitKind(kind string) (string, string) {
	if i := strings.IndexByte(kind, '_'); i >= 0 {
		return kind[:i], kind[i+1:]
	}
	return kind, ""
}

// encode is the Runtime.encode entry point.
func (e *encoder) encode(v Value) (*tlbcell.Cell, error) {
	rec, ok := v.(*Record)
	if !ok || rec.Kind == "" {
		return nil, newDataError(NotTyped, "value has no kind")
	}
	typeName, ctorName := splitKind(rec.Kind)
	return e.encodeByType(typeName, ctorName, rec)
}

// encodeByType is the Runtime.encodeByType entry point.
func (e *encoder) encodeByType(typeName, ctorName string, rec *Record) (*tlbcell.Cell, error) {
	t, ok := e.model.Type(typeName)
	if !ok {
		return nil, newDataError(UnknownType, "type %q is not declared", typeName)
	}
	c, err := resolveConstructor(t, ctorName)
	if err != nil {
		return nil, err
	}
	b := tlbcell.NewBuilder()
	if err := e.encodeConstructor(b, t, c, rec, 1); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

func resolveConstructor(t *tlbschema.Type, ctorName string) (*tlbschema.Constructor, error) {
	if ctorName == "" {
		if len(t.Constructors) == 0 {
			return nil, newDataError(UnknownConstructor, "type %s declares no constructors", t.Name)
		}
		return t.Constructors[0], nil
	}
	for _, c := range t.Constructors {
		if c.Name == ctorName {
			return c, nil
		}
	}
	return nil, newDataError(UnknownConstructor, "type %s has no constructor %q", t.Name, ctorName)
}

// anonCursor hands out the same "_"/"_1"/"_2"... key sequence the
// decoder assigns to anonymous fields in declaration order, so
// encoding a decoded record reads its anonymous fields back in the
// same order they were written.
type anonCursor struct{ n int }

func (a *anonCursor) next() string {
	key := "_"
	if a.n > 0 {
		key = "_" + strconv.Itoa(a.n)
	}
	a.n++
	return key
}

// encodeConstructor writes the fields of one constructor into b,
// mirroring decodeConstructor's field loop and environment-binding
// rules.
func (e *encoder) encodeConstructor(b *tlbcell.Builder, t *tlbschema.Type, c *tlbschema.Constructor, rec *Record, depth int) error {
	if c.Tag.BitLen > 0 {
		if err := b.StoreUint(c.Tag.Value, c.Tag.BitLen); err != nil {
			return newDataError(DataShort, "%v", err)
		}
	}

	env := tlbexpr.Env{}
	for _, p := range c.Params {
		if p.Const != nil {
			env[p.Name] = *p.Const
			continue
		}
		if v, ok := rec.Get(p.Name); ok {
			if n, err := AsInt64(v); err == nil {
				env[p.Name] = n
			}
		}
	}

	anon := &anonCursor{}
	for _, f := range c.Fields {
		if len(f.SubFields) > 0 {
			var group *Record
			if f.Anonymous() {
				group = rec
			} else if v, ok := rec.Get(f.Name); ok {
				group, _ = v.(*Record)
			}
			if group == nil {
				group = NewRecord("")
			}
			nested := tlbcell.NewBuilder()
			subEnv := env.Clone()
			subAnon := &anonCursor{}
			for _, sf := range f.SubFields {
				v := fieldValue(group, sf, subAnon)
				if err := e.encodeOneField(nested, c, sf, v, subEnv, depth); err != nil {
					return err
				}
				bindEnvVar(subEnv, sf, v)
			}
			if err := b.StoreRef(nested.Finalize()); err != nil {
				return newDataError(DataShort, "%v", err)
			}
			continue
		}

		v := fieldValue(rec, f, anon)
		if err := e.encodeOneField(b, c, f, v, env, depth); err != nil {
			return err
		}
		bindEnvVar(env, f, v)
	}

	for _, constraint := range c.Constraints {
		res, err := tlbexpr.Eval(constraint, env)
		if err != nil {
			return err
		}
		if !tlbexpr.Truthy(res) {
			return newDataError(ConstraintFailed, "%s.%s: constraint violated", t.Name, c.Name)
		}
	}
	return nil
}

// encodeOneField encodes a single non-subfield Field, mirroring
// decodeOneField's parameter-substitution rule: a field whose type is
// a bare Named reference to one of the constructor's own polymorphic
// parameters was never decoded from its own bits (decodeOneField
// returned the incoming argument value directly), so its value
// carries no independent bit representation to write out here either.
func (e *encoder) encodeOneField(b *tlbcell.Builder, c *tlbschema.Constructor, f *tlbschema.Field, v Value, env tlbexpr.Env, depth int) error {
	if named, ok := f.Type.(tlbschema.Named); ok && len(named.Arguments) == 0 {
		if _, isParam := c.ParamIndex(named.Name); isParam {
			return nil
		}
	}
	return e.encodeFieldType(b, f.Type, v, env, depth+1)
}

// fieldValue fetches the input value for field f out of rec: under
// its own name, or under the next anonymous-field key rec's decoder
// would have assigned it (mirrors assignFieldValue in decode.go).
func fieldValue(rec *Record, f *tlbschema.Field, anon *anonCursor) Value {
	name := f.Name
	if f.Anonymous() {
		name = anon.next()
	}
	if v, ok := rec.Get(name); ok {
		return v
	}
	return Absent{}
}

var genericSuffixes = []string{"Type"}

// isGenericPlaceholderName reports whether a Named field-type name is
// one of the polymorphic placeholder spellings:
// a single uppercase letter, "Any", "Arg", or a name ending in "Type".
func isGenericPlaceholderName(name string) bool {
	if name == "Any" || name == "Arg" {
		return true
	}
	if len(name) == 1 && unicode.IsUpper(rune(name[0])) {
		return true
	}
	for _, suf := range genericSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

// encodeFieldType implements the per-variant encode table,
// mirroring decodeFieldType's cases.
func (e *encoder) encodeFieldType(b *tlbcell.Builder, ft tlbschema.FieldType, v Value, env tlbexpr.Env, depth int) error {
	if depth > maxRecursionDepth {
		return newDataError(UnsupportedFieldType, "recursion depth exceeded")
	}

	switch t := ft.(type) {
	case tlbschema.Number:
		bits, err := evalInt(t.Bits, env)
		if err != nil {
			return err
		}
		n := asBigInt(v)
		if t.Signed {
			err = b.StoreIntBig(n, bits)
		} else {
			err = b.StoreUintBig(n, bits)
		}
		if err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.BoolField:
		if t.HasFixed {
			return nil
		}
		if err := b.StoreBit(asBool(v)); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.BitsField:
		n, err := evalInt(t.Bits, env)
		if err != nil {
			return err
		}
		bs, err := asBitString(v, n)
		if err != nil {
			return err
		}
		if err := b.StoreBits(bs); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.Named:
		if t.Name == "Bool" {
			return b.StoreBit(asBool(v))
		}
		typ, ok := e.model.Type(t.Name)
		if !ok {
			// t.Name is a polymorphic placeholder (a single
			// uppercase letter, "Any", "Arg", or a name ending "Type")
			// rather than a declared type; dispatch by the value's own
			// recorded kind instead of the schema text.
			if !isGenericPlaceholderName(t.Name) {
				return newDataError(UnknownType, "reference to undeclared type %q", t.Name)
			}
			sub, ok := v.(*Record)
			if !ok {
				return nil
			}
			typeName, ctorName := splitKind(sub.Kind)
			typ2, ok := e.model.Type(typeName)
			if !ok {
				return nil
			}
			c2, err := resolveConstructor(typ2, ctorName)
			if err != nil {
				return nil
			}
			return e.encodeConstructor(b, typ2, c2, sub, depth+1)
		}
		sub, ok := v.(*Record)
		if !ok {
			return newDataError(NotTyped, "field of type %s requires a record value", t.Name)
		}
		_, ctorName := splitKind(sub.Kind)
		c, err := resolveConstructor(typ, ctorName)
		if err != nil {
			return err
		}
		// Polymorphic arguments are positional values the referenced
		// constructor's own fields substitute in directly rather than
		// decode fresh bits for (decodeOneField's parameter rule);
		// since they carry no independent bit representation here
		// either, write their declared-default encoding.
		for _, a := range t.Arguments {
			if err := e.encodeFieldType(b, a, Absent{}, env, depth+1); err != nil {
				return err
			}
		}
		return e.encodeConstructor(b, typ, c, sub, depth+1)

	case tlbschema.CoinsField:
		if err := b.StoreCoins(asBigInt(v)); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.AddressField:
		addr, err := asAddress(v)
		if err != nil {
			return err
		}
		if err := b.StoreAddress(addr); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.CellField:
		var ref *tlbcell.Cell
		if cv, ok := v.(CellRef); ok {
			ref = cv.Value
		}
		if err := b.StoreMaybeRef(ref); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.CellInside:
		nested := tlbcell.NewBuilder()
		if err := e.encodeFieldType(nested, t.Inner, v, env, depth+1); err != nil {
			return err
		}
		if err := b.StoreRef(nested.Finalize()); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.Hashmap:
		keyBits, err := evalInt(t.KeyBits, env)
		if err != nil {
			return err
		}
		cellDict := tlbcell.NewDict(keyBits)
		if d, ok := v.(*Dict); ok {
			for _, entry := range d.Entries {
				cellDict.Set(entry.Key, entry.Value)
			}
		}
		err = b.StoreDict(cellDict, func(raw any) (*tlbcell.Cell, error) {
			val, _ := raw.(Value)
			nested := tlbcell.NewBuilder()
			if err := e.encodeFieldType(nested, t.Value, val, env.Clone(), depth+1); err != nil {
				return nil, err
			}
			return nested.Finalize(), nil
		})
		if err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.VarInteger:
		n, err := evalInt(t.N, env)
		if err != nil {
			return err
		}
		mag := asBigInt(v)
		if t.Signed {
			err = b.StoreVarIntBig(mag, n)
		} else {
			err = b.StoreVarUintBig(mag, n)
		}
		if err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	case tlbschema.Multiple:
		times, err := evalInt(t.Times, env)
		if err != nil {
			return err
		}
		seq, _ := v.(Sequence)
		for i := 0; i < times; i++ {
			var elem Value = Absent{}
			if i < len(seq.Items) {
				elem = seq.Items[i]
			}
			if err := e.encodeFieldType(b, t.Elem, elem, env, depth+1); err != nil {
				return err
			}
		}
		return nil

	case tlbschema.Cond:
		res, err := tlbexpr.Eval(t.Condition, env)
		if err != nil {
			return err
		}
		if !tlbexpr.Truthy(res) {
			return nil
		}
		return e.encodeFieldType(b, t.Inner, v, env, depth+1)

	case tlbschema.TupleField:
		seq, _ := v.(Sequence)
		vals := make([]*big.Int, 0, len(seq.Items))
		for _, item := range seq.Items {
			vals = append(vals, asBigInt(item))
		}
		cell, err := tlbcell.SerializeTuple(vals)
		if err != nil {
			return newDataError(DataShort, "%v", err)
		}
		if err := b.StoreRef(cell); err != nil {
			return newDataError(DataShort, "%v", err)
		}
		return nil

	default:
		return newDataError(UnsupportedFieldType, "field type %T is not supported", ft)
	}
}

// asBigInt coerces a decoded/input Value to an integer, defaulting
// absent or untyped input to zero ("Number coerces
// null/undefined to 0", "Coins: null → zero").
func asBigInt(v Value) *big.Int {
	switch t := v.(type) {
	case Int:
		return big.NewInt(t.Value)
	case BigInt:
		return t.Value
	case Bool:
		if t.Value {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case Text:
		if n, ok := new(big.Int).SetString(t.Value, 10); ok {
			return n
		}
		return big.NewInt(0)
	default:
		return big.NewInt(0)
	}
}

func asBool(v Value) bool {
	switch t := v.(type) {
	case Bool:
		return t.Value
	case Int:
		return t.Value != 0
	default:
		return false
	}
}

// asBitString accepts either a raw bit string or text input: a Bits
// field accepts either a bit-string primitive or a text string.
func asBitString(v Value, n int) (tlbcell.BitString, error) {
	switch t := v.(type) {
	case Bits:
		return t.Value, nil
	case Text:
		return tlbcell.FromText(t.Value), nil
	case Absent:
		return tlbcell.BitString{Len: n, Data: make([]byte, (n+7)/8)}, nil
	default:
		return tlbcell.BitString{}, newDataError(UnsupportedFieldType, "bits field requires a bit-string or text value, got %T", v)
	}
}

// asAddress resolves an Address field's input: null →
// empty address, text → parsed, an already-typed Address → stored
// as-is. An explicit external-address shape is represented on decode
// but not currently serialised: it always encodes as empty rather
// than reproducing addr_extern's bits.
func asAddress(v Value) (tlbcell.Address, error) {
	switch t := v.(type) {
	case Address:
		if t.Value.Kind == tlbcell.AddressExtern {
			return tlbcell.Address{Kind: tlbcell.AddressNone}, nil
		}
		return t.Value, nil
	case Text:
		addr, err := tlbcell.ParseAddress(t.Value)
		if err != nil {
			return tlbcell.Address{}, newDataError(AddressLoadFailed, "%v", err)
		}
		return addr, nil
	default:
		return tlbcell.Address{Kind: tlbcell.AddressNone}, nil
	}
}
