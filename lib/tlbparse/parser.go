// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package tlbparse

import (
	"fmt"
	"strconv"

	"github.com/skulidropek/tlb-rest-server/lib/tlbexpr"
	"github.com/skulidropek/tlb-rest-server/lib/tlbschema"
)

// ParseError is a syntactic failure: an unexpected token.
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tlbparse: parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parser is a recursive-descent parser over one token of lookahead.
type Parser struct {
	lex *Lexer
	tok Token
	err error
}

// NewParser returns a Parser positioned at the first token of src.
func NewParser(src string) (*Parser, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// parserMark is a speculative-lookahead checkpoint covering both the
// parser's current token and the lexer's scan position, since the
// lexer has no buffering of its own to rewind through.
type parserMark struct {
	tok Token
	lex lexState
}

func (p *Parser) mark() parserMark {
	return parserMark{tok: p.tok, lex: p.lex.snapshot()}
}

func (p *Parser) reset(m parserMark) {
	p.tok = m.tok
	p.lex.restore(m.lex)
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: fmt.Sprintf("expected %s, found %s %q", kind, p.tok.Kind, p.tok.Text)}
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Parse compiles TL-B source text into an immutable Model, combining
// an external parser and a Schema Model builder into a single pass
// rather than two separate stages.
func Parse(src string) (*tlbschema.Model, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}

	order := []string{}
	decls := map[string]*tlbschema.TypeDecl{}
	lastTypeName := ""

	for p.tok.Kind != TokEOF {
		ctor, typeName, err := p.parseCombinator()
		if err != nil {
			return nil, err
		}
		if _, ok := decls[typeName]; !ok {
			decls[typeName] = &tlbschema.TypeDecl{Name: typeName}
			order = append(order, typeName)
		}
		decls[typeName].Constructors = append(decls[typeName].Constructors, ctor)
		lastTypeName = typeName
	}

	b := tlbschema.NewBuilder()
	for _, name := range order {
		b.AddType(*decls[name])
	}
	if lastTypeName != "" {
		b.SetLastTypeName(lastTypeName)
	}
	return b.Build()
}

// parseCombinator parses one `ctorname tag? (param|field|constraint)*
// = TypeName arg*;` declaration.
func (p *Parser) parseCombinator() (tlbschema.ConstructorDecl, string, error) {
	ctorName, err := p.parseName()
	if err != nil {
		return tlbschema.ConstructorDecl{}, "", err
	}

	tag, err := p.parseTag()
	if err != nil {
		return tlbschema.ConstructorDecl{}, "", err
	}

	decl := tlbschema.ConstructorDecl{Name: ctorName, Tag: tag}

	for p.tok.Kind != TokEquals {
		if p.tok.Kind == TokEOF {
			return tlbschema.ConstructorDecl{}, "", &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: "unexpected end of input before '='"}
		}
		if p.tok.Kind == TokLBrace {
			isParam, param, constraint, err := p.parseBraced()
			if err != nil {
				return tlbschema.ConstructorDecl{}, "", err
			}
			if isParam {
				decl.Params = append(decl.Params, param)
			} else {
				decl.Constraints = append(decl.Constraints, constraint)
			}
			continue
		}
		field, err := p.parseField()
		if err != nil {
			return tlbschema.ConstructorDecl{}, "", err
		}
		decl.Fields = append(decl.Fields, field)
	}

	if _, err := p.expect(TokEquals); err != nil {
		return tlbschema.ConstructorDecl{}, "", err
	}
	typeName, err := p.parseName()
	if err != nil {
		return tlbschema.ConstructorDecl{}, "", err
	}
	for p.tok.Kind != TokSemi {
		if p.tok.Kind == TokEOF {
			return tlbschema.ConstructorDecl{}, "", &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: "unexpected end of input before ';'"}
		}
		if _, err := p.parseExprAtom(); err != nil {
			return tlbschema.ConstructorDecl{}, "", err
		}
	}
	if _, err := p.expect(TokSemi); err != nil {
		return tlbschema.ConstructorDecl{}, "", err
	}
	return decl, typeName, nil
}

// parseName accepts either an identifier or a bare underscore as a
// constructor/type name (TL-B allows `_` as an anonymous constructor
// name).
func (p *Parser) parseName() (string, error) {
	if p.tok.Kind == TokIdent {
		tok, err := p.expect(TokIdent)
		return tok.Text, err
	}
	if p.tok.Kind == TokUnderscore {
		if err := p.advance(); err != nil {
			return "", err
		}
		return "_", nil
	}
	return "", &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: fmt.Sprintf("expected a name, found %s %q", p.tok.Kind, p.tok.Text)}
}

// parseTag parses an optional `$binary`, `#hex`, `$_`, or `#_` tag.
// Absence of both markers means no tag (bitLen 0).
func (p *Parser) parseTag() (tlbschema.Tag, error) {
	switch p.tok.Kind {
	case TokDollar:
		if err := p.advance(); err != nil {
			return tlbschema.Tag{}, err
		}
		return p.parseTagDigits(2)
	case TokHash:
		if err := p.advance(); err != nil {
			return tlbschema.Tag{}, err
		}
		return p.parseTagDigits(16)
	default:
		return tlbschema.Tag{}, nil
	}
}

func (p *Parser) parseTagDigits(base int) (tlbschema.Tag, error) {
	if p.tok.Kind == TokUnderscore {
		if err := p.advance(); err != nil {
			return tlbschema.Tag{}, err
		}
		return tlbschema.Tag{}, nil
	}
	if p.tok.Kind != TokInt && p.tok.Kind != TokIdent {
		return tlbschema.Tag{}, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: "expected tag digits"}
	}
	text := p.tok.Text
	if err := p.advance(); err != nil {
		return tlbschema.Tag{}, err
	}
	value, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return tlbschema.Tag{}, &ParseError{Msg: fmt.Sprintf("malformed tag digits %q: %v", text, err)}
	}
	bitLen := len(text)
	if base == 16 {
		bitLen = len(text) * 4
	}
	return tlbschema.Tag{BitLen: bitLen, Value: value}, nil
}

// parseBraced parses the content of `{ ... }`, disambiguating a
// parameter declaration `{name:#}` / `{name:Type}` from a constraint
// expression `{expr}` by attempting the parameter shape first.
func (p *Parser) parseBraced() (bool, tlbschema.Parameter, tlbexpr.Expr, error) {
	if _, err := p.expect(TokLBrace); err != nil {
		return false, tlbschema.Parameter{}, nil, err
	}

	if p.tok.Kind == TokIdent {
		name := p.tok.Text
		// Lookahead: only commit to the parameter shape if a ':' follows
		// the identifier and the token after that is '#' or 'Type'.
		m := p.mark()
		if err := p.advance(); err == nil && p.tok.Kind == TokColon {
			if err := p.advance(); err == nil {
				if p.tok.Kind == TokHash {
					if err := p.advance(); err == nil {
						if _, err := p.expect(TokRBrace); err == nil {
							return true, tlbschema.Parameter{Name: name}, nil, nil
						}
					}
				} else if p.tok.Kind == TokIdent && p.tok.Text == "Type" {
					if err := p.advance(); err == nil {
						if _, err := p.expect(TokRBrace); err == nil {
							return true, tlbschema.Parameter{Name: name}, nil, nil
						}
					}
				}
			}
		}
		p.reset(m)
	}

	expr, err := p.parseExpr()
	if err != nil {
		return false, tlbschema.Parameter{}, nil, err
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return false, tlbschema.Parameter{}, nil, err
	}
	return false, tlbschema.Parameter{}, expr, nil
}

// parseField parses one field: an optional `name:` prefix followed by
// a field type, or a bracketed sub-field group.
func (p *Parser) parseField() (*tlbschema.Field, error) {
	name := ""
	if (p.tok.Kind == TokIdent || p.tok.Kind == TokUnderscore) {
		m := p.mark()
		candidate, err := p.parseName()
		if err == nil && p.tok.Kind == TokColon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			name = candidate
			if name == "_" {
				name = ""
			}
		} else {
			p.reset(m)
		}
	}

	if p.tok.Kind == TokCaret {
		m := p.mark()
		if err := p.advance(); err == nil && p.tok.Kind == TokLBracket {
			subs, err := p.parseSubFieldGroup()
			if err != nil {
				return nil, err
			}
			return &tlbschema.Field{Name: name, SubFields: subs}, nil
		}
		p.reset(m)
	}

	ft, err := p.parseFieldType()
	if err != nil {
		return nil, err
	}
	return &tlbschema.Field{Name: name, Type: ft}, nil
}

func (p *Parser) parseSubFieldGroup() ([]*tlbschema.Field, error) {
	if _, err := p.expect(TokLBracket); err != nil {
		return nil, err
	}
	var fields []*tlbschema.Field
	for p.tok.Kind != TokRBracket {
		if p.tok.Kind == TokEOF {
			return nil, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: "unexpected end of input in sub-field group"}
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseFieldType parses one of the declared FieldType shapes.
func (p *Parser) parseFieldType() (tlbschema.FieldType, error) {
	ft, err := p.parseFieldTypePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == TokQuestion {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseFieldType()
		if err != nil {
			return nil, err
		}
		cond, ok := conditionOf(ft)
		if !ok {
			return nil, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: "left of '?' is not a valid condition expression"}
		}
		return tlbschema.Cond{Condition: cond, Inner: inner}, nil
	}
	return ft, nil
}

func (p *Parser) parseFieldTypePrimary() (tlbschema.FieldType, error) {
	switch p.tok.Kind {
	case TokHash:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Kind == TokHash {
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return tlbschema.Number{Bits: expr, Signed: false}, nil
		}
		if p.tok.Kind == TokInt {
			n := p.tok.IntV
			if err := p.advance(); err != nil {
				return nil, err
			}
			return tlbschema.Number{Bits: tlbexpr.IntLit{Value: n}, Signed: false}, nil
		}
		return tlbschema.Number{Bits: tlbexpr.IntLit{Value: 32}, Signed: false}, nil

	case TokCaret:
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		if name == "Cell" {
			return tlbschema.CellField{}, nil
		}
		args, err := p.maybeParseArgs()
		if err != nil {
			return nil, err
		}
		return tlbschema.CellInside{Inner: tlbschema.Named{Name: name, Arguments: args}}, nil

	case TokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		ft, err := p.parseParenFieldType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return ft, nil

	case TokIdent:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch name {
		case "Bool":
			return tlbschema.BoolField{}, nil
		case "Coins", "Grams":
			return tlbschema.CoinsField{}, nil
		case "Address", "MsgAddress", "MsgAddressInt":
			return tlbschema.AddressField{}, nil
		case "Tuple":
			return tlbschema.TupleField{}, nil
		case "int":
			n, err := p.parseIntSuffix()
			if err != nil {
				return nil, err
			}
			return tlbschema.Number{Bits: n, Signed: true}, nil
		case "uint":
			n, err := p.parseIntSuffix()
			if err != nil {
				return nil, err
			}
			return tlbschema.Number{Bits: n, Signed: false}, nil
		case "bits":
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return tlbschema.BitsField{Bits: n}, nil
		default:
			args, err := p.maybeParseArgs()
			if err != nil {
				return nil, err
			}
			return tlbschema.Named{Name: name, Arguments: args}, nil
		}

	default:
		return nil, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: fmt.Sprintf("unexpected token %s %q in field type", p.tok.Kind, p.tok.Text)}
	}
}

func (p *Parser) parseParenFieldType() (tlbschema.FieldType, error) {
	if p.tok.Kind == TokIdent {
		switch p.tok.Text {
		case "HashmapE", "Hashmap":
			if err := p.advance(); err != nil {
				return nil, err
			}
			keyBits, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			value, err := p.parseFieldType()
			if err != nil {
				return nil, err
			}
			return tlbschema.Hashmap{KeyBits: keyBits, Value: value}, nil
		case "VarInteger", "VarUInteger":
			signed := p.tok.Text == "VarInteger"
			if err := p.advance(); err != nil {
				return nil, err
			}
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return tlbschema.VarInteger{N: n, Signed: signed}, nil
		case "bits":
			if err := p.advance(); err != nil {
				return nil, err
			}
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return tlbschema.BitsField{Bits: n}, nil
		}
	}

	// `(n * FieldType)`: a fixed- or dependent-count repetition.
	m := p.mark()
	if expr, err := p.tryParseExpr(); err == nil {
		if p.tok.Kind == TokStar {
			if err := p.advance(); err != nil {
				return nil, err
			}
			elem, err := p.parseFieldType()
			if err != nil {
				return nil, err
			}
			return tlbschema.Multiple{Times: expr, Elem: elem}, nil
		}
	}
	p.reset(m)

	return p.parseFieldType()
}

func (p *Parser) parseIntSuffix() (tlbexpr.Expr, error) {
	if p.tok.Kind == TokInt {
		n := p.tok.IntV
		if err := p.advance(); err != nil {
			return nil, err
		}
		return tlbexpr.IntLit{Value: n}, nil
	}
	return nil, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: "expected a bit width after int/uint"}
}

// maybeParseArgs parses a space-separated argument list following a
// Named reference, e.g. `Foo 8 ^Bar`. Only integer literals and
// `^`-prefixed field types are consumed as arguments; a parenthesized
// list such as `Foo(a, b)` is not read here, and bare trailing
// identifiers are left alone.
func (p *Parser) maybeParseArgs() ([]tlbschema.FieldType, error) {
	var args []tlbschema.FieldType
	for {
		switch p.tok.Kind {
		case TokInt:
			args = append(args, tlbschema.Number{Bits: tlbexpr.IntLit{Value: p.tok.IntV}, Signed: false})
			if err := p.advance(); err != nil {
				return nil, err
			}
		case TokCaret:
			ft, err := p.parseFieldTypePrimary()
			if err != nil {
				return nil, err
			}
			args = append(args, ft)
		default:
			return args, nil
		}
	}
}

// conditionOf reinterprets a parsed FieldType as a condition
// expression when it stands to the left of '?': a bare Named
// reference with no type arguments is really a variable name read in
// field-type position (e.g. `has?(^Cell)` parses `has` as a
// zero-argument Named before the parser knows a '?' follows).
func conditionOf(ft tlbschema.FieldType) (tlbexpr.Expr, bool) {
	if n, ok := ft.(tlbschema.Named); ok && len(n.Arguments) == 0 {
		return tlbexpr.Var{Name: n.Name}, true
	}
	return nil, false
}

// --- expression grammar ---
//
// expr    := cmp
// cmp     := sum ( ('=' | '==' | '!=' | '<>' | '<' | '<=' | '>' | '>=') sum )?
// sum     := term ( ('+' | '-') term )*
// term    := atom ( ('*' | '/') atom )*
// atom    := INT | IDENT | '(' expr ')'

// parseExpr parses a full arithmetic/relational expression.
func (p *Parser) parseExpr() (tlbexpr.Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	op, ok := relOpFor(p.tok.Kind)
	if !ok {
		return left, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	return tlbexpr.BinOp{Op: op, Left: left, Right: right}, nil
}

// tryParseExpr parses a sum-level expression (no relational
// operator), advancing the parser as it goes; callers that need to
// back out restore p from a mark taken beforehand.
func (p *Parser) tryParseExpr() (tlbexpr.Expr, error) {
	return p.parseSum()
}

func relOpFor(k TokenKind) (tlbexpr.Operator, bool) {
	switch k {
	case TokEquals, TokEq:
		return tlbexpr.OpEq, true
	case TokNe:
		return tlbexpr.OpNe, true
	case TokLt:
		return tlbexpr.OpLt, true
	case TokLe:
		return tlbexpr.OpLe, true
	case TokGt:
		return tlbexpr.OpGt, true
	case TokGe:
		return tlbexpr.OpGe, true
	default:
		return 0, false
	}
}

func (p *Parser) parseSum() (tlbexpr.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokPlus || p.tok.Kind == TokMinus {
		op := tlbexpr.OpAdd
		if p.tok.Kind == TokMinus {
			op = tlbexpr.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = tlbexpr.BinOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (tlbexpr.Expr, error) {
	left, err := p.parseExprAtom()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokStar || p.tok.Kind == TokSlash {
		op := tlbexpr.OpMul
		if p.tok.Kind == TokSlash {
			op = tlbexpr.OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExprAtom()
		if err != nil {
			return nil, err
		}
		left = tlbexpr.BinOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseExprAtom parses a literal, variable reference, or parenthesized
// sub-expression.
func (p *Parser) parseExprAtom() (tlbexpr.Expr, error) {
	switch p.tok.Kind {
	case TokInt:
		v := p.tok.IntV
		if err := p.advance(); err != nil {
			return nil, err
		}
		return tlbexpr.IntLit{Value: v}, nil
	case TokIdent:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return tlbexpr.Var{Name: name}, nil
	case TokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, &ParseError{Line: p.tok.Line, Col: p.tok.Col, Msg: fmt.Sprintf("unexpected token %s %q in expression", p.tok.Kind, p.tok.Text)}
	}
}
