// Package parser builds NTL syntax trees from token streams. Declarations
// and statements are parsed by straightforward recursive descent; binary
// expressions use precedence climbing so the operator table lives in one
// place. The parser stops at the first error.
package parser

import (
	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/lexer"
	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/symbol"
)

// Parser consumes one token stream.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// New creates a parser over the given tokens.
//
// REQUIRES: toks ends with an EOF token, as produced by lexer.Tokenize.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses a whole module. On error the returned module is nil.
func (p *Parser) Parse() (*ast.Module, error) {
	m := &ast.Module{}
	for p.cur().Kind != lexer.EOF {
		d, err := p.decl()
		if err != nil {
			return nil, err
		}
		m.Decls = append(m.Decls, d)
	}
	if len(m.Decls) > 0 {
		m.Rng = source.Span(m.Decls[0].Range(), m.Decls[len(m.Decls)-1].Range())
	}
	return m, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) next() lexer.Token { t := p.toks[p.pos]; p.advance(); return t }

func (p *Parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) eat(k lexer.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k lexer.Kind, ctx string) (lexer.Token, error) {
	if p.at(k) {
		return p.next(), nil
	}
	return lexer.Token{}, &Error{
		Kind: ExpectedToken, Loc: p.cur().Range.Start,
		Expected: k, Found: p.cur(), Context: ctx,
	}
}

func (p *Parser) identifier(ctx string) (symbol.ID, source.Range, error) {
	if !p.at(lexer.Identifier) {
		return symbol.Invalid, source.Range{}, &Error{
			Kind: ExpectedIdentifier, Loc: p.cur().Range.Start,
			Found: p.cur(), Context: ctx,
		}
	}
	tok := p.next()
	return symbol.Intern(tok.Text), tok.Range, nil
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func (p *Parser) decl() (ast.Decl, error) {
	switch p.cur().Kind {
	case lexer.At:
		d, err := p.externDecl()
		if err != nil {
			return nil, err
		}
		return d, nil
	case lexer.KwStruct:
		d, err := p.structDecl()
		if err != nil {
			return nil, err
		}
		return d, nil
	case lexer.KwFunc:
		d, err := p.funcDecl()
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, &Error{Kind: UnexpectedToken, Loc: p.cur().Range.Start, Found: p.cur(), Context: "at top level"}
	}
}

// externDecl parses "@extern(convention) func name(params) [-> type]".
func (p *Parser) externDecl() (*ast.ExternDecl, error) {
	start := p.next() // '@'
	if _, err := p.expect(lexer.KwExtern, "after '@'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LeftParen, "after 'extern'"); err != nil {
		return nil, err
	}
	conv, _, err := p.identifier("as calling convention")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RightParen, "after calling convention"); err != nil {
		return nil, err
	}
	fn, err := p.funcDecl()
	if err != nil {
		return nil, err
	}
	fn.IsExtern = true
	return &ast.ExternDecl{
		Base:       ast.Base{Rng: source.Span(start.Range, fn.Range())},
		Convention: conv.Str(),
		Func:       fn,
	}, nil
}

func (p *Parser) structDecl() (*ast.StructDecl, error) {
	start := p.next() // 'struct'
	name, nameRange, err := p.identifier("as struct name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LeftBrace, "to begin struct body"); err != nil {
		return nil, err
	}
	d := &ast.StructDecl{Name: name, NameRange: nameRange}
	for !p.at(lexer.RightBrace) && !p.at(lexer.EOF) {
		switch p.cur().Kind {
		case lexer.KwVar:
			f, err := p.varBinding()
			if err != nil {
				return nil, err
			}
			d.Fields = append(d.Fields, f)
		case lexer.KwFunc:
			m, err := p.funcDecl()
			if err != nil {
				return nil, err
			}
			d.Methods = append(d.Methods, m)
		default:
			return nil, &Error{Kind: UnexpectedToken, Loc: p.cur().Range.Start, Found: p.cur(), Context: "in struct body"}
		}
	}
	end, err := p.expect(lexer.RightBrace, "to end struct body")
	if err != nil {
		return nil, err
	}
	d.Rng = source.Span(start.Range, end.Range)
	return d, nil
}

func (p *Parser) funcDecl() (*ast.FuncDecl, error) {
	start, err := p.expect(lexer.KwFunc, "to begin function")
	if err != nil {
		return nil, err
	}
	name, nameRange, err := p.identifier("as function name")
	if err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	d := &ast.FuncDecl{Name: name, NameRange: nameRange, Params: params}
	if p.eat(lexer.Arrow) {
		if d.ReturnType, err = p.typeNode(); err != nil {
			return nil, err
		}
	}
	endRange := p.toks[p.pos-1].Range
	if p.at(lexer.LeftBrace) {
		if d.Body, err = p.block(); err != nil {
			return nil, err
		}
		endRange = d.Body.Rng
	}
	d.Rng = source.Span(start.Range, endRange)
	return d, nil
}

func (p *Parser) paramList() ([]*ast.Param, error) {
	if _, err := p.expect(lexer.LeftParen, "to begin parameter list"); err != nil {
		return nil, err
	}
	var params []*ast.Param
	for !p.at(lexer.RightParen) {
		if len(params) > 0 {
			if _, err := p.expect(lexer.Comma, "between parameters"); err != nil {
				return nil, err
			}
		}
		param, err := p.param()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	if _, err := p.expect(lexer.RightParen, "to end parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

// param parses "[label|_] name : type [...]" or a lone "...", which becomes
// a variadic marker parameter named "...".
func (p *Parser) param() (*ast.Param, error) {
	if p.at(lexer.Ellipsis) {
		tok := p.next()
		return &ast.Param{
			Base:     ast.Base{Rng: tok.Range},
			Name:     symbol.VariadicMarker,
			Variadic: true,
		}, nil
	}

	param := &ast.Param{}
	start := p.cur().Range
	switch {
	case p.eat(lexer.Underscore):
		// "_ name: T": no external label.
		param.Label = symbol.Invalid
		name, _, err := p.identifier("as parameter name")
		if err != nil {
			return nil, err
		}
		param.Name = name
	default:
		first, _, err := p.identifier("as parameter name")
		if err != nil {
			return nil, err
		}
		if p.at(lexer.Identifier) {
			// "label name: T".
			second, _, err := p.identifier("as parameter name")
			if err != nil {
				return nil, err
			}
			param.Label, param.Name = first, second
		} else {
			// "name: T": the external label equals the internal name.
			param.Label, param.Name = first, first
		}
	}
	if _, err := p.expect(lexer.Colon, "before parameter type"); err != nil {
		return nil, err
	}
	typ, err := p.typeNode()
	if err != nil {
		return nil, err
	}
	param.Type = typ
	end := typ.Range()
	if p.at(lexer.Ellipsis) {
		end = p.next().Range
		param.Variadic = true
	}
	param.Rng = source.Span(start, end)
	return param, nil
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

func (p *Parser) typeNode() (ast.TypeNode, error) {
	switch p.cur().Kind {
	case lexer.Star:
		star := p.next()
		elem, err := p.typeNode()
		if err != nil {
			return nil, err
		}
		return &ast.PointerType{
			TypeBase: ast.TypeBase{Base: ast.Base{Rng: source.Span(star.Range, elem.Range())}},
			Elem:     elem,
		}, nil
	case lexer.Identifier:
		tok := p.next()
		return &ast.NamedType{
			TypeBase: ast.TypeBase{Base: ast.Base{Rng: tok.Range}},
			Name:     symbol.Intern(tok.Text),
		}, nil
	default:
		return nil, &Error{Kind: ExpectedType, Loc: p.cur().Range.Start, Found: p.cur()}
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) block() (*ast.Block, error) {
	open, err := p.expect(lexer.LeftBrace, "to begin block")
	if err != nil {
		return nil, err
	}
	b := &ast.Block{}
	for !p.at(lexer.RightBrace) && !p.at(lexer.EOF) {
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	closing, err := p.expect(lexer.RightBrace, "to end block")
	if err != nil {
		return nil, err
	}
	b.Rng = source.Span(open.Range, closing.Range)
	return b, nil
}

func (p *Parser) stmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case lexer.KwVar:
		return p.varBinding()
	case lexer.KwReturn:
		return p.returnStmt()
	case lexer.KwIf:
		return p.ifStmt()
	case lexer.Identifier, lexer.Star, lexer.LeftParen:
		return p.assignOrExprStmt()
	default:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Base: ast.Base{Rng: e.Range()}, X: e}, nil
	}
}

func (p *Parser) varBinding() (*ast.VarBinding, error) {
	start := p.next() // 'var'
	name, nameRange, err := p.identifier("as variable name")
	if err != nil {
		return nil, err
	}
	v := &ast.VarBinding{Name: name, NameRange: nameRange}
	end := nameRange
	if p.eat(lexer.Colon) {
		if v.Type, err = p.typeNode(); err != nil {
			return nil, err
		}
		end = v.Type.Range()
	}
	if p.eat(lexer.Equal) {
		if v.Init, err = p.expr(); err != nil {
			return nil, err
		}
		end = v.Init.Range()
	}
	v.Rng = source.Span(start.Range, end)
	return v, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	tok := p.next() // 'return'
	// A bare return ends at the line break or at the closing brace.
	if tok.HasTrailingNewline || p.at(lexer.RightBrace) || p.at(lexer.EOF) {
		return &ast.ReturnStmt{Base: ast.Base{Rng: tok.Range}}, nil
	}
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{
		Base:  ast.Base{Rng: source.Span(tok.Range, value.Range())},
		Value: value,
	}, nil
}

func (p *Parser) ifStmt() (*ast.IfStmt, error) {
	start := p.cur().Range
	s := &ast.IfStmt{}
	end := start
	for {
		p.advance() // 'if'
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		s.Clauses = append(s.Clauses, ast.IfClause{Cond: cond, Body: body})
		end = body.Rng
		if !p.eat(lexer.KwElse) {
			break
		}
		if p.at(lexer.KwIf) {
			continue
		}
		if s.Else, err = p.block(); err != nil {
			return nil, err
		}
		end = s.Else.Rng
		break
	}
	s.Rng = source.Span(start, end)
	return s, nil
}

// assignOrExprStmt disambiguates assignments from expression statements. It
// parses a potential lvalue; if '=' follows, the statement is an
// assignment, otherwise the parser rewinds and reparses the tokens as an
// expression statement.
func (p *Parser) assignOrExprStmt() (ast.Stmt, error) {
	mark := p.pos
	target, lvErr := p.lvalue()
	if lvErr == nil && p.at(lexer.Equal) {
		p.advance() // '='
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		rng := source.Span(target.Range(), value.Range())
		switch t := target.(type) {
		case *ast.Identifier:
			return &ast.AssignStmt{
				Base: ast.Base{Rng: rng}, Name: t.Name, NameRange: t.Rng, Value: value,
			}, nil
		case *ast.MemberAccessExpr:
			if base, ok := t.BaseExpr.(*ast.Identifier); ok {
				return &ast.MemberAssignStmt{
					Base:     ast.Base{Rng: rng},
					BaseName: base.Name, BaseRange: base.Rng,
					Member: t.Member, MemberRange: t.MemberRange,
					Value: value,
				}, nil
			}
			return &ast.LValueAssignStmt{Base: ast.Base{Rng: rng}, Target: target, Value: value}, nil
		default:
			return &ast.LValueAssignStmt{Base: ast.Base{Rng: rng}, Target: target, Value: value}, nil
		}
	}
	// Not an assignment: rewind and parse as an expression statement.
	p.pos = mark
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Base: ast.Base{Rng: e.Range()}, X: e}, nil
}

// lvalue parses the restricted expression grammar allowed left of '=':
// identifiers, parenthesized lvalues, prefix dereference, and member chains
// through '.' and '->'.
func (p *Parser) lvalue() (ast.Expr, error) {
	var base ast.Expr
	switch p.cur().Kind {
	case lexer.Star:
		star := p.next()
		inner, err := p.lvalue()
		if err != nil {
			return nil, err
		}
		base = &ast.UnaryExpr{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: source.Span(star.Range, inner.Range())}},
			Op:       ast.Deref, Operand: inner,
		}
	case lexer.LeftParen:
		p.advance()
		inner, err := p.lvalue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RightParen, "to close parenthesized target"); err != nil {
			return nil, err
		}
		base = inner
	case lexer.Identifier:
		tok := p.next()
		base = &ast.Identifier{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: tok.Range}},
			Name:     symbol.Intern(tok.Text),
		}
	default:
		return nil, &Error{Kind: UnexpectedToken, Loc: p.cur().Range.Start, Found: p.cur(), Context: "as assignment target"}
	}
	return p.memberChain(base)
}

// memberChain appends ".f" and "->f" accesses; "p->f" is sugar for "(*p).f".
func (p *Parser) memberChain(base ast.Expr) (ast.Expr, error) {
	for {
		var deref bool
		switch p.cur().Kind {
		case lexer.Dot:
		case lexer.Arrow:
			deref = true
		default:
			return base, nil
		}
		p.advance()
		member, memberRange, err := p.identifier("as member name")
		if err != nil {
			return nil, err
		}
		if deref {
			base = &ast.UnaryExpr{
				ExprBase: ast.ExprBase{Base: ast.Base{Rng: base.Range()}},
				Op:       ast.Deref, Operand: base,
			}
		}
		base = &ast.MemberAccessExpr{
			ExprBase:    ast.ExprBase{Base: ast.Base{Rng: source.Span(base.Range(), memberRange)}},
			BaseExpr:    base,
			Member:      member,
			MemberRange: memberRange,
		}
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// binaryPrecedence returns the precedence-climbing level of the operator
// starting at the current token, or 0 if the token is not a binary
// operator. All NTL binary operators are left-associative.
func binaryPrecedence(k lexer.Kind) (ast.BinaryOp, int) {
	switch k {
	case lexer.PipePipe:
		return ast.LogicalOr, 1
	case lexer.AmpAmp:
		return ast.LogicalAnd, 2
	case lexer.EqualEqual:
		return ast.Eq, 3
	case lexer.BangEqual:
		return ast.Ne, 3
	case lexer.Less:
		return ast.Lt, 3
	case lexer.LessEqual:
		return ast.Le, 3
	case lexer.Greater:
		return ast.Gt, 3
	case lexer.GreaterEqual:
		return ast.Ge, 3
	case lexer.Plus:
		return ast.Add, 4
	case lexer.Minus:
		return ast.Sub, 4
	case lexer.Star:
		return ast.Mul, 5
	case lexer.Slash:
		return ast.Div, 5
	case lexer.Percent:
		return ast.Rem, 5
	}
	return 0, 0
}

func (p *Parser) expr() (ast.Expr, error) {
	return p.binaryExpr(1)
}

func (p *Parser) binaryExpr(minPrec int) (ast.Expr, error) {
	left, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, prec := binaryPrecedence(p.cur().Kind)
		if prec < minPrec || prec == 0 {
			return left, nil
		}
		p.advance()
		right, err := p.binaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: source.Span(left.Range(), right.Range())}},
			Op:       op, Left: left, Right: right,
		}
	}
}

func (p *Parser) unaryExpr() (ast.Expr, error) {
	var op ast.UnaryOp
	switch p.cur().Kind {
	case lexer.Minus:
		op = ast.Neg
	case lexer.Bang:
		op = ast.Not
	case lexer.Ampersand:
		op = ast.AddressOf
	case lexer.Star:
		op = ast.Deref
	default:
		return p.postfixExpr()
	}
	tok := p.next()
	operand, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{
		ExprBase: ast.ExprBase{Base: ast.Base{Rng: source.Span(tok.Range, operand.Range())}},
		Op:       op, Operand: operand,
	}, nil
}

func (p *Parser) postfixExpr() (ast.Expr, error) {
	e, err := p.primaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.LeftParen:
			if e, err = p.callExpr(e); err != nil {
				return nil, err
			}
		case lexer.Dot, lexer.Arrow:
			if e, err = p.memberChainOne(e); err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

// memberChainOne appends a single member access so calls can interleave:
// a.b().c.
func (p *Parser) memberChainOne(base ast.Expr) (ast.Expr, error) {
	deref := p.cur().Kind == lexer.Arrow
	p.advance()
	member, memberRange, err := p.identifier("as member name")
	if err != nil {
		return nil, err
	}
	if deref {
		base = &ast.UnaryExpr{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: base.Range()}},
			Op:       ast.Deref, Operand: base,
		}
	}
	return &ast.MemberAccessExpr{
		ExprBase:    ast.ExprBase{Base: ast.Base{Rng: source.Span(base.Range(), memberRange)}},
		BaseExpr:    base,
		Member:      member,
		MemberRange: memberRange,
	}, nil
}

// primitiveTypeNames are reserved: a call whose callee spells one of these
// is a cast, decided syntactically.
var primitiveTypeNames = map[string]bool{
	"Int": true, "Int8": true, "Int32": true, "Bool": true,
}

func (p *Parser) callExpr(fn ast.Expr) (ast.Expr, error) {
	p.advance() // '('
	var args []ast.CallArg
	for !p.at(lexer.RightParen) {
		if len(args) > 0 {
			if _, err := p.expect(lexer.Comma, "between arguments"); err != nil {
				return nil, err
			}
		}
		arg, err := p.callArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	closing, err := p.expect(lexer.RightParen, "to end argument list")
	if err != nil {
		return nil, err
	}
	rng := source.Span(fn.Range(), closing.Range)

	if id, ok := fn.(*ast.Identifier); ok && primitiveTypeNames[id.Name.Str()] &&
		len(args) == 1 && args[0].Label == symbol.Invalid {
		return &ast.CastExpr{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: rng}},
			Target: &ast.NamedType{
				TypeBase: ast.TypeBase{Base: ast.Base{Rng: id.Rng}},
				Name:     id.Name,
			},
			Value: args[0].Value,
		}, nil
	}
	return &ast.CallExpr{
		ExprBase: ast.ExprBase{Base: ast.Base{Rng: rng}},
		Fn:       fn,
		Args:     args,
	}, nil
}

// callArg parses "[label:] expr". A literal "_:" label is rejected here
// rather than in the checker.
func (p *Parser) callArg() (ast.CallArg, error) {
	if p.at(lexer.Underscore) && p.toks[p.pos+1].Kind == lexer.Colon {
		return ast.CallArg{}, &Error{Kind: UnderscoreArgumentLabel, Loc: p.cur().Range.Start, Found: p.cur()}
	}
	if p.at(lexer.Identifier) && p.toks[p.pos+1].Kind == lexer.Colon {
		label := p.next()
		p.advance() // ':'
		value, err := p.expr()
		if err != nil {
			return ast.CallArg{}, err
		}
		return ast.CallArg{
			Label:      symbol.Intern(label.Text),
			LabelRange: label.Range,
			Value:      value,
		}, nil
	}
	value, err := p.expr()
	if err != nil {
		return ast.CallArg{}, err
	}
	return ast.CallArg{Value: value}, nil
}

func (p *Parser) primaryExpr() (ast.Expr, error) {
	switch p.cur().Kind {
	case lexer.IntegerLiteral:
		tok := p.next()
		return &ast.IntegerLiteral{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: tok.Range}},
			Text:     tok.Text,
		}, nil
	case lexer.StringLiteral:
		tok := p.next()
		return &ast.StringLiteral{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: tok.Range}},
			Value:    tok.Text,
		}, nil
	case lexer.BooleanLiteral:
		tok := p.next()
		return &ast.BooleanLiteral{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: tok.Range}},
			Value:    tok.Bool,
		}, nil
	case lexer.Identifier:
		tok := p.next()
		return &ast.Identifier{
			ExprBase: ast.ExprBase{Base: ast.Base{Rng: tok.Range}},
			Name:     symbol.Intern(tok.Text),
		}, nil
	case lexer.LeftParen:
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RightParen, "to close parenthesized expression"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &Error{Kind: UnexpectedToken, Loc: p.cur().Range.Start, Found: p.cur(), Context: "in expression"}
	}
}
