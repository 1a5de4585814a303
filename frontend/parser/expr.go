package parser

import (
	"github.com/cottand/narrow/frontend/ast"
)

var equalityOps = map[string]ast.BinaryOp{
	"===": ast.StrictEq,
	"!==": ast.StrictNeq,
	"==":  ast.LooseEq,
	"!=":  ast.LooseNeq,
}

var relationalOps = map[string]ast.BinaryOp{
	"<":  ast.Less,
	"<=": ast.LessEq,
	">":  ast.Greater,
	">=": ast.GreaterEq,
}

func (p *parser) expr() ast.Expr {
	return p.ternary()
}

func (p *parser) ternary() ast.Expr {
	start := p.peek().start
	cond := p.or()
	if !p.accept(tPunct, "?") {
		return cond
	}
	then := p.ternary()
	p.expect(":")
	els := p.ternary()
	return &ast.Ternary{Range: p.rangeOf(start, p.prevEnd()), Cond: cond, Then: then, Else: els}
}

func (p *parser) or() ast.Expr {
	start := p.peek().start
	left := p.and()
	for p.accept(tPunct, "||") {
		right := p.and()
		left = &ast.Binary{Range: p.rangeOf(start, p.prevEnd()), Op: ast.Or, Left: left, Right: right}
	}
	return left
}

func (p *parser) and() ast.Expr {
	start := p.peek().start
	left := p.equality()
	for p.accept(tPunct, "&&") {
		right := p.equality()
		left = &ast.Binary{Range: p.rangeOf(start, p.prevEnd()), Op: ast.And, Left: left, Right: right}
	}
	return left
}

func (p *parser) equality() ast.Expr {
	start := p.peek().start
	left := p.relational()
	for {
		t := p.peek()
		op, ok := equalityOps[t.text]
		if t.kind != tPunct || !ok {
			return left
		}
		p.next()
		right := p.relational()
		left = &ast.Binary{Range: p.rangeOf(start, p.prevEnd()), Op: op, Left: left, Right: right}
	}
}

func (p *parser) relational() ast.Expr {
	start := p.peek().start
	left := p.additive()
	for {
		t := p.peek()
		op, ok := relationalOps[t.text]
		switch {
		case t.kind == tIdent && t.text == "in":
			op = ast.In
		case t.kind == tIdent && t.text == "instanceof":
			op = ast.Instanceof
		case t.kind == tPunct && ok:
		default:
			return left
		}
		p.next()
		right := p.additive()
		left = &ast.Binary{Range: p.rangeOf(start, p.prevEnd()), Op: op, Left: left, Right: right}
	}
}

func (p *parser) additive() ast.Expr {
	start := p.peek().start
	left := p.unary()
	for {
		var op ast.BinaryOp
		switch {
		case p.is(tPunct, "+"):
			op = ast.Add
		case p.is(tPunct, "-"):
			op = ast.Sub
		default:
			return left
		}
		p.next()
		right := p.unary()
		left = &ast.Binary{Range: p.rangeOf(start, p.prevEnd()), Op: op, Left: left, Right: right}
	}
}

func (p *parser) unary() ast.Expr {
	t := p.peek()
	switch {
	case t.kind == tPunct && t.text == "!":
		p.next()
		x := p.unary()
		return &ast.Unary{Range: p.rangeOf(t.start, p.prevEnd()), Op: ast.Not, X: x}
	case t.kind == tPunct && t.text == "-":
		p.next()
		x := p.unary()
		// fold negative numeric literals so that -1 can be used as a literal type
		if lit, ok := x.(*ast.Literal); ok && (lit.Kind == ast.LitNumber || lit.Kind == ast.LitBigint) {
			return &ast.Literal{Range: p.rangeOf(t.start, p.prevEnd()), Kind: lit.Kind, Value: "-" + lit.Value}
		}
		return &ast.Unary{Range: p.rangeOf(t.start, p.prevEnd()), Op: ast.Neg, X: x}
	case t.kind == tIdent && t.text == "typeof":
		p.next()
		x := p.unary()
		return &ast.Typeof{Range: p.rangeOf(t.start, p.prevEnd()), X: x}
	}
	return p.postfix()
}

func (p *parser) postfix() ast.Expr {
	start := p.peek().start
	x := p.primary()
	for {
		switch {
		case p.accept(tPunct, "."):
			name := p.expectIdent()
			x = &ast.Member{Range: p.rangeOf(start, p.prevEnd()), X: x, Name: name.text}
		case p.accept(tPunct, "("):
			var args []ast.Expr
			for !p.is(tPunct, ")") {
				args = append(args, p.expr())
				if !p.accept(tPunct, ",") {
					break
				}
			}
			p.expect(")")
			x = &ast.Call{Range: p.rangeOf(start, p.prevEnd()), Fun: x, Args: args}
		default:
			return x
		}
	}
}

func (p *parser) primary() ast.Expr {
	t := p.peek()
	switch t.kind {
	case tString:
		p.next()
		return &ast.Literal{Range: p.rangeOf(t.start, t.end), Kind: ast.LitString, Value: t.text}
	case tNumber:
		p.next()
		return &ast.Literal{Range: p.rangeOf(t.start, t.end), Kind: ast.LitNumber, Value: t.text}
	case tBigint:
		p.next()
		return &ast.Literal{Range: p.rangeOf(t.start, t.end), Kind: ast.LitBigint, Value: t.text}
	case tIdent:
		if lit := p.keywordLiteral(t); lit != nil {
			p.next()
			return lit
		}
		if isReserved(t.text) {
			p.fail(t, "unexpected keyword '%s'", t.text)
		}
		p.next()
		return &ast.Ident{Range: p.rangeOf(t.start, t.end), Name: t.text}
	case tPunct:
		if t.text == "(" {
			p.next()
			x := p.expr()
			p.expect(")")
			return x
		}
		// <T> is a value of type T
		if t.text == "<" {
			p.next()
			typ := p.typ()
			end := p.expect(">")
			return &ast.TypedValue{Range: p.rangeOf(t.start, end.end), Type: typ}
		}
	}
	p.fail(t, "expected expression, found %s", describe(t))
	return nil
}

func (p *parser) keywordLiteral(t lexToken) *ast.Literal {
	r := p.rangeOf(t.start, t.end)
	switch t.text {
	case "true", "false":
		return &ast.Literal{Range: r, Kind: ast.LitBool, Value: t.text}
	case "null":
		return &ast.Literal{Range: r, Kind: ast.LitNull, Value: t.text}
	case "undefined":
		return &ast.Literal{Range: r, Kind: ast.LitUndefined, Value: t.text}
	case "NaN":
		return &ast.Literal{Range: r, Kind: ast.LitNumber, Value: t.text}
	}
	return nil
}

func isReserved(name string) bool {
	switch name {
	case "typeof", "in", "instanceof":
		return true
	}
	return false
}
