package parser

import (
	"github.com/cottand/narrow/frontend/ast"
)

func (p *parser) typ() ast.Type {
	start := p.peek().start
	// a leading | is allowed, as in multi-line unions
	p.accept(tPunct, "|")
	left := p.intersection()
	for p.accept(tPunct, "|") {
		right := p.intersection()
		left = &ast.UnionType{Range: p.rangeOf(start, p.prevEnd()), Left: left, Right: right}
	}
	return left
}

func (p *parser) intersection() ast.Type {
	start := p.peek().start
	left := p.arrayType()
	for p.accept(tPunct, "&") {
		right := p.arrayType()
		left = &ast.IntersectionType{Range: p.rangeOf(start, p.prevEnd()), Left: left, Right: right}
	}
	return left
}

func (p *parser) arrayType() ast.Type {
	start := p.peek().start
	t := p.primaryType()
	for p.is(tPunct, "[") {
		p.next()
		p.expect("]")
		t = &ast.ArrayType{Range: p.rangeOf(start, p.prevEnd()), Elem: t}
	}
	return t
}

func (p *parser) primaryType() ast.Type {
	t := p.peek()
	switch t.kind {
	case tString, tNumber, tBigint:
		lit := p.primary().(*ast.Literal)
		return &ast.LiteralType{Range: lit.Range, Lit: lit}
	case tIdent:
		p.next()
		r := p.rangeOf(t.start, t.end)
		switch t.text {
		case "true", "false":
			return &ast.LiteralType{Range: r, Lit: &ast.Literal{Range: r, Kind: ast.LitBool, Value: t.text}}
		case "NaN":
			return &ast.LiteralType{Range: r, Lit: &ast.Literal{Range: r, Kind: ast.LitNumber, Value: t.text}}
		}
		return &ast.NamedType{Range: r, Name: t.text}
	case tPunct:
		switch t.text {
		case "-":
			lit, ok := p.unary().(*ast.Literal)
			if !ok {
				p.fail(t, "expected numeric literal type after '-'")
			}
			return &ast.LiteralType{Range: lit.Range, Lit: lit}
		case "(":
			p.next()
			inner := p.typ()
			p.expect(")")
			return inner
		case "{":
			return p.recordType()
		}
	}
	p.fail(t, "expected type, found %s", describe(t))
	return nil
}

func (p *parser) recordType() ast.Type {
	start := p.expect("{").start
	var fields []ast.Field
	for !p.is(tPunct, "}") {
		name := p.peek()
		if name.kind != tIdent && name.kind != tString {
			p.fail(name, "expected field name, found %s", describe(name))
		}
		p.next()
		optional := p.accept(tPunct, "?")
		p.expect(":")
		fieldType := p.typ()
		fields = append(fields, ast.Field{
			Range:    p.rangeOf(name.start, p.prevEnd()),
			Name:     name.text,
			Optional: optional,
			Type:     fieldType,
		})
		if !p.accept(tPunct, ";") && !p.accept(tPunct, ",") {
			break
		}
	}
	p.expect("}")
	return &ast.RecordType{Range: p.rangeOf(start, p.prevEnd()), Fields: fields}
}
