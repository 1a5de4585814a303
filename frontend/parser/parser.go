// Package parser turns the condition, value and type strings found in
// program descriptions into frontend/ast nodes.
package parser

import (
	"fmt"
	"go/token"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
)

type parser struct {
	toks []lexToken
	i    int
	base token.Pos
}

// bailout is used to unwind the recursive descent on the first error
type bailout struct {
	err ilerr.IleError
}

// ParseExpr parses a condition or value expression. Positions of the
// resulting nodes are offsets of src added to base, so base should be the
// token.Pos of the first character of src, or token.NoPos
func ParseExpr(src string, base token.Pos) (expr ast.Expr, err ilerr.IleError) {
	p, err := newParser(src, base)
	if err != nil {
		return nil, err
	}
	defer p.recover(&err)
	expr = p.expr()
	p.expectEOF()
	return expr, nil
}

// ParseType parses a type expression like `string | {kind: "a"; n?: number}`
func ParseType(src string, base token.Pos) (typ ast.Type, err ilerr.IleError) {
	p, err := newParser(src, base)
	if err != nil {
		return nil, err
	}
	defer p.recover(&err)
	typ = p.typ()
	p.expectEOF()
	return typ, nil
}

func newParser(src string, base token.Pos) (*parser, ilerr.IleError) {
	p := &parser{base: base}
	toks, lexErr := lex(src)
	if lexErr != nil {
		return nil, ilerr.New(ilerr.NewParse{
			Positioner:    p.rangeOf(lexErr.start, lexErr.end),
			ParserMessage: lexErr.msg,
		})
	}
	p.toks = toks
	return p, nil
}

func (p *parser) recover(err *ilerr.IleError) {
	r := recover()
	if r == nil {
		return
	}
	b, ok := r.(bailout)
	if !ok {
		panic(r)
	}
	*err = b.err
}

func (p *parser) rangeOf(start, end int) ast.Range {
	if !p.base.IsValid() {
		return ast.Range{}
	}
	return ast.Range{PosStart: p.base + token.Pos(start), PosEnd: p.base + token.Pos(end)}
}

func (p *parser) peek() lexToken { return p.toks[p.i] }

func (p *parser) next() lexToken {
	t := p.toks[p.i]
	if t.kind != tEOF {
		p.i++
	}
	return t
}

// prevEnd is the end offset of the last consumed token
func (p *parser) prevEnd() int {
	if p.i == 0 {
		return 0
	}
	return p.toks[p.i-1].end
}

func (p *parser) is(kind tokenKind, text string) bool {
	t := p.peek()
	return t.kind == kind && t.text == text
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if p.is(kind, text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) fail(t lexToken, format string, args ...any) {
	panic(bailout{ilerr.New(ilerr.NewParse{
		Positioner:    p.rangeOf(t.start, t.end),
		ParserMessage: fmt.Sprintf(format, args...),
	})})
}

func (p *parser) expect(text string) lexToken {
	t := p.peek()
	if t.kind != tPunct || t.text != text {
		p.fail(t, "expected '%s', found %s", text, describe(t))
	}
	return p.next()
}

func (p *parser) expectIdent() lexToken {
	t := p.peek()
	if t.kind != tIdent {
		p.fail(t, "expected identifier, found %s", describe(t))
	}
	return p.next()
}

func (p *parser) expectEOF() {
	if t := p.peek(); t.kind != tEOF {
		p.fail(t, "unexpected %s after end of expression", describe(t))
	}
}

func describe(t lexToken) string {
	switch t.kind {
	case tEOF:
		return t.kind.String()
	case tString:
		return fmt.Sprintf("string %q", t.text)
	}
	return fmt.Sprintf("'%s'", t.text)
}
