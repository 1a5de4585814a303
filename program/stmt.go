package program

import (
	"github.com/cottand/narrow/frontend/ast"
	"gopkg.in/yaml.v3"
)

// statement keys, with the keys allowed next to each of them
var stmtKeys = map[string][]string{
	"let":    {"let", "type", "init"},
	"const":  {"const", "type", "init"},
	"assign": {"assign", "value"},
	"access": {"access"},
	"assert": {"assert"},
	"probe":  {"probe", "expect"},
	"if":     {"if", "then", "else"},
	"while":  {"while", "do"},
	"switch": {"switch", "cases"},
	"return": {"return"},
	"throw":  {"throw"},
}

func (l *loader) stmts(n *yaml.Node, what string) []ast.Stmt {
	var stmts []ast.Stmt
	for _, sn := range l.sequence(n, what) {
		if s, ok := l.stmt(resolve(sn)); ok {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (l *loader) stmt(n *yaml.Node) (ast.Stmt, bool) {
	if n.Kind == yaml.ScalarNode {
		r := l.rangeOf(n)
		switch n.Value {
		case "break":
			return &ast.Break{Range: r}, true
		case "continue":
			return &ast.Continue{Range: r}, true
		case "return":
			return &ast.Return{Range: r}, true
		case "throw":
			return &ast.Throw{Range: r}, true
		}
		l.fail(n, "unknown statement '%s'", n.Value)
		return nil, false
	}
	if n.Kind != yaml.MappingNode || len(n.Content) == 0 {
		l.fail(n, "expected a statement")
		return nil, false
	}
	head := n.Content[0]
	allowed, ok := stmtKeys[head.Value]
	if !ok {
		l.fail(head, "unknown statement '%s'", head.Value)
		return nil, false
	}
	fields, ok := l.fields(n, head.Value+" statement", allowed...)
	if !ok {
		return nil, false
	}
	r := l.rangeOf(head)
	value := fields[head.Value]

	switch head.Value {
	case "let", "const":
		name, ok := l.scalar(value, "variable name")
		if !ok {
			return nil, false
		}
		s := &ast.Let{Range: r, Name: name, Const: head.Value == "const"}
		if t := fields["type"]; !isNull(t) {
			if s.Type, ok = l.typ(t, "variable type"); !ok {
				return nil, false
			}
		}
		if init := fields["init"]; !isNull(init) {
			if s.Init, ok = l.expr(init, "initialiser"); !ok {
				return nil, false
			}
		}
		return s, true
	case "assign":
		name, ok := l.scalar(value, "variable name")
		if !ok {
			return nil, false
		}
		e, ok := l.expr(l.required(n, fields, "value", "assignment"), "assigned value")
		if !ok {
			return nil, false
		}
		return &ast.Assign{Range: r, Name: name, Value: e}, true
	case "access":
		e, ok := l.expr(value, "accessed expression")
		if !ok {
			return nil, false
		}
		return &ast.Access{Range: ast.RangeOf(e), X: e}, true
	case "assert":
		e, ok := l.expr(value, "assertion")
		if !ok {
			return nil, false
		}
		return &ast.Assert{Range: ast.RangeOf(e), Cond: e}, true
	case "probe":
		e, ok := l.expr(value, "probed expression")
		if !ok {
			return nil, false
		}
		s := &ast.Probe{Range: ast.RangeOf(e), X: e}
		if expect := fields["expect"]; !isNull(expect) {
			if s.Expect, ok = l.typ(expect, "expected type"); !ok {
				return nil, false
			}
		}
		return s, true
	case "if":
		cond, ok := l.expr(value, "condition")
		if !ok {
			return nil, false
		}
		return &ast.If{
			Range: r,
			Cond:  cond,
			Then:  l.stmts(fields["then"], "then"),
			Else:  l.stmts(fields["else"], "else"),
		}, true
	case "while":
		cond, ok := l.expr(value, "condition")
		if !ok {
			return nil, false
		}
		return &ast.While{Range: r, Cond: cond, Body: l.stmts(fields["do"], "loop body")}, true
	case "switch":
		subject, ok := l.expr(value, "switch subject")
		if !ok {
			return nil, false
		}
		s := &ast.Switch{Range: r, Subject: subject}
		for _, cn := range l.sequence(fields["cases"], "cases") {
			if c, ok := l.switchCase(cn); ok {
				s.Cases = append(s.Cases, c)
			}
		}
		return s, true
	case "return", "throw":
		var e ast.Expr
		if !isNull(value) {
			if e, ok = l.expr(value, head.Value+" value"); !ok {
				return nil, false
			}
		}
		if head.Value == "return" {
			return &ast.Return{Range: r, Value: e}, true
		}
		return &ast.Throw{Range: r, Value: e}, true
	}
	return nil, false
}

// switchCase is either {case: value, do: [...]}, with value possibly a list
// of values sharing a body, or {default: [...]}
func (l *loader) switchCase(n *yaml.Node) (ast.Case, bool) {
	fields, ok := l.fields(n, "case", "case", "do", "default")
	if !ok {
		return ast.Case{}, false
	}
	n = resolve(n)
	r := l.rangeOf(n)
	if def, ok := fields["default"]; ok {
		return ast.Case{Range: r, Default: true, Body: l.stmts(def, "default")}, true
	}
	values := fields["case"]
	if values == nil {
		l.fail(n, "case without a value")
		return ast.Case{}, false
	}
	c := ast.Case{Range: r, Body: l.stmts(fields["do"], "case body")}
	valueNodes := []*yaml.Node{values}
	if values.Kind == yaml.SequenceNode {
		valueNodes = values.Content
	}
	for _, vn := range valueNodes {
		if e, ok := l.expr(vn, "case value"); ok {
			c.Values = append(c.Values, e)
		}
	}
	return c, len(c.Values) > 0
}
