package program

import (
	"fmt"
	"go/token"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/parser"
	"github.com/cottand/narrow/frontend/types"
	"gopkg.in/yaml.v3"
)

// loader turns the YAML tree of a program description into a Program.
// Problems with the shape of the tree or the strings in it are reported
// as diagnostics, and the offending part is skipped
type loader struct {
	file *token.File
	prog *Program
	errs *ilerr.Errors
}

// pos is the position of the first character of the value of n. Quoted
// scalars start after their opening quote
func (l *loader) pos(n *yaml.Node) token.Pos {
	if n.Line < 1 || n.Line > l.file.LineCount() {
		return token.NoPos
	}
	p := l.file.LineStart(n.Line) + token.Pos(n.Column-1)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		p++
	}
	if int(p)-l.file.Base() > l.file.Size() {
		return token.NoPos
	}
	return p
}

func (l *loader) rangeOf(n *yaml.Node) ast.Range {
	p := l.pos(n)
	return ast.Range{PosStart: p, PosEnd: p}
}

func (l *loader) fail(n *yaml.Node, format string, args ...any) {
	l.errs = l.errs.With(ilerr.New(ilerr.NewParse{
		Positioner:    l.rangeOf(n),
		ParserMessage: fmt.Sprintf(format, args...),
	}))
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// isNull reports whether n is missing or empty. A null written out as
// "null" is kept, since null is also an expression and a type
func isNull(n *yaml.Node) bool {
	if n == nil || n.Kind == 0 {
		return true
	}
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" && (n.Value == "" || n.Value == "~")
}

// entry is a key of a mapping with its value
type entry struct {
	key   *yaml.Node
	value *yaml.Node
}

// mapping returns the entries of n in order, reporting keys not in allowed
func (l *loader) mapping(n *yaml.Node, what string, allowed ...string) ([]entry, bool) {
	n = resolve(n)
	if n == nil {
		return nil, false
	}
	if n.Kind != yaml.MappingNode {
		l.fail(n, "expected %s to be a mapping", what)
		return nil, false
	}
	entries := make([]entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		if allowed != nil && !slices.Contains(allowed, k.Value) {
			l.fail(k, "unknown key '%s' in %s", k.Value, what)
			continue
		}
		entries = append(entries, entry{key: k, value: v})
	}
	return entries, true
}

// fields is mapping indexed by key
func (l *loader) fields(n *yaml.Node, what string, allowed ...string) (map[string]*yaml.Node, bool) {
	entries, ok := l.mapping(n, what, allowed...)
	if !ok {
		return nil, false
	}
	byKey := make(map[string]*yaml.Node, len(entries))
	for _, e := range entries {
		byKey[e.key.Value] = e.value
	}
	return byKey, true
}

// required returns the value of key in fields, reporting at parent when
// it is missing
func (l *loader) required(parent *yaml.Node, fields map[string]*yaml.Node, key, what string) *yaml.Node {
	v := fields[key]
	if isNull(v) {
		l.fail(parent, "%s without '%s'", what, key)
		return nil
	}
	return v
}

func (l *loader) sequence(n *yaml.Node, what string) []*yaml.Node {
	n = resolve(n)
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		l.fail(n, "expected %s to be a list", what)
		return nil
	}
	return n.Content
}

func (l *loader) scalar(n *yaml.Node, what string) (string, bool) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		if n != nil {
			l.fail(n, "expected %s to be a string", what)
		}
		return "", false
	}
	return n.Value, true
}

func (l *loader) expr(n *yaml.Node, what string) (ast.Expr, bool) {
	src, ok := l.scalar(n, what)
	if !ok {
		return nil, false
	}
	e, err := parser.ParseExpr(src, l.pos(n))
	if err != nil {
		l.errs = l.errs.With(err)
		return nil, false
	}
	return e, true
}

func (l *loader) typ(n *yaml.Node, what string) (ast.Type, bool) {
	src, ok := l.scalar(n, what)
	if !ok {
		return nil, false
	}
	t, err := parser.ParseType(src, l.pos(n))
	if err != nil {
		l.errs = l.errs.With(err)
		return nil, false
	}
	return t, true
}

func (l *loader) convert(t ast.Type) types.Type {
	converted, errs := l.prog.Universe.FromAST(t)
	l.errs = l.errs.Merge(errs)
	return converted
}

var topLevelKeys = []string{"classes", "aliases", "predicates", "functions", "checks"}

func (l *loader) load(root *yaml.Node) {
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return
		}
		root = root.Content[0]
	}
	if isNull(root) {
		return
	}
	top, ok := l.fields(root, "program", topLevelKeys...)
	if !ok {
		return
	}
	classes := l.classes(top["classes"])
	if aliases := top["aliases"]; !isNull(aliases) {
		l.aliases(aliases)
	}
	for _, c := range classes {
		l.classFields(c)
	}
	if predicates := top["predicates"]; !isNull(predicates) {
		l.predicates(predicates)
	}
	for _, n := range l.sequence(top["functions"], "functions") {
		if fn, ok := l.function(n); ok {
			l.prog.Functions = append(l.prog.Functions, fn)
		}
	}
	for _, n := range l.sequence(top["checks"], "checks") {
		if c, ok := l.check(n); ok {
			l.prog.Checks = append(l.prog.Checks, c)
		}
	}
}

type pendingClass struct {
	class  *types.Class
	fields *yaml.Node
}

// classes declares every class before resolving their parents, so that
// classes can extend classes declared after them
func (l *loader) classes(n *yaml.Node) []pendingClass {
	type declared struct {
		pendingClass
		extends *yaml.Node
	}
	var all []declared
	for _, cn := range l.sequence(n, "classes") {
		fields, ok := l.fields(cn, "class", "name", "extends", "fields")
		if !ok {
			continue
		}
		name, ok := l.scalar(l.required(cn, fields, "name", "class"), "class name")
		if !ok {
			continue
		}
		c, ok := l.prog.Universe.DeclareClass(name, l.rangeOf(fields["name"]))
		if !ok {
			l.fail(fields["name"], "'%s' is already declared", name)
			continue
		}
		all = append(all, declared{pendingClass{c, fields["fields"]}, fields["extends"]})
	}
	pending := make([]pendingClass, 0, len(all))
	for _, d := range all {
		pending = append(pending, d.pendingClass)
		if isNull(d.extends) {
			continue
		}
		parent, ok := l.scalar(d.extends, "extends")
		if !ok {
			continue
		}
		if err := l.prog.Universe.SetParent(d.class, parent); err != nil {
			l.errs = l.errs.With(ilerr.New(ilerr.NewUnknownType{
				Positioner: l.rangeOf(d.extends),
				Name:       parent,
				Detail:     err.Error(),
			}))
		}
	}
	return pending
}

// classFields converts the fields of c. A field name ending in ? is optional
func (l *loader) classFields(c pendingClass) {
	if isNull(c.fields) {
		return
	}
	entries, ok := l.mapping(c.fields, "fields of "+c.class.Name)
	if !ok {
		return
	}
	for _, e := range entries {
		t, ok := l.typ(e.value, "field type")
		if !ok {
			continue
		}
		name, optional := strings.CutSuffix(e.key.Value, "?")
		c.class.Fields = append(c.class.Fields, types.Field{Name: name, Type: l.convert(t), Optional: optional})
	}
}

func (l *loader) aliases(n *yaml.Node) {
	entries, ok := l.mapping(n, "aliases")
	if !ok {
		return
	}
	for _, e := range entries {
		t, ok := l.typ(e.value, "alias")
		if !ok {
			continue
		}
		if !l.prog.Universe.DeclareAlias(e.key.Value, t) {
			l.fail(e.key, "'%s' is already declared", e.key.Value)
		}
	}
}

func (l *loader) predicates(n *yaml.Node) {
	entries, ok := l.mapping(n, "predicates")
	if !ok {
		return
	}
	for _, e := range entries {
		t, ok := l.typ(e.value, "predicate type")
		if !ok {
			continue
		}
		l.prog.Universe.DeclarePredicate(e.key.Value, l.convert(t))
	}
}

func (l *loader) function(n *yaml.Node) (*ast.Function, bool) {
	fields, ok := l.fields(n, "function", "name", "params", "body")
	if !ok {
		return nil, false
	}
	name, ok := l.scalar(l.required(n, fields, "name", "function"), "function name")
	if !ok {
		return nil, false
	}
	fn := &ast.Function{Range: l.rangeOf(n), Name: name}
	if params := fields["params"]; !isNull(params) {
		entries, _ := l.mapping(params, "params")
		for _, e := range entries {
			t, ok := l.typ(e.value, "parameter type")
			if !ok {
				t = &ast.NamedType{Range: l.rangeOf(e.value), Name: "any"}
			}
			fn.Params = append(fn.Params, ast.Param{Range: l.rangeOf(e.key), Name: e.key.Value, Type: t})
		}
	}
	fn.Body = l.stmts(fields["body"], "body")
	if len(fn.Body) > 0 {
		fn.Range = ast.RangeBetween(fn.Range, fn.Body[len(fn.Body)-1])
	}
	return fn, true
}

func (l *loader) check(n *yaml.Node) (*Check, bool) {
	fields, ok := l.fields(n, "check", "type", "guard", "witnesses")
	if !ok {
		return nil, false
	}
	t, typeOk := l.typ(l.required(n, fields, "type", "check"), "check type")
	g, guardOk := l.expr(l.required(n, fields, "guard", "check"), "check guard")
	if !typeOk || !guardOk {
		return nil, false
	}
	c := &Check{Range: l.rangeOf(n), Type: t, Guard: g}
	for _, w := range l.sequence(fields["witnesses"], "witnesses") {
		src, ok := l.scalar(w, "witness")
		if !ok {
			continue
		}
		c.Witnesses = append(c.Witnesses, Witness{Range: l.rangeOf(w), Src: src})
	}
	return c, true
}
