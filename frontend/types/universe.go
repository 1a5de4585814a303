package types

import (
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/hashicorp/go-set/v3"
)

// Universe holds the named types visible to a program: classes,
// type aliases and type predicates
type Universe struct {
	classes    *immutable.SortedMap[string, *Class]
	predicates *immutable.SortedMap[string, Type]

	aliases   map[string]ast.Type
	resolved  map[string]Type
	resolving *set.Set[string]
}

// NewUniverse returns a Universe with the builtin classes declared
func NewUniverse() *Universe {
	u := &Universe{
		classes:    immutable.NewSortedMap[string, *Class](nil),
		predicates: immutable.NewSortedMap[string, Type](nil),
		aliases:    make(map[string]ast.Type),
		resolved:   make(map[string]Type),
		resolving:  set.New[string](0),
	}
	for _, c := range newBuiltinClasses() {
		u.classes = u.classes.Set(c.Name, c)
	}
	return u
}

// ObjectClass is the root of every class hierarchy
func (u *Universe) ObjectClass() *Class {
	c, _ := u.classes.Get("Object")
	return c
}

// DeclareClass adds a class extending Object. It returns false when a
// class or type of that name already exists
func (u *Universe) DeclareClass(name string, r ast.Range) (*Class, bool) {
	if _, exists := u.classes.Get(name); exists || isBuiltinTypeName(name) {
		return nil, false
	}
	if _, exists := u.aliases[name]; exists {
		return nil, false
	}
	c := &Class{Name: name, Parent: u.ObjectClass(), Range: r}
	u.classes = u.classes.Set(name, c)
	return c, true
}

// SetParent makes c extend the class called parent
func (u *Universe) SetParent(c *Class, parent string) error {
	p, ok := u.Class(parent)
	if !ok {
		return fmt.Errorf("class %s extends unknown class %s", c.Name, parent)
	}
	if p.Extends(c) {
		return fmt.Errorf("class %s cannot extend %s: inheritance cycle", c.Name, parent)
	}
	c.Parent = p
	return nil
}

func (u *Universe) Class(name string) (*Class, bool) {
	return u.classes.Get(name)
}

// Classes returns every class, sorted by name
func (u *Universe) Classes() []*Class {
	classes := make([]*Class, 0, u.classes.Len())
	itr := u.classes.Iterator()
	for !itr.Done() {
		_, c, _ := itr.Next()
		classes = append(classes, c)
	}
	return classes
}

// DeclareAlias registers a type alias, resolved lazily on first use
func (u *Universe) DeclareAlias(name string, t ast.Type) bool {
	if _, exists := u.classes.Get(name); exists || isBuiltinTypeName(name) {
		return false
	}
	if _, exists := u.aliases[name]; exists {
		return false
	}
	u.aliases[name] = t
	return true
}

// DeclarePredicate registers a type predicate function: name(x) narrows x to t
func (u *Universe) DeclarePredicate(name string, t Type) {
	u.predicates = u.predicates.Set(name, t)
}

func (u *Universe) Predicate(name string) (Type, bool) {
	return u.predicates.Get(name)
}

func isBuiltinTypeName(name string) bool {
	_, ok := builtinTypeNames[name]
	return ok
}

var builtinTypeNames = map[string]Type{
	"string":    String,
	"number":    Number,
	"bigint":    Bigint,
	"boolean":   Boolean,
	"symbol":    Symbol,
	"object":    Object,
	"null":      Null,
	"undefined": Undefined,
	"void":      Undefined,
	"never":     Never,
	"any":       Any,
	"unknown":   Any,
	"Function":  Function,
}

// Named resolves a type name to a builtin, an alias or a class instance
func (u *Universe) Named(name string, pos ast.Positioner) (Type, *ilerr.Errors) {
	if t, ok := builtinTypeNames[name]; ok {
		return t, nil
	}
	if t, ok := u.resolved[name]; ok {
		return t, nil
	}
	if node, ok := u.aliases[name]; ok {
		if u.resolving.Contains(name) {
			return Any, new(ilerr.Errors).With(ilerr.New(ilerr.NewUnknownType{
				Positioner: ast.RangeOf(pos),
				Name:       name,
				Detail:     "alias refers to itself",
			}))
		}
		u.resolving.Insert(name)
		t, errs := u.FromAST(node)
		u.resolving.Remove(name)
		u.resolved[name] = t
		return t, errs
	}
	if c, ok := u.classes.Get(name); ok {
		return InstanceOf(c), nil
	}
	return Any, new(ilerr.Errors).With(ilerr.New(ilerr.NewUnknownType{
		Positioner: ast.RangeOf(pos),
		Name:       name,
	}))
}

// FromAST converts a type written in the source. Unknown names are
// reported and converted to any
func (u *Universe) FromAST(t ast.Type) (Type, *ilerr.Errors) {
	switch t := t.(type) {
	case *ast.NamedType:
		return u.Named(t.Name, t)
	case *ast.LiteralType:
		lit, ok := FromLiteral(t.Lit)
		if !ok {
			return Any, new(ilerr.Errors).With(ilerr.New(ilerr.NewUnknownType{
				Positioner: t.Range,
				Name:       t.Lit.String(),
				Detail:     "invalid literal",
			}))
		}
		return lit, nil
	case *ast.RecordType:
		var errs *ilerr.Errors
		fields := make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			fieldType, fieldErrs := u.FromAST(f.Type)
			errs = errs.Merge(fieldErrs)
			fields[i] = Field{Name: f.Name, Type: fieldType, Optional: f.Optional}
		}
		return NewRecord(fields...), errs
	case *ast.ArrayType:
		elem, errs := u.FromAST(t.Elem)
		return NewArray(elem), errs
	case *ast.UnionType:
		left, errs := u.FromAST(t.Left)
		right, rightErrs := u.FromAST(t.Right)
		return Union(left, right), errs.Merge(rightErrs)
	case *ast.IntersectionType:
		left, errs := u.FromAST(t.Left)
		right, rightErrs := u.FromAST(t.Right)
		return Intersect(left, right), errs.Merge(rightErrs)
	case nil:
		return Any, nil
	}
	panic(fmt.Sprintf("unexpected ast.Type %T", t))
}

// FromLiteral returns the literal type of a literal expression
func FromLiteral(lit *ast.Literal) (Type, bool) {
	switch lit.Kind {
	case ast.LitString:
		return StringLit(lit.Value), true
	case ast.LitNumber:
		f, ok := parseNumber(lit.Value)
		if !ok {
			return Never, false
		}
		return NumberLit(f), true
	case ast.LitBigint:
		return BigintLit(lit.Value)
	case ast.LitBool:
		return BoolLit(lit.Value == "true"), true
	case ast.LitNull:
		return Null, true
	case ast.LitUndefined:
		return Undefined, true
	}
	return Never, false
}
