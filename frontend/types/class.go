package types

import (
	"cmp"
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/narrow/frontend/ast"
)

// Class is a nominal type with single inheritance. Every class but the
// root Object class has a Parent
type Class struct {
	Name   string
	Parent *Class
	// Fields are the fields declared by this class, not the inherited ones
	Fields []Field
	Range  ast.Range

	builtin bool
}

// maxClassDepth bounds walks up the class chain, so that a malformed
// chain cannot loop forever
const maxClassDepth = 1 << 10

// Extends reports whether c is other or one of its subclasses. Class
// names are unique within a Universe
func (c *Class) Extends(other *Class) bool {
	return other != nil && c.Ancestors().Has(other.Name)
}

// IsObjectRoot reports whether c is the builtin Object class
func (c *Class) IsObjectRoot() bool {
	return c.builtin && c.Name == "Object"
}

// Builtin reports whether c is predeclared
func (c *Class) Builtin() bool { return c.builtin }

// Ancestors returns the names of the classes c extends, including itself
func (c *Class) Ancestors() immutable.SortedSet[string] {
	names := immutable.NewSortedSet[string](nil)
	depth := 0
	for cur := c; cur != nil && depth < maxClassDepth; cur = cur.Parent {
		names = names.Add(cur.Name)
		depth++
	}
	return names
}

// AllFields returns the fields of c including the inherited ones, sorted
// by name. Fields redeclared by a subclass shadow the parent's
func (c *Class) AllFields() []Field {
	var chain []*Class
	depth := 0
	for cur := c; cur != nil && depth < maxClassDepth; cur = cur.Parent {
		chain = append(chain, cur)
		depth++
	}
	byName := immutable.NewSortedMap[string, Field](nil)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			byName = byName.Set(f.Name, f)
		}
	}
	fields := make([]Field, 0, byName.Len())
	itr := byName.Iterator()
	for !itr.Done() {
		_, f, _ := itr.Next()
		fields = append(fields, f)
	}
	return fields
}

func (c *Class) String() string { return c.Name }

func sortFields(fields []Field) []Field {
	sorted := slices.Clone(fields)
	slices.SortFunc(sorted, func(a, b Field) int { return cmp.Compare(a.Name, b.Name) })
	return sorted
}

func builtinClass(name string, parent *Class, fields ...Field) *Class {
	return &Class{Name: name, Parent: parent, Fields: sortFields(fields), builtin: true}
}

func method(name string) Field {
	return Field{Name: name, Type: Function}
}

func newBuiltinClasses() []*Class {
	object := builtinClass("Object", nil)
	errorClass := builtinClass("Error", object,
		Field{Name: "message", Type: String},
		Field{Name: "name", Type: String},
		Field{Name: "stack", Type: String, Optional: true},
	)
	return []*Class{
		object,
		errorClass,
		builtinClass("TypeError", errorClass),
		builtinClass("RangeError", errorClass),
		builtinClass("Date", object, method("getTime"), method("toISOString")),
		builtinClass("RegExp", object,
			Field{Name: "source", Type: String},
			Field{Name: "flags", Type: String},
			method("test"), method("exec"),
		),
		builtinClass("Map", object, Field{Name: "size", Type: Number}, method("get"), method("set"), method("has"), method("delete")),
		builtinClass("Set", object, Field{Name: "size", Type: Number}, method("add"), method("has"), method("delete")),
		builtinClass("Promise", object, method("then"), method("catch"), method("finally")),
	}
}
