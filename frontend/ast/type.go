package ast

import (
	"strings"
)

var (
	_ Type = (*NamedType)(nil)
	_ Type = (*LiteralType)(nil)
	_ Type = (*RecordType)(nil)
	_ Type = (*ArrayType)(nil)
	_ Type = (*UnionType)(nil)
	_ Type = (*IntersectionType)(nil)
)

// NamedType refers to a primitive, a class or an alias by name
type NamedType struct {
	Range
	Name string
}

func (t *NamedType) typeNode()      {}
func (t *NamedType) String() string { return t.Name }

type LiteralType struct {
	Range
	Lit *Literal
}

func (t *LiteralType) typeNode()      {}
func (t *LiteralType) String() string { return t.Lit.String() }

type Field struct {
	Range
	Name     string
	Optional bool
	Type     Type
}

type RecordType struct {
	Range
	Fields []Field
}

func (t *RecordType) typeNode() {}
func (t *RecordType) String() string {
	sb := strings.Builder{}
	sb.WriteString("{")
	for i, f := range t.Fields {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(f.Name)
		if f.Optional {
			sb.WriteString("?")
		}
		sb.WriteString(": ")
		sb.WriteString(f.Type.String())
	}
	sb.WriteString("}")
	return sb.String()
}

type ArrayType struct {
	Range
	Elem Type
}

func (t *ArrayType) typeNode() {}
func (t *ArrayType) String() string {
	switch t.Elem.(type) {
	case *UnionType, *IntersectionType:
		return "(" + t.Elem.String() + ")[]"
	}
	return t.Elem.String() + "[]"
}

type UnionType struct {
	Range
	Left, Right Type
}

func (t *UnionType) typeNode()      {}
func (t *UnionType) String() string { return t.Left.String() + " | " + t.Right.String() }

type IntersectionType struct {
	Range
	Left, Right Type
}

func (t *IntersectionType) typeNode()      {}
func (t *IntersectionType) String() string { return t.Left.String() + " & " + t.Right.String() }
