package ast

import (
	"strconv"
	"strings"
)

// All expression types implement the Expr interface

// Ident represents a variable name.
type Ident struct {
	Range
	Name string
}

func (e *Ident) exprNode()      {}
func (e *Ident) String() string { return e.Name }

// Member represents a property access, like shape.kind
type Member struct {
	Range
	X    Expr
	Name string
}

func (e *Member) exprNode()      {}
func (e *Member) String() string { return e.X.String() + "." + e.Name }

type LitKind int

const (
	LitString LitKind = iota
	LitNumber
	LitBigint
	LitBool
	LitNull
	LitUndefined
)

// Literal represents a literal value. Value holds the unquoted source
// text: hello for "hello", 1.5 for 1.5, 10 for 10n, true, null...
type Literal struct {
	Range
	Kind  LitKind
	Value string
}

func (e *Literal) exprNode() {}
func (e *Literal) String() string {
	switch e.Kind {
	case LitString:
		return strconv.Quote(e.Value)
	case LitBigint:
		return e.Value + "n"
	}
	return e.Value
}

// Typeof represents the typeof operator applied to X
type Typeof struct {
	Range
	X Expr
}

func (e *Typeof) exprNode()      {}
func (e *Typeof) String() string { return "typeof " + e.X.String() }

type UnaryOp int

const (
	Not UnaryOp = iota
	Neg
)

type Unary struct {
	Range
	Op UnaryOp
	X  Expr
}

func (e *Unary) exprNode() {}
func (e *Unary) String() string {
	if e.Op == Neg {
		return "-" + e.X.String()
	}
	return "!" + e.X.String()
}

type BinaryOp int

const (
	StrictEq BinaryOp = iota
	StrictNeq
	LooseEq
	LooseNeq
	And
	Or
	In
	Instanceof
	Less
	LessEq
	Greater
	GreaterEq
	Add
	Sub
)

var binaryOpNames = [...]string{
	StrictEq:   "===",
	StrictNeq:  "!==",
	LooseEq:    "==",
	LooseNeq:   "!=",
	And:        "&&",
	Or:         "||",
	In:         "in",
	Instanceof: "instanceof",
	Less:       "<",
	LessEq:     "<=",
	Greater:    ">",
	GreaterEq:  ">=",
	Add:        "+",
	Sub:        "-",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsEquality reports whether op is one of === !== == !=
func (op BinaryOp) IsEquality() bool {
	return op == StrictEq || op == StrictNeq || op == LooseEq || op == LooseNeq
}

type Binary struct {
	Range
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *Binary) exprNode() {}
func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// Call represents a function application, like isFish(pet)
type Call struct {
	Range
	Fun  Expr
	Args []Expr
}

func (e *Call) exprNode() {}
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Fun.String() + "(" + strings.Join(args, ", ") + ")"
}

// Ternary represents Cond ? Then : Else
type Ternary struct {
	Range
	Cond Expr
	Then Expr
	Else Expr
}

func (e *Ternary) exprNode() {}
func (e *Ternary) String() string {
	return "(" + e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() + ")"
}

// TypedValue stands for an opaque value of the given type, used where a
// program description only cares about the type of what is produced
type TypedValue struct {
	Range
	Type Type
}

func (e *TypedValue) exprNode()      {}
func (e *TypedValue) String() string { return "<" + e.Type.String() + ">" }

// RefPath returns the dotted path of references made of identifiers and
// member accesses, like "s" or "s.kind"
func RefPath(e Expr) (string, bool) {
	switch e := e.(type) {
	case *Ident:
		return e.Name, true
	case *Member:
		base, ok := RefPath(e.X)
		if !ok {
			return "", false
		}
		return base + "." + e.Name, true
	}
	return "", false
}
