package ast

import (
	"strings"
)

// Let declares a variable. Type is nil when the declaration is not
// annotated, and Init is nil when the variable is declared uninitialised
type Let struct {
	Range
	Name  string
	Type  Type
	Init  Expr
	Const bool
}

func (s *Let) stmtNode() {}
func (s *Let) String() string {
	sb := strings.Builder{}
	if s.Const {
		sb.WriteString("const ")
	} else {
		sb.WriteString("let ")
	}
	sb.WriteString(s.Name)
	if s.Type != nil {
		sb.WriteString(": " + s.Type.String())
	}
	if s.Init != nil {
		sb.WriteString(" = " + s.Init.String())
	}
	return sb.String()
}

type Assign struct {
	Range
	Name  string
	Value Expr
}

func (s *Assign) stmtNode()      {}
func (s *Assign) String() string { return s.Name + " = " + s.Value.String() }

// Access reads X for its side effect of requiring X to exist, like
// calling a method on a narrowed variable
type Access struct {
	Range
	X Expr
}

func (s *Access) stmtNode()      {}
func (s *Access) String() string { return s.X.String() }

// Assert models a call to an assertion function: Cond holds afterwards
type Assert struct {
	Range
	Cond Expr
}

func (s *Assert) stmtNode()      {}
func (s *Assert) String() string { return "assert(" + s.Cond.String() + ")" }

// Probe records the type of X at this point. Expect is optional
type Probe struct {
	Range
	X      Expr
	Expect Type
}

func (s *Probe) stmtNode() {}
func (s *Probe) String() string {
	if s.Expect != nil {
		return "probe " + s.X.String() + ": " + s.Expect.String()
	}
	return "probe " + s.X.String()
}

type If struct {
	Range
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (s *If) stmtNode()      {}
func (s *If) String() string { return "if " + s.Cond.String() }

type While struct {
	Range
	Cond Expr
	Body []Stmt
}

func (s *While) stmtNode()      {}
func (s *While) String() string { return "while " + s.Cond.String() }

// Case is a clause of a Switch. Default cases have no Values
type Case struct {
	Range
	Values  []Expr
	Default bool
	Body    []Stmt
}

type Switch struct {
	Range
	Subject Expr
	Cases   []Case
}

func (s *Switch) stmtNode()      {}
func (s *Switch) String() string { return "switch " + s.Subject.String() }

type Return struct {
	Range
	Value Expr
}

func (s *Return) stmtNode() {}
func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

type Throw struct {
	Range
	Value Expr
}

func (s *Throw) stmtNode() {}
func (s *Throw) String() string {
	if s.Value == nil {
		return "throw"
	}
	return "throw " + s.Value.String()
}

type Break struct {
	Range
}

func (s *Break) stmtNode()      {}
func (s *Break) String() string { return "break" }

type Continue struct {
	Range
}

func (s *Continue) stmtNode()      {}
func (s *Continue) String() string { return "continue" }

type Param struct {
	Range
	Name string
	Type Type
}

// Function is the unit of analysis: a list of typed parameters and a body
type Function struct {
	Range
	Name   string
	Params []Param
	Body   []Stmt
}

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name + ": " + p.Type.String()
	}
	return "function " + f.Name + "(" + strings.Join(params, ", ") + ")"
}
