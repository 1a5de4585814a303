package guard

import (
	"github.com/cottand/narrow/frontend/ast"
	"github.com/hashicorp/go-set/v3"
)

// Cond is a branch condition: guards combined with !, && and ||
type Cond interface {
	ast.Positioner
	String() string
	condNode()
}

var (
	_ Cond = (*Test)(nil)
	_ Cond = (*Not)(nil)
	_ Cond = (*And)(nil)
	_ Cond = (*Or)(nil)
	_ Cond = (*Const)(nil)
	_ Cond = (*Opaque)(nil)
)

type Test struct {
	Guard
}

func (c *Test) condNode() {}

type Not struct {
	ast.Range
	X Cond
}

func (c *Not) condNode()      {}
func (c *Not) String() string { return "!(" + c.X.String() + ")" }

type And struct {
	ast.Range
	X, Y Cond
}

func (c *And) condNode()      {}
func (c *And) String() string { return "(" + c.X.String() + " && " + c.Y.String() + ")" }

type Or struct {
	ast.Range
	X, Y Cond
}

func (c *Or) condNode()      {}
func (c *Or) String() string { return "(" + c.X.String() + " || " + c.Y.String() + ")" }

// Const is a condition whose outcome is known statically, like while (true)
type Const struct {
	ast.Range
	Value bool
}

func (c *Const) condNode() {}
func (c *Const) String() string {
	if c.Value {
		return "true"
	}
	return "false"
}

// Opaque is a condition that narrows nothing, like Math.random() < 0.5
type Opaque struct {
	ast.Range
	Expr ast.Expr
}

func (c *Opaque) condNode() {}
func (c *Opaque) String() string {
	if c.Expr == nil {
		return "<opaque>"
	}
	return c.Expr.String()
}

// Subjects returns the references narrowed by c
func Subjects(c Cond) *set.Set[string] {
	subjects := set.New[string](1)
	var walk func(Cond)
	walk = func(c Cond) {
		switch c := c.(type) {
		case *Test:
			subjects.Insert(c.Subject())
			if same, ok := c.Guard.(*SameValueGuard); ok {
				subjects.Insert(same.Other)
			}
		case *Not:
			walk(c.X)
		case *And:
			walk(c.X)
			walk(c.Y)
		case *Or:
			walk(c.X)
			walk(c.Y)
		}
	}
	walk(c)
	return subjects
}

// Single returns the guard of c when c is a single, possibly negated,
// guard. negated is whether it is negated an odd number of times
func Single(c Cond) (g Guard, negated bool, ok bool) {
	for {
		not, isNot := c.(*Not)
		if !isNot {
			break
		}
		c, negated = not.X, !negated
	}
	test, ok := c.(*Test)
	if !ok {
		return nil, false, false
	}
	return test.Guard, negated, true
}
