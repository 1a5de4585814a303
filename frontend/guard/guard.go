// Package guard defines the runtime checks that narrow the type of a
// reference, and recognises them in condition expressions.
package guard

import (
	"fmt"
	"strconv"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/types"
)

// Guard is a check on a single reference, its Subject
type Guard interface {
	ast.Positioner
	// Subject is the reference narrowed by the guard, like x or s.shape
	Subject() string
	String() string
	guardNode()
}

var (
	_ Guard = (*TypeofGuard)(nil)
	_ Guard = (*TruthinessGuard)(nil)
	_ Guard = (*EqualityGuard)(nil)
	_ Guard = (*InGuard)(nil)
	_ Guard = (*InstanceofGuard)(nil)
	_ Guard = (*DiscriminantGuard)(nil)
	_ Guard = (*PredicateGuard)(nil)
	_ Guard = (*SameValueGuard)(nil)
)

// TypeofGuard is typeof Ref === "Tag"
type TypeofGuard struct {
	ast.Range
	Ref string
	Tag types.Tag
}

func (g *TypeofGuard) guardNode()      {}
func (g *TypeofGuard) Subject() string { return g.Ref }
func (g *TypeofGuard) String() string {
	return fmt.Sprintf("typeof %s === %s", g.Ref, strconv.Quote(types.TypeofName(g.Tag)))
}

// TruthinessGuard is the implicit conversion of Ref to a boolean, as in if (x)
type TruthinessGuard struct {
	ast.Range
	Ref string
}

func (g *TruthinessGuard) guardNode()      {}
func (g *TruthinessGuard) Subject() string { return g.Ref }
func (g *TruthinessGuard) String() string  { return g.Ref }

func eqOp(strict bool) string {
	if strict {
		return "==="
	}
	return "=="
}

// EqualityGuard compares Ref with a literal. Value holds a single
// literal, null or undefined
type EqualityGuard struct {
	ast.Range
	Ref    string
	Value  types.Type
	Strict bool
}

func (g *EqualityGuard) guardNode()      {}
func (g *EqualityGuard) Subject() string { return g.Ref }
func (g *EqualityGuard) String() string {
	return fmt.Sprintf("%s %s %v", g.Ref, eqOp(g.Strict), g.Value)
}

// InGuard is "Prop" in Ref
type InGuard struct {
	ast.Range
	Ref  string
	Prop string
}

func (g *InGuard) guardNode()      {}
func (g *InGuard) Subject() string { return g.Ref }
func (g *InGuard) String() string  { return fmt.Sprintf("%s in %s", strconv.Quote(g.Prop), g.Ref) }

type InstanceofGuard struct {
	ast.Range
	Ref   string
	Class *types.Class
}

func (g *InstanceofGuard) guardNode()      {}
func (g *InstanceofGuard) Subject() string { return g.Ref }
func (g *InstanceofGuard) String() string {
	return fmt.Sprintf("%s instanceof %s", g.Ref, g.Class.Name)
}

// DiscriminantGuard compares the property Prop of Ref with a literal, as
// in shape.kind === "circle"
type DiscriminantGuard struct {
	ast.Range
	Ref    string
	Prop   string
	Value  types.Type
	Strict bool
}

func (g *DiscriminantGuard) guardNode()      {}
func (g *DiscriminantGuard) Subject() string { return g.Ref }

// Path is the reference to the compared property
func (g *DiscriminantGuard) Path() string { return g.Ref + "." + g.Prop }
func (g *DiscriminantGuard) String() string {
	return fmt.Sprintf("%s %s %v", g.Path(), eqOp(g.Strict), g.Value)
}

// AsEquality is the same comparison seen as a guard on the property itself
func (g *DiscriminantGuard) AsEquality() *EqualityGuard {
	return &EqualityGuard{Range: g.Range, Ref: g.Path(), Value: g.Value, Strict: g.Strict}
}

// PredicateGuard is a call to a user-defined type predicate, like
// isFish(pet) where isFish returns pet is Fish
type PredicateGuard struct {
	ast.Range
	Ref  string
	Name string
	Type types.Type
}

func (g *PredicateGuard) guardNode()      {}
func (g *PredicateGuard) Subject() string { return g.Ref }
func (g *PredicateGuard) String() string  { return fmt.Sprintf("%s(%s)", g.Name, g.Ref) }

// SameValueGuard compares two references. OtherType is the type of Other
// at the point of the comparison, filled in before narrowing
type SameValueGuard struct {
	ast.Range
	Ref       string
	Other     string
	OtherType types.Type
	Strict    bool
}

func (g *SameValueGuard) guardNode()      {}
func (g *SameValueGuard) Subject() string { return g.Ref }
func (g *SameValueGuard) String() string {
	return fmt.Sprintf("%s %s %s", g.Ref, eqOp(g.Strict), g.Other)
}

// WithOtherType returns a copy of g comparing against a value of type t
func (g *SameValueGuard) WithOtherType(t types.Type) *SameValueGuard {
	cp := *g
	cp.OtherType = t
	return &cp
}

// Flipped is the same comparison, narrowing Other instead of Ref
func (g *SameValueGuard) Flipped(refType types.Type) *SameValueGuard {
	return &SameValueGuard{Range: g.Range, Ref: g.Other, Other: g.Ref, OtherType: refType, Strict: g.Strict}
}
