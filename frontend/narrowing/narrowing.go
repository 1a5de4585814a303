// Package narrowing computes the type of a reference on each side of a guard.
package narrowing

import (
	"fmt"
	"log/slog"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
)

// Narrower refines types according to guards, and collects the
// diagnostics found while doing so
type Narrower struct {
	universe *types.Universe
	errs     *ilerr.Errors
	silenced bool
	logger   *slog.Logger
}

func New(u *types.Universe) *Narrower {
	return &Narrower{
		universe: u,
		logger:   log.Section("narrowing"),
	}
}

// Silenced returns a Narrower that computes the same types as n but does
// not record diagnostics
func (n *Narrower) Silenced() *Narrower {
	return &Narrower{universe: n.universe, silenced: true, logger: n.logger}
}

// Errors returns the diagnostics recorded so far
func (n *Narrower) Errors() *ilerr.Errors {
	return n.errs
}

func (n *Narrower) addError(e ilerr.IleError) {
	if n.silenced {
		return
	}
	n.errs = n.errs.With(e)
}

// Narrow returns the type of the subject of g when the branch taken is
// branchTaken, given that it has type current before the check
func (n *Narrower) Narrow(current types.Type, g guard.Guard, branchTaken bool) types.Type {
	if current.IsNever() {
		n.addError(ilerr.New(ilerr.NewUnreachableNarrowing{
			Positioner: ast.RangeOf(g),
			Subject:    g.Subject(),
			Guard:      g.String(),
		}))
		return types.Never
	}
	var result types.Type
	switch g := g.(type) {
	case *guard.TypeofGuard:
		result = narrowTypeof(current, g.Tag, branchTaken)
	case *guard.TruthinessGuard:
		result = narrowTruthiness(current, branchTaken)
	case *guard.EqualityGuard:
		result = narrowEquality(current, g.Value, g.Strict, branchTaken)
	case *guard.InGuard:
		result = n.narrowIn(current, g, branchTaken)
	case *guard.InstanceofGuard:
		result = narrowInstanceof(current, g.Class, branchTaken)
	case *guard.DiscriminantGuard:
		result = n.narrowDiscriminant(current, g, branchTaken)
	case *guard.PredicateGuard:
		result = narrowPredicate(current, g.Type, branchTaken)
	case *guard.SameValueGuard:
		result = narrowSameValue(current, g.OtherType, g.Strict, branchTaken)
	default:
		panic(fmt.Sprintf("unexpected guard %T", g))
	}
	n.logger.Debug("narrowed", "guard", g.String(), "branch", branchTaken, "from", current, "to", result)
	return result
}

// NarrowCond narrows subject through a whole condition. Guards on other
// references narrow nothing
func (n *Narrower) NarrowCond(subject string, current types.Type, c guard.Cond, branchTaken bool) types.Type {
	switch c := c.(type) {
	case *guard.Test:
		if c.Subject() != subject {
			return current
		}
		return n.Narrow(current, c.Guard, branchTaken)
	case *guard.Not:
		return n.NarrowCond(subject, current, c.X, !branchTaken)
	case *guard.And:
		whenX := n.NarrowCond(subject, current, c.X, true)
		if branchTaken {
			return n.NarrowCond(subject, whenX, c.Y, true)
		}
		return types.Union(n.NarrowCond(subject, current, c.X, false), n.NarrowCond(subject, whenX, c.Y, false))
	case *guard.Or:
		unlessX := n.NarrowCond(subject, current, c.X, false)
		if !branchTaken {
			return n.NarrowCond(subject, unlessX, c.Y, false)
		}
		return types.Union(n.NarrowCond(subject, current, c.X, true), n.NarrowCond(subject, unlessX, c.Y, true))
	case *guard.Const:
		if c.Value == branchTaken {
			return current
		}
		return types.Never
	case *guard.Opaque:
		return current
	}
	panic(fmt.Sprintf("unexpected condition %T", c))
}
