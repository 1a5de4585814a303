package flow

import (
	"fmt"

	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/narrowing"
)

// Refine returns env as it is on the branchTaken side of c. References
// the guards of c test but env cannot resolve are returned as errors
func Refine(n *narrowing.Narrower, env Env, c guard.Cond, branchTaken bool) (Env, *ilerr.Errors) {
	var errs *ilerr.Errors
	refined := refine(n, env, c, branchTaken, &errs)
	return refined, errs
}

func refine(n *narrowing.Narrower, env Env, c guard.Cond, branchTaken bool, errs **ilerr.Errors) Env {
	if env.unreachable {
		return env
	}
	switch c := c.(type) {
	case *guard.Test:
		return refineGuard(n, env, c.Guard, branchTaken, errs)
	case *guard.Not:
		return refine(n, env, c.X, !branchTaken, errs)
	case *guard.And:
		whenX := refine(n, env, c.X, true, errs)
		if branchTaken {
			return refine(n, whenX, c.Y, true, errs)
		}
		return Join(refine(n, env, c.X, false, errs), refine(n, whenX, c.Y, false, errs))
	case *guard.Or:
		unlessX := refine(n, env, c.X, false, errs)
		if !branchTaken {
			return refine(n, unlessX, c.Y, false, errs)
		}
		return Join(refine(n, env, c.X, true, errs), refine(n, unlessX, c.Y, true, errs))
	case *guard.Const:
		if c.Value != branchTaken {
			return Unreachable()
		}
		return env
	case *guard.Opaque:
		return env
	}
	panic(fmt.Sprintf("unexpected condition %T", c))
}

func refineGuard(n *narrowing.Narrower, env Env, g guard.Guard, branchTaken bool, errs **ilerr.Errors) Env {
	ref := g.Subject()
	current, err := env.resolve(ref, g)
	if err != nil {
		*errs = (*errs).With(err)
		return env
	}
	switch g := g.(type) {
	case *guard.SameValueGuard:
		other, err := env.resolve(g.Other, g)
		if err != nil {
			*errs = (*errs).With(err)
			return env
		}
		env = env.Narrow(g.Other, n.Silenced().Narrow(other, g.Flipped(current), branchTaken))
		return env.Narrow(ref, n.Narrow(current, g.WithOtherType(other), branchTaken))
	case *guard.DiscriminantGuard:
		env = env.Narrow(ref, n.Narrow(current, g, branchTaken))
		prop, err := env.resolve(g.Path(), g)
		if err != nil || prop.IsNever() {
			return env
		}
		return env.Narrow(g.Path(), n.Silenced().Narrow(prop, g.AsEquality(), branchTaken))
	}
	return env.Narrow(ref, n.Narrow(current, g, branchTaken))
}
