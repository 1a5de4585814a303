package flow

import (
	"fmt"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
)

// typeOf is the type of e evaluated in env
func (r *run) typeOf(env Env, e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.Literal:
		t, ok := types.FromLiteral(e)
		if !ok {
			return types.Any
		}
		return t
	case *ast.Ident:
		return r.ref(env, e.Name, e)
	case *ast.Member:
		if path, ok := ast.RefPath(e); ok {
			return r.ref(env, path, e)
		}
		return r.member(r.typeOf(env, e.X), e)
	case *ast.TypedValue:
		return r.annotation(e.Type)
	case *ast.Typeof:
		return typeofNames(r.typeOf(env, e.X))
	case *ast.Unary:
		x := r.typeOf(env, e.X)
		if e.Op == ast.Neg && onlyTag(x, types.TagBigint) {
			return types.Bigint
		}
		if e.Op == ast.Neg {
			return types.Number
		}
		return types.Boolean
	case *ast.Binary:
		return r.binary(env, e)
	case *ast.Call:
		for _, arg := range e.Args {
			r.typeOf(env, arg)
		}
		if fun, ok := e.Fun.(*ast.Ident); ok {
			if _, isPredicate := r.universe.Predicate(fun.Name); isPredicate {
				return types.Boolean
			}
		}
		return types.Any
	case *ast.Ternary:
		c := r.condOf(e.Cond)
		return types.Union(
			r.typeIn(r.refine(env, c, true), e.Then),
			r.typeIn(r.refine(env, c, false), e.Else),
		)
	}
	panic(fmt.Sprintf("unexpected expression %T", e))
}

// typeIn is typeOf, except that expressions evaluated in unreachable
// environments have no values
func (r *run) typeIn(env Env, e ast.Expr) types.Type {
	if env.unreachable {
		return types.Never
	}
	return r.typeOf(env, e)
}

func (r *run) ref(env Env, ref string, at ast.Positioner) types.Type {
	t, err := env.resolve(ref, at)
	if err != nil {
		r.report(err)
	}
	return t
}

func (r *run) member(x types.Type, e *ast.Member) types.Type {
	if x.IsNever() {
		r.report(ilerr.New(ilerr.NewUnreachableCode{Positioner: e.Range, Detail: fmt.Sprintf("'%v' has type 'never'", e.X)}))
		return types.Never
	}
	t, some, all := types.Lookup(x, e.Name)
	if !all {
		r.report(ilerr.New(ilerr.NewInvalidMemberAccess{
			Positioner: e.Range,
			Subject:    e.X.String(),
			Member:     e.Name,
			Type:       x,
			Partial:    some,
		}))
	}
	if !some {
		return types.Any
	}
	return t
}

func (r *run) binary(env Env, e *ast.Binary) types.Type {
	switch e.Op {
	case ast.And:
		left := r.typeOf(env, e.Left)
		c := r.condOf(e.Left)
		return types.Union(r.truthiness(left, false), r.typeIn(r.refine(env, c, true), e.Right))
	case ast.Or:
		left := r.typeOf(env, e.Left)
		c := r.condOf(e.Left)
		return types.Union(r.truthiness(left, true), r.typeIn(r.refine(env, c, false), e.Right))
	}
	left, right := r.typeOf(env, e.Left), r.typeOf(env, e.Right)
	switch e.Op {
	case ast.Add:
		switch {
		case onlyTag(left, types.TagString) || onlyTag(right, types.TagString):
			return types.String
		case onlyTag(left, types.TagNumber) && onlyTag(right, types.TagNumber):
			return types.Number
		case onlyTag(left, types.TagBigint) && onlyTag(right, types.TagBigint):
			return types.Bigint
		}
		return types.Union(types.String, types.Number)
	case ast.Sub:
		if onlyTag(left, types.TagBigint) && onlyTag(right, types.TagBigint) {
			return types.Bigint
		}
		return types.Number
	}
	return types.Boolean
}

// truthiness is the part of t that is truthy, or falsy
func (r *run) truthiness(t types.Type, truthy bool) types.Type {
	return r.narrower.Silenced().Narrow(t, &guard.TruthinessGuard{}, truthy)
}

func onlyTag(t types.Type, tag types.Tag) bool {
	if t.IsAny() || t.IsNever() {
		return false
	}
	for _, m := range t.Members() {
		if m.Tag() != tag {
			return false
		}
	}
	return true
}

// typeofNames is the type of typeof x for x of type t
func typeofNames(t types.Type) types.Type {
	var names []types.Type
	for _, tag := range types.Tags {
		if t.IsAny() || t.HasTag(tag) {
			names = append(names, types.StringLit(types.TypeofName(tag)))
		}
	}
	return types.Union(names...)
}
