package guard

import (
	"math/big"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
)

// Recognizer finds guards in condition expressions
type Recognizer struct {
	universe *types.Universe
}

func NewRecognizer(u *types.Universe) *Recognizer {
	return &Recognizer{universe: u}
}

// FromExpr turns a condition expression into a Cond. Guards that cannot
// be valid, like typeof x === "strnig", are reported and become Opaque
func (r *Recognizer) FromExpr(e ast.Expr) (Cond, *ilerr.Errors) {
	var errs *ilerr.Errors
	c := r.cond(e, &errs)
	return c, errs
}

func (r *Recognizer) cond(e ast.Expr, errs **ilerr.Errors) Cond {
	rng := ast.RangeOf(e)
	switch e := e.(type) {
	case *ast.Unary:
		if e.Op == ast.Not {
			return &Not{Range: rng, X: r.cond(e.X, errs)}
		}
	case *ast.Binary:
		switch {
		case e.Op == ast.And:
			return &And{Range: rng, X: r.cond(e.Left, errs), Y: r.cond(e.Right, errs)}
		case e.Op == ast.Or:
			return &Or{Range: rng, X: r.cond(e.Left, errs), Y: r.cond(e.Right, errs)}
		case e.Op.IsEquality():
			return r.equality(e, errs)
		case e.Op == ast.In:
			return r.in(e, errs)
		case e.Op == ast.Instanceof:
			return r.instanceof(e, errs)
		}
	case *ast.Call:
		if g := r.predicate(e); g != nil {
			return &Test{g}
		}
	case *ast.Literal:
		return &Const{Range: rng, Value: literalTruthy(e)}
	case *ast.Ident, *ast.Member:
		ref, _ := ast.RefPath(e)
		return &Test{&TruthinessGuard{Range: rng, Ref: ref}}
	}
	return &Opaque{Range: rng, Expr: e}
}

func (r *Recognizer) equality(e *ast.Binary, errs **ilerr.Errors) Cond {
	rng := e.Range
	strict := e.Op == ast.StrictEq || e.Op == ast.StrictNeq
	negated := e.Op == ast.StrictNeq || e.Op == ast.LooseNeq

	var test Cond
	for _, operands := range [][2]ast.Expr{{e.Left, e.Right}, {e.Right, e.Left}} {
		if test = r.comparison(rng, operands[0], operands[1], strict, errs); test != nil {
			break
		}
	}
	if test == nil {
		return &Opaque{Range: rng, Expr: e}
	}
	if negated {
		if _, opaque := test.(*Opaque); opaque {
			return test
		}
		return &Not{Range: rng, X: test}
	}
	return test
}

// comparison recognises `subject op value` in this operand order only
func (r *Recognizer) comparison(rng ast.Range, subject, value ast.Expr, strict bool, errs **ilerr.Errors) Cond {
	lit, isLit := value.(*ast.Literal)

	if typeofExpr, ok := subject.(*ast.Typeof); ok {
		ref, isRef := ast.RefPath(typeofExpr.X)
		if !isRef || !isLit {
			return nil
		}
		if lit.Kind != ast.LitString {
			*errs = (*errs).With(ilerr.New(ilerr.NewInvalidGuard{
				Positioner: rng,
				Guard:      subject.String() + " === " + value.String(),
				Reason:     "typeof is compared with a value that is not a string",
			}))
			return &Opaque{Range: rng}
		}
		tag, ok := types.TagFromTypeof(lit.Value)
		if !ok {
			*errs = (*errs).With(ilerr.New(ilerr.NewInvalidGuard{
				Positioner: rng,
				Guard:      "typeof " + ref + " === " + lit.String(),
				Reason:     "'" + lit.Value + "' is not a possible result of typeof",
			}))
			return &Opaque{Range: rng}
		}
		return &Test{&TypeofGuard{Range: rng, Ref: ref, Tag: tag}}
	}

	ref, isRef := ast.RefPath(subject)
	if !isRef {
		return nil
	}
	if isLit {
		litType, ok := types.FromLiteral(lit)
		if !ok {
			return nil
		}
		// loose comparisons with null or undefined test both at once
		if !strict && (lit.Kind == ast.LitNull || lit.Kind == ast.LitUndefined) {
			litType = types.Nullish
		}
		if member, ok := subject.(*ast.Member); ok {
			base, _ := ast.RefPath(member.X)
			return &Test{&DiscriminantGuard{Range: rng, Ref: base, Prop: member.Name, Value: litType, Strict: strict}}
		}
		return &Test{&EqualityGuard{Range: rng, Ref: ref, Value: litType, Strict: strict}}
	}
	if other, ok := ast.RefPath(value); ok {
		return &Test{&SameValueGuard{Range: rng, Ref: ref, Other: other, OtherType: types.Any, Strict: strict}}
	}
	return nil
}

func (r *Recognizer) in(e *ast.Binary, errs **ilerr.Errors) Cond {
	lit, isLit := e.Left.(*ast.Literal)
	ref, isRef := ast.RefPath(e.Right)
	if !isRef {
		return &Opaque{Range: e.Range, Expr: e}
	}
	if !isLit || lit.Kind != ast.LitString {
		*errs = (*errs).With(ilerr.New(ilerr.NewInvalidGuard{
			Positioner: e.Range,
			Guard:      e.String(),
			Reason:     "the left operand of 'in' must be a string literal",
		}))
		return &Opaque{Range: e.Range, Expr: e}
	}
	return &Test{&InGuard{Range: e.Range, Ref: ref, Prop: lit.Value}}
}

func (r *Recognizer) instanceof(e *ast.Binary, errs **ilerr.Errors) Cond {
	ref, isRef := ast.RefPath(e.Left)
	className, isIdent := e.Right.(*ast.Ident)
	if !isRef || !isIdent {
		return &Opaque{Range: e.Range, Expr: e}
	}
	class, ok := r.universe.Class(className.Name)
	if !ok {
		*errs = (*errs).With(ilerr.New(ilerr.NewInvalidGuard{
			Positioner: e.Range,
			Guard:      e.String(),
			Reason:     "class '" + className.Name + "' is not declared",
		}))
		return &Opaque{Range: e.Range, Expr: e}
	}
	return &Test{&InstanceofGuard{Range: e.Range, Ref: ref, Class: class}}
}

func (r *Recognizer) predicate(e *ast.Call) Guard {
	fun, ok := e.Fun.(*ast.Ident)
	if !ok || len(e.Args) != 1 {
		return nil
	}
	t, ok := r.universe.Predicate(fun.Name)
	if !ok {
		return nil
	}
	ref, ok := ast.RefPath(e.Args[0])
	if !ok {
		return nil
	}
	return &PredicateGuard{Range: e.Range, Ref: ref, Name: fun.Name, Type: t}
}

func literalTruthy(lit *ast.Literal) bool {
	switch lit.Kind {
	case ast.LitString:
		return lit.Value != ""
	case ast.LitBool:
		return lit.Value == "true"
	case ast.LitNull, ast.LitUndefined:
		return false
	case ast.LitBigint:
		i, ok := new(big.Int).SetString(lit.Value, 10)
		return ok && i.Sign() != 0
	}
	t, ok := types.FromLiteral(lit)
	return ok && !t.Equal(types.NumberLit(0)) && !t.Equal(types.NaN)
}
