package narrowing

import (
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
)

var (
	objectMember    = types.Object.Members()[0]
	functionMember  = types.Function.Members()[0]
	undefinedMember = types.Undefined.Members()[0]
)

// typeofType is every value for which typeof returns the name of tag
func typeofType(tag types.Tag) types.Type {
	if tag == types.TagObject {
		return types.Union(types.Object, types.Null)
	}
	return types.PrimitiveOf(tag)
}

func hasTypeof(m types.Member, tag types.Tag) bool {
	return m.Tag() == tag || tag == types.TagObject && m.Tag() == types.TagNull
}

func narrowTypeof(current types.Type, tag types.Tag, branchTaken bool) types.Type {
	if current.IsAny() {
		if branchTaken {
			return typeofType(tag)
		}
		return current
	}
	return types.Filter(current, func(m types.Member) bool {
		return hasTypeof(m, tag) == branchTaken
	})
}

// falsyPart returns the falsy values of m as a type
func falsyPart(m types.Member) types.Type {
	switch m := m.(type) {
	case types.Literal:
		if isFalsyLiteral(m) {
			return types.Of(m)
		}
		return types.Never
	case types.Primitive:
		switch m.Tag() {
		case types.TagString:
			return types.StringLit("")
		case types.TagNumber:
			return types.Union(types.NumberLit(0), types.NaN)
		case types.TagBigint:
			lit, _ := types.BigintLit("0")
			return lit
		case types.TagNull, types.TagUndefined:
			return types.Of(m)
		}
	}
	return types.Never
}

func isFalsyLiteral(l types.Literal) bool {
	switch l.Tag() {
	case types.TagString:
		return l.Value() == ""
	case types.TagNumber:
		return l.Value() == "0" || l.Value() == "NaN"
	case types.TagBigint:
		return l.Value() == "0"
	case types.TagBoolean:
		return l.Value() == "false"
	}
	return false
}

// alwaysFalsy reports whether every value of m is falsy
func alwaysFalsy(m types.Member) bool {
	if l, ok := m.(types.Literal); ok {
		return isFalsyLiteral(l)
	}
	return m.Tag() == types.TagNull || m.Tag() == types.TagUndefined
}

func narrowTruthiness(current types.Type, branchTaken bool) types.Type {
	if current.IsAny() {
		return current
	}
	if branchTaken {
		return types.Filter(current, func(m types.Member) bool { return !alwaysFalsy(m) })
	}
	parts := make([]types.Type, 0, current.Len())
	for _, m := range current.Members() {
		parts = append(parts, falsyPart(m))
	}
	return types.Union(parts...)
}

func narrowEquality(current, value types.Type, strict, branchTaken bool) types.Type {
	// NaN is not equal to anything, itself included
	if value.Equal(types.NaN) {
		if branchTaken {
			return types.Never
		}
		return current
	}
	if lit, ok := looseLiteral(value, strict); ok {
		return narrowLooseEquality(current, lit, branchTaken)
	}
	if current.IsAny() {
		if branchTaken {
			return value
		}
		return current
	}
	if branchTaken {
		return types.Intersect(current, value)
	}
	return types.Subtract(current, value)
}

// looseLiteral returns the literal of a loose comparison with a value
// that is neither null nor undefined
func looseLiteral(value types.Type, strict bool) (types.Literal, bool) {
	if strict || value.Len() != 1 {
		return types.Literal{}, false
	}
	lit, ok := value.Members()[0].(types.Literal)
	return lit, ok
}

// narrowLooseEquality keeps in the true branch every member that can be
// converted to value, and removes from the false branch only the
// literals that always convert to it
func narrowLooseEquality(current types.Type, value types.Literal, branchTaken bool) types.Type {
	if current.IsAny() {
		return current
	}
	if !branchTaken {
		return types.Filter(current, func(m types.Member) bool {
			lit, ok := m.(types.Literal)
			return !ok || !types.LooselyEqual(lit, value)
		})
	}
	parts := make([]types.Type, 0, current.Len())
	for _, m := range current.Members() {
		switch {
		case m.Tag() == value.Tag():
			parts = append(parts, types.Intersect(types.Of(m), types.Of(value)))
		case types.MayLooselyEqual(m, value):
			parts = append(parts, types.Of(m))
		}
	}
	return types.Union(parts...)
}

// mayEqual reports whether some value of t compares equal to value
func mayEqual(t, value types.Type, strict bool) bool {
	lit, ok := looseLiteral(value, strict)
	if !ok || t.IsAny() {
		return !types.Intersect(t, value).IsNever()
	}
	for _, m := range t.Members() {
		if types.MayLooselyEqual(m, lit) {
			return true
		}
	}
	return false
}

// isUnit reports whether t has exactly one value
func isUnit(t types.Type) bool {
	if t.Len() != 1 {
		return false
	}
	switch m := t.Members()[0].(type) {
	case types.Literal:
		return m.Value() != "NaN"
	case types.Primitive:
		return m.Tag() == types.TagNull || m.Tag() == types.TagUndefined
	}
	return false
}

func (n *Narrower) narrowIn(current types.Type, g *guard.InGuard, branchTaken bool) types.Type {
	if current.IsAny() {
		return current
	}
	if !n.declaredSomewhere(current, g.Prop, g) {
		return current
	}
	return types.Filter(current, func(m types.Member) bool {
		switch m.(type) {
		case types.Primitive:
			if m.Tag() == types.TagObject || m.Tag() == types.TagFunction {
				// nothing is known about the properties of these
				return true
			}
		case types.Record, types.Instance, types.Array:
			f, declared := types.FieldOf(m, g.Prop)
			switch {
			case declared && f.Optional:
				return true
			case declared:
				return branchTaken
			default:
				return !branchTaken
			}
		}
		// the in operator throws on primitives, so they never reach the true branch
		return !branchTaken
	})
}

// declaredSomewhere reports InvalidMemberAccess when no member of t can
// have the property prop
func (n *Narrower) declaredSomewhere(t types.Type, prop string, g guard.Guard) bool {
	if _, some, _ := types.Lookup(t, prop); some {
		return true
	}
	if t.Contains(objectMember) || t.Contains(functionMember) {
		return true
	}
	n.addError(ilerr.New(ilerr.NewInvalidMemberAccess{
		Positioner: ast.RangeOf(g),
		Subject:    g.Subject(),
		Member:     prop,
		Type:       t,
	}))
	return false
}

func narrowInstanceof(current types.Type, class *types.Class, branchTaken bool) types.Type {
	if class.IsObjectRoot() {
		if current.IsAny() {
			if branchTaken {
				return types.Union(types.Object, types.Function)
			}
			return current
		}
		return types.Filter(current, func(m types.Member) bool {
			return (m.Tag() == types.TagObject || m.Tag() == types.TagFunction) == branchTaken
		})
	}
	instance := types.InstanceOf(class)
	if current.IsAny() {
		if branchTaken {
			return instance
		}
		return current
	}
	if !branchTaken {
		return types.Filter(current, func(m types.Member) bool {
			return !types.MemberAssignable(m, instance)
		})
	}
	parts := make([]types.Type, 0, current.Len())
	for _, m := range current.Members() {
		switch m := m.(type) {
		case types.Instance:
			switch {
			case m.Class().Extends(class):
				parts = append(parts, types.Of(m))
			case class.Extends(m.Class()):
				parts = append(parts, instance)
			}
		case types.Record:
			parts = append(parts, types.Intersect(types.Of(m), instance))
		case types.Primitive:
			if m.Tag() == types.TagObject {
				parts = append(parts, instance)
			}
		}
	}
	return types.Union(parts...)
}

func (n *Narrower) narrowDiscriminant(current types.Type, g *guard.DiscriminantGuard, branchTaken bool) types.Type {
	if current.IsAny() {
		return current
	}
	if !n.declaredSomewhere(current, g.Prop, g) {
		return current
	}
	neverEqual := g.Value.Equal(types.NaN)
	return types.Filter(current, func(m types.Member) bool {
		f, declared := types.FieldOf(m, g.Prop)
		if !declared {
			switch {
			case m.Tag() == types.TagNull || m.Tag() == types.TagUndefined:
				// reading a property of null throws
				return false
			case m.Hash() == objectMember.Hash():
				return true
			}
			// reading a missing property gives undefined
			return types.MemberAssignable(undefinedMember, g.Value) == branchTaken
		}
		fieldType := f.Type
		if f.Optional {
			fieldType = types.Union(fieldType, types.Undefined)
		}
		if branchTaken {
			return !neverEqual && mayEqual(fieldType, g.Value, g.Strict)
		}
		return neverEqual || !types.Assignable(fieldType, g.Value)
	})
}

func narrowPredicate(current, predicate types.Type, branchTaken bool) types.Type {
	if current.IsAny() {
		if branchTaken {
			return predicate
		}
		return current
	}
	if !branchTaken {
		return types.Filter(current, func(m types.Member) bool {
			return !types.MemberAssignable(m, predicate)
		})
	}
	// members already known to satisfy a candidate are kept as they are;
	// otherwise the candidate itself, or its intersection with current
	parts := make([]types.Type, 0, predicate.Len())
	for _, c := range predicate.Members() {
		candidate := types.Of(c)
		related := types.Filter(current, func(m types.Member) bool {
			return types.MemberAssignable(m, candidate)
		})
		switch {
		case !related.IsNever():
			parts = append(parts, related)
		case types.Assignable(candidate, current):
			parts = append(parts, candidate)
		default:
			parts = append(parts, types.Intersect(current, candidate))
		}
	}
	return types.Union(parts...)
}

func narrowSameValue(current, other types.Type, strict, branchTaken bool) types.Type {
	if branchTaken && !strict {
		return narrowLooseSameValue(current, other)
	}
	if branchTaken {
		return types.Intersect(current, other)
	}
	if isUnit(other) && !current.IsAny() {
		return types.Subtract(current, other)
	}
	return current
}

// narrowLooseSameValue keeps the members of current that can be loosely
// equal to some member of other
func narrowLooseSameValue(current, other types.Type) types.Type {
	if current.IsAny() || other.IsAny() {
		return current
	}
	parts := make([]types.Type, 0, other.Len())
	for _, o := range other.Members() {
		if lit, ok := o.(types.Literal); ok {
			parts = append(parts, narrowEquality(current, types.Of(lit), false, true))
			continue
		}
		nullish := types.Nullish.Contains(o)
		parts = append(parts, types.Filter(current, func(m types.Member) bool {
			return types.Nullish.Contains(m) == nullish
		}))
	}
	return types.Union(parts...)
}
