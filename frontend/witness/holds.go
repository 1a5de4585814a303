package witness

import (
	"fmt"
	"strings"

	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/types"
)

// ThrowsError is returned by Holds when evaluating the guard would throw,
// so that neither of its branches is taken
type ThrowsError struct {
	Guard  string
	Reason string
}

func (e *ThrowsError) Error() string {
	return fmt.Sprintf("evaluating '%s' throws: %s", e.Guard, e.Reason)
}

// Holds evaluates g with v as the value of its subject
func Holds(g guard.Guard, v Value) (bool, error) {
	switch g := g.(type) {
	case *guard.TypeofGuard:
		return types.TypeofName(v.Tag) == types.TypeofName(g.Tag), nil
	case *guard.TruthinessGuard:
		return v.Truthy(), nil
	case *guard.EqualityGuard:
		return equals(v, g.Value, g.Strict), nil
	case *guard.InGuard:
		if !isObject(v) {
			return false, &ThrowsError{Guard: g.String(), Reason: fmt.Sprintf("%v is not an object", v)}
		}
		_, ok := property(v, g.Prop)
		return ok, nil
	case *guard.InstanceofGuard:
		if !isObject(v) {
			return false, nil
		}
		if g.Class.IsObjectRoot() {
			return true, nil
		}
		return v.Class != nil && v.Class.Extends(g.Class), nil
	case *guard.DiscriminantGuard:
		if v.Tag == types.TagNull || v.Tag == types.TagUndefined {
			return false, &ThrowsError{Guard: g.String(), Reason: fmt.Sprintf("cannot read '%s' of %v", g.Prop, v)}
		}
		prop, ok := property(v, g.Prop)
		if !ok {
			prop = Undefined
		}
		return equals(prop, g.Value, g.Strict), nil
	case *guard.PredicateGuard:
		return types.Assignable(TypeOf(v), g.Type), nil
	case *guard.SameValueGuard:
		return false, fmt.Errorf("'%s' compares with '%s', which has no value", g, g.Other)
	}
	return false, fmt.Errorf("unexpected guard %T", g)
}

func isObject(v Value) bool {
	return v.Tag == types.TagObject || v.Tag == types.TagFunction
}

// equals compares v with one of the unit members of t. Loose comparisons
// with null or undefined have both in t
func equals(v Value, t types.Type, strict bool) bool {
	if !strict && !t.HasTag(types.TagNull) && !t.HasTag(types.TagUndefined) {
		return looselyEquals(v, t)
	}
	if v.opaque || v.IsNaN() || isObject(v) || v.Tag == types.TagSymbol {
		return false
	}
	members := TypeOf(v).Members()
	return len(members) == 1 && t.Contains(members[0])
}

// looselyEquals is v == t for a literal t
func looselyEquals(v Value, t types.Type) bool {
	if v.opaque || t.Len() != 1 {
		return false
	}
	lit, ok := t.Members()[0].(types.Literal)
	if !ok {
		return false
	}
	prim, ok := toPrimitive(v)
	if !ok {
		return false
	}
	converted, ok := TypeOf(prim).Members()[0].(types.Literal)
	return ok && types.LooselyEqual(converted, lit)
}

// toPrimitive converts objects with the default conversion of plain
// objects and arrays. The source text of functions is not known
func toPrimitive(v Value) (Value, bool) {
	switch {
	case v.Tag == types.TagFunction:
		return Value{}, false
	case v.Tag != types.TagObject:
		return v, true
	}
	return String(toString(v)), true
}

// toString converts v as array elements are when joined
func toString(v Value) string {
	switch v.Tag {
	case types.TagString:
		return v.Str
	case types.TagNumber:
		return types.NumberLit(v.Num).String()
	case types.TagBigint, types.TagBoolean:
		return v.Str
	case types.TagNull, types.TagUndefined:
		return ""
	case types.TagFunction:
		return "function"
	}
	if !v.IsArray() {
		return "[object Object]"
	}
	elems := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		elems[i] = toString(e)
	}
	return strings.Join(elems, ",")
}

// property finds name among the own properties of v, then among the
// properties every value of its type has
func property(v Value, name string) (Value, bool) {
	if p, ok := v.Prop(name); ok {
		return p, true
	}
	for _, m := range TypeOf(v).Members() {
		f, ok := types.FieldOf(m, name)
		if ok && !f.Optional {
			return unknownOf(f.Type), true
		}
	}
	return Value{}, false
}

// unknownOf stands for a property whose value is only known by its type
func unknownOf(t types.Type) Value {
	members := t.Members()
	if len(members) == 0 {
		return Undefined
	}
	lit, ok := members[0].(types.Literal)
	if !ok || len(members) > 1 {
		return Value{Tag: members[0].Tag(), opaque: true}
	}
	switch lit.Tag() {
	case types.TagNumber:
		return Number(lit.Float())
	case types.TagBoolean:
		return Bool(lit.Value() == "true")
	}
	return Value{Tag: lit.Tag(), Str: lit.Value()}
}
