// Package witness models runtime values, so that narrowing can be checked
// against the branch a concrete value actually takes.
package witness

import (
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/cottand/narrow/frontend/types"
)

// Value is a runtime value of the modelled language
type Value struct {
	Tag types.Tag
	// Str is the payload of strings, the digits of bigints and the
	// rendering of booleans
	Str string
	// Num is the payload of numbers
	Num float64
	// Fields are the own properties of objects, sorted by name
	Fields []Prop
	// Class is set for class instances
	Class *types.Class
	// Elems is set for arrays
	Elems []Value
	array bool
	// opaque values are only known by their tag
	opaque bool
}

// Prop is a property of an object value
type Prop struct {
	Name  string
	Value Value
}

var (
	Null      = Value{Tag: types.TagNull}
	Undefined = Value{Tag: types.TagUndefined}
	NaN       = Number(math.NaN())
)

func String(s string) Value  { return Value{Tag: types.TagString, Str: s} }
func Number(f float64) Value { return Value{Tag: types.TagNumber, Num: f} }
func Bool(b bool) Value      { return Value{Tag: types.TagBoolean, Str: strconv.FormatBool(b)} }
func Bigint(i *big.Int) Value {
	return Value{Tag: types.TagBigint, Str: i.String()}
}

// Object returns a plain object with the given properties
func Object(props ...Prop) Value {
	props = slices.Clone(props)
	slices.SortStableFunc(props, func(a, b Prop) int { return strings.Compare(a.Name, b.Name) })
	return Value{Tag: types.TagObject, Fields: props}
}

// Instance returns an instance of c with the given own properties
func Instance(c *types.Class, props ...Prop) Value {
	v := Object(props...)
	v.Class = c
	return v
}

func Array(elems ...Value) Value {
	return Value{Tag: types.TagObject, Elems: elems, array: true}
}

func Function() Value { return Value{Tag: types.TagFunction} }
func Symbol() Value   { return Value{Tag: types.TagSymbol} }

// IsArray reports whether v is an array rather than a plain object
func (v Value) IsArray() bool { return v.array }

func (v Value) IsNaN() bool { return v.Tag == types.TagNumber && math.IsNaN(v.Num) }

// Prop returns the own property name of v
func (v Value) Prop(name string) (Value, bool) {
	i := slices.IndexFunc(v.Fields, func(p Prop) bool { return p.Name == name })
	if i < 0 {
		return Value{}, false
	}
	return v.Fields[i].Value, true
}

// Truthy reports whether v converts to true
func (v Value) Truthy() bool {
	switch v.Tag {
	case types.TagString:
		return v.Str != ""
	case types.TagNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case types.TagBigint:
		return v.Str != "0"
	case types.TagBoolean:
		return v.Str == "true"
	case types.TagNull, types.TagUndefined:
		return false
	}
	return true
}

func (v Value) String() string {
	switch v.Tag {
	case types.TagString:
		return strconv.Quote(v.Str)
	case types.TagNumber:
		return types.NumberLit(v.Num).String()
	case types.TagBigint:
		return v.Str + "n"
	case types.TagBoolean:
		return v.Str
	case types.TagSymbol:
		return "Symbol()"
	case types.TagFunction:
		return "function"
	case types.TagNull:
		return "null"
	case types.TagUndefined:
		return "undefined"
	}
	if v.IsArray() {
		elems := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = e.String()
		}
		return "[" + strings.Join(elems, ", ") + "]"
	}
	sb := strings.Builder{}
	if v.Class != nil {
		sb.WriteString(v.Class.Name + " ")
	}
	sb.WriteString("{")
	for i, p := range v.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name + ": " + p.Value.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// TypeOf returns the most precise type that contains v
func TypeOf(v Value) types.Type {
	if v.opaque {
		return types.PrimitiveOf(v.Tag)
	}
	switch v.Tag {
	case types.TagString:
		return types.StringLit(v.Str)
	case types.TagNumber:
		return types.NumberLit(v.Num)
	case types.TagBigint:
		t, ok := types.BigintLit(v.Str)
		if !ok {
			return types.Bigint
		}
		return t
	case types.TagBoolean:
		return types.BoolLit(v.Str == "true")
	case types.TagNull, types.TagUndefined, types.TagSymbol, types.TagFunction:
		return types.PrimitiveOf(v.Tag)
	}
	if v.Class != nil {
		return types.InstanceOf(v.Class)
	}
	if v.IsArray() {
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = TypeOf(e)
		}
		return types.NewArray(types.Union(elems...))
	}
	fields := make([]types.Field, len(v.Fields))
	for i, p := range v.Fields {
		fields[i] = types.Field{Name: p.Name, Type: TypeOf(p.Value)}
	}
	return types.NewRecord(fields...)
}
