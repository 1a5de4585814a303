// Package types implements the types narrowing operates on: canonical
// unions of members, with any at the top and never (the empty union) at
// the bottom.
package types

import (
	"hash/fnv"
	"log/slog"
	"math"
	"math/big"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Type is a canonical union of members, or any.
// The zero value is never
type Type struct {
	top     bool
	members []Member
}

var (
	Never = Type{}
	Any   = Type{top: true}

	String    = Of(Primitive{TagString})
	Number    = Of(Primitive{TagNumber})
	Bigint    = Of(Primitive{TagBigint})
	Boolean   = Of(Literal{TagBoolean, "false"}, Literal{TagBoolean, "true"})
	Symbol    = Of(Primitive{TagSymbol})
	Object    = Of(Primitive{TagObject})
	Function  = Of(Primitive{TagFunction})
	Null      = Of(Primitive{TagNull})
	Undefined = Of(Primitive{TagUndefined})

	True  = BoolLit(true)
	False = BoolLit(false)
	NaN   = NumberLit(math.NaN())

	// Nullish is the set tested by a loose comparison with null or undefined
	Nullish = Union(Null, Undefined)
)

// PrimitiveOf returns every value of tag t
func PrimitiveOf(t Tag) Type {
	if t == TagBoolean {
		return Boolean
	}
	return Of(Primitive{t})
}

func StringLit(s string) Type {
	return Of(Literal{TagString, s})
}

func NumberLit(f float64) Type {
	return Of(Literal{TagNumber, canonicalNumber(f)})
}

func BoolLit(b bool) Type {
	if b {
		return Of(Literal{TagBoolean, "true"})
	}
	return Of(Literal{TagBoolean, "false"})
}

// BigintLit parses the decimal digits of a bigint literal, without the n suffix
func BigintLit(digits string) (Type, bool) {
	i, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Never, false
	}
	return Of(Literal{TagBigint, i.String()}), true
}

// NewRecord builds an object shape. Duplicate field names keep the last one
func NewRecord(fields ...Field) Type {
	return Of(newRecord(fields))
}

func NewArray(elem Type) Type {
	return Of(Array{elem})
}

func InstanceOf(c *Class) Type {
	return Of(Instance{c})
}

// Of builds the canonical union of members
func Of(members ...Member) Type {
	return Type{members: canonical(members)}
}

func canonical(members []Member) []Member {
	if len(members) == 0 {
		return nil
	}
	unique := set.NewHashSet[Member, uint64](len(members))
	for _, m := range members {
		if p, ok := m.(Primitive); ok && p.tag == TagBoolean {
			unique.Insert(Literal{TagBoolean, "false"})
			unique.Insert(Literal{TagBoolean, "true"})
			continue
		}
		unique.Insert(m)
	}
	result := make([]Member, 0, unique.Size())
	for m := range unique.Items() {
		if lit, ok := m.(Literal); ok && unique.Contains(Primitive{lit.tag}) {
			continue
		}
		result = append(result, m)
	}
	slices.SortFunc(result, compareMembers)
	return result
}

func (t Type) IsAny() bool   { return t.top }
func (t Type) IsNever() bool { return !t.top && len(t.members) == 0 }

// Members returns the variants of t, in canonical order. It is empty for any
func (t Type) Members() []Member { return slices.Clone(t.members) }

// Len is the number of members of t
func (t Type) Len() int { return len(t.members) }

// Contains reports whether m is one of the members of t, as is
func (t Type) Contains(m Member) bool {
	h := m.Hash()
	return slices.ContainsFunc(t.members, func(other Member) bool { return other.Hash() == h })
}

// HasTag reports whether some member of t has the given tag
func (t Type) HasTag(tag Tag) bool {
	return slices.ContainsFunc(t.members, func(m Member) bool { return m.Tag() == tag })
}

func (t Type) isBooleanOnly() bool {
	return len(t.members) == 2 && t.members[0].Tag() == TagBoolean && t.members[1].Tag() == TagBoolean
}

func (t Type) String() string {
	if t.top {
		return "any"
	}
	if len(t.members) == 0 {
		return "never"
	}
	parts := make([]string, 0, len(t.members))
	for i := 0; i < len(t.members); i++ {
		m := t.members[i]
		// false and true are adjacent in canonical order
		if lit, ok := m.(Literal); ok && lit.tag == TagBoolean && lit.value == "false" && i+1 < len(t.members) {
			if next, ok := t.members[i+1].(Literal); ok && next.tag == TagBoolean {
				parts = append(parts, "boolean")
				i++
				continue
			}
		}
		parts = append(parts, m.String())
	}
	return strings.Join(parts, " | ")
}

func (t Type) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.String()))
	return h.Sum64()
}

func (t Type) Equal(other Type) bool {
	return t.top == other.top && t.Hash() == other.Hash()
}

func (t Type) LogValue() slog.Value {
	return slog.StringValue(t.String())
}
