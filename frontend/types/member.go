package types

import (
	"cmp"
	"hash/fnv"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Member is one variant of a union Type
type Member interface {
	set.Hasher[uint64]
	String() string
	Tag() Tag
	isMember()
}

var (
	_ Member = Primitive{}
	_ Member = Literal{}
	_ Member = Record{}
	_ Member = Instance{}
	_ Member = Array{}
)

func hashString(kind, s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Primitive is every value of a tag, like string or object.
// Booleans are always represented as the literals true and false
type Primitive struct {
	tag Tag
}

func (p Primitive) isMember() {}
func (p Primitive) Tag() Tag  { return p.tag }
func (p Primitive) String() string {
	if p.tag == TagFunction {
		return "Function"
	}
	return p.tag.String()
}
func (p Primitive) Hash() uint64 { return hashString("prim", p.String()) }

// Literal is a single value of a primitive tag
type Literal struct {
	tag   Tag
	value string
}

func (l Literal) isMember() {}
func (l Literal) Tag() Tag  { return l.tag }

// Value is the canonical rendering of the literal without quotes or suffixes
func (l Literal) Value() string { return l.value }

func (l Literal) String() string {
	switch l.tag {
	case TagString:
		return strconv.Quote(l.value)
	case TagBigint:
		return l.value + "n"
	}
	return l.value
}
func (l Literal) Hash() uint64 { return hashString("lit", l.String()) }

// Float returns the value of a number literal
func (l Literal) Float() float64 {
	if l.value == "NaN" {
		return math.NaN()
	}
	f, _ := strconv.ParseFloat(l.value, 64)
	return f
}

// Field is a property of a record or a class
type Field struct {
	Name     string
	Type     Type
	Optional bool
}

func (f Field) String() string {
	if f.Optional {
		return f.Name + "?: " + f.Type.String()
	}
	return f.Name + ": " + f.Type.String()
}

// Record is an object shape: any object with at least these fields
type Record struct {
	fields []Field
}

func (r Record) isMember() {}
func (r Record) Tag() Tag  { return TagObject }

// Fields are sorted by name
func (r Record) Fields() []Field { return slices.Clone(r.fields) }

func (r Record) Field(name string) (Field, bool) {
	i, found := slices.BinarySearchFunc(r.fields, name, func(f Field, name string) int {
		return cmp.Compare(f.Name, name)
	})
	if !found {
		return Field{}, false
	}
	return r.fields[i], true
}

func (r Record) String() string {
	sb := strings.Builder{}
	sb.WriteString("{")
	for i, f := range r.fields {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(f.String())
	}
	sb.WriteString("}")
	return sb.String()
}
func (r Record) Hash() uint64 { return hashString("rec", r.String()) }

func newRecord(fields []Field) Record {
	sorted := slices.Clone(fields)
	slices.SortStableFunc(sorted, func(a, b Field) int { return cmp.Compare(a.Name, b.Name) })
	// later declarations of the same name win
	deduped := sorted[:0]
	for _, f := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Name == f.Name {
			deduped[n-1] = f
			continue
		}
		deduped = append(deduped, f)
	}
	return Record{fields: deduped}
}

// Instance is an instance of a class, or of one of its subclasses
type Instance struct {
	class *Class
}

func (i Instance) isMember()      {}
func (i Instance) Tag() Tag       { return TagObject }
func (i Instance) Class() *Class  { return i.class }
func (i Instance) String() string { return i.class.Name }
func (i Instance) Hash() uint64   { return hashString("inst", i.class.Name) }

type Array struct {
	elem Type
}

func (a Array) isMember()  {}
func (a Array) Tag() Tag   { return TagObject }
func (a Array) Elem() Type { return a.elem }
func (a Array) String() string {
	if len(a.elem.members) > 1 && !a.elem.isBooleanOnly() {
		return "(" + a.elem.String() + ")[]"
	}
	return a.elem.String() + "[]"
}
func (a Array) Hash() uint64 { return hashString("arr", a.String()) }

// kindRank orders members of the same tag
func kindRank(m Member) int {
	switch m.(type) {
	case Primitive:
		return 0
	case Literal:
		return 1
	case Record:
		return 2
	case Array:
		return 3
	case Instance:
		return 4
	}
	return 5
}

func compareMembers(a, b Member) int {
	if c := cmp.Compare(a.Tag(), b.Tag()); c != 0 {
		return c
	}
	if c := cmp.Compare(kindRank(a), kindRank(b)); c != 0 {
		return c
	}
	la, aIsLit := a.(Literal)
	lb, bIsLit := b.(Literal)
	if aIsLit && bIsLit {
		switch la.tag {
		case TagNumber:
			// cmp.Compare orders NaN first
			return cmp.Compare(la.Float(), lb.Float())
		case TagBigint:
			x, _ := new(big.Int).SetString(la.value, 10)
			y, _ := new(big.Int).SetString(lb.value, 10)
			if x != nil && y != nil {
				return x.Cmp(y)
			}
		case TagBoolean:
			// false before true
			return cmp.Compare(la.value, lb.value)
		}
	}
	return cmp.Compare(a.String(), b.String())
}

// canonicalNumber renders a number the way a number literal type is shown
func canonicalNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
