package types

import (
	"slices"

	sortedset "github.com/xtgo/set"
)

// Union joins ts. Any member being any makes the result any
func Union(ts ...Type) Type {
	var members []Member
	for _, t := range ts {
		if t.top {
			return Any
		}
		members = append(members, t.members...)
	}
	return Of(members...)
}

// Intersect returns the values that belong to both a and b
func Intersect(a, b Type) Type {
	if a.top {
		return b
	}
	if b.top {
		return a
	}
	var members []Member
	for _, x := range a.members {
		for _, y := range b.members {
			if m, ok := meet(x, y); ok {
				members = append(members, m)
			}
		}
	}
	return Of(members...)
}

// Subtract removes from a the members that are entirely contained in b.
// Members only partially covered by b stay, so string minus "a" is string
func Subtract(a, b Type) Type {
	if b.top {
		return Never
	}
	if a.top {
		return a
	}
	return Filter(a, func(m Member) bool {
		return !memberAssignableTo(m, b)
	})
}

// Filter keeps the members of t for which keep holds. Any is returned as is
func Filter(t Type, keep func(Member) bool) Type {
	if t.top {
		return t
	}
	kept := make([]Member, 0, len(t.members))
	for _, m := range t.members {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	return Type{members: kept}
}

// Widen replaces literal members by their primitive, recursively through
// record fields and array elements
func Widen(t Type) Type {
	if t.top {
		return t
	}
	members := make([]Member, 0, len(t.members))
	for _, m := range t.members {
		members = append(members, widenMember(m))
	}
	return Of(members...)
}

func widenMember(m Member) Member {
	switch m := m.(type) {
	case Literal:
		return Primitive{m.tag}
	case Record:
		fields := make([]Field, len(m.fields))
		for i, f := range m.fields {
			fields[i] = Field{Name: f.Name, Type: Widen(f.Type), Optional: f.Optional}
		}
		return Record{fields: fields}
	case Array:
		return Array{Widen(m.elem)}
	}
	return m
}

// Assignable reports whether every value of src is a value of dst
func Assignable(src, dst Type) bool {
	if dst.top || src.top {
		return true
	}
	for _, m := range src.members {
		if !memberAssignableTo(m, dst) {
			return false
		}
	}
	return true
}

// MemberAssignable reports whether every value of m is a value of dst
func MemberAssignable(m Member, dst Type) bool {
	return dst.top || memberAssignableTo(m, dst)
}

func memberAssignableTo(m Member, dst Type) bool {
	return slices.ContainsFunc(dst.members, func(d Member) bool {
		return memberAssignable(m, d)
	})
}

func memberAssignable(src, dst Member) bool {
	if src.Hash() == dst.Hash() {
		return true
	}
	switch dst := dst.(type) {
	case Primitive:
		if lit, ok := src.(Literal); ok {
			return lit.tag == dst.tag
		}
		if dst.tag == TagObject {
			return src.Tag() == TagObject || src.Tag() == TagFunction
		}
		return false
	case Record:
		return hasFields(src, dst.fields)
	case Instance:
		if dst.class.IsObjectRoot() {
			return src.Tag() == TagObject
		}
		inst, ok := src.(Instance)
		return ok && inst.class.Extends(dst.class)
	case Array:
		arr, ok := src.(Array)
		return ok && Assignable(arr.elem, dst.elem)
	}
	return false
}

// hasFields reports whether the object member src has every field in want
// with an assignable type
func hasFields(src Member, want []Field) bool {
	have := FieldsOf(src)
	if have == nil && src.Tag() != TagObject {
		return false
	}
	var required []string
	for _, f := range want {
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	haveNames := make([]string, 0, len(have))
	for _, f := range have {
		haveNames = append(haveNames, f.Name)
	}
	// both name lists are sorted: FieldsOf and record fields keep name order
	if !sortedset.StringsChk(sortedset.IsSub, slices.Clip(required), haveNames...) {
		return false
	}
	for _, w := range want {
		h, ok := fieldNamed(have, w.Name)
		if !ok {
			continue
		}
		srcType := h.Type
		if h.Optional {
			srcType = Union(srcType, Undefined)
		}
		dstType := w.Type
		if w.Optional {
			dstType = Union(dstType, Undefined)
		}
		if !Assignable(srcType, dstType) {
			return false
		}
	}
	return true
}

func fieldNamed(fields []Field, name string) (Field, bool) {
	i := slices.IndexFunc(fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return fields[i], true
}

// meet returns the member holding the values common to x and y, if any
func meet(x, y Member) (Member, bool) {
	if x.Hash() == y.Hash() {
		return x, true
	}
	if memberAssignable(x, y) {
		return x, true
	}
	if memberAssignable(y, x) {
		return y, true
	}
	switch x := x.(type) {
	case Record:
		switch y := y.(type) {
		case Record:
			return mergeRecords(x, y)
		case Instance, Array:
			// an object of class y may still carry the extra fields x asks for,
			// but only when y does not declare them with incompatible types
			if compatibleFields(y, x.fields) {
				return y, true
			}
		}
	case Instance, Array:
		if rec, ok := y.(Record); ok && compatibleFields(x, rec.fields) {
			return x, true
		}
	}
	return nil, false
}

// compatibleFields reports whether src does not contradict any field in want
func compatibleFields(src Member, want []Field) bool {
	have := FieldsOf(src)
	for _, w := range want {
		h, ok := fieldNamed(have, w.Name)
		if !ok {
			continue
		}
		if Intersect(h.Type, w.Type).IsNever() && !(h.Optional && w.Optional) {
			return false
		}
	}
	return true
}

func mergeRecords(x, y Record) (Member, bool) {
	fields := slices.Clone(x.fields)
	for _, f := range y.fields {
		i := slices.IndexFunc(fields, func(g Field) bool { return g.Name == f.Name })
		if i < 0 {
			fields = append(fields, f)
			continue
		}
		g := fields[i]
		merged := Field{Name: f.Name, Type: Intersect(g.Type, f.Type), Optional: g.Optional && f.Optional}
		if merged.Type.IsNever() && !merged.Optional {
			return nil, false
		}
		fields[i] = merged
	}
	return newRecord(fields), true
}
