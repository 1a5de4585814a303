package types

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// LooselyEqual reports whether a == b holds for two literals, after the
// conversions the loose equality operator applies to operands of
// different tags
func LooselyEqual(a, b Literal) bool {
	if a.tag == b.tag {
		if a.tag == TagNumber {
			return a.Float() == b.Float()
		}
		return a.value == b.value
	}
	if a.tag == TagBoolean {
		return LooselyEqual(boolToNumber(a), b)
	}
	if b.tag == TagBoolean {
		return LooselyEqual(a, boolToNumber(b))
	}
	if a.tag == TagBigint || (a.tag == TagNumber && b.tag == TagString) {
		a, b = b, a
	}
	switch {
	case a.tag == TagString && b.tag == TagNumber:
		return StringToNumber(a.value) == b.Float()
	case a.tag == TagString && b.tag == TagBigint:
		n, ok := stringToBigint(a.value)
		return ok && n.String() == b.value
	case a.tag == TagNumber && b.tag == TagBigint:
		return numberEqualsBigint(a.Float(), b.value)
	}
	return false
}

func boolToNumber(l Literal) Literal {
	if l.value == "true" {
		return Literal{TagNumber, "1"}
	}
	return Literal{TagNumber, "0"}
}

// StringToNumber converts s the way the unary plus operator does: blank
// strings are 0, and anything that is not a numeric literal is NaN
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if n, ok := prefixedInteger(s); ok {
		f, _ := new(big.Float).SetInt(n).Float64()
		return f
	}
	// rejects what ParseFloat accepts beyond decimal literals: inf, nan,
	// hexadecimal floats and underscores
	if strings.ContainsAny(s, "_xXpPnNiI") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// prefixedInteger parses the unsigned 0x, 0o and 0b integer forms
func prefixedInteger(s string) (*big.Int, bool) {
	if len(s) < 3 || s[0] != '0' {
		return nil, false
	}
	base := 0
	switch s[1] {
	case 'x', 'X':
		base = 16
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	default:
		return nil, false
	}
	if s[2] == '+' || s[2] == '-' {
		return nil, false
	}
	return new(big.Int).SetString(s[2:], base)
}

func stringToBigint(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), true
	}
	if n, ok := prefixedInteger(s); ok {
		return n, true
	}
	if strings.HasPrefix(s, "0") && len(s) > 1 && strings.ContainsAny(s[1:2], "xXoObB") {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

func numberEqualsBigint(f float64, digits string) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return false
	}
	i, _ := big.NewFloat(f).Int(nil)
	return i.Cmp(n) == 0
}

// MayLooselyEqual reports whether some value of m is loosely equal to v.
// Objects convert to primitives through their own methods, so any of
// them may be
func MayLooselyEqual(m Member, v Literal) bool {
	switch m := m.(type) {
	case Literal:
		return LooselyEqual(m, v)
	case Primitive:
		if v.tag == TagBoolean {
			v = boolToNumber(v)
		}
		switch m.tag {
		case TagString:
			return !(v.tag == TagNumber && math.IsNaN(v.Float()))
		case TagNumber:
			switch v.tag {
			case TagString:
				return !math.IsNaN(StringToNumber(v.value))
			case TagNumber:
				return !math.IsNaN(v.Float())
			}
			return true
		case TagBigint:
			switch v.tag {
			case TagString:
				_, ok := stringToBigint(v.value)
				return ok
			case TagNumber:
				f := v.Float()
				return !math.IsInf(f, 0) && f == math.Trunc(f)
			}
			return true
		case TagObject, TagFunction:
			return true
		}
		return false
	}
	return true
}
