package types

import (
	"math"
	"strconv"
	"strings"
)

var (
	stringFields = sortFields([]Field{
		{Name: "length", Type: Number},
		method("charAt"), method("includes"), method("indexOf"), method("padStart"), method("padEnd"),
		method("slice"), method("split"), method("startsWith"), method("endsWith"),
		method("toLowerCase"), method("toUpperCase"), method("trim"), method("repeat"),
	})
	numberFields  = sortFields([]Field{method("toFixed"), method("toPrecision"), method("toString")})
	bigintFields  = sortFields([]Field{method("toString"), method("toLocaleString")})
	booleanFields = sortFields([]Field{method("toString"), method("valueOf")})
	symbolFields  = sortFields([]Field{
		{Name: "description", Type: Union(String, Undefined)},
		method("toString"),
	})
	functionFields = sortFields([]Field{
		{Name: "length", Type: Number},
		{Name: "name", Type: String},
		method("apply"), method("bind"), method("call"),
	})
	objectFields = sortFields([]Field{method("hasOwnProperty"), method("toString"), method("valueOf")})
	arrayFields  = sortFields([]Field{
		{Name: "length", Type: Number},
		method("filter"), method("includes"), method("indexOf"), method("join"), method("map"),
		method("pop"), method("push"), method("slice"),
	})
)

// FieldsOf returns the properties that every value of m has, sorted by name.
// null and undefined have none
func FieldsOf(m Member) []Field {
	switch m := m.(type) {
	case Record:
		return m.fields
	case Instance:
		return m.class.AllFields()
	case Array:
		return arrayFields
	}
	switch m.Tag() {
	case TagString:
		return stringFields
	case TagNumber:
		return numberFields
	case TagBigint:
		return bigintFields
	case TagBoolean:
		return booleanFields
	case TagSymbol:
		return symbolFields
	case TagFunction:
		return functionFields
	case TagObject:
		return objectFields
	}
	return nil
}

// FieldOf returns the property name of m
func FieldOf(m Member, name string) (Field, bool) {
	return fieldNamed(FieldsOf(m), name)
}

// Lookup returns the type of property name over the members of t that
// declare it, and whether some or all of them do. Optional properties
// include undefined in their type
func Lookup(t Type, name string) (result Type, some, all bool) {
	if t.top {
		return Any, true, true
	}
	all = len(t.members) > 0
	var found []Type
	for _, m := range t.members {
		f, ok := FieldOf(m, name)
		if !ok {
			all = false
			continue
		}
		some = true
		if f.Optional {
			found = append(found, Union(f.Type, Undefined))
		} else {
			found = append(found, f.Type)
		}
	}
	return Union(found...), some, all
}

func parseNumber(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	return f, err == nil
}
