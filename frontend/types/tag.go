package types

import "fmt"

// Tag is the runtime tag of a value, as reported by typeof (except for
// null, which typeof reports as "object")
type Tag int

const (
	TagString Tag = iota
	TagNumber
	TagBigint
	TagBoolean
	TagSymbol
	TagObject
	TagFunction
	TagNull
	TagUndefined
)

var tagNames = [...]string{
	TagString:    "string",
	TagNumber:    "number",
	TagBigint:    "bigint",
	TagBoolean:   "boolean",
	TagSymbol:    "symbol",
	TagObject:    "object",
	TagFunction:  "function",
	TagNull:      "null",
	TagUndefined: "undefined",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Tags lists every tag in canonical order
var Tags = []Tag{TagString, TagNumber, TagBigint, TagBoolean, TagSymbol, TagObject, TagFunction, TagNull, TagUndefined}

// TagFromTypeof returns the tag tested by `typeof x === name`.
// The result for "object" does not include null: callers decide
func TagFromTypeof(name string) (Tag, bool) {
	switch name {
	case "string":
		return TagString, true
	case "number":
		return TagNumber, true
	case "bigint":
		return TagBigint, true
	case "boolean":
		return TagBoolean, true
	case "symbol":
		return TagSymbol, true
	case "object":
		return TagObject, true
	case "function":
		return TagFunction, true
	case "undefined":
		return TagUndefined, true
	}
	return 0, false
}

// TypeofName is the string typeof produces for values of tag t
func TypeofName(t Tag) string {
	if t == TagNull {
		return "object"
	}
	return t.String()
}
