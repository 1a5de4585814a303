package types_test

import (
	"go/token"
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/parser"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// typeOf parses and converts src in u, failing the test on any error
func typeOf(t *testing.T, u *types.Universe, src string) types.Type {
	t.Helper()
	node, err := parser.ParseType(src, token.NoPos)
	require.Nil(t, err, "parse %s: %v", src, err)
	typ, errs := u.FromAST(node)
	require.False(t, errs.HasError(), "convert %s: %v", src, errs.Errors())
	return typ
}

func TestCanonicalString(t *testing.T) {
	u := types.NewUniverse()
	testCases := map[string]string{
		`number | string`:            `string | number`,
		`undefined | null | string`:  `string | null | undefined`,
		`"a" | string`:               `string`,
		`true | false`:               `boolean`,
		`boolean | true`:             `boolean`,
		`true | string`:              `string | true`,
		`2 | 10 | 1`:                 `1 | 2 | 10`,
		`NaN | 0`:                    `NaN | 0`,
		`{b: number; a?: string}`:    `{a?: string; b: number}`,
		`never | string`:             `string`,
		`unknown | string`:           `any`,
		`(string | number)[]`:        `(string | number)[]`,
		`boolean[]`:                  `boolean[]`,
		`Date | Error`:               `Date | Error`,
		`10n | bigint`:               `bigint`,
		`void`:                       `undefined`,
		`"b" | "a"`:                  `"a" | "b"`,
		`{kind: "a"} | {kind: "a"}`:  `{kind: "a"}`,
		`object | Function | symbol`: `symbol | object | Function`,
		`string & "x"`:               `"x"`,
		`{a: string} & {b: number}`:  `{a: string; b: number}`,
		`{a: string} & {a: number}`:  `never`,
		`string & number`:            `never`,
	}
	for src, expected := range testCases {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, expected, typeOf(t, u, src).String())
		})
	}
}

func TestZeroTypeIsNever(t *testing.T) {
	var zero types.Type
	assert.True(t, zero.IsNever())
	assert.True(t, zero.Equal(types.Never))
	assert.Equal(t, "never", zero.String())
	assert.False(t, types.Any.IsNever())
}

func TestUnion(t *testing.T) {
	assert.True(t, types.Union(types.String, types.Number).Equal(types.Union(types.Number, types.String)))
	assert.True(t, types.Union(types.String, types.Any).IsAny())
	assert.True(t, types.Union().IsNever())
	assert.Equal(t, "string | number", types.Union(types.String, types.Number, types.StringLit("a")).String())
}

func TestIntersect(t *testing.T) {
	u := types.NewUniverse()
	testCases := []struct {
		a, b     string
		expected string
	}{
		{`string | number`, `string`, `string`},
		{`string | number`, `boolean`, `never`},
		{`"a" | "b" | 1`, `string`, `"a" | "b"`},
		{`any`, `number`, `number`},
		{`object`, `{a: string} | Date`, `{a: string} | Date`},
		{`Error`, `TypeError`, `TypeError`},
		{`TypeError`, `RangeError`, `never`},
		{`Error`, `{message: string}`, `Error`},
		{`Date`, `{getTime: string}`, `never`},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" & "+tc.b, func(t *testing.T) {
			result := types.Intersect(typeOf(t, u, tc.a), typeOf(t, u, tc.b))
			assert.Equal(t, tc.expected, result.String())
		})
	}
}

func TestSubtract(t *testing.T) {
	u := types.NewUniverse()
	testCases := []struct {
		a, b     string
		expected string
	}{
		{`string | number`, `string`, `number`},
		{`boolean`, `true`, `false`},
		{`string`, `"a"`, `string`},
		{`"a" | "b"`, `"a"`, `"b"`},
		{`string | null | undefined`, `null | undefined`, `string`},
		{`Error | Date`, `Error`, `Date`},
		{`TypeError | Date`, `Error`, `Date`},
		{`Error`, `TypeError`, `Error`},
		{`string`, `any`, `never`},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" - "+tc.b, func(t *testing.T) {
			result := types.Subtract(typeOf(t, u, tc.a), typeOf(t, u, tc.b))
			assert.Equal(t, tc.expected, result.String())
		})
	}
}

func TestWiden(t *testing.T) {
	u := types.NewUniverse()
	assert.Equal(t, "number", types.Widen(types.NumberLit(10)).String())
	assert.Equal(t, "boolean", types.Widen(types.True).String())
	assert.Equal(t, "{kind: string; n: number}", types.Widen(typeOf(t, u, `{kind: "a"; n: 1}`)).String())
	assert.True(t, types.Widen(types.Any).IsAny())
}

func TestAssignable(t *testing.T) {
	u := types.NewUniverse()
	testCases := []struct {
		src, dst   string
		assignable bool
	}{
		{`"a"`, `string`, true},
		{`string`, `"a"`, false},
		{`10`, `string | number`, true},
		{`true`, `boolean`, true},
		{`boolean`, `true`, false},
		{`{a: string; b: number}`, `{a: string}`, true},
		{`{a: string}`, `{a: string; b: number}`, false},
		{`{a: string}`, `{a: string; b?: number}`, true},
		{`{a?: string}`, `{a: string}`, false},
		{`{a?: string}`, `{a: string | undefined}`, true},
		{`{a: "x"}`, `{a: string}`, true},
		{`Error`, `{message: string}`, true},
		{`TypeError`, `Error`, true},
		{`Error`, `TypeError`, false},
		{`Date`, `Object`, true},
		{`{a: string}`, `object`, true},
		{`string[]`, `object`, true},
		{`"a"[]`, `string[]`, true},
		{`string[]`, `{length: number}`, true},
		{`null`, `object`, false},
		{`any`, `string`, true},
		{`never`, `string`, true},
		{`string`, `unknown`, true},
	}
	for _, tc := range testCases {
		t.Run(tc.src+" <: "+tc.dst, func(t *testing.T) {
			assert.Equal(t, tc.assignable, types.Assignable(typeOf(t, u, tc.src), typeOf(t, u, tc.dst)))
		})
	}
}

func TestLookup(t *testing.T) {
	u := types.NewUniverse()
	shape := typeOf(t, u, `{kind: "circle"; radius: number} | {kind: "square"; side: number}`)

	kind, some, all := types.Lookup(shape, "kind")
	assert.Equal(t, `"circle" | "square"`, kind.String())
	assert.True(t, some)
	assert.True(t, all)

	radius, some, all := types.Lookup(shape, "radius")
	assert.Equal(t, "number", radius.String())
	assert.True(t, some)
	assert.False(t, all)

	_, some, all = types.Lookup(shape, "colour")
	assert.False(t, some)
	assert.False(t, all)

	length, _, all := types.Lookup(types.String, "length")
	assert.Equal(t, "number", length.String())
	assert.True(t, all)

	optional, _, _ := types.Lookup(typeOf(t, u, `{a?: string}`), "a")
	assert.Equal(t, "string | undefined", optional.String())

	inherited, _, all := types.Lookup(typeOf(t, u, `TypeError`), "message")
	assert.Equal(t, "string", inherited.String())
	assert.True(t, all)

	_, some, _ = types.Lookup(types.Null, "x")
	assert.False(t, some)
}

func TestUniverseClasses(t *testing.T) {
	u := types.NewUniverse()
	animal, ok := u.DeclareClass("Animal", ast.Range{})
	require.True(t, ok)
	animal.Fields = []types.Field{{Name: "name", Type: types.String}}
	dog, ok := u.DeclareClass("Dog", ast.Range{})
	require.True(t, ok)
	require.NoError(t, u.SetParent(dog, "Animal"))
	dog.Fields = []types.Field{{Name: "bark", Type: types.Function}}

	_, ok = u.DeclareClass("Dog", ast.Range{})
	assert.False(t, ok, "duplicate class")
	_, ok = u.DeclareClass("string", ast.Range{})
	assert.False(t, ok, "builtin name")

	assert.Error(t, u.SetParent(animal, "Dog"), "inheritance cycle")
	assert.Error(t, u.SetParent(animal, "Nope"))

	assert.True(t, dog.Extends(animal))
	assert.True(t, dog.Extends(u.ObjectClass()))
	assert.False(t, animal.Extends(dog))
	assert.Equal(t, []string{"Animal", "Dog", "Object"}, dog.Ancestors().Items())

	fields := dog.AllFields()
	require.Len(t, fields, 2)
	assert.Equal(t, "bark", fields[0].Name)
	assert.Equal(t, "name", fields[1].Name)

	assert.Equal(t, "Animal | Dog", typeOf(t, u, `Dog | Animal`).String())
	assert.True(t, types.Assignable(typeOf(t, u, `Dog`), typeOf(t, u, `Animal`)))
}

func TestUniverseAliasesAndErrors(t *testing.T) {
	u := types.NewUniverse()
	shapeNode, err := parser.ParseType(`Circle | {kind: "square"}`, token.NoPos)
	require.Nil(t, err)
	circleNode, err := parser.ParseType(`{kind: "circle"}`, token.NoPos)
	require.Nil(t, err)
	require.True(t, u.DeclareAlias("Shape", shapeNode))
	require.True(t, u.DeclareAlias("Circle", circleNode))
	assert.False(t, u.DeclareAlias("Circle", circleNode))

	assert.Equal(t, `{kind: "circle"} | {kind: "square"}`, typeOf(t, u, `Shape`).String())

	loopNode, err := parser.ParseType(`Loop | string`, token.NoPos)
	require.Nil(t, err)
	require.True(t, u.DeclareAlias("Loop", loopNode))

	for _, src := range []string{`Loop`, `Nope | string`} {
		node, err := parser.ParseType(src, token.NoPos)
		require.Nil(t, err)
		typ, errs := u.FromAST(node)
		require.True(t, errs.HasError(), src)
		assert.Equal(t, ilerr.UnknownType, errs.Errors()[0].Code())
		assert.True(t, typ.IsAny(), "unknown types are converted to any")
	}
}

func TestPredicates(t *testing.T) {
	u := types.NewUniverse()
	u.DeclarePredicate("isString", types.String)
	p, ok := u.Predicate("isString")
	assert.True(t, ok)
	assert.True(t, p.Equal(types.String))
	_, ok = u.Predicate("isNumber")
	assert.False(t, ok)
}

func TestTagFromTypeof(t *testing.T) {
	for _, tag := range types.Tags {
		if tag == types.TagNull {
			continue
		}
		parsed, ok := types.TagFromTypeof(types.TypeofName(tag))
		assert.True(t, ok)
		assert.Equal(t, tag, parsed)
	}
	assert.Equal(t, "object", types.TypeofName(types.TagNull))
	_, ok := types.TagFromTypeof("strnig")
	assert.False(t, ok)
}
