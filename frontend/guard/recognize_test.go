package guard_test

import (
	"go/token"
	"testing"

	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/parser"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recognise(t *testing.T, src string) (guard.Cond, *ilerr.Errors) {
	t.Helper()
	u := types.NewUniverse()
	u.DeclarePredicate("isFish", types.NewRecord(types.Field{Name: "swim", Type: types.Function}))
	expr, err := parser.ParseExpr(src, token.Pos(1))
	require.Nil(t, err, "parse %s: %v", src, err)
	return guard.NewRecognizer(u).FromExpr(expr)
}

func TestFromExpr(t *testing.T) {
	condCases := map[string]string{
		`typeof x === "string"`:      `typeof x === "string"`,
		`"number" == typeof x`:       `typeof x === "number"`,
		`typeof x !== "undefined"`:   `!(typeof x === "undefined")`,
		`x`:                          `x`,
		`!x`:                         `!(x)`,
		`x == null`:                  `x == null | undefined`,
		`undefined != x`:             `!(x == null | undefined)`,
		`x === null`:                 `x === null`,
		`x !== "a"`:                  `!(x === "a")`,
		`s.kind === "circle"`:        `s.kind === "circle"`,
		`"square" === s.kind`:        `s.kind === "square"`,
		`"swim" in pet`:              `"swim" in pet`,
		`e instanceof TypeError`:     `e instanceof TypeError`,
		`isFish(pet)`:                `isFish(pet)`,
		`x === y`:                    `x === y`,
		`x && typeof x === "object"`: `(x && typeof x === "object")`,
		`a || !b`:                    `(a || !(b))`,
		`true`:                       `true`,
		`0`:                          `false`,
		`"non-empty"`:                `true`,
		`Math.random() < 0.5`:        `(Math.random() < 0.5)`,
		`isBird(pet)`:                `isBird(pet)`,
		`typeof f(x) === "string"`:   `(typeof f(x) === "string")`,
		`opts.debug`:                 `opts.debug`,
		`typeof o.name === "string"`: `typeof o.name === "string"`,
	}

	for src, expected := range condCases {
		t.Run(src, func(t *testing.T) {
			cond, errs := recognise(t, src)
			assert.False(t, errs.HasError(), "unexpected errors: %v", errs.Errors())
			assert.Equal(t, expected, cond.String())
		})
	}
}

func TestFromExprKinds(t *testing.T) {
	cond, _ := recognise(t, `s.kind === "circle"`)
	test, ok := cond.(*guard.Test)
	require.True(t, ok)
	disc, ok := test.Guard.(*guard.DiscriminantGuard)
	require.True(t, ok, "expected a discriminant guard, got %T", test.Guard)
	assert.Equal(t, "s", disc.Subject())
	assert.Equal(t, "kind", disc.Prop)
	assert.Equal(t, "s.kind", disc.AsEquality().Subject())
	assert.True(t, disc.Strict)

	cond, _ = recognise(t, `x == undefined`)
	eq := cond.(*guard.Test).Guard.(*guard.EqualityGuard)
	assert.False(t, eq.Strict)
	assert.True(t, eq.Value.Equal(types.Nullish))

	cond, _ = recognise(t, `isFish(pet)`)
	pred := cond.(*guard.Test).Guard.(*guard.PredicateGuard)
	assert.Equal(t, "{swim: Function}", pred.Type.String())

	cond, _ = recognise(t, `Math.random() < 0.5`)
	_, ok = cond.(*guard.Opaque)
	assert.True(t, ok)

	cond, _ = recognise(t, `x === y`)
	same := cond.(*guard.Test).Guard.(*guard.SameValueGuard)
	flipped := same.Flipped(types.String)
	assert.Equal(t, "y", flipped.Subject())
	assert.Equal(t, "x", flipped.Other)
	assert.True(t, flipped.OtherType.Equal(types.String))
}

func TestFromExprPositions(t *testing.T) {
	cond, _ := recognise(t, `a && typeof b === "string"`)
	and := cond.(*guard.And)
	assert.Equal(t, token.Pos(1), and.Pos())
	assert.Equal(t, token.Pos(6), and.Y.Pos())
}

func TestInvalidGuards(t *testing.T) {
	invalidCases := map[string]string{
		`typeof x === "strnig"`:  "not a possible result of typeof",
		`typeof x !== "integer"`: "not a possible result of typeof",
		`typeof x === 1`:         "not a string",
		`x instanceof Nope`:      "'Nope' is not declared",
		`y in x`:                 "must be a string literal",
	}
	for src, expected := range invalidCases {
		t.Run(src, func(t *testing.T) {
			cond, errs := recognise(t, src)
			require.True(t, errs.HasError())
			assert.Equal(t, ilerr.InvalidGuard, errs.Errors()[0].Code())
			assert.Contains(t, errs.Errors()[0].Error(), expected)
			_, opaque := cond.(*guard.Opaque)
			assert.True(t, opaque, "invalid guards narrow nothing, got %s", cond)
			assert.True(t, errs.Errors()[0].Pos().IsValid())
		})
	}
}

func TestSubjects(t *testing.T) {
	cond, _ := recognise(t, `typeof a === "string" && (b || c === d) && !e.x`)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e.x"}, guard.Subjects(cond).Slice())
}

func TestSingle(t *testing.T) {
	testCases := []struct {
		src     string
		guard   string
		negated bool
		ok      bool
	}{
		{`typeof x === "string"`, `typeof x === "string"`, false, true},
		{`!x`, `x`, true, true},
		{`!!x`, `x`, false, true},
		{`x !== null`, `x === null`, true, true},
		{`x && y`, ``, false, false},
		{`Math.random() < 0.5`, ``, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			cond, _ := recognise(t, tc.src)
			g, negated, ok := guard.Single(cond)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.guard, g.String())
			assert.Equal(t, tc.negated, negated)
		})
	}
}
