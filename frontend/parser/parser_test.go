package parser_test

import (
	"go/token"
	"strings"
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr(t *testing.T) {
	exprCases := map[string]string{
		`typeof x === "string"`:            `(typeof x === "string")`,
		`"string" === typeof x`:            `("string" === typeof x)`,
		`x`:                                `x`,
		`!x`:                               `!x`,
		`x == null`:                        `(x == null)`,
		`s.kind !== 'circle'`:              `(s.kind !== "circle")`,
		`"swim" in animal`:                 `("swim" in animal)`,
		`x instanceof Date`:                `(x instanceof Date)`,
		`isFish(pet)`:                      `isFish(pet)`,
		`a && b || c`:                      `((a && b) || c)`,
		`a || b && c`:                      `(a || (b && c))`,
		`!(a && b)`:                        `!(a && b)`,
		`x === -1`:                         `(x === -1)`,
		`n === 0n`:                         `(n === 0n)`,
		`Math.random() < 0.5`:              `(Math.random() < 0.5)`,
		`c ? x : y`:                        `(c ? x : y)`,
		`typeof x === "number" && x > 1e3`: `((typeof x === "number") && (x > 1e3))`,
		`x === undefined`:                  `(x === undefined)`,
		`x !== NaN`:                        `(x !== NaN)`,
		`padding + input`:                  `(padding + input)`,
		`obj.a.b === true`:                 `(obj.a.b === true)`,
		`<string | number>`:                `<string | number>`,
	}

	for src, expected := range exprCases {
		t.Run(src, func(t *testing.T) {
			expr, err := parser.ParseExpr(src, token.NoPos)
			require.Nil(t, err, "unexpected error: %v", err)
			assert.Equal(t, expected, expr.String())
		})
	}
}

func TestParseExprLiterals(t *testing.T) {
	testCases := []struct {
		src   string
		kind  ast.LitKind
		value string
	}{
		{`"hi"`, ast.LitString, "hi"},
		{`'it\'s'`, ast.LitString, "it's"},
		{`3.5`, ast.LitNumber, "3.5"},
		{`-2`, ast.LitNumber, "-2"},
		{`NaN`, ast.LitNumber, "NaN"},
		{`10n`, ast.LitBigint, "10"},
		{`false`, ast.LitBool, "false"},
		{`null`, ast.LitNull, "null"},
		{`undefined`, ast.LitUndefined, "undefined"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			expr, err := parser.ParseExpr(tc.src, token.NoPos)
			require.Nil(t, err)
			lit, ok := expr.(*ast.Literal)
			require.True(t, ok, "expected a literal, got %T", expr)
			assert.Equal(t, tc.kind, lit.Kind)
			assert.Equal(t, tc.value, lit.Value)
		})
	}
}

func TestParseExprPositions(t *testing.T) {
	base := token.Pos(100)
	expr, err := parser.ParseExpr(`typeof x === "string"`, base)
	require.Nil(t, err)

	bin, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, base, bin.Pos())
	assert.Equal(t, base+21, bin.End())

	typeofExpr := bin.Left.(*ast.Typeof)
	assert.Equal(t, base+7, typeofExpr.X.Pos())
	assert.Equal(t, base+13, bin.Right.Pos())

	path, ok := ast.RefPath(typeofExpr.X)
	assert.True(t, ok)
	assert.Equal(t, "x", path)
}

func TestRefPath(t *testing.T) {
	expr, err := parser.ParseExpr(`a.b.c`, token.NoPos)
	require.Nil(t, err)
	path, ok := ast.RefPath(expr)
	assert.True(t, ok)
	assert.Equal(t, "a.b.c", path)

	expr, err = parser.ParseExpr(`f(a).b`, token.NoPos)
	require.Nil(t, err)
	_, ok = ast.RefPath(expr)
	assert.False(t, ok)
}

func TestParseType(t *testing.T) {
	typeCases := map[string]string{
		`string`:                           `string`,
		`string | number`:                  `string | number`,
		`| "a" | "b"`:                      `"a" | "b"`,
		`{kind: "circle"; radius: number}`: `{kind: "circle"; radius: number}`,
		`{a?: string, b: number[]}`:        `{a?: string; b: number[]}`,
		`(string | null)[]`:                `(string | null)[]`,
		`Fish & {name: string}`:            `Fish & {name: string}`,
		`true | -1 | 0n`:                   `true | -1 | 0n`,
		`{}`:                               `{}`,
	}

	for src, expected := range typeCases {
		t.Run(src, func(t *testing.T) {
			typ, err := parser.ParseType(src, token.NoPos)
			require.Nil(t, err, "unexpected error: %v", err)
			assert.Equal(t, expected, typ.String())
		})
	}
}

func TestParseArrayOfParenthesisedUnion(t *testing.T) {
	typ, err := parser.ParseType(`(string | null)[]`, token.NoPos)
	require.Nil(t, err)
	arr, ok := typ.(*ast.ArrayType)
	require.True(t, ok, "expected an array, got %T", typ)
	_, ok = arr.Elem.(*ast.UnionType)
	assert.True(t, ok)
}

func TestParseErrors(t *testing.T) {
	errorCases := map[string][]string{
		`x ===`:         {"expected expression", "end of input"},
		`"unterminated`: {"unterminated string"},
		`x # y`:         {"unexpected character"},
		`(x`:            {"expected ')'"},
		`x y`:           {"unexpected 'y'"},
		`typeof`:        {"expected expression"},
		`a.`:            {"expected identifier"},
	}

	for src, expected := range errorCases {
		t.Run(src, func(t *testing.T) {
			_, err := parser.ParseExpr(src, token.Pos(1))
			require.NotNil(t, err)
			assert.Equal(t, ilerr.Parse, err.Code())
			for _, msg := range expected {
				assert.True(t, strings.Contains(err.Error(), msg), "expected to find '%s' in '%s'", msg, err.Error())
			}
		})
	}

	_, err := parser.ParseType(`{a: }`, token.NoPos)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "expected type")
}
