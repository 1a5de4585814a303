package flow_test

import (
	"go/token"
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/flow"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/parser"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expr(t *testing.T, src string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpr(src, token.NoPos)
	require.Nil(t, err, "parse %s: %v", src, err)
	return e
}

func typ(t *testing.T, src string) ast.Type {
	t.Helper()
	ty, err := parser.ParseType(src, token.NoPos)
	require.Nil(t, err, "parse %s: %v", src, err)
	return ty
}

func param(t *testing.T, name, src string) ast.Param {
	return ast.Param{Name: name, Type: typ(t, src)}
}

func probe(t *testing.T, src string) *ast.Probe {
	return &ast.Probe{X: expr(t, src)}
}

func testUniverse(t *testing.T) *types.Universe {
	u := types.NewUniverse()
	animal, _ := u.DeclareClass("Animal", ast.Range{})
	_, _ = u.DeclareClass("Dog", ast.Range{})
	dog, _ := u.Class("Dog")
	require.NoError(t, u.SetParent(dog, animal.Name))
	require.True(t, u.DeclareAlias("Shape", typ(t, `{kind: "circle"; radius: number} | {kind: "square"; side: number}`)))
	return u
}

type flowCase struct {
	params []ast.Param
	body   []ast.Stmt
	probes []string
	codes  []ilerr.ErrCode
}

func runFlowCases(t *testing.T, testCases map[string]flowCase) {
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			a := flow.New(testUniverse(t))
			res := a.Analyze(&ast.Function{Name: name, Params: tc.params, Body: tc.body})
			require.Empty(t, res.Failures)

			probes := make([]string, len(res.Probes))
			for i, p := range res.Probes {
				probes[i] = p.String()
			}
			assert.Equal(t, tc.probes, probes)
			if len(tc.codes) == 0 {
				assert.False(t, res.Errors.HasError(), "unexpected errors: %v", res.Errors.Errors())
			} else {
				assert.ElementsMatch(t, tc.codes, res.Errors.Codes(), "errors: %v", res.Errors.Errors())
			}
		})
	}
}

func TestBranches(t *testing.T) {
	runFlowCases(t, map[string]flowCase{
		"typeof then return": {
			params: []ast.Param{param(t, "padding", "number | string")},
			body: []ast.Stmt{
				&ast.If{
					Cond: expr(t, `typeof padding === "number"`),
					Then: []ast.Stmt{probe(t, "padding"), &ast.Return{}},
				},
				probe(t, "padding"),
			},
			probes: []string{"padding: number", "padding: string"},
		},
		"truthiness": {
			params: []ast.Param{param(t, "x", "string | null | undefined")},
			body: []ast.Stmt{
				&ast.If{
					Cond: expr(t, "x"),
					Then: []ast.Stmt{probe(t, "x")},
					Else: []ast.Stmt{probe(t, "x")},
				},
			},
			probes: []string{"x: string", `x: "" | null | undefined`},
		},
		"loose null": {
			params: []ast.Param{param(t, "x", "number | null")},
			body: []ast.Stmt{
				&ast.If{Cond: expr(t, "x == null"), Then: []ast.Stmt{&ast.Return{}}},
				probe(t, "x"),
			},
			probes: []string{"x: number"},
		},
		"join": {
			params: []ast.Param{param(t, "x", "string | number"), param(t, "c", "boolean")},
			body: []ast.Stmt{
				&ast.If{
					Cond: expr(t, "c"),
					Then: []ast.Stmt{&ast.Assign{Name: "x", Value: expr(t, `"a"`)}, probe(t, "x")},
					Else: []ast.Stmt{&ast.Assign{Name: "x", Value: expr(t, "1")}, probe(t, "x")},
				},
				probe(t, "x"),
			},
			probes: []string{"x: string", "x: number", "x: string | number"},
		},
		"throw contributes nothing": {
			params: []ast.Param{param(t, "x", "string | null")},
			body: []ast.Stmt{
				&ast.If{Cond: expr(t, "x === null"), Then: []ast.Stmt{&ast.Throw{}}},
				probe(t, "x"),
			},
			probes: []string{"x: string"},
		},
		"and or": {
			params: []ast.Param{param(t, "x", "string | number | null")},
			body: []ast.Stmt{
				&ast.If{
					Cond: expr(t, `x !== null && typeof x !== "string"`),
					Then: []ast.Stmt{probe(t, "x")},
					Else: []ast.Stmt{probe(t, "x")},
				},
				&ast.If{
					Cond: expr(t, `x === null || typeof x === "number"`),
					Then: []ast.Stmt{probe(t, "x")},
					Else: []ast.Stmt{probe(t, "x")},
				},
			},
			probes: []string{"x: number", "x: string | null", "x: number | null", "x: string"},
		},
		"discriminant": {
			params: []ast.Param{param(t, "s", "Shape")},
			body: []ast.Stmt{
				&ast.If{
					Cond: expr(t, `s.kind === "circle"`),
					Then: []ast.Stmt{probe(t, "s.radius"), probe(t, "s.kind")},
					Else: []ast.Stmt{probe(t, "s.side")},
				},
			},
			probes: []string{"s.radius: number", `s.kind: "circle"`, "s.side: number"},
		},
		"instanceof": {
			params: []ast.Param{param(t, "a", "Animal | string")},
			body: []ast.Stmt{
				&ast.If{
					Cond: expr(t, "a instanceof Dog"),
					Then: []ast.Stmt{probe(t, "a")},
					Else: []ast.Stmt{probe(t, "a")},
				},
			},
			probes: []string{"a: Dog", "a: string | Animal"},
		},
		"exhaustive switch": {
			params: []ast.Param{param(t, "s", "Shape")},
			body: []ast.Stmt{
				&ast.Switch{
					Subject: expr(t, "s.kind"),
					Cases: []ast.Case{
						{Values: []ast.Expr{expr(t, `"circle"`)}, Body: []ast.Stmt{&ast.Return{}}},
						{Values: []ast.Expr{expr(t, `"square"`)}, Body: []ast.Stmt{&ast.Return{}}},
					},
				},
				probe(t, "s"),
			},
			probes: []string{"s: never"},
		},
	})
}

func TestLoops(t *testing.T) {
	runFlowCases(t, map[string]flowCase{
		"assignment in loop": {
			params: []ast.Param{param(t, "x", "string | number")},
			body: []ast.Stmt{
				&ast.While{
					Cond: expr(t, `typeof x === "string"`),
					Body: []ast.Stmt{probe(t, "x"), &ast.Assign{Name: "x", Value: expr(t, "1")}},
				},
				probe(t, "x"),
			},
			probes: []string{"x: string", "x: number"},
		},
		"widened by back edge": {
			params: []ast.Param{param(t, "x", "string | number | null"), param(t, "c", "boolean")},
			body: []ast.Stmt{
				&ast.Assign{Name: "x", Value: expr(t, "null")},
				&ast.While{
					Cond: expr(t, "c"),
					Body: []ast.Stmt{
						probe(t, "x"),
						&ast.If{
							Cond: expr(t, "x === null"),
							Then: []ast.Stmt{&ast.Assign{Name: "x", Value: expr(t, `"a"`)}},
							Else: []ast.Stmt{&ast.Assign{Name: "x", Value: expr(t, "1")}},
						},
					},
				},
				probe(t, "x"),
			},
			probes: []string{"x: string | number | null", "x: string | number | null"},
		},
		"break": {
			params: []ast.Param{param(t, "x", "string | number")},
			body: []ast.Stmt{
				&ast.While{
					Cond: expr(t, "true"),
					Body: []ast.Stmt{
						&ast.If{Cond: expr(t, `typeof x === "number"`), Then: []ast.Stmt{&ast.Break{}}},
					},
				},
				probe(t, "x"),
			},
			probes: []string{"x: number"},
		},
		"infinite loop": {
			params: []ast.Param{param(t, "x", "string")},
			body: []ast.Stmt{
				&ast.While{Cond: expr(t, "true"), Body: []ast.Stmt{probe(t, "x")}},
				probe(t, "x"),
			},
			probes: []string{"x: string"},
			codes:  []ilerr.ErrCode{ilerr.UnreachableCode},
		},
	})
}

func TestStatements(t *testing.T) {
	runFlowCases(t, map[string]flowCase{
		"let widens, const does not": {
			body: []ast.Stmt{
				&ast.Let{Name: "a", Init: expr(t, `"a"`)},
				&ast.Let{Name: "b", Init: expr(t, `"b"`), Const: true},
				probe(t, "a"),
				probe(t, "b"),
			},
			probes: []string{"a: string", `b: "b"`},
		},
		"annotated let narrows to the initialiser": {
			body: []ast.Stmt{
				&ast.Let{Name: "a", Type: typ(t, "string | number | undefined"), Init: expr(t, "3")},
				probe(t, "a"),
			},
			probes: []string{"a: number"},
		},
		"assignment out of range": {
			body: []ast.Stmt{
				&ast.Let{Name: "a", Type: typ(t, "string"), Init: expr(t, "3")},
				probe(t, "a"),
			},
			probes: []string{"a: string"},
			codes:  []ilerr.ErrCode{ilerr.AssignmentOutOfDeclaredRange},
		},
		"const assignment": {
			body: []ast.Stmt{
				&ast.Let{Name: "a", Init: expr(t, "1"), Const: true},
				&ast.Assign{Name: "a", Value: expr(t, "2")},
				probe(t, "a"),
			},
			probes: []string{"a: 1"},
			codes:  []ilerr.ErrCode{ilerr.ConstAssignment},
		},
		"undefined variable": {
			body:   []ast.Stmt{probe(t, "nope"), &ast.Assign{Name: "nope", Value: expr(t, "1")}},
			probes: []string{"nope: any"},
			codes:  []ilerr.ErrCode{ilerr.UndefinedVariable},
		},
		"member access": {
			params: []ast.Param{param(t, "x", "string | number")},
			body: []ast.Stmt{
				&ast.Access{X: expr(t, "x.toFixed")},
				&ast.If{
					Cond: expr(t, `typeof x === "string"`),
					Then: []ast.Stmt{&ast.Access{X: expr(t, "x.toUpperCase")}},
				},
			},
			probes: []string{},
			codes:  []ilerr.ErrCode{ilerr.InvalidMemberAccess},
		},
		"assert": {
			params: []ast.Param{param(t, "x", "string | number")},
			body: []ast.Stmt{
				&ast.Assert{Cond: expr(t, `typeof x === "string"`)},
				probe(t, "x"),
			},
			probes: []string{"x: string"},
		},
		"assert false": {
			params: []ast.Param{param(t, "x", "string")},
			body: []ast.Stmt{
				&ast.Assert{Cond: expr(t, "false")},
				probe(t, "x"),
			},
			probes: []string{},
			codes:  []ilerr.ErrCode{ilerr.UnreachableCode},
		},
		"probe mismatch": {
			params: []ast.Param{param(t, "x", "string | number")},
			body:   []ast.Stmt{&ast.Probe{X: expr(t, "x"), Expect: typ(t, "string")}},
			probes: []string{"x: string | number"},
			codes:  []ilerr.ErrCode{ilerr.ProbeMismatch},
		},
		"code after return": {
			body:   []ast.Stmt{&ast.Return{}, &ast.Let{Name: "a", Init: expr(t, "1")}, probe(t, "a")},
			probes: []string{},
			codes:  []ilerr.ErrCode{ilerr.UnreachableCode},
		},
		"guard on never": {
			params: []ast.Param{param(t, "x", "string")},
			body: []ast.Stmt{
				&ast.If{Cond: expr(t, `typeof x === "string"`), Then: []ast.Stmt{&ast.Return{}}},
				&ast.If{Cond: expr(t, `typeof x === "number"`), Then: []ast.Stmt{&ast.Return{}}},
			},
			probes: []string{},
			codes:  []ilerr.ErrCode{ilerr.UnreachableNarrowing},
		},
	})
}

func TestExpressions(t *testing.T) {
	runFlowCases(t, map[string]flowCase{
		"and value": {
			params: []ast.Param{param(t, "x", "string | null")},
			body: []ast.Stmt{
				&ast.Let{Name: "n", Init: expr(t, "x && x.length"), Const: true},
				probe(t, "n"),
			},
			probes: []string{`n: "" | number | null`},
		},
		"or value": {
			params: []ast.Param{param(t, "x", "number | undefined")},
			body: []ast.Stmt{
				&ast.Let{Name: "n", Init: expr(t, `x || "none"`), Const: true},
				probe(t, "n"),
			},
			probes: []string{`n: "none" | number`},
		},
		"ternary": {
			params: []ast.Param{param(t, "x", "string | number")},
			body: []ast.Stmt{
				&ast.Let{Name: "n", Init: expr(t, `typeof x === "string" ? x.length : x`), Const: true},
				probe(t, "n"),
			},
			probes: []string{"n: number"},
		},
		"typeof value": {
			params: []ast.Param{param(t, "x", "string | null")},
			body: []ast.Stmt{
				&ast.Let{Name: "n", Init: expr(t, "typeof x"), Const: true},
				probe(t, "n"),
			},
			probes: []string{`n: "object" | "string"`},
		},
		"typed value": {
			body: []ast.Stmt{
				&ast.Let{Name: "v", Type: typ(t, "string | number"), Init: expr(t, "<string>")},
				probe(t, "v"),
			},
			probes: []string{"v: string"},
		},
	})
}

func TestNonConvergenceIsAFailure(t *testing.T) {
	a := flow.New(testUniverse(t))
	a.MaxPasses = 1
	res := a.Analyze(&ast.Function{
		Name:   "loop",
		Params: []ast.Param{param(t, "c", "boolean")},
		Body:   []ast.Stmt{&ast.While{Cond: expr(t, "c"), Body: []ast.Stmt{probe(t, "c")}}},
	})
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Error(), "did not converge")
}

func TestExitEnvironment(t *testing.T) {
	a := flow.New(testUniverse(t))
	res := a.Analyze(&ast.Function{
		Name:   "f",
		Params: []ast.Param{param(t, "x", "string | number | null")},
		Body: []ast.Stmt{
			&ast.If{Cond: expr(t, "x === null"), Then: []ast.Stmt{&ast.Throw{}}},
		},
	})
	x, ok := res.Exit.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "string | number", x.String())
}

func TestJoin(t *testing.T) {
	a := flow.NewEnv().Declare("x", types.Union(types.String, types.Number), types.String, false)
	b := flow.NewEnv().Declare("x", types.Union(types.String, types.Number), types.Number, false)

	joined := flow.Join(a, b)
	x, ok := joined.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "string | number", x.String())

	assert.True(t, flow.Join(a, flow.Unreachable()).Equal(a))
	assert.True(t, flow.Join(flow.Unreachable(), b).Equal(b))
	assert.True(t, flow.Join(flow.Unreachable(), flow.Unreachable()).IsUnreachable())
}

func TestNarrowForgetsProperties(t *testing.T) {
	record := types.NewRecord(types.Field{Name: "v", Type: types.Union(types.String, types.Number)})
	env := flow.NewEnv().Declare("o", record, record, false)
	env = env.Narrow("o.v", types.String)

	v, ok := env.Lookup("o.v")
	require.True(t, ok)
	assert.Equal(t, "string", v.String())

	env = env.Narrow("o", record)
	v, ok = env.Lookup("o.v")
	require.True(t, ok)
	assert.Equal(t, "string | number", v.String())

	_, ok = env.Lookup("o.missing")
	assert.False(t, ok)
	_, ok = env.Lookup("nope")
	assert.False(t, ok)
}
