package types_test

import (
	"math"
	"testing"

	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literal(t *testing.T, typ types.Type) types.Literal {
	t.Helper()
	require.Equal(t, 1, typ.Len())
	lit, ok := typ.Members()[0].(types.Literal)
	require.True(t, ok, "%v is not a literal", typ)
	return lit
}

func bigint(t *testing.T, digits string) types.Type {
	t.Helper()
	typ, ok := types.BigintLit(digits)
	require.True(t, ok)
	return typ
}

func TestLooselyEqual(t *testing.T) {
	testCases := []struct {
		a, b  types.Type
		equal bool
	}{
		{types.StringLit(""), types.NumberLit(0), true},
		{types.StringLit(" 12 "), types.NumberLit(12), true},
		{types.StringLit("0x10"), types.NumberLit(16), true},
		{types.StringLit("1e3"), types.NumberLit(1000), true},
		{types.StringLit("Infinity"), types.NumberLit(math.Inf(1)), true},
		{types.StringLit("inf"), types.NumberLit(math.Inf(1)), false},
		{types.StringLit("1_000"), types.NumberLit(1000), false},
		{types.StringLit("a"), types.NumberLit(0), false},
		{types.NumberLit(0), types.False, true},
		{types.StringLit(""), types.False, true},
		{types.StringLit("1"), types.True, true},
		{types.StringLit("true"), types.True, false},
		{types.NumberLit(2), types.True, false},
		{bigint(t, "10"), types.NumberLit(10), true},
		{bigint(t, "10"), types.NumberLit(10.5), false},
		{bigint(t, "10"), types.StringLit("10"), true},
		{bigint(t, "10"), types.StringLit("10.0"), false},
		{bigint(t, "0"), types.False, true},
		{types.NaN, types.NaN, false},
		{types.StringLit("NaN"), types.NaN, false},
		{types.StringLit("a"), types.StringLit("a"), true},
		{types.StringLit("a"), types.StringLit("b"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.a.String()+" == "+tc.b.String(), func(t *testing.T) {
			a, b := literal(t, tc.a), literal(t, tc.b)
			assert.Equal(t, tc.equal, types.LooselyEqual(a, b))
			assert.Equal(t, tc.equal, types.LooselyEqual(b, a), "reversed")
		})
	}
}

func TestMayLooselyEqual(t *testing.T) {
	member := func(typ types.Type) types.Member { return typ.Members()[0] }
	zero := literal(t, types.NumberLit(0))
	word := literal(t, types.StringLit("a"))

	assert.True(t, types.MayLooselyEqual(member(types.String), zero))
	assert.True(t, types.MayLooselyEqual(member(types.Bigint), zero))
	assert.True(t, types.MayLooselyEqual(member(types.Object), zero))
	assert.False(t, types.MayLooselyEqual(member(types.Null), zero))
	assert.False(t, types.MayLooselyEqual(member(types.Symbol), zero))
	assert.False(t, types.MayLooselyEqual(member(types.Number), word))
	assert.False(t, types.MayLooselyEqual(member(types.Bigint), word))
	assert.True(t, types.MayLooselyEqual(member(types.Number), literal(t, types.True)))
	assert.False(t, types.MayLooselyEqual(member(types.Bigint), literal(t, types.NumberLit(0.5))))
}
