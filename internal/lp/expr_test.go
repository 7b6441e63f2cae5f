package lp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
)

func TestFromParamCarriesPresence(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := arr.New(s)
	a.Set(1, 3)

	e := FromParam(a)
	vals := e.Eval(nil)
	_, ok := vals.At(0)
	assert.False(t, ok)
	v, ok := vals.At(1)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestAddUnionsPresence(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := arr.New(s)
	a.Set(0, 1)
	b := arr.New(s)
	b.Set(1, 2)

	sum, err := FromParam(a).Add(FromParam(b))
	require.NoError(t, err)
	vals := sum.Eval(nil)
	v, ok := vals.At(0)
	assert.True(t, ok, "one present side keeps the cell")
	assert.Equal(t, 1.0, v)
	v, ok = vals.At(1)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = vals.At(2)
	assert.False(t, ok, "both sides absent stays absent")
}

func TestMulParamIntersectsPresence(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := arr.Full(s, 2)
	partial := arr.New(s)
	partial.Set(0, 10)

	prod, err := FromParam(a).MulParam(partial)
	require.NoError(t, err)
	vals := prod.Eval(nil)
	v, ok := vals.At(0)
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)
	_, ok = vals.At(1)
	assert.False(t, ok, "absent multiplier suppresses the cell")
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 10})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	scaled := e.MulScalar(3)
	shifted, err := e.Shift(coords.Year, 1)
	require.NoError(t, err)
	_ = shifted

	// the base expression still evaluates with unit coefficients
	vals := e.Eval([]float64{1, 1, 1})
	v, _ := vals.At(0)
	assert.Equal(t, 1.0, v)
	v, _ = scaled.Eval([]float64{1, 1, 1}).At(0)
	assert.Equal(t, 3.0, v)
}

func TestSumOverMergesTerms(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Technology, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 10})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	byYear, err := e.SumOver(coords.Technology)
	require.NoError(t, err)
	assert.Equal(t, []string{coords.Year}, byYear.Space().Dims())

	primal := []float64{1, 2, 3, 4, 5, 6}
	vals := byYear.Eval(primal)
	v, ok := vals.At(0)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v, "coal 2020 + wind 2020")
}

func TestShiftByYearMovesTerms(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 10})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	prev, err := e.Shift(coords.Year, 1)
	require.NoError(t, err)
	vals := prev.Eval([]float64{7, 8, 9})
	_, ok := vals.At(0)
	assert.False(t, ok, "first year has no predecessor")
	v, _ := vals.At(1)
	assert.Equal(t, 7.0, v)
	v, _ = vals.At(2)
	assert.Equal(t, 8.0, v)
}

func TestWhereAndFillAbsentZero(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := arr.Full(s, 1)
	e := FromParam(a)

	mask := arr.NewMask(s)
	mask.Set(2, true)
	kept, err := e.Where(mask)
	require.NoError(t, err)
	vals := kept.Eval(nil)
	_, ok := vals.At(0)
	assert.False(t, ok)
	_, ok = vals.At(2)
	assert.True(t, ok)

	filled := kept.FillAbsentZero()
	v, ok := filled.Eval(nil).At(0)
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestMergedCombinesDuplicateColumns(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 10})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	double, err := e.Add(e)
	require.NoError(t, err)
	ts := double.merged(0)
	require.Len(t, ts, 1)
	assert.Equal(t, 2.0, ts[0].Coeff)
}

func TestCacheComputesOnce(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	c := NewCache()

	calls := 0
	build := func() (*Expr, error) {
		calls++
		return FromParam(arr.Full(s, 1)), nil
	}
	first, err := c.GetOrCompute("Demand", build)
	require.NoError(t, err)
	second, err := c.GetOrCompute("Demand", build)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	got, err := c.Get("Demand")
	require.NoError(t, err)
	assert.Same(t, first, got)
	_, err = c.Get("Missing")
	assert.Error(t, err)
}

func TestCacheDetectsCycles(t *testing.T) {
	c := NewCache()
	var err error
	_, err = c.GetOrCompute("A", func() (*Expr, error) {
		_, inner := c.GetOrCompute("A", func() (*Expr, error) { return nil, nil })
		return nil, inner
	})
	assert.ErrorContains(t, err, "depends on itself")
}
