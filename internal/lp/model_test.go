package lp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
)

func testUniverse(t *testing.T) *coords.Universe {
	t.Helper()
	u := coords.NewUniverse()
	require.NoError(t, u.Declare(coords.Region, []string{"R1"}))
	require.NoError(t, u.Declare(coords.Technology, []string{"coal", "wind"}))
	require.NoError(t, u.Declare(coords.Year, []string{"2020", "2021", "2022"}))
	return u
}

func space(t *testing.T, u *coords.Universe, dims ...string) *coords.Space {
	t.Helper()
	s, err := u.Space(dims...)
	require.NoError(t, err)
	return s
}

func TestDeclareValidatesUpFront(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)

	_, err := m.Declare("X", s, VarSpec{Lower: 0, Upper: 10})
	require.NoError(t, err)

	_, err = m.Declare("X", s, VarSpec{Lower: 0, Upper: 10})
	assert.Error(t, err, "duplicate name")

	_, err = m.Declare("Y", s, VarSpec{Lower: 5, Upper: 1})
	assert.Error(t, err, "lower above upper")
}

func TestMaskedCellsGetNoColumn(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	mask := arr.NewMask(s)
	mask.Set(1, true)

	v, err := m.Declare("X", s, VarSpec{Upper: 1, Mask: mask})
	require.NoError(t, err)
	assert.Equal(t, 1, v.ActiveCount())
	assert.False(t, v.Active(0))
	assert.True(t, v.Active(1))
	assert.Equal(t, 1, m.NumCols())

	// masked cells read back absent, not zero
	vals := v.Values([]float64{3.5})
	_, ok := vals.At(0)
	assert.False(t, ok)
	got, ok := vals.At(1)
	assert.True(t, ok)
	assert.Equal(t, 3.5, got)
}

func TestVarExprPinsMaskedCellsToZero(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	mask := arr.NewMask(s)
	mask.Set(0, true)

	_, err := m.Declare("X", s, VarSpec{Upper: 1, Mask: mask})
	require.NoError(t, err)

	e, err := m.VarExpr("X")
	require.NoError(t, err)
	vals := e.Eval([]float64{2})
	got, ok := vals.At(0)
	assert.True(t, ok)
	assert.Equal(t, 2.0, got)
	got, ok = vals.At(1)
	assert.True(t, ok, "masked cell participates as constant zero")
	assert.Zero(t, got)
}

func TestAddConstraintFoldsRelationIntoBounds(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 100})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	// X - 5 >= 0 per year
	bound, err := e.SubParam(arr.Full(s, 5))
	require.NoError(t, err)
	g, err := m.AddConstraint("floor", bound, Ge, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumRows())

	row := m.rows[g.RowAt(0)]
	assert.Equal(t, 5.0, row.Lower)
	assert.True(t, math.IsInf(row.Upper, 1))
	require.Len(t, row.Terms, 1)
	assert.Equal(t, 1.0, row.Terms[0].Coeff)

	_, err = m.AddConstraint("floor", bound, Ge, nil)
	assert.Error(t, err, "duplicate group name")
}

func TestAddConstraintSkipsAbsentCellsAndHonoursMask(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 100})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	mask := arr.NewMask(s)
	mask.Set(2, true)
	g, err := m.AddConstraint("capped", e, Le, mask)
	require.NoError(t, err)
	assert.Equal(t, -1, g.RowAt(0))
	assert.GreaterOrEqual(t, g.RowAt(2), 0)
	assert.Equal(t, 1, m.NumRows())

	// a non-empty mask that produces no row is an error, not a no-op
	absent := newExpr(s)
	_, err = m.AddConstraint("ghost", absent, Le, mask)
	assert.Error(t, err)
}

func TestDualsComeBackOnTheConstraintSpace(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 100})
	require.NoError(t, err)
	e, err := m.VarExpr("X")
	require.NoError(t, err)

	mask := arr.NewMask(s)
	mask.Set(1, true)
	g, err := m.AddConstraint("pin", e, Eq, mask)
	require.NoError(t, err)

	duals := g.Duals([]float64{0.25})
	_, ok := duals.At(0)
	assert.False(t, ok)
	v, ok := duals.At(1)
	assert.True(t, ok)
	assert.Equal(t, 0.25, v)
}

func TestProblemRequiresObjective(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("X", s, VarSpec{Upper: 1})
	require.NoError(t, err)

	_, err = m.Problem()
	assert.Error(t, err)

	e, err := m.VarExpr("X")
	require.NoError(t, err)
	total, err := e.SumAll()
	require.NoError(t, err)
	require.NoError(t, m.SetObjective(total.AddScalar(7)))

	p, err := m.Problem()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, p.Obj)
	assert.Equal(t, 7.0, p.ObjConstant)
	assert.False(t, p.HasInteger())

	assert.Error(t, m.SetObjective(e), "objective must be scalar")
}

func TestIntegerColumnsMarkTheProblem(t *testing.T) {
	u := testUniverse(t)
	m := NewModel(u)
	s := space(t, u, coords.Year)
	_, err := m.Declare("N", s, VarSpec{Upper: 10, Integer: true})
	require.NoError(t, err)
	e, err := m.VarExpr("N")
	require.NoError(t, err)
	total, err := e.SumAll()
	require.NoError(t, err)
	require.NoError(t, m.SetObjective(total))

	p, err := m.Problem()
	require.NoError(t, err)
	assert.True(t, p.HasInteger())
}
