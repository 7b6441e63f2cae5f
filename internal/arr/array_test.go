package arr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplan/internal/coords"
)

func testUniverse(t *testing.T) *coords.Universe {
	t.Helper()
	u := coords.NewUniverse()
	require.NoError(t, u.Declare(coords.Region, []string{"R1", "R2"}))
	require.NoError(t, u.Alias(coords.OtherRegion, coords.Region))
	require.NoError(t, u.Declare(coords.Year, []string{"2020", "2021", "2022"}))
	return u
}

func space(t *testing.T, u *coords.Universe, dims ...string) *coords.Space {
	t.Helper()
	s, err := u.Space(dims...)
	require.NoError(t, err)
	return s
}

func TestPresenceIsDistinctFromZero(t *testing.T) {
	u := testUniverse(t)
	a := New(space(t, u, coords.Year))

	_, ok := a.At(0)
	assert.False(t, ok)
	assert.False(t, a.AnyPresent())

	a.Set(0, 0)
	v, ok := a.At(0)
	assert.True(t, ok)
	assert.Zero(t, v)
	assert.True(t, a.AnyPresent())

	a.Clear(0)
	_, ok = a.At(0)
	assert.False(t, ok)
}

func TestAddIntersectsPresenceAndBroadcasts(t *testing.T) {
	u := testUniverse(t)
	years := Full(space(t, u, coords.Year), 10)
	byRegion := New(space(t, u, coords.Region))
	byRegion.Set(0, 5) // R1 only

	sum, err := years.Add(byRegion)
	require.NoError(t, err)
	assert.Equal(t, []string{coords.Year, coords.Region}, sum.Space().Dims())

	for i := 0; i < sum.Space().Size(); i++ {
		p, err := sum.Space().DimPos(i, coords.Region)
		require.NoError(t, err)
		v, ok := sum.At(i)
		if p == 0 {
			assert.True(t, ok)
			assert.Equal(t, 15.0, v)
		} else {
			assert.False(t, ok, "absent operand must not fabricate a value")
		}
	}
}

func TestFillAbsentCollapsesToValue(t *testing.T) {
	u := testUniverse(t)
	a := New(space(t, u, coords.Year))
	a.Set(1, 7)

	f := a.FillAbsent(0)
	for i := 0; i < 3; i++ {
		v, ok := f.At(i)
		assert.True(t, ok)
		if i == 1 {
			assert.Equal(t, 7.0, v)
		} else {
			assert.Zero(t, v)
		}
	}
	// receiver untouched
	_, ok := a.At(0)
	assert.False(t, ok)
}

func TestFallbackPrefersFirstOperand(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := New(s)
	a.Set(0, 1)
	b := Full(s, 9)

	f, err := Fallback(a, b)
	require.NoError(t, err)
	v, _ := f.At(0)
	assert.Equal(t, 1.0, v)
	v, _ = f.At(1)
	assert.Equal(t, 9.0, v)
}

func TestSumOverTreatsAbsentAsZero(t *testing.T) {
	u := testUniverse(t)
	a := New(space(t, u, coords.Region, coords.Year))
	a.Set(0, 2) // R1, 2020
	a.Set(4, 3) // R2, 2021

	byYear, err := a.SumOver(coords.Region)
	require.NoError(t, err)
	v, ok := byYear.At(0)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	v, ok = byYear.At(2)
	assert.True(t, ok, "aggregate cells are always present")
	assert.Zero(t, v)
}

func TestShiftVacatesEdgeCells(t *testing.T) {
	u := testUniverse(t)
	a := Generate(space(t, u, coords.Year), func(i int) (float64, bool) {
		return float64(i + 1), true
	})

	s, err := a.Shift(coords.Year, 1)
	require.NoError(t, err)
	_, ok := s.At(0)
	assert.False(t, ok)
	v, _ := s.At(1)
	assert.Equal(t, 1.0, v)
	v, _ = s.At(2)
	assert.Equal(t, 2.0, v)

	_, err = a.Shift(coords.Region, 1)
	assert.Error(t, err)
}

func TestWhereSuppressesCells(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := Full(s, 4)

	kept, err := a.Where(a.Gt(5))
	require.NoError(t, err)
	assert.False(t, kept.AnyPresent())

	kept, err = a.Where(a.Le(5))
	require.NoError(t, err)
	assert.True(t, kept.AnyPresent())
}

func TestComparisonsIgnoreAbsentCells(t *testing.T) {
	u := testUniverse(t)
	a := New(space(t, u, coords.Year))
	a.Set(0, -1)

	m := a.Lt(0)
	assert.True(t, m.At(0))
	assert.False(t, m.At(1), "absent cells compare false")
	assert.Equal(t, 1, m.Count())
}

func TestSwapRelabelsTradeDirections(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Region, coords.OtherRegion)
	a := New(s)
	a.Set(s.Index([]int{0, 1}), 42) // R1 -> R2

	sw, err := a.Swap(coords.Region, coords.OtherRegion)
	require.NoError(t, err)
	// same storage, opposite reading: now addressed as R2 -> R1
	swSpace := sw.Space()
	idx := 0
	for i := 0; i < swSpace.Size(); i++ {
		if v, ok := sw.At(i); ok && v == 42 {
			idx = i
		}
	}
	pr, err := swSpace.DimPos(idx, coords.Region)
	require.NoError(t, err)
	po, err := swSpace.DimPos(idx, coords.OtherRegion)
	require.NoError(t, err)
	assert.Equal(t, 1, pr)
	assert.Equal(t, 0, po)
}

func TestMaskAlgebra(t *testing.T) {
	u := testUniverse(t)
	s := space(t, u, coords.Year)
	a := NewMask(s)
	a.Set(0, true)
	b := NewMask(s)
	b.Set(0, true)
	b.Set(1, true)

	and, err := a.And(b)
	require.NoError(t, err)
	assert.Equal(t, 1, and.Count())

	or, err := a.Or(b)
	require.NoError(t, err)
	assert.Equal(t, 2, or.Count())

	assert.Equal(t, 2, a.Not().Count())
	assert.True(t, or.Any())
	assert.False(t, or.All())
}

func TestMaskToArray(t *testing.T) {
	u := testUniverse(t)
	m := NewMask(space(t, u, coords.Year))
	m.Set(2, true)

	a := m.ToArray()
	v, ok := a.At(2)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, ok = a.At(0)
	assert.True(t, ok, "false cells are present zeros")
	assert.Zero(t, v)
}
