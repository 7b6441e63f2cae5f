package arr

import (
	"fmt"
	"math"

	"gridplan/internal/coords"
)

// Array is a dense float64 array over a coordinate space with per-cell
// presence. An absent cell is semantically distinct from a zero cell: it
// means the value does not exist for that coordinate at all.
type Array struct {
	space *coords.Space
	vals  []float64
	def   []bool
}

// New returns an all-absent array over the space.
func New(space *coords.Space) *Array {
	return &Array{
		space: space,
		vals:  make([]float64, space.Size()),
		def:   make([]bool, space.Size()),
	}
}

// Full returns an array with every cell present and set to v.
func Full(space *coords.Space, v float64) *Array {
	a := New(space)
	for i := range a.vals {
		a.vals[i] = v
		a.def[i] = true
	}
	return a
}

// Scalar returns a zero-dimensional, single-cell array holding v.
func Scalar(u *coords.Universe, v float64) *Array {
	return Full(u.Scalar(), v)
}

// Generate fills an array by calling fn for every cell index. fn returns
// the value and whether the cell is present.
func Generate(space *coords.Space, fn func(idx int) (float64, bool)) *Array {
	a := New(space)
	for i := 0; i < space.Size(); i++ {
		a.vals[i], a.def[i] = fn(i)
	}
	return a
}

func (a *Array) Space() *coords.Space { return a.space }

// At returns the value at idx and whether it is present.
func (a *Array) At(idx int) (float64, bool) {
	return a.vals[idx], a.def[idx]
}

// Set makes the cell present with the given value.
func (a *Array) Set(idx int, v float64) {
	a.vals[idx] = v
	a.def[idx] = true
}

// Clear makes the cell absent.
func (a *Array) Clear(idx int) {
	a.vals[idx] = 0
	a.def[idx] = false
}

// Copy returns a deep copy.
func (a *Array) Copy() *Array {
	b := New(a.space)
	copy(b.vals, a.vals)
	copy(b.def, a.def)
	return b
}

// AnyPresent reports whether any cell is present.
func (a *Array) AnyPresent() bool {
	for _, d := range a.def {
		if d {
			return true
		}
	}
	return false
}

// align broadcasts both operands onto their union space and applies f
// cellwise. both must be present for the result cell to be present.
func align(a, b *Array, f func(x, y float64) float64) (*Array, error) {
	space, err := coords.Union(a.space, b.space)
	if err != nil {
		return nil, err
	}
	pa, err := coords.Project(space, a.space)
	if err != nil {
		return nil, err
	}
	pb, err := coords.Project(space, b.space)
	if err != nil {
		return nil, err
	}
	out := New(space)
	for i := 0; i < space.Size(); i++ {
		ia, ib := pa(i), pb(i)
		if a.def[ia] && b.def[ib] {
			out.vals[i] = f(a.vals[ia], b.vals[ib])
			out.def[i] = true
		}
	}
	return out, nil
}

// Swap relabels two equally sized axes of the array in place of each
// other, so cell (a=x, b=y) is addressed as (a=y, b=x) afterwards. The
// data buffer is shared with the receiver.
func (a *Array) Swap(x, y string) (*Array, error) {
	space, err := a.space.Swap(x, y)
	if err != nil {
		return nil, err
	}
	return &Array{space: space, vals: a.vals, def: a.def}, nil
}

// Zip combines two arrays cell-wise with f after broadcasting them onto
// their union space. The result is present only where both inputs are.
func Zip(a, b *Array, f func(x, y float64) float64) (*Array, error) {
	return align(a, b, f)
}

// Fallback returns a where a is present and b elsewhere, on the union space.
func Fallback(a, b *Array) (*Array, error) {
	space, err := coords.Union(a.space, b.space)
	if err != nil {
		return nil, err
	}
	pa, err := coords.Project(space, a.space)
	if err != nil {
		return nil, err
	}
	pb, err := coords.Project(space, b.space)
	if err != nil {
		return nil, err
	}
	out := New(space)
	for i := 0; i < space.Size(); i++ {
		if ia := pa(i); a.def[ia] {
			out.vals[i], out.def[i] = a.vals[ia], true
		} else if ib := pb(i); b.def[ib] {
			out.vals[i], out.def[i] = b.vals[ib], true
		}
	}
	return out, nil
}

// Add returns a+b with absence propagating (absent wherever either side is
// absent), matching missing-value arithmetic. Use FillAbsent first to treat
// a missing parameter as zero.
func (a *Array) Add(b *Array) (*Array, error) {
	return align(a, b, func(x, y float64) float64 { return x + y })
}

func (a *Array) Sub(b *Array) (*Array, error) {
	return align(a, b, func(x, y float64) float64 { return x - y })
}

func (a *Array) Mul(b *Array) (*Array, error) {
	return align(a, b, func(x, y float64) float64 { return x * y })
}

func (a *Array) Div(b *Array) (*Array, error) {
	return align(a, b, func(x, y float64) float64 { return x / y })
}

// AddScalar, MulScalar operate on present cells only.
func (a *Array) AddScalar(v float64) *Array {
	out := a.Copy()
	for i := range out.vals {
		if out.def[i] {
			out.vals[i] += v
		}
	}
	return out
}

func (a *Array) MulScalar(v float64) *Array {
	out := a.Copy()
	for i := range out.vals {
		if out.def[i] {
			out.vals[i] *= v
		}
	}
	return out
}

// Map applies f to every present cell.
func (a *Array) Map(f func(x float64) float64) *Array {
	out := a.Copy()
	for i := range out.vals {
		if out.def[i] {
			out.vals[i] = f(out.vals[i])
		}
	}
	return out
}

// FillAbsent returns the array with absent cells replaced by v. This is the
// single deliberate point where absence collapses to a value.
func (a *Array) FillAbsent(v float64) *Array {
	out := a.Copy()
	for i := range out.def {
		if !out.def[i] {
			out.vals[i] = v
			out.def[i] = true
		}
	}
	return out
}

// Where keeps cells where the mask is true and makes the rest absent. The
// mask must be broadcastable to the array's space union.
func (a *Array) Where(m *Mask) (*Array, error) {
	space, err := coords.Union(a.space, m.space)
	if err != nil {
		return nil, err
	}
	pa, err := coords.Project(space, a.space)
	if err != nil {
		return nil, err
	}
	pm, err := coords.Project(space, m.space)
	if err != nil {
		return nil, err
	}
	out := New(space)
	for i := 0; i < space.Size(); i++ {
		ia := pa(i)
		if a.def[ia] && m.vals[pm(i)] {
			out.vals[i] = a.vals[ia]
			out.def[i] = true
		}
	}
	return out, nil
}

// SumOver sums the array along one axis. Absent cells contribute zero; the
// result cell is always present (aggregation is the point where absence
// collapses to zero).
func (a *Array) SumOver(dim string) (*Array, error) {
	space, err := a.space.Drop(dim)
	if err != nil {
		return nil, err
	}
	proj, err := coords.Project(a.space, space)
	if err != nil {
		return nil, err
	}
	out := Full(space, 0)
	for i := 0; i < a.space.Size(); i++ {
		if a.def[i] {
			out.vals[proj(i)] += a.vals[i]
		}
	}
	return out, nil
}

// Shift moves values along an axis by n positions (positive n moves toward
// higher indices, so cell i takes the value from cell i-n). Vacated cells
// become absent.
func (a *Array) Shift(dim string, n int) (*Array, error) {
	if !a.space.HasDim(dim) {
		return nil, fmt.Errorf("axis %q not in space %v", dim, a.space.Dims())
	}
	dimLen, _ := a.space.DimLen(dim)
	stride, _ := a.space.Stride(dim)
	out := New(a.space)
	for i := 0; i < a.space.Size(); i++ {
		p, _ := a.space.DimPos(i, dim)
		src := p - n
		if src < 0 || src >= dimLen {
			continue
		}
		j := i + (src-p)*stride
		if a.def[j] {
			out.vals[i] = a.vals[j]
			out.def[i] = true
		}
	}
	return out, nil
}

// Rename relabels one axis onto another declared axis with the same member
// count; used for the region / counter-region flip in trade arrays.
func (a *Array) Rename(from, to string) (*Array, error) {
	space, err := a.space.Rename(from, to)
	if err != nil {
		return nil, err
	}
	out := &Array{space: space, vals: append([]float64(nil), a.vals...), def: append([]bool(nil), a.def...)}
	return out, nil
}

// Broadcast expands the array onto a target space containing its dims.
func (a *Array) Broadcast(space *coords.Space) (*Array, error) {
	proj, err := coords.Project(space, a.space)
	if err != nil {
		return nil, err
	}
	out := New(space)
	for i := 0; i < space.Size(); i++ {
		j := proj(i)
		out.vals[i] = a.vals[j]
		out.def[i] = a.def[j]
	}
	return out, nil
}

// Comparison operators. Absent cells compare false.

func (a *Array) cmp(f func(x float64) bool) *Mask {
	m := NewMask(a.space)
	for i := range a.vals {
		m.vals[i] = a.def[i] && f(a.vals[i])
	}
	return m
}

func (a *Array) Gt(v float64) *Mask { return a.cmp(func(x float64) bool { return x > v }) }
func (a *Array) Ge(v float64) *Mask { return a.cmp(func(x float64) bool { return x >= v }) }
func (a *Array) Lt(v float64) *Mask { return a.cmp(func(x float64) bool { return x < v }) }
func (a *Array) Le(v float64) *Mask { return a.cmp(func(x float64) bool { return x <= v }) }
func (a *Array) Eq(v float64) *Mask { return a.cmp(func(x float64) bool { return x == v }) }
func (a *Array) Ne(v float64) *Mask { return a.cmp(func(x float64) bool { return x != v }) }

// Present returns the mask of present cells.
func (a *Array) Present() *Mask {
	m := NewMask(a.space)
	copy(m.vals, a.def)
	return m
}

// Max returns the largest present value, or 0 when nothing is present.
func (a *Array) Max() float64 {
	best := math.Inf(-1)
	any := false
	for i, v := range a.vals {
		if a.def[i] && v > best {
			best = v
			any = true
		}
	}
	if !any {
		return 0
	}
	return best
}
