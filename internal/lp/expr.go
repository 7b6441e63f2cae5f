package lp

import (
	"fmt"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
)

// Term is one variable reference inside a linear expression cell.
type Term struct {
	Col   int
	Coeff float64
}

// Expr is a derived affine combination of variables and parameters over a
// coordinate space: per cell, a term list plus a constant, with the same
// presence semantics as parameter arrays. Expressions are values; every
// operation returns a new Expr.
type Expr struct {
	space  *coords.Space
	terms  [][]Term
	consts []float64
	def    []bool
}

func newExpr(space *coords.Space) *Expr {
	return &Expr{
		space:  space,
		terms:  make([][]Term, space.Size()),
		consts: make([]float64, space.Size()),
		def:    make([]bool, space.Size()),
	}
}

func (e *Expr) Space() *coords.Space { return e.space }

// FromParam lifts a parameter array into a constant expression.
func FromParam(a *arr.Array) *Expr {
	e := newExpr(a.Space())
	for i := 0; i < a.Space().Size(); i++ {
		if v, ok := a.At(i); ok {
			e.consts[i] = v
			e.def[i] = true
		}
	}
	return e
}

// binop aligns two expressions on their union space. Presence is the union:
// an absent side simply contributes nothing, matching how masked-out terms
// drop from an algebraic sum.
func binop(a, b *Expr, bsign float64) (*Expr, error) {
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
	out := newExpr(space)
	for i := 0; i < space.Size(); i++ {
		ia, ib := pa(i), pb(i)
		if !a.def[ia] && !b.def[ib] {
			continue
		}
		out.def[i] = true
		var ts []Term
		if a.def[ia] {
			out.consts[i] += a.consts[ia]
			ts = append(ts, a.terms[ia]...)
		}
		if b.def[ib] {
			out.consts[i] += bsign * b.consts[ib]
			for _, t := range b.terms[ib] {
				ts = append(ts, Term{Col: t.Col, Coeff: bsign * t.Coeff})
			}
		}
		out.terms[i] = ts
	}
	return out, nil
}

func (e *Expr) Add(o *Expr) (*Expr, error) { return binop(e, o, 1) }
func (e *Expr) Sub(o *Expr) (*Expr, error) { return binop(e, o, -1) }

// paramOp aligns the expression with a parameter array and scales or
// offsets each cell. Presence intersects: combining with an absent
// parameter cell yields an absent result cell, so no technology/commodity
// pair is fabricated.
func (e *Expr) paramOp(a *arr.Array, f func(c float64, ts []Term, v float64) (float64, []Term)) (*Expr, error) {
	space, err := coords.Union(e.space, a.Space())
	if err != nil {
		return nil, err
	}
	pe, err := coords.Project(space, e.space)
	if err != nil {
		return nil, err
	}
	pa, err := coords.Project(space, a.Space())
	if err != nil {
		return nil, err
	}
	out := newExpr(space)
	for i := 0; i < space.Size(); i++ {
		ie, ia := pe(i), pa(i)
		v, ok := a.At(ia)
		if !e.def[ie] || !ok {
			continue
		}
		out.def[i] = true
		out.consts[i], out.terms[i] = f(e.consts[ie], e.terms[ie], v)
	}
	return out, nil
}

// MulParam multiplies every cell by the aligned parameter value.
func (e *Expr) MulParam(a *arr.Array) (*Expr, error) {
	return e.paramOp(a, func(c float64, ts []Term, v float64) (float64, []Term) {
		out := make([]Term, len(ts))
		for i, t := range ts {
			out[i] = Term{Col: t.Col, Coeff: t.Coeff * v}
		}
		return c * v, out
	})
}

// DivParam divides every cell by the aligned parameter value.
func (e *Expr) DivParam(a *arr.Array) (*Expr, error) {
	return e.paramOp(a, func(c float64, ts []Term, v float64) (float64, []Term) {
		out := make([]Term, len(ts))
		for i, t := range ts {
			out[i] = Term{Col: t.Col, Coeff: t.Coeff / v}
		}
		return c / v, out
	})
}

// AddParam adds the aligned parameter value to every cell's constant.
func (e *Expr) AddParam(a *arr.Array) (*Expr, error) {
	return e.paramOp(a, func(c float64, ts []Term, v float64) (float64, []Term) {
		return c + v, append([]Term(nil), ts...)
	})
}

// SubParam subtracts the aligned parameter value from every cell's constant.
func (e *Expr) SubParam(a *arr.Array) (*Expr, error) {
	return e.paramOp(a, func(c float64, ts []Term, v float64) (float64, []Term) {
		return c - v, append([]Term(nil), ts...)
	})
}

func (e *Expr) MulScalar(v float64) *Expr {
	out := newExpr(e.space)
	for i := range e.def {
		if !e.def[i] {
			continue
		}
		out.def[i] = true
		out.consts[i] = e.consts[i] * v
		ts := make([]Term, len(e.terms[i]))
		for j, t := range e.terms[i] {
			ts[j] = Term{Col: t.Col, Coeff: t.Coeff * v}
		}
		out.terms[i] = ts
	}
	return out
}

func (e *Expr) AddScalar(v float64) *Expr {
	out := e.clone()
	for i := range out.def {
		if out.def[i] {
			out.consts[i] += v
		}
	}
	return out
}

func (e *Expr) Neg() *Expr { return e.MulScalar(-1) }

func (e *Expr) clone() *Expr {
	out := newExpr(e.space)
	copy(out.consts, e.consts)
	copy(out.def, e.def)
	for i, ts := range e.terms {
		out.terms[i] = append([]Term(nil), ts...)
	}
	return out
}

// Where keeps cells where the mask is true and suppresses the rest.
func (e *Expr) Where(m *arr.Mask) (*Expr, error) {
	space, err := coords.Union(e.space, m.Space())
	if err != nil {
		return nil, err
	}
	pe, err := coords.Project(space, e.space)
	if err != nil {
		return nil, err
	}
	pm, err := coords.Project(space, m.Space())
	if err != nil {
		return nil, err
	}
	out := newExpr(space)
	for i := 0; i < space.Size(); i++ {
		ie := pe(i)
		if !e.def[ie] || !m.At(pm(i)) {
			continue
		}
		out.def[i] = true
		out.consts[i] = e.consts[ie]
		out.terms[i] = append([]Term(nil), e.terms[ie]...)
	}
	return out, nil
}

// FillAbsentZero makes absent cells present with value zero.
func (e *Expr) FillAbsentZero() *Expr {
	out := e.clone()
	for i := range out.def {
		out.def[i] = true
	}
	return out
}

// SumOver collapses one axis, treating absent cells as zero. The result is
// always present.
func (e *Expr) SumOver(dim string) (*Expr, error) {
	space, err := e.space.Drop(dim)
	if err != nil {
		return nil, err
	}
	proj, err := coords.Project(e.space, space)
	if err != nil {
		return nil, err
	}
	out := newExpr(space)
	for i := range out.def {
		out.def[i] = true
	}
	for i := 0; i < e.space.Size(); i++ {
		if !e.def[i] {
			continue
		}
		j := proj(i)
		out.consts[j] += e.consts[i]
		out.terms[j] = append(out.terms[j], e.terms[i]...)
	}
	return out, nil
}

// SumAll collapses every axis to a scalar expression.
func (e *Expr) SumAll() (*Expr, error) {
	out := e
	var err error
	for _, d := range e.space.Dims() {
		out, err = out.SumOver(d)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Shift moves cells along an axis by n positions (cell i takes the cell at
// i-n); vacated cells become absent.
func (e *Expr) Shift(dim string, n int) (*Expr, error) {
	if !e.space.HasDim(dim) {
		return nil, fmt.Errorf("axis %q not in space %v", dim, e.space.Dims())
	}
	dimLen, _ := e.space.DimLen(dim)
	stride, _ := e.space.Stride(dim)
	out := newExpr(e.space)
	for i := 0; i < e.space.Size(); i++ {
		p, _ := e.space.DimPos(i, dim)
		src := p - n
		if src < 0 || src >= dimLen {
			continue
		}
		j := i + (src-p)*stride
		if !e.def[j] {
			continue
		}
		out.def[i] = true
		out.consts[i] = e.consts[j]
		out.terms[i] = append([]Term(nil), e.terms[j]...)
	}
	return out, nil
}

// Rename relabels one axis onto another declared axis of equal size.
func (e *Expr) Rename(from, to string) (*Expr, error) {
	space, err := e.space.Rename(from, to)
	if err != nil {
		return nil, err
	}
	out := e.clone()
	out.space = space
	return out, nil
}

// SwapAxes relabels two axes of the expression in place of each other,
// which transposes its meaning without touching term storage.
func (e *Expr) SwapAxes(x, y string) (*Expr, error) {
	space, err := e.space.Swap(x, y)
	if err != nil {
		return nil, err
	}
	out := e.clone()
	out.space = space
	return out, nil
}

// merged returns the cell's terms with duplicate columns combined.
func (e *Expr) merged(idx int) []Term {
	ts := e.terms[idx]
	if len(ts) <= 1 {
		return ts
	}
	byCol := make(map[int]float64, len(ts))
	order := make([]int, 0, len(ts))
	for _, t := range ts {
		if _, ok := byCol[t.Col]; !ok {
			order = append(order, t.Col)
		}
		byCol[t.Col] += t.Coeff
	}
	out := make([]Term, 0, len(order))
	for _, c := range order {
		out = append(out, Term{Col: c, Coeff: byCol[c]})
	}
	return out
}

// Eval computes the expression's value array at the given primal point.
func (e *Expr) Eval(primal []float64) *arr.Array {
	return arr.Generate(e.space, func(i int) (float64, bool) {
		if !e.def[i] {
			return 0, false
		}
		v := e.consts[i]
		for _, t := range e.terms[i] {
			v += t.Coeff * primal[t.Col]
		}
		return v, true
	})
}
