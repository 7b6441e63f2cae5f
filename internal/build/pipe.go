package build

import (
	"gridplan/internal/arr"
	"gridplan/internal/lp"
)

// pipe chains expression operations with a sticky error, so long
// equation builds read as a sequence of steps instead of a ladder
// of error checks. The first failure wins and short-circuits the rest.
type pipe struct {
	e   *lp.Expr
	err error
}

func via(e *lp.Expr, err error) pipe { return pipe{e: e, err: err} }

func paramExpr(a *arr.Array) pipe { return pipe{e: lp.FromParam(a)} }

func (p pipe) step(f func(*lp.Expr) (*lp.Expr, error)) pipe {
	if p.err != nil {
		return p
	}
	e, err := f(p.e)
	return pipe{e: e, err: err}
}

func (p pipe) Mul(a *arr.Array) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.MulParam(a) })
}

func (p pipe) Div(a *arr.Array) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.DivParam(a) })
}

func (p pipe) AddP(a *arr.Array) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.AddParam(a) })
}

func (p pipe) SubP(a *arr.Array) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.SubParam(a) })
}

func (p pipe) Plus(o pipe) pipe {
	if p.err != nil {
		return p
	}
	if o.err != nil {
		return o
	}
	e, err := p.e.Add(o.e)
	return pipe{e: e, err: err}
}

func (p pipe) Minus(o pipe) pipe {
	if p.err != nil {
		return p
	}
	if o.err != nil {
		return o
	}
	e, err := p.e.Sub(o.e)
	return pipe{e: e, err: err}
}

func (p pipe) Where(m *arr.Mask) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.Where(m) })
}

func (p pipe) Fill0() pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.FillAbsentZero(), nil })
}

func (p pipe) Sum(dims ...string) pipe {
	out := p
	for _, d := range dims {
		dim := d
		out = out.step(func(e *lp.Expr) (*lp.Expr, error) { return e.SumOver(dim) })
	}
	return out
}

func (p pipe) SumAll() pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.SumAll() })
}

func (p pipe) Shift(dim string, n int) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.Shift(dim, n) })
}

func (p pipe) Rename(from, to string) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.Rename(from, to) })
}

func (p pipe) Scale(v float64) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.MulScalar(v), nil })
}

func (p pipe) AddConst(v float64) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.AddScalar(v), nil })
}

func (p pipe) SwapAxes(x, y string) pipe {
	return p.step(func(e *lp.Expr) (*lp.Expr, error) { return e.SwapAxes(x, y) })
}

func (p pipe) Neg() pipe { return p.Scale(-1) }

func (p pipe) Done() (*lp.Expr, error) { return p.e, p.err }
