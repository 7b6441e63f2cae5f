// Package solve runs an assembled problem through a linear solver.
package solve

import (
	"context"
	"errors"
	"fmt"

	"github.com/lanl/highs"
	"go.uber.org/zap"

	"gridplan/internal/lp"
)

// ErrNotOptimal wraps any terminal solver status other than optimality.
var ErrNotOptimal = errors.New("solver did not reach optimality")

// Result carries the solved problem back to extraction. RowDual is nil for
// mixed-integer problems, where shadow prices are not defined.
type Result struct {
	Status    string
	Objective float64
	Primal    []float64
	RowDual   []float64
	MIP       bool
}

// Solver is anything that can optimize a problem to a primal point.
type Solver interface {
	Solve(ctx context.Context, p *lp.Problem) (*Result, error)
}

// HiGHS drives the HiGHS solver through its native binding.
type HiGHS struct {
	log *zap.SugaredLogger
}

func NewHiGHS(log *zap.SugaredLogger) *HiGHS {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HiGHS{log: log}
}

func (s *HiGHS) Solve(ctx context.Context, p *lp.Problem) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.Cols) == 0 {
		return nil, fmt.Errorf("problem has no columns")
	}

	m := new(highs.Model)
	n := len(p.Cols)
	m.ColCosts = append([]float64(nil), p.Obj...)
	m.ColLower = make([]float64, n)
	m.ColUpper = make([]float64, n)
	for j, c := range p.Cols {
		m.ColLower[j] = c.Lower
		m.ColUpper[j] = c.Upper
	}
	mip := p.HasInteger()
	if mip {
		m.VarTypes = make([]highs.VariableType, n)
		for j, c := range p.Cols {
			if c.Integer {
				m.VarTypes[j] = highs.IntegerType
			}
		}
	}

	m.RowLower = make([]float64, len(p.Rows))
	m.RowUpper = make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		m.RowLower[i] = r.Lower
		m.RowUpper[i] = r.Upper
		for _, t := range r.Terms {
			m.ConstMatrix = append(m.ConstMatrix, highs.Nonzero{Row: i, Col: t.Col, Val: t.Coeff})
		}
	}

	s.log.Infow("solving", "cols", n, "rows", len(p.Rows), "nonzeros", len(m.ConstMatrix), "mip", mip)
	sol, err := m.Solve()
	if err != nil {
		return nil, fmt.Errorf("highs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sol.Status != highs.Optimal {
		return nil, fmt.Errorf("%w: %s", ErrNotOptimal, sol.Status.String())
	}

	res := &Result{
		Status:    sol.Status.String(),
		Objective: sol.Objective + p.ObjConstant,
		Primal:    sol.ColumnPrimal,
		MIP:       mip,
	}
	if !mip {
		res.RowDual = sol.RowDual
	}
	s.log.Infow("solved", "objective", res.Objective, "status", res.Status)
	return res, nil
}
