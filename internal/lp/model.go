package lp

import (
	"fmt"
	"math"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
)

// Relation of a constraint's expression to zero.
type Relation int

const (
	Eq Relation = iota
	Le
	Ge
)

func (r Relation) String() string {
	switch r {
	case Eq:
		return "="
	case Le:
		return "<="
	case Ge:
		return ">="
	}
	return "?"
}

// Variable is a named array of optimization unknowns over an axis subset.
// Cells where the activity mask is false get no column at all: they are
// excluded from the problem, not bounded at zero.
type Variable struct {
	Name    string
	Space   *coords.Space
	Lower   *arr.Array
	Upper   *arr.Array
	Integer bool
	Mask    *arr.Mask // nil means every cell is active

	cols []int // per-cell global column index, -1 when inactive
}

// Active reports whether the cell has a column in the problem.
func (v *Variable) Active(idx int) bool { return v.cols[idx] >= 0 }

// ActiveCount returns the number of instantiated columns.
func (v *Variable) ActiveCount() int {
	n := 0
	for _, c := range v.cols {
		if c >= 0 {
			n++
		}
	}
	return n
}

// Values reads the variable's solved levels out of a primal vector.
// Inactive cells come back absent, not zero.
func (v *Variable) Values(primal []float64) *arr.Array {
	out := arr.New(v.Space)
	for i, c := range v.cols {
		if c >= 0 {
			out.Set(i, primal[c])
		}
	}
	return out
}

// VarSpec carries declaration options. Scalar bounds broadcast; the
// optional arrays override them cellwise where present.
type VarSpec struct {
	Lower    float64
	Upper    float64
	LowerArr *arr.Array
	UpperArr *arr.Array
	Integer  bool
	Mask     *arr.Mask
}

// Column is one solver column: a single active variable cell.
type Column struct {
	Var     *Variable
	Cell    int
	Lower   float64
	Upper   float64
	Integer bool
}

// Row is one solver row. Terms hold merged coefficients; the relation has
// been folded into [Lower, Upper] bounds on the term sum.
type Row struct {
	Group string
	Cell  int
	Terms []Term
	Lower float64
	Upper float64
}

// ConstraintGroup is a named family of rows instantiated over a coordinate
// space, one row per present unmasked cell.
type ConstraintGroup struct {
	Name     string
	Space    *coords.Space
	Relation Relation

	rows []int // per-cell row index, -1 when suppressed
}

// RowAt returns the row index for a cell, or -1 when suppressed.
func (g *ConstraintGroup) RowAt(idx int) int { return g.rows[idx] }

// Duals reads the group's shadow prices out of a row dual vector.
// Suppressed cells come back absent.
func (g *ConstraintGroup) Duals(rowDual []float64) *arr.Array {
	out := arr.New(g.Space)
	for i, r := range g.rows {
		if r >= 0 {
			out.Set(i, rowDual[r])
		}
	}
	return out
}

// Model is the explicit problem-builder value threaded through variable
// declaration and constraint construction. There is no hidden global
// problem object.
type Model struct {
	u        *coords.Universe
	vars     map[string]*Variable
	varOrder []string
	cols     []Column
	rows     []Row
	groups   map[string]*ConstraintGroup

	objective     *Expr
	objTerms      []Term
	objConstant   float64
	haveObjective bool
}

func NewModel(u *coords.Universe) *Model {
	return &Model{
		u:      u,
		vars:   make(map[string]*Variable),
		groups: make(map[string]*ConstraintGroup),
	}
}

func (m *Model) Universe() *coords.Universe { return m.u }

// NumCols and NumRows report problem size for logging.
func (m *Model) NumCols() int { return len(m.cols) }
func (m *Model) NumRows() int { return len(m.rows) }

// Declare registers a decision variable. Duplicate names, undeclared axes,
// and lower>upper at any active cell are configuration errors raised here,
// not at solve time.
func (m *Model) Declare(name string, space *coords.Space, spec VarSpec) (*Variable, error) {
	if _, ok := m.vars[name]; ok {
		return nil, fmt.Errorf("variable %q already declared", name)
	}
	lower := arr.Full(space, spec.Lower)
	if spec.LowerArr != nil {
		la, err := spec.LowerArr.FillAbsent(spec.Lower).Broadcast(space)
		if err != nil {
			return nil, fmt.Errorf("variable %q lower bound: %w", name, err)
		}
		lower = la
	}
	upper := arr.Full(space, spec.Upper)
	if spec.UpperArr != nil {
		ua, err := spec.UpperArr.FillAbsent(spec.Upper).Broadcast(space)
		if err != nil {
			return nil, fmt.Errorf("variable %q upper bound: %w", name, err)
		}
		upper = ua
	}
	var mask *arr.Mask
	if spec.Mask != nil {
		bm, err := spec.Mask.Broadcast(space)
		if err != nil {
			return nil, fmt.Errorf("variable %q mask: %w", name, err)
		}
		mask = bm
	}
	v := &Variable{
		Name:    name,
		Space:   space,
		Lower:   lower,
		Upper:   upper,
		Integer: spec.Integer,
		Mask:    mask,
		cols:    make([]int, space.Size()),
	}
	for i := 0; i < space.Size(); i++ {
		v.cols[i] = -1
		if mask != nil && !mask.At(i) {
			continue
		}
		lo, _ := lower.At(i)
		hi, _ := upper.At(i)
		if lo > hi {
			return nil, fmt.Errorf("variable %q has lower %g > upper %g at %s",
				name, lo, hi, space.CoordString(i))
		}
		v.cols[i] = len(m.cols)
		m.cols = append(m.cols, Column{Var: v, Cell: i, Lower: lo, Upper: hi, Integer: spec.Integer})
	}
	m.vars[name] = v
	m.varOrder = append(m.varOrder, name)
	return v, nil
}

// Var returns a declared variable, failing with the offending name.
func (m *Model) Var(name string) (*Variable, error) {
	v, ok := m.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %q not declared", name)
	}
	return v, nil
}

func (m *Model) HasVar(name string) bool {
	_, ok := m.vars[name]
	return ok
}

// VarNames returns variable names in declaration order.
func (m *Model) VarNames() []string {
	return append([]string(nil), m.varOrder...)
}

// VarExpr lifts a variable into an expression: active cells reference their
// column with coefficient one; masked-out cells are pinned to zero.
func (m *Model) VarExpr(name string) (*Expr, error) {
	v, err := m.Var(name)
	if err != nil {
		return nil, err
	}
	e := newExpr(v.Space)
	for i := 0; i < v.Space.Size(); i++ {
		e.def[i] = true
		if v.cols[i] >= 0 {
			e.terms[i] = []Term{{Col: v.cols[i], Coeff: 1}}
		}
	}
	return e, nil
}

// AddConstraint instantiates `expr relation 0` for every present cell where
// the mask (if any) is true. A mask that selects coordinates but yields no
// row is treated as a construction error rather than silent success.
func (m *Model) AddConstraint(name string, expr *Expr, rel Relation, mask *arr.Mask) (*ConstraintGroup, error) {
	if _, ok := m.groups[name]; ok {
		return nil, fmt.Errorf("constraint %q already declared", name)
	}
	space := expr.space
	var bm *arr.Mask
	if mask != nil {
		u, err := coords.Union(space, mask.Space())
		if err != nil {
			return nil, fmt.Errorf("constraint %q mask: %w", name, err)
		}
		space = u
		if bm, err = mask.Broadcast(space); err != nil {
			return nil, fmt.Errorf("constraint %q mask: %w", name, err)
		}
	}
	proj, err := coords.Project(space, expr.space)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: %w", name, err)
	}
	g := &ConstraintGroup{Name: name, Space: space, Relation: rel, rows: make([]int, space.Size())}
	created := 0
	for i := 0; i < space.Size(); i++ {
		g.rows[i] = -1
		if bm != nil && !bm.At(i) {
			continue
		}
		j := proj(i)
		if !expr.def[j] {
			continue
		}
		lo, hi := -expr.consts[j], -expr.consts[j]
		switch rel {
		case Le:
			lo = math.Inf(-1)
		case Ge:
			hi = math.Inf(1)
		}
		g.rows[i] = len(m.rows)
		m.rows = append(m.rows, Row{Group: name, Cell: i, Terms: expr.merged(j), Lower: lo, Upper: hi})
		created++
	}
	if created == 0 && bm != nil && bm.Any() {
		return nil, fmt.Errorf("constraint %q: mask selects coordinates but no instance was created", name)
	}
	if created == 0 && bm == nil {
		return nil, fmt.Errorf("constraint %q: no instance was created", name)
	}
	m.groups[name] = g
	return g, nil
}

// Constraint returns a built constraint group, failing with the name.
func (m *Model) Constraint(name string) (*ConstraintGroup, error) {
	g, ok := m.groups[name]
	if !ok {
		return nil, fmt.Errorf("constraint %q not declared", name)
	}
	return g, nil
}

func (m *Model) HasConstraint(name string) bool {
	_, ok := m.groups[name]
	return ok
}

// SetObjective installs a scalar expression to minimize. Constants are
// tracked separately and added back to the reported objective value.
func (m *Model) SetObjective(e *Expr) error {
	if e.space.NDim() != 0 {
		return fmt.Errorf("objective must be scalar, got axes %v", e.space.Dims())
	}
	if !e.def[0] {
		return fmt.Errorf("objective expression is absent")
	}
	m.objective = e
	m.objTerms = e.merged(0)
	m.objConstant = e.consts[0]
	m.haveObjective = true
	return nil
}

// Problem snapshots the assembled variables, rows and objective for the
// hand-off to an external solver.
type Problem struct {
	Cols        []Column
	Rows        []Row
	Obj         []float64
	ObjConstant float64
}

func (m *Model) Problem() (*Problem, error) {
	if !m.haveObjective {
		return nil, fmt.Errorf("objective not set")
	}
	obj := make([]float64, len(m.cols))
	for _, t := range m.objTerms {
		obj[t.Col] += t.Coeff
	}
	return &Problem{Cols: m.cols, Rows: m.rows, Obj: obj, ObjConstant: m.objConstant}, nil
}

// HasInteger reports whether any column is integral (a MIP: duals will not
// be available from the solver).
func (p *Problem) HasInteger() bool {
	for _, c := range p.Cols {
		if c.Integer {
			return true
		}
	}
	return false
}
