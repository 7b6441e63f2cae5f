package build

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// Builder assembles the optimisation model for one scenario: variable
// declarations, the shared expression cache, every constraint family, and
// the discounted-cost objective. A Builder is single-use; construct a new
// one per build.
type Builder struct {
	u     *coords.Universe
	ds    *arr.Dataset
	model *lp.Model
	cache *lp.Cache
	log   *zap.SugaredLogger
	fin   *financials

	yearNum *arr.Array // numeric year value per YEAR member
	convW   *arr.Array // memoized timeslice-to-hierarchy weight
	lex     map[string]func() (*lp.Expr, error)
}

// NewBuilder validates the dataset against the parameter catalogue and
// precomputes the financial factors. All standard axes must be declared on
// the universe, empty axes included.
func NewBuilder(u *coords.Universe, ds *arr.Dataset, log *zap.SugaredLogger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for _, p := range Catalog {
		if !ds.Has(p.Name) {
			return nil, fmt.Errorf("dataset missing parameter %q", p.Name)
		}
	}
	for _, ax := range []string{
		coords.Region, coords.OtherRegion, coords.Technology, coords.Commodity,
		coords.Timeslice, coords.Year, coords.Mode,
	} {
		if !u.Has(ax) {
			return nil, fmt.Errorf("universe missing axis %q", ax)
		}
	}
	if u.Len(coords.Year) == 0 {
		return nil, fmt.Errorf("axis %s has no members", coords.Year)
	}
	if ys, err := ds.Get("YearSplit"); err != nil || !ys.AnyPresent() {
		return nil, fmt.Errorf("parameter YearSplit must be provided")
	}

	b := &Builder{
		u:     u,
		ds:    ds,
		model: lp.NewModel(u),
		cache: lp.NewCache(),
		log:   log,
	}
	yn, err := yearNumbers(u)
	if err != nil {
		return nil, err
	}
	b.yearNum = yn
	fin, err := b.computeFinancials()
	if err != nil {
		return nil, fmt.Errorf("financial factors: %w", err)
	}
	b.fin = fin
	b.registerExpressions()
	return b, nil
}

func yearNumbers(u *coords.Universe) (*arr.Array, error) {
	members, err := u.Members(coords.Year)
	if err != nil {
		return nil, err
	}
	space, err := u.Space(coords.Year)
	if err != nil {
		return nil, err
	}
	out := arr.New(space)
	prev := 0.0
	for i, m := range members {
		v, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("year %q is not an integer", m)
		}
		if i > 0 && float64(v) <= prev {
			return nil, fmt.Errorf("years must be strictly increasing, got %q after %v", m, prev)
		}
		prev = float64(v)
		out.Set(i, float64(v))
	}
	return out, nil
}

// Build runs every assembly step in order and returns the finished model.
func (b *Builder) Build() (*lp.Model, error) {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"variables", b.declareVariables},
		{"capacity adequacy", b.addCapacityAdequacy},
		{"energy balance", b.addEnergyBalance},
		{"capacity limits", b.addCapacityLimits},
		{"capacity growth", b.addCapacityGrowth},
		{"activity limits", b.addActivityLimits},
		{"salvage value", b.addSalvageValue},
		{"storage", b.addStorage},
		{"trade", b.addTrade},
		{"emissions", b.addEmissions},
		{"region groups", b.addRegionGroups},
		{"renewable targets", b.addRenewableTargets},
		{"reserve margin", b.addReserveMargin},
		{"objective", b.setObjective},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return nil, fmt.Errorf("build %s: %w", s.name, err)
		}
		b.log.Debugw("assembly step done",
			"step", s.name, "cols", b.model.NumCols(), "rows", b.model.NumRows())
	}
	b.log.Infow("model assembled",
		"cols", b.model.NumCols(), "rows", b.model.NumRows())
	return b.model, nil
}

// Model exposes the assembled model, for callers that need variable or
// constraint metadata after Build.
func (b *Builder) Model() *lp.Model { return b.model }

// Cache exposes the expression cache for solution extraction.
func (b *Builder) Cache() *lp.Cache { return b.cache }

// p returns a catalogue parameter. The constructor guarantees presence, so
// a miss here is a programming error.
func (b *Builder) p(name string) *arr.Array {
	a, err := b.ds.Get(name)
	if err != nil {
		panic(fmt.Sprintf("parameter %q not in dataset", name))
	}
	return a
}

// expr resolves a named shared expression, building it at most once.
func (b *Builder) expr(name string) (*lp.Expr, error) {
	fn, ok := b.lex[name]
	if !ok {
		return nil, fmt.Errorf("unknown expression %q", name)
	}
	return b.cache.GetOrCompute(name, fn)
}

func (b *Builder) varExpr(name string) pipe {
	return via(b.model.VarExpr(name))
}

func (b *Builder) lexPipe(name string) pipe {
	return via(b.expr(name))
}

func (b *Builder) space(dims ...string) (*coords.Space, error) {
	return b.u.Space(dims...)
}

// zeroExpr returns an everywhere-present constant-zero expression.
func (b *Builder) zeroExpr(dims ...string) (*lp.Expr, error) {
	space, err := b.space(dims...)
	if err != nil {
		return nil, err
	}
	return lp.FromParam(arr.Full(space, 0)), nil
}

func (b *Builder) hasStorage() bool   { return b.u.Has(coords.Storage) && b.u.Len(coords.Storage) > 0 }
func (b *Builder) hasEmissions() bool { return b.u.Has(coords.Emission) && b.u.Len(coords.Emission) > 0 }
func (b *Builder) hasTrade() bool     { return b.p("TradeRoute").AnyPresent() }

// constrainMasked skips the group entirely when the mask selects nothing,
// which is how optional parameter families opt out of the model.
func (b *Builder) constrainMasked(name string, e pipe, rel lp.Relation, mask *arr.Mask) error {
	if mask != nil && !mask.Any() {
		b.log.Debugw("constraint skipped, empty mask", "name", name)
		return nil
	}
	return b.constrain(name, e, rel, mask)
}

func (b *Builder) constrain(name string, e pipe, rel lp.Relation, mask *arr.Mask) error {
	expr, err := e.Done()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if _, err := b.model.AddConstraint(name, expr, rel, mask); err != nil {
		return err
	}
	return nil
}
