// Package solution turns a raw solver result back into labelled arrays.
package solution

import (
	"fmt"
	"sort"

	"gridplan/internal/arr"
	"gridplan/internal/lp"
	"gridplan/internal/solve"
)

// totalCostName is always part of the output, whatever filter was asked
// for; a cost model run without its cost is useless.
const totalCostName = "TotalDiscountedCost"

// dualOutputs maps balance and cap constraints to the shadow-price series
// they publish. Only pure LPs carry duals.
var dualOutputs = map[string]string{
	"EBa11_EnergyBalanceEachTS5":   "MarginalCostOfDemand",
	"EBb4_EnergyBalanceEachYear4":  "MarginalCostOfDemandAnnual",
	"E8_AnnualEmissionsLimit":      "MarginalCostOfEmissionsAnnual",
	"E9_ModelPeriodEmissionsLimit": "MarginalCostOfEmissionsTotal",
}

// Set is one solved scenario: the objective plus every extracted series.
type Set struct {
	Status    string
	Objective float64
	Values    map[string]*arr.Array
}

// Names lists the extracted series in stable order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.Values))
	for n := range s.Values {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Extractor reads variable levels, derived expressions, and shadow prices
// out of a solve result.
type Extractor struct {
	model *lp.Model
	cache *lp.Cache
}

func NewExtractor(model *lp.Model, cache *lp.Cache) *Extractor {
	return &Extractor{model: model, cache: cache}
}

// Extract materializes the requested series. An empty request means every
// available series; a non-empty one is validated against what the model
// can produce, and the total discounted cost rides along either way.
func (e *Extractor) Extract(res *solve.Result, names []string) (*Set, error) {
	avail := map[string]func() *arr.Array{}

	for _, n := range e.cache.Names() {
		ex, err := e.cache.Get(n)
		if err != nil {
			return nil, err
		}
		expr := ex
		avail[n] = func() *arr.Array { return expr.Eval(res.Primal) }
	}
	// variable levels shadow any expression of the same name
	for _, n := range e.model.VarNames() {
		v, err := e.model.Var(n)
		if err != nil {
			return nil, err
		}
		vv := v
		avail[n] = func() *arr.Array { return vv.Values(res.Primal) }
	}
	if res.RowDual != nil {
		for group, out := range dualOutputs {
			if !e.model.HasConstraint(group) {
				continue
			}
			g, err := e.model.Constraint(group)
			if err != nil {
				return nil, err
			}
			gg := g
			avail[out] = func() *arr.Array { return gg.Duals(res.RowDual) }
		}
	}

	want := names
	if len(want) == 0 {
		want = make([]string, 0, len(avail))
		for n := range avail {
			want = append(want, n)
		}
	} else {
		want = append(append([]string(nil), want...), totalCostName)
	}

	set := &Set{Status: res.Status, Objective: res.Objective, Values: map[string]*arr.Array{}}
	for _, n := range want {
		if _, done := set.Values[n]; done {
			continue
		}
		fn, ok := avail[n]
		if !ok {
			return nil, fmt.Errorf("unknown output series %q", n)
		}
		set.Values[n] = fn()
	}
	return set, nil
}
