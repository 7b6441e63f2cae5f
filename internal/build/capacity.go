package build

import (
	"gridplan/internal/arr"
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// accumulate sums a build-year variable over the years its vintage is
// still alive: every earlier build year whose age is below the
// operational life contributes. Years are compared by value, so uneven
// year spacing ages vintages correctly.
func (b *Builder) accumulate(v *lp.Expr, life *arr.Array) (*lp.Expr, error) {
	acc := v
	n := b.yearNum.Space().Size()
	for k := 1; k < n; k++ {
		shiftedYears, err := b.yearNum.Shift(coords.Year, k)
		if err != nil {
			return nil, err
		}
		age, err := b.yearNum.Sub(shiftedYears)
		if err != nil {
			return nil, err
		}
		headroom, err := life.Sub(age)
		if err != nil {
			return nil, err
		}
		alive := headroom.Gt(0)
		if !alive.Any() {
			break
		}
		term, err := v.Shift(coords.Year, k)
		if err != nil {
			return nil, err
		}
		if term, err = term.Where(alive); err != nil {
			return nil, err
		}
		if acc, err = acc.Add(term); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (b *Builder) lexAccumulatedNewCapacity() (*lp.Expr, error) {
	v, err := b.model.VarExpr("NewCapacity")
	if err != nil {
		return nil, err
	}
	return b.accumulate(v, b.p("OperationalLife"))
}

func (b *Builder) lexGrossCapacity() (*lp.Expr, error) {
	return b.lexPipe("AccumulatedNewCapacity").
		AddP(b.p("ResidualCapacity").FillAbsent(0)).
		Done()
}

// addCapacityAdequacy caps activity by installed capacity, both within
// each timeslice and over the year, and ties discrete builds to unit size.
func (b *Builder) addCapacityAdequacy() error {
	cf := b.p("CapacityFactor")
	c2a := b.p("CapacityToActivityUnit")
	af := b.p("AvailabilityFactor")

	available := b.lexPipe("GrossCapacity").Mul(cf).Mul(c2a)
	err := b.constrain("CAa4_Constraint_Capacity",
		b.lexPipe("RateOfTotalActivity").Minus(available), lp.Le, nil)
	if err != nil {
		return err
	}

	// annual energy available after the capacity-factor profile, further
	// derated by the availability factor; rows only where maintenance
	// actually removes capacity
	annualAvailable := b.lexPipe("GrossCapacity").
		Mul(cf).Mul(b.p("YearSplit")).
		Sum(coords.Timeslice).
		Mul(af).Mul(c2a)
	err = b.constrainMasked("CAb1_PlannedMaintenance",
		b.lexPipe("TotalTechnologyAnnualActivity").Minus(annualAvailable), lp.Le, af.Lt(1))
	if err != nil {
		return err
	}

	if units := b.p("CapacityOfOneTechnologyUnit"); units.AnyPresent() {
		err = b.constrain("CAa5_TotalNewCapacity",
			b.varExpr("NewCapacity").Minus(b.varExpr("NumberOfNewTechnologyUnits").Mul(units)),
			lp.Eq, units.Present())
		if err != nil {
			return err
		}
	}
	return nil
}

// addCapacityLimits applies the optional absolute bounds on gross capacity
// and on new builds.
func (b *Builder) addCapacityLimits() error {
	bounds := []struct {
		name  string
		expr  string
		param string
		rel   lp.Relation
	}{
		{"TCC1_TotalAnnualMaxCapacityConstraint", "GrossCapacity", "TotalAnnualMaxCapacity", lp.Le},
		{"TCC2_TotalAnnualMinCapacityConstraint", "GrossCapacity", "TotalAnnualMinCapacity", lp.Ge},
		{"NCC1_TotalAnnualMaxNewCapacityConstraint", "NewCapacity", "TotalAnnualMaxCapacityInvestment", lp.Le},
		{"NCC2_TotalAnnualMinNewCapacityConstraint", "NewCapacity", "TotalAnnualMinCapacityInvestment", lp.Ge},
	}
	for _, bd := range bounds {
		param := b.p(bd.param)
		if !param.AnyPresent() {
			continue
		}
		var base pipe
		if b.model.HasVar(bd.expr) {
			base = b.varExpr(bd.expr)
		} else {
			base = b.lexPipe(bd.expr)
		}
		if err := b.constrain(bd.name, base.SubP(param), bd.rel, nil); err != nil {
			return err
		}
	}
	return nil
}

// addCapacityGrowth limits year-on-year capacity additions. Where both a
// growth-rate cap and an additive floor are given, a binary selector lets
// the looser of the two bind, linearized with a big-M chosen from the
// demand scale. The growth base is the previous year's gross capacity on
// every branch, so first-model-year builds are never growth-limited.
func (b *Builder) addCapacityGrowth() error {
	floor := b.p("CapacityAdditionalMaxFloor")
	maxGrowth := b.p("CapacityAdditionalMaxGrowthRate")
	minGrowth := b.p("CapacityAdditionalMinGrowthRate")

	prevCap := b.lexPipe("GrossCapacity").Shift(coords.Year, 1)

	// no previous-year base exists in the first model year, so growth
	// limits only bind from the second year on
	firstYear, err := b.edgeMask(coords.Year, false)
	if err != nil {
		return err
	}
	laterYears := firstYear.Not()

	if b.model.HasVar("CapacityAdditionalSelector") {
		both, err := floor.Present().And(maxGrowth.Present())
		if err != nil {
			return err
		}
		if both, err = both.And(laterYears); err != nil {
			return err
		}
		bigM := b.growthBigM()
		sel := b.varExpr("CapacityAdditionalSelector")

		// NewCapacity <= max(floor, prev*rate): the selector relaxes
		// exactly one branch, so the looser bound is the one that holds
		err = b.constrainMasked("GRC1a_MaxGrowthRateFloor",
			b.varExpr("NewCapacity").Minus(sel.Scale(bigM)).SubP(floor), lp.Le, both)
		if err != nil {
			return err
		}
		err = b.constrainMasked("GRC1b_MaxGrowthRateCap",
			b.varExpr("NewCapacity").Plus(sel.Scale(bigM)).AddConst(-bigM).Minus(prevCap.Mul(maxGrowth)),
			lp.Le, both)
		if err != nil {
			return err
		}
	}

	if maxGrowth.AnyPresent() {
		growthOnly, err := growthOnlyMask(maxGrowth, floor)
		if err != nil {
			return err
		}
		if growthOnly, err = growthOnly.And(laterYears); err != nil {
			return err
		}
		if growthOnly.Any() {
			err = b.constrainMasked("GRC2_MaxGrowthRate",
				b.varExpr("NewCapacity").Minus(prevCap.Mul(maxGrowth)), lp.Le, growthOnly)
			if err != nil {
				return err
			}
		}
	}
	if minGrowth.AnyPresent() {
		minMask, err := minGrowth.Present().And(laterYears)
		if err != nil {
			return err
		}
		err = b.constrainMasked("GRC3_MinGrowthRate",
			b.varExpr("NewCapacity").Minus(prevCap.Mul(minGrowth)), lp.Ge, minMask)
		if err != nil {
			return err
		}
	}
	return nil
}

func growthOnlyMask(growth, floor *arr.Array) (*arr.Mask, error) {
	return growth.Present().And(floor.Present().Not())
}

// growthBigM scales the linearization constant off the largest demand in
// the scenario, falling back to a fixed bound for demand-free datasets.
func (b *Builder) growthBigM() float64 {
	m := b.p("AccumulatedAnnualDemand").Max()
	if v := b.p("SpecifiedAnnualDemand").Max(); v > m {
		m = v
	}
	if m <= 0 {
		return 1e6
	}
	return m * 1000
}
