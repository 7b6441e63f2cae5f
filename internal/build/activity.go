package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

func (b *Builder) lexRateOfTotalActivity() (*lp.Expr, error) {
	return b.varExpr("RateOfActivity").Sum(coords.Mode).Done()
}

func (b *Builder) lexTotalAnnualTechnologyActivityByMode() (*lp.Expr, error) {
	return b.varExpr("RateOfActivity").
		Mul(b.p("YearSplit")).
		Sum(coords.Timeslice).
		Done()
}

func (b *Builder) lexTotalTechnologyAnnualActivity() (*lp.Expr, error) {
	return b.lexPipe("RateOfTotalActivity").
		Mul(b.p("YearSplit")).
		Sum(coords.Timeslice).
		Done()
}

func (b *Builder) lexTotalTechnologyModelPeriodActivity() (*lp.Expr, error) {
	return b.lexPipe("TotalTechnologyAnnualActivity").Sum(coords.Year).Done()
}

// addActivityLimits applies the optional annual and whole-horizon activity
// bounds, plus the minimum annual capacity factor.
func (b *Builder) addActivityLimits() error {
	bounds := []struct {
		name  string
		expr  string
		param string
		rel   lp.Relation
	}{
		{"AAC2_TotalAnnualTechnologyActivityUpperLimit", "TotalTechnologyAnnualActivity", "TotalTechnologyAnnualActivityUpperLimit", lp.Le},
		{"AAC3_TotalAnnualTechnologyActivityLowerLimit", "TotalTechnologyAnnualActivity", "TotalTechnologyAnnualActivityLowerLimit", lp.Ge},
		{"TAC2_TotalModelHorizonTechnologyActivityUpperLimit", "TotalTechnologyModelPeriodActivity", "TotalTechnologyModelPeriodActivityUpperLimit", lp.Le},
		{"TAC3_TotalModelHorizonTechnologyActivityLowerLimit", "TotalTechnologyModelPeriodActivity", "TotalTechnologyModelPeriodActivityLowerLimit", lp.Ge},
	}
	for _, bd := range bounds {
		param := b.p(bd.param)
		if !param.AnyPresent() {
			continue
		}
		if err := b.constrain(bd.name, b.lexPipe(bd.expr).SubP(param), bd.rel, nil); err != nil {
			return err
		}
	}

	if minCF := b.p("TotalAnnualMinCapacityFactor"); minCF.AnyPresent() {
		floor := b.lexPipe("GrossCapacity").Mul(minCF).Mul(b.p("CapacityToActivityUnit"))
		err := b.constrain("ACF1_MinAnnualCapacityFactor",
			b.lexPipe("TotalTechnologyAnnualActivity").Minus(floor), lp.Ge, minCF.Present())
		if err != nil {
			return err
		}
	}
	return nil
}
