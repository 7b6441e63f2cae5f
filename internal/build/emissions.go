package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

func (b *Builder) lexAnnualTechnologyEmissionByMode() (*lp.Expr, error) {
	ear := b.p("EmissionActivityRatio")
	return b.lexPipe("TotalAnnualTechnologyActivityByMode").
		Mul(ear).
		Where(ear.Ne(0)).
		Done()
}

func (b *Builder) lexAnnualTechnologyEmission() (*lp.Expr, error) {
	return b.lexPipe("AnnualTechnologyEmissionByMode").Sum(coords.Mode).Done()
}

func (b *Builder) lexAnnualTechnologyEmissionsPenalty() (*lp.Expr, error) {
	return b.lexPipe("AnnualTechnologyEmission").
		Mul(b.p("EmissionsPenalty")).
		Sum(coords.Emission).
		Done()
}

func (b *Builder) lexAnnualEmissions() (*lp.Expr, error) {
	return b.lexPipe("AnnualTechnologyEmission").Sum(coords.Technology).Done()
}

func (b *Builder) lexModelPeriodEmissions() (*lp.Expr, error) {
	return b.lexPipe("AnnualEmissions").Sum(coords.Year).Done()
}

// addEmissions prices emitted quantities and applies the optional annual
// and whole-horizon caps. Exogenous emissions count against the caps but
// carry no penalty.
func (b *Builder) addEmissions() error {
	if !b.hasEmissions() {
		return nil
	}

	err := b.constrain("E5_DiscountedEmissionsPenaltyByTechnology",
		b.varExpr("DiscountedTechnologyEmissionsPenalty").
			Minus(b.lexPipe("AnnualTechnologyEmissionsPenalty").Div(b.fin.DiscountFactorMid)),
		lp.Eq, nil)
	if err != nil {
		return err
	}

	if limit := b.p("AnnualEmissionLimit"); limit.AnyPresent() {
		err = b.constrain("E8_AnnualEmissionsLimit",
			b.lexPipe("AnnualEmissions").
				AddP(b.p("AnnualExogenousEmission").FillAbsent(0)).
				SubP(limit),
			lp.Le, nil)
		if err != nil {
			return err
		}
	}
	if limit := b.p("ModelPeriodEmissionLimit"); limit.AnyPresent() {
		err = b.constrain("E9_ModelPeriodEmissionsLimit",
			b.lexPipe("ModelPeriodEmissions").
				AddP(b.p("ModelPeriodExogenousEmission").FillAbsent(0)).
				SubP(limit),
			lp.Le, nil)
		if err != nil {
			return err
		}
	}
	return nil
}
