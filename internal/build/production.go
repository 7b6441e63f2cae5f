package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// Production and use chains follow the activity variable through the
// output and input activity ratios. Modes without a ratio are dropped, not
// zero-filled, so technologies only touch the commodities they declare.

func (b *Builder) lexRateOfProductionByTechnologyByMode() (*lp.Expr, error) {
	oar := b.p("OutputActivityRatio")
	return b.varExpr("RateOfActivity").Mul(oar).Where(oar.Ne(0)).Done()
}

func (b *Builder) lexRateOfProductionByTechnology() (*lp.Expr, error) {
	return b.lexPipe("RateOfProductionByTechnologyByMode").Sum(coords.Mode).Done()
}

func (b *Builder) lexProductionByTechnology() (*lp.Expr, error) {
	return b.lexPipe("RateOfProductionByTechnology").Mul(b.p("YearSplit")).Done()
}

func (b *Builder) lexRateOfProduction() (*lp.Expr, error) {
	return b.lexPipe("RateOfProductionByTechnology").Sum(coords.Technology).Done()
}

func (b *Builder) lexProduction() (*lp.Expr, error) {
	return b.lexPipe("RateOfProduction").Mul(b.p("YearSplit")).Done()
}

func (b *Builder) lexProductionAnnual() (*lp.Expr, error) {
	return b.lexPipe("Production").Sum(coords.Timeslice).Done()
}

func (b *Builder) lexRateOfUseByTechnologyByMode() (*lp.Expr, error) {
	iar := b.p("InputActivityRatio")
	return b.varExpr("RateOfActivity").Mul(iar).Where(iar.Ne(0)).Done()
}

func (b *Builder) lexRateOfUse() (*lp.Expr, error) {
	return b.lexPipe("RateOfUseByTechnologyByMode").
		Sum(coords.Mode).
		Sum(coords.Technology).
		Done()
}

func (b *Builder) lexUse() (*lp.Expr, error) {
	return b.lexPipe("RateOfUse").Mul(b.p("YearSplit")).Done()
}

func (b *Builder) lexUseAnnual() (*lp.Expr, error) {
	return b.lexPipe("Use").Sum(coords.Timeslice).Done()
}

// Demand is the sliced form of the specified annual demand. Both the
// annual total and the profile must be present for a cell to demand
// anything.
func (b *Builder) lexDemand() (*lp.Expr, error) {
	return paramExpr(b.p("SpecifiedAnnualDemand")).
		Mul(b.p("SpecifiedDemandProfile")).
		Done()
}

func (b *Builder) lexProductionAnnualRE() (*lp.Expr, error) {
	return b.lexPipe("ProductionByTechnology").
		Mul(b.p("RETagTechnology")).
		Sum(coords.Timeslice, coords.Technology, coords.Commodity).
		Done()
}

func (b *Builder) lexREProductionTargetDemand() (*lp.Expr, error) {
	return b.lexPipe("ProductionAnnual").
		Mul(b.p("RETagCommodity")).
		Sum(coords.Commodity).
		Done()
}

// addEnergyBalance enforces supply adequacy per commodity: sliced
// production covers sliced demand, technology use, and net exports; annual
// production additionally covers the unsliced accumulated demand.
func (b *Builder) addEnergyBalance() error {
	sliced := b.lexPipe("Production").
		Minus(b.lexPipe("Demand").Fill0()).
		Minus(b.lexPipe("Use")).
		Minus(b.lexPipe("NetTrade"))
	if err := b.constrain("EBa11_EnergyBalanceEachTS5", sliced, lp.Ge, nil); err != nil {
		return err
	}

	annual := b.lexPipe("ProductionAnnual").
		SubP(b.p("AccumulatedAnnualDemand").FillAbsent(0)).
		Minus(b.lexPipe("UseAnnual")).
		Minus(b.lexPipe("NetTradeAnnual"))
	return b.constrain("EBb4_EnergyBalanceEachYear4", annual, lp.Ge, nil)
}

// addRenewableTargets enforces the per-region minimum renewable share of
// tagged-commodity production.
func (b *Builder) addRenewableTargets() error {
	target := b.p("REMinProductionTarget")
	if !target.AnyPresent() {
		return nil
	}
	return b.constrain("RE4_EnergyConstraint",
		b.lexPipe("ProductionAnnualRE").
			Minus(b.lexPipe("REProductionTargetDemand").Mul(target)),
		lp.Ge, target.Present())
}
