package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// Capital spending is annualized: the up-front cost is spread over the
// asset life by the capital recovery factor, then brought back to present
// value with the annuity factor. At any discount rate the two multiply
// back to exactly the overnight cost.
func (b *Builder) lexCapitalInvestment() (*lp.Expr, error) {
	unitCost, err := b.p("CapitalCost").FillAbsent(0).Mul(b.fin.CRF)
	if err != nil {
		return nil, err
	}
	if unitCost, err = unitCost.Mul(b.fin.PVAnnuity); err != nil {
		return nil, err
	}
	return b.varExpr("NewCapacity").Mul(unitCost).Done()
}

func (b *Builder) lexDiscountedCapitalInvestment() (*lp.Expr, error) {
	return b.lexPipe("CapitalInvestment").Div(b.fin.DiscountFactor).Done()
}

func (b *Builder) lexAnnualFixedOperatingCost() (*lp.Expr, error) {
	return b.lexPipe("GrossCapacity").Mul(b.p("FixedCost")).Done()
}

func (b *Builder) lexAnnualVariableOperatingCost() (*lp.Expr, error) {
	return b.lexPipe("TotalAnnualTechnologyActivityByMode").
		Mul(b.p("VariableCost")).
		Sum(coords.Mode).
		Done()
}

func (b *Builder) lexOperatingCost() (*lp.Expr, error) {
	return b.lexPipe("AnnualVariableOperatingCost").
		Plus(b.lexPipe("AnnualFixedOperatingCost")).
		Done()
}

// Operating costs are discounted mid-year, since they accrue through the
// year rather than at its start.
func (b *Builder) lexDiscountedOperatingCost() (*lp.Expr, error) {
	return b.lexPipe("OperatingCost").Div(b.fin.DiscountFactorMid).Done()
}

func (b *Builder) lexTotalDiscountedCostByTechnology() (*lp.Expr, error) {
	total := b.lexPipe("DiscountedCapitalInvestment").
		Plus(b.lexPipe("DiscountedOperatingCost")).
		Minus(b.varExpr("DiscountedSalvageValue"))
	if b.hasEmissions() {
		total = total.Plus(b.varExpr("DiscountedTechnologyEmissionsPenalty"))
	}
	return total.Done()
}

// TotalDiscountedCost folds every asset class into one cost per region and
// year. Storage and trade contribute only when the scenario carries them.
func (b *Builder) lexTotalDiscountedCost() (*lp.Expr, error) {
	total := b.lexPipe("TotalDiscountedCostByTechnology").Sum(coords.Technology)
	if b.hasStorage() {
		total = total.Plus(b.lexPipe("TotalDiscountedStorageCost").Sum(coords.Storage))
	}
	if b.hasTrade() {
		total = total.Plus(b.lexPipe("TotalDiscountedCostTrade").
			Sum(coords.OtherRegion, coords.Commodity))
	}
	return total.Done()
}

func (b *Builder) setObjective() error {
	obj, err := b.lexPipe("TotalDiscountedCost").SumAll().Done()
	if err != nil {
		return err
	}
	return b.model.SetObjective(obj)
}
