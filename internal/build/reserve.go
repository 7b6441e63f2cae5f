package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

func (b *Builder) lexTotalCapacityInReserveMargin() (*lp.Expr, error) {
	return b.lexPipe("GrossCapacity").
		Mul(b.p("ReserveMarginTagTechnology")).
		Mul(b.p("CapacityToActivityUnit")).
		Sum(coords.Technology).
		Done()
}

func (b *Builder) lexDemandNeedingReserveMargin() (*lp.Expr, error) {
	return b.lexPipe("RateOfProduction").
		Mul(b.p("ReserveMarginTagCommodity")).
		Sum(coords.Commodity).
		Done()
}

// addReserveMargin requires tagged firm capacity to exceed the peak-rate
// demand of tagged commodities by the margin, in every timeslice.
func (b *Builder) addReserveMargin() error {
	margin := b.p("ReserveMargin")
	if !margin.AnyPresent() {
		return nil
	}
	return b.constrain("RM3_ReserveMargin_Constraint",
		b.lexPipe("TotalCapacityInReserveMargin").
			Minus(b.lexPipe("DemandNeedingReserveMargin").Mul(margin)),
		lp.Ge, margin.Present())
}
