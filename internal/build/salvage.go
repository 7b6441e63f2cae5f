package build

import "gridplan/internal/lp"

// addSalvageValue fixes the salvage credit for every build-year cell.
// Exactly one branch applies per cell: geometric depreciation when the
// straight-line method meets a positive rate and the asset outlives the
// horizon, linear depreciation for the zero-rate and sinking-fund cases,
// and zero when the asset retires inside the horizon. The discounted form
// moves the credit back to the base year at the end-of-horizon factor.
func (b *Builder) addSalvageValue() error {
	sv := b.fin.Tech

	err := b.constrainMasked("SV1_SalvageValueAtEndOfPeriod1",
		b.varExpr("SalvageValue").Minus(b.varExpr("NewCapacity").Mul(sv.GeomCost)),
		lp.Eq, sv.Geometric)
	if err != nil {
		return err
	}
	err = b.constrainMasked("SV2_SalvageValueAtEndOfPeriod2",
		b.varExpr("SalvageValue").Minus(b.varExpr("NewCapacity").Mul(sv.LinCost)),
		lp.Eq, sv.Linear)
	if err != nil {
		return err
	}
	err = b.constrainMasked("SV3_SalvageValueAtEndOfPeriod3",
		b.varExpr("SalvageValue"), lp.Eq, sv.None)
	if err != nil {
		return err
	}
	return b.constrain("SV4_SalvageValueDiscountedToStartYear",
		b.varExpr("DiscountedSalvageValue").
			Minus(b.varExpr("SalvageValue").Div(b.fin.SalvageDiscount)),
		lp.Eq, nil)
}
