package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// Region-group aggregates sum over the regions tagged into the group by
// RegionGroupTagRegion. Untagged regions drop out of the aggregate rather
// than contributing zero rows.

func (b *Builder) lexAnnualEmissionsRegionGroup() (*lp.Expr, error) {
	return b.lexPipe("AnnualEmissions").
		Mul(b.p("RegionGroupTagRegion")).
		Sum(coords.Region).
		Done()
}

func (b *Builder) lexProductionAnnualRERegionGroup() (*lp.Expr, error) {
	return b.lexPipe("ProductionAnnualRE").
		Mul(b.p("RegionGroupTagRegion")).
		Sum(coords.Region).
		Done()
}

func (b *Builder) lexREProductionTargetDemandRegionGroup() (*lp.Expr, error) {
	return b.lexPipe("REProductionTargetDemand").
		Mul(b.p("RegionGroupTagRegion")).
		Sum(coords.Region).
		Done()
}

// addRegionGroups applies the caps and targets that bind across the tagged
// group of regions as a whole.
func (b *Builder) addRegionGroups() error {
	if !b.p("RegionGroupTagRegion").AnyPresent() {
		return nil
	}

	if limit := b.p("AnnualEmissionLimitRegionGroup"); b.hasEmissions() && limit.AnyPresent() {
		err := b.constrain("E10_AnnualEmissionsLimitRegionGroup",
			b.lexPipe("AnnualEmissionsRegionGroup").
				AddP(b.p("AnnualExogenousEmissionRegionGroup").FillAbsent(0)).
				SubP(limit),
			lp.Le, nil)
		if err != nil {
			return err
		}
	}

	if target := b.p("RegionGroupREMinProductionTarget"); target.AnyPresent() {
		err := b.constrain("RE2_RegionGroupConstraint",
			b.lexPipe("ProductionAnnualRERegionGroup").
				Minus(b.lexPipe("REProductionTargetDemandRegionGroup").Mul(target)),
			lp.Ge, target.Present())
		if err != nil {
			return err
		}
	}
	return nil
}
