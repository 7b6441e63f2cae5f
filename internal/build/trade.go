package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// Trade flows are directed: Export[r,rr] is the energy r sends to rr and
// Import[r,rr] the energy r books as received from rr. Both ends see the
// same flow, so Export[r,rr] equals Import[rr,r] exactly; the line loss
// shows up as a derate on the line's capacity and as the extra share the
// exporting region has to produce.

func (b *Builder) lexNetTrade() (*lp.Expr, error) {
	if !b.hasTrade() {
		return b.zeroExpr(coords.Region, coords.Commodity, coords.Timeslice, coords.Year)
	}
	delivered := b.p("TradeLossBetweenRegions").MulScalar(-1).AddScalar(1)
	// the exporting end gives up the lost share on top of what arrives
	return b.varExpr("Export").Div(delivered).
		Minus(b.varExpr("Import")).
		Sum(coords.OtherRegion).
		Done()
}

func (b *Builder) lexNetTradeAnnual() (*lp.Expr, error) {
	return b.lexPipe("NetTrade").Sum(coords.Timeslice).Done()
}

func (b *Builder) lexAccumulatedNewTradeCapacity() (*lp.Expr, error) {
	v, err := b.model.VarExpr("NewTradeCapacity")
	if err != nil {
		return nil, err
	}
	return b.accumulate(v, b.p("OperationalLifeTrade"))
}

func (b *Builder) lexGrossTradeCapacity() (*lp.Expr, error) {
	return b.lexPipe("AccumulatedNewTradeCapacity").
		AddP(b.p("ResidualTradeCapacity").FillAbsent(0)).
		Done()
}

func (b *Builder) lexCapitalInvestmentTrade() (*lp.Expr, error) {
	unitCost, err := b.p("CapitalCostTrade").FillAbsent(0).Mul(b.fin.CRFTrade)
	if err != nil {
		return nil, err
	}
	if unitCost, err = unitCost.Mul(b.fin.PVAnnuityTrade); err != nil {
		return nil, err
	}
	return b.varExpr("NewTradeCapacity").Mul(unitCost).Done()
}

func (b *Builder) lexDiscountedCapitalInvestmentTrade() (*lp.Expr, error) {
	return b.lexPipe("CapitalInvestmentTrade").Div(b.fin.DiscountFactorTrade).Done()
}

func (b *Builder) lexSalvageValueTrade() (*lp.Expr, error) {
	sv := b.fin.Trade
	return b.varExpr("NewTradeCapacity").Mul(sv.GeomCost).Where(sv.Geometric).
		Plus(b.varExpr("NewTradeCapacity").Mul(sv.LinCost).Where(sv.Linear)).
		Fill0().
		Done()
}

func (b *Builder) lexDiscountedSalvageValueTrade() (*lp.Expr, error) {
	return b.lexPipe("SalvageValueTrade").Div(b.fin.SalvageDiscountTrade).Done()
}

func (b *Builder) lexTotalDiscountedCostTrade() (*lp.Expr, error) {
	return b.lexPipe("DiscountedCapitalInvestmentTrade").
		Minus(b.lexPipe("DiscountedSalvageValueTrade")).
		Done()
}

func (b *Builder) addTrade() error {
	if !b.hasTrade() {
		return nil
	}
	route := b.p("TradeRoute").Present()
	tc2a := b.p("TradeCapacityToActivityUnit")
	delivered := b.p("TradeLossBetweenRegions").MulScalar(-1).AddScalar(1)

	counterImport, err := b.model.VarExpr("Import")
	if err != nil {
		return err
	}
	if counterImport, err = counterImport.SwapAxes(coords.Region, coords.OtherRegion); err != nil {
		return err
	}

	// both ends book the same flow
	err = b.constrainMasked("TC2_TradeSymmetry",
		b.varExpr("Export").Minus(via(counterImport, nil)), lp.Eq, route)
	if err != nil {
		return err
	}

	// the line's capacity, derated by the line loss, bounds each direction
	// of flow on its own
	lineCapacity := b.lexPipe("GrossTradeCapacity").Mul(delivered).Mul(tc2a)
	err = b.constrainMasked("TC1a_TradeCapacityExportLimit",
		b.varExpr("Export").Minus(lineCapacity.Mul(b.p("YearSplit"))), lp.Le, route)
	if err != nil {
		return err
	}
	err = b.constrainMasked("TC1b_TradeCapacityImportLimit",
		via(counterImport, nil).Minus(lineCapacity.Mul(b.p("YearSplit"))), lp.Le, route)
	if err != nil {
		return err
	}

	if af := b.p("AvailabilityFactorTrade"); af.AnyPresent() {
		avail := b.lexPipe("GrossTradeCapacity").Mul(af).Mul(tc2a)
		err = b.constrainMasked("TC3a_TradeAvailabilityFactor",
			b.lexPipe("NetTradeAnnual").Minus(avail), lp.Le, af.Present())
		if err != nil {
			return err
		}
	}
	if minCF := b.p("TotalAnnualMinCapacityFactorTrade"); minCF.AnyPresent() {
		floor := b.lexPipe("GrossTradeCapacity").Mul(minCF).Mul(tc2a)
		err = b.constrainMasked("TC3b_MinAnnualTradeCapacityFactor",
			b.lexPipe("NetTradeAnnual").Minus(floor), lp.Ge, minCF.Present())
		if err != nil {
			return err
		}
	}
	if maxInv := b.p("TotalAnnualMaxTradeInvestment"); maxInv.AnyPresent() {
		err = b.constrainMasked("TC4_MaxTradeInvestment",
			b.varExpr("NewTradeCapacity").SubP(maxInv), lp.Le, maxInv.Present())
		if err != nil {
			return err
		}
	}

	bounds := []struct {
		name  string
		param string
		rel   lp.Relation
	}{
		{"TC5_TotalAnnualTradeActivityUpperLimit", "TotalTradeAnnualActivityUpperLimit", lp.Le},
		{"TC6_TotalAnnualTradeActivityLowerLimit", "TotalTradeAnnualActivityLowerLimit", lp.Ge},
	}
	for _, bd := range bounds {
		param := b.p(bd.param)
		if !param.AnyPresent() {
			continue
		}
		err = b.constrainMasked(bd.name,
			b.lexPipe("NetTradeAnnual").SubP(param), bd.rel, param.Present())
		if err != nil {
			return err
		}
	}
	return nil
}
