package build

import (
	"fmt"
	"math"

	"gridplan/internal/arr"
)

// svFactors carries the salvage-value branch selection for one asset class.
// The three masks are mutually exclusive and cover every cell of the cost
// coordinate space: geometric depreciation past the horizon, linear
// depreciation past the horizon, and retirement within the horizon.
type svFactors struct {
	Geometric *arr.Mask // straight-line method with a positive rate
	Linear    *arr.Mask // zero rate, or sinking-fund method
	None      *arr.Mask // asset life ends inside the model horizon
	GeomCost  *arr.Array
	LinCost   *arr.Array
}

// financials holds every parameter-derived discounting factor. They are
// computed once per build and shared by all cost expressions.
type financials struct {
	firstYear float64
	lastYear  float64

	DiscountFactor    *arr.Array // [region, year]
	DiscountFactorMid *arr.Array // [region, year], mid-year operation
	SalvageDiscount   *arr.Array // [region, technology], end-of-horizon factor

	RateIdv   *arr.Array // [region, technology], falls back to DiscountRate
	PVAnnuity *arr.Array // [region, technology]
	CRF       *arr.Array // [region, technology]
	Tech      *svFactors

	RateStorage            *arr.Array // [region, storage]
	DiscountFactorStorage  *arr.Array // [region, storage, year]
	SalvageDiscountStorage *arr.Array // [region, storage]
	Storage                *svFactors

	RateTrade            *arr.Array // [region, _region, commodity]
	PVAnnuityTrade       *arr.Array
	CRFTrade             *arr.Array
	DiscountFactorTrade  *arr.Array // [region, _region, commodity, year]
	SalvageDiscountTrade *arr.Array
	Trade                *svFactors
}

func (b *Builder) computeFinancials() (*financials, error) {
	f := &financials{}
	yv := b.yearNum
	f.firstYear, _ = yv.At(0)
	f.lastYear, _ = yv.At(yv.Space().Size() - 1)

	dr := b.p("DiscountRate")
	var err error
	if f.DiscountFactor, err = powYears(dr, yv, f.firstYear, 0); err != nil {
		return nil, err
	}
	if f.DiscountFactorMid, err = powYears(dr, yv, f.firstYear, 0.5); err != nil {
		return nil, err
	}
	if f.RateIdv, err = arr.Fallback(b.p("DiscountRateIdv"), dr); err != nil {
		return nil, err
	}
	// salvage credits discount at the technology-specific rate
	f.SalvageDiscount = horizonFactor(f.RateIdv, f.firstYear, f.lastYear)
	life := b.p("OperationalLife")
	if f.PVAnnuity, err = arr.Zip(f.RateIdv, life, pvAnnuity); err != nil {
		return nil, err
	}
	if f.CRF, err = arr.Zip(f.RateIdv, life, capitalRecovery); err != nil {
		return nil, err
	}
	capex := b.p("CapitalCost").FillAbsent(0)
	if f.Tech, err = b.salvageFactors(f.RateIdv, life, capex); err != nil {
		return nil, fmt.Errorf("technology salvage: %w", err)
	}

	if b.hasStorage() {
		if f.RateStorage, err = arr.Fallback(b.p("DiscountRateStorage"), dr); err != nil {
			return nil, err
		}
		if f.DiscountFactorStorage, err = powYears(f.RateStorage, yv, f.firstYear, 0); err != nil {
			return nil, err
		}
		f.SalvageDiscountStorage = horizonFactor(f.RateStorage, f.firstYear, f.lastYear)
		capexS := b.p("CapitalCostStorage").FillAbsent(0)
		if f.Storage, err = b.salvageFactors(f.RateStorage, b.p("OperationalLifeStorage"), capexS); err != nil {
			return nil, fmt.Errorf("storage salvage: %w", err)
		}
	}

	if b.hasTrade() {
		if f.RateTrade, err = arr.Fallback(b.p("DiscountRateTrade"), dr); err != nil {
			return nil, err
		}
		lifeT := b.p("OperationalLifeTrade")
		if f.PVAnnuityTrade, err = arr.Zip(f.RateTrade, lifeT, pvAnnuity); err != nil {
			return nil, err
		}
		if f.CRFTrade, err = arr.Zip(f.RateTrade, lifeT, capitalRecovery); err != nil {
			return nil, err
		}
		if f.DiscountFactorTrade, err = powYears(f.RateTrade, yv, f.firstYear, 0); err != nil {
			return nil, err
		}
		f.SalvageDiscountTrade = horizonFactor(f.RateTrade, f.firstYear, f.lastYear)
		capexT := b.p("CapitalCostTrade").FillAbsent(0)
		if f.Trade, err = b.salvageFactors(f.RateTrade, lifeT, capexT); err != nil {
			return nil, fmt.Errorf("trade salvage: %w", err)
		}
	}
	return f, nil
}

// powYears returns (1+rate)^(year-first+offset) on the union of the rate
// space and the year axis.
func powYears(rate, yv *arr.Array, first, offset float64) (*arr.Array, error) {
	return arr.Zip(rate, yv, func(r, y float64) float64 {
		return math.Pow(1+r, y-first+offset)
	})
}

// horizonFactor is the (1+rate)^(1+last-first) factor that moves salvage
// credits from the end of the horizon back to the base year.
func horizonFactor(rate *arr.Array, first, last float64) *arr.Array {
	return rate.Map(func(r float64) float64 {
		return math.Pow(1+r, 1+last-first)
	})
}

// pvAnnuity is the present value of a unit annuity over the asset life.
// The zero-rate case takes the analytic limit so capital recovery times
// annuity stays exactly one.
func pvAnnuity(r, life float64) float64 {
	if r == 0 {
		return life
	}
	return (1 - math.Pow(1+r, -life)) * (1 + r) / r
}

func capitalRecovery(r, life float64) float64 {
	if r == 0 {
		return 1 / life
	}
	return (1 - math.Pow(1+r, -1)) / (1 - math.Pow(1+r, -life))
}

// salvageFactors classifies every cost cell by how its asset depreciates
// past the model horizon and precomputes the per-unit salvage cost for the
// two live branches. The geometric fraction divides by (1+r)^life - 1,
// which is only evaluated under the positive-rate mask.
func (b *Builder) salvageFactors(rate, life, capex *arr.Array) (*svFactors, error) {
	method := b.p("DepreciationMethod")
	straight := method.Eq(DepreciationStraightLine)
	sinking := method.Eq(DepreciationSinkingFund)

	// end-of-life year per build-year cell
	endYear, err := arr.Zip(b.yearNum, life, func(y, l float64) float64 { return y + l - 1 })
	if err != nil {
		return nil, err
	}
	last, _ := b.yearNum.At(b.yearNum.Space().Size() - 1)
	beyond := endYear.Gt(last)
	within := beyond.Not()

	ratePos := rate.Gt(0)
	rateZero := rate.Eq(0)

	geom, err := andMasks(straight, beyond, ratePos)
	if err != nil {
		return nil, err
	}
	linStraight, err := andMasks(straight, beyond, rateZero)
	if err != nil {
		return nil, err
	}
	linSinking, err := andMasks(sinking, beyond)
	if err != nil {
		return nil, err
	}
	lin, err := linStraight.Or(linSinking)
	if err != nil {
		return nil, err
	}

	// 1 - ((1+r)^(last-y+1) - 1) / ((1+r)^life - 1), per unit of capex
	num, err := arr.Zip(rate, b.yearNum, func(r, y float64) float64 {
		return math.Pow(1+r, last-y+1) - 1
	})
	if err != nil {
		return nil, err
	}
	den, err := arr.Zip(rate, life, func(r, l float64) float64 {
		return math.Pow(1+r, l) - 1
	})
	if err != nil {
		return nil, err
	}
	geomFrac, err := num.Div(den)
	if err != nil {
		return nil, err
	}
	geomCost, err := capex.Mul(geomFrac.MulScalar(-1).AddScalar(1))
	if err != nil {
		return nil, err
	}

	// 1 - (last - y + 1) / life
	linFrac, err := arr.Zip(b.yearNum, life, func(y, l float64) float64 {
		return (last - y + 1) / l
	})
	if err != nil {
		return nil, err
	}
	linCost, err := capex.Mul(linFrac.MulScalar(-1).AddScalar(1))
	if err != nil {
		return nil, err
	}

	return &svFactors{
		Geometric: geom,
		Linear:    lin,
		None:      within,
		GeomCost:  geomCost,
		LinCost:   linCost,
	}, nil
}

func andMasks(ms ...*arr.Mask) (*arr.Mask, error) {
	out := ms[0]
	var err error
	for _, m := range ms[1:] {
		if out, err = out.And(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}
