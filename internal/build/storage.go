package build

import (
	"fmt"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

// Storage accounting runs on the season / day-type / time-bracket
// hierarchy. Charge and discharge rates live on the hierarchy axes; the
// conversion parameters map each timeslice onto its position in it. Level
// variables exist at year, season, and day-type boundaries, chained by the
// net charge accumulated between them.

// conversionWeight maps a timeslice onto the hierarchy: nonzero exactly
// where the slice belongs to the season, day type, and bracket at once.
func (b *Builder) conversionWeight() (*arr.Array, error) {
	if b.convW != nil {
		return b.convW, nil
	}
	w, err := b.p("Conversionls").Mul(b.p("Conversionld"))
	if err != nil {
		return nil, err
	}
	if w, err = w.Mul(b.p("Conversionlh")); err != nil {
		return nil, err
	}
	if !w.AnyPresent() {
		return nil, fmt.Errorf("storage requires the timeslice conversion parameters")
	}
	b.convW = w
	return w, nil
}

func (b *Builder) storageFlow(link string) (*lp.Expr, error) {
	linkP := b.p(link)
	w, err := b.conversionWeight()
	if err != nil {
		return nil, err
	}
	return b.varExpr("RateOfActivity").
		Mul(linkP).
		Where(linkP.Gt(0)).
		Mul(w).
		Sum(coords.Mode, coords.Technology, coords.Timeslice).
		Done()
}

func (b *Builder) lexRateOfStorageCharge() (*lp.Expr, error) {
	return b.storageFlow("TechnologyToStorage")
}

func (b *Builder) lexRateOfStorageDischarge() (*lp.Expr, error) {
	return b.storageFlow("TechnologyFromStorage")
}

// NetChargeWithinYear weights the net charge rate by the yearly hours each
// hierarchy position covers; NetChargeWithinDay by the hours of one day.
func (b *Builder) lexNetChargeWithinYear() (*lp.Expr, error) {
	w, err := b.conversionWeight()
	if err != nil {
		return nil, err
	}
	hours, err := b.p("YearSplit").Mul(w)
	if err != nil {
		return nil, err
	}
	if hours, err = hours.SumOver(coords.Timeslice); err != nil {
		return nil, err
	}
	return b.lexPipe("RateOfStorageCharge").
		Minus(b.lexPipe("RateOfStorageDischarge")).
		Mul(hours).
		Done()
}

func (b *Builder) lexNetChargeWithinDay() (*lp.Expr, error) {
	return b.lexPipe("RateOfStorageCharge").
		Minus(b.lexPipe("RateOfStorageDischarge")).
		Mul(b.p("DaySplit")).
		Done()
}

func (b *Builder) lexAccumulatedNewStorageCapacity() (*lp.Expr, error) {
	v, err := b.model.VarExpr("NewStorageCapacity")
	if err != nil {
		return nil, err
	}
	return b.accumulate(v, b.p("OperationalLifeStorage"))
}

func (b *Builder) lexStorageUpperLimit() (*lp.Expr, error) {
	return b.lexPipe("AccumulatedNewStorageCapacity").
		AddP(b.p("ResidualStorageCapacity").FillAbsent(0)).
		Done()
}

func (b *Builder) lexStorageLowerLimit() (*lp.Expr, error) {
	return b.lexPipe("StorageUpperLimit").Mul(b.p("MinStorageCharge")).Done()
}

func (b *Builder) lexCapitalInvestmentStorage() (*lp.Expr, error) {
	return b.varExpr("NewStorageCapacity").
		Mul(b.p("CapitalCostStorage").FillAbsent(0)).
		Done()
}

func (b *Builder) lexDiscountedCapitalInvestmentStorage() (*lp.Expr, error) {
	return b.lexPipe("CapitalInvestmentStorage").Div(b.fin.DiscountFactorStorage).Done()
}

func (b *Builder) lexSalvageValueStorage() (*lp.Expr, error) {
	sv := b.fin.Storage
	return b.varExpr("NewStorageCapacity").Mul(sv.GeomCost).Where(sv.Geometric).
		Plus(b.varExpr("NewStorageCapacity").Mul(sv.LinCost).Where(sv.Linear)).
		Fill0().
		Done()
}

func (b *Builder) lexDiscountedSalvageValueStorage() (*lp.Expr, error) {
	return b.lexPipe("SalvageValueStorage").Div(b.fin.SalvageDiscountStorage).Done()
}

func (b *Builder) lexTotalDiscountedStorageCost() (*lp.Expr, error) {
	return b.lexPipe("DiscountedCapitalInvestmentStorage").
		Minus(b.lexPipe("DiscountedSalvageValueStorage")).
		Done()
}

// edgeMask selects the first (or last) member along one axis.
func (b *Builder) edgeMask(axis string, last bool) (*arr.Mask, error) {
	space, err := b.space(axis)
	if err != nil {
		return nil, err
	}
	m := arr.NewMask(space)
	if space.Size() == 0 {
		return m, nil
	}
	if last {
		m.Set(space.Size()-1, true)
	} else {
		m.Set(0, true)
	}
	return m, nil
}

// cumShift sums the strictly earlier (dir=1) or strictly later (dir=-1)
// positions of e along dim. The result is present everywhere, zero at the
// edge position that has nothing before or after it.
func (b *Builder) cumShift(e *lp.Expr, dim string, dir int) (*lp.Expr, error) {
	n, err := e.Space().DimLen(dim)
	if err != nil {
		return nil, err
	}
	out := lp.FromParam(arr.Full(e.Space(), 0))
	for k := 1; k < n; k++ {
		t, err := e.Shift(dim, dir*k)
		if err != nil {
			return nil, err
		}
		if out, err = out.Add(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *Builder) addStorage() error {
	if !b.hasStorage() {
		return nil
	}
	for _, ax := range []string{coords.Season, coords.DayType, coords.TimeBracket} {
		if !b.u.Has(ax) || b.u.Len(ax) == 0 {
			return fmt.Errorf("storage requires axis %q", ax)
		}
	}
	if err := b.addStorageLevelChain(); err != nil {
		return err
	}
	if err := b.addStorageLevelBounds(); err != nil {
		return err
	}
	return b.addStorageRateCaps()
}

// addStorageLevelChain ties the boundary level variables together: each
// year, season, and day type starts where the previous one ended plus the
// net charge accumulated in between.
func (b *Builder) addStorageLevelChain() error {
	firstYear, err := b.edgeMask(coords.Year, false)
	if err != nil {
		return err
	}
	lastYear, err := b.edgeMask(coords.Year, true)
	if err != nil {
		return err
	}
	firstSeason, err := b.edgeMask(coords.Season, false)
	if err != nil {
		return err
	}
	lastSeason, err := b.edgeMask(coords.Season, true)
	if err != nil {
		return err
	}
	firstDay, err := b.edgeMask(coords.DayType, false)
	if err != nil {
		return err
	}
	lastDay, err := b.edgeMask(coords.DayType, true)
	if err != nil {
		return err
	}

	yearNet := b.lexPipe("NetChargeWithinYear").
		Sum(coords.Season, coords.DayType, coords.TimeBracket)
	seasonNet := b.lexPipe("NetChargeWithinYear").
		Sum(coords.DayType, coords.TimeBracket)
	dayNet := b.lexPipe("NetChargeWithinDay").
		Sum(coords.TimeBracket).
		Mul(b.p("DaysInDayType"))

	// year start: the configured initial level, then last year's start
	// plus everything charged in it
	start := b.varExpr("StorageLevelYearStart").
		SubP(b.p("StorageLevelStart").FillAbsent(0)).
		Where(firstYear)
	chain := b.varExpr("StorageLevelYearStart").
		Minus(b.varExpr("StorageLevelYearStart").Shift(coords.Year, 1)).
		Minus(yearNet.Shift(coords.Year, 1)).
		Where(firstYear.Not())
	if err := b.constrain("S5_and_S6_StorageLevelYearStart", start.Plus(chain), lp.Eq, nil); err != nil {
		return err
	}

	// year finish: next year's start, except the horizon's last year,
	// which closes on its own start plus its own net charge
	finish := b.varExpr("StorageLevelYearFinish").
		Minus(b.varExpr("StorageLevelYearStart").Shift(coords.Year, -1)).
		Where(lastYear.Not())
	finishLast := b.varExpr("StorageLevelYearFinish").
		Minus(b.varExpr("StorageLevelYearStart")).
		Minus(yearNet).
		Where(lastYear)
	if err := b.constrain("S7_and_S8_StorageLevelYearFinish", finish.Plus(finishLast), lp.Eq, nil); err != nil {
		return err
	}

	// season start
	seasonFirst := b.varExpr("StorageLevelSeasonStart").
		Minus(b.varExpr("StorageLevelYearStart")).
		Where(firstSeason)
	seasonChain := b.varExpr("StorageLevelSeasonStart").
		Minus(b.varExpr("StorageLevelSeasonStart").Shift(coords.Season, 1)).
		Minus(seasonNet.Shift(coords.Season, 1)).
		Where(firstSeason.Not())
	if err := b.constrain("S9_and_S10_StorageLevelSeasonStart", seasonFirst.Plus(seasonChain), lp.Eq, nil); err != nil {
		return err
	}

	// day-type start
	dayFirst := b.varExpr("StorageLevelDayTypeStart").
		Minus(b.varExpr("StorageLevelSeasonStart")).
		Where(firstDay)
	dayChain := b.varExpr("StorageLevelDayTypeStart").
		Minus(b.varExpr("StorageLevelDayTypeStart").Shift(coords.DayType, 1)).
		Minus(dayNet.Shift(coords.DayType, 1)).
		Where(firstDay.Not())
	if err := b.constrain("S11_and_S12_StorageLevelDayTypeStart", dayFirst.Plus(dayChain), lp.Eq, nil); err != nil {
		return err
	}

	// day-type finish, walking backwards from the year finish
	horizonEnd, err := lastSeason.And(lastDay)
	if err != nil {
		return err
	}
	seasonEnd, err := lastSeason.Not().And(lastDay)
	if err != nil {
		return err
	}
	finishTop := b.varExpr("StorageLevelDayTypeFinish").
		Minus(b.varExpr("StorageLevelYearFinish")).
		Where(horizonEnd)
	finishSeason := b.varExpr("StorageLevelDayTypeFinish").
		Minus(b.varExpr("StorageLevelSeasonStart").Shift(coords.Season, -1)).
		Where(seasonEnd)
	finishChain := b.varExpr("StorageLevelDayTypeFinish").
		Minus(b.varExpr("StorageLevelDayTypeFinish").Shift(coords.DayType, -1)).
		Plus(dayNet.Shift(coords.DayType, -1)).
		Where(lastDay.Not())
	return b.constrain("S13_S14_S15_StorageLevelDayTypeFinish",
		finishTop.Plus(finishSeason).Plus(finishChain), lp.Eq, nil)
}

// addStorageLevelBounds keeps the level inside its physical envelope at
// every time bracket, probed from both ends of the first and last day of
// each day type.
func (b *Builder) addStorageLevelBounds() error {
	ncwd, err := b.expr("NetChargeWithinDay")
	if err != nil {
		return err
	}
	forward, err := b.cumShift(ncwd, coords.TimeBracket, 1)
	if err != nil {
		return err
	}
	backward, err := b.cumShift(ncwd, coords.TimeBracket, -1)
	if err != nil {
		return err
	}
	firstDay, err := b.edgeMask(coords.DayType, false)
	if err != nil {
		return err
	}
	notFirstDay := firstDay.Not()

	levels := []struct {
		name  string
		level pipe
		mask  *arr.Mask
	}{
		// first day of the day type, forward from its start
		{"SC1", b.varExpr("StorageLevelDayTypeStart").Plus(via(forward, nil)), nil},
		// first day, backward across the previous day type's tail
		{"SC2", b.varExpr("StorageLevelDayTypeStart").
			Minus(via(backward, nil).Shift(coords.DayType, 1)), notFirstDay},
		// last day, backward from its finish
		{"SC3", b.varExpr("StorageLevelDayTypeFinish").Minus(via(backward, nil)), nil},
		// last day, forward from the previous day type's finish
		{"SC4", b.varExpr("StorageLevelDayTypeFinish").Shift(coords.DayType, 1).
			Plus(via(forward, nil)), notFirstDay},
	}
	for _, l := range levels {
		err := b.constrainMasked(l.name+"_LowerLimit",
			l.level.Minus(b.lexPipe("StorageLowerLimit")), lp.Ge, l.mask)
		if err != nil {
			return err
		}
		err = b.constrainMasked(l.name+"_UpperLimit",
			l.level.Minus(b.lexPipe("StorageUpperLimit")), lp.Le, l.mask)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) addStorageRateCaps() error {
	if maxCharge := b.p("StorageMaxChargeRate"); maxCharge.AnyPresent() {
		err := b.constrain("SC5_MaxChargeConstraint",
			b.lexPipe("RateOfStorageCharge").SubP(maxCharge), lp.Le, nil)
		if err != nil {
			return err
		}
	}
	if maxDischarge := b.p("StorageMaxDischargeRate"); maxDischarge.AnyPresent() {
		err := b.constrain("SC6_MaxDischargeConstraint",
			b.lexPipe("RateOfStorageDischarge").SubP(maxDischarge), lp.Le, nil)
		if err != nil {
			return err
		}
	}
	return nil
}
