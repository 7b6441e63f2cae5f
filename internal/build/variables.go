package build

import (
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

const infUpper = 1e30

type varDecl struct {
	name string
	dims []string
	spec lp.VarSpec
}

// declareVariables installs every decision variable the scenario needs.
// Optional families (storage, trade, discrete units, growth selectors) are
// only declared when the parameters that drive them carry any data, so a
// plain scenario stays a pure LP.
func (b *Builder) declareVariables() error {
	decls := []varDecl{
		{name: "NewCapacity", dims: []string{coords.Region, coords.Technology, coords.Year}},
		{name: "RateOfActivity", dims: []string{coords.Region, coords.Timeslice, coords.Technology, coords.Mode, coords.Year}},
		{name: "SalvageValue", dims: []string{coords.Region, coords.Technology, coords.Year}},
		{name: "DiscountedSalvageValue", dims: []string{coords.Region, coords.Technology, coords.Year}},
	}

	if units := b.p("CapacityOfOneTechnologyUnit"); units.AnyPresent() {
		decls = append(decls, varDecl{
			name: "NumberOfNewTechnologyUnits",
			dims: []string{coords.Region, coords.Technology, coords.Year},
			spec: lp.VarSpec{Integer: true, Mask: units.Present()},
		})
	}
	if sel, ok, err := b.growthSelectorSpec(); err != nil {
		return err
	} else if ok {
		decls = append(decls, varDecl{
			name: "CapacityAdditionalSelector",
			dims: []string{coords.Region, coords.Technology, coords.Year},
			spec: sel,
		})
	}
	if b.hasEmissions() {
		decls = append(decls, varDecl{
			name: "DiscountedTechnologyEmissionsPenalty",
			dims: []string{coords.Region, coords.Technology, coords.Year},
		})
	}

	for _, d := range decls {
		if err := b.declare(d); err != nil {
			return err
		}
	}
	if b.hasTrade() {
		if err := b.declareTradeVariables(); err != nil {
			return err
		}
	}
	if b.hasStorage() {
		if err := b.declareStorageVariables(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) declare(d varDecl) error {
	space, err := b.space(d.dims...)
	if err != nil {
		return err
	}
	spec := d.spec
	if spec.Upper == 0 && spec.UpperArr == nil {
		spec.Upper = infUpper
	}
	_, err = b.model.Declare(d.name, space, spec)
	return err
}

// growthSelectorSpec prepares the binary selector that arbitrates between
// the growth-rate cap and the additive floor. It exists only where both
// parameters are provided for a technology.
func (b *Builder) growthSelectorSpec() (lp.VarSpec, bool, error) {
	floor := b.p("CapacityAdditionalMaxFloor").Present()
	growth := b.p("CapacityAdditionalMaxGrowthRate").Present()
	both, err := floor.And(growth)
	if err != nil {
		return lp.VarSpec{}, false, err
	}
	if !both.Any() {
		return lp.VarSpec{}, false, nil
	}
	return lp.VarSpec{Upper: 1, Integer: true, Mask: both}, true, nil
}

func (b *Builder) declareTradeVariables() error {
	routes := b.p("TradeRoute")
	route := routes.Present()
	// Import[r,rr] is what r receives from rr, so it exists exactly where
	// rr declares the route towards r. A one-directional route still gets
	// its receiving end this way.
	counterRoute, err := routes.Swap(coords.Region, coords.OtherRegion)
	if err != nil {
		return err
	}
	flowDims := []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Timeslice, coords.Year}
	capDims := []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}
	for _, d := range []varDecl{
		{name: "Export", dims: flowDims, spec: lp.VarSpec{Mask: route}},
		{name: "Import", dims: flowDims, spec: lp.VarSpec{Mask: counterRoute.Present()}},
		{name: "NewTradeCapacity", dims: capDims, spec: lp.VarSpec{Mask: route}},
	} {
		if err := b.declare(d); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) declareStorageVariables() error {
	for _, d := range []varDecl{
		{name: "NewStorageCapacity", dims: []string{coords.Region, coords.Storage, coords.Year}},
		{name: "StorageLevelYearStart", dims: []string{coords.Region, coords.Storage, coords.Year}},
		{name: "StorageLevelYearFinish", dims: []string{coords.Region, coords.Storage, coords.Year}},
		{name: "StorageLevelSeasonStart", dims: []string{coords.Region, coords.Storage, coords.Season, coords.Year}},
		{name: "StorageLevelDayTypeStart", dims: []string{coords.Region, coords.Storage, coords.Season, coords.DayType, coords.Year}},
		{name: "StorageLevelDayTypeFinish", dims: []string{coords.Region, coords.Storage, coords.Season, coords.DayType, coords.Year}},
	} {
		if err := b.declare(d); err != nil {
			return err
		}
	}
	return nil
}
