package build

import (
	"gridplan/internal/arr"
	"gridplan/internal/coords"
)

// Depreciation method codes carried by the DepreciationMethod parameter.
const (
	DepreciationStraightLine = 1
	DepreciationSinkingFund  = 2
)

// ParamDef describes one parameter of the dataset contract: its axis subset
// and an optional scalar default. A nil default means cells are absent
// unless the scenario provides them; absence is meaningful, not zero.
type ParamDef struct {
	Name    string
	Dims    []string
	Default *float64
}

func def(v float64) *float64 { return &v }

// Catalog is the full parameter surface the builder consumes. The scenario
// loader materializes one array per entry; builders fail fast on any name
// not listed here.
var Catalog = []ParamDef{
	// time structure
	{Name: "YearSplit", Dims: []string{coords.Timeslice, coords.Year}},
	{Name: "DaySplit", Dims: []string{coords.TimeBracket, coords.Year}},
	{Name: "Conversionls", Dims: []string{coords.Timeslice, coords.Season}},
	{Name: "Conversionld", Dims: []string{coords.Timeslice, coords.DayType}},
	{Name: "Conversionlh", Dims: []string{coords.Timeslice, coords.TimeBracket}},
	{Name: "DaysInDayType", Dims: []string{coords.Season, coords.DayType, coords.Year}},

	// discounting and depreciation
	{Name: "DiscountRate", Dims: []string{coords.Region}, Default: def(0.05)},
	{Name: "DiscountRateIdv", Dims: []string{coords.Region, coords.Technology}},
	{Name: "DiscountRateStorage", Dims: []string{coords.Region, coords.Storage}},
	{Name: "DepreciationMethod", Dims: []string{coords.Region}, Default: def(DepreciationStraightLine)},

	// technology economics
	{Name: "OperationalLife", Dims: []string{coords.Region, coords.Technology}, Default: def(1)},
	{Name: "CapitalCost", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "FixedCost", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "VariableCost", Dims: []string{coords.Region, coords.Technology, coords.Mode, coords.Year}},

	// technology capacity
	{Name: "ResidualCapacity", Dims: []string{coords.Region, coords.Technology, coords.Year}, Default: def(0)},
	{Name: "CapacityFactor", Dims: []string{coords.Region, coords.Technology, coords.Timeslice, coords.Year}, Default: def(1)},
	{Name: "AvailabilityFactor", Dims: []string{coords.Region, coords.Technology, coords.Year}, Default: def(1)},
	{Name: "CapacityToActivityUnit", Dims: []string{coords.Region, coords.Technology}, Default: def(1)},
	{Name: "CapacityOfOneTechnologyUnit", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "TotalAnnualMaxCapacity", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "TotalAnnualMinCapacity", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "TotalAnnualMaxCapacityInvestment", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "TotalAnnualMinCapacityInvestment", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "CapacityAdditionalMaxFloor", Dims: []string{coords.Region, coords.Technology}},
	{Name: "CapacityAdditionalMaxGrowthRate", Dims: []string{coords.Region, coords.Technology}},
	{Name: "CapacityAdditionalMinGrowthRate", Dims: []string{coords.Region, coords.Technology}},

	// activity
	{Name: "OutputActivityRatio", Dims: []string{coords.Region, coords.Technology, coords.Commodity, coords.Mode, coords.Year}},
	{Name: "InputActivityRatio", Dims: []string{coords.Region, coords.Technology, coords.Commodity, coords.Mode, coords.Year}},
	{Name: "TotalTechnologyAnnualActivityUpperLimit", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "TotalTechnologyAnnualActivityLowerLimit", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "TotalTechnologyModelPeriodActivityUpperLimit", Dims: []string{coords.Region, coords.Technology}},
	{Name: "TotalTechnologyModelPeriodActivityLowerLimit", Dims: []string{coords.Region, coords.Technology}},
	{Name: "TotalAnnualMinCapacityFactor", Dims: []string{coords.Region, coords.Technology, coords.Year}},

	// demand
	{Name: "SpecifiedAnnualDemand", Dims: []string{coords.Region, coords.Commodity, coords.Year}},
	{Name: "SpecifiedDemandProfile", Dims: []string{coords.Region, coords.Commodity, coords.Timeslice, coords.Year}},
	{Name: "AccumulatedAnnualDemand", Dims: []string{coords.Region, coords.Commodity, coords.Year}},

	// emissions
	{Name: "EmissionActivityRatio", Dims: []string{coords.Region, coords.Technology, coords.Emission, coords.Mode, coords.Year}},
	{Name: "EmissionsPenalty", Dims: []string{coords.Region, coords.Emission, coords.Year}},
	{Name: "AnnualEmissionLimit", Dims: []string{coords.Region, coords.Emission, coords.Year}},
	{Name: "ModelPeriodEmissionLimit", Dims: []string{coords.Region, coords.Emission}},
	{Name: "AnnualExogenousEmission", Dims: []string{coords.Region, coords.Emission, coords.Year}},
	{Name: "ModelPeriodExogenousEmission", Dims: []string{coords.Region, coords.Emission}},

	// renewable targets and reserve margin
	{Name: "REMinProductionTarget", Dims: []string{coords.Region, coords.Year}},
	{Name: "RETagTechnology", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "RETagCommodity", Dims: []string{coords.Region, coords.Commodity, coords.Year}},
	{Name: "ReserveMargin", Dims: []string{coords.Region, coords.Year}},
	{Name: "ReserveMarginTagTechnology", Dims: []string{coords.Region, coords.Technology, coords.Year}},
	{Name: "ReserveMarginTagCommodity", Dims: []string{coords.Region, coords.Commodity, coords.Year}},

	// region group aggregates
	{Name: "RegionGroupTagRegion", Dims: []string{coords.Region}},
	{Name: "AnnualEmissionLimitRegionGroup", Dims: []string{coords.Emission, coords.Year}},
	{Name: "AnnualExogenousEmissionRegionGroup", Dims: []string{coords.Emission, coords.Year}},
	{Name: "RegionGroupREMinProductionTarget", Dims: []string{coords.Year}},

	// trade
	{Name: "TradeRoute", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "TradeLossBetweenRegions", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}, Default: def(0)},
	{Name: "OperationalLifeTrade", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity}, Default: def(1)},
	{Name: "CapitalCostTrade", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "ResidualTradeCapacity", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}, Default: def(0)},
	{Name: "TradeCapacityToActivityUnit", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity}, Default: def(1)},
	{Name: "TotalAnnualMaxTradeInvestment", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "AvailabilityFactorTrade", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "TotalAnnualMinCapacityFactorTrade", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "TotalTradeAnnualActivityUpperLimit", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "TotalTradeAnnualActivityLowerLimit", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity, coords.Year}},
	{Name: "DiscountRateTrade", Dims: []string{coords.Region, coords.OtherRegion, coords.Commodity}},

	// storage
	{Name: "TechnologyToStorage", Dims: []string{coords.Region, coords.Technology, coords.Storage, coords.Mode}},
	{Name: "TechnologyFromStorage", Dims: []string{coords.Region, coords.Technology, coords.Storage, coords.Mode}},
	{Name: "OperationalLifeStorage", Dims: []string{coords.Region, coords.Storage}, Default: def(1)},
	{Name: "CapitalCostStorage", Dims: []string{coords.Region, coords.Storage, coords.Year}},
	{Name: "ResidualStorageCapacity", Dims: []string{coords.Region, coords.Storage, coords.Year}, Default: def(0)},
	{Name: "MinStorageCharge", Dims: []string{coords.Region, coords.Storage, coords.Year}, Default: def(0)},
	{Name: "StorageLevelStart", Dims: []string{coords.Region, coords.Storage}},
	{Name: "StorageMaxChargeRate", Dims: []string{coords.Region, coords.Storage}},
	{Name: "StorageMaxDischargeRate", Dims: []string{coords.Region, coords.Storage}},
}

// DefaultDataset materializes the full catalogue over the universe: every
// parameter exists, filled with its default where one is defined and
// all-absent otherwise. Scenario loading and test fixtures both start here.
func DefaultDataset(u *coords.Universe) (*arr.Dataset, error) {
	ds := arr.NewDataset(u)
	for _, p := range Catalog {
		space, err := u.Space(p.Dims...)
		if err != nil {
			return nil, err
		}
		var a *arr.Array
		if p.Default != nil {
			a = arr.Full(space, *p.Default)
		} else {
			a = arr.New(space)
		}
		if err := ds.Add(p.Name, a); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// ParamDims returns the declared axis subset for a parameter name, or nil
// if the name is not in the catalogue.
func ParamDims(name string) []string {
	for _, p := range Catalog {
		if p.Name == name {
			return p.Dims
		}
	}
	return nil
}
