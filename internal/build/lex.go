package build

import "gridplan/internal/lp"

// registerExpressions wires every shared expression name to its builder.
// Resolution goes through the cache, so each expression is constructed at
// most once per build no matter how many constraints pull on it.
func (b *Builder) registerExpressions() {
	b.lex = map[string]func() (*lp.Expr, error){
		// capacity
		"AccumulatedNewCapacity": b.lexAccumulatedNewCapacity,
		"GrossCapacity":          b.lexGrossCapacity,

		// activity
		"RateOfTotalActivity":               b.lexRateOfTotalActivity,
		"TotalAnnualTechnologyActivityByMode": b.lexTotalAnnualTechnologyActivityByMode,
		"TotalTechnologyAnnualActivity":     b.lexTotalTechnologyAnnualActivity,
		"TotalTechnologyModelPeriodActivity": b.lexTotalTechnologyModelPeriodActivity,

		// production and use
		"RateOfProductionByTechnologyByMode": b.lexRateOfProductionByTechnologyByMode,
		"RateOfProductionByTechnology":       b.lexRateOfProductionByTechnology,
		"ProductionByTechnology":             b.lexProductionByTechnology,
		"RateOfProduction":                   b.lexRateOfProduction,
		"Production":                         b.lexProduction,
		"ProductionAnnual":                   b.lexProductionAnnual,
		"RateOfUseByTechnologyByMode":        b.lexRateOfUseByTechnologyByMode,
		"RateOfUse":                          b.lexRateOfUse,
		"Use":                                b.lexUse,
		"UseAnnual":                          b.lexUseAnnual,
		"Demand":                             b.lexDemand,
		"ProductionAnnualRE":                 b.lexProductionAnnualRE,
		"REProductionTargetDemand":           b.lexREProductionTargetDemand,

		// costs
		"CapitalInvestment":              b.lexCapitalInvestment,
		"DiscountedCapitalInvestment":    b.lexDiscountedCapitalInvestment,
		"AnnualFixedOperatingCost":       b.lexAnnualFixedOperatingCost,
		"AnnualVariableOperatingCost":    b.lexAnnualVariableOperatingCost,
		"OperatingCost":                  b.lexOperatingCost,
		"DiscountedOperatingCost":        b.lexDiscountedOperatingCost,
		"TotalDiscountedCostByTechnology": b.lexTotalDiscountedCostByTechnology,
		"TotalDiscountedCost":            b.lexTotalDiscountedCost,

		// emissions
		"AnnualTechnologyEmissionByMode":  b.lexAnnualTechnologyEmissionByMode,
		"AnnualTechnologyEmission":        b.lexAnnualTechnologyEmission,
		"AnnualTechnologyEmissionsPenalty": b.lexAnnualTechnologyEmissionsPenalty,
		"AnnualEmissions":                 b.lexAnnualEmissions,
		"ModelPeriodEmissions":            b.lexModelPeriodEmissions,

		// trade
		"AccumulatedNewTradeCapacity":     b.lexAccumulatedNewTradeCapacity,
		"GrossTradeCapacity":              b.lexGrossTradeCapacity,
		"NetTrade":                        b.lexNetTrade,
		"NetTradeAnnual":                  b.lexNetTradeAnnual,
		"CapitalInvestmentTrade":          b.lexCapitalInvestmentTrade,
		"DiscountedCapitalInvestmentTrade": b.lexDiscountedCapitalInvestmentTrade,
		"SalvageValueTrade":               b.lexSalvageValueTrade,
		"DiscountedSalvageValueTrade":     b.lexDiscountedSalvageValueTrade,
		"TotalDiscountedCostTrade":        b.lexTotalDiscountedCostTrade,

		// storage
		"RateOfStorageCharge":               b.lexRateOfStorageCharge,
		"RateOfStorageDischarge":            b.lexRateOfStorageDischarge,
		"NetChargeWithinYear":               b.lexNetChargeWithinYear,
		"NetChargeWithinDay":                b.lexNetChargeWithinDay,
		"AccumulatedNewStorageCapacity":     b.lexAccumulatedNewStorageCapacity,
		"StorageUpperLimit":                 b.lexStorageUpperLimit,
		"StorageLowerLimit":                 b.lexStorageLowerLimit,
		"CapitalInvestmentStorage":          b.lexCapitalInvestmentStorage,
		"DiscountedCapitalInvestmentStorage": b.lexDiscountedCapitalInvestmentStorage,
		"SalvageValueStorage":               b.lexSalvageValueStorage,
		"DiscountedSalvageValueStorage":     b.lexDiscountedSalvageValueStorage,
		"TotalDiscountedStorageCost":        b.lexTotalDiscountedStorageCost,

		// reserve margin
		"TotalCapacityInReserveMargin": b.lexTotalCapacityInReserveMargin,
		"DemandNeedingReserveMargin":   b.lexDemandNeedingReserveMargin,

		// region groups
		"AnnualEmissionsRegionGroup":         b.lexAnnualEmissionsRegionGroup,
		"ProductionAnnualRERegionGroup":      b.lexProductionAnnualRERegionGroup,
		"REProductionTargetDemandRegionGroup": b.lexREProductionTargetDemandRegionGroup,
	}
}
