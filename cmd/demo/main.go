package main

import (
	"context"
	"flag"
	"fmt"

	"gopkg.in/yaml.v3"

	"gridplan/internal/build"
	"gridplan/internal/logger"
	"gridplan/internal/scenario"
	"gridplan/internal/solution"
	"gridplan/internal/solve"
)

// Demo:
// - Materialize a small built-in scenario (one region, gas plant vs wind)
// - Build the model equations and solve them with HiGHS
// - Print the headline series to show how the pieces fit together
const demoScenario = `
name: demo
axes:
  regions: [R1]
  technologies: [gas_plant, wind_farm]
  commodities: [electricity]
  timeslices: [day, night]
  years: [2025, 2026, 2027]
  modes: ["1"]
parameters:
  YearSplit:
    default: 0.5
  SpecifiedAnnualDemand:
    values:
      - coords: {COMMODITY: electricity}
        value: 120
  SpecifiedDemandProfile:
    values:
      - coords: {COMMODITY: electricity, TIMESLICE: day}
        value: 0.7
      - coords: {COMMODITY: electricity, TIMESLICE: night}
        value: 0.3
  OutputActivityRatio:
    values:
      - coords: {TECHNOLOGY: gas_plant, COMMODITY: electricity}
        value: 1
      - coords: {TECHNOLOGY: wind_farm, COMMODITY: electricity}
        value: 1
  CapacityFactor:
    default: 1
    values:
      - coords: {TECHNOLOGY: wind_farm, TIMESLICE: day}
        value: 0.35
      - coords: {TECHNOLOGY: wind_farm, TIMESLICE: night}
        value: 0.25
  OperationalLife:
    values:
      - coords: {TECHNOLOGY: gas_plant}
        value: 25
      - coords: {TECHNOLOGY: wind_farm}
        value: 20
  CapitalCost:
    values:
      - coords: {TECHNOLOGY: gas_plant}
        value: 800
      - coords: {TECHNOLOGY: wind_farm}
        value: 1400
  VariableCost:
    values:
      - coords: {TECHNOLOGY: gas_plant}
        value: 45
      - coords: {TECHNOLOGY: wind_farm}
        value: 0.5
  FixedCost:
    values:
      - coords: {TECHNOLOGY: gas_plant}
        value: 20
      - coords: {TECHNOLOGY: wind_farm}
        value: 35
`

func main() {
	defer logger.Close()

	series := flag.String("series", "NewCapacity,ProductionAnnual,TotalDiscountedCost", "Comma-separated series to print")
	flag.Parse()

	var f scenario.File
	if err := yaml.Unmarshal([]byte(demoScenario), &f); err != nil {
		panic(err)
	}
	u, ds, err := scenario.Materialize(&f)
	if err != nil {
		panic(err)
	}

	b, err := build.NewBuilder(u, ds, logger.L())
	if err != nil {
		panic(err)
	}
	model, err := b.Build()
	if err != nil {
		panic(err)
	}
	prob, err := model.Problem()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Built problem: %d columns, %d rows\n\n", len(prob.Cols), len(prob.Rows))

	res, err := solve.NewHiGHS(logger.L()).Solve(context.Background(), prob)
	if err != nil {
		panic(err)
	}

	names := splitNames(*series)
	set, err := solution.NewExtractor(model, b.Cache()).Extract(res, names)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Status=%s Objective=%.2f\n", set.Status, set.Objective)
	for _, name := range set.Names() {
		a := set.Values[name]
		space := a.Space()
		fmt.Printf("\n%s\n", name)
		for i := 0; i < space.Size(); i++ {
			v, ok := a.At(i)
			if !ok || v == 0 {
				continue
			}
			fmt.Printf("  %-60s %10.3f\n", space.CoordString(i), v)
		}
	}
}

func splitNames(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if p := s[start:i]; p != "" {
				out = append(out, p)
			}
			start = i + 1
		}
	}
	return out
}
