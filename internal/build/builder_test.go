package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplan/internal/arr"
	"gridplan/internal/coords"
	"gridplan/internal/lp"
)

type fixtureOpts struct {
	regions   []string
	techs     []string
	years     []string
	emissions []string
	storages  []string
	seasons   []string
	dayTypes  []string
	brackets  []string
}

// fixture declares a full universe and the default dataset with a working
// minimum: uniform YearSplit, unit output ratio, and an annual demand, so a
// bare fixture already builds end to end.
func fixture(t *testing.T, o fixtureOpts) (*coords.Universe, *arr.Dataset) {
	t.Helper()
	if o.regions == nil {
		o.regions = []string{"R1"}
	}
	if o.techs == nil {
		o.techs = []string{"plant"}
	}
	if o.years == nil {
		o.years = []string{"2020", "2021"}
	}

	u := coords.NewUniverse()
	require.NoError(t, u.Declare(coords.Region, o.regions))
	require.NoError(t, u.Alias(coords.OtherRegion, coords.Region))
	require.NoError(t, u.Declare(coords.Technology, o.techs))
	require.NoError(t, u.Declare(coords.Commodity, []string{"electricity"}))
	require.NoError(t, u.Declare(coords.Timeslice, []string{"annual"}))
	require.NoError(t, u.Declare(coords.Year, o.years))
	require.NoError(t, u.Declare(coords.Mode, []string{"1"}))
	require.NoError(t, u.Declare(coords.Emission, o.emissions))
	require.NoError(t, u.Declare(coords.Storage, o.storages))
	require.NoError(t, u.Declare(coords.Season, o.seasons))
	require.NoError(t, u.Declare(coords.DayType, o.dayTypes))
	require.NoError(t, u.Declare(coords.TimeBracket, o.brackets))

	ds, err := DefaultDataset(u)
	require.NoError(t, err)
	setP(t, ds, "YearSplit", nil, 1)
	setP(t, ds, "OutputActivityRatio", map[string]string{coords.Commodity: "electricity"}, 1)
	setP(t, ds, "AccumulatedAnnualDemand", nil, 50)
	return u, ds
}

// setP sets every cell of a parameter matching the coordinate selection;
// omitted axes broadcast across their member sets.
func setP(t *testing.T, ds *arr.Dataset, name string, sel map[string]string, v float64) {
	t.Helper()
	a, err := ds.Get(name)
	require.NoError(t, err)
	space := a.Space()

	fixed := map[string]int{}
	for axis, member := range sel {
		members, err := space.DimMembers(axis)
		require.NoError(t, err)
		pos := -1
		for i, m := range members {
			if m == member {
				pos = i
			}
		}
		require.GreaterOrEqual(t, pos, 0, "member %s of %s", member, axis)
		fixed[axis] = pos
	}
	for i := 0; i < space.Size(); i++ {
		match := true
		for axis, pos := range fixed {
			p, err := space.DimPos(i, axis)
			require.NoError(t, err)
			if p != pos {
				match = false
				break
			}
		}
		if match {
			a.Set(i, v)
		}
	}
}

func mustBuild(t *testing.T, u *coords.Universe, ds *arr.Dataset) (*Builder, *lp.Model) {
	t.Helper()
	b, err := NewBuilder(u, ds, nil)
	require.NoError(t, err)
	m, err := b.Build()
	require.NoError(t, err)
	return b, m
}

func TestNewBuilderValidatesInputs(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{})

	// YearSplit must carry data
	ys, err := ds.Get("YearSplit")
	require.NoError(t, err)
	for i := 0; i < ys.Space().Size(); i++ {
		ys.Clear(i)
	}
	_, err = NewBuilder(u, ds, nil)
	assert.ErrorContains(t, err, "YearSplit")
}

func TestNewBuilderRejectsUnorderedYears(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{years: []string{"2021", "2020"}})
	_, err := NewBuilder(u, ds, nil)
	assert.ErrorContains(t, err, "strictly increasing")
}

func TestBuildMinimalScenario(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{})
	_, m := mustBuild(t, u, ds)

	for _, v := range []string{"NewCapacity", "RateOfActivity", "SalvageValue", "DiscountedSalvageValue"} {
		assert.True(t, m.HasVar(v), v)
	}
	for _, g := range []string{
		"CAa4_Constraint_Capacity",
		"EBa11_EnergyBalanceEachTS5",
		"EBb4_EnergyBalanceEachYear4",
		"SV4_SalvageValueDiscountedToStartYear",
	} {
		assert.True(t, m.HasConstraint(g), g)
	}

	// optional families stay out of a plain scenario
	assert.False(t, m.HasVar("Export"))
	assert.False(t, m.HasVar("NewStorageCapacity"))
	assert.False(t, m.HasVar("NumberOfNewTechnologyUnits"))

	p, err := m.Problem()
	require.NoError(t, err)
	assert.False(t, p.HasInteger())
	assert.Greater(t, len(p.Rows), 0)
}

// One unit built in 2020 at overnight cost 1000, zero discount rate, life of
// two years: the annualized capital charge folds back to exactly 1000, and
// the asset retires with the horizon so no salvage branch applies.
func TestCapitalChargeRoundTripAtZeroRate(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{})
	setP(t, ds, "DiscountRate", nil, 0)
	setP(t, ds, "CapitalCost", nil, 1000)
	setP(t, ds, "OperationalLife", nil, 2)

	b, m := mustBuild(t, u, ds)
	p, err := m.Problem()
	require.NoError(t, err)

	capexExpr, err := b.Cache().Get("CapitalInvestment")
	require.NoError(t, err)
	space := capexExpr.Space()

	primal := make([]float64, len(p.Cols))
	for j, c := range p.Cols {
		if c.Var.Name != "NewCapacity" {
			continue
		}
		y, err := c.Var.Space.DimPos(c.Cell, coords.Year)
		require.NoError(t, err)
		if y == 0 {
			primal[j] = 1
		}
	}

	vals := capexExpr.Eval(primal)
	for i := 0; i < space.Size(); i++ {
		y, err := space.DimPos(i, coords.Year)
		require.NoError(t, err)
		v, ok := vals.At(i)
		require.True(t, ok)
		if y == 0 {
			assert.InDelta(t, 1000.0, v, 1e-9)
		} else {
			assert.Zero(t, v)
		}
	}

	// life 2 from 2020 ends in 2021, inside the horizon
	assert.True(t, b.fin.Tech.None.All())
	assert.False(t, b.fin.Tech.Geometric.Any())
	assert.False(t, b.fin.Tech.Linear.Any())
}

func TestGrowthSelectorNeedsBothParameters(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{})
	setP(t, ds, "CapacityAdditionalMaxGrowthRate", nil, 0.1)
	_, m := mustBuild(t, u, ds)
	assert.False(t, m.HasVar("CapacityAdditionalSelector"))
	require.True(t, m.HasConstraint("GRC2_MaxGrowthRate"))

	// no previous-year base in the first model year, so no row there
	g, err := m.Constraint("GRC2_MaxGrowthRate")
	require.NoError(t, err)
	for i := 0; i < g.Space.Size(); i++ {
		y, err := g.Space.DimPos(i, coords.Year)
		require.NoError(t, err)
		if y == 0 {
			assert.Equal(t, -1, g.RowAt(i))
		} else {
			assert.GreaterOrEqual(t, g.RowAt(i), 0)
		}
	}

	u, ds = fixture(t, fixtureOpts{})
	setP(t, ds, "CapacityAdditionalMaxGrowthRate", nil, 0.1)
	setP(t, ds, "CapacityAdditionalMaxFloor", nil, 5)
	_, m = mustBuild(t, u, ds)
	require.True(t, m.HasVar("CapacityAdditionalSelector"))
	sel, err := m.Var("CapacityAdditionalSelector")
	require.NoError(t, err)
	assert.True(t, sel.Integer)
	assert.True(t, m.HasConstraint("GRC1a_MaxGrowthRateFloor"))
	assert.True(t, m.HasConstraint("GRC1b_MaxGrowthRateCap"))

	p, err := m.Problem()
	require.NoError(t, err)
	assert.True(t, p.HasInteger())
}

// Planned maintenance caps annual activity at the capacity-factor-weighted
// energy, further derated by availability. Full availability needs no rows.
func TestPlannedMaintenanceDeratesByCapacityFactor(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{})
	_, m := mustBuild(t, u, ds)
	assert.False(t, m.HasConstraint("CAb1_PlannedMaintenance"))

	u, ds = fixture(t, fixtureOpts{})
	setP(t, ds, "CapacityFactor", nil, 0.5)
	setP(t, ds, "AvailabilityFactor", nil, 0.9)
	_, m = mustBuild(t, u, ds)
	require.True(t, m.HasConstraint("CAb1_PlannedMaintenance"))

	p, err := m.Problem()
	require.NoError(t, err)
	seen := 0
	for _, row := range p.Rows {
		if row.Group != "CAb1_PlannedMaintenance" {
			continue
		}
		for _, term := range row.Terms {
			if p.Cols[term.Col].Var.Name == "NewCapacity" {
				seen++
				assert.InDelta(t, -0.45, term.Coeff, 1e-9)
			}
		}
	}
	assert.Greater(t, seen, 0)
}

func TestTradeVariablesConfinedToRoutes(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{regions: []string{"R1", "R2"}})
	setP(t, ds, "TradeRoute", map[string]string{
		coords.Region:      "R1",
		coords.OtherRegion: "R2",
	}, 1)

	_, m := mustBuild(t, u, ds)
	require.True(t, m.HasVar("Export"))
	exp, err := m.Var("Export")
	require.NoError(t, err)
	// one directed route, one commodity, one timeslice, two years
	assert.Equal(t, 2, exp.ActiveCount())

	// the import side lives on the receiving region's coordinates
	imp, err := m.Var("Import")
	require.NoError(t, err)
	assert.Equal(t, 2, imp.ActiveCount())
	for i := 0; i < imp.Space.Size(); i++ {
		if !imp.Active(i) {
			continue
		}
		r, err := imp.Space.DimPos(i, coords.Region)
		require.NoError(t, err)
		rr, err := imp.Space.DimPos(i, coords.OtherRegion)
		require.NoError(t, err)
		assert.Equal(t, 1, r, "import books at R2")
		assert.Equal(t, 0, rr, "import comes from R1")
	}

	assert.True(t, m.HasConstraint("TC2_TradeSymmetry"))
	assert.True(t, m.HasConstraint("TC1a_TradeCapacityExportLimit"))
	assert.True(t, m.HasConstraint("TC1b_TradeCapacityImportLimit"))
}

// A one-directional route with a lossy line: the symmetry rows must pair the
// export with the counterpart import one for one, and the loss must derate
// the capacity bound instead.
func TestTradeSymmetryIsExactAndLossDeratesCapacity(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{regions: []string{"R1", "R2"}})
	setP(t, ds, "TradeRoute", map[string]string{
		coords.Region:      "R1",
		coords.OtherRegion: "R2",
	}, 1)
	setP(t, ds, "TradeLossBetweenRegions", map[string]string{
		coords.Region:      "R1",
		coords.OtherRegion: "R2",
	}, 0.5)

	_, m := mustBuild(t, u, ds)
	p, err := m.Problem()
	require.NoError(t, err)

	symRows := 0
	for _, row := range p.Rows {
		if row.Group != "TC2_TradeSymmetry" {
			continue
		}
		symRows++
		require.Len(t, row.Terms, 2, "one export term, one import term")
		for _, term := range row.Terms {
			switch p.Cols[term.Col].Var.Name {
			case "Export":
				assert.Equal(t, 1.0, term.Coeff)
			case "Import":
				assert.Equal(t, -1.0, term.Coeff, "counterpart import enters one for one")
			default:
				t.Fatalf("unexpected variable %s in symmetry row", p.Cols[term.Col].Var.Name)
			}
		}
		assert.Zero(t, row.Lower)
		assert.Zero(t, row.Upper)
	}
	assert.Equal(t, 2, symRows)

	for _, group := range []string{"TC1a_TradeCapacityExportLimit", "TC1b_TradeCapacityImportLimit"} {
		seen := 0
		for _, row := range p.Rows {
			if row.Group != group {
				continue
			}
			for _, term := range row.Terms {
				if p.Cols[term.Col].Var.Name == "NewTradeCapacity" {
					seen++
					assert.InDelta(t, -0.5, term.Coeff, 1e-9, group)
				}
			}
		}
		assert.Greater(t, seen, 0, group)
	}
}

// Storage conservation on the full hierarchy: a primal point where each
// year starts at the previous start plus the year's net charge satisfies
// every year-level chain row exactly.
func TestStorageLevelsConserveNetCharge(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{
		storages: []string{"dam"},
		seasons:  []string{"summer", "winter"},
		dayTypes: []string{"weekday", "weekend"},
		brackets: []string{"day", "night"},
	})
	setP(t, ds, "Conversionls", map[string]string{coords.Season: "summer"}, 1)
	setP(t, ds, "Conversionld", map[string]string{coords.DayType: "weekday"}, 1)
	setP(t, ds, "Conversionlh", map[string]string{coords.TimeBracket: "day"}, 1)
	setP(t, ds, "DaySplit", nil, 0.5)
	setP(t, ds, "DaysInDayType", nil, 3.5)
	setP(t, ds, "TechnologyToStorage", nil, 1)

	_, m := mustBuild(t, u, ds)
	p, err := m.Problem()
	require.NoError(t, err)

	// charging at rate 2 in the first year and 4 in the second, with a unit
	// year split, accumulates levels 0 -> 2 -> 6
	starts := []float64{0, 2}
	finishes := []float64{2, 6}
	rates := []float64{2, 4}

	primal := make([]float64, len(p.Cols))
	for j, c := range p.Cols {
		y, err := c.Var.Space.DimPos(c.Cell, coords.Year)
		require.NoError(t, err)
		switch c.Var.Name {
		case "RateOfActivity":
			primal[j] = rates[y]
		case "StorageLevelYearStart":
			primal[j] = starts[y]
		case "StorageLevelYearFinish":
			primal[j] = finishes[y]
		}
	}

	for _, group := range []string{"S5_and_S6_StorageLevelYearStart", "S7_and_S8_StorageLevelYearFinish"} {
		rows := 0
		for _, row := range p.Rows {
			if row.Group != group {
				continue
			}
			rows++
			sum := 0.0
			for _, term := range row.Terms {
				sum += term.Coeff * primal[term.Col]
			}
			require.Equal(t, row.Lower, row.Upper, group)
			assert.InDelta(t, row.Lower, sum, 1e-9, group)
		}
		assert.Equal(t, 2, rows, group)
	}
}

func TestStorageRequiresHierarchyAxes(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{storages: []string{"dam"}})
	setP(t, ds, "TechnologyToStorage", nil, 1)
	setP(t, ds, "TechnologyFromStorage", nil, 1)

	b, err := NewBuilder(u, ds, nil)
	require.NoError(t, err)
	_, err = b.Build()
	assert.ErrorContains(t, err, "storage requires axis")
}

func TestStorageLevelChainBuilds(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{
		storages: []string{"dam"},
		seasons:  []string{"summer", "winter"},
		dayTypes: []string{"weekday", "weekend"},
		brackets: []string{"day", "night"},
	})
	setP(t, ds, "Conversionls", map[string]string{coords.Season: "summer"}, 1)
	setP(t, ds, "Conversionld", map[string]string{coords.DayType: "weekday"}, 1)
	setP(t, ds, "Conversionlh", map[string]string{coords.TimeBracket: "day"}, 1)
	setP(t, ds, "DaySplit", nil, 0.5)
	setP(t, ds, "DaysInDayType", nil, 3.5)
	setP(t, ds, "TechnologyToStorage", nil, 1)
	setP(t, ds, "TechnologyFromStorage", nil, 1)

	_, m := mustBuild(t, u, ds)
	for _, g := range []string{
		"S5_and_S6_StorageLevelYearStart",
		"S7_and_S8_StorageLevelYearFinish",
		"S9_and_S10_StorageLevelSeasonStart",
		"S11_and_S12_StorageLevelDayTypeStart",
		"S13_S14_S15_StorageLevelDayTypeFinish",
		"SC1_LowerLimit",
		"SC1_UpperLimit",
	} {
		assert.True(t, m.HasConstraint(g), g)
	}
	assert.True(t, m.HasVar("StorageLevelDayTypeFinish"))
}

func TestEmissionLimitsAreOptional(t *testing.T) {
	u, ds := fixture(t, fixtureOpts{emissions: []string{"CO2"}})
	setP(t, ds, "EmissionActivityRatio", nil, 0.8)

	_, m := mustBuild(t, u, ds)
	assert.True(t, m.HasConstraint("E5_DiscountedEmissionsPenaltyByTechnology"))
	assert.False(t, m.HasConstraint("E8_AnnualEmissionsLimit"))
	assert.False(t, m.HasConstraint("E9_ModelPeriodEmissionsLimit"))

	u, ds = fixture(t, fixtureOpts{emissions: []string{"CO2"}})
	setP(t, ds, "EmissionActivityRatio", nil, 0.8)
	setP(t, ds, "AnnualEmissionLimit", nil, 1000)
	_, m = mustBuild(t, u, ds)
	assert.True(t, m.HasConstraint("E8_AnnualEmissionsLimit"))
}
