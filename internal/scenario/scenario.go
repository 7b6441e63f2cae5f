// Package scenario loads a model scenario from YAML into a universe of
// axes and a parameter dataset.
package scenario

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"gridplan/internal/arr"
	"gridplan/internal/build"
	"gridplan/internal/coords"
)

// stringList accepts any scalar sequence and keeps the literal text, so
// years and modes can be written unquoted.
type stringList []string

func (s *stringList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: expected a sequence", n.Line)
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: expected a scalar", c.Line)
		}
		out = append(out, c.Value)
	}
	*s = out
	return nil
}

// Axes declares the members of every coordinate axis. The sub-year
// hierarchy axes and the optional asset classes may be left empty.
type Axes struct {
	Regions      stringList `yaml:"regions"`
	Technologies stringList `yaml:"technologies"`
	Commodities  stringList `yaml:"commodities"`
	Timeslices   stringList `yaml:"timeslices"`
	Years        stringList `yaml:"years"`
	Modes        stringList `yaml:"modes"`
	Emissions    stringList `yaml:"emissions"`
	Storages     stringList `yaml:"storages"`
	Seasons      stringList `yaml:"seasons"`
	DayTypes     stringList `yaml:"daytypes"`
	TimeBrackets stringList `yaml:"timebrackets"`
}

// Record pins a value at one coordinate. Axes omitted from coords
// broadcast across their whole member set.
type Record struct {
	Coords map[string]string `yaml:"coords"`
	Value  float64           `yaml:"value"`
}

// Param carries one parameter's data: an optional whole-array default and
// point records layered on top of it.
type Param struct {
	Default *float64 `yaml:"default"`
	Values  []Record `yaml:"values"`
}

// File is the on-disk scenario document.
type File struct {
	Name       string           `yaml:"name"`
	Axes       Axes             `yaml:"axes"`
	Parameters map[string]Param `yaml:"parameters"`
}

// Load reads and materializes a scenario file.
func Load(path string) (*File, *coords.Universe, *arr.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read scenario: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, nil, nil, fmt.Errorf("parse scenario: %w", err)
	}
	u, ds, err := Materialize(&f)
	if err != nil {
		return nil, nil, nil, err
	}
	return &f, u, ds, nil
}

// Materialize turns a parsed scenario into a universe and dataset.
func Materialize(f *File) (*coords.Universe, *arr.Dataset, error) {
	u := coords.NewUniverse()
	axes := []struct {
		name    string
		members stringList
		require bool
	}{
		{coords.Region, f.Axes.Regions, true},
		{coords.Technology, f.Axes.Technologies, true},
		{coords.Commodity, f.Axes.Commodities, true},
		{coords.Timeslice, f.Axes.Timeslices, true},
		{coords.Year, f.Axes.Years, true},
		{coords.Mode, f.Axes.Modes, true},
		{coords.Emission, f.Axes.Emissions, false},
		{coords.Storage, f.Axes.Storages, false},
		{coords.Season, f.Axes.Seasons, false},
		{coords.DayType, f.Axes.DayTypes, false},
		{coords.TimeBracket, f.Axes.TimeBrackets, false},
	}
	for _, ax := range axes {
		if ax.require && len(ax.members) == 0 {
			return nil, nil, fmt.Errorf("axis %s must have members", ax.name)
		}
		if err := u.Declare(ax.name, ax.members); err != nil {
			return nil, nil, err
		}
	}
	if err := u.Alias(coords.OtherRegion, coords.Region); err != nil {
		return nil, nil, err
	}
	for _, y := range f.Axes.Years {
		if _, err := strconv.Atoi(y); err != nil {
			return nil, nil, fmt.Errorf("year %q is not an integer", y)
		}
	}

	ds, err := build.DefaultDataset(u)
	if err != nil {
		return nil, nil, err
	}
	for name, p := range f.Parameters {
		if err := applyParam(u, ds, name, p); err != nil {
			return nil, nil, fmt.Errorf("parameter %s: %w", name, err)
		}
	}
	return u, ds, nil
}

func applyParam(u *coords.Universe, ds *arr.Dataset, name string, p Param) error {
	dims := build.ParamDims(name)
	if dims == nil {
		return fmt.Errorf("not a known parameter")
	}
	a, err := ds.Get(name)
	if err != nil {
		return err
	}
	if p.Default != nil {
		for i := 0; i < a.Space().Size(); i++ {
			a.Set(i, *p.Default)
		}
	}
	for ri, rec := range p.Values {
		if err := applyRecord(u, a, dims, rec); err != nil {
			return fmt.Errorf("record %d: %w", ri, err)
		}
	}
	return nil
}

func applyRecord(u *coords.Universe, a *arr.Array, dims []string, rec Record) error {
	fixed := map[string]int{}
	for axis, member := range rec.Coords {
		found := false
		for _, d := range dims {
			if d == axis {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("axis %q does not apply", axis)
		}
		members, err := u.Members(axis)
		if err != nil {
			return err
		}
		pos := -1
		for i, m := range members {
			if m == member {
				pos = i
				break
			}
		}
		if pos < 0 {
			return fmt.Errorf("unknown member %q of axis %s", member, axis)
		}
		fixed[axis] = pos
	}

	space := a.Space()
	for i := 0; i < space.Size(); i++ {
		match := true
		for axis, pos := range fixed {
			p, err := space.DimPos(i, axis)
			if err != nil {
				return err
			}
			if p != pos {
				match = false
				break
			}
		}
		if match {
			a.Set(i, rec.Value)
		}
	}
	return nil
}
