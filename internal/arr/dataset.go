package arr

import (
	"fmt"
	"sort"

	"gridplan/internal/coords"
)

// Dataset is the read-only parameter collection handed to the model
// builder: one named array per physical or economic parameter, each over an
// explicit axis subset, with explicit absence for cells where the parameter
// does not apply.
type Dataset struct {
	u      *coords.Universe
	arrays map[string]*Array
}

func NewDataset(u *coords.Universe) *Dataset {
	return &Dataset{u: u, arrays: make(map[string]*Array)}
}

func (d *Dataset) Universe() *coords.Universe { return d.u }

// Add registers a parameter array. Re-adding a name is an error.
func (d *Dataset) Add(name string, a *Array) error {
	if _, ok := d.arrays[name]; ok {
		return fmt.Errorf("parameter %q already present in dataset", name)
	}
	d.arrays[name] = a
	return nil
}

// Get returns the named parameter, failing with the offending name.
func (d *Dataset) Get(name string) (*Array, error) {
	a, ok := d.arrays[name]
	if !ok {
		return nil, fmt.Errorf("parameter %q not in dataset", name)
	}
	return a, nil
}

func (d *Dataset) Has(name string) bool {
	_, ok := d.arrays[name]
	return ok
}

// Names returns the parameter names in sorted order.
func (d *Dataset) Names() []string {
	out := make([]string, 0, len(d.arrays))
	for n := range d.arrays {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
