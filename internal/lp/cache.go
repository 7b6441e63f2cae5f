package lp

import (
	"fmt"
	"sort"
)

// Cache memoizes named linear expressions so that every shared intermediate
// is computed at most once per run. Several constraint groups consume the
// same aggregates; the cache guarantees they observe the identical value by
// construction: compute once, store, read many.
type Cache struct {
	exprs    map[string]*Expr
	building map[string]bool
}

func NewCache() *Cache {
	return &Cache{
		exprs:    make(map[string]*Expr),
		building: make(map[string]bool),
	}
}

// GetOrCompute returns the cached expression for name, invoking build at
// most once. Builders may recursively request other cached expressions;
// a cycle is a configuration error.
func (c *Cache) GetOrCompute(name string, build func() (*Expr, error)) (*Expr, error) {
	if e, ok := c.exprs[name]; ok {
		return e, nil
	}
	if c.building[name] {
		return nil, fmt.Errorf("expression %q depends on itself", name)
	}
	c.building[name] = true
	e, err := build()
	delete(c.building, name)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", name, err)
	}
	c.exprs[name] = e
	return e, nil
}

// Get returns an already-computed expression, failing with the name.
func (c *Cache) Get(name string) (*Expr, error) {
	e, ok := c.exprs[name]
	if !ok {
		return nil, fmt.Errorf("expression %q not computed", name)
	}
	return e, nil
}

func (c *Cache) Has(name string) bool {
	_, ok := c.exprs[name]
	return ok
}

// Names returns the cached expression names, sorted.
func (c *Cache) Names() []string {
	out := make([]string, 0, len(c.exprs))
	for n := range c.exprs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
