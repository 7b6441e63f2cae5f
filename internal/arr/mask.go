package arr

import (
	"gridplan/internal/coords"
)

// Mask is a boolean array over a coordinate space, used to restrict which
// coordinates of a variable or constraint are active.
type Mask struct {
	space *coords.Space
	vals  []bool
}

func NewMask(space *coords.Space) *Mask {
	return &Mask{space: space, vals: make([]bool, space.Size())}
}

// FullMask returns a mask with every cell set to v.
func FullMask(space *coords.Space, v bool) *Mask {
	m := NewMask(space)
	for i := range m.vals {
		m.vals[i] = v
	}
	return m
}

func (m *Mask) Space() *coords.Space { return m.space }

func (m *Mask) At(idx int) bool { return m.vals[idx] }

func (m *Mask) Set(idx int, v bool) { m.vals[idx] = v }

func (m *Mask) Copy() *Mask {
	out := NewMask(m.space)
	copy(out.vals, m.vals)
	return out
}

// Any reports whether any cell is true.
func (m *Mask) Any() bool {
	for _, v := range m.vals {
		if v {
			return true
		}
	}
	return false
}

// All reports whether every cell is true.
func (m *Mask) All() bool {
	for _, v := range m.vals {
		if !v {
			return false
		}
	}
	return true
}

// Count returns the number of true cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.vals {
		if v {
			n++
		}
	}
	return n
}

func maskOp(a, b *Mask, f func(x, y bool) bool) (*Mask, error) {
	space, err := coords.Union(a.space, b.space)
	if err != nil {
		return nil, err
	}
	pa, err := coords.Project(space, a.space)
	if err != nil {
		return nil, err
	}
	pb, err := coords.Project(space, b.space)
	if err != nil {
		return nil, err
	}
	out := NewMask(space)
	for i := 0; i < space.Size(); i++ {
		out.vals[i] = f(a.vals[pa(i)], b.vals[pb(i)])
	}
	return out, nil
}

func (m *Mask) And(o *Mask) (*Mask, error) {
	return maskOp(m, o, func(x, y bool) bool { return x && y })
}

func (m *Mask) Or(o *Mask) (*Mask, error) {
	return maskOp(m, o, func(x, y bool) bool { return x || y })
}

func (m *Mask) Not() *Mask {
	out := NewMask(m.space)
	for i := range m.vals {
		out.vals[i] = !m.vals[i]
	}
	return out
}

// Broadcast expands the mask onto a target space containing its dims.
func (m *Mask) Broadcast(space *coords.Space) (*Mask, error) {
	proj, err := coords.Project(space, m.space)
	if err != nil {
		return nil, err
	}
	out := NewMask(space)
	for i := 0; i < space.Size(); i++ {
		out.vals[i] = m.vals[proj(i)]
	}
	return out, nil
}

// ToArray converts true cells to present 1.0 and false cells to present 0.0.
func (m *Mask) ToArray() *Array {
	a := Full(m.space, 0)
	for i, v := range m.vals {
		if v {
			a.vals[i] = 1
		}
	}
	return a
}
