package coords

import (
	"fmt"
)

// Axis names used throughout the model. Every array is addressed by an
// ordered subset of these.
const (
	Region      = "REGION"
	OtherRegion = "_REGION" // counter-region view of REGION in trade arrays
	Technology  = "TECHNOLOGY"
	Commodity   = "COMMODITY"
	Timeslice   = "TIMESLICE"
	Year        = "YEAR"
	Mode        = "MODE_OF_OPERATION"
	Emission    = "EMISSION"
	Storage     = "STORAGE"
	Season      = "SEASON"
	DayType     = "DAYTYPE"
	TimeBracket = "DAILYTIMEBRACKET"
)

// Universe holds the declared axes for a run. Axes are immutable once
// declared; an axis may be aliased so the same member set can appear in an
// array under two roles (REGION and _REGION).
type Universe struct {
	order   []string
	members map[string][]string
}

func NewUniverse() *Universe {
	return &Universe{members: make(map[string][]string)}
}

// Declare registers an axis with its ordered member list.
func (u *Universe) Declare(name string, members []string) error {
	if name == "" {
		return fmt.Errorf("axis name is empty")
	}
	if _, ok := u.members[name]; ok {
		return fmt.Errorf("axis %q already declared", name)
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m] {
			return fmt.Errorf("axis %q has duplicate member %q", name, m)
		}
		seen[m] = true
	}
	u.order = append(u.order, name)
	u.members[name] = append([]string(nil), members...)
	return nil
}

// Alias declares a new axis sharing the member list of an existing one.
func (u *Universe) Alias(name, of string) error {
	src, ok := u.members[of]
	if !ok {
		return fmt.Errorf("axis %q not declared", of)
	}
	return u.Declare(name, src)
}

// Members returns the ordered member list of an axis.
func (u *Universe) Members(name string) ([]string, error) {
	m, ok := u.members[name]
	if !ok {
		return nil, fmt.Errorf("axis %q not declared", name)
	}
	return m, nil
}

func (u *Universe) Has(name string) bool {
	_, ok := u.members[name]
	return ok
}

// Len returns the member count of an axis, zero if undeclared.
func (u *Universe) Len(name string) int {
	return len(u.members[name])
}

// Axes returns the declared axis names in declaration order.
func (u *Universe) Axes() []string {
	return append([]string(nil), u.order...)
}

// Space is the coordinate space of an array: an ordered list of axes with
// row-major addressing. Cell index = sum over dims of position*stride.
type Space struct {
	u       *Universe
	dims    []string
	members [][]string
	strides []int
	size    int
	pos     map[string]int // dim name -> position in dims
}

// Space builds the coordinate space over the given axes, in order.
// Referencing an undeclared axis is a configuration error.
func (u *Universe) Space(dims ...string) (*Space, error) {
	s := &Space{
		u:       u,
		dims:    append([]string(nil), dims...),
		members: make([][]string, len(dims)),
		strides: make([]int, len(dims)),
		pos:     make(map[string]int, len(dims)),
	}
	for i, d := range dims {
		m, err := u.Members(d)
		if err != nil {
			return nil, err
		}
		if _, dup := s.pos[d]; dup {
			return nil, fmt.Errorf("axis %q appears twice in space", d)
		}
		s.members[i] = m
		s.pos[d] = i
	}
	s.size = 1
	for i := len(dims) - 1; i >= 0; i-- {
		s.strides[i] = s.size
		s.size *= len(s.members[i])
	}
	if len(dims) == 0 {
		s.size = 1
	}
	return s, nil
}

// Scalar returns the zero-dimensional space (a single cell).
func (u *Universe) Scalar() *Space {
	s, _ := u.Space()
	return s
}

func (s *Space) Size() int       { return s.size }
func (s *Space) NDim() int       { return len(s.dims) }
func (s *Space) Dims() []string  { return append([]string(nil), s.dims...) }
func (s *Space) Universe() *Universe { return s.u }

func (s *Space) HasDim(name string) bool {
	_, ok := s.pos[name]
	return ok
}

// DimLen returns the member count of a dim within this space.
func (s *Space) DimLen(name string) (int, error) {
	p, ok := s.pos[name]
	if !ok {
		return 0, fmt.Errorf("axis %q not in space %v", name, s.dims)
	}
	return len(s.members[p]), nil
}

// DimMembers returns the member list of a dim within this space.
func (s *Space) DimMembers(name string) ([]string, error) {
	p, ok := s.pos[name]
	if !ok {
		return nil, fmt.Errorf("axis %q not in space %v", name, s.dims)
	}
	return s.members[p], nil
}

// DimPos decomposes a cell index into the position along one dim.
func (s *Space) DimPos(idx int, name string) (int, error) {
	p, ok := s.pos[name]
	if !ok {
		return 0, fmt.Errorf("axis %q not in space %v", name, s.dims)
	}
	return (idx / s.strides[p]) % len(s.members[p]), nil
}

// Stride returns the index distance between consecutive positions along a dim.
func (s *Space) Stride(name string) (int, error) {
	p, ok := s.pos[name]
	if !ok {
		return 0, fmt.Errorf("axis %q not in space %v", name, s.dims)
	}
	return s.strides[p], nil
}

// Coord returns the member names addressing a cell, one per dim.
func (s *Space) Coord(idx int) []string {
	out := make([]string, len(s.dims))
	for i := range s.dims {
		p := (idx / s.strides[i]) % len(s.members[i])
		out[i] = s.members[i][p]
	}
	return out
}

// CoordString renders a cell address for error messages.
func (s *Space) CoordString(idx int) string {
	c := s.Coord(idx)
	out := ""
	for i, d := range s.dims {
		if i > 0 {
			out += ","
		}
		out += d + "=" + c[i]
	}
	return "[" + out + "]"
}

// Index computes the cell index from per-dim positions, in dim order.
func (s *Space) Index(positions []int) int {
	idx := 0
	for i, p := range positions {
		idx += p * s.strides[i]
	}
	return idx
}

// SameAs reports whether two spaces have identical dims and members.
func (s *Space) SameAs(o *Space) bool {
	if len(s.dims) != len(o.dims) {
		return false
	}
	for i := range s.dims {
		if s.dims[i] != o.dims[i] || len(s.members[i]) != len(o.members[i]) {
			return false
		}
	}
	return true
}

// Drop returns the space without the named dim.
func (s *Space) Drop(name string) (*Space, error) {
	if !s.HasDim(name) {
		return nil, fmt.Errorf("axis %q not in space %v", name, s.dims)
	}
	dims := make([]string, 0, len(s.dims)-1)
	for _, d := range s.dims {
		if d != name {
			dims = append(dims, d)
		}
	}
	return s.u.Space(dims...)
}

// Rename returns the space with one axis relabeled onto another declared
// axis carrying an identical member set. The receiver is not mutated.
func (s *Space) Rename(from, to string) (*Space, error) {
	p, ok := s.pos[from]
	if !ok {
		return nil, fmt.Errorf("axis %q not in space %v", from, s.dims)
	}
	dst, err := s.u.Members(to)
	if err != nil {
		return nil, err
	}
	if len(dst) != len(s.members[p]) {
		return nil, fmt.Errorf("cannot rename %q to %q: member counts differ (%d vs %d)",
			from, to, len(s.members[p]), len(dst))
	}
	dims := s.Dims()
	dims[p] = to
	return s.u.Space(dims...)
}

// Swap relabels axis a as b and b as a without moving any data layout.
// Both axes must be in the space and carry equally sized member sets, as
// a counter-axis alias does.
func (s *Space) Swap(a, b string) (*Space, error) {
	pa, ok := s.pos[a]
	if !ok {
		return nil, fmt.Errorf("axis %q not in space %v", a, s.dims)
	}
	pb, ok := s.pos[b]
	if !ok {
		return nil, fmt.Errorf("axis %q not in space %v", b, s.dims)
	}
	if len(s.members[pa]) != len(s.members[pb]) {
		return nil, fmt.Errorf("cannot swap %q and %q: member counts differ", a, b)
	}
	dims := s.Dims()
	dims[pa], dims[pb] = b, a
	return s.u.Space(dims...)
}

// Union returns the outer-join space of a and b: a's dims in order, then
// b's dims not already present. Shared dims must carry identical members.
func Union(a, b *Space) (*Space, error) {
	if a.u != b.u {
		return nil, fmt.Errorf("spaces belong to different universes")
	}
	dims := a.Dims()
	for _, d := range b.dims {
		if !a.HasDim(d) {
			dims = append(dims, d)
		} else {
			am, _ := a.DimMembers(d)
			bm, _ := b.DimMembers(d)
			if len(am) != len(bm) {
				return nil, fmt.Errorf("axis %q has mismatched members across spaces", d)
			}
		}
	}
	return a.u.Space(dims...)
}

// Project returns a function mapping cell indices of dst onto cell indices
// of src. Every dim of src must be present in dst with identical members;
// dims of dst absent from src are broadcast.
func Project(dst, src *Space) (func(int) int, error) {
	if src.NDim() == 0 {
		return func(int) int { return 0 }, nil
	}
	type mapping struct {
		dstStride, dstLen, srcStride int
	}
	maps := make([]mapping, 0, len(src.dims))
	for i, d := range src.dims {
		p, ok := dst.pos[d]
		if !ok {
			return nil, fmt.Errorf("axis %q of source space missing from target %v", d, dst.dims)
		}
		if len(dst.members[p]) != len(src.members[i]) {
			return nil, fmt.Errorf("axis %q has mismatched members across spaces", d)
		}
		maps = append(maps, mapping{dst.strides[p], len(dst.members[p]), src.strides[i]})
	}
	return func(idx int) int {
		out := 0
		for _, m := range maps {
			out += ((idx / m.dstStride) % m.dstLen) * m.srcStride
		}
		return out
	}, nil
}
