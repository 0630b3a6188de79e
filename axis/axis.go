// Public domain.

// Package axis provides labeled, unit-aware coordinate axes for gridded
// sky maps.  An axis is a sequence of contiguous bins with a linear or
// logarithmic interpolation rule.
package axis

import (
	"fmt"
	"math"
)

// Interp selects the interpolation rule used between bin centers.
type Interp int

const (
	Lin Interp = iota
	Log
)

// MapAxis is a single binned axis of a map geometry.  Edges are strictly
// increasing; centers follow the interpolation rule.
type MapAxis struct {
	Name   string
	Unit   string
	Interp Interp

	edges   []float64 // len nbin+1
	centers []float64 // len nbin
}

// FromEdges constructs an axis from bin edges.  Centers are arithmetic
// midpoints for Lin, geometric midpoints for Log.
func FromEdges(name, unit string, interp Interp, edges []float64) (*MapAxis, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("axis %s: need at least 2 edges, got %d", name, len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("axis %s: edges not strictly increasing at %d", name, i)
		}
	}
	a := &MapAxis{
		Name:   name,
		Unit:   unit,
		Interp: interp,
		edges:  append([]float64{}, edges...),
	}
	a.centers = make([]float64, len(edges)-1)
	for i := range a.centers {
		if interp == Log {
			a.centers[i] = math.Sqrt(edges[i] * edges[i+1])
		} else {
			a.centers[i] = .5 * (edges[i] + edges[i+1])
		}
	}
	return a, nil
}

// FromNodes constructs an axis from bin centers.  Edges are placed midway
// between nodes, with end edges extended by a half step.  For a Log axis
// midway means the geometric mean.
func FromNodes(name, unit string, interp Interp, nodes []float64) (*MapAxis, error) {
	if len(nodes) < 1 {
		return nil, fmt.Errorf("axis %s: need at least 1 node", name)
	}
	for i := 1; i < len(nodes); i++ {
		if nodes[i] <= nodes[i-1] {
			return nil, fmt.Errorf("axis %s: nodes not strictly increasing at %d", name, i)
		}
	}
	n := len(nodes)
	a := &MapAxis{
		Name:    name,
		Unit:    unit,
		Interp:  interp,
		centers: append([]float64{}, nodes...),
	}
	a.edges = make([]float64, n+1)
	switch {
	case n == 1:
		// degenerate single node: make a token bin around it
		d := nodes[0] * .5
		if d == 0 {
			d = .5
		}
		a.edges[0] = nodes[0] - d
		a.edges[1] = nodes[0] + d
	case interp == Log:
		for i := 1; i < n; i++ {
			a.edges[i] = math.Sqrt(nodes[i-1] * nodes[i])
		}
		a.edges[0] = nodes[0] * nodes[0] / a.edges[1]
		a.edges[n] = nodes[n-1] * nodes[n-1] / a.edges[n-1]
	default:
		for i := 1; i < n; i++ {
			a.edges[i] = .5 * (nodes[i-1] + nodes[i])
		}
		a.edges[0] = nodes[0] - (a.edges[1] - nodes[0])
		a.edges[n] = nodes[n-1] + (nodes[n-1] - a.edges[n-1])
	}
	return a, nil
}

// FromEnergyBounds constructs a log-spaced true-energy axis in TeV.
func FromEnergyBounds(emin, emax float64, nbin int) (*MapAxis, error) {
	if emin <= 0 || emax <= emin || nbin < 1 {
		return nil, fmt.Errorf("energy axis: invalid bounds [%g, %g] nbin %d", emin, emax, nbin)
	}
	edges := make([]float64, nbin+1)
	lmin, lmax := math.Log(emin), math.Log(emax)
	for i := range edges {
		edges[i] = math.Exp(lmin + (lmax-lmin)*float64(i)/float64(nbin))
	}
	edges[0] = emin
	edges[nbin] = emax
	return FromEdges("energy_true", "TeV", Log, edges)
}

// Linspace constructs a linear axis of nbin bins spanning [lo, hi].
func Linspace(name, unit string, lo, hi float64, nbin int) (*MapAxis, error) {
	edges := make([]float64, nbin+1)
	for i := range edges {
		edges[i] = lo + (hi-lo)*float64(i)/float64(nbin)
	}
	return FromEdges(name, unit, Lin, edges)
}

func (a *MapAxis) Nbin() int          { return len(a.centers) }
func (a *MapAxis) Edges() []float64   { return a.edges }
func (a *MapAxis) Centers() []float64 { return a.centers }
func (a *MapAxis) Center(i int) float64 {
	return a.centers[i]
}
func (a *MapAxis) Lo() float64 { return a.edges[0] }
func (a *MapAxis) Hi() float64 { return a.edges[len(a.edges)-1] }

// FindBin returns the bin index containing x, or -1 if x is outside the
// axis range.  The upper edge belongs to the last bin.
func (a *MapAxis) FindBin(x float64) int {
	if x < a.edges[0] || x > a.Hi() {
		return -1
	}
	if x == a.Hi() {
		return a.Nbin() - 1
	}
	lo, hi := 0, a.Nbin()-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if x >= a.edges[mid] {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Coord returns the fractional bin coordinate of x: 0 at the center of the
// first bin, Nbin-1 at the center of the last.  Values beyond the end
// centers clamp, so interpolation extends flat past the axis.
func (a *MapAxis) Coord(x float64) float64 {
	c := a.centers
	v := x
	if a.Interp == Log {
		if x <= 0 {
			return 0
		}
		v = math.Log(x)
	}
	val := func(i int) float64 {
		if a.Interp == Log {
			return math.Log(c[i])
		}
		return c[i]
	}
	n := len(c)
	if n == 1 || v <= val(0) {
		return 0
	}
	if v >= val(n - 1) {
		return float64(n - 1)
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if v >= val(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return float64(lo) + (v-val(lo))/(val(hi)-val(lo))
}

// Squash returns a single-bin axis spanning the full range of a.
func (a *MapAxis) Squash() *MapAxis {
	sq, _ := FromEdges(a.Name, a.Unit, a.Interp, []float64{a.Lo(), a.Hi()})
	return sq
}

// Equal reports whether two axes have the same name, unit, rule and edges
// to within a small relative tolerance.
func (a *MapAxis) Equal(b *MapAxis) bool {
	if b == nil || a.Name != b.Name || a.Unit != b.Unit ||
		a.Interp != b.Interp || len(a.edges) != len(b.edges) {
		return false
	}
	for i, e := range a.edges {
		if !closeEnough(e, b.edges[i]) {
			return false
		}
	}
	return true
}

func closeEnough(a, b float64) bool {
	d := math.Abs(a - b)
	if d == 0 {
		return true
	}
	s := math.Max(math.Abs(a), math.Abs(b))
	return d <= 1e-9*s
}
