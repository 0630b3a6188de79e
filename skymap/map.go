// Public domain.

// Package skymap associates a flat float64 array with a map geometry and
// provides interpolated access at arbitrary sky coordinates.
package skymap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gammasky/skyirf/geom"
)

// Map is an N-dimensional gridded quantity: two spatial dimensions plus
// the geometry's extra axes.  Data is C order with x fastest, then y,
// then the axes in geometry order.
type Map struct {
	Geom *geom.WcsGeom
	Unit string
	Data []float64
}

// New allocates a zero-filled map over a geometry.
func New(g *geom.WcsGeom, unit string) *Map {
	return &Map{
		Geom: g,
		Unit: unit,
		Data: make([]float64, g.DataSize()),
	}
}

// Copy returns a deep copy of m.
func (m *Map) Copy() *Map {
	return &Map{
		Geom: m.Geom,
		Unit: m.Unit,
		Data: append([]float64{}, m.Data...),
	}
}

// At returns the value at axis bins (geometry axis order) and pixel (ix, iy).
func (m *Map) At(bins []int, iy, ix int) float64 {
	return m.Data[m.Geom.Index(bins, iy, ix)]
}

// Set stores a value at axis bins and pixel (ix, iy).
func (m *Map) Set(bins []int, iy, ix int, v float64) {
	m.Data[m.Geom.Index(bins, iy, ix)] = v
}

// Scale multiplies all values by f.
func (m *Map) Scale(f float64) {
	floats.Scale(f, m.Data)
}

// Add accumulates o into m.  The geometries must be equal.
func (m *Map) Add(o *Map) error {
	if !m.Geom.Equal(o.Geom) {
		return fmt.Errorf("map add: geometry mismatch")
	}
	floats.Add(m.Data, o.Data)
	return nil
}

// InterpAt evaluates the map at a sky direction and axis values (one per
// geometry axis, in axis order and axis units) by multilinear
// interpolation: bilinear across pixels, linear or logarithmic per axis.
// Coordinates beyond the grid or axis ends clamp to the boundary.
func (m *Map) InterpAt(d geom.SkyDir, axvals ...float64) (float64, error) {
	g := m.Geom
	if len(axvals) != len(g.Axes) {
		return 0, fmt.Errorf("map interp: want %d axis values, got %d",
			len(g.Axes), len(axvals))
	}
	nd := 2 + len(g.Axes)
	lo := make([]int, nd)    // lower sample index per dimension
	w := make([]float64, nd) // weight of the upper sample
	size := make([]int, nd)

	fx, fy := g.PixOfDir(d)
	lo[0], w[0] = split(fx, g.Nx)
	lo[1], w[1] = split(fy, g.Ny)
	size[0], size[1] = g.Nx, g.Ny
	for i, a := range g.Axes {
		lo[2+i], w[2+i] = split(a.Coord(axvals[i]), a.Nbin())
		size[2+i] = a.Nbin()
	}

	bins := make([]int, len(g.Axes))
	var sum float64
	for corner := 0; corner < 1<<uint(nd); corner++ {
		wt := 1.0
		for dim := 0; dim < nd; dim++ {
			if corner&(1<<uint(dim)) != 0 {
				wt *= w[dim]
			} else {
				wt *= 1 - w[dim]
			}
		}
		if wt == 0 {
			continue
		}
		ix := sample(lo[0], corner&1 != 0, size[0])
		iy := sample(lo[1], corner&2 != 0, size[1])
		for i := range bins {
			bins[i] = sample(lo[2+i], corner&(1<<uint(2+i)) != 0, size[2+i])
		}
		sum += wt * m.At(bins, iy, ix)
	}
	return sum, nil
}

// split decomposes a fractional coordinate into a lower index and the
// weight of the upper neighbor, clamped to the valid range.
func split(f float64, n int) (int, float64) {
	if f <= 0 || n == 1 {
		return 0, 0
	}
	if f >= float64(n-1) {
		return n - 1, 0
	}
	i := int(math.Floor(f))
	return i, f - float64(i)
}

// sample clamps an index (optionally bumped to the upper neighbor) to the
// dimension size.
func sample(lo int, upper bool, n int) int {
	i := lo
	if upper {
		i++
	}
	if i > n-1 {
		i = n - 1
	}
	return i
}
