// Public domain.

// Package geom provides sky directions, frames and the pixelized map
// geometries used by the IRF maps: a small-field WCS-style grid of
// spatial pixels carrying extra binned axes such as true energy and
// the PSF radial offset.
package geom

import (
	"fmt"
	"math"

	"github.com/soniakeys/coord"
	mcoord "github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/axis"
)

// Frame identifies a celestial coordinate frame.
type Frame string

const (
	ICRS     Frame = "icrs"
	Galactic Frame = "galactic"
)

// SkyDir is a direction on the sky in a given frame.
type SkyDir struct {
	Lon, Lat unit.Angle
	Frame    Frame
}

// Dir constructs a SkyDir from degrees.
func Dir(lonDeg, latDeg float64, frame Frame) SkyDir {
	return SkyDir{
		Lon:   unit.AngleFromDeg(lonDeg),
		Lat:   unit.AngleFromDeg(latDeg),
		Frame: frame,
	}
}

// Cart returns the unit vector of d.
func (d SkyDir) Cart() coord.Cart {
	slat, clat := math.Sincos(d.Lat.Rad())
	slon, clon := math.Sincos(d.Lon.Rad())
	return coord.Cart{
		X: clat * clon,
		Y: clat * slon,
		Z: slat,
	}
}

// In converts d to the given frame.
func (d SkyDir) In(f Frame) SkyDir {
	if d.Frame == f {
		return d
	}
	switch f {
	case Galactic:
		eq := &mcoord.Equatorial{RA: unit.RA(d.Lon), Dec: d.Lat}
		g := new(mcoord.Galactic).EqToGal(eq)
		return SkyDir{Lon: g.Lon, Lat: g.Lat, Frame: Galactic}
	default:
		g := &mcoord.Galactic{Lon: d.Lon, Lat: d.Lat}
		eq := new(mcoord.Equatorial).GalToEq(g)
		return SkyDir{Lon: unit.Angle(eq.RA), Lat: eq.Dec, Frame: ICRS}
	}
}

// Separation returns the angular distance between two directions.
// o is converted to d's frame first if needed.
func (d SkyDir) Separation(o SkyDir) unit.Angle {
	a := d.Cart()
	b := o.In(d.Frame).Cart()
	var x coord.Cart
	x.Cross(&a, &b)
	return unit.Angle(math.Atan2(math.Sqrt(x.Square()), a.Dot(&b)))
}

// Offset returns the direction reached by moving the angular distance
// theta from d along the given position angle (measured from north,
// increasing eastward).
func (d SkyDir) Offset(theta, pa unit.Angle) SkyDir {
	sLat, cLat := math.Sincos(d.Lat.Rad())
	sTh, cTh := math.Sincos(theta.Rad())
	sPa, cPa := math.Sincos(pa.Rad())
	sLat2 := sLat*cTh + cLat*sTh*cPa
	lat2 := math.Asin(sLat2)
	lon2 := d.Lon.Rad() + math.Atan2(sPa*sTh*cLat, cTh-sLat*sLat2)
	return SkyDir{
		Lon:   unit.Angle(lon2),
		Lat:   unit.Angle(lat2),
		Frame: d.Frame,
	}
}

// MapCoord is a batch of sky query points with true energies, all in
// one frame.  Lon, Lat and Energy have equal length.
type MapCoord struct {
	Lon, Lat []unit.Angle
	Energy   []float64 // TeV
	Frame    Frame
}

// NewMapCoord builds a MapCoord from degree and TeV slices.
func NewMapCoord(lonDeg, latDeg, energy []float64, frame Frame) (*MapCoord, error) {
	if len(lonDeg) != len(latDeg) || len(lonDeg) != len(energy) {
		return nil, fmt.Errorf("map coord: length mismatch %d/%d/%d",
			len(lonDeg), len(latDeg), len(energy))
	}
	c := &MapCoord{
		Lon:    make([]unit.Angle, len(lonDeg)),
		Lat:    make([]unit.Angle, len(latDeg)),
		Energy: append([]float64{}, energy...),
		Frame:  frame,
	}
	for i := range lonDeg {
		c.Lon[i] = unit.AngleFromDeg(lonDeg[i])
		c.Lat[i] = unit.AngleFromDeg(latDeg[i])
	}
	return c, nil
}

func (c *MapCoord) Len() int { return len(c.Lon) }

// Dir returns query point i as a SkyDir.
func (c *MapCoord) Dir(i int) SkyDir {
	return SkyDir{Lon: c.Lon[i], Lat: c.Lat[i], Frame: c.Frame}
}

// WcsGeom is a small-field plate-carree pixel grid centered on a sky
// direction, with any number of extra binned axes.  The flat data layout
// it indexes is C order with x fastest, then y, then the axes in order:
// shape (axes[n-1], ..., axes[0], ny, nx).
type WcsGeom struct {
	Center  SkyDir
	BinSize unit.Angle
	Nx, Ny  int
	Axes    []*axis.MapAxis
}

// NewWcsGeom constructs a geometry.  binszDeg is the square pixel size in
// degrees.
func NewWcsGeom(center SkyDir, binszDeg float64, nx, ny int, axes ...*axis.MapAxis) (*WcsGeom, error) {
	if binszDeg <= 0 || nx < 1 || ny < 1 {
		return nil, fmt.Errorf("geometry: invalid grid %dx%d binsz %g", nx, ny, binszDeg)
	}
	seen := map[string]bool{}
	for _, a := range axes {
		if seen[a.Name] {
			return nil, fmt.Errorf("geometry: duplicate axis %q", a.Name)
		}
		seen[a.Name] = true
	}
	return &WcsGeom{
		Center:  center,
		BinSize: unit.AngleFromDeg(binszDeg),
		Nx:      nx,
		Ny:      ny,
		Axes:    axes,
	}, nil
}

// Region constructs a degenerate single-pixel geometry at a position,
// used for per-position radial profiles.
func Region(center SkyDir, axes ...*axis.MapAxis) *WcsGeom {
	g, _ := NewWcsGeom(center, .1, 1, 1, axes...)
	return g
}

// NSpatial returns the number of spatial pixels.
func (g *WcsGeom) NSpatial() int { return g.Nx * g.Ny }

// DataSize returns the flat array length implied by the geometry.
func (g *WcsGeom) DataSize() int {
	n := g.NSpatial()
	for _, a := range g.Axes {
		n *= a.Nbin()
	}
	return n
}

// Index computes the flat array index for axis bins (in Axes order) and
// spatial pixel (ix, iy).
func (g *WcsGeom) Index(bins []int, iy, ix int) int {
	n := 0
	for i := len(bins) - 1; i >= 0; i-- {
		n = n*g.Axes[i].Nbin() + bins[i]
	}
	return (n*g.Ny+iy)*g.Nx + ix
}

// PixDir returns the sky direction of the center of pixel (ix, iy).
func (g *WcsGeom) PixDir(ix, iy int) SkyDir {
	cx := float64(g.Nx-1) / 2
	cy := float64(g.Ny-1) / 2
	return SkyDir{
		Lon:   g.Center.Lon + g.BinSize.Mul(float64(ix)-cx),
		Lat:   g.Center.Lat + g.BinSize.Mul(float64(iy)-cy),
		Frame: g.Center.Frame,
	}
}

// PixOfDir returns the fractional pixel coordinates of a direction,
// converted to the geometry frame.  Results may lie outside the grid.
func (g *WcsGeom) PixOfDir(d SkyDir) (fx, fy float64) {
	d = d.In(g.Center.Frame)
	dLon := wrapPi(d.Lon.Rad() - g.Center.Lon.Rad())
	dLat := d.Lat.Rad() - g.Center.Lat.Rad()
	fx = float64(g.Nx-1)/2 + dLon/g.BinSize.Rad()
	fy = float64(g.Ny-1)/2 + dLat/g.BinSize.Rad()
	return
}

// SolidAngle returns the solid angle of a pixel in row iy, in steradian.
func (g *WcsGeom) SolidAngle(iy int) float64 {
	cy := float64(g.Ny-1) / 2
	lat := g.Center.Lat.Rad() + g.BinSize.Rad()*(float64(iy)-cy)
	return g.BinSize.Rad() * g.BinSize.Rad() * math.Cos(lat)
}

// Axis returns the named axis and its position in Axes, or nil, -1.
func (g *WcsGeom) Axis(name string) (*axis.MapAxis, int) {
	for i, a := range g.Axes {
		if a.Name == name {
			return a, i
		}
	}
	return nil, -1
}

// Squash returns a copy of the geometry with the named axis collapsed to
// a single bin spanning its full range.
func (g *WcsGeom) Squash(name string) (*WcsGeom, error) {
	_, i := g.Axis(name)
	if i < 0 {
		return nil, fmt.Errorf("geometry: no axis %q to squash", name)
	}
	axes := make([]*axis.MapAxis, len(g.Axes))
	copy(axes, g.Axes)
	axes[i] = axes[i].Squash()
	out := *g
	out.Axes = axes
	return &out, nil
}

// WithAxes returns a copy of the geometry with the given axes replacing
// the current ones.
func (g *WcsGeom) WithAxes(axes ...*axis.MapAxis) *WcsGeom {
	out := *g
	out.Axes = axes
	return &out
}

// Equal reports whether two geometries match: same frame, same center and
// pixel size to floating tolerance, same grid and equal axes.
func (g *WcsGeom) Equal(o *WcsGeom) bool {
	if o == nil || g.Nx != o.Nx || g.Ny != o.Ny ||
		g.Center.Frame != o.Center.Frame ||
		len(g.Axes) != len(o.Axes) {
		return false
	}
	if math.Abs(g.BinSize.Rad()-o.BinSize.Rad()) > 1e-12 {
		return false
	}
	if g.Center.Separation(o.Center).Rad() > 1e-9 {
		return false
	}
	for i, a := range g.Axes {
		if !a.Equal(o.Axes[i]) {
			return false
		}
	}
	return true
}

func wrapPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
