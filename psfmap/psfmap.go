// Public domain.

// Package psfmap implements the sky-projected point-spread-function map:
// a PSF density cube over (energy_true, rad, position) with a companion
// exposure cube, built from per-observation IRFs, combined across
// observations by exposure weighting, and queried for containment radii,
// convolution kernels and sampled photon directions.
package psfmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/axis"
	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/irf"
	"github.com/gammasky/skyirf/skymap"
)

// ErrConfig marks caller-fixable configuration errors: mismatched
// geometries, missing axes, bad fractions.
var ErrConfig = errors.New("configuration error")

// ErrFormat marks malformed or incomplete persisted data.
var ErrFormat = errors.New("format error")

// PSFMap is the projected PSF of one or more observations.
//
// PSF holds probability density per solid angle (sr-1) over the
// geometry's (rad, energy_true) axes and spatial pixels; for every fixed
// energy and pixel the rad profile integrates to 1 over solid angle.
// Exposure holds area times live time (m2 s) on the same geometry with
// the rad axis squashed to one bin.  Exposure may be nil on maps read
// from files that do not store it; such maps cannot be stacked.
type PSFMap struct {
	PSF      *skymap.Map
	Exposure *skymap.Map
}

// checkGeom validates the canonical cube layout: exactly the axes
// rad (first, by convention) and energy_true.
func checkGeom(g *geom.WcsGeom) (radAxis, energyAxis *axis.MapAxis, err error) {
	radAxis, ri := g.Axis("rad")
	if ri != 0 {
		return nil, nil, fmt.Errorf("%w: rad must be the first non-spatial axis", ErrConfig)
	}
	energyAxis, ei := g.Axis("energy_true")
	if ei < 0 || len(g.Axes) != 2 {
		return nil, nil, fmt.Errorf("%w: psf map needs axes (rad, energy_true)", ErrConfig)
	}
	return radAxis, energyAxis, nil
}

// Make projects a raw PSF table onto a sky geometry.  For every spatial
// pixel the table is evaluated at the pixel's angular offset from the
// pointing direction, fanning the offset-parameterized table out onto
// the dense grid.  exposureMap, if non-nil, must live on the geometry
// with rad squashed; if nil a zero exposure cube is attached and the
// result cannot be stacked meaningfully until exposure is supplied.
func Make(psf *irf.PSF3D, pointing geom.SkyDir, g *geom.WcsGeom, exposureMap *skymap.Map) (*PSFMap, error) {
	radAxis, energyAxis, err := checkGeom(g)
	if err != nil {
		return nil, err
	}
	sq, _ := g.Squash("rad")
	if exposureMap == nil {
		exposureMap = skymap.New(sq, "m2 s")
	} else if !exposureMap.Geom.Equal(sq) {
		return nil, fmt.Errorf("%w: exposure geometry does not match rad-squashed psf geometry", ErrConfig)
	}

	m := skymap.New(g, "sr-1")
	bins := []int{0, 0}
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			offset := pointing.Separation(g.PixDir(ix, iy))
			for ie := 0; ie < energyAxis.Nbin(); ie++ {
				e := energyAxis.Center(ie)
				for ir := 0; ir < radAxis.Nbin(); ir++ {
					v := psf.Evaluate(e, offset, unit.AngleFromDeg(radAxis.Center(ir)))
					bins[0], bins[1] = ir, ie
					m.Set(bins, iy, ix, v)
				}
			}
		}
	}
	return &PSFMap{PSF: m, Exposure: exposureMap}, nil
}

// FromGauss constructs a PSF map with an analytic 2-D Gaussian radial
// profile on a single-pixel geometry at the origin.  sigma carries one
// value per energy bin, or a single value broadcast to all bins;
// any other length is a configuration error.  The attached exposure cube
// is zero.
func FromGauss(energyAxis, radAxis *axis.MapAxis, sigma []unit.Angle) (*PSFMap, error) {
	switch len(sigma) {
	case energyAxis.Nbin():
	case 1:
		s := sigma[0]
		sigma = make([]unit.Angle, energyAxis.Nbin())
		for i := range sigma {
			sigma[i] = s
		}
	default:
		return nil, fmt.Errorf("%w: %d sigma values for %d energy bins",
			ErrConfig, len(sigma), energyAxis.Nbin())
	}

	g := geom.Region(geom.Dir(0, 0, geom.ICRS), radAxis, energyAxis)
	m := skymap.New(g, "sr-1")
	edges := radAxis.Edges()
	bins := []int{0, 0}
	for ie := 0; ie < energyAxis.Nbin(); ie++ {
		s := sigma[ie].Deg()
		if s <= 0 {
			return nil, fmt.Errorf("%w: non-positive sigma %g deg", ErrConfig, s)
		}
		var norm float64
		prof := make([]float64, radAxis.Nbin())
		for ir := range prof {
			r := radAxis.Center(ir)
			prof[ir] = math.Exp(-.5 * r * r / (s * s))
			e0 := unit.AngleFromDeg(edges[ir]).Rad()
			e1 := unit.AngleFromDeg(edges[ir+1]).Rad()
			norm += prof[ir] * 2 * math.Pi * (math.Cos(e0) - math.Cos(e1))
		}
		for ir := range prof {
			bins[0], bins[1] = ir, ie
			m.Set(bins, 0, 0, prof[ir]/norm)
		}
	}
	sq, _ := g.Squash("rad")
	return &PSFMap{PSF: m, Exposure: skymap.New(sq, "m2 s")}, nil
}

// Copy returns a deep copy, typically taken before stacking.
func (m *PSFMap) Copy() *PSFMap {
	out := &PSFMap{PSF: m.PSF.Copy()}
	if m.Exposure != nil {
		out.Exposure = m.Exposure.Copy()
	}
	return out
}

// Stack accumulates another PSF map into m, exposure weighted:
//
//	density = (m.d*m.exp + o.d*o.exp) / (m.exp + o.exp)
//	exposure = m.exp + o.exp
//
// The squashed exposure is broadcast along rad before weighting.  Bins
// where both exposures are zero get zero density, not NaN.  Geometries
// must match exactly, including the rad axis; on mismatch the receiver
// is left unmodified.
func (m *PSFMap) Stack(o *PSFMap) error {
	if m.Exposure == nil || o.Exposure == nil {
		return fmt.Errorf("%w: stacking needs exposure on both maps", ErrConfig)
	}
	if !m.PSF.Geom.Equal(o.PSF.Geom) {
		return fmt.Errorf("%w: psf geometries differ", ErrConfig)
	}
	if !m.Exposure.Geom.Equal(o.Exposure.Geom) {
		return fmt.Errorf("%w: exposure geometries differ", ErrConfig)
	}
	g := m.PSF.Geom
	radAxis, energyAxis, err := checkGeom(g)
	if err != nil {
		return err
	}

	bins := []int{0, 0}
	ebins := []int{0, 0}
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			for ie := 0; ie < energyAxis.Nbin(); ie++ {
				ebins[1] = ie
				expM := m.Exposure.At(ebins, iy, ix)
				expO := o.Exposure.At(ebins, iy, ix)
				tot := expM + expO
				for ir := 0; ir < radAxis.Nbin(); ir++ {
					bins[0], bins[1] = ir, ie
					var d float64
					if tot > 0 {
						d = (m.PSF.At(bins, iy, ix)*expM +
							o.PSF.At(bins, iy, ix)*expO) / tot
					}
					m.PSF.Set(bins, iy, ix, d)
				}
				m.Exposure.Set(ebins, iy, ix, tot)
			}
		}
	}
	return nil
}

// ToImage reduces away the rad axis, summing the density profile onto a
// single rad bin for quick-look maps.  Exposure is copied unchanged.
func (m *PSFMap) ToImage() (*PSFMap, error) {
	g := m.PSF.Geom
	radAxis, energyAxis, err := checkGeom(g)
	if err != nil {
		return nil, err
	}
	sq, _ := g.Squash("rad")
	out := skymap.New(sq, m.PSF.Unit)
	bins := []int{0, 0}
	obins := []int{0, 0}
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			for ie := 0; ie < energyAxis.Nbin(); ie++ {
				var sum float64
				for ir := 0; ir < radAxis.Nbin(); ir++ {
					bins[0], bins[1] = ir, ie
					sum += m.PSF.At(bins, iy, ix)
				}
				obins[1] = ie
				out.Set(obins, iy, ix, sum)
			}
		}
	}
	res := &PSFMap{PSF: out}
	if m.Exposure != nil {
		res.Exposure = m.Exposure.Copy()
	}
	return res, nil
}

// ToRegionProfile extracts the radial profile at a single sky position,
// dropping the spatial extent: the result lives on a one-pixel geometry
// at that position.
func (m *PSFMap) ToRegionProfile(position geom.SkyDir) (*PSFMap, error) {
	g := m.PSF.Geom
	radAxis, energyAxis, err := checkGeom(g)
	if err != nil {
		return nil, err
	}
	rg := geom.Region(position, g.Axes...)
	out := skymap.New(rg, m.PSF.Unit)
	bins := []int{0, 0}
	for ie := 0; ie < energyAxis.Nbin(); ie++ {
		for ir := 0; ir < radAxis.Nbin(); ir++ {
			v, err := m.PSF.InterpAt(position, radAxis.Center(ir), energyAxis.Center(ie))
			if err != nil {
				return nil, err
			}
			bins[0], bins[1] = ir, ie
			out.Set(bins, 0, 0, v)
		}
	}
	res := &PSFMap{PSF: out}
	if m.Exposure != nil {
		sq, _ := rg.Squash("rad")
		exp := skymap.New(sq, m.Exposure.Unit)
		erad, _ := m.Exposure.Geom.Axis("rad")
		for ie := 0; ie < energyAxis.Nbin(); ie++ {
			v, err := m.Exposure.InterpAt(position, erad.Center(0), energyAxis.Center(ie))
			if err != nil {
				return nil, err
			}
			bins[0], bins[1] = 0, ie
			exp.Set(bins, 0, 0, v)
		}
		res.Exposure = exp
	}
	return res, nil
}

// profile samples the density at the rad axis centers for a position and
// true energy, interpolating the cube.
func (m *PSFMap) profile(position geom.SkyDir, energyTeV float64) ([]float64, error) {
	radAxis, _, err := checkGeom(m.PSF.Geom)
	if err != nil {
		return nil, err
	}
	d := make([]float64, radAxis.Nbin())
	for ir := range d {
		v, err := m.PSF.InterpAt(position, radAxis.Center(ir), energyTeV)
		if err != nil {
			return nil, err
		}
		d[ir] = v
	}
	return d, nil
}
