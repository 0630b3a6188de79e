// Public domain.

package psfmap

import (
	"fmt"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/irf"
	"github.com/gammasky/skyirf/skymap"
)

// Containment returns the fraction of PSF probability enclosed within
// radius rad at a sky position and true energy.
func (m *PSFMap) Containment(position geom.SkyDir, energyTeV float64, rad unit.Angle) (float64, error) {
	d, err := m.profile(position, energyTeV)
	if err != nil {
		return 0, err
	}
	radAxis, _ := m.PSF.Geom.Axis("rad")
	cum := irf.CumulativeContainment(radAxis, d)
	return irf.ContainmentAt(radAxis, cum, rad), nil
}

// ContainmentRadius returns the radius enclosing the given fraction of
// PSF probability at a sky position and true energy.  Fractions outside
// [0, 1), or beyond what the (possibly truncated) rad axis can enclose,
// are configuration errors.
func (m *PSFMap) ContainmentRadius(position geom.SkyDir, energyTeV float64, fraction float64) (unit.Angle, error) {
	d, err := m.profile(position, energyTeV)
	if err != nil {
		return 0, err
	}
	radAxis, _ := m.PSF.Geom.Axis("rad")
	cum := irf.CumulativeContainment(radAxis, d)
	r, err := irf.InvertContainment(radAxis, cum, fraction)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return r, nil
}

// ContainmentRadiusMap computes the containment radius at every spatial
// pixel for one true energy, returned as a 2-D map in degrees.
func (m *PSFMap) ContainmentRadiusMap(energyTeV float64, fraction float64) (*skymap.Map, error) {
	g := m.PSF.Geom
	radAxis, energyAxis, err := checkGeom(g)
	if err != nil {
		return nil, err
	}
	out := skymap.New(g.WithAxes(), "deg")
	bins := []int{0, 0}
	fe := energyAxis.Coord(energyTeV)
	d := make([]float64, radAxis.Nbin())
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			// interpolate the profile in energy only; the pixel is exact
			ie0 := int(fe)
			ie1 := ie0
			if ie0 < energyAxis.Nbin()-1 {
				ie1 = ie0 + 1
			}
			w := fe - float64(ie0)
			for ir := range d {
				bins[0], bins[1] = ir, ie0
				v := m.PSF.At(bins, iy, ix)
				if w > 0 {
					bins[1] = ie1
					v = v*(1-w) + w*m.PSF.At(bins, iy, ix)
				}
				d[ir] = v
			}
			cum := irf.CumulativeContainment(radAxis, d)
			r, err := irf.InvertContainment(radAxis, cum, fraction)
			if err != nil {
				return nil, fmt.Errorf("%w: pixel (%d, %d): %v", ErrConfig, ix, iy, err)
			}
			out.Set(nil, iy, ix, r.Deg())
		}
	}
	return out, nil
}
