// Public domain.

// Package exposure builds exposure maps: effective area times live time
// as a function of true energy and sky position.
package exposure

import (
	"fmt"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/irf"
	"github.com/gammasky/skyirf/skymap"
)

// Make computes the exposure cube for one observation on the given
// geometry: aeff(energy, offset from pointing) * livetime at every pixel
// and true-energy bin.  livetime is in seconds; the result is in m2 s.
// The geometry must carry an energy_true axis; any other axes (such as a
// squashed rad axis) are broadcast.
func Make(pointing geom.SkyDir, livetime float64, aeff *irf.EffectiveAreaTable2D, g *geom.WcsGeom) (*skymap.Map, error) {
	if livetime <= 0 {
		return nil, fmt.Errorf("exposure: non-positive livetime %g s", livetime)
	}
	energyAxis, ei := g.Axis("energy_true")
	if ei < 0 {
		return nil, fmt.Errorf("exposure: geometry lacks energy_true axis")
	}
	m := skymap.New(g, "m2 s")
	bins := make([]int, len(g.Axes))
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			offset := pointing.Separation(g.PixDir(ix, iy))
			for ie := 0; ie < energyAxis.Nbin(); ie++ {
				v := aeff.Evaluate(energyAxis.Center(ie), offset) * livetime
				bins[ei] = ie
				if err := fillBroadcast(m, g, bins, ei, 0, iy, ix, v); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

// fillBroadcast writes v at every combination of the axes other than the
// energy axis (index fixed), recursing over axis positions.
func fillBroadcast(m *skymap.Map, g *geom.WcsGeom, bins []int, fixed, ax, iy, ix int, v float64) error {
	if ax == len(g.Axes) {
		m.Set(bins, iy, ix, v)
		return nil
	}
	if ax == fixed {
		return fillBroadcast(m, g, bins, fixed, ax+1, iy, ix, v)
	}
	for b := 0; b < g.Axes[ax].Nbin(); b++ {
		bins[ax] = b
		if err := fillBroadcast(m, g, bins, fixed, ax+1, iy, ix, v); err != nil {
			return err
		}
	}
	return nil
}
