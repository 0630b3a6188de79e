// Public domain.

package psfmap

import (
	"fmt"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/skymap"
)

// PSFKernel is a per-energy stack of small normalized images suitable
// for image-space convolution.  Each energy slice sums to 1 over its
// pixels.
type PSFKernel struct {
	Map *skymap.Map
}

// Kernel resamples the radial PSF profile at a sky position onto the
// pixel grid of kg: each output pixel gets the interpolated density at
// its distance from the kernel center, zeroed beyond maxRadius, then
// every energy slice is renormalized to unit sum.  kg must carry exactly
// one axis, energy_true.
func (m *PSFMap) Kernel(position geom.SkyDir, kg *geom.WcsGeom, maxRadius unit.Angle) (*PSFKernel, error) {
	if len(kg.Axes) != 1 || kg.Axes[0].Name != "energy_true" {
		return nil, fmt.Errorf("%w: kernel geometry needs a single energy_true axis", ErrConfig)
	}
	if _, _, err := checkGeom(m.PSF.Geom); err != nil {
		return nil, err
	}
	energyAxis := kg.Axes[0]
	out := skymap.New(kg, "")
	bins := []int{0}
	npix := kg.NSpatial()
	for ie := 0; ie < energyAxis.Nbin(); ie++ {
		e := energyAxis.Center(ie)
		bins[0] = ie
		for iy := 0; iy < kg.Ny; iy++ {
			for ix := 0; ix < kg.Nx; ix++ {
				r := kg.Center.Separation(kg.PixDir(ix, iy))
				if r.Rad() > maxRadius.Rad() {
					continue
				}
				v, err := m.PSF.InterpAt(position, r.Deg(), e)
				if err != nil {
					return nil, err
				}
				out.Set(bins, iy, ix, v)
			}
		}
		slice := out.Data[ie*npix : (ie+1)*npix]
		if sum := floats.Sum(slice); sum > 0 {
			floats.Scale(1/sum, slice)
		}
	}
	return &PSFKernel{Map: out}, nil
}
