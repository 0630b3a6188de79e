// Public domain.

package psfmap_test

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/axis"
	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/psfmap"
)

func TestKernel(t *testing.T) {
	p := gaussPSF3D(t, .15)
	g := testGeom(t)
	center := geom.Dir(0, 0, geom.ICRS)
	m, err := psfmap.Make(p, center, g, nil)
	if err != nil {
		t.Fatal(err)
	}

	energy, _ := g.Axis("energy_true")
	kg, err := geom.NewWcsGeom(center, .02, 51, 51, energy)
	if err != nil {
		t.Fatal(err)
	}
	k, err := m.Kernel(center, kg, unit.AngleFromDeg(.5))
	if err != nil {
		t.Fatal(err)
	}

	npix := kg.NSpatial()
	for ie := 0; ie < energy.Nbin(); ie++ {
		var sum float64
		for _, v := range k.Map.Data[ie*npix : (ie+1)*npix] {
			if v < 0 {
				t.Fatal("negative kernel value")
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-7 {
			t.Fatalf("energy bin %d: kernel sum %g", ie, sum)
		}
	}

	// corners are beyond the cutoff radius
	bins := []int{0}
	if v := k.Map.At(bins, 0, 0); v != 0 {
		t.Fatal("corner pixel beyond max radius:", v)
	}
	// peak at the center pixel
	peak := k.Map.At(bins, 25, 25)
	if off := k.Map.At(bins, 25, 35); off >= peak {
		t.Fatalf("center %g not above %g", peak, off)
	}
}

func TestKernelGeomNeedsEnergyAxis(t *testing.T) {
	p := gaussPSF3D(t, .15)
	g := testGeom(t)
	center := geom.Dir(0, 0, geom.ICRS)
	m, err := psfmap.Make(p, center, g, nil)
	if err != nil {
		t.Fatal(err)
	}
	rad, err := axis.Linspace("rad", "deg", 0, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	kg, err := geom.NewWcsGeom(center, .02, 11, 11, rad)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Kernel(center, kg, unit.AngleFromDeg(.5)); err == nil {
		t.Fatal("kernel accepted geometry without energy axis")
	}
}
