// Public domain.

package psfmap_test

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"

	"github.com/gammasky/skyirf/axis"
	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/psfmap"
)

func TestSampleCoord(t *testing.T) {
	const sigma = .15
	energy, err := axis.FromEnergyBounds(.1, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	rad, err := axis.Linspace("rad", "deg", 0, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	m, err := psfmap.FromGauss(energy, rad, []unit.Angle{unit.AngleFromDeg(sigma)})
	if err != nil {
		t.Fatal(err)
	}

	const n = 20000
	lon := make([]float64, n)
	lat := make([]float64, n)
	en := make([]float64, n)
	for i := range en {
		en[i] = 1
	}
	c, err := geom.NewMapCoord(lon, lat, en, geom.ICRS)
	if err != nil {
		t.Fatal(err)
	}

	var src xrand.PCGSource
	src.Seed(7)
	rnd := xrand.New(&src)
	out, err := m.SampleCoord(rnd, c)
	if err != nil {
		t.Fatal(err)
	}
	if out.Frame != geom.ICRS {
		t.Fatal("frame changed:", out.Frame)
	}
	if out.Len() != n {
		t.Fatal("sample count:", out.Len())
	}

	origin := geom.Dir(0, 0, geom.ICRS)
	var mean, mlon, mlat float64
	for i := 0; i < n; i++ {
		mean += origin.Separation(out.Dir(i)).Deg()
		mlon += out.Lon[i].Deg()
		mlat += out.Lat[i].Deg()
	}
	mean /= n
	mlon /= n
	mlat /= n
	// radial mean of a 2-D Gaussian
	want := sigma * math.Sqrt(math.Pi / 2)
	if math.Abs(mean-want) > 3e-3 {
		t.Fatalf("mean offset %g deg, want %g deg", mean, want)
	}
	// scatter is isotropic about the source
	if math.Abs(mlon) > 5e-3 || math.Abs(mlat) > 5e-3 {
		t.Fatalf("mean position (%g, %g) deg off center", mlon, mlat)
	}
}

func TestSampleCoordZeroPSF(t *testing.T) {
	g := testGeom(t)
	m := flatPSFMap(t, g, .1, 1)
	for i := range m.PSF.Data {
		m.PSF.Data[i] = 0
	}
	c, err := geom.NewMapCoord([]float64{0}, []float64{0}, []float64{1}, geom.ICRS)
	if err != nil {
		t.Fatal(err)
	}
	var src xrand.PCGSource
	src.Seed(1)
	if _, err := m.SampleCoord(xrand.New(&src), c); err == nil {
		t.Fatal("sampled from an all-zero psf")
	}
}
