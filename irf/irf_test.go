// Public domain.

package irf_test

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/axis"
	"github.com/gammasky/skyirf/irf"
)

// gaussPSF3D builds a PSF3D whose radial profile is a 2-D Gaussian of the
// given sigma at every energy and offset, normalized bin-wise over solid
// angle.
func gaussPSF3D(t *testing.T, sigmaDeg float64) *irf.PSF3D {
	t.Helper()
	energy, err := axis.FromEnergyBounds(.1, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	offset, err := axis.FromNodes("offset", "deg", axis.Lin, []float64{0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	rad, err := axis.Linspace("rad", "deg", 0, 1, 100)
	if err != nil {
		t.Fatal(err)
	}

	prof := make([]float64, rad.Nbin())
	var norm float64
	for i := range prof {
		r := rad.Center(i)
		prof[i] = math.Exp(-.5 * r * r / (sigmaDeg * sigmaDeg))
		e0 := rad.Edges()[i] * math.Pi / 180
		e1 := rad.Edges()[i+1] * math.Pi / 180
		norm += prof[i] * 2 * math.Pi * (math.Cos(e0) - math.Cos(e1))
	}

	data := make([]float64, energy.Nbin()*offset.Nbin()*rad.Nbin())
	for ie := 0; ie < energy.Nbin(); ie++ {
		for io := 0; io < offset.Nbin(); io++ {
			for ir := 0; ir < rad.Nbin(); ir++ {
				data[(ie*offset.Nbin()+io)*rad.Nbin()+ir] = prof[ir] / norm
			}
		}
	}
	p, err := irf.NewPSF3D(energy, offset, rad, data)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPSF3DNormalized(t *testing.T) {
	p := gaussPSF3D(t, .15)
	cum := irf.CumulativeContainment(p.RadAxis, p.Profile(1, 0))
	if got := cum[len(cum)-1]; math.Abs(got-1) > 1e-7 {
		t.Fatal("total containment:", got)
	}
}

func TestContainmentMonotonic(t *testing.T) {
	p := gaussPSF3D(t, .15)
	cum := irf.CumulativeContainment(p.RadAxis, p.Profile(1, 0))
	if cum[0] != 0 {
		t.Fatal("containment at 0:", cum[0])
	}
	prev := -1.0
	for rd := 0.0; rd <= 1.0; rd += .01 {
		c := irf.ContainmentAt(p.RadAxis, cum, unit.AngleFromDeg(rd))
		if c < prev {
			t.Fatalf("containment decreased at %g: %g < %g", rd, c, prev)
		}
		prev = c
	}
}

func TestContainmentRadiusGauss(t *testing.T) {
	// for a 2-D Gaussian, r(f) = sigma*sqrt(-2 ln(1-f))
	sigma := .15
	p := gaussPSF3D(t, sigma)
	for _, f := range []float64{.394, .5, .68, .9} {
		got, err := p.ContainmentRadius(1, 0, f)
		if err != nil {
			t.Fatal(err)
		}
		want := sigma * math.Sqrt(-2*math.Log(1-f))
		if math.Abs(got.Deg()-want) > .01*want {
			t.Errorf("r(%g) = %g deg, want %g", f, got.Deg(), want)
		}
	}
}

func TestContainmentRadiusErrors(t *testing.T) {
	p := gaussPSF3D(t, .15)
	if _, err := p.ContainmentRadius(1, 0, -0.1); err == nil {
		t.Error("expected error for negative fraction")
	}
	if _, err := p.ContainmentRadius(1, 0, 1); err == nil {
		t.Error("expected error for fraction 1")
	}
	// a sharply truncated axis cannot reach high fractions
	wide := gaussPSF3D(t, .15)
	short, _ := axis.Linspace("rad", "deg", 0, .05, 5)
	cum := irf.CumulativeContainment(short, wide.Profile(1, 0)[:5])
	if _, err := irf.InvertContainment(short, cum, .9); err == nil {
		t.Error("expected error for unreachable fraction")
	}
}

func TestAeff2D(t *testing.T) {
	energy, _ := axis.FromEnergyBounds(.1, 10, 4)
	offset, _ := axis.FromEdges("offset", "deg", axis.Lin, []float64{0, 1, 2, 3})
	data := make([]float64, energy.Nbin()*offset.Nbin())
	for i := range data {
		data[i] = 1e6
	}
	a, err := irf.NewEffectiveAreaTable2D(energy, offset, data)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Evaluate(1, unit.AngleFromDeg(.5)); got != 1e6 {
		t.Fatal("flat aeff:", got)
	}
	if _, err := irf.NewEffectiveAreaTable2D(energy, offset, data[:3]); err == nil {
		t.Fatal("expected shape error")
	}
}
