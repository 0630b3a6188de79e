// Public domain.

package skymodel_test

import (
	"errors"
	"math"
	"testing"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/skymap"
	"github.com/gammasky/skyirf/skymodel"
)

func relClose(got, want, rtol float64) bool {
	return math.Abs(got-want) <= rtol*math.Abs(want)
}

// integrate sums model density over a fine grid around the center,
// weighting by pixel solid angle.
func integrate(m skymodel.SpatialModel, halfDeg, stepDeg float64) float64 {
	g, err := geom.NewWcsGeom(m.Position(), stepDeg,
		2*int(halfDeg/stepDeg)+1, 2*int(halfDeg/stepDeg)+1)
	if err != nil {
		panic(err)
	}
	var sum float64
	for iy := 0; iy < g.Ny; iy++ {
		sr := g.SolidAngle(iy)
		for ix := 0; ix < g.Nx; ix++ {
			sum += m.Evaluate(g.PixDir(ix, iy)) * sr
		}
	}
	return sum
}

func TestPointSourceWeights(t *testing.T) {
	g, err := geom.NewWcsGeom(geom.Dir(0, 0, geom.ICRS), .1, 11, 11)
	if err != nil {
		t.Fatal(err)
	}
	// offset a quarter pixel in both directions
	src := skymodel.NewPointSource(geom.Dir(.025, .025, geom.ICRS))
	w := src.Weights(g)
	var sum float64
	for _, v := range w {
		if v < 0 || v > 1 {
			t.Fatal("weight out of range:", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatal("weights sum:", sum)
	}
	if len(w) != 4 {
		t.Fatal("pixels touched:", len(w))
	}
	// flux-weighted mean pixel position recovers the source
	var mx, my float64
	for k, v := range w {
		mx += float64(k[0]) * v
		my += float64(k[1]) * v
	}
	fx, fy := g.PixOfDir(src.Position())
	if math.Abs(mx-fx) > 1e-9 || math.Abs(my-fy) > 1e-9 {
		t.Fatalf("mean pixel (%g, %g), want (%g, %g)", mx, my, fx, fy)
	}
}

func TestGaussianPeakAndIntegral(t *testing.T) {
	sigma := unit.AngleFromDeg(.2)
	m, err := skymodel.NewGaussian(geom.Dir(10, 20, geom.ICRS), sigma)
	if err != nil {
		t.Fatal(err)
	}
	peak := m.Evaluate(m.Position())
	want := 1 / (2 * math.Pi * sigma.Rad() * sigma.Rad())
	if !relClose(peak, want, 1e-9) {
		t.Fatalf("peak %g, want %g", peak, want)
	}
	if got := integrate(m, 1.5, .01); !relClose(got, 1, 1e-3) {
		t.Fatal("integral:", got)
	}
}

func TestDisk(t *testing.T) {
	r0 := unit.AngleFromDeg(.5)
	m, err := skymodel.NewDisk(geom.Dir(0, 0, geom.ICRS), r0)
	if err != nil {
		t.Fatal(err)
	}
	inside := m.Evaluate(geom.Dir(.2, .1, geom.ICRS))
	want := 1 / (2 * math.Pi * (1 - math.Cos(r0.Rad())))
	if !relClose(inside, want, 1e-9) {
		t.Fatalf("inside %g, want %g", inside, want)
	}
	if v := m.Evaluate(geom.Dir(.6, 0, geom.ICRS)); v != 0 {
		t.Fatal("outside the rim:", v)
	}
	if got := integrate(m, 1, .005); !relClose(got, 1, 1e-2) {
		t.Fatal("integral:", got)
	}
	if _, err := skymodel.NewDisk(geom.Dir(0, 0, geom.ICRS), 0); !errors.Is(err, skymodel.ErrModel) {
		t.Fatal("zero radius accepted")
	}
}

func TestEllipseReducesToDisk(t *testing.T) {
	pos := geom.Dir(0, 0, geom.ICRS)
	r0 := unit.AngleFromDeg(.4)
	disk, err := skymodel.NewDisk(pos, r0)
	if err != nil {
		t.Fatal(err)
	}
	ell, err := skymodel.NewEllipse(pos, r0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []geom.SkyDir{
		pos,
		geom.Dir(.2, .1, geom.ICRS),
		geom.Dir(.5, 0, geom.ICRS),
	} {
		if dv, ev := disk.Evaluate(d), ell.Evaluate(d); !relClose(ev, dv, 1e-9) && ev != dv {
			t.Fatalf("at (%g, %g): ellipse %g, disk %g", d.Lon.Deg(), d.Lat.Deg(), ev, dv)
		}
	}
}

func TestEllipseOrientation(t *testing.T) {
	pos := geom.Dir(0, 0, geom.ICRS)
	// major axis along north (phi = 0), e = 0.8 so b/a = 0.6
	m, err := skymodel.NewEllipse(pos, unit.AngleFromDeg(.5), .8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v := m.Evaluate(geom.Dir(0, .45, geom.ICRS)); v == 0 {
		t.Fatal("point on the major axis excluded")
	}
	if v := m.Evaluate(geom.Dir(.45, 0, geom.ICRS)); v != 0 {
		t.Fatal("point beyond the minor axis included")
	}
	if got := integrate(m, 1, .005); !relClose(got, 1, 2e-2) {
		t.Fatal("integral:", got)
	}
	if _, err := skymodel.NewEllipse(pos, unit.AngleFromDeg(.5), 1, 0); !errors.Is(err, skymodel.ErrModel) {
		t.Fatal("eccentricity 1 accepted")
	}
}

func TestShell(t *testing.T) {
	pos := geom.Dir(0, 0, geom.ICRS)
	ri := unit.AngleFromDeg(.3)
	ro := unit.AngleFromDeg(.5)
	m, err := skymodel.NewShell(pos, ri, ro)
	if err != nil {
		t.Fatal(err)
	}
	if v := m.Evaluate(geom.Dir(.6, 0, geom.ICRS)); v != 0 {
		t.Fatal("outside the shell:", v)
	}
	// brightest on the inner rim
	rim := m.Evaluate(geom.Dir(.3, 0, geom.ICRS))
	center := m.Evaluate(pos)
	outer := m.Evaluate(geom.Dir(.45, 0, geom.ICRS))
	if rim <= center || rim <= outer {
		t.Fatalf("rim %g not brightest (center %g, outer %g)", rim, center, outer)
	}
	if got := integrate(m, 1, .005); !relClose(got, 1, 1e-2) {
		t.Fatal("integral:", got)
	}
	if _, err := skymodel.NewShell(pos, ro, ri); !errors.Is(err, skymodel.ErrModel) {
		t.Fatal("inverted radii accepted")
	}
}

func TestDiffuseConstant(t *testing.T) {
	m := skymodel.NewDiffuseConstant()
	want := 1 / (4 * math.Pi)
	if v := m.Evaluate(geom.Dir(123, -45, geom.ICRS)); !relClose(v, want, 1e-12) {
		t.Fatalf("value %g, want %g", v, want)
	}
	p, err := m.Parameters().Get("value")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Frozen {
		t.Fatal("value parameter should start frozen")
	}
}

func TestDiffuseMap(t *testing.T) {
	g, err := geom.NewWcsGeom(geom.Dir(0, 0, geom.ICRS), .1, 21, 21)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := skymap.New(g, "")
	for i := range tmpl.Data {
		tmpl.Data[i] = 2
	}
	m, err := skymodel.NewDiffuseMap(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	// a uniform template normalizes to one over the footprint solid angle
	var omega float64
	for iy := 0; iy < g.Ny; iy++ {
		omega += g.SolidAngle(iy) * float64(g.Nx)
	}
	want := 1 / omega
	if v := m.Evaluate(geom.Dir(.3, -.4, geom.ICRS)); !relClose(v, want, 1e-9) {
		t.Fatalf("value %g, want %g", v, want)
	}
	n, err := m.Parameters().Get("norm")
	if err != nil {
		t.Fatal(err)
	}
	n.Value = 2
	if v := m.Evaluate(geom.Dir(.3, -.4, geom.ICRS)); !relClose(v, 2*want, 1e-9) {
		t.Fatalf("scaled value %g, want %g", v, 2*want)
	}

	bad := skymap.New(g, "")
	if _, err := skymodel.NewDiffuseMap(bad); !errors.Is(err, skymodel.ErrModel) {
		t.Fatal("all-zero template accepted")
	}
}
