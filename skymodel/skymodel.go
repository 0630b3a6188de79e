// Public domain.

// Package skymodel provides parametric spatial models of gamma-ray
// source morphology.  Evaluate returns surface brightness in sr-1,
// normalized to unit integral over the sphere in the small angle
// approximation that holds for instrument fields of view.
package skymodel

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/modeling"
	"github.com/gammasky/skyirf/skymap"
)

var ErrModel = errors.New("skymodel: bad model")

// SpatialModel is a normalized surface brightness distribution on the
// sky.
type SpatialModel interface {
	Evaluate(d geom.SkyDir) float64
	Position() geom.SkyDir
	Parameters() *modeling.Parameters
}

func positionParameters(pos geom.SkyDir) (lon, lat *modeling.Parameter) {
	lon = modeling.NewParameter("lon_0", pos.Lon.Deg(), "deg")
	lat = modeling.NewParameter("lat_0", pos.Lat.Deg(), "deg")
	lat.Min, lat.Max = -90, 90
	return
}

// PointSource concentrates all flux at a single direction.  Its density
// is singular, so it is evaluated through pixel weights rather than
// Evaluate.
type PointSource struct {
	pos    geom.SkyDir
	params *modeling.Parameters
}

func NewPointSource(pos geom.SkyDir) *PointSource {
	lon, lat := positionParameters(pos)
	params, _ := modeling.NewParameters(lon, lat)
	return &PointSource{pos: pos, params: params}
}

func (s *PointSource) Position() geom.SkyDir { return s.pos }
func (s *PointSource) Parameters() *modeling.Parameters { return s.params }

// Evaluate is zero everywhere for a point source; use Weights.
func (s *PointSource) Evaluate(geom.SkyDir) float64 { return 0 }

// Weights spreads the unit flux of the source over the up to four
// pixels bracketing its position, bilinear in fractional pixel
// coordinates.  The returned weights sum to 1 when the source is inside
// the geometry.
func (s *PointSource) Weights(g *geom.WcsGeom) map[[2]int]float64 {
	fx, fy := g.PixOfDir(s.pos)
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	wx := fx - float64(x0)
	wy := fy - float64(y0)
	out := make(map[[2]int]float64, 4)
	add := func(ix, iy int, w float64) {
		if w == 0 || ix < 0 || ix >= g.Nx || iy < 0 || iy >= g.Ny {
			return
		}
		out[[2]int{ix, iy}] += w
	}
	add(x0, y0, (1-wx)*(1-wy))
	add(x0+1, y0, wx*(1-wy))
	add(x0, y0+1, (1-wx)*wy)
	add(x0+1, y0+1, wx*wy)
	return out
}

// Gaussian is an isotropic Gaussian blob of width sigma.
type Gaussian struct {
	pos    geom.SkyDir
	params *modeling.Parameters
}

func NewGaussian(pos geom.SkyDir, sigma unit.Angle) (*Gaussian, error) {
	if sigma.Rad() <= 0 {
		return nil, fmt.Errorf("%w: non-positive sigma", ErrModel)
	}
	lon, lat := positionParameters(pos)
	sp := modeling.NewParameter("sigma", sigma.Deg(), "deg")
	sp.Min = 0
	params, err := modeling.NewParameters(lon, lat, sp)
	if err != nil {
		return nil, err
	}
	return &Gaussian{pos: pos, params: params}, nil
}

func (s *Gaussian) Position() geom.SkyDir { return s.pos }
func (s *Gaussian) Parameters() *modeling.Parameters { return s.params }

func (s *Gaussian) Evaluate(d geom.SkyDir) float64 {
	sp, _ := s.params.Get("sigma")
	sig := unit.AngleFromDeg(sp.Value).Rad()
	theta := s.pos.Separation(d).Rad()
	return math.Exp(-.5*theta*theta/(sig*sig)) / (2 * math.Pi * sig * sig)
}

// Disk is a uniform circular disk of radius r0 with a sharp edge.
type Disk struct {
	pos    geom.SkyDir
	params *modeling.Parameters
}

func NewDisk(pos geom.SkyDir, r0 unit.Angle) (*Disk, error) {
	if r0.Rad() <= 0 {
		return nil, fmt.Errorf("%w: non-positive radius", ErrModel)
	}
	lon, lat := positionParameters(pos)
	rp := modeling.NewParameter("r_0", r0.Deg(), "deg")
	rp.Min = 0
	params, err := modeling.NewParameters(lon, lat, rp)
	if err != nil {
		return nil, err
	}
	return &Disk{pos: pos, params: params}, nil
}

func (s *Disk) Position() geom.SkyDir { return s.pos }
func (s *Disk) Parameters() *modeling.Parameters { return s.params }

func (s *Disk) Evaluate(d geom.SkyDir) float64 {
	rp, _ := s.params.Get("r_0")
	r0 := unit.AngleFromDeg(rp.Value).Rad()
	if s.pos.Separation(d).Rad() > r0 {
		return 0
	}
	return 1 / (2 * math.Pi * (1 - math.Cos(r0)))
}

// Ellipse is a uniform elliptical disk: semi-major axis a, axis ratio
// b/a derived from the eccentricity e, major axis rotated phi east of
// north.
type Ellipse struct {
	pos    geom.SkyDir
	params *modeling.Parameters
}

func NewEllipse(pos geom.SkyDir, a unit.Angle, e float64, phi unit.Angle) (*Ellipse, error) {
	if a.Rad() <= 0 {
		return nil, fmt.Errorf("%w: non-positive semi-major axis", ErrModel)
	}
	if e < 0 || e >= 1 {
		return nil, fmt.Errorf("%w: eccentricity %g outside [0, 1)", ErrModel, e)
	}
	lon, lat := positionParameters(pos)
	ap := modeling.NewParameter("r_0", a.Deg(), "deg")
	ap.Min = 0
	ep := modeling.NewParameter("e", e, "")
	ep.Min, ep.Max = 0, 1
	pp := modeling.NewParameter("phi", phi.Deg(), "deg")
	params, err := modeling.NewParameters(lon, lat, ap, ep, pp)
	if err != nil {
		return nil, err
	}
	return &Ellipse{pos: pos, params: params}, nil
}

func (s *Ellipse) Position() geom.SkyDir { return s.pos }
func (s *Ellipse) Parameters() *modeling.Parameters { return s.params }

func (s *Ellipse) Evaluate(d geom.SkyDir) float64 {
	ap, _ := s.params.Get("r_0")
	ep, _ := s.params.Get("e")
	pp, _ := s.params.Get("phi")
	a := unit.AngleFromDeg(ap.Value).Rad()
	ba := math.Sqrt(1 - ep.Value*ep.Value)
	phi := unit.AngleFromDeg(pp.Value).Rad()

	// local tangent plane coordinates of d about the center
	theta := s.pos.Separation(d).Rad()
	if theta > a {
		return 0
	}
	pa := s.positionAngle(d)
	// component along the major axis and scaled minor component
	u := theta * math.Cos(pa-phi)
	v := theta * math.Sin(pa-phi) / ba
	norm := 2 * math.Pi * (1 - math.Cos(a)) * ba
	if u*u+v*v > a*a {
		return 0
	}
	return 1 / norm
}

// positionAngle is the bearing of d from the model center, east of
// north.
func (s *Ellipse) positionAngle(d geom.SkyDir) float64 {
	dlon := (d.Lon - s.pos.Lon).Rad()
	lat0 := s.pos.Lat.Rad()
	lat1 := d.Lat.Rad()
	y := math.Sin(dlon) * math.Cos(lat1)
	x := math.Cos(lat0)*math.Sin(lat1) - math.Sin(lat0)*math.Cos(lat1)*math.Cos(dlon)
	return math.Atan2(y, x)
}

// Shell is the line of sight projection of a uniformly emitting
// spherical shell with inner radius ri and outer radius ro.
type Shell struct {
	pos    geom.SkyDir
	params *modeling.Parameters
}

func NewShell(pos geom.SkyDir, ri, ro unit.Angle) (*Shell, error) {
	if ri.Rad() < 0 || ro.Rad() <= ri.Rad() {
		return nil, fmt.Errorf("%w: need 0 <= inner < outer radius", ErrModel)
	}
	lon, lat := positionParameters(pos)
	rp := modeling.NewParameter("radius", ri.Deg(), "deg")
	rp.Min = 0
	wp := modeling.NewParameter("width", ro.Deg()-ri.Deg(), "deg")
	wp.Min = 0
	params, err := modeling.NewParameters(lon, lat, rp, wp)
	if err != nil {
		return nil, err
	}
	return &Shell{pos: pos, params: params}, nil
}

func (s *Shell) Position() geom.SkyDir { return s.pos }
func (s *Shell) Parameters() *modeling.Parameters { return s.params }

func (s *Shell) Evaluate(d geom.SkyDir) float64 {
	rp, _ := s.params.Get("radius")
	wp, _ := s.params.Get("width")
	ri := unit.AngleFromDeg(rp.Value).Rad()
	ro := unit.AngleFromDeg(rp.Value + wp.Value).Rad()
	theta := s.pos.Separation(d).Rad()
	norm := 3 / (2 * math.Pi * (ro*ro*ro - ri*ri*ri))
	switch {
	case theta < ri:
		return norm * (math.Sqrt(ro*ro-theta*theta) - math.Sqrt(ri*ri-theta*theta))
	case theta < ro:
		return norm * math.Sqrt(ro*ro-theta*theta)
	}
	return 0
}

// DiffuseConstant is isotropic emission.
type DiffuseConstant struct {
	params *modeling.Parameters
}

func NewDiffuseConstant() *DiffuseConstant {
	v := modeling.NewParameter("value", 1, "")
	v.Frozen = true
	params, _ := modeling.NewParameters(v)
	return &DiffuseConstant{params: params}
}

func (s *DiffuseConstant) Position() geom.SkyDir { return geom.Dir(0, 0, geom.ICRS) }
func (s *DiffuseConstant) Parameters() *modeling.Parameters { return s.params }

func (s *DiffuseConstant) Evaluate(geom.SkyDir) float64 {
	v, _ := s.params.Get("value")
	return v.Value / (4 * math.Pi)
}

// DiffuseMap interpolates a template map, rescaled on construction so
// its pixel values integrate to 1 over the map footprint.
type DiffuseMap struct {
	m      *skymap.Map
	params *modeling.Parameters
}

func NewDiffuseMap(m *skymap.Map) (*DiffuseMap, error) {
	if len(m.Geom.Axes) != 0 {
		return nil, fmt.Errorf("%w: template must be a plain 2-D map", ErrModel)
	}
	var integral float64
	for iy := 0; iy < m.Geom.Ny; iy++ {
		sr := m.Geom.SolidAngle(iy)
		for ix := 0; ix < m.Geom.Nx; ix++ {
			v := m.At(nil, iy, ix)
			if v < 0 {
				return nil, fmt.Errorf("%w: negative template value at (%d, %d)", ErrModel, ix, iy)
			}
			integral += v * sr
		}
	}
	if integral <= 0 {
		return nil, fmt.Errorf("%w: template integrates to %g", ErrModel, integral)
	}
	norm := m.Copy()
	norm.Scale(1 / integral)
	v := modeling.NewParameter("norm", 1, "")
	v.Min = 0
	params, err := modeling.NewParameters(v)
	if err != nil {
		return nil, err
	}
	return &DiffuseMap{m: norm, params: params}, nil
}

func (s *DiffuseMap) Position() geom.SkyDir { return s.m.Geom.Center }
func (s *DiffuseMap) Parameters() *modeling.Parameters { return s.params }

func (s *DiffuseMap) Evaluate(d geom.SkyDir) float64 {
	v, err := s.m.InterpAt(d)
	if err != nil {
		return 0
	}
	n, _ := s.params.Get("norm")
	return n.Value * v
}
