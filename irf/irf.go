// Public domain.

// Package irf holds raw instrument response tables as delivered with an
// observation: the point-spread function versus true energy, offset from
// the pointing direction and radial offset from the source, and the
// effective area versus true energy and offset.
package irf

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/gammasky/skyirf/axis"
)

// PSF3D is a per-observation PSF density table with axes
// (energy_true, offset, rad), rad varying fastest in Data.
// Values are probability density per solid angle, sr-1.
type PSF3D struct {
	EnergyAxis *axis.MapAxis // TeV, log
	OffsetAxis *axis.MapAxis // deg
	RadAxis    *axis.MapAxis // deg
	Data       []float64
}

// NewPSF3D validates the table shape and wraps it.
func NewPSF3D(energy, offset, rad *axis.MapAxis, data []float64) (*PSF3D, error) {
	want := energy.Nbin() * offset.Nbin() * rad.Nbin()
	if len(data) != want {
		return nil, fmt.Errorf("psf3d: data length %d, want %d", len(data), want)
	}
	return &PSF3D{
		EnergyAxis: energy,
		OffsetAxis: offset,
		RadAxis:    rad,
		Data:       data,
	}, nil
}

func (p *PSF3D) index(ie, io, ir int) int {
	return (ie*p.OffsetAxis.Nbin()+io)*p.RadAxis.Nbin() + ir
}

// Evaluate interpolates the density at the given true energy, offset from
// pointing and radial offset.  Energy interpolation is logarithmic.
func (p *PSF3D) Evaluate(energyTeV float64, offset, rad unit.Angle) float64 {
	fe := p.EnergyAxis.Coord(energyTeV)
	fo := p.OffsetAxis.Coord(offset.Deg())
	fr := p.RadAxis.Coord(rad.Deg())
	ie, we := splitFrac(fe, p.EnergyAxis.Nbin())
	io, wo := splitFrac(fo, p.OffsetAxis.Nbin())
	ir, wr := splitFrac(fr, p.RadAxis.Nbin())
	var sum float64
	for c := 0; c < 8; c++ {
		wt := cornerWeight(we, c&1 != 0) *
			cornerWeight(wo, c&2 != 0) *
			cornerWeight(wr, c&4 != 0)
		if wt == 0 {
			continue
		}
		je := bump(ie, c&1 != 0, p.EnergyAxis.Nbin())
		jo := bump(io, c&2 != 0, p.OffsetAxis.Nbin())
		jr := bump(ir, c&4 != 0, p.RadAxis.Nbin())
		sum += wt * p.Data[p.index(je, jo, jr)]
	}
	return sum
}

// Profile returns the density sampled at the rad axis centers for a fixed
// energy and offset.
func (p *PSF3D) Profile(energyTeV float64, offset unit.Angle) []float64 {
	d := make([]float64, p.RadAxis.Nbin())
	for ir := range d {
		d[ir] = p.Evaluate(energyTeV, offset, unit.AngleFromDeg(p.RadAxis.Center(ir)))
	}
	return d
}

// ContainmentRadius returns the radius enclosing the given fraction of
// total PSF probability at a true energy and offset.  It serves as the
// reference oracle for the projected PSF map.
func (p *PSF3D) ContainmentRadius(energyTeV float64, offset unit.Angle, fraction float64) (unit.Angle, error) {
	cum := CumulativeContainment(p.RadAxis, p.Profile(energyTeV, offset))
	return InvertContainment(p.RadAxis, cum, fraction)
}

// EffectiveAreaTable2D is effective area versus true energy and offset
// from pointing, in m2.
type EffectiveAreaTable2D struct {
	EnergyAxis *axis.MapAxis // TeV, log
	OffsetAxis *axis.MapAxis // deg
	Data       []float64     // (energy, offset), offset fastest
}

// NewEffectiveAreaTable2D validates the table shape and wraps it.
func NewEffectiveAreaTable2D(energy, offset *axis.MapAxis, data []float64) (*EffectiveAreaTable2D, error) {
	if want := energy.Nbin() * offset.Nbin(); len(data) != want {
		return nil, fmt.Errorf("aeff2d: data length %d, want %d", len(data), want)
	}
	return &EffectiveAreaTable2D{EnergyAxis: energy, OffsetAxis: offset, Data: data}, nil
}

// Evaluate interpolates the effective area at a true energy and offset.
func (a *EffectiveAreaTable2D) Evaluate(energyTeV float64, offset unit.Angle) float64 {
	ie, we := splitFrac(a.EnergyAxis.Coord(energyTeV), a.EnergyAxis.Nbin())
	io, wo := splitFrac(a.OffsetAxis.Coord(offset.Deg()), a.OffsetAxis.Nbin())
	n := a.OffsetAxis.Nbin()
	v00 := a.Data[ie*n+io]
	v01 := a.Data[ie*n+bump(io, true, n)]
	v10 := a.Data[bump(ie, true, a.EnergyAxis.Nbin())*n+io]
	v11 := a.Data[bump(ie, true, a.EnergyAxis.Nbin())*n+bump(io, true, n)]
	return (1-we)*((1-wo)*v00+wo*v01) + we*((1-wo)*v10+wo*v11)
}

// CumulativeContainment integrates a radial density profile (values at
// the rad axis centers, sr-1) over solid angle.  The result has one value
// per rad bin edge; entry 0 is 0.  The ring between edges e0 and e1
// carries solid angle 2 pi (cos e0 - cos e1).
func CumulativeContainment(rad *axis.MapAxis, density []float64) []float64 {
	edges := rad.Edges()
	cum := make([]float64, len(edges))
	for i, d := range density {
		e0 := unit.AngleFromDeg(edges[i]).Rad()
		e1 := unit.AngleFromDeg(edges[i+1]).Rad()
		cum[i+1] = cum[i] + d*2*math.Pi*(math.Cos(e0)-math.Cos(e1))
	}
	return cum
}

// ContainmentAt evaluates a cumulative curve at radius r, exact for the
// piecewise-constant density the curve was built from.
func ContainmentAt(rad *axis.MapAxis, cum []float64, r unit.Angle) float64 {
	edges := rad.Edges()
	rd := r.Deg()
	if rd <= edges[0] {
		return 0
	}
	if rd >= edges[len(edges)-1] {
		return cum[len(cum)-1]
	}
	i := rad.FindBin(rd)
	e0 := unit.AngleFromDeg(edges[i]).Rad()
	e1 := unit.AngleFromDeg(edges[i+1]).Rad()
	span := math.Cos(e0) - math.Cos(e1)
	if span == 0 {
		return cum[i]
	}
	f := (math.Cos(e0) - math.Cos(r.Rad())) / span
	return cum[i] + (cum[i+1]-cum[i])*f
}

// InvertContainment finds the radius at which a cumulative curve reaches
// the given fraction.  Fraction must be in [0, 1) and reachable on the
// curve; a truncated rad axis whose curve never reaches it is an error.
func InvertContainment(rad *axis.MapAxis, cum []float64, fraction float64) (unit.Angle, error) {
	if fraction < 0 || fraction >= 1 {
		return 0, fmt.Errorf("containment: fraction %g outside [0, 1)", fraction)
	}
	last := cum[len(cum)-1]
	if fraction > last {
		return 0, fmt.Errorf("containment: fraction %g beyond curve maximum %g", fraction, last)
	}
	if fraction == 0 {
		return unit.AngleFromDeg(rad.Edges()[0]), nil
	}
	edges := rad.Edges()
	for i := 0; i+1 < len(cum); i++ {
		if cum[i+1] < fraction || cum[i+1] == cum[i] {
			continue
		}
		e0 := unit.AngleFromDeg(edges[i]).Rad()
		e1 := unit.AngleFromDeg(edges[i+1]).Rad()
		f := (fraction - cum[i]) / (cum[i+1] - cum[i])
		c := math.Cos(e0) - f*(math.Cos(e0)-math.Cos(e1))
		if c > 1 {
			c = 1
		} else if c < -1 {
			c = -1
		}
		return unit.Angle(math.Acos(c)), nil
	}
	return unit.AngleFromDeg(edges[len(edges)-1]), nil
}

func splitFrac(f float64, n int) (int, float64) {
	if f <= 0 || n == 1 {
		return 0, 0
	}
	if f >= float64(n-1) {
		return n - 1, 0
	}
	i := int(math.Floor(f))
	return i, f - float64(i)
}

func cornerWeight(w float64, upper bool) float64 {
	if upper {
		return w
	}
	return 1 - w
}

func bump(i int, upper bool, n int) int {
	if upper && i < n-1 {
		return i + 1
	}
	return i
}
