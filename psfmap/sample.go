// Public domain.

package psfmap

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/irf"
)

// SampleCoord draws one displaced sky direction per input query point by
// inverse-transform sampling a radius from the local cumulative
// containment curve and a uniform position angle in [0, 2 pi).  The
// random source is caller supplied so that sampling is reproducible and
// safe under concurrent callers.  The output frame matches the input
// frame.
func (m *PSFMap) SampleCoord(rnd *xrand.Rand, c *geom.MapCoord) (*geom.MapCoord, error) {
	radAxis, _, err := checkGeom(m.PSF.Geom)
	if err != nil {
		return nil, err
	}
	out := &geom.MapCoord{
		Lon:    make([]unit.Angle, c.Len()),
		Lat:    make([]unit.Angle, c.Len()),
		Energy: append([]float64{}, c.Energy...),
		Frame:  c.Frame,
	}
	for i := 0; i < c.Len(); i++ {
		pos := c.Dir(i)
		d, err := m.profile(pos, c.Energy[i])
		if err != nil {
			return nil, err
		}
		cum := irf.CumulativeContainment(radAxis, d)
		total := cum[len(cum)-1]
		if total <= 0 {
			return nil, fmt.Errorf("%w: zero psf at sample point %d", ErrConfig, i)
		}
		u := rnd.Float64() * total
		if u >= total {
			u = math.Nextafter(total, 0)
		}
		r, err := irf.InvertContainment(radAxis, cum, math.Min(u, math.Nextafter(1, 0)))
		if err != nil {
			return nil, err
		}
		pa := unit.Angle(2 * math.Pi * rnd.Float64())
		moved := pos.Offset(r, pa)
		out.Lon[i] = moved.Lon
		out.Lat[i] = moved.Lat
	}
	return out, nil
}
