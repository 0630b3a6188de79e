// Public domain.

package psfmap

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/gammasky/skyirf/axis"
	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/skymap"
)

// Format tags a persisted PSF map layout.
type Format string

const (
	// FormatGADF is the multi-HDU container format: density and
	// exposure cubes with their axis-bin tables.
	FormatGADF Format = "gadf"
	// FormatGTPSF is the legacy flat format: one radial profile per
	// energy at a single position, spatial variation discarded.
	FormatGTPSF Format = "gtpsf"
)

// Write persists the map to path in the given format.
func (m *PSFMap) Write(path string, format Format) error {
	switch format {
	case FormatGADF:
		return m.writeGADF(path)
	case FormatGTPSF:
		return m.writeGTPSF(path)
	}
	return fmt.Errorf("%w: unknown format %q", ErrConfig, format)
}

// Read loads a PSF map from path in the given format.
func Read(path string, format Format) (*PSFMap, error) {
	switch format {
	case FormatGADF:
		return readGADF(path)
	case FormatGTPSF:
		return readGTPSF(path)
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrConfig, format)
}

// bandRow describes one geometry axis in a BANDS table.  Edges holds the
// Nbin+1 bin edges as a variable-length vector.
type bandRow struct {
	Name   string    `fits:"NAME"`
	Unit   string    `fits:"UNIT"`
	Interp string    `fits:"INTERP"`
	Nbin   int32     `fits:"NBIN"`
	Edges  []float64 `fits:"EDGES"`
}

func interpTag(i axis.Interp) string {
	if i == axis.Log {
		return "log"
	}
	return "lin"
}

func interpFromTag(s string) (axis.Interp, error) {
	switch s {
	case "lin":
		return axis.Lin, nil
	case "log":
		return axis.Log, nil
	}
	return 0, fmt.Errorf("%w: unknown interp %q", ErrFormat, s)
}

func geomCards(g *geom.WcsGeom, bunit string) []fitsio.Card {
	return []fitsio.Card{
		{Name: "BUNIT", Value: bunit},
		{Name: "CRVAL1", Value: g.Center.Lon.Deg(), Comment: "reference lon (deg)"},
		{Name: "CRVAL2", Value: g.Center.Lat.Deg(), Comment: "reference lat (deg)"},
		{Name: "CDELT1", Value: g.BinSize.Deg(), Comment: "pixel size (deg)"},
		{Name: "CFRAME", Value: string(g.Center.Frame)},
	}
}

func writeCube(f *fitsio.File, name string, m *skymap.Map) error {
	g := m.Geom
	dims := []int{g.Nx, g.Ny}
	for _, a := range g.Axes {
		dims = append(dims, a.Nbin())
	}
	img := fitsio.NewImage(-64, dims)
	defer img.Close()
	cards := append([]fitsio.Card{{Name: "EXTNAME", Value: name}}, geomCards(g, m.Unit)...)
	if err := img.Header().Append(cards...); err != nil {
		return err
	}
	if err := img.Write(m.Data); err != nil {
		return err
	}
	return f.Write(img)
}

func writeBands(f *fitsio.File, name string, g *geom.WcsGeom) error {
	width := 0
	for _, a := range g.Axes {
		if n := a.Nbin() + 1; n > width {
			width = n
		}
	}
	tbl, err := fitsio.NewTable(name, []fitsio.Column{
		{Name: "NAME", Format: "16A"},
		{Name: "UNIT", Format: "16A"},
		{Name: "INTERP", Format: "8A"},
		{Name: "NBIN", Format: "J"},
		{Name: "EDGES", Format: fmt.Sprintf("PD(%d)", width)},
	}, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer tbl.Close()
	for _, a := range g.Axes {
		row := bandRow{
			Name:   a.Name,
			Unit:   a.Unit,
			Interp: interpTag(a.Interp),
			Nbin:   int32(a.Nbin()),
			Edges:  append([]float64(nil), a.Edges()...),
		}
		if err := tbl.Write(&row); err != nil {
			return err
		}
	}
	return f.Write(tbl)
}

func (m *PSFMap) writeGADF(path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return err
	}
	defer phdu.Close()
	if err := f.Write(phdu); err != nil {
		return err
	}

	if err := writeCube(f, "PSF", m.PSF); err != nil {
		return err
	}
	if err := writeBands(f, "PSF_BANDS", m.PSF.Geom); err != nil {
		return err
	}
	if m.Exposure != nil {
		if err := writeCube(f, "PSF_EXPOSURE", m.Exposure); err != nil {
			return err
		}
		if err := writeBands(f, "PSF_EXPOSURE_BANDS", m.Exposure.Geom); err != nil {
			return err
		}
	}
	return nil
}

func cardFloat(hdr *fitsio.Header, name string) (float64, error) {
	c := hdr.Get(name)
	if c == nil {
		return 0, fmt.Errorf("%w: missing card %s", ErrFormat, name)
	}
	switch v := c.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: card %s is not numeric", ErrFormat, name)
}

func cardString(hdr *fitsio.Header, name string) (string, error) {
	c := hdr.Get(name)
	if c == nil {
		return "", fmt.Errorf("%w: missing card %s", ErrFormat, name)
	}
	s, ok := c.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: card %s is not a string", ErrFormat, name)
	}
	return s, nil
}

func readBands(tbl *fitsio.Table) ([]*axis.MapAxis, error) {
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var axes []*axis.MapAxis
	for rows.Next() {
		var row bandRow
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		interp, err := interpFromTag(row.Interp)
		if err != nil {
			return nil, err
		}
		if int(row.Nbin)+1 > len(row.Edges) {
			return nil, fmt.Errorf("%w: axis %s: %d bins but %d edges stored",
				ErrFormat, row.Name, row.Nbin, len(row.Edges))
		}
		a, err := axis.FromEdges(row.Name, row.Unit, interp, row.Edges[:row.Nbin+1])
		if err != nil {
			return nil, fmt.Errorf("%w: axis %s: %v", ErrFormat, row.Name, err)
		}
		axes = append(axes, a)
	}
	return axes, rows.Err()
}

func readCube(img fitsio.Image, axes []*axis.MapAxis) (*skymap.Map, error) {
	hdr := img.Header()
	lon, err := cardFloat(hdr, "CRVAL1")
	if err != nil {
		return nil, err
	}
	lat, err := cardFloat(hdr, "CRVAL2")
	if err != nil {
		return nil, err
	}
	binsz, err := cardFloat(hdr, "CDELT1")
	if err != nil {
		return nil, err
	}
	frame, err := cardString(hdr, "CFRAME")
	if err != nil {
		return nil, err
	}
	dims := hdr.Axes()
	if len(dims) != 2+len(axes) {
		return nil, fmt.Errorf("%w: cube has %d dimensions, bands describe %d",
			ErrFormat, len(dims), 2+len(axes))
	}
	for i, a := range axes {
		if dims[2+i] != a.Nbin() {
			return nil, fmt.Errorf("%w: axis %s: cube has %d bins, bands %d",
				ErrFormat, a.Name, dims[2+i], a.Nbin())
		}
	}
	g, err := geom.NewWcsGeom(geom.Dir(lon, lat, geom.Frame(frame)), binsz,
		dims[0], dims[1], axes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	m := skymap.New(g, "")
	if bunit := hdr.Get("BUNIT"); bunit != nil {
		if s, ok := bunit.Value.(string); ok {
			m.Unit = s
		}
	}
	data := make([]float64, g.DataSize())
	if err := img.Read(&data); err != nil {
		return nil, err
	}
	if len(data) != g.DataSize() {
		return nil, fmt.Errorf("%w: cube has %d values, geometry wants %d",
			ErrFormat, len(data), g.DataSize())
	}
	m.Data = data
	return m, nil
}

func readGADF(path string) (*PSFMap, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var psfImg, expImg fitsio.Image
	var psfBands, expBands *fitsio.Table
	for _, hdu := range f.HDUs() {
		switch hdu.Name() {
		case "PSF":
			psfImg, _ = hdu.(fitsio.Image)
		case "PSF_BANDS":
			psfBands, _ = hdu.(*fitsio.Table)
		case "PSF_EXPOSURE":
			expImg, _ = hdu.(fitsio.Image)
		case "PSF_EXPOSURE_BANDS":
			expBands, _ = hdu.(*fitsio.Table)
		}
	}
	if psfImg == nil {
		return nil, fmt.Errorf("%w: missing PSF HDU", ErrFormat)
	}
	if psfBands == nil {
		return nil, fmt.Errorf("%w: missing PSF_BANDS HDU", ErrFormat)
	}
	axes, err := readBands(psfBands)
	if err != nil {
		return nil, err
	}
	psf, err := readCube(psfImg, axes)
	if err != nil {
		return nil, err
	}
	out := &PSFMap{PSF: psf}

	// exposure is optional but must be complete when present
	if expImg == nil && expBands == nil {
		return out, nil
	}
	if expImg == nil {
		return nil, fmt.Errorf("%w: missing PSF_EXPOSURE HDU", ErrFormat)
	}
	if expBands == nil {
		return nil, fmt.Errorf("%w: missing PSF_EXPOSURE_BANDS HDU", ErrFormat)
	}
	eaxes, err := readBands(expBands)
	if err != nil {
		return nil, err
	}
	exp, err := readCube(expImg, eaxes)
	if err != nil {
		return nil, err
	}
	out.Exposure = exp
	return out, nil
}

// gtpsf row types

type thetaRow struct {
	Theta float64 `fits:"Theta"`
}

type gtpsfRow struct {
	Energy   float64   `fits:"Energy"`   // MeV
	Exposure float64   `fits:"Exposure"` // cm2 s
	Psf      []float64 `fits:"Psf"`      // sr-1, one per theta
}

func (m *PSFMap) writeGTPSF(path string) error {
	if m.Exposure == nil {
		return fmt.Errorf("%w: gtpsf output needs an exposure map", ErrConfig)
	}
	prof, err := m.ToRegionProfile(m.PSF.Geom.Center)
	if err != nil {
		return err
	}
	radAxis, energyAxis, _ := checkGeom(prof.PSF.Geom)

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return err
	}
	defer phdu.Close()
	if err := f.Write(phdu); err != nil {
		return err
	}

	thetaTbl, err := fitsio.NewTable("THETA", []fitsio.Column{
		{Name: "Theta", Format: "D", Unit: "deg"},
	}, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer thetaTbl.Close()
	for _, c := range radAxis.Centers() {
		if err := thetaTbl.Write(&thetaRow{Theta: c}); err != nil {
			return err
		}
	}
	if err := f.Write(thetaTbl); err != nil {
		return err
	}

	psfTbl, err := fitsio.NewTable("PSF", []fitsio.Column{
		{Name: "Energy", Format: "D", Unit: "MeV"},
		{Name: "Exposure", Format: "D", Unit: "cm2 s"},
		{Name: "Psf", Format: fmt.Sprintf("PD(%d)", radAxis.Nbin()), Unit: "sr-1"},
	}, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer psfTbl.Close()
	bins := []int{0, 0}
	for ie := 0; ie < energyAxis.Nbin(); ie++ {
		row := gtpsfRow{
			Energy: energyAxis.Center(ie) * 1e6,
			Psf:    make([]float64, radAxis.Nbin()),
		}
		bins[1] = ie
		row.Exposure = prof.Exposure.At(bins, 0, 0) * 1e4
		for ir := range row.Psf {
			bins[0] = ir
			row.Psf[ir] = prof.PSF.At(bins, 0, 0)
		}
		bins[0] = 0
		if err := psfTbl.Write(&row); err != nil {
			return err
		}
	}
	return f.Write(psfTbl)
}

func readGTPSF(path string) (*PSFMap, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var thetaTbl, psfTbl *fitsio.Table
	for _, hdu := range f.HDUs() {
		switch hdu.Name() {
		case "THETA":
			thetaTbl, _ = hdu.(*fitsio.Table)
		case "PSF":
			psfTbl, _ = hdu.(*fitsio.Table)
		}
	}
	if thetaTbl == nil {
		return nil, fmt.Errorf("%w: missing THETA HDU", ErrFormat)
	}
	if psfTbl == nil {
		return nil, fmt.Errorf("%w: missing PSF HDU", ErrFormat)
	}

	var thetas []float64
	rows, err := thetaTbl.Read(0, thetaTbl.NumRows())
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var row thetaRow
		if err := rows.Scan(&row); err != nil {
			rows.Close()
			return nil, err
		}
		thetas = append(thetas, row.Theta)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var energies, exposures []float64
	var profiles [][]float64
	rows, err = psfTbl.Read(0, psfTbl.NumRows())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var row gtpsfRow
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		if len(row.Psf) != len(thetas) {
			return nil, fmt.Errorf("%w: psf row has %d values for %d thetas",
				ErrFormat, len(row.Psf), len(thetas))
		}
		energies = append(energies, row.Energy*1e-6) // MeV -> TeV
		exposures = append(exposures, row.Exposure*1e-4)
		profiles = append(profiles, row.Psf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(energies) == 0 {
		return nil, fmt.Errorf("%w: empty PSF table", ErrFormat)
	}

	radAxis, err := axis.FromNodes("rad", "deg", axis.Lin, thetas)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	energyAxis, err := axis.FromNodes("energy_true", "TeV", axis.Log, energies)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	// the legacy format stores no spatial variation: rebuild on a
	// single-pixel geometry at the origin
	g := geom.Region(geom.Dir(0, 0, geom.ICRS), radAxis, energyAxis)
	psf := skymap.New(g, "sr-1")
	bins := []int{0, 0}
	for ie, prof := range profiles {
		for ir, v := range prof {
			bins[0], bins[1] = ir, ie
			psf.Set(bins, 0, 0, v)
		}
	}
	sq, _ := g.Squash("rad")
	exp := skymap.New(sq, "m2 s")
	for ie, v := range exposures {
		bins[0], bins[1] = 0, ie
		exp.Set(bins, 0, 0, v)
	}
	return &PSFMap{PSF: psf, Exposure: exp}, nil
}
