// Public domain.

// Package irfprog implements the skyirf command, a quick look tool for
// point spread function map files.
package irfprog

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/exit"
	sexa "github.com/soniakeys/sexagesimal"

	"github.com/gammasky/skyirf/geom"
	"github.com/gammasky/skyirf/psfmap"
)

const versionString = "skyirf version 0.1 Go source."
const copyrightString = "Public domain."

type cmdLine struct {
	fn        string
	format    psfmap.Format
	lon, lat  float64
	frame     geom.Frame
	fractions []float64
}

func Main() {
	defer exit.Handler()

	cl := parseCommandLine()
	m, err := psfmap.Read(cl.fn, cl.format)
	if err != nil {
		exit.Log(err)
	}
	pos := geom.Dir(cl.lon, cl.lat, cl.frame)
	report(m, pos, cl.fractions)
}

func parseCommandLine() *cmdLine {
	flag.Usage = func() {
		os.Stderr.WriteString(
			"Usage: skyirf [options] <psf-file>\n")
		flag.PrintDefaults()
	}
	cl := &cmdLine{}
	format := flag.String("format", "gadf", "file format, gadf or gtpsf")
	flag.Float64Var(&cl.lon, "lon", 0, "longitude of the evaluation direction, degrees")
	flag.Float64Var(&cl.lat, "lat", 0, "latitude of the evaluation direction, degrees")
	frame := flag.String("frame", "icrs", "coordinate frame, icrs or galactic")
	fr := flag.String("fractions", ".5,.68,.95",
		"comma separated containment fractions to tabulate")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	cl.fn = flag.Arg(0)
	cl.format = psfmap.Format(*format)
	switch *frame {
	case "icrs":
		cl.frame = geom.ICRS
	case "galactic":
		cl.frame = geom.Galactic
	default:
		exit.Log("unknown frame " + *frame)
	}
	for _, s := range strings.Split(*fr, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			exit.Log(err)
		}
		if f <= 0 || f >= 1 {
			exit.Log("containment fraction must be in (0, 1): " + s)
		}
		cl.fractions = append(cl.fractions, f)
	}
	if len(cl.fractions) == 0 {
		exit.Log("no containment fractions")
	}
	return cl
}

// report tabulates containment radii at the rad axis energies, one row
// per true energy bin, one column per requested fraction.
func report(m *psfmap.PSFMap, pos geom.SkyDir, fractions []float64) {
	energyAxis, _ := m.PSF.Geom.Axis("energy_true")
	if energyAxis == nil {
		exit.Log("psf cube has no energy_true axis")
	}
	fmt.Printf("%12s", "E (TeV)")
	for _, f := range fractions {
		fmt.Printf("  %14s", fmt.Sprintf("R%.0f%%", f*100))
	}
	fmt.Println()
	for ie := 0; ie < energyAxis.Nbin(); ie++ {
		e := energyAxis.Center(ie)
		fmt.Printf("%12.4g", e)
		for _, f := range fractions {
			r, err := m.ContainmentRadius(pos, e, f)
			if err != nil {
				fmt.Printf("  %14s", "-")
				continue
			}
			fmt.Printf("  %14s", sexa.FmtAngle(r))
		}
		fmt.Println()
	}
}
