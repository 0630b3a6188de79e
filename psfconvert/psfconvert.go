// Public domain.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/soniakeys/exit"

	"github.com/gammasky/skyirf/psfmap"
)

const versionString = "psfconvert version 0.1 Go source."
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()

	flag.Usage = func() {
		os.Stderr.WriteString(
			"Usage: psfconvert [options] <in-file> <out-file>\n")
		flag.PrintDefaults()
	}
	from := flag.String("from", "gadf", "input format, gadf or gtpsf")
	to := flag.String("to", "gtpsf", "output format, gadf or gtpsf")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	m, err := psfmap.Read(flag.Arg(0), psfmap.Format(*from))
	if err != nil {
		exit.Log(err)
	}
	if err := m.Write(flag.Arg(1), psfmap.Format(*to)); err != nil {
		exit.Log(err)
	}
}
