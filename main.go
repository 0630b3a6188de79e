// Public domain.

package main

import "github.com/gammasky/skyirf/internal/irfprog"

func main() {
	irfprog.Main()
}
