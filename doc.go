/*
Command skyirf tabulates point spread function containment radii from a
PSF map file.

Contents

  Program overview
  Command line usage
  File formats

Program overview

Input is a PSF map file holding a binned point spread function cube,
the probability density of reconstructed event offset as a function of
true energy and sky position, together with its exposure.  Output is a
table of containment radii at the cube's true energy bins for a chosen
sky direction and one or more containment fractions.

Command line usage

  skyirf [options] <psf-file>

Options:

  -format   file format, gadf or gtpsf.  default gadf.
  -lon      longitude of the evaluation direction in degrees.
  -lat      latitude of the evaluation direction in degrees.
  -frame    coordinate frame of -lon and -lat, icrs or galactic.
  -fractions
            comma separated containment fractions to tabulate.
            default .5,.68,.95.
  -v        display version and copyright.

File formats

The gadf format stores the full four dimensional density cube and the
rad-squashed exposure cube as FITS image extensions PSF and
PSF_EXPOSURE, each with a companion binary table describing its
non-spatial axes.  The gtpsf format is a flat legacy layout with a
single radial profile per energy at one position; energies are stored
in MeV and exposure in cm2 s.

The psfconvert command, in the psfconvert subdirectory, converts
between the two formats.

-------------
Public domain.
*/
package main
