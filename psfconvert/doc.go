/*
Command psfconvert rewrites a PSF map file from one format to another.

The gadf format is the full container: the four dimensional density
cube and the rad-squashed exposure cube, each with a table of its
non-spatial axis bins.  The gtpsf format is a flat legacy layout that
keeps a single radial profile per energy at one sky position.

  Usage: psfconvert [options] <in-file> <out-file>
    -from="gadf": input format, gadf or gtpsf
    -to="gtpsf": output format, gadf or gtpsf
    -v=false: display version and copyright

Converting gadf to gtpsf evaluates the map at its center and discards
spatial variation.  Converting gtpsf to gadf produces a single pixel
map.  Both directions need the exposure present in the input, since
gtpsf carries exposure in every table row.

Public domain.
*/
package main
