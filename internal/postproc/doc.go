// Package postproc defines the post-processor family and the registry the
// pipeline resolves processors from.
//
// Two flavours exist. Variable processors consume bio-physical variable
// rasters of one acquisition date. EO-data processors consume band rasters of
// several dated observations. Both are built by a Creator, which describes a
// processor without allocating it, and both expose the subset of their
// declared indicators that the caller asked for.
package postproc
