// Package filter decodes chunks stored through an HDF5 filter pipeline.
//
// A [Pipeline] undoes the filters of a pipeline message last to first and
// honors the per-chunk filter mask, where bit i skips the filter in
// position i. Deflate and Zstandard are decoded with klauspost/compress;
// shuffle and Fletcher-32 are handled here. SZIP, N-bit and scale-offset
// are recognized but give [ErrUnsupported] unless marked optional.
package filter
