// Package gadget writes Gadget-1 snapshot files.
//
// A Gadget-1 file is a sequence of Fortran unformatted records: each block
// is framed by its byte count as a little-endian int32 before and after the
// payload. The first block is the 256-byte [Header]; particle files written
// here follow it with the position, velocity and id blocks.
//
// Block sizes are limited to what the int32 frame can describe, so blocks
// of 2 GiB or more are rejected with [ErrBlockTooLarge].
package gadget
