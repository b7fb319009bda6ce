// Package object reads and writes HDF5 object headers, the message lists
// that describe every group and dataset.
//
// [Read] accepts both layouts. Version 1 headers have a 16 byte prefix and
// eight byte aligned messages. Version 2 headers open with "OHDR", may
// carry timestamps and creation-ordered messages, and end every block in
// a Jenkins lookup3 checksum that is verified. Continuation blocks are
// followed, and messages marked shared are fetched from the header that
// owns them.
//
// [Encode] writes version 2 headers of a single block; [GroupMessages]
// lists what a new-style group holds.
package object
