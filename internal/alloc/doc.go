// Package alloc tracks the end of file while an HDF5 file is written.
//
// Object headers, chunk data and chunk indexes are placed one after the
// other; each writer asks the [Allocator] for the offset of its block:
//
//	a := alloc.New(eof) // after the superblock and root group header
//	addr := a.Alloc(1024)
//
// The final [Allocator.EOFAddr] is recorded in the superblock when the
// file is closed.
package alloc
