// Package superblock reads and writes the HDF5 superblock, the block at
// the start of a file that fixes the width of addresses and lengths and
// points at the root group.
//
// Versions 0 and 1 describe the root group with a symbol table entry whose
// scratch pad may cache the group's B-tree and local heap. Versions 2 and
// 3 store the root object header address directly and end with a lookup3
// checksum. Files are always written with version 3.
package superblock
