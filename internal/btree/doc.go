// Package btree reads the HDF5 B-trees that index old-style group members
// and dataset chunks.
//
// Version 1 trees ("TREE") index both. A group tree leads to symbol table
// nodes ("SNOD") whose names live in a [heap.LocalHeap]; [ReadGroupLinks]
// turns the entries into the link messages a new-style group would hold.
// A chunk tree is read by [ReadChunkIndex]. Both check that every child
// sits one level below its parent.
//
// Version 2 trees ("BTHD") index chunks of datasets with more than one
// unlimited dimension. Record types 10 and 11 carry scaled chunk
// coordinates, with type 11 adding the stored size and filter mask.
// [ReadChunkIndexV2] visits leaf and internal records alike and reports
// element offsets, so both readers return the same [ChunkEntry] form.
package btree
