// Package layout reads hyperslabs of dataset raw data and writes chunked
// datasets.
//
// [New] returns a [Layout] for a data layout message: [Compact] for data
// held in the object header, [Contiguous] for one block in the file and
// [Chunked] for data split into chunks. ReadSlice fetches only the bytes a
// selection needs, so reading a range of rows does not load the dataset.
//
// Chunked storage is located through the index the layout message names:
// a version 1 or version 2 B-tree, a single chunk, an implicit run of
// chunks, a fixed array or an extensible array. Chunks pass through the
// dataset's filter pipeline and chunks the index does not hold read as
// zeros.
//
// [ChunkWriter] stores unfiltered chunks under a fixed array index.
package layout
