// Package heap reads the two HDF5 heaps.
//
// A [LocalHeap] ("HEAP") holds the member names of a symbol-table group as
// NUL terminated strings addressed by offset. A [GlobalHeap] collection
// ("GCOL") holds numbered objects that variable-length elements point at
// through a [GlobalHeapID].
package heap
