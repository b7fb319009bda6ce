// Package hdf5 reads and writes HDF5 files in pure Go, with row-range
// access along the first dimension of datasets.
package hdf5

import (
	"errors"

	"github.com/robert-malhotra/cosmohdf5/internal/superblock"
)

var (
	// ErrNotHDF5 is returned by Open when no superblock signature is found.
	ErrNotHDF5 = superblock.ErrNotHDF5

	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrNotArray    = errors.New("dataset has no rows")
	ErrOutOfBounds = errors.New("selection out of bounds")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
	ErrReadOnly    = errors.New("file is not writable")
)

// MaxLinkDepth bounds the soft and external links followed while
// resolving one path.
const MaxLinkDepth = 100
