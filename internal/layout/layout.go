package layout

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Layout reads hyperslabs of a dataset's raw data.
type Layout interface {
	// ReadSlice returns the elements in [start, start+count) along every
	// dimension, in row-major order. A scalar dataset takes empty start and
	// count.
	ReadSlice(start, count []uint64) ([]byte, error)

	Class() message.LayoutClass
}

// New returns the reader for a dataset's layout message.
func New(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	filterPipeline *message.FilterPipeline,
	reader *binary.Reader,
) (Layout, error) {
	if layout == nil {
		return nil, fmt.Errorf("nil layout message")
	}
	if dataspace == nil || datatype == nil {
		return nil, fmt.Errorf("layout needs a dataspace and a datatype")
	}

	switch layout.Class {
	case message.LayoutCompact:
		return NewCompact(layout, dataspace, datatype), nil
	case message.LayoutContiguous:
		return NewContiguous(layout, dataspace, datatype, reader), nil
	case message.LayoutChunked:
		return NewChunked(layout, dataspace, datatype, filterPipeline, reader)
	default:
		return nil, fmt.Errorf("unsupported layout class: %d", layout.Class)
	}
}

// extent returns the dataset dimensions, empty for a scalar.
func extent(ds *message.Dataspace) []uint64 {
	if ds.IsScalar() {
		return nil
	}
	return ds.Dimensions
}

// selection is a validated hyperslab of a row-major array.
type selection struct {
	dims     []uint64
	start    []uint64
	count    []uint64
	elemSize uint64
}

func newSelection(dims, start, count []uint64, elemSize uint64) (*selection, error) {
	if len(start) != len(dims) || len(count) != len(dims) {
		return nil, fmt.Errorf("start and count must have %d dimensions, got %d and %d",
			len(dims), len(start), len(count))
	}
	for d := range dims {
		end := start[d] + count[d]
		if end < start[d] || end > dims[d] {
			return nil, fmt.Errorf("slice out of bounds: dimension %d, start=%d, count=%d, size=%d",
				d, start[d], count[d], dims[d])
		}
	}
	return &selection{dims: dims, start: start, count: count, elemSize: elemSize}, nil
}

func (s *selection) size() uint64 {
	return product(s.count) * s.elemSize
}

// whole reports whether the selection covers the full array.
func (s *selection) whole() bool {
	for d := range s.dims {
		if s.start[d] != 0 || s.count[d] != s.dims[d] {
			return false
		}
	}
	return true
}

// copyBlock copies into out the part of block that lies inside both the
// selection and the array bounds. block is a row-major array of extent
// blockDims whose first element sits at origin in array coordinates.
func (s *selection) copyBlock(out, block []byte, origin, blockDims []uint64) error {
	rank := len(s.dims)
	if rank == 0 {
		if uint64(len(block)) < s.elemSize {
			return fmt.Errorf("block of %d bytes holds no element of %d bytes", len(block), s.elemSize)
		}
		copy(out, block[:s.elemSize])
		return nil
	}

	lo, hi, ok := s.overlap(origin, blockDims)
	if !ok {
		return nil
	}

	src := strides(blockDims, s.elemSize)
	dst := strides(s.count, s.elemSize)
	run := (hi[rank-1] - lo[rank-1]) * s.elemSize

	pos := append([]uint64(nil), lo...)
	for {
		var so, do uint64
		for d := 0; d < rank; d++ {
			so += (pos[d] - origin[d]) * src[d]
			do += (pos[d] - s.start[d]) * dst[d]
		}
		if so+run > uint64(len(block)) {
			return fmt.Errorf("block of %d bytes is short of extent %v", len(block), blockDims)
		}
		copy(out[do:do+run], block[so:so+run])

		d := rank - 2
		for ; d >= 0; d-- {
			if pos[d]++; pos[d] < hi[d] {
				break
			}
			pos[d] = lo[d]
		}
		if d < 0 {
			return nil
		}
	}
}

// overlap returns the bounds of the block inside the selection and the
// array, or false when they do not meet.
func (s *selection) overlap(origin, blockDims []uint64) (lo, hi []uint64, ok bool) {
	rank := len(s.dims)
	lo = make([]uint64, rank)
	hi = make([]uint64, rank)
	for d := 0; d < rank; d++ {
		lo[d] = max(origin[d], s.start[d])
		hi[d] = min(origin[d]+blockDims[d], s.start[d]+s.count[d], s.dims[d])
		if lo[d] >= hi[d] {
			return nil, nil, false
		}
	}
	return lo, hi, true
}

// strides returns the byte step of each dimension of a row-major array.
func strides(dims []uint64, elemSize uint64) []uint64 {
	s := make([]uint64, len(dims))
	step := elemSize
	for d := len(dims) - 1; d >= 0; d-- {
		s[d] = step
		step *= dims[d]
	}
	return s
}

func product(xs []uint64) uint64 {
	n := uint64(1)
	for _, x := range xs {
		n *= x
	}
	return n
}
