package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// NumRows returns the extent of the first dimension.
// Scalar datasets have no rows and return ErrNotArray.
func (d *Dataset) NumRows() (uint64, error) {
	dims := d.Shape()
	if len(dims) == 0 {
		return 0, fmt.Errorf("%s: %w", d.path, ErrNotArray)
	}
	return dims[0], nil
}

// RowShape returns the dimensions after the first one. A one-dimensional
// dataset has an empty row shape.
func (d *Dataset) RowShape() []uint64 {
	dims := d.Shape()
	if len(dims) < 2 {
		return []uint64{}
	}
	out := make([]uint64, len(dims)-1)
	copy(out, dims[1:])
	return out
}

// RowBytes returns the size in bytes of one row along the first dimension.
func (d *Dataset) RowBytes() uint64 {
	n := uint64(d.datatype.Size)
	for _, dim := range d.RowShape() {
		n *= dim
	}
	return n
}

// IsNumeric reports whether elements are integers or IEEE floats.
func (d *Dataset) IsNumeric() bool {
	return d.datatype.Class == message.ClassFixedPoint || d.datatype.Class == message.ClassFloatPoint
}

// IsFloat reports whether elements are IEEE floats.
func (d *Dataset) IsFloat() bool {
	return d.datatype.Class == message.ClassFloatPoint
}

// Signed reports whether an integer dataset is signed. Floats are signed.
func (d *Dataset) Signed() bool {
	if d.datatype.Class == message.ClassFloatPoint {
		return true
	}
	return d.datatype.Signed
}

// BigEndian reports whether elements are stored most significant byte first.
func (d *Dataset) BigEndian() bool {
	return d.datatype.ByteOrder == message.OrderBE
}

// ReadRows reads rows [lo, hi) along the first dimension as raw bytes in
// file byte order. Only the selected rows are fetched.
func (d *Dataset) ReadRows(lo, hi uint64) ([]byte, error) {
	if d.layout == nil {
		return nil, fmt.Errorf("%s: dataset not open for reading", d.path)
	}
	n, err := d.NumRows()
	if err != nil {
		return nil, err
	}
	if lo > hi || hi > n {
		return nil, fmt.Errorf("%s: rows [%d, %d) outside [0, %d): %w", d.path, lo, hi, n, ErrOutOfBounds)
	}

	dims := d.Shape()
	start := make([]uint64, len(dims))
	count := make([]uint64, len(dims))
	start[0] = lo
	count[0] = hi - lo
	copy(count[1:], dims[1:])

	raw, err := d.layout.ReadSlice(start, count)
	if err != nil {
		return nil, fmt.Errorf("reading rows [%d, %d) of %s: %w", lo, hi, d.path, err)
	}
	return raw, nil
}
