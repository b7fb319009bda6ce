package layout

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Contiguous reads data stored as one block in the file.
type Contiguous struct {
	address   uint64
	size      uint64
	dataspace *message.Dataspace
	elemSize  uint64
	reader    *binary.Reader
}

func NewContiguous(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	reader *binary.Reader,
) *Contiguous {
	c := &Contiguous{
		address:   layout.Address,
		size:      layout.Size,
		dataspace: dataspace,
		elemSize:  uint64(datatype.Size),
		reader:    reader,
	}
	if c.size == 0 {
		c.size = product(extent(dataspace)) * c.elemSize
	}
	return c
}

func (c *Contiguous) Class() message.LayoutClass {
	return message.LayoutContiguous
}

// ReadSlice fetches only the rows the selection spans along the first
// dimension, in one read; a selection of whole rows is returned as read.
// Storage that was never allocated reads as zeros.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	dims := extent(c.dataspace)
	sel, err := newSelection(dims, start, count, c.elemSize)
	if err != nil {
		return nil, err
	}
	if sel.size() == 0 {
		return []byte{}, nil
	}
	if c.reader.IsUndefinedOffset(c.address) {
		return make([]byte, sel.size()), nil
	}

	rowBytes, first, rows := c.elemSize, uint64(0), uint64(1)
	if len(dims) > 0 {
		rowBytes = product(dims[1:]) * c.elemSize
		first, rows = start[0], count[0]
	}
	lo, n := first*rowBytes, rows*rowBytes
	if lo+n > c.size {
		return nil, fmt.Errorf("rows %d-%d lie beyond the %d stored bytes", first, first+rows, c.size)
	}
	block, err := c.reader.At(int64(c.address + lo)).ReadBytes(int(n))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous rows %d-%d: %w", first, first+rows, err)
	}
	if n == sel.size() {
		return block, nil
	}

	origin := make([]uint64, len(dims))
	origin[0] = first
	blockDims := append([]uint64{rows}, dims[1:]...)
	out := make([]byte, sel.size())
	if err := sel.copyBlock(out, block, origin, blockDims); err != nil {
		return nil, err
	}
	return out, nil
}
