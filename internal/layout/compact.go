package layout

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Compact reads data kept inside the object header.
type Compact struct {
	data      []byte
	dataspace *message.Dataspace
	elemSize  uint64
}

func NewCompact(layout *message.DataLayout, dataspace *message.Dataspace, datatype *message.Datatype) *Compact {
	return &Compact{
		data:      layout.CompactData,
		dataspace: dataspace,
		elemSize:  uint64(datatype.Size),
	}
}

func (c *Compact) Class() message.LayoutClass {
	return message.LayoutCompact
}

func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
	dims := extent(c.dataspace)
	sel, err := newSelection(dims, start, count, c.elemSize)
	if err != nil {
		return nil, err
	}
	if need := product(dims) * c.elemSize; uint64(len(c.data)) < need {
		return nil, fmt.Errorf("compact data holds %d bytes, dataspace needs %d", len(c.data), need)
	}

	out := make([]byte, sel.size())
	if sel.whole() {
		copy(out, c.data)
		return out, nil
	}
	if err := sel.copyBlock(out, c.data, make([]uint64, len(dims)), dims); err != nil {
		return nil, err
	}
	return out, nil
}
