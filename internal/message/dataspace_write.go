package message

import (
	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// NewDataspace returns a simple dataspace. maxDims may be nil when the
// extent is fixed.
func NewDataspace(dims []uint64, maxDims []uint64) *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceSimple, Dimensions: dims, MaxDims: maxDims}
}

func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}

// encode writes a version 2 dataspace.
func (m *Dataspace) encode(e *encoder) error {
	var flags uint8
	if len(m.MaxDims) > 0 {
		flags |= 0x01
	}
	e.bytes([]byte{2, uint8(len(m.Dimensions)), flags, uint8(m.SpaceType)})
	for _, d := range m.Dimensions {
		e.length(d)
	}
	if flags&0x01 != 0 {
		for _, d := range m.MaxDims {
			e.length(d)
		}
	}
	return nil
}

func (m *Dataspace) Serialize(w *binary.Writer) error { return writeEncoded(w, m) }
