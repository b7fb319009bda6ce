package message

import (
	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// DataspaceType is the class of a dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = iota
	DataspaceSimple
	DataspaceNull
)

// Dataspace is the shape of a dataset or attribute. MaxDims is nil when
// the file does not record maximum dimensions.
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements is 1 for a scalar, 0 for a null dataspace and the product
// of the dimensions otherwise.
func (m *Dataspace) NumElements() uint64 {
	switch {
	case m.SpaceType == DataspaceScalar:
		return 1
	case m.SpaceType != DataspaceSimple || len(m.Dimensions) == 0:
		return 0
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		n *= d
	}
	return n
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }

// parseDataspace reads version 1 (rank, flags, five reserved bytes) and
// version 2 (rank, flags, type) dataspaces. Version 1 has no null type and
// marks a scalar by rank 0.
func parseDataspace(data []byte, r *binpkg.Reader) (*Dataspace, error) {
	c := newCursor("dataspace message", data)
	ds := &Dataspace{Version: c.u8()}
	rank, flags := int(c.u8()), c.u8()

	switch ds.Version {
	case 1:
		c.skip(5)
		ds.SpaceType = DataspaceSimple
		if rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(c.u8())
		if ds.SpaceType > DataspaceNull {
			c.fail("unknown type %d", ds.SpaceType)
		}
	default:
		c.fail("unsupported version %d", ds.Version)
	}

	dims := func() []uint64 {
		d := make([]uint64, rank)
		for i := range d {
			d[i] = c.num(r.LengthSize())
		}
		return d
	}
	if ds.SpaceType == DataspaceSimple {
		ds.Dimensions = dims()
		if flags&0x01 != 0 {
			ds.MaxDims = dims()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return ds, nil
}
