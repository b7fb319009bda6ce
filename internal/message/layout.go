package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// LayoutClass represents the storage layout class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0 // Data stored in object header
	LayoutContiguous LayoutClass = 1 // Data in single contiguous block
	LayoutChunked    LayoutClass = 2 // Data in indexed chunks
	LayoutVirtual    LayoutClass = 3 // Virtual dataset (v4+)
)

// ChunkIndexType names the structure that locates chunks. Layouts before
// version 4 always use a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

func (t ChunkIndexType) String() string {
	switch t {
	case ChunkIndexBTreeV1:
		return "btree-v1"
	case ChunkIndexSingleChunk:
		return "single"
	case ChunkIndexImplicit:
		return "implicit"
	case ChunkIndexFixedArray:
		return "fixed-array"
	case ChunkIndexExtensibleArray:
		return "extensible-array"
	case ChunkIndexBTreeV2:
		return "btree-v2"
	}
	return fmt.Sprintf("index-%d", uint8(t))
}

// Chunked layout flags (version 4).
const (
	ChunkFlagDontFilterEdges uint8 = 0x01
	ChunkFlagSingleFiltered  uint8 = 0x02
)

// ExtensibleArrayParams are the creation parameters of an extensible array
// chunk index.
type ExtensibleArrayParams struct {
	MaxBits       uint8
	IndexElements uint8
	MinPointers   uint8
	MinElements   uint8
	PageBits      uint8
}

// BTreeV2Params are the creation parameters of a version 2 B-tree chunk index.
type BTreeV2Params struct {
	NodeSize     uint32
	SplitPercent uint8
	MergePercent uint8
}

// DataLayout represents a data layout message (type 0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	CompactData []byte

	// Contiguous storage. Size is zero for version 1 and 2 messages, which
	// leave it to the dataspace.
	Address uint64
	Size    uint64

	// ChunkDims has one entry more than the dataset rank; the last one is
	// the element size in bytes.
	ChunkDims          []uint32
	ChunkIndexAddr     uint64
	ChunkIndexType     ChunkIndexType
	ChunkFlags         uint8
	DimensionSizeBytes uint8

	// Single chunk index with filters.
	FilteredChunkSize uint64
	FilterMask        uint32

	PageBits        uint8 // fixed array: log2 of entries per data block page
	ExtensibleArray ExtensibleArrayParams
	BTreeV2         BTreeV2Params
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func parseDataLayout(data []byte, r *binpkg.Reader) (*DataLayout, error) {
	c := newCursor("data layout message", data)
	m := &DataLayout{Version: c.u8()}

	switch m.Version {
	case 1, 2:
		parseLayoutV1V2(c, r, m)
	case 3, 4:
		m.Class = LayoutClass(c.u8())
		parseLayoutV3V4(c, r, m)
	default:
		if c.err == nil {
			return nil, fmt.Errorf("unsupported data layout version: %d", m.Version)
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return m, nil
}

func parseLayoutV1V2(c *cursor, r *binpkg.Reader, m *DataLayout) {
	ndims := int(c.u8())
	m.Class = LayoutClass(c.u8())
	c.take(5)

	if m.Class != LayoutCompact {
		m.Address = c.num(r.OffsetSize())
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = uint32(c.num(4))
	}
	switch m.Class {
	case LayoutCompact:
		size := int(c.num(4))
		m.CompactData = append([]byte(nil), c.take(size)...)
	case LayoutChunked:
		m.ChunkDims = dims
		m.ChunkIndexAddr = m.Address
		m.Address = 0
		m.ChunkIndexType = ChunkIndexBTreeV1
	}
}

func parseLayoutV3V4(c *cursor, r *binpkg.Reader, m *DataLayout) {
	switch m.Class {
	case LayoutCompact:
		size := int(c.num(2))
		m.CompactData = append([]byte(nil), c.take(size)...)

	case LayoutContiguous:
		m.Address = c.num(r.OffsetSize())
		m.Size = c.num(r.LengthSize())

	case LayoutChunked:
		if m.Version == 3 {
			ndims := int(c.u8())
			m.ChunkIndexAddr = c.num(r.OffsetSize())
			m.ChunkDims = make([]uint32, ndims)
			for i := range m.ChunkDims {
				m.ChunkDims[i] = uint32(c.num(4))
			}
			m.ChunkIndexType = ChunkIndexBTreeV1
			return
		}
		parseChunkedV4(c, r, m)

	case LayoutVirtual:
		m.Address = c.num(r.OffsetSize())
		c.take(4) // global heap index

	default:
		c.fail("unknown class %d", m.Class)
	}
}

func parseChunkedV4(c *cursor, r *binpkg.Reader, m *DataLayout) {
	m.ChunkFlags = c.u8()
	ndims := int(c.u8())
	m.DimensionSizeBytes = c.u8()
	if c.err == nil && (m.DimensionSizeBytes < 1 || m.DimensionSizeBytes > 8) {
		c.fail("chunk dimension encoding of %d bytes", m.DimensionSizeBytes)
		return
	}
	m.ChunkDims = make([]uint32, ndims)
	for i := range m.ChunkDims {
		d := c.num(int(m.DimensionSizeBytes))
		if d > 1<<32-1 {
			c.fail("chunk dimension %d too large: %d", i, d)
			return
		}
		m.ChunkDims[i] = uint32(d)
	}

	m.ChunkIndexType = ChunkIndexType(c.u8())
	switch m.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if m.ChunkFlags&ChunkFlagSingleFiltered != 0 {
			m.FilteredChunkSize = c.num(r.LengthSize())
			m.FilterMask = uint32(c.num(4))
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		m.PageBits = c.u8()
	case ChunkIndexExtensibleArray:
		m.ExtensibleArray = ExtensibleArrayParams{
			MaxBits:       c.u8(),
			IndexElements: c.u8(),
			MinPointers:   c.u8(),
			MinElements:   c.u8(),
			PageBits:      c.u8(),
		}
	case ChunkIndexBTreeV2:
		m.BTreeV2 = BTreeV2Params{
			NodeSize:     uint32(c.num(4)),
			SplitPercent: c.u8(),
			MergePercent: c.u8(),
		}
	default:
		c.fail("unknown chunk index type %d", m.ChunkIndexType)
		return
	}
	m.ChunkIndexAddr = c.num(r.OffsetSize())
}
