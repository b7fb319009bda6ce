package message

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// encode writes the layout in version 3 form, or version 4 for chunked
// storage under any index other than a version 1 B-tree.
func (m *DataLayout) encode(e *encoder) error {
	version := uint8(3)
	if m.Class == LayoutChunked && m.ChunkIndexType != ChunkIndexBTreeV1 {
		version = 4
	}
	e.u8(version)
	e.u8(uint8(m.Class))

	switch m.Class {
	case LayoutCompact:
		if len(m.CompactData) > 0xFFFF {
			return fmt.Errorf("compact data of %d bytes exceeds 64 KiB", len(m.CompactData))
		}
		e.u16(uint16(len(m.CompactData)))
		e.bytes(m.CompactData)
		return nil
	case LayoutContiguous:
		e.offset(m.Address)
		e.length(m.Size)
		return nil
	case LayoutChunked:
	default:
		return fmt.Errorf("cannot serialize layout class %d", m.Class)
	}

	if version == 3 {
		e.u8(uint8(len(m.ChunkDims)))
		e.offset(m.ChunkIndexAddr)
		for _, d := range m.ChunkDims {
			e.u32(d)
		}
		return nil
	}

	width := m.dimensionSizeBytes()
	e.bytes([]byte{m.ChunkFlags, uint8(len(m.ChunkDims)), width})
	for _, d := range m.ChunkDims {
		e.num(uint64(d), int(width))
	}
	e.u8(uint8(m.ChunkIndexType))
	switch m.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if m.ChunkFlags&ChunkFlagSingleFiltered != 0 {
			e.length(m.FilteredChunkSize)
			e.u32(m.FilterMask)
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		e.u8(m.PageBits)
	case ChunkIndexExtensibleArray:
		p := m.ExtensibleArray
		e.bytes([]byte{p.MaxBits, p.IndexElements, p.MinPointers, p.MinElements, p.PageBits})
	case ChunkIndexBTreeV2:
		e.u32(m.BTreeV2.NodeSize)
		e.bytes([]byte{m.BTreeV2.SplitPercent, m.BTreeV2.MergePercent})
	default:
		return fmt.Errorf("cannot serialize chunk index type %d", m.ChunkIndexType)
	}
	e.offset(m.ChunkIndexAddr)
	return nil
}

func (m *DataLayout) Serialize(w *binary.Writer) error { return writeEncoded(w, m) }

// dimensionSizeBytes is the narrowest width that holds every chunk dimension.
func (m *DataLayout) dimensionSizeBytes() uint8 {
	if m.DimensionSizeBytes != 0 {
		return m.DimensionSizeBytes
	}
	n := uint8(1)
	for _, d := range m.ChunkDims {
		switch {
		case d > 0xFFFFFF:
			n = max(n, 4)
		case d > 0xFFFF:
			n = max(n, 3)
		case d > 0xFF:
			n = max(n, 2)
		}
	}
	return n
}

// NewContiguousLayout creates a new contiguous layout message.
func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{
		Version: 3,
		Class:   LayoutContiguous,
		Address: address,
		Size:    size,
	}
}

// NewChunkedLayout creates a version 4 chunked layout. chunkDims are the
// dataset-rank chunk extents; the element size is appended as the extra
// dimension the format requires. The index address is set once written.
func NewChunkedLayout(chunkDims []uint32, elementSize uint32, indexType ChunkIndexType) *DataLayout {
	all := make([]uint32, len(chunkDims)+1)
	copy(all, chunkDims)
	all[len(chunkDims)] = elementSize

	m := &DataLayout{
		Version:        4,
		Class:          LayoutChunked,
		ChunkDims:      all,
		ChunkIndexType: indexType,
	}
	m.DimensionSizeBytes = m.dimensionSizeBytes()
	return m
}
