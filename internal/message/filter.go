package message

import (
	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// Filter IDs
const (
	FilterDeflate     uint16 = 1 // DEFLATE (gzip)
	FilterShuffle     uint16 = 2 // Byte shuffle
	FilterFletcher32  uint16 = 3 // Fletcher32 checksum
	FilterSZIP        uint16 = 4 // SZIP compression
	FilterNBit        uint16 = 5 // N-bit packing
	FilterScaleOffset uint16 = 6 // Scale + offset

	// FilterZstd is the registered third-party Zstandard filter.
	FilterZstd uint16 = 32015
)

// FilterInfo describes a single filter in the pipeline.
type FilterInfo struct {
	ID         uint16   // Filter identifier
	Flags      uint16   // Filter flags (bit 0: optional)
	Name       string   // Filter name (optional, v1 only)
	ClientData []uint32 // Filter parameters
}

// IsOptional returns true if this filter is optional.
func (f *FilterInfo) IsOptional() bool {
	return f.Flags&0x01 != 0
}

// FilterPipeline represents a filter pipeline message (type 0x000B).
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// parseFilterPipeline reads version 1 and version 2 pipelines. Version 2
// drops the name of the predefined filters and the padding of version 1.
func parseFilterPipeline(data []byte, _ *binpkg.Reader) (*FilterPipeline, error) {
	c := newCursor("filter pipeline message", data)
	fp := &FilterPipeline{Version: c.u8()}
	n := int(c.u8())
	switch fp.Version {
	case 1:
		c.skip(6)
	case 2:
	default:
		c.fail("unsupported version %d", fp.Version)
	}

	for i := 0; i < n && c.err == nil; i++ {
		var f FilterInfo
		f.ID = c.u16()
		var nameLen int
		if fp.Version == 1 || f.ID >= 256 {
			nameLen = int(c.u16())
		}
		f.Flags = c.u16()
		f.ClientData = make([]uint32, c.u16())
		if nameLen > 0 {
			f.Name = c.str(nameLen)
			if fp.Version == 1 {
				c.pad(8)
			}
		}
		for j := range f.ClientData {
			f.ClientData[j] = c.u32()
		}
		if fp.Version == 1 && len(f.ClientData)%2 != 0 {
			c.skip(4)
		}
		fp.Filters = append(fp.Filters, f)
	}
	if c.err != nil {
		return nil, c.err
	}
	return fp, nil
}
