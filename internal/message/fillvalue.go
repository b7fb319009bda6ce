package message

import (
	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// FillValueStatus indicates when fill values are written.
type FillValueStatus uint8

const (
	FillUndefined   FillValueStatus = 0
	FillDefault     FillValueStatus = 1
	FillUserDefined FillValueStatus = 2
)

// FillValue represents a fill value message (type 0x0005).
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	IsDefined      bool
	Size           uint32
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

// parseFillValue reads versions 1 to 3. Version 1 always stores a size and
// value, version 2 only when defined, and version 3 when flag bit 5 is set.
func parseFillValue(data []byte, _ *binpkg.Reader) (*FillValue, error) {
	c := newCursor("fill value message", data)
	fv := &FillValue{Version: c.u8()}
	present := false
	switch fv.Version {
	case 1, 2:
		fv.SpaceAllocTime, fv.FillWriteTime = c.u8(), c.u8()
		fv.IsDefined = c.u8() != 0
		present = fv.Version == 1 || fv.IsDefined
	case 3:
		flags := c.u8()
		fv.SpaceAllocTime = flags & 0x03
		fv.FillWriteTime = flags >> 2 & 0x03
		fv.IsDefined = flags&0x10 == 0
		present = flags&0x20 != 0
	default:
		c.fail("unsupported version %d", fv.Version)
	}
	if present && len(c.rest()) > 0 {
		fv.Size = c.u32()
		fv.Value = c.copyN(int(fv.Size))
	}
	if c.err != nil {
		return nil, c.err
	}
	if len(fv.Value) == 0 {
		fv.Value = nil
	}
	return fv, nil
}
