package message

import (
	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// undefinedAddress marks an absent heap or B-tree; the encoder truncates it
// to the file's offset width.
const undefinedAddress = ^uint64(0)

// LinkInfo represents a link info message (type 0x0002). Bit 0 of Flags
// tracks creation order and bit 1 indexes it.
type LinkInfo struct {
	Version                uint8
	Flags                  uint8
	MaxCreationIndex       uint64
	FractalHeapAddr        uint64
	NameIndexBTreeAddr     uint64
	CreationOrderBTreeAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo returns link info for a group whose links are all stored as
// link messages in its header.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{FractalHeapAddr: undefinedAddress, NameIndexBTreeAddr: undefinedAddress}
}

func parseLinkInfo(data []byte, r *binpkg.Reader) (*LinkInfo, error) {
	c := newCursor("link info message", data)
	m := &LinkInfo{Version: c.u8(), Flags: c.u8()}
	if m.Flags&0x01 != 0 {
		m.MaxCreationIndex = c.num(8)
	}
	m.FractalHeapAddr = c.num(r.OffsetSize())
	m.NameIndexBTreeAddr = c.num(r.OffsetSize())
	if m.Flags&0x02 != 0 {
		m.CreationOrderBTreeAddr = c.num(r.OffsetSize())
	}
	if c.err != nil {
		return nil, c.err
	}
	return m, nil
}

func (m *LinkInfo) encode(e *encoder) error {
	e.u8(m.Version)
	e.u8(m.Flags)
	if m.Flags&0x01 != 0 {
		e.num(m.MaxCreationIndex, 8)
	}
	e.offset(m.FractalHeapAddr)
	e.offset(m.NameIndexBTreeAddr)
	if m.Flags&0x02 != 0 {
		e.offset(m.CreationOrderBTreeAddr)
	}
	return nil
}

func (m *LinkInfo) Serialize(w *binpkg.Writer) error { return writeEncoded(w, m) }

// GroupInfo represents a group info message (type 0x000A). Bit 0 of Flags
// stores the link phase change values and bit 1 the size estimates.
type GroupInfo struct {
	Version         uint8
	Flags           uint8
	MaxCompactLinks uint16
	MinDenseLinks   uint16
	EstNumEntries   uint16
	EstLinkNameLen  uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// NewGroupInfo returns group info that keeps the library defaults.
func NewGroupInfo() *GroupInfo { return &GroupInfo{} }

func parseGroupInfo(data []byte, _ *binpkg.Reader) (*GroupInfo, error) {
	c := newCursor("group info message", data)
	m := &GroupInfo{Version: c.u8(), Flags: c.u8()}
	if m.Flags&0x01 != 0 {
		m.MaxCompactLinks, m.MinDenseLinks = c.u16(), c.u16()
	}
	if m.Flags&0x02 != 0 {
		m.EstNumEntries, m.EstLinkNameLen = c.u16(), c.u16()
	}
	if c.err != nil {
		return nil, c.err
	}
	return m, nil
}

func (m *GroupInfo) encode(e *encoder) error {
	e.u8(m.Version)
	e.u8(m.Flags)
	if m.Flags&0x01 != 0 {
		e.u16(m.MaxCompactLinks)
		e.u16(m.MinDenseLinks)
	}
	if m.Flags&0x02 != 0 {
		e.u16(m.EstNumEntries)
		e.u16(m.EstLinkNameLen)
	}
	return nil
}

func (m *GroupInfo) Serialize(w *binpkg.Writer) error { return writeEncoded(w, m) }
