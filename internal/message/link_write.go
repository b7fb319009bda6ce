package message

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

func NewHardLink(name string, objectAddress uint64) *Link {
	return &Link{Version: 1, LinkType: LinkTypeHard, Name: name, ObjectAddress: objectAddress}
}

// encode writes a version 1 link with the narrowest name length field.
func (m *Link) encode(e *encoder) error {
	var lenBits uint8
	switch n := uint64(len(m.Name)); {
	case n > 0xFFFFFFFF:
		lenBits = 3
	case n > 0xFFFF:
		lenBits = 2
	case n > 0xFF:
		lenBits = 1
	}
	flags := lenBits
	if m.LinkType != LinkTypeHard {
		flags |= 0x08
	}
	e.u8(1)
	e.u8(flags)
	if m.LinkType != LinkTypeHard {
		e.u8(uint8(m.LinkType))
	}
	e.num(uint64(len(m.Name)), 1<<lenBits)
	e.bytes([]byte(m.Name))

	switch m.LinkType {
	case LinkTypeHard:
		e.offset(m.ObjectAddress)
	case LinkTypeSoft:
		e.u16(uint16(len(m.SoftLinkValue)))
		e.bytes([]byte(m.SoftLinkValue))
	case LinkTypeExternal:
		e.u16(uint16(1 + len(m.ExternalFile) + 1 + len(m.ExternalPath) + 1))
		e.u8(0)
		e.cstr(m.ExternalFile)
		e.cstr(m.ExternalPath)
	default:
		return fmt.Errorf("cannot encode link type %d", m.LinkType)
	}
	return nil
}

func (m *Link) Serialize(w *binary.Writer) error { return writeEncoded(w, m) }
