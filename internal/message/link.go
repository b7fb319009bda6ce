package message

import (
	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// LinkType is the kind of a link. Types from 64 up are user defined;
// 64 is reserved for external links.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link names a member of a group. A hard link holds the member's header
// address, a soft link a path in the same file, and an external link a
// file name with a path inside it.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string
	Charset       uint8

	ObjectAddress uint64
	SoftLinkValue string
	ExternalFile  string
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

// parseLink reads a version 1 link message. The low two flag bits give
// the width of the name length; the others mark which optional fields
// follow.
func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	c := newCursor("link message", data)
	link := &Link{Version: c.u8()}
	flags := c.u8()
	if link.Version != 1 {
		c.fail("unsupported version %d", link.Version)
	}
	if flags&0x08 != 0 {
		link.LinkType = LinkType(c.u8())
	}
	if flags&0x04 != 0 {
		link.CreationOrder = c.num(8)
	}
	if flags&0x10 != 0 {
		link.Charset = c.u8()
	}
	link.Name = string(c.take(int(c.num(1 << (flags & 0x03)))))

	switch link.LinkType {
	case LinkTypeHard:
		link.ObjectAddress = c.num(r.OffsetSize())
	case LinkTypeSoft:
		link.SoftLinkValue = string(c.take(int(c.u16())))
	case LinkTypeExternal:
		ext := newCursor("external link", c.take(int(c.u16())))
		ext.skip(1) // version and flags
		link.ExternalFile = ext.cstr()
		link.ExternalPath = ext.cstr()
		if c.err == nil && ext.err != nil {
			c.err = ext.err
		}
	default:
		c.skip(int(c.u16())) // user-defined link data
	}
	if c.err != nil {
		return nil, c.err
	}
	return link, nil
}
