package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// Attribute represents an attribute message (type 0x000C).
type Attribute struct {
	Version       uint8
	Name          string
	CharSet       CharacterSet
	DatatypeSize  uint16
	DataspaceSize uint16
	Datatype      *Datatype
	Dataspace     *Dataspace
	Data          []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func NewAttribute(name string, datatype *Datatype, dataspace *Dataspace, data []byte) *Attribute {
	return &Attribute{Version: 3, Name: name, Datatype: datatype, Dataspace: dataspace, Data: data}
}

// parseAttribute reads versions 1 to 3. Version 1 pads the name and both
// embedded messages to eight bytes; version 3 adds the name encoding.
// Shared datatypes and dataspaces are not followed.
func parseAttribute(data []byte, r *binpkg.Reader) (*Attribute, error) {
	c := newCursor("attribute message", data)
	m := &Attribute{Version: c.u8()}
	if c.err == nil && (m.Version < 1 || m.Version > 3) {
		c.fail("unsupported version %d", m.Version)
	}
	flags := c.u8()
	nameSize := int(c.u16())
	m.DatatypeSize, m.DataspaceSize = c.u16(), c.u16()
	if m.Version == 3 {
		m.CharSet = CharacterSet(c.u8())
	}
	if m.Version > 1 && flags&0x03 != 0 {
		c.fail("shared datatype or dataspace is not supported")
	}

	field := func(n int) []byte {
		b := c.take(n)
		if m.Version == 1 {
			c.pad(8)
		}
		return b
	}
	m.Name = trimNul(field(nameSize))
	dtData := field(int(m.DatatypeSize))
	dsData := field(int(m.DataspaceSize))
	if c.err != nil {
		return nil, c.err
	}

	var err error
	if m.Datatype, err = parseDatatype(dtData, r); err != nil {
		return nil, err
	}
	if m.Dataspace, err = parseDataspace(dsData, r); err != nil {
		return nil, err
	}
	m.Data = append([]byte(nil), c.rest()...)
	return m, nil
}

// encode writes a version 3 attribute with a UTF-8 or ASCII name.
func (m *Attribute) encode(e *encoder) error {
	if m.Datatype == nil || m.Dataspace == nil {
		return fmt.Errorf("attribute %q needs a datatype and a dataspace", m.Name)
	}
	dt, err := e.body(m.Datatype)
	if err != nil {
		return err
	}
	ds, err := e.body(m.Dataspace)
	if err != nil {
		return err
	}
	e.u8(3)
	e.u8(0)
	e.u16(uint16(len(m.Name) + 1))
	e.u16(uint16(len(dt)))
	e.u16(uint16(len(ds)))
	e.u8(uint8(m.CharSet))
	e.cstr(m.Name)
	e.bytes(dt)
	e.bytes(ds)
	e.bytes(m.Data)
	return nil
}

func (m *Attribute) Serialize(w *binpkg.Writer) error { return writeEncoded(w, m) }
