package message

import (
	"math/bits"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// DatatypeClass is the class field of a datatype message.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = iota
	ClassFloatPoint
	ClassTime
	ClassString
	ClassBitfield
	ClassOpaque
	ClassCompound
	ClassReference
	ClassEnum
	ClassVarLen
	ClassArray
)

// ByteOrder is the order of a numeric type. VAX order only occurs in
// floats written on VAX machines.
type ByteOrder uint8

const (
	OrderLE ByteOrder = iota
	OrderBE
	OrderVAX
	OrderNone
)

// StringPadding says how a fixed-length string fills its slot.
type StringPadding uint8

const (
	PadNullTerm StringPadding = iota
	PadNullPad
	PadSpacePad
)

type CharacterSet uint8

const (
	CharsetASCII CharacterSet = iota
	CharsetUTF8
)

// Datatype describes the element type of a dataset or attribute.
type Datatype struct {
	Class     DatatypeClass
	Version   uint8
	ClassBits uint32 // class bit field as stored
	Size      uint32

	ByteOrder ByteOrder

	// Integers and bitfields.
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	// Strings, and the string form of variable-length data.
	StringPadding StringPadding
	CharSet       CharacterSet

	Members []CompoundMember

	// Arrays and enums hold their element type in BaseType.
	ArrayDims []uint32
	BaseType  *Datatype

	VarLenType     *Datatype
	IsVarLenString bool

	// Properties keeps the raw float properties or the opaque tag.
	Properties []byte
}

// CompoundMember is one field of a compound type.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) IsFloat() bool { return m.Class == ClassFloatPoint }

// IsString reports fixed-length and variable-length strings alike.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || m.Class == ClassVarLen && m.IsVarLenString
}

func parseDatatype(data []byte, _ *binpkg.Reader) (*Datatype, error) {
	c := newCursor("datatype message", data)
	dt := readDatatype(c)
	if c.err != nil {
		return nil, c.err
	}
	return dt, nil
}

// readDatatype reads one datatype and the member or base types nested in
// it.
func readDatatype(c *cursor) *Datatype {
	cv := c.u8()
	flags := uint32(c.num(3))
	dt := &Datatype{Class: DatatypeClass(cv & 0x0F), Version: cv >> 4, ClassBits: flags, Size: c.u32()}
	if c.err != nil {
		return dt
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(flags & 0x01)
		dt.Signed = dt.Class == ClassFixedPoint && flags&0x08 != 0
		dt.BitOffset = c.u16()
		dt.BitPrecision = c.u16()

	case ClassFloatPoint:
		// Bits 0 and 6 hold the byte order; both set means VAX order.
		dt.ByteOrder = ByteOrder(flags & 0x01)
		if flags&0x41 == 0x41 {
			dt.ByteOrder = OrderVAX
		}
		dt.Properties = c.copyN(12)

	case ClassTime:
		dt.ByteOrder = ByteOrder(flags & 0x01)
		dt.BitPrecision = c.u16()

	case ClassString:
		dt.StringPadding = StringPadding(flags & 0x0F)
		dt.CharSet = CharacterSet(flags >> 4 & 0x0F)

	case ClassOpaque:
		dt.Properties = c.copyN(int(flags & 0xFF))

	case ClassCompound:
		readMembers(c, dt, int(flags&0xFFFF))

	case ClassReference:

	case ClassEnum:
		dt.BaseType = readDatatype(c)
		n := int(flags & 0xFFFF)
		for i := 0; i < n && c.err == nil; i++ {
			start := c.pos
			c.cstr()
			if dt.Version < 3 {
				c.padFrom(start, 8)
			}
		}
		c.skip(n * int(dt.BaseType.Size))

	case ClassVarLen:
		dt.IsVarLenString = flags&0x0F == 1
		dt.StringPadding = StringPadding(flags >> 4 & 0x0F)
		dt.CharSet = CharacterSet(flags >> 8 & 0x0F)
		dt.VarLenType = readDatatype(c)

	case ClassArray:
		ndims := int(c.u8())
		if dt.Version < 3 {
			c.skip(3)
		}
		dt.ArrayDims = make([]uint32, ndims)
		for i := range dt.ArrayDims {
			dt.ArrayDims[i] = c.u32()
		}
		if dt.Version < 3 {
			c.skip(4 * ndims) // permutation
		}
		dt.BaseType = readDatatype(c)

	default:
		c.fail("unknown datatype class %d", dt.Class)
	}
	return dt
}

// readMembers reads compound members. Versions 1 and 2 pad names to eight
// bytes and store four-byte offsets; version 1 members may also be small
// arrays. Version 3 sizes the offset to the compound size.
func readMembers(c *cursor, dt *Datatype, n int) {
	for i := 0; i < n && c.err == nil; i++ {
		start := c.pos
		m := CompoundMember{Name: c.cstr()}
		var dims []uint32
		switch dt.Version {
		case 1, 2:
			c.padFrom(start, 8)
			m.ByteOffset = c.u32()
			if dt.Version == 1 {
				ndims := int(c.u8())
				c.skip(3 + 4 + 4)
				for j := 0; j < 4; j++ {
					if d := c.u32(); j < ndims {
						dims = append(dims, d)
					}
				}
			}
		default:
			m.ByteOffset = uint32(c.num(memberOffsetSize(dt.Size)))
		}
		m.Type = readDatatype(c)
		if len(dims) > 0 {
			n := uint32(1)
			for _, d := range dims {
				n *= d
			}
			m.Type = &Datatype{Class: ClassArray, Version: 2, Size: n * m.Type.Size, ArrayDims: dims, BaseType: m.Type}
		}
		dt.Members = append(dt.Members, m)
	}
}

// memberOffsetSize is the width of a version 3 member offset: the bytes
// needed to store the compound size.
func memberOffsetSize(size uint32) int {
	if size == 0 {
		return 1
	}
	return (bits.Len32(size)-1)/8 + 1
}
