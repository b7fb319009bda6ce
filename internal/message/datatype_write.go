package message

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// NewFixedPointDatatype returns an integer type of size bytes.
func NewFixedPointDatatype(size uint32, signed bool, byteOrder ByteOrder) *Datatype {
	bits := uint32(byteOrder)
	if signed {
		bits |= 0x08
	}
	return &Datatype{
		Class:        ClassFixedPoint,
		Version:      1,
		ClassBits:    bits,
		Size:         size,
		ByteOrder:    byteOrder,
		BitPrecision: uint16(size * 8),
		Signed:       signed,
	}
}

// ieeeFloat describes an IEEE 754 layout: sign bit, exponent position and
// width, mantissa width and exponent bias.
type ieeeFloat struct {
	sign, expLoc, expSize, mantSize uint8
	bias                            uint32
}

var ieeeFloats = map[uint32]ieeeFloat{
	2: {15, 10, 5, 10, 15},
	4: {31, 23, 8, 23, 127},
	8: {63, 52, 11, 52, 1023},
}

// NewFloatDatatype returns an IEEE float of 2, 4 or 8 bytes. Other sizes
// yield a type without properties that fails to encode.
func NewFloatDatatype(size uint32, byteOrder ByteOrder) *Datatype {
	dt := &Datatype{Class: ClassFloatPoint, Version: 1, Size: size, ByteOrder: byteOrder}
	f, ok := ieeeFloats[size]
	if !ok {
		return dt
	}
	// Bit 5 marks an implied leading mantissa bit; bits 8 to 15 place the sign.
	dt.ClassBits = uint32(byteOrder) | 1<<5 | uint32(f.sign)<<8
	e := &encoder{}
	e.u16(0)
	e.u16(uint16(size * 8))
	e.bytes([]byte{f.expLoc, f.expSize, 0, f.mantSize})
	e.u32(f.bias)
	dt.Properties = e.b
	return dt
}

// NewStringDatatype returns a fixed-length string type.
func NewStringDatatype(size uint32, padding StringPadding, charset CharacterSet) *Datatype {
	return &Datatype{
		Class:         ClassString,
		Version:       1,
		ClassBits:     uint32(padding) | uint32(charset)<<4,
		Size:          size,
		StringPadding: padding,
		CharSet:       charset,
	}
}

// NewVarLenStringDatatype returns a variable-length string type stored as
// a length, heap address and heap index.
func NewVarLenStringDatatype(charset CharacterSet) *Datatype {
	return &Datatype{
		Class:          ClassVarLen,
		Version:        1,
		ClassBits:      1 | uint32(charset)<<8,
		Size:           16,
		CharSet:        charset,
		VarLenType:     NewStringDatatype(1, PadNullTerm, charset),
		IsVarLenString: true,
	}
}

// encode writes the datatype with its nested types. Compound and array
// types use version 3, everything else version 1.
func (m *Datatype) encode(e *encoder) error {
	version := uint8(1)
	if m.Class == ClassCompound || m.Class == ClassArray {
		version = 3
	}
	e.u8(uint8(m.Class) | version<<4)
	bits := m.ClassBits
	if m.Class == ClassCompound {
		bits = uint32(len(m.Members))
	}
	e.num(uint64(bits), 3)
	e.u32(m.Size)

	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		e.u16(m.BitOffset)
		e.u16(m.BitPrecision)
	case ClassFloatPoint:
		if len(m.Properties) != 12 {
			return fmt.Errorf("float datatype of %d bytes has no properties", m.Size)
		}
		e.bytes(m.Properties)
	case ClassString, ClassReference:
	case ClassCompound:
		width := memberOffsetSize(m.Size)
		for _, mem := range m.Members {
			if mem.Type == nil {
				return fmt.Errorf("compound member %q has no type", mem.Name)
			}
			e.cstr(mem.Name)
			e.num(uint64(mem.ByteOffset), width)
			if err := mem.Type.encode(e); err != nil {
				return err
			}
		}
	case ClassArray:
		if m.BaseType == nil {
			return fmt.Errorf("array datatype has no base type")
		}
		e.u8(uint8(len(m.ArrayDims)))
		for _, d := range m.ArrayDims {
			e.u32(d)
		}
		return m.BaseType.encode(e)
	case ClassVarLen:
		if m.VarLenType == nil {
			return fmt.Errorf("variable-length datatype has no base type")
		}
		return m.VarLenType.encode(e)
	default:
		return fmt.Errorf("cannot serialize datatype class %d", m.Class)
	}
	return nil
}

func (m *Datatype) Serialize(w *binary.Writer) error { return writeEncoded(w, m) }
