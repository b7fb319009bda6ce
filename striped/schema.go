package striped

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// Kind is the numeric class of a column element.
type Kind int

const (
	Int Kind = iota
	Uint
	Float
)

func (k Kind) code() byte {
	switch k {
	case Int:
		return 'i'
	case Uint:
		return 'u'
	case Float:
		return 'f'
	}
	return '?'
}

// Dtype is a fixed-size numeric element type.
type Dtype struct {
	Kind  Kind
	Size  int
	Order binary.ByteOrder
}

// String renders the type the way numpy spells it, e.g. "<f4" or ">i8".
func (d Dtype) String() string {
	order := byte('<')
	if d.Order == binary.BigEndian {
		order = '>'
	}
	if d.Size == 1 {
		order = '|'
	}
	return fmt.Sprintf("%c%c%d", order, d.Kind.code(), d.Size)
}

// Decodable reports whether the typed accessors of Records can decode d:
// floats of 4 or 8 bytes and integers of 1, 2, 4 or 8 bytes.
func (d Dtype) Decodable() bool {
	switch d.Kind {
	case Float:
		return d.Size == 4 || d.Size == 8
	case Int, Uint:
		switch d.Size {
		case 1, 2, 4, 8:
			return true
		}
	}
	return false
}

func (d Dtype) equal(o Dtype) bool {
	if d.Kind != o.Kind || d.Size != o.Size {
		return false
	}
	return d.Size == 1 || d.Order == o.Order
}

// float64At decodes the element at the start of b as a float64.
func (d Dtype) float64At(b []byte) float64 {
	switch d.Kind {
	case Float:
		if d.Size == 4 {
			return float64(math.Float32frombits(d.Order.Uint32(b)))
		}
		return math.Float64frombits(d.Order.Uint64(b))
	case Int:
		return float64(d.int64At(b))
	default:
		return float64(d.uint64At(b))
	}
}

func (d Dtype) int64At(b []byte) int64 {
	switch d.Kind {
	case Float:
		return int64(d.float64At(b))
	case Uint:
		return int64(d.uint64At(b))
	}
	switch d.Size {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(d.Order.Uint16(b)))
	case 4:
		return int64(int32(d.Order.Uint32(b)))
	default:
		return int64(d.Order.Uint64(b))
	}
}

func (d Dtype) uint64At(b []byte) uint64 {
	switch d.Kind {
	case Float:
		return uint64(d.float64At(b))
	case Int:
		return uint64(d.int64At(b))
	}
	switch d.Size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(d.Order.Uint16(b))
	case 4:
		return uint64(d.Order.Uint32(b))
	default:
		return d.Order.Uint64(b)
	}
}

// ColumnSpec describes one column: element type and per-row shape.
type ColumnSpec struct {
	Name  string
	Dtype Dtype
	Shape []int
}

// Elements returns the number of elements in one row.
func (c ColumnSpec) Elements() int {
	n := 1
	for _, d := range c.Shape {
		n *= d
	}
	return n
}

// RowSize returns the size of one row in bytes.
func (c ColumnSpec) RowSize() int {
	return c.Elements() * c.Dtype.Size
}

// Equal reports whether c and o have the same dtype and row shape.
func (c ColumnSpec) Equal(o ColumnSpec) bool {
	return c.Dtype.equal(o.Dtype) && slices.Equal(c.Shape, o.Shape)
}

func (c ColumnSpec) String() string {
	return fmt.Sprintf("%s %s %v", c.Name, c.Dtype, c.Shape)
}

// Schema is the ordered list of columns of a view.
type Schema []ColumnSpec

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for i, c := range s {
		c.Shape = slices.Clone(c.Shape)
		out[i] = c
	}
	return out
}

// Lookup returns the column named name.
func (s Schema) Lookup(name string) (ColumnSpec, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// RecordSize is the packed size of one record in bytes.
func (s Schema) RecordSize() int {
	n := 0
	for _, c := range s {
		n += c.RowSize()
	}
	return n
}

// Offset returns the byte offset of column name within a record, or -1.
func (s Schema) Offset(name string) int {
	off := 0
	for _, c := range s {
		if c.Name == name {
			return off
		}
		off += c.RowSize()
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}
