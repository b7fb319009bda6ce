package dtype

import (
	"bytes"
	bin "encoding/binary"
	"fmt"
	"math"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/heap"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

func byteOrder(dt *message.Datatype) bin.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return bin.BigEndian
	}
	return bin.LittleEndian
}

// Decoder turns raw elements into Go values. It keeps the global heap
// collections that variable-length values point into, so one Decoder
// should serve all elements of a read.
type Decoder struct {
	reader *binary.Reader
	heaps  map[uint64]*heap.GlobalHeap
}

// NewDecoder returns a Decoder that resolves variable-length data through
// r. A nil reader is fine for types without variable-length parts.
func NewDecoder(r *binary.Reader) *Decoder {
	return &Decoder{reader: r, heaps: make(map[uint64]*heap.GlobalHeap)}
}

// Values decodes n elements of dt laid out back to back in data.
//
// Integers decode to int64 or uint64 by signedness, enums to int64, floats
// to float64, strings to string, compounds to map[string]any keyed by
// member name, arrays and variable-length sequences to []any, and opaque
// or reference elements to a copy of their bytes.
func (d *Decoder) Values(dt *message.Datatype, data []byte, n uint64) ([]any, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}
	size := uint64(dt.Size)
	if size == 0 {
		return nil, fmt.Errorf("datatype of class %d has zero size", dt.Class)
	}
	if n > uint64(len(data))/size {
		return nil, fmt.Errorf("%d elements of %d bytes need more than the %d bytes given", n, size, len(data))
	}
	out := make([]any, n)
	for i := range out {
		v, err := d.value(dt, data[uint64(i)*size:][:size])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) value(dt *message.Datatype, b []byte) (any, error) {
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassBitfield:
		if len(b) > 8 {
			return nil, fmt.Errorf("%d byte integers are not supported", len(b))
		}
		u := uintOf(b, byteOrder(dt))
		if dt.Signed {
			shift := 64 - 8*len(b)
			return int64(u<<shift) >> shift, nil
		}
		return u, nil

	case message.ClassEnum:
		if dt.BaseType == nil {
			return nil, fmt.Errorf("enum without a base type")
		}
		v, err := d.value(dt.BaseType, b)
		if u, ok := v.(uint64); ok {
			v = int64(u)
		}
		return v, err

	case message.ClassFloatPoint:
		return floatOf(b, byteOrder(dt))

	case message.ClassString:
		if dt.StringPadding == message.PadSpacePad {
			return string(bytes.TrimRight(b, " ")), nil
		}
		return trimNul(b), nil

	case message.ClassVarLen:
		return d.varLen(dt, b)

	case message.ClassCompound:
		m := make(map[string]any, len(dt.Members))
		for _, mem := range dt.Members {
			end := uint64(mem.ByteOffset) + uint64(mem.Type.Size)
			if end > uint64(len(b)) {
				return nil, fmt.Errorf("member %q ends at byte %d of a %d byte element", mem.Name, end, len(b))
			}
			v, err := d.value(mem.Type, b[mem.ByteOffset:end])
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", mem.Name, err)
			}
			m[mem.Name] = v
		}
		return m, nil

	case message.ClassArray:
		if dt.BaseType == nil {
			return nil, fmt.Errorf("array without a base type")
		}
		n := uint64(1)
		for _, dim := range dt.ArrayDims {
			n *= uint64(dim)
		}
		return d.Values(dt.BaseType, b, n)

	case message.ClassOpaque, message.ClassReference:
		return bytes.Clone(b), nil
	}
	return nil, fmt.Errorf("cannot decode datatype class %d", dt.Class)
}

// varLen resolves a variable-length element: a four byte count followed by
// a global heap ID. A zero collection address is an empty value.
func (d *Decoder) varLen(dt *message.Datatype, b []byte) (any, error) {
	offsetSize := 8
	if d.reader != nil {
		offsetSize = d.reader.OffsetSize()
	}
	if len(b) < 4 {
		return nil, fmt.Errorf("variable-length element of %d bytes", len(b))
	}
	count := uint64(bin.LittleEndian.Uint32(b))
	id, err := heap.ParseGlobalHeapID(b[4:], offsetSize)
	if err != nil {
		return nil, err
	}

	var obj []byte
	if id.CollectionAddress != 0 {
		if d.reader == nil {
			return nil, fmt.Errorf("variable-length data at %#x needs the file reader", id.CollectionAddress)
		}
		gh, ok := d.heaps[id.CollectionAddress]
		if !ok {
			if gh, err = heap.ReadGlobalHeap(d.reader, id.CollectionAddress); err != nil {
				return nil, fmt.Errorf("reading global heap at %#x: %w", id.CollectionAddress, err)
			}
			d.heaps[id.CollectionAddress] = gh
		}
		if obj, err = gh.GetObject(uint16(id.ObjectIndex)); err != nil {
			return nil, err
		}
	}

	if dt.IsVarLenString {
		return trimNul(obj[:min(count, uint64(len(obj)))]), nil
	}
	if dt.VarLenType == nil {
		return nil, fmt.Errorf("variable-length sequence without a base type")
	}
	if id.CollectionAddress == 0 {
		return []any{}, nil
	}
	return d.Values(dt.VarLenType, obj, count)
}

func uintOf(b []byte, order bin.ByteOrder) uint64 {
	var u uint64
	for i := range b {
		j := i
		if order == bin.LittleEndian {
			j = len(b) - 1 - i
		}
		u = u<<8 | uint64(b[j])
	}
	return u
}

func floatOf(b []byte, order bin.ByteOrder) (float64, error) {
	switch len(b) {
	case 2:
		return halfToFloat(order.Uint16(b)), nil
	case 4:
		return float64(math.Float32frombits(order.Uint32(b))), nil
	case 8:
		return math.Float64frombits(order.Uint64(b)), nil
	}
	return 0, fmt.Errorf("%d byte floats are not supported", len(b))
}

// halfToFloat widens an IEEE 754 binary16 value.
func halfToFloat(h uint16) float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1F
	frac := float64(h & 0x3FF)
	switch exp {
	case 0:
		return sign * math.Ldexp(frac, -24)
	case 0x1F:
		if frac != 0 {
			return math.NaN()
		}
		return math.Inf(int(sign))
	}
	return sign * math.Ldexp(frac+1024, exp-25)
}

func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
