package dtype

import (
	bin "encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Encode lays out src as elements of dt. src is a number, a string, or a
// slice or array of them; integers and floats convert to the width of dt.
func Encode(dt *message.Datatype, src any) ([]byte, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}
	v := reflect.Indirect(reflect.ValueOf(src))
	if !v.IsValid() {
		return nil, fmt.Errorf("nothing to encode")
	}
	if k := v.Kind(); k != reflect.Slice && k != reflect.Array {
		one := reflect.MakeSlice(reflect.SliceOf(v.Type()), 1, 1)
		one.Index(0).Set(v)
		v = one
	}

	size := int(dt.Size)
	out := make([]byte, v.Len()*size)
	order := byteOrder(dt)
	for i := 0; i < v.Len(); i++ {
		if err := put(dt, out[i*size:(i+1)*size], v.Index(i), order); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

func put(dt *message.Datatype, b []byte, e reflect.Value, order bin.ByteOrder) error {
	switch dt.Class {
	case message.ClassFixedPoint:
		var u uint64
		switch {
		case e.CanInt():
			u = uint64(e.Int())
		case e.CanUint():
			u = e.Uint()
		default:
			return fmt.Errorf("cannot encode %s as an integer", e.Type())
		}
		for i := range b {
			j := i
			if order == bin.BigEndian {
				j = len(b) - 1 - i
			}
			b[j] = byte(u >> (8 * i))
		}
	case message.ClassFloatPoint:
		if !e.CanFloat() {
			return fmt.Errorf("cannot encode %s as a float", e.Type())
		}
		switch len(b) {
		case 4:
			order.PutUint32(b, math.Float32bits(float32(e.Float())))
		case 8:
			order.PutUint64(b, math.Float64bits(e.Float()))
		default:
			return fmt.Errorf("cannot encode %d byte floats", len(b))
		}
	case message.ClassString:
		if e.Kind() != reflect.String {
			return fmt.Errorf("cannot encode %s as a string", e.Type())
		}
		n := copy(b, e.String())
		if dt.StringPadding == message.PadSpacePad {
			for j := n; j < len(b); j++ {
				b[j] = ' '
			}
		}
	default:
		return fmt.Errorf("cannot encode datatype class %d", dt.Class)
	}
	return nil
}

// GoTypeToDatatype returns the little-endian datatype for the element type
// of t. Strings map to variable-length UTF-8 strings.
func GoTypeToDatatype(t reflect.Type) (*message.Datatype, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	size := uint32(t.Size())
	switch k := t.Kind(); {
	case k >= reflect.Int && k <= reflect.Int64:
		return message.NewFixedPointDatatype(size, true, message.OrderLE), nil
	case k >= reflect.Uint && k <= reflect.Uint64:
		return message.NewFixedPointDatatype(size, false, message.OrderLE), nil
	case k == reflect.Float32 || k == reflect.Float64:
		return message.NewFloatDatatype(size, message.OrderLE), nil
	case k == reflect.String:
		return message.NewVarLenStringDatatype(message.CharsetUTF8), nil
	}
	return nil, fmt.Errorf("unsupported Go type: %v", t)
}
