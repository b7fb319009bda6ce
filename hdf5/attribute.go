package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/dtype"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
	"github.com/robert-malhotra/cosmohdf5/internal/object"
)

// Attribute represents an HDF5 attribute attached to a dataset or group.
type Attribute struct {
	msg    *message.Attribute
	reader *binary.Reader // For resolving global heap references
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar()
}

func (a *Attribute) values() ([]any, error) {
	if a.msg.Datatype == nil {
		return nil, fmt.Errorf("attribute %s has no datatype", a.msg.Name)
	}
	if a.msg.Data == nil {
		return nil, fmt.Errorf("attribute %s has no data", a.msg.Name)
	}
	n := uint64(1)
	if a.msg.Dataspace != nil {
		n = a.msg.Dataspace.NumElements()
	}
	return dtype.NewDecoder(a.reader).Values(a.msg.Datatype, a.msg.Data, n)
}

// typed converts decoded values that all share the Go type T.
func typed[T any](vals []any) ([]T, error) {
	out := make([]T, len(vals))
	for i, v := range vals {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, want %T", i, v, t)
		}
		out[i] = t
	}
	return out, nil
}

// Value reads the attribute as a Go value:
//   - signed integers and enums: int64 or []int64
//   - unsigned integers: uint64 or []uint64
//   - floats: float64 or []float64
//   - fixed and variable-length strings: string or []string
//   - compounds: map[string]interface{} or []interface{} of maps
//
// A scalar attribute yields its single element. Other classes come back as
// []interface{} of decoded elements.
func (a *Attribute) Value() (interface{}, error) {
	vals, err := a.values()
	if err != nil {
		return nil, err
	}
	if a.IsScalar() && len(vals) == 1 {
		return vals[0], nil
	}

	dt := a.msg.Datatype
	switch {
	case dt.Class == message.ClassFixedPoint && !dt.Signed:
		return typed[uint64](vals)
	case dt.Class == message.ClassFixedPoint, dt.Class == message.ClassEnum:
		return typed[int64](vals)
	case dt.Class == message.ClassFloatPoint:
		return typed[float64](vals)
	case dt.IsString():
		return typed[string](vals)
	}
	return vals, nil
}

// attrNames lists the attribute messages of an object header.
func attrNames(h *object.Header) []string {
	if h == nil {
		return nil
	}
	var names []string
	for _, m := range h.GetMessages(message.TypeAttribute) {
		names = append(names, m.(*message.Attribute).Name)
	}
	return names
}

func findAttr(h *object.Header, r *binary.Reader, name string) *Attribute {
	if h == nil {
		return nil
	}
	for _, m := range h.GetMessages(message.TypeAttribute) {
		if attr := m.(*message.Attribute); attr.Name == name {
			return &Attribute{msg: attr, reader: r}
		}
	}
	return nil
}
