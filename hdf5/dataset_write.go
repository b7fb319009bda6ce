package hdf5

import (
	"fmt"
	"math"
	"reflect"

	"github.com/robert-malhotra/cosmohdf5/internal/dtype"
	"github.com/robert-malhotra/cosmohdf5/internal/layout"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// NumericKind is the element class of a raw numeric dataset.
type NumericKind int

const (
	NumericInt NumericKind = iota
	NumericUint
	NumericFloat
)

// Numeric describes the element type of a raw numeric buffer.
type Numeric struct {
	Kind      NumericKind
	Size      int
	BigEndian bool
}

func (n Numeric) datatype() (*message.Datatype, error) {
	order := message.OrderLE
	if n.BigEndian {
		order = message.OrderBE
	}
	switch n.Kind {
	case NumericInt, NumericUint:
		switch n.Size {
		case 1, 2, 4, 8:
			return message.NewFixedPointDatatype(uint32(n.Size), n.Kind == NumericInt, order), nil
		}
	case NumericFloat:
		switch n.Size {
		case 2, 4, 8:
			return message.NewFloatDatatype(uint32(n.Size), order), nil
		}
	}
	return nil, fmt.Errorf("numeric kind %d size %d: %w", n.Kind, n.Size, ErrUnsupported)
}

// CreateNumericDataset writes raw element bytes with explicit dimensions.
// raw must hold exactly product(dims) elements of type elem in row-major
// order and in elem's byte order.
func (g *Group) CreateNumericDataset(name string, dims []uint64, elem Numeric, raw []byte, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkNewMember(name); err != nil {
		return nil, err
	}

	datatype, err := elem.datatype()
	if err != nil {
		return nil, err
	}

	numElements := uint64(1)
	for _, d := range dims {
		numElements *= d
	}
	if want := numElements * uint64(elem.Size); uint64(len(raw)) != want {
		return nil, fmt.Errorf("data size mismatch: expected %d, got %d", want, len(raw))
	}

	return g.writeDataset(name, dims, datatype, raw, opts)
}

// writeDataset stores raw with the layout opts ask for, writes the
// object header and links it into g.
func (g *Group) writeDataset(name string, dims []uint64, dt *message.Datatype, raw []byte, opts []DatasetOption) (*Dataset, error) {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	p := g.childPath(name)

	var (
		lm  *message.DataLayout
		err error
	)
	if o.chunks != nil {
		lm, err = g.file.writeChunks(raw, dims, o.chunks, dt.Size)
	} else {
		lm, err = g.file.writeContiguous(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}

	messages := []message.Message{message.NewDataspace(dims, nil), dt, lm}
	for _, a := range o.attributes {
		m, err := attributeMessage(a.name, a.value)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", p, err)
		}
		messages = append(messages, m)
	}
	addr, err := g.file.writeObject(messages, 0)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	if err := g.addLink(message.NewHardLink(name, addr)); err != nil {
		return nil, err
	}

	obj, err := g.file.openAt(addr, p)
	if err != nil {
		return nil, err
	}
	return obj.(*Dataset), nil
}

func (f *File) writeContiguous(raw []byte) (*message.DataLayout, error) {
	addr := f.allocate(int64(len(raw)))
	if err := f.writer.At(int64(addr)).WriteBytes(raw); err != nil {
		return nil, fmt.Errorf("writing data: %w", err)
	}
	return message.NewContiguousLayout(addr, uint64(len(raw))), nil
}

// writeChunks stores raw as blocks of whole rows. A single chunk covering
// the dataset is indexed implicitly; anything else gets a fixed array
// index.
func (f *File) writeChunks(raw []byte, dims, chunks []uint64, elemSize uint32) (*message.DataLayout, error) {
	cd := make([]uint32, len(chunks))
	for i, c := range chunks {
		if c > math.MaxUint32 {
			return nil, fmt.Errorf("chunk dimension %d is %d, more than 32 bits", i, c)
		}
		cd[i] = uint32(c)
	}
	parts, err := layout.SplitIntoChunks(raw, dims, cd, elemSize)
	if err != nil {
		return nil, err
	}
	cw := layout.NewChunkWriter(f.writer, cd, elemSize, f.allocate)
	addrs, err := cw.WriteChunks(parts)
	if err != nil {
		return nil, err
	}

	if len(addrs) == 1 && chunkEqualsExtent(cd, dims) {
		lm := message.NewChunkedLayout(cd, elemSize, message.ChunkIndexSingleChunk)
		lm.ChunkIndexAddr = addrs[0]
		return lm, nil
	}
	index, err := cw.WriteFixedArrayIndex(addrs)
	if err != nil {
		return nil, fmt.Errorf("writing chunk index: %w", err)
	}
	lm := message.NewChunkedLayout(cd, elemSize, message.ChunkIndexFixedArray)
	lm.ChunkIndexAddr = index
	lm.PageBits = layout.FixedArrayPageBits(len(addrs))
	return lm, nil
}

// chunkEqualsExtent reports whether one chunk covers the dataset exactly,
// the only shape stored under a single chunk index.
func chunkEqualsExtent(chunk []uint32, dims []uint64) bool {
	for i, c := range chunk {
		if uint64(c) != dims[i] {
			return false
		}
	}
	return true
}

// attributeMessage encodes value, a scalar or a slice of numbers or
// strings, as an attribute. Strings are stored NUL terminated at the
// width of the longest one.
func attributeMessage(name string, value any) (*message.Attribute, error) {
	v := reflect.Indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return nil, fmt.Errorf("attribute %q has no value", name)
	}
	space := message.NewScalarDataspace()
	elem := v.Type()
	if k := v.Kind(); k == reflect.Slice || k == reflect.Array {
		space = message.NewDataspace([]uint64{uint64(v.Len())}, nil)
		elem = elem.Elem()
	}

	var dt *message.Datatype
	if elem.Kind() == reflect.String {
		dt = message.NewStringDatatype(uint32(longest(v))+1, message.PadNullTerm, message.CharsetASCII)
	} else {
		var err error
		if dt, err = dtype.GoTypeToDatatype(elem); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
	}
	data, err := dtype.Encode(dt, v.Interface())
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return message.NewAttribute(name, dt, space, data), nil
}

// longest returns the length of a string, or of the longest string in a
// slice of them.
func longest(v reflect.Value) int {
	if v.Kind() == reflect.String {
		return v.Len()
	}
	n := 0
	for i := range v.Len() {
		n = max(n, v.Index(i).Len())
	}
	return n
}
