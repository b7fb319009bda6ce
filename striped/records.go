package striped

import (
	"fmt"
)

// Records is a block of assembled rows. Each record packs the view's
// columns in order with no padding.
type Records struct {
	schema Schema
	stride int
	n      int
	buf    []byte
}

func newRecords(schema Schema, n int) *Records {
	stride := schema.RecordSize()
	return &Records{
		schema: schema,
		stride: stride,
		n:      n,
		buf:    make([]byte, n*stride),
	}
}

// Len returns the number of records.
func (r *Records) Len() int { return r.n }

// Schema returns a copy of the record layout.
func (r *Records) Schema() Schema { return r.schema.Clone() }

// Bytes returns the packed record buffer. It is not copied.
func (r *Records) Bytes() []byte { return r.buf }

// Row returns the packed bytes of record k.
func (r *Records) Row(k int) []byte {
	return r.buf[k*r.stride : (k+1)*r.stride]
}

// put scatters count rows of one column, read contiguously from a shard,
// into records [at, at+count).
func (r *Records) put(col int, at int, src []byte) {
	off := 0
	for _, c := range r.schema[:col] {
		off += c.RowSize()
	}
	size := r.schema[col].RowSize()
	for k := 0; k*size < len(src); k++ {
		dst := (at+k)*r.stride + off
		copy(r.buf[dst:dst+size], src[k*size:(k+1)*size])
	}
}

// Column copies one field of every record into a contiguous buffer, in
// the column's own byte order.
func (r *Records) Column(name string) ([]byte, error) {
	spec, ok := r.schema.Lookup(name)
	if !ok {
		return nil, &SchemaError{Shard: -1, Column: name, Reason: "not in view"}
	}
	off := r.schema.Offset(name)
	size := spec.RowSize()

	out := make([]byte, r.n*size)
	for k := 0; k < r.n; k++ {
		src := k*r.stride + off
		copy(out[k*size:(k+1)*size], r.buf[src:src+size])
	}
	return out, nil
}

// elements decodes every element of column name, flattened row-major over
// the row shape.
func elements[T any](r *Records, name string, at func(Dtype, []byte) T) ([]T, error) {
	raw, err := r.Column(name)
	if err != nil {
		return nil, err
	}
	spec, _ := r.schema.Lookup(name)
	if !spec.Dtype.Decodable() {
		return nil, &SchemaError{Shard: -1, Column: name, Reason: fmt.Sprintf("cannot decode element type %s", spec.Dtype)}
	}
	size := spec.Dtype.Size

	out := make([]T, len(raw)/size)
	for i := range out {
		out[i] = at(spec.Dtype, raw[i*size:])
	}
	return out, nil
}

// Float64s decodes column name as float64 values.
func (r *Records) Float64s(name string) ([]float64, error) {
	return elements(r, name, Dtype.float64At)
}

// Float32s decodes column name as float32 values.
func (r *Records) Float32s(name string) ([]float32, error) {
	return elements(r, name, func(d Dtype, b []byte) float32 {
		return float32(d.float64At(b))
	})
}

// Int64s decodes column name as int64 values.
func (r *Records) Int64s(name string) ([]int64, error) {
	return elements(r, name, Dtype.int64At)
}

// Uint64s decodes column name as uint64 values.
func (r *Records) Uint64s(name string) ([]uint64, error) {
	return elements(r, name, Dtype.uint64At)
}

func (r *Records) String() string {
	return fmt.Sprintf("Records(%d x %d bytes)", r.n, r.stride)
}
