// Package dtype converts between raw HDF5 elements and Go values.
//
// A [Decoder] reads elements of any class into plain Go values and follows
// variable-length strings and sequences into the global heap:
//
//	vals, err := dtype.NewDecoder(reader).Values(datatype, raw, n)
//
// Attribute values are written through [GoTypeToDatatype] and [Encode]:
//
//	dt, err := dtype.GoTypeToDatatype(reflect.TypeOf(1.0))
//	data, err := dtype.Encode(dt, []float64{1, 2})
package dtype
