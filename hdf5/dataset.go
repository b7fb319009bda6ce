package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/layout"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
	"github.com/robert-malhotra/cosmohdf5/internal/object"
)

// Dataset is an HDF5 dataset: a dataspace, a datatype and the layout
// that locates its elements.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout
}

// newDataset builds a Dataset from its object header.
func newDataset(f *File, path string, h *object.Header) (*Dataset, error) {
	ds := &Dataset{file: f, path: path, header: h, dataspace: h.Dataspace(), datatype: h.Datatype()}
	lm := h.DataLayout()

	var missing string
	switch {
	case ds.dataspace == nil:
		missing = "dataspace"
	case ds.datatype == nil:
		missing = "datatype"
	case lm == nil:
		missing = "layout"
	}
	if missing != "" {
		return nil, fmt.Errorf("dataset %s has no %s message", path, missing)
	}

	var err error
	if ds.layout, err = layout.New(lm, ds.dataspace, ds.datatype, h.FilterPipeline(), f.reader); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if fv := h.FillValue(); fv != nil && fv.IsDefined {
		if ch, ok := ds.layout.(*layout.Chunked); ok {
			ch.SetFill(fv.Value)
		}
	}
	return ds, nil
}

// Path returns the full path to this dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the dimensions of the dataset.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.IsScalar() {
		return nil
	}
	return d.dataspace.Dimensions
}

// NumElements returns the total number of elements.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace.NumElements()
}

// IsScalar returns true if the dataset is a scalar (single value).
func (d *Dataset) IsScalar() bool {
	return d.dataspace.IsScalar()
}

// DtypeSize returns the size of each element in bytes.
func (d *Dataset) DtypeSize() int {
	return int(d.datatype.Size)
}

// DtypeClass returns the datatype class.
func (d *Dataset) DtypeClass() message.DatatypeClass {
	return d.datatype.Class
}

// Attrs returns the attribute names of this dataset.
func (d *Dataset) Attrs() []string {
	return attrNames(d.header)
}

// Attr returns an attribute by name, or nil if there is none.
func (d *Dataset) Attr(name string) *Attribute {
	return findAttr(d.header, d.file.reader, name)
}
