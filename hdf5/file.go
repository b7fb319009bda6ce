package hdf5

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/cosmohdf5/internal/alloc"
	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/object"
	"github.com/robert-malhotra/cosmohdf5/internal/superblock"
)

// File is an open HDF5 file.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool

	// externalFiles caches the targets of external links by file name.
	externalFiles map[string]*File

	writable  bool
	writer    *binary.Writer
	allocator *alloc.Allocator
	created   map[string]*Group
}

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := openFile(path, osf)
	if err != nil {
		osf.Close()
		return nil, err
	}
	return f, nil
}

func openFile(path string, osf *os.File) (*File, error) {
	sb, err := superblock.Read(osf)
	if err != nil {
		return nil, fmt.Errorf("%s: reading superblock: %w", path, err)
	}
	f := &File{path: path, file: osf, reader: binary.NewReader(osf, sb.ReaderConfig()), superblock: sb}

	h, err := object.Read(f.reader, sb.RootGroupAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: opening root group: %w", path, err)
	}
	f.root = &Group{file: f, path: "/", header: h, addr: sb.RootGroupAddress}
	return f, nil
}

// Close finishes a file being written and closes it together with every
// file opened through its external links.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	if f.writable {
		errs = append(errs, f.flush())
	}
	for _, ext := range f.externalFiles {
		errs = append(errs, ext.Close())
	}
	f.externalFiles = nil
	errs = append(errs, f.file.Close())
	return errors.Join(errs...)
}

// Root returns the root group.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// openAt opens the object whose header is at addr. Headers carrying a
// dataspace are datasets; the rest are groups. Groups created through f
// are returned as they are, pending members included.
func (f *File) openAt(addr uint64, path string) (any, error) {
	if g, ok := f.created[path]; ok && g.addr == addr {
		return g, nil
	}
	h, err := object.Read(f.reader, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if h.Dataspace() != nil {
		ds, err := newDataset(f, path, h)
		if err != nil {
			return nil, err
		}
		return ds, nil
	}
	return &Group{file: f, path: path, header: h, addr: addr}, nil
}

// attributeHolder is a group or a dataset.
type attributeHolder interface {
	Attrs() []string
	Attr(name string) *Attribute
}

// object opens the group or dataset at path.
func (f *File) object(path string) (attributeHolder, error) {
	if f.closed {
		return nil, ErrClosed
	}
	obj, err := newResolver().lookup(f.root, splitPath(path))
	if err != nil {
		return nil, err
	}
	return obj.(attributeHolder), nil
}

// GetAttr returns the attribute named by an attribute path such as
// "/@Redshift" or "/PartType1/Coordinates@units".
func (f *File) GetAttr(attrPath string) (*Attribute, error) {
	objectPath, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return nil, err
	}
	obj, err := f.object(objectPath)
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", objectPath, err)
	}
	attr := obj.Attr(name)
	if attr == nil {
		return nil, fmt.Errorf("attribute %s: %w", attrPath, ErrNotFound)
	}
	return attr, nil
}

// AttrValues reads every attribute of the group or dataset at path into a
// map keyed by attribute name. Values follow Attribute.Value.
func (f *File) AttrValues(path string) (map[string]interface{}, error) {
	obj, err := f.object(path)
	if err != nil {
		return nil, err
	}
	values := make(map[string]interface{})
	for _, name := range obj.Attrs() {
		v, err := obj.Attr(name).Value()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %s: %w", JoinAttrPath(path, name), err)
		}
		values[name] = v
	}
	return values, nil
}
