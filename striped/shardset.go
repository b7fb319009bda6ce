package striped

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/cosmohdf5/hdf5"
)

// ShardSet is an ordered list of HDF5 shard files sharing a logical root
// path. Shard order defines global row order.
type ShardSet struct {
	paths  []string
	root   string
	attrs  Attributes
	opts   []Option
	logger *zap.Logger
}

// Open builds a ShardSet over locations, in the given order. The attributes
// of the object at root in the first shard are read once here.
func Open(locations []string, root string, opts ...Option) (*ShardSet, error) {
	options := defaultSetOptions()
	for _, opt := range opts {
		opt(options)
	}

	if len(locations) == 0 {
		return nil, &IOError{Op: "open", Path: root, Err: errors.New("no shard locations")}
	}

	s := &ShardSet{
		paths:  append([]string(nil), locations...),
		root:   cleanRoot(root),
		opts:   opts,
		logger: options.logger,
	}

	attrs, err := readAttrs(s.paths[0], s.root)
	if err != nil {
		return nil, err
	}
	s.attrs = attrs

	s.logger.Debug("opened shard set",
		zap.Int("shards", len(s.paths)),
		zap.String("root", s.root),
		zap.Int("attrs", len(attrs)),
	)
	return s, nil
}

// Glob builds a ShardSet from the files matching pattern.
//
// Matches are taken in lexical order, which becomes row order: "snap.10"
// sorts before "snap.2". Pass an explicit list to Open when row order
// matters.
func Glob(pattern string, root string, opts ...Option) (*ShardSet, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &IOError{Op: "glob", Path: pattern, Err: err}
	}
	if len(matches) == 0 {
		return nil, &IOError{Op: "glob", Path: pattern, Err: fs.ErrNotExist}
	}
	return Open(matches, root, opts...)
}

func cleanRoot(root string) string {
	return path.Clean("/" + strings.TrimSpace(root))
}

func readAttrs(location, root string) (Attributes, error) {
	f, err := hdf5.Open(location)
	if err != nil {
		return nil, &IOError{Op: "open", Path: location, Err: err}
	}
	defer f.Close()

	values, err := f.AttrValues(root)
	if err != nil {
		return nil, &IOError{Op: "read attributes of " + root, Path: location, Err: err}
	}
	return Attributes(values), nil
}

// NumShards returns the number of shards.
func (s *ShardSet) NumShards() int { return len(s.paths) }

// Paths returns the shard locations in row order.
func (s *ShardSet) Paths() []string { return append([]string(nil), s.paths...) }

// Root returns the logical root path inside each shard.
func (s *ShardSet) Root() string { return s.root }

// Attrs returns the attributes read from the first shard at open time.
func (s *ShardSet) Attrs() Attributes { return s.attrs }

// Sub returns a ShardSet over the same shards rooted at root/name.
func (s *ShardSet) Sub(name string) (*ShardSet, error) {
	return Open(s.paths, path.Join(s.root, name), s.opts...)
}

// Shard opens shard i.
func (s *ShardSet) Shard(i int) (Shard, error) {
	if i < 0 || i >= len(s.paths) {
		return nil, &RangeError{What: "shard", Start: int64(i), End: int64(i) + 1, Size: int64(len(s.paths))}
	}
	location := s.paths[i]

	f, err := hdf5.Open(location)
	if err != nil {
		return nil, &IOError{Op: "open", Path: location, Err: err}
	}

	group := f.Root()
	if s.root != "/" {
		group, err = f.OpenGroup(s.root)
		if err != nil {
			f.Close()
			return nil, &IOError{Op: "open group " + s.root, Path: location, Err: err}
		}
	}

	s.logger.Debug("opened shard", zap.Int("shard", i), zap.String("path", location))
	return &fileShard{index: i, path: location, file: f, group: group}, nil
}

type fileShard struct {
	index int
	path  string
	file  *hdf5.File
	group *hdf5.Group
}

func (s *fileShard) Column(name string) (Column, error) {
	ds, err := s.group.OpenDataset(name)
	if err != nil {
		if errors.Is(err, hdf5.ErrNotFound) || errors.Is(err, hdf5.ErrNotDataset) {
			return nil, &SchemaError{Shard: s.index, Column: name, Reason: "no such dataset", Err: err}
		}
		return nil, &IOError{Op: "open dataset " + name, Path: s.path, Err: err}
	}
	return newFileColumn(s, name, ds)
}

func (s *fileShard) Columns() ([]string, error) {
	members, err := s.group.Members()
	if err != nil {
		return nil, &IOError{Op: "list " + s.group.Path(), Path: s.path, Err: err}
	}
	var names []string
	for _, m := range members {
		if _, err := s.Column(m); err == nil {
			names = append(names, m)
		}
	}
	return names, nil
}

func (s *fileShard) Close() error {
	return s.file.Close()
}

type fileColumn struct {
	shard *fileShard
	ds    *hdf5.Dataset
	spec  ColumnSpec
	rows  int64
}

func newFileColumn(s *fileShard, name string, ds *hdf5.Dataset) (Column, error) {
	if ds.IsScalar() {
		return nil, &SchemaError{Shard: s.index, Column: name, Reason: "scalar dataset has no rows"}
	}
	if !ds.IsNumeric() {
		return nil, &SchemaError{Shard: s.index, Column: name, Reason: fmt.Sprintf("datatype class %d is not numeric", ds.DtypeClass())}
	}

	rows, err := ds.NumRows()
	if err != nil {
		return nil, &SchemaError{Shard: s.index, Column: name, Reason: "no rows", Err: err}
	}

	dt := Dtype{Kind: Uint, Size: ds.DtypeSize(), Order: binary.LittleEndian}
	switch {
	case ds.IsFloat():
		dt.Kind = Float
	case ds.Signed():
		dt.Kind = Int
	}
	if ds.BigEndian() {
		dt.Order = binary.BigEndian
	}
	if !dt.Decodable() {
		return nil, &SchemaError{Shard: s.index, Column: name, Reason: fmt.Sprintf("unsupported element type %s", dt)}
	}

	rowShape := ds.RowShape()
	shape := make([]int, len(rowShape))
	for i, d := range rowShape {
		shape[i] = int(d)
	}

	return &fileColumn{
		shard: s,
		ds:    ds,
		spec:  ColumnSpec{Name: name, Dtype: dt, Shape: shape},
		rows:  int64(rows),
	}, nil
}

func (c *fileColumn) Spec() ColumnSpec { return c.spec }
func (c *fileColumn) NumRows() int64   { return c.rows }

func (c *fileColumn) ReadRows(lo, hi int64) ([]byte, error) {
	if lo < 0 || lo > hi || hi > c.rows {
		return nil, &RangeError{What: "rows of " + c.spec.Name, Start: lo, End: hi, Size: c.rows}
	}
	raw, err := c.ds.ReadRows(uint64(lo), uint64(hi))
	if err != nil {
		return nil, &IOError{Op: "read " + c.ds.Path(), Path: c.shard.path, Err: err}
	}
	return raw, nil
}
