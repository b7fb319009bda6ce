package convert

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/hdf5"
	"github.com/robert-malhotra/cosmohdf5/striped"
)

// ToHDF5 writes the particles of view as HDF5 files dest.0.hdf5,
// dest.1.hdf5, and so on. Each file holds a Header dataset carrying attrs
// plus NumFilesPerSnapshot, and Matter/Position, Matter/Velocity and
// Matter/ParticleID in the dtypes of the view, chunked when
// opts.ChunkRows is set.
func ToHDF5(ctx context.Context, view *striped.View, attrs striped.Attributes, dest string, opts Options) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := requireColumns(view, "Position", "Velocity", opts.IDColumn); err != nil {
		return nil, err
	}
	if err := makeParent(dest); err != nil {
		return nil, err
	}

	chunks := Plan(view.Size(), opts.NPerFile)
	header := attrs.Clone()
	header["NumFilesPerSnapshot"] = int64(len(chunks))

	columns := []struct{ from, to string }{
		{"Position", "Position"},
		{"Velocity", "Velocity"},
		{opts.IDColumn, "ParticleID"},
	}

	return run(ctx, view, chunks, opts, func(c Chunk, recs *striped.Records) (string, error) {
		path := fmt.Sprintf("%s.%d.hdf5", dest, c.Index)
		f, err := hdf5.Create(path)
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
		if err := writeHeader(f.Root(), header); err != nil {
			f.Close()
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		matter, err := f.Root().CreateGroup("Matter")
		if err != nil {
			f.Close()
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		for _, col := range columns {
			if err := writeColumn(matter, col.to, recs, col.from, opts.ChunkRows); err != nil {
				f.Close()
				return "", fmt.Errorf("writing %s: %w", path, err)
			}
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing %s: %w", path, err)
		}
		return path, nil
	})
}

// writeHeader stores attrs on an empty Header dataset, in key order.
func writeHeader(g *hdf5.Group, attrs striped.Attributes) error {
	keys := attrs.Keys()
	opts := make([]hdf5.DatasetOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, hdf5.WithAttribute(k, attrs[k]))
	}
	_, err := g.CreateNumericDataset("Header", []uint64{0}, hdf5.Numeric{Kind: hdf5.NumericFloat, Size: 8}, nil, opts...)
	return err
}

// writeColumn copies column from of recs into a dataset named name,
// keeping its element type and trailing shape. A positive chunkRows
// selects chunked storage.
func writeColumn(g *hdf5.Group, name string, recs *striped.Records, from string, chunkRows int64) error {
	spec, ok := recs.Schema().Lookup(from)
	if !ok {
		return &striped.SchemaError{Shard: -1, Column: from, Reason: "column is not part of the view"}
	}
	raw, err := recs.Column(from)
	if err != nil {
		return err
	}

	dims := []uint64{uint64(recs.Len())}
	for _, d := range spec.Shape {
		dims = append(dims, uint64(d))
	}
	elem := hdf5.Numeric{
		Kind:      numericKind(spec.Dtype.Kind),
		Size:      spec.Dtype.Size,
		BigEndian: spec.Dtype.Order == binary.BigEndian,
	}
	var opts []hdf5.DatasetOption
	if chunkRows > 0 && dims[0] > 0 {
		chunks := append([]uint64{min(uint64(chunkRows), dims[0])}, dims[1:]...)
		opts = append(opts, hdf5.WithChunks(chunks...))
	}
	_, err = g.CreateNumericDataset(name, dims, elem, raw, opts...)
	return err
}

func numericKind(k striped.Kind) hdf5.NumericKind {
	switch k {
	case striped.Float:
		return hdf5.NumericFloat
	case striped.Uint:
		return hdf5.NumericUint
	default:
		return hdf5.NumericInt
	}
}
