package striped

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// View is a fixed selection of columns over every shard of a Source,
// addressed by global row number.
type View struct {
	src     Source
	columns []string
	schema  Schema
	offsets []int64
	opts    *viewOptions
}

// NewView validates columns across all shards of src and builds the offset
// index. Every shard must carry every column with the dtype and row shape
// seen in shard 0, and all columns of a shard must have the same number of
// rows.
func NewView(src Source, columns []string, opts ...ViewOption) (*View, error) {
	options := defaultViewOptions()
	for _, opt := range opts {
		opt(options)
	}

	if len(columns) == 0 {
		return nil, &SchemaError{Shard: -1, Reason: "no columns selected"}
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, &SchemaError{Shard: -1, Column: c, Reason: "selected more than once"}
		}
		seen[c] = true
	}

	n := src.NumShards()
	if n == 0 {
		return nil, &SchemaError{Shard: -1, Reason: "source has no shards"}
	}

	v := &View{
		src:     src,
		columns: append([]string(nil), columns...),
		offsets: make([]int64, n+1),
		opts:    options,
	}

	for i := 0; i < n; i++ {
		specs, counts, err := inspectShard(src, i, v.columns)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			v.schema = specs
		} else {
			for j, spec := range specs {
				if !spec.Equal(v.schema[j]) {
					return nil, &SchemaError{
						Shard:  i,
						Column: spec.Name,
						Reason: fmt.Sprintf("%s %v differs from shard 0 (%s %v)", spec.Dtype, spec.Shape, v.schema[j].Dtype, v.schema[j].Shape),
					}
				}
			}
		}

		for j := 1; j < len(counts); j++ {
			if counts[j] != counts[0] {
				return nil, &SchemaError{
					Shard:  i,
					Column: v.columns[j],
					Reason: fmt.Sprintf("%d rows, but column %q has %d", counts[j], v.columns[0], counts[0]),
				}
			}
		}
		v.offsets[i+1] = v.offsets[i] + counts[0]
	}

	options.logger.Debug("built striped view",
		zap.Strings("columns", v.columns),
		zap.Int("shards", n),
		zap.Int64("rows", v.Size()),
		zap.Int("record_size", v.schema.RecordSize()),
	)
	return v, nil
}

func inspectShard(src Source, i int, columns []string) (Schema, []int64, error) {
	shard, err := src.Shard(i)
	if err != nil {
		return nil, nil, err
	}
	defer shard.Close()

	specs := make(Schema, len(columns))
	counts := make([]int64, len(columns))
	for j, name := range columns {
		col, err := shard.Column(name)
		if err != nil {
			return nil, nil, err
		}
		specs[j] = col.Spec()
		specs[j].Name = name
		specs[j].Shape = slices.Clone(specs[j].Shape)
		if !specs[j].Dtype.Decodable() {
			return nil, nil, &SchemaError{Shard: i, Column: name, Reason: fmt.Sprintf("unsupported element type %s", specs[j].Dtype)}
		}
		counts[j] = col.NumRows()
	}
	return specs, counts, nil
}

// Size returns the total number of rows.
func (v *View) Size() int64 { return v.offsets[len(v.offsets)-1] }

// Schema returns the record layout of reads.
func (v *View) Schema() Schema { return v.schema.Clone() }

// Columns returns the selected column names in record order.
func (v *View) Columns() []string { return append([]string(nil), v.columns...) }

// NumShards returns the number of shards.
func (v *View) NumShards() int { return len(v.offsets) - 1 }

// Offsets returns a copy of the offset index: NumShards()+1 entries, the
// first 0 and the last Size().
func (v *View) Offsets() []int64 { return append([]int64(nil), v.offsets...) }

func (v *View) checkRange(start, end int64) error {
	if start < 0 || start > end || end > v.Size() {
		return &RangeError{What: "rows", Start: start, End: end, Size: v.Size()}
	}
	return nil
}

// Resolve returns the shard segments that serve rows [start, end).
func (v *View) Resolve(start, end int64) ([]Segment, error) {
	if err := v.checkRange(start, end); err != nil {
		return nil, err
	}
	return Resolve(v.offsets, start, end), nil
}

// Read assembles rows [start, end). Row k of the result is global row
// start+k.
func (v *View) Read(start, end int64) (*Records, error) {
	return v.ReadContext(context.Background(), start, end)
}

// ReadContext is Read with cancellation between shard segments.
func (v *View) ReadContext(ctx context.Context, start, end int64) (*Records, error) {
	recs, err := v.read(ctx, start, end)
	if err != nil {
		v.opts.metrics.failure(err)
		return nil, err
	}
	v.opts.metrics.rows(recs.Len())
	return recs, nil
}

// ReadSlice reads the rows selected by a single unit-step slice, with
// negative and out of range bounds normalized the way Python does.
func (v *View) ReadSlice(idx ...Slice) (*Records, error) {
	if len(idx) != 1 {
		err := &UnsupportedIndexError{Reason: fmt.Sprintf("%d indices given; only one-dimensional slicing is supported", len(idx))}
		v.opts.metrics.failure(err)
		return nil, err
	}
	start, stop, err := idx[0].indices(v.Size())
	if err != nil {
		v.opts.metrics.failure(err)
		return nil, err
	}
	return v.Read(start, stop)
}

func (v *View) read(ctx context.Context, start, end int64) (*Records, error) {
	if err := v.checkRange(start, end); err != nil {
		return nil, err
	}

	segs := Resolve(v.offsets, start, end)
	recs := newRecords(v.schema, int(end-start))
	v.opts.logger.Debug("striped read",
		zap.Int64("start", start),
		zap.Int64("end", end),
		zap.Int("segments", len(segs)),
	)

	if v.opts.parallelism <= 1 || len(segs) <= 1 {
		for _, seg := range segs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := v.readSegment(recs, seg); err != nil {
				return nil, err
			}
		}
		return recs, nil
	}

	// Segments write disjoint output rows, so they can fill recs in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.parallelism)
	for _, seg := range segs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return v.readSegment(recs, seg)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (v *View) readSegment(recs *Records, seg Segment) error {
	shard, err := v.src.Shard(seg.Shard)
	if err != nil {
		return asIOError(seg.Shard, err)
	}
	defer shard.Close()

	v.opts.metrics.segment(seg.Shard)
	for j, name := range v.columns {
		col, err := shard.Column(name)
		if err != nil {
			return asIOError(seg.Shard, err)
		}
		raw, err := col.ReadRows(seg.Local.Start, seg.Local.End)
		if err != nil {
			return asIOError(seg.Shard, err)
		}
		if want := int(seg.Local.Len()) * v.schema[j].RowSize(); len(raw) != want {
			return &IOError{
				Op:   "read " + name,
				Path: fmt.Sprintf("shard %d", seg.Shard),
				Err:  fmt.Errorf("got %d bytes, want %d", len(raw), want),
			}
		}
		recs.put(j, int(seg.Out.Start), raw)
	}
	return nil
}

// asIOError reports any failure after view construction as an I/O failure
// of the shard.
func asIOError(shard int, err error) error {
	if errors.Is(err, ErrIO) {
		return err
	}
	return &IOError{Op: "read", Path: fmt.Sprintf("shard %d", shard), Err: err}
}
