package striped

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func requireRows(t *testing.T, recs *Records, start int64) {
	t.Helper()

	xs, err := recs.Float64s("x")
	require.NoError(t, err)
	ids, err := recs.Int64s("id")
	require.NoError(t, err)
	pos, err := recs.Float64s("pos")
	require.NoError(t, err)

	require.Len(t, xs, recs.Len())
	require.Len(t, pos, 3*recs.Len())
	for k := 0; k < recs.Len(); k++ {
		row := start + int64(k)
		require.Equal(t, float64(row), xs[k], "x of row %d", row)
		require.Equal(t, row, ids[k], "id of row %d", row)
		for j := 0; j < 3; j++ {
			require.Equal(t, float64(row*int64(j+1)), pos[3*k+j], "pos[%d] of row %d", j, row)
		}
	}
}

func TestNewView(t *testing.T) {
	src := newMemSource(100, 0, 50)
	v, err := NewView(src, []string{"x", "pos", "id"})
	require.NoError(t, err)

	assert.Equal(t, int64(150), v.Size())
	assert.Equal(t, 3, v.NumShards())
	assert.Equal(t, []int64{0, 100, 100, 150}, v.Offsets())
	assert.Equal(t, []string{"x", "pos", "id"}, v.Columns())
	assert.Equal(t, []string{"x", "pos", "id"}, v.Schema().Names())
	assert.Equal(t, 8+12+8, v.Schema().RecordSize())
	assert.Equal(t, 0, src.open, "every inspected shard is closed")

	offs := v.Offsets()
	offs[1] = 999
	assert.Equal(t, int64(100), v.Offsets()[1], "Offsets returns a copy")
}

func TestViewSchemaIsolated(t *testing.T) {
	v, err := NewView(newMemSource(10, 10), []string{"x", "pos", "id"})
	require.NoError(t, err)

	s := v.Schema()
	s[1].Shape[0] = 99
	s[0].Dtype.Size = 4
	assert.Equal(t, []int{3}, v.Schema()[1].Shape)
	assert.Equal(t, 8, v.Schema()[0].Dtype.Size)

	recs, err := v.Read(5, 15)
	require.NoError(t, err)
	rs := recs.Schema()
	rs[1].Shape[0] = 1
	assert.Equal(t, []int{3}, recs.Schema()[1].Shape)
	assert.Equal(t, 28, v.Schema().RecordSize())
	requireRows(t, recs, 5)
}

func TestNewViewSchemaErrors(t *testing.T) {
	t.Run("no columns", func(t *testing.T) {
		_, err := NewView(newMemSource(10), nil)
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("duplicate column", func(t *testing.T) {
		_, err := NewView(newMemSource(10), []string{"x", "x"})
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := NewView(newMemSource(10, 10), []string{"x", "mass"})
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("missing in later shard", func(t *testing.T) {
		src := newMemSource(10, 10)
		delete(src.shards[1].cols, "id")
		_, err := NewView(src, []string{"x", "id"})
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "id", se.Column)
	})

	t.Run("dtype differs", func(t *testing.T) {
		src := newMemSource(10, 10)
		src.shards[1].cols["x"].spec.Dtype.Size = 4
		_, err := NewView(src, []string{"id", "x"})
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 1, se.Shard)
		assert.Equal(t, "x", se.Column)
	})

	t.Run("byte order differs", func(t *testing.T) {
		src := newMemSource(10, 10)
		src.shards[1].cols["id"].spec.Dtype.Order = binary.BigEndian
		_, err := NewView(src, []string{"id"})
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("row shape differs", func(t *testing.T) {
		src := newMemSource(10, 10)
		src.shards[1].cols["pos"].spec.Shape = []int{4}
		_, err := NewView(src, []string{"pos"})
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("row counts differ", func(t *testing.T) {
		src := newMemSource(10, 10)
		src.shards[1].cols["id"].rows = 9
		_, err := NewView(src, []string{"x", "id"})
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 1, se.Shard)
		assert.Equal(t, "id", se.Column)
	})

	t.Run("no shards", func(t *testing.T) {
		_, err := NewView(newMemSource(), []string{"x"})
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("undecodable element type", func(t *testing.T) {
		src := newMemSource(10, 10)
		for _, sh := range src.shards {
			sh.cols["x"].spec.Dtype.Size = 2
		}
		_, err := NewView(src, []string{"id", "x"})
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 0, se.Shard)
		assert.Equal(t, "x", se.Column)
	})

	t.Run("unopenable shard", func(t *testing.T) {
		src := newMemSource(10, 10)
		src.failAt = 1
		_, err := NewView(src, []string{"x"})
		assert.ErrorIs(t, err, ErrIO)
	})
}

func TestViewRead(t *testing.T) {
	src := newMemSource(100, 50)
	v, err := NewView(src, []string{"x", "id", "pos"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end int64
	}{
		{"across shards", 30, 120},
		{"first shard only", 0, 10},
		{"second shard only", 110, 150},
		{"starts at boundary", 100, 101},
		{"ends at boundary", 99, 100},
		{"everything", 0, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := v.Read(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, int(tt.end-tt.start), recs.Len())
			requireRows(t, recs, tt.start)
		})
	}
}

func TestViewReadSegments(t *testing.T) {
	src := newMemSource(100, 50)
	v, err := NewView(src, []string{"x"})
	require.NoError(t, err)

	segs, err := v.Resolve(30, 120)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Shard: 0, Local: Range{30, 100}, Out: Range{0, 70}},
		{Shard: 1, Local: Range{0, 20}, Out: Range{70, 90}},
	}, segs)

	src.opened = nil
	_, err = v.Read(100, 101)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, src.opened, "a read starting at a boundary touches only the next shard")

	src.opened = nil
	_, err = v.Read(99, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, src.opened, "a read ending at a boundary touches only the previous shard")
}

func TestViewReadEmpty(t *testing.T) {
	src := newMemSource(100, 50)
	v, err := NewView(src, []string{"x", "pos"})
	require.NoError(t, err)

	for _, at := range []int64{0, 50, 100, 150} {
		src.opened = nil
		recs, err := v.Read(at, at)
		require.NoError(t, err)
		assert.Equal(t, 0, recs.Len())
		assert.Empty(t, recs.Bytes())
		assert.Equal(t, v.Schema(), recs.Schema())
		assert.Empty(t, src.opened, "empty reads open no shard")
	}
}

func TestViewReadRangeErrors(t *testing.T) {
	v, err := NewView(newMemSource(100, 50), []string{"x"})
	require.NoError(t, err)

	for _, r := range []Range{{-1, 10}, {0, 151}, {20, 10}, {151, 151}} {
		recs, err := v.Read(r.Start, r.End)
		assert.ErrorIs(t, err, ErrRange, "read [%d, %d)", r.Start, r.End)
		assert.Nil(t, recs)
	}

	_, err = v.Resolve(0, 151)
	assert.ErrorIs(t, err, ErrRange)
}

func TestViewReadIOError(t *testing.T) {
	src := newMemSource(100, 50)
	v, err := NewView(src, []string{"x", "pos"})
	require.NoError(t, err)

	src.failAt = 1
	recs, err := v.Read(30, 120)
	assert.ErrorIs(t, err, ErrIO)
	assert.Nil(t, recs)

	recs, err = v.Read(0, 100)
	require.NoError(t, err, "shard 0 alone still reads")
	requireRows(t, recs, 0)
}

func TestViewReadIdempotent(t *testing.T) {
	v, err := NewView(newMemSource(7, 13, 0, 21), []string{"pos", "id"})
	require.NoError(t, err)

	a, err := v.Read(5, 38)
	require.NoError(t, err)
	b, err := v.Read(5, 38)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestViewReadParallel(t *testing.T) {
	sizes := []int64{17, 0, 23, 5, 40, 11}
	seq, err := NewView(newMemSource(sizes...), []string{"x", "id", "pos"})
	require.NoError(t, err)
	par, err := NewView(newMemSource(sizes...), []string{"x", "id", "pos"},
		WithParallelism(4),
		WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)

	want, err := seq.Read(3, 90)
	require.NoError(t, err)
	got, err := par.Read(3, 90)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), got.Bytes())
	requireRows(t, got, 3)
}

func TestViewReadContextCanceled(t *testing.T) {
	v, err := NewView(newMemSource(10, 10), []string{"x"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.ReadContext(ctx, 0, 20)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestViewReadSlice(t *testing.T) {
	v, err := NewView(newMemSource(100, 50), []string{"x", "id", "pos"})
	require.NoError(t, err)

	recs, err := v.ReadSlice(Span(30, 120))
	require.NoError(t, err)
	assert.Equal(t, 90, recs.Len())
	requireRows(t, recs, 30)

	recs, err = v.ReadSlice(SliceOf(ptr(-10), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 10, recs.Len())
	requireRows(t, recs, 140)

	recs, err = v.ReadSlice(Span(140, 1000))
	require.NoError(t, err)
	assert.Equal(t, 10, recs.Len())

	_, err = v.ReadSlice(SliceOf(nil, nil, ptr(2)))
	assert.ErrorIs(t, err, ErrUnsupportedIndex)

	_, err = v.ReadSlice(All, All)
	assert.ErrorIs(t, err, ErrUnsupportedIndex)

	_, err = v.ReadSlice()
	assert.ErrorIs(t, err, ErrUnsupportedIndex)
}

func TestViewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	v, err := NewView(newMemSource(100, 50), []string{"x"}, WithMetrics(m))
	require.NoError(t, err)

	_, err = v.Read(30, 120)
	require.NoError(t, err)
	_, err = v.Read(0, 500)
	require.Error(t, err)

	assert.Equal(t, float64(90), testutil.ToFloat64(m.RowsRead))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ShardReads.WithLabelValues("0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ShardReads.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReadErrors.WithLabelValues("range")))
}
