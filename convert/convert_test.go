package convert

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/robert-malhotra/cosmohdf5/gadget"
	"github.com/robert-malhotra/cosmohdf5/internal/snaptest"
	"github.com/robert-malhotra/cosmohdf5/striped"
)

// openSnapshot writes a snapshot with the given shard sizes and returns a
// view over its particles plus its header attributes.
func openSnapshot(t *testing.T, sizes ...int) (*striped.View, striped.Attributes) {
	t.Helper()

	paths := snaptest.WriteSnapshot(t, t.TempDir(), sizes...)
	matter, err := striped.Open(paths, "/Matter")
	require.NoError(t, err)
	header, err := striped.Open(paths, "/Header")
	require.NoError(t, err)
	view, err := striped.NewView(matter, Columns)
	require.NoError(t, err)
	return view, header.Attrs()
}

type gadgetFile struct {
	header        *gadget.Header
	pos, vel, ids []byte
}

func readGadgetFile(t *testing.T, path string) gadgetFile {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var g gadgetFile
	g.header, err = gadget.ReadHeader(f)
	require.NoError(t, err)
	g.pos, err = gadget.ReadBlock(f)
	require.NoError(t, err)
	g.vel, err = gadget.ReadBlock(f)
	require.NoError(t, err)
	g.ids, err = gadget.ReadBlock(f)
	require.NoError(t, err)
	return g
}

func TestToGadget(t *testing.T) {
	view, attrs := openSnapshot(t, 100, 50)
	dest := filepath.Join(t.TempDir(), "out", "ics", "snap")

	opts := DefaultOptions()
	opts.NPerFile = 60
	opts.Workers = 2
	opts.Logger = zaptest.NewLogger(t)

	files, err := ToGadget(context.Background(), view, attrs, dest, opts)
	require.NoError(t, err)
	require.Equal(t, []string{dest + ".0", dest + ".1"}, files)

	velScale := math.Sqrt2 // a = 1/(1+z) = 0.5
	row := 0
	for i, path := range files {
		g := readGadgetFile(t, path)
		n := int(g.header.Npart[1])

		assert.Equal(t, 75, n, "file %d", i)
		assert.Equal(t, int32(2), g.header.NumFiles)
		assert.Equal(t, uint64(150), g.header.Total(1))
		assert.Equal(t, 0.5, g.header.Time)
		assert.Equal(t, 1000.0, g.header.BoxSize)
		assert.InDelta(t, 0.677, g.header.HubbleParam, 1e-12)
		assert.Equal(t, 2.5e10, g.header.Massarr[1])

		require.Len(t, g.pos, n*12)
		require.Len(t, g.vel, n*12)
		require.Len(t, g.ids, n*8)
		for k := 0; k < n; k++ {
			p, v := snaptest.Position(row), snaptest.Velocity(row)
			for j := 0; j < 3; j++ {
				at := (3*k + j) * 4
				assert.Equal(t, p[j], math.Float32frombits(binary.LittleEndian.Uint32(g.pos[at:])))
				assert.InDelta(t, float64(v[j])*velScale, math.Float32frombits(binary.LittleEndian.Uint32(g.vel[at:])), 1e-3)
			}
			assert.Equal(t, snaptest.ParticleID(row), binary.LittleEndian.Uint64(g.ids[8*k:]))
			row++
		}
	}
	assert.Equal(t, 150, row)
}

func TestToGadgetDoublePrecision(t *testing.T) {
	view, attrs := openSnapshot(t, 7, 5)
	dest := filepath.Join(t.TempDir(), "snap")

	opts := DefaultOptions()
	opts.Precision = "f8"
	files, err := ToGadget(context.Background(), view, attrs, dest, opts)
	require.NoError(t, err)
	require.Len(t, files, 1)

	g := readGadgetFile(t, files[0])
	assert.Equal(t, uint32(12), g.header.Npart[1])
	require.Len(t, g.pos, 12*3*8)
	for k := 0; k < 12; k++ {
		p := snaptest.Position(k)
		assert.Equal(t, float64(p[0]), math.Float64frombits(binary.LittleEndian.Uint64(g.pos[24*k:])))
	}
}

func TestToGadgetErrors(t *testing.T) {
	view, attrs := openSnapshot(t, 10)
	dest := filepath.Join(t.TempDir(), "snap")

	opts := DefaultOptions()
	opts.Precision = "f2"
	_, err := ToGadget(context.Background(), view, attrs, dest, opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.NPerFile = 0
	_, err = ToGadget(context.Background(), view, attrs, dest, opts)
	assert.Error(t, err)

	missing := attrs.Clone()
	delete(missing, "Redshift")
	_, err = ToGadget(context.Background(), view, missing, dest, DefaultOptions())
	assert.ErrorIs(t, err, striped.ErrNoAttribute)

	opts = DefaultOptions()
	opts.IDColumn = "ID"
	_, err = ToGadget(context.Background(), view, attrs, dest, opts)
	assert.ErrorIs(t, err, striped.ErrSchema)

	_, err = os.Stat(dest + ".0")
	assert.ErrorIs(t, err, os.ErrNotExist, "failed conversions write nothing")
}

func TestToGadgetCanceled(t *testing.T) {
	view, attrs := openSnapshot(t, 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.NPerFile = 5
	files, err := ToGadget(ctx, view, attrs, filepath.Join(t.TempDir(), "snap"), opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, files)
}

func TestToHDF5(t *testing.T) {
	view, attrs := openSnapshot(t, 100, 50)
	dest := filepath.Join(t.TempDir(), "export", "snap")

	opts := DefaultOptions()
	opts.NPerFile = 50
	opts.Workers = 3
	files, err := ToHDF5(context.Background(), view, attrs, dest, opts)
	require.NoError(t, err)
	require.Equal(t, []string{dest + ".0.hdf5", dest + ".1.hdf5", dest + ".2.hdf5"}, files)

	header, err := striped.Open(files, "/Header")
	require.NoError(t, err)
	nfiles, err := header.Attrs().Int64("NumFilesPerSnapshot")
	require.NoError(t, err)
	assert.Equal(t, int64(3), nfiles)
	box, err := header.Attrs().Float64("BoxSize")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, box)
	_, ok := attrs["NumFilesPerSnapshot"]
	assert.False(t, ok, "input attributes are not modified")

	matter, err := striped.Open(files, "/Matter")
	require.NoError(t, err)
	out, err := striped.NewView(matter, Columns)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 50, 100, 150}, out.Offsets())
	assert.Equal(t, view.Schema(), out.Schema())

	want, err := view.Read(0, 150)
	require.NoError(t, err)
	got, err := out.Read(0, 150)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), got.Bytes())
}

func TestToHDF5Chunked(t *testing.T) {
	view, attrs := openSnapshot(t, 100, 50)
	want, err := view.Read(0, 150)
	require.NoError(t, err)

	for _, rows := range []int64{16, 1000} {
		opts := DefaultOptions()
		opts.NPerFile = 50
		opts.ChunkRows = rows
		files, err := ToHDF5(context.Background(), view, attrs, filepath.Join(t.TempDir(), "snap"), opts)
		require.NoError(t, err)

		matter, err := striped.Open(files, "/Matter")
		require.NoError(t, err)
		out, err := striped.NewView(matter, Columns)
		require.NoError(t, err)

		got, err := out.Read(0, 150)
		require.NoError(t, err)
		assert.Equal(t, want.Bytes(), got.Bytes(), "chunks of %d rows", rows)

		part, err := out.Read(10, 45)
		require.NoError(t, err)
		assert.Equal(t, want.Bytes()[10*32:45*32], part.Bytes(), "chunks of %d rows", rows)
	}

	opts := DefaultOptions()
	opts.ChunkRows = -1
	_, err = ToHDF5(context.Background(), view, attrs, filepath.Join(t.TempDir(), "snap"), opts)
	assert.Error(t, err)
}

func TestToHDF5RenamesIDs(t *testing.T) {
	paths := snaptest.WriteSnapshot(t, t.TempDir(), 4)
	matter, err := striped.Open(paths, "/Matter")
	require.NoError(t, err)
	view, err := striped.NewView(matter, []string{"ParticleID", "Velocity", "Position"})
	require.NoError(t, err)

	files, err := ToHDF5(context.Background(), view, striped.Attributes{"BoxSize": 1.0}, filepath.Join(t.TempDir(), "snap"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, files, 1)

	set, err := striped.Open(files, "/Matter")
	require.NoError(t, err)
	shard, err := set.Shard(0)
	require.NoError(t, err)
	defer shard.Close()

	names, err := shard.Columns()
	require.NoError(t, err)
	assert.ElementsMatch(t, Columns, names)
}

func TestFastPMHeader(t *testing.T) {
	fastpm := striped.Attributes{
		"HubbleParam":  []float64{0.7},
		"BoxSize":      []float64{500},
		"Time":         []float64{0.25},
		"MassTable":    []float64{0, 3.5e10, 0, 0, 0, 0},
		"TotNumPart":   []uint64{0, 1 << 20, 0, 0, 0, 0},
		"OmegaM":       []float64{0.3},
		"OmegaLambda":  0.7,
		"GrowthFactor": []float64{0.4},
		"GrowthRate":   []float64{0.9},
		"HubbleE":      []float64{2},
		"RSDFactor":    []float64{1.5},
	}

	attrs, err := FastPMHeader(fastpm)
	require.NoError(t, err)

	assert.InDelta(t, 70.0, attrs["H0"], 1e-9)
	assert.Equal(t, 500.0, attrs["BoxSize"])
	assert.Equal(t, 3.0, attrs["Redshift"])
	assert.Equal(t, 3.0, attrs["InitialRedshift"])
	assert.Equal(t, 3.5e10, attrs["ParticleMass.Matter"])
	assert.Equal(t, int64(1<<20), attrs["NP.Matter"])
	assert.Equal(t, 0.3, attrs["Omega_M"])
	assert.Equal(t, 0.7, attrs["Omega_DE"])
	assert.Equal(t, 0.4, attrs["GrowthRatio"])
	assert.Equal(t, 0.9, attrs["f_growth"])
	assert.InDelta(t, 140.0, attrs["HubbleNow"], 1e-9)
	assert.Equal(t, 1.5, attrs["RSDFactor"])

	// The result feeds the Gadget header directly.
	h, err := gadget.HeaderFromAttrs(attrs)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<20), h.Total(1))
	assert.Equal(t, 0.25, h.Time)
}

func TestFastPMHeaderErrors(t *testing.T) {
	base := striped.Attributes{
		"HubbleParam":  0.7,
		"BoxSize":      500.0,
		"Time":         1.0,
		"MassTable":    []float64{0, 1},
		"TotNumPart":   []int64{0, 8},
		"OmegaM":       0.3,
		"OmegaLambda":  0.7,
		"GrowthFactor": 1.0,
		"GrowthRate":   1.0,
		"HubbleE":      1.0,
		"RSDFactor":    1.0,
	}
	_, err := FastPMHeader(base)
	require.NoError(t, err)

	missing := base.Clone()
	delete(missing, "GrowthRate")
	_, err = FastPMHeader(missing)
	assert.ErrorIs(t, err, striped.ErrNoAttribute)

	short := base.Clone()
	short["TotNumPart"] = []int64{8}
	_, err = FastPMHeader(short)
	assert.Error(t, err)

	short = base.Clone()
	short["MassTable"] = 1.0
	_, err = FastPMHeader(short)
	assert.Error(t, err)

	zero := base.Clone()
	zero["Time"] = 0.0
	_, err = FastPMHeader(zero)
	assert.Error(t, err)
}
