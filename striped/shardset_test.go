package striped

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/robert-malhotra/cosmohdf5/hdf5"
	"github.com/robert-malhotra/cosmohdf5/internal/snaptest"
)

func TestShardSetOpen(t *testing.T) {
	paths := snaptest.WriteSnapshot(t, t.TempDir(), 100, 50)

	set, err := Open(paths, "/", WithSetLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, 2, set.NumShards())
	assert.Equal(t, paths, set.Paths())
	assert.Equal(t, "/", set.Root())
	assert.Empty(t, set.Attrs(), "the root group carries no attributes")

	header, err := set.Sub("Header")
	require.NoError(t, err)
	assert.Equal(t, "/Header", header.Root())

	box, err := header.Attrs().Float64("BoxSize")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, box)

	np, err := header.Attrs().Int64s("NP.Matter")
	require.NoError(t, err)
	assert.Equal(t, []int64{150}, np)

	src, err := header.Attrs().String("Source")
	require.NoError(t, err)
	assert.Equal(t, "snaptest", src)
}

func TestShardSetColumns(t *testing.T) {
	paths := snaptest.WriteSnapshot(t, t.TempDir(), 10, 5)

	set, err := Open(paths, "Matter")
	require.NoError(t, err)
	assert.Equal(t, "/Matter", set.Root())

	shard, err := set.Shard(1)
	require.NoError(t, err)
	defer shard.Close()

	names, err := shard.Columns()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Position", "Velocity", "ParticleID"}, names)

	pos, err := shard.Column("Position")
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos.NumRows())
	assert.Equal(t, "<f4", pos.Spec().Dtype.String())
	assert.Equal(t, []int{3}, pos.Spec().Shape)

	ids, err := shard.Column("ParticleID")
	require.NoError(t, err)
	assert.Equal(t, "<u8", ids.Spec().Dtype.String())
	assert.Empty(t, ids.Spec().Shape)

	raw, err := pos.ReadRows(1, 3)
	require.NoError(t, err)
	assert.Len(t, raw, 2*12)

	_, err = pos.ReadRows(3, 6)
	assert.ErrorIs(t, err, ErrRange)

	_, err = shard.Column("Mass")
	assert.ErrorIs(t, err, ErrSchema)

	_, err = set.Shard(2)
	assert.ErrorIs(t, err, ErrRange)
	_, err = set.Shard(-1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestShardSetOpenErrors(t *testing.T) {
	dir := t.TempDir()
	paths := snaptest.WriteSnapshot(t, dir, 3)

	_, err := Open(nil, "/")
	assert.ErrorIs(t, err, ErrIO)

	_, err = Open([]string{filepath.Join(dir, "missing.h5")}, "/")
	assert.ErrorIs(t, err, ErrIO)

	_, err = Open(paths, "/Nope")
	assert.ErrorIs(t, err, ErrIO)

	notHDF5 := filepath.Join(dir, "junk.h5")
	require.NoError(t, os.WriteFile(notHDF5, []byte("not an hdf5 file at all"), 0o644))
	_, err = Open([]string{notHDF5}, "/")
	assert.ErrorIs(t, err, ErrIO)

	_, err = Glob(filepath.Join(dir, "*.none"), "/")
	assert.ErrorIs(t, err, ErrIO)
}

func TestShardSetLazyOpen(t *testing.T) {
	dir := t.TempDir()
	paths := snaptest.WriteSnapshot(t, dir, 4, 4)

	set, err := Open(paths, "/Matter")
	require.NoError(t, err)

	// Only shard 0 is touched by Open.
	require.NoError(t, os.Remove(paths[1]))

	_, err = set.Shard(1)
	assert.ErrorIs(t, err, ErrIO)
	s0, err := set.Shard(0)
	require.NoError(t, err)
	require.NoError(t, s0.Close())
}

func TestGlobOrder(t *testing.T) {
	dir := t.TempDir()
	snaptest.WriteSnapshot(t, dir, 2, 3, 4)

	set, err := Glob(filepath.Join(dir, "snap.*.h5"), "/Matter")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "snap.0.h5"),
		filepath.Join(dir, "snap.1.h5"),
		filepath.Join(dir, "snap.2.h5"),
	}, set.Paths())
}

func TestViewOverFiles(t *testing.T) {
	paths := snaptest.WriteSnapshot(t, t.TempDir(), 100, 50)
	set, err := Open(paths, "/Matter")
	require.NoError(t, err)

	v, err := NewView(set, []string{"Position", "Velocity", "ParticleID"}, WithParallelism(2))
	require.NoError(t, err)
	assert.Equal(t, int64(150), v.Size())
	assert.Equal(t, []int64{0, 100, 150}, v.Offsets())
	assert.Equal(t, 32, v.Schema().RecordSize())

	recs, err := v.Read(30, 120)
	require.NoError(t, err)
	require.Equal(t, 90, recs.Len())

	pos, err := recs.Float32s("Position")
	require.NoError(t, err)
	vel, err := recs.Float32s("Velocity")
	require.NoError(t, err)
	ids, err := recs.Uint64s("ParticleID")
	require.NoError(t, err)

	for k := 0; k < recs.Len(); k++ {
		row := 30 + k
		p, vv := snaptest.Position(row), snaptest.Velocity(row)
		assert.Equal(t, p[:], pos[3*k:3*k+3], "Position of row %d", row)
		assert.Equal(t, vv[:], vel[3*k:3*k+3], "Velocity of row %d", row)
		assert.Equal(t, snaptest.ParticleID(row), ids[k], "ParticleID of row %d", row)
	}
}

func TestViewOverFilesSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	paths := snaptest.WriteSnapshot(t, dir, 10)

	// A second shard whose Position is float64.
	odd := filepath.Join(dir, "odd.h5")
	f, err := hdf5.Create(odd)
	require.NoError(t, err)
	matter, err := f.Root().CreateGroup("Matter")
	require.NoError(t, err)
	_, err = matter.CreateNumericDataset("Position", []uint64{2, 3}, hdf5.Numeric{Kind: hdf5.NumericFloat, Size: 8}, make([]byte, 48))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	set, err := Open(append(paths, odd), "/Matter")
	require.NoError(t, err)

	_, err = NewView(set, []string{"Position"})
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Shard)

	_, err = NewView(set, []string{"Position", "ParticleID"})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestShardSetHalfPrecisionColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "half.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	matter, err := f.Root().CreateGroup("Matter")
	require.NoError(t, err)
	_, err = matter.CreateNumericDataset("Position", []uint64{2, 3}, hdf5.Numeric{Kind: hdf5.NumericFloat, Size: 2}, make([]byte, 12))
	require.NoError(t, err)
	_, err = matter.CreateNumericDataset("ParticleID", []uint64{2}, hdf5.Numeric{Kind: hdf5.NumericUint, Size: 8}, make([]byte, 16))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	set, err := Open([]string{path}, "/Matter")
	require.NoError(t, err)

	shard, err := set.Shard(0)
	require.NoError(t, err)
	defer shard.Close()

	_, err = shard.Column("Position")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Position", se.Column)

	_, err = shard.Column("ParticleID")
	require.NoError(t, err)

	_, err = NewView(set, []string{"Position", "ParticleID"})
	assert.ErrorIs(t, err, ErrSchema)
}
