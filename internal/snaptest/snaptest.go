// Package snaptest writes small striped snapshots for tests.
package snaptest

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"testing"

	"github.com/robert-malhotra/cosmohdf5/hdf5"
)

// Header returns a typical snapshot header.
func Header(total int64) map[string]any {
	return map[string]any{
		"BoxSize":             1000.0,
		"H0":                  67.7,
		"Omega_M":             0.31,
		"Omega_DE":            0.69,
		"Redshift":            1.0,
		"ParticleMass.Matter": 2.5e10,
		"NP.Matter":           []int64{total},
		"Source":              "snaptest",
	}
}

// Position returns the position of global particle i.
func Position(i int) [3]float32 {
	f := float32(i)
	return [3]float32{f, f + 0.25, f + 0.5}
}

// Velocity returns the velocity of global particle i.
func Velocity(i int) [3]float32 {
	f := float32(i)
	return [3]float32{-f, 2 * f, 3 * f}
}

// ParticleID returns the id of global particle i.
func ParticleID(i int) uint64 {
	return uint64(1000 + i)
}

// WriteShard writes one shard holding global particles [first, first+n)
// under /Matter, with header attributes on a /Header dataset.
func WriteShard(t testing.TB, path string, header map[string]any, first, n int) {
	t.Helper()

	f, err := hdf5.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var opts []hdf5.DatasetOption
	for _, k := range keys {
		opts = append(opts, hdf5.WithAttribute(k, header[k]))
	}
	if _, err := f.Root().CreateNumericDataset("Header", []uint64{0}, hdf5.Numeric{Kind: hdf5.NumericFloat, Size: 8}, nil, opts...); err != nil {
		t.Fatalf("writing header: %v", err)
	}

	matter, err := f.Root().CreateGroup("Matter")
	if err != nil {
		t.Fatalf("creating Matter: %v", err)
	}

	pos := make([]byte, n*12)
	vel := make([]byte, n*12)
	ids := make([]byte, n*8)
	for k := 0; k < n; k++ {
		p, v := Position(first+k), Velocity(first+k)
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(pos[(k*3+j)*4:], math.Float32bits(p[j]))
			binary.LittleEndian.PutUint32(vel[(k*3+j)*4:], math.Float32bits(v[j]))
		}
		binary.LittleEndian.PutUint64(ids[k*8:], ParticleID(first+k))
	}

	f32 := hdf5.Numeric{Kind: hdf5.NumericFloat, Size: 4}
	u64 := hdf5.Numeric{Kind: hdf5.NumericUint, Size: 8}
	if _, err := matter.CreateNumericDataset("Position", []uint64{uint64(n), 3}, f32, pos); err != nil {
		t.Fatalf("writing Position: %v", err)
	}
	if _, err := matter.CreateNumericDataset("Velocity", []uint64{uint64(n), 3}, f32, vel); err != nil {
		t.Fatalf("writing Velocity: %v", err)
	}
	if _, err := matter.CreateNumericDataset("ParticleID", []uint64{uint64(n)}, u64, ids); err != nil {
		t.Fatalf("writing ParticleID: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("closing %s: %v", path, err)
	}
}

// WriteSnapshot writes one shard per entry of sizes into dir, named
// snap.0.h5, snap.1.h5 and so on, and returns their paths in order.
func WriteSnapshot(t testing.TB, dir string, sizes ...int) []string {
	t.Helper()

	total := 0
	for _, n := range sizes {
		total += n
	}
	header := Header(int64(total))

	paths := make([]string, len(sizes))
	first := 0
	for i, n := range sizes {
		paths[i] = filepath.Join(dir, fmt.Sprintf("snap.%d.h5", i))
		WriteShard(t, paths[i], header, first, n)
		first += n
	}
	return paths
}
