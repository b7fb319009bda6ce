// Package striped presents an ordered sequence of HDF5 shard files as one
// logical table of rows.
//
// A snapshot is commonly stored as many files ("shards"), each holding a
// contiguous block of particles. Every shard carries the same named columns
// under the same group, and a column's first dimension counts rows while the
// trailing dimensions form the per-row shape (Position is N x 3, ParticleID
// is N).
//
// # Shards
//
// [Open] and [Glob] build a [ShardSet] from shard paths and a logical root
// path inside each file. The attributes of the root object are read once
// from the first shard and exposed through [ShardSet.Attrs]. Shards are
// opened lazily, one file handle per [ShardSet.Shard] call.
//
// # Views
//
// [NewView] fixes a list of columns over a [Source], checks that every shard
// agrees on column dtypes, trailing shapes and per-shard row counts, and
// builds the offset index: offsets[0] = 0 and offsets[i+1] = offsets[i] +
// rows(i). Global row r lives in the unique shard i with
// offsets[i] <= r < offsets[i+1].
//
// [View.Read] resolves a half-open global range into per-shard segments with
// [Resolve] and copies each segment into its pre-assigned rows of a single
// [Records] buffer:
//
//	set, err := striped.Open(paths, "/Matter")
//	view, err := striped.NewView(set, []string{"Position", "Velocity", "ParticleID"})
//	recs, err := view.Read(30, 120)
//	pos, err := recs.Float64s("Position")
//
// Records use the packed row-major layout of a structured array: columns in
// view order at fixed offsets within each record, no padding.
//
// # Errors
//
// Failures are reported as [*SchemaError], [*RangeError],
// [*UnsupportedIndexError] or [*IOError]; each matches its sentinel with
// errors.Is. Once NewView succeeds, reads can only fail with range, index
// or I/O errors.
package striped
