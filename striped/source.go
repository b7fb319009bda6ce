package striped

// Source is an ordered sequence of shards. ShardSet is the file-backed
// implementation.
type Source interface {
	NumShards() int
	// Shard opens shard i. The caller closes it.
	Shard(i int) (Shard, error)
}

// Shard is one opened shard.
//
// Distinct Shard values may be read concurrently. A Shard must not be
// closed while a read on it is in flight.
type Shard interface {
	// Column returns the column named name under the shard's root.
	Column(name string) (Column, error)
	// Columns lists the column names under the shard's root.
	Columns() ([]string, error)
	Close() error
}

// Column is one numeric array of a shard whose first dimension counts rows.
type Column interface {
	Spec() ColumnSpec
	NumRows() int64
	// ReadRows returns shard-local rows [lo, hi) packed in the column's
	// byte order.
	ReadRows(lo, hi int64) ([]byte, error)
}
