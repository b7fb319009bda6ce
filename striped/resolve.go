package striped

import (
	"fmt"
	"sort"
)

// Range is a half-open row interval [Start, End).
type Range struct {
	Start, End int64
}

// Len returns the number of rows in r.
func (r Range) Len() int64 { return r.End - r.Start }

// Segment is the part of a global read served by one shard: rows Local of
// the shard land in rows Out of the result.
type Segment struct {
	Shard int
	Local Range
	Out   Range
}

func (s Segment) String() string {
	return fmt.Sprintf("shard %d [%d,%d) -> [%d,%d)", s.Shard, s.Local.Start, s.Local.End, s.Out.Start, s.Out.End)
}

// Resolve splits the global range [start, end) over the shards described by
// offsets, a non-decreasing prefix sum with offsets[0] = 0. Segments come
// out in shard order, never have zero length, and their output ranges tile
// [0, end-start). A range that is empty or not within
// [0, offsets[last]] resolves to no segments.
func Resolve(offsets []int64, start, end int64) []Segment {
	if start >= end || len(offsets) < 2 {
		return nil
	}
	nshards := len(offsets) - 1
	if start < 0 || end > offsets[nshards] {
		return nil
	}

	// Largest i with offsets[i] <= start. Searching the terminal entry too
	// would select a shard past the end when start == Size.
	first := sort.Search(nshards, func(i int) bool { return offsets[i] > start }) - 1

	var segs []Segment
	var out int64
	for i := first; i < nshards && offsets[i] < end; i++ {
		lo := max(offsets[i], start) - offsets[i]
		hi := min(offsets[i+1], end) - offsets[i]
		if hi <= lo {
			continue
		}
		segs = append(segs, Segment{
			Shard: i,
			Local: Range{lo, hi},
			Out:   Range{out, out + hi - lo},
		})
		out += hi - lo
	}

	if out != end-start {
		panic(fmt.Sprintf("striped: resolved %d rows for range [%d, %d)", out, start, end))
	}
	return segs
}
