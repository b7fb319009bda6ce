package convert

import (
	"fmt"
	"math/bits"
)

// Chunk is the global row range written to output file Index.
type Chunk struct {
	Index      int
	Start, End int64
}

// Len returns the number of rows in c.
func (c Chunk) Len() int64 { return c.End - c.Start }

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%d, %d)", c.Index, c.Start, c.End)
}

// Plan splits size rows into max(size/perFile, 1) nearly equal chunks.
// Chunk i covers [i*size/n, (i+1)*size/n), so chunks tile [0, size) and
// sizes differ by at most one row. perFile below 1 is treated as 1.
func Plan(size, perFile int64) []Chunk {
	if size < 0 {
		size = 0
	}
	perFile = max(perFile, 1)
	n := max(size/perFile, 1)

	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{
			Index: i,
			Start: bound(int64(i), size, n),
			End:   bound(int64(i)+1, size, n),
		}
	}
	return chunks
}

// bound returns i*size/n without overflowing the product.
func bound(i, size, n int64) int64 {
	hi, lo := bits.Mul64(uint64(i), uint64(size))
	q, _ := bits.Div64(hi, lo, uint64(n))
	return int64(q)
}
