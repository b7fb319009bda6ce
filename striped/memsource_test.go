package striped

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

// memColumn is a column held in memory.
type memColumn struct {
	spec ColumnSpec
	rows int64
	data []byte
}

func (c *memColumn) Spec() ColumnSpec { return c.spec }
func (c *memColumn) NumRows() int64   { return c.rows }

func (c *memColumn) ReadRows(lo, hi int64) ([]byte, error) {
	if lo < 0 || lo > hi || hi > c.rows {
		return nil, &RangeError{What: "rows", Start: lo, End: hi, Size: c.rows}
	}
	size := int64(c.spec.RowSize())
	out := make([]byte, (hi-lo)*size)
	copy(out, c.data[lo*size:hi*size])
	return out, nil
}

type memShard struct {
	cols map[string]*memColumn
	src  *memSource
}

func (s *memShard) Column(name string) (Column, error) {
	c, ok := s.cols[name]
	if !ok {
		return nil, &SchemaError{Shard: -1, Column: name, Reason: "no such dataset"}
	}
	return c, nil
}

func (s *memShard) Columns() ([]string, error) {
	var names []string
	for n := range s.cols {
		names = append(names, n)
	}
	return names, nil
}

func (s *memShard) Close() error {
	s.src.mu.Lock()
	s.src.open--
	s.src.mu.Unlock()
	return nil
}

// memSource is an in-memory Source. Shard i holds global rows starting at
// the sum of the sizes before it, with x = row as float64, id = row as
// int64 and pos = (row, 2*row, 3*row) as big-endian float32.
type memSource struct {
	shards []*memShard
	failAt int // shard whose opens fail, -1 for none
	mu     sync.Mutex
	open   int
	opened []int
}

var errBroken = errors.New("broken shard")

func newMemSource(sizes ...int64) *memSource {
	src := &memSource{failAt: -1}
	var first int64
	for _, n := range sizes {
		x := make([]byte, n*8)
		id := make([]byte, n*8)
		pos := make([]byte, n*12)
		for k := int64(0); k < n; k++ {
			row := first + k
			binary.LittleEndian.PutUint64(x[k*8:], math.Float64bits(float64(row)))
			binary.LittleEndian.PutUint64(id[k*8:], uint64(row))
			for j := int64(0); j < 3; j++ {
				binary.BigEndian.PutUint32(pos[k*12+j*4:], math.Float32bits(float32(row*(j+1))))
			}
		}
		src.shards = append(src.shards, &memShard{
			src: src,
			cols: map[string]*memColumn{
				"x":   {spec: ColumnSpec{Dtype: Dtype{Kind: Float, Size: 8, Order: binary.LittleEndian}, Shape: []int{}}, rows: n, data: x},
				"id":  {spec: ColumnSpec{Dtype: Dtype{Kind: Int, Size: 8, Order: binary.LittleEndian}, Shape: []int{}}, rows: n, data: id},
				"pos": {spec: ColumnSpec{Dtype: Dtype{Kind: Float, Size: 4, Order: binary.BigEndian}, Shape: []int{3}}, rows: n, data: pos},
			},
		})
		first += n
	}
	return src
}

func (s *memSource) NumShards() int { return len(s.shards) }

func (s *memSource) Shard(i int) (Shard, error) {
	if i < 0 || i >= len(s.shards) {
		return nil, &RangeError{What: "shard", Start: int64(i), End: int64(i) + 1, Size: int64(len(s.shards))}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i == s.failAt {
		return nil, &IOError{Op: "open", Path: "mem", Err: errBroken}
	}
	s.open++
	s.opened = append(s.opened, i)
	return s.shards[i], nil
}
