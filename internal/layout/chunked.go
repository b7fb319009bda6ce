package layout

import (
	"fmt"
	"sync"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/btree"
	"github.com/robert-malhotra/cosmohdf5/internal/filter"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Chunked reads data split into equally sized chunks located through a
// chunk index. The index is read once, on the first ReadSlice.
type Chunked struct {
	layout     *message.DataLayout
	dims       []uint64
	maxDims    []uint64
	chunk      []uint64 // chunk extent per dataset dimension
	elemSize   uint64
	chunkBytes uint64
	pipeline   *filter.Pipeline
	reader     *binary.Reader
	fill       []byte // one element, nil for zeros

	once    sync.Once
	entries []btree.ChunkEntry
	err     error
}

func NewChunked(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	filterPipeline *message.FilterPipeline,
	reader *binary.Reader,
) (*Chunked, error) {
	dims := extent(dataspace)
	if len(dims) == 0 {
		return nil, fmt.Errorf("chunked layout on a scalar dataspace")
	}
	if len(layout.ChunkDims) != len(dims)+1 {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(layout.ChunkDims)-1, len(dims))
	}

	c := &Chunked{
		layout:   layout,
		dims:     dims,
		maxDims:  dims,
		chunk:    make([]uint64, len(dims)),
		elemSize: uint64(datatype.Size),
		reader:   reader,
	}
	if len(dataspace.MaxDims) == len(dims) {
		c.maxDims = dataspace.MaxDims
	}
	for d := range c.chunk {
		if layout.ChunkDims[d] == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", d)
		}
		c.chunk[d] = uint64(layout.ChunkDims[d])
	}
	c.chunkBytes = product(c.chunk) * c.elemSize

	var err error
	if c.pipeline, err = filter.NewPipeline(filterPipeline); err != nil {
		return nil, fmt.Errorf("creating filter pipeline: %w", err)
	}
	return c, nil
}

func (c *Chunked) Class() message.LayoutClass {
	return message.LayoutChunked
}

// IndexType reports how the chunks are located.
func (c *Chunked) IndexType() message.ChunkIndexType {
	return c.layout.ChunkIndexType
}

// SetFill sets the element value read where the index holds no chunk.
// A value whose length is not the element size is ignored.
func (c *Chunked) SetFill(value []byte) {
	if uint64(len(value)) == c.elemSize {
		c.fill = value
	}
}

// ReadSlice decodes only the chunks that meet the selection. Chunks the
// index does not hold read as the fill value, or zeros without one.
func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	sel, err := newSelection(c.dims, start, count, c.elemSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, sel.size())
	if len(out) == 0 {
		return out, nil
	}
	if c.fill != nil {
		n := copy(out, c.fill)
		for n < len(out) {
			n += copy(out[n:], out[:n])
		}
	}

	entries, err := c.index()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, _, ok := sel.overlap(e.Offset, c.chunk); !ok {
			continue
		}
		data, err := c.readChunk(e)
		if err != nil {
			return nil, fmt.Errorf("chunk at %v: %w", e.Offset, err)
		}
		if err := sel.copyBlock(out, data, e.Offset, c.chunk); err != nil {
			return nil, fmt.Errorf("chunk at %v: %w", e.Offset, err)
		}
	}
	return out, nil
}

func (c *Chunked) index() ([]btree.ChunkEntry, error) {
	c.once.Do(func() {
		c.entries, c.err = c.readIndex()
		if c.err != nil {
			c.err = fmt.Errorf("reading %s chunk index: %w", c.layout.ChunkIndexType, c.err)
		}
	})
	return c.entries, c.err
}

func (c *Chunked) readIndex() ([]btree.ChunkEntry, error) {
	addr := c.layout.ChunkIndexAddr
	if c.reader.IsUndefinedOffset(addr) {
		return nil, nil
	}

	switch c.layout.ChunkIndexType {
	case message.ChunkIndexBTreeV1:
		idx, err := btree.ReadChunkIndex(c.reader, addr, len(c.dims))
		if err != nil {
			return nil, err
		}
		return idx.Entries, nil
	case message.ChunkIndexSingleChunk:
		e := btree.ChunkEntry{Offset: make([]uint64, len(c.dims)), Address: addr}
		if c.layout.ChunkFlags&message.ChunkFlagSingleFiltered != 0 {
			e.Size = uint32(c.layout.FilteredChunkSize)
			e.FilterMask = c.layout.FilterMask
		}
		return []btree.ChunkEntry{e}, nil
	case message.ChunkIndexImplicit:
		return c.implicitEntries(addr)
	case message.ChunkIndexFixedArray:
		return c.readFixedArray(addr)
	case message.ChunkIndexExtensibleArray:
		return c.readExtensibleArray(addr)
	case message.ChunkIndexBTreeV2:
		idx, err := btree.ReadChunkIndexV2(c.reader, addr, c.chunk)
		if err != nil {
			return nil, err
		}
		return idx.Entries, nil
	}
	return nil, fmt.Errorf("unsupported chunk index type %d", c.layout.ChunkIndexType)
}

// readChunk returns the decoded bytes of one chunk. Unfiltered indexes do
// not record sizes, so a zero Size means a full chunk.
func (c *Chunked) readChunk(e btree.ChunkEntry) ([]byte, error) {
	size := uint64(e.Size)
	if size == 0 {
		size = c.chunkBytes
	}
	raw, err := c.reader.At(int64(e.Address)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", size, e.Address, err)
	}
	if c.pipeline.Empty() || c.unfilteredEdge(e.Offset) {
		return raw, nil
	}
	return c.pipeline.Decode(raw, e.FilterMask)
}

// unfilteredEdge reports whether the chunk at origin crosses the dataset
// edge in a layout that stores such chunks without filters.
func (c *Chunked) unfilteredEdge(origin []uint64) bool {
	if c.layout.ChunkFlags&message.ChunkFlagDontFilterEdges == 0 {
		return false
	}
	for d, o := range origin {
		if o+c.chunk[d] > c.dims[d] {
			return true
		}
	}
	return false
}
