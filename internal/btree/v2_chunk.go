package btree

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// Version 2 B-tree record types that index dataset chunks.
const (
	BTreeV2TypeChunkNoFilter   uint8 = 10
	BTreeV2TypeChunkWithFilter uint8 = 11
)

// v2 node prefix: signature, version, type and checksum.
const v2NodePrefix = 10

type btreeV2Header struct {
	Type       uint8
	NodeSize   uint32
	RecordSize uint16
	Depth      uint16
	RootAddr   uint64
	RootCount  uint16
	Total      uint64
}

// v2Level describes the nodes found at one depth of the tree.
type v2Level struct {
	maxRecords   uint64
	cumRecords   uint64 // records reachable below one node of this depth
	cumCountSize int    // bytes of the "total records" field in a pointer to this depth
}

type v2Tree struct {
	r          *binary.Reader
	hdr        *btreeV2Header
	levels     []v2Level
	countSize  int // bytes of the "records in child" field
	chunkDims  []uint64
	sizeLength int // bytes of the filtered chunk size in type 11 records
}

// ReadChunkIndexV2 collects the chunk records of a version 2 B-tree.
// Records carry scaled chunk coordinates; they are multiplied by chunkDims
// so every returned Offset is in element space like the v1 index.
func ReadChunkIndexV2(r *binary.Reader, btreeAddr uint64, chunkDims []uint64) (*ChunkIndex, error) {
	hdr, err := readBTreeV2Header(r, btreeAddr)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree v2 header: %w", err)
	}
	if hdr.Type != BTreeV2TypeChunkNoFilter && hdr.Type != BTreeV2TypeChunkWithFilter {
		return nil, fmt.Errorf("B-tree v2 record type %d does not index chunks", hdr.Type)
	}

	ndims := len(chunkDims)
	t := &v2Tree{r: r, hdr: hdr, chunkDims: chunkDims}
	fixed := r.OffsetSize() + 8*ndims
	if hdr.Type == BTreeV2TypeChunkWithFilter {
		fixed += 4
		t.sizeLength = int(hdr.RecordSize) - fixed
		if t.sizeLength < 1 || t.sizeLength > 8 {
			return nil, fmt.Errorf("B-tree v2 record size %d does not fit %d dimensions", hdr.RecordSize, ndims)
		}
	} else if int(hdr.RecordSize) != fixed {
		return nil, fmt.Errorf("B-tree v2 record size %d, want %d", hdr.RecordSize, fixed)
	}
	if err := t.initLevels(); err != nil {
		return nil, err
	}

	index := &ChunkIndex{NDims: ndims}
	if hdr.Total == 0 || r.IsUndefinedOffset(hdr.RootAddr) {
		return index, nil
	}
	if err := t.walk(hdr.RootAddr, uint64(hdr.RootCount), int(hdr.Depth), &index.Entries); err != nil {
		return nil, err
	}
	return index, nil
}

func readBTreeV2Header(r *binary.Reader, address uint64) (*btreeV2Header, error) {
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if string(sig) != "BTHD" {
		return nil, fmt.Errorf("invalid B-tree v2 signature %q", sig)
	}
	version, err := nr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported B-tree v2 version %d", version)
	}

	h := &btreeV2Header{}
	if h.Type, err = nr.ReadUint8(); err != nil {
		return nil, err
	}
	if h.NodeSize, err = nr.ReadUint32(); err != nil {
		return nil, err
	}
	if h.RecordSize, err = nr.ReadUint16(); err != nil {
		return nil, err
	}
	if h.Depth, err = nr.ReadUint16(); err != nil {
		return nil, err
	}
	nr.Skip(2) // split and merge percent
	if h.RootAddr, err = nr.ReadOffset(); err != nil {
		return nil, err
	}
	if h.RootCount, err = nr.ReadUint16(); err != nil {
		return nil, err
	}
	if h.Total, err = nr.ReadLength(); err != nil {
		return nil, err
	}
	if h.RecordSize == 0 || h.NodeSize <= v2NodePrefix {
		return nil, fmt.Errorf("invalid B-tree v2 node size %d or record size %d", h.NodeSize, h.RecordSize)
	}
	return h, nil
}

// varSize is the number of bytes needed to store n.
func varSize(n uint64) int {
	if n == 0 {
		return 1
	}
	return (bits.Len64(n)-1)/8 + 1
}

// initLevels derives the per-depth record limits the same way the library
// sizes nodes, which fixes the width of the counters in child pointers.
func (t *v2Tree) initLevels() error {
	nodeSize := uint64(t.hdr.NodeSize)
	recSize := uint64(t.hdr.RecordSize)
	depth := int(t.hdr.Depth)

	t.levels = make([]v2Level, depth+1)
	leafMax := (nodeSize - v2NodePrefix) / recSize
	if leafMax == 0 {
		return fmt.Errorf("B-tree v2 node size %d holds no records", nodeSize)
	}
	t.levels[0] = v2Level{maxRecords: leafMax, cumRecords: leafMax}
	t.countSize = varSize(leafMax)

	for d := 1; d <= depth; d++ {
		ptrSize := uint64(t.r.OffsetSize() + t.countSize)
		if d > 1 {
			ptrSize += uint64(t.levels[d-1].cumCountSize)
		}
		if nodeSize < v2NodePrefix+ptrSize {
			return fmt.Errorf("B-tree v2 node size %d too small for depth %d", nodeSize, depth)
		}
		maxRec := (nodeSize - (v2NodePrefix + ptrSize)) / (recSize + ptrSize)
		cum := (maxRec+1)*t.levels[d-1].cumRecords + maxRec
		t.levels[d] = v2Level{maxRecords: maxRec, cumRecords: cum, cumCountSize: varSize(cum)}
	}
	return nil
}

// walk appends every record in the subtree at addr. Internal nodes hold
// records of their own between the child pointers.
func (t *v2Tree) walk(addr, count uint64, depth int, out *[]ChunkEntry) error {
	if count > t.levels[depth].maxRecords {
		return fmt.Errorf("B-tree v2 node at %d claims %d records, max %d", addr, count, t.levels[depth].maxRecords)
	}
	nr := t.r.At(int64(addr))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return err
	}
	want := "BTIN"
	if depth == 0 {
		want = "BTLF"
	}
	if string(sig) != want {
		return fmt.Errorf("invalid B-tree v2 node signature %q at %d, want %s", sig, addr, want)
	}
	nr.Skip(1) // version
	typ, err := nr.ReadUint8()
	if err != nil {
		return err
	}
	if typ != t.hdr.Type {
		return fmt.Errorf("B-tree v2 node type %d does not match header type %d", typ, t.hdr.Type)
	}

	for i := uint64(0); i < count; i++ {
		e, err := t.readRecord(nr)
		if err != nil {
			return fmt.Errorf("reading B-tree v2 record %d at %d: %w", i, addr, err)
		}
		if !t.r.IsUndefinedOffset(e.Address) {
			*out = append(*out, e)
		}
	}
	if depth == 0 {
		return nil
	}

	type child struct{ addr, count uint64 }
	children := make([]child, count+1)
	for i := range children {
		if children[i].addr, err = nr.ReadOffset(); err != nil {
			return err
		}
		if children[i].count, err = nr.ReadUintN(t.countSize); err != nil {
			return err
		}
		if depth > 1 {
			nr.Skip(int64(t.levels[depth-1].cumCountSize))
		}
	}
	for _, c := range children {
		if err := t.walk(c.addr, c.count, depth-1, out); err != nil {
			return err
		}
	}
	return nil
}

// readRecord decodes a type 10 or 11 record: chunk address, then for
// filtered chunks the stored size and filter mask, then scaled offsets.
func (t *v2Tree) readRecord(nr *binary.Reader) (ChunkEntry, error) {
	var e ChunkEntry
	var err error
	if e.Address, err = nr.ReadOffset(); err != nil {
		return e, err
	}
	if t.hdr.Type == BTreeV2TypeChunkWithFilter {
		size, err := nr.ReadUintN(t.sizeLength)
		if err != nil {
			return e, err
		}
		if size > 1<<32-1 {
			return e, fmt.Errorf("chunk size %d too large", size)
		}
		e.Size = uint32(size)
		if e.FilterMask, err = nr.ReadUint32(); err != nil {
			return e, err
		}
	}
	e.Offset = make([]uint64, len(t.chunkDims))
	for i, c := range t.chunkDims {
		scaled, err := nr.ReadUint64()
		if err != nil {
			return e, err
		}
		e.Offset[i] = scaled * c
	}
	return e, nil
}
