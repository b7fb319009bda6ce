package btree

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// ChunkEntry locates one stored chunk of a dataset.
type ChunkEntry struct {
	// Offset is the chunk origin in dataset element coordinates.
	Offset []uint64

	// FilterMask has bit i set when filter i was skipped for this chunk.
	FilterMask uint32

	// Size is the stored (possibly filtered) size in bytes.
	Size uint32

	Address uint64
}

// ChunkIndex holds every entry of one dataset.
type ChunkIndex struct {
	NDims   int
	Entries []ChunkEntry
}

// chunkKey is the key of a version 1 chunk B-tree node. Keys carry one
// offset more than the dataset rank; the extra one is always zero.
type chunkKey struct {
	size   uint32
	mask   uint32
	offset []uint64
}

// ReadChunkIndex walks a version 1 chunk B-tree ("TREE" nodes of type 1).
// ndims is the dataset rank.
func ReadChunkIndex(r *binary.Reader, btreeAddr uint64, ndims int) (*ChunkIndex, error) {
	index := &ChunkIndex{NDims: ndims}
	if r.IsUndefinedOffset(btreeAddr) {
		return index, nil
	}
	if err := readChunkBTreeNode(r, btreeAddr, ndims, -1, &index.Entries); err != nil {
		return nil, err
	}
	return index, nil
}

func readChunkBTreeNode(r *binary.Reader, address uint64, ndims int, level int, out *[]ChunkEntry) error {
	nr, hdr, err := openNode(r, address, 1)
	if err != nil {
		return err
	}
	if level >= 0 && hdr.level != level {
		return fmt.Errorf("B-tree node at %#x has level %d, expected %d", address, hdr.level, level)
	}

	// used children sit between used+1 keys.
	for i := range hdr.used {
		key, err := readChunkKey(nr, ndims)
		if err != nil {
			return fmt.Errorf("reading chunk key %d at %d: %w", i, address, err)
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return fmt.Errorf("reading chunk address: %w", err)
		}
		if hdr.level > 0 {
			if err := readChunkBTreeNode(r, child, ndims, hdr.level-1, out); err != nil {
				return err
			}
			continue
		}
		if r.IsUndefinedOffset(child) || key.size == 0 {
			continue
		}
		*out = append(*out, ChunkEntry{
			Offset:     key.offset[:ndims],
			FilterMask: key.mask,
			Size:       key.size,
			Address:    child,
		})
	}
	return nil
}

// readChunkKey reads a key: the stored size, the filter mask and ndims+1
// eight-byte offsets.
func readChunkKey(nr *binary.Reader, ndims int) (chunkKey, error) {
	b, err := nr.ReadBytes(8 + 8*(ndims+1))
	if err != nil {
		return chunkKey{}, err
	}
	k := chunkKey{size: uint32(le(b[:4])), mask: uint32(le(b[4:8])), offset: make([]uint64, ndims+1)}
	for i := range k.offset {
		k.offset[i] = le(b[8+8*i : 16+8*i])
	}
	return k, nil
}
