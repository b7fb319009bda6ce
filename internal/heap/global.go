package heap

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// GlobalHeap is one collection of the global heap.
type GlobalHeap struct {
	CollectionSize uint64
	objects        map[uint16][]byte
}

// GlobalHeapID locates an object: the address of its collection and its
// index there.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ReadGlobalHeap reads the collection at address with all its objects.
func ReadGlobalHeap(r *binpkg.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address %#x", address)
	}
	hr := r.At(int64(address))
	if err := readPrefix(hr, "GCOL", 1); err != nil {
		return nil, fmt.Errorf("global heap at %#x: %w", address, err)
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, fmt.Errorf("global heap at %#x: %w", address, err)
	}
	ls := r.LengthSize()
	if size < uint64(8+ls) {
		return nil, fmt.Errorf("global heap at %#x: collection size %d is smaller than its header", address, size)
	}
	body, err := hr.ReadBytes(int(size) - 8 - ls)
	if err != nil {
		return nil, fmt.Errorf("global heap at %#x: %w", address, err)
	}

	h := &GlobalHeap{CollectionSize: size, objects: make(map[uint16][]byte)}
	// An object is its index, a reference count, four reserved bytes and
	// its size, then the data padded to eight bytes. Index 0 starts the
	// free space at the end.
	for pos := 0; pos+8+ls <= len(body); {
		index := binary.LittleEndian.Uint16(body[pos:])
		if index == 0 {
			break
		}
		n := leUint(body[pos+8 : pos+8+ls])
		pos += 8 + ls
		if n > uint64(len(body)-pos) {
			return nil, fmt.Errorf("global heap at %#x: object %d of %d bytes overruns the collection", address, index, n)
		}
		h.objects[index] = body[pos : pos+int(n)]
		pos += int(n+7) &^ 7
	}
	return h, nil
}

// GetObject returns a copy of the object at index.
func (h *GlobalHeap) GetObject(index uint16) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil global heap")
	}
	data, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("object index %d not found in global heap", index)
	}
	return bytes.Clone(data), nil
}

// ParseGlobalHeapID decodes an ID stored as an offsetSize address and a
// four byte index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	switch offsetSize {
	case 2, 4, 8:
	default:
		return GlobalHeapID{}, fmt.Errorf("unsupported offset size: %d", offsetSize)
	}
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID too short: need %d bytes, have %d", offsetSize+4, len(data))
	}
	return GlobalHeapID{
		CollectionAddress: leUint(data[:offsetSize]),
		ObjectIndex:       binary.LittleEndian.Uint32(data[offsetSize:]),
	}, nil
}

func leUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
