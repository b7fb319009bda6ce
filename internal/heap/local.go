package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// LocalHeap is the name store of a symbol-table group.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the heap header at address and its data segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	if err := readPrefix(hr, "HEAP", 0); err != nil {
		return nil, fmt.Errorf("local heap at %#x: %w", address, err)
	}

	var err error
	field := func(read func() (uint64, error)) uint64 {
		var v uint64
		if err == nil {
			v, err = read()
		}
		return v
	}
	h := &LocalHeap{
		DataSize:    field(hr.ReadLength),
		FreeOffset:  field(hr.ReadLength),
		DataAddress: field(hr.ReadOffset),
	}
	if err == nil {
		h.data, err = r.At(int64(h.DataAddress)).ReadBytes(int(h.DataSize))
	}
	if err != nil {
		return nil, fmt.Errorf("local heap at %#x: %w", address, err)
	}
	return h, nil
}

// GetString returns the NUL terminated string at offset, or "" when
// offset is outside the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// readPrefix checks the signature and version that open a heap, and skips
// the three reserved bytes after them.
func readPrefix(r *binary.Reader, signature string, version uint8) error {
	b, err := r.ReadBytes(8)
	if err != nil {
		return err
	}
	if string(b[:4]) != signature {
		return fmt.Errorf("invalid signature %q, want %q", b[:4], signature)
	}
	if b[4] != version {
		return fmt.Errorf("unsupported version %d", b[4])
	}
	return nil
}
