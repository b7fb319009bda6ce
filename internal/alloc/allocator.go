package alloc

import "sync"

// Allocator hands out file offsets for a file being written. Space is
// only ever appended at the current end of file.
type Allocator struct {
	mu      sync.Mutex
	eofAddr uint64
}

// New creates an Allocator whose first allocation lands at baseAddr,
// typically right after the superblock.
func New(baseAddr uint64) *Allocator {
	return &Allocator{eofAddr: baseAddr}
}

// Alloc reserves size bytes at the end of file and returns their address.
// A zero size returns the current end of file without moving it.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.eofAddr
	a.eofAddr += size
	return addr
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}
