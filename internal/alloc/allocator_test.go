package alloc

import (
	"sync"
	"testing"
)

func TestAllocatorAppends(t *testing.T) {
	a := New(1024)

	tests := []struct {
		size     uint64
		wantAddr uint64
		wantEOF  uint64
	}{
		{100, 1024, 1124},
		{200, 1124, 1324},
		{0, 1324, 1324},
		{8, 1324, 1332},
	}
	for _, tt := range tests {
		if got := a.Alloc(tt.size); got != tt.wantAddr {
			t.Errorf("Alloc(%d) = 0x%x, want 0x%x", tt.size, got, tt.wantAddr)
		}
		if got := a.EOFAddr(); got != tt.wantEOF {
			t.Errorf("EOFAddr after Alloc(%d) = 0x%x, want 0x%x", tt.size, got, tt.wantEOF)
		}
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	a := New(0)

	const workers, each = 8, 100
	addrs := make(chan uint64, workers*each)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				addrs <- a.Alloc(16)
			}
		}()
	}
	wg.Wait()
	close(addrs)

	seen := make(map[uint64]bool)
	for addr := range addrs {
		if addr%16 != 0 || seen[addr] {
			t.Fatalf("overlapping allocation at 0x%x", addr)
		}
		seen[addr] = true
	}
	if a.EOFAddr() != workers*each*16 {
		t.Errorf("EOFAddr = %d, want %d", a.EOFAddr(), workers*each*16)
	}
}
