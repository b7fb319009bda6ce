package layout

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/btree"
)

const unlimited = ^uint64(0)

// grid numbers the chunks of the array-based indexes. Chunks are counted
// row-major over the maximum extent, with an unlimited dimension moved to
// the front.
type grid struct {
	chunk  []uint64
	counts []uint64
	order  []int // dimensions, slowest first
}

func (c *Chunked) grid() (grid, error) {
	g := grid{chunk: c.chunk, counts: make([]uint64, len(c.chunk))}
	unlim := -1
	for d, m := range c.maxDims {
		if m == unlimited {
			if unlim >= 0 {
				return g, fmt.Errorf("dimensions %d and %d are both unlimited", unlim, d)
			}
			unlim = d
			continue
		}
		g.counts[d] = (m + c.chunk[d] - 1) / c.chunk[d]
	}
	if unlim >= 0 {
		g.order = append(g.order, unlim)
	}
	for d := range c.chunk {
		if d != unlim {
			g.order = append(g.order, d)
		}
	}
	return g, nil
}

// origin returns the element coordinates of chunk i.
func (g grid) origin(i uint64) []uint64 {
	o := make([]uint64, len(g.chunk))
	for k := len(g.order) - 1; k > 0; k-- {
		d := g.order[k]
		o[d] = i % g.counts[d] * g.chunk[d]
		i /= g.counts[d]
	}
	o[g.order[0]] = i * g.chunk[g.order[0]]
	return o
}

// total is the number of chunks over the maximum extent.
func (g grid) total() uint64 {
	return product(g.counts)
}

func (c *Chunked) inside(origin []uint64) bool {
	for d, o := range origin {
		if o >= c.dims[d] {
			return false
		}
	}
	return true
}

// implicitEntries lays every chunk out back to back from addr.
func (c *Chunked) implicitEntries(addr uint64) ([]btree.ChunkEntry, error) {
	g, err := c.grid()
	if err != nil {
		return nil, err
	}
	if g.order[0] != 0 || c.maxDims[0] == unlimited {
		return nil, fmt.Errorf("implicit index on an unlimited dimension")
	}
	var entries []btree.ChunkEntry
	for i := uint64(0); i < g.total(); i++ {
		if o := g.origin(i); c.inside(o) {
			entries = append(entries, btree.ChunkEntry{Offset: o, Address: addr + i*c.chunkBytes})
		}
	}
	return entries, nil
}

// arrayElem is one element of a fixed or extensible array chunk index.
type arrayElem struct {
	addr uint64
	size uint32
	mask uint32
}

// elemCodec decodes array elements: a chunk address, then for filtered
// datasets the stored size and filter mask.
type elemCodec struct {
	size       int
	offsetSize int
	filtered   bool
}

func newElemCodec(r *binary.Reader, client uint8, size int) (elemCodec, error) {
	ec := elemCodec{size: size, offsetSize: r.OffsetSize(), filtered: client == 1}
	switch {
	case client > 1:
		return ec, fmt.Errorf("unknown array client %d", client)
	case !ec.filtered && size != ec.offsetSize:
		return ec, fmt.Errorf("element size %d, want %d", size, ec.offsetSize)
	case ec.filtered && (size-ec.offsetSize-4 < 1 || size-ec.offsetSize-4 > 8):
		return ec, fmt.Errorf("filtered element size %d", size)
	}
	return ec, nil
}

func (ec elemCodec) decode(b []byte) arrayElem {
	e := arrayElem{addr: le(b[:ec.offsetSize])}
	if ec.filtered {
		n := ec.size - ec.offsetSize - 4
		e.size = uint32(le(b[ec.offsetSize : ec.offsetSize+n]))
		e.mask = uint32(le(b[ec.offsetSize+n : ec.size]))
	}
	return e
}

// appendEntry adds the element at linear index i if it holds a chunk.
func (c *Chunked) appendEntry(entries []btree.ChunkEntry, g grid, i uint64, e arrayElem) []btree.ChunkEntry {
	if e.addr == 0 || c.reader.IsUndefinedOffset(e.addr) {
		return entries
	}
	o := g.origin(i)
	if !c.inside(o) {
		return entries
	}
	return append(entries, btree.ChunkEntry{Offset: o, Address: e.addr, Size: e.size, FilterMask: e.mask})
}

// readFixedArray reads a fixed array header ("FAHD") and its data block
// ("FADB"), which is split into pages once it holds more than 2^pageBits
// elements.
func (c *Chunked) readFixedArray(addr uint64) ([]btree.ChunkEntry, error) {
	g, err := c.grid()
	if err != nil {
		return nil, err
	}
	os, ls := c.reader.OffsetSize(), c.reader.LengthSize()
	hdr, err := readBlock(c.reader, addr, 4+4+ls+os+4, "FAHD")
	if err != nil {
		return nil, err
	}
	ec, err := newElemCodec(c.reader, hdr[5], int(hdr[6]))
	if err != nil {
		return nil, err
	}
	pageBits := hdr[7]
	n := le(hdr[8 : 8+ls])
	dblk := le(hdr[8+ls : 8+ls+os])
	if n == 0 || c.reader.IsUndefinedOffset(dblk) {
		return nil, nil
	}
	if n > g.total() {
		return nil, fmt.Errorf("fixed array holds %d elements for %d chunks", n, g.total())
	}

	var entries []btree.ChunkEntry
	pageN := uint64(1) << pageBits
	prefix := 4 + 2 + os
	if n <= pageN {
		blk, err := readBlock(c.reader, dblk, prefix+int(n)*ec.size+4, "FADB")
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			at := prefix + int(i)*ec.size
			entries = c.appendEntry(entries, g, i, ec.decode(blk[at:at+ec.size]))
		}
		return entries, nil
	}

	npages := (n + pageN - 1) / pageN
	bitmap := int(npages+7) / 8
	blk, err := readBlock(c.reader, dblk, prefix+bitmap+4, "FADB")
	if err != nil {
		return nil, err
	}
	pageAddr := dblk + uint64(prefix+bitmap+4)
	for p := uint64(0); p < npages; p++ {
		cnt := min(pageN, n-p*pageN)
		pageSize := int(cnt)*ec.size + 4
		if bitSet(blk[prefix:prefix+bitmap], p) {
			page, err := readPage(c.reader, pageAddr, pageSize)
			if err != nil {
				return nil, fmt.Errorf("fixed array page %d: %w", p, err)
			}
			for j := uint64(0); j < cnt; j++ {
				at := int(j) * ec.size
				entries = c.appendEntry(entries, g, p*pageN+j, ec.decode(page[at:at+ec.size]))
			}
		}
		pageAddr += uint64(pageN)*uint64(ec.size) + 4
	}
	return entries, nil
}

// eaHeader is the part of an extensible array header ("EAHD") needed to
// find its elements.
type eaHeader struct {
	codec       elemCodec
	maxBits     uint8
	idxElems    uint64
	dblkMin     uint64
	sblkMinPtrs uint64
	pageBits    uint8
	maxIdxSet   uint64
	iblockAddr  uint64
}

// eaSuper describes the data blocks reached through one super block slot.
type eaSuper struct {
	ndblks    uint64
	dblkElems uint64
	startIdx  uint64
	startDblk uint64
}

func (h *eaHeader) supers() ([]eaSuper, error) {
	if h.dblkMin == 0 || h.dblkMin&(h.dblkMin-1) != 0 || h.sblkMinPtrs == 0 || h.sblkMinPtrs&(h.sblkMinPtrs-1) != 0 {
		return nil, fmt.Errorf("extensible array block minimums %d and %d are not powers of two", h.dblkMin, h.sblkMinPtrs)
	}
	minBits := bits.TrailingZeros64(h.dblkMin)
	if int(h.maxBits) < minBits || h.maxBits > 64 {
		return nil, fmt.Errorf("extensible array max bits %d", h.maxBits)
	}
	n := 1 + int(h.maxBits) - minBits
	s := make([]eaSuper, n)
	var idx, dblk uint64
	for u := range s {
		s[u] = eaSuper{
			ndblks:    1 << (u / 2),
			dblkElems: (1 << ((u + 1) / 2)) * h.dblkMin,
			startIdx:  idx,
			startDblk: dblk,
		}
		idx += s[u].ndblks * s[u].dblkElems
		dblk += s[u].ndblks
	}
	return s, nil
}

func (c *Chunked) readEAHeader(addr uint64) (*eaHeader, error) {
	os, ls := c.reader.OffsetSize(), c.reader.LengthSize()
	b, err := readBlock(c.reader, addr, 12+6*ls+os+4, "EAHD")
	if err != nil {
		return nil, err
	}
	h := &eaHeader{
		maxBits:     b[7],
		idxElems:    uint64(b[8]),
		dblkMin:     uint64(b[9]),
		sblkMinPtrs: uint64(b[10]),
		pageBits:    b[11],
		maxIdxSet:   le(b[12+4*ls : 12+5*ls]),
		iblockAddr:  le(b[12+6*ls : 12+6*ls+os]),
	}
	if h.codec, err = newElemCodec(c.reader, b[5], int(b[6])); err != nil {
		return nil, err
	}
	return h, nil
}

// readExtensibleArray walks an extensible array: elements kept in the
// index block ("EAIB"), data blocks ("EADB") it points to directly, and
// data blocks reached through super blocks ("EASB").
func (c *Chunked) readExtensibleArray(addr uint64) ([]btree.ChunkEntry, error) {
	g, err := c.grid()
	if err != nil {
		return nil, err
	}
	h, err := c.readEAHeader(addr)
	if err != nil {
		return nil, err
	}
	if h.maxIdxSet == 0 || c.reader.IsUndefinedOffset(h.iblockAddr) {
		return nil, nil
	}
	supers, err := h.supers()
	if err != nil {
		return nil, err
	}

	os := c.reader.OffsetSize()
	es := h.codec.size
	iblockSupers := 2 * bits.TrailingZeros64(h.sblkMinPtrs)
	ndblkAddrs := int(2 * (h.sblkMinPtrs - 1))
	nsblkAddrs := max(len(supers)-iblockSupers, 0)
	prefix := 4 + 2 + os
	ib, err := readBlock(c.reader, h.iblockAddr, prefix+int(h.idxElems)*es+(ndblkAddrs+nsblkAddrs)*os+4, "EAIB")
	if err != nil {
		return nil, err
	}

	var entries []btree.ChunkEntry
	for i := uint64(0); i < h.idxElems && i < h.maxIdxSet; i++ {
		at := prefix + int(i)*es
		entries = c.appendEntry(entries, g, i, h.codec.decode(ib[at:at+es]))
	}
	dblkAddrs := ib[prefix+int(h.idxElems)*es:]
	sblkAddrs := dblkAddrs[ndblkAddrs*os:]

	for u, s := range supers {
		base := h.idxElems + s.startIdx
		if base >= h.maxIdxSet {
			break
		}
		var addrs []uint64
		var pageInit []byte
		if u < iblockSupers {
			for j := uint64(0); j < s.ndblks; j++ {
				at := int(s.startDblk+j) * os
				addrs = append(addrs, le(dblkAddrs[at:at+os]))
			}
		} else {
			at := (u - iblockSupers) * os
			sb := le(sblkAddrs[at : at+os])
			if sb == 0 || c.reader.IsUndefinedOffset(sb) {
				continue
			}
			if addrs, pageInit, err = c.readEASuper(h, s, sb); err != nil {
				return nil, err
			}
		}
		for j, db := range addrs {
			first := base + uint64(j)*s.dblkElems
			if first >= h.maxIdxSet {
				break
			}
			if db == 0 || c.reader.IsUndefinedOffset(db) {
				continue
			}
			elems, err := c.readEADataBlock(h, s, db, uint64(j), pageInit)
			if err != nil {
				return nil, fmt.Errorf("extensible array data block at %d: %w", db, err)
			}
			for k, e := range elems {
				if idx := first + uint64(k); idx < h.maxIdxSet {
					entries = c.appendEntry(entries, g, idx, e)
				}
			}
		}
	}
	return entries, nil
}

func (h *eaHeader) pageElems(s eaSuper) (pageN, npages uint64) {
	pageN = uint64(1) << h.pageBits
	if s.dblkElems <= pageN {
		return 0, 0
	}
	return pageN, s.dblkElems / pageN
}

func (c *Chunked) readEASuper(h *eaHeader, s eaSuper, addr uint64) ([]uint64, []byte, error) {
	os := c.reader.OffsetSize()
	offSize := int(h.maxBits+7) / 8
	_, npages := h.pageElems(s)
	initSize := 0
	if npages > 0 {
		initSize = int(s.ndblks) * int((npages+7)/8)
	}
	prefix := 4 + 2 + os + offSize
	b, err := readBlock(c.reader, addr, prefix+initSize+int(s.ndblks)*os+4, "EASB")
	if err != nil {
		return nil, nil, err
	}
	addrs := make([]uint64, s.ndblks)
	for j := range addrs {
		at := prefix + initSize + j*os
		addrs[j] = le(b[at : at+os])
	}
	return addrs, b[prefix : prefix+initSize], nil
}

// readEADataBlock returns the elements of data block j of a super block
// slot. Pages the super block marks uninitialized read as empty elements.
func (c *Chunked) readEADataBlock(h *eaHeader, s eaSuper, addr, j uint64, pageInit []byte) ([]arrayElem, error) {
	es := h.codec.size
	prefix := 4 + 2 + c.reader.OffsetSize() + int(h.maxBits+7)/8
	pageN, npages := h.pageElems(s)
	elems := make([]arrayElem, s.dblkElems)

	if npages == 0 {
		b, err := readBlock(c.reader, addr, prefix+int(s.dblkElems)*es+4, "EADB")
		if err != nil {
			return nil, err
		}
		for k := range elems {
			at := prefix + k*es
			elems[k] = h.codec.decode(b[at : at+es])
		}
		return elems, nil
	}

	if _, err := readBlock(c.reader, addr, prefix+4, "EADB"); err != nil {
		return nil, err
	}
	pageSize := int(pageN)*es + 4
	for p := uint64(0); p < npages; p++ {
		if pageInit != nil && !bitSet(pageInit, j*npages+p) {
			continue
		}
		page, err := readPage(c.reader, addr+uint64(prefix+4)+p*uint64(pageSize), pageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		for k := uint64(0); k < pageN; k++ {
			at := int(k) * es
			elems[p*pageN+k] = h.codec.decode(page[at : at+es])
		}
	}
	return elems, nil
}

// readBlock reads an n byte metadata block that starts with sig and ends
// with a checksum of everything before it.
func readBlock(r *binary.Reader, addr uint64, n int, sig string) ([]byte, error) {
	b, err := r.At(int64(addr)).ReadBytes(n)
	if err != nil {
		return nil, fmt.Errorf("reading %s at %d: %w", sig, addr, err)
	}
	if string(b[:4]) != sig {
		return nil, fmt.Errorf("invalid signature %q at %d, want %s", b[:4], addr, sig)
	}
	if b[4] != 0 {
		return nil, fmt.Errorf("unsupported %s version %d", sig, b[4])
	}
	if err := verify(b); err != nil {
		return nil, fmt.Errorf("%s at %d: %w", sig, addr, err)
	}
	return b, nil
}

// readPage reads a data block page: elements followed by their checksum.
func readPage(r *binary.Reader, addr uint64, n int) ([]byte, error) {
	b, err := r.At(int64(addr)).ReadBytes(n)
	if err != nil {
		return nil, err
	}
	if err := verify(b); err != nil {
		return nil, err
	}
	return b[:n-4], nil
}

func verify(b []byte) error {
	n := len(b) - 4
	if want, got := uint32(le(b[n:])), binary.Lookup3Checksum(b[:n]); want != got {
		return fmt.Errorf("checksum mismatch: stored %#08x, computed %#08x", want, got)
	}
	return nil
}

// bitSet reads bit i of a most-significant-bit-first bitmap.
func bitSet(bitmap []byte, i uint64) bool {
	return bitmap[i/8]&(0x80>>(i%8)) != 0
}

// le decodes a little-endian unsigned integer of up to eight bytes.
func le(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
