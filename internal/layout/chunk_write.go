package layout

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// minPageBits is the smallest fixed array page size the writer declares.
const minPageBits = 10

// ChunkWriter stores unfiltered chunks and the fixed array that indexes them.
type ChunkWriter struct {
	w           *binary.Writer
	chunkDims   []uint32
	elementSize uint32
	allocate    func(size int64) uint64
}

func NewChunkWriter(w *binary.Writer, chunkDims []uint32, elementSize uint32, allocate func(size int64) uint64) *ChunkWriter {
	return &ChunkWriter{w: w, chunkDims: chunkDims, elementSize: elementSize, allocate: allocate}
}

// ChunkSize returns the size in bytes of one chunk.
func (cw *ChunkWriter) ChunkSize() uint64 {
	size := uint64(cw.elementSize)
	for _, d := range cw.chunkDims {
		size *= uint64(d)
	}
	return size
}

// WriteChunk stores one chunk and returns its address.
func (cw *ChunkWriter) WriteChunk(data []byte) (uint64, error) {
	addr := cw.allocate(int64(len(data)))
	if err := cw.w.At(int64(addr)).WriteBytes(data); err != nil {
		return 0, fmt.Errorf("writing chunk at %d: %w", addr, err)
	}
	return addr, nil
}

// WriteChunks stores chunks in order and returns their addresses.
func (cw *ChunkWriter) WriteChunks(chunks [][]byte) ([]uint64, error) {
	addrs := make([]uint64, len(chunks))
	for i, c := range chunks {
		addr, err := cw.WriteChunk(c)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// FixedArrayPageBits returns the page size exponent the writer uses for n
// chunks. The page is always large enough to keep the data block unpaged.
func FixedArrayPageBits(n int) uint8 {
	bits := uint8(minPageBits)
	for uint64(1)<<bits < uint64(n) {
		bits++
	}
	return bits
}

// WriteFixedArrayIndex writes a fixed array header ("FAHD") and its data
// block ("FADB") for chunk addresses in linear chunk order, and returns the
// header address. The header declares FixedArrayPageBits(len(addrs)).
func (cw *ChunkWriter) WriteFixedArrayIndex(addrs []uint64) (uint64, error) {
	if len(addrs) == 0 {
		return cw.w.UndefinedOffset(), nil
	}
	os, ls := cw.w.OffsetSize(), cw.w.LengthSize()
	hdrAddr := cw.allocate(int64(8 + ls + os + 4))
	dblkAddr := cw.allocate(int64(6 + os + len(addrs)*os + 4))

	var dblk block
	dblk.header("FADB")
	dblk.num(hdrAddr, os)
	for _, a := range addrs {
		dblk.num(a, os)
	}
	if err := dblk.flush(cw.w, dblkAddr); err != nil {
		return 0, err
	}

	var hdr block
	hdr.header("FAHD")
	hdr.b = append(hdr.b, uint8(os), FixedArrayPageBits(len(addrs)))
	hdr.num(uint64(len(addrs)), ls)
	hdr.num(dblkAddr, os)
	if err := hdr.flush(cw.w, hdrAddr); err != nil {
		return 0, err
	}
	return hdrAddr, nil
}

// block assembles a checksummed metadata block.
type block struct {
	b []byte
}

// header writes the signature, version 0 and the unfiltered client id.
func (k *block) header(sig string) {
	k.b = append(k.b, sig...)
	k.b = append(k.b, 0, 0)
}

func (k *block) num(v uint64, n int) {
	for i := 0; i < n; i++ {
		k.b = append(k.b, byte(v>>(8*i)))
	}
}

func (k *block) flush(w *binary.Writer, addr uint64) error {
	k.num(uint64(binary.Lookup3Checksum(k.b)), 4)
	if err := w.At(int64(addr)).WriteBytes(k.b); err != nil {
		return fmt.Errorf("writing %s at %d: %w", k.b[:4], addr, err)
	}
	return nil
}

// SplitIntoChunks splits row-major data into chunks along the first
// dimension. Every other chunk dimension must equal the dataset extent, so
// each chunk is a contiguous block of rows. The last chunk is zero padded to
// the full chunk size.
func SplitIntoChunks(data []byte, dataDims []uint64, chunkDims []uint32, elementSize uint32) ([][]byte, error) {
	if len(chunkDims) != len(dataDims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(chunkDims), len(dataDims))
	}
	chunkSize := uint64(elementSize)
	for i, c := range chunkDims {
		if c == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", i)
		}
		if i > 0 && uint64(c) != dataDims[i] {
			return nil, fmt.Errorf("chunk dimension %d is %d, want the full extent %d", i, c, dataDims[i])
		}
		chunkSize *= uint64(c)
	}

	var chunks [][]byte
	for offset := uint64(0); offset < uint64(len(data)); offset += chunkSize {
		end := min(offset+chunkSize, uint64(len(data)))
		chunk := data[offset:end]
		if uint64(len(chunk)) < chunkSize {
			padded := make([]byte, chunkSize)
			copy(padded, chunk)
			chunk = padded
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
