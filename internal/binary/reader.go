// Package binary reads and writes the integer fields of HDF5 metadata.
// Offsets and lengths have a width set per file by the superblock, so
// readers and writers carry that width alongside a position.
package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Config is the field layout of one file.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 2, 4, or 8 bytes
	LengthSize int // 2, 4, or 8 bytes
}

// DefaultConfig is little-endian with 8-byte offsets and lengths, the
// layout of every file Create writes.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// frame holds what Reader and Writer share: the file's field layout and a
// position of their own.
type frame struct {
	cfg Config
	pos int64
}

func (f *frame) Pos() int64 { return f.pos }

// Config returns the field layout the frame reads or writes.
func (f *frame) Config() Config { return f.cfg }

func (f *frame) OffsetSize() int { return f.cfg.OffsetSize }

func (f *frame) LengthSize() int { return f.cfg.LengthSize }

func (f *frame) ByteOrder() binary.ByteOrder { return f.cfg.ByteOrder }

// Skip moves the position n bytes ahead.
func (f *frame) Skip(n int64) { f.pos += n }

// Align moves the position up to the next multiple of alignment.
func (f *frame) Align(alignment int64) {
	if alignment > 1 {
		if r := f.pos % alignment; r != 0 {
			f.pos += alignment - r
		}
	}
}

// UndefinedOffset is the all-ones address HDF5 uses for "not allocated".
func (f *frame) UndefinedOffset() uint64 { return allOnes(f.cfg.OffsetSize) }

// IsUndefinedOffset reports whether addr is the undefined address.
func (f *frame) IsUndefinedOffset(addr uint64) bool { return addr == allOnes(f.cfg.OffsetSize) }

func allOnes(n int) uint64 {
	if n >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*n) - 1
}

func (f *frame) bigEndian() bool { return f.cfg.ByteOrder == binary.BigEndian }

func (f *frame) decode(b []byte) uint64 {
	var v uint64
	for i := range b {
		j := len(b) - 1 - i
		if f.bigEndian() {
			j = i
		}
		v = v<<8 | uint64(b[j])
	}
	return v
}

func (f *frame) encode(v uint64, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		j := i
		if f.bigEndian() {
			j = n - 1 - i
		}
		b[j] = byte(v >> (8 * i))
	}
	return b
}

// Reader reads fields from an io.ReaderAt, advancing its own position.
type Reader struct {
	frame
	r io.ReaderAt
}

func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{frame: frame{cfg: cfg}, r: r}
}

// At returns a reader on the same source positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{frame: frame{cfg: r.cfg, pos: offset}, r: r.r}
}

// ReadBytes reads exactly n bytes. A full read that also reports io.EOF
// is a success.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without moving.
func (r *Reader) Peek(n int) ([]byte, error) {
	return r.At(r.pos).ReadBytes(n)
}

// ReadUintN reads an n byte unsigned integer.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return r.decode(b), nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) { return r.ReadUintN(8) }

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) { return r.ReadUintN(r.cfg.OffsetSize) }

// ReadLength reads a size field.
func (r *Reader) ReadLength() (uint64, error) { return r.ReadUintN(r.cfg.LengthSize) }
