package binary

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// memFile is a growable io.WriterAt and io.ReaderAt.
type memFile struct{ buf []byte }

func (m *memFile) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	return copy(m.buf[off:], p), nil
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.buf).ReadAt(p, off)
}

func TestWriterFields(t *testing.T) {
	var f memFile
	w := NewWriter(&f, Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 4})
	w.WriteUint8(0xAB)
	w.WriteUint16(0x1234)
	w.WriteUint32(0x12345678)
	w.WriteOffset(0x1000)
	w.WriteUintN(0x010203, 3)
	w.WriteBytes([]byte("OHDR"))

	want := []byte{
		0xAB,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0x00, 0x10, 0x00, 0x00,
		0x03, 0x02, 0x01,
		'O', 'H', 'D', 'R',
	}
	if !bytes.Equal(f.buf, want) {
		t.Errorf("got % x\nwant % x", f.buf, want)
	}
	if w.Pos() != int64(len(want)) {
		t.Errorf("position %d, want %d", w.Pos(), len(want))
	}
}

func TestWriterBigEndian(t *testing.T) {
	var f memFile
	w := NewWriter(&f, Config{ByteOrder: binary.BigEndian, OffsetSize: 2, LengthSize: 2})
	w.WriteUint16(0x1234)
	w.WriteOffset(0x20)
	w.WriteUintN(0x010203, 3)
	if want := []byte{0x12, 0x34, 0x00, 0x20, 0x01, 0x02, 0x03}; !bytes.Equal(f.buf, want) {
		t.Errorf("got % x, want % x", f.buf, want)
	}
}

func TestWriterPositioning(t *testing.T) {
	var f memFile
	w := NewWriter(&f, DefaultConfig())
	w.At(8).WriteUint8(0xFF)
	if w.Pos() != 0 {
		t.Errorf("At moved the parent to %d", w.Pos())
	}
	w.Skip(1)
	w.Align(4)
	w.WriteUint8(0x01)
	if want := []byte{0, 0, 0, 0, 0x01, 0, 0, 0, 0xFF}; !bytes.Equal(f.buf, want) {
		t.Errorf("got % x, want % x", f.buf, want)
	}
	if w.UndefinedOffset() != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("UndefinedOffset: got %#x", w.UndefinedOffset())
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, cfg := range []Config{
		DefaultConfig(),
		{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 2},
		{ByteOrder: binary.BigEndian, OffsetSize: 8, LengthSize: 4},
	} {
		var f memFile
		w := NewWriter(&f, cfg)
		w.WriteUint32(0xDEADBEEF)
		w.WriteOffset(0x0102)
		w.WriteUintN(0x0304, cfg.LengthSize)

		r := NewReader(&f, cfg)
		a, _ := r.ReadUint32()
		off, _ := r.ReadOffset()
		n, err := r.ReadLength()
		if err != nil || a != 0xDEADBEEF || off != 0x0102 || n != 0x0304 {
			t.Errorf("%+v: got %#x %#x %#x, %v", cfg, a, off, n, err)
		}
	}
}
