package binary

import "io"

// Writer writes fields to an io.WriterAt, advancing its own position.
type Writer struct {
	frame
	w io.WriterAt
}

func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{frame: frame{cfg: cfg}, w: w}
}

// At returns a writer on the same target positioned at offset.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{frame: frame{cfg: w.cfg, pos: offset}, w: w.w}
}

func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WriteUintN writes v as an n byte unsigned integer.
func (w *Writer) WriteUintN(v uint64, n int) error {
	return w.WriteBytes(w.encode(v, n))
}

func (w *Writer) WriteUint8(v uint8) error { return w.WriteUintN(uint64(v), 1) }

func (w *Writer) WriteUint16(v uint16) error { return w.WriteUintN(uint64(v), 2) }

func (w *Writer) WriteUint32(v uint32) error { return w.WriteUintN(uint64(v), 4) }

// WriteOffset writes a file address.
func (w *Writer) WriteOffset(v uint64) error { return w.WriteUintN(v, w.cfg.OffsetSize) }

// Buffer is an in-memory io.WriterAt that grows to fit what is written.
type Buffer struct {
	b []byte
}

func (m *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(m.b) {
		m.b = append(m.b, make([]byte, end-len(m.b))...)
	}
	return copy(m.b[off:], p), nil
}

// Bytes returns the buffer's contents.
func (m *Buffer) Bytes() []byte { return m.b }
