package message

import (
	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// Serializable is a message that can be written to a new object header.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
}

// encodable messages build their body with an encoder before anything is
// written, so a message that fails writes nothing.
type encodable interface {
	encode(e *encoder) error
}

// encoder appends little-endian fields sized for one file.
type encoder struct {
	b          []byte
	offsetSize int
	lengthSize int
}

func newEncoder(w *binary.Writer) *encoder {
	return &encoder{offsetSize: w.OffsetSize(), lengthSize: w.LengthSize()}
}

func (e *encoder) num(v uint64, n int) {
	for i := 0; i < n; i++ {
		e.b = append(e.b, byte(v>>(8*i)))
	}
}

func (e *encoder) u8(v uint8) { e.b = append(e.b, v) }
func (e *encoder) u16(v uint16) { e.num(uint64(v), 2) }
func (e *encoder) u32(v uint32) { e.num(uint64(v), 4) }
func (e *encoder) offset(v uint64) { e.num(v, e.offsetSize) }
func (e *encoder) length(v uint64) { e.num(v, e.lengthSize) }
func (e *encoder) bytes(p []byte) { e.b = append(e.b, p...) }
func (e *encoder) cstr(s string) { e.b = append(append(e.b, s...), 0) }
func (e *encoder) zeros(n int) { e.b = append(e.b, make([]byte, n)...) }

// body encodes m on its own, for messages nested in another message.
func (e *encoder) body(m encodable) ([]byte, error) {
	sub := &encoder{offsetSize: e.offsetSize, lengthSize: e.lengthSize}
	if err := m.encode(sub); err != nil {
		return nil, err
	}
	return sub.b, nil
}

func writeEncoded(w *binary.Writer, m encodable) error {
	e := newEncoder(w)
	if err := m.encode(e); err != nil {
		return err
	}
	return w.WriteBytes(e.b)
}
