package gadget

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrBlockTooLarge is returned for blocks whose size does not fit the
// int32 record frame.
var ErrBlockTooLarge = errors.New("block of 2 GiB or more")

// MaxBlockSize is the largest block payload, in bytes, that can be framed.
const MaxBlockSize = math.MaxInt32

// Writer writes framed blocks.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer that buffers output to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 1<<20)}
}

// WriteBlock writes payload framed by its byte count.
func (w *Writer) WriteBlock(payload []byte) error {
	if len(payload) > MaxBlockSize {
		return fmt.Errorf("%d bytes: %w", len(payload), ErrBlockTooLarge)
	}
	var frame [4]byte
	binary.LittleEndian.PutUint32(frame[:], uint32(len(payload)))

	if _, err := w.w.Write(frame[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	_, err := w.w.Write(frame[:])
	return err
}

// WriteHeader writes h as the header block.
func (w *Writer) WriteHeader(h *Header) error {
	payload, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	return w.WriteBlock(payload)
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteFile writes a particle file: header, then positions, velocities and
// ids, each as one block of little-endian values.
func WriteFile(path string, h *Header, pos, vel, ids []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := NewWriter(f)
	if err := w.WriteHeader(h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, b := range []struct {
		name string
		data []byte
	}{{"position", pos}, {"velocity", vel}, {"id", ids}} {
		if err := w.WriteBlock(b.data); err != nil {
			return fmt.Errorf("writing %s block: %w", b.name, err)
		}
	}
	return w.Flush()
}

// ReadBlock reads one framed block and checks that both frames agree.
func ReadBlock(r io.Reader) ([]byte, error) {
	var frame [4]byte
	if _, err := io.ReadFull(r, frame[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(frame[:])
	if n > MaxBlockSize {
		return nil, fmt.Errorf("frame of %d bytes: %w", n, ErrBlockTooLarge)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading %d byte block: %w", n, err)
	}
	if _, err := io.ReadFull(r, frame[:]); err != nil {
		return nil, fmt.Errorf("reading trailing frame: %w", err)
	}
	if tail := binary.LittleEndian.Uint32(frame[:]); tail != n {
		return nil, fmt.Errorf("block frames disagree: %d then %d", n, tail)
	}
	return payload, nil
}
