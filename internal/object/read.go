package object

import (
	bin "encoding/binary"
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// maxBlocks bounds the continuation chain so a cycle in a damaged file
// ends in an error.
const maxBlocks = 4096

// blockReader walks the message blocks of one header.
type blockReader struct {
	r      *binary.Reader
	h      *Header
	blocks int
}

// readV1 reads a version 1 header: a 16 byte prefix, then messages padded
// to multiples of eight bytes.
func (h *Header) readV1(r *binary.Reader) error {
	pre, err := r.ReadBytes(16)
	if err != nil {
		return err
	}
	h.Version = pre[0]
	h.RefCount = bin.LittleEndian.Uint32(pre[4:])
	size := bin.LittleEndian.Uint32(pre[8:])
	chunk, err := r.ReadBytes(int(size))
	if err != nil {
		return fmt.Errorf("reading %d bytes of messages: %w", size, err)
	}
	h.Messages = make([]message.Message, 0, bin.LittleEndian.Uint16(pre[2:]))
	return (&blockReader{r: r, h: h}).messages(chunk)
}

// readV2 reads an "OHDR" header. Its first block holds optional
// timestamps and attribute limits before the block size, and ends in a
// checksum over everything from the signature on.
func (h *Header) readV2(r *binary.Reader) error {
	start := r.Pos()
	pre, err := r.ReadBytes(6)
	if err != nil {
		return err
	}
	if h.Version, h.Flags = pre[4], pre[5]; h.Version != 2 {
		return fmt.Errorf("%w: expected version 2, got %d", ErrUnsupportedVersion, h.Version)
	}
	opt := 0
	if h.Flags&0x20 != 0 {
		opt += 16
	}
	if h.Flags&0x10 != 0 {
		opt += 4 // max compact and min dense attribute counts
	}
	width := 1 << (h.Flags & 0x03)
	pre, err = r.ReadBytes(opt + width)
	if err != nil {
		return err
	}
	if h.Flags&0x20 != 0 {
		le := bin.LittleEndian
		h.AccessTime, h.ModTime, h.ChangeTime, h.BirthTime = le.Uint32(pre), le.Uint32(pre[4:]), le.Uint32(pre[8:]), le.Uint32(pre[12:])
	}
	var size uint64
	for i := width - 1; i >= 0; i-- {
		size = size<<8 | uint64(pre[opt+i])
	}

	prefix := 6 + opt + width
	block, err := r.At(start).ReadBytes(prefix + int(size) + 4)
	if err != nil {
		return fmt.Errorf("reading %d byte block: %w", size, err)
	}
	if err := verify(block); err != nil {
		return err
	}
	return (&blockReader{r: r, h: h}).messages(block[prefix : len(block)-4])
}

func verify(block []byte) error {
	n := len(block) - 4
	if stored, sum := bin.LittleEndian.Uint32(block[n:]), binary.Lookup3Checksum(block[:n]); stored != sum {
		return fmt.Errorf("%w: stored %#08x, computed %#08x", ErrChecksumMismatch, stored, sum)
	}
	return nil
}

// messages decodes the messages packed in b. Version 2 blocks may end in a
// gap too short for a message header.
func (br *blockReader) messages(b []byte) error {
	head := 8
	if br.h.Version == 2 {
		head = 4
		if br.h.Flags&0x04 != 0 {
			head = 6 // creation order
		}
	}
	for len(b) >= head {
		var typ message.Type
		var size int
		var flags uint8
		if br.h.Version == 1 {
			typ, size, flags = message.Type(bin.LittleEndian.Uint16(b)), int(bin.LittleEndian.Uint16(b[2:])), b[4]
		} else {
			typ, size, flags = message.Type(b[0]), int(bin.LittleEndian.Uint16(b[1:])), b[3]
		}
		b = b[head:]
		if size > len(b) {
			return fmt.Errorf("%w: message type %d of %d bytes overruns its block", ErrInvalidHeader, typ, size)
		}
		data := b[:size]
		if br.h.Version == 1 {
			size = min((size+7)&^7, len(b))
		}
		b = b[size:]
		if err := br.message(typ, flags, data); err != nil {
			return err
		}
	}
	return nil
}

func (br *blockReader) message(typ message.Type, flags uint8, data []byte) error {
	switch typ {
	case message.TypeNIL:
		return nil
	case message.TypeObjectHeaderContinuation:
		cont, err := message.ParseContinuation(data, br.r)
		if err != nil {
			return err
		}
		return br.continuation(cont)
	}
	if flags&0x02 != 0 {
		return br.shared(typ, data)
	}
	// A message that does not decode is skipped.
	if m, err := message.Parse(typ, data, br.r); err == nil {
		br.h.Messages = append(br.h.Messages, m)
	}
	return nil
}

// continuation reads a continuation block. Version 2 blocks open with
// "OCHK" and end in a checksum.
func (br *blockReader) continuation(c *message.Continuation) error {
	if br.blocks++; br.blocks > maxBlocks {
		return fmt.Errorf("%w: more than %d continuation blocks", ErrInvalidHeader, maxBlocks)
	}
	b, err := br.r.At(int64(c.Offset)).ReadBytes(int(c.Length))
	if err != nil {
		return fmt.Errorf("continuation block at %#x: %w", c.Offset, err)
	}
	if br.h.Version == 1 {
		return br.messages(b)
	}
	if len(b) < 8 || string(b[:4]) != "OCHK" {
		return fmt.Errorf("%w: continuation block at %#x has no OCHK signature", ErrInvalidHeader, c.Offset)
	}
	if err := verify(b); err != nil {
		return fmt.Errorf("continuation block at %#x: %w", c.Offset, err)
	}
	return br.messages(b[4 : len(b)-4])
}

// shared resolves a message kept in another object header, the form a
// committed datatype takes. Messages in the shared message heap are
// skipped.
func (br *blockReader) shared(typ message.Type, data []byte) error {
	var addr []byte
	switch {
	case len(data) >= 8 && data[0] == 1:
		addr = data[8:]
	case len(data) >= 2 && (data[0] == 2 || data[0] == 3 && data[1] == 2):
		addr = data[2:]
	default:
		return nil
	}
	o := br.r.OffsetSize()
	if len(addr) < o {
		return fmt.Errorf("%w: shared message type %d is truncated", ErrInvalidHeader, typ)
	}
	var target uint64
	for i := o - 1; i >= 0; i-- {
		target = target<<8 | uint64(addr[i])
	}
	owner, err := Read(br.r, target)
	if err != nil {
		return fmt.Errorf("shared message type %d: %w", typ, err)
	}
	if m := owner.GetMessage(typ); m != nil {
		br.h.Messages = append(br.h.Messages, m)
	}
	return nil
}
