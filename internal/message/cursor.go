package message

import (
	"bytes"
	"fmt"
)

// cursor reads the little-endian fields of a message body. The first
// overrun is kept in err and every later read returns zero values, so a
// parser checks err once at the end.
type cursor struct {
	what string
	data []byte
	pos  int
	err  error
}

func newCursor(what string, data []byte) *cursor {
	return &cursor{what: what, data: data}
}

func (c *cursor) fail(format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf("%s: "+format, append([]any{c.what}, args...)...)
	}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.data) {
		c.fail("truncated at byte %d, need %d more", c.pos, n)
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

// num reads an unsigned integer of n bytes, n at most 8.
func (c *cursor) num(n int) uint64 {
	var v uint64
	b := c.take(n)
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (c *cursor) u8() uint8   { return uint8(c.num(1)) }
func (c *cursor) u16() uint16 { return uint16(c.num(2)) }
func (c *cursor) u32() uint32 { return uint32(c.num(4)) }

func (c *cursor) skip(n int) { c.take(n) }

// pad skips to the next multiple of n from the start of the body.
func (c *cursor) pad(n int) {
	if r := c.pos % n; r != 0 && c.err == nil {
		c.pos = min(c.pos+n-r, len(c.data))
	}
}

// padFrom skips to the next multiple of n bytes past start.
func (c *cursor) padFrom(start, n int) {
	if r := (c.pos - start) % n; r != 0 {
		c.skip(n - r)
	}
}

// str reads an n byte field holding a string that may be NUL terminated.
func (c *cursor) str(n int) string {
	return trimNul(c.take(n))
}

// trimNul returns b up to its first NUL.
func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// cstr reads a NUL terminated string and its terminator.
func (c *cursor) cstr() string {
	if c.err != nil {
		return ""
	}
	i := bytes.IndexByte(c.data[c.pos:], 0)
	if i < 0 {
		c.fail("string at byte %d is not terminated", c.pos)
		return ""
	}
	s := string(c.data[c.pos : c.pos+i])
	c.pos += i + 1
	return s
}

// copyN returns a copy of the next n bytes.
func (c *cursor) copyN(n int) []byte {
	return append([]byte(nil), c.take(n)...)
}

func (c *cursor) rest() []byte {
	if c.err != nil {
		return nil
	}
	return c.data[c.pos:]
}
