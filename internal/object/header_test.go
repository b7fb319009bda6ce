package object

import (
	"bytes"
	bin "encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// image is a sparse file under construction.
type image []byte

func (im *image) put(addr int, b []byte) {
	if need := addr + len(b); need > len(*im) {
		*im = append(*im, make([]byte, need-len(*im))...)
	}
	copy((*im)[addr:], b)
}

func (im image) reader() *binary.Reader {
	return binary.NewReader(bytes.NewReader(im), binary.DefaultConfig())
}

func le64(v uint64) []byte { return bin.LittleEndian.AppendUint64(nil, v) }

func payload(t *testing.T, m message.Serializable) []byte {
	t.Helper()
	var buf binary.Buffer
	if err := m.Serialize(binary.NewWriter(&buf, binary.DefaultConfig())); err != nil {
		t.Fatalf("Serialize(%T) failed: %v", m, err)
	}
	return buf.Bytes()
}

// v1Message frames data with an eight byte message header and pads it to
// a multiple of eight.
func v1Message(typ message.Type, flags uint8, data []byte) []byte {
	b := bin.LittleEndian.AppendUint16(nil, uint16(typ))
	b = bin.LittleEndian.AppendUint16(b, uint16((len(data)+7)&^7))
	b = append(b, flags, 0, 0, 0)
	b = append(b, data...)
	return append(b, make([]byte, (8-len(data)%8)%8)...)
}

func v1Header(messages int, body []byte) []byte {
	b := []byte{1, 0}
	b = bin.LittleEndian.AppendUint16(b, uint16(messages))
	b = bin.LittleEndian.AppendUint32(b, 1)
	b = bin.LittleEndian.AppendUint32(b, uint32(len(body)))
	b = append(b, 0, 0, 0, 0)
	return append(b, body...)
}

func v2Message(typ message.Type, data []byte) []byte {
	b := append([]byte{byte(typ)}, bin.LittleEndian.AppendUint16(nil, uint16(len(data)))...)
	return append(append(b, 0), data...)
}

// sealed appends the checksum of b.
func sealed(b []byte) []byte {
	return bin.LittleEndian.AppendUint32(b, binary.Lookup3Checksum(b))
}

// ohdr builds a single block version 2 header with a one byte size field.
func ohdr(body []byte) []byte {
	return sealed(append([]byte{'O', 'H', 'D', 'R', 2, 0, byte(len(body))}, body...))
}

func TestEncodeRead(t *testing.T) {
	units := message.NewAttribute("units", message.NewStringDatatype(4, message.PadNullTerm, message.CharsetASCII),
		message.NewScalarDataspace(), []byte("kpc\x00"))
	b, err := Encode(binary.DefaultConfig(), []message.Message{
		message.NewDataspace([]uint64{100, 3}, nil),
		message.NewFloatDatatype(4, message.OrderLE),
		message.NewContiguousLayout(0x1000, 1200),
		units,
	}, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var im image
	im.put(0x40, b)
	h, err := Read(im.reader(), 0x40)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Version != 2 || h.Address != 0x40 || len(h.Messages) != 4 {
		t.Fatalf("got version %d at %#x with %d messages", h.Version, h.Address, len(h.Messages))
	}
	if ds := h.Dataspace(); ds == nil || !reflect.DeepEqual(ds.Dimensions, []uint64{100, 3}) {
		t.Errorf("dataspace: got %+v", ds)
	}
	if dt := h.Datatype(); dt == nil || !dt.IsFloat() || dt.Size != 4 {
		t.Errorf("datatype: got %+v", dt)
	}
	if l := h.DataLayout(); l == nil || l.Address != 0x1000 || l.Size != 1200 {
		t.Errorf("layout: got %+v", l)
	}
	if h.FilterPipeline() != nil || h.FillValue() != nil {
		t.Error("expected no filter pipeline or fill value")
	}
	attrs := h.GetMessages(message.TypeAttribute)
	if len(attrs) != 1 || attrs[0].(*message.Attribute).Name != "units" {
		t.Errorf("attributes: got %v", attrs)
	}
	if h.GetMessage(message.TypeLink) != nil {
		t.Error("expected no link message")
	}
}

func TestEncodeBlockSize(t *testing.T) {
	cfg := binary.DefaultConfig()
	bare, err := Encode(cfg, GroupMessages(nil), 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	natural := int(bare[6])

	var many []*message.Link
	for i := range 40 {
		many = append(many, message.NewHardLink(fmt.Sprintf("PartType%02d", i), uint64(0x1000+i)))
	}

	tests := []struct {
		name     string
		links    []*message.Link
		minChunk int
		width    int
		size     int
	}{
		{"no padding", nil, 0, 1, natural},
		{"NIL padding", nil, MinGroupChunkSize, 1, MinGroupChunkSize},
		{"short gap", nil, natural + 2, 1, natural + 2},
		{"two byte size", many, 0, 2, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(cfg, GroupMessages(tt.links), tt.minChunk)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if w := 1 << (b[5] & 0x03); w != tt.width {
				t.Errorf("size field width: got %d, want %d", w, tt.width)
			}
			size := 0
			for i := tt.width - 1; i >= 0; i-- {
				size = size<<8 | int(b[6+i])
			}
			if tt.size >= 0 && size != tt.size {
				t.Errorf("block size: got %d, want %d", size, tt.size)
			}
			if len(b) != 6+tt.width+size+4 {
				t.Errorf("encoded %d bytes for a %d byte block", len(b), size)
			}

			h, err := Read(image(b).reader(), 0)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if want := 2 + len(tt.links); len(h.Messages) != want {
				t.Errorf("got %d messages, want %d", len(h.Messages), want)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	cfg := binary.DefaultConfig()
	if _, err := Encode(cfg, []message.Message{&message.SymbolTable{}}, 0); err == nil || !strings.Contains(err.Error(), "cannot be written") {
		t.Errorf("symbol table: got %v", err)
	}
	huge := message.NewAttribute("blob", message.NewFixedPointDatatype(1, false, message.OrderLE),
		message.NewDataspace([]uint64{70000}, nil), make([]byte, 70000))
	if _, err := Encode(cfg, []message.Message{huge}, 0); err == nil || !strings.Contains(err.Error(), "do not fit") {
		t.Errorf("oversized message: got %v", err)
	}
}

func TestReadV2Continuation(t *testing.T) {
	dt := payload(t, message.NewFixedPointDatatype(8, false, message.OrderLE))
	ochk := sealed(append([]byte("OCHK"), v2Message(message.TypeDatatype, dt)...))
	body := append(v2Message(message.TypeDataspace, payload(t, message.NewDataspace([]uint64{7}, nil))),
		v2Message(message.TypeObjectHeaderContinuation, append(le64(0x200), le64(uint64(len(ochk)))...))...)

	var im image
	im.put(0, ohdr(body))
	im.put(0x200, ochk)
	h, err := Read(im.reader(), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(h.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(h.Messages))
	}
	if ds := h.Dataspace(); ds == nil || !reflect.DeepEqual(ds.Dimensions, []uint64{7}) {
		t.Errorf("dataspace: got %+v", ds)
	}
	if dt := h.Datatype(); dt == nil || dt.Size != 8 || dt.Signed {
		t.Errorf("datatype from continuation block: got %+v", dt)
	}

	corrupt := append(image(nil), im...)
	corrupt[0x200+5] ^= 0xFF
	if _, err := Read(corrupt.reader(), 0); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("corrupt continuation: got %v, want ErrChecksumMismatch", err)
	}
	unsigned := append(image(nil), im...)
	copy(unsigned[0x200:], "XCHK")
	if _, err := Read(unsigned.reader(), 0); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("continuation without OCHK: got %v, want ErrInvalidHeader", err)
	}
}

func TestReadV2Flags(t *testing.T) {
	// Timestamps and creation-ordered messages with six byte headers.
	msg := v2Message(message.TypeDataspace, payload(t, message.NewScalarDataspace()))
	msg = append(msg[:4], append([]byte{5, 0}, msg[4:]...)...)
	b := []byte{'O', 'H', 'D', 'R', 2, 0x24}
	for _, ts := range []uint32{10, 20, 30, 40} {
		b = bin.LittleEndian.AppendUint32(b, ts)
	}
	b = append(b, byte(len(msg)))
	b = sealed(append(b, msg...))

	h, err := Read(image(b).reader(), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.AccessTime != 10 || h.ModTime != 20 || h.ChangeTime != 30 || h.BirthTime != 40 {
		t.Errorf("timestamps: got %d %d %d %d", h.AccessTime, h.ModTime, h.ChangeTime, h.BirthTime)
	}
	if ds := h.Dataspace(); ds == nil || !ds.IsScalar() {
		t.Errorf("dataspace: got %+v", ds)
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	b, err := Encode(binary.DefaultConfig(), GroupMessages(nil), 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b[8] ^= 0xFF
	if _, err := Read(image(b).reader(), 0); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestReadV1(t *testing.T) {
	dt := v1Message(message.TypeDatatype, 0, payload(t, message.NewFloatDatatype(8, message.OrderBE)))
	body := append(v1Message(message.TypeDataspace, 0, payload(t, message.NewDataspace([]uint64{4, 4}, nil))),
		v1Message(message.TypeNIL, 0, make([]byte, 8))...)
	body = append(body, v1Message(message.TypeObjectHeaderContinuation, 0, append(le64(0x300), le64(uint64(len(dt)))...))...)

	var im image
	im.put(0x100, v1Header(3, body))
	im.put(0x300, dt)
	h, err := Read(im.reader(), 0x100)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Version != 1 || h.RefCount != 1 || len(h.Messages) != 2 {
		t.Fatalf("got version %d, refcount %d, %d messages", h.Version, h.RefCount, len(h.Messages))
	}
	if dt := h.Datatype(); dt == nil || dt.ByteOrder != message.OrderBE || dt.Size != 8 {
		t.Errorf("datatype: got %+v", dt)
	}
}

func TestReadSharedMessage(t *testing.T) {
	committed, err := Encode(binary.DefaultConfig(), []message.Message{message.NewFixedPointDatatype(2, true, message.OrderLE)}, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	body := append(v1Message(message.TypeDatatype, 0x02, append([]byte{3, 2}, le64(0x400)...)),
		v1Message(message.TypeDataspace, 0, payload(t, message.NewScalarDataspace()))...)
	// A message kept in the shared message heap is skipped.
	body = append(body, v1Message(message.TypeFillValue, 0x02, append([]byte{3, 1}, le64(7)...))...)

	var im image
	im.put(0, v1Header(3, body))
	im.put(0x400, committed)
	h, err := Read(im.reader(), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if dt := h.Datatype(); dt == nil || dt.Size != 2 || !dt.Signed {
		t.Errorf("shared datatype: got %+v", dt)
	}
	if h.FillValue() != nil || len(h.Messages) != 2 {
		t.Errorf("got %d messages", len(h.Messages))
	}

	dangling := append(image(nil), im...)
	dangling.put(0x400, []byte("XXXX"))
	if _, err := Read(dangling.reader(), 0); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("dangling shared message: got %v, want ErrInvalidHeader", err)
	}
}

func TestReadSkipsUndecodable(t *testing.T) {
	body := append(v2Message(message.TypeDataspace, []byte{9, 0, 0, 0}),
		v2Message(message.TypeDatatype, payload(t, message.NewFloatDatatype(4, message.OrderLE)))...)
	h, err := Read(image(ohdr(body)).reader(), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Dataspace() != nil || h.Datatype() == nil {
		t.Errorf("got messages %v", h.Messages)
	}
}

func TestReadErrors(t *testing.T) {
	loop := v1Message(message.TypeObjectHeaderContinuation, 0, append(le64(0x100), le64(24)...))
	var cycle image
	cycle.put(0, v1Header(1, loop))
	cycle.put(0x100, loop)

	tests := []struct {
		name string
		im   image
		want error
	}{
		{"unknown format", image{7, 0, 0, 0, 0, 0, 0, 0}, ErrInvalidHeader},
		{"version 3", image(sealed([]byte("OHDR\x03\x00\x00"))), ErrUnsupportedVersion},
		{"overrun", image(ohdr(append(v2Message(message.TypeDataspace, nil)[:1], 50, 0, 0))), ErrInvalidHeader},
		{"continuation cycle", cycle, ErrInvalidHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(tt.im.reader(), 0); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Read(image(nil).reader(), 0); err == nil {
		t.Error("expected an error reading past the end")
	}
}
