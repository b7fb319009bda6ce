package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Header is a decoded object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8 // version 2 only
	RefCount uint32

	// Messages holds the decoded messages of every block in order. NIL
	// and continuation messages are consumed while reading, and messages
	// that fail to decode are left out.
	Messages []message.Message

	// Set when version 2 flag bit 5 is.
	AccessTime uint32
	ModTime    uint32
	ChangeTime uint32
	BirthTime  uint32
}

// Read decodes the object header at address, following its continuation
// blocks. Version 2 blocks have their checksums verified.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %#x: %w", address, err)
	}
	h := &Header{Address: address}
	switch {
	case string(peek) == "OHDR":
		err = h.readV2(hr)
	case peek[0] == 1:
		err = h.readV1(hr)
	default:
		return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %#x: %w", address, err)
	}
	return h, nil
}

// GetMessage returns the first message of the given type, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

// first returns the first message of type typ as T, or the zero T.
func first[T message.Message](h *Header, typ message.Type) T {
	m, _ := h.GetMessage(typ).(T)
	return m
}

func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

func (h *Header) DataLayout() *message.DataLayout {
	return first[*message.DataLayout](h, message.TypeDataLayout)
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}

// FillValue returns the fill value message, or nil when the header has none
// or only the old form.
func (h *Header) FillValue() *message.FillValue {
	return first[*message.FillValue](h, message.TypeFillValue)
}
