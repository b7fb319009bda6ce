package message

import (
	"github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// Type is the message type field of an object header message.
type Type uint16

// Message types this package knows by name. Any other type decodes to
// an Unknown.
const (
	TypeNIL                      Type = 0x00
	TypeDataspace                Type = 0x01
	TypeLinkInfo                 Type = 0x02
	TypeDatatype                 Type = 0x03
	TypeFillValue                Type = 0x05
	TypeLink                     Type = 0x06
	TypeDataLayout               Type = 0x08
	TypeGroupInfo                Type = 0x0a
	TypeFilterPipeline           Type = 0x0b
	TypeAttribute                Type = 0x0c
	TypeObjectComment            Type = 0x0d
	TypeObjectHeaderContinuation Type = 0x10
	TypeSymbolTable              Type = 0x11
)

// Message is a decoded header message.
type Message interface {
	Type() Type
}

var parsers = map[Type]func([]byte, *binary.Reader) (Message, error){
	TypeDataspace:                wrap(parseDataspace),
	TypeDatatype:                 wrap(parseDatatype),
	TypeDataLayout:               wrap(parseDataLayout),
	TypeFilterPipeline:           wrap(parseFilterPipeline),
	TypeFillValue:                wrap(parseFillValue),
	TypeAttribute:                wrap(parseAttribute),
	TypeLinkInfo:                 wrap(parseLinkInfo),
	TypeGroupInfo:                wrap(parseGroupInfo),
	TypeLink:                     wrap(parseLink),
	TypeSymbolTable:              wrap(parseSymbolTable),
	TypeObjectHeaderContinuation: wrap(ParseContinuation),
}

// wrap turns a parser of a concrete message into one returning Message,
// keeping a failed parse from yielding a typed nil.
func wrap[M Message](parse func([]byte, *binary.Reader) (M, error)) func([]byte, *binary.Reader) (Message, error) {
	return func(data []byte, r *binary.Reader) (Message, error) {
		m, err := parse(data, r)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Parse decodes the body of a message of type typ. Sizes of offsets and
// lengths come from r.
func Parse(typ Type, data []byte, r *binary.Reader) (Message, error) {
	if parse, ok := parsers[typ]; ok {
		return parse(data, r)
	}
	return &Unknown{typ: typ, data: data}, nil
}

// Unknown holds the raw body of a message type without a decoder.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at the next block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

// ParseContinuation reads the address and length of the next block of
// header messages.
func ParseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	c := newCursor("continuation message", data)
	m := &Continuation{Offset: c.num(r.OffsetSize()), Length: c.num(r.LengthSize())}
	if c.err != nil {
		return nil, c.err
	}
	return m, nil
}
