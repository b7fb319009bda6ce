package object

import (
	bin "encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// MinGroupChunkSize is the block size group headers are padded to, the
// size h5py gives them.
const MinGroupChunkSize = 120

// Encode lays out messages as a version 2 object header of a single
// block, using the field widths in cfg. The block is padded to minChunk
// bytes with a NIL message.
func Encode(cfg binary.Config, messages []message.Message, minChunk int) ([]byte, error) {
	var body []byte
	for _, m := range messages {
		s, ok := m.(message.Serializable)
		if !ok {
			return nil, fmt.Errorf("message type %d cannot be written", m.Type())
		}
		var buf binary.Buffer
		if err := s.Serialize(binary.NewWriter(&buf, cfg)); err != nil {
			return nil, fmt.Errorf("message type %d: %w", m.Type(), err)
		}
		data := buf.Bytes()
		if len(data) > math.MaxUint16 {
			return nil, fmt.Errorf("message type %d: %d bytes do not fit an object header message", m.Type(), len(data))
		}
		body = append(body, byte(m.Type()))
		body = bin.LittleEndian.AppendUint16(body, uint16(len(data)))
		body = append(body, 0)
		body = append(body, data...)
	}

	// A gap shorter than a message header stays as zeros.
	if pad := minChunk - len(body); pad >= 4 {
		body = append(body, byte(message.TypeNIL))
		body = bin.LittleEndian.AppendUint16(body, uint16(pad-4))
		body = append(body, make([]byte, pad-3)...)
	} else if pad > 0 {
		body = append(body, make([]byte, pad)...)
	}

	width := sizeFieldBytes(len(body))
	b := append([]byte("OHDR"), 2, byte(bits.TrailingZeros(uint(width))))
	for i := range width {
		b = append(b, byte(len(body)>>(8*i)))
	}
	b = append(b, body...)
	return bin.LittleEndian.AppendUint32(b, binary.Lookup3Checksum(b)), nil
}

// sizeFieldBytes is the width of the block size field: 1, 2, 4 or 8.
func sizeFieldBytes(size int) int {
	switch {
	case size <= math.MaxUint8:
		return 1
	case size <= math.MaxUint16:
		return 2
	case uint64(size) <= math.MaxUint32:
		return 4
	}
	return 8
}

// GroupMessages returns the messages of a new-style group holding links.
func GroupMessages(links []*message.Link) []message.Message {
	messages := []message.Message{message.NewLinkInfo(), message.NewGroupInfo()}
	for _, link := range links {
		messages = append(messages, link)
	}
	return messages
}
