package filter

import "github.com/robert-malhotra/cosmohdf5/internal/message"

// Shuffle undoes the byte shuffle: the input holds byte 0 of every
// element, then byte 1 of every element, and so on. Bytes past the last
// whole element are stored unshuffled at the end.
type Shuffle struct {
	size int
}

// NewShuffle reads the element size from the first client data value.
func NewShuffle(clientData []uint32) Shuffle {
	if len(clientData) == 0 || clientData[0] == 0 {
		return Shuffle{size: 1}
	}
	return Shuffle{size: int(clientData[0])}
}

func (Shuffle) ID() uint16 { return message.FilterShuffle }

func (s Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / s.size
	if s.size == 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for b := range s.size {
		plane := input[b*n : (b+1)*n]
		for e, v := range plane {
			out[e*s.size+b] = v
		}
	}
	copy(out[n*s.size:], input[n*s.size:])
	return out, nil
}
