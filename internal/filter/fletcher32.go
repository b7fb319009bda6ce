package filter

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Fletcher32 verifies and strips the checksum in the last four bytes of
// a chunk.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

// Decode also accepts the checksum with the bytes of each half swapped,
// as old library versions stored it.
func (Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: %d byte chunk has no room for a checksum", len(input))
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	sum := binpkg.Fletcher32(data)
	swapped := sum&0xff00ff00>>8 | sum&0x00ff00ff<<8
	if stored != sum && stored != swapped {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored=0x%08x, computed=0x%08x)", stored, sum)
	}
	return data, nil
}
