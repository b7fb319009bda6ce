package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// ErrUnsupported is returned for a mandatory filter this package cannot
// decode.
var ErrUnsupported = errors.New("unsupported filter")

// Filter reverses one stage of a chunk's filter pipeline.
type Filter interface {
	ID() uint16
	Decode(input []byte) ([]byte, error)
}

type known struct {
	name string
	// open is nil for filters that are recognized but not decoded.
	open func(clientData []uint32) Filter
}

var filters = map[uint16]known{
	message.FilterDeflate:     {"deflate", func([]uint32) Filter { return Deflate{} }},
	message.FilterShuffle:     {"shuffle", func(cd []uint32) Filter { return NewShuffle(cd) }},
	message.FilterFletcher32:  {"fletcher32", func([]uint32) Filter { return Fletcher32{} }},
	message.FilterZstd:        {"zstd", func([]uint32) Filter { return Zstd{} }},
	message.FilterSZIP:        {"szip", nil},
	message.FilterNBit:        {"n-bit", nil},
	message.FilterScaleOffset: {"scale-offset", nil},
}

// New returns the decoder for one pipeline entry. It returns a nil Filter
// for an optional filter that cannot be decoded, which readers skip.
func New(info message.FilterInfo) (Filter, error) {
	k, ok := filters[info.ID]
	switch {
	case ok && k.open != nil:
		return k.open(info.ClientData), nil
	case info.IsOptional():
		return nil, nil
	case ok:
		return nil, fmt.Errorf("%s (filter %d): %w", k.name, info.ID, ErrUnsupported)
	}
	return nil, fmt.Errorf("filter %d: %w", info.ID, ErrUnsupported)
}
