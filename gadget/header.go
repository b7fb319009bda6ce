package gadget

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/robert-malhotra/cosmohdf5/striped"
)

// HeaderSize is the on-disk size of the header block payload.
const HeaderSize = 256

// Header is the Gadget-1 file header. Index 1 of the per-type arrays holds
// dark matter particles.
type Header struct {
	Npart        [6]uint32
	Massarr      [6]float64
	Time         float64
	Redshift     float64
	FlagSfr      int32
	FlagFeedback int32
	Nall         [6]uint32
	FlagCooling  int32
	NumFiles     int32
	BoxSize      float64
	Omega0       float64
	OmegaLambda  float64
	HubbleParam  float64
	FlagAge      int32
	FlagMetals   int32
	NallHW       [6]uint32
	FlagEntrICs  int32
}

// packedSize is the size of the packed header fields before padding.
var packedSize = binary.Size(Header{})

// MarshalBinary packs the header little-endian and pads it to HeaderSize.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("packing header: %w", err)
	}
	buf.Write(make([]byte, HeaderSize-packedSize))
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a padded header block payload.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("header block is %d bytes, want %d", len(data), HeaderSize)
	}
	return binary.Read(bytes.NewReader(data[:packedSize]), binary.LittleEndian, h)
}

// SetTotal stores the total particle count of type typ across all files,
// split into the low and high 32-bit words.
func (h *Header) SetTotal(typ int, n uint64) {
	h.Nall[typ] = uint32(n)
	h.NallHW[typ] = uint32(n >> 32)
}

// Total returns the total particle count of type typ across all files.
func (h *Header) Total(typ int) uint64 {
	return uint64(h.NallHW[typ])<<32 | uint64(h.Nall[typ])
}

// HeaderFromAttrs maps snapshot header attributes to a Gadget header for
// dark matter. Time is the scale factor 1/(1+Redshift); the total count is
// the sum of NP.Matter.
func HeaderFromAttrs(attrs striped.Attributes) (*Header, error) {
	h := &Header{}

	z, err := attrs.Float64("Redshift")
	if err != nil {
		return nil, err
	}
	h.Redshift = z
	h.Time = 1 / (z + 1)

	counts, err := attrs.Int64s("NP.Matter")
	if err != nil {
		return nil, err
	}
	var total uint64
	for _, c := range counts {
		total += uint64(c)
	}
	h.SetTotal(1, total)

	if h.BoxSize, err = attrs.Float64("BoxSize"); err != nil {
		return nil, err
	}
	h0, err := attrs.Float64("H0")
	if err != nil {
		return nil, err
	}
	h.HubbleParam = h0 / 100
	if h.Omega0, err = attrs.Float64("Omega_M"); err != nil {
		return nil, err
	}
	if h.OmegaLambda, err = attrs.Float64("Omega_DE"); err != nil {
		return nil, err
	}
	if h.Massarr[1], err = attrs.Float64("ParticleMass.Matter"); err != nil {
		return nil, err
	}
	return h, nil
}

// ReadHeader reads a framed header block.
func ReadHeader(r io.Reader) (*Header, error) {
	payload, err := ReadBlock(r)
	if err != nil {
		return nil, fmt.Errorf("reading header block: %w", err)
	}
	h := &Header{}
	if err := h.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return h, nil
}
