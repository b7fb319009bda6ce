package superblock

import (
	"bytes"
	"encoding/binary"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// NewSuperblock returns a version 3 superblock with 8 byte fields.
func NewSuperblock() *Superblock {
	return &Superblock{Version: 3, OffsetSize: 8, LengthSize: 8, ByteOrder: binary.LittleEndian}
}

// Size is the encoded size of a version 2 or 3 superblock.
func (sb *Superblock) Size() int {
	o := int(sb.OffsetSize)
	if o == 0 {
		o = 8
	}
	return 12 + 4*o + 4
}

// Write encodes sb as a version 2 or 3 superblock at w's position, with
// w's field widths, and returns the bytes written. A zero extension
// address is written as undefined.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	o := w.OffsetSize()
	ext := sb.SuperblockExtensionAddress
	if ext == 0 {
		ext = w.UndefinedOffset()
	}
	b := append(bytes.Clone(Signature), max(sb.Version, 2), byte(o), byte(w.LengthSize()), sb.FileConsistencyFlags)
	for _, addr := range [...]uint64{sb.BaseAddress, ext, sb.EOFAddress, sb.RootGroupAddress} {
		for i := range o {
			b = append(b, byte(addr>>(8*i)))
		}
	}
	b = binary.LittleEndian.AppendUint32(b, binpkg.Lookup3Checksum(b))
	if err := w.WriteBytes(b); err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}
