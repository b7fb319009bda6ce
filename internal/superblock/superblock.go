package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// Signature opens every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the file-wide settings and the root group's location.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress                uint64
	SuperblockExtensionAddress uint64 // versions 2 and 3
	EOFAddress                 uint64
	RootGroupAddress           uint64

	// Versions 0 and 1 only.
	GroupLeafNodeK     uint16
	GroupInternalNodeK uint16
	IndexedStorageK    uint16 // version 1

	// The root group's B-tree and local heap as cached in the scratch pad
	// of its symbol table entry, zero when the entry caches nothing.
	RootGroupBTreeAddress     uint64
	RootGroupLocalHeapAddress uint64

	ByteOrder binary.ByteOrder

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read finds the superblock and parses it. The signature is looked for at
// offset 0 and then at 512, 1024, 2048 and on through the powers of two.
func Read(r io.ReaderAt) (*Superblock, error) {
	head := make([]byte, len(Signature)+1)
	for offset := int64(0); ; offset = max(2*offset, 512) {
		n, err := r.ReadAt(head, offset)
		if n < len(head) {
			if err == nil || errors.Is(err, io.EOF) {
				return nil, ErrNotHDF5
			}
			return nil, err
		}
		if !bytes.Equal(head[:len(Signature)], Signature) {
			continue
		}

		sb := &Superblock{Version: head[8], ByteOrder: binary.LittleEndian, FileOffset: offset}
		switch sb.Version {
		case 0, 1:
			err = sb.readV0(r, offset+9)
		case 2, 3:
			err = sb.readV2(r, offset)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, sb.Version)
		}
		if err != nil {
			return nil, fmt.Errorf("superblock version %d at %d: %w", sb.Version, offset, err)
		}
		return sb, nil
	}
}

// ReaderConfig is the field layout the superblock sets for the file.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  sb.ByteOrder,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// fields reads consecutive integers and keeps the first error.
type fields struct {
	r   *binpkg.Reader
	err error
}

func (f *fields) next(n int) uint64 {
	if f.err != nil {
		return 0
	}
	var v uint64
	v, f.err = f.r.ReadUintN(n)
	return v
}

// resize switches to the widths the superblock just declared.
func (f *fields) resize(src io.ReaderAt, sb *Superblock) {
	if f.err != nil {
		return
	}
	for _, n := range []uint8{sb.OffsetSize, sb.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			f.err = fmt.Errorf("%w: field size %d", ErrInvalidSuperblock, n)
			return
		}
	}
	f.r = binpkg.NewReader(src, sb.ReaderConfig()).At(f.r.Pos())
}

func (sb *Superblock) readV0(src io.ReaderAt, pos int64) error {
	f := &fields{r: binpkg.NewReader(src, binpkg.DefaultConfig()).At(pos)}
	f.next(4) // free-space, root entry and shared header versions, reserved
	sb.OffsetSize = uint8(f.next(1))
	sb.LengthSize = uint8(f.next(1))
	f.next(1)
	sb.GroupLeafNodeK = uint16(f.next(2))
	sb.GroupInternalNodeK = uint16(f.next(2))
	sb.FileConsistencyFlags = uint8(f.next(4))
	if sb.Version == 1 {
		sb.IndexedStorageK = uint16(f.next(2))
		f.next(2)
	}
	f.resize(src, sb)

	o := int(sb.OffsetSize)
	sb.BaseAddress = f.next(o)
	f.next(o) // free-space info
	sb.EOFAddress = f.next(o)
	f.next(o) // driver info

	// The root group's symbol table entry. Cache type 1 means the scratch
	// pad holds the group's B-tree and heap addresses.
	f.next(o) // link name offset
	sb.RootGroupAddress = f.next(o)
	if f.next(4) == 1 {
		f.next(4)
		sb.RootGroupBTreeAddress = f.next(o)
		sb.RootGroupLocalHeapAddress = f.next(o)
	}
	return f.err
}

func (sb *Superblock) readV2(src io.ReaderAt, start int64) error {
	f := &fields{r: binpkg.NewReader(src, binpkg.DefaultConfig()).At(start + 9)}
	sb.OffsetSize = uint8(f.next(1))
	sb.LengthSize = uint8(f.next(1))
	sb.FileConsistencyFlags = uint8(f.next(1))
	f.resize(src, sb)

	o := int(sb.OffsetSize)
	sb.BaseAddress = f.next(o)
	sb.SuperblockExtensionAddress = f.next(o)
	sb.EOFAddress = f.next(o)
	sb.RootGroupAddress = f.next(o)
	if f.err != nil {
		return f.err
	}
	end := f.r.Pos()
	stored := uint32(f.next(4))
	body, err := f.r.At(start).ReadBytes(int(end - start))
	if err = errors.Join(f.err, err); err != nil {
		return err
	}
	if sum := binpkg.Lookup3Checksum(body); sum != stored {
		return fmt.Errorf("%w: checksum %#08x, stored %#08x", ErrInvalidSuperblock, sum, stored)
	}
	return nil
}
