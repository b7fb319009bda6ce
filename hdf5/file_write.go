package hdf5

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/cosmohdf5/internal/alloc"
	"github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
	"github.com/robert-malhotra/cosmohdf5/internal/object"
	"github.com/robert-malhotra/cosmohdf5/internal/superblock"
)

// Create creates an HDF5 file at path with a version 3 superblock and an
// empty root group. Objects are written with version 2 headers; the
// superblock is finished by Close.
func Create(path string) (*File, error) {
	osf, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	sb := superblock.NewSuperblock()
	cfg := sb.ReaderConfig()
	f := &File{
		path:       path,
		file:       osf,
		reader:     binary.NewReader(osf, cfg),
		writer:     binary.NewWriter(osf, cfg),
		superblock: sb,
		writable:   true,
		allocator:  alloc.New(uint64(sb.Size())),
	}
	f.root = &Group{file: f, path: "/"}

	if err := f.root.writeHeader(); err != nil {
		return nil, errors.Join(fmt.Errorf("creating %s: %w", path, err), osf.Close(), os.Remove(path))
	}
	return f, nil
}

// writeObject writes a new object header holding messages and returns
// its address. Group headers are padded to minChunk bytes so that other
// libraries can add links in place.
func (f *File) writeObject(messages []message.Message, minChunk int) (uint64, error) {
	b, err := object.Encode(f.writer.Config(), messages, minChunk)
	if err != nil {
		return 0, err
	}
	addr := f.allocate(int64(len(b)))
	if err := f.writer.At(int64(addr)).WriteBytes(b); err != nil {
		return 0, fmt.Errorf("writing object header at %#x: %w", addr, err)
	}
	return addr, nil
}

// flush rewrites the superblock with the current end of file and syncs.
func (f *File) flush() error {
	f.superblock.EOFAddress = f.allocator.EOFAddr()
	if _, err := f.superblock.Write(f.writer.At(0)); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return f.file.Sync()
}

// allocate reserves size bytes at the end of the file.
func (f *File) allocate(size int64) uint64 {
	return f.allocator.Alloc(uint64(size))
}
