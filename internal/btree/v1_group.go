package btree

import (
	"encoding/binary"
	"fmt"
	"slices"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/heap"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Symbol table entry cache type of a soft link; its scratch pad holds
// the heap offset of the target path.
const cacheSoftLink = 2

// ReadGroupLinks lists the members of an old-style group, in name order,
// as the link messages a new-style group would carry.
func ReadGroupLinks(r *binpkg.Reader, st *message.SymbolTable) ([]*message.Link, error) {
	names, err := heap.ReadLocalHeap(r, st.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("reading local heap: %w", err)
	}
	t := groupTree{r: r, names: names}
	if err := t.node(st.BTreeAddress, -1); err != nil {
		return nil, err
	}
	return t.links, nil
}

type groupTree struct {
	r     *binpkg.Reader
	names *heap.LocalHeap
	links []*message.Link
}

// node reads a group node. level is the level the parent expects, or -1
// at the root.
func (t *groupTree) node(addr uint64, level int) error {
	nr, hdr, err := openNode(t.r, addr, 0)
	if err != nil {
		return err
	}
	if level >= 0 && hdr.level != level {
		return fmt.Errorf("B-tree node at %#x has level %d, expected %d", addr, hdr.level, level)
	}
	for range hdr.used {
		nr.Skip(int64(t.r.LengthSize())) // key: heap offset of the largest name
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if hdr.level > 0 {
			err = t.node(child, hdr.level-1)
		} else {
			err = t.symbols(child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// symbols reads a symbol table node ("SNOD").
func (t *groupTree) symbols(addr uint64) error {
	nr := t.r.At(int64(addr))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("reading symbol table node at %#x: %w", addr, err)
	}
	if string(head[:4]) != "SNOD" {
		return fmt.Errorf("invalid symbol table node signature: got %q, expected \"SNOD\"", head[:4])
	}
	if head[4] != 1 {
		return fmt.Errorf("unsupported symbol table node version: %d", head[4])
	}

	os := t.r.OffsetSize()
	size := 2*os + 24
	body, err := nr.ReadBytes(int(binary.LittleEndian.Uint16(head[6:])) * size)
	if err != nil {
		return fmt.Errorf("reading symbol table entries at %#x: %w", addr, err)
	}
	for e := range slices.Chunk(body, size) {
		name := t.names.GetString(le(e[:os]))
		if name == "" {
			continue
		}
		link := &message.Link{Version: 1, Name: name, ObjectAddress: le(e[os : 2*os])}
		if le(e[2*os:2*os+4]) == cacheSoftLink {
			link.LinkType = message.LinkTypeSoft
			link.ObjectAddress = 0
			link.SoftLinkValue = t.names.GetString(le(e[2*os+8 : 2*os+12]))
		}
		t.links = append(t.links, link)
	}
	return nil
}

// nodeHeader is the fixed part of a version 1 B-tree node.
type nodeHeader struct {
	level int
	used  int
}

// openNode checks the header of the version 1 node at addr and returns a
// reader positioned at its first key.
func openNode(r *binpkg.Reader, addr uint64, nodeType uint8) (*binpkg.Reader, nodeHeader, error) {
	nr := r.At(int64(addr))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return nil, nodeHeader{}, fmt.Errorf("reading B-tree node at %#x: %w", addr, err)
	}
	if string(head[:4]) != "TREE" {
		return nil, nodeHeader{}, fmt.Errorf("invalid B-tree signature: got %q, expected \"TREE\"", head[:4])
	}
	if head[4] != nodeType {
		return nil, nodeHeader{}, fmt.Errorf("unexpected B-tree node type: %d (expected %d)", head[4], nodeType)
	}
	nr.Skip(int64(2 * r.OffsetSize())) // siblings
	return nr, nodeHeader{level: int(head[5]), used: int(binary.LittleEndian.Uint16(head[6:]))}, nil
}

func le(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
