package btree

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"

	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// image is a sparse file under construction.
type image []byte

func (im *image) put(addr int, b []byte) {
	if need := addr + len(b); need > len(*im) {
		*im = append(*im, make([]byte, need-len(*im))...)
	}
	copy((*im)[addr:], b)
}

func (im image) reader() *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(im), binpkg.DefaultConfig())
}

func le64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }

// v1ChunkNode encodes a chunk B-tree node. Each key is followed by the
// matching child; a zero key closes the node.
func v1ChunkNode(level uint8, keys []chunkKey, children []uint64) []byte {
	var b bytes.Buffer
	b.WriteString("TREE")
	b.WriteByte(1)
	b.WriteByte(level)
	b.Write(le16(uint16(len(children))))
	b.Write(le64(^uint64(0)))
	b.Write(le64(^uint64(0)))
	writeKey := func(k chunkKey) {
		b.Write(le32(k.size))
		b.Write(le32(k.mask))
		for _, o := range k.offset {
			b.Write(le64(o))
		}
	}
	for i, child := range children {
		writeKey(keys[i])
		b.Write(le64(child))
	}
	writeKey(chunkKey{offset: make([]uint64, len(keys[0].offset))})
	return b.Bytes()
}

func TestReadChunkIndexLeaf(t *testing.T) {
	var im image
	im.put(64, v1ChunkNode(0, []chunkKey{
		{size: 240, offset: []uint64{0, 0, 0}},
		{size: 100, mask: 1, offset: []uint64{10, 0, 0}},
		{size: 0, offset: []uint64{20, 0, 0}},
	}, []uint64{1000, 2000, 3000}))

	idx, err := ReadChunkIndex(im.reader(), 64, 2)
	if err != nil {
		t.Fatalf("ReadChunkIndex failed: %v", err)
	}
	want := []ChunkEntry{
		{Offset: []uint64{0, 0}, Size: 240, Address: 1000},
		{Offset: []uint64{10, 0}, FilterMask: 1, Size: 100, Address: 2000},
	}
	if !reflect.DeepEqual(idx.Entries, want) {
		t.Errorf("entries:\n got %+v\nwant %+v", idx.Entries, want)
	}
}

func TestReadChunkIndexTwoLevels(t *testing.T) {
	var im image
	im.put(0, v1ChunkNode(1, []chunkKey{
		{offset: []uint64{0, 0}},
		{offset: []uint64{20, 0}},
	}, []uint64{512, 1024}))
	im.put(512, v1ChunkNode(0, []chunkKey{
		{size: 80, offset: []uint64{0, 0}},
		{size: 80, offset: []uint64{10, 0}},
	}, []uint64{4000, 4080}))
	im.put(1024, v1ChunkNode(0, []chunkKey{
		{size: 80, offset: []uint64{20, 0}},
	}, []uint64{4160}))

	idx, err := ReadChunkIndex(im.reader(), 0, 1)
	if err != nil {
		t.Fatalf("ReadChunkIndex failed: %v", err)
	}
	var addrs []uint64
	for _, e := range idx.Entries {
		addrs = append(addrs, e.Address)
	}
	if want := []uint64{4000, 4080, 4160}; !reflect.DeepEqual(addrs, want) {
		t.Errorf("addresses: got %v, want %v", addrs, want)
	}
	if got := idx.Entries[2].Offset; !reflect.DeepEqual(got, []uint64{20}) {
		t.Errorf("last offset: got %v", got)
	}
}

func TestReadChunkIndexUndefinedRoot(t *testing.T) {
	idx, err := ReadChunkIndex(image{}.reader(), ^uint64(0), 2)
	if err != nil {
		t.Fatalf("ReadChunkIndex failed: %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(idx.Entries))
	}
}

func TestReadChunkIndexErrors(t *testing.T) {
	groupNode := v1ChunkNode(0, []chunkKey{{size: 8, offset: []uint64{0, 0}}}, []uint64{100})
	groupNode[4] = 0

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"bad signature", []byte("XXXX"), "invalid B-tree signature"},
		{"group node", groupNode, "unexpected B-tree node type"},
		{"truncated", []byte("TREE"), "EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadChunkIndex(image(tt.data).reader(), 0, 1)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

// groupImage lays out an old-style group: a local heap at 0 holding
// names, a two-level group tree at 0x100 and two symbol table nodes.
func groupImage() image {
	const names = "\x00Header\x00PartType0\x00PartType1\x00/PartType1\x00"
	var im image
	heap := append([]byte("HEAP"), 0, 0, 0, 0)
	heap = append(heap, le64(uint64(len(names)))...)
	heap = append(heap, le64(^uint64(0))...)
	heap = append(heap, le64(0x40)...)
	im.put(0, heap)
	im.put(0x40, []byte(names))

	node := func(level uint8, children ...uint64) []byte {
		b := append([]byte("TREE"), 0, level)
		b = append(b, le16(uint16(len(children)))...)
		b = append(b, le64(^uint64(0))...)
		b = append(b, le64(^uint64(0))...)
		for _, c := range children {
			b = append(b, le64(0)...)
			b = append(b, le64(c)...)
		}
		return append(b, le64(0)...)
	}
	entry := func(name, addr uint64, cache uint32, scratch uint32) []byte {
		b := append(le64(name), le64(addr)...)
		b = append(b, le32(cache)...)
		b = append(b, le32(0)...)
		b = append(b, le32(scratch)...)
		return append(b, make([]byte, 12)...)
	}
	snod := func(entries ...[]byte) []byte {
		b := append([]byte("SNOD"), 1, 0)
		b = append(b, le16(uint16(len(entries)))...)
		for _, e := range entries {
			b = append(b, e...)
		}
		return b
	}
	im.put(0x100, node(1, 0x200))
	im.put(0x200, node(0, 0x300, 0x400))
	im.put(0x300, snod(entry(1, 0x800, 1, 0), entry(8, 0x900, 0, 0)))
	// An unused slot has no name.
	im.put(0x400, snod(entry(18, 0, 2, 28), entry(0, 0, 0, 0)))
	return im
}

func TestReadGroupLinks(t *testing.T) {
	links, err := ReadGroupLinks(groupImage().reader(), &message.SymbolTable{BTreeAddress: 0x100, LocalHeapAddress: 0})
	if err != nil {
		t.Fatalf("ReadGroupLinks failed: %v", err)
	}
	want := []*message.Link{
		{Version: 1, Name: "Header", ObjectAddress: 0x800},
		{Version: 1, Name: "PartType0", ObjectAddress: 0x900},
		{Version: 1, Name: "PartType1", LinkType: message.LinkTypeSoft, SoftLinkValue: "/PartType1"},
	}
	if !reflect.DeepEqual(links, want) {
		for i, l := range links {
			t.Logf("link %d: %+v", i, *l)
		}
		t.Errorf("got %d links, want %d", len(links), len(want))
	}
}

func TestReadGroupLinksErrors(t *testing.T) {
	st := &message.SymbolTable{BTreeAddress: 0x100}

	badSig := groupImage()
	badSig.put(0x100, []byte("XXXX"))
	chunkNode := groupImage()
	chunkNode.put(0x104, []byte{1})
	wrongLevel := groupImage()
	wrongLevel.put(0x205, []byte{3})
	badSnod := groupImage()
	badSnod.put(0x300, []byte("SNOX"))
	snodVersion := groupImage()
	snodVersion.put(0x404, []byte{2})

	tests := []struct {
		name string
		im   image
		st   *message.SymbolTable
		want string
	}{
		{"bad signature", badSig, st, "invalid B-tree signature"},
		{"chunk node", chunkNode, st, "unexpected B-tree node type"},
		{"level", wrongLevel, st, "expected 0"},
		{"symbol node", badSnod, st, "symbol table node signature"},
		{"symbol node version", snodVersion, st, "symbol table node version"},
		{"no heap", groupImage(), &message.SymbolTable{BTreeAddress: 0x100, LocalHeapAddress: 0x100}, "local heap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGroupLinks(tt.im.reader(), tt.st)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestReadChunkIndexLevelMismatch(t *testing.T) {
	var im image
	im.put(0, v1ChunkNode(1, []chunkKey{{offset: []uint64{0, 0}}}, []uint64{512}))
	im.put(512, v1ChunkNode(1, []chunkKey{{size: 8, offset: []uint64{0, 0}}}, []uint64{0}))
	if _, err := ReadChunkIndex(im.reader(), 0, 1); err == nil || !strings.Contains(err.Error(), "level") {
		t.Errorf("got %v, want level error", err)
	}
}
