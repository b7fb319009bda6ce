package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/cosmohdf5/internal/btree"
	"github.com/robert-malhotra/cosmohdf5/internal/message"
	"github.com/robert-malhotra/cosmohdf5/internal/object"
)

// Group is an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64

	// pendingLinks holds the members of a group created or extended
	// through a writable file.
	pendingLinks []*message.Link
}

// Name is the last component of the group's path, or "/" for the root.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

func (g *Group) Path() string { return g.path }

// OpenGroup opens a group by path relative to g. Soft and external
// links along the way are followed.
func (g *Group) OpenGroup(p string) (*Group, error) {
	return openAs[*Group](g, p, ErrNotGroup)
}

// OpenDataset opens a dataset by path relative to g.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	return openAs[*Dataset](g, p, ErrNotDataset)
}

// openAs looks up p and fails with wrongKind unless it names a T.
func openAs[T any](g *Group, p string, wrongKind error) (T, error) {
	var zero T
	obj, err := newResolver().lookup(g, splitPath(p))
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w", g.childPath(p), wrongKind)
	}
	return t, nil
}

// Members returns the names of the group's links in storage order.
func (g *Group) Members() ([]string, error) {
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(links))
	for i, l := range links {
		names[i] = l.Name
	}
	return names, nil
}

// links returns the link messages of a new-style group or the symbol
// table entries of an old-style one. A root group without a symbol table
// message uses the tree and heap cached in the superblock.
func (g *Group) links() ([]*message.Link, error) {
	if g.pendingLinks != nil {
		return g.pendingLinks, nil
	}
	if g.header == nil {
		return nil, nil
	}
	var links []*message.Link
	for _, m := range g.header.GetMessages(message.TypeLink) {
		links = append(links, m.(*message.Link))
	}
	if len(links) > 0 {
		return links, nil
	}

	st, _ := g.header.GetMessage(message.TypeSymbolTable).(*message.SymbolTable)
	if sb := g.file.superblock; st == nil && g.path == "/" && sb.RootGroupBTreeAddress != 0 {
		st = &message.SymbolTable{BTreeAddress: sb.RootGroupBTreeAddress, LocalHeapAddress: sb.RootGroupLocalHeapAddress}
	}
	if st == nil {
		return nil, nil
	}
	links, err := btree.ReadGroupLinks(g.file.reader, st)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	return links, nil
}

// link returns the member called name.
func (g *Group) link(name string) (*message.Link, error) {
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

// Attrs returns the attribute names of this group.
func (g *Group) Attrs() []string {
	return attrNames(g.header)
}

// Attr returns an attribute by name, or nil if there is none.
func (g *Group) Attr(name string) *Attribute {
	return findAttr(g.header, g.file.reader, name)
}

func (g *Group) childPath(name string) string {
	return path.Join(g.path, name)
}
