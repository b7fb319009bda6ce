package hdf5

import (
	"fmt"
	"path"
	"strings"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
	"github.com/robert-malhotra/cosmohdf5/internal/object"
)

// CreateGroup creates an empty subgroup.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkNewMember(name); err != nil {
		return nil, err
	}
	child := &Group{file: g.file, path: g.childPath(name), pendingLinks: []*message.Link{}}
	if err := child.writeHeader(); err != nil {
		return nil, err
	}
	if err := g.addLink(message.NewHardLink(name, child.addr)); err != nil {
		return nil, err
	}
	if g.file.created == nil {
		g.file.created = make(map[string]*Group)
	}
	g.file.created[child.path] = child
	return child, nil
}

// CreateSoftLink adds a member that resolves to target when opened.
// target is an absolute path or one relative to g; it need not exist
// yet.
func (g *Group) CreateSoftLink(name, target string) error {
	if err := g.checkNewMember(name); err != nil {
		return err
	}
	return g.addLink(&message.Link{Version: 1, LinkType: message.LinkTypeSoft, Name: name, SoftLinkValue: target})
}

// CreateExternalLink adds a member that resolves to the object at
// objectPath in another file. A relative file name is taken from the
// directory of the file holding the link.
func (g *Group) CreateExternalLink(name, file, objectPath string) error {
	if err := g.checkNewMember(name); err != nil {
		return err
	}
	return g.addLink(&message.Link{Version: 1, LinkType: message.LinkTypeExternal, Name: name, ExternalFile: file, ExternalPath: objectPath})
}

// checkNewMember reports whether a member called name can be added.
func (g *Group) checkNewMember(name string) error {
	switch {
	case !g.file.writable:
		return ErrReadOnly
	case name == "" || name == "." || strings.Contains(name, "/"):
		return fmt.Errorf("member name %q: %w", name, ErrInvalidPath)
	}
	if _, err := g.link(name); err == nil {
		return fmt.Errorf("%s already exists", g.childPath(name))
	}
	return nil
}

// addLink adds a member and rewrites the header of g.
func (g *Group) addLink(link *message.Link) error {
	if g.pendingLinks == nil {
		links, err := g.links()
		if err != nil {
			return err
		}
		g.pendingLinks = append([]*message.Link{}, links...)
	}
	g.pendingLinks = append(g.pendingLinks, link)
	return g.writeHeader()
}

// writeHeader writes the header of g, holding its current members, at a
// new address and points the parent (or the superblock) at it. Headers
// are never grown in place.
func (g *Group) writeHeader() error {
	addr, err := g.file.writeObject(object.GroupMessages(g.pendingLinks), object.MinGroupChunkSize)
	if err != nil {
		return fmt.Errorf("group %s: %w", g.path, err)
	}
	old := g.addr
	g.addr = addr
	if g.path == "/" {
		g.file.superblock.RootGroupAddress = addr
		return nil
	}

	parent := g.parent()
	if parent == nil {
		// A new group is linked by its caller.
		return nil
	}
	name := path.Base(g.path)
	for _, l := range parent.pendingLinks {
		if l.Name == name && l.IsHard() && l.ObjectAddress == old {
			l.ObjectAddress = addr
			return parent.writeHeader()
		}
	}
	return nil
}

// parent returns the parent of g when it was created through this file
// handle, or the root group.
func (g *Group) parent() *Group {
	dir := path.Dir(g.path)
	if dir == "/" {
		return g.file.root
	}
	return g.file.created[dir]
}
