package hdf5

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// resolver walks paths through groups, following soft and external links.
// One resolver serves one lookup, so its link count bounds the whole
// chain however the links nest.
type resolver struct {
	hops int
	seen map[string]bool
}

func newResolver() *resolver {
	return &resolver{seen: make(map[string]bool)}
}

// lookup returns the group or dataset that parts name below g.
func (rv *resolver) lookup(g *Group, parts []string) (any, error) {
	var obj any = g
	for i, name := range parts {
		cur, ok := obj.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", strings.Join(parts[:i], "/"), ErrNotGroup)
		}
		link, err := cur.link(name)
		if err != nil {
			return nil, fmt.Errorf("finding %q in %s: %w", name, cur.path, err)
		}
		if obj, err = rv.follow(cur, link); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// follow opens the target of a member of g. Objects reached through soft
// and external links take the path of the link.
func (rv *resolver) follow(g *Group, link *message.Link) (any, error) {
	p := g.childPath(link.Name)
	switch link.LinkType {
	case message.LinkTypeHard:
		return g.file.openAt(link.ObjectAddress, p)

	case message.LinkTypeSoft:
		target := link.SoftLinkValue
		from := g
		if strings.HasPrefix(target, "/") {
			from = g.file.root
		}
		if err := rv.take(g.file.path + ":" + path.Join(from.path, target)); err != nil {
			return nil, fmt.Errorf("soft link %s -> %s: %w", p, target, err)
		}
		obj, err := rv.lookup(from, splitPath(target))
		if err != nil {
			return nil, fmt.Errorf("soft link %s -> %s: %w", p, target, err)
		}
		return relocate(obj, p), nil

	case message.LinkTypeExternal:
		target := link.ExternalFile + ":" + link.ExternalPath
		if err := rv.take(target); err != nil {
			return nil, fmt.Errorf("external link %s -> %s: %w", p, target, err)
		}
		ext, err := g.file.external(link.ExternalFile)
		if err != nil {
			return nil, fmt.Errorf("external link %s: %w", p, err)
		}
		obj, err := rv.lookup(ext.root, splitPath(link.ExternalPath))
		if err != nil {
			return nil, fmt.Errorf("external link %s -> %s: %w", p, target, err)
		}
		return relocate(obj, p), nil
	}
	return nil, fmt.Errorf("link %s has type %d: %w", p, link.LinkType, ErrUnsupported)
}

// take records one more link on the chain. A target seen before means
// the links form a cycle.
func (rv *resolver) take(target string) error {
	if rv.hops >= MaxLinkDepth {
		return ErrLinkDepth
	}
	if rv.seen[target] {
		return fmt.Errorf("circular link to %s: %w", target, ErrLinkDepth)
	}
	rv.hops++
	rv.seen[target] = true
	return nil
}

// relocate gives a resolved object the path of the link that reached it.
// The root group is shared by every lookup and is copied first.
func relocate(obj any, p string) any {
	switch o := obj.(type) {
	case *Group:
		c := *o
		c.path = p
		return &c
	case *Dataset:
		o.path = p
	}
	return obj
}

// external opens a file named by an external link, relative to the
// directory of f. Opened files are kept until f is closed.
func (f *File) external(name string) (*File, error) {
	if ext, ok := f.externalFiles[name]; ok {
		return ext, nil
	}
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(f.path), name)
	}
	ext, err := Open(p)
	if err != nil {
		return nil, err
	}
	if f.externalFiles == nil {
		f.externalFiles = make(map[string]*File)
	}
	f.externalFiles[name] = ext
	return ext, nil
}
