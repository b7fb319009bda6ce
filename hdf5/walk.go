package hdf5

import "errors"

// ErrStopWalk can be returned from a walk callback to end the walk early
// without an error.
var ErrStopWalk = errors.New("walk stopped")

// WalkFunc is called for each object during traversal. obj is a *Group or
// a *Dataset. err is set, and obj nil, when a member could not be opened
// as either. A non-nil return ends the walk.
type WalkFunc func(path string, obj interface{}, err error) error

// Walk visits g and every group and dataset below it, each group before
// its members. Links are followed, but a group reached a second time is
// reported without descending into it again.
func Walk(g *Group, fn WalkFunc) error {
	w := walker{fn: fn, seen: make(map[groupKey]bool)}
	err := w.group(g)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

type groupKey struct {
	file *File
	addr uint64
}

type walker struct {
	fn   WalkFunc
	seen map[groupKey]bool
}

func (w *walker) group(g *Group) error {
	if err := w.fn(g.path, g, nil); err != nil {
		return err
	}
	key := groupKey{g.file, g.addr}
	if w.seen[key] {
		return nil
	}
	w.seen[key] = true

	links, err := g.links()
	if err != nil {
		return err
	}
	for _, l := range links {
		obj, err := newResolver().follow(g, l)
		if child, ok := obj.(*Group); ok {
			err = w.group(child)
		} else {
			err = w.fn(g.childPath(l.Name), obj, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute found by WalkAttrs.
type AttrInfo struct {
	// Path is the full attribute path, e.g. "/Header@BoxSize".
	Path string

	// ObjectPath is the path of the group or dataset holding the attribute.
	ObjectPath string

	// ObjectType is "group" or "dataset".
	ObjectType string

	Name string
	Attr *Attribute

	// Value is the decoded value, or nil when Err is set.
	Value interface{}
	Err   error
}

// WalkAttrsFunc is called for each attribute. A non-nil return ends the
// walk; ErrStopWalk ends it without an error.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs visits every attribute of every group and dataset in the file.
// Objects that cannot be opened are skipped.
//
//	f.WalkAttrs(func(info hdf5.AttrInfo) error {
//	    fmt.Printf("%s = %v\n", info.Path, info.Value)
//	    return nil
//	})
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	if f.closed {
		return ErrClosed
	}

	return Walk(f.root, func(p string, obj interface{}, err error) error {
		var (
			holder attributeHolder
			kind   string
		)
		switch o := obj.(type) {
		case *Group:
			holder, kind = o, "group"
		case *Dataset:
			holder, kind = o, "dataset"
		default:
			return nil
		}

		for _, name := range holder.Attrs() {
			info := AttrInfo{
				Path:       JoinAttrPath(p, name),
				ObjectPath: p,
				ObjectType: kind,
				Name:       name,
				Attr:       holder.Attr(name),
			}
			if info.Attr != nil {
				info.Value, info.Err = info.Attr.Value()
			}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
