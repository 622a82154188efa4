// Package traverse walks container graphs depth first.
//
// Walk visits every node in pre-order and lets a Transform replace nodes as
// it goes, which is how the store builds independent deep copies (Clone) and
// how a single buffered update is applied at one path (UpdateAt).
//
// Children are written back into their (possibly replaced) parent with the
// setter of the parent's kind. Sets cannot replace a member in place, so a
// Set is snapshotted, cleared, and every member is reinserted after it has
// been visited, using the member as both key and value.
package traverse

import (
	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Transform is called for every node with its path. Returning (v, true)
// replaces the node with v for the rest of the walk; returning false keeps
// the node, which may then be mutated in place.
type Transform func(n any, p storepath.Path) (any, bool)

type walker struct {
	fn      Transform
	descend func(p storepath.Path) bool
	stopped bool
}

// Walk traverses root and returns the (possibly replaced) root.
// Paths start at root's own path when root is a container.
func Walk(root any, fn Transform) any {
	w := &walker{fn: fn}
	return w.walk(root, startPath(root))
}

func startPath(root any) storepath.Path {
	if c, ok := root.(node.Container); ok {
		return c.Path()
	}
	return storepath.Path{}
}

func (w *walker) walk(n any, p storepath.Path) any {
	if w.stopped {
		return n
	}
	if w.fn != nil {
		if r, ok := w.fn(n, p); ok {
			n = r
		}
	}
	if w.stopped {
		return n
	}

	c, ok := n.(node.Container)
	if !ok {
		return n
	}

	switch t := c.(type) {
	case *node.Record:
		for _, k := range t.Keys() {
			if !w.enter(p, k) {
				continue
			}
			child, _ := t.Get(k)
			t.Set(k, w.walk(child, p.Append(k)))
		}
	case *node.Sequence:
		for i := 0; i < t.Len(); i++ {
			if !w.enter(p, i) {
				continue
			}
			child, _ := t.At(i)
			t.SetAt(i, w.walk(child, p.Append(i)))
		}
	case *node.Map:
		for _, k := range t.Keys() {
			if !w.enter(p, k) {
				continue
			}
			child, _ := t.Get(k)
			t.Set(k, w.walk(child, p.Append(k)))
		}
	case *node.Set:
		members := t.Values()
		t.Clear()
		for _, m := range members {
			if w.enter(p, m) {
				m = w.walk(m, p.Append(m))
			}
			t.Add(m)
		}
	default:
		panic(errors.New("E104").WithDetailf("traverse: got %T", c))
	}
	return n
}

// enter reports whether the child at p+key should be visited.
func (w *walker) enter(p storepath.Path, key storepath.Key) bool {
	if w.stopped {
		return false
	}
	return w.descend == nil || w.descend(p.Append(key))
}

// Clone returns an independent deep copy of root. onCopy, if not nil, is
// called for every container with the original and its copy.
func Clone(root any, onCopy func(orig, cp node.Container)) any {
	return Walk(root, func(n any, _ storepath.Path) (any, bool) {
		c, ok := n.(node.Container)
		if !ok {
			return nil, false
		}
		cp := c.ShallowCopy()
		if onCopy != nil {
			onCopy(c, cp)
		}
		return cp, true
	})
}

// UpdateAt applies fn to the container at target, visiting only the nodes
// on the way there. It reports whether a container was found at target.
func UpdateAt(root node.Container, target storepath.Path, fn func(node.Container)) bool {
	found := false
	w := &walker{
		descend: func(p storepath.Path) bool {
			return target.HasPrefix(p)
		},
	}
	w.fn = func(n any, p storepath.Path) (any, bool) {
		if !p.Equal(target) {
			return nil, false
		}
		if c, ok := n.(node.Container); ok {
			fn(c)
			found = true
		}
		w.stopped = true
		return nil, false
	}
	w.walk(root, root.Path())
	return found
}
