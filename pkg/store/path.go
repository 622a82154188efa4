package store

import (
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// ReadPath follows p from h with ordinary handle reads, so every step is
// tracked like the equivalent chain of Get, At and Len calls. WholeMarker
// reads the whole container and returns its handle. An absent final key
// yields nil; an absent intermediate key fails with ErrPathNotFound.
func ReadPath(h Handle, p storepath.Path) (any, error) {
	var cur any = h
	for i, key := range p {
		if cur == nil {
			return nil, pathNotFound(p[:i])
		}
		next, err := readKey(cur, key, p[:i+1])
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func readKey(cur any, key storepath.Key, at storepath.Path) (any, error) {
	if m, ok := key.(storepath.Marker); ok && m == storepath.WholeMarker {
		switch c := cur.(type) {
		case *Record:
			c.Keys()
		case *Sequence:
			c.Values()
		case *Map:
			c.Size()
		case *Set:
			c.Size()
		default:
			return nil, kindMismatch(at, node.KindRecord, cur)
		}
		return cur, nil
	}

	switch c := cur.(type) {
	case *Record:
		k, ok := key.(string)
		if !ok {
			return nil, pathNotFound(at)
		}
		return c.Get(k)
	case *Sequence:
		if key == storepath.Length {
			return c.Len(), nil
		}
		i, ok := key.(int)
		if !ok {
			return nil, pathNotFound(at)
		}
		return c.At(i), nil
	case *Map:
		return c.Get(key), nil
	case *Set:
		if c.Has(key) {
			return key, nil
		}
		return nil, nil
	default:
		return nil, pathNotFound(at)
	}
}
