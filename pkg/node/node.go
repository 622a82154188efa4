package node

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Kind identifies a container kind.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindRecord
	KindSequence
	KindMap
	KindSet
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindRecord:
		return "record"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Container is implemented by the four container kinds of this package.
type Container interface {
	storepath.Pather

	// Kind returns the container kind.
	Kind() Kind

	// Len returns the number of entries.
	Len() int

	// ShallowCopy returns a new container of the same kind holding the same
	// entries. Child containers are shared, not copied.
	ShallowCopy() Container

	setPath(p storepath.Path)
	eachChild(fn func(key storepath.Key, child any))
}

// KindOf returns the container kind of v, or KindLeaf.
func KindOf(v any) Kind {
	if c, ok := v.(Container); ok {
		return c.Kind()
	}
	return KindLeaf
}

// IsContainer reports whether v is one of the four container kinds.
func IsContainer(v any) bool {
	_, ok := v.(Container)
	return ok
}

// MustContainer returns v as a Container and panics with E104 otherwise.
func MustContainer(v any) Container {
	c, ok := v.(Container)
	if !ok {
		panic(errors.New("E104").WithDetailf("got %T", v))
	}
	return c
}

// Attach sets the path of v and every container below it. Leaves are ignored.
func Attach(v any, p storepath.Path) {
	c, ok := v.(Container)
	if !ok {
		return
	}
	c.setPath(p)
	c.eachChild(func(key storepath.Key, child any) {
		Attach(child, p.Append(key))
	})
}

// Lookup resolves key inside c. WholeMarker resolves to c itself and the
// Sequence length key to its length.
func Lookup(c Container, key storepath.Key) (any, bool) {
	if m, ok := key.(storepath.Marker); ok && m == storepath.WholeMarker {
		return c, true
	}
	switch t := c.(type) {
	case *Record:
		k, ok := key.(string)
		if !ok {
			return nil, false
		}
		return t.Get(k)
	case *Sequence:
		if key == storepath.Length {
			return t.Len(), true
		}
		i, ok := key.(int)
		if !ok {
			return nil, false
		}
		return t.At(i)
	case *Map:
		return t.Get(key)
	case *Set:
		if t.Has(key) {
			return key, true
		}
		return nil, false
	default:
		panic(errors.New("E104").WithDetailf("got %T", c))
	}
}

// Resolve walks p from root and returns the value found there.
func Resolve(root Container, p storepath.Path) (any, bool) {
	var cur any = root
	for _, key := range p {
		c, ok := cur.(Container)
		if !ok {
			return nil, false
		}
		if cur, ok = Lookup(c, key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Same reports whether a and b are the identical value: containers by
// identity, comparable leaves with ==, everything else with reflect.DeepEqual.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsContainer(a) || IsContainer(b) {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Equal reports whether a and b are structurally equal by value.
func Equal(a, b any) bool {
	ca, okA := a.(Container)
	cb, okB := b.(Container)
	if !okA || !okB {
		if okA || okB {
			return false
		}
		return Same(a, b)
	}
	if ca.Kind() != cb.Kind() || ca.Len() != cb.Len() {
		return false
	}

	switch x := ca.(type) {
	case *Record:
		y := cb.(*Record)
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.values[k], yv) {
				return false
			}
		}
		return true
	case *Sequence:
		y := cb.(*Sequence)
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Map:
		y := cb.(*Map)
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.values[k], yv) {
				return false
			}
		}
		return true
	case *Set:
		return setEqual(x, cb.(*Set))
	default:
		panic(errors.New("E104").WithDetailf("got %T", ca))
	}
}

// setEqual matches members of x to members of y. Leaf members match by
// membership, container members by structural equality.
func setEqual(x, y *Set) bool {
	used := make([]bool, len(y.items))
	for _, m := range x.items {
		if !IsContainer(m) {
			if !y.Has(m) {
				return false
			}
			continue
		}
		found := false
		for j, n := range y.items {
			if !used[j] && Equal(m, n) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Describe returns a short description of v for error messages.
func Describe(v any) string {
	if c, ok := v.(Container); ok {
		return fmt.Sprintf("%s(len=%d)", c.Kind(), c.Len())
	}
	return fmt.Sprintf("%#v", v)
}
