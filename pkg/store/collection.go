package store

import (
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Map is the handle of a *node.Map. Every read depends on the whole map.
type Map struct {
	base
	m *node.Map
}

func (m *Map) src() *node.Map {
	rt := m.rt
	rt.track(storepath.Whole(m.m))
	if src, ok := rt.source(m.m).(*node.Map); ok {
		return src
	}
	return m.m
}

// Size returns the number of entries.
func (m *Map) Size() int {
	return m.src().Len()
}

// Get returns the value stored under k, or nil.
func (m *Map) Get(k any) any {
	rt := m.rt
	k = unwrap(k)
	rt.track(storepath.Whole(m.m))
	v, _ := rt.lookup(m.m, k)
	return rt.Wrap(v)
}

// Has reports whether k is present.
func (m *Map) Has(k any) bool {
	rt := m.rt
	rt.track(storepath.Whole(m.m))
	_, ok := rt.lookup(m.m, unwrap(k))
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	rt := m.rt
	keys := m.src().Keys()
	for i, k := range keys {
		keys[i] = rt.Wrap(k)
	}
	return keys
}

// Values returns the values in insertion order.
func (m *Map) Values() []any {
	rt := m.rt
	vs := m.src().Values()
	for i, v := range vs {
		vs[i] = rt.Wrap(v)
	}
	return vs
}

// Entries returns the entries in insertion order.
func (m *Map) Entries() []node.Entry {
	rt := m.rt
	es := m.src().Entries()
	for i := range es {
		es[i].Key = rt.Wrap(es[i].Key)
		es[i].Value = rt.Wrap(es[i].Value)
	}
	return es
}

// ForEach calls fn for every entry in insertion order.
func (m *Map) ForEach(fn func(k, v any)) {
	for _, e := range m.Entries() {
		fn(e.Key, e.Value)
	}
}

// Set stores v under k. Storing an equal value is a no-op.
func (m *Map) Set(k, v any) error {
	rt := m.rt
	k, v = unwrap(k), unwrap(v)
	if !node.Comparable(k) {
		return rt.reject(uncomparable(OpSet, k))
	}
	if !rt.intercepting() {
		m.m.Set(k, v)
		return nil
	}

	w := rt.whole(m.m)
	if err := rt.guardWrite(OpSet, rt.extend(m.m, k), v); err != nil {
		return err
	}
	if cur, ok := rt.current(m.m, k); ok && node.Same(cur, v) {
		return rt.skip(OpSet)
	}
	return rt.forward(&Request{
		Op:       OpSet,
		Target:   m.m,
		Prop:     k,
		Value:    v,
		HasValue: true,
		Dirty:    []storepath.Path{w},
		Updater: func(target node.Container, value any) {
			target.(*node.Map).Set(k, value)
		},
	})
}

// Delete removes k. Deleting an absent key is a no-op.
func (m *Map) Delete(k any) error {
	rt := m.rt
	k = unwrap(k)
	if !rt.intercepting() {
		m.m.Delete(k)
		return nil
	}

	if err := rt.guardWrite(OpDelete, rt.extend(m.m, k), nil); err != nil {
		return err
	}
	if _, ok := rt.current(m.m, k); !ok {
		return rt.skip(OpDelete)
	}
	return rt.forward(&Request{
		Op:     OpDelete,
		Target: m.m,
		Prop:   k,
		Dirty:  []storepath.Path{rt.whole(m.m)},
		Updater: func(target node.Container, _ any) {
			target.(*node.Map).Delete(k)
		},
	})
}

// Clear removes every entry. Clearing an empty map is a no-op.
func (m *Map) Clear() error {
	rt := m.rt
	if !rt.intercepting() {
		m.m.Clear()
		return nil
	}
	return clearContainer(rt, m.m)
}

// Set is the handle of a *node.Set. Every read depends on the whole set.
type Set struct {
	base
	set *node.Set
}

func (s *Set) src() *node.Set {
	rt := s.rt
	rt.track(storepath.Whole(s.set))
	if src, ok := rt.source(s.set).(*node.Set); ok {
		return src
	}
	return s.set
}

// Size returns the number of members.
func (s *Set) Size() int {
	return s.src().Len()
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	rt := s.rt
	rt.track(storepath.Whole(s.set))
	_, ok := rt.lookup(s.set, unwrap(v))
	return ok
}

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	rt := s.rt
	vs := s.src().Values()
	for i, v := range vs {
		vs[i] = rt.Wrap(v)
	}
	return vs
}

// ForEach calls fn for every member in insertion order.
func (s *Set) ForEach(fn func(v any)) {
	for _, v := range s.Values() {
		fn(v)
	}
}

// Add inserts v. Adding a member is a no-op.
func (s *Set) Add(v any) error {
	rt := s.rt
	v = unwrap(v)
	if !node.Comparable(v) {
		return rt.reject(uncomparable(OpAdd, v))
	}
	if !rt.intercepting() {
		s.set.Add(v)
		return nil
	}

	if err := rt.guardWrite(OpAdd, rt.whole(s.set), v); err != nil {
		return err
	}
	if _, ok := rt.lookup(s.set, v); ok {
		return rt.skip(OpAdd)
	}
	return rt.forward(&Request{
		Op:       OpAdd,
		Target:   s.set,
		Value:    v,
		HasValue: true,
		Dirty:    []storepath.Path{rt.whole(s.set)},
		Updater: func(target node.Container, value any) {
			target.(*node.Set).Add(value)
		},
	})
}

// Delete removes v. Deleting a non-member is a no-op.
func (s *Set) Delete(v any) error {
	rt := s.rt
	v = unwrap(v)
	if !rt.intercepting() {
		s.set.Delete(v)
		return nil
	}

	if err := rt.guardWrite(OpDelete, rt.whole(s.set), v); err != nil {
		return err
	}
	if _, ok := rt.lookup(s.set, v); !ok {
		return rt.skip(OpDelete)
	}
	return rt.forward(&Request{
		Op:       OpDelete,
		Target:   s.set,
		Value:    v,
		HasValue: true,
		Dirty:    []storepath.Path{rt.whole(s.set)},
		Updater: func(target node.Container, value any) {
			target.(*node.Set).Delete(value)
		},
	})
}

// Clear removes every member. Clearing an empty set is a no-op.
func (s *Set) Clear() error {
	rt := s.rt
	if !rt.intercepting() {
		s.set.Clear()
		return nil
	}
	return clearContainer(rt, s.set)
}

// clearContainer stages a Clear of a Map or Set.
func clearContainer(rt *Runtime, c node.Container) error {
	w := rt.whole(c)
	if err := rt.guardWrite(OpClear, w, nil); err != nil {
		return err
	}
	if src := rt.source(c); src.Len() == 0 {
		return rt.skip(OpClear)
	}
	return rt.forward(&Request{
		Op:     OpClear,
		Target: c,
		Dirty:  []storepath.Path{w},
		Updater: func(target node.Container, _ any) {
			switch t := target.(type) {
			case *node.Map:
				t.Clear()
			case *node.Set:
				t.Clear()
			}
		},
	})
}
