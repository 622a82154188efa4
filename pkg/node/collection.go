package node

import (
	"reflect"

	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Entry is a key/value pair of a Map.
type Entry struct {
	Key   any
	Value any
}

// Map is an insertion-ordered key/value container. Keys must be comparable.
type Map struct {
	path   storepath.Path
	keys   []any
	values map[any]any
}

// NewMap creates an empty detached Map.
func NewMap() *Map {
	return &Map{values: make(map[any]any)}
}

func (m *Map) Kind() Kind           { return KindMap }
func (m *Map) Path() storepath.Path { return m.path }
func (m *Map) Len() int             { return len(m.keys) }

func (m *Map) setPath(p storepath.Path) { m.path = p }

func (m *Map) eachChild(fn func(storepath.Key, any)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if !Comparable(key) {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	if !Comparable(key) {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Set stores v under key and reports whether the key is new. It panics
// with E108 when key is not comparable.
func (m *Map) Set(key, v any) bool {
	mustComparable("map key", key)
	_, exists := m.values[key]
	if !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	Attach(v, m.path.Append(key))
	return !exists
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) bool {
	if !m.Has(key) {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every entry.
func (m *Map) Clear() {
	m.keys = nil
	clear(m.values)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	out := make([]any, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key insertion order.
func (m *Map) Values() []any {
	out := make([]any, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

// Entries returns the key/value pairs in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Key: k, Value: m.values[k]}
	}
	return out
}

// ShallowCopy returns a map with the same entries.
func (m *Map) ShallowCopy() Container {
	cp := &Map{
		path:   m.path,
		keys:   m.Keys(),
		values: make(map[any]any, len(m.values)),
	}
	for k, v := range m.values {
		cp.values[k] = v
	}
	return cp
}

// Set is an insertion-ordered collection of unique comparable values.
// A member is its own key.
type Set struct {
	path    storepath.Path
	items   []any
	members map[any]struct{}
}

// NewSet creates a detached Set holding vs.
func NewSet(vs ...any) *Set {
	s := &Set{members: make(map[any]struct{})}
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

func (s *Set) Kind() Kind           { return KindSet }
func (s *Set) Path() storepath.Path { return s.path }
func (s *Set) Len() int             { return len(s.items) }

func (s *Set) setPath(p storepath.Path) { s.path = p }

func (s *Set) eachChild(fn func(storepath.Key, any)) {
	for _, v := range s.items {
		fn(v, v)
	}
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	if !Comparable(v) {
		return false
	}
	_, ok := s.members[v]
	return ok
}

// Add inserts v and reports whether it was absent. It panics with E108
// when v is not comparable.
func (s *Set) Add(v any) bool {
	mustComparable("set member", v)
	if _, ok := s.members[v]; ok {
		return false
	}
	s.members[v] = struct{}{}
	s.items = append(s.items, v)
	Attach(v, s.path.Append(v))
	return true
}

// Delete removes v and reports whether it was present.
func (s *Set) Delete(v any) bool {
	if !s.Has(v) {
		return false
	}
	delete(s.members, v)
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every member.
func (s *Set) Clear() {
	s.items = nil
	clear(s.members)
}

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// ShallowCopy returns a set with the same members.
func (s *Set) ShallowCopy() Container {
	cp := &Set{
		path:    s.path,
		items:   s.Values(),
		members: make(map[any]struct{}, len(s.members)),
	}
	for v := range s.members {
		cp.members[v] = struct{}{}
	}
	return cp
}

// Comparable reports whether v can serve as a Map key or Set member.
// Values are checked dynamically, so an interface field holding a slice
// makes its struct uncomparable.
func Comparable(v any) bool {
	return v == nil || reflect.ValueOf(v).Comparable()
}

func mustComparable(what string, v any) {
	if !Comparable(v) {
		panic(errors.New("E108").WithDetailf("%s of type %T", what, v))
	}
}
