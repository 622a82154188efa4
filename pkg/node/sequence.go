package node

import "github.com/vango-dev/vango-store/pkg/storepath"

// Sequence is an ordered, index-addressed container.
type Sequence struct {
	path  storepath.Path
	items []any
}

// NewSequence creates a detached Sequence holding vs.
func NewSequence(vs ...any) *Sequence {
	s := &Sequence{}
	s.Append(vs...)
	return s
}

func (s *Sequence) Kind() Kind           { return KindSequence }
func (s *Sequence) Path() storepath.Path { return s.path }
func (s *Sequence) Len() int             { return len(s.items) }

func (s *Sequence) setPath(p storepath.Path) { s.path = p }

func (s *Sequence) eachChild(fn func(storepath.Key, any)) {
	for i, v := range s.items {
		fn(i, v)
	}
}

// At returns the element at index i.
func (s *Sequence) At(i int) (any, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

// SetAt stores v at index i. Setting at Len appends; setting beyond Len pads
// with nil. Negative indices are ignored.
func (s *Sequence) SetAt(i int, v any) {
	if i < 0 {
		return
	}
	if i >= len(s.items) {
		s.SetLen(i + 1)
	}
	s.items[i] = v
	Attach(v, s.path.Append(i))
}

// SetLen truncates or pads the sequence to n elements.
func (s *Sequence) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	switch {
	case n < len(s.items):
		clear(s.items[n:])
		s.items = s.items[:n]
	case n > len(s.items):
		s.items = append(s.items, make([]any, n-len(s.items))...)
	}
}

// Append adds vs at the end.
func (s *Sequence) Append(vs ...any) {
	for _, v := range vs {
		s.SetAt(len(s.items), v)
	}
}

// RemoveAt removes the element at i, shifting the tail down.
func (s *Sequence) RemoveAt(i int) (any, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	v := s.items[i]
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	for j := i; j < len(s.items); j++ {
		Attach(s.items[j], s.path.Append(j))
	}
	return v, true
}

// Values returns a copy of the elements.
func (s *Sequence) Values() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// ShallowCopy returns a sequence with the same elements.
func (s *Sequence) ShallowCopy() Container {
	return &Sequence{path: s.path, items: s.Values()}
}
