package store

import (
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Sequence is the handle of a *node.Sequence.
type Sequence struct {
	base
	seq *node.Sequence
}

// At returns the element at i, or nil when i is out of range.
func (s *Sequence) At(i int) any {
	rt := s.rt
	v, _ := rt.lookup(s.seq, i)
	if isFunc(v) {
		return v
	}
	rt.track(storepath.Extend(s.seq, i))
	return rt.Wrap(v)
}

// Len returns the length and records a dependency on it.
func (s *Sequence) Len() int {
	rt := s.rt
	rt.track(storepath.Extend(s.seq, storepath.Length))
	return s.length()
}

// Has reports whether i is in range. It records nothing.
func (s *Sequence) Has(i int) bool {
	return i >= 0 && i < s.length()
}

// Values returns every element and records a dependency on the whole
// sequence.
func (s *Sequence) Values() []any {
	rt := s.rt
	rt.track(storepath.Whole(s.seq))
	src, _ := rt.source(s.seq).(*node.Sequence)
	if src == nil {
		return nil
	}
	vs := src.Values()
	for i, v := range vs {
		vs[i] = rt.Wrap(v)
	}
	return vs
}

func (s *Sequence) length() int {
	v, _ := s.rt.lookup(s.seq, storepath.Length)
	n, _ := v.(int)
	return n
}

// Set stores v at i. Setting at Len appends and setting beyond Len pads
// with nil. Negative indices are ignored.
func (s *Sequence) Set(i int, v any) error {
	rt := s.rt
	v = unwrap(v)
	if i < 0 {
		return nil
	}
	if !rt.intercepting() {
		s.seq.SetAt(i, v)
		return nil
	}

	p := rt.extend(s.seq, i)
	if err := rt.guardWrite(OpSet, p, v); err != nil {
		return err
	}
	cur, ok := rt.current(s.seq, i)
	if ok && node.Same(cur, v) {
		return rt.skip(OpSet)
	}

	dirty := []storepath.Path{p, rt.whole(s.seq)}
	if !ok {
		dirty = append(dirty, rt.extend(s.seq, storepath.Length))
	}
	return rt.forward(&Request{
		Op:       OpSet,
		Target:   s.seq,
		Prop:     i,
		Value:    v,
		HasValue: true,
		Dirty:    dirty,
		Updater: func(target node.Container, value any) {
			target.(*node.Sequence).SetAt(i, value)
		},
	})
}

// SetLen truncates or pads the sequence to n elements. It is forwarded even
// when n equals the current length.
func (s *Sequence) SetLen(n int) error {
	rt := s.rt
	if n < 0 {
		n = 0
	}
	if !rt.intercepting() {
		s.seq.SetLen(n)
		return nil
	}

	lp := rt.extend(s.seq, storepath.Length)
	if err := rt.guardWrite(OpSetLen, lp, n); err != nil {
		return err
	}
	dirty := []storepath.Path{lp, rt.whole(s.seq)}
	for j := n; j < s.length(); j++ {
		dirty = append(dirty, rt.extend(s.seq, j))
	}
	return rt.forward(&Request{
		Op:       OpSetLen,
		Target:   s.seq,
		Prop:     storepath.Length,
		Value:    n,
		HasValue: true,
		Dirty:    dirty,
		Updater: func(target node.Container, _ any) {
			target.(*node.Sequence).SetLen(n)
		},
	})
}

// Append writes each value at the end and then sets the new length.
func (s *Sequence) Append(vs ...any) error {
	rt := s.rt
	if rt.intercepting() {
		if err := rt.guardWrite(OpSet, rt.extend(s.seq, s.length()), unwrapAll(vs)); err != nil {
			return err
		}
	}
	n := s.length()
	for k, v := range vs {
		if err := s.Set(n+k, v); err != nil {
			return err
		}
	}
	return s.SetLen(n + len(vs))
}

// Delete clears the element at i, leaving a nil hole. The length is
// unchanged. Deleting out of range is a no-op.
func (s *Sequence) Delete(i int) error {
	rt := s.rt
	if !rt.intercepting() {
		if s.seq.Len() > i && i >= 0 {
			s.seq.SetAt(i, nil)
		}
		return nil
	}

	p := rt.extend(s.seq, i)
	if err := rt.guardWrite(OpDelete, p, nil); err != nil {
		return err
	}
	if _, ok := rt.current(s.seq, i); !ok {
		return rt.skip(OpDelete)
	}
	return rt.forward(&Request{
		Op:     OpDelete,
		Target: s.seq,
		Prop:   i,
		Dirty:  []storepath.Path{p, rt.whole(s.seq)},
		Updater: func(target node.Container, _ any) {
			target.(*node.Sequence).SetAt(i, nil)
		},
	})
}

// RemoveAt removes the element at i and shifts the tail down.
func (s *Sequence) RemoveAt(i int) error {
	rt := s.rt
	if !rt.intercepting() {
		s.seq.RemoveAt(i)
		return nil
	}

	p := rt.extend(s.seq, i)
	if err := rt.guardWrite(OpRemove, p, nil); err != nil {
		return err
	}
	n := s.length()
	if i < 0 || i >= n {
		return rt.skip(OpRemove)
	}

	dirty := []storepath.Path{
		rt.extend(s.seq, storepath.Length),
		rt.whole(s.seq),
	}
	for j := i; j < n; j++ {
		dirty = append(dirty, rt.extend(s.seq, j))
	}
	return rt.forward(&Request{
		Op:     OpRemove,
		Target: s.seq,
		Prop:   i,
		Dirty:  dirty,
		Updater: func(target node.Container, _ any) {
			target.(*node.Sequence).RemoveAt(i)
		},
	})
}

func unwrapAll(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = unwrap(v)
	}
	return out
}
