package store

import (
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Record is the handle of a *node.Record.
type Record struct {
	base
	rec *node.Record

	// guard marks the global root returned by Runtime.Root.
	guard bool
}

// Get returns the value stored under key. Container values are returned as
// handles. While a unit is tracking the read is recorded as a dependency;
// otherwise it observes writes staged since the last commit.
func (r *Record) Get(key string) (any, error) {
	rt := r.rt
	if r.guard && rt.active != nil && rt.intercepting() {
		return nil, rt.reject(illegalGlobalRead(rt.active, key))
	}
	if storepath.IsReserved(key) {
		v, _ := r.rec.Get(key)
		return v, nil
	}

	v, _ := rt.lookup(r.rec, key)
	if isFunc(v) {
		return v, nil
	}
	rt.track(storepath.Extend(r.rec, key))
	return rt.Wrap(v), nil
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	rt := r.rt
	_, ok := rt.lookup(r.rec, key)
	if !storepath.IsReserved(key) {
		rt.track(storepath.Extend(r.rec, key))
	}
	return ok
}

// Keys returns the keys in insertion order. Reserved keys are omitted.
func (r *Record) Keys() []string {
	rt := r.rt
	rt.track(storepath.Whole(r.rec))
	src, _ := rt.source(r.rec).(*node.Record)
	if src == nil {
		return nil
	}
	keys := src.Keys()
	out := keys[:0]
	for _, k := range keys {
		if !storepath.IsReserved(k) {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.Keys())
}

// Set stores v under key. Handles passed as v are stored as their
// containers.
func (r *Record) Set(key string, v any) error {
	rt := r.rt
	v = unwrap(v)
	if storepath.IsReserved(key) || !rt.intercepting() {
		r.rec.Set(key, v)
		return nil
	}

	p := rt.extend(r.rec, key)
	if err := rt.guardWrite(OpSet, p, v); err != nil {
		return err
	}
	cur, ok := rt.current(r.rec, key)
	if ok && node.Same(cur, v) {
		return rt.skip(OpSet)
	}

	dirty := []storepath.Path{p}
	if !ok {
		dirty = append(dirty, rt.whole(r.rec))
	}
	return rt.forward(&Request{
		Op:       OpSet,
		Target:   r.rec,
		Prop:     key,
		Value:    v,
		HasValue: true,
		Dirty:    dirty,
		Updater: func(target node.Container, value any) {
			target.(*node.Record).Set(key, value)
		},
	})
}

// Delete removes key. Deleting an absent key is a no-op.
func (r *Record) Delete(key string) error {
	rt := r.rt
	if storepath.IsReserved(key) || !rt.intercepting() {
		r.rec.Delete(key)
		return nil
	}

	p := rt.extend(r.rec, key)
	if err := rt.guardWrite(OpDelete, p, nil); err != nil {
		return err
	}
	if _, ok := rt.current(r.rec, key); !ok {
		return rt.skip(OpDelete)
	}
	return rt.forward(&Request{
		Op:     OpDelete,
		Target: r.rec,
		Prop:   key,
		Dirty:  []storepath.Path{p, rt.whole(r.rec)},
		Updater: func(target node.Container, _ any) {
			target.(*node.Record).Delete(key)
		},
	})
}

// RecordAt returns the record stored under key.
func (r *Record) RecordAt(key string) (*Record, error) {
	v, err := r.at(key, node.KindRecord)
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// SequenceAt returns the sequence stored under key.
func (r *Record) SequenceAt(key string) (*Sequence, error) {
	v, err := r.at(key, node.KindSequence)
	if err != nil {
		return nil, err
	}
	return v.(*Sequence), nil
}

// MapAt returns the map stored under key.
func (r *Record) MapAt(key string) (*Map, error) {
	v, err := r.at(key, node.KindMap)
	if err != nil {
		return nil, err
	}
	return v.(*Map), nil
}

// SetAt returns the set stored under key.
func (r *Record) SetAt(key string) (*Set, error) {
	v, err := r.at(key, node.KindSet)
	if err != nil {
		return nil, err
	}
	return v.(*Set), nil
}

func (r *Record) at(key string, want node.Kind) (Handle, error) {
	v, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	p := storepath.Extend(r.rec, key)
	if v == nil {
		if !r.Has(key) {
			return nil, pathNotFound(p)
		}
		return nil, kindMismatch(p, want, v)
	}
	h, ok := v.(Handle)
	if !ok || h.Node().Kind() != want {
		return nil, kindMismatch(p, want, unwrap(v))
	}
	return h, nil
}
