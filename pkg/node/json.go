package node

import (
	"math"
	"sort"
)

const (
	mapTag = "$map"
	setTag = "$set"
)

// FromValue converts a JSON-shaped value into a container graph.
//
// Objects become Records (keys sorted), arrays become Sequences, an object
// of the form {"$map": [[k, v], ...]} becomes a Map and {"$set": [...]}
// becomes a Set. Integral float64 numbers are narrowed to int so they can
// serve as Map keys and Set members.
func FromValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if pairs, ok := t[mapTag].([]any); ok {
				m := NewMap()
				for _, p := range pairs {
					kv, ok := p.([]any)
					if !ok || len(kv) != 2 {
						continue
					}
					m.Set(FromValue(kv[0]), FromValue(kv[1]))
				}
				return m
			}
			if members, ok := t[setTag].([]any); ok {
				s := NewSet()
				for _, m := range members {
					s.Add(FromValue(m))
				}
				return s
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		r := NewRecord()
		for _, k := range keys {
			r.Set(k, FromValue(t[k]))
		}
		return r
	case []any:
		s := NewSequence()
		for _, item := range t {
			s.Append(FromValue(item))
		}
		return s
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int(t)
		}
		return t
	default:
		return v
	}
}

// ToValue converts a container graph back into a JSON-shaped value.
func ToValue(v any) any {
	switch t := v.(type) {
	case *Record:
		out := make(map[string]any, t.Len())
		for _, k := range t.keys {
			out[k] = ToValue(t.values[k])
		}
		return out
	case *Sequence:
		out := make([]any, len(t.items))
		for i, item := range t.items {
			out[i] = ToValue(item)
		}
		return out
	case *Map:
		pairs := make([]any, 0, t.Len())
		for _, k := range t.keys {
			pairs = append(pairs, []any{ToValue(k), ToValue(t.values[k])})
		}
		return map[string]any{mapTag: pairs}
	case *Set:
		members := make([]any, 0, t.Len())
		for _, m := range t.items {
			members = append(members, ToValue(m))
		}
		return map[string]any{setTag: members}
	default:
		return v
	}
}
