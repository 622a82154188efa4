package node

import "github.com/vango-dev/vango-store/pkg/storepath"

// Record is a keyed container. Key order reflects insertion and only
// matters for enumeration.
type Record struct {
	path   storepath.Path
	keys   []string
	values map[string]any
}

// NewRecord creates an empty detached Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// With sets key to v and returns the record, for building literals.
func (r *Record) With(key string, v any) *Record {
	r.Set(key, v)
	return r
}

func (r *Record) Kind() Kind           { return KindRecord }
func (r *Record) Path() storepath.Path { return r.path }
func (r *Record) Len() int             { return len(r.keys) }

func (r *Record) setPath(p storepath.Path) { r.path = p }

func (r *Record) eachChild(fn func(storepath.Key, any)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set stores v under key and reports whether the key is new.
func (r *Record) Set(key string, v any) bool {
	_, exists := r.values[key]
	if !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
	Attach(v, r.path.Append(key))
	return !exists
}

// Delete removes key and reports whether it was present.
func (r *Record) Delete(key string) bool {
	if _, ok := r.values[key]; !ok {
		return false
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// ShallowCopy returns a record with the same entries.
func (r *Record) ShallowCopy() Container {
	cp := &Record{
		path:   r.path,
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(cp.keys, r.keys)
	for k, v := range r.values {
		cp.values[k] = v
	}
	return cp
}
