// Package listener records which rendering units depend on which store paths.
package listener

import (
	"sort"
	"sync"

	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Unit is a rendering unit that dependencies are attributed to.
type Unit interface {
	// ID returns a unique identifier for this unit.
	ID() uint64

	// Name returns a display name used in logs and the inspector.
	Name() string
}

// Registry maps encoded paths to the units that read them.
type Registry struct {
	mu sync.RWMutex

	// byPath holds the dependents of each encoded path.
	byPath map[string]map[uint64]Unit

	// byUnit holds the encoded paths each unit depends on, so Clear does
	// not scan every path.
	byUnit map[uint64]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byPath: make(map[string]map[uint64]Unit),
		byUnit: make(map[uint64]map[string]struct{}),
	}
}

// Record adds unit as a dependent of path. A nil unit is ignored and
// recording the same pair twice has no further effect. It reports whether
// the pair was new.
func (r *Registry) Record(path storepath.Path, unit Unit) bool {
	if unit == nil {
		return false
	}
	key := storepath.Encode(path)
	id := unit.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	units, ok := r.byPath[key]
	if !ok {
		units = make(map[uint64]Unit)
		r.byPath[key] = units
	}
	if _, exists := units[id]; exists {
		return false
	}
	units[id] = unit

	paths, ok := r.byUnit[id]
	if !ok {
		paths = make(map[string]struct{})
		r.byUnit[id] = paths
	}
	paths[key] = struct{}{}
	return true
}

// DependentsOf returns the units that depend on path, ordered by ID.
func (r *Registry) DependentsOf(path storepath.Path) []Unit {
	return r.DependentsOfKey(storepath.Encode(path))
}

// DependentsOfKey is DependentsOf for an already-encoded path.
func (r *Registry) DependentsOfKey(key string) []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := r.byPath[key]
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Has reports whether unit depends on path.
func (r *Registry) Has(path storepath.Path, unit Unit) bool {
	if unit == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byPath[storepath.Encode(path)][unit.ID()]
	return ok
}

// PathsOf returns the encoded paths unit depends on, sorted.
func (r *Registry) PathsOf(unit Unit) []string {
	if unit == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := r.byUnit[unit.ID()]
	out := make([]string, 0, len(paths))
	for p := range paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clear removes every dependency recorded for unit.
func (r *Registry) Clear(unit Unit) {
	if unit == nil {
		return
	}
	id := unit.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.byUnit[id] {
		units := r.byPath[key]
		delete(units, id)
		if len(units) == 0 {
			delete(r.byPath, key)
		}
	}
	delete(r.byUnit, id)
}

// Len returns the number of paths with at least one dependent.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPath)
}

// Snapshot returns every encoded path with the names of its dependents.
func (r *Registry) Snapshot() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.byPath))
	for key, units := range r.byPath {
		names := make([]string, 0, len(units))
		for _, u := range units {
			names = append(names, u.Name())
		}
		sort.Strings(names)
		out[key] = names
	}
	return out
}
