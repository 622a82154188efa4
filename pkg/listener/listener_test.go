package listener

import (
	"sync"
	"testing"

	"github.com/vango-dev/vango-store/pkg/storepath"
)

// testUnit is a minimal Unit for tests.
type testUnit struct {
	id   uint64
	name string
}

func (u *testUnit) ID() uint64   { return u.id }
func (u *testUnit) Name() string { return u.name }

func TestRecordAndDependents(t *testing.T) {
	r := NewRegistry()
	w := &testUnit{id: 1, name: "W"}
	v := &testUnit{id: 2, name: "V"}

	r.Record(storepath.Path{"todos", storepath.Length}, w)
	r.Record(storepath.Path{"todos", 0}, w)
	r.Record(storepath.Path{"todos", 0}, v)

	deps := r.DependentsOf(storepath.Path{"todos", 0})
	if len(deps) != 2 || deps[0] != w || deps[1] != v {
		t.Errorf("DependentsOf(todos.0) = %v", deps)
	}
	if got := r.DependentsOfKey("todos.length"); len(got) != 1 || got[0] != w {
		t.Errorf("DependentsOfKey(todos.length) = %v", got)
	}
	if got := r.DependentsOf(storepath.Path{"todos", 1}); len(got) != 0 {
		t.Errorf("unread path has dependents: %v", got)
	}
}

func TestRecordIdempotent(t *testing.T) {
	r := NewRegistry()
	w := &testUnit{id: 1, name: "W"}

	if !r.Record(storepath.Path{"a"}, w) {
		t.Error("first Record should report new")
	}
	if r.Record(storepath.Path{"a"}, w) {
		t.Error("second Record should report existing")
	}
	if got := r.DependentsOf(storepath.Path{"a"}); len(got) != 1 {
		t.Errorf("duplicate entries: %v", got)
	}
}

func TestRecordNilUnit(t *testing.T) {
	r := NewRegistry()
	if r.Record(storepath.Path{"a"}, nil) {
		t.Error("Record(nil) should be a no-op")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	r.Clear(nil)
	if r.PathsOf(nil) != nil || r.Has(storepath.Path{"a"}, nil) {
		t.Error("nil unit lookups should be empty")
	}
}

func TestClear(t *testing.T) {
	r := NewRegistry()
	w := &testUnit{id: 1, name: "W"}
	v := &testUnit{id: 2, name: "V"}

	r.Record(storepath.Path{"a"}, w)
	r.Record(storepath.Path{"b"}, w)
	r.Record(storepath.Path{"b"}, v)

	r.Clear(w)

	if r.Has(storepath.Path{"a"}, w) || r.Has(storepath.Path{"b"}, w) {
		t.Error("Clear left dependencies behind")
	}
	if !r.Has(storepath.Path{"b"}, v) {
		t.Error("Clear removed another unit's dependency")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (empty sets dropped)", r.Len())
	}
	if len(r.PathsOf(w)) != 0 {
		t.Errorf("PathsOf(w) = %v", r.PathsOf(w))
	}
}

func TestSnapshotAndPathsOf(t *testing.T) {
	r := NewRegistry()
	w := &testUnit{id: 1, name: "W"}
	v := &testUnit{id: 2, name: "V"}
	r.Record(storepath.Path{"todos", 0}, w)
	r.Record(storepath.Path{"todos", 0}, v)
	r.Record(storepath.Path{"counter"}, w)

	snap := r.Snapshot()
	if got := snap["todos.0"]; len(got) != 2 || got[0] != "V" || got[1] != "W" {
		t.Errorf("Snapshot[todos.0] = %v", got)
	}
	if got := r.PathsOf(w); len(got) != 2 || got[0] != "counter" || got[1] != "todos.0" {
		t.Errorf("PathsOf(w) = %v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			u := &testUnit{id: id, name: "u"}
			for j := 0; j < 100; j++ {
				r.Record(storepath.Path{"k", j % 10}, u)
				_ = r.Snapshot()
			}
			r.Clear(u)
		}(uint64(i + 1))
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len() = %d after all units cleared", r.Len())
	}
}
