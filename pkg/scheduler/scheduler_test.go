package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	storeerrors "github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/store"
)

type testObserver struct {
	commits  int
	rendered map[string]int
	failed   int
}

func (o *testObserver) CommitObserved(time.Duration, int, int) { o.commits++ }

func (o *testObserver) Rendered(name string, err error) {
	if o.rendered == nil {
		o.rendered = map[string]int{}
	}
	o.rendered[name]++
	if err != nil {
		o.failed++
	}
}

func newTodoRuntime() *store.Runtime {
	return store.New(node.NewRecord().
		With("counter", 0).
		With("todos", node.NewSequence(
			node.NewRecord().With("title", "write tests"),
		)))
}

func names(cs []*Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

func TestCommitRerendersDependents(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)

	var count int
	w, err := s.Mount(ctx, "W", func(v *store.Record) error {
		todos, err := v.SequenceAt("todos")
		if err != nil {
			return err
		}
		count = todos.Len()
		return nil
	})
	if err != nil {
		t.Fatalf("Mount(W) error = %v", err)
	}

	var title any
	vc, err := s.Mount(ctx, "V", func(v *store.Record) error {
		todos, err := v.SequenceAt("todos")
		if err != nil {
			return err
		}
		first, ok := todos.At(0).(*store.Record)
		if !ok {
			return nil
		}
		title, err = first.Get("title")
		return err
	})
	if err != nil {
		t.Fatalf("Mount(V) error = %v", err)
	}
	if count != 1 || title != "write tests" {
		t.Fatalf("initial render: count = %d, title = %v", count, title)
	}

	todos, _ := rt.View().SequenceAt("todos")
	first := todos.At(0).(*store.Record)
	if err := first.Set("title", "ship it"); err != nil {
		t.Fatal(err)
	}

	res, err := s.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := names(res.Rerendered); len(got) != 1 || got[0] != "V" {
		t.Errorf("Rerendered = %v, want [V]", got)
	}
	if title != "ship it" {
		t.Errorf("title = %v, want ship it", title)
	}
	if w.Renders() != 1 || vc.Renders() != 2 {
		t.Errorf("renders W=%d V=%d, want 1 and 2", w.Renders(), vc.Renders())
	}

	if err := todos.Append(node.NewRecord().With("title", "celebrate")); err != nil {
		t.Fatal(err)
	}
	res, err = s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Rerendered); len(got) != 1 || got[0] != "W" {
		t.Errorf("Rerendered after Append = %v, want [W]", got)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestCommitDeduplicates(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)

	c, _ := s.Mount(ctx, "Both", func(v *store.Record) error {
		v.Get("counter")
		todos, _ := v.SequenceAt("todos")
		todos.Len()
		return nil
	})

	rt.View().Set("counter", 1)
	todos, _ := rt.View().SequenceAt("todos")
	todos.Append("x")

	res, err := s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rerendered) != 1 {
		t.Errorf("Rerendered = %v, want one entry", names(res.Rerendered))
	}
	if c.Renders() != 2 {
		t.Errorf("Renders() = %d, want 2", c.Renders())
	}
	if c.Dirty() {
		t.Error("Dirty() = true after re-render")
	}
}

func TestCounterScenario(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	obs := &testObserver{}
	s := New(rt, WithObserver(obs))

	var seen []any
	s.Mount(ctx, "Counter", func(v *store.Record) error {
		n, err := v.Get("counter")
		seen = append(seen, n)
		return err
	})

	var results []CommitResult
	s.OnCommit(func(res CommitResult) {
		results = append(results, res)
	})

	if err := rt.View().Set("counter", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[1] != 5 {
		t.Errorf("seen = %v, want [0 5]", seen)
	}
	if len(results) != 1 || len(results[0].Dirty) != 1 {
		t.Errorf("OnCommit results = %+v", results)
	}
	if obs.commits != 1 || obs.rendered["Counter"] != 2 {
		t.Errorf("observer commits=%d rendered=%v", obs.commits, obs.rendered)
	}

	// Nothing staged: nothing re-renders.
	res, err := s.Commit(ctx)
	if err != nil || len(res.Rerendered) != 0 {
		t.Errorf("empty Commit() = %v, %v", names(res.Rerendered), err)
	}
}

func TestRenderMutationRejected(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)

	_, err := s.Mount(ctx, "Bad", func(v *store.Record) error {
		return v.Set("counter", 1)
	})
	if !errors.Is(err, store.ErrIllegalRenderMutation) {
		t.Errorf("Mount error = %v, want ErrIllegalRenderMutation", err)
	}
	if got, _ := rt.Canonical().Get("counter"); got != 0 {
		t.Errorf("counter = %v, want 0", got)
	}
	if rt.Stage().Pending() != 0 {
		t.Error("rejected write was staged")
	}
}

func TestCommitJoinsRenderErrors(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)
	boom := errors.New("boom")

	fail := false
	s.Mount(ctx, "A", func(v *store.Record) error {
		v.Get("counter")
		if fail {
			return boom
		}
		return nil
	})
	b, _ := s.Mount(ctx, "B", func(v *store.Record) error {
		v.Get("counter")
		return nil
	})

	fail = true
	rt.View().Set("counter", 2)
	res, err := s.Commit(ctx)
	if !errors.Is(err, boom) {
		t.Errorf("Commit() error = %v, want boom", err)
	}
	if len(res.Rerendered) != 2 || b.Renders() != 2 {
		t.Errorf("Rerendered = %v, B renders = %d", names(res.Rerendered), b.Renders())
	}
}

func TestUnmount(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)

	c, _ := s.Mount(ctx, "Gone", func(v *store.Record) error {
		v.Get("counter")
		return nil
	})
	s.Unmount(c)

	if c.Mounted() {
		t.Error("Mounted() = true after Unmount")
	}
	if len(rt.Registry().PathsOf(c)) != 0 {
		t.Error("dependencies kept after Unmount")
	}
	if len(s.Components()) != 0 {
		t.Errorf("Components() = %v", names(s.Components()))
	}

	rt.View().Set("counter", 3)
	res, _ := s.Commit(ctx)
	if len(res.Rerendered) != 0 {
		t.Errorf("Rerendered = %v, want none", names(res.Rerendered))
	}

	err := s.Render(ctx, c)
	if !errors.Is(err, storeerrors.New("E107")) {
		t.Errorf("Render(unmounted) error = %v, want E107", err)
	}
}

func TestRenderReplacesDependencies(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)

	key := "counter"
	c, _ := s.Mount(ctx, "Switch", func(v *store.Record) error {
		_, err := v.Get(key)
		return err
	})
	key = "todos"
	if err := s.Render(ctx, c); err != nil {
		t.Fatal(err)
	}

	paths := rt.Registry().PathsOf(c)
	if len(paths) != 1 || paths[0] != "todos" {
		t.Errorf("PathsOf = %v, want [todos]", paths)
	}
}

func TestComponentsInMountOrder(t *testing.T) {
	ctx := context.Background()
	s := New(newTodoRuntime())
	for _, n := range []string{"a", "b", "c"} {
		s.Mount(ctx, n, func(*store.Record) error { return nil })
	}
	got := names(s.Components())
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Components()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if c, ok := s.Component(2); !ok || c.Name() != "b" {
		t.Errorf("Component(2) = %v, %v", c, ok)
	}
}

func TestCommitSparesUnrelatedReaders(t *testing.T) {
	ctx := context.Background()
	rt := newTodoRuntime()
	s := New(rt)

	counter, _ := s.Mount(ctx, "Counter", func(v *store.Record) error {
		_, err := v.Get("counter")
		return err
	})
	var draftTitle any
	draft, _ := s.Mount(ctx, "Draft", func(v *store.Record) error {
		d, err := v.Get("draft")
		if err != nil {
			return err
		}
		if r, ok := d.(*store.Record); ok {
			draftTitle, err = r.Get("counter")
		}
		return err
	})

	if err := rt.View().Set("draft", node.NewRecord()); err != nil {
		t.Fatal(err)
	}
	d, err := rt.View().RecordAt("draft")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set("counter", 7); err != nil {
		t.Fatal(err)
	}

	res, err := s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Rerendered); len(got) != 1 || got[0] != "Draft" {
		t.Errorf("Rerendered = %v, want [Draft]", got)
	}
	if counter.Renders() != 1 {
		t.Errorf("Counter renders = %d, want 1", counter.Renders())
	}
	if draft.Renders() != 2 || draftTitle != 7 {
		t.Errorf("Draft renders = %d, read %v, want 2 and 7", draft.Renders(), draftTitle)
	}
}
