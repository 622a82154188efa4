package scenario

import (
	"context"
	"strings"
	"testing"

	"github.com/vango-dev/vango-store/pkg/store"
)

func run(t *testing.T, src string, opts ...Option) (*Report, error) {
	t.Helper()
	sc, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	r, err := NewRunner(sc, opts...)
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}
	return r.Run(context.Background())
}

func TestRunFixture(t *testing.T) {
	sc, err := Load("testdata/todos.json")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	r, err := NewRunner(sc)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v\nsteps: %+v", err, rep.Steps)
	}

	if len(rep.Steps) != len(sc.Steps) {
		t.Errorf("len(Steps) = %d, want %d", len(rep.Steps), len(sc.Steps))
	}
	if got := rep.Seen["Count"]["todos.length"]; got != 2 {
		t.Errorf("Count saw todos.length = %v, want 2", got)
	}
	if got := rep.Seen["First"]["todos.0.title"]; got != "ship" {
		t.Errorf("First saw todos.0.title = %v, want ship", got)
	}

	st, ok := rep.Store.(map[string]any)
	if !ok {
		t.Fatalf("Store = %T, want map", rep.Store)
	}
	if st["counter"] != 1 {
		t.Errorf("counter = %v, want 1", st["counter"])
	}

	renders := map[string]int{}
	for _, c := range r.Scheduler().Components() {
		renders[c.Name()] = c.Renders()
	}
	want := map[string]int{"Count": 2, "First": 2, "Tags": 2, "Counter": 2}
	for name, n := range want {
		if renders[name] != n {
			t.Errorf("%s renders = %d, want %d", name, renders[name], n)
		}
	}
}

func TestRunReadsStagedValues(t *testing.T) {
	rep, err := run(t, `{
  "store": {"items": [1, 2, 3]},
  "steps": [
    {"op": "remove", "path": "items.0"},
    {"op": "read", "path": "items"},
    {"op": "read", "path": "items.length"}
  ]
}`)
	if err != nil {
		t.Fatal(err)
	}

	items, ok := rep.Steps[1].Value.([]any)
	if !ok || len(items) != 2 || items[0] != 2 {
		t.Errorf("read items = %v, want [2 3]", rep.Steps[1].Value)
	}
	if rep.Steps[2].Value != 2 {
		t.Errorf("read items.length = %v, want 2", rep.Steps[2].Value)
	}

	canonical := rep.Store.(map[string]any)["items"].([]any)
	if len(canonical) != 3 {
		t.Errorf("canonical items = %v, want untouched before commit", canonical)
	}
}

func TestRunCommitReportsDirty(t *testing.T) {
	rep, err := run(t, `{
  "store": {"a": 1, "b": 2},
  "components": [{"name": "A", "reads": ["a"]}, {"name": "B", "reads": ["b"]}],
  "steps": [
    {"op": "set", "path": "b", "value": 3},
    {"op": "commit"}
  ]
}`)
	if err != nil {
		t.Fatal(err)
	}
	res := rep.Steps[1]
	if len(res.Dirty) != 1 || res.Dirty[0] != "b" {
		t.Errorf("Dirty = %v, want [b]", res.Dirty)
	}
	if len(res.Rerendered) != 1 || res.Rerendered[0] != "B" {
		t.Errorf("Rerendered = %v, want [B]", res.Rerendered)
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		ran  int
	}{
		{
			name: "expect mismatch",
			src:  `{"store": {"a": 1}, "steps": [{"op": "expect", "path": "a", "value": 2}]}`,
			code: "E143",
			ran:  1,
		},
		{
			name: "rerendered mismatch",
			src: `{"store": {"a": 1}, "components": [{"name": "A", "reads": ["a"]}],
			  "steps": [{"op": "set", "path": "a", "value": 2}, {"op": "commit", "rerendered": []}]}`,
			code: "E143",
			ran:  2,
		},
		{
			name: "add on sequence",
			src:  `{"store": {"xs": []}, "steps": [{"op": "add", "path": "xs", "value": 1}, {"op": "read", "path": "xs"}]}`,
			code: "E106",
			ran:  1,
		},
		{
			name: "missing parent",
			src:  `{"store": {}, "steps": [{"op": "set", "path": "a.b", "value": 1}]}`,
			code: "E105",
			ran:  1,
		},
		{
			name: "setlen fraction",
			src:  `{"store": {"xs": []}, "steps": [{"op": "setlen", "path": "xs", "value": 1.5}]}`,
			code: "E140",
			ran:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := run(t, tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.code) {
				t.Fatalf("Run error = %v, want %s", err, tt.code)
			}
			if len(rep.Steps) != tt.ran {
				t.Errorf("len(Steps) = %d, want %d", len(rep.Steps), tt.ran)
			}
			if rep.Steps[len(rep.Steps)-1].Error == "" {
				t.Error("failing step has no Error")
			}
		})
	}
}

func TestRunWithInterceptionDisabled(t *testing.T) {
	rep, err := run(t, `{
  "store": {"a": 1},
  "steps": [
    {"op": "set", "path": "a", "value": 2},
    {"op": "expect", "path": "a", "value": 2}
  ]
}`, WithStoreOptions(store.WithInterception(false)))
	if err != nil {
		t.Fatal(err)
	}
	if got := rep.Store.(map[string]any)["a"]; got != 2 {
		t.Errorf("a = %v, want 2 written directly", got)
	}
}

func TestRunCancelled(t *testing.T) {
	sc, err := Decode(strings.NewReader(`{"steps": [{"op": "read", "path": "a"}, {"op": "read", "path": "a"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(sc, WithStepDelay(1<<30))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := r.Run(ctx)
	if err != context.Canceled {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if len(rep.Steps) != 1 {
		t.Errorf("len(Steps) = %d, want 1", len(rep.Steps))
	}
}
