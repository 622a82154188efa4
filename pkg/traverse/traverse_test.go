package traverse

import (
	"testing"

	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

func sampleTree() *node.Record {
	byID := node.NewMap()
	byID.Set(1, node.NewRecord().With("title", "milk"))
	return node.NewRecord().
		With("todos", node.NewSequence(node.NewRecord().With("title", "milk"), "eggs")).
		With("byID", byID).
		With("tags", node.NewSet("a", "b", "c")).
		With("counter", 1)
}

func TestCloneRoundTrip(t *testing.T) {
	orig := sampleTree()
	cp := Clone(orig, nil).(*node.Record)

	if cp == orig {
		t.Fatal("Clone returned the original")
	}
	if !node.Equal(orig, cp) {
		t.Fatal("clone should be structurally equal to the original")
	}

	todos, _ := cp.Get("todos")
	todos.(*node.Sequence).Append("bread")
	first, _ := todos.(*node.Sequence).At(0)
	first.(*node.Record).Set("title", "oat milk")
	tags, _ := cp.Get("tags")
	tags.(*node.Set).Add("d")
	byID, _ := cp.Get("byID")
	byID.(*node.Map).Delete(1)

	if !node.Equal(orig, sampleTree()) {
		t.Error("mutating the clone changed the original")
	}
}

func TestCloneReportsPairs(t *testing.T) {
	orig := sampleTree()
	pairs := make(map[node.Container]node.Container)
	cp := Clone(orig, func(o, c node.Container) { pairs[o] = c }).(*node.Record)

	if pairs[orig] != cp {
		t.Error("root pair missing")
	}
	origTodos, _ := orig.Get("todos")
	cpTodos, _ := cp.Get("todos")
	if pairs[origTodos.(node.Container)] != cpTodos {
		t.Error("nested pair should map to the copy placed in the clone")
	}
	if len(pairs) != 6 {
		t.Errorf("pairs = %d, want 6 containers", len(pairs))
	}
	if !cpTodos.(node.Container).Path().Equal(storepath.Path{"todos"}) {
		t.Errorf("copy path = %v", cpTodos.(node.Container).Path())
	}
}

func TestSetReinsertion(t *testing.T) {
	b := node.NewRecord().With("name", "b")
	b2 := node.NewRecord().With("name", "b2")
	set := node.NewSet("a", b, "c")

	out := Walk(set, func(n any, _ storepath.Path) (any, bool) {
		if n == b {
			return b2, true
		}
		return nil, false
	}).(*node.Set)

	if out != set {
		t.Fatal("a set that is not replaced itself should be mutated in place")
	}
	if out.Has(b) {
		t.Error("old member b still present")
	}
	if !out.Has(b2) || !out.Has("a") || !out.Has("c") {
		t.Errorf("members = %v", out.Values())
	}
	vals := out.Values()
	if len(vals) != 3 || vals[0] != "a" || vals[1] != b2 || vals[2] != "c" {
		t.Errorf("order = %v, want [a b2 c]", vals)
	}
	if !b2.Path().Equal(storepath.Path{b2}) {
		t.Errorf("reinserted member should be keyed by itself, path = %v", b2.Path())
	}
}

func TestWalkPreOrder(t *testing.T) {
	root := node.NewRecord().
		With("a", node.NewSequence("x", "y")).
		With("b", 2)

	var visited []string
	Walk(root, func(_ any, p storepath.Path) (any, bool) {
		visited = append(visited, storepath.Encode(p))
		return nil, false
	})

	want := []string{"", "a", "a.0", "a.1", "b"}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestWalkReplacesLeaves(t *testing.T) {
	root := node.NewRecord().With("n", 1).With("list", node.NewSequence(2, 3))
	Walk(root, func(n any, _ storepath.Path) (any, bool) {
		if i, ok := n.(int); ok {
			return i * 10, true
		}
		return nil, false
	})

	want := node.NewRecord().With("n", 10).With("list", node.NewSequence(20, 30))
	if !node.Equal(root, want) {
		t.Errorf("got %v", node.ToValue(root))
	}
}

func TestUpdateAt(t *testing.T) {
	root := sampleTree()

	ok := UpdateAt(root, storepath.Path{"todos", 0}, func(c node.Container) {
		c.(*node.Record).Set("done", true)
	})
	if !ok {
		t.Fatal("UpdateAt should find todos.0")
	}
	todos, _ := root.Get("todos")
	first, _ := todos.(*node.Sequence).At(0)
	if done, _ := first.(*node.Record).Get("done"); done != true {
		t.Error("updater was not applied")
	}

	if UpdateAt(root, storepath.Path{"todos", 1}, func(node.Container) {
		t.Error("updater must not run on a leaf")
	}) {
		t.Error("UpdateAt on a leaf should report false")
	}
	if UpdateAt(root, storepath.Path{"missing"}, func(node.Container) {
		t.Error("updater must not run for a missing path")
	}) {
		t.Error("UpdateAt on a missing path should report false")
	}
}

func TestUpdateAtThroughSet(t *testing.T) {
	member := node.NewRecord().With("n", 1)
	tags := node.NewSet("x", member, "y")
	root := node.NewRecord().With("tags", tags)

	ok := UpdateAt(root, storepath.Path{"tags", member}, func(c node.Container) {
		c.(*node.Record).Set("n", 2)
	})
	if !ok {
		t.Fatal("UpdateAt should reach a container set member")
	}
	if v, _ := member.Get("n"); v != 2 {
		t.Errorf("member n = %v, want 2", v)
	}
	vals := tags.Values()
	if len(vals) != 3 || vals[0] != "x" || vals[1] != member || vals[2] != "y" {
		t.Errorf("set order after update = %v", vals)
	}
}

func TestUpdateAtPrunesSiblings(t *testing.T) {
	root := sampleTree()
	var visited []string
	w := &walker{
		descend: func(p storepath.Path) bool {
			return (storepath.Path{"todos", 0}).HasPrefix(p)
		},
	}
	w.fn = func(_ any, p storepath.Path) (any, bool) {
		visited = append(visited, storepath.Encode(p))
		return nil, false
	}
	w.walk(root, root.Path())

	want := []string{"", "todos", "todos.0"}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
}
