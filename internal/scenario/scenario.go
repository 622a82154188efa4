// Package scenario loads and replays scripted store sessions for the CLI.
//
// A scenario declares an initial store, the components to mount (each one
// reads a list of paths when it renders) and a list of steps:
//
//	{
//	  "name": "todos",
//	  "store": {"todos": [{"title": "write tests"}]},
//	  "components": [
//	    {"name": "Count", "reads": ["todos.length"]},
//	    {"name": "First", "reads": ["todos.0.title"]}
//	  ],
//	  "steps": [
//	    {"op": "set", "path": "todos.0.title", "value": "ship"},
//	    {"op": "expect", "path": "todos.0.title", "value": "ship"},
//	    {"op": "commit", "rerendered": ["First"]}
//	  ]
//	}
//
// Write ops address the container through the parent of path and the
// written key through its last segment; append, setlen, add and clear
// address the container itself.
package scenario

import (
	"encoding/json"
	"io"
	"os"

	"github.com/vango-dev/vango-store/internal/errors"
)

// Op names a step.
type Op string

const (
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpAppend Op = "append"
	OpSetLen Op = "setlen"
	OpRemove Op = "remove"
	OpAdd    Op = "add"
	OpClear  Op = "clear"
	OpRead   Op = "read"
	OpExpect Op = "expect"
	OpCommit Op = "commit"
)

var knownOps = map[Op]bool{
	OpSet: true, OpDelete: true, OpAppend: true, OpSetLen: true, OpRemove: true,
	OpAdd: true, OpClear: true, OpRead: true, OpExpect: true, OpCommit: true,
}

// Scenario is a decoded scenario file.
type Scenario struct {
	Name       string         `json:"name"`
	Store      map[string]any `json:"store"`
	Components []Component    `json:"components"`
	Steps      []Step         `json:"steps"`
}

// Component is a unit that reads Reads on every render.
type Component struct {
	Name  string   `json:"name"`
	Reads []string `json:"reads"`
}

// Step is one scripted operation.
type Step struct {
	Op    Op     `json:"op"`
	Path  string `json:"path,omitempty"`
	Value any    `json:"value,omitempty"`

	// Rerendered, on a commit step, lists the components expected to
	// render again. Nil skips the check.
	Rerendered []string `json:"rerendered,omitempty"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("E140").WithDetail(path).Wrap(err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a scenario from r and validates its ops.
func Decode(r io.Reader) (*Scenario, error) {
	var sc Scenario
	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return nil, errors.New("E140").
			WithDetail("Failed to parse scenario: " + err.Error()).
			WithSuggestion("Check that the scenario is valid JSON")
	}
	if sc.Store == nil {
		sc.Store = map[string]any{}
	}
	for i, st := range sc.Steps {
		if !knownOps[st.Op] {
			return nil, errors.New("E142").WithDetailf("step %d: op %q", i, st.Op)
		}
	}
	return &sc, nil
}
