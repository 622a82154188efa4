package store

import (
	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/listener"
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Sentinel errors for errors.Is. Errors returned by handles carry the
// offending path and value in their detail.
var (
	// ErrIllegalRenderMutation is returned for writes while a unit is tracking.
	ErrIllegalRenderMutation error = errors.New("E101")

	// ErrIllegalGlobalRead is returned for reads of the global root while a
	// unit is tracking.
	ErrIllegalGlobalRead error = errors.New("E102")

	// ErrPathNotFound is returned by the typed accessors for absent keys.
	ErrPathNotFound error = errors.New("E105")

	// ErrKindMismatch is returned by the typed accessors (RecordAt, ...)
	// when the value has another kind.
	ErrKindMismatch error = errors.New("E106")

	// ErrUncomparable is returned when a Map key or Set member cannot be
	// hashed.
	ErrUncomparable error = errors.New("E108")
)

func unitName(u listener.Unit) string {
	if u == nil {
		return "<none>"
	}
	return u.Name()
}

func illegalRenderMutation(u listener.Unit, op Op, p storepath.Path, v any) error {
	return errors.New("E101").
		WithDetailf("%s of %q with value %s during render of %q", op, storepath.Encode(p), node.Describe(v), unitName(u)).
		WithSuggestion("Write from an event handler or effect; the change is staged and committed after the render pass")
}

func illegalGlobalRead(u listener.Unit, key string) error {
	return errors.New("E102").
		WithDetailf("read of %q on the global root during render of %q", key, unitName(u)).
		WithSuggestion("Read through the view handed to the render function instead of Runtime.Root()")
}

func kindMismatch(p storepath.Path, want node.Kind, got any) error {
	return errors.New("E106").
		WithDetailf("path %q: want %s, got %s", storepath.Encode(p), want, node.Describe(got))
}

func pathNotFound(p storepath.Path) error {
	return errors.New("E105").WithDetailf("path %q", storepath.Encode(p))
}

func uncomparable(op Op, v any) error {
	return errors.New("E108").
		WithDetailf("%s with %s of type %T", op, node.Describe(v), v)
}
