package store

import (
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Op names the mutation a Request performs.
type Op uint8

const (
	OpSet Op = iota + 1
	OpDelete
	OpSetLen
	OpRemove
	OpAdd
	OpClear
)

// String returns a human-readable name for the op.
func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpSetLen:
		return "setlen"
	case OpRemove:
		return "remove"
	case OpAdd:
		return "add"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Updater performs a mutation against target with a (possibly re-wrapped)
// value. The same updater is run against the staged twin of the target and,
// on commit, against its canonical equivalent.
type Updater func(target node.Container, value any)

// Request is a deferred, replayable description of one container mutation.
type Request struct {
	Op Op

	// Target is the container the write was issued against. It may be a
	// canonical container or one that lives in the staged store.
	Target node.Container

	// Prop is the key written. Nil for Clear.
	Prop storepath.Key

	// Value is the written value; HasValue is false for deletes and clears.
	Value    any
	HasValue bool

	// Dirty lists the paths whose readers must be re-evaluated on commit.
	Dirty []storepath.Path

	Updater Updater
}

// Coordinator owns the staged store.
type Coordinator interface {
	// ReadStaged resolves prop against the staged equivalent of target.
	// WholeMarker resolves to the staged container itself.
	ReadStaged(target node.Container, prop storepath.Key) (any, bool)

	// ApplyStaged runs req.Updater against the staged equivalent of
	// req.Target and marks req.Dirty for the next commit.
	ApplyStaged(req *Request)
}

// Committer is implemented by coordinators that can promote their stage
// into the canonical store.
type Committer interface {
	// Commit replays every staged request against the canonical store,
	// clears the stage and returns the dirty paths.
	Commit() []storepath.Path
}
