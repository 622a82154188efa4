// Package store intercepts reads and writes on the store's container graph.
//
// Every container is reached through a handle (Record, Sequence, Map, Set)
// created once per container by a Runtime. Handles decide for each
// operation whether to record a dependency, forward to the staged store, or
// pass straight through:
//
//   - While a rendering unit is tracking (Runtime.Track), reads record the
//     path they touched in the listener registry and writes fail with
//     ErrIllegalRenderMutation.
//   - Outside tracking, writes become Requests applied to the staged store
//     by the Coordinator, and reads are answered from the staged store so a
//     write is visible to the very next read.
//   - While muted (Runtime.Mute) or with interception disabled, handles
//     operate on the canonical containers directly.
//
// Rendering units must read through the per-render view (Runtime.View).
// Reading the global root (Runtime.Root) while tracking fails with
// ErrIllegalGlobalRead.
//
//	rt := store.New(node.NewRecord().With("counter", 1))
//	root := rt.Root()
//
//	root.Set("counter", 5)     // staged
//	v, _ := root.Get("counter") // 5, read from the stage
//	rt.Commit()                // canonical counter is now 5
//
// A Runtime is not safe for concurrent use; callers serialize access, as
// package scheduler does.
package store
