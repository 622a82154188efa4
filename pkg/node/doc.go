// Package node implements the plain container graph the store is built from.
//
// There are four container kinds: Record (keyed fields), Sequence (ordered,
// index addressed), Map (insertion-ordered key/value pairs) and Set
// (insertion-ordered unique values). Anything else is an opaque leaf.
//
// Containers carry their own path from the store root. The path is kept
// current automatically: inserting a container into a parent re-roots the
// inserted subtree, and shifting Sequence elements re-roots the tail.
//
// Containers in this package perform no dependency tracking. Interception
// lives in package store, which wraps these types in handles.
package node
