// Package storepath encodes store paths into canonical, comparable strings.
//
// A Path is the ordered sequence of keys leading from the store root to a
// node or leaf. Keys are strings (Record fields), ints (Sequence indices),
// Markers (reserved symbolic keys) or any other comparable value (Map keys,
// Set members). Encode turns a Path into the string the listener registry
// is keyed by:
//
//	Encode(Path{"todos", 0})         // "todos.0"
//	Encode(Path{"todos", Length})    // "todos.length"
//	Encode(Path{"todos", WholeMarker}) // "todos.@whole"
//
// Encoding is injective: strings that could be mistaken for another key kind
// are escaped, so Path{"0"} and Path{0} never collide.
package storepath
