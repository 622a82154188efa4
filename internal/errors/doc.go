// Package errors provides structured, actionable error messages for the
// store runtime.
//
// Every error carries a registered code (e.g. "E101") that maps to a short
// message, a longer explanation and a documentation URL. Misuse of the store
// (writing during a render pass, reading the global root while tracking) is
// reported through these codes so callers can match them with errors.Is:
//
//	err := errors.New("E101").
//	    WithDetail(`path "todos.0" value "milk"`).
//	    WithSuggestion("Move the write into an event handler")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Store mutated during render
//	//
//	//   path "todos.0" value "milk"
//	//
//	//   Hint: Move the write into an event handler
//	//
//	//   Learn more: https://vango.dev/docs/store/errors/E101
//
// # Error Categories
//
//   - runtime: reactive misuse detected while the store is in use
//   - internal: broken invariants inside the runtime itself
//   - config: vango-store.json problems
//   - cli: command line usage problems
package errors
