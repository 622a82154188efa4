package store

// Recorder receives interception events, typically to feed metrics.
type Recorder interface {
	// DependencyRecorded is called for every new (path, unit) pair.
	DependencyRecorded()

	// WriteStaged is called when a write is forwarded to the coordinator.
	WriteStaged(op Op)

	// WriteSkipped is called for writes that turned out to be no-ops.
	WriteSkipped(op Op)

	// Rejected is called with the error code of a refused operation.
	Rejected(code string)
}

type nopRecorder struct{}

func (nopRecorder) DependencyRecorded() {}
func (nopRecorder) WriteStaged(Op)      {}
func (nopRecorder) WriteSkipped(Op)     {}
func (nopRecorder) Rejected(string)     {}
