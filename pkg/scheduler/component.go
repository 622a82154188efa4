package scheduler

import "sync"

// Component is a mounted rendering unit. It implements listener.Unit.
type Component struct {
	id     uint64
	name   string
	render RenderFunc

	mu      sync.Mutex
	mounted bool
	dirty   bool
	renders int
	lastErr error
}

// ID returns a unique identifier for this component.
func (c *Component) ID() uint64 { return c.id }

// Name returns the name the component was mounted with.
func (c *Component) Name() string { return c.name }

// MarkDirty flags the component for re-render.
func (c *Component) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Dirty reports whether the component is waiting for a re-render.
func (c *Component) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Renders returns how many times the component has rendered.
func (c *Component) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Err returns the error of the last render.
func (c *Component) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Mounted reports whether the component is still mounted.
func (c *Component) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

func (c *Component) rendered(err error) {
	c.mu.Lock()
	c.dirty = false
	c.renders++
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Component) unmount() {
	c.mu.Lock()
	c.mounted = false
	c.mu.Unlock()
}
