// Package scheduler mounts rendering units over a store.Runtime and
// re-renders exactly the units whose dependencies a commit touched.
//
// A render clears the unit's previous dependencies and tracks every read it
// makes through the view it is handed. Commit promotes staged writes,
// collects the dependents of each dirty path, deduplicates them by ID and
// renders each once, in the order they were first reached.
//
//	s := scheduler.New(rt)
//	s.Mount(ctx, "Counter", func(v *store.Record) error {
//	    n, err := v.Get("counter")
//	    ...
//	})
//	rt.View().Set("counter", 5)
//	res, err := s.Commit(ctx) // res.Rerendered == [Counter]
package scheduler

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/listener"
	"github.com/vango-dev/vango-store/pkg/store"
	"github.com/vango-dev/vango-store/pkg/storepath"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "vango-store"

// RenderFunc renders a unit from the view of the store root.
type RenderFunc func(view *store.Record) error

// Observer receives scheduler events, typically to feed metrics.
type Observer interface {
	// CommitObserved is called after every commit.
	CommitObserved(d time.Duration, dirty, rerendered int)

	// Rendered is called after every render of a mounted unit.
	Rendered(name string, err error)
}

type nopObserver struct{}

func (nopObserver) CommitObserved(time.Duration, int, int) {}
func (nopObserver) Rendered(string, error)                 {}

// CommitResult describes one commit.
type CommitResult struct {
	// Dirty holds the paths the commit wrote.
	Dirty []storepath.Path

	// Rerendered holds the units rendered again, in render order.
	Rerendered []*Component

	Duration time.Duration
}

// Scheduler owns the mounted components of one Runtime. Like the Runtime it
// is driven from a single goroutine; Components and OnCommit may be called
// from any goroutine.
type Scheduler struct {
	rt       *store.Runtime
	tracer   trace.Tracer
	observer Observer
	logger   *slog.Logger

	mu         sync.RWMutex
	components map[uint64]*Component
	order      []*Component
	listeners  []func(CommitResult)
	nextID     uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTracerName resolves the tracer from the global provider by name.
func WithTracerName(name string) Option {
	return func(s *Scheduler) {
		s.tracer = otel.Tracer(name)
	}
}

// WithTracer sets the tracer directly.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// WithObserver sets the observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates a scheduler over rt.
func New(rt *store.Runtime, opts ...Option) *Scheduler {
	s := &Scheduler{
		rt:         rt,
		components: make(map[uint64]*Component),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(defaultTracerName)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "scheduler")
	}
	return s
}

// Runtime returns the runtime the scheduler renders against.
func (s *Scheduler) Runtime() *store.Runtime { return s.rt }

// Mount registers a component and renders it once. The component stays
// mounted when the first render fails.
func (s *Scheduler) Mount(ctx context.Context, name string, fn RenderFunc) (*Component, error) {
	s.mu.Lock()
	s.nextID++
	c := &Component{id: s.nextID, name: name, render: fn, mounted: true}
	s.components[c.id] = c
	s.order = append(s.order, c)
	s.mu.Unlock()

	s.logger.Debug("component mounted", "name", name, "id", c.id)
	return c, s.Render(ctx, c)
}

// Unmount removes c and forgets its dependencies.
func (s *Scheduler) Unmount(c *Component) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.components[c.id]; !ok {
		return
	}
	delete(s.components, c.id)
	for i, o := range s.order {
		if o == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	c.unmount()
	s.rt.Registry().Clear(c)
	s.logger.Debug("component unmounted", "name", c.name, "id", c.id)
}

// Components returns the mounted components in mount order.
func (s *Scheduler) Components() []*Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Component, len(s.order))
	copy(out, s.order)
	return out
}

// Component returns the mounted component with the given ID.
func (s *Scheduler) Component(id uint64) (*Component, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.components[id]
	return c, ok
}

// OnCommit registers fn to be called after every commit.
func (s *Scheduler) OnCommit(fn func(CommitResult)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Render renders c with dependency tracking. Its previous dependencies are
// dropped first, so after Render the registry holds exactly what this pass
// read.
func (s *Scheduler) Render(ctx context.Context, c *Component) error {
	if !s.owns(c) {
		return errors.New("E107").WithDetailf("render of %q", c.name)
	}

	_, span := s.tracer.Start(ctx, "store.render",
		trace.WithAttributes(
			attribute.String("store.unit", c.name),
			attribute.Int64("store.unit_id", int64(c.id)),
		),
	)
	defer span.End()

	reg := s.rt.Registry()
	reg.Clear(c)

	var err error
	s.rt.Track(c, func() {
		err = c.render(s.rt.View())
	})
	c.rendered(err)

	deps := len(reg.PathsOf(c))
	span.SetAttributes(attribute.Int("store.dependencies", deps))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("render failed", "name", c.name, "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
		s.logger.Debug("rendered", "name", c.name, "dependencies", deps)
	}
	s.observer.Rendered(c.name, err)
	return err
}

// Commit promotes the staged writes and re-renders every mounted unit that
// read a dirty path. Render errors are joined; every affected unit is still
// rendered.
func (s *Scheduler) Commit(ctx context.Context) (CommitResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "store.commit")
	defer span.End()

	dirty := s.rt.Commit()
	affected := s.dependents(dirty)
	for _, c := range affected {
		c.MarkDirty()
	}

	var errs []error
	for _, c := range affected {
		if err := s.Render(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}

	res := CommitResult{
		Dirty:      dirty,
		Rerendered: affected,
		Duration:   time.Since(start),
	}
	span.SetAttributes(
		attribute.Int("store.dirty_paths", len(dirty)),
		attribute.Int("store.rerendered", len(affected)),
	)
	err := stderrors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.observer.CommitObserved(res.Duration, len(dirty), len(affected))
	s.logger.Debug("committed", "dirty", len(dirty), "rerendered", len(affected), "duration", res.Duration)

	s.mu.RLock()
	listeners := append([]func(CommitResult){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(res)
	}
	return res, err
}

// dependents returns the mounted units depending on any of paths,
// deduplicated by ID in the order first reached.
func (s *Scheduler) dependents(paths []storepath.Path) []*Component {
	reg := s.rt.Registry()
	seen := make(map[uint64]bool)
	var out []*Component

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range paths {
		for _, u := range reg.DependentsOf(p) {
			if seen[u.ID()] {
				continue
			}
			seen[u.ID()] = true
			if c, ok := s.components[u.ID()]; ok && c == unitComponent(u) {
				out = append(out, c)
			}
		}
	}
	return out
}

func (s *Scheduler) owns(c *Component) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c != nil && s.components[c.id] == c
}

func unitComponent(u listener.Unit) *Component {
	c, _ := u.(*Component)
	return c
}
