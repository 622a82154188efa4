package store

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/listener"
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// Handle is implemented by Record, Sequence, Map and Set.
type Handle interface {
	// Node returns the wrapped container.
	Node() node.Container

	// Path returns the container's path from the store root.
	Path() storepath.Path
}

// Runtime owns the canonical store and the interception state: the active
// rendering unit, the mute depth and the interception flag.
type Runtime struct {
	canonical *node.Record
	registry  *listener.Registry
	coord     Coordinator
	stage     *Stage
	recorder  Recorder
	logger    *slog.Logger

	active  listener.Unit
	muted   int
	enabled bool

	// handles caches one handle per canonical container. Staged containers
	// are wrapped through the container they were copied from.
	handles map[node.Container]Handle

	root *Record
	view *Record
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithRegistry sets the listener registry dependencies are recorded in.
func WithRegistry(r *listener.Registry) Option {
	return func(rt *Runtime) {
		rt.registry = r
	}
}

// WithCoordinator replaces the default Stage.
func WithCoordinator(c Coordinator) Option {
	return func(rt *Runtime) {
		rt.coord = c
	}
}

// WithRecorder sets the recorder interception events are reported to.
func WithRecorder(r Recorder) Option {
	return func(rt *Runtime) {
		rt.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithInterception enables or disables interception. Disabled handles read
// and write the canonical store directly and record nothing. Enabled by
// default.
func WithInterception(enabled bool) Option {
	return func(rt *Runtime) {
		rt.enabled = enabled
	}
}

// New creates a Runtime over root. root becomes the store root: its path and
// the paths of everything below it are reset.
func New(root *node.Record, opts ...Option) *Runtime {
	if root == nil {
		root = node.NewRecord()
	}
	node.Attach(root, storepath.Path{})

	rt := &Runtime{
		canonical: root,
		enabled:   true,
		handles:   make(map[node.Container]Handle),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.logger == nil {
		rt.logger = slog.Default().With("component", "store")
	}
	if rt.registry == nil {
		rt.registry = listener.NewRegistry()
	}
	if rt.recorder == nil {
		rt.recorder = nopRecorder{}
	}
	if rt.coord == nil {
		rt.stage = NewStage(root, rt.logger)
		rt.coord = rt.stage
	}

	rt.root = &Record{base: base{rt: rt, target: root}, rec: root, guard: true}
	rt.view = &Record{base: base{rt: rt, target: root}, rec: root}
	rt.handles[root] = rt.view
	return rt
}

// Root returns the guarded global root. Reading it while a unit is tracking
// fails with ErrIllegalGlobalRead.
func (rt *Runtime) Root() *Record { return rt.root }

// View returns the per-render view of the root handed to rendering units.
func (rt *Runtime) View() *Record { return rt.view }

// Canonical returns the canonical root container.
func (rt *Runtime) Canonical() *node.Record { return rt.canonical }

// Registry returns the listener registry.
func (rt *Runtime) Registry() *listener.Registry { return rt.registry }

// Stage returns the default stage, or nil if a custom coordinator is used.
func (rt *Runtime) Stage() *Stage { return rt.stage }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Active returns the tracking unit, or nil.
func (rt *Runtime) Active() listener.Unit { return rt.active }

// Tracking reports whether a rendering unit is active.
func (rt *Runtime) Tracking() bool { return rt.active != nil }

// Muted reports whether interception is currently muted.
func (rt *Runtime) Muted() bool { return rt.muted > 0 }

// Enabled reports whether interception is enabled.
func (rt *Runtime) Enabled() bool { return rt.enabled }

// Track runs fn with unit as the active rendering unit. Tracking does not
// nest: starting a second unit while one is active panics with E103.
func (rt *Runtime) Track(unit listener.Unit, fn func()) {
	if unit == nil {
		fn()
		return
	}
	if rt.active != nil {
		panic(errors.New("E103").WithDetailf("%q started while %q is tracking", unit.Name(), rt.active.Name()))
	}
	rt.active = unit
	defer func() { rt.active = nil }()
	fn()
}

// Mute runs fn with interception suspended. Handles operate on the
// canonical containers directly and record nothing until fn returns.
func (rt *Runtime) Mute(fn func()) {
	rt.muted++
	defer func() { rt.muted-- }()
	fn()
}

// Commit promotes staged writes into the canonical store with interception
// muted and returns the dirty paths. It returns nil when the coordinator
// cannot commit.
func (rt *Runtime) Commit() []storepath.Path {
	c, ok := rt.coord.(Committer)
	if !ok {
		return nil
	}
	var dirty []storepath.Path
	rt.Mute(func() {
		dirty = c.Commit()
	})
	return dirty
}

// Wrap returns the handle for a container value and v unchanged otherwise.
// Wrapping the same container twice returns the same handle.
func (rt *Runtime) Wrap(v any) any {
	c, ok := v.(node.Container)
	if !ok {
		return v
	}
	return rt.handle(c)
}

func (rt *Runtime) handle(c node.Container) Handle {
	c = rt.origin(c).(node.Container)
	if h, ok := rt.handles[c]; ok {
		return h
	}

	b := base{rt: rt, target: c}
	var h Handle
	switch t := c.(type) {
	case *node.Record:
		h = &Record{base: b, rec: t}
	case *node.Sequence:
		h = &Sequence{base: b, seq: t}
	case *node.Map:
		h = &Map{base: b, m: t}
	case *node.Set:
		h = &Set{base: b, set: t}
	default:
		panic(errors.New("E104").WithDetailf("wrap: got %T", c))
	}
	rt.handles[c] = h
	return h
}

// origin maps a staged container back to the container it was copied from.
func (rt *Runtime) origin(v any) any {
	if rt.stage == nil {
		return v
	}
	if c, ok := v.(node.Container); ok {
		return rt.stage.Origin(c)
	}
	return v
}

// unwrap returns the container behind a handle.
func unwrap(v any) any {
	if h, ok := v.(Handle); ok {
		return h.Node()
	}
	return v
}

// intercepting reports whether handles should do anything but pass through.
func (rt *Runtime) intercepting() bool {
	return rt.enabled && rt.muted == 0
}

// forwarding reports whether reads are served from the staged store.
func (rt *Runtime) forwarding() bool {
	return rt.active == nil && rt.intercepting()
}

// track records a dependency of the active unit on p.
func (rt *Runtime) track(p storepath.Path) {
	if rt.active == nil || !rt.intercepting() {
		return
	}
	if rt.registry.Record(p, rt.active) {
		rt.recorder.DependencyRecorded()
	}
}

// lookup reads key from target, from the staged store when forwarding.
func (rt *Runtime) lookup(target node.Container, key storepath.Key) (any, bool) {
	if rt.forwarding() {
		return rt.coord.ReadStaged(target, key)
	}
	return node.Lookup(target, key)
}

// current returns the value a write to key of target would replace, as
// seen by code running outside the render pass.
func (rt *Runtime) current(target node.Container, key storepath.Key) (any, bool) {
	v, ok := rt.lookup(target, key)
	return rt.origin(v), ok
}

// source returns the container reads of target are answered from.
func (rt *Runtime) source(target node.Container) node.Container {
	if !rt.forwarding() {
		return target
	}
	v, ok := rt.coord.ReadStaged(target, storepath.WholeMarker)
	if !ok {
		return target
	}
	if c, ok := v.(node.Container); ok && c.Kind() == target.Kind() {
		return c
	}
	return target
}

// pathOf returns the path of c as code outside the render pass sees it.
// A container written into the stage takes its staged twin's path, which
// differs from its own until the write is committed.
func (rt *Runtime) pathOf(c node.Container) storepath.Path {
	if rt.active == nil && rt.stage != nil {
		return rt.stage.PathOf(c)
	}
	return c.Path()
}

func (rt *Runtime) extend(c node.Container, key storepath.Key) storepath.Path {
	return rt.pathOf(c).Append(key)
}

func (rt *Runtime) whole(c node.Container) storepath.Path {
	return rt.pathOf(c).Append(storepath.WholeMarker)
}

// reject reports a refused operation and returns err.
func (rt *Runtime) reject(err error) error {
	var se *errors.StoreError
	if stderrors.As(err, &se) {
		rt.recorder.Rejected(se.Code)
	}
	rt.logger.Debug("operation rejected", "error", err)
	return err
}

// guardWrite fails writes made while a unit is tracking.
func (rt *Runtime) guardWrite(op Op, p storepath.Path, v any) error {
	if rt.active == nil || !rt.intercepting() {
		return nil
	}
	return rt.reject(illegalRenderMutation(rt.active, op, p, v))
}

// skip reports a no-op write.
func (rt *Runtime) skip(op Op) error {
	rt.recorder.WriteSkipped(op)
	return nil
}

// forward hands req to the coordinator.
func (rt *Runtime) forward(req *Request) error {
	rt.coord.ApplyStaged(req)
	rt.recorder.WriteStaged(req.Op)

	p := rt.whole(req.Target)
	if req.Prop != nil {
		p = rt.extend(req.Target, req.Prop)
	}
	rt.logger.Debug("write staged", "op", req.Op.String(), "path", storepath.Encode(p))
	return nil
}

// isFunc reports whether v is a function value. Functions stored in the
// graph are methods, not data, and are never tracked.
func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// base is embedded in every handle.
type base struct {
	rt     *Runtime
	target node.Container
}

// Node returns the wrapped container.
func (b *base) Node() node.Container { return b.target }

// Path returns the container's path from the store root, including the
// effect of staged writes when called outside a render.
func (b *base) Path() storepath.Path { return b.rt.pathOf(b.target) }

// Kind returns the container kind.
func (b *base) Kind() node.Kind { return b.target.Kind() }

// String returns the kind and encoded path, for logs.
func (b *base) String() string {
	return fmt.Sprintf("%s(%s)", b.target.Kind(), storepath.Encode(b.Path()))
}
