package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/scheduler"
	"github.com/vango-dev/vango-store/pkg/store"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// StepResult records what one step did.
type StepResult struct {
	Index      int      `json:"index"`
	Op         Op       `json:"op"`
	Path       string   `json:"path,omitempty"`
	Value      any      `json:"value,omitempty"`
	Dirty      []string `json:"dirty,omitempty"`
	Rerendered []string `json:"rerendered,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	Name  string       `json:"name"`
	Steps []StepResult `json:"steps"`

	// Store is the canonical store after the last step.
	Store any `json:"store"`

	// Seen maps each component to the values its last render read.
	Seen map[string]map[string]any `json:"seen"`
}

// Runner replays a scenario against a fresh runtime.
type Runner struct {
	sc     *Scenario
	rt     *store.Runtime
	sched  *scheduler.Scheduler
	logger *slog.Logger
	delay  time.Duration

	seen map[string]map[string]any
}

// Option configures a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	storeOpts []store.Option
	schedOpts []scheduler.Option
	logger    *slog.Logger
	delay     time.Duration
}

// WithStoreOptions passes options to store.New.
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *runnerConfig) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// WithSchedulerOptions passes options to scheduler.New.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(c *runnerConfig) {
		c.schedOpts = append(c.schedOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *runnerConfig) {
		c.logger = l
	}
}

// WithStepDelay pauses between steps, so live inspectors can follow.
func WithStepDelay(d time.Duration) Option {
	return func(c *runnerConfig) {
		c.delay = d
	}
}

// NewRunner builds the runtime and scheduler for sc. Nothing is mounted
// until Run.
func NewRunner(sc *Scenario, opts ...Option) (*Runner, error) {
	var cfg runnerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default().With("component", "scenario")
	}

	root, ok := node.FromValue(map[string]any(sc.Store)).(*node.Record)
	if !ok {
		return nil, errors.New("E140").WithDetail("store must be a JSON object")
	}
	rt := store.New(root, append([]store.Option{store.WithLogger(cfg.logger)}, cfg.storeOpts...)...)

	return &Runner{
		sc:     sc,
		rt:     rt,
		sched:  scheduler.New(rt, cfg.schedOpts...),
		logger: cfg.logger,
		delay:  cfg.delay,
		seen:   make(map[string]map[string]any),
	}, nil
}

// Runtime returns the runtime.
func (r *Runner) Runtime() *store.Runtime { return r.rt }

// Scheduler returns the scheduler.
func (r *Runner) Scheduler() *scheduler.Scheduler { return r.sched }

// Run mounts every component and replays the steps. It stops at the first
// failing step; the report covers every step run so far.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Name: r.sc.Name}
	defer func() {
		rep.Store = node.ToValue(r.rt.Canonical())
		rep.Seen = r.seen
	}()

	for _, c := range r.sc.Components {
		if _, err := r.sched.Mount(ctx, c.Name, r.render(c)); err != nil {
			return rep, err
		}
	}

	for i, st := range r.sc.Steps {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				return rep, ctx.Err()
			case <-time.After(r.delay):
			}
		}

		res := StepResult{Index: i, Op: st.Op, Path: st.Path}
		err := r.step(ctx, st, &res)
		if err != nil {
			res.Error = err.Error()
		}
		rep.Steps = append(rep.Steps, res)
		r.logger.Debug("step", "index", i, "op", st.Op, "path", st.Path, "error", err)
		if err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (r *Runner) render(c Component) scheduler.RenderFunc {
	return func(v *store.Record) error {
		seen := make(map[string]any, len(c.Reads))
		for _, p := range c.Reads {
			val, err := store.ReadPath(v, storepath.Parse(p))
			if err != nil {
				return err
			}
			seen[p] = plain(val)
		}
		r.seen[c.Name] = seen
		return nil
	}
}

func (r *Runner) step(ctx context.Context, st Step, res *StepResult) error {
	switch st.Op {
	case OpCommit:
		out, err := r.sched.Commit(ctx)
		res.Dirty = encodeAll(out.Dirty)
		for _, c := range out.Rerendered {
			res.Rerendered = append(res.Rerendered, c.Name())
		}
		if err != nil {
			return err
		}
		if st.Rerendered != nil && !sameNames(st.Rerendered, res.Rerendered) {
			return errors.New("E143").
				WithDetailf("commit re-rendered %v, want %v", res.Rerendered, st.Rerendered)
		}
		return nil

	case OpRead, OpExpect:
		v, err := r.read(storepath.Parse(st.Path))
		if err != nil {
			return err
		}
		res.Value = v
		if st.Op == OpExpect && !node.Equal(node.FromValue(v), node.FromValue(st.Value)) {
			return errors.New("E143").
				WithDetailf("%s = %s, want %s", st.Path, describe(v), describe(st.Value))
		}
		return nil

	default:
		res.Value = st.Value
		return r.write(st)
	}
}

// read returns the value at p as code outside the render pass sees it,
// including staged writes.
func (r *Runner) read(p storepath.Path) (any, error) {
	v, err := store.ReadPath(r.rt.Root(), p)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(store.Handle); ok {
		if p.IsWhole() {
			p = p.Parent()
		}
		if st := r.rt.Stage(); st != nil {
			if staged, ok := node.Resolve(st.Root(), p); ok {
				return node.ToValue(staged), nil
			}
		}
	}
	return plain(v), nil
}

func (r *Runner) write(st Step) error {
	p := storepath.Parse(st.Path)
	value := node.FromValue(st.Value)
	root := r.rt.Root()

	switch st.Op {
	case OpAppend, OpSetLen, OpAdd, OpClear:
		target, err := store.ReadPath(root, p)
		if err != nil {
			return err
		}
		switch c := target.(type) {
		case *store.Sequence:
			switch st.Op {
			case OpAppend:
				return c.Append(value)
			case OpSetLen:
				n, ok := value.(int)
				if !ok {
					return errors.New("E140").WithDetailf("setlen %s: value %s is not an integer", st.Path, describe(st.Value))
				}
				return c.SetLen(n)
			}
		case *store.Set:
			switch st.Op {
			case OpAdd:
				return c.Add(value)
			case OpClear:
				return c.Clear()
			}
		case *store.Map:
			if st.Op == OpClear {
				return c.Clear()
			}
		}
		return wrongKind(st, target)
	}

	if len(p) == 0 {
		return errors.New("E105").WithDetailf("%s needs a key", st.Op)
	}
	parent, err := store.ReadPath(root, p.Parent())
	if err != nil {
		return err
	}
	if parent == nil {
		return errors.New("E105").WithDetail(storepath.Encode(p.Parent()))
	}
	key := p.Last()

	switch c := parent.(type) {
	case *store.Record:
		k := fmt.Sprint(key)
		switch st.Op {
		case OpSet:
			return c.Set(k, value)
		case OpDelete:
			return c.Delete(k)
		}
	case *store.Sequence:
		i, ok := key.(int)
		if !ok {
			return wrongKind(st, parent)
		}
		switch st.Op {
		case OpSet:
			return c.Set(i, value)
		case OpDelete:
			return c.Delete(i)
		case OpRemove:
			return c.RemoveAt(i)
		}
	case *store.Map:
		switch st.Op {
		case OpSet:
			return c.Set(key, value)
		case OpDelete:
			return c.Delete(key)
		}
	case *store.Set:
		if st.Op == OpDelete {
			return c.Delete(key)
		}
	}
	return wrongKind(st, parent)
}

func wrongKind(st Step, target any) error {
	return errors.New("E106").
		WithDetailf("%s %s: unsupported on %s", st.Op, st.Path, describe(plain(target)))
}

// plain converts handles to JSON-shaped values.
func plain(v any) any {
	if h, ok := v.(store.Handle); ok {
		return node.ToValue(h.Node())
	}
	return v
}

func describe(v any) string {
	return fmt.Sprintf("%v", v)
}

func encodeAll(ps []storepath.Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = storepath.Encode(p)
	}
	return out
}

func sameNames(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	set := make(map[string]int, len(want))
	for _, n := range want {
		set[n]++
	}
	for _, n := range got {
		set[n]--
		if set[n] < 0 {
			return false
		}
	}
	return true
}
