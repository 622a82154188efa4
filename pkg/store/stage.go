package store

import (
	"log/slog"

	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/storepath"
	"github.com/vango-dev/vango-store/pkg/traverse"
)

// Stage is the default Coordinator. The staged root is a deep copy of the
// canonical root made on the first staged write; writes are applied to the
// copy and buffered so Commit can replay them on the canonical store.
type Stage struct {
	canonical *node.Record
	root      *node.Record

	// twins maps canonical (or caller-supplied) containers to their staged
	// copies; origins is the inverse.
	twins   map[node.Container]node.Container
	origins map[node.Container]node.Container

	requests []pending
	dirty    map[string]storepath.Path
	order    []string

	logger *slog.Logger
}

// pending is a buffered request with the staged container it was applied
// to and that container's staged path at the time.
type pending struct {
	req    *Request
	target node.Container
	path   storepath.Path
}

// NewStage creates an empty stage over canonical.
func NewStage(canonical *node.Record, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stage{
		canonical: canonical,
		logger:    logger,
	}
	s.Reset()
	return s
}

// Active reports whether the staged root has been created.
func (s *Stage) Active() bool {
	return s.root != nil
}

// Root returns the staged root, or the canonical root when nothing is staged.
func (s *Stage) Root() *node.Record {
	if s.root == nil {
		return s.canonical
	}
	return s.root
}

// Pending returns the number of buffered requests.
func (s *Stage) Pending() int {
	return len(s.requests)
}

// Dirty returns the paths marked dirty since the last commit, in the order
// they were first marked.
func (s *Stage) Dirty() []storepath.Path {
	out := make([]storepath.Path, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.dirty[key])
	}
	return out
}

// IsStaged reports whether c is a container of the staged store.
func (s *Stage) IsStaged(c node.Container) bool {
	_, ok := s.origins[c]
	return ok
}

// Reset drops the staged root and every buffered request.
func (s *Stage) Reset() {
	s.root = nil
	s.twins = make(map[node.Container]node.Container)
	s.origins = make(map[node.Container]node.Container)
	s.requests = nil
	s.dirty = make(map[string]storepath.Path)
	s.order = nil
}

func (s *Stage) pair(orig, cp node.Container) {
	s.twins[orig] = cp
	s.origins[cp] = orig
}

func (s *Stage) bootstrap() {
	if s.root != nil {
		return
	}
	s.root = traverse.Clone(s.canonical, s.pair).(*node.Record)
	s.logger.Debug("stage bootstrapped", "containers", len(s.twins))
}

// equivalent returns the staged container standing in for target. Before
// the stage exists every container is its own equivalent. It returns nil
// for detached containers.
func (s *Stage) equivalent(target node.Container) node.Container {
	if s.root == nil {
		return target
	}
	if _, ok := s.origins[target]; ok {
		return target
	}
	if twin, ok := s.twins[target]; ok {
		return twin
	}
	// Every container reachable from the canonical root is paired at
	// bootstrap; anything else is detached.
	return nil
}

// ReadStaged implements Coordinator.
func (s *Stage) ReadStaged(target node.Container, prop storepath.Key) (any, bool) {
	c := s.equivalent(target)
	if c == nil {
		c = target
	}
	if c.Kind() == node.KindSet {
		if m, ok := prop.(node.Container); ok {
			if twin, ok := s.twins[m]; ok {
				prop = twin
			}
		}
	}
	return node.Lookup(c, prop)
}

// ApplyStaged implements Coordinator.
func (s *Stage) ApplyStaged(req *Request) {
	s.bootstrap()

	target := s.equivalent(req.Target)
	if target == nil {
		// Detached containers are not part of either store.
		req.Updater(req.Target, req.Value)
		return
	}

	at := target.Path().Append()
	req.Updater(target, s.stagedValue(req.Value))
	s.requests = append(s.requests, pending{req: req, target: target, path: at})
	for _, p := range req.Dirty {
		key := storepath.Encode(p)
		if _, ok := s.dirty[key]; !ok {
			s.dirty[key] = p
			s.order = append(s.order, key)
		}
	}
}

// stagedValue re-wraps a written value for the staged store: known
// containers map to their staged twin and new containers are copied in.
func (s *Stage) stagedValue(v any) any {
	c, ok := v.(node.Container)
	if !ok {
		return v
	}
	if _, ok := s.origins[c]; ok {
		return c
	}
	if twin, ok := s.twins[c]; ok {
		return twin
	}
	return traverse.Clone(c, s.pair)
}

// Origin returns the container c was copied from, or c itself when c is
// not part of the staged store.
func (s *Stage) Origin(c node.Container) node.Container {
	if orig, ok := s.origins[c]; ok {
		return orig
	}
	return c
}

// canonicalPath maps container keys of a staged path (Set members and Map
// keys) back to their canonical originals.
func (s *Stage) canonicalPath(p storepath.Path) storepath.Path {
	out := make(storepath.Path, len(p))
	for i, k := range p {
		out[i] = s.canonicalOf(k)
	}
	return out
}

// PathOf returns the path c has in the staged store: the path of its
// staged twin when it has one, its own path otherwise.
func (s *Stage) PathOf(c node.Container) storepath.Path {
	if twin, ok := s.twins[c]; ok {
		return twin.Path()
	}
	return c.Path()
}

// canonicalOf maps staged containers back to what they were copied from.
func (s *Stage) canonicalOf(v any) any {
	if c, ok := v.(node.Container); ok {
		return s.Origin(c)
	}
	return v
}

// Commit implements Committer. Requests are replayed in the order they were
// staged. Each one is applied at the path its target had in the staged
// store, which the replays before it have reproduced in the canonical
// store; a target no longer reachable there is updated directly.
func (s *Stage) Commit() []storepath.Path {
	for _, p := range s.requests {
		req := p.req
		value := s.canonicalOf(req.Value)
		ok := traverse.UpdateAt(s.canonical, s.canonicalPath(p.path), func(c node.Container) {
			req.Updater(c, value)
		})
		if !ok {
			s.logger.Debug("replaying detached target", "path", storepath.Encode(p.path))
			req.Updater(s.canonicalOf(p.target).(node.Container), value)
		}
	}
	dirty := s.Dirty()
	s.logger.Debug("stage committed", "requests", len(s.requests), "dirty", len(dirty))
	s.Reset()
	return dirty
}
