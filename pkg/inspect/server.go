// Package inspect serves a read-only devtools API over a scheduler and its
// store.
//
// Routes:
//
//	GET /deps          every recorded path with its dependents
//	GET /deps/{unit}   the paths one unit depends on, by name or ID
//	GET /components    mounted units with render counts
//	GET /store         the canonical store as of the last capture
//	GET /stage         the staged store, pending writes and dirty paths
//	GET /metrics       Prometheus metrics, when a gatherer is configured
//	GET /events        websocket feed of commit and render events
//
// The store is not safe for concurrent use, so /store and /stage serve a
// snapshot taken on the scheduler's goroutine: after every commit, and
// whenever Capture is called.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/vango-store/pkg/node"
	"github.com/vango-dev/vango-store/pkg/scheduler"
	"github.com/vango-dev/vango-store/pkg/storepath"
)

// StageSnapshot is the body of GET /stage.
type StageSnapshot struct {
	Active  bool     `json:"active"`
	Pending int      `json:"pending"`
	Dirty   []string `json:"dirty"`
	Root    any      `json:"root,omitempty"`
}

// ComponentInfo is one entry of GET /components.
type ComponentInfo struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Renders int    `json:"renders"`
	Dirty   bool   `json:"dirty"`
	Error   string `json:"error,omitempty"`
}

// UnitDeps is the body of GET /deps/{unit}.
type UnitDeps struct {
	ID    uint64   `json:"id"`
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// Server is the inspector.
type Server struct {
	sched    *scheduler.Scheduler
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router

	mu    sync.RWMutex
	seq   uint64
	store any
	stage StageSnapshot
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves the gatherer's metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates an inspector for sched, takes the first capture and
// subscribes to its commits.
func New(sched *scheduler.Scheduler, opts ...Option) *Server {
	s := &Server{
		sched: sched,
		hub:   NewHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "inspect")
	}

	s.router = s.routes()
	s.Capture()
	sched.OnCommit(s.publish)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/deps", s.handleDeps)
	r.Get("/deps/{unit}", s.handleUnitDeps)
	r.Get("/components", s.handleComponents)
	r.Get("/store", s.handleStore)
	r.Get("/stage", s.handleStage)
	r.Get("/events", s.hub.HandleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Capture snapshots the canonical and staged stores. Call it from the
// goroutine that drives the scheduler.
func (s *Server) Capture() {
	rt := s.sched.Runtime()
	canonical := node.ToValue(rt.Canonical())

	var stage StageSnapshot
	if st := rt.Stage(); st != nil {
		stage = StageSnapshot{
			Active:  st.Active(),
			Pending: st.Pending(),
			Dirty:   encode(st.Dirty()),
		}
		if st.Active() {
			stage.Root = node.ToValue(st.Root())
		}
	}

	s.mu.Lock()
	s.store = canonical
	s.stage = stage
	s.mu.Unlock()
}

func (s *Server) publish(res scheduler.CommitResult) {
	s.Capture()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	ev := Event{
		Type:       EventCommit,
		Seq:        seq,
		Dirty:      encode(res.Dirty),
		DurationMS: float64(res.Duration) / float64(time.Millisecond),
	}
	for _, c := range res.Rerendered {
		ev.Rerendered = append(ev.Rerendered, c.Name())
	}
	s.hub.Broadcast(ev)

	// One render event per re-rendered unit follows its commit.
	for _, c := range res.Rerendered {
		rev := Event{Type: EventRender, Seq: seq, Component: c.Name(), Renders: c.Renders()}
		if err := c.Err(); err != nil {
			rev.Error = err.Error()
		}
		s.hub.Broadcast(rev)
	}
	s.logger.Debug("commit published", "seq", seq, "rendered", len(res.Rerendered), "clients", s.hub.ClientCount())
}

func (s *Server) handleDeps(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sched.Runtime().Registry().Snapshot())
}

func (s *Server) handleUnitDeps(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "unit")
	c := s.find(key)
	if c == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unit not found: " + key})
		return
	}
	paths := s.sched.Runtime().Registry().PathsOf(c)
	s.writeJSON(w, http.StatusOK, UnitDeps{ID: c.ID(), Name: c.Name(), Paths: paths})
}

func (s *Server) find(key string) *scheduler.Component {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		if c, ok := s.sched.Component(id); ok {
			return c
		}
	}
	for _, c := range s.sched.Components() {
		if c.Name() == key {
			return c
		}
	}
	return nil
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	cs := s.sched.Components()
	out := make([]ComponentInfo, 0, len(cs))
	for _, c := range cs {
		info := ComponentInfo{ID: c.ID(), Name: c.Name(), Renders: c.Renders(), Dirty: c.Dirty()}
		if err := c.Err(); err != nil {
			info.Error = err.Error()
		}
		out = append(out, info)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	v := s.store
	s.mu.RUnlock()
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	v := s.stage
	s.mu.RUnlock()
	s.writeJSON(w, http.StatusOK, v)
}

// ListenAndServe serves the inspector on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "status", status, "error", err)
	}
}

func encode(ps []storepath.Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = storepath.Encode(p)
	}
	return out
}
