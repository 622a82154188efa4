package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/vango-store/internal/config"
	"github.com/vango-dev/vango-store/internal/errors"
	"github.com/vango-dev/vango-store/internal/scenario"
	"github.com/vango-dev/vango-store/pkg/observe"
	"github.com/vango-dev/vango-store/pkg/scheduler"
	"github.com/vango-dev/vango-store/pkg/store"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┌─┐┌┐┌┌─┐┌─┐  ┌─┐┌┬┐┌─┐┬─┐┌─┐
  ╚╗╔╝├─┤││││ ┬│ │  └─┐ │ │ │├┬┘├┤
   ╚╝ ┴ ┴┘└┘└─┘└─┘  └─┘ ┴ └─┘┴└─└─┘
`

// globals holds the persistent flags.
type globals struct {
	configDir string
	verbose   bool
}

func main() {
	var g globals

	rootCmd := &cobra.Command{
		Use:   "vango-store",
		Short: "Replay and inspect dependency-tracked store sessions",
		Long: `vango-store drives the dependency-tracking store from scripted
scenarios.

A scenario declares an initial store, the components that read it and
a list of writes, reads, expectations and commits. Writes made outside
a render are staged and only reach the store on commit, which then
re-renders exactly the components that read a written path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configDir, "config", "c", ".", "Directory containing "+config.ConfigFileName)
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		runCmd(&g),
		inspectCmd(&g),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// session is a runner wired to the configured stack.
type session struct {
	cfg      *config.Config
	runner   *scenario.Runner
	registry *prometheus.Registry
}

// newSession loads the configuration and the scenario at path and builds a
// runner for it. Metrics are collected when the config enables them or
// withMetrics is set.
func newSession(g *globals, path string, withMetrics bool, extra ...scenario.Option) (*session, error) {
	cfg, err := config.LoadOrDefault(g.configDir)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Logger(os.Stderr)

	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	storeOpts := []store.Option{store.WithInterception(cfg.InterceptionEnabled())}
	schedOpts := []scheduler.Option{
		scheduler.WithTracerName(cfg.Tracing.TracerName),
		scheduler.WithLogger(logger.With("component", "scheduler")),
	}

	s := &session{cfg: cfg}
	if cfg.Metrics.Enabled || withMetrics {
		s.registry = prometheus.NewRegistry()
		m := observe.NewMetrics(
			observe.WithNamespace(cfg.Metrics.Namespace),
			observe.WithSubsystem(cfg.Metrics.Subsystem),
			observe.WithRegistry(s.registry),
		)
		storeOpts = append(storeOpts, store.WithRecorder(m))
		schedOpts = append(schedOpts, scheduler.WithObserver(m))
	}

	opts := append([]scenario.Option{
		scenario.WithLogger(logger.With("component", "scenario")),
		scenario.WithStoreOptions(storeOpts...),
		scenario.WithSchedulerOptions(schedOpts...),
	}, extra...)
	if s.runner, err = scenario.NewRunner(sc, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
