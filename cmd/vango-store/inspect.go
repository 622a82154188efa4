package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/vango-store/internal/scenario"
	"github.com/vango-dev/vango-store/pkg/inspect"
)

func inspectCmd(g *globals) *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect <scenario.json>",
		Short: "Replay a scenario behind the inspector",
		Long: `Replay a scenario while serving the inspector.

The inspector exposes the dependency registry, the canonical and staged
stores, Prometheus metrics and a WebSocket feed of commits. It keeps
serving after the scenario finishes until interrupted.

Endpoints:
  /deps /deps/{unit} /components /store /stage /metrics /events

Examples:
  vango-store inspect todos.json
  vango-store inspect todos.json --addr=:9000 --step-delay=500ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(g, args[0], addr, delay)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().DurationVar(&delay, "step-delay", time.Second, "Pause between steps")

	return cmd
}

func runInspect(g *globals, path, addr string, delay time.Duration) error {
	s, err := newSession(g, path, true, scenario.WithStepDelay(delay))
	if err != nil {
		return err
	}
	if addr == "" {
		addr = s.cfg.Inspector.Addr
	}

	srv := inspect.New(s.runner.Scheduler(),
		inspect.WithGatherer(s.registry),
		inspect.WithLogger(s.runner.Runtime().Logger().With("component", "inspect")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, addr)
	}()

	printBanner()
	fmt.Println("  inspect")
	fmt.Println()
	info("Inspector on http://%s", addr)
	fmt.Println()

	rep, runErr := s.runner.Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		errorMsg("%v", runErr)
	} else if runErr == nil {
		success("%s: %d steps passed", rep.Name, len(rep.Steps))
	}
	for _, st := range rep.Steps {
		printStep(st)
	}
	info("Press Ctrl+C to stop")

	err = <-errCh
	fmt.Println("\n  Shutting down...")
	return err
}
