package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/vango-store/internal/scenario"
)

func runCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <scenario.json>",
		Short: "Replay a scenario",
		Long: `Replay a scenario and report every step.

The run stops at the first failing step, including a failed expect or
an unexpected set of re-rendered components.

Examples:
  vango-store run todos.json
  vango-store run todos.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), g, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func runScenario(ctx context.Context, g *globals, path string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(g, path, false)
	if err != nil {
		return err
	}

	rep, runErr := s.runner.Run(ctx)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return runErr
	}

	printBanner()
	fmt.Printf("  scenario %s\n\n", rep.Name)
	for _, st := range rep.Steps {
		printStep(st)
	}
	fmt.Println()
	if s.registry != nil {
		printMetrics(s.registry)
	}
	if runErr != nil {
		return runErr
	}
	success("%d steps passed", len(rep.Steps))
	return nil
}

func printStep(st scenario.StepResult) {
	line := fmt.Sprintf("%2d %-7s %s", st.Index, st.Op, st.Path)
	switch st.Op {
	case scenario.OpCommit:
		line += fmt.Sprintf("dirty=[%s] rerendered=[%s]",
			strings.Join(st.Dirty, " "), strings.Join(st.Rerendered, " "))
	default:
		if st.Value != nil {
			b, _ := json.Marshal(st.Value)
			line += " " + string(b)
		}
	}
	if st.Error != "" {
		errorMsg("%s", line)
		return
	}
	info("%s", line)
}

// printMetrics prints the counters the run produced.
func printMetrics(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			info("%-60s %g", name, v)
		}
	}
	fmt.Println()
}
