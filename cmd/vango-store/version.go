package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"slices"

	"github.com/spf13/cobra"
	"github.com/vango-dev/vango-store/internal/config"
	"github.com/vango-dev/vango-store/internal/errors"
)

// stackModules are the dependencies worth reporting in `version`.
var stackModules = []string{
	"github.com/go-chi/chi/v5",
	"github.com/gorilla/websocket",
	"github.com/prometheus/client_golang",
	"github.com/spf13/cobra",
	"go.opentelemetry.io/otel",
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version and build information, the store runtime's error codes and the resolved versions of its inspector, metrics and tracing stack.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}

			printBanner()
			fmt.Println()
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Built:      %s\n", date)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  Config:     %s\n", config.ConfigFileName)
			fmt.Printf("  Errors:     %s\n", codeRange(errors.Codes()))
			if bi, ok := debug.ReadBuildInfo(); ok {
				writeStack(os.Stdout, bi)
			}
			fmt.Println()
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// writeStack prints the main module and the resolved stackModules from bi.
func writeStack(w io.Writer, bi *debug.BuildInfo) {
	if bi.Main.Path != "" {
		fmt.Fprintf(w, "  Module:     %s %s\n", bi.Main.Path, bi.Main.Version)
	}
	deps := make(map[string]string, len(bi.Deps))
	for _, d := range bi.Deps {
		v := d.Version
		if d.Replace != nil {
			v = d.Replace.Version + " (replaced)"
		}
		deps[d.Path] = v
	}
	for _, path := range stackModules {
		if v, ok := deps[path]; ok {
			fmt.Fprintf(w, "    %-38s %s\n", path, v)
		}
	}
}

// codeRange summarises codes as "first..last (n codes)".
func codeRange(codes []string) string {
	codes = slices.Sorted(slices.Values(codes))
	switch len(codes) {
	case 0:
		return "none"
	case 1:
		return codes[0]
	}
	return fmt.Sprintf("%s..%s (%d codes)", codes[0], codes[len(codes)-1], len(codes))
}
