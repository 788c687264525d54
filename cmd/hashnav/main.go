package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hashnav",
		Short: "Hash-fragment navigation controller demo server",
		Long: `hashnav serves a demo single-page application whose address bar is
driven by a Go-side navigation engine over a websocket bridge.

The page's hashchange and scroll events stream to the server; the engine
runs its guard protocol there and writes address, history and scroll
commands back. Open the page, click around, and watch guard vetoes roll
the address bar back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hashnav %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
