package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dylanisaiahp/parex/internal/cli"
	"github.com/dylanisaiahp/parex/internal/cli/config"
)

var (
	// Set at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "parex [path]",
	Short: "Searches directory trees in parallel and aggregates the results.",
	Long: `parex walks a directory tree (or the files tracked at a git HEAD) with a
parallel worker pool, matches entry names against a pattern, and reports
exact match counts with scan statistics.

Examples:
  parex -p invoice ~/documents
  parex --regex '\.go$' --limit 20 .
  parex --language Go --git --output-format json .`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		settings, logger, err := config.LoadAndValidate(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		settings.Root = "."
		if len(args) == 1 {
			settings.Root = args[0]
		}

		// The TUI needs a real terminal on its output stream.
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			settings.TUIEnabled = false
		}

		return cli.Run(ctx, settings, logger)
	},
}

// Execute runs the root command. Cobra prints the error and exits non-zero
// when RunE fails.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default: ./parex.yaml, ~/.config/parex/parex.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables the TUI)")

	rootCmd.Flags().StringP("pattern", "p", "", "Case-insensitive substring to match entry names against")
	rootCmd.Flags().String("regex", "", "Regular expression to match entry names against (overrides --pattern)")
	rootCmd.Flags().String("language", "", `Match files by programming language, e.g. "Go" or "Rust"`)
	rootCmd.Flags().Int("limit", -1, "Stop after this many matches (-1 for unlimited)")
	rootCmd.Flags().Int("threads", 0, "Number of parallel workers (0 for auto-detect)")
	rootCmd.Flags().Int("max-depth", -1, "Maximum traversal depth (-1 for unbounded)")
	rootCmd.Flags().Bool("paths", true, "Report matched paths, not just the count")
	rootCmd.Flags().Bool("errors", false, "Report recoverable errors (permission denied, vanished files)")
	rootCmd.Flags().StringArray("ignore", []string{}, "Gitignore-style pattern to exclude (can be repeated)")
	rootCmd.Flags().Bool("git", false, "Search the files tracked at the repository's HEAD instead of walking the filesystem")
	rootCmd.Flags().String("output-format", "text", `Report format ("text", "json", "yaml")`)
	rootCmd.Flags().Bool("no-tui", false, "Disable the interactive progress view even in a TTY")
}
