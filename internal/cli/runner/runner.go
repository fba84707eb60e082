// Package runner assembles a search from resolved CLI settings, executes it,
// and renders the final report.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dylanisaiahp/parex/internal/cli/config"
	"github.com/dylanisaiahp/parex/pkg/parex"
	"github.com/dylanisaiahp/parex/pkg/parex/source"
)

// Report is the serializable view of a completed run, shared by the text,
// json, and yaml renderers.
type Report struct {
	Root          string        `json:"root" yaml:"root"`
	Matches       int           `json:"matches" yaml:"matches"`
	Paths         []string      `json:"paths,omitempty" yaml:"paths,omitempty"`
	Files         int           `json:"files" yaml:"files"`
	Dirs          int           `json:"dirs" yaml:"dirs"`
	Duration      string        `json:"duration" yaml:"duration"`
	EntriesPerSec int           `json:"entriesPerSec" yaml:"entriesPerSec"`
	Skipped       []SkippedPath `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// SkippedPath describes one recoverable error surfaced in the report.
type SkippedPath struct {
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// Run executes a search described by settings and returns its results.
func Run(ctx context.Context, settings config.Settings, eventHooks parex.Hooks) (parex.Results, error) {
	builder := parex.Search().
		Source(buildSource(settings)).
		Threads(settings.Threads).
		Limit(settings.Limit).
		MaxDepth(settings.MaxDepth).
		CollectPaths(settings.CollectPaths).
		CollectErrors(settings.CollectErrors).
		WithLogger(settings.LogHandler)

	if m := buildMatcher(settings); m != nil {
		builder.WithMatcher(m)
	} else if settings.Regex != "" {
		builder.MatchingRegex(settings.Regex)
	}
	if eventHooks != nil {
		builder.WithHooks(eventHooks)
	}
	return builder.Run(ctx)
}

// buildSource picks the producer: the git HEAD tree when requested,
// otherwise the parallel filesystem walker.
func buildSource(settings config.Settings) parex.Source {
	if settings.Git {
		return source.NewGit(settings.Root, source.WithGitLogger(settings.LogHandler))
	}
	opts := []source.DirectoryOption{source.WithLogger(settings.LogHandler)}
	if len(settings.Ignore) > 0 {
		opts = append(opts, source.WithIgnorePatterns(settings.Ignore))
	}
	return source.NewDirectory(settings.Root, opts...)
}

// buildMatcher resolves the matcher precedence: regex beats language beats
// substring pattern. Regex is compiled by the builder so a bad expression
// fails with the engine's own classification; a nil return signals that.
func buildMatcher(settings config.Settings) parex.Matcher {
	switch {
	case settings.Regex != "":
		return nil
	case settings.Language != "":
		return parex.MatchLanguage(settings.Language)
	case settings.Pattern != "":
		return parex.MatchSubstring(settings.Pattern)
	}
	return parex.AllMatcher{}
}

// BuildReport converts engine results into the report shape.
func BuildReport(root string, results parex.Results) Report {
	report := Report{
		Root:          root,
		Matches:       results.Matches,
		Paths:         results.Paths,
		Files:         results.Stats.Files,
		Dirs:          results.Stats.Dirs,
		Duration:      results.Stats.Duration.Round(time.Millisecond).String(),
		EntriesPerSec: results.Stats.EntriesPerSec,
	}
	for _, err := range results.Errors {
		report.Skipped = append(report.Skipped, SkippedPath{
			Path:   parex.ErrorPath(err),
			Reason: err.Error(),
		})
	}
	return report
}

// Render writes the report to w in the requested format.
func Render(w io.Writer, format string, report Report, logger *slog.Logger) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer func() {
			if err := enc.Close(); err != nil {
				logger.Warn("closing yaml encoder", slog.String("error", err.Error()))
			}
		}()
		return enc.Encode(report)
	default:
		return renderText(w, report)
	}
}

func renderText(w io.Writer, report Report) error {
	for _, p := range report.Paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	for _, s := range report.Skipped {
		if _, err := fmt.Fprintf(w, "skipped: %s\n", s.Reason); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d matches in %s (%d files, %d dirs, %d entries/s)\n",
		report.Matches, report.Duration, report.Files, report.Dirs, report.EntriesPerSec)
	return err
}
