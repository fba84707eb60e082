// Package cli orchestrates a full command invocation: choosing the
// presentation mode, running the search, and rendering the report.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/dylanisaiahp/parex/internal/cli/config"
	"github.com/dylanisaiahp/parex/internal/cli/hooks"
	"github.com/dylanisaiahp/parex/internal/cli/runner"
	"github.com/dylanisaiahp/parex/internal/cli/ui"
	"github.com/dylanisaiahp/parex/pkg/parex"
)

// ErrInterrupted is returned when the user cancels a run from the TUI.
var ErrInterrupted = errors.New("search interrupted")

// barAdapter narrows *progressbar.ProgressBar to the hooks.ProgressBar
// interface; Describe has no error return upstream.
type barAdapter struct {
	bar *progressbar.ProgressBar
}

func (b barAdapter) Add(n int) error { return b.bar.Add(n) }

func (b barAdapter) Describe(description string) error {
	b.bar.Describe(description)
	return nil
}

func (b barAdapter) Close() error { return b.bar.Close() }

// programAdapter narrows *tea.Program to the hooks.TUIProgram interface;
// tea.Msg is a defined type over interface{}, so the method sets differ.
type programAdapter struct {
	program *tea.Program
}

func (p programAdapter) Send(msg interface{}) { p.program.Send(msg) }

// Run executes one search per the resolved settings and renders the report
// to stdout. Progress goes to stderr so the report stays pipeable.
func Run(ctx context.Context, settings config.Settings, logger *slog.Logger) error {
	var (
		results parex.Results
		err     error
	)
	if settings.TUIEnabled {
		results, err = runWithTUI(ctx, settings, logger)
	} else {
		results, err = runPlain(ctx, settings, logger)
	}
	if err != nil {
		logger.Error("search failed", slog.String("error", err.Error()))
		return err
	}

	report := runner.BuildReport(settings.Root, results)
	return runner.Render(os.Stdout, settings.OutputFormat, report, logger)
}

// runWithTUI drives the search behind the interactive progress view. The
// search runs concurrently with the Bubble Tea event loop; hook messages feed
// the counters and the run-complete message shuts the view down.
func runWithTUI(ctx context.Context, settings config.Settings, logger *slog.Logger) (parex.Results, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(settings.Root)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	eventHooks := hooks.New(logger, true, false, programAdapter{program}, nil)

	type outcome struct {
		results parex.Results
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := runner.Run(ctx, settings, eventHooks)
		if err != nil {
			// A failed run never emits the run-complete message, so shut the
			// view down explicitly.
			program.Quit()
		}
		done <- outcome{results, err}
	}()

	if _, uiErr := program.Run(); uiErr != nil && ctx.Err() == nil {
		logger.Warn("progress view failed, waiting for search to finish", slog.String("error", uiErr.Error()))
	}
	if model.Interrupted() {
		cancel()
		<-done
		return parex.Results{}, ErrInterrupted
	}

	out := <-done
	return out.results, out.err
}

// runPlain drives the search with a spinner on TTYs and plain logs
// elsewhere.
func runPlain(ctx context.Context, settings config.Settings, logger *slog.Logger) (parex.Results, error) {
	var bar hooks.ProgressBar
	if term.IsTerminal(int(os.Stderr.Fd())) && !settings.Verbose {
		bar = barAdapter{bar: progressbar.NewOptions64(-1,
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)}
	}
	eventHooks := hooks.New(logger, false, settings.Verbose, nil, bar)
	return runner.Run(ctx, settings, eventHooks)
}
