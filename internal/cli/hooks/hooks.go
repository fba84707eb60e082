// Package hooks bridges engine progress events to the CLI's presentation
// layer: the interactive TUI, the fallback progress spinner, or plain logs.
package hooks

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dylanisaiahp/parex/pkg/parex"
)

// EntryDiscoveredMsg signals that the walker produced an entry.
type EntryDiscoveredMsg struct{ Path string }

// MatchMsg signals that an entry matched.
type MatchMsg struct{ Path string }

// RunCompleteMsg signals the end of the run with its final results.
type RunCompleteMsg struct{ Results parex.Results }

// TUIProgram is the slice of the Bubble Tea program the hooks need. Decoupled
// so tests can capture messages without a real terminal.
type TUIProgram interface {
	Send(msg interface{})
}

// ProgressBar is the slice of the progress bar the hooks need.
type ProgressBar interface {
	Add(num int) error
	Describe(description string) error
	Close() error
}

// NoOpTUIProgram discards all messages.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (*NoOpTUIProgram) Send(msg interface{}) {}

// NoOpProgressBar ignores all updates.
type NoOpProgressBar struct{}

// Add implements ProgressBar.
func (*NoOpProgressBar) Add(num int) error { return nil }

// Describe implements ProgressBar.
func (*NoOpProgressBar) Describe(description string) error { return nil }

// Close implements ProgressBar.
func (*NoOpProgressBar) Close() error { return nil }

// CLIHooks implements parex.Hooks. All methods are called from engine worker
// goroutines and must stay cheap; anything slow belongs on the receiving side
// of the TUI message channel.
type CLIHooks struct {
	logger     *slog.Logger
	tuiEnabled bool
	verbose    bool
	program    TUIProgram
	bar        ProgressBar
	hasBar     bool

	scanned atomic.Int64
	matched atomic.Int64
	mu      sync.Mutex
}

// New creates hooks wired to the given presentation backends. Pass nil for
// program or bar to disable that backend.
func New(logger *slog.Logger, tuiEnabled, verbose bool, program TUIProgram, bar ProgressBar) parex.Hooks {
	if program == nil {
		program = &NoOpTUIProgram{}
	}
	hasBar := bar != nil
	if !hasBar {
		bar = &NoOpProgressBar{}
	}
	return &CLIHooks{
		logger:     logger,
		tuiEnabled: tuiEnabled,
		verbose:    verbose,
		program:    program,
		bar:        bar,
		hasBar:     hasBar,
	}
}

// OnEntryDiscovered implements parex.Hooks.
func (h *CLIHooks) OnEntryDiscovered(entry *parex.Entry) error {
	n := h.scanned.Add(1)
	if h.tuiEnabled {
		h.program.Send(EntryDiscoveredMsg{Path: entry.Path})
		return nil
	}
	if h.verbose {
		h.logger.Debug("entry discovered", slog.String("path", entry.Path), slog.String("kind", string(entry.Kind)))
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.bar.Add(1)
	// Refreshing the description on every entry floods slow terminals.
	if n%100 == 0 {
		_ = h.bar.Describe(fmt.Sprintf("scanning (%d entries, %d matches)", n, h.matched.Load()))
	}
	return nil
}

// OnMatch implements parex.Hooks.
func (h *CLIHooks) OnMatch(entry *parex.Entry) error {
	h.matched.Add(1)
	if h.tuiEnabled {
		h.program.Send(MatchMsg{Path: entry.Path})
		return nil
	}
	if h.verbose {
		h.logger.Info("match", slog.String("path", entry.Path))
	}
	return nil
}

// OnRunComplete implements parex.Hooks.
func (h *CLIHooks) OnRunComplete(results parex.Results) error {
	if h.tuiEnabled {
		h.program.Send(RunCompleteMsg{Results: results})
		return nil
	}
	h.mu.Lock()
	_ = h.bar.Close()
	h.mu.Unlock()
	if h.hasBar && !h.verbose {
		// Keep the shell prompt off the spinner's line.
		fmt.Fprintln(os.Stderr)
	}
	return nil
}
