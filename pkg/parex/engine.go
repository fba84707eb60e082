package parex

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// engine executes one run. Created fresh per run; the aggregation state it
// holds is jointly owned by all worker goroutines for the run's duration and
// consumed exactly once by finalize, then discarded.
type engine struct {
	opts   Options
	cfg    WalkConfig
	logger *slog.Logger
	cancel context.CancelFunc

	matches atomic.Int64
	files   atomic.Int64
	dirs    atomic.Int64

	// mu guards the append-only collections only for the duration of a
	// single push, never across a matcher evaluation.
	mu    sync.Mutex
	paths []string
	errs  []error

	fatalMu  sync.Mutex
	fatalErr error
}

// newEngine validates opts and prepares a run. Configuration problems are
// fatal here, before any traversal begins.
func newEngine(opts Options) (*engine, error) {
	if opts.Source == nil {
		return nil, &Error{Kind: ErrInvalidSource, Detail: "no source provided"}
	}
	if opts.Threads < 0 {
		return nil, &Error{Kind: ErrInvalidThreadCount, Err: errors.New("thread count must be non-negative")}
	}
	threads := opts.Threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	return &engine{
		opts:   opts,
		logger: slog.New(opts.Logger).With(slog.String("component", "engine")),
		cfg: WalkConfig{
			Threads:  threads,
			MaxDepth: opts.MaxDepth,
			Limit:    opts.Limit,
		},
	}, nil
}

// run drives the source to quiescence and finalizes the aggregation state.
func (e *engine) run(ctx context.Context) (Results, error) {
	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.cancel = cancel

	e.logger.Debug("starting run",
		slog.Int("threads", e.cfg.Threads),
		slog.Int("limit", e.cfg.Limit),
		slog.Bool("collectPaths", e.opts.CollectPaths),
		slog.Bool("collectErrors", e.opts.CollectErrors),
	)

	var walkErr error
	if ps, ok := e.opts.Source.(ParallelSource); ok && e.cfg.Threads > 1 {
		// Push shape: the producer owns the worker pool. WalkParallel
		// returns only after the pool has fully quiesced.
		walkErr = ps.WalkParallel(runCtx, e.cfg, e.visit)
	} else {
		walkErr = e.runPull(runCtx)
	}

	if fatal := e.loadFatal(); fatal != nil {
		e.logger.Error("run aborted", slog.String("error", fatal.Error()))
		return Results{}, fatal
	}
	if walkErr != nil {
		// A producer unwinding from our own limit-triggered cancellation is
		// a clean stop, not a failure.
		if !(errors.Is(walkErr, context.Canceled) && e.limitReached()) {
			return Results{}, classify(walkErr)
		}
	}
	if err := ctx.Err(); err != nil && !e.limitReached() {
		return Results{}, err
	}
	return e.finalize(start), nil
}

// runPull consumes the source's sequence on the calling goroutine. Only one
// goroutine observes the limit here, so termination is race-free: the
// controller simply stops pulling.
func (e *engine) runPull(ctx context.Context) error {
	items, err := e.opts.Source.Walk(ctx, e.cfg)
	if err != nil {
		return err
	}
	for item := range items {
		if e.limitReached() {
			e.cancel()
			break
		}
		if e.visit(item) == Quit {
			e.cancel()
			break
		}
	}
	return nil
}

// visit processes one item. Safe for concurrent invocation from producer
// workers; all side effects are confined to the engine's aggregation state.
func (e *engine) visit(item Item) Verdict {
	if item.Err != nil {
		if Recoverable(item.Err) {
			if e.opts.CollectErrors {
				e.mu.Lock()
				e.errs = append(e.errs, item.Err)
				e.mu.Unlock()
			}
			return Continue
		}
		e.setFatal(item.Err)
		e.cancel()
		return Quit
	}

	entry := item.Entry
	switch entry.Kind {
	case KindFile:
		e.files.Add(1)
	case KindDir:
		e.dirs.Add(1)
	}

	if err := e.opts.EventHooks.OnEntryDiscovered(entry); err != nil {
		e.logger.Warn("OnEntryDiscovered hook failed", slog.String("path", entry.Path), slog.String("error", err.Error()))
	}

	if !e.opts.Matcher.Match(entry) {
		return Continue
	}

	m := e.matches.Add(1)

	// Early guard: another worker already satisfied the limit. Quit before
	// recording an over-limit path.
	if e.cfg.Limited() && m > int64(e.cfg.Limit) {
		e.cancel()
		return Quit
	}

	if e.opts.CollectPaths {
		e.mu.Lock()
		e.paths = append(e.paths, entry.Path)
		e.mu.Unlock()
	}
	if err := e.opts.EventHooks.OnMatch(entry); err != nil {
		e.logger.Warn("OnMatch hook failed", slog.String("path", entry.Path), slog.String("error", err.Error()))
	}

	// Late guard: this worker reached or crossed the boundary exactly.
	if e.cfg.Limited() && m >= int64(e.cfg.Limit) {
		e.cancel()
		return Quit
	}
	return Continue
}

// finalize drains the shared counters into an immutable Results value. It
// runs single-threaded: the producer has quiesced, so no further concurrent
// mutation is possible. The raw match counter may have overshot the limit by
// up to threads-1 under concurrency; the reported values are clamped here so
// they are always exact.
func (e *engine) finalize(start time.Time) Results {
	duration := time.Since(start)

	matches := int(e.matches.Load())
	if e.cfg.Limited() && matches > e.cfg.Limit {
		matches = e.cfg.Limit
	}
	paths := e.paths
	e.paths = nil
	if e.cfg.Limited() && len(paths) > e.cfg.Limit {
		paths = paths[:e.cfg.Limit]
	}
	errs := e.errs
	e.errs = nil

	results := Results{
		Matches: matches,
		Paths:   paths,
		Stats:   computeStats(int(e.files.Load()), int(e.dirs.Load()), duration),
		Errors:  errs,
	}

	e.logger.Debug("run finished",
		slog.Int("matches", results.Matches),
		slog.Int("files", results.Stats.Files),
		slog.Int("dirs", results.Stats.Dirs),
		slog.Duration("duration", duration),
		slog.Int("errors", len(results.Errors)),
	)

	if err := e.opts.EventHooks.OnRunComplete(results); err != nil {
		e.logger.Warn("OnRunComplete hook failed", slog.String("error", err.Error()))
	}
	return results
}

func (e *engine) limitReached() bool {
	return e.cfg.Limited() && e.matches.Load() >= int64(e.cfg.Limit)
}

func (e *engine) setFatal(err error) {
	e.fatalMu.Lock()
	if e.fatalErr == nil {
		e.fatalErr = err
	}
	e.fatalMu.Unlock()
}

func (e *engine) loadFatal() error {
	e.fatalMu.Lock()
	defer e.fatalMu.Unlock()
	return e.fatalErr
}

// classify normalizes a producer failure: parex classifications and context
// errors pass through, anything else is wrapped as a source error.
func classify(err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return SourceError(err)
}
