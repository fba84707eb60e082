package parex

import (
	"context"
	"log/slog"
)

// SearchBuilder configures and executes a search. Create one with Search,
// chain the configuration methods, then call Run.
type SearchBuilder struct {
	opts      Options
	regexExpr string
	hasRegex  bool
}

// Search creates a SearchBuilder with defaults: auto-detected thread count,
// no limit, no depth bound, path and error collection disabled, and a
// match-everything matcher.
func Search() *SearchBuilder {
	return &SearchBuilder{
		opts: Options{
			Limit:    NoLimit,
			MaxDepth: NoMaxDepth,
		},
	}
}

// Source sets the producer to search through. Any Source is accepted:
// filesystem directories, git trees, in-memory collections. Sources that
// also implement ParallelSource are driven in the push shape when more than
// one thread is configured.
func (b *SearchBuilder) Source(s Source) *SearchBuilder {
	b.opts.Source = s
	return b
}

// WithMatcher sets a custom matcher. For the common case of substring
// matching, prefer Matching.
func (b *SearchBuilder) WithMatcher(m Matcher) *SearchBuilder {
	b.opts.Matcher = m
	b.hasRegex = false
	return b
}

// Matching is shorthand for the built-in case-insensitive substring matcher
// over entry names.
func (b *SearchBuilder) Matching(pattern string) *SearchBuilder {
	return b.WithMatcher(MatchSubstring(pattern))
}

// MatchingRegex matches entry names against a regular expression. The
// expression is compiled when Run is called; a compile failure aborts the
// run with ErrInvalidPattern before any traversal begins.
func (b *SearchBuilder) MatchingRegex(expr string) *SearchBuilder {
	b.regexExpr = expr
	b.hasRegex = true
	b.opts.Matcher = nil
	return b
}

// Limit stops the search after n matches. The in-flight counter may overshoot
// slightly under concurrency; the reported Results are clamped to n. A
// negative n clears the limit.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	if n < 0 {
		n = NoLimit
	}
	b.opts.Limit = n
	return b
}

// Threads sets the worker count for parallel traversal. Zero (the default)
// auto-detects the logical core count. Negative values are rejected at Run.
func (b *SearchBuilder) Threads(n int) *SearchBuilder {
	b.opts.Threads = n
	return b
}

// MaxDepth bounds traversal depth inclusively: 0 means the root only, 1 one
// level of children, and so on. A negative d clears the bound.
func (b *SearchBuilder) MaxDepth(d int) *SearchBuilder {
	if d < 0 {
		d = NoMaxDepth
	}
	b.opts.MaxDepth = d
	return b
}

// CollectPaths records matched paths into Results.Paths. Disabled by default
// to avoid allocation overhead when paths aren't needed.
func (b *SearchBuilder) CollectPaths(yes bool) *SearchBuilder {
	b.opts.CollectPaths = yes
	return b
}

// CollectErrors records recoverable errors into Results.Errors instead of
// silently dropping them. Disabled by default.
func (b *SearchBuilder) CollectErrors(yes bool) *SearchBuilder {
	b.opts.CollectErrors = yes
	return b
}

// WithHooks attaches progress callbacks. Implementations must be safe for
// concurrent use.
func (b *SearchBuilder) WithHooks(h Hooks) *SearchBuilder {
	b.opts.EventHooks = h
	return b
}

// WithLogger sets the logging backend for the run.
func (b *SearchBuilder) WithLogger(h slog.Handler) *SearchBuilder {
	b.opts.Logger = h
	return b
}

// Run executes the search and blocks until it completes.
//
// Fatal configuration errors (no source, unusable thread count, invalid
// pattern) are returned before any traversal begins. A fatal error reported
// mid-traversal aborts the run and is returned instead of partial results.
// Recoverable errors never fail the run; they appear in Results.Errors when
// error collection is enabled.
func (b *SearchBuilder) Run(ctx context.Context) (Results, error) {
	opts := b.opts
	if b.hasRegex {
		m, err := MatchRegex(b.regexExpr)
		if err != nil {
			return Results{}, err
		}
		opts.Matcher = m
	}
	return Run(ctx, opts)
}

// Run executes a search described by a fully populated Options value. Most
// callers use the SearchBuilder instead.
func Run(ctx context.Context, opts Options) (Results, error) {
	eng, err := newEngine(opts.withDefaults())
	if err != nil {
		return Results{}, err
	}
	return eng.run(ctx)
}
