package parex

import "context"

// Verdict is the continue/stop signal a push-shape producer receives after
// each visited item.
type Verdict int

const (
	// Continue tells the producer to keep dispatching work.
	Continue Verdict = iota

	// Quit tells the producer to stop dispatching new work and join its
	// workers. In-flight items on other workers may still be delivered.
	Quit
)

// Item is one traversal outcome: either an entry or an error reported by the
// producer. Exactly one of the two fields is set.
type Item struct {
	Entry *Entry
	Err   error
}

// VisitFunc is the per-item callback handed to a ParallelSource. It may be
// invoked from many producer workers concurrently; the engine's
// implementation is safe for that. The returned verdict is honored by the
// worker's pool asynchronously; peers are not preempted.
type VisitFunc func(Item) Verdict

// WalkConfig carries traversal parameters from the engine to the source.
// It is immutable once a run starts.
type WalkConfig struct {
	// Threads is the worker count, advisory for the producer.
	Threads int

	// MaxDepth is the inclusive traversal depth bound. Negative means
	// unbounded.
	MaxDepth int

	// Limit is the maximum number of matches to report. Negative means no
	// limit; zero is a valid limit of zero.
	Limit int
}

// Limited reports whether a match limit is configured.
func (c WalkConfig) Limited() bool { return c.Limit >= 0 }

// DepthBounded reports whether a traversal depth bound is configured.
func (c WalkConfig) DepthBounded() bool { return c.MaxDepth >= 0 }

// Source yields entries to a single consuming goroutine (the pull shape).
//
// Implementations return a channel closed when traversal is exhausted, and
// must honor ctx cancellation while sending so a consumer that stops pulling
// (limit reached) never strands a producer goroutine. Recoverable failures
// are delivered as Item.Err values; failures that prevent traversal from
// starting at all are returned directly.
type Source interface {
	Walk(ctx context.Context, cfg WalkConfig) (<-chan Item, error)
}

// ParallelSource is a source that owns its own worker pool and pushes items
// into the supplied callback from multiple goroutines (the push shape).
//
// Implementations must honor cfg.MaxDepth themselves, stop dispatching new
// work once any callback returns Quit or ctx is cancelled, and join all
// workers before returning. The error return is for the producer's own fatal
// failures (unusable root, pool breakdown); per-entry failures travel through
// the callback as Item.Err values.
type ParallelSource interface {
	Source
	WalkParallel(ctx context.Context, cfg WalkConfig, visit VisitFunc) error
}
