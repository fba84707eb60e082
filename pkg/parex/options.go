package parex

import (
	"io"
	"log/slog"
)

// NoLimit and NoMaxDepth are the "unset" values for the respective options.
const (
	NoLimit    = -1
	NoMaxDepth = -1
)

// Hooks defines callbacks for progress events during a run. Implementations
// MUST be safe for concurrent use: methods are called from worker
// goroutines. Hook errors never affect the run; they are logged and dropped.
type Hooks interface {
	// OnEntryDiscovered fires for every entry received from the source,
	// before matching.
	OnEntryDiscovered(entry *Entry) error

	// OnMatch fires for every entry the matcher accepted and the limit
	// protocol admitted.
	OnMatch(entry *Entry) error

	// OnRunComplete fires once, after the finalizer has produced the
	// immutable results.
	OnRunComplete(results Results) error
}

// NoOpHooks is the default, do-nothing Hooks implementation.
type NoOpHooks struct{}

// OnEntryDiscovered implements Hooks. It performs no action.
func (NoOpHooks) OnEntryDiscovered(*Entry) error { return nil }

// OnMatch implements Hooks. It performs no action.
func (NoOpHooks) OnMatch(*Entry) error { return nil }

// OnRunComplete implements Hooks. It performs no action.
func (NoOpHooks) OnRunComplete(Results) error { return nil }

// Options holds the full configuration for one run. Most callers go through
// the SearchBuilder instead of filling this in directly.
type Options struct {
	// Source is the traversal producer. Required.
	Source Source `mapstructure:"-"`

	// Matcher decides what counts as a match. Defaults to AllMatcher.
	Matcher Matcher `mapstructure:"-"`

	// Threads is the worker count, advisory for the producer. Zero means
	// auto-detect (logical core count); negative is rejected.
	Threads int `mapstructure:"threads"`

	// MaxDepth bounds traversal depth inclusively. NoMaxDepth disables it.
	MaxDepth int `mapstructure:"maxDepth"`

	// Limit stops the run after this many matches. NoLimit disables it;
	// zero is honored as "report nothing".
	Limit int `mapstructure:"limit"`

	// CollectPaths records matched paths into Results.Paths. Off by default
	// to avoid the allocation cost when paths aren't needed.
	CollectPaths bool `mapstructure:"collectPaths"`

	// CollectErrors records recoverable errors into Results.Errors. Off by
	// default.
	CollectErrors bool `mapstructure:"collectErrors"`

	// EventHooks receives progress callbacks. Defaults to NoOpHooks.
	EventHooks Hooks `mapstructure:"-"`

	// Logger is the logging backend. Defaults to a discard handler.
	Logger slog.Handler `mapstructure:"-"`
}

// withDefaults returns a copy of o with nil collaborators replaced by their
// defaults. Source is left alone; a missing source is a validation error,
// not a defaultable field.
func (o Options) withDefaults() Options {
	if o.Matcher == nil {
		o.Matcher = AllMatcher{}
	}
	if o.EventHooks == nil {
		o.EventHooks = NoOpHooks{}
	}
	if o.Logger == nil {
		o.Logger = slog.NewTextHandler(io.Discard, nil)
	}
	return o
}
