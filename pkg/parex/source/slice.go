package source

import (
	"context"

	"github.com/dylanisaiahp/parex/pkg/parex"
)

// Slice is an in-memory pull-shape source. Useful for embedding parex over
// data that is already collected, and for tests.
type Slice struct {
	entries []parex.Entry
}

// NewSlice creates a source over a fixed set of entries. The entries are
// yielded in order; depth bounds are honored, everything else is the
// caller's concern.
func NewSlice(entries []parex.Entry) *Slice {
	return &Slice{entries: entries}
}

// Walk implements parex.Source.
func (s *Slice) Walk(ctx context.Context, cfg parex.WalkConfig) (<-chan parex.Item, error) {
	out := make(chan parex.Item)
	go func() {
		defer close(out)
		for i := range s.entries {
			entry := s.entries[i]
			if cfg.DepthBounded() && entry.Depth > cfg.MaxDepth {
				continue
			}
			if !send(ctx, out, parex.Item{Entry: &entry}) {
				return
			}
		}
	}()
	return out, nil
}
