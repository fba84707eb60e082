package parex_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylanisaiahp/parex/pkg/parex"
)

// itemsSource is a pull-shape source over a fixed item sequence.
type itemsSource struct {
	items []parex.Item
}

func (s *itemsSource) Walk(ctx context.Context, _ parex.WalkConfig) (<-chan parex.Item, error) {
	out := make(chan parex.Item)
	go func() {
		defer close(out)
		for _, item := range s.items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// pushSource drives a fixed item sequence through its own worker pool,
// exercising the concurrent limit protocol.
type pushSource struct {
	items []parex.Item
}

func (s *pushSource) Walk(ctx context.Context, cfg parex.WalkConfig) (<-chan parex.Item, error) {
	return (&itemsSource{items: s.items}).Walk(ctx, cfg)
}

func (s *pushSource) WalkParallel(ctx context.Context, cfg parex.WalkConfig, visit parex.VisitFunc) error {
	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	var (
		next int64 = -1
		stop atomic.Bool
		wg   sync.WaitGroup
	)
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if stop.Load() || ctx.Err() != nil {
					return
				}
				i := atomic.AddInt64(&next, 1)
				if i >= int64(len(s.items)) {
					return
				}
				if visit(s.items[i]) == parex.Quit {
					stop.Store(true)
					return
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// failingSource cannot start traversal at all.
type failingSource struct{ err error }

func (s *failingSource) Walk(context.Context, parex.WalkConfig) (<-chan parex.Item, error) {
	return nil, s.err
}

func entry(path string, kind parex.EntryKind, depth int) parex.Item {
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	return parex.Item{Entry: &parex.Entry{Path: path, Name: name, Kind: kind, Depth: depth}}
}

// invoiceItems is the canonical scenario tree: 6 files and 1 subdirectory,
// three of the files carrying "invoice" in their name.
func invoiceItems() []parex.Item {
	return []parex.Item{
		entry("invoice_jan.txt", parex.KindFile, 1),
		entry("invoice_feb.txt", parex.KindFile, 1),
		entry("report.txt", parex.KindFile, 1),
		entry("notes.md", parex.KindFile, 1),
		entry("subdir", parex.KindDir, 1),
		entry("subdir/invoice_mar.txt", parex.KindFile, 2),
		entry("subdir/other.rs", parex.KindFile, 2),
	}
}

func TestSearchFindsMatches(t *testing.T) {
	results, err := parex.Search().
		Source(&itemsSource{items: invoiceItems()}).
		Matching("INVOICE").
		CollectPaths(true).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, results.Matches)
	require.Len(t, results.Paths, 3)
	for _, p := range results.Paths {
		assert.Contains(t, strings.ToLower(p), "invoice")
	}
	assert.Equal(t, 6, results.Stats.Files)
	assert.Equal(t, 1, results.Stats.Dirs)
}

func TestMatchCountExactAcrossThreads(t *testing.T) {
	var items []parex.Item
	want := 0
	for i := 0; i < 500; i++ {
		name := "other.dat"
		if i%3 == 0 {
			name = "invoice.dat"
			want++
		}
		items = append(items, parex.Item{Entry: &parex.Entry{Path: name, Name: name, Kind: parex.KindFile}})
	}

	for _, threads := range []int{1, 2, 8} {
		results, err := parex.Search().
			Source(&pushSource{items: items}).
			Matching("invoice").
			Threads(threads).
			Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, results.Matches, "threads=%d", threads)
		assert.Equal(t, 500, results.Stats.Files, "threads=%d", threads)
	}
}

func TestLimitClampsMatches(t *testing.T) {
	for _, limit := range []int{0, 1, 2, 3, 10} {
		results, err := parex.Search().
			Source(&itemsSource{items: invoiceItems()}).
			Matching("invoice").
			Limit(limit).
			CollectPaths(true).
			Run(context.Background())
		require.NoError(t, err, "limit=%d", limit)

		want := limit
		if want > 3 {
			want = 3
		}
		assert.Equal(t, want, results.Matches, "limit=%d", limit)
		assert.LessOrEqual(t, len(results.Paths), limit, "limit=%d", limit)
	}
}

func TestLimitClampsUnderConcurrency(t *testing.T) {
	var items []parex.Item
	for i := 0; i < 300; i++ {
		items = append(items, parex.Item{Entry: &parex.Entry{Path: "match.txt", Name: "match.txt", Kind: parex.KindFile}})
	}
	results, err := parex.Search().
		Source(&pushSource{items: items}).
		Matching("match").
		Threads(8).
		Limit(7).
		CollectPaths(true).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, results.Matches)
	assert.LessOrEqual(t, len(results.Paths), 7)
}

func TestPathsEmptyWhenNotCollecting(t *testing.T) {
	results, err := parex.Search().
		Source(&itemsSource{items: invoiceItems()}).
		Matching("invoice").
		Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, results.Paths)
	assert.Equal(t, 3, results.Matches)
}

func TestRecoverableErrorsCollectedOnlyOnOptIn(t *testing.T) {
	items := append(invoiceItems(), parex.Item{Err: parex.PathError(parex.ErrPermissionDenied, "secrets")})

	results, err := parex.Search().
		Source(&itemsSource{items: items}).
		Matching("invoice").
		CollectErrors(true).
		Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results.Errors, 1)
	assert.ErrorIs(t, results.Errors[0], parex.ErrPermissionDenied)
	assert.Equal(t, "secrets", parex.ErrorPath(results.Errors[0]))
	assert.Equal(t, 3, results.Matches)

	results, err = parex.Search().
		Source(&itemsSource{items: items}).
		Matching("invoice").
		Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results.Errors)
	assert.Equal(t, 3, results.Matches)
	assert.Equal(t, 6, results.Stats.Files)
}

func TestFatalErrorAbortsRun(t *testing.T) {
	items := []parex.Item{
		entry("a.txt", parex.KindFile, 1),
		{Err: parex.SourceError(assert.AnError)},
		entry("b.txt", parex.KindFile, 1),
	}
	results, err := parex.Search().
		Source(&itemsSource{items: items}).
		Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, parex.ErrSource)
	assert.Zero(t, results.Matches, "no partial results on fatal errors")
	assert.Zero(t, results.Stats.Files)
}

func TestWalkStartFailureIsFatal(t *testing.T) {
	src := &failingSource{err: parex.PathError(parex.ErrInvalidSource, "/nope")}
	_, err := parex.Search().Source(src).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, parex.ErrInvalidSource)
}

func TestCountsUnaffectedByPredicate(t *testing.T) {
	results, err := parex.Search().
		Source(&itemsSource{items: invoiceItems()}).
		WithMatcher(parex.MatcherFunc(func(*parex.Entry) bool { return false })).
		CollectPaths(true).
		Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, results.Matches)
	assert.Empty(t, results.Paths)
	assert.Equal(t, 6, results.Stats.Files)
	assert.Equal(t, 1, results.Stats.Dirs)
}

func TestDefaultMatcherMatchesEverything(t *testing.T) {
	results, err := parex.Search().
		Source(&itemsSource{items: invoiceItems()}).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, results.Matches)
}

func TestIdempotentCounts(t *testing.T) {
	run := func() parex.Results {
		results, err := parex.Search().
			Source(&pushSource{items: invoiceItems()}).
			Matching("invoice").
			Threads(4).
			Run(context.Background())
		require.NoError(t, err)
		return results
	}
	first, second := run(), run()
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Stats.Files, second.Stats.Files)
	assert.Equal(t, first.Stats.Dirs, second.Stats.Dirs)
}

func TestValidationFailsBeforeTraversal(t *testing.T) {
	t.Run("no source", func(t *testing.T) {
		_, err := parex.Search().Run(context.Background())
		assert.ErrorIs(t, err, parex.ErrInvalidSource)
	})
	t.Run("negative threads", func(t *testing.T) {
		_, err := parex.Search().
			Source(&itemsSource{}).
			Threads(-2).
			Run(context.Background())
		assert.ErrorIs(t, err, parex.ErrInvalidThreadCount)
	})
	t.Run("invalid regex", func(t *testing.T) {
		_, err := parex.Search().
			Source(&itemsSource{}).
			MatchingRegex("(unterminated").
			Run(context.Background())
		assert.ErrorIs(t, err, parex.ErrInvalidPattern)
	})
}

// countingHooks records callback invocations; must be concurrency-safe.
type countingHooks struct {
	discovered atomic.Int64
	matched    atomic.Int64
	mu         sync.Mutex
	completed  []parex.Results
}

func (h *countingHooks) OnEntryDiscovered(*parex.Entry) error {
	h.discovered.Add(1)
	return nil
}

func (h *countingHooks) OnMatch(*parex.Entry) error {
	h.matched.Add(1)
	return nil
}

func (h *countingHooks) OnRunComplete(r parex.Results) error {
	h.mu.Lock()
	h.completed = append(h.completed, r)
	h.mu.Unlock()
	return nil
}

func TestHooksObserveRun(t *testing.T) {
	hooks := &countingHooks{}
	results, err := parex.Search().
		Source(&itemsSource{items: invoiceItems()}).
		Matching("invoice").
		WithHooks(hooks).
		Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 7, hooks.discovered.Load())
	assert.EqualValues(t, 3, hooks.matched.Load())
	require.Len(t, hooks.completed, 1)
	assert.Equal(t, results.Matches, hooks.completed[0].Matches)
}

func TestCallerCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := parex.Search().
		Source(&itemsSource{items: invoiceItems()}).
		Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
