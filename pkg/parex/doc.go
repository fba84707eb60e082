// Package parex is a generic, embeddable parallel match-and-aggregate
// engine. Given a stream of entries produced by any traversable source, it
// applies a caller-supplied matcher to each entry concurrently and returns a
// single consistent summary: the match count, optionally the matched paths,
// aggregate statistics, and any recoverable errors encountered along the way.
//
// The engine owns the aggregation and termination protocol only. Concrete
// traversal (filesystem walking, git trees, in-memory slices) is delegated to
// Source implementations, and match semantics to Matcher implementations. See
// the source subpackage for ready-made sources.
//
// A search is configured through a fluent builder:
//
//	results, err := parex.Search().
//		Source(source.NewDirectory("/var/log")).
//		Matching("invoice").
//		Limit(10).
//		CollectPaths(true).
//		Run(ctx)
//
// Run blocks until traversal completes or the limit is reached. With a limit
// configured, concurrent workers may transiently overshoot the in-flight
// counter by at most threads-1; the reported Results are clamped to the limit
// and are always exact.
package parex
