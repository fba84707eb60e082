package parex

import "time"

// Results is the immutable output of a completed run.
//
// Paths and Errors are both opt-in, disabled by default to avoid allocation
// overhead in the common case. Enable them on the builder with
// CollectPaths(true) and CollectErrors(true).
type Results struct {
	// Matches is the exact number of matched entries, clamped to the
	// configured limit if one was set.
	Matches int `json:"matches"`

	// Paths holds matched paths in the order workers observed them. That
	// order is best-effort under concurrency, not globally sequential.
	// Never longer than the configured limit.
	Paths []string `json:"paths,omitempty"`

	// Stats carries scan performance statistics.
	Stats ScanStats `json:"stats"`

	// Errors holds recoverable errors encountered during the run. Use
	// parex.Recoverable and parex.ErrorPath to post-process them.
	Errors []error `json:"-"`
}

// ScanStats summarizes scan performance for a completed run.
type ScanStats struct {
	// Files is the total number of file entries observed, matched or not.
	Files int `json:"files"`

	// Dirs is the total number of directory entries observed.
	Dirs int `json:"dirs"`

	// Duration is the wall-clock time from run start to completion.
	Duration time.Duration `json:"duration"`

	// EntriesPerSec equals floor((Files+Dirs)/Duration.Seconds()), or 0 on
	// zero-duration runs.
	EntriesPerSec int `json:"entriesPerSec"`
}

// computeStats derives the rate field from raw counts and duration, guarding
// the divide on extremely fast runs.
func computeStats(files, dirs int, duration time.Duration) ScanStats {
	eps := 0
	if secs := duration.Seconds(); secs > 0 {
		eps = int(float64(files+dirs) / secs)
	}
	return ScanStats{
		Files:         files,
		Dirs:          dirs,
		Duration:      duration,
		EntriesPerSec: eps,
	}
}
