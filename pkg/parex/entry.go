package parex

import (
	"io/fs"
	"os"
)

// EntryKind classifies a traversed entry. The engine only interprets kinds
// for the file/dir tallies; everything else is up to the matcher.
type EntryKind string

// Constants representing the defined entry kinds.
const (
	KindFile    EntryKind = "file"
	KindDir     EntryKind = "dir"
	KindSymlink EntryKind = "symlink"
	KindOther   EntryKind = "other"
)

// Entry is a single item produced by a Source during traversal.
//
// It is intentionally generic rather than filesystem-specific: Name and Kind
// are neutral enough to describe directory entries, database records, or API
// results. Path and Name are immutable for the lifetime of the value; an
// Entry is produced once and consumed by exactly one matcher evaluation, so
// it is never shared for concurrent mutation.
type Entry struct {
	// Path is an opaque locator understood by the producer and the caller.
	// For filesystem sources it is a filesystem path.
	Path string

	// Name is the entry's short identifying label (filename, record ID, ...).
	Name string

	// Kind is the producer-assigned classification.
	Kind EntryKind

	// Depth is the traversal depth from the root. Root = 0.
	Depth int

	// Metadata is populated on demand, never by the engine. Matchers that
	// need it call Stat, which caches the result on this Entry instance.
	Metadata fs.FileInfo
}

// Stat returns the entry's filesystem metadata, fetching and caching it on
// first use. Only meaningful for entries whose Path is a filesystem path;
// matchers for other sources should not call it.
func (e *Entry) Stat() (fs.FileInfo, error) {
	if e.Metadata != nil {
		return e.Metadata, nil
	}
	info, err := os.Lstat(e.Path)
	if err != nil {
		return nil, WrapIO(e.Path, err)
	}
	e.Metadata = info
	return info, nil
}
