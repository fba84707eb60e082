// Package source provides ready-made parex.Source implementations:
// a parallel filesystem walker, an in-memory slice source, and a git tree
// source.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dylanisaiahp/parex/pkg/parex"
)

// Directory traverses a filesystem tree rooted at a single directory.
//
// It implements both producer shapes: Walk feeds a single consumer from a
// sequential filepath.WalkDir pass, and WalkParallel fans directory reads
// out over its own worker pool, invoking the engine's callback concurrently.
// Hidden-file policy is deliberately minimal: everything is visible unless
// an ignore pattern says otherwise.
type Directory struct {
	root   string
	ignore *ignoreMatcher
	logger *slog.Logger
}

// DirectoryOption configures a Directory source.
type DirectoryOption func(*Directory)

// WithIgnorePatterns adds gitignore-style patterns applied to paths relative
// to the root. Matching directories are pruned entirely.
func WithIgnorePatterns(patterns []string) DirectoryOption {
	return func(d *Directory) { d.ignore = newIgnoreMatcher(patterns) }
}

// WithLogger sets the logging backend for the source.
func WithLogger(h slog.Handler) DirectoryOption {
	return func(d *Directory) {
		d.logger = slog.New(h).With(slog.String("component", "dirsource"))
	}
}

// NewDirectory creates a filesystem source rooted at root.
func NewDirectory(root string, opts ...DirectoryOption) *Directory {
	d := &Directory{
		root:   root,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// checkRoot validates the root before any traversal begins. Root problems
// are fatal: there is nothing to recover into.
func (d *Directory) checkRoot() error {
	info, err := os.Stat(d.root)
	if err != nil {
		return &parex.Error{Kind: parex.ErrInvalidSource, Path: d.root, Err: err}
	}
	if !info.IsDir() {
		return &parex.Error{Kind: parex.ErrInvalidSource, Path: d.root, Detail: "not a directory"}
	}
	return nil
}

// Walk implements parex.Source (the pull shape). Entries arrive in
// depth-first lexical order; recoverable failures are delivered as error
// items and traversal continues past them.
func (d *Directory) Walk(ctx context.Context, cfg parex.WalkConfig) (<-chan parex.Item, error) {
	if err := d.checkRoot(); err != nil {
		return nil, err
	}
	out := make(chan parex.Item)
	go func() {
		defer close(out)
		_ = filepath.WalkDir(d.root, func(p string, de fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				if !send(ctx, out, parex.Item{Err: parex.WrapIO(p, err)}) {
					return ctx.Err()
				}
				return nil
			}
			if p == d.root {
				return nil
			}
			rel := d.rel(p)
			depth := strings.Count(rel, "/") + 1
			isDir := de.IsDir()
			if !d.ignore.empty() && d.ignore.Match(rel, isDir) {
				d.logger.Debug("path ignored", slog.String("path", rel))
				if isDir {
					return fs.SkipDir
				}
				return nil
			}
			if cfg.DepthBounded() && depth > cfg.MaxDepth {
				if isDir {
					return fs.SkipDir
				}
				return nil
			}
			if !send(ctx, out, parex.Item{Entry: newEntry(p, de, depth)}) {
				return ctx.Err()
			}
			if isDir && cfg.DepthBounded() && depth >= cfg.MaxDepth {
				return fs.SkipDir
			}
			return nil
		})
	}()
	return out, nil
}

// WalkParallel implements parex.ParallelSource (the push shape). Directory
// listings fan out over a bounded pool; visit is invoked concurrently from
// pool workers. A Quit verdict or context cancellation stops dispatch of new
// directories; all workers are joined before the call returns.
func (d *Directory) WalkParallel(ctx context.Context, cfg parex.WalkConfig, visit parex.VisitFunc) error {
	if err := d.checkRoot(); err != nil {
		return err
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	d.logger.Debug("starting parallel walk", slog.String("root", d.root), slog.Int("threads", threads))

	var (
		stop    atomic.Bool
		wg      sync.WaitGroup
		sem     = make(chan struct{}, threads)
		poolMu  sync.Mutex
		poolErr error
	)

	setPoolErr := func(err error) {
		poolMu.Lock()
		if poolErr == nil {
			poolErr = err
		}
		poolMu.Unlock()
		stop.Store(true)
	}

	var walkDir func(dir string, depth int)
	walkDir = func(dir string, depth int) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				setPoolErr(&parex.Error{Kind: parex.ErrThreadPool, Path: dir, Err: fmt.Errorf("worker panic: %v", r)})
			}
		}()
		if stop.Load() || ctx.Err() != nil {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if visit(parex.Item{Err: parex.WrapIO(dir, err)}) == parex.Quit {
				stop.Store(true)
			}
			return
		}
		for _, de := range entries {
			if stop.Load() || ctx.Err() != nil {
				return
			}
			childDepth := depth + 1
			if cfg.DepthBounded() && childDepth > cfg.MaxDepth {
				continue
			}
			p := filepath.Join(dir, de.Name())
			rel := d.rel(p)
			isDir := de.IsDir()
			if !d.ignore.empty() && d.ignore.Match(rel, isDir) {
				d.logger.Debug("path ignored", slog.String("path", rel))
				continue
			}
			if visit(parex.Item{Entry: newEntry(p, de, childDepth)}) == parex.Quit {
				stop.Store(true)
				return
			}
			if isDir && (!cfg.DepthBounded() || childDepth < cfg.MaxDepth) {
				wg.Add(1)
				go func(p string, dep int) {
					sem <- struct{}{}
					defer func() { <-sem }()
					walkDir(p, dep)
				}(p, childDepth)
			}
		}
	}

	wg.Add(1)
	walkDir(d.root, 0)
	wg.Wait()

	if poolErr != nil {
		return poolErr
	}
	return ctx.Err()
}

// rel returns p relative to the root with forward slashes, for ignore
// matching and depth accounting.
func (d *Directory) rel(p string) string {
	rel, err := filepath.Rel(d.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func newEntry(p string, de fs.DirEntry, depth int) *parex.Entry {
	kind := parex.KindOther
	switch {
	case de.IsDir():
		kind = parex.KindDir
	case de.Type()&fs.ModeSymlink != 0:
		kind = parex.KindSymlink
	case de.Type().IsRegular():
		kind = parex.KindFile
	}
	return &parex.Entry{
		Path:  p,
		Name:  de.Name(),
		Kind:  kind,
		Depth: depth,
	}
}

// send delivers an item unless ctx is cancelled first.
func send(ctx context.Context, out chan<- parex.Item, item parex.Item) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}
