package source

import (
	"context"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/dylanisaiahp/parex/pkg/parex"
)

// Git is a pull-shape source over the files tracked at HEAD of a git
// repository. Every entry is a file; depth is the number of path components.
// Untracked and ignored files are invisible, which makes it a cheap way to
// search a worktree without re-deriving gitignore semantics.
type Git struct {
	path   string
	logger *slog.Logger
}

// GitOption configures a Git source.
type GitOption func(*Git)

// WithGitLogger sets the logging backend for the source.
func WithGitLogger(h slog.Handler) GitOption {
	return func(g *Git) {
		g.logger = slog.New(h).With(slog.String("component", "gitsource"))
	}
}

// NewGit creates a source over the repository at or above repoPath.
func NewGit(repoPath string, opts ...GitOption) *Git {
	g := &Git{
		path:   repoPath,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Walk implements parex.Source.
func (g *Git) Walk(ctx context.Context, cfg parex.WalkConfig) (<-chan parex.Item, error) {
	repo, err := git.PlainOpenWithOptions(g.path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &parex.Error{Kind: parex.ErrInvalidSource, Path: g.path, Err: err}
	}
	head, err := repo.Head()
	if err != nil {
		return nil, &parex.Error{Kind: parex.ErrInvalidSource, Path: g.path, Err: err}
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, &parex.Error{Kind: parex.ErrInvalidSource, Path: g.path, Err: err}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, &parex.Error{Kind: parex.ErrInvalidSource, Path: g.path, Err: err}
	}

	g.logger.Debug("walking git tree", slog.String("repo", g.path), slog.String("head", head.Hash().String()))

	out := make(chan parex.Item)
	go func() {
		defer close(out)
		iterErr := tree.Files().ForEach(func(f *object.File) error {
			if ctx.Err() != nil {
				return storer.ErrStop
			}
			depth := strings.Count(f.Name, "/") + 1
			if cfg.DepthBounded() && depth > cfg.MaxDepth {
				return nil
			}
			entry := &parex.Entry{
				Path:  filepath.Join(g.path, filepath.FromSlash(f.Name)),
				Name:  path.Base(f.Name),
				Kind:  parex.KindFile,
				Depth: depth,
			}
			if !send(ctx, out, parex.Item{Entry: entry}) {
				return storer.ErrStop
			}
			return nil
		})
		if iterErr != nil && iterErr != storer.ErrStop {
			send(ctx, out, parex.Item{Err: parex.SourceError(iterErr)})
		}
	}()
	return out, nil
}
