package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylanisaiahp/parex/pkg/parex"
	"github.com/dylanisaiahp/parex/pkg/parex/source"
)

// writeTree materializes the invoice fixture used across the source tests.
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"invoice_jan.txt",
		"invoice_feb.txt",
		"report.txt",
		"notes.md",
		"subdir/invoice_mar.txt",
		"subdir/other.rs",
		"subdir/deep/leaf.txt",
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func TestDirectoryWalkBothShapes(t *testing.T) {
	root := writeTree(t)
	for name, threads := range map[string]int{"pull": 1, "push": 4} {
		t.Run(name, func(t *testing.T) {
			results, err := parex.Search().
				Source(source.NewDirectory(root)).
				Matching("invoice").
				Threads(threads).
				CollectPaths(true).
				Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 3, results.Matches)
			assert.Len(t, results.Paths, 3)
			assert.Equal(t, 7, results.Stats.Files)
			assert.Equal(t, 2, results.Stats.Dirs)
		})
	}
}

func TestDirectoryMaxDepth(t *testing.T) {
	root := writeTree(t)
	for name, threads := range map[string]int{"pull": 1, "push": 4} {
		t.Run(name, func(t *testing.T) {
			results, err := parex.Search().
				Source(source.NewDirectory(root)).
				Threads(threads).
				MaxDepth(1).
				CollectPaths(true).
				Run(context.Background())
			require.NoError(t, err)

			// Only the root's direct children: 4 files plus the subdir entry.
			assert.Equal(t, 4, results.Stats.Files)
			assert.Equal(t, 1, results.Stats.Dirs)
			for _, p := range results.Paths {
				rel, err := filepath.Rel(root, p)
				require.NoError(t, err)
				assert.NotContains(t, filepath.ToSlash(rel), "/")
			}
		})
	}
}

func TestDirectoryMaxDepthZeroYieldsNothing(t *testing.T) {
	root := writeTree(t)
	results, err := parex.Search().
		Source(source.NewDirectory(root)).
		MaxDepth(0).
		Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, results.Stats.Files)
	assert.Zero(t, results.Stats.Dirs)
	assert.Zero(t, results.Matches)
}

func TestDirectoryIgnorePatterns(t *testing.T) {
	root := writeTree(t)
	for name, threads := range map[string]int{"pull": 1, "push": 4} {
		t.Run(name, func(t *testing.T) {
			src := source.NewDirectory(root, source.WithIgnorePatterns([]string{"subdir/", "*.md"}))
			results, err := parex.Search().
				Source(src).
				Threads(threads).
				CollectPaths(true).
				Run(context.Background())
			require.NoError(t, err)

			// subdir is pruned entirely and notes.md is filtered out.
			assert.Equal(t, 3, results.Stats.Files)
			assert.Zero(t, results.Stats.Dirs)
			for _, p := range results.Paths {
				assert.NotContains(t, p, "subdir")
				assert.NotContains(t, p, ".md")
			}
		})
	}
}

func TestDirectoryIgnoreNegation(t *testing.T) {
	root := writeTree(t)
	src := source.NewDirectory(root, source.WithIgnorePatterns([]string{"*.txt", "!report.txt"}))
	results, err := parex.Search().
		Source(src).
		Matching(".txt").
		CollectPaths(true).
		Run(context.Background())
	require.NoError(t, err)

	require.Len(t, results.Paths, 1)
	assert.Equal(t, "report.txt", filepath.Base(results.Paths[0]))
}

func TestDirectoryInvalidRoot(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := parex.Search().
			Source(source.NewDirectory(filepath.Join(t.TempDir(), "absent"))).
			Run(context.Background())
		assert.ErrorIs(t, err, parex.ErrInvalidSource)
	})
	t.Run("not a directory", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "plain.txt")
		require.NoError(t, os.WriteFile(f, nil, 0o644))
		_, err := parex.Search().
			Source(source.NewDirectory(f)).
			Threads(4).
			Run(context.Background())
		assert.ErrorIs(t, err, parex.ErrInvalidSource)
	})
}

func TestDirectoryEntryDepths(t *testing.T) {
	root := writeTree(t)
	depths := map[string]int{}
	items, err := source.NewDirectory(root).Walk(context.Background(), parex.WalkConfig{
		Threads:  1,
		MaxDepth: parex.NoMaxDepth,
		Limit:    parex.NoLimit,
	})
	require.NoError(t, err)
	for item := range items {
		require.NoError(t, item.Err)
		rel, relErr := filepath.Rel(root, item.Entry.Path)
		require.NoError(t, relErr)
		depths[filepath.ToSlash(rel)] = item.Entry.Depth
	}

	assert.Equal(t, 1, depths["invoice_jan.txt"])
	assert.Equal(t, 1, depths["subdir"])
	assert.Equal(t, 2, depths["subdir/invoice_mar.txt"])
	assert.Equal(t, 3, depths["subdir/deep/leaf.txt"])
}

func TestDirectoryLimitStopsEarly(t *testing.T) {
	root := writeTree(t)
	for name, threads := range map[string]int{"pull": 1, "push": 4} {
		t.Run(name, func(t *testing.T) {
			results, err := parex.Search().
				Source(source.NewDirectory(root)).
				Matching("invoice").
				Threads(threads).
				Limit(2).
				CollectPaths(true).
				Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, results.Matches)
			assert.LessOrEqual(t, len(results.Paths), 2)
		})
	}
}
