package commands

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/contractlint/internal/cli/config"
	"github.com/leapstack-labs/contractlint/internal/cli/testutil"
)

func TestWatchContracts_RelintsChangedFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	contracts := filepath.Join(dir, "contracts")

	l, hash, err := createLinter(config.Default(), config.GetLogger(t.Context()))
	require.NoError(t, err)
	cc := &CommandContext{
		Cfg:        config.Default(),
		Logger:     config.GetLogger(t.Context()),
		Linter:     l,
		ConfigHash: hash,
	}

	var (
		mu      sync.Mutex
		results []lintFileResult
	)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- watchContracts(ctx, cc, []string{contracts}, func(res lintFileResult) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
		})
	}()

	target := filepath.Join(contracts, "tokens", "token.py")
	// The watcher registers asynchronously; keep rewriting until it reports.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte(testutil.DirtyContract), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return len(results) > 0
	}, 5*time.Second, 150*time.Millisecond)

	_ = os.WriteFile(filepath.Join(contracts, "notes.txt"), []byte("ignored"), 0o644)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for _, res := range results {
		assert.Equal(t, target, res.Path)
		assert.False(t, res.Report.Pass)
	}
}

func TestWatchDirRecursive(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o755))

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, watchDirRecursive(w, dir))
	watched := w.WatchList()
	assert.Contains(t, watched, filepath.Join(dir, "contracts", "tokens"))
	assert.NotContains(t, watched, filepath.Join(dir, ".git"))

	err = watchDirRecursive(w, filepath.Join(dir, "contracts", "dirty.py"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}
