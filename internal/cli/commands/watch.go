package commands

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounceDelay coalesces the burst of events editors emit for one save.
const debounceDelay = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Re-lint contracts as they change",
		Long: `Lint every contract below the given directories, then watch them and
re-lint each contract file when it is written or created.`,
		Example: `  # Watch the current directory
  contractlint watch

  # Watch a contracts directory
  contractlint watch ./contracts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runWatch(cmd, args)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSlice("disable", nil, "Rule IDs to disable")
	cmd.Flags().String("severity", "hint", "Minimum severity: error, warning, info, hint")
	cmd.Flags().String("policy", "", "Policy file (.yaml or .star)")

	return cmd
}

func runWatch(cmd *cobra.Command, dirs []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	files, err := collectContracts(dirs)
	if err != nil {
		return err
	}
	results, err := lintFiles(ctx, cc, nil, files)
	if err != nil {
		return err
	}
	var mu sync.Mutex
	show := func(res lintFileResult) {
		res.Report = res.Report.Filter(cc.Cfg.Lint.MinSeverity)
		mu.Lock()
		defer mu.Unlock()
		renderLintResults(cc.Renderer, []lintFileResult{res})
	}
	for _, res := range results {
		show(res)
	}

	cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Watching for changes. Press Ctrl+C to stop"))
	return watchContracts(ctx, cc, dirs, show)
}

// watchContracts re-lints contract files below dirs as they change and
// hands each result to onResult. It returns when ctx is done.
func watchContracts(ctx context.Context, cc *CommandContext, dirs []string, onResult func(lintFileResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range dirs {
		if err := watchDirRecursive(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories are watched too; WalkDir fails on plain files.
				if err := watchDirRecursive(watcher, event.Name); err == nil {
					continue
				}
			}
			if filepath.Ext(event.Name) != contractExt {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounceDelay, func() {
				cc.Logger.Debug("contract changed", "path", path)
				res, err := lintFile(ctx, cc, nil, path)
				if err != nil {
					cc.Logger.Error("re-lint failed", "path", path, "error", err)
					return
				}
				onResult(res)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if path == dir {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
