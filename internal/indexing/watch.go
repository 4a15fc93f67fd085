package indexing

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gianged/cindex/internal/logging"
)

// Watcher re-indexes a repository when its files change, debounced so
// an editor save-burst triggers one incremental run rather than a
// run per write event.
type Watcher struct {
	orch     *Orchestrator
	opts     Options
	debounce time.Duration
	log      *logging.Logger
}

// NewWatcher builds a Watcher for one repository. opts.ForceReindex is
// ignored; watch runs are always incremental.
func NewWatcher(orch *Orchestrator, opts Options, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	opts.ForceReindex = false
	return &Watcher{orch: orch, opts: opts, debounce: debounce, log: logging.New("cindex.watch")}
}

// Run watches the repository root until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root, err := filepath.Abs(w.opts.RepoPath)
	if err != nil {
		return err
	}
	if err := addRecursive(fw, root); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need their own watches.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addRecursive(fw, ev.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error: %v", err)
		case <-fire:
			if _, err := w.orch.IndexRepository(ctx, w.opts); err != nil {
				w.log.Warn("incremental re-index failed: %v", err)
			}
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == ".git" || base == "node_modules" || base == ".cindex" {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
