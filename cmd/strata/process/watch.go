package processcmder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of filesystem events from editors
// that write exports in multiple chunks.
const debounceWindow = 500 * time.Millisecond

// watchAndRun blocks, reprocessing the inputs whenever one of them is
// written or recreated. A failed reprocess is logged and the watch
// continues; only context cancellation or a dead watcher ends the loop.
func watchAndRun(ctx context.Context, log *slog.Logger, paths []string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}

	log.Info("watching for changes", "files", len(paths))

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Editors often replace files on save, which drops the
			// watch; re-adding is a no-op when it survived.
			_ = watcher.Add(ev.Name)

			log.Debug("change detected", "file", ev.Name)
			pending = time.After(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)

		case <-pending:
			pending = nil
			if err := run(); err != nil {
				log.Error("reprocess failed", "error", err)
			}
		}
	}
}
