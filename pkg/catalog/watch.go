package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchLogPrefix = "catalog:watch"

// watchDebounce coalesces the bursts of events editors emit on save.
var watchDebounce = 500 * time.Millisecond

// Watch reloads the catalog file at path whenever it changes and passes the
// new catalog to onReload. Files that fail to parse are logged and skipped,
// leaving the previous catalog in place. The parent directory is watched so
// atomic rename-on-save keeps working. Watch returns once the watcher is
// installed; it stops when ctx is cancelled.
func Watch(ctx context.Context, path string, onReload func(*File)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%s - failed to resolve %s: %w", watchLogPrefix, path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s - failed to create watcher: %w", watchLogPrefix, err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("%s - failed to watch %s: %w", watchLogPrefix, filepath.Dir(absPath), err)
	}
	slog.Debug(fmt.Sprintf("%s - Watching catalog file %s", watchLogPrefix, absPath))

	reload := func() {
		f, err := LoadFile(absPath)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Ignoring catalog change in %s: %v", watchLogPrefix, absPath, err))
			return
		}
		slog.Info(fmt.Sprintf("%s - Reloaded catalog %q from %s (%d handlers)", watchLogPrefix, f.Name, absPath, len(f.Handlers)))
		onReload(f)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error(fmt.Sprintf("%s - Watcher error: %v", watchLogPrefix, err))
			}
		}
	}()

	return nil
}
