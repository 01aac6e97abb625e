package driver

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs rebuild whenever a source file under one of the roots
// changes, until ctx is cancelled.
func Watch(ctx context.Context, roots []string, log *slog.Logger, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := w.Add(root); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ext := filepath.Ext(ev.Name); ext != ".vela" && ext != ".yaml" {
				continue
			}
			log.Info("source changed, rebuilding", "path", ev.Name)
			if err := rebuild(); err != nil {
				log.Error("rebuild failed", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)
		}
	}
}
