package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads filename whenever it changes on disk and hands the freshly
// loaded configuration to onReload. newTarget returns the value to load
// into, typically a copy of the defaults. Invalid files are logged and
// skipped. Watch blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so editors
// that replace the file through a rename keep triggering reloads.
func Watch[T any](ctx context.Context, filename string, newTarget func() *T, onReload func(*T), logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config watch %s: %w", filepath.Dir(abs), err)
	}

	logger.Info("config watcher: started", slog.String("file", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-timerCh:
			target := newTarget()
			if err := Load(abs, target); err != nil {
				logger.Warn("config watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("config watcher: reloaded", slog.String("file", abs))
			onReload(target)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerCh = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
