package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devkit-go/devkit/internal/logger"
)

// Watch watches the configuration file and invokes onReload with the
// freshly loaded configuration whenever it changes on disk.
//
// Only configurations that load and validate cleanly reach the callback;
// a broken edit is logged and the previous configuration stays in effect.
// Watch blocks until ctx is cancelled.
//
// Editors that write via rename (vim, sed -i) replace the watched inode,
// so the parent directory is watched and events filtered by file name.
func Watch(ctx context.Context, path string, onReload func(*Config)) error {
	if path == "" {
		path = GetDefaultConfigPath()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	// Coalesce bursts of events into one reload.
	const debounce = 250 * time.Millisecond
	var timer *time.Timer
	timerC := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case timerC <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)

		case <-timerC:
			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload skipped", "path", path, "error", err)
				continue
			}
			logger.Info("configuration reloaded", "path", path)
			onReload(cfg)
		}
	}
}
