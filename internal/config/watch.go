package config

import (
	"context"
	"fmt"
	"path/filepath"

	"gridsim/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes on disk and hands every
// valid result to onChange. The parent directory is watched so editors that
// replace the file by rename are picked up too. Invalid edits are logged and
// skipped. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	logger.Debugf("[config] watching %s", abs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				logger.Warnf("[config] reload of %s rejected: %v", abs, err)
				continue
			}
			logger.Infof("[config] reloaded %s", abs)
			if onChange != nil {
				onChange(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("[config] watcher error: %v", err)
		}
	}
}

// ApplyLogLevel pushes app.log_level into the process logger.
func ApplyLogLevel(cfg *Config) {
	if cfg == nil {
		return
	}
	level, err := logger.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logger.Warnf("[config] ignoring log level %q: %v", cfg.App.LogLevel, err)
		return
	}
	if level == logger.Level() {
		return
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("[config] log level set to %s", level)
}
