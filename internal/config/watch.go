// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"docscrub/internal/logging"
)

// Watcher reloads the configuration file on change and hands every valid
// new version to a callback. Invalid versions are logged and skipped, the
// previous configuration stays live.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *logging.Logger
	done    chan struct{}
}

// Watch starts watching path. Editors typically replace the file rather
// than write it in place, so the parent directory is watched and events
// are filtered by name.
func Watch(path string, logger *logging.Logger, onChange func(*Config)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config watch: empty path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watch: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watch: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watch %s: %w", abs, err)
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		logger:  logger.WithComponent("config"),
		done:    make(chan struct{}),
	}
	go w.run(onChange)
	return w, nil
}

func (w *Watcher) run(onChange func(*Config)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config change rejected, keeping previous",
					zap.String("path", w.path),
					zap.Error(err))
				continue
			}
			w.logger.Info("config reloaded", zap.String("path", w.path))
			onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
