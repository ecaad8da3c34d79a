// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the static localization table for the UI chrome.
package i18n

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the table whenever the locales file changes on disk, until
// the context is cancelled. A reload that fails validation is logged and
// skipped; the previous table stays in effect.
//
// The watch is placed on the parent directory rather than the file itself so
// that editors which replace the file via rename keep triggering events.
func Watch(ctx context.Context, t *Table, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(path)
	logger.Info("watching locales file", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := LoadFile(t, target); err != nil {
				logger.Warn("locales reload failed, keeping previous table",
					zap.Error(err))
				continue
			}
			logger.Info("locales reloaded", zap.Int("languages", t.Len()))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("locales watcher error", zap.Error(err))
		}
	}
}
