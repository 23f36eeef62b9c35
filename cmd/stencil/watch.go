// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounce is the time waited after a change before rebuilding, so that the
// changes of a save are compiled together.
const debounce = 100 * time.Millisecond

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Compile the templates when they change",
		Long: `Watch compiles the templates of the source directory and compiles them again
every time a template is created, changed or removed. It stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)
			w, err := newSourceWatcher(cfg.Source, cfg.Extensions)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.run(ctx, logger, func() error {
				_, err := build(ctx, cfg, logger, nil)
				if err != nil && ctx.Err() == nil {
					printError(cmd.ErrOrStderr(), err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "directory of the generated files")
	cmd.Flags().IntP("jobs", "j", 0, "number of templates compiled concurrently")
	cmd.Flags().Bool("format", true, "format the generated files")
	return cmd
}

// sourceWatcher watches the templates of a source directory.
type sourceWatcher struct {
	root       string
	extensions []string
	watcher    *fsnotify.Watcher
}

// newSourceWatcher returns a watcher of the directory root and of its
// subdirectories.
func newSourceWatcher(root string, extensions []string) (*sourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &sourceWatcher{root: root, extensions: extensions, watcher: watcher}
	if err := w.addTree(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories, except the hidden ones.
func (w *sourceWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// isTemplate reports whether the file with the given path is a template.
func (w *sourceWatcher) isTemplate(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	for _, ext := range w.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// run calls build and then calls it again after each change, until ctx is
// done. It returns nil when ctx is canceled.
func (w *sourceWatcher) run(ctx context.Context, logger *slog.Logger, build func() error) error {

	if err := build(); err != nil {
		return err
	}
	logger.Info("watching templates", "dir", w.root)

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("cannot watch directory", "dir", event.Name, "error", err)
					}
					timer.Reset(debounce)
					continue
				}
			}
			if event.Op == fsnotify.Chmod || !w.isTemplate(event.Name) {
				continue
			}
			logger.Debug("template changed", "file", filepath.ToSlash(event.Name), "op", event.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		case <-timer.C:
			if err := build(); err != nil {
				return err
			}
		}
	}
}

// Close stops watching.
func (w *sourceWatcher) Close() error {
	return w.watcher.Close()
}
