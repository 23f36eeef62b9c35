// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/open2b/stencil"
)

// manifestFile is the name of the manifest written in the output directory.
const manifestFile = "stencil.manifest.json"

// Manifest describes the files generated by a build.
type Manifest struct {
	Package       string             `json:"package"`
	RuntimeImport string             `json:"runtime_import,omitempty"`
	Templates     []ManifestTemplate `json:"templates"`
}

// ManifestTemplate describes a compiled template.
type ManifestTemplate struct {
	Name      string      `json:"name"`
	File      string      `json:"file"`
	Embedded  int         `json:"embedded,omitempty"`
	DebugInfo map[int]int `json:"debug_info,omitempty"`
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [template...]",
		Short: "Compile the templates",
		Long: `Build compiles the templates of the source directory and writes the generated
Go files in the output directory. If templates are given, only those are
compiled and the other generated files are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)
			manifest, err := build(ctx, cfg, logger, args)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d templates compiled in %s\n",
				okStyle.Render("✓"), len(manifest.Templates), cfg.Output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "directory of the generated files")
	cmd.Flags().IntP("jobs", "j", 0, "number of templates compiled concurrently")
	cmd.Flags().Bool("format", true, "format the generated files")
	return cmd
}

// build compiles the named templates, or all the templates if names is
// empty, and writes the generated files and the manifest.
func build(ctx context.Context, cfg *Config, logger *slog.Logger, names []string) (*Manifest, error) {

	start := time.Now()

	opts, err := cfg.options(logger)
	if err != nil {
		return nil, err
	}

	fsys := os.DirFS(cfg.Source)
	partial := len(names) > 0
	if !partial {
		names, err = stencil.Glob(fsys, cfg.Extensions...)
		if err != nil {
			return nil, err
		}
	}
	for i, name := range names {
		names[i] = filepath.ToSlash(name)
	}

	// Two templates whose names differ only by the case or by a
	// punctuation character have the same file name.
	files := map[string]string{}
	for _, name := range names {
		file := stencil.FileName(name)
		if other, ok := files[file]; ok {
			return nil, fmt.Errorf("templates %q and %q have the same file name %s", other, name, file)
		}
		files[file] = name
	}

	units, err := stencil.CompileFS(ctx, fsys, names, cfg.Jobs, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return nil, err
	}

	manifest := &Manifest{Package: opts.Package, RuntimeImport: opts.RuntimeImport}
	if manifest.Package == "" {
		manifest.Package = "templates"
	}
	if partial {
		if prev, err := readManifest(cfg.Output); err == nil {
			manifest.Templates = prev.Templates
		}
	}
	for _, unit := range units {
		file := stencil.FileName(unit.Name)
		if err := os.WriteFile(filepath.Join(cfg.Output, file), unit.Code, 0o644); err != nil {
			return nil, err
		}
		logger.Debug("template compiled", "template", unit.Name, "file", file, "embedded", unit.Embedded)
		manifest.set(ManifestTemplate{
			Name:      unit.Name,
			File:      file,
			Embedded:  unit.Embedded,
			DebugInfo: unit.DebugInfo,
		})
	}

	if !partial {
		if err := removeStale(cfg.Output, files, logger); err != nil {
			return nil, err
		}
	}
	if err := writeManifest(cfg.Output, manifest); err != nil {
		return nil, err
	}

	logger.Info("build completed", "templates", len(units), "output", cfg.Output, "duration", time.Since(start))

	return manifest, nil
}

// set adds t to the manifest, replacing the template with the same name.
func (m *Manifest) set(t ManifestTemplate) {
	for i, tt := range m.Templates {
		if tt.Name == t.Name {
			m.Templates[i] = t
			return
		}
	}
	m.Templates = append(m.Templates, t)
}

// removeStale removes from dir the generated files that are not in files.
func removeStale(dir string, files map[string]string, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "stencil_") || !strings.HasSuffix(name, "_gen.go") {
			continue
		}
		if _, ok := files[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
		logger.Debug("stale file removed", "file", name)
	}
	return nil
}

// readManifest reads the manifest of the output directory dir.
func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestFile, err)
	}
	return &m, nil
}

// writeManifest writes m in the output directory dir.
func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644)
}
