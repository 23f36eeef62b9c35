// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open2b/stencil"
)

func writeFile(t *testing.T, name, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(data), 0o644))
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	cmd := newRootCmd()
	build, _, err := cmd.Find([]string{"build"})
	require.NoError(t, err)
	flags := build.Flags()
	flags.AddFlagSet(cmd.PersistentFlags())
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig("", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "templates", cfg.Source)
	assert.Equal(t, "views", cfg.Output)
	assert.Equal(t, "views", cfg.Package)
	assert.Equal(t, "name", cfg.Autoescape)
	assert.Equal(t, stencil.TemplateExtensions, cfg.Extensions)
	assert.True(t, cfg.Optimize)
	assert.True(t, cfg.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.File)
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "stencil.yaml", `
source: tpl
output: gen
package: pages
sandbox: true
jobs: 2
log:
  level: warn
`)
	writeFile(t, ".env", "STENCIL_OUTPUT=envgen\nSTENCIL_LOG_FORMAT=json\n")
	t.Setenv("STENCIL_PACKAGE", "envpages")
	t.Cleanup(func() {
		_ = os.Unsetenv("STENCIL_OUTPUT")
		_ = os.Unsetenv("STENCIL_LOG_FORMAT")
	})

	cfg, err := loadConfig("", ".env", testFlags(t, "--package", "flagpages", "--strict-variables", "--log-level", "debug"))
	require.NoError(t, err)
	assert.Equal(t, "stencil.yaml", cfg.File)
	assert.Equal(t, "tpl", cfg.Source)
	assert.Equal(t, "envgen", cfg.Output)
	assert.Equal(t, "flagpages", cfg.Package)
	assert.True(t, cfg.Sandbox)
	assert.True(t, cfg.StrictVariables)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Optimize, "unchanged flags must not override the defaults")
}

func TestLoadConfigErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := loadConfig("missing.yaml", "", nil)
	assert.Error(t, err)

	_, err = loadConfig("", "missing.env", nil)
	assert.NoError(t, err)

	tests := []string{
		"autoescape: xml\n",
		"runtime_import: 'a b'\n",
		"jobs: -1\n",
		"log:\n  level: loud\n",
		"log:\n  format: xml\n",
		"source: ''\n",
		"extensions: []\n",
	}
	for _, data := range tests {
		writeFile(t, "bad.yaml", data)
		_, err := loadConfig("bad.yaml", "", nil)
		assert.Error(t, err, "configuration %q", data)
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", envKey("STENCIL_LOG_LEVEL"))
	assert.Equal(t, "runtime_import", envKey("STENCIL_RUNTIME_IMPORT"))
	assert.Equal(t, "strict_variables", envKey("STENCIL_STRICT_VARIABLES"))
}

func TestConfigOptions(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "registry.yaml")
	writeFile(t, registry, `
filters:
  - name: money
    func: shop.Money
    params:
      - name: value
      - name: currency
        default: EUR
`)
	logger := newLogger(os.Stderr, LogConfig{Level: "error"})

	tests := []struct {
		autoescape string
		code       string
	}{
		{"name", `FilterEscape(t.Env, ctx["a"], "html", nil, true)`},
		{"js", `FilterEscape(t.Env, ctx["a"], "js", nil, true)`},
		{"false", `w.Print(ctx["a"])`},
	}
	for _, test := range tests {
		cfg := &Config{Package: "views", Autoescape: test.autoescape, Optimize: true, Registry: registry}
		opts, err := cfg.options(logger)
		require.NoError(t, err)
		require.NotNil(t, opts.Registry.Filter("money"))
		opts.NoFormat = true
		unit, err := stencil.Compile("index.html", []byte(`{{ a }}{{ 1|money }}`), opts)
		require.NoError(t, err, "autoescape %q", test.autoescape)
		assert.Contains(t, string(unit.Code), test.code, "autoescape %q", test.autoescape)
	}

	cfg := &Config{Autoescape: "html", Optimize: false, Format: false}
	opts, err := cfg.options(logger)
	require.NoError(t, err)
	assert.Equal(t, stencil.OptimizeAll, opts.NoOptimize)
	assert.True(t, opts.NoFormat)

	cfg.Registry = filepath.Join(dir, "missing.yaml")
	_, err = cfg.options(logger)
	assert.Error(t, err)
}
