// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"golang.org/x/mod/module"

	"github.com/open2b/stencil"
	"github.com/open2b/stencil/builtin"
)

// defaultConfigFile is the configuration file read when no file is given.
const defaultConfigFile = "stencil.yaml"

// envPrefix is the prefix of the environment variables of the configuration.
const envPrefix = "STENCIL_"

// escapeStrategies are the valid values of the autoescape key besides
// "name" and "false".
var escapeStrategies = []string{"css", "html", "html_attr", "js", "markdown", "url"}

// Config is the configuration of the commands.
type Config struct {
	Source          string    `koanf:"source"`
	Output          string    `koanf:"output"`
	Package         string    `koanf:"package"`
	RuntimeImport   string    `koanf:"runtime_import"`
	Imports         []string  `koanf:"imports"`
	Extensions      []string  `koanf:"extensions"`
	Autoescape      string    `koanf:"autoescape"`
	StrictVariables bool      `koanf:"strict_variables"`
	Sandbox         bool      `koanf:"sandbox"`
	Profile         bool      `koanf:"profile"`
	Debug           bool      `koanf:"debug"`
	Optimize        bool      `koanf:"optimize"`
	Format          bool      `koanf:"format"`
	Registry        string    `koanf:"registry"`
	Jobs            int       `koanf:"jobs"`
	Log             LogConfig `koanf:"log"`

	// File is the configuration file that has been read, if any.
	File string `koanf:"-"`
}

// LogConfig is the configuration of the logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaults are the default values of the configuration.
var defaults = map[string]interface{}{
	"source":           "templates",
	"output":           "views",
	"package":          "views",
	"runtime_import":   "",
	"extensions":       stencil.TemplateExtensions,
	"autoescape":       "name",
	"strict_variables": false,
	"sandbox":          false,
	"profile":          false,
	"debug":            false,
	"optimize":         true,
	"format":           true,
	"registry":         "",
	"jobs":             0,
	"log.level":        "info",
	"log.format":       "text",
}

// loadConfig loads the configuration. The values of the flags take
// precedence over the environment, the environment over the configuration
// file and the file over the defaults. The variables of envFile are added
// to the environment, if the file exists.
func loadConfig(cfgFile, envFile string, flags *pflag.FlagSet) (*Config, error) {

	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("cannot load the defaults: %w", err)
	}

	// 2. Configuration file.
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = defaultConfigFile
	}
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cannot read the configuration file %s: %w", cfgFile, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot read the configuration file: %w", err)
	} else {
		cfgFile = ""
	}

	// 3. Environment. STENCIL_LOG_LEVEL is the key log.level.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cannot read the env file %s: %w", envFile, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("cannot load the environment: %w", err)
	}

	// 4. Flags that have been set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKey(f.Name)
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("cannot load the flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cannot decode the configuration: %w", err)
	}
	cfg.File = cfgFile
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey returns the configuration key of an environment variable.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

// flagKey returns the configuration key of a flag, and false if the flag is
// not a configuration flag.
func flagKey(name string) (string, bool) {
	switch name {
	case "config", "env-file", "help", "dump", "raw":
		return "", false
	case "log-level":
		return "log.level", true
	case "log-format":
		return "log.format", true
	}
	return strings.ReplaceAll(name, "-", "_"), true
}

// validate validates the configuration.
func (cfg *Config) validate() error {
	if cfg.Source == "" {
		return errors.New("the source directory cannot be empty")
	}
	if cfg.Output == "" {
		return errors.New("the output directory cannot be empty")
	}
	if cfg.RuntimeImport != "" {
		if err := module.CheckImportPath(cfg.RuntimeImport); err != nil {
			return fmt.Errorf("invalid runtime import path: %w", err)
		}
	}
	if a := cfg.Autoescape; a != "name" && a != "false" && a != "" && !slices.Contains(escapeStrategies, a) {
		return fmt.Errorf("invalid autoescape %q (valid ones: name, false, %s)", a, strings.Join(escapeStrategies, ", "))
	}
	if len(cfg.Extensions) == 0 {
		return errors.New("no template extensions")
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("invalid number of jobs %d", cfg.Jobs)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if f := cfg.Log.Format; f != "text" && f != "json" {
		return fmt.Errorf("invalid log format %q (valid ones: text, json)", f)
	}
	return nil
}

// options returns the compilation options.
func (cfg *Config) options(logger *slog.Logger) (stencil.Options, error) {
	registry := builtin.Default()
	if cfg.Registry != "" {
		f, err := os.Open(cfg.Registry)
		if err != nil {
			return stencil.Options{}, err
		}
		err = registry.LoadYAML(f)
		_ = f.Close()
		if err != nil {
			return stencil.Options{}, fmt.Errorf("%s: %w", cfg.Registry, err)
		}
		logger.Debug("registry loaded", "file", cfg.Registry)
	}
	opts := stencil.Options{
		Registry:        registry,
		Logger:          logger,
		Package:         cfg.Package,
		RuntimeImport:   cfg.RuntimeImport,
		Imports:         cfg.Imports,
		StrictVariables: cfg.StrictVariables,
		Sandbox:         cfg.Sandbox,
		Profile:         cfg.Profile,
		Debug:           cfg.Debug,
		NoFormat:        !cfg.Format,
	}
	switch cfg.Autoescape {
	case "name":
		opts.Escape = stencil.NameStrategy
	case "false", "":
		opts.NoEscape = true
	default:
		opts.Escape = stencil.StaticStrategy(cfg.Autoescape)
	}
	if !cfg.Optimize {
		opts.NoOptimize = stencil.OptimizeAll
	}
	return opts, nil
}

// parseLevel parses a log level.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// newLogger returns a logger that writes to w as configured by cfg.
func newLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
