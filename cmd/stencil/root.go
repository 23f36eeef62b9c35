// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/open2b/stencil"
)

// Version is the version of stencil, set at build time.
var Version = "0.1.0"

// configKey is the context key of the configuration.
type configKey struct{}

// loggerKey is the context key of the logger.
type loggerKey struct{}

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// newRootCmd returns the root command.
func newRootCmd() *cobra.Command {

	var cfgFile, envFile string

	root := &cobra.Command{
		Use:   "stencil",
		Short: "Compile templates to Go source",
		Long: `Stencil compiles the templates of a directory to Go source files that render
them with the stencil runtime package.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := loadConfig(cfgFile, envFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if cfg.File != "" {
				logger.Debug("configuration file read", "file", cfg.File)
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "configuration file (default "+defaultConfigFile+")")
	flags.StringVar(&envFile, "env-file", ".env", "file with the environment variables")
	flags.StringP("source", "s", "", "directory of the templates")
	flags.StringP("package", "p", "", "package name of the generated files")
	flags.String("runtime-import", "", "import path of the runtime package")
	flags.StringSlice("imports", nil, "additional packages imported by the generated files")
	flags.StringSlice("extensions", nil, "extensions of the templates")
	flags.String("autoescape", "", "escaping strategy: name, html, html_attr, js, css, url, markdown or false")
	flags.Bool("strict-variables", false, "fail on undefined variables")
	flags.Bool("sandbox", false, "check the tags, filters and functions against the security policy")
	flags.Bool("profile", false, "generate profiling calls")
	flags.Bool("debug", false, "record the template lines in the generated code")
	flags.Bool("optimize", true, "optimize the generated code")
	flags.String("registry", "", "YAML file with additional filters, functions and tests")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")

	root.AddCommand(newBuildCmd(), newWatchCmd(), newInspectCmd(), newVersionCmd())

	return root
}

// configFromContext returns the configuration stored in ctx.
func configFromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configKey{}).(*Config)
	return cfg
}

// loggerFromContext returns the logger stored in ctx.
func loggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// printError prints err to w. Syntax errors are printed with their position
// and suggestions.
func printError(w io.Writer, err error) {
	var e *stencil.SyntaxError
	if errors.As(err, &e) {
		_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render("error:"), pathStyle.Render(fmt.Sprintf("%s:%d", e.Path, e.Line)))
		_, _ = fmt.Fprintf(w, "  %s\n", e.Msg)
		if len(e.Suggestions) > 0 {
			_, _ = fmt.Fprintf(w, "  %s\n", hintStyle.Render(fmt.Sprintf("Did you mean %q?", e.Suggestions[0])))
		}
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render("error:"), err)
}
