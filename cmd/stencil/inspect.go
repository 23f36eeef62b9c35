// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/ast/astutil"
	"github.com/open2b/stencil/internal/compiler"
)

func newInspectCmd() *cobra.Command {
	var raw, dump bool
	cmd := &cobra.Command{
		Use:   "inspect <template>",
		Short: "Print the tree of a template",
		Long: `Inspect prints the blocks, the macros and the embedded templates of a
template. With --dump it also prints the tree after the rewriting passes, or
as parsed with --raw. The template name is relative to the source directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			opts, err := cfg.options(loggerFromContext(ctx))
			if err != nil {
				return err
			}
			name := path.Clean(filepath.ToSlash(args[0]))
			src, err := os.ReadFile(filepath.Join(cfg.Source, filepath.FromSlash(name)))
			if err != nil {
				return err
			}
			source := ast.Source{Name: name, Code: string(src), Path: name}
			var modules []*ast.Module
			if raw {
				tree, err := compiler.ParseTemplate(source, opts.Registry, opts.Logger)
				if err != nil {
					return err
				}
				modules = flatten(tree, nil)
			} else {
				modules, err = compiler.Rewrite(source, opts)
				if err != nil {
					return err
				}
			}
			return inspect(cmd.OutOrStdout(), modules, dump)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "do not apply the rewriting passes")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the tree")
	return cmd
}

// inspect writes to w a table with the definitions of modules and, if dump
// is true, the dump of their trees.
func inspect(w io.Writer, modules []*ast.Module, dump bool) error {

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Module", "Kind", "Name", "Line"})
	for _, m := range modules {
		module := moduleName(m)
		if m.Parent != nil {
			t.AppendRow(table.Row{module, "extends", m.Parent.String(), m.Pos()})
		}
		for _, tr := range m.Traits {
			t.AppendRow(table.Row{module, "use", tr.Template.String(), tr.Pos()})
		}
		for _, b := range m.Blocks {
			t.AppendRow(table.Row{module, "block", b.Name, b.Pos()})
		}
		for _, mc := range m.Macros {
			params := make([]string, len(mc.Arguments))
			for i, p := range mc.Arguments {
				params[i] = p.Name
			}
			t.AppendRow(table.Row{module, "macro", mc.Name + "(" + strings.Join(params, ", ") + ")", mc.Pos()})
		}
		for _, e := range m.Embedded {
			t.AppendRow(table.Row{module, "embed", moduleName(e), e.Pos()})
		}
	}
	t.Render()

	if !dump {
		return nil
	}
	for _, m := range modules {
		if _, err := fmt.Fprintf(w, "\n%s\n", moduleName(m)); err != nil {
			return err
		}
		// Embedded modules are dumped separately.
		embedded := m.Embedded
		m.Embedded = nil
		err := astutil.Dump(w, m)
		m.Embedded = embedded
		if err != nil {
			return err
		}
	}
	return nil
}

// flatten appends to modules m and, recursively, its embedded modules.
func flatten(m *ast.Module, modules []*ast.Module) []*ast.Module {
	modules = append(modules, m)
	for _, e := range m.Embedded {
		modules = flatten(e, modules)
	}
	return modules
}

// moduleName returns the name of a module in the inspect output.
func moduleName(m *ast.Module) string {
	if m.Index == 0 {
		return m.Source.Name
	}
	return fmt.Sprintf("%s#%d", m.Source.Name, m.Index)
}
