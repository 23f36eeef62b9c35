// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Stencil compiles templates to Go source.
//
// Usage:
//
//	stencil <command> [flags]
//
// The commands are:
//
//	build      compile the templates of the source directory
//	watch      compile the templates and recompile them when they change
//	inspect    print the rewritten tree of a template
//	version    print the version of stencil
//
// The configuration is read from stencil.yaml, from a .env file, from the
// STENCIL_* environment variables and from the flags, in order of
// precedence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
