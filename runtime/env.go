// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Func is a filter, a function or a test registered in an environment and
// called by name. For filters and tests, the first argument is the filtered
// or tested value.
type Func func(env *Env, ctx Context, args ...interface{}) interface{}

// Options are the options of an environment.
type Options struct {

	// Charset is the charset of the output. If empty, it is "UTF-8".
	Charset string

	// StrictVariables makes an error the access to an attribute that does not
	// exist.
	StrictVariables bool

	// Globals are the global variables.
	Globals map[string]interface{}

	// Constants are the values of the constant function and test.
	Constants map[string]interface{}

	// Filters, Functions and Tests are the callables without a Go function
	// in the generated code.
	Filters   map[string]Func
	Functions map[string]Func
	Tests     map[string]Func

	// Policy is the security policy of the sandbox.
	Policy *SecurityPolicy

	// Sandboxed enables the sandbox for all the templates.
	Sandboxed bool

	// Profiler records the profile of the templates compiled with profiling.
	Profiler *Profiler

	// Logger logs the deprecation notices. If nil, nothing is logged.
	Logger *slog.Logger

	// DateFormat is the default format of the date filter, made of the
	// letters d, D, j, l, m, M, n, F, Y, y, H, G, h, g, i, s, A, a and the
	// others of the date formats. If empty, it is "F j, Y H:i".
	DateFormat string

	// Timezone is the default location of the date filter. If nil, it is
	// time.Local.
	Timezone *time.Location

	// Decimals, DecimalPoint and ThousandsSeparator are the defaults of the
	// number_format filter. DecimalPoint defaults to "." and
	// ThousandsSeparator to ",".
	Decimals           int
	DecimalPoint       string
	ThousandsSeparator string

	// Seed, if not zero, is the seed of the random function.
	Seed uint64
}

// Env is the environment in which templates are rendered. An Env can be
// used concurrently by multiple goroutines.
type Env struct {
	charset   string
	strict    bool
	globals   Context
	constants map[string]interface{}
	filters   map[string]Func
	functions map[string]Func
	tests     map[string]Func
	policy    *SecurityPolicy
	sandboxed bool
	sandbox   atomic.Int32 // number of sandbox tags in execution.
	profiler  *Profiler
	logger    *slog.Logger

	dateFormat   string
	location     *time.Location
	decimals     int
	decimalPoint string
	thousandsSep string

	randMu sync.Mutex
	rand   *rand.Rand

	mu    sync.Mutex
	types map[string]Unit // loaded units by type name.
}

// NewEnv returns a new environment.
func NewEnv(opts *Options) *Env {
	if opts == nil {
		opts = &Options{}
	}
	env := &Env{
		charset:      opts.Charset,
		strict:       opts.StrictVariables,
		globals:      Context{},
		constants:    map[string]interface{}{},
		filters:      map[string]Func{},
		functions:    map[string]Func{},
		tests:        map[string]Func{"defined": testDefined},
		policy:       opts.Policy,
		sandboxed:    opts.Sandboxed,
		profiler:     opts.Profiler,
		logger:       opts.Logger,
		dateFormat:   opts.DateFormat,
		location:     opts.Timezone,
		decimals:     opts.Decimals,
		decimalPoint: opts.DecimalPoint,
		thousandsSep: opts.ThousandsSeparator,
		types:        map[string]Unit{},
	}
	if env.charset == "" {
		env.charset = "UTF-8"
	}
	if env.logger == nil {
		env.logger = slog.New(slog.DiscardHandler)
	}
	if env.dateFormat == "" {
		env.dateFormat = "F j, Y H:i"
	}
	if env.location == nil {
		env.location = time.Local
	}
	if env.decimalPoint == "" {
		env.decimalPoint = "."
	}
	if env.thousandsSep == "" {
		env.thousandsSep = ","
	}
	if opts.Seed != 0 {
		env.rand = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}
	for k, v := range opts.Globals {
		env.globals[k] = v
	}
	for k, v := range opts.Constants {
		env.constants[k] = v
	}
	for k, f := range opts.Filters {
		env.filters[k] = f
	}
	for k, f := range opts.Functions {
		env.functions[k] = f
	}
	for k, f := range opts.Tests {
		env.tests[k] = f
	}
	return env
}

func testDefined(env *Env, ctx Context, args ...interface{}) interface{} {
	return len(args) > 0 && args[0] != nil
}

// Render renders the template name with the variables vars. The rendering
// is stopped if ctx is done.
func (env *Env) Render(ctx context.Context, w io.Writer, name string, vars map[string]interface{}) (err error) {
	u, err := env.Load(name)
	if err != nil {
		return err
	}
	out := NewWriter(ctx, w)
	defer func() {
		if r := recover(); r != nil {
			err = env.convertPanic(r)
		}
	}()
	u.Base().Render(out, Context(vars), nil)
	out.Flush()
	return out.Err()
}

// RenderString renders the template name and returns the output.
func (env *Env) RenderString(name string, vars map[string]interface{}) (string, error) {
	var b strings.Builder
	err := env.Render(context.Background(), &b, name, vars)
	return b.String(), err
}

// Load loads the template name.
func (env *Env) Load(name string) (u Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = env.convertPanic(r)
		}
	}()
	return env.loadUnit(name, 0), nil
}

// loadUnit loads a unit. It panics with a *NotFoundError if the unit does
// not exist.
func (env *Env) loadUnit(name string, index int) Unit {
	f, ok := factory(name, index)
	if !ok {
		panic(&NotFoundError{Name: name})
	}
	u := f(env)
	typ := reflect.TypeOf(u)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	env.mu.Lock()
	if _, ok := env.types[typ.Name()]; !ok {
		env.types[typ.Name()] = u
	}
	env.mu.Unlock()
	return u
}

// loadEmbedded loads the template embedded at index in the template name.
func (env *Env) loadEmbedded(name string, index int) Unit {
	return env.loadUnit(name, index)
}

// unitOf returns a unit whose type has the method function.
func (env *Env) unitOf(function string) (Unit, bool) {
	env.mu.Lock()
	defer env.mu.Unlock()
	for typ, u := range env.types {
		if strings.Contains(function, "(*"+typ+").") {
			return u, true
		}
	}
	return nil, false
}

// exists reports whether the template name exists.
func (env *Env) exists(name string) bool {
	_, ok := factory(name, 0)
	return ok
}

// loadValue loads the template of a value: a unit, a template name or an
// array of names, in which case the first existing template is loaded.
func (env *Env) loadValue(v interface{}) (Unit, error) {
	switch v := v.(type) {
	case Unit:
		return v, nil
	case string, Safe:
		name := String(v)
		if !env.exists(name) {
			return nil, &NotFoundError{Name: name}
		}
		return env.loadUnit(name, 0), nil
	case nil:
		return nil, errorf("The template name cannot be null.")
	}
	if m, ok := toMap(v); ok {
		names := make([]string, 0, m.Len())
		for _, e := range m.values {
			if u, ok := e.(Unit); ok {
				return u, nil
			}
			name := String(e)
			if env.exists(name) {
				return env.loadUnit(name, 0), nil
			}
			names = append(names, name)
		}
		return nil, &NotFoundError{Name: strings.Join(names, ", ")}
	}
	return nil, errorf("Invalid template name of type %s.", typeName(v))
}

// load is like loadValue but it panics on error.
func (env *Env) load(v interface{}) Unit {
	u, err := env.loadValue(v)
	if err != nil {
		panic(err)
	}
	return u
}

// MergeGlobals returns a new context with the globals and the variables of
// ctx. The variables of ctx take precedence.
func (env *Env) MergeGlobals(ctx Context) Context {
	merged := make(Context, len(env.globals)+len(ctx))
	for k, v := range env.globals {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return merged
}

// Charset returns the charset of the output.
func (env *Env) Charset() string {
	return env.charset
}

// StrictVariables reports whether the access to attributes that do not
// exist is an error.
func (env *Env) StrictVariables() bool {
	return env.strict
}

// Profiler returns the profiler, or nil if the environment has no profiler.
func (env *Env) Profiler() *Profiler {
	return env.profiler
}

// Logger returns the logger.
func (env *Env) Logger() *slog.Logger {
	return env.logger
}

// IsSandboxed reports whether the sandbox is enabled.
func (env *Env) IsSandboxed() bool {
	return env.sandboxed || env.sandbox.Load() > 0
}

// EnableSandbox enables the sandbox and returns the function that
// disables it.
func (env *Env) EnableSandbox() func() {
	env.sandbox.Add(1)
	return func() { env.sandbox.Add(-1) }
}

// CheckSecurity checks the usages against the security policy if the
// sandbox is enabled. It returns the line and the error of the first
// violation.
func (env *Env) CheckSecurity(tags, filters, functions []Usage) (int, error) {
	if !env.IsSandboxed() {
		return 0, nil
	}
	policy := env.policy
	if policy == nil {
		policy = &SecurityPolicy{}
	}
	return policy.CheckSecurity(tags, filters, functions)
}

// EnsureToStringAllowed checks, if the sandbox is enabled, that the String
// method of v can be called to print it. It returns v.
func (env *Env) EnsureToStringAllowed(v interface{}) interface{} {
	if !env.IsSandboxed() {
		return v
	}
	env.ensureToStringAllowed(v)
	return v
}

func (env *Env) ensureToStringAllowed(v interface{}) {
	switch v := v.(type) {
	case nil, string, Safe, bool, int, float64, error:
		return
	case fmt.Stringer:
		if _, ok := v.(Unit); ok {
			return
		}
		policy := env.policy
		if policy == nil {
			policy = &SecurityPolicy{}
		}
		if err := policy.CheckMethodAllowed(v, "String"); err != nil {
			panic(err)
		}
		return
	}
	if m, ok := toMap(v); ok {
		for _, e := range m.values {
			env.ensureToStringAllowed(e)
		}
	}
}

// callable returns the callable name of the given kind.
func callable(callables map[string]Func, kind, name string) Func {
	f, ok := callables[name]
	if !ok {
		panic(errorf("Unknown %q %s.", name, kind))
	}
	return f
}

// CallFilter calls the filter name.
func (env *Env) CallFilter(name string, ctx Context, args ...interface{}) interface{} {
	return callable(env.filters, "filter", name)(env, ctx, args...)
}

// CallFunction calls the function name.
func (env *Env) CallFunction(name string, ctx Context, args ...interface{}) interface{} {
	return callable(env.functions, "function", name)(env, ctx, args...)
}

// CallTest calls the test name.
func (env *Env) CallTest(name string, ctx Context, args ...interface{}) interface{} {
	return Bool(callable(env.tests, "test", name)(env, ctx, args...))
}

// Constant returns the value of the constant name.
func (env *Env) Constant(name string) (interface{}, bool) {
	v, ok := env.constants[name]
	return v, ok
}

// HasConstant reports whether the constant with the given name is defined.
func (env *Env) HasConstant(name interface{}) bool {
	_, ok := env.constants[String(name)]
	return ok
}

// intN returns a random integer in [0, n).
func (env *Env) intN(n int) int {
	if env.rand == nil {
		return rand.IntN(n)
	}
	env.randMu.Lock()
	defer env.randMu.Unlock()
	return env.rand.IntN(n)
}
