// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyctl.
//
// go-keyctl is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package host is a small line-oriented scripting environment that the
// keyctl bindings are installed into. Each line is one procedure call:
//
//	# comment
//	ring = keyctl-join-session-keyring
//	k = add-key user greeting "hello world" $ring
//	keyctl-setperm $k KEY_POS_ALL|KEY_USR_VIEW
//	desc = keyctl-describe $k
//	print $k $desc
//
// Arguments are split with shell quoting rules and resolved by Resolve.
// Run evaluates a whole script.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/shlex"
	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
	"github.com/jeremyhahn/go-keyctl/pkg/logging"
	"github.com/jeremyhahn/go-keyctl/pkg/ratelimit"
	"github.com/jeremyhahn/go-keyctl/pkg/validation"
)

// Variadic as the optional count of a procedure accepts any number of
// trailing arguments.
const Variadic = -1

var (
	// ErrUnknownProcedure is returned when a statement names no procedure.
	ErrUnknownProcedure = errors.New("unknown procedure")

	// ErrUndefinedVariable is returned for a $reference to an unset variable.
	ErrUndefinedVariable = errors.New("undefined variable")

	// ErrRedefinition is returned when a constant or procedure name is
	// defined twice.
	ErrRedefinition = errors.New("already defined")

	// ErrArity is returned when a procedure gets the wrong number of
	// arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrSyntax is returned for a line that cannot be parsed.
	ErrSyntax = errors.New("syntax error")
)

// ProcedureInfo describes a registered procedure.
type ProcedureInfo struct {
	Name     string
	Required int
	Optional int
	Doc      string
}

type procedure struct {
	ProcedureInfo
	fn keyctl.Procedure
}

// Environment holds constants, procedures and variables. It implements
// keyctl.Registrar. An Environment is safe for concurrent use, although
// scripts sharing one see each other's variables.
type Environment struct {
	mu         sync.RWMutex
	constants  map[string]keyctl.Value
	procedures map[string]procedure
	variables  map[string]keyctl.Value

	out        io.Writer
	logger     *logging.Logger
	keepGoing  bool
	echo       bool
	limiter    *ratelimit.Limiter
	lookupUser func(name string) (int, error)
	lookupGrp  func(name string) (int, error)
}

// Option configures an Environment.
type Option func(*Environment)

// WithOutput sets where print and echoed results go.
func WithOutput(w io.Writer) Option {
	return func(e *Environment) {
		e.out = w
	}
}

// WithLogger sets the logger for statement records.
func WithLogger(l *logging.Logger) Option {
	return func(e *Environment) {
		e.logger = l
	}
}

// WithKeepGoing makes Run continue past failing statements and report
// every failure at the end.
func WithKeepGoing(keepGoing bool) Option {
	return func(e *Environment) {
		e.keepGoing = keepGoing
	}
}

// WithEcho makes Run print the result of every statement that is not an
// assignment and did not return nothing.
func WithEcho(echo bool) Option {
	return func(e *Environment) {
		e.echo = echo
	}
}

// WithRateLimit makes Run wait for the limiter, keyed by procedure name,
// before each statement.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(e *Environment) {
		e.limiter = l
	}
}

// WithIDLookup replaces the user and group database lookups behind the
// user-id and group-id builtins.
func WithIDLookup(userID, groupID func(name string) (int, error)) Option {
	return func(e *Environment) {
		e.lookupUser = userID
		e.lookupGrp = groupID
	}
}

// NewEnvironment creates an environment holding only the builtins.
func NewEnvironment(opts ...Option) *Environment {
	e := &Environment{
		constants:  make(map[string]keyctl.Value),
		procedures: make(map[string]procedure),
		variables:  make(map[string]keyctl.Value),
		out:        io.Discard,
		logger:     logging.Discard(),
		lookupUser: lookupUserID,
		lookupGrp:  lookupGroupID,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.installBuiltins()
	return e
}

// DefineConstant publishes an immutable named value.
func (e *Environment) DefineConstant(name string, value keyctl.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.constants[name]; exists {
		return fmt.Errorf("constant %s: %w", name, ErrRedefinition)
	}
	e.constants[name] = value
	return nil
}

// DefineProcedure publishes a procedure. optional may be Variadic.
func (e *Environment) DefineProcedure(name string, required, optional int, doc string, fn keyctl.Procedure) error {
	if required < 0 || optional < Variadic {
		return fmt.Errorf("procedure %s: invalid arity %d/%d", name, required, optional)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.procedures[name]; exists {
		return fmt.Errorf("procedure %s: %w", name, ErrRedefinition)
	}
	e.procedures[name] = procedure{
		ProcedureInfo: ProcedureInfo{Name: name, Required: required, Optional: optional, Doc: doc},
		fn:            fn,
	}
	return nil
}

// Constant returns the named constant.
func (e *Environment) Constant(name string) (keyctl.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.constants[name]
	return v, ok
}

// Variable returns the named variable.
func (e *Environment) Variable(name string) (keyctl.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.variables[name]
	return v, ok
}

// SetVariable binds a variable. Names follow validation.ValidateVariableName.
func (e *Environment) SetVariable(name string, value keyctl.Value) error {
	if err := validation.ValidateVariableName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variables[name] = value
	return nil
}

// Procedures lists the registered procedures sorted by name.
func (e *Environment) Procedures() []ProcedureInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]ProcedureInfo, 0, len(e.procedures))
	for _, p := range e.procedures {
		out = append(out, p.ProcedureInfo)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Apply calls a procedure with already resolved arguments.
func (e *Environment) Apply(ctx context.Context, name string, args ...keyctl.Value) (keyctl.Value, error) {
	e.mu.RLock()
	p, ok := e.procedures[name]
	e.mu.RUnlock()
	if !ok {
		return keyctl.Absent(), fmt.Errorf("%w: %s", ErrUnknownProcedure, validation.SanitizeForLog(name))
	}

	if len(args) < p.Required || (p.Optional != Variadic && len(args) > p.Required+p.Optional) {
		return keyctl.Absent(), fmt.Errorf("%s: %w: got %d, want %s", name, ErrArity, len(args), p.arity())
	}
	return p.fn(ctx, args...)
}

func (p procedure) arity() string {
	switch {
	case p.Optional == Variadic:
		return fmt.Sprintf("at least %d", p.Required)
	case p.Optional == 0:
		return fmt.Sprintf("%d", p.Required)
	default:
		return fmt.Sprintf("%d to %d", p.Required, p.Required+p.Optional)
	}
}

// Statement is one parsed line.
type Statement struct {
	Target    string // variable to assign, empty when none
	Procedure string
	Args      []string
}

// Parse splits a line into a statement. A blank or comment-only line
// yields a nil statement.
func Parse(line string) (*Statement, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	stmt := &Statement{}
	if len(tokens) >= 2 && tokens[1] == "=" {
		if err := validation.ValidateVariableName(tokens[0]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		stmt.Target = tokens[0]
		tokens = tokens[2:]
		if len(tokens) == 0 {
			return nil, fmt.Errorf("%w: nothing to assign to %s", ErrSyntax, stmt.Target)
		}
	}
	stmt.Procedure = tokens[0]
	stmt.Args = tokens[1:]
	return stmt, nil
}

// Eval parses and evaluates one line. A line holding a single reference
// ($var, a constant or a keyring shortcut) evaluates to its value.
func (e *Environment) Eval(ctx context.Context, line string) (keyctl.Value, error) {
	stmt, err := Parse(line)
	if err != nil || stmt == nil {
		return keyctl.Absent(), err
	}
	return e.Exec(ctx, stmt)
}

// Exec evaluates a parsed statement.
func (e *Environment) Exec(ctx context.Context, stmt *Statement) (keyctl.Value, error) {
	var (
		result keyctl.Value
		err    error
	)
	if len(stmt.Args) == 0 && e.isReference(stmt.Procedure) {
		result, err = e.Resolve(stmt.Procedure)
	} else {
		var args []keyctl.Value
		args, err = e.ResolveAll(stmt.Args)
		if err == nil {
			result, err = e.Apply(ctx, stmt.Procedure, args...)
		}
	}
	if err != nil {
		return keyctl.Absent(), err
	}

	if stmt.Target != "" {
		if err := e.SetVariable(stmt.Target, result); err != nil {
			return keyctl.Absent(), err
		}
	}
	return result, nil
}

func (e *Environment) isReference(token string) bool {
	if len(token) > 1 && token[0] == '$' {
		return true
	}
	if _, ok := keyringShortcuts[token]; ok {
		return true
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.procedures[token]; ok {
		return false
	}
	_, ok := e.constants[token]
	return ok
}
