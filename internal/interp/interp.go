// Package interp implements the evaluator/dispatcher and scoped
// variable/procedure model: walking the block tree built by blockparser,
// resolving names against a flat global/local scope model, and
// dispatching lines to built-in commands, user procedures, or loaded
// extension commands.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/blockast"
	"github.com/relang/bcl/internal/event"
	"github.com/relang/bcl/internal/extension"
	"github.com/relang/bcl/internal/value"
)

// Proc is a user-defined procedure: name, declared parameter list (raw,
// as written after WITH), and body block.
type Proc struct {
	Name   string
	Params string
	Body   *blockast.Block
}

// ExtensionFunc is the signature an extension-loaded command is invoked
// through.
type ExtensionFunc func(interp *Interpreter, args []string) (string, error)

// BuiltinFunc is the signature of a built-in command.
type BuiltinFunc func(interp *Interpreter, args []string) (string, Signal, error)

// FileHandle is an opaque "file<N>" name bound to an open OS stream.
type FileHandle struct {
	Name string
	F    *os.File
	Mode string
	EOF  bool

	reader *bufio.Reader
}

// Interpreter owns all mutable runtime state: the global table,
// procedure/extension tables, scope stack, file handles, script argv,
// last-error buffer and recursion counter. It has no concurrency of its
// own — it is driven by exactly one logical flow of control, including
// event-loop callbacks re-entering it.
type Interpreter struct {
	Globals map[string]value.Value

	Procs      map[string]*Proc
	Builtins   map[string]BuiltinFunc
	Extensions map[string]ExtensionFunc

	scopes []*Scope

	// callStack mirrors the scope stack one entry behind: it only grows
	// and shrinks around PROC calls, recording the name and calling line
	// of each active invocation for error tracebacks and INFO STACK.
	callStack bclerr.CallStack

	Files      map[string]*FileHandle
	nextFileID int

	Argv []string

	LastError string

	RecursionLimit int

	Out io.Writer
	In  io.Reader

	// loadedExtensions is neither written nor read; the extensions
	// Registry below records plugin paths in load order for reverse-order
	// teardown.
	loadedExtensions []string

	// stopEventLoop is neither written nor read; EVENT STOP and EVENT LOOP
	// use the event.Loop's own stop flag, observed at the top of each
	// iteration.
	stopEventLoop bool

	loop       *event.Loop
	extensions extension.Registry

	trace io.Writer
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithArgv sets the script argv exposed to the ARGV builtin.
func WithArgv(argv []string) Option {
	return func(i *Interpreter) { i.Argv = argv }
}

// WithOutput redirects PUTS and default diagnostic output.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.Out = w }
}

// WithInput sets Interpreter.In. No built-in reads from it: READ reads
// only from an OPENed file handle.
func WithInput(r io.Reader) Option {
	return func(i *Interpreter) { i.In = r }
}

// WithTrace prints each dispatched command to w before it runs.
func WithTrace(w io.Writer) Option {
	return func(i *Interpreter) { i.trace = w }
}

// WithRecursionLimit overrides the default scope-stack depth bound.
func WithRecursionLimit(n int) Option {
	return func(i *Interpreter) { i.RecursionLimit = n }
}

// New builds an Interpreter with its built-in command table installed.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		Globals:        make(map[string]value.Value),
		Procs:          make(map[string]*Proc),
		Extensions:     make(map[string]ExtensionFunc),
		Files:          make(map[string]*FileHandle),
		RecursionLimit: 128,
		Out:            os.Stdout,
		In:             os.Stdin,
	}
	i.Builtins = defaultBuiltins()
	i.loop = event.New(i)
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RunCallback implements event.Runner: firing a registered procedure by
// name with no arguments when a watched fd is ready or a timer expires.
func (i *Interpreter) RunCallback(name string) error {
	p, ok := i.Procs[strings.ToUpper(name)]
	if !ok {
		return fmt.Errorf("event callback %q: no such procedure", name)
	}
	_, err := i.callProc(p, nil, 0)
	return err
}

// RegisterCommand implements extension.Host: a loaded extension's command
// becomes callable exactly like a built-in, consulted after the user
// procedure table per dispatch order.
func (i *Interpreter) RegisterCommand(name string, fn func(args []string) (string, error)) {
	i.Extensions[strings.ToUpper(name)] = func(_ *Interpreter, args []string) (string, error) {
		return fn(args)
	}
}

// SetVar implements extension.Host's write half; GetVar (read) is already
// exposed for lexer.Substituter.
func (i *Interpreter) SetVar(name, text string) {
	i.setVar(name, text)
}

func (i *Interpreter) currentScope() *Scope {
	if len(i.scopes) == 0 {
		return nil
	}
	return i.scopes[len(i.scopes)-1]
}

func (i *Interpreter) pushScope(s *Scope) error {
	if len(i.scopes) >= i.RecursionLimit {
		return fmt.Errorf("recursion limit (%d) exceeded", i.RecursionLimit)
	}
	i.scopes = append(i.scopes, s)
	return nil
}

func (i *Interpreter) popScope() {
	i.scopes = i.scopes[:len(i.scopes)-1]
}

func (i *Interpreter) allocFileHandle() string {
	i.nextFileID++
	return fmt.Sprintf("file%d", i.nextFileID)
}
