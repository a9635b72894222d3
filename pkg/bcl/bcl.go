// Package bcl is the embeddable engine API: the surface a host Go program
// uses to run BCL source without going through the cmd/bcl CLI.
package bcl

import (
	"io"

	"github.com/relang/bcl/internal/blockparser"
	"github.com/relang/bcl/internal/interp"
)

// Option configures an Engine at construction time. It wraps
// interp.Option so callers never need to import the internal package.
type Option func(*interp.Interpreter)

// WithArgv sets the script argv exposed to the ARGV builtin.
func WithArgv(argv []string) Option { return Option(interp.WithArgv(argv)) }

// WithStdout redirects PUTS and other default output.
func WithStdout(w io.Writer) Option { return Option(interp.WithOutput(w)) }

// WithStdin sets the interpreter's input reader. No built-in reads from
// it: READ reads only from an OPENed file handle.
func WithStdin(r io.Reader) Option { return Option(interp.WithInput(r)) }

// WithRecursionLimit overrides the scope-stack depth bound.
func WithRecursionLimit(n int) Option { return Option(interp.WithRecursionLimit(n)) }

// Result is the outcome of one Eval call.
type Result struct {
	// Value is the last evaluated command's result, or the value RETURN
	// or EXIT carried if the program ended that way.
	Value string
	// ExitCode is 0 unless the program ran EXIT.
	ExitCode int
}

// Engine is a single, independently-scoped BCL interpreter instance.
type Engine struct {
	it *interp.Interpreter
}

// New builds an Engine ready to Eval source.
func New(opts ...Option) *Engine {
	ivOpts := make([]interp.Option, len(opts))
	for i, o := range opts {
		ivOpts[i] = interp.Option(o)
	}
	return &Engine{it: interp.New(ivOpts...)}
}

// Eval parses src as a full program and runs it to completion against
// this Engine's persistent global/procedure state, so successive Eval
// calls see each other's SET/PROC definitions.
func (e *Engine) Eval(src string) (Result, error) {
	root, err := blockparser.Parse(src)
	if err != nil {
		return Result{}, err
	}
	value, exitCode, err := e.it.Run(root)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: value, ExitCode: exitCode}, nil
}

// RegisterCommand exposes a native Go function as a command callable from
// BCL source, the same table a loaded extension's BclExtensionInit
// populates.
func (e *Engine) RegisterCommand(name string, fn func(args []string) (string, error)) {
	e.it.RegisterCommand(name, fn)
}

// LoadExtension loads a compiled extension plugin by path.
func (e *Engine) LoadExtension(path string) error {
	_, err := e.it.EvalSequence("LOAD " + path)
	return err
}

// GetVar reads a global variable.
func (e *Engine) GetVar(name string) (string, bool) {
	return e.it.GetVar(name)
}

// SetVar writes a global variable.
func (e *Engine) SetVar(name, value string) {
	e.it.SetVar(name, value)
}
