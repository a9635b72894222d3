package interp

import (
	"strings"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/value"
)

// param is one declared procedure parameter. Optional parameters are
// written "@name" in the PROC header and default to the empty string
// when the caller supplies fewer arguments than declared.
type param struct {
	name     string
	optional bool
}

func parseParams(raw string) []param {
	fields := strings.Fields(raw)
	params := make([]param, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "@") {
			params = append(params, param{name: strings.TrimPrefix(f, "@"), optional: true})
		} else {
			params = append(params, param{name: f})
		}
	}
	return params
}

// callProc runs a user-defined procedure: build a transient argv, push a
// new scope and call-stack frame, bind positional parameters, execute the
// body, consume a Return signal as the result, pop both.
func (i *Interpreter) callProc(p *Proc, args []string, callLine int) (string, error) {
	params := parseParams(p.Params)

	required := 0
	for _, pr := range params {
		if !pr.optional {
			required++
		}
	}
	if len(args) < required {
		return "", bclerr.New(bclerr.Arity, "%s requires at least %d argument(s), got %d", p.Name, required, len(args))
	}

	scope := newScope(p.Name, callLine)
	for idx, pr := range params {
		if idx < len(args) {
			scope.Locals[pr.name] = value.New(args[idx])
		} else {
			scope.Locals[pr.name] = value.Empty
		}
	}

	if err := i.pushScope(scope); err != nil {
		return "", bclerr.New(bclerr.Recursion, "%s", err.Error())
	}
	i.callStack = append(i.callStack, bclerr.StackFrame{ProcName: p.Name, Line: callLine})
	defer func() {
		i.callStack = i.callStack[:len(i.callStack)-1]
		i.popScope()
	}()

	sig, result, err := i.execItems(p.Body)
	if err != nil {
		if se, ok := err.(*bclerr.SourceError); ok && se.Stack == nil {
			se.Stack = append(bclerr.CallStack(nil), i.callStack...)
		}
		return "", err
	}
	switch sig.Kind {
	case Return:
		return sig.Value, nil
	case Exit:
		// Exit propagates through procedure calls to the top level.
		// callProc returns only (string, error), so it is surfaced as a
		// sentinel error that dispatch unwraps back into an Exit Signal.
		return "", &exitSignal{code: sig.ExitCode, value: result}
	default:
		return result, nil
	}
}

// exitSignal lets EXIT unwind through callProc's plain (string, error)
// return without adding a Signal return value to every call site that
// doesn't otherwise need one.
type exitSignal struct {
	code  int
	value string
}

func (e *exitSignal) Error() string { return "exit" }
