package interp

import (
	"strings"

	"github.com/relang/bcl/internal/value"
)

// GetVar implements lexer.Substituter: name resolution on read — local
// scope first if present, else global, else unset.
func (i *Interpreter) GetVar(name string) (string, bool) {
	v, ok := i.getVarValue(name)
	return v.String(), ok
}

// getVarValue resolves name the same way GetVar does, but hands back the
// stored value.Value itself rather than its text, so a numeric read (INCR,
// a loop condition) reuses the cached parse instead of re-parsing text
// GetVar already has in hand.
func (i *Interpreter) getVarValue(name string) (value.Value, bool) {
	if s := i.currentScope(); s != nil {
		if v, ok := s.Locals[name]; ok {
			return v, true
		}
	}
	v, ok := i.Globals[name]
	return v, ok
}

// EvalSequence implements lexer.Substituter: evaluating a bracketed
// command sequence ([...]) by running it through the same tokenize+
// dispatch pipeline as a top-level line.
func (i *Interpreter) EvalSequence(text string) (string, error) {
	result, _, err := i.evalLine(text, 0)
	return result, err
}

// setVar implements name resolution on write for a raw string result (the
// common case: SET, command substitution, loop variables).
func (i *Interpreter) setVar(name, text string) {
	i.setVarValue(name, value.New(text))
}

// setVarValue is setVar's typed counterpart, used where the caller already
// has a numeric result (INCR) and wants
// its cached reading to carry over rather than be recomputed on next read.
func (i *Interpreter) setVarValue(name string, v value.Value) {
	s := i.currentScope()
	if s == nil {
		i.Globals[name] = v
		return
	}
	if s.redirectsGlobal(name) {
		i.Globals[name] = v
		return
	}
	s.Locals[name] = v
}

// unsetVar removes a binding: local first if present, else global.
// Unsetting a nonexistent name is not an error.
func (i *Interpreter) unsetVar(name string) {
	if s := i.currentScope(); s != nil {
		if _, ok := s.Locals[name]; ok {
			delete(s.Locals, name)
			return
		}
	}
	delete(i.Globals, name)
}

// globalize implements the GLOBAL command's two-mode decision: if any
// global key already exists with prefix "name(", the whole array is
// shared by prefix; otherwise the bare name is shared exactly.
func (i *Interpreter) globalize(name string) {
	s := i.currentScope()
	if s == nil {
		return
	}
	prefix := name + "("
	for k := range i.Globals {
		if strings.HasPrefix(k, prefix) {
			s.GlobalPrefixes[prefix] = true
			return
		}
	}
	s.GlobalNames[name] = true
}
