package interp

import (
	"strings"

	"github.com/relang/bcl/internal/value"
)

// Scope is one call frame: a local variable table plus the GLOBAL
// command's escape annotations. The interpreter's global table is not a
// Scope — it is the implicit bottom of the stack.
type Scope struct {
	Locals map[string]value.Value

	// GlobalNames are exact variable names that GLOBAL redirected to the
	// global table for this call.
	GlobalNames map[string]bool

	// GlobalPrefixes are strings of the form "base(" — any local name
	// beginning with one of these resolves in the global table, sharing
	// an entire associative array without enumerating its keys.
	GlobalPrefixes map[string]bool

	// ProcName and CallLine support error/trace reporting.
	ProcName string
	CallLine int
}

func newScope(procName string, callLine int) *Scope {
	return &Scope{
		Locals:         make(map[string]value.Value),
		GlobalNames:    make(map[string]bool),
		GlobalPrefixes: make(map[string]bool),
		ProcName:       procName,
		CallLine:       callLine,
	}
}

// redirectsGlobal reports whether name was routed to the global table by
// a prior GLOBAL command in this scope.
func (s *Scope) redirectsGlobal(name string) bool {
	if s.GlobalNames[name] {
		return true
	}
	if idx := strings.IndexByte(name, '('); idx != -1 {
		if s.GlobalPrefixes[name[:idx+1]] {
			return true
		}
	}
	return false
}
