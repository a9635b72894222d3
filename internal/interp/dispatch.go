package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relang/bcl/internal/bclerr"
)

// dispatch routes one tokenized line to a built-in, user procedure, or
// extension command, in that order. lineNo is the source line argv was
// read from (0 for a command-substitution line, which has none), carried
// through to callProc so a call-stack frame can record where the call was
// made.
func (i *Interpreter) dispatch(argv []string, lineNo int) (string, Signal, error) {
	if i.trace != nil {
		fmt.Fprintln(i.trace, strings.Join(argv, " "))
	}

	name := strings.ToUpper(argv[0])
	args := argv[1:]

	if fn, ok := i.Builtins[name]; ok {
		return fn(i, args)
	}

	if p, ok := i.Procs[name]; ok {
		result, err := i.callProc(p, args, lineNo)
		if err != nil {
			var ex *exitSignal
			if errors.As(err, &ex) {
				return ex.value, Signal{Kind: Exit, ExitCode: ex.code, Value: ex.value}, nil
			}
			return "", sigOk, err
		}
		return result, sigOk, nil
	}

	if fn, ok := i.Extensions[name]; ok {
		result, err := fn(i, args)
		if err != nil {
			return "", sigOk, err
		}
		return result, sigOk, nil
	}

	return "", sigOk, bclerr.New(bclerr.UnknownCmd, "unknown command %q", argv[0])
}
