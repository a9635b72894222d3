package interp

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/bclexpr"
	"github.com/relang/bcl/internal/blockparser"
	"github.com/relang/bcl/internal/event"
	"github.com/relang/bcl/internal/value"
)

func defaultBuiltins() map[string]BuiltinFunc {
	return map[string]BuiltinFunc{
		"SET":      builtinSet,
		"UNSET":    builtinUnset,
		"INCR":     builtinIncr,
		"APPEND":   builtinAppend,
		"GLOBAL":   builtinGlobal,
		"EXPR":     builtinExpr,
		"RETURN":   builtinReturn,
		"BREAK":    builtinBreak,
		"CONTINUE": builtinContinue,
		"EXIT":     builtinExit,
		"EVAL":     builtinEval,
		"SOURCE":   builtinSource,
		"INFO":     builtinInfo,
		"EVENT":    builtinEvent,
		"LOAD":     builtinLoad,
		"PUTS":     builtinPuts,
		"STRLEN":   builtinStrlen,
		"STREQ":    builtinStreq,
		"STRINDEX": builtinStrindex,
		"STRRANGE": builtinStrrange,
		"AFTER":    builtinAfter,
		"ARGV":     builtinArgv,
		"OPEN":     builtinOpen,
		"CLOSE":    builtinClose,
		"READ":     builtinRead,
		"WRITE":    builtinWrite,
	}
}

// SET name [value]: one argument reads (error "unknown-var" if unset);
// two arguments write and return the value.
func builtinSet(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) == 0 {
		return "", sigOk, bclerr.New(bclerr.Arity, "SET requires at least one argument")
	}
	name := args[0]
	if len(args) == 1 {
		v, ok := i.GetVar(name)
		if !ok {
			return "", sigOk, bclerr.New(bclerr.UnknownVar, "unset variable %q", name)
		}
		return v, sigOk, nil
	}
	value := strings.Join(args[1:], " ")
	i.setVar(name, value)
	return value, sigOk, nil
}

func builtinUnset(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "UNSET requires exactly one argument")
	}
	i.unsetVar(args[0])
	return "", sigOk, nil
}

func builtinIncr(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", sigOk, bclerr.New(bclerr.Arity, "INCR requires a name and an optional amount")
	}
	name := args[0]
	by := 1.0
	if len(args) == 2 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return "", sigOk, bclerr.New(bclerr.Type, "INCR: %q is not a number", args[1])
		}
		by = v
	}
	cur := 0.0
	if v, ok := i.getVarValue(name); ok {
		if f, numOK := v.Float(); numOK {
			cur = f
		}
	}
	result := value.NewFloat(cur + by)
	i.setVarValue(name, result)
	return result.String(), sigOk, nil
}

func builtinAppend(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) < 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "APPEND requires a name")
	}
	name := args[0]
	cur, _ := i.GetVar(name)
	cur += strings.Join(args[1:], "")
	i.setVar(name, cur)
	return cur, sigOk, nil
}

func builtinGlobal(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) == 0 {
		return "", sigOk, bclerr.New(bclerr.Arity, "GLOBAL requires at least one name")
	}
	for _, n := range args {
		i.globalize(n)
	}
	return "", sigOk, nil
}

func builtinExpr(_ *Interpreter, args []string) (string, Signal, error) {
	result, err := bclexpr.Eval(strings.Join(args, " "))
	if err != nil {
		return "", sigOk, err
	}
	return result, sigOk, nil
}

func builtinReturn(_ *Interpreter, args []string) (string, Signal, error) {
	v := strings.Join(args, " ")
	return v, Signal{Kind: Return, Value: v}, nil
}

func builtinBreak(_ *Interpreter, args []string) (string, Signal, error) {
	return "", Signal{Kind: Break}, nil
}

func builtinContinue(_ *Interpreter, args []string) (string, Signal, error) {
	return "", Signal{Kind: Continue}, nil
}

func builtinExit(_ *Interpreter, args []string) (string, Signal, error) {
	code := 0
	if len(args) > 0 {
		c, err := strconv.Atoi(args[0])
		if err != nil {
			return "", sigOk, bclerr.New(bclerr.Type, "EXIT: %q is not an integer", args[0])
		}
		code = c
	}
	return "", Signal{Kind: Exit, ExitCode: code}, nil
}

func builtinEval(i *Interpreter, args []string) (string, Signal, error) {
	src := strings.Join(args, " ")
	root, err := blockparser.Parse(src)
	if err != nil {
		return "", sigOk, err
	}
	sig, result, err := i.execItems(root)
	return result, sig, err
}

func builtinSource(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "SOURCE requires exactly one path")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.IO, "SOURCE %q: %v", args[0], err)
	}
	root, err := blockparser.Parse(string(data))
	if err != nil {
		return "", sigOk, err
	}
	sig, result, err := i.execItems(root)
	return result, sig, err
}

func builtinInfo(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) == 0 {
		return "", sigOk, bclerr.New(bclerr.Arity, "INFO requires a subcommand")
	}
	sub := strings.ToUpper(args[0])
	rest := args[1:]

	switch sub {
	case "BCLVERSION":
		return "1.0", sigOk, nil
	case "COMMANDS":
		names := make([]string, 0, len(i.Builtins))
		for n := range i.Builtins {
			names = append(names, n)
		}
		sort.Strings(names)
		return strings.Join(names, " "), sigOk, nil
	case "PROCS":
		names := make([]string, 0, len(i.Procs))
		for n := range i.Procs {
			names = append(names, n)
		}
		sort.Strings(names)
		return strings.Join(names, " "), sigOk, nil
	case "VARS":
		seen := map[string]bool{}
		if s := i.currentScope(); s != nil {
			for n := range s.Locals {
				seen[n] = true
			}
		}
		for n := range i.Globals {
			seen[n] = true
		}
		names := make([]string, 0, len(seen))
		for n := range seen {
			names = append(names, n)
		}
		sort.Strings(names)
		return strings.Join(names, " "), sigOk, nil
	case "EXISTS":
		if len(rest) != 1 {
			return "", sigOk, bclerr.New(bclerr.Arity, "INFO EXISTS requires a name")
		}
		_, ok := i.GetVar(rest[0])
		return boolStr(ok), sigOk, nil
	case "ARGS":
		if len(rest) != 1 {
			return "", sigOk, bclerr.New(bclerr.Arity, "INFO ARGS requires a procedure name")
		}
		p, ok := i.Procs[strings.ToUpper(rest[0])]
		if !ok {
			return "", sigOk, bclerr.New(bclerr.UnknownCmd, "no such procedure %q", rest[0])
		}
		return p.Params, sigOk, nil
	case "BODY":
		if len(rest) != 1 {
			return "", sigOk, bclerr.New(bclerr.Arity, "INFO BODY requires a procedure name")
		}
		if _, ok := i.Procs[strings.ToUpper(rest[0])]; !ok {
			return "", sigOk, bclerr.New(bclerr.UnknownCmd, "no such procedure %q", rest[0])
		}
		return "<native-body>", sigOk, nil
	case "STACK":
		return i.callStack.String(), sigOk, nil
	default:
		return "", sigOk, bclerr.New(bclerr.Runtime, "unknown INFO subcommand %q", args[0])
	}
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func builtinEvent(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) == 0 {
		return "", sigOk, bclerr.New(bclerr.Arity, "EVENT requires a subcommand")
	}
	sub := strings.ToUpper(args[0])
	rest := args[1:]

	switch sub {
	case "PROCESS":
		if len(rest) != 1 {
			return "", sigOk, bclerr.New(bclerr.Arity, "EVENT PROCESS requires a timeout in ms")
		}
		ms, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", sigOk, bclerr.New(bclerr.Type, "EVENT PROCESS: %q is not an integer", rest[0])
		}
		if err := i.loop.Process(ms); err != nil {
			return "", sigOk, bclerr.New(bclerr.Runtime, "%v", err)
		}
		return "", sigOk, nil
	case "LOOP":
		if err := i.loop.Run(); err != nil {
			return "", sigOk, bclerr.New(bclerr.Runtime, "%v", err)
		}
		return "", sigOk, nil
	case "STOP":
		i.loop.Stop()
		return "", sigOk, nil
	case "FD":
		return "", sigOk, eventFD(i, rest)
	case "TIMER":
		return eventTimer(i, rest)
	case "DELETE":
		return "", sigOk, eventDelete(i, rest)
	default:
		return "", sigOk, bclerr.New(bclerr.Runtime, "unknown EVENT subcommand %q", args[0])
	}
}

func eventFD(i *Interpreter, args []string) error {
	if len(args) != 3 {
		return bclerr.New(bclerr.Arity, "EVENT FD requires fd, interests, callback")
	}
	fd, err := strconv.Atoi(args[0])
	if err != nil {
		return bclerr.New(bclerr.Type, "EVENT FD: %q is not a descriptor", args[0])
	}
	callback := args[2]
	if _, ok := i.Procs[strings.ToUpper(callback)]; !ok {
		return bclerr.New(bclerr.UnknownCmd, "EVENT FD: no such procedure %q", callback)
	}
	var interests event.Interest
	for _, c := range strings.ToUpper(args[1]) {
		switch c {
		case 'R':
			interests |= event.Readable
		case 'W':
			interests |= event.Writable
		case 'E':
			interests |= event.Exceptional
		}
	}
	i.loop.RegisterFD(fd, interests, callback)
	return nil
}

func eventTimer(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 3 {
		return "", sigOk, bclerr.New(bclerr.Arity, "EVENT TIMER requires delay, repeat, callback")
	}
	delay, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.Type, "EVENT TIMER: %q is not an integer", args[0])
	}
	repeat, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.Type, "EVENT TIMER: %q is not an integer", args[1])
	}
	callback := args[2]
	if _, ok := i.Procs[strings.ToUpper(callback)]; !ok {
		return "", sigOk, bclerr.New(bclerr.UnknownCmd, "EVENT TIMER: no such procedure %q", callback)
	}
	id := i.loop.RegisterTimer(delay, repeat, callback)
	return strconv.Itoa(id), sigOk, nil
}

func eventDelete(i *Interpreter, args []string) error {
	if len(args) < 1 {
		return bclerr.New(bclerr.Arity, "EVENT DELETE requires a handle")
	}
	switch strings.ToUpper(args[0]) {
	case "FD":
		if len(args) < 2 {
			return bclerr.New(bclerr.Arity, "EVENT DELETE FD requires a descriptor")
		}
		fd, err := strconv.Atoi(args[1])
		if err != nil {
			return bclerr.New(bclerr.Type, "EVENT DELETE FD: %q is not a descriptor", args[1])
		}
		i.loop.DeleteFD(fd, 0)
	case "TIMER":
		if len(args) < 2 {
			return bclerr.New(bclerr.Arity, "EVENT DELETE TIMER requires a handle")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return bclerr.New(bclerr.Type, "EVENT DELETE TIMER: %q is not a handle", args[1])
		}
		i.loop.DeleteTimer(id)
	default:
		return bclerr.New(bclerr.Runtime, "EVENT DELETE: unknown kind %q", args[0])
	}
	return nil
}

func builtinLoad(i *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "LOAD requires exactly one path")
	}
	if err := i.extensions.Load(args[0], i); err != nil {
		return "", sigOk, err
	}
	return "", sigOk, nil
}

func builtinPuts(i *Interpreter, args []string) (string, Signal, error) {
	fmt.Fprintln(i.Out, strings.Join(args, " "))
	return "", sigOk, nil
}

func builtinStrlen(_ *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "STRLEN requires exactly one argument")
	}
	return strconv.Itoa(len(args[0])), sigOk, nil
}

func builtinStreq(_ *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 2 {
		return "", sigOk, bclerr.New(bclerr.Arity, "STREQ requires exactly two arguments")
	}
	return boolStr(args[0] == args[1]), sigOk, nil
}

func builtinStrindex(_ *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 2 {
		return "", sigOk, bclerr.New(bclerr.Arity, "STRINDEX requires a string and an index")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.Type, "STRINDEX: %q is not an integer", args[1])
	}
	if idx < 0 || idx >= len(args[0]) {
		return "", sigOk, nil
	}
	return string(args[0][idx]), sigOk, nil
}

func builtinStrrange(_ *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 3 {
		return "", sigOk, bclerr.New(bclerr.Arity, "STRRANGE requires a string, start, and end")
	}
	s := args[0]
	start, err1 := strconv.Atoi(args[1])
	end, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return "", sigOk, bclerr.New(bclerr.Type, "STRRANGE: indices must be integers")
	}
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return "", sigOk, nil
	}
	return s[start:end], sigOk, nil
}

func builtinAfter(_ *Interpreter, args []string) (string, Signal, error) {
	if len(args) != 1 {
		return "", sigOk, bclerr.New(bclerr.Arity, "AFTER requires a duration in ms")
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil {
		return "", sigOk, bclerr.New(bclerr.Type, "AFTER: %q is not an integer", args[0])
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return "", sigOk, nil
}

func builtinArgv(i *Interpreter, _ []string) (string, Signal, error) {
	return strings.Join(i.Argv, " "), sigOk, nil
}
