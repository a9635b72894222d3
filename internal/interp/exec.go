package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/blockast"
	"github.com/relang/bcl/internal/bclexpr"
	"github.com/relang/bcl/internal/lexer"
)

// Run executes an already-parsed block tree at the top level. It returns
// the last evaluated result, the exit code (the EXIT code if an EXIT
// signal reached the top, 1 on error, 0 otherwise), and an error for
// anything that is not a normal control-flow signal.
func (i *Interpreter) Run(block *blockast.Block) (result string, exitCode int, err error) {
	result, exit, err := i.RunExit(block)
	if err != nil {
		return result, 1, err
	}
	if exit != nil {
		return result, exit.ExitCode, nil
	}
	return result, 0, nil
}

// RunExit is Run with the Exit signal made explicit, for callers (like
// the REPL) that need to distinguish "finished normally" from "hit EXIT
// with code 0".
func (i *Interpreter) RunExit(block *blockast.Block) (result string, exit *Signal, err error) {
	sig, result, err := i.execItems(block)
	if err != nil {
		return result, nil, err
	}
	if sig.Kind == Exit {
		s := sig
		return result, &s, nil
	}
	return result, nil, nil
}

// execBlock runs one Block node per its Kind.
func (i *Interpreter) execBlock(b *blockast.Block) (Signal, string, error) {
	switch b.Kind {
	case blockast.Root, blockast.Else, blockast.Default:
		return i.execItems(b)

	case blockast.Proc:
		i.Procs[strings.ToUpper(b.ProcName)] = &Proc{Name: b.ProcName, Params: b.ProcParams, Body: b}
		return sigOk, "", nil

	case blockast.If:
		return i.execIf(b)

	case blockast.While:
		return i.execWhile(b)

	case blockast.For:
		return i.execFor(b)

	case blockast.Foreach:
		return i.execForeach(b)

	case blockast.Switch:
		return i.execSwitch(b)

	default:
		return sigOk, "", fmt.Errorf("block kind %s cannot execute standalone", b.Kind)
	}
}

// execItems runs a block's item list in source order, stopping and
// propagating on the first non-Ok signal or error.
func (i *Interpreter) execItems(b *blockast.Block) (Signal, string, error) {
	var result string
	for _, item := range b.Items {
		var sig Signal
		var err error
		if item.Block != nil {
			sig, result, err = i.execBlock(item.Block)
		} else {
			result, sig, err = i.evalLine(item.Line, item.LineNo)
		}
		if err != nil {
			if se, ok := err.(*bclerr.SourceError); ok && se.Pos.Line == 0 {
				se.Pos.Line = item.LineNo
			}
			return sigOk, result, err
		}
		if sig.Kind != Ok {
			return sig, result, nil
		}
	}
	return sigOk, result, nil
}

// evalCondition evaluates cond as the boolean test of an IF/ELSEIF/WHILE
// block, reusing EvalValue's cached numeric reading rather than formatting
// the result to text and reparsing it.
func (i *Interpreter) evalCondition(cond string) (bool, error) {
	substituted, err := lexer.SubstituteText(cond, i)
	if err != nil {
		return false, err
	}
	v, err := bclexpr.EvalValue(substituted)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (i *Interpreter) execIf(b *blockast.Block) (Signal, string, error) {
	ok, err := i.evalCondition(b.Condition)
	if err != nil {
		return sigOk, "", err
	}
	if ok {
		return i.execItems(b)
	}
	for _, sib := range b.Siblings {
		switch sib.Kind {
		case blockast.ElseIf:
			ok, err := i.evalCondition(sib.Condition)
			if err != nil {
				return sigOk, "", err
			}
			if ok {
				return i.execItems(sib)
			}
		case blockast.Else:
			return i.execItems(sib)
		}
	}
	return sigOk, "", nil
}

func (i *Interpreter) execWhile(b *blockast.Block) (Signal, string, error) {
	var result string
	for {
		ok, err := i.evalCondition(b.Condition)
		if err != nil {
			return sigOk, result, err
		}
		if !ok {
			return sigOk, result, nil
		}
		sig, r, err := i.execItems(b)
		result = r
		if err != nil {
			return sigOk, result, err
		}
		switch sig.Kind {
		case Break:
			return sigOk, result, nil
		case Continue:
			continue
		case Ok:
			continue
		default:
			return sig, result, nil
		}
	}
}

// execFor parses "start TO end [STEP step]" and iterates a conventional
// loop variable, "I", across the range inclusive of end.
func (i *Interpreter) execFor(b *blockast.Block) (Signal, string, error) {
	substituted, err := lexer.SubstituteText(b.Condition, i)
	if err != nil {
		return sigOk, "", err
	}
	words := strings.Fields(substituted)
	toIdx := -1
	for idx, w := range words {
		if strings.EqualFold(w, "to") {
			toIdx = idx
			break
		}
	}
	if toIdx == -1 || toIdx == 0 {
		return sigOk, "", bclerr.NewAt(bclerr.Parse, b.LineNo, "malformed FOR condition %q", b.Condition)
	}
	start, err := strconv.ParseFloat(words[0], 64)
	if err != nil {
		return sigOk, "", bclerr.NewAt(bclerr.Parse, b.LineNo, "malformed FOR start %q", words[0])
	}
	stepIdx := -1
	endWords := words[toIdx+1:]
	for idx, w := range endWords {
		if strings.EqualFold(w, "step") {
			stepIdx = idx
			break
		}
	}
	var endStr string
	step := 1.0
	if stepIdx == -1 {
		endStr = strings.Join(endWords, " ")
	} else {
		endStr = strings.Join(endWords[:stepIdx], " ")
		if stepIdx+1 < len(endWords) {
			step, err = strconv.ParseFloat(endWords[stepIdx+1], 64)
			if err != nil {
				return sigOk, "", bclerr.NewAt(bclerr.Parse, b.LineNo, "malformed FOR step")
			}
		}
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(endStr), 64)
	if err != nil {
		return sigOk, "", bclerr.NewAt(bclerr.Parse, b.LineNo, "malformed FOR end %q", endStr)
	}
	if step == 0 {
		return sigOk, "", bclerr.NewAt(bclerr.Parse, b.LineNo, "FOR step cannot be zero")
	}

	var result string
	for v := start; (step > 0 && v <= end) || (step < 0 && v >= end); v += step {
		i.setVar("I", formatLoopVar(v))
		sig, r, err := i.execItems(b)
		result = r
		if err != nil {
			return sigOk, result, err
		}
		switch sig.Kind {
		case Break:
			return sigOk, result, nil
		case Continue, Ok:
			continue
		default:
			return sig, result, nil
		}
	}
	return sigOk, result, nil
}

func formatLoopVar(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// execForeach parses "var [IN] listExpression" and binds var to each
// whitespace-separated element in turn.
func (i *Interpreter) execForeach(b *blockast.Block) (Signal, string, error) {
	words := strings.Fields(b.Condition)
	if len(words) < 2 {
		return sigOk, "", bclerr.NewAt(bclerr.Parse, b.LineNo, "malformed FOREACH condition %q", b.Condition)
	}
	varName := words[0]
	rest := words[1:]
	if strings.EqualFold(rest[0], "in") {
		rest = rest[1:]
	}
	listExpr := strings.Join(rest, " ")
	substituted, err := lexer.SubstituteText(listExpr, i)
	if err != nil {
		return sigOk, "", err
	}
	elems := strings.Fields(substituted)

	var result string
	for _, e := range elems {
		i.setVar(varName, e)
		sig, r, err := i.execItems(b)
		result = r
		if err != nil {
			return sigOk, result, err
		}
		switch sig.Kind {
		case Break:
			return sigOk, result, nil
		case Continue, Ok:
			continue
		default:
			return sig, result, nil
		}
	}
	return sigOk, result, nil
}

func (i *Interpreter) execSwitch(b *blockast.Block) (Signal, string, error) {
	discriminant, err := lexer.SubstituteText(b.Condition, i)
	if err != nil {
		return sigOk, "", err
	}
	discriminant = strings.TrimSpace(discriminant)

	for _, sib := range b.Siblings {
		switch sib.Kind {
		case blockast.Case:
			label, err := lexer.SubstituteText(sib.Condition, i)
			if err != nil {
				return sigOk, "", err
			}
			if strings.TrimSpace(label) == discriminant {
				return i.execItems(sib)
			}
		case blockast.Default:
			return i.execItems(sib)
		}
	}
	return sigOk, "", nil
}

// evalLine tokenizes one raw source line and dispatches it. lineNo is 0
// for a command-substitution ([...]) line, which has no parsed source
// position; lines run by EVAL or SOURCE carry their line number within the
// evaluated text or file.
func (i *Interpreter) evalLine(line string, lineNo int) (string, Signal, error) {
	argv, err := lexer.Tokenize(line, i)
	if err != nil {
		return "", sigOk, err
	}
	if len(argv) == 0 {
		return "", sigOk, nil
	}
	return i.dispatch(argv, lineNo)
}
