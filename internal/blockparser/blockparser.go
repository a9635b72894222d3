// Package blockparser converts a whole source text into a tree of
// blockast.Block nodes so that control-flow commands can execute by
// traversing structure rather than re-parsing text.
package blockparser

import (
	"strings"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/blockast"
)

// Parse builds the structured parse tree for an entire source text. The
// parser is non-validating beyond structural keyword balance; semantic
// validity of conditions is deferred to execution. Any *bclerr.SourceError
// returned carries the full source text, so callers can render a caret
// without threading it through every parse error site themselves.
func Parse(source string) (*blockast.Block, error) {
	root, err := parse(source)
	if err != nil {
		if se, ok := err.(*bclerr.SourceError); ok {
			se.WithSource(source, "")
		}
		return nil, err
	}
	return root, nil
}

func parse(source string) (*blockast.Block, error) {
	root := blockast.NewBlock(blockast.Root)
	stack := []*blockast.Block{root}
	lines := strings.Split(source, "\n")

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}

		words := splitWordsPos(raw)
		if len(words) == 0 {
			continue
		}
		top := stack[len(stack)-1]

		switch {
		case eqFold(words[0], "if"):
			if endIdx := findBareWord(words, 1, "end"); endIdx != -1 {
				blk, err := parseInlineIf(raw, words, lineNo)
				if err != nil {
					return nil, err
				}
				top.AddChild(blk)
				continue
			}
			cond, err := extractCondition(raw, words, lineNo, "then", "do")
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.If)
			blk.Condition = cond
			blk.LineNo = lineNo
			top.AddChild(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "elseif"):
			owner, err := popIfChain(&stack, lineNo, words[0].start+1)
			if err != nil {
				return nil, err
			}
			cond, err := extractCondition(raw, words, lineNo, "then", "do")
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.ElseIf)
			blk.Condition = cond
			blk.LineNo = lineNo
			blk.Owner = owner
			owner.AddSibling(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "else"):
			owner, err := popIfChain(&stack, lineNo, words[0].start+1)
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.Else)
			blk.LineNo = lineNo
			blk.Owner = owner
			owner.AddSibling(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "while"):
			cond, err := extractCondition(raw, words, lineNo, "do")
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.While)
			blk.Condition = cond
			blk.LineNo = lineNo
			top.AddChild(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "for"):
			cond, err := extractCondition(raw, words, lineNo, "do")
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.For)
			blk.Condition = cond
			blk.LineNo = lineNo
			top.AddChild(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "foreach"):
			cond, err := extractCondition(raw, words, lineNo, "do")
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.Foreach)
			blk.Condition = cond
			blk.LineNo = lineNo
			top.AddChild(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "switch"):
			cond, err := extractCondition(raw, words, lineNo, "do")
			if err != nil {
				return nil, err
			}
			blk := blockast.NewBlock(blockast.Switch)
			blk.Condition = cond
			blk.LineNo = lineNo
			top.AddChild(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "proc"):
			blk, err := parseProcHeader(raw, words, lineNo)
			if err != nil {
				return nil, err
			}
			top.AddChild(blk)
			// One-line form: PROC name [WITH params] DO body END.
			doIdx := findBareWord(words, 2, "do")
			if endIdx := findBareWord(words, doIdx+1, "end"); endIdx != -1 {
				if body := strings.TrimSpace(raw[words[doIdx].end:words[endIdx].start]); body != "" {
					blk.AddLine(body, lineNo)
				}
				continue
			}
			stack = append(stack, blk)

		case eqFold(words[0], "case"), eqFold(words[0], "default"):
			isCase := eqFold(words[0], "case")
			kind := blockast.Default
			if isCase {
				kind = blockast.Case
			}

			// A prior CASE/DEFAULT at the top closes implicitly when the
			// next one begins.
			if top.Kind == blockast.Case || top.Kind == blockast.Default {
				stack = stack[:len(stack)-1]
				top = stack[len(stack)-1]
			}
			if top.Kind != blockast.Switch {
				return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[0].start+1, "%s outside of SWITCH", strings.ToUpper(words[0].text))
			}
			switchNode := top

			labelIdx := 1
			if isCase && len(words) < 2 {
				return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[0].end+1, "CASE requires a label")
			}

			if endIdx := findBareWord(words, labelIdx+1, "end"); endIdx != -1 {
				blk := blockast.NewBlock(kind)
				blk.LineNo = lineNo
				blk.Owner = switchNode
				if isCase {
					blk.Condition = words[labelIdx].text
				}
				bodyStart := words[labelIdx].end
				if !isCase {
					bodyStart = words[0].end
				}
				body := strings.TrimSpace(raw[bodyStart:words[endIdx].start])
				if body != "" {
					blk.AddLine(body, lineNo)
				}
				switchNode.AddSibling(blk)
				continue
			}

			blk := blockast.NewBlock(kind)
			blk.LineNo = lineNo
			blk.Owner = switchNode
			if isCase {
				blk.Condition = words[labelIdx].text
			}
			switchNode.AddSibling(blk)
			stack = append(stack, blk)

		case eqFold(words[0], "end"):
			if len(stack) < 2 {
				return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[0].start+1, "unexpected END")
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if (popped.Kind == blockast.Case || popped.Kind == blockast.Default) &&
				len(stack) > 0 && stack[len(stack)-1] == popped.Owner {
				stack = stack[:len(stack)-1]
			}

		default:
			top.AddLine(trimmed, lineNo)
		}
	}

	if len(stack) != 1 {
		return nil, bclerr.New(bclerr.Parse, "unclosed block: missing END")
	}
	return root, nil
}

// popIfChain pops the current If/ElseIf off the stack and returns the
// chain head (the original If) that a new ElseIf/Else sibling attaches to.
func popIfChain(stack *[]*blockast.Block, lineNo, col int) (*blockast.Block, error) {
	s := *stack
	if len(s) < 2 {
		return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, col, "ELSEIF/ELSE without IF")
	}
	popped := s[len(s)-1]
	*stack = s[:len(s)-1]
	switch popped.Kind {
	case blockast.If:
		return popped, nil
	case blockast.ElseIf:
		return popped.Owner, nil
	default:
		return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, col, "ELSEIF/ELSE without IF")
	}
}

// extractCondition returns the raw text between the opening keyword and
// the first bare occurrence of one of the terminators.
func extractCondition(line string, words []posWord, lineNo int, terminators ...string) (string, error) {
	idx := findBareWord(words, 1, terminators...)
	if idx == -1 {
		return "", bclerr.NewAtCol(bclerr.Parse, lineNo, words[len(words)-1].end+1, "missing %s", strings.ToUpper(strings.Join(terminators, "/")))
	}
	if len(words) <= 1 {
		return "", nil
	}
	return strings.TrimSpace(line[words[1].start:words[idx].start]), nil
}

// parseInlineIf handles the "IF cond THEN body END" single-line form,
// parsing it into the same Block representation as the multi-line form so
// the evaluator only needs one execution path for If.
func parseInlineIf(line string, words []posWord, lineNo int) (*blockast.Block, error) {
	termIdx := findBareWord(words, 1, "then", "do")
	if termIdx == -1 {
		return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[0].start+1, "missing THEN/DO")
	}
	endIdx := findBareWord(words, termIdx+1, "end")
	if endIdx == -1 {
		return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[len(words)-1].end+1, "missing END")
	}
	cond := strings.TrimSpace(line[words[1].start:words[termIdx].start])
	body := strings.TrimSpace(line[words[termIdx].end:words[endIdx].start])

	blk := blockast.NewBlock(blockast.If)
	blk.Condition = cond
	blk.LineNo = lineNo
	if body != "" {
		blk.AddLine(body, lineNo)
	}
	return blk, nil
}

// parseProcHeader parses "PROC name [WITH params...] DO".
func parseProcHeader(line string, words []posWord, lineNo int) (*blockast.Block, error) {
	if len(words) < 2 {
		return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[0].end+1, "PROC requires a name")
	}
	name := words[1].text

	doIdx := findBareWord(words, 2, "do")
	if doIdx == -1 {
		return nil, bclerr.NewAtCol(bclerr.Parse, lineNo, words[len(words)-1].end+1, "missing DO")
	}

	params := ""
	if len(words) > 2 && eqFold(words[2], "with") && doIdx > 3 {
		params = strings.TrimSpace(line[words[3].start:words[doIdx].start])
	}

	blk := blockast.NewBlock(blockast.Proc)
	blk.ProcName = name
	blk.ProcParams = params
	blk.LineNo = lineNo
	return blk, nil
}
