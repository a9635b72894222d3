// Package bclexpr implements the expression evaluator consumed by the
// EXPR builtin and by every condition-bearing control-flow command
// (IF/ELSEIF/WHILE). Input is a string of already variable- and
// command-substituted tokens; this package never re-enters substitution.
package bclexpr

import (
	"math"
	"strings"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/value"
)

// tolerance is the numeric-equality slop used by == and !=.
const tolerance = 1e-10

// Eval parses and evaluates expr, returning its textual result formatted
// the way every numeric result in the language is (integral doubles
// print with zero decimals, others at 15 significant digits). A bare
// string with no operators is returned as-is.
func Eval(expr string) (string, error) {
	v, err := EvalValue(expr)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// EvalValue is Eval's typed counterpart: it hands back the cached-numeric
// value.Value directly, so a caller that only needs the truthiness or
// numeric reading (a loop condition, an IF test) doesn't re-parse text
// Eval already parsed once.
func EvalValue(expr string) (value.Value, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return value.Empty, err
	}
	rpn, err := shuntingYard(toks)
	if err != nil {
		return value.Empty, err
	}
	return evalRPN(rpn)
}

// operand is the RPN evaluation stack's element type. It is exactly
// value.Value: a numeric literal is built via value.NewFloat so its
// cached reading is already populated, a string/bareword via value.New so
// its reading is computed (and cached) lazily on first use.
type operand = value.Value

func numOperand(f float64) operand { return value.NewFloat(f) }
func strOperand(s string) operand  { return value.New(s) }

// rpnKind tags entries of the postfix instruction stream produced by
// shuntingYard.
type rpnKind int

const (
	rpnNum rpnKind = iota
	rpnStr
	rpnOp
	rpnFunc
)

type rpnItem struct {
	kind rpnKind
	num  float64
	str  string
	op   string
	argc int
}

var precedence = map[string]int{
	"||": 1, "OR": 1,
	"&&": 2, "AND": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
	"**": 8, "^": 8,
}

var rightAssoc = map[string]bool{"**": true, "^": true}

const unaryPrecedence = 7

// stackKind tags entries of the operator stack used by shuntingYard.
type stackKind int

const (
	skOp stackKind = iota
	skUnary
	skParen
	skFunc
)

type stackEntry struct {
	kind stackKind
	text string

	// skParen only:
	funcOwned       bool
	commaCount      int
	outputLenAtOpen int
}

// shuntingYard converts infix tokens to an RPN instruction stream using
// Dijkstra's two-stack algorithm, generalized for function calls: an
// identifier immediately followed by '(' pushes a function marker, and the
// matching ')' emits it with its accumulated argument count.
func shuntingYard(toks []token) ([]rpnItem, error) {
	var out []rpnItem
	var ops []stackEntry
	expectOperand := true

	pop := func() stackEntry {
		e := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		return e
	}

	for idx := 0; idx < len(toks); idx++ {
		tok := toks[idx]

		if expectOperand {
			switch tok.kind {
			case tokNum:
				out = append(out, rpnItem{kind: rpnNum, num: tok.num})
				expectOperand = false
			case tokStr:
				out = append(out, rpnItem{kind: rpnStr, str: tok.text})
				expectOperand = false
			case tokIdent:
				upper := strings.ToUpper(tok.text)
				switch {
				case upper == "NOT":
					ops = append(ops, stackEntry{kind: skUnary, text: "NOT"})
				case idx+1 < len(toks) && toks[idx+1].kind == tokLParen:
					ops = append(ops, stackEntry{kind: skFunc, text: upper})
				default:
					// Bareword with no known meaning: treat as a string
					// literal operand, so unquoted comparisons like
					// `$status == OK` still work.
					out = append(out, rpnItem{kind: rpnStr, str: tok.text})
					expectOperand = false
				}
			case tokOp:
				switch tok.text {
				case "-":
					ops = append(ops, stackEntry{kind: skUnary, text: "UMINUS"})
				case "!":
					ops = append(ops, stackEntry{kind: skUnary, text: "NOT"})
				case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
					// A binary comparison/logical operator found where an
					// operand was expected means variable substitution
					// left nothing before it (e.g. an unset or
					// empty-string variable). Treat the missing left side
					// as an implicit empty-string operand rather than
					// erroring, and reprocess this token as the operator
					// it is.
					out = append(out, rpnItem{kind: rpnStr, str: ""})
					expectOperand = false
					idx--
					continue
				default:
					return nil, bclerr.New(bclerr.Expr, "unexpected operator %q", tok.text)
				}
			case tokLParen:
				e := stackEntry{kind: skParen, outputLenAtOpen: len(out)}
				if len(ops) > 0 && ops[len(ops)-1].kind == skFunc {
					e.funcOwned = true
				}
				ops = append(ops, e)
			default:
				return nil, bclerr.New(bclerr.Expr, "expected operand, got %q", rawTokenText(tok))
			}
			continue
		}

		// expectOperand == false: expecting a binary operator, ',', ')', or end.
		switch tok.kind {
		case tokOp, tokIdent:
			sym := tok.text
			if tok.kind == tokIdent {
				sym = strings.ToUpper(tok.text)
			}
			prec, known := precedence[sym]
			if !known {
				return nil, bclerr.New(bclerr.Expr, "expected operator, got %q", rawTokenText(tok))
			}
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind != skOp && top.kind != skUnary {
					break
				}
				topPrec := unaryPrecedence
				if top.kind == skOp {
					topPrec = precedence[top.text]
				}
				if rightAssoc[sym] {
					if topPrec <= prec {
						break
					}
				} else if topPrec < prec {
					break
				}
				pop()
				out = append(out, rpnItem{kind: rpnOp, op: top.text})
			}
			ops = append(ops, stackEntry{kind: skOp, text: sym})
			expectOperand = true

		case tokComma:
			var parenIdx int = -1
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind == skParen {
					parenIdx = len(ops) - 1
					break
				}
				pop()
				out = append(out, rpnItem{kind: rpnOp, op: top.text})
			}
			if parenIdx == -1 {
				return nil, bclerr.New(bclerr.Expr, "comma outside of function call")
			}
			ops[parenIdx].commaCount++
			expectOperand = true

		case tokRParen:
			var paren *stackEntry
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind == skParen {
					e := pop()
					paren = &e
					break
				}
				pop()
				out = append(out, rpnItem{kind: rpnOp, op: top.text})
			}
			if paren == nil {
				return nil, bclerr.New(bclerr.Expr, "unbalanced parentheses")
			}
			if paren.funcOwned {
				if len(ops) == 0 || ops[len(ops)-1].kind != skFunc {
					return nil, bclerr.New(bclerr.Expr, "malformed function call")
				}
				fn := pop()
				argc := paren.commaCount + 1
				if len(out) == paren.outputLenAtOpen {
					argc = 0
				}
				out = append(out, rpnItem{kind: rpnFunc, str: fn.text, argc: argc})
			}
			expectOperand = false

		default:
			return nil, bclerr.New(bclerr.Expr, "unexpected token %q", rawTokenText(tok))
		}
	}

	if expectOperand {
		return nil, bclerr.New(bclerr.Expr, "expression ends with an operator")
	}
	for len(ops) > 0 {
		top := pop()
		if top.kind == skParen {
			return nil, bclerr.New(bclerr.Expr, "unbalanced parentheses")
		}
		out = append(out, rpnItem{kind: rpnOp, op: top.text})
	}
	return out, nil
}

func rawTokenText(t token) string {
	switch t.kind {
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokComma:
		return ","
	default:
		return t.text
	}
}

// evalRPN evaluates a postfix instruction stream produced by shuntingYard.
func evalRPN(rpn []rpnItem) (operand, error) {
	var stack []operand

	popN := func(n int) ([]operand, error) {
		if len(stack) < n {
			return nil, bclerr.New(bclerr.Expr, "malformed expression")
		}
		args := stack[len(stack)-n:]
		stack = stack[:len(stack)-n]
		return args, nil
	}

	for _, item := range rpn {
		switch item.kind {
		case rpnNum:
			stack = append(stack, numOperand(item.num))
		case rpnStr:
			stack = append(stack, strOperand(item.str))
		case rpnOp:
			if err := applyOp(&stack, item.op); err != nil {
				return value.Empty, err
			}
		case rpnFunc:
			args, err := popN(item.argc)
			if err != nil {
				return value.Empty, err
			}
			r, err := applyFunc(item.str, args)
			if err != nil {
				return value.Empty, err
			}
			stack = append(stack, r)
		}
	}
	if len(stack) != 1 {
		return value.Empty, bclerr.New(bclerr.Expr, "malformed expression")
	}
	return stack[0], nil
}

func applyOp(stack *[]operand, op string) error {
	s := *stack
	switch op {
	case "NOT", "UMINUS":
		if len(s) < 1 {
			return bclerr.New(bclerr.Expr, "malformed expression")
		}
		a := s[len(s)-1]
		s = s[:len(s)-1]
		if op == "NOT" {
			s = append(s, value.NewBool(!a.Bool()))
		} else {
			f, _ := a.Float()
			s = append(s, numOperand(-f))
		}
		*stack = s
		return nil
	}

	if len(s) < 2 {
		return bclerr.New(bclerr.Expr, "malformed expression")
	}
	a, b := s[len(s)-2], s[len(s)-1]
	s = s[:len(s)-2]

	var r operand
	switch op {
	case "OR", "||":
		r = value.NewBool(a.Bool() || b.Bool())
	case "AND", "&&":
		r = value.NewBool(a.Bool() && b.Bool())
	case "==":
		r = value.NewBool(operandsEqual(a, b))
	case "!=":
		r = value.NewBool(!operandsEqual(a, b))
	case "<", "<=", ">", ">=":
		af, aok := a.Float()
		bf, bok := b.Float()
		if aok && bok {
			r = value.NewBool(compareNum(af, bf, op))
		} else {
			r = value.NewBool(compareStr(a.String(), b.String(), op))
		}
	case "+":
		af, _ := a.Float()
		bf, _ := b.Float()
		r = numOperand(af + bf)
	case "-":
		af, _ := a.Float()
		bf, _ := b.Float()
		r = numOperand(af - bf)
	case "*":
		af, _ := a.Float()
		bf, _ := b.Float()
		r = numOperand(af * bf)
	case "/":
		af, _ := a.Float()
		bf, _ := b.Float()
		if bf == 0 {
			r = numOperand(0)
		} else {
			r = numOperand(af / bf)
		}
	case "%":
		af, _ := a.Float()
		bf, _ := b.Float()
		if bf == 0 {
			r = numOperand(0)
		} else {
			r = numOperand(math.Mod(af, bf))
		}
	case "**", "^":
		af, _ := a.Float()
		bf, _ := b.Float()
		r = numOperand(math.Pow(af, bf))
	default:
		return bclerr.New(bclerr.Expr, "unknown operator %q", op)
	}
	*stack = append(s, r)
	return nil
}

func operandsEqual(a, b operand) bool {
	af, aok := a.Float()
	bf, bok := b.Float()
	if aok && bok {
		return math.Abs(af-bf) < tolerance
	}
	return a.String() == b.String()
}

func compareNum(a, b float64, op string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func compareStr(a, b, op string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}
