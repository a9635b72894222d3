package bclexpr

import (
	"strconv"
	"strings"

	"github.com/relang/bcl/internal/bclerr"
)

type tokKind int

const (
	tokNum tokKind = iota
	tokStr
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
	num  float64
}

// tokenize splits an already variable/command-substituted expression string
// into tokens. Two-character operators (||, &&, ==, !=, <=, >=, **) are
// recognized before their single-character prefixes.
func tokenize(s string) ([]token, error) {
	var toks []token
	i, n := 0, len(s)

	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++

		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++

		case c == ',':
			toks = append(toks, token{kind: tokComma})
			i++

		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < n && s[j] != quote {
				j++
			}
			if j >= n {
				return nil, bclerr.New(bclerr.Expr, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokStr, text: s[i+1 : j]})
			i = j + 1

		case isDigit(c) || (c == '.' && i+1 < n && isDigit(s[i+1])):
			j := i
			for j < n && (isDigit(s[j]) || s[j] == '.') {
				j++
			}
			if j < n && (s[j] == 'e' || s[j] == 'E') {
				j++
				if j < n && (s[j] == '+' || s[j] == '-') {
					j++
				}
				for j < n && isDigit(s[j]) {
					j++
				}
			}
			f, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, bclerr.New(bclerr.Expr, "malformed number %q", s[i:j])
			}
			toks = append(toks, token{kind: tokNum, num: f, text: s[i:j]})
			i = j

		case isIdentStart(c):
			j := i
			for j < n && isIdentChar(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j

		default:
			if op, width, ok := matchOperator(s[i:]); ok {
				toks = append(toks, token{kind: tokOp, text: op})
				i += width
				continue
			}
			return nil, bclerr.New(bclerr.Expr, "unexpected character %q in expression", string(c))
		}
	}
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

var twoCharOps = []string{"||", "&&", "==", "!=", "<=", ">=", "**"}

func matchOperator(s string) (string, int, bool) {
	for _, op := range twoCharOps {
		if strings.HasPrefix(s, op) {
			return op, 2, true
		}
	}
	switch s[0] {
	case '+', '-', '*', '/', '%', '<', '>', '!', '^':
		return string(s[0]), 1, true
	}
	return "", 0, false
}
