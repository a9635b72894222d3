// Package lexer turns one raw source line into an argument vector, after
// command substitution, tokenization, escape decoding and variable
// substitution.
package lexer

import (
	"strings"

	"github.com/relang/bcl/internal/bclerr"
)

// Substituter is the callback surface the lexer needs from the
// interpreter: evaluating a bracketed command sequence, and reading a
// variable's current value. Both command substitution ([...]) and
// variable substitution ($name) are driven through this interface so the
// lexer itself stays free of interpreter state.
type Substituter interface {
	EvalSequence(text string) (string, error)
	GetVar(name string) (string, bool)
}

type tokenKind int

const (
	kindBare tokenKind = iota
	kindDouble
	kindSingle
)

type rawToken struct {
	text string
	kind tokenKind
}

// Tokenize runs the full substitution and tokenization pipeline over one
// source line and returns the resulting argument vector. An empty line
// (or a line that is only a comment) yields an empty argument vector and a
// nil error.
func Tokenize(line string, sub Substituter) ([]string, error) {
	commandExpanded, err := substituteCommands(line, sub)
	if err != nil {
		return nil, err
	}

	raw, err := tokenizeRaw(commandExpanded)
	if err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(raw))
	for _, t := range raw {
		if t.kind == kindSingle {
			argv = append(argv, t.text)
			continue
		}
		decoded := decodeEscapes(t.text)
		expanded, err := substituteVars(decoded, sub)
		if err != nil {
			return nil, err
		}
		argv = append(argv, expanded)
	}
	return argv, nil
}

// SubstituteText applies only the command- and variable-substitution
// phases (no tokenization, no escape decoding) to a whole string. This is
// what condition text (IF/WHILE/FOR/FOREACH/SWITCH), which is evaluated as
// a single expression or list rather than split into an argv, goes
// through before reaching the expression evaluator.
func SubstituteText(text string, sub Substituter) (string, error) {
	commandExpanded, err := substituteCommands(text, sub)
	if err != nil {
		return "", err
	}
	return substituteVars(commandExpanded, sub)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// substituteCommands replaces balanced, possibly-nested [ ... ] spans with
// the string result of evaluating their contents as a command sequence.
// Text inside single-quoted spans is left untouched, matching the
// tokenizer's own "no escape processing" treatment of single quotes.
// If the substituted result contains whitespace it is re-quoted with
// double quotes (embedded quotes backslash-escaped) so the tokenizer that
// runs afterwards treats it as one argument.
func substituteCommands(line string, sub Substituter) (string, error) {
	var out strings.Builder
	inSingle := false
	i, n := 0, len(line)

	for i < n {
		c := line[i]

		if c == '\\' && i+1 < n {
			out.WriteByte(c)
			out.WriteByte(line[i+1])
			i += 2
			continue
		}

		if c == '\'' {
			inSingle = !inSingle
			out.WriteByte(c)
			i++
			continue
		}

		if c == '[' && !inSingle {
			j := i + 1
			depth := 1
			for j < n && depth > 0 {
				if line[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				if line[j] == '[' {
					depth++
				} else if line[j] == ']' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if depth != 0 {
				return "", bclerr.New(bclerr.Parse, "unbalanced '[' in command substitution")
			}

			result, err := sub.EvalSequence(line[i+1 : j])
			if err != nil {
				return "", err
			}
			if strings.ContainsAny(result, " \t\n\r") {
				out.WriteByte('"')
				out.WriteString(strings.ReplaceAll(result, `"`, `\"`))
				out.WriteByte('"')
			} else {
				out.WriteString(result)
			}
			i = j + 1
			continue
		}

		out.WriteByte(c)
		i++
	}

	if inSingle {
		return "", bclerr.New(bclerr.Parse, "unbalanced ' in line")
	}
	return out.String(), nil
}

// tokenizeRaw splits a command-substituted line into raw (not yet escape-
// or variable-expanded) tokens: whitespace-separated barewords, or
// double- or single-quoted runs that keep embedded whitespace.
func tokenizeRaw(line string) ([]rawToken, error) {
	var toks []rawToken
	i, n := 0, len(line)

	for {
		for i < n && isSpace(line[i]) {
			i++
		}
		if i >= n {
			break
		}
		if line[i] == '#' {
			break // comment: rest of line discarded
		}

		switch line[i] {
		case '"':
			start := i + 1
			j := start
			for j < n && line[j] != '"' {
				if line[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				j++
			}
			if j >= n {
				return nil, bclerr.New(bclerr.Parse, `unbalanced " in line`)
			}
			toks = append(toks, rawToken{text: line[start:j], kind: kindDouble})
			i = j + 1

		case '\'':
			start := i + 1
			j := start
			for j < n && line[j] != '\'' {
				j++
			}
			if j >= n {
				return nil, bclerr.New(bclerr.Parse, "unbalanced ' in line")
			}
			toks = append(toks, rawToken{text: line[start:j], kind: kindSingle})
			i = j + 1

		default:
			start := i
			for i < n && !isSpace(line[i]) && line[i] != '#' {
				i++
			}
			toks = append(toks, rawToken{text: line[start:i], kind: kindBare})
		}
	}
	return toks, nil
}

// decodeEscapes resolves backslash escapes in a double-quoted token. \d \D
// \w \W \s \S \[ \] survive as two characters so a later regex engine
// would see them intact; \u is reserved and left literal; every other \X
// collapses to X.
func decodeEscapes(s string) string {
	var sb strings.Builder
	i, n := 0, len(s)
	for i < n {
		if s[i] == '\\' && i+1 < n {
			c := s[i+1]
			switch c {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'a':
				sb.WriteByte('\a')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '\\', '"', '\'':
				sb.WriteByte(c)
			case 'd', 'D', 'w', 'W', 's', 'S', '[', ']', 'u':
				sb.WriteByte('\\')
				sb.WriteByte(c)
			default:
				sb.WriteByte(c)
			}
			i += 2
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// substituteVars expands $name and $name(key) references, including the
// recursive expansion of a parenthesized array key.
func substituteVars(s string, sub Substituter) (string, error) {
	var sb strings.Builder
	i, n := 0, len(s)

	for i < n {
		if s[i] == '$' && i+1 < n && isIdentStart(s[i+1]) {
			j := i + 1
			for j < n && isIdentChar(s[j]) {
				j++
			}
			name := s[i+1 : j]
			i = j

			if i < n && s[i] == '(' {
				depth := 1
				k := i + 1
				for k < n && depth > 0 {
					if s[k] == '(' {
						depth++
					} else if s[k] == ')' {
						depth--
						if depth == 0 {
							break
						}
					}
					k++
				}
				if depth != 0 {
					return "", bclerr.New(bclerr.Parse, "unbalanced '(' in variable reference")
				}
				expandedKey, err := substituteVars(s[i+1:k], sub)
				if err != nil {
					return "", err
				}
				val, _ := sub.GetVar(name + "(" + expandedKey + ")")
				sb.WriteString(val)
				i = k + 1
			} else {
				val, _ := sub.GetVar(name)
				sb.WriteString(val)
			}
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String(), nil
}
