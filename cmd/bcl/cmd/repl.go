package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/relang/bcl/internal/blockparser"
	"github.com/relang/bcl/internal/interp"
)

var blockOpeners = map[string]bool{
	"IF": true, "WHILE": true, "FOR": true, "FOREACH": true, "SWITCH": true, "PROC": true,
}

// lineOpensUnclosedBlock returns the change in structural block depth that
// line causes: 1 if it opens a multi-line block form (as opposed to a
// single-line inline form that already contains its own END), -1 if it is
// an END, 0 otherwise, so the REPL knows to keep reading more lines before
// parsing.
func lineOpensUnclosedBlock(line string) int {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return 0
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return 0
	}
	first := strings.ToUpper(fields[0])

	if first == "END" {
		return -1
	}
	if blockOpeners[first] {
		// An inline form carries its own END on the same physical line.
		for _, f := range fields[1:] {
			if strings.ToUpper(strings.Trim(f, "\"'")) == "END" {
				return 0
			}
		}
		return 1
	}
	return 0
}

func runREPL() error {
	it := interp.New()
	reader := bufio.NewReader(os.Stdin)
	var pending []string
	depth := 0

	prompt := func() {
		if depth == 0 {
			fmt.Print("bcl> ")
		} else {
			fmt.Print("...> ")
		}
	}

	prompt()
	for {
		line, err := reader.ReadString('\n')
		if len(line) == 0 && err != nil {
			break
		}
		line = strings.TrimRight(line, "\n")
		pending = append(pending, line)
		depth += lineOpensUnclosedBlock(line)

		if depth <= 0 {
			src := strings.Join(pending, "\n")
			pending = nil
			depth = 0
			evalREPLChunk(it, src)
		}
		if err != nil {
			break
		}
		prompt()
	}
	fmt.Println()
	return nil
}

func evalREPLChunk(it *interp.Interpreter, src string) {
	if strings.TrimSpace(src) == "" {
		return
	}
	root, err := blockparser.Parse(src)
	if err != nil {
		printSourceError(err, src, "<stdin>")
		return
	}
	result, exit, err := it.RunExit(root)
	if err != nil {
		printSourceError(err, src, "<stdin>")
		return
	}
	if exit != nil {
		os.Exit(exit.ExitCode)
	}
	if result != "" {
		fmt.Println(result)
	}
}
