// Command bcl runs the BCL interpreter: with no arguments it starts an
// interactive REPL; with a script path it loads and evaluates that file,
// exposing any remaining arguments to the script via ARGV.
package main

import (
	"os"

	"github.com/relang/bcl/cmd/bcl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
