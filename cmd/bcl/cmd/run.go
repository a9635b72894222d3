package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/blockast"
	"github.com/relang/bcl/internal/blockparser"
	"github.com/relang/bcl/internal/interp"
)

var (
	flagTrace          bool
	flagDumpBlocks     bool
	flagRecursionLimit int
)

func init() {
	rootCmd.Flags().BoolVar(&flagTrace, "trace", false, "print each dispatched command before it runs")
	rootCmd.Flags().BoolVar(&flagDumpBlocks, "dump-blocks", false, "print the parsed block tree instead of running it")
	rootCmd.Flags().IntVar(&flagRecursionLimit, "recursion-limit", 128, "maximum scope-stack depth")

	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = runRoot
	// ARGV is exposed as a single whitespace-joined list; cobra's own
	// flag parsing stops at the script path, everything after belongs to
	// the script.
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.FParseErrWhitelist.UnknownFlags = true
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runREPL()
	}
	return runScript(args[0], args[1:])
}

func runScript(path string, scriptArgs []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		exitWithError("%v", err)
		return nil
	}
	source := string(data)

	root, err := blockparser.Parse(source)
	if err != nil {
		printSourceError(err, source, path)
		os.Exit(1)
		return nil
	}

	if flagDumpBlocks {
		dumpBlock(root, 0)
		return nil
	}

	opts := []interp.Option{
		interp.WithArgv(scriptArgs),
		interp.WithRecursionLimit(flagRecursionLimit),
	}
	if flagTrace {
		opts = append(opts, interp.WithTrace(os.Stderr))
	}
	it := interp.New(opts...)

	_, exitCode, err := it.Run(root)
	if err != nil {
		printSourceError(err, source, path)
		if bclerr.As(err, bclerr.Recursion) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	os.Exit(exitCode)
	return nil
}

// printSourceError attaches the script's full source text and path to a
// *bclerr.SourceError (so Format can render the offending line and a
// caret) before printing it, mirroring how errors are reported elsewhere
// with source context in hand; any other error is printed as-is.
func printSourceError(err error, source, path string) {
	if se, ok := err.(*bclerr.SourceError); ok {
		se.WithSource(source, path)
		fmt.Fprintln(os.Stderr, se.Format(true))
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}

func dumpBlock(b *blockast.Block, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s", indent, b.Kind)
	if b.Condition != "" {
		fmt.Printf(" cond=%q", b.Condition)
	}
	if b.ProcName != "" {
		fmt.Printf(" name=%s params=%q", b.ProcName, b.ProcParams)
	}
	fmt.Println()
	for _, item := range b.Items {
		if item.Block != nil {
			dumpBlock(item.Block, depth+1)
		} else {
			fmt.Printf("%s  %s\n", indent, item.Line)
		}
	}
	for _, sib := range b.Siblings {
		dumpBlock(sib, depth)
	}
}
