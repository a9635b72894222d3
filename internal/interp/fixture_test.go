package interp

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/relang/bcl/internal/blockparser"
)

// TestEndToEndScenarios runs named source snippets through the full
// parse+execute pipeline and snapshots their PUTS output, covering the
// end-to-end scenarios a fresh reader would reach for when checking that
// a change hasn't quietly altered observable behavior.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{
			name: "ArithmeticAndCommandSubstitution",
			src:  "SET x 5\nSET y 3\nPUTS [EXPR $x * $y + 1]",
		},
		{
			name: "WhileLoop",
			src:  "SET n 0\nWHILE $n < 3 DO\nINCR n\nEND\nPUTS $n",
		},
		{
			name: "ProcWithInlineIfAndDefaultParam",
			src: "PROC greet WITH name @greeting DO\n" +
				"IF $greeting == \"\" THEN SET greeting Hello END\n" +
				"PUTS \"$greeting $name\"\n" +
				"END\n" +
				"greet World",
		},
		{
			name: "ArrayGlobalsAcrossProcCall",
			src: "SET cfg(port) 80\n" +
				"PROC bump DO\nGLOBAL cfg\nINCR cfg(port) 8000\nEND\n" +
				"bump\nPUTS $cfg(port)",
		},
		{
			name: "ExprFunctionCall",
			src:  "PUTS [EXPR sqrt(16)]",
		},
		{
			name: "SwitchInlineCases",
			src: "SET color red\n" +
				"SWITCH $color DO\nCASE red PUTS R END\nCASE blue PUTS B END\nDEFAULT PUTS ? END\nEND",
		},
		{
			name: "ForLoopAccumulation",
			src:  "SET total 0\nFOR 1 TO 5 DO\nINCR total $I\nEND\nPUTS $total",
		},
		{
			name: "ForeachOverLiteralList",
			src:  "SET acc \"\"\nFOREACH x IN a b c DO\nAPPEND acc $x\nEND\nPUTS $acc",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			it := New(WithOutput(&out))
			root, err := blockparser.Parse(tc.src)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if _, _, err := it.Run(root); err != nil {
				t.Fatalf("run error: %v", err)
			}
			snaps.MatchSnapshot(t, fmt.Sprintf("%s_output", tc.name), out.String())
		})
	}
}
