package blockparser

import (
	"testing"

	"github.com/relang/bcl/internal/blockast"
)

func TestParseSimpleLines(t *testing.T) {
	root, err := Parse("SET x 5\nSET y 3\nPUTS [EXPR $x * $y + 1]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(root.Items))
	}
	for _, item := range root.Items {
		if item.Block != nil {
			t.Errorf("expected raw line item, got block")
		}
	}
}

func TestParseWhileLoop(t *testing.T) {
	root, err := Parse("SET n 0\nWHILE $n < 3 DO\nINCR n\nEND\nPUTS $n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Items) != 3 {
		t.Fatalf("got %d root items, want 3", len(root.Items))
	}
	whileBlock := root.Items[1].Block
	if whileBlock == nil || whileBlock.Kind != blockast.While {
		t.Fatalf("expected While block, got %+v", root.Items[1])
	}
	if whileBlock.Condition != "$n < 3" {
		t.Errorf("condition = %q, want %q", whileBlock.Condition, "$n < 3")
	}
	if len(whileBlock.Items) != 1 || whileBlock.Items[0].Line != "INCR n" {
		t.Errorf("unexpected while body: %+v", whileBlock.Items)
	}
}

func TestParseProcWithInlineIf(t *testing.T) {
	src := "PROC greet WITH name @greeting DO\n" +
		"IF $greeting == \"\" THEN SET greeting Hello END\n" +
		"PUTS \"$greeting $name\"\n" +
		"END\n" +
		"greet World"
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Items) != 2 {
		t.Fatalf("got %d root items, want 2 (proc + call)", len(root.Items))
	}
	proc := root.Items[0].Block
	if proc == nil || proc.Kind != blockast.Proc {
		t.Fatalf("expected Proc block")
	}
	if proc.ProcName != "greet" || proc.ProcParams != "name @greeting" {
		t.Errorf("proc header = %q/%q", proc.ProcName, proc.ProcParams)
	}
	if len(proc.Items) != 2 {
		t.Fatalf("got %d proc items, want 2", len(proc.Items))
	}
	inlineIf := proc.Items[0].Block
	if inlineIf == nil || inlineIf.Kind != blockast.If {
		t.Fatalf("expected inline If block, got %+v", proc.Items[0])
	}
	if inlineIf.Condition != `$greeting == ""` {
		t.Errorf("condition = %q", inlineIf.Condition)
	}
	if len(inlineIf.Items) != 1 || inlineIf.Items[0].Line != "SET greeting Hello" {
		t.Errorf("unexpected inline if body: %+v", inlineIf.Items)
	}
	if root.Items[1].Line != "greet World" {
		t.Errorf("call line = %q", root.Items[1].Line)
	}
}

func TestParseIfElseIfElse(t *testing.T) {
	src := "IF $a THEN\nPUTS A\nELSEIF $b THEN\nPUTS B\nELSE\nPUTS C\nEND"
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ifBlock := root.Items[0].Block
	if ifBlock == nil || ifBlock.Kind != blockast.If {
		t.Fatalf("expected If block")
	}
	if len(ifBlock.Siblings) != 2 {
		t.Fatalf("got %d siblings, want 2 (ElseIf, Else)", len(ifBlock.Siblings))
	}
	if ifBlock.Siblings[0].Kind != blockast.ElseIf || ifBlock.Siblings[0].Condition != "$b" {
		t.Errorf("elseif = %+v", ifBlock.Siblings[0])
	}
	if ifBlock.Siblings[1].Kind != blockast.Else {
		t.Errorf("else = %+v", ifBlock.Siblings[1])
	}
	if ifBlock.Siblings[0].Owner != ifBlock || ifBlock.Siblings[1].Owner != ifBlock {
		t.Errorf("sibling Owner not wired to the If chain head")
	}
}

func TestParseSwitchInlineCases(t *testing.T) {
	src := "SET color red\nSWITCH $color DO\nCASE red PUTS R END\nCASE blue PUTS B END\nDEFAULT PUTS ? END\nEND"
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sw := root.Items[1].Block
	if sw == nil || sw.Kind != blockast.Switch {
		t.Fatalf("expected Switch block, got %+v", root.Items[1])
	}
	if len(sw.Siblings) != 3 {
		t.Fatalf("got %d siblings, want 3", len(sw.Siblings))
	}
	if sw.Siblings[0].Condition != "red" || sw.Siblings[0].Items[0].Line != "PUTS R" {
		t.Errorf("case red = %+v", sw.Siblings[0])
	}
	if sw.Siblings[2].Kind != blockast.Default || sw.Siblings[2].Items[0].Line != "PUTS ?" {
		t.Errorf("default = %+v", sw.Siblings[2])
	}
}

func TestParseUnclosedBlockIsError(t *testing.T) {
	if _, err := Parse("IF $a THEN\nPUTS hi"); err == nil {
		t.Fatal("expected error for unclosed IF")
	}
}

func TestParseElseWithoutIfIsError(t *testing.T) {
	if _, err := Parse("ELSE\nPUTS hi\nEND"); err == nil {
		t.Fatal("expected error for ELSE without IF")
	}
}
