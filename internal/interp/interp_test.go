package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/relang/bcl/internal/bclerr"
	"github.com/relang/bcl/internal/blockparser"
	"github.com/relang/bcl/internal/value"
)

func runSource(t *testing.T, src string) (string, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	i := New(WithOutput(&out))
	root, err := blockparser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	result, exitCode, err := i.Run(root)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("unexpected exit code %d", exitCode)
	}
	return result, &out
}

func TestScenarioAArithmeticAndPuts(t *testing.T) {
	_, out := runSource(t, "SET x 5\nSET y 3\nPUTS [EXPR $x * $y + 1]")
	if strings.TrimSpace(out.String()) != "16" {
		t.Errorf("output = %q, want %q", out.String(), "16")
	}
}

func TestScenarioBWhileLoop(t *testing.T) {
	_, out := runSource(t, "SET n 0\nWHILE $n < 3 DO\nINCR n\nEND\nPUTS $n")
	if strings.TrimSpace(out.String()) != "3" {
		t.Errorf("output = %q, want %q", out.String(), "3")
	}
}

func TestScenarioCProcWithInlineIf(t *testing.T) {
	src := "PROC greet WITH name @greeting DO\n" +
		"IF $greeting == \"\" THEN SET greeting Hello END\n" +
		"PUTS \"$greeting $name\"\n" +
		"END\n" +
		"greet World"
	_, out := runSource(t, src)
	if strings.TrimSpace(out.String()) != "Hello World" {
		t.Errorf("output = %q, want %q", out.String(), "Hello World")
	}
}

func TestScenarioDArrayGlobalsAcrossProcCall(t *testing.T) {
	src := "SET cfg(port) 80\n" +
		"PROC bump DO\nGLOBAL cfg\nINCR cfg(port) 8000\nEND\n" +
		"bump\n" +
		"PUTS $cfg(port)"
	_, out := runSource(t, src)
	if strings.TrimSpace(out.String()) != "8080" {
		t.Errorf("output = %q, want %q", out.String(), "8080")
	}
}

func TestScenarioEExprFunctionCall(t *testing.T) {
	_, out := runSource(t, "PUTS [EXPR sqrt(16)]")
	if strings.TrimSpace(out.String()) != "4" {
		t.Errorf("output = %q, want %q", out.String(), "4")
	}
}

func TestScenarioFSwitchInlineCases(t *testing.T) {
	src := "SET color red\n" +
		"SWITCH $color DO\nCASE red PUTS R END\nCASE blue PUTS B END\nDEFAULT PUTS ? END\nEND"
	_, out := runSource(t, src)
	if strings.TrimSpace(out.String()) != "R" {
		t.Errorf("output = %q, want %q", out.String(), "R")
	}
}

func TestScopeIsolation(t *testing.T) {
	var out bytes.Buffer
	i := New(WithOutput(&out))
	i.Globals["N"] = value.New("before")
	root, err := blockparser.Parse("PROC p DO SET N V END\np")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, _, err := i.Run(root); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := i.Globals["N"].String(); got != "before" {
		t.Errorf("global N leaked into global scope: %q", got)
	}
}

func TestReturnConsumesExactlyOneScope(t *testing.T) {
	var out bytes.Buffer
	i := New(WithOutput(&out))
	root, err := blockparser.Parse("PROC p DO RETURN 7 END\nSET r [p]")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, _, err := i.Run(root); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := i.Globals["r"].String(); got != "7" {
		t.Errorf("r = %q, want %q", got, "7")
	}
	if len(i.scopes) != 0 {
		t.Errorf("scope stack not empty after RETURN: %d frames", len(i.scopes))
	}
}

func TestUnknownCommandIsError(t *testing.T) {
	i := New(WithOutput(&bytes.Buffer{}))
	root, err := blockparser.Parse("NOSUCHCOMMAND 1 2 3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, _, err := i.Run(root); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestExitPropagatesCode(t *testing.T) {
	i := New(WithOutput(&bytes.Buffer{}))
	root, err := blockparser.Parse("PUTS hi\nEXIT 2\nPUTS unreachable")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, exitCode, err := i.Run(root)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if exitCode != 2 {
		t.Errorf("exit code = %d, want 2", exitCode)
	}
}

func TestForLoop(t *testing.T) {
	_, out := runSource(t, "SET total 0\nFOR 1 TO 3 DO\nINCR total $I\nEND\nPUTS $total")
	if strings.TrimSpace(out.String()) != "6" {
		t.Errorf("output = %q, want %q", out.String(), "6")
	}
}

func TestInfoStackReflectsActiveCalls(t *testing.T) {
	_, out := runSource(t, "PROC inner DO PUTS [INFO STACK] END\n"+
		"PROC outer DO inner END\n"+
		"outer")
	got := strings.TrimSpace(out.String())
	if !strings.Contains(got, "inner") || !strings.Contains(got, "outer") {
		t.Errorf("INFO STACK output = %q, want both frame names present", got)
	}
	if strings.Index(got, "inner") > strings.Index(got, "outer") {
		t.Error("expected the innermost frame first in INFO STACK output")
	}
}

func TestInfoStackEmptyAtTopLevel(t *testing.T) {
	_, out := runSource(t, "PUTS [INFO STACK]")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Errorf("INFO STACK at top level = %q, want empty", got)
	}
}

func TestRuntimeErrorCarriesCallStack(t *testing.T) {
	i := New(WithOutput(&bytes.Buffer{}))
	root, err := blockparser.Parse("PROC fails DO NOSUCHCOMMAND END\nPROC wrapper DO fails END\nwrapper")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, _, runErr := i.Run(root)
	if runErr == nil {
		t.Fatal("expected an error from the unknown command")
	}
	se, ok := runErr.(*bclerr.SourceError)
	if !ok {
		t.Fatalf("error is %T, want *bclerr.SourceError", runErr)
	}
	if len(se.Stack) != 2 {
		t.Fatalf("Stack has %d frames, want 2: %v", len(se.Stack), se.Stack)
	}
	if se.Stack[0].ProcName != "wrapper" || se.Stack[1].ProcName != "fails" {
		t.Errorf("Stack = %v, want [wrapper fails] (oldest call first)", se.Stack)
	}
}

func TestForeachLoop(t *testing.T) {
	_, out := runSource(t, "SET acc \"\"\nFOREACH x IN a b c DO\nAPPEND acc $x\nEND\nPUTS $acc")
	if strings.TrimSpace(out.String()) != "abc" {
		t.Errorf("output = %q, want %q", out.String(), "abc")
	}
}
