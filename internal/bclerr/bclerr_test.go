package bclerr

import (
	"strings"
	"testing"
)

func TestFormatRendersCaretAtColumn(t *testing.T) {
	err := NewAtCol(Parse, 2, 5, "missing DO").WithSource("PROC p\nWHILE x\nEND\n", "script.bcl")
	out := err.Format(false)
	lines := strings.Split(out, "\n")
	if len(lines) < 3 {
		t.Fatalf("Format output has too few lines: %q", out)
	}
	if !strings.Contains(lines[0], "script.bcl:2") {
		t.Errorf("first line = %q, want it to name file and line", lines[0])
	}
	if !strings.Contains(lines[1], "WHILE x") {
		t.Errorf("source line not rendered: %q", lines[1])
	}
	caret := lines[2]
	if !strings.HasSuffix(caret, "^") {
		t.Errorf("caret line = %q, want it to end in ^", caret)
	}
}

func TestFormatWithNoPositionOmitsSourceLine(t *testing.T) {
	err := New(Runtime, "boom")
	out := err.Format(false)
	if out != "Error: boom" {
		t.Errorf("Format() = %q, want %q", out, "Error: boom")
	}
}

func TestFormatAppendsCallStack(t *testing.T) {
	err := New(Runtime, "boom")
	err.Stack = CallStack{{ProcName: "outer", Line: 3}, {ProcName: "inner", Line: 7}}
	out := err.Format(false)
	if !strings.Contains(out, "inner [line: 7]") || !strings.Contains(out, "outer [line: 3]") {
		t.Errorf("Format() = %q, want both frames rendered", out)
	}
	if strings.Index(out, "inner") > strings.Index(out, "outer") {
		t.Error("expected most-recent-first ordering, innermost frame first")
	}
}

func TestAsMatchesKind(t *testing.T) {
	err := New(Recursion, "too deep")
	if !As(err, Recursion) {
		t.Error("As(err, Recursion) = false, want true")
	}
	if As(err, Runtime) {
		t.Error("As(err, Runtime) = true, want false")
	}
	if As(nil, Recursion) {
		t.Error("As(nil, Recursion) = true, want false")
	}
}
