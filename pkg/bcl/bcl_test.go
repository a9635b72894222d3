package bcl

import (
	"bytes"
	"strings"
	"testing"
)

func TestEnginePersistsStateAcrossEval(t *testing.T) {
	var out bytes.Buffer
	e := New(WithStdout(&out))

	if _, err := e.Eval("SET x 5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Eval("PUTS [EXPR $x + 1]"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "6" {
		t.Errorf("output = %q, want %q", out.String(), "6")
	}
}

func TestEngineRegisterCommand(t *testing.T) {
	var out bytes.Buffer
	e := New(WithStdout(&out))
	e.RegisterCommand("SHOUT", func(args []string) (string, error) {
		return strings.ToUpper(strings.Join(args, " ")), nil
	})

	if _, err := e.Eval("PUTS [SHOUT hello there]"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "HELLO THERE" {
		t.Errorf("output = %q, want %q", out.String(), "HELLO THERE")
	}
}

func TestEngineExitCode(t *testing.T) {
	e := New(WithStdout(&bytes.Buffer{}))
	res, err := e.Eval("EXIT 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}
