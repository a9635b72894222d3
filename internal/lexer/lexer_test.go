package lexer

import "testing"

type fakeSub struct {
	vars map[string]string
	eval func(string) (string, error)
}

func (f *fakeSub) GetVar(name string) (string, bool) {
	v, ok := f.vars[name]
	return v, ok
}

func (f *fakeSub) EvalSequence(text string) (string, error) {
	if f.eval != nil {
		return f.eval(text)
	}
	return text, nil
}

func TestTokenizeSimple(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{}}
	argv, err := Tokenize("set x 5", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"set", "x", "5"}
	if len(argv) != len(want) {
		t.Fatalf("got %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	// Property 1: a whitespace-free, quote-free, $/[-free token round-trips.
	sub := &fakeSub{vars: map[string]string{}}
	tokens := []string{"hello", "foo_bar", "123", "a.b.c"}
	for _, tok := range tokens {
		argv, err := Tokenize(tok, sub)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", tok, err)
		}
		if len(argv) != 1 || argv[0] != tok {
			t.Errorf("Tokenize(%q) = %v, want [%q]", tok, argv, tok)
		}
	}
}

func TestTokenizeComment(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{}}
	argv, err := Tokenize("  # a comment", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(argv) != 0 {
		t.Errorf("got %v, want empty", argv)
	}
}

func TestTokenizeDoubleQuoted(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{"name": "World"}}
	argv, err := Tokenize(`puts "Hello $name"`, sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"puts", "Hello World"}
	if len(argv) != 2 || argv[1] != want[1] {
		t.Fatalf("got %v, want %v", argv, want)
	}
}

func TestTokenizeSingleQuotedVerbatim(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{"name": "World"}}
	argv, err := Tokenize(`puts 'Hello $name'`, sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if argv[1] != "Hello $name" {
		t.Errorf("got %q, want literal $name preserved", argv[1])
	}
}

func TestTokenizeCommandSubstitution(t *testing.T) {
	sub := &fakeSub{
		vars: map[string]string{},
		eval: func(text string) (string, error) { return "42", nil },
	}
	argv, err := Tokenize("set x [expr 6 * 7]", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if argv[2] != "42" {
		t.Errorf("got %q, want 42", argv[2])
	}
}

func TestTokenizeCommandSubstitutionRequotesWhitespace(t *testing.T) {
	// Property 2: echo [E] tokenizes like echo V when V has no whitespace,
	// and a whitespace-bearing result is re-quoted into a single argument.
	sub := &fakeSub{
		vars: map[string]string{},
		eval: func(text string) (string, error) { return "a b", nil },
	}
	argv, err := Tokenize("echo [cmd]", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(argv) != 2 || argv[1] != "a b" {
		t.Fatalf("got %v, want 2 args with second == %q", argv, "a b")
	}
}

func TestTokenizeArrayVariable(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{"cfg(port)": "8080"}}
	argv, err := Tokenize("puts $cfg(port)", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if argv[1] != "8080" {
		t.Errorf("got %q, want 8080", argv[1])
	}
}

func TestTokenizeUnbalancedBracket(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{}}
	if _, err := Tokenize("set x [expr 1 + 1", sub); err == nil {
		t.Fatal("expected parse error for unbalanced bracket")
	}
}

func TestTokenizeUnbalancedQuote(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{}}
	if _, err := Tokenize(`puts "unterminated`, sub); err == nil {
		t.Fatal("expected parse error for unbalanced quote")
	}
}

func TestSubstituteTextForCondition(t *testing.T) {
	sub := &fakeSub{vars: map[string]string{"n": "3"}}
	got, err := SubstituteText("$n < 5", sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "3 < 5" {
		t.Errorf("got %q, want %q", got, "3 < 5")
	}
}
