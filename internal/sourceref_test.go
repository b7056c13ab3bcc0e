package internal

import "testing"

const rustTestSource = `
#[macro_use]
extern crate log;

fn main() {
    env_logger::init();
    debug!("you're only as funky as your last cut");
    for i in 0..3 {
        foo(i);
    }
}

fn foo(i: u32) {
    nope(i);
}

fn nope(i: u32, j: i32) {
    debug!("this won't match i={}; j={}", i, j);
}

fn namedarg(name: &str) {
    debug!("Hello, {name}!");
}
`

func extractRustRefs(t *testing.T, src string) []SourceRef {
	t.Helper()
	code, err := NewCodeSourceFromString("in-mem.rs", src)
	if err != nil {
		t.Fatalf("NewCodeSourceFromString: %v", err)
	}
	defer code.Close()

	stmts, err := ExtractLogStatements(code, 0)
	if err != nil {
		t.Fatalf("ExtractLogStatements: %v", err)
	}
	if stmts == nil {
		t.Fatalf("expected statements, got none")
	}
	return stmts.LogStatements
}

func TestExtractLogStatementsRust(t *testing.T) {
	refs := extractRustRefs(t, rustTestSource)
	if len(refs) != 3 {
		t.Fatalf("expected 3 log statements, got %d", len(refs))
	}

	first := refs[0]
	if first.LineNo != 7 {
		t.Errorf("first.LineNo = %d, want 7", first.LineNo)
	}
	if first.Column != 11 {
		t.Errorf("first.Column = %d, want 11", first.Column)
	}
	if first.Name != "main" {
		t.Errorf("first.Name = %q, want %q", first.Name, "main")
	}
	if first.Text != `"you're only as funky as your last cut"` {
		t.Errorf("first.Text = %q", first.Text)
	}
	if len(first.Vars) != 0 {
		t.Errorf("first.Vars = %v, want empty", first.Vars)
	}

	second := refs[1]
	if second.LineNo != 18 {
		t.Errorf("second.LineNo = %d, want 18", second.LineNo)
	}
	if second.Name != "nope" {
		t.Errorf("second.Name = %q, want %q", second.Name, "nope")
	}
	if len(second.Vars) != 2 || second.Vars[0] != "i" || second.Vars[1] != "j" {
		t.Errorf("second.Vars = %v, want [i j]", second.Vars)
	}
}

func TestExtractVariablesRustPositionalAndNamed(t *testing.T) {
	refs := extractRustRefs(t, rustTestSource)

	values := MatchedValues(&refs[1], "this won't match i=1; j=2")
	vars := ExtractVariables(&refs[1], values)
	want := []VariablePair{{Expr: "i", Value: "1"}, {Expr: "j", Value: "2"}}
	if len(vars) != len(want) || vars[0] != want[0] || vars[1] != want[1] {
		t.Fatalf("ExtractVariables = %#v, want %#v", vars, want)
	}

	values = MatchedValues(&refs[2], "Hello, Tim!")
	vars = ExtractVariables(&refs[2], values)
	wantNamed := []VariablePair{{Expr: "name", Value: "Tim"}}
	if len(vars) != 1 || vars[0] != wantNamed[0] {
		t.Fatalf("ExtractVariables(named) = %#v, want %#v", vars, wantNamed)
	}
}

func TestExtractVariablesRustMultiline(t *testing.T) {
	const multilineSource = `
#[macro_use]
extern crate log;

fn main() {
    env_logger::init();
    let adjective = "funky";
    debug!("you're only as {}\n as your last cut", adjective);
}
`
	refs := extractRustRefs(t, multilineSource)
	if len(refs) != 1 {
		t.Fatalf("expected 1 log statement, got %d", len(refs))
	}

	body := "you're only as funky\n as your last cut"
	values := MatchedValues(&refs[0], body)
	vars := ExtractVariables(&refs[0], values)
	want := VariablePair{Expr: "adjective", Value: "funky"}
	if len(vars) != 1 || vars[0] != want {
		t.Fatalf("ExtractVariables = %#v, want [%#v]", vars, want)
	}
}

func TestMatchLogStatementNoMatch(t *testing.T) {
	refs := extractRustRefs(t, rustTestSource)
	patterns := make([]string, len(refs))
	for i, r := range refs {
		patterns[i] = r.Pattern
	}
	m := NewPerFileMatcher(patterns)
	defer m.Close()
	if hits := m.Matches("nope!"); len(hits) != 0 {
		t.Fatalf("expected no matches, got %v", hits)
	}
}

const javaPunctuationSource = `
class JvmPauseMonitor {
  private void run() {
    LOG.info("{}: Started", this);
    try {
      for (; Thread.currentThread().equals(threadRef.get()); ) {
        detectPause();
      }
    } finally {
      LOG.info("{}: Stopped", this);
    }
  }
}
`

func TestExtractLogStatementsJavaDenylistsLoggerObject(t *testing.T) {
	code, err := NewCodeSourceFromString("in-mem.java", javaPunctuationSource)
	if err != nil {
		t.Fatalf("NewCodeSourceFromString: %v", err)
	}
	defer code.Close()

	stmts, err := ExtractLogStatements(code, 0)
	if err != nil {
		t.Fatalf("ExtractLogStatements: %v", err)
	}
	if stmts == nil || len(stmts.LogStatements) != 2 {
		t.Fatalf("expected 2 log statements, got %#v", stmts)
	}

	ref := stmts.LogStatements[0]
	if len(ref.Vars) != 1 || ref.Vars[0] != "this" {
		t.Fatalf("ref.Vars = %v, want [this] (LOG object should be denylisted)", ref.Vars)
	}

	values := MatchedValues(&ref, "JvmPauseMonitor-n0: Started")
	vars := ExtractVariables(&ref, values)
	want := VariablePair{Expr: "this", Value: "JvmPauseMonitor-n0"}
	if len(vars) != 1 || vars[0] != want {
		t.Fatalf("ExtractVariables = %#v, want [%#v]", vars, want)
	}
}

// TestAppendArgDedupesOverlappingCaptures guards against the Java query's
// `this` pattern double-capturing an argument that a grammar version
// also matches via the general `(_)* @args` wildcard: two captures over
// the identical byte range must only contribute one Vars entry.
func TestAppendArgDedupesOverlappingCaptures(t *testing.T) {
	code, err := NewCodeSourceFromString("in-mem.java", javaPunctuationSource)
	if err != nil {
		t.Fatalf("NewCodeSourceFromString: %v", err)
	}
	defer code.Close()

	st := &builderState{code: code, profile: code.profile}
	st.startRef(QueryMatch{Kind: "arguments", Text: `"{}: Started"`})

	overlap := QueryMatch{Kind: "args", Text: "this", StartByte: 10, EndByte: 14}
	st.appendArg(overlap)
	st.appendArg(QueryMatch{Kind: "this", Text: "this", StartByte: 10, EndByte: 14})

	if len(st.refs[0].Vars) != 1 || st.refs[0].Vars[0] != "this" {
		t.Fatalf("refs[0].Vars = %v, want a single [this] entry", st.refs[0].Vars)
	}
}

const cppSource = `
#include <stdio.h>

int main(int argc, char* argv[]) {
    printf("Hello, %s!", argv[1]);
}
`

func TestExtractLogStatementsCpp(t *testing.T) {
	code, err := NewCodeSourceFromString("in-mem.cc", cppSource)
	if err != nil {
		t.Fatalf("NewCodeSourceFromString: %v", err)
	}
	defer code.Close()

	stmts, err := ExtractLogStatements(code, 0)
	if err != nil {
		t.Fatalf("ExtractLogStatements: %v", err)
	}
	if stmts == nil || len(stmts.LogStatements) != 1 {
		t.Fatalf("expected 1 log statement, got %#v", stmts)
	}

	ref := stmts.LogStatements[0]
	values := MatchedValues(&ref, "Hello, Steve!")
	vars := ExtractVariables(&ref, values)
	want := VariablePair{Expr: "argv[1]", Value: "Steve"}
	if len(vars) != 1 || vars[0] != want {
		t.Fatalf("ExtractVariables = %#v, want [%#v]", vars, want)
	}
}
