package internal

import "testing"

func TestFromParsedExtractsFileLineBody(t *testing.T) {
	format, err := NewLogFormat(`^(?P<file>\S+):(?P<line>\d+): (?P<body>.*)$`)
	if err != nil {
		t.Fatalf("NewLogFormat: %v", err)
	}
	details := FromParsed("nope.rs:42: this won't match i=1; j=2", format)
	if details.Ref.File != "nope.rs" {
		t.Errorf("Ref.File = %q, want nope.rs", details.Ref.File)
	}
	if details.Ref.Line != 42 {
		t.Errorf("Ref.Line = %d, want 42", details.Ref.Line)
	}
	if details.Body != "this won't match i=1; j=2" {
		t.Errorf("Body = %q", details.Body)
	}
}

func TestFromParsedNoMatchFallsBackToWholeLine(t *testing.T) {
	format, err := NewLogFormat(`^(?P<file>\S+):(?P<line>\d+): (?P<body>.*)$`)
	if err != nil {
		t.Fatalf("NewLogFormat: %v", err)
	}
	details := FromParsed("not in the expected shape", format)
	if details.Body != "not in the expected shape" {
		t.Errorf("Body = %q, want whole line", details.Body)
	}
	if details.Ref.File != "" || details.Ref.Line != 0 {
		t.Errorf("expected zero-value ref, got %#v", details.Ref)
	}
}

func TestFromParsedNilFormat(t *testing.T) {
	details := FromParsed("whole line as body", nil)
	if details.Body != "whole line as body" {
		t.Errorf("Body = %q", details.Body)
	}
}

func TestFilterLogRangeInclusive(t *testing.T) {
	buffer := "one\ntwo\nthree\nfour\n"
	lines := FilterLog(buffer, 2, 3, nil)
	if len(lines) != 2 || lines[0].Body != "two" || lines[1].Body != "three" {
		t.Fatalf("FilterLog(2,3) = %#v", lines)
	}
}

func TestFilterLogToZeroMeansThroughEnd(t *testing.T) {
	buffer := "one\ntwo\nthree"
	lines := FilterLog(buffer, 2, 0, nil)
	if len(lines) != 2 || lines[0].Body != "two" || lines[1].Body != "three" {
		t.Fatalf("FilterLog(2,0) = %#v", lines)
	}
}
