package internal

import "testing"

func TestBuildRefColumnZeroWidthDisabled(t *testing.T) {
	opts := RenderOptions{SourceColumnWidth: 0}
	if col := BuildRefColumn(opts, &SourceRef{SourcePath: "a.rs", LineNo: 1}); col != "" {
		t.Fatalf("BuildRefColumn with zero width = %q, want empty", col)
	}
}

func TestBuildRefColumnNilRefBlank(t *testing.T) {
	opts := RenderOptions{SourceColumnWidth: 20}
	col := BuildRefColumn(opts, nil)
	if len(col) == 0 {
		t.Fatalf("expected a non-empty blank column")
	}
}

func TestExtractVariablesPositionalOutOfRange(t *testing.T) {
	// §4.9: an out-of-range Positional(pos) still carries the captured
	// value through; only the expression falls back to the sentinel.
	ref := &SourceRef{
		Args: []FormatArgument{{Kind: ArgPositional, Pos: 5}},
		Vars: []string{"i"},
	}
	vars := ExtractVariables(ref, []string{"1"})
	if len(vars) != 1 || vars[0].Expr != unknownValue || vars[0].Value != "1" {
		t.Fatalf("ExtractVariables = %#v, want {Expr: %q, Value: \"1\"}", vars, unknownValue)
	}
}
