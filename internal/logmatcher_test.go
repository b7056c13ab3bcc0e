package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogMatcherEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.rs"), rustTestSource)

	m := NewLogMatcher(NewProgressTracker(false))
	if !m.IsEmpty() {
		t.Fatalf("expected a fresh matcher to be empty")
	}
	if err := m.AddRoot(root, NewIgnoreSet(DefaultIgnoreGlobs)); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	if m.IsEmpty() {
		t.Fatalf("expected matcher to be non-empty after AddRoot")
	}

	events, err := m.DiscoverSources()
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if err := m.ExtractLogStatements(events); err != nil {
		t.Fatalf("ExtractLogStatements: %v", err)
	}

	ref, ok := m.MatchLogStatement("this won't match i=1; j=2", "")
	if !ok {
		t.Fatalf("expected a match")
	}
	if ref.Name != "nope" {
		t.Fatalf("ref.Name = %q, want nope", ref.Name)
	}

	if _, ok := m.MatchLogStatement("absolutely nothing like this exists", ""); ok {
		t.Fatalf("expected no match for an unrelated body")
	}
}

func TestLogMatcherHintedMatchUsesSubstringContainment(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "JvmPauseMonitor.java"), javaPunctuationSource)

	m := NewLogMatcher(NewProgressTracker(false))
	if err := m.AddRoot(root, NewIgnoreSet(DefaultIgnoreGlobs)); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	events, err := m.DiscoverSources()
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if err := m.ExtractLogStatements(events); err != nil {
		t.Fatalf("ExtractLogStatements: %v", err)
	}

	// The hint carries neither the directory nor the .java extension, as
	// a pre-parsed log line's file column commonly would not (§4.8).
	ref, ok := m.MatchLogStatement("JvmPauseMonitor-n0: Started", "JvmPauseMonitor")
	if !ok {
		t.Fatalf("expected a hinted match")
	}
	if ref.Text != `"{}: Started"` {
		t.Fatalf("ref.Text = %q, want the Started literal", ref.Text)
	}

	if _, ok := m.MatchLogStatement("JvmPauseMonitor-n0: Started", "NoSuchFile"); ok {
		t.Fatalf("expected no match when hint matches no tracked file")
	}
}

func TestLogMatcherAddRootRejectsDuplicate(t *testing.T) {
	root := t.TempDir()
	m := NewLogMatcher(nil)
	if err := m.AddRoot(root, NewIgnoreSet(nil)); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	err := m.AddRoot(root, NewIgnoreSet(nil))
	if err == nil {
		t.Fatalf("expected PathExistsError on duplicate root")
	}
	if _, ok := err.(*PathExistsError); !ok {
		t.Fatalf("expected *PathExistsError, got %T", err)
	}
}

func TestLogMatcherAddRootRejectsNestedRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "sub")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m := NewLogMatcher(nil)
	if err := m.AddRoot(root, NewIgnoreSet(nil)); err != nil {
		t.Fatalf("AddRoot(root): %v", err)
	}

	err := m.AddRoot(nested, NewIgnoreSet(nil))
	if err == nil {
		t.Fatalf("expected PathExistsError when adding a root nested under an existing one")
	}
	pe, ok := err.(*PathExistsError)
	if !ok {
		t.Fatalf("expected *PathExistsError, got %T", err)
	}
	absRoot, _ := filepath.Abs(root)
	absNested, _ := filepath.Abs(nested)
	if pe.Path != absNested || pe.Root != absRoot {
		t.Fatalf("PathExistsError = %#v, want {Path: %q, Root: %q}", pe, absNested, absRoot)
	}

	// The tree must be left unchanged: only the original root is registered.
	if m.IsEmpty() {
		t.Fatalf("expected matcher to still have the original root")
	}
	if _, ok := m.MatchPath(nested); !ok {
		t.Fatalf("expected the nested path to still resolve under the original root")
	}

	// The reverse direction also violates pairwise non-nesting: adding an
	// ancestor of an already-registered root must fail too.
	m2 := NewLogMatcher(nil)
	if err := m2.AddRoot(nested, NewIgnoreSet(nil)); err != nil {
		t.Fatalf("AddRoot(nested): %v", err)
	}
	err = m2.AddRoot(root, NewIgnoreSet(nil))
	if err == nil {
		t.Fatalf("expected PathExistsError when adding an ancestor of an already-registered root")
	}
	if _, ok := err.(*PathExistsError); !ok {
		t.Fatalf("expected *PathExistsError, got %T", err)
	}
}

func TestLinkToSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.rs"), rustTestSource)

	ref, err := LinkToSource(root, "this won't match i=1; j=2", NewProgressTracker(false))
	if err != nil {
		t.Fatalf("LinkToSource: %v", err)
	}
	if ref.Name != "nope" {
		t.Fatalf("ref.Name = %q, want nope", ref.Name)
	}
}

func TestLinkToSourceNoMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.rs"), rustTestSource)

	_, err := LinkToSource(root, "nope!", NewProgressTracker(false))
	if err != ErrNoLogStatements {
		t.Fatalf("LinkToSource error = %v, want ErrNoLogStatements", err)
	}
}
