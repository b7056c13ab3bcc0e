package internal

import (
	"path/filepath"
	"testing"
)

func TestManifestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFileName)

	want := Manifest{
		Roots:         []RootSpec{{Path: "./src", Ignore: []string{"**/testdata/**"}}},
		LogLinePrefix: `^(?P<file>\S+):(?P<line>\d+): (?P<body>.*)$`,
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(got.Roots) != 1 || got.Roots[0].Path != "./src" || len(got.Roots[0].Ignore) != 1 {
		t.Fatalf("got.Roots = %#v", got.Roots)
	}
	if got.LogLinePrefix != want.LogLinePrefix {
		t.Fatalf("got.LogLinePrefix = %q, want %q", got.LogLinePrefix, want.LogLinePrefix)
	}

	format, err := got.LogFormat()
	if err != nil {
		t.Fatalf("LogFormat: %v", err)
	}
	if format == nil {
		t.Fatalf("expected a non-nil LogFormat")
	}
}

func TestSampleManifestHasOneRoot(t *testing.T) {
	m := SampleManifest()
	if len(m.Roots) != 1 || m.Roots[0].Path != "." {
		t.Fatalf("SampleManifest().Roots = %#v", m.Roots)
	}
}
