package internal

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the project manifest logxray reads by default,
// analogous to the teacher's per-repo LogCallDefinitionFileName but
// describing source roots and the log pre-parser instead of a
// hand-authored query catalog.
const ManifestFileName = ".logxray.toml"

// RootSpec is one entry in a Manifest's Roots list: a directory to
// register with a LogMatcher, plus any extra ignore globs on top of
// DefaultIgnoreGlobs.
type RootSpec struct {
	Path   string   `toml:"path"`
	Ignore []string `toml:"ignore,omitempty"`
}

// Manifest is the on-disk project configuration: which source roots to
// scan, and an optional pre-parser describing how raw log lines carry a
// file/line hint alongside their body.
type Manifest struct {
	Roots         []RootSpec `toml:"roots"`
	LogLinePrefix string     `toml:"log_line_prefix,omitempty"`
}

// SampleManifest returns a starter Manifest for `logxray manifest new`.
func SampleManifest() Manifest {
	return Manifest{
		Roots: []RootSpec{
			{Path: "."},
		},
		LogLinePrefix: `^(?P<file>\S+):(?P<line>\d+): (?P<body>.*)$`,
	}
}

// LoadManifest reads and parses a Manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CannotReadSourceFileError{Path: path, Err: err}
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes m to path in TOML form.
func (m Manifest) Save(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LogFormat compiles the manifest's LogLinePrefix, if any.
func (m Manifest) LogFormat() (*LogFormat, error) {
	if m.LogLinePrefix == "" {
		return nil, nil
	}
	return NewLogFormat(m.LogLinePrefix)
}
