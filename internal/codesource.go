package internal

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
)

// CodeSource is an in-memory representation of one source file: its
// path, detected language, full buffer and parsed syntax tree. It
// performs no logging-specific work — that's the query engine and the
// source-reference builder's job.
type CodeSource struct {
	Path     string
	Language SourceLanguage
	Buffer   string
	Tree     *sitter.Tree

	profile *languageProfile
}

// Close releases the underlying tree-sitter tree. Safe to call on a
// zero-value or already-closed CodeSource.
func (c *CodeSource) Close() {
	if c.Tree != nil {
		c.Tree.Close()
		c.Tree = nil
	}
}

// LoadCodeSource detects the language from path's extension, reads r
// fully, and parses the buffer. Returns UnsupportedFileTypeError if the
// extension carries no language profile, or CannotReadSourceFileError if
// reading fails.
func LoadCodeSource(path string, r io.Reader) (*CodeSource, error) {
	profile, ok := profileForPath(path)
	if !ok {
		return nil, &UnsupportedFileTypeError{Name: filepath.Base(path)}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &CannotReadSourceFileError{Path: path, Err: err}
	}
	return newCodeSource(path, profile, string(data))
}

// NewCodeSourceFromString builds a CodeSource directly from an in-memory
// buffer, bypassing disk I/O. Primarily used by tests.
func NewCodeSourceFromString(path, content string) (*CodeSource, error) {
	profile, ok := profileForPath(path)
	if !ok {
		return nil, &UnsupportedFileTypeError{Name: filepath.Base(path)}
	}
	return newCodeSource(path, profile, content)
}

func newCodeSource(path string, profile *languageProfile, content string) (*CodeSource, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(profile.grammar)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return &CodeSource{
		Path:     path,
		Language: profile.lang,
		Buffer:   content,
		Tree:     tree,
		profile:  profile,
	}, nil
}
