package internal

import "fmt"

// PathExistsError is returned when a root registration collides with a
// root that already covers the new path.
type PathExistsError struct {
	Path string
	Root string
}

func (e *PathExistsError) Error() string {
	return fmt.Sprintf("%q is already covered by %q", e.Path, e.Root)
}

// CannotReadSourceFileError is a warning-severity condition: the file is
// omitted and scanning continues.
type CannotReadSourceFileError struct {
	Path string
	Err  error
}

func (e *CannotReadSourceFileError) Error() string {
	return fmt.Sprintf("cannot read source file %q: %v", e.Path, e.Err)
}

func (e *CannotReadSourceFileError) Unwrap() error { return e.Err }

// CannotAccessPathError is a warning-severity condition surfaced during
// tree traversal.
type CannotAccessPathError struct {
	Path string
	Err  error
}

func (e *CannotAccessPathError) Error() string {
	return fmt.Sprintf("cannot access path %q: %v", e.Path, e.Err)
}

func (e *CannotAccessPathError) Unwrap() error { return e.Err }

// UnsupportedFileTypeError marks a file whose extension carries no
// language profile. The tree index classifies such files as
// UnsupportedFile internally and does not propagate this as an error
// during a scan; it is exposed for callers (such as LoadCodeSource)
// that are handed a single file directly.
type UnsupportedFileTypeError struct {
	Name string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.Name)
}

// ErrNoLogStatements is returned by LinkToSource when no extracted log
// statement matches the given body.
var ErrNoLogStatements = fmt.Errorf("no log statements found")
