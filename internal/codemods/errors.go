package codemods

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrAlreadyExists    = errors.New("file already exists")
	ErrInvalidVersion   = errors.New("invalid version")
	ErrMigrationFailure = errors.New("codemod failed")
	ErrFlush            = errors.New("flush failed")
	ErrInvalidOptions   = errors.New("invalid options")
	ErrUnknownCodemod   = errors.New("unknown codemod")
)

// PathError records a virtual file operation that failed for a path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// CodemodError is returned by the runner when a script fails. Index is the
// position of the codemod in the batch.
type CodemodError struct {
	Name  string
	Index int
	Err   error
}

func (e *CodemodError) Error() string {
	return fmt.Sprintf("codemod %s failed: %v", e.Name, e.Err)
}

func (e *CodemodError) Unwrap() error {
	return e.Err
}

func (e *CodemodError) Is(target error) bool {
	return target == ErrMigrationFailure
}

// FlushError reports the first I/O failure during Flush together with the
// paths that had already been written. Applied changes are not rolled back.
// Stranded lists staging files of renames that could not be moved back to
// their source.
type FlushError struct {
	Applied  []string
	Failed   string
	Op       string
	Err      error
	Stranded []string
}

func (e *FlushError) Error() string {
	msg := fmt.Sprintf("flush: %s %s: %v", e.Op, e.Failed, e.Err)
	if len(e.Applied) > 0 {
		msg += fmt.Sprintf(" (already applied: %s)", strings.Join(e.Applied, ", "))
	}
	if len(e.Stranded) > 0 {
		msg += fmt.Sprintf(" (left staged: %s)", strings.Join(e.Stranded, ", "))
	}
	return msg
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

func (e *FlushError) Is(target error) bool {
	return target == ErrFlush
}
