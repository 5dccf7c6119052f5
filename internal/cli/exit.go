package cli

import (
	"errors"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/config"
	"github.com/grafana/create-plugin/internal/git"
	"github.com/grafana/create-plugin/internal/ui"
)

// preconditionError is a check that failed before anything ran. Hint tells
// the user how to get past it.
type preconditionError struct {
	Title string
	Hint  string
}

func (e *preconditionError) Error() string {
	return e.Title
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil || ui.IsAbort(err) {
		return config.ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var pe *preconditionError
	if errors.As(err, &pe) {
		return config.ExitPreconditionFailed
	}

	switch {
	case errors.Is(err, codemods.ErrInvalidVersion),
		errors.Is(err, codemods.ErrInvalidOptions),
		errors.Is(err, codemods.ErrUnknownCodemod):
		return config.ExitInvalidArguments
	case errors.Is(err, codemods.ErrMigrationFailure), errors.Is(err, codemods.ErrFlush):
		return config.ExitCodemodFailed
	case errors.Is(err, git.ErrNotRepository):
		return config.ExitGitOperationFailed
	default:
		return config.ExitGeneralError
	}
}
