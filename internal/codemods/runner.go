package codemods

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/fs"
)

// Codemod is one unit of work handed to the Runner. Migrations and
// additions both end up as Codemods.
type Codemod struct {
	Name          string
	Description   string
	Script        Script
	Options       map[string]any
	CommitMessage string
}

type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Result struct {
	Name    string
	Changes []Change
}

// Report describes how far a run got. Index is the codemod being run, or
// the one that failed.
type Report struct {
	State     State
	Index     int
	Results   []Result
	Pending   []Change
	Installed bool
}

// Reporter is told about every codemod that ran and what it changed.
type Reporter interface {
	Report(mod Codemod, c *Context, changes []Change)
}

// Formatter rewrites pending file contents in place before they are flushed.
type Formatter interface {
	Format(ctx context.Context, c *Context) error
}

type Installer interface {
	Install(ctx context.Context, root string) error
}

type Committer interface {
	CommitAll(ctx context.Context, root, message string) error
}

type RunOptions struct {
	// CommitEach flushes and commits after every codemod that changed
	// something instead of flushing once at the end.
	CommitEach bool
	DryRun     bool
}

type Runner struct {
	root      string
	fs        fs.FS
	logger    *log.Logger
	reporter  Reporter
	formatter Formatter
	installer Installer
	committer Committer
}

type RunnerOption func(*Runner)

func WithRunnerFS(fsys fs.FS) RunnerOption {
	return func(r *Runner) { r.fs = fsys }
}

func WithRunnerLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

func WithReporter(reporter Reporter) RunnerOption {
	return func(r *Runner) { r.reporter = reporter }
}

func WithFormatter(formatter Formatter) RunnerOption {
	return func(r *Runner) { r.formatter = formatter }
}

func WithInstaller(installer Installer) RunnerOption {
	return func(r *Runner) { r.installer = installer }
}

func WithCommitter(committer Committer) RunnerOption {
	return func(r *Runner) { r.committer = committer }
}

func NewRunner(root string, opts ...RunnerOption) *Runner {
	r := &Runner{
		root: root,
		fs:   fs.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Run executes mods in order against one shared context. Nothing reaches
// disk unless every codemod succeeds, except that with CommitEach each
// successful codemod is flushed and committed before the next one starts.
// Cancellation is checked between codemods.
func (r *Runner) Run(ctx context.Context, mods []Codemod, opts RunOptions) (*Report, error) {
	report := &Report{State: StatePending, Index: -1}
	c := NewContext(r.root, WithFS(r.fs), WithLogger(r.logger))

	if opts.CommitEach && r.committer == nil && !opts.DryRun {
		return report, errors.New("commit requested but no committer configured")
	}

	packageJSONChanged := false
	for i, mod := range mods {
		if err := ctx.Err(); err != nil {
			report.State = StateFailed
			return report, err
		}

		report.State = StateRunning
		report.Index = i
		r.logger.Debug("running codemod", "name", mod.Name)

		before := c.Clone()
		if err := runScript(c, mod); err != nil {
			report.State = StateFailed
			r.logger.Error("codemod failed", "name", mod.Name, "err", err)
			return report, &CodemodError{Name: mod.Name, Index: i, Err: err}
		}

		changes := Diff(before, c)
		report.Results = append(report.Results, Result{Name: mod.Name, Changes: changes})
		if r.reporter != nil {
			r.reporter.Report(mod, c, changes)
		}

		if opts.CommitEach && !opts.DryRun && c.HasChanges() {
			if touchesPackageJSON(c.ListChanges()) {
				packageJSONChanged = true
			}
			if err := r.apply(ctx, c); err != nil {
				report.State = StateFailed
				return report, err
			}
			if err := r.committer.CommitAll(ctx, r.root, mod.commitMessage()); err != nil {
				report.State = StateFailed
				return report, fmt.Errorf("committing %s: %w", mod.Name, err)
			}
		}
	}

	if opts.DryRun {
		report.Pending = c.ListChanges()
		report.State = StateCompleted
		return report, nil
	}

	if c.HasChanges() {
		if touchesPackageJSON(c.ListChanges()) {
			packageJSONChanged = true
		}
		if err := r.apply(ctx, c); err != nil {
			report.State = StateFailed
			return report, err
		}
	}

	if packageJSONChanged && r.installer != nil {
		if err := r.installer.Install(ctx, r.root); err != nil {
			report.State = StateFailed
			return report, fmt.Errorf("installing dependencies: %w", err)
		}
		report.Installed = true
	}

	report.State = StateCompleted
	return report, nil
}

func runScript(c *Context, mod Codemod) error {
	opts, err := ParseOptions(mod.Script, mod.Options)
	if err != nil {
		return err
	}
	return mod.Script.Run(c, opts)
}

func (r *Runner) apply(ctx context.Context, c *Context) error {
	if r.formatter != nil {
		if err := r.formatter.Format(ctx, c); err != nil {
			return fmt.Errorf("formatting files: %w", err)
		}
	}
	if err := c.Flush(); err != nil {
		return fmt.Errorf("applying changes: %w", err)
	}
	return nil
}

func (m Codemod) commitMessage() string {
	if m.CommitMessage != "" {
		return m.CommitMessage
	}
	return fmt.Sprintf("chore: run create-plugin codemod - %s", m.Name)
}

func touchesPackageJSON(changes []Change) bool {
	for _, ch := range changes {
		if ch.Path == PackageJSONPath && (ch.Type == ChangeUpdate || ch.Type == ChangeAdd) {
			return true
		}
	}
	return false
}
