// Package format runs the project's own prettier over pending file changes
// so codemod output matches the plugin's code style.
package format

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/fs"
)

const prettierBin = "node_modules/.bin/prettier"

// extensions prettier infers a parser for.
var extensions = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
	".json": true, ".yaml": true, ".yml": true, ".md": true,
	".css": true, ".scss": true, ".html": true,
}

// CommandFunc runs name with args in dir, feeding stdin and returning stdout.
type CommandFunc func(ctx context.Context, dir, stdin, name string, args ...string) (string, error)

func execCommand(ctx context.Context, dir, stdin, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Prettier formats added, updated and renamed files with the prettier
// installed in the plugin's node_modules. Without one it does nothing.
type Prettier struct {
	fs     fs.FS
	logger *log.Logger
	run    CommandFunc
}

type Option func(*Prettier)

func WithFS(fsys fs.FS) Option {
	return func(p *Prettier) { p.fs = fsys }
}

func WithLogger(logger *log.Logger) Option {
	return func(p *Prettier) { p.logger = logger }
}

func WithCommand(run CommandFunc) Option {
	return func(p *Prettier) { p.run = run }
}

func NewPrettier(opts ...Option) *Prettier {
	p := &Prettier{
		fs:  fs.Default,
		run: execCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// args returns the prettier arguments for file, or false when prettier has
// no parser for it.
func args(file string) ([]string, bool) {
	base := path.Base(file)
	if base == ".eslintrc" {
		return []string{"--parser", "json", "--stdin-filepath", file}, true
	}
	if !extensions[path.Ext(base)] {
		return nil, false
	}
	return []string{"--stdin-filepath", file}, true
}

func (p *Prettier) Format(ctx context.Context, c *codemods.Context) error {
	bin := filepath.Join(c.Root(), filepath.FromSlash(prettierBin))
	if _, err := p.fs.Stat(bin); err != nil {
		p.logger.Debug("prettier not installed, skipping formatting", "path", bin)
		return nil
	}

	for _, change := range c.ListChanges() {
		if change.Type == codemods.ChangeDelete {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		a, ok := args(change.Path)
		if !ok {
			continue
		}
		content, ok := c.GetFile(change.Path)
		if !ok || content == "" {
			continue
		}

		formatted, err := p.run(ctx, c.Root(), content, bin, a...)
		if err != nil {
			p.logger.Warn("could not format file", "path", change.Path, "err", err)
			continue
		}
		if formatted == content {
			continue
		}
		if err := c.UpdateFile(change.Path, formatted); err != nil {
			return fmt.Errorf("storing formatted %s: %w", change.Path, err)
		}
	}
	return nil
}
