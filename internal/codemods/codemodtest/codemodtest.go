// Package codemodtest has helpers for testing migrations and additions
// against an in-memory project.
package codemodtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/fs"
)

// Root is where fixture projects live inside the mock filesystem.
var Root = filepath.FromSlash("/plugin")

// NewProject returns a mock filesystem holding files (relative path to
// content) and a fresh context over it.
func NewProject(t *testing.T, files map[string]string) (*fs.MockFS, *codemods.Context) {
	t.Helper()
	m := fs.NewMockFS()
	m.AddDir(Root)
	for p, content := range files {
		m.AddFile(filepath.Join(Root, filepath.FromSlash(p)), []byte(content), 0644)
	}
	return m, codemods.NewContext(Root, codemods.WithFS(m))
}

// Run parses raw options for script and runs it against c.
func Run(t *testing.T, c *codemods.Context, script codemods.Script, raw map[string]any) error {
	t.Helper()
	opts, err := codemods.ParseOptions(script, raw)
	if err != nil {
		return err
	}
	return script.Run(c, opts)
}

// AssertIdempotent runs script twice over the same context and fails the
// test if the second run changes anything.
func AssertIdempotent(t *testing.T, c *codemods.Context, script codemods.Script, raw map[string]any) {
	t.Helper()
	require.NoError(t, Run(t, c, script, raw), "first run")

	before := c.Clone()
	require.NoError(t, Run(t, c, script, raw), "second run")

	require.Empty(t, codemods.Diff(before, c), "second run changed files")
}

// File returns the content of p in c, failing the test if it is absent.
func File(t *testing.T, c *codemods.Context, p string) string {
	t.Helper()
	content, ok := c.GetFile(p)
	require.True(t, ok, "expected %s to exist", p)
	return content
}
