package codemods

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/fs"
)

func readMock(t *testing.T, m *fs.MockFS, p string) string {
	t.Helper()
	data, err := m.ReadFile(filepath.Join(testRoot, p))
	require.NoError(t, err)
	return string(data)
}

func TestFlush_AppliesAllChangeTypes(t *testing.T) {
	m, c := newTestContext(t, map[string]string{
		"src/README.md": "readme",
		"package.json":  "{}",
		".eslintrc":     "{ \"extends\": [] }",
	})

	require.NoError(t, c.AddFile("src/foo.json", `{"foo":"bar"}`))
	require.NoError(t, c.UpdateFile("package.json", `{"name":"x"}`))
	require.NoError(t, c.DeleteFile("src/README.md"))
	require.NoError(t, c.RenameFile(".eslintrc", ".eslint.config.json"))

	require.NoError(t, c.Flush())

	assert.Equal(t, []string{
		"/plugin/.eslint.config.json",
		"/plugin/package.json",
		"/plugin/src/foo.json",
	}, m.Files())
	assert.Equal(t, `{"foo":"bar"}`, readMock(t, m, "src/foo.json"))
	assert.Equal(t, `{"name":"x"}`, readMock(t, m, "package.json"))
	assert.Equal(t, `{ "extends": [] }`, readMock(t, m, ".eslint.config.json"))

	assert.False(t, c.HasChanges())
}

func TestFlush_RenameWithEdits(t *testing.T) {
	m, c := newTestContext(t, map[string]string{"a.txt": "old"})

	require.NoError(t, c.RenameFile("a.txt", "nested/b.txt"))
	require.NoError(t, c.UpdateFile("nested/b.txt", "new"))
	require.NoError(t, c.Flush())

	assert.Equal(t, []string{"/plugin/nested/b.txt"}, m.Files())
	assert.Equal(t, "new", readMock(t, m, "nested/b.txt"))
}

func TestFlush_SwapsFiles(t *testing.T) {
	m, c := newTestContext(t, map[string]string{"a": "A", "b": "B"})

	require.NoError(t, c.RenameFile("a", "tmp"))
	require.NoError(t, c.RenameFile("b", "a"))
	require.NoError(t, c.RenameFile("tmp", "b"))
	require.NoError(t, c.Flush())

	assert.Equal(t, []string{"/plugin/a", "/plugin/b"}, m.Files())
	assert.Equal(t, "B", readMock(t, m, "a"))
	assert.Equal(t, "A", readMock(t, m, "b"))
}

func TestFlush_KeepsPermissions(t *testing.T) {
	m := fs.NewMockFS()
	m.AddFile("/plugin/run.sh", []byte("echo"), 0755)
	c := NewContext(testRoot, WithFS(m))

	require.NoError(t, c.UpdateFile("run.sh", "echo hi"))
	require.NoError(t, c.Flush())

	info, err := m.Stat("/plugin/run.sh")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestFlush_StopsOnFirstFailure(t *testing.T) {
	m, c := newTestContext(t, map[string]string{"old.txt": "x"})
	m.FailOn("rename", "/plugin/b.txt", errors.New("disk full"))

	require.NoError(t, c.DeleteFile("old.txt"))
	require.NoError(t, c.AddFile("a.txt", "a"))
	require.NoError(t, c.AddFile("b.txt", "b"))
	require.NoError(t, c.AddFile("c.txt", "c"))

	err := c.Flush()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFlush)

	var flushErr *FlushError
	require.ErrorAs(t, err, &flushErr)
	assert.Equal(t, []string{"old.txt", "a.txt"}, flushErr.Applied)
	assert.Equal(t, "b.txt", flushErr.Failed)
	assert.Equal(t, "write", flushErr.Op)

	assert.False(t, m.FileExists("/plugin/c.txt"))
	assert.True(t, c.HasChanges(), "pending state is kept after a failed flush")
}

func TestFlush_RealFS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("keep"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("gone"), 0644))

	c := NewContext(dir)
	require.NoError(t, c.AddFile("src/features/new.ts", "export const x = 1;\n"))
	require.NoError(t, c.DeleteFile("gone.txt"))
	require.NoError(t, c.RenameFile("keep.txt", "kept.txt"))
	require.NoError(t, c.Flush())

	data, err := os.ReadFile(filepath.Join(dir, "src", "features", "new.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1;\n", string(data))

	assert.NoFileExists(t, filepath.Join(dir, "gone.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "keep.txt"))
	assert.FileExists(t, filepath.Join(dir, "kept.txt"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"kept.txt", "src"}, names)
}

func TestFlush_ReusedRenameSource(t *testing.T) {
	t.Run("deleting a file renamed onto a moved source", func(t *testing.T) {
		m, c := newTestContext(t, map[string]string{"a": "A", "c": "C"})
		require.NoError(t, c.RenameFile("a", "x"))
		require.NoError(t, c.RenameFile("c", "a"))
		require.NoError(t, c.DeleteFile("a"))

		require.NoError(t, c.Flush())

		assert.Equal(t, []string{"/plugin/x"}, m.Files())
		assert.Equal(t, "A", readMock(t, m, "x"))
	})

	t.Run("re-adding a moved source", func(t *testing.T) {
		m, c := newTestContext(t, map[string]string{"a": "A", "b": "B"})
		require.NoError(t, c.RenameFile("a", "x"))
		require.NoError(t, c.RenameFile("b", "a"))
		require.NoError(t, c.DeleteFile("a"))
		require.NoError(t, c.AddFile("a", "A"))

		require.NoError(t, c.Flush())

		assert.Equal(t, []string{"/plugin/a", "/plugin/x"}, m.Files())
		assert.Equal(t, "A", readMock(t, m, "a"))
		assert.Equal(t, "A", readMock(t, m, "x"))
	})

	t.Run("writing a new file at a moved source", func(t *testing.T) {
		m, c := newTestContext(t, map[string]string{"a.txt": "old"})
		require.NoError(t, c.RenameFile("a.txt", "b.txt"))
		require.NoError(t, c.AddFile("a.txt", "replacement"))

		require.NoError(t, c.Flush())

		assert.Equal(t, "replacement", readMock(t, m, "a.txt"))
		assert.Equal(t, "old", readMock(t, m, "b.txt"))
	})
}

func TestFlush_RenameFailureRestoresSources(t *testing.T) {
	m, c := newTestContext(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	m.FailOn("rename", "/plugin/y.txt", errors.New("disk full"))

	require.NoError(t, c.RenameFile("a.txt", "x.txt"))
	require.NoError(t, c.RenameFile("b.txt", "y.txt"))

	err := c.Flush()

	var flushErr *FlushError
	require.ErrorAs(t, err, &flushErr)
	assert.Equal(t, []string{"x.txt"}, flushErr.Applied)
	assert.Equal(t, "y.txt", flushErr.Failed)
	assert.Empty(t, flushErr.Stranded)

	assert.Equal(t, []string{"/plugin/b.txt", "/plugin/x.txt"}, m.Files())
	assert.Equal(t, "b", readMock(t, m, "b.txt"))
}

func TestFlush_RenameFailureReportsStagedFiles(t *testing.T) {
	m, c := newTestContext(t, map[string]string{"a": "A", "b": "B"})
	m.FailOn("rename", "/plugin/a", errors.New("disk full"))

	require.NoError(t, c.RenameFile("a", "tmp"))
	require.NoError(t, c.RenameFile("b", "a"))
	require.NoError(t, c.RenameFile("tmp", "b"))

	err := c.Flush()

	var flushErr *FlushError
	require.ErrorAs(t, err, &flushErr)
	assert.Equal(t, "a", flushErr.Failed)
	require.Len(t, flushErr.Stranded, 1)
	assert.Contains(t, flushErr.Stranded[0], ".a.rename-")
	assert.Contains(t, err.Error(), flushErr.Stranded[0])

	assert.Equal(t, "B", readMock(t, m, "b"))
	assert.Equal(t, []string{flushErr.Stranded[0], "/plugin/b"}, m.Files())
}
