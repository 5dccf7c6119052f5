package codemods

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	t.Run("reports only what changed after the snapshot", func(t *testing.T) {
		_, c := newTestContext(t, map[string]string{"a": "1", "b": "2", "c": "3"})
		require.NoError(t, c.UpdateFile("a", "changed"))

		before := c.Clone()
		require.NoError(t, c.DeleteFile("b"))
		require.NoError(t, c.AddFile("d", "4"))
		require.NoError(t, c.RenameFile("c", "e"))

		assert.Equal(t, []Change{
			{Path: "b", Type: ChangeDelete},
			{Path: "d", Type: ChangeAdd},
			{Path: "e", Type: ChangeRename, RenamedFrom: "c"},
		}, Diff(before, c))
	})

	t.Run("identical snapshots", func(t *testing.T) {
		_, c := newTestContext(t, map[string]string{"a": "1"})
		require.NoError(t, c.UpdateFile("a", "2"))

		assert.Empty(t, Diff(c.Clone(), c))
	})

	t.Run("edits to a file renamed earlier are updates", func(t *testing.T) {
		_, c := newTestContext(t, map[string]string{"a": "1"})
		require.NoError(t, c.RenameFile("a", "b"))

		before := c.Clone()
		require.NoError(t, c.UpdateFile("b", "2"))

		assert.Equal(t, []Change{{Path: "b", Type: ChangeUpdate}}, Diff(before, c))
	})
}

func TestChange_JSON(t *testing.T) {
	data, err := json.Marshal([]Change{
		{Path: "src/foo.json", Type: ChangeAdd},
		{Path: ".eslint.config.json", Type: ChangeRename, RenamedFrom: ".eslintrc"},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"path":"src/foo.json","changeType":"add"},
		{"path":".eslint.config.json","changeType":"rename","renamedFrom":".eslintrc"}
	]`, string(data))
}

func TestContentDiff(t *testing.T) {
	_, c := newTestContext(t, map[string]string{"package.json": "{\n  \"name\": \"a\"\n}\n"})
	require.NoError(t, c.UpdateFile("package.json", "{\n  \"name\": \"b\"\n}\n"))

	diff, err := ContentDiff(c, "package.json")
	require.NoError(t, err)

	assert.Contains(t, diff, "--- a/package.json")
	assert.Contains(t, diff, "+++ b/package.json")
	assert.Contains(t, diff, "-  \"name\": \"a\"")
	assert.Contains(t, diff, "+  \"name\": \"b\"")
}
