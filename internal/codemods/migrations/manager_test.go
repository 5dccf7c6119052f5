package migrations

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/config"
	"github.com/grafana/create-plugin/internal/fs"
)

var testRoot = filepath.FromSlash("/plugin")

type recordingCommitter struct {
	messages []string
}

func (r *recordingCommitter) CommitAll(ctx context.Context, root, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func newProject(files map[string]string) *fs.MockFS {
	m := fs.NewMockFS()
	m.AddDir(testRoot)
	for p, content := range files {
		m.AddFile(filepath.Join(testRoot, filepath.FromSlash(p)), []byte(content), 0644)
	}
	return m
}

func writer(path, content string) codemods.Script {
	return codemods.ScriptFunc(func(c *codemods.Context) error {
		return c.AddFile(path, content)
	})
}

func managerRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(
		Migration{Name: "add-a", Description: "Adds a.", Version: "5.1.0", Script: writer("a.txt", "a")},
		Migration{Name: "add-b", Description: "Adds b.", Version: "5.2.0", Script: writer("b.txt", "b")},
	)
	return r
}

func rootConfig(t *testing.T, m *fs.MockFS) string {
	t.Helper()
	content, err := m.ReadFile(filepath.Join(testRoot, filepath.FromSlash(config.RootConfigPath)))
	require.NoError(t, err)
	return string(content)
}

func TestManager_Update(t *testing.T) {
	m := newProject(map[string]string{config.RootConfigPath: `{"version":"5.0.0","features":{}}`})
	manager := NewManager(testRoot, managerRegistry(), WithFS(m))

	report, err := manager.Update(context.Background(), config.RunConfig{FromVersion: "5.0.0", ToVersion: "5.2.0"})

	require.NoError(t, err)
	assert.Equal(t, codemods.StateCompleted, report.State)
	assert.True(t, m.FileExists(filepath.Join(testRoot, "a.txt")))
	assert.True(t, m.FileExists(filepath.Join(testRoot, "b.txt")))
	assert.Contains(t, rootConfig(t, m), `"version": "5.2.0"`)
}

func TestManager_UpdateCommitsEachMigrationAndConfig(t *testing.T) {
	m := newProject(map[string]string{config.RootConfigPath: `{"version":"5.0.0"}`})
	committer := &recordingCommitter{}
	manager := NewManager(testRoot, managerRegistry(), WithFS(m), WithCommitter(committer))

	_, err := manager.Update(context.Background(), config.RunConfig{
		FromVersion:         "5.0.0",
		ToVersion:           "5.2.0",
		CommitEachMigration: true,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"chore: run create-plugin migration - add-a\n\nAdds a.",
		"chore: run create-plugin migration - add-b\n\nAdds b.",
		"chore: update .config/.cprc.json to version 5.2.0.",
	}, committer.messages)
}

func TestManager_UpdateLeavesConfigOnFailure(t *testing.T) {
	m := newProject(map[string]string{config.RootConfigPath: `{"version":"5.0.0"}`})
	r := managerRegistry()
	r.MustRegister(Migration{Name: "broken", Version: "5.3.0", Script: codemods.ScriptFunc(func(c *codemods.Context) error {
		return errors.New("boom")
	})})
	manager := NewManager(testRoot, r, WithFS(m))

	report, err := manager.Update(context.Background(), config.RunConfig{FromVersion: "5.0.0", ToVersion: "5.3.0"})

	assert.ErrorIs(t, err, codemods.ErrMigrationFailure)
	assert.Equal(t, codemods.StateFailed, report.State)
	assert.Equal(t, `{"version":"5.0.0"}`, rootConfig(t, m))
	assert.False(t, m.FileExists(filepath.Join(testRoot, "a.txt")))
}

func TestManager_UpdateDryRun(t *testing.T) {
	m := newProject(map[string]string{config.RootConfigPath: `{"version":"5.0.0"}`})
	manager := NewManager(testRoot, managerRegistry(), WithFS(m))

	report, err := manager.Update(context.Background(), config.RunConfig{FromVersion: "5.0.0", ToVersion: "5.2.0", DryRun: true})

	require.NoError(t, err)
	assert.Len(t, report.Pending, 2)
	assert.Equal(t, `{"version":"5.0.0"}`, rootConfig(t, m))
}

func TestManager_UpdateNothingToDo(t *testing.T) {
	m := newProject(map[string]string{config.RootConfigPath: `{"version":"5.2.0"}`})
	manager := NewManager(testRoot, managerRegistry(), WithFS(m))

	report, err := manager.Update(context.Background(), config.RunConfig{FromVersion: "5.2.0", ToVersion: "5.2.0"})

	require.NoError(t, err)
	assert.Equal(t, codemods.StateCompleted, report.State)
	assert.Equal(t, `{"version":"5.2.0"}`, rootConfig(t, m))
}

func TestManager_RunNamed(t *testing.T) {
	m := newProject(map[string]string{
		"package.json": `{"scripts":{"build":"webpack -c ./.config/webpack/webpack.config.ts --env production"}}`,
	})
	manager := NewManager(testRoot, Example(), WithFS(m))

	_, err := manager.RunNamed(context.Background(), []string{"example-migration"}, map[string]any{"profile": "true"}, codemods.RunOptions{})

	require.NoError(t, err)
	content, err := m.ReadFile(filepath.Join(testRoot, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "--profile --env production")
	assert.True(t, m.FileExists(filepath.Join(testRoot, "src", "foo.json")))
}

func TestManager_RunNamedUnknown(t *testing.T) {
	manager := NewManager(testRoot, managerRegistry(), WithFS(newProject(nil)))

	_, err := manager.RunNamed(context.Background(), []string{"missing"}, nil, codemods.RunOptions{})

	assert.ErrorIs(t, err, codemods.ErrUnknownCodemod)
}

func TestNeedsUpdate(t *testing.T) {
	needed, err := NeedsUpdate("5.0.0", "5.1.0")
	require.NoError(t, err)
	assert.True(t, needed)

	needed, err = NeedsUpdate("5.1.0", "5.1.0")
	require.NoError(t, err)
	assert.False(t, needed)

	_, err = NeedsUpdate(config.VersionUnknown, "5.1.0")
	assert.ErrorIs(t, err, codemods.ErrInvalidVersion)
}
