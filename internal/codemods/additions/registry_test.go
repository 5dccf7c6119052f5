package additions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/codemods"
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

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := codemods.ScriptFunc(func(c *codemods.Context) error { return nil })

	require.NoError(t, r.Register(Addition{Name: "b", Script: noop}))
	require.NoError(t, r.Register(Addition{Name: "a", Script: noop}))
	assert.Error(t, r.Register(Addition{Name: "a", Script: noop}))
	assert.Error(t, r.Register(Addition{Name: "c"}))

	assert.Equal(t, []string{"a", "b"}, r.Names())

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, codemods.ErrUnknownCodemod)
	assert.Contains(t, err.Error(), "[a b]")
}

func TestDefault(t *testing.T) {
	assert.Equal(t, []string{"example-addition", "i18n"}, Default().Names())
}

func TestManager_Run(t *testing.T) {
	m := fs.NewMockFS()
	m.AddDir(testRoot)
	committer := &recordingCommitter{}
	manager := NewManager(testRoot, nil, WithFS(m), WithCommitter(committer))

	report, err := manager.Run(context.Background(), []string{"example-addition"},
		map[string]any{"featureName": "dashboards"}, codemods.RunOptions{CommitEach: true})

	require.NoError(t, err)
	assert.Equal(t, codemods.StateCompleted, report.State)
	assert.True(t, m.FileExists(filepath.Join(testRoot, "src", "features", "dashboards.ts")))
	assert.Equal(t, []string{"chore: add example-addition support via create-plugin"}, committer.messages)
}

func TestManager_RunUnknown(t *testing.T) {
	manager := NewManager(testRoot, nil, WithFS(fs.NewMockFS()))

	_, err := manager.Run(context.Background(), []string{"nope"}, nil, codemods.RunOptions{})

	assert.ErrorIs(t, err, codemods.ErrUnknownCodemod)
}

func TestManager_RunInvalidOptionsLeavesProjectAlone(t *testing.T) {
	m := fs.NewMockFS()
	m.AddDir(testRoot)
	manager := NewManager(testRoot, nil, WithFS(m))

	report, err := manager.Run(context.Background(), []string{"i18n"}, map[string]any{"locales": "english"}, codemods.RunOptions{})

	assert.ErrorIs(t, err, codemods.ErrInvalidOptions)
	assert.Equal(t, codemods.StateFailed, report.State)
	assert.Empty(t, m.Files())
}
