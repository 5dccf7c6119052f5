package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/fs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	t.Run("merges user config over root config", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, RootConfigPath, `{"version": "5.2.0", "features": {"bundleGrafanaUI": false}}`)
		writeFile(t, root, UserConfigPath, `{"version": "9.9.9", "features": {"bundleGrafanaUI": true}}`)

		cfg, err := Load(root)
		require.NoError(t, err)

		assert.Equal(t, "5.2.0", cfg.Version, "version always comes from the root config")
		assert.True(t, cfg.Features.BundleGrafanaUI)
	})

	t.Run("root config only", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, RootConfigPath, `{"version": "6.1.0"}`)

		cfg, err := Load(root)
		require.NoError(t, err)

		assert.Equal(t, "6.1.0", cfg.Version)
		assert.False(t, cfg.Features.BundleGrafanaUI)
	})

	t.Run("missing config", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, VersionUnknown, cfg.Version)
	})

	t.Run("broken root config", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, RootConfigPath, `{"version": `)

		_, err := Load(root)
		assert.Error(t, err)
	})
}

func TestSetRootConfig(t *testing.T) {
	t.Run("updates version and keeps other keys", func(t *testing.T) {
		m := fs.NewMockFS()
		m.AddFile("/plugin/.config/.cprc.json", []byte(`{"version":"5.0.0","features":{"bundleGrafanaUI":true},"custom":1}`), 0644)

		require.NoError(t, SetRootConfig(m, "/plugin", "6.1.13"))

		data, err := m.ReadFile("/plugin/.config/.cprc.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":"6.1.13","features":{"bundleGrafanaUI":true},"custom":1}`, string(data))
	})

	t.Run("keeps key order", func(t *testing.T) {
		m := fs.NewMockFS()
		m.AddFile("/plugin/.config/.cprc.json", []byte(`{"features":{},"version":"1.0.0","extra":1}`), 0644)

		require.NoError(t, SetRootConfig(m, "/plugin", "6.1.13"))

		data, err := m.ReadFile("/plugin/.config/.cprc.json")
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"features\": {},\n  \"version\": \"6.1.13\",\n  \"extra\": 1\n}\n", string(data))
	})

	t.Run("creates the file", func(t *testing.T) {
		m := fs.NewMockFS()

		require.NoError(t, SetRootConfig(m, "/plugin", "6.1.13"))

		data, err := m.ReadFile("/plugin/.config/.cprc.json")
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"version\": \"6.1.13\",\n  \"features\": {}\n}\n", string(data))
	})

	t.Run("rejects a config that is not an object", func(t *testing.T) {
		m := fs.NewMockFS()
		m.AddFile("/plugin/.config/.cprc.json", []byte(`["6.0.0"]`), 0644)

		assert.Error(t, SetRootConfig(m, "/plugin", "6.1.13"))
	})

	t.Run("round trips through Load", func(t *testing.T) {
		root := t.TempDir()

		require.NoError(t, SetRootConfig(fs.Default, root, "6.2.0"))

		cfg, err := Load(root)
		require.NoError(t, err)
		assert.Equal(t, "6.2.0", cfg.Version)
	})
}
