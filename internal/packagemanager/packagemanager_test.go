package packagemanager

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/fs"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  PackageManager
	}{
		{
			name: "packageManager field wins over lockfile",
			files: map[string]string{
				"/repo/plugin/package.json": `{"packageManager": "pnpm@9.1.0"}`,
				"/repo/plugin/yarn.lock":    "",
			},
			want: PackageManager{Name: PNPM, Version: "9.1.0"},
		},
		{
			name: "corepack integrity suffix is dropped",
			files: map[string]string{
				"/repo/plugin/package.json": `{"packageManager": "yarn@4.1.1+sha256.abc"}`,
			},
			want: PackageManager{Name: Yarn, Version: "4.1.1"},
		},
		{
			name: "npm lockfile",
			files: map[string]string{
				"/repo/plugin/package.json":      `{"name": "plugin"}`,
				"/repo/plugin/package-lock.json": "{}",
			},
			want: PackageManager{Name: NPM},
		},
		{
			name: "pnpm lockfile",
			files: map[string]string{
				"/repo/plugin/pnpm-lock.yaml": "",
			},
			want: PackageManager{Name: PNPM},
		},
		{
			name: "lockfile in a parent workspace",
			files: map[string]string{
				"/repo/pnpm-lock.yaml":      "",
				"/repo/plugin/package.json": `{}`,
			},
			want: PackageManager{Name: PNPM},
		},
		{
			name: "nothing to go on",
			files: map[string]string{
				"/repo/plugin/package.json": `not json`,
			},
			want: Default,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := fs.NewMockFS()
			for path, content := range tt.files {
				mock.AddFile(path, []byte(content), 0o644)
			}
			assert.Equal(t, tt.want, Detect(mock, "/repo/plugin"))
		})
	}
}

func TestInstallArgs(t *testing.T) {
	assert.Equal(t, []string{"npm", "install", "--silent"}, PackageManager{Name: NPM}.InstallArgs())
	assert.Equal(t, []string{"yarn", "install", "--silent"}, PackageManager{Name: Yarn}.InstallArgs())
	assert.Equal(t, []string{"pnpm", "install", "--silent"}, PackageManager{Name: PNPM}.InstallArgs())
	assert.Equal(t, "yarn@1.22.22", Default.String())
	assert.Equal(t, "npm", PackageManager{Name: NPM}.String())
}

type recordedCommand struct {
	dir  string
	name string
	args []string
}

func TestInstallerInstall(t *testing.T) {
	mock := fs.NewMockFS()
	mock.AddFile("/plugin/package-lock.json", []byte("{}"), 0o644)

	var got []recordedCommand
	installer := NewInstaller(
		WithFS(mock),
		WithCommand(func(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) error {
			got = append(got, recordedCommand{dir: dir, name: name, args: args})
			return nil
		}),
	)

	require.NoError(t, installer.Install(context.Background(), "/plugin"))
	require.Len(t, got, 1)
	assert.Equal(t, "/plugin", got[0].dir)
	assert.Equal(t, "npm", got[0].name)
	assert.Equal(t, []string{"install", "--silent"}, got[0].args)
}

func TestInstallerInstallFailure(t *testing.T) {
	installer := NewInstaller(
		WithFS(fs.NewMockFS()),
		WithCommand(func(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) error {
			_, _ = io.WriteString(stderr, "ERR! network down\n")
			return errors.New("exit status 1")
		}),
	)

	err := installer.Install(context.Background(), "/plugin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yarn install --silent failed")
	assert.Contains(t, err.Error(), "ERR! network down")
}
