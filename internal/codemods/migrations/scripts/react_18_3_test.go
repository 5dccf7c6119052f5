package scripts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/codemodtest"
)

func readPackageJSON(t *testing.T, c *codemods.Context) *codemods.PackageJSON {
	t.Helper()
	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	require.NoError(t, err)
	return pkg
}

func TestReact18_3_NoOp(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no package.json", nil},
		{"no react", map[string]string{
			codemods.PackageJSONPath: `{"dependencies":{"lodash":"^4.17.21"}}`,
		}},
		{"react 17", map[string]string{
			codemods.PackageJSONPath: `{"dependencies":{"react":"^17.0.2","react-dom":"^17.0.2"},` +
				`"devDependencies":{"@types/react":"^17.0.0","@types/react-dom":"^17.0.0"}}`,
		}},
		{"already 18.3", map[string]string{
			codemods.PackageJSONPath: `{"dependencies":{"react":"^18.3.0","react-dom":"^18.3.0"},` +
				`"devDependencies":{"@types/react":"^18.3.0","@types/react-dom":"^18.3.0"}}`,
		}},
		{"react 19", map[string]string{
			codemods.PackageJSONPath: `{"dependencies":{"react":"^19.0.0","react-dom":"^19.0.0"},` +
				`"devDependencies":{"@types/react":"^19.0.0","@types/react-dom":"^19.0.0"}}`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := codemodtest.NewProject(t, tt.files)

			require.NoError(t, codemodtest.Run(t, c, React18_3, nil))
			assert.False(t, c.HasChanges())
		})
	}
}

func TestReact18_3_UpdatesReact18(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: `{"dependencies":{"react":"^18.0.0"}}`,
	})

	require.NoError(t, codemodtest.Run(t, c, React18_3, nil))

	pkg := readPackageJSON(t, c)
	assert.Equal(t, "^18.3.0", pkg.Dependencies["react"])
	assert.Equal(t, "^18.3.0", pkg.DevDependencies["@types/react"])
}

func TestReact18_3_HandlesRanges(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: `{"dependencies":{"react":"~18.1.0","react-dom":"18.2.0"}}`,
	})

	require.NoError(t, codemodtest.Run(t, c, React18_3, nil))

	pkg := readPackageJSON(t, c)
	assert.Equal(t, "^18.3.0", pkg.Dependencies["react"])
	assert.Equal(t, "^18.3.0", pkg.Dependencies["react-dom"])
}

func TestReact18_3_Idempotent(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: `{"dependencies":{"react":"^18.2.0","react-dom":"^18.2.0"},` +
			`"devDependencies":{"@types/react":"^18.2.0","@types/react-dom":"^18.2.0"}}`,
	})

	codemodtest.AssertIdempotent(t, c, React18_3, nil)
}
