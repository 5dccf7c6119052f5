package scripts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/codemodtest"
)

func TestExample(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: `{"scripts":{"build":"webpack"},"devDependencies":{}}`,
		"src/deprecated.ts":      "export {};\n",
		"src/old-config.json":    "{}",
	})

	require.NoError(t, codemodtest.Run(t, c, Example, map[string]any{
		"featureName": "dashboards",
		"port":        "8080",
		"frameworks":  "react,vue",
	}))

	pkg, err := codemods.ReadPackageJSON(c, codemods.PackageJSONPath)
	require.NoError(t, err)
	assert.Equal(t, `echo "Running dashboards"`, pkg.Scripts["example-script"])
	assert.Equal(t, "^20.0.0", pkg.DevDependencies["@types/node"])

	feature := codemodtest.File(t, c, "src/features/dashboards.ts")
	assert.Contains(t, feature, "export const dashboards = {")
	assert.Contains(t, feature, "enabled: true,")
	assert.Contains(t, feature, "port: 8080,")
	assert.Contains(t, feature, `frameworks: ["react","vue"],`)

	assert.False(t, c.DoesFileExist("src/deprecated.ts"))
	assert.True(t, c.DoesFileExist("src/new-config.json"))
}

func TestExample_DefaultPort(t *testing.T) {
	_, c := codemodtest.NewProject(t, nil)

	require.NoError(t, codemodtest.Run(t, c, Example, map[string]any{"featureName": "alerts"}))

	assert.Contains(t, codemodtest.File(t, c, "src/features/alerts.ts"), "port: 3000,")
}

func TestExample_InvalidOptions(t *testing.T) {
	tests := map[string]map[string]any{
		"missing name":  nil,
		"short name":    {"featureName": "ab"},
		"low port":      {"featureName": "alerts", "port": 80},
		"unknown field": {"featureName": "alerts", "colour": "blue"},
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, c := codemodtest.NewProject(t, nil)

			err := codemodtest.Run(t, c, Example, raw)
			assert.ErrorIs(t, err, codemods.ErrInvalidOptions)
			assert.False(t, c.HasChanges())
		})
	}
}

func TestExample_Idempotent(t *testing.T) {
	_, c := codemodtest.NewProject(t, map[string]string{
		codemods.PackageJSONPath: `{"scripts":{"build":"webpack"}}`,
	})

	codemodtest.AssertIdempotent(t, c, Example, map[string]any{"featureName": "dashboards"})
}
